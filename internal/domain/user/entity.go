package user

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role decides every permission in the system.
type Role string

const (
	RoleDriver     Role = "Driver"
	RoleManagement Role = "Management"
	RoleAdmin      Role = "Admin"
)

// JobTitleDeliveryDriver is treated as a driver in the contact directory
// even when the account carries another role.
const JobTitleDeliveryDriver = "Delivery Driver"

func (r Role) IsValid() bool {
	switch r {
	case RoleDriver, RoleManagement, RoleAdmin:
		return true
	}
	return false
}

// User represents a person who can sign in
type User struct {
	ID             uuid.UUID
	Email          string
	PasswordHashed string
	FirstName      string
	LastName       string
	Phone          *string
	JobTitle       *string
	Role           Role
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// FullName joins first and last name, skipping empty parts.
func (u *User) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
}

func (u *User) Viewer() Viewer {
	return Viewer{ID: u.ID, Role: u.Role}
}

// Viewer is the identity a request acts as.
type Viewer struct {
	ID   uuid.UUID
	Role Role
}

func (v Viewer) IsAdmin() bool      { return v.Role == RoleAdmin }
func (v Viewer) IsManagement() bool { return v.Role == RoleManagement }
func (v Viewer) IsDriver() bool     { return v.Role == RoleDriver }

// CanViewAll reports whether the viewer sees every driver's records.
func (v Viewer) CanViewAll() bool {
	return v.Role == RoleAdmin || v.Role == RoleManagement
}

// RefreshToken is an opaque long-lived token exchanged for access tokens.
type RefreshToken struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Token     string
	ExpiresAt time.Time
	Revoked   bool
	RevokedAt *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (t *RefreshToken) IsUsable(now time.Time) bool {
	return !t.Revoked && now.Before(t.ExpiresAt)
}
