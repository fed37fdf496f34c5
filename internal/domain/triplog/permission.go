package triplog

import (
	"time"

	"rx-logistics/internal/domain/user"
)

const (
	// FirstEditWindow is how long after submission a driver may edit.
	FirstEditWindow = 15 * time.Minute
	// SecondEditWindow is how long after the first edit a driver may edit again.
	SecondEditWindow = 5 * time.Minute
	// MaxDriverEdits caps how many times a driver may edit one record.
	MaxDriverEdits = 2
)

// Access describes what a viewer may do to one trip log right now.
type Access struct {
	CanView   bool
	CanModify bool
	// ModifyUntil is set only when CanModify is bounded by time.
	ModifyUntil *time.Time
}

// AccessFor applies the role rules:
//
//	Admin       view and modify anything, always
//	Management  view anything, never modify
//	Driver      view own records; modify own records while the edit window is open
func AccessFor(viewer user.Viewer, log *TripLog, now time.Time) Access {
	switch viewer.Role {
	case user.RoleAdmin:
		return Access{CanView: true, CanModify: true}
	case user.RoleManagement:
		return Access{CanView: true}
	case user.RoleDriver:
		if !log.IsOwnedBy(viewer.ID) {
			return Access{}
		}
		deadline, open := driverDeadline(log)
		if !open || !now.Before(deadline) {
			return Access{CanView: true}
		}
		return Access{CanView: true, CanModify: true, ModifyUntil: &deadline}
	}
	return Access{}
}

// CanModify reports whether viewer may edit or delete log at now.
func CanModify(viewer user.Viewer, log *TripLog, now time.Time) bool {
	return AccessFor(viewer, log, now).CanModify
}

// CanView does not depend on time.
func CanView(viewer user.Viewer, log *TripLog) bool {
	switch viewer.Role {
	case user.RoleAdmin, user.RoleManagement:
		return true
	case user.RoleDriver:
		return log.IsOwnedBy(viewer.ID)
	}
	return false
}

// EditWindowRemaining returns how long the viewer can still modify log.
// bounded is false for viewers whose permission does not expire.
func EditWindowRemaining(viewer user.Viewer, log *TripLog, now time.Time) (remaining time.Duration, bounded bool) {
	access := AccessFor(viewer, log, now)
	if !access.CanModify {
		return 0, true
	}
	if access.ModifyUntil == nil {
		return 0, false
	}
	return access.ModifyUntil.Sub(now), true
}

// driverDeadline is the instant the driver's current window closes.
// open is false once the edit budget is spent.
func driverDeadline(log *TripLog) (deadline time.Time, open bool) {
	switch {
	case log.EditCount <= 0:
		return log.CreatedAt.Add(FirstEditWindow), true
	case log.EditCount < MaxDriverEdits:
		return log.UpdatedAt.Add(SecondEditWindow), true
	}
	return time.Time{}, false
}
