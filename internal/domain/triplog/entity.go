package triplog

import (
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TripType selects which checklist an inspection uses.
type TripType string

const (
	PreTrip  TripType = "Pre-Trip"
	PostTrip TripType = "Post-Trip"
)

func (t TripType) IsValid() bool {
	return t == PreTrip || t == PostTrip
}

// Status is the badge shown beside a checklist answer.
type Status string

const (
	StatusOK         Status = "OK"
	StatusIssue      Status = "ISSUE"
	StatusUnanswered Status = "-"
)

// PhotoSlot identifies one of the three required vehicle photos.
type PhotoSlot string

const (
	SlotFront PhotoSlot = "front"
	SlotBack  PhotoSlot = "back"
	SlotTrunk PhotoSlot = "trunk"
)

func PhotoSlots() []PhotoSlot {
	return []PhotoSlot{SlotFront, SlotBack, SlotTrunk}
}

func (s PhotoSlot) Label() string {
	switch s {
	case SlotFront:
		return "Front Seat"
	case SlotBack:
		return "Back Seat"
	case SlotTrunk:
		return "Trunk"
	}
	return string(s)
}

// Images holds the public URLs of the stored vehicle photos.
type Images struct {
	Front string `json:"front,omitempty"`
	Back  string `json:"back,omitempty"`
	Trunk string `json:"trunk,omitempty"`
}

func (i Images) Get(slot PhotoSlot) string {
	switch slot {
	case SlotFront:
		return i.Front
	case SlotBack:
		return i.Back
	case SlotTrunk:
		return i.Trunk
	}
	return ""
}

func (i *Images) Set(slot PhotoSlot, url string) {
	switch slot {
	case SlotFront:
		i.Front = url
	case SlotBack:
		i.Back = url
	case SlotTrunk:
		i.Trunk = url
	}
}

// TripLog is one submitted vehicle inspection.
type TripLog struct {
	ID         int64
	UserID     uuid.UUID
	DriverName string
	RouteID    string
	Odometer   decimal.Decimal
	TripType   TripType
	Checklist  Checklist
	Images     Images
	Notes      string
	ShareToken *string
	EditCount  int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// AnswerStatus returns the badge for one question on this log.
func (l *TripLog) AnswerStatus(id QuestionID) Status {
	if l.Checklist.Answer(id) == "" {
		return StatusUnanswered
	}
	if l.Checklist.Flagged(id) {
		return StatusIssue
	}
	return StatusOK
}

func (l *TripLog) IssueCount() int {
	return l.Checklist.IssueCount(l.TripType)
}

func (l *TripLog) HasIssues() bool {
	return l.IssueCount() > 0
}

func (l *TripLog) IsOwnedBy(userID uuid.UUID) bool {
	return l.UserID == userID
}

// Filter narrows a trip log listing.
type Filter struct {
	UserID        *uuid.UUID
	TripType      *TripType
	RouteID       string
	DriverName    string
	HasIssues     *bool
	CreatedAfter  *time.Time
	CreatedBefore *time.Time

	Page     int
	PageSize int
	// Unpaged returns every matching record, ignoring Page and PageSize.
	Unpaged bool
}

func (f *Filter) Offset() int {
	if f.Page <= 1 {
		return 0
	}
	return (f.Page - 1) * f.PageSize
}

// Photo is an uploaded image waiting to be stored.
type Photo struct {
	Slot        PhotoSlot
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}
