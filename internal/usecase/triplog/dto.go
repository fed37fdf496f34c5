package triplog

import (
	"time"

	domainTripLog "rx-logistics/internal/domain/triplog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Request DTOs
type TripLogRequest struct {
	TripType      string                                            `json:"trip_type" validate:"required,oneof=Pre-Trip Post-Trip"`
	RouteID       string                                            `json:"route_id" validate:"required,max=100"`
	Odometer      *decimal.Decimal                                  `json:"odometer"`
	Answers       map[domainTripLog.QuestionID]domainTripLog.Answer `json:"answers" validate:"required"`
	Comments      map[domainTripLog.QuestionID]string               `json:"comments"`
	TirePressures *domainTripLog.TirePressureSet                    `json:"tire_pressures"`
	Notes         string                                            `json:"notes" validate:"max=2000"`
}

func (r *TripLogRequest) checklist() domainTripLog.Checklist {
	return domainTripLog.Checklist{
		Answers:       r.Answers,
		Comments:      r.Comments,
		TirePressures: r.TirePressures,
	}
}

// Photos maps a slot to its newly uploaded file. Missing slots keep the
// stored photo on edit.
type Photos map[domainTripLog.PhotoSlot]*domainTripLog.Photo

type ListRequest struct {
	TripType   string `form:"trip_type" validate:"omitempty,oneof=Pre-Trip Post-Trip"`
	RouteID    string `form:"route_id" validate:"omitempty,max=100"`
	Driver     string `form:"driver" validate:"omitempty,max=100"`
	IssuesOnly bool   `form:"issues_only"`
	From       string `form:"from" validate:"omitempty,datetime=2006-01-02"`
	To         string `form:"to" validate:"omitempty,datetime=2006-01-02"`
	Page       int    `form:"page" validate:"omitempty,min=1"`
	PageSize   int    `form:"page_size" validate:"omitempty,min=1,max=100"`
}

// Response DTOs
type TripLogResponse struct {
	ID            int64                                             `json:"id"`
	UserID        uuid.UUID                                         `json:"user_id"`
	DriverName    string                                            `json:"driver_name"`
	RouteID       string                                            `json:"route_id"`
	Odometer      decimal.Decimal                                   `json:"odometer"`
	TripType      domainTripLog.TripType                            `json:"trip_type"`
	Checklist     domainTripLog.Checklist                           `json:"checklist"`
	Statuses      map[domainTripLog.QuestionID]domainTripLog.Status `json:"statuses"`
	Images        domainTripLog.Images                              `json:"images"`
	Notes         string                                            `json:"notes"`
	ShareURL      *string                                           `json:"share_url,omitempty"`
	EditCount     int                                               `json:"edit_count"`
	IssueCount    int                                               `json:"issue_count"`
	HasIssues     bool                                              `json:"has_issues"`
	CanModify     bool                                              `json:"can_modify"`
	EditableUntil *time.Time                                        `json:"editable_until,omitempty"`
	CreatedAt     time.Time                                         `json:"created_at"`
	UpdatedAt     time.Time                                         `json:"updated_at"`
}

type ListResponse struct {
	Items      []*TripLogResponse `json:"items"`
	Total      int64              `json:"total"`
	Page       int                `json:"page"`
	PageSize   int                `json:"page_size"`
	TotalPages int                `json:"total_pages"`
}

type ShareResponse struct {
	Token string `json:"token"`
	URL   string `json:"url"`
}

type QuestionResponse struct {
	ID     domainTripLog.QuestionID `json:"id"`
	Label  string                   `json:"label"`
	Damage bool                     `json:"damage"`
}
