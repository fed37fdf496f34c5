package feedback

import (
	"time"

	domainFeedback "rx-logistics/internal/domain/feedback"

	"github.com/google/uuid"
)

type SubmitRequest struct {
	Name    string `json:"name" validate:"required,max=200"`
	Email   string `json:"email" validate:"required,email,max=255"`
	Subject string `json:"subject" validate:"required"`
	Message string `json:"message" validate:"required,max=5000"`
}

type ListRequest struct {
	UnreadOnly bool `form:"unread_only"`
	Page       int  `form:"page" validate:"omitempty,min=1"`
	PageSize   int  `form:"page_size" validate:"omitempty,min=1,max=100"`
}

// SelectionRequest names the messages a bulk action applies to.
type SelectionRequest struct {
	IDs []uuid.UUID `json:"ids" validate:"required,min=1,max=500"`
}

type MarkReadRequest struct {
	IDs  []uuid.UUID `json:"ids" validate:"required,min=1,max=500"`
	Read *bool       `json:"read" validate:"required"`
}

type FeedbackResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

type ListResponse struct {
	Items      []*FeedbackResponse `json:"items"`
	Total      int64               `json:"total"`
	Page       int                 `json:"page"`
	PageSize   int                 `json:"page_size"`
	TotalPages int                 `json:"total_pages"`
}

type BulkResponse struct {
	Affected int64 `json:"affected"`
}

func toResponse(fb *domainFeedback.Feedback) *FeedbackResponse {
	return &FeedbackResponse{
		ID:        fb.ID,
		Name:      fb.Name,
		Email:     fb.Email,
		Subject:   string(fb.Subject),
		Message:   fb.Message,
		IsRead:    fb.IsRead,
		CreatedAt: fb.CreatedAt,
	}
}
