package feedback

import (
	"time"

	"github.com/google/uuid"
)

type Subject string

const (
	SubjectGeneral Subject = "General Suggestion"
	SubjectBug     Subject = "Report a Bug"
	SubjectFeature Subject = "Feature Request"
	SubjectOther   Subject = "Other"
)

func Subjects() []Subject {
	return []Subject{SubjectGeneral, SubjectBug, SubjectFeature, SubjectOther}
}

func (s Subject) IsValid() bool {
	for _, known := range Subjects() {
		if s == known {
			return true
		}
	}
	return false
}

// Feedback is one message left through the public feedback form.
type Feedback struct {
	ID        uuid.UUID
	Name      string
	Email     string
	Subject   Subject
	Message   string
	IsRead    bool
	CreatedAt time.Time
}

type Filter struct {
	UnreadOnly bool
	Page       int
	PageSize   int
}
