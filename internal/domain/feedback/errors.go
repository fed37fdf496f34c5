package feedback

import "errors"

var (
	ErrFeedbackNotFound = errors.New("feedback not found")
	ErrInvalidSubject   = errors.New("invalid feedback subject")
)
