package triplog

import "errors"

var (
	ErrTripLogNotFound  = errors.New("trip log not found")
	ErrInvalidTripType  = errors.New("invalid trip type")
	ErrEditWindowClosed = errors.New("edit window has closed")
	ErrEditConflict     = errors.New("trip log was edited concurrently")
)
