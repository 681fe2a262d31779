package domain

import "errors"

// Sentinel validation errors shared by services
var (
	ErrEmptyTitle       = errors.New("title must not be empty")
	ErrInvalidTimeRange = errors.New("end time must be after start time")
)
