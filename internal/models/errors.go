package models

import "errors"

// Domain errors shared across services, repositories and handlers.
// Services wrap these with context; handlers map them to HTTP statuses
// with errors.Is.
var (
	ErrAuthRequired      = errors.New("authentication required")
	ErrForbiddenResource = errors.New("caller is not allowed to access this resource")
	ErrNotEnrolled       = errors.New("student is not enrolled in the course")

	ErrQuizNotFound    = errors.New("quiz not found")
	ErrAttemptNotFound = errors.New("attempt not found")
	ErrUserNotFound    = errors.New("user not found")

	ErrPastDueDate      = errors.New("quiz due date has passed")
	ErrAlreadySubmitted = errors.New("attempt has already been submitted")
	ErrAlreadyStarted   = errors.New("attempt has already been started")
	ErrNotInProgress    = errors.New("attempt is not in progress")
	ErrNotSubmitted     = errors.New("attempt has not been submitted yet")
	ErrAlreadyGraded    = errors.New("attempt has already been graded")
	ErrResourceClosed   = errors.New("attempt is closed and no longer accepts answers")
	ErrInvalidGrade     = errors.New("grade must be between 0 and 100")

	ErrConcurrentModification = errors.New("attempt was modified concurrently, reload and retry")
)
