package services

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrProfileExists     = errors.New("profile already exists")
	ErrNotApproved       = errors.New("organizer not approved")
	ErrAlreadyApplied    = errors.New("application already exists")
	ErrAlreadyDecided    = errors.New("application already decided")
	ErrEventNotPublished = errors.New("event not open for applications")
	ErrInvalidTransition = errors.New("invalid status transition")
)
