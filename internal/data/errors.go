package data

import "errors"

// Shared sentinel errors for data-layer repositories.
var (
	ErrUserNotFound  = errors.New("user not found")
	ErrVideoNotFound = errors.New("video not found")
	ErrRunNotFound   = errors.New("workflow run not found")
	ErrLeaseNotHeld  = errors.New("lease not held")
)
