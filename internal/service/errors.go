package service

import "errors"

var (
	// ErrStageFailed marks a stage-level pipeline failure that is surfaced to the caller.
	ErrStageFailed = errors.New("workflow stage failed")
	// ErrInvalidRequest marks a request rejected before any work started.
	ErrInvalidRequest = errors.New("invalid request")
)
