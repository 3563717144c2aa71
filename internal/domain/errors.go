package domain

import "errors"

// Domain-specific errors for business logic validation.
var (
	// Validation errors, raised before the store is contacted.
	ErrEmptyBody         = errors.New("body is required")
	ErrMissingIdentity   = errors.New("authenticated identity is required")
	ErrInvalidVisibility = errors.New("invalid task visibility")

	// Task errors
	ErrTaskNotFound = errors.New("task not found")

	// Comment errors
	ErrCommentNotFound = errors.New("comment not found")

	// Permission errors
	ErrPermissionDenied = errors.New("permission denied")

	// Session errors
	ErrInvalidToken = errors.New("invalid session token")
)
