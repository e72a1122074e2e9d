package models

import "errors"

// Application-wide standard errors
var (
	// Common Resource/DB Errors
	ErrNotFound        = errors.New("resource not found")
	ErrStoryNotFound   = errors.New("story not found")
	ErrPersonaNotFound = errors.New("persona not found")

	// Turn Engine Errors
	ErrGenerationFailed       = errors.New("narration generation failed")
	ErrPersistenceUnavailable = errors.New("progress store unavailable")
	ErrTurnInProgress         = errors.New("another turn is already in progress for this story")
	ErrProgressConflict       = errors.New("progress record was modified concurrently")

	// Authorization Errors
	ErrUnauthorized = errors.New("unauthorized") // Authentication required or failed
	ErrForbidden    = errors.New("forbidden")    // Authenticated, but lacks permission

	// General Request/Server Errors
	ErrInternalServer = errors.New("internal server error")
	ErrBadRequest     = errors.New("bad request")
	ErrInvalidInput   = errors.New("invalid input data")
)
