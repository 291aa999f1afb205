package models

import (
	"errors"
	"fmt"
)

// Application-wide standard errors
var (
	// Common Resource/DB Errors
	ErrNotFound           = errors.New("resource not found") // General not found
	ErrStoryNotFound      = fmt.Errorf("story: %w", ErrNotFound)
	ErrNodeNotFound       = fmt.Errorf("story node: %w", ErrNotFound)
	ErrStorageUnavailable = errors.New("progress storage unavailable")

	// Content Errors
	ErrInvalidContent = errors.New("invalid story content")

	// Gameplay Errors
	ErrMissingItem   = errors.New("required item is missing from inventory")
	ErrStaleNode     = errors.New("choice does not belong to the current node")
	ErrNotStarted    = fmt.Errorf("story was never started: %w", ErrStaleNode)
	ErrStoryFinished = errors.New("story is already finished")
	ErrUnknownOption = errors.New("option not found on the current node")

	// General Request/Server Errors
	ErrBadRequest = errors.New("bad request")
)
