package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound          = errors.New("entity not found")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrInvalidTransition = errors.New("invalid job status transition")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrNotConfigured     = errors.New("provider not configured")
	ErrUpstream          = errors.New("upstream dependency failed")

	// Upload validation
	ErrEmptyFile       = errors.New("file is empty")
	ErrFileTooLarge    = errors.New("file exceeds size limit")
	ErrUnsupportedFile = errors.New("unsupported file type")
	ErrNoExtractedText = errors.New("no text could be extracted")
)
