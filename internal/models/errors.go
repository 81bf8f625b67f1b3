package models

import "errors"

// Application-wide standard errors
var (
	// Common resource errors
	ErrNotFound        = errors.New("resource not found")
	ErrSceneNotFound   = errors.New("scene not found")
	ErrStoryNotFound   = errors.New("story not found")
	ErrSessionNotFound = errors.New("session not found")
	ErrProfileNotFound = errors.New("reader profile not found")

	// Personalization errors
	ErrNotBranchPoint    = errors.New("scene is not a branch point")
	ErrNoStandardChoices = errors.New("scene has no standard choices to branch from")
	ErrGenerationFailed  = errors.New("choice generation failed")

	// General request/server errors
	ErrInvalidInput   = errors.New("invalid input data")
	ErrInternalServer = errors.New("internal server error")
)
