package model

import "errors"

// Common errors used across the application
var (
	// Player errors
	ErrPlayerNotFound = errors.New("player not found")
	ErrPlayerExists   = errors.New("player with this username already exists")

	// ErrIdentityCreateFailed means the store rejected creation of a player or alias
	ErrIdentityCreateFailed = errors.New("identity creation failed")

	// Alias errors
	ErrAliasNotFound   = errors.New("alias not found")
	ErrAliasExists     = errors.New("alias already exists")
	ErrAliasConflict   = errors.New("alias is bound to a different player")
	ErrUnknownPlatform = errors.New("unknown platform")

	// Statistics errors
	ErrStatsNotFound = errors.New("statistics not found")
	ErrStatsExist    = errors.New("statistics already exist for player")

	// Annotation errors
	ErrNoteNotFound = errors.New("note not found")

	// Import errors
	ErrImportNotFound = errors.New("import not found")
	ErrParseFailure   = errors.New("upload could not be parsed")
	ErrUploadTooLarge = errors.New("upload exceeds size limit")
	ErrStoreTimeout   = errors.New("store operation timed out")
)
