package shared

import "fmt"

var (
	// Configuration errors abort a run before any mutation happens.
	ErrMissingConfig   = fmt.Errorf("missing configuration")
	ErrInvalidConfig   = fmt.Errorf("invalid configuration")
	ErrInvalidTemplate = fmt.Errorf("invalid naming template")

	// Authentication errors.
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrTokenExpired     = fmt.Errorf("token expired")

	// Snapshot errors. An unavailable source skips the kinds that
	// depend on it rather than failing the whole run.
	ErrSourceUnavailable = fmt.Errorf("source unavailable")
	ErrEmptySnapshot     = fmt.Errorf("empty snapshot")

	// Guard errors. A failed verification aborts the affected slot
	// only; the backup taken beforehand is kept either way.
	ErrVerificationFailed = fmt.Errorf("verification failed")
	ErrPartialFailure     = fmt.Errorf("partial failure")
	ErrBackupFailed       = fmt.Errorf("backup failed")

	// Platform errors.
	ErrAPIRequest         = fmt.Errorf("api request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrPlaylistNotFound   = fmt.Errorf("playlist not found")

	// Input errors.
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag")
)
