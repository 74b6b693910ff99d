package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Record and matching errors
	ErrMalformedRecord = fmt.Errorf("malformed track record")
	ErrUnknownPlatform = fmt.Errorf("unknown platform")

	// Remote execution errors
	ErrRateLimited        = fmt.Errorf("rate limited by remote service")
	ErrRemoteActionFailed = fmt.Errorf("remote action rejected")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrPlaylistNotFound   = fmt.Errorf("playlist not found")
	ErrTrackNotFound      = fmt.Errorf("track not found")

	// Rollback errors
	ErrUndoMismatch = fmt.Errorf("remote state drifted from recorded pre-state")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
