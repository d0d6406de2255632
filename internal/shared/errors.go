package shared

import "fmt"

var (
	// Configuration errors
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Boundary errors, one per failure kind of the external service
	ErrServiceRejected    = fmt.Errorf("service rejected request")
	ErrServiceFailed      = fmt.Errorf("service request failed")
	ErrServiceUnreachable = fmt.Errorf("service unreachable")

	// Input validation errors
	ErrInvalidLink     = fmt.Errorf("invalid playlist link")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")

	// Selection and session errors
	ErrEmptyPlaylist    = fmt.Errorf("playlist has no tracks")
	ErrTrackNotFound    = fmt.Errorf("track not found")
	ErrInvalidSelection = fmt.Errorf("candidate index out of range")
	ErrNoSnapshot       = fmt.Errorf("no playlist loaded")
	ErrStaleSnapshot    = fmt.Errorf("playlist was replaced by a newer search")
	ErrSuperseded       = fmt.Errorf("search superseded by a newer search")
)
