package atx

import "errors"

var (
	// ErrNotConfigured indicates the backend for an action is absent
	ErrNotConfigured = errors.New("not configured")

	// ErrTimeout indicates a smart-plug command exceeded its time box
	ErrTimeout = errors.New("operation timed out")

	// ErrCommandFailed indicates the smart-plug tool exited non-zero
	ErrCommandFailed = errors.New("command failed")

	// ErrParse indicates the smart-plug tool output held no value line
	ErrParse = errors.New("unparseable output")

	// ErrInvalidAction indicates an unknown button action
	ErrInvalidAction = errors.New("invalid action")

	// ErrDriverUnavailable is returned by factories for drivers not linked
	// into this build
	ErrDriverUnavailable = errors.New("driver unavailable")
)
