package link

import "errors"

var (
	// ErrClosed is returned by Receive when the layer has been stopped.
	ErrClosed = errors.New("link: closed")
	// ErrSegmentTooLarge is returned when SendConfirmed is asked to
	// move more data than a single data link frame may carry.
	ErrSegmentTooLarge = errors.New("link: segment exceeds maximum fragment size")
)
