package object

import "errors"

var (
	// ErrHeaderTooShort is returned when fewer than 3 bytes remain for
	// a group/variation/qualifier triple.
	ErrHeaderTooShort = errors.New("object: header too short")
	// ErrRangeTooShort is returned when the range specifier's bytes
	// run past the end of the buffer.
	ErrRangeTooShort = errors.New("object: range specifier too short")
	// ErrUnknownRangeCode is returned for a range code outside the
	// closed set this package understands.
	ErrUnknownRangeCode = errors.New("object: unknown range code")
	// ErrInvalidRange is returned for a structurally decoded range
	// that is nonsensical (e.g. negative count).
	ErrInvalidRange = errors.New("object: invalid range")
	// ErrUnknownVariation is returned when no descriptor is registered
	// for a (group, variation) pair.
	ErrUnknownVariation = errors.New("object: unknown group/variation")
	// ErrTruncatedInstance is returned when fewer bytes remain than an
	// instance's fixed or declared size requires.
	ErrTruncatedInstance = errors.New("object: truncated object instance")
)
