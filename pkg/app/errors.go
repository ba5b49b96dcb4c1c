package app

import "errors"

var (
	// ErrShortHeader is returned when a fragment is too short to hold
	// even its request or response header.
	ErrShortHeader = errors.New("app: fragment shorter than header")
	// ErrObjectUnknown mirrors an IIN.OBJECT_UNKNOWN response: the
	// outstation doesn't recognize a requested point.
	ErrObjectUnknown = errors.New("app: object unknown")
	// ErrParameterError mirrors an IIN.PARAMETER_ERROR response: a
	// qualifier/range/value combination the outstation can't honor.
	ErrParameterError = errors.New("app: parameter error")
	// ErrFragmentTooLarge reports a payload over the configured maximum
	// fragment size. No function in this package returns it:
	// SendRequest and SendResponse split oversized payloads instead.
	ErrFragmentTooLarge = errors.New("app: fragment exceeds max fragment size")
	// ErrConfirmTimeout is returned by SendRequest/SendResponse when CON
	// is set and the peer's CONFIRM does not arrive before the deadline.
	ErrConfirmTimeout = errors.New("app: confirm timeout")
)
