package transport

import "errors"

var (
	// ErrFragmentTooLarge reports a fragment over the association's
	// maximum fragment size. Send does not check fragment size and
	// never returns it.
	ErrFragmentTooLarge = errors.New("transport: fragment exceeds max fragment size")
	// ErrEmptyTPDU is returned when a zero-length TPDU (missing its
	// header byte) is handed up from the link layer.
	ErrEmptyTPDU = errors.New("transport: empty tpdu")
)
