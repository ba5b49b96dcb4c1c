package association

import "errors"

var (
	// ErrNoResponse reports that no solicited response has been
	// recorded yet for a master-side association. No function in this
	// package returns it; LatestSolicitedResponse reports that case
	// with its boolean result.
	ErrNoResponse = errors.New("association: no response received yet")
	// ErrUnexpectedConfirm is logged (not returned) when a CONFIRM
	// arrives for a sequence number nobody is waiting on.
	ErrUnexpectedConfirm = errors.New("association: unexpected confirm sequence")
)
