package transaction

import "errors"

// ErrServiceNotAvailable mirrors the teacher's abort-on-transport-
// failure behavior (SDOClient.ReadRaw/WriteRaw return an error
// directly on a failed exchange): a transaction that cannot reach the
// wire reports this rather than a lower-layer error type leaking out.
var ErrServiceNotAvailable = errors.New("transaction: service not available")
