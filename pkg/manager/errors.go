package manager

import "errors"

var (
	// ErrAddressConflict mirrors the teacher's ErrIdConflict: refusing
	// to register a second association for an address already known
	// on this manager.
	ErrAddressConflict = errors.New("manager: association address already registered")
	// ErrUnknownAssociation reports an association ID the manager has
	// no record of. No function in this package returns it; Association
	// and ByAddress report that case with their boolean result.
	ErrUnknownAssociation = errors.New("manager: unknown association id")
	// ErrAlreadyListening is returned by StartListening when a
	// listener is already active.
	ErrAlreadyListening = errors.New("manager: already listening")
)
