package connection

import "errors"

var (
	// ErrNotConnected reports a connection that has not completed its
	// initial dial/accept/open. No Conn in this package returns it: the
	// constructors only hand back connections that are already open.
	ErrNotConnected = errors.New("connection: not connected")
	// ErrClosed is returned once Close has been called.
	ErrClosed = errors.New("connection: closed")
)
