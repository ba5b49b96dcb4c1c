// Package connection implements the physical/data-link transports a
// DNP3 endpoint can run over: TCP, UDP and serial. Each is a thin
// Conn wrapper the data link layer's Sender/Receiver sit on top of.
// See spec §4.1/§4.6.
package connection

// Conn is the minimum byte-pipe capability an endpoint needs,
// independent of the underlying medium.
type Conn interface {
	Send(buf []byte) error
	Receive(buf []byte) (int, error)
	Close() error
	// IsOnMaster reports whether the local side of this connection
	// plays the master role (DNP3 serial links and some TCP/UDP
	// channels are asymmetric; this drives direction-bit checks in
	// the frame codec).
	IsOnMaster() bool
	Name() string
}
