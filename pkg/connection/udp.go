package connection

import (
	"fmt"
	"net"
	"sync"

	log "github.com/sirupsen/logrus"
)

// UDPConn wraps a connected UDP socket. DNP3 over UDP is datagram
// based: no framing beyond what the link layer already provides per
// packet, so Send/Receive map directly onto Write/Read of the
// connected socket.
type UDPConn struct {
	log      *log.Entry
	conn     *net.UDPConn
	isMaster bool
	name     string

	mu     sync.Mutex
	closed bool
}

// DialUDP opens a master-side UDP "connection" (a connected socket
// fixing the peer address).
func DialUDP(addr string) (*UDPConn, error) {
	raddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("connection: resolve udp %s: %w", addr, err)
	}
	conn, err := net.DialUDP("udp", nil, raddr)
	if err != nil {
		return nil, fmt.Errorf("connection: dial udp %s: %w", addr, err)
	}
	return &UDPConn{
		log:      log.WithFields(log.Fields{"conn": "udp", "peer": addr}),
		conn:     conn,
		isMaster: true,
		name:     addr,
	}, nil
}

// ListenUDP opens an outstation-side UDP socket that receives
// datagrams from any master; the manager demultiplexes by source
// address.
func ListenUDP(addr string) (*net.UDPConn, error) {
	laddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("connection: resolve udp %s: %w", addr, err)
	}
	return net.ListenUDP("udp", laddr)
}

func (c *UDPConn) Send(buf []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	_, err := c.conn.Write(buf)
	return err
}

func (c *UDPConn) Receive(buf []byte) (int, error) {
	return c.conn.Read(buf)
}

func (c *UDPConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	c.log.Info("closing udp connection")
	return c.conn.Close()
}

func (c *UDPConn) IsOnMaster() bool { return c.isMaster }
func (c *UDPConn) Name() string     { return c.name }

// PeerConn is one demultiplexed peer on a shared, outstation-side
// listening UDP socket. The socket itself has exactly one reader (the
// manager's demux loop, see pkg/manager); PeerConn.Receive instead
// drains a per-peer channel the demux loop feeds, so each inbound
// association still looks like an ordinary duplex Conn to the link
// layer above it (spec §4.7 "UDP receive ... route datagram to the
// existing UDPConnection").
type PeerConn struct {
	log    *log.Entry
	socket *net.UDPConn
	remote *net.UDPAddr
	name   string

	inbound chan []byte

	mu     sync.Mutex
	closed bool
}

// NewPeerConn wraps socket (shared with the demux loop and other
// peers) for duplex use with one specific remote address. queueDepth
// bounds how many un-drained inbound datagrams this peer can buffer;
// once it is full, Deliver drops further datagrams.
func NewPeerConn(socket *net.UDPConn, remote *net.UDPAddr, queueDepth int) *PeerConn {
	if queueDepth <= 0 {
		queueDepth = 16
	}
	return &PeerConn{
		log:     log.WithFields(log.Fields{"conn": "udp", "peer": remote.String()}),
		socket:  socket,
		remote:  remote,
		name:    remote.String(),
		inbound: make(chan []byte, queueDepth),
	}
}

// Deliver hands one datagram's payload to this peer's receive queue;
// called by the manager's demux loop after it has matched source
// address to PeerConn.
func (c *PeerConn) Deliver(payload []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	cp := make([]byte, len(payload))
	copy(cp, payload)
	select {
	case c.inbound <- cp:
	default:
		c.log.Warn("dropping udp datagram: peer receive queue full")
	}
}

func (c *PeerConn) Send(buf []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	_, err := c.socket.WriteToUDP(buf, c.remote)
	return err
}

func (c *PeerConn) Receive(buf []byte) (int, error) {
	data, ok := <-c.inbound
	if !ok {
		return 0, ErrClosed
	}
	return copy(buf, data), nil
}

// Close marks the peer closed so pending and future Send calls fail;
// it does not touch the shared listening socket, which the manager
// owns.
func (c *PeerConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	close(c.inbound)
	return nil
}

func (c *PeerConn) IsOnMaster() bool { return false }
func (c *PeerConn) Name() string     { return c.name }
