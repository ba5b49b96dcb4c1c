package connection

import (
	"context"
	"fmt"
	"net"
	"sync"
	"syscall"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// TCPConn wraps a net.TCPConn, applying SO_REUSEADDR at the syscall
// level before bind/dial so a restarted master can rebind its local
// port immediately (spec §4.6: reconnect without waiting out
// TIME_WAIT).
type TCPConn struct {
	log      *log.Entry
	conn     net.Conn
	isMaster bool
	name     string

	mu     sync.Mutex
	closed bool
}

func reuseAddrControl(_, _ string, c syscall.RawConn) error {
	var sockErr error
	err := c.Control(func(fd uintptr) {
		sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
	})
	if err != nil {
		return err
	}
	return sockErr
}

// DialTCP opens an outbound (master-side) TCP connection.
func DialTCP(addr string) (*TCPConn, error) {
	d := net.Dialer{Control: reuseAddrControl}
	conn, err := d.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("connection: dial tcp %s: %w", addr, err)
	}
	return &TCPConn{
		log:      log.WithFields(log.Fields{"conn": "tcp", "peer": addr}),
		conn:     conn,
		isMaster: true,
		name:     addr,
	}, nil
}

// ListenTCP opens a listening (outstation-side) TCP socket. Accept
// returns one TCPConn per incoming connection.
func ListenTCP(addr string) (net.Listener, error) {
	lc := net.ListenConfig{Control: reuseAddrControl}
	return lc.Listen(context.Background(), "tcp", addr)
}

// NewAcceptedTCPConn wraps a connection returned by a listener's
// Accept.
func NewAcceptedTCPConn(conn net.Conn) *TCPConn {
	return &TCPConn{
		log:      log.WithFields(log.Fields{"conn": "tcp", "peer": conn.RemoteAddr().String()}),
		conn:     conn,
		isMaster: false,
		name:     conn.RemoteAddr().String(),
	}
}

func (c *TCPConn) Send(buf []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	_, err := c.conn.Write(buf)
	return err
}

func (c *TCPConn) Receive(buf []byte) (int, error) {
	return c.conn.Read(buf)
}

func (c *TCPConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	c.log.Info("closing tcp connection")
	return c.conn.Close()
}

func (c *TCPConn) IsOnMaster() bool { return c.isMaster }
func (c *TCPConn) Name() string     { return c.name }
