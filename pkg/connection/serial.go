package connection

import (
	"fmt"
	"os"
	"sync"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

var baudRates = map[int]uint32{
	1200:   unix.B1200,
	2400:   unix.B2400,
	4800:   unix.B4800,
	9600:   unix.B9600,
	19200:  unix.B19200,
	38400:  unix.B38400,
	57600:  unix.B57600,
	115200: unix.B115200,
}

// SerialConn is an 8N1, no-flow-control serial port, the DNP3-over-
// serial default (spec §4.1/§4.6).
type SerialConn struct {
	log        *log.Entry
	file       *os.File
	name       string
	masterRole bool

	mu     sync.Mutex
	closed bool
}

// OpenSerial opens device at the given baud rate in raw 8N1 mode and
// purges any buffered input.
func OpenSerial(device string, baud int) (*SerialConn, error) {
	rate, ok := baudRates[baud]
	if !ok {
		return nil, fmt.Errorf("connection: unsupported baud rate %d", baud)
	}
	f, err := os.OpenFile(device, os.O_RDWR|unix.O_NOCTTY, 0)
	if err != nil {
		return nil, fmt.Errorf("connection: open %s: %w", device, err)
	}

	fd := int(f.Fd())
	t, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("connection: get termios: %w", err)
	}

	t.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP |
		unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON
	t.Oflag &^= unix.OPOST
	t.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN
	t.Cflag &^= unix.CSIZE | unix.PARENB | unix.CSTOPB | unix.CRTSCTS
	t.Cflag |= unix.CS8 | unix.CLOCAL | unix.CREAD
	t.Cc[unix.VMIN] = 1
	t.Cc[unix.VTIME] = 0
	unix.CfSetispeed(t, rate)
	unix.CfSetospeed(t, rate)

	if err := unix.IoctlSetTermios(fd, unix.TCSETS, t); err != nil {
		f.Close()
		return nil, fmt.Errorf("connection: set termios: %w", err)
	}
	if err := unix.IoctlSetInt(fd, unix.TCFLSH, unix.TCIOFLUSH); err != nil {
		f.Close()
		return nil, fmt.Errorf("connection: flush: %w", err)
	}

	return &SerialConn{
		log:  log.WithFields(log.Fields{"conn": "serial", "device": device}),
		file: f,
		name: device,
	}, nil
}

func (c *SerialConn) Send(buf []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	_, err := c.file.Write(buf)
	return err
}

func (c *SerialConn) Receive(buf []byte) (int, error) {
	return c.file.Read(buf)
}

func (c *SerialConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	c.log.Info("closing serial connection")
	return c.file.Close()
}

// IsOnMaster reports false unless WithMasterRole has been called: DNP3
// serial deployments this package targets run the outstation on the
// field device end of the wire, with the master dialing in over
// TCP/UDP to a gateway. A true point-to-point master-on-serial
// deployment can override this via WithMasterRole.
func (c *SerialConn) IsOnMaster() bool { return c.masterRole }
func (c *SerialConn) Name() string     { return c.name }

// WithMasterRole marks this serial connection as the master side of
// the link, for direct master-to-outstation serial wiring.
func (c *SerialConn) WithMasterRole() *SerialConn {
	c.masterRole = true
	return c
}
