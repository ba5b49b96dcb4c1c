// Package link implements the DNP3 data link layer: one pair of
// primary/secondary state machines per association, reset/test/status
// frames, ACK/NACK handling, and a reliable segment-level send/receive
// API for the transport function above it. See spec §4.2.
package link

import (
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/go-dnp3/dnp3go/internal/tracing"
	"github.com/go-dnp3/dnp3go/pkg/frame"
)

// Sender is the minimal capability the layer needs from the
// connection underneath it: push one encoded frame onto the wire.
type Sender interface {
	Send(wire []byte) error
}

// Layer is one association's data link state machine, bound to a
// local/remote DNP3 address pair and an underlying Sender.
type Layer struct {
	log *log.Entry
	trc *tracing.Buffer

	sender        Sender
	localIsMaster bool
	localAddr     uint16
	remoteAddr    uint16

	sendMu sync.Mutex

	mu              sync.Mutex
	primaryState    PrimaryState
	secondaryState  SecondaryState
	expectedFCB     bool
	linkActive      bool
	statusWaiters   []chan bool
	confirmWaiters  []chan bool

	inbound chan []byte
	closed  chan struct{}
	once    sync.Once
}

// Config bundles the constructor parameters that come from the
// association/endpoint configuration rather than being literals.
type Config struct {
	LocalIsMaster bool
	LocalAddr     uint16
	RemoteAddr    uint16
	QueueDepth    int // bounded inbound queue size, default 16
	Trace         *tracing.Buffer
}

// New creates a data link layer bound to sender, in the reset-pending
// state on both sides.
func New(sender Sender, cfg Config) *Layer {
	depth := cfg.QueueDepth
	if depth <= 0 {
		depth = 16
	}
	return &Layer{
		log: log.WithFields(log.Fields{
			"layer":  "link",
			"local":  cfg.LocalAddr,
			"remote": cfg.RemoteAddr,
		}),
		trc:            cfg.Trace,
		sender:         sender,
		localIsMaster:  cfg.LocalIsMaster,
		localAddr:      cfg.LocalAddr,
		remoteAddr:     cfg.RemoteAddr,
		primaryState:   SecUnResetIdle,
		secondaryState: UnReset,
		expectedFCB:    true,
		inbound:        make(chan []byte, depth),
		closed:         make(chan struct{}),
	}
}

// Close unblocks any pending Receive with ErrClosed and releases
// anyone waiting on a link-status or confirm latch.
func (l *Layer) Close() {
	l.once.Do(func() {
		close(l.closed)
		l.mu.Lock()
		for _, w := range l.statusWaiters {
			w <- false
		}
		l.statusWaiters = nil
		for _, w := range l.confirmWaiters {
			w <- false
		}
		l.confirmWaiters = nil
		l.mu.Unlock()
	})
}

func (l *Layer) sendFrame(h frame.Header, data []byte) error {
	h.Master = l.localIsMaster
	h.Destination = l.remoteAddr
	h.Source = l.localAddr

	l.sendMu.Lock()
	defer l.sendMu.Unlock()

	wire, err := frame.Encode(frame.Frame{Header: h, Data: data})
	if err != nil {
		return err
	}
	l.trc.Record(tracing.Sent, wire)
	return l.sender.Send(wire)
}

// Send chunks segmentBytes into one or more UNCONFIRMED_USER_DATA
// frames — the core's default, per spec §4.2 — with FCV/FCB left
// unset, and DIR set according to the local role.
func (l *Layer) Send(segmentBytes []byte) error {
	if len(segmentBytes) == 0 {
		return l.sendFrame(frame.Header{Function: frame.UnconfirmedUserData, Primary: true}, nil)
	}
	for offset := 0; offset < len(segmentBytes); offset += frame.MaxDataBytes {
		end := offset + frame.MaxDataBytes
		if end > len(segmentBytes) {
			end = len(segmentBytes)
		}
		h := frame.Header{Function: frame.UnconfirmedUserData, Primary: true}
		if err := l.sendFrame(h, segmentBytes[offset:end]); err != nil {
			return err
		}
	}
	return nil
}

// SendConfirmed sends one frame of up to MaxDataBytes as
// CONFIRMED_USER_DATA with FCV set and the caller-supplied frame count
// bit fcb, and waits up to timeout for the secondary's ACK/NACK. It is not used by
// the default Send path (which always issues unconfirmed frames per
// spec §4.2) but backs link-layer retransmission tests and any
// embedder that wants confirmed link-layer delivery.
func (l *Layer) SendConfirmed(data []byte, fcb bool, timeout time.Duration) (bool, error) {
	if len(data) > frame.MaxDataBytes {
		return false, ErrSegmentTooLarge
	}
	wait := make(chan bool, 1)
	l.mu.Lock()
	l.confirmWaiters = append(l.confirmWaiters, wait)
	l.mu.Unlock()

	h := frame.Header{Function: frame.ConfirmedUserData, Primary: true, FrameCountBit: fcb, FrameCountValid: true}
	if err := l.sendFrame(h, data); err != nil {
		return false, err
	}

	select {
	case ok := <-wait:
		return ok, nil
	case <-time.After(timeout):
		return false, nil
	}
}

// Receive blocks until one complete user-data frame's payload is
// available, then copies it into out and returns the number of bytes
// copied. It returns ErrClosed if the layer has been stopped.
func (l *Layer) Receive(out []byte) (int, error) {
	select {
	case data := <-l.inbound:
		n := copy(out, data)
		return n, nil
	case <-l.closed:
		return 0, ErrClosed
	}
}

func (l *Layer) markActive() {
	l.mu.Lock()
	l.linkActive = true
	l.mu.Unlock()
}

// IsLinkActive reports whether the link has already been observed
// active; if not, it actively probes with REQUEST_LINK_STATUS and
// waits up to timeout for a LINK_STATUS reply. The primary state
// machine always returns to SecUnResetIdle once the probe concludes,
// win or lose (spec §5, §8 property 9).
func (l *Layer) IsLinkActive(timeout time.Duration) bool {
	l.mu.Lock()
	if l.linkActive {
		l.mu.Unlock()
		return true
	}
	l.primaryState = UrLinkStatusWait
	wait := make(chan bool, 1)
	l.statusWaiters = append(l.statusWaiters, wait)
	l.mu.Unlock()

	if err := l.sendFrame(frame.Header{Function: frame.RequestLinkStatus, Primary: true}, nil); err != nil {
		l.log.WithError(err).Warn("failed to send REQUEST_LINK_STATUS")
	}

	var ok bool
	select {
	case ok = <-wait:
	case <-time.After(timeout):
		ok = false
	}

	l.mu.Lock()
	l.primaryState = SecUnResetIdle
	if ok {
		l.linkActive = true
	}
	l.mu.Unlock()
	return ok
}

// HandleFrame is the single inbound entry point: the connection/demux
// layer calls this for every frame decoded off the wire for this
// association.
func (l *Layer) HandleFrame(f frame.Frame) {
	l.markActive()
	if f.Header.Primary {
		l.handleAsSecondary(f)
	} else {
		l.handleAsPrimary(f)
	}
}

func (l *Layer) handleAsPrimary(f frame.Frame) {
	switch f.Header.Function {
	case frame.ACK:
		l.releaseConfirmWaiters(true)
	case frame.NACK:
		l.releaseConfirmWaiters(false)
	case frame.LinkStatus:
		l.releaseStatusWaiters(true)
	case frame.NotSupported:
		l.log.Warn("peer reported NOT_SUPPORTED")
	default:
		l.log.Warnf("unexpected secondary function code %v in primary response path", f.Header.Function)
	}
}

func (l *Layer) releaseStatusWaiters(ok bool) {
	l.mu.Lock()
	waiters := l.statusWaiters
	l.statusWaiters = nil
	l.mu.Unlock()
	for _, w := range waiters {
		w <- ok
	}
}

func (l *Layer) releaseConfirmWaiters(ok bool) {
	l.mu.Lock()
	waiters := l.confirmWaiters
	l.confirmWaiters = nil
	l.mu.Unlock()
	for _, w := range waiters {
		w <- ok
	}
}

func (l *Layer) handleAsSecondary(f frame.Frame) {
	switch f.Header.Function {
	case frame.UnconfirmedUserData:
		if !f.Header.FrameCountValid {
			l.enqueue(f.Data)
		}
	case frame.ConfirmedUserData:
		l.handleConfirmedData(f, true)
	case frame.TestLinkStates:
		l.handleConfirmedData(f, false)
	case frame.ResetLinkStates:
		l.mu.Lock()
		l.expectedFCB = true
		l.secondaryState = Idle
		l.mu.Unlock()
		l.replyFrame(frame.ACK)
	case frame.RequestLinkStatus:
		l.replyFrame(frame.LinkStatus)
	default:
		l.replyFrame(frame.NotSupported)
	}
}

// handleConfirmedData implements the shared FCB bookkeeping for
// CONFIRMED_USER_DATA and TEST_LINK_STATES (spec §4.2 table): the
// latter behaves identically except it never enqueues data.
func (l *Layer) handleConfirmedData(f frame.Frame, carriesData bool) {
	l.mu.Lock()
	if l.secondaryState == UnReset {
		l.mu.Unlock()
		l.replyFrame(frame.NotSupported)
		return
	}
	if !f.Header.FrameCountValid {
		l.mu.Unlock()
		l.replyFrame(frame.NACK)
		return
	}
	match := f.Header.FrameCountBit == l.expectedFCB
	if match {
		l.expectedFCB = !l.expectedFCB
	}
	l.mu.Unlock()

	if !match {
		l.replyFrame(frame.NACK)
		return
	}
	if carriesData {
		l.enqueue(f.Data)
	}
	l.replyFrame(frame.ACK)
}

func (l *Layer) enqueue(data []byte) {
	cp := make([]byte, len(data))
	copy(cp, data)
	select {
	case l.inbound <- cp:
	default:
		l.log.Warn("inbound segment queue full, dropping frame")
	}
}

func (l *Layer) replyFrame(fc frame.FunctionCode) {
	if err := l.sendFrame(frame.Header{Function: fc, Primary: false}, nil); err != nil {
		l.log.WithError(err).Warn("failed to send link-layer reply")
	}
}
