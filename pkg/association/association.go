// Package association ties one peer's link/transport/application
// layers together and tracks the master/outstation state each needs:
// last response seen, confirm bookkeeping, sequence validation. See
// spec §4.6 and the Design Note on per-association arena indices.
package association

import (
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/go-dnp3/dnp3go/pkg/app"
	"github.com/go-dnp3/dnp3go/pkg/connection"
	"github.com/go-dnp3/dnp3go/pkg/link"
	"github.com/go-dnp3/dnp3go/pkg/object"
	"github.com/go-dnp3/dnp3go/pkg/transport"
)

// ID indexes an Association within a ConnectionManager's arena, like
// a node ID indexes the teacher's node map: stable for the lifetime
// of the association, reused only after explicit teardown.
type ID uint32

// Config configures a new Association.
type Config struct {
	LocalIsMaster bool
	LocalAddr     uint16
	RemoteAddr    uint16
	QueueDepth    int
}

// Association owns the full layer stack for one master<->outstation
// relationship over one Conn.
type Association struct {
	ID   ID
	log  *log.Entry
	conn connection.Conn

	Link      *link.Layer
	Transport *transport.Layer
	App       *app.Layer

	mu                        sync.Mutex
	latestSolicitedResponse   app.Fragment
	haveSolicitedResponse     bool
	latestUnsolicitedResponse app.Fragment
	haveUnsolicitedResponse   bool

	unsolicitedSupported      bool
	firstValidRequestAccepted bool
	latestAcceptedRequestSeq  uint8

	confirmMu       sync.Mutex
	awaitingConfirm bool
	awaitedSeq      uint8
	confirmCh       chan struct{}
}

// New builds an association over conn: a link layer driven by conn, a
// transport layer over the link, and an application layer over the
// transport, wired to use this Association as its Confirmer.
func New(id ID, conn connection.Conn, cfg Config) *Association {
	entry := log.WithFields(log.Fields{"assoc": id, "local": cfg.LocalAddr, "remote": cfg.RemoteAddr})

	a := &Association{
		ID:   id,
		log:  entry,
		conn: conn,
	}
	a.Link = link.New(connSender{conn}, link.Config{
		LocalIsMaster: cfg.LocalIsMaster,
		LocalAddr:     cfg.LocalAddr,
		RemoteAddr:    cfg.RemoteAddr,
		QueueDepth:    cfg.QueueDepth,
	})
	a.Transport = transport.New(a.Link)
	a.App = app.New(a.Transport, app.Config{
		LocalIsMaster: cfg.LocalIsMaster,
		Confirmer:     a,
	})
	return a
}

// connSender adapts a connection.Conn to link.Sender.
type connSender struct{ conn connection.Conn }

func (s connSender) Send(wire []byte) error { return s.conn.Send(wire) }

// PumpInbound reads raw bytes off the connection and hands each read
// to decode, logging a warning whenever decode reports false. Run this
// in its own goroutine for the lifetime of the association.
func (a *Association) PumpInbound(decode func([]byte) (ok bool)) {
	buf := make([]byte, 292)
	for {
		n, err := a.conn.Receive(buf)
		if err != nil {
			a.log.WithError(err).Info("inbound pump stopping")
			return
		}
		if n == 0 {
			continue
		}
		if !decode(buf[:n]) {
			a.log.Warn("dropped unparseable bytes from connection")
		}
	}
}

// RecordResponse stores the latest solicited or unsolicited response
// fragment, per spec §4.6's required association state.
func (a *Association) RecordResponse(f app.Fragment) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if f.Response.Control.UNS {
		a.latestUnsolicitedResponse = f
		a.haveUnsolicitedResponse = true
		return
	}
	a.latestSolicitedResponse = f
	a.haveSolicitedResponse = true
}

// LatestSolicitedResponse returns the last solicited response fragment
// recorded, if any.
func (a *Association) LatestSolicitedResponse() (app.Fragment, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.latestSolicitedResponse, a.haveSolicitedResponse
}

// AcceptRequest validates an inbound request's sequence number
// against the outstation-side replay rule: the first request is
// always accepted; afterward a request is accepted only if its
// sequence differs from the last accepted one (guards against
// re-processing a retransmitted request after a lost confirm).
func (a *Association) AcceptRequest(seq uint8) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.firstValidRequestAccepted {
		a.firstValidRequestAccepted = true
		a.latestAcceptedRequestSeq = seq
		return true
	}
	if seq == a.latestAcceptedRequestSeq {
		return false
	}
	a.latestAcceptedRequestSeq = seq
	return true
}

// SetUnsolicitedSupported records whether ENABLE_UNSOLICITED
// succeeded for this (master-side) association.
func (a *Association) SetUnsolicitedSupported(v bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.unsolicitedSupported = v
}

func (a *Association) UnsolicitedSupported() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.unsolicitedSupported
}

// ExpectConfirm implements app.Confirmer.
func (a *Association) ExpectConfirm(seq uint8) {
	a.confirmMu.Lock()
	defer a.confirmMu.Unlock()
	a.awaitingConfirm = true
	a.awaitedSeq = seq
	a.confirmCh = make(chan struct{})
}

// WaitForConfirm implements app.Confirmer.
func (a *Association) WaitForConfirm(seq uint8, timeout time.Duration) bool {
	a.confirmMu.Lock()
	ch := a.confirmCh
	a.confirmMu.Unlock()
	if ch == nil {
		return false
	}
	select {
	case <-ch:
		return true
	case <-time.After(timeout):
		a.confirmMu.Lock()
		a.awaitingConfirm = false
		a.confirmMu.Unlock()
		return false
	}
}

// OnConfirm releases a pending WaitForConfirm when a CONFIRM for seq
// arrives on this association. No receive path in this module calls
// it.
func (a *Association) OnConfirm(seq uint8) {
	a.confirmMu.Lock()
	defer a.confirmMu.Unlock()
	if !a.awaitingConfirm || seq != a.awaitedSeq {
		a.log.WithField("seq", seq).Warn(ErrUnexpectedConfirm.Error())
		return
	}
	a.awaitingConfirm = false
	close(a.confirmCh)
}

// ReadClassZero issues a READ of Class 0 (static) data and returns
// the decoded response fragment's items.
func (a *Association) ReadClassZero() ([]object.Item, error) {
	items := []object.Item{{
		Header: object.Header{Group: 60, Variation: 1, Range: object.RangeAllObjects},
		Range:  object.Range{Code: object.RangeAllObjects, Count: -1},
	}}
	if err := a.App.SendRequest(app.FCRead, items, false); err != nil {
		return nil, err
	}
	frag, err := a.App.Receive()
	if err != nil {
		return nil, err
	}
	a.RecordResponse(frag)
	return frag.Items, nil
}
