// Package app implements the DNP3 application layer: request/response
// fragment headers, solicited/unsolicited sequence numbering,
// fragment splitting against a configured maximum size, and Internal
// Indications handling. See spec §4.4.
package app

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/go-dnp3/dnp3go/pkg/object"
)

// DefaultMaxFragmentSize is used when Config.MaxFragmentSize is zero.
const DefaultMaxFragmentSize = 2048

// FragmentTransport is the transport-function capability the
// application layer needs. *transport.Layer satisfies this.
type FragmentTransport interface {
	Send(fragment []byte) error
	Receive() ([]byte, error)
}

// Confirmer lets the application layer pause a multi-fragment or
// CON-marked send until the peer's CONFIRM for a given sequence
// number arrives, or a timeout elapses. An association implements
// this by tracking its own expect/wait-for-confirm state.
type Confirmer interface {
	ExpectConfirm(seq uint8)
	WaitForConfirm(seq uint8, timeout time.Duration) bool
}

// Config configures an application layer instance.
type Config struct {
	LocalIsMaster   bool
	MaxFragmentSize int
	Confirmer       Confirmer
	ConfirmTimeout  time.Duration
}

// Layer implements the application layer over a transport function.
type Layer struct {
	log   *log.Entry
	below FragmentTransport
	cfg   Config

	solicited   sequenceCounter
	unsolicited sequenceCounter
}

// New creates an application layer over below.
func New(below FragmentTransport, cfg Config) *Layer {
	if cfg.MaxFragmentSize <= 0 {
		cfg.MaxFragmentSize = DefaultMaxFragmentSize
	}
	if cfg.ConfirmTimeout <= 0 {
		cfg.ConfirmTimeout = 5 * time.Second
	}
	return &Layer{
		log:   log.WithField("layer", "app"),
		below: below,
		cfg:   cfg,
	}
}

// SendRequest encodes items under fc and sends them as one or more
// request fragments, splitting the object payload so each fragment's
// total size stays within MaxFragmentSize. When confirmed is true,
// every non-final fragment carries CON and blocks for a CONFIRM
// before the next is sent, and so does the final one.
func (l *Layer) SendRequest(fc FunctionCode, items []object.Item, confirmed bool) error {
	payload, err := object.EncodeItems(items)
	if err != nil {
		return fmt.Errorf("app: encode items: %w", err)
	}
	chunks := l.splitPayload(payload, 2)
	for i, chunk := range chunks {
		fir := i == 0
		fin := i == len(chunks)-1
		seq := l.solicited.advance()
		con := confirmed
		h := RequestHeader{Control: Control{FIR: fir, FIN: fin, CON: con, Seq: seq}, Function: fc}
		wire := append(h.encode(), chunk...)
		if con && l.cfg.Confirmer != nil {
			l.cfg.Confirmer.ExpectConfirm(seq)
		}
		if err := l.below.Send(wire); err != nil {
			return err
		}
		if con && l.cfg.Confirmer != nil {
			if !l.cfg.Confirmer.WaitForConfirm(seq, l.cfg.ConfirmTimeout) {
				return ErrConfirmTimeout
			}
		}
	}
	return nil
}

// SendResponse encodes items and an IIN value and sends them as one
// or more response fragments. unsolicited selects the unsolicited
// sequence counter and the UNS control bit; the final fragment of an
// unsolicited response always carries CON, per spec §4.4.
func (l *Layer) SendResponse(items []object.Item, iin InternalIndications, unsolicited bool) error {
	payload, err := object.EncodeItems(items)
	if err != nil {
		return fmt.Errorf("app: encode items: %w", err)
	}
	fc := FCResponse
	counter := &l.solicited
	if unsolicited {
		fc = FCUnsolicitedResponse
		counter = &l.unsolicited
	}
	chunks := l.splitPayload(payload, 4)
	for i, chunk := range chunks {
		fir := i == 0
		fin := i == len(chunks)-1
		seq := counter.advance()
		con := unsolicited && fin
		h := ResponseHeader{Control: Control{FIR: fir, FIN: fin, CON: con, UNS: unsolicited, Seq: seq}, Function: fc, IIN: iin}
		wire := append(h.encode(), chunk...)
		if con && l.cfg.Confirmer != nil {
			l.cfg.Confirmer.ExpectConfirm(seq)
		}
		if err := l.below.Send(wire); err != nil {
			return err
		}
		if con && l.cfg.Confirmer != nil {
			if !l.cfg.Confirmer.WaitForConfirm(seq, l.cfg.ConfirmTimeout) {
				return ErrConfirmTimeout
			}
		}
	}
	return nil
}

// SendConfirm sends a bare CONFIRM fragment for the given sequence
// number and direction.
func (l *Layer) SendConfirm(seq uint8, unsolicited bool) error {
	h := RequestHeader{Control: Control{FIR: true, FIN: true, UNS: unsolicited, Seq: seq}, Function: FCConfirm}
	return l.below.Send(h.encode())
}

// splitPayload breaks payload into chunks sized so that chunk +
// headerSize never exceeds MaxFragmentSize. A zero-length payload
// still yields one (empty) chunk so headers-only fragments are sent.
func (l *Layer) splitPayload(payload []byte, headerSize int) [][]byte {
	max := l.cfg.MaxFragmentSize - headerSize
	if max <= 0 {
		max = 1
	}
	if len(payload) == 0 {
		return [][]byte{{}}
	}
	var chunks [][]byte
	for offset := 0; offset < len(payload); offset += max {
		end := offset + max
		if end > len(payload) {
			end = len(payload)
		}
		chunks = append(chunks, payload[offset:end])
	}
	return chunks
}

// Receive reads the next application message. A message may arrive as
// one physical fragment (FIR=FIN=true) or, per spec §3/§8 scenario S3,
// as a series of fragments each carrying part of the object payload,
// split at an arbitrary byte offset the way SendRequest/SendResponse
// produce them; Receive loops from the FIR fragment to the FIN
// fragment, concatenating their raw object-payload bytes, and decodes
// items only once the whole message is back in hand - mirroring how
// the transport function below it reassembles TPDUs before handing up
// a complete fragment. A 4,000-byte response split across two
// 2048-byte wire fragments comes back as one logical response with
// every item it carried. The fragment's IsResponse is derived from the
// local role: a master receives responses, an outstation receives
// requests. OBJECT_UNKNOWN and PARAMETER_ERROR Internal Indications
// are surfaced as errors once the full message is decoded;
// NO_FUNC_CODE_SUPPORT is logged and the fragment returned as-is.
func (l *Layer) Receive() (Fragment, error) {
	if l.cfg.LocalIsMaster {
		return l.receiveResponse()
	}
	return l.receiveRequest()
}

func (l *Layer) receiveRequest() (Fragment, error) {
	var payload []byte
	var last RequestHeader
	for {
		raw, err := l.below.Receive()
		if err != nil {
			return Fragment{}, err
		}
		h, err := decodeRequestHeader(raw)
		if err != nil {
			return Fragment{}, err
		}
		payload = append(payload, raw[2:]...)
		last = h
		if h.Control.FIN {
			break
		}
	}
	items, err := object.DecodeItems(payload)
	if err != nil {
		return Fragment{}, err
	}
	return Fragment{IsResponse: false, Request: last, Items: items}, nil
}

func (l *Layer) receiveResponse() (Fragment, error) {
	var payload []byte
	var last ResponseHeader
	for {
		raw, err := l.below.Receive()
		if err != nil {
			return Fragment{}, err
		}
		h, err := decodeResponseHeader(raw)
		if err != nil {
			return Fragment{}, err
		}
		if h.IIN.Has(IINNoFuncCodeSupport) {
			l.log.Warn("peer reports NO_FUNC_CODE_SUPPORT")
		}
		payload = append(payload, raw[4:]...)
		last = h
		if h.Control.FIN {
			break
		}
	}
	items, err := object.DecodeItems(payload)
	if err != nil {
		return Fragment{}, err
	}
	frag := Fragment{IsResponse: true, Response: last, Items: items}
	if last.IIN.Has(IINObjectUnknown) {
		return frag, ErrObjectUnknown
	}
	if last.IIN.Has(IINParameterError) {
		return frag, ErrParameterError
	}
	return frag, nil
}
