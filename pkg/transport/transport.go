// Package transport implements the DNP3 transport function: chunking
// an application fragment into 249-byte TPDUs carrying a 1-byte
// FIR/FIN/SEQ header, and reassembling the inbound stream of TPDUs
// back into fragments. See spec §4.3.
package transport

import (
	log "github.com/sirupsen/logrus"
)

const (
	// MaxTPDUData is the most fragment bytes one TPDU may carry.
	MaxTPDUData = 249
	seqMask     = 0x3F
	firBit      = 0x80
	finBit      = 0x40
)

// Segmenter is the data link layer capability the transport function
// needs: push one TPDU's bytes down, pull one TPDU's bytes up.
type Segmenter interface {
	Send(tpdu []byte) error
	Receive(out []byte) (int, error)
}

// Layer implements segmentation/reassembly for one association.
type Layer struct {
	log   *log.Entry
	below Segmenter

	sendSeq uint8 // mod-64 outbound TPDU sequence

	recvBuf         []byte
	recvInProgress  bool
	recvExpectedSeq uint8
}

// New creates a transport function layered over below.
func New(below Segmenter) *Layer {
	return &Layer{
		log:   log.WithField("layer", "transport"),
		below: below,
	}
}

// Send splits fragment into TPDUs of at most MaxTPDUData bytes and
// sends each one in order. FIR is set only on the first TPDU, FIN only
// on the last; a single-TPDU fragment carries both bits.
func (l *Layer) Send(fragment []byte) error {
	if len(fragment) == 0 {
		return l.sendTPDU(fragment[:0], true, true)
	}
	for offset := 0; offset < len(fragment); offset += MaxTPDUData {
		end := offset + MaxTPDUData
		if end > len(fragment) {
			end = len(fragment)
		}
		fir := offset == 0
		fin := end == len(fragment)
		if err := l.sendTPDU(fragment[offset:end], fir, fin); err != nil {
			return err
		}
	}
	return nil
}

func (l *Layer) sendTPDU(data []byte, fir, fin bool) error {
	header := byte(l.sendSeq & seqMask)
	if fir {
		header |= firBit
	}
	if fin {
		header |= finBit
	}
	l.sendSeq = (l.sendSeq + 1) & seqMask

	tpdu := make([]byte, 0, 1+len(data))
	tpdu = append(tpdu, header)
	tpdu = append(tpdu, data...)
	return l.below.Send(tpdu)
}

// Receive accumulates TPDUs from below until a fragment with FIN is
// complete, and returns the reassembled fragment bytes. An
// out-of-sequence TPDU discards the in-progress fragment and resumes
// accumulation only once a fresh FIR arrives (spec §3 Transport
// Segment rules, §8 property 4).
func (l *Layer) Receive() ([]byte, error) {
	buf := make([]byte, 1+MaxTPDUData)
	for {
		n, err := l.below.Receive(buf)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, ErrEmptyTPDU
		}
		fragment, ok := l.acceptTPDU(buf[:n])
		if ok {
			return fragment, nil
		}
	}
}

// acceptTPDU folds one TPDU into the in-progress fragment. It returns
// (fragment, true) once FIN completes a fragment.
func (l *Layer) acceptTPDU(tpdu []byte) ([]byte, bool) {
	header := tpdu[0]
	data := tpdu[1:]
	fir := header&firBit != 0
	fin := header&finBit != 0
	seq := header & seqMask

	if fir {
		l.recvBuf = append(l.recvBuf[:0], data...)
		l.recvInProgress = true
		l.recvExpectedSeq = (seq + 1) & seqMask
	} else {
		if !l.recvInProgress || seq != l.recvExpectedSeq {
			l.log.Warn("discarding in-progress fragment: out-of-sequence TPDU")
			l.recvInProgress = false
			l.recvBuf = nil
			return nil, false
		}
		l.recvBuf = append(l.recvBuf, data...)
		l.recvExpectedSeq = (seq + 1) & seqMask
	}

	if !fin {
		return nil, false
	}
	l.recvInProgress = false
	out := l.recvBuf
	l.recvBuf = nil
	return out, true
}
