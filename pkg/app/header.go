package app

import "encoding/binary"

const (
	acFIR = 0x80
	acFIN = 0x40
	acCON = 0x20
	acUNS = 0x10
	acSeqMask = 0x0F
)

// Control is the application control byte shared by request and
// response headers: fragmentation bits plus a 4-bit sequence number.
type Control struct {
	FIR bool
	FIN bool
	CON bool
	UNS bool
	Seq uint8 // 0-15
}

func (c Control) encode() byte {
	b := c.Seq & acSeqMask
	if c.FIR {
		b |= acFIR
	}
	if c.FIN {
		b |= acFIN
	}
	if c.CON {
		b |= acCON
	}
	if c.UNS {
		b |= acUNS
	}
	return b
}

func decodeControl(b byte) Control {
	return Control{
		FIR: b&acFIR != 0,
		FIN: b&acFIN != 0,
		CON: b&acCON != 0,
		UNS: b&acUNS != 0,
		Seq: b & acSeqMask,
	}
}

// RequestHeader is the 2-byte header on every request fragment.
type RequestHeader struct {
	Control  Control
	Function FunctionCode
}

func (h RequestHeader) encode() []byte {
	return []byte{h.Control.encode(), byte(h.Function)}
}

func decodeRequestHeader(buf []byte) (RequestHeader, error) {
	if len(buf) < 2 {
		return RequestHeader{}, ErrShortHeader
	}
	return RequestHeader{Control: decodeControl(buf[0]), Function: FunctionCode(buf[1])}, nil
}

// ResponseHeader is the 4-byte header on every response fragment: the
// request header's two bytes plus Internal Indications.
type ResponseHeader struct {
	Control  Control
	Function FunctionCode
	IIN      InternalIndications
}

func (h ResponseHeader) encode() []byte {
	out := []byte{h.Control.encode(), byte(h.Function), 0, 0}
	binary.LittleEndian.PutUint16(out[2:], uint16(h.IIN))
	return out
}

func decodeResponseHeader(buf []byte) (ResponseHeader, error) {
	if len(buf) < 4 {
		return ResponseHeader{}, ErrShortHeader
	}
	return ResponseHeader{
		Control:  decodeControl(buf[0]),
		Function: FunctionCode(buf[1]),
		IIN:      InternalIndications(binary.LittleEndian.Uint16(buf[2:4])),
	}, nil
}
