// Package object implements the DNP3 object header (group/variation/
// qualifier/range) and the variation registry that dispatches each
// decoded header to a typed object codec. See spec §4.5.
package object

import (
	"encoding/binary"
	"fmt"
)

// PrefixCode selects what, if anything, precedes each encoded object
// instance: nothing, an index, or a size (used for free-format
// objects). Three bits of the qualifier byte.
type PrefixCode uint8

const (
	PrefixNone       PrefixCode = 0
	PrefixIndexByte  PrefixCode = 1
	PrefixIndexShort PrefixCode = 2
	PrefixIndexInt   PrefixCode = 3
	PrefixSizeByte   PrefixCode = 4
	PrefixSizeShort  PrefixCode = 5
	PrefixSizeInt    PrefixCode = 6
	prefixReserved   PrefixCode = 7
)

// RangeCode selects the shape of the range specifier that follows the
// object header. Four bits of the qualifier byte.
type RangeCode uint8

const (
	RangeStartStop8     RangeCode = 0x00
	RangeStartStop16    RangeCode = 0x01
	RangeStartStop32    RangeCode = 0x02
	RangeAddrStartStop8 RangeCode = 0x03
	RangeAddrStartStop16 RangeCode = 0x04
	RangeAddrStartStop32 RangeCode = 0x05
	RangeAllObjects     RangeCode = 0x06
	RangeCount8         RangeCode = 0x07
	RangeCount16        RangeCode = 0x08
	RangeCount32        RangeCode = 0x09
	RangeFreeFormat     RangeCode = 0x0B
)

// Header is a decoded (group, variation, qualifier) triple.
type Header struct {
	Group     uint8
	Variation uint8
	Prefix    PrefixCode
	Range     RangeCode
}

func (h Header) qualifierByte() byte {
	return (byte(h.Prefix) << 4) | (byte(h.Range) & 0x0F)
}

// Range describes the decoded range specifier: either a start/stop
// pair (Count = Stop-Start+1, object indices run Start..Stop) or a
// bare Count (object indices come from a per-object index prefix, or
// there are none for "all objects").
type Range struct {
	Code       RangeCode
	Start      uint32
	Stop       uint32
	Count      int
	IsAddress  bool // true for the 0x03-0x05 virtual-address family
	HasIndices bool // true when Start/Stop denote explicit object indices
}

// EncodeHeader writes group, variation, qualifier and the range
// specifier bytes for rng.
func EncodeHeader(h Header, rng Range) ([]byte, error) {
	out := []byte{h.Group, h.Variation, h.qualifierByte()}
	switch h.Range {
	case RangeStartStop8, RangeAddrStartStop8:
		out = append(out, byte(rng.Start), byte(rng.Stop))
	case RangeStartStop16, RangeAddrStartStop16:
		out = binary.LittleEndian.AppendUint16(out, uint16(rng.Start))
		out = binary.LittleEndian.AppendUint16(out, uint16(rng.Stop))
	case RangeStartStop32, RangeAddrStartStop32:
		out = binary.LittleEndian.AppendUint32(out, rng.Start)
		out = binary.LittleEndian.AppendUint32(out, rng.Stop)
	case RangeAllObjects:
		// no range bytes
	case RangeCount8:
		out = append(out, byte(rng.Count))
	case RangeCount16:
		out = binary.LittleEndian.AppendUint16(out, uint16(rng.Count))
	case RangeCount32:
		out = binary.LittleEndian.AppendUint32(out, uint32(rng.Count))
	case RangeFreeFormat:
		out = append(out, byte(rng.Count))
	default:
		return nil, fmt.Errorf("object: unsupported range code 0x%02X", h.Range)
	}
	return out, nil
}

// DecodeHeader parses the 3-byte object header plus its range
// specifier from buf, returning the header, the range, and the number
// of bytes consumed.
func DecodeHeader(buf []byte) (Header, Range, int, error) {
	if len(buf) < 3 {
		return Header{}, Range{}, 0, ErrHeaderTooShort
	}
	qualifier := buf[2]
	h := Header{
		Group:     buf[0],
		Variation: buf[1],
		Prefix:    PrefixCode((qualifier >> 4) & 0x07),
		Range:     RangeCode(qualifier & 0x0F),
	}
	offset := 3
	rng := Range{Code: h.Range}

	need := func(n int) error {
		if len(buf) < offset+n {
			return ErrRangeTooShort
		}
		return nil
	}

	switch h.Range {
	case RangeStartStop8, RangeAddrStartStop8:
		if err := need(2); err != nil {
			return Header{}, Range{}, 0, err
		}
		rng.Start = uint32(buf[offset])
		rng.Stop = uint32(buf[offset+1])
		offset += 2
		rng.HasIndices = true
		rng.IsAddress = h.Range == RangeAddrStartStop8
		rng.Count = int(rng.Stop) - int(rng.Start) + 1
	case RangeStartStop16, RangeAddrStartStop16:
		if err := need(4); err != nil {
			return Header{}, Range{}, 0, err
		}
		rng.Start = uint32(binary.LittleEndian.Uint16(buf[offset:]))
		rng.Stop = uint32(binary.LittleEndian.Uint16(buf[offset+2:]))
		offset += 4
		rng.HasIndices = true
		rng.IsAddress = h.Range == RangeAddrStartStop16
		rng.Count = int(rng.Stop) - int(rng.Start) + 1
	case RangeStartStop32, RangeAddrStartStop32:
		if err := need(8); err != nil {
			return Header{}, Range{}, 0, err
		}
		rng.Start = binary.LittleEndian.Uint32(buf[offset:])
		rng.Stop = binary.LittleEndian.Uint32(buf[offset+4:])
		offset += 8
		rng.HasIndices = true
		rng.IsAddress = h.Range == RangeAddrStartStop32
		rng.Count = int(rng.Stop) - int(rng.Start) + 1
	case RangeAllObjects:
		rng.Count = -1 // unknown; resolved by the variation's own framing
	case RangeCount8:
		if err := need(1); err != nil {
			return Header{}, Range{}, 0, err
		}
		rng.Count = int(buf[offset])
		offset++
	case RangeCount16:
		if err := need(2); err != nil {
			return Header{}, Range{}, 0, err
		}
		rng.Count = int(binary.LittleEndian.Uint16(buf[offset:]))
		offset += 2
	case RangeCount32:
		if err := need(4); err != nil {
			return Header{}, Range{}, 0, err
		}
		rng.Count = int(binary.LittleEndian.Uint32(buf[offset:]))
		offset += 4
	case RangeFreeFormat:
		if err := need(1); err != nil {
			return Header{}, Range{}, 0, err
		}
		rng.Count = int(buf[offset])
		offset++
	default:
		return Header{}, Range{}, 0, ErrUnknownRangeCode
	}
	if rng.Count < -1 {
		return Header{}, Range{}, 0, ErrInvalidRange
	}
	return h, rng, offset, nil
}
