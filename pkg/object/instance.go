package object

import (
	"encoding/binary"
	"time"
)

// Flags is the one-byte quality/state field carried by most "with
// flags" variations. Bit meanings are group-family specific; see the
// accessor methods on Flags below for the ones this package
// interprets.
type Flags uint8

const (
	flagOnline        Flags = 0x01
	flagRestart       Flags = 0x02
	flagCommLost      Flags = 0x04
	flagRemoteForced  Flags = 0x08
	flagLocalForced   Flags = 0x10
	flagChatterFilter Flags = 0x20 // binary-family bit 5
	flagOverRange     Flags = 0x20 // analog/counter-family bit 5
	flagReferenceErr  Flags = 0x40 // analog-family bit 6
	flagState         Flags = 0x80 // binary-family bit 7: current value
)

func (f Flags) Online() bool        { return f&flagOnline != 0 }
func (f Flags) Restart() bool       { return f&flagRestart != 0 }
func (f Flags) CommLost() bool      { return f&flagCommLost != 0 }
func (f Flags) RemoteForced() bool  { return f&flagRemoteForced != 0 }
func (f Flags) LocalForced() bool   { return f&flagLocalForced != 0 }
func (f Flags) ChatterFilter() bool { return f&flagChatterFilter != 0 }
func (f Flags) State() bool         { return f&flagState != 0 }
func (f Flags) OverRange() bool     { return f&flagOverRange != 0 }
func (f Flags) ReferenceErr() bool  { return f&flagReferenceErr != 0 }

// Instance is one decoded object value: a point index plus its typed
// payload. Group/Variation identify which Descriptor produced it.
type Instance struct {
	Index     uint32
	Group     uint8
	Variation uint8
	Flags     Flags
	Value     int32     // analog/counter integer value, or binary 0/1
	Timestamp time.Time // zero if the variation carries no timestamp
	CROB      *CROBPayload
}

// CROBPayload is the Control Relay Output Block payload used by
// group 12 (request) and echoed back in write responses.
type CROBPayload struct {
	ControlCode uint8
	Count       uint8
	OnTime      uint32
	OffTime     uint32
	Status      uint8
}

func decodeTime48(buf []byte) time.Time {
	ms := uint64(buf[0]) | uint64(buf[1])<<8 | uint64(buf[2])<<16 |
		uint64(buf[3])<<24 | uint64(buf[4])<<32 | uint64(buf[5])<<40
	return time.UnixMilli(int64(ms)).UTC()
}

func encodeTime48(t time.Time) []byte {
	ms := uint64(t.UnixMilli())
	buf := make([]byte, 6)
	buf[0] = byte(ms)
	buf[1] = byte(ms >> 8)
	buf[2] = byte(ms >> 16)
	buf[3] = byte(ms >> 24)
	buf[4] = byte(ms >> 32)
	buf[5] = byte(ms >> 40)
	return buf
}

func le16(buf []byte) uint16 { return binary.LittleEndian.Uint16(buf) }
func le32(buf []byte) uint32 { return binary.LittleEndian.Uint32(buf) }
