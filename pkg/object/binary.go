package object

// Group 1 (Binary Input), group 10 (Binary Output), group 12 (Control
// Relay Output Block / CROB). See spec §3 supplemented variation list.

func registerBinaryInput() {
	// v1: packed format, one bit per point, no flags. It has no
	// per-instance FixedSize or codec functions; DecodeItems/EncodeItems
	// recognize g1v1 and hand the whole range to DecodePacked/
	// EncodePacked as one bitfield.
	register(Descriptor{
		Group: 1, Variation: 1, Name: "Binary Input - Packed Format",
		FixedSize: 0, HasValue: true, IsCommand: false,
	})
	// v2: one flags byte per point; bit 7 carries the current state.
	register(Descriptor{
		Group: 1, Variation: 2, Name: "Binary Input - With Flags",
		FixedSize: 1, HasValue: true,
		Decode: func(buf []byte) (Instance, error) {
			if len(buf) < 1 {
				return Instance{}, ErrTruncatedInstance
			}
			f := Flags(buf[0])
			v := int32(0)
			if f.State() {
				v = 1
			}
			return Instance{Group: 1, Variation: 2, Flags: f, Value: v}, nil
		},
		Encode: func(inst Instance) []byte {
			f := inst.Flags
			if inst.Value != 0 {
				f |= flagState
			}
			return []byte{byte(f)}
		},
	})
}

func registerBinaryOutput() {
	// g10v2: Binary Output Status, with flags.
	register(Descriptor{
		Group: 10, Variation: 2, Name: "Binary Output - Status With Flags",
		FixedSize: 1, HasValue: true,
		Decode: func(buf []byte) (Instance, error) {
			if len(buf) < 1 {
				return Instance{}, ErrTruncatedInstance
			}
			f := Flags(buf[0])
			v := int32(0)
			if f.State() {
				v = 1
			}
			return Instance{Group: 10, Variation: 2, Flags: f, Value: v}, nil
		},
		Encode: func(inst Instance) []byte {
			f := inst.Flags
			if inst.Value != 0 {
				f |= flagState
			}
			return []byte{byte(f)}
		},
	})
	// g12v1: CROB, used in SELECT/OPERATE/DIRECT_OPERATE requests.
	register(Descriptor{
		Group: 12, Variation: 1, Name: "Control Relay Output Block",
		FixedSize: 11, IsCommand: true,
		Decode: func(buf []byte) (Instance, error) {
			if len(buf) < 11 {
				return Instance{}, ErrTruncatedInstance
			}
			return Instance{
				Group: 12, Variation: 1,
				CROB: &CROBPayload{
					ControlCode: buf[0],
					Count:       buf[1],
					OnTime:      le32(buf[2:6]),
					OffTime:     le32(buf[6:10]),
					Status:      buf[10],
				},
			}, nil
		},
		Encode: func(inst Instance) []byte {
			c := inst.CROB
			if c == nil {
				c = &CROBPayload{}
			}
			out := make([]byte, 11)
			out[0] = c.ControlCode
			out[1] = c.Count
			out[2] = byte(c.OnTime)
			out[3] = byte(c.OnTime >> 8)
			out[4] = byte(c.OnTime >> 16)
			out[5] = byte(c.OnTime >> 24)
			out[6] = byte(c.OffTime)
			out[7] = byte(c.OffTime >> 8)
			out[8] = byte(c.OffTime >> 16)
			out[9] = byte(c.OffTime >> 24)
			out[10] = c.Status
			return out
		},
	})
}

// CROB control codes (IEEE 1815 Table 12-1, the subset this package
// supports).
const (
	CROBNul           uint8 = 0x00
	CROBPulseOn       uint8 = 0x01
	CROBPulseOff      uint8 = 0x02
	CROBLatchOn       uint8 = 0x03
	CROBLatchOff      uint8 = 0x04
	CROBClearTripMask uint8 = 0x40 // trip bit, OR'd with above
	CROBCloseMask     uint8 = 0x80 // close bit, OR'd with above
)

// DecodePacked unpacks count bits (1 bit per binary point, LSB first
// within each byte) starting at index start.
func DecodePacked(buf []byte, start uint32, count int) ([]Instance, error) {
	need := (count + 7) / 8
	if len(buf) < need {
		return nil, ErrTruncatedInstance
	}
	out := make([]Instance, count)
	for i := 0; i < count; i++ {
		byteIdx, bitIdx := i/8, uint(i%8)
		v := int32(0)
		if buf[byteIdx]&(1<<bitIdx) != 0 {
			v = 1
		}
		out[i] = Instance{Index: start + uint32(i), Group: 1, Variation: 1, Value: v}
	}
	return out, nil
}

// EncodePacked packs instances' Value bits back into a bitfield.
func EncodePacked(instances []Instance) []byte {
	out := make([]byte, (len(instances)+7)/8)
	for i, inst := range instances {
		if inst.Value != 0 {
			out[i/8] |= 1 << uint(i%8)
		}
	}
	return out
}
