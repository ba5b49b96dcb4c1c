package object

// Group 20 (Counter), group 30 (Analog Input), group 40 (Analog
// Output Status), group 41 (Analog Output Command). All 32-bit
// variations except g41v2, the 16-bit analog output block; 16-bit
// counter, analog input and analog output status variations are not
// registered (see DESIGN.md).

func registerCounter() {
	register(Descriptor{
		Group: 20, Variation: 1, Name: "Counter - 32-Bit With Flag",
		FixedSize: 5, HasValue: true,
		Decode: func(buf []byte) (Instance, error) {
			if len(buf) < 5 {
				return Instance{}, ErrTruncatedInstance
			}
			return Instance{Group: 20, Variation: 1, Flags: Flags(buf[0]), Value: int32(le32(buf[1:5]))}, nil
		},
		Encode: func(inst Instance) []byte {
			out := make([]byte, 5)
			out[0] = byte(inst.Flags)
			putLE32(out[1:], uint32(inst.Value))
			return out
		},
	})
	register(Descriptor{
		Group: 20, Variation: 5, Name: "Counter - 32-Bit Without Flag",
		FixedSize: 4, HasValue: true,
		Decode: func(buf []byte) (Instance, error) {
			if len(buf) < 4 {
				return Instance{}, ErrTruncatedInstance
			}
			return Instance{Group: 20, Variation: 5, Flags: Flags(flagOnline), Value: int32(le32(buf[:4]))}, nil
		},
		Encode: func(inst Instance) []byte {
			out := make([]byte, 4)
			putLE32(out, uint32(inst.Value))
			return out
		},
	})
}

func registerAnalogInput() {
	register(Descriptor{
		Group: 30, Variation: 1, Name: "Analog Input - 32-Bit With Flag",
		FixedSize: 5, HasValue: true,
		Decode: func(buf []byte) (Instance, error) {
			if len(buf) < 5 {
				return Instance{}, ErrTruncatedInstance
			}
			return Instance{Group: 30, Variation: 1, Flags: Flags(buf[0]), Value: int32(le32(buf[1:5]))}, nil
		},
		Encode: func(inst Instance) []byte {
			out := make([]byte, 5)
			out[0] = byte(inst.Flags)
			putLE32(out[1:], uint32(inst.Value))
			return out
		},
	})
	register(Descriptor{
		Group: 30, Variation: 5, Name: "Analog Input - 32-Bit Without Flag",
		FixedSize: 4, HasValue: true,
		Decode: func(buf []byte) (Instance, error) {
			if len(buf) < 4 {
				return Instance{}, ErrTruncatedInstance
			}
			return Instance{Group: 30, Variation: 5, Flags: flagOnline, Value: int32(le32(buf[:4]))}, nil
		},
		Encode: func(inst Instance) []byte {
			out := make([]byte, 4)
			putLE32(out, uint32(inst.Value))
			return out
		},
	})
}

func registerAnalogOutput() {
	register(Descriptor{
		Group: 40, Variation: 1, Name: "Analog Output Status - 32-Bit With Flag",
		FixedSize: 5, HasValue: true,
		Decode: func(buf []byte) (Instance, error) {
			if len(buf) < 5 {
				return Instance{}, ErrTruncatedInstance
			}
			return Instance{Group: 40, Variation: 1, Flags: Flags(buf[0]), Value: int32(le32(buf[1:5]))}, nil
		},
		Encode: func(inst Instance) []byte {
			out := make([]byte, 5)
			out[0] = byte(inst.Flags)
			putLE32(out[1:], uint32(inst.Value))
			return out
		},
	})
	// g41v1: Analog Output Command, 32-bit.
	register(Descriptor{
		Group: 41, Variation: 1, Name: "Analog Output Block - 32-Bit",
		FixedSize: 5, HasValue: true, IsCommand: true,
		Decode: func(buf []byte) (Instance, error) {
			if len(buf) < 5 {
				return Instance{}, ErrTruncatedInstance
			}
			return Instance{Group: 41, Variation: 1, Value: int32(le32(buf[:4])), Flags: Flags(buf[4])}, nil
		},
		Encode: func(inst Instance) []byte {
			out := make([]byte, 5)
			putLE32(out, uint32(inst.Value))
			out[4] = byte(inst.Flags)
			return out
		},
	})
	// g41v2: Analog Output Command, 16-bit.
	register(Descriptor{
		Group: 41, Variation: 2, Name: "Analog Output Block - 16-Bit",
		FixedSize: 3, HasValue: true, IsCommand: true,
		Decode: func(buf []byte) (Instance, error) {
			if len(buf) < 3 {
				return Instance{}, ErrTruncatedInstance
			}
			return Instance{Group: 41, Variation: 2, Value: int32(int16(le16(buf[:2]))), Flags: Flags(buf[2])}, nil
		},
		Encode: func(inst Instance) []byte {
			out := make([]byte, 3)
			putLE16(out, uint16(int16(inst.Value)))
			out[2] = byte(inst.Flags)
			return out
		},
	})
}

func putLE32(buf []byte, v uint32) {
	buf[0] = byte(v)
	buf[1] = byte(v >> 8)
	buf[2] = byte(v >> 16)
	buf[3] = byte(v >> 24)
}

func putLE16(buf []byte, v uint16) {
	buf[0] = byte(v)
	buf[1] = byte(v >> 8)
}
