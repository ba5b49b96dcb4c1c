package object

import "time"

// Group 50 (Time and Date).

func registerTimeAndDate() {
	register(Descriptor{
		Group: 50, Variation: 1, Name: "Time and Date - Absolute Time",
		FixedSize: 6, HasTimestamp: true,
		Decode: func(buf []byte) (Instance, error) {
			if len(buf) < 6 {
				return Instance{}, ErrTruncatedInstance
			}
			return Instance{Group: 50, Variation: 1, Timestamp: decodeTime48(buf[:6])}, nil
		},
		Encode: func(inst Instance) []byte {
			ts := inst.Timestamp
			if ts.IsZero() {
				ts = time.Now().UTC()
			}
			return encodeTime48(ts)
		},
	})
}
