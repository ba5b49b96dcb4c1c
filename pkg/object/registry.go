package object

import "fmt"

// Descriptor describes one (group, variation) codec: its wire shape
// and how to move bytes in and out of an Instance.
type Descriptor struct {
	Group        uint8
	Variation    uint8
	Name         string
	FixedSize    int // bytes per instance excluding any index/size prefix; 0 if the variation carries no per-instance payload (class-poll objects, and g1v1 whose packed bits DecodeItems/EncodeItems handle separately)
	HasValue     bool
	HasTimestamp bool
	IsCommand    bool // CROB/analog-output command, decodes CROBPayload instead of Value
	Decode       func(buf []byte) (Instance, error)
	Encode       func(inst Instance) []byte
}

type key struct {
	group     uint8
	variation uint8
}

var registry = map[key]Descriptor{}

func register(d Descriptor) {
	registry[key{d.Group, d.Variation}] = d
}

// Lookup returns the descriptor for (group, variation).
func Lookup(group, variation uint8) (Descriptor, error) {
	d, ok := registry[key{group, variation}]
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: g%dv%d", ErrUnknownVariation, group, variation)
	}
	return d, nil
}

func init() {
	registerBinaryInput()
	registerBinaryOutput()
	registerCounter()
	registerAnalogInput()
	registerAnalogOutput()
	registerClassData()
	registerTimeAndDate()
}
