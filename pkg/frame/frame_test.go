package frame

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleFrame(data []byte) Frame {
	return Frame{
		Header: Header{
			Function:        UnconfirmedUserData,
			Primary:         true,
			Master:          true,
			FrameCountValid: false,
			Destination:     1,
			Source:          2,
		},
		Data: data,
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	for _, n := range []int{0, 1, 16, 17, 32, 200, 250} {
		data := make([]byte, n)
		for i := range data {
			data[i] = byte(i)
		}
		f := sampleFrame(data)
		if n == 0 {
			f.Header.Function = ResetLinkStates
		}
		wire, err := Encode(f)
		require.NoError(t, err)

		decoded, err := Decode(wire, false) // local is outstation, sender is master
		require.NoError(t, err)
		assert.Equal(t, f.Data, decoded.Data)
		assert.Equal(t, f.Header.Destination, decoded.Header.Destination)
		assert.Equal(t, f.Header.Source, decoded.Header.Source)
	}
}

func TestDecodeRejectsBadStartField(t *testing.T) {
	wire, _ := Encode(sampleFrame(nil))
	wire[0] ^= 0xFF
	wire[2] = 5 // fix length so ResetLinkStates passthrough isn't hit; function is still UnconfirmedUserData with 0 data -> would fail differently, but start field check runs first
	_, err := Decode(wire, false)
	assert.ErrorIs(t, err, ErrInvalidStartField)
}

func TestDecodeEnforcesLengthBounds(t *testing.T) {
	wire, _ := Encode(sampleFrame(make([]byte, 10)))
	wire[2] = 4 // below minimum total length of 10
	_, err := Decode(wire, false)
	assert.ErrorIs(t, err, ErrInvalidFrameLength)
}

func TestDecodeDetectsHeaderCRCCorruption(t *testing.T) {
	wire, _ := Encode(sampleFrame([]byte{1, 2, 3}))
	wire[8] ^= 0x01
	_, err := Decode(wire, false)
	assert.ErrorIs(t, err, ErrBadCRC)
}

func TestDecodeDetectsBlockCRCCorruption(t *testing.T) {
	wire, _ := Encode(sampleFrame(make([]byte, 20)))
	wire[len(wire)-1] ^= 0x01
	_, err := Decode(wire, false)
	assert.ErrorIs(t, err, ErrBadCRC)
}

func TestDecodeEnforcesDirectionBit(t *testing.T) {
	wire, _ := Encode(sampleFrame([]byte{1}))
	// Frame was sent by a master (DIR=1); decoding it as if we're also
	// the master (localIsMaster=true) must fail.
	_, err := Decode(wire, true)
	assert.ErrorIs(t, err, ErrInvertedDirBit)
}

func TestDecodeRejectsUnexpectedDataPresence(t *testing.T) {
	f := sampleFrame(nil)
	f.Header.Function = ResetLinkStates
	wire, err := Encode(f)
	require.NoError(t, err)
	// Tamper with the length byte and header CRC is now wrong too, so
	// instead directly build a malformed ResetLinkStates frame with data.
	wireWithData, err := Encode(Frame{Header: f.Header, Data: []byte{1}})
	require.NoError(t, err)
	_ = wire
	_, err = Decode(wireWithData, false)
	assert.ErrorIs(t, err, ErrUnexpectedFrameData)
}

func TestReadOneFromStream(t *testing.T) {
	f1 := sampleFrame([]byte{1, 2, 3})
	f2 := sampleFrame([]byte{4, 5})
	wire1, _ := Encode(f1)
	wire2, _ := Encode(f2)

	r := bufio.NewReader(bytes.NewReader(append(append([]byte{}, wire1...), wire2...)))
	got1, err := ReadOne(r, false)
	require.NoError(t, err)
	assert.Equal(t, f1.Data, got1.Data)

	got2, err := ReadOne(r, false)
	require.NoError(t, err)
	assert.Equal(t, f2.Data, got2.Data)
}

func TestSizeMatchesEncodedLength(t *testing.T) {
	for _, n := range []int{0, 1, 16, 17, 250} {
		f := sampleFrame(make([]byte, n))
		if n == 0 {
			f.Header.Function = ResetLinkStates
		}
		wire, err := Encode(f)
		require.NoError(t, err)
		assert.Equal(t, len(wire), Size(n))
	}
}
