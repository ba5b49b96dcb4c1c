package object

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderRoundTripStartStop8(t *testing.T) {
	h := Header{Group: 30, Variation: 1, Prefix: PrefixNone, Range: RangeStartStop8}
	rng := Range{Code: RangeStartStop8, Start: 2, Stop: 5}
	buf, err := EncodeHeader(h, rng)
	require.NoError(t, err)

	gotH, gotRng, n, err := DecodeHeader(buf)
	require.NoError(t, err)
	assert.Equal(t, len(buf), n)
	assert.Equal(t, h, gotH)
	assert.Equal(t, 4, gotRng.Count)
	assert.Equal(t, uint32(2), gotRng.Start)
	assert.Equal(t, uint32(5), gotRng.Stop)
}

func TestAnalogInputRoundTrip(t *testing.T) {
	items := []Item{{
		Header: Header{Group: 30, Variation: 1, Prefix: PrefixNone, Range: RangeStartStop16},
		Range:  Range{Code: RangeStartStop16, Start: 0, Stop: 2, Count: 3},
		Instances: []Instance{
			{Index: 0, Group: 30, Variation: 1, Flags: flagOnline, Value: 100},
			{Index: 1, Group: 30, Variation: 1, Flags: flagOnline, Value: -5},
			{Index: 2, Group: 30, Variation: 1, Flags: flagOnline | flagOverRange, Value: 9999},
		},
	}}

	buf, err := EncodeItems(items)
	require.NoError(t, err)

	decoded, err := DecodeItems(buf)
	require.NoError(t, err)
	require.Len(t, decoded, 1)
	require.Len(t, decoded[0].Instances, 3)
	assert.Equal(t, int32(100), decoded[0].Instances[0].Value)
	assert.Equal(t, int32(-5), decoded[0].Instances[1].Value)
	assert.True(t, decoded[0].Instances[2].Flags.OverRange())
}

func TestBinaryInputPackedRoundTrip(t *testing.T) {
	items := []Item{{
		Header: Header{Group: 1, Variation: 1, Prefix: PrefixNone, Range: RangeStartStop8},
		Range:  Range{Code: RangeStartStop8, Start: 0, Stop: 9, Count: 10},
		Instances: []Instance{
			{Value: 1}, {Value: 0}, {Value: 1}, {Value: 1}, {Value: 0},
			{Value: 0}, {Value: 1}, {Value: 0}, {Value: 1}, {Value: 1},
		},
	}}
	buf, err := EncodeItems(items)
	require.NoError(t, err)

	decoded, err := DecodeItems(buf)
	require.NoError(t, err)
	require.Len(t, decoded[0].Instances, 10)
	want := []int32{1, 0, 1, 1, 0, 0, 1, 0, 1, 1}
	for i, inst := range decoded[0].Instances {
		assert.Equal(t, want[i], inst.Value, "bit %d", i)
		assert.Equal(t, uint32(i), inst.Index)
	}
}

func TestClassDataHasNoInstances(t *testing.T) {
	items := []Item{{
		Header: Header{Group: 60, Variation: 1, Prefix: PrefixNone, Range: RangeAllObjects},
		Range:  Range{Code: RangeAllObjects, Count: -1},
	}}
	buf, err := EncodeItems(items)
	require.NoError(t, err)
	assert.Equal(t, []byte{60, 1, 0x06}, buf)

	decoded, err := DecodeItems(buf)
	require.NoError(t, err)
	require.Len(t, decoded, 1)
	assert.Empty(t, decoded[0].Instances)
}

func TestCROBRoundTrip(t *testing.T) {
	items := []Item{{
		Header: Header{Group: 12, Variation: 1, Prefix: PrefixIndexByte, Range: RangeCount8},
		Range:  Range{Code: RangeCount8, Count: 1},
		Instances: []Instance{{
			Index: 7,
			CROB: &CROBPayload{ControlCode: CROBLatchOn | CROBCloseMask, Count: 1, OnTime: 1000, OffTime: 0, Status: 0},
		}},
	}}
	buf, err := EncodeItems(items)
	require.NoError(t, err)

	decoded, err := DecodeItems(buf)
	require.NoError(t, err)
	require.Len(t, decoded[0].Instances, 1)
	inst := decoded[0].Instances[0]
	assert.Equal(t, uint32(7), inst.Index)
	require.NotNil(t, inst.CROB)
	assert.Equal(t, uint32(1000), inst.CROB.OnTime)
}

func TestLookupUnknownVariation(t *testing.T) {
	_, err := Lookup(99, 99)
	assert.ErrorIs(t, err, ErrUnknownVariation)
}
