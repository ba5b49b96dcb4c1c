package crc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSingleAccumulates(t *testing.T) {
	var c CRC16
	c.Single(0x05)
	c.Single(0x64)
	assert.NotEqual(t, uint16(0), c.Final())
}

func TestComputeDeterministic(t *testing.T) {
	data := []byte{0x05, 0x64, 0xC0, 0x01, 0x00, 0x02, 0x00}
	first := Compute(data)
	second := Compute(data)
	assert.Equal(t, first, second)
}

func TestValidateRoundTrip(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03, 0x04}
	wire := Compute(data)
	assert.True(t, Validate(data, wire))
	assert.False(t, Validate(data, wire^0x0001))
}

func TestValidateDetectsBitFlip(t *testing.T) {
	for i := 0; i < 250; i++ {
		data := make([]byte, i%16+1)
		for j := range data {
			data[j] = byte(i + j)
		}
		wire := Compute(data)
		for bit := 0; bit < len(data)*8; bit++ {
			flipped := append([]byte(nil), data...)
			flipped[bit/8] ^= 1 << uint(bit%8)
			assert.False(t, Validate(flipped, wire), "bit flip at %d should invalidate crc", bit)
		}
	}
}
