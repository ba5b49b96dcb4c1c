package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memSegmenter is a direct in-memory Segmenter: Send appends a copy of
// each TPDU to a queue; Receive pops the oldest.
type memSegmenter struct {
	queue [][]byte
}

func (m *memSegmenter) Send(tpdu []byte) error {
	cp := make([]byte, len(tpdu))
	copy(cp, tpdu)
	m.queue = append(m.queue, cp)
	return nil
}

func (m *memSegmenter) Receive(out []byte) (int, error) {
	tpdu := m.queue[0]
	m.queue = m.queue[1:]
	return copy(out, tpdu), nil
}

func TestReassemblySingleTPDU(t *testing.T) {
	seg := &memSegmenter{}
	sender := New(seg)
	receiver := New(seg)

	require.NoError(t, sender.Send([]byte("hello world")))
	fragment, err := receiver.Receive()
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(fragment))
}

func TestReassemblyMultiTPDU(t *testing.T) {
	seg := &memSegmenter{}
	sender := New(seg)
	receiver := New(seg)

	payload := make([]byte, 4000)
	for i := range payload {
		payload[i] = byte(i % 251)
	}
	require.NoError(t, sender.Send(payload))
	assert.Greater(t, len(seg.queue), 1)

	fragment, err := receiver.Receive()
	require.NoError(t, err)
	assert.Equal(t, payload, fragment)
}

func TestOutOfSequenceTPDUDiscardsFragment(t *testing.T) {
	seg := &memSegmenter{}
	receiver := New(seg)

	// Manually craft: FIR TPDU seq=0, then a non-FIR TPDU claiming seq=5
	// (should be 1), then a fresh FIR/FIN TPDU that should still be
	// delivered cleanly.
	seg.queue = append(seg.queue, append([]byte{firBit | 0}, []byte("AAAA")...))
	seg.queue = append(seg.queue, append([]byte{5}, []byte("BBBB")...))
	seg.queue = append(seg.queue, append([]byte{firBit | finBit | 0}, []byte("clean")...))

	fragment, err := receiver.Receive()
	require.NoError(t, err)
	assert.Equal(t, "clean", string(fragment))
}

func TestSequenceWrapsModulo64(t *testing.T) {
	seg := &memSegmenter{}
	sender := New(seg)
	for i := 0; i < 70; i++ {
		require.NoError(t, sender.Send([]byte{byte(i)}))
	}
	assert.Equal(t, uint8(70%64), sender.sendSeq)
}
