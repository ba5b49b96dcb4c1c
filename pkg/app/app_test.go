package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-dnp3/dnp3go/pkg/object"
)

type memTransport struct {
	queue [][]byte
}

func (m *memTransport) Send(fragment []byte) error {
	cp := make([]byte, len(fragment))
	copy(cp, fragment)
	m.queue = append(m.queue, cp)
	return nil
}

func (m *memTransport) Receive() ([]byte, error) {
	f := m.queue[0]
	m.queue = m.queue[1:]
	return f, nil
}

func classZeroPoll() []object.Item {
	return []object.Item{{
		Header: object.Header{Group: 60, Variation: 1, Range: object.RangeAllObjects},
		Range:  object.Range{Code: object.RangeAllObjects, Count: -1},
	}}
}

func TestSendRequestSingleFragment(t *testing.T) {
	tr := &memTransport{}
	master := New(tr, Config{LocalIsMaster: true})

	require.NoError(t, master.SendRequest(FCRead, classZeroPoll(), false))
	require.Len(t, tr.queue, 1)

	h, err := decodeRequestHeader(tr.queue[0])
	require.NoError(t, err)
	assert.True(t, h.Control.FIR)
	assert.True(t, h.Control.FIN)
	assert.Equal(t, FCRead, h.Function)
}

func TestResponseDecodeSurfacesObjectUnknown(t *testing.T) {
	tr := &memTransport{}
	outstation := New(tr, Config{LocalIsMaster: false})
	require.NoError(t, outstation.SendResponse(nil, IINObjectUnknown, false))

	master := New(tr, Config{LocalIsMaster: true})
	_, err := master.Receive()
	assert.ErrorIs(t, err, ErrObjectUnknown)
}

func TestSequenceAdvancesPerFragment(t *testing.T) {
	tr := &memTransport{}
	master := New(tr, Config{LocalIsMaster: true})

	require.NoError(t, master.SendRequest(FCRead, classZeroPoll(), false))
	require.NoError(t, master.SendRequest(FCRead, classZeroPoll(), false))

	h0, _ := decodeRequestHeader(tr.queue[0])
	h1, _ := decodeRequestHeader(tr.queue[1])
	assert.Equal(t, uint8(0), h0.Control.Seq)
	assert.Equal(t, uint8(1), h1.Control.Seq)
}

func TestMultiFragmentSplitRespectsMaxFragmentSize(t *testing.T) {
	tr := &memTransport{}
	master := New(tr, Config{LocalIsMaster: true, MaxFragmentSize: 10})

	items := []object.Item{{
		Header: object.Header{Group: 30, Variation: 5, Range: object.RangeStartStop8},
		Range:  object.Range{Code: object.RangeStartStop8, Start: 0, Stop: 9, Count: 10},
		Instances: func() []object.Instance {
			out := make([]object.Instance, 10)
			for i := range out {
				out[i] = object.Instance{Value: int32(i)}
			}
			return out
		}(),
	}}

	require.NoError(t, master.SendRequest(FCWrite, items, false))
	require.Greater(t, len(tr.queue), 1)

	h0, _ := decodeRequestHeader(tr.queue[0])
	hLast, _ := decodeRequestHeader(tr.queue[len(tr.queue)-1])
	assert.True(t, h0.Control.FIR)
	assert.False(t, h0.Control.FIN)
	assert.False(t, hLast.Control.FIR)
	assert.True(t, hLast.Control.FIN)
}

func TestReceiveReassemblesMultiFragmentResponse(t *testing.T) {
	tr := &memTransport{}
	outstation := New(tr, Config{LocalIsMaster: false, MaxFragmentSize: 10})
	master := New(tr, Config{LocalIsMaster: true})

	items := []object.Item{{
		Header: object.Header{Group: 30, Variation: 5, Range: object.RangeStartStop8},
		Range:  object.Range{Code: object.RangeStartStop8, Start: 0, Stop: 9, Count: 10},
		Instances: func() []object.Instance {
			out := make([]object.Instance, 10)
			for i := range out {
				out[i] = object.Instance{Value: int32(i)}
			}
			return out
		}(),
	}}

	require.NoError(t, outstation.SendResponse(items, 0, false))
	require.Greater(t, len(tr.queue), 1, "payload should have been split across multiple physical fragments")

	frag, err := master.Receive()
	require.NoError(t, err)
	assert.True(t, frag.Response.Control.FIN)
	require.Len(t, frag.Items, 1)
	require.Len(t, frag.Items[0].Instances, 10)
	for i, inst := range frag.Items[0].Instances {
		assert.Equal(t, int32(i), inst.Value)
	}
	assert.Empty(t, tr.queue, "Receive should have consumed every physical fragment of the message")
}

type fakeConfirmer struct {
	expected uint8
	ok       bool
}

func (f *fakeConfirmer) ExpectConfirm(seq uint8) { f.expected = seq }
func (f *fakeConfirmer) WaitForConfirm(seq uint8, timeout time.Duration) bool {
	return f.ok && seq == f.expected
}

func TestConfirmedSendWaitsForConfirmer(t *testing.T) {
	tr := &memTransport{}
	confirmer := &fakeConfirmer{ok: true}
	master := New(tr, Config{LocalIsMaster: true, Confirmer: confirmer, ConfirmTimeout: 50 * time.Millisecond})

	require.NoError(t, master.SendRequest(FCWrite, classZeroPoll(), true))
}

func TestConfirmedSendTimesOutWithoutConfirmer(t *testing.T) {
	tr := &memTransport{}
	confirmer := &fakeConfirmer{ok: false}
	master := New(tr, Config{LocalIsMaster: true, Confirmer: confirmer, ConfirmTimeout: 10 * time.Millisecond})

	err := master.SendRequest(FCWrite, classZeroPoll(), true)
	assert.ErrorIs(t, err, ErrConfirmTimeout)
}
