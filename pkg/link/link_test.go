package link

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-dnp3/dnp3go/pkg/frame"
)

// pairedSender wires two Layers' Sender interfaces directly together
// (no real socket), decoding each side's wire bytes and handing the
// resulting Frame to the peer's HandleFrame synchronously.
type pairedSender struct {
	peer          *Layer
	peerIsMaster  bool
}

func (p *pairedSender) Send(wire []byte) error {
	f, err := frame.Decode(wire, p.peerIsMaster)
	if err != nil {
		return err
	}
	p.peer.HandleFrame(f)
	return nil
}

func newPair() (master *Layer, outstation *Layer) {
	master = New(nil, Config{LocalIsMaster: true, LocalAddr: 2, RemoteAddr: 1})
	outstation = New(nil, Config{LocalIsMaster: false, LocalAddr: 1, RemoteAddr: 2})
	master.sender = &pairedSender{peer: outstation, peerIsMaster: false}
	outstation.sender = &pairedSender{peer: master, peerIsMaster: true}
	return master, outstation
}

func TestResetLinkStatesTransitionsSecondaryToIdle(t *testing.T) {
	master, outstation := newPair()
	assert.Equal(t, UnReset, outstation.secondaryState)

	err := master.sendFrame(frame.Header{Function: frame.ResetLinkStates, Primary: true}, nil)
	require.NoError(t, err)

	assert.Equal(t, Idle, outstation.secondaryState)
	assert.True(t, outstation.expectedFCB)
}

func TestUnconfirmedSendDelivers(t *testing.T) {
	master, outstation := newPair()
	err := master.Send([]byte("hello"))
	require.NoError(t, err)

	out := make([]byte, 64)
	n, err := outstation.Receive(out)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(out[:n]))
}

func TestIsLinkActiveSucceedsWhenPeerReplies(t *testing.T) {
	master, outstation := newPair()
	_ = outstation

	active := master.IsLinkActive(200 * time.Millisecond)
	assert.True(t, active)
	assert.Equal(t, SecUnResetIdle, master.primaryState)
}

func TestIsLinkActiveTimesOutWithNoPeer(t *testing.T) {
	lonely := New(discardSender{}, Config{LocalIsMaster: true})
	active := lonely.IsLinkActive(30 * time.Millisecond)
	assert.False(t, active)
	assert.Equal(t, SecUnResetIdle, lonely.primaryState)
}

type discardSender struct{}

func (discardSender) Send(wire []byte) error { return nil }

func TestConfirmedUserDataTogglesFCBAndAcks(t *testing.T) {
	master, outstation := newPair()
	outstation.secondaryState = Idle

	ok, err := master.SendConfirmed([]byte{1, 2, 3}, true, 200*time.Millisecond)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, outstation.expectedFCB) // toggled from true to false

	out := make([]byte, 8)
	n, err := outstation.Receive(out)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, out[:n])
}

func TestConfirmedUserDataNacksOnFCBMismatch(t *testing.T) {
	master, outstation := newPair()
	outstation.secondaryState = Idle
	outstation.expectedFCB = false // master will send fcb=true, which now mismatches

	ok, err := master.SendConfirmed([]byte{9}, true, 200*time.Millisecond)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCloseUnblocksReceive(t *testing.T) {
	_, outstation := newPair()
	done := make(chan error, 1)
	go func() {
		_, err := outstation.Receive(make([]byte, 4))
		done <- err
	}()
	outstation.Close()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrClosed)
	case <-time.After(time.Second):
		t.Fatal("Receive did not unblock after Close")
	}
}
