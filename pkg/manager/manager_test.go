package manager

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-dnp3/dnp3go/pkg/app"
	"github.com/go-dnp3/dnp3go/pkg/association"
	"github.com/go-dnp3/dnp3go/pkg/connection"
	"github.com/go-dnp3/dnp3go/pkg/object"
)

func TestConnectRegistersAssociationByAddress(t *testing.T) {
	outstationEvents := Events{}
	outstation := New(outstationEvents)
	require.NoError(t, outstation.StartListening("127.0.0.1:20000", 1, 2))
	defer outstation.TearDown()

	time.Sleep(20 * time.Millisecond) // let the accept loop start

	master := New(Events{})
	assoc, err := master.Connect("127.0.0.1:20000", 2, 1)
	require.NoError(t, err)
	defer master.TearDown()

	got, ok := master.ByAddress(1)
	assert.True(t, ok)
	assert.Equal(t, assoc.ID, got.ID)
}

func TestUDPDemuxSynthesizesAssociationForUnknownPeer(t *testing.T) {
	outstation := New(Events{})
	require.NoError(t, outstation.StartListeningUDP("127.0.0.1:20100", 1, 2))
	defer outstation.TearDown()
	time.Sleep(20 * time.Millisecond)

	raddr, err := net.ResolveUDPAddr("udp", "127.0.0.1:20100")
	require.NoError(t, err)
	client, err := net.DialUDP("udp", nil, raddr)
	require.NoError(t, err)
	defer client.Close()

	_, err = client.Write([]byte{0x64, 0x05, 0x05, 0xC0, 0x01, 0x00, 0x02, 0x00, 0x00, 0x00})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		_, ok := outstation.ByAddress(2)
		return ok
	}, time.Second, 10*time.Millisecond)
}

func TestPeerConnDeliverAndReceiveRoundTrip(t *testing.T) {
	laddr, err := net.ResolveUDPAddr("udp", "127.0.0.1:0")
	require.NoError(t, err)
	socket, err := net.ListenUDP("udp", laddr)
	require.NoError(t, err)
	defer socket.Close()

	remote, err := net.ResolveUDPAddr("udp", "127.0.0.1:9") // never actually dialed
	require.NoError(t, err)
	peer := connection.NewPeerConn(socket, remote, 4)
	peer.Deliver([]byte{1, 2, 3})

	buf := make([]byte, 16)
	n, err := peer.Receive(buf)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, buf[:n])

	require.NoError(t, peer.Close())
	_, err = peer.Receive(buf)
	assert.ErrorIs(t, err, connection.ErrClosed)
}

func TestReceivedFragmentEventFires(t *testing.T) {
	received := make(chan app.FunctionCode, 1)
	outstation := New(Events{
		OnReceivedFragment: func(a *association.Association, f app.Fragment) bool {
			received <- f.Function()
			return true
		},
	})
	require.NoError(t, outstation.StartListening("127.0.0.1:20101", 1, 2))
	defer outstation.TearDown()
	time.Sleep(20 * time.Millisecond)

	master := New(Events{})
	assoc, err := master.Connect("127.0.0.1:20101", 2, 1)
	require.NoError(t, err)
	defer master.TearDown()

	items := []object.Item{{
		Header: object.Header{Group: 60, Variation: 1, Range: object.RangeAllObjects},
		Range:  object.Range{Code: object.RangeAllObjects, Count: -1},
	}}
	require.NoError(t, assoc.App.SendRequest(app.FCRead, items, false))

	select {
	case fc := <-received:
		assert.Equal(t, app.FCRead, fc)
	case <-time.After(time.Second):
		t.Fatal("OnReceivedFragment never fired")
	}
}

func TestConnectRejectsDuplicateAddress(t *testing.T) {
	outstation := New(Events{})
	require.NoError(t, outstation.StartListening("127.0.0.1:20001", 1, 2))
	defer outstation.TearDown()
	time.Sleep(20 * time.Millisecond)

	master := New(Events{})
	_, err := master.Connect("127.0.0.1:20001", 2, 1)
	require.NoError(t, err)
	defer master.TearDown()

	_, err = master.Connect("127.0.0.1:20001", 2, 1)
	assert.ErrorIs(t, err, ErrAddressConflict)
}
