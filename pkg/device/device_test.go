package device

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-dnp3/dnp3go/pkg/app"
	"github.com/go-dnp3/dnp3go/pkg/association"
	"github.com/go-dnp3/dnp3go/pkg/frame"
	"github.com/go-dnp3/dnp3go/pkg/object"
)

type memConn struct {
	inbound  chan []byte
	peer     *memConn
	isMaster bool
}

func newMemConnPair() (masterConn, outstationConn *memConn) {
	masterConn = &memConn{inbound: make(chan []byte, 32), isMaster: true}
	outstationConn = &memConn{inbound: make(chan []byte, 32), isMaster: false}
	masterConn.peer = outstationConn
	outstationConn.peer = masterConn
	return
}

func (c *memConn) Send(buf []byte) error {
	cp := make([]byte, len(buf))
	copy(cp, buf)
	c.peer.inbound <- cp
	return nil
}

func (c *memConn) Receive(buf []byte) (int, error) {
	data := <-c.inbound
	return copy(buf, data), nil
}

func (c *memConn) Close() error     { return nil }
func (c *memConn) IsOnMaster() bool { return c.isMaster }
func (c *memConn) Name() string     { return "mem" }

func pump(a *association.Association, conn *memConn, localIsMaster bool) {
	go func() {
		buf := make([]byte, 292)
		for {
			n, err := conn.Receive(buf)
			if err != nil {
				return
			}
			f, err := frame.Decode(buf[:n], localIsMaster)
			if err != nil {
				continue
			}
			a.Link.HandleFrame(f)
		}
	}()
}

func TestServerRoutesFragmentsToHandler(t *testing.T) {
	masterConn, outstationConn := newMemConnPair()
	master := association.New(1, masterConn, association.Config{LocalIsMaster: true, LocalAddr: 2, RemoteAddr: 1})
	outstation := association.New(2, outstationConn, association.Config{LocalIsMaster: false, LocalAddr: 1, RemoteAddr: 2})
	pump(master, masterConn, true)
	pump(outstation, outstationConn, false)

	received := make(chan app.Fragment, 1)
	newAssocSeen := make(chan association.ID, 1)
	s := New("outstation-1", 2, func(a *association.Association, f app.Fragment) bool {
		received <- f
		return true
	}, func(a *association.Association) {
		newAssocSeen <- a.ID
	})
	s.Serve(outstation)

	select {
	case id := <-newAssocSeen:
		assert.Equal(t, outstation.ID, id)
	case <-time.After(time.Second):
		t.Fatal("on-new-association callback never fired")
	}

	items := []object.Item{{
		Header: object.Header{Group: 60, Variation: 1, Range: object.RangeAllObjects},
		Range:  object.Range{Code: object.RangeAllObjects, Count: -1},
	}}
	require.NoError(t, master.App.SendRequest(app.FCRead, items, false))

	select {
	case frag := <-received:
		assert.Equal(t, app.FCRead, frag.Request.Function)
	case <-time.After(time.Second):
		t.Fatal("server task never delivered the fragment to the handler")
	}

	s.StopAll()
}

func TestRegistryGetOrCreateReturnsSameServer(t *testing.T) {
	r := NewRegistry()
	a := r.GetOrCreate("dev-a", 7, nil, nil)
	b := r.GetOrCreate("dev-a-again", 7, nil, nil)
	assert.Same(t, a, b)

	byAddr, ok := r.ByAddress(7)
	require.True(t, ok)
	assert.Same(t, a, byAddr)

	byName, ok := r.ByName("dev-a")
	require.True(t, ok)
	assert.Same(t, a, byName)
}
