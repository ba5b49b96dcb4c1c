// Package manager implements the ConnectionManager: it owns every
// connection and association a local endpoint maintains, dispatches
// inbound bytes to the right association by address, and runs the
// accept loop for listening transports. Modeled on the teacher's
// Network type, generalized from one CAN bus to many concurrent
// DNP3 connections. See spec §4.6.
package manager

import (
	"fmt"
	"net"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/go-dnp3/dnp3go/pkg/app"
	"github.com/go-dnp3/dnp3go/pkg/association"
	"github.com/go-dnp3/dnp3go/pkg/connection"
	"github.com/go-dnp3/dnp3go/pkg/device"
	"github.com/go-dnp3/dnp3go/pkg/frame"
)

// Events groups the callbacks a ConnectionManager fires. Any may be
// left nil. OnReceivedFragment mirrors spec §6's
// on_received_fragment(fragment) -> handled: bool.
type Events struct {
	OnNewConnection    func(conn connection.Conn)
	OnLostConnection   func(conn connection.Conn, err error)
	OnNewAssociation   func(a *association.Association)
	OnReceivedFragment func(a *association.Association, f app.Fragment) bool
}

// ConnectionManager owns the connection and association arenas for
// one local endpoint, exactly as the teacher's Network owns its node
// map over one bus.
type ConnectionManager struct {
	log    *log.Entry
	events Events

	mu           sync.Mutex
	nextID       association.ID
	associations map[association.ID]*association.Association
	conns        map[association.ID]connection.Conn
	byAddress    map[uint16]association.ID
	localDevice  map[association.ID]uint16

	devices *device.Registry

	listener  net.Listener
	udpSocket *net.UDPConn
	udpPeers  map[string]*connection.PeerConn

	wg     sync.WaitGroup
	stopCh chan struct{}
}

// New creates an empty ConnectionManager.
func New(events Events) *ConnectionManager {
	return &ConnectionManager{
		log:          log.WithField("component", "manager"),
		events:       events,
		associations: map[association.ID]*association.Association{},
		conns:        map[association.ID]connection.Conn{},
		byAddress:    map[uint16]association.ID{},
		localDevice:  map[association.ID]uint16{},
		devices:      device.NewRegistry(),
		udpPeers:     map[string]*connection.PeerConn{},
		stopCh:       make(chan struct{}),
	}
}

// Connect dials out as master and registers a new association over
// the resulting TCP connection.
func (m *ConnectionManager) Connect(addr string, localAddr, remoteAddr uint16) (*association.Association, error) {
	conn, err := connection.DialTCP(addr)
	if err != nil {
		return nil, err
	}
	return m.adopt(conn, association.Config{LocalIsMaster: true, LocalAddr: localAddr, RemoteAddr: remoteAddr})
}

// StartListening opens addr for inbound TCP connections and spawns
// the accept loop; each accepted connection becomes an outstation-
// side association.
func (m *ConnectionManager) StartListening(addr string, localAddr, remoteAddr uint16) error {
	m.mu.Lock()
	if m.listener != nil {
		m.mu.Unlock()
		return ErrAlreadyListening
	}
	ln, err := connection.ListenTCP(addr)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	m.listener = ln
	m.mu.Unlock()

	m.wg.Add(1)
	go m.acceptLoop(ln, localAddr, remoteAddr)
	return nil
}

func (m *ConnectionManager) acceptLoop(ln net.Listener, localAddr, remoteAddr uint16) {
	defer m.wg.Done()
	for {
		raw, err := ln.Accept()
		if err != nil {
			select {
			case <-m.stopCh:
				return
			default:
				m.log.WithError(err).Warn("accept failed")
				return
			}
		}
		conn := connection.NewAcceptedTCPConn(raw)
		if _, err := m.adopt(conn, association.Config{LocalIsMaster: false, LocalAddr: localAddr, RemoteAddr: remoteAddr}); err != nil {
			m.log.WithError(err).Warn("rejecting inbound connection")
			conn.Close()
		}
	}
}

// StartListeningUDP opens addr as a shared outstation-side UDP socket
// and spawns the demux loop. Per spec §4.7, each inbound datagram's
// source address is matched against already-known peers; an unknown
// source gets a new PeerConn and association created on demand.
func (m *ConnectionManager) StartListeningUDP(addr string, localAddr, remoteAddr uint16) error {
	m.mu.Lock()
	if m.udpSocket != nil {
		m.mu.Unlock()
		return ErrAlreadyListening
	}
	socket, err := connection.ListenUDP(addr)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	m.udpSocket = socket
	m.mu.Unlock()

	m.wg.Add(1)
	go m.udpDemuxLoop(socket, localAddr, remoteAddr)
	return nil
}

func (m *ConnectionManager) udpDemuxLoop(socket *net.UDPConn, localAddr, remoteAddr uint16) {
	defer m.wg.Done()
	buf := make([]byte, 2048)
	for {
		n, raddr, err := socket.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-m.stopCh:
				return
			default:
				m.log.WithError(err).Warn("udp demux read failed")
				return
			}
		}
		m.mu.Lock()
		peer, known := m.udpPeers[raddr.String()]
		m.mu.Unlock()
		if !known {
			peer = connection.NewPeerConn(socket, raddr, 16)
			m.mu.Lock()
			m.udpPeers[raddr.String()] = peer
			m.mu.Unlock()
			if _, err := m.adopt(peer, association.Config{LocalIsMaster: false, LocalAddr: localAddr, RemoteAddr: remoteAddr}); err != nil {
				m.log.WithError(err).Warn("rejecting inbound udp peer")
				continue
			}
		}
		peer.Deliver(buf[:n])
	}
}

// StopListening closes the TCP listener and the UDP demux socket, if
// either is active; established associations are unaffected.
func (m *ConnectionManager) StopListening() error {
	m.mu.Lock()
	ln := m.listener
	m.listener = nil
	udp := m.udpSocket
	m.udpSocket = nil
	m.mu.Unlock()

	var err error
	if ln != nil {
		err = ln.Close()
	}
	if udp != nil {
		if uerr := udp.Close(); err == nil {
			err = uerr
		}
	}
	return err
}

func (m *ConnectionManager) adopt(conn connection.Conn, cfg association.Config) (*association.Association, error) {
	m.mu.Lock()
	if _, taken := m.byAddress[cfg.RemoteAddr]; taken {
		m.mu.Unlock()
		conn.Close()
		return nil, fmt.Errorf("%w: %d", ErrAddressConflict, cfg.RemoteAddr)
	}
	id := m.nextID
	m.nextID++
	a := association.New(id, conn, cfg)
	m.associations[id] = a
	m.conns[id] = conn
	m.byAddress[cfg.RemoteAddr] = id
	m.localDevice[id] = cfg.LocalAddr
	m.mu.Unlock()

	if m.events.OnNewConnection != nil {
		m.events.OnNewConnection(conn)
	}
	if m.events.OnNewAssociation != nil {
		m.events.OnNewAssociation(a)
	}

	// Only the outstation side of an association spawns a Logical
	// Device Server: it owns incoming request processing. The master
	// side drives its associations synchronously through the
	// Transaction API (pkg/transaction), which calls App.Receive()
	// itself; a background server task there would race it for the
	// same response fragment.
	if !cfg.LocalIsMaster {
		server := m.devices.GetOrCreate(fmt.Sprintf("device-%d", cfg.LocalAddr), cfg.LocalAddr, m.events.OnReceivedFragment, nil)
		server.Serve(a)
	}

	m.wg.Add(1)
	go m.pump(a, conn, cfg)
	return a, nil
}

// pump reads link frames off conn and hands them to a's link layer
// until the connection fails.
func (m *ConnectionManager) pump(a *association.Association, conn connection.Conn, cfg association.Config) {
	defer m.wg.Done()
	localIsMaster := cfg.LocalIsMaster
	for {
		buf := make([]byte, frame.MaxFrameLength)
		n, err := conn.Receive(buf)
		if err != nil {
			m.teardown(a, conn, err)
			return
		}
		if n == 0 {
			continue
		}
		f, err := frame.Decode(buf[:n], localIsMaster)
		if err != nil {
			m.log.WithError(err).Warn("dropping malformed frame")
			continue
		}
		a.Link.HandleFrame(f)
	}
}

func (m *ConnectionManager) teardown(a *association.Association, conn connection.Conn, err error) {
	m.mu.Lock()
	delete(m.associations, a.ID)
	delete(m.conns, a.ID)
	localAddr, hadLocalAddr := m.localDevice[a.ID]
	delete(m.localDevice, a.ID)
	for addr, id := range m.byAddress {
		if id == a.ID {
			delete(m.byAddress, addr)
			break
		}
	}
	m.mu.Unlock()

	if hadLocalAddr {
		if server, ok := m.devices.ByAddress(localAddr); ok {
			server.Stop(a.ID)
		}
	}
	if peer, ok := conn.(*connection.PeerConn); ok {
		m.mu.Lock()
		for addr, p := range m.udpPeers {
			if p == peer {
				delete(m.udpPeers, addr)
				break
			}
		}
		m.mu.Unlock()
	}
	a.Link.Close()
	conn.Close()
	if m.events.OnLostConnection != nil {
		m.events.OnLostConnection(conn, err)
	}
}

// Association looks up an association by ID.
func (m *ConnectionManager) Association(id association.ID) (*association.Association, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.associations[id]
	return a, ok
}

// ByAddress looks up an association by its configured remote DNP3
// link address.
func (m *ConnectionManager) ByAddress(addr uint16) (*association.Association, bool) {
	m.mu.Lock()
	id, ok := m.byAddress[addr]
	m.mu.Unlock()
	if !ok {
		return nil, false
	}
	return m.Association(id)
}

// TearDown closes the listener, the UDP socket, and every
// association's connection, then waits for all background pumps to
// exit. Per spec §5, closing a connection must unblock any goroutine
// parked in its Receive so the pump can observe the failure and
// return; skipping conn.Close() here (as opposed to just Link.Close())
// would leave every pump blocked in conn.Receive forever.
func (m *ConnectionManager) TearDown() {
	close(m.stopCh)
	m.StopListening()

	m.mu.Lock()
	associations := make([]*association.Association, 0, len(m.associations))
	conns := make([]connection.Conn, 0, len(m.conns))
	for _, a := range m.associations {
		associations = append(associations, a)
	}
	for _, c := range m.conns {
		conns = append(conns, c)
	}
	m.mu.Unlock()

	for _, a := range associations {
		a.Link.Close()
	}
	for _, c := range conns {
		c.Close()
	}
	m.wg.Wait()
	m.devices.StopAll()
}
