// Package device implements the Logical Device Server: one receive
// task per association that pulls completed application fragments and
// routes them through the host's received-fragment listener chain.
// Grounded on the teacher's per-node receive goroutines; generalized
// from one CAN node's SDO server loop to one DNP3 association's
// fragment loop. See spec §4.8.
package device

import (
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/go-dnp3/dnp3go/pkg/app"
	"github.com/go-dnp3/dnp3go/pkg/association"
)

// Receiver is the association capability a server task needs: pull
// the next completed fragment, blocking until one arrives or the
// underlying connection closes.
type Receiver interface {
	Receive() (app.Fragment, error)
}

// FragmentHandler is the host's received-fragment listener. It
// returns true if the fragment was consumed; an unhandled fragment is
// only logged, per spec §6's on_received_fragment contract.
type FragmentHandler func(a *association.Association, f app.Fragment) (handled bool)

// Server is a named logical device: an address plus the set of
// associations currently being served on its behalf. One Server may
// back many simultaneous associations, exactly as spec §4.8 describes
// "per (remote_endpoint, remote_address) observed" tasks sharing one
// logical device.
type Server struct {
	log     *log.Entry
	Name    string
	Address uint16

	onFragment FragmentHandler
	onNewAssoc func(a *association.Association)

	mu    sync.Mutex
	tasks map[association.ID]*task
}

type task struct {
	cancel chan struct{}
	done   chan struct{}
}

// New creates a Logical Device Server for one logical device address.
// onFragment may be nil, in which case inbound fragments are dropped
// after being logged.
func New(name string, address uint16, onFragment FragmentHandler, onNewAssoc func(a *association.Association)) *Server {
	return &Server{
		log:        log.WithFields(log.Fields{"component": "device", "device": name, "addr": address}),
		Name:       name,
		Address:    address,
		onFragment: onFragment,
		onNewAssoc: onNewAssoc,
		tasks:      map[association.ID]*task{},
	}
}

// Serve spawns the receive task for a, returning immediately. Calling
// Serve twice for the same association ID is a no-op; the caller must
// call Stop(a.ID) first to restart it.
func (s *Server) Serve(a *association.Association) {
	s.mu.Lock()
	if _, running := s.tasks[a.ID]; running {
		s.mu.Unlock()
		return
	}
	t := &task{cancel: make(chan struct{}), done: make(chan struct{})}
	s.tasks[a.ID] = t
	s.mu.Unlock()

	if s.onNewAssoc != nil {
		s.onNewAssoc(a)
	}

	go s.run(a, t)
}

func (s *Server) run(a *association.Association, t *task) {
	defer close(t.done)
	for {
		select {
		case <-t.cancel:
			return
		default:
		}
		frag, err := a.App.Receive()
		if err != nil {
			s.log.WithError(err).Info("server task stopping: receive failed")
			return
		}
		a.RecordResponse(frag)
		handled := false
		if s.onFragment != nil {
			handled = s.onFragment(a, frag)
		}
		if !handled {
			s.log.WithField("function", frag.Function()).Debug("fragment not claimed by any listener")
		}
	}
}

// Stop interrupts and joins the receive task for association id, if
// one is running.
func (s *Server) Stop(id association.ID) {
	s.mu.Lock()
	t, ok := s.tasks[id]
	if ok {
		delete(s.tasks, id)
	}
	s.mu.Unlock()
	if !ok {
		return
	}
	close(t.cancel)
	<-t.done
}

// StopAll interrupts and joins every running server task, for
// shutting down the logical device entirely.
func (s *Server) StopAll() {
	s.mu.Lock()
	tasks := make([]*task, 0, len(s.tasks))
	for id, t := range s.tasks {
		tasks = append(tasks, t)
		delete(s.tasks, id)
	}
	s.mu.Unlock()
	for _, t := range tasks {
		close(t.cancel)
	}
	for _, t := range tasks {
		<-t.done
	}
}

// Registry maps logical device addresses and names to their Server,
// the per-process table spec §3 describes as "retained for the
// engine's lifetime".
type Registry struct {
	mu        sync.Mutex
	byAddress map[uint16]*Server
	byName    map[string]*Server
}

// NewRegistry creates an empty logical device table.
func NewRegistry() *Registry {
	return &Registry{byAddress: map[uint16]*Server{}, byName: map[string]*Server{}}
}

// GetOrCreate returns the Server for address, creating one named name
// the first time this address is observed.
func (r *Registry) GetOrCreate(name string, address uint16, onFragment FragmentHandler, onNewAssoc func(a *association.Association)) *Server {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.byAddress[address]; ok {
		return s
	}
	s := New(name, address, onFragment, onNewAssoc)
	r.byAddress[address] = s
	r.byName[name] = s
	return s
}

// ByAddress looks up a previously registered Server.
func (r *Registry) ByAddress(address uint16) (*Server, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byAddress[address]
	return s, ok
}

// ByName looks up a previously registered Server.
func (r *Registry) ByName(name string) (*Server, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byName[name]
	return s, ok
}

// StopAll stops every registered Server's tasks, for full engine
// teardown.
func (r *Registry) StopAll() {
	r.mu.Lock()
	servers := make([]*Server, 0, len(r.byAddress))
	for _, s := range r.byAddress {
		servers = append(servers, s)
	}
	r.mu.Unlock()
	for _, s := range servers {
		s.StopAll()
	}
}
