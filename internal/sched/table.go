package sched

import "sync"

// ProcessState mirrors the scheduler's task states the dispatcher must
// filter on (§4.F): a socket belonging to a process that is EMPTY, NEW,
// or KILLED never receives inbound traffic.
type ProcessState int

const (
	Empty ProcessState = iota
	New
	Running
	Killed
)

// Table is the in-memory stand-in for the scheduler's socket registry.
// The real kernel guards this with the scheduler's own lock (§5,
// "guarded by the scheduler (external contract)"); here the Table
// guards itself with a single mutex, which is the whole of what the
// core requires from its collaborator.
type Table struct {
	mu        sync.RWMutex
	processes map[int]*processEntry
	sockets   map[Fd]*socketEntry
	nextFd    Fd
}

type processEntry struct {
	state ProcessState
	fds   map[Fd]struct{}
}

type socketEntry struct {
	pid    int
	socket *Socket
}

// NewTable constructs an empty registry.
func NewTable() *Table {
	return &Table{
		processes: make(map[int]*processEntry),
		sockets:   make(map[Fd]*socketEntry),
	}
}

// EnsureProcess registers pid if unseen and sets its state, matching the
// scheduler's queue_system_process/process-state transitions the core
// depends on but does not own.
func (t *Table) EnsureProcess(pid int, state ProcessState) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.processes[pid]
	if !ok {
		p = &processEntry{fds: make(map[Fd]struct{})}
		t.processes[pid] = p
	}
	p.state = state
}

// KillProcess marks pid KILLED and releases every socket it owned,
// matching "destroyed by close or on process termination (the
// scheduler cleans the table)" (§4.E).
func (t *Table) KillProcess(pid int) {
	t.mu.Lock()
	p, ok := t.processes[pid]
	if !ok {
		t.mu.Unlock()
		return
	}
	p.state = Killed
	fds := make([]Fd, 0, len(p.fds))
	for fd := range p.fds {
		fds = append(fds, fd)
	}
	t.mu.Unlock()

	for _, fd := range fds {
		t.ReleaseSocket(fd)
	}
}

// RegisterNewSocket allocates a socket under pid and returns its fd.
func (t *Table) RegisterNewSocket(pid int, domain Domain, typ Type, proto Protocol) Fd {
	t.mu.Lock()
	defer t.mu.Unlock()

	p, ok := t.processes[pid]
	if !ok {
		p = &processEntry{state: Running, fds: make(map[Fd]struct{})}
		t.processes[pid] = p
	}

	fd := t.nextFd
	t.nextFd++
	sock := newSocket(fd, domain, typ, proto)
	t.sockets[fd] = &socketEntry{pid: pid, socket: sock}
	p.fds[fd] = struct{}{}
	return fd
}

// HasSocket reports whether fd is live.
func (t *Table) HasSocket(fd Fd) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.sockets[fd]
	return ok
}

// GetSocket returns the socket registered under fd.
func (t *Table) GetSocket(fd Fd) (*Socket, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.sockets[fd]
	if !ok {
		return nil, false
	}
	return e.socket, true
}

// ReleaseSocket is idempotent on an unknown fd (§4.G close()).
func (t *Table) ReleaseSocket(fd Fd) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.sockets[fd]
	if !ok {
		return
	}
	delete(t.sockets, fd)
	if p, ok := t.processes[e.pid]; ok {
		delete(p.fds, fd)
	}
}

// LiveSockets returns every socket belonging to a process whose state
// is not in {EMPTY, NEW, KILLED} — exactly the filter propagate_packet
// applies (§4.F).
func (t *Table) LiveSockets() []*Socket {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var out []*Socket
	for _, p := range t.processes {
		if p.state == Empty || p.state == New || p.state == Killed {
			continue
		}
		for fd := range p.fds {
			if e, ok := t.sockets[fd]; ok {
				out = append(out, e.socket)
			}
		}
	}
	return out
}
