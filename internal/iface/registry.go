package iface

import "github.com/cezamee/netcore/internal/config"

// Registry is the append-only, sequential collection of interfaces.
// Growth only happens during Init; after that it is safe to read
// concurrently without a lock, same as the teacher's global interfaces
// slice once boot completes.
type Registry struct {
	ifaces []*Interface
}

// NewRegistry starts an empty registry. Interfaces are appended as
// drivers attach during init; the loopback pseudo-device must be the
// last one appended (Select's fallthrough relies on scan order only for
// documentation, not correctness, but the lifecycle contract still
// requires it — see Append).
func NewRegistry() *Registry {
	return &Registry{}
}

// Append adds ifc to the registry, assigning it the next sequential id.
// Callers are responsible for appending the loopback device last.
func (r *Registry) Append(ifc *Interface) {
	ifc.ID = len(r.ifaces)
	r.ifaces = append(r.ifaces, ifc)
}

// NumberOfInterfaces returns the registry's length.
func (r *Registry) NumberOfInterfaces() int { return len(r.ifaces) }

// Interface returns the i-th descriptor.
func (r *Registry) Interface(i int) *Interface { return r.ifaces[i] }

// All returns the live interface list for enumeration (sysfs, stats).
func (r *Registry) All() []*Interface {
	out := make([]*Interface, len(r.ifaces))
	copy(out, r.ifaces)
	return out
}

// ByName finds an interface by its human name, or nil.
func (r *Registry) ByName(name string) *Interface {
	for _, ifc := range r.ifaces {
		if ifc.Name == name {
			return ifc
		}
	}
	return nil
}

// Select implements the interface-selection rule (§4.B): for
// 127.0.0.1, the first enabled loopback interface; otherwise the first
// enabled non-loopback interface. It panics if no enabled interface
// exists — an internal invariant, not a user-facing error; callers
// building an outbound packet are expected to check
// NumberOfInterfaces()/have at least one enabled interface first.
func (r *Registry) Select(destIP string) *Interface {
	wantLoopback := destIP == config.LoopbackIP
	for _, ifc := range r.ifaces {
		if !ifc.Enabled {
			continue
		}
		if ifc.Loopback == wantLoopback {
			return ifc
		}
	}
	panic("iface: select_interface found no enabled interface")
}

// StartAll spawns RX/TX workers for every enabled interface. Called
// once by Finalize.
func (r *Registry) StartAll() {
	for _, ifc := range r.ifaces {
		if ifc.Enabled {
			ifc.StartWorkers()
		}
	}
}
