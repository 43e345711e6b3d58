// Package topology holds the immutable per-tick view of live services.
//
// Each tick builds a new [Snapshot] from the previous one plus this
// tick's observations; snapshots are never mutated in place. A failed
// observation carries the previous entry forward marked stale, so a
// reconcile or endpoint-query failure for one service never erases
// what the routing document already knows about it.
package topology

import (
	"sort"
	"time"

	"github.com/tsm-sh/tsm/internal/discovery"
)

// Entry is one service's live view inside a snapshot.
type Entry struct {
	// Service is the discovered descriptor the entry was built from.
	// Always current, even on a stale entry; the manifest parse for
	// the tick succeeded or no snapshot would have been built.
	Service discovery.Service

	// Replicas is the live replica count.
	Replicas int

	// Endpoints are the resolvable backend names, sorted.
	Endpoints []string

	// UpdatedAt is when the live fields were last observed. A stale
	// entry keeps the timestamp of its last good observation.
	UpdatedAt time.Time

	// Stale marks an entry carried forward after a failed observation.
	Stale bool
}

// Observation is one service's state as observed during a tick. Failed
// means the live fields could not be determined and the previous entry
// should be retained.
type Observation struct {
	Service   discovery.Service
	Replicas  int
	Endpoints []string
	Failed    bool
}

// Snapshot is an immutable point-in-time view of the live topology.
// Accessors copy endpoint slices; the embedded service descriptors are
// shared and must be treated as read-only.
type Snapshot struct {
	takenAt time.Time
	names   []string
	entries map[string]Entry
}

// Next builds the snapshot for a tick. The manifest is authoritative
// for the service set: entries for services absent from observations
// are dropped. prev may be nil on the first tick.
func Next(prev *Snapshot, now time.Time, observations []Observation) *Snapshot {
	entries := make(map[string]Entry, len(observations))
	names := make([]string, 0, len(observations))

	for _, obs := range observations {
		name := obs.Service.Name
		if _, ok := entries[name]; ok {
			continue
		}
		names = append(names, name)

		if obs.Failed {
			if prev != nil {
				if prior, ok := prev.entries[name]; ok {
					prior.Service = obs.Service
					prior.Stale = true
					entries[name] = prior
					continue
				}
			}
			// No prior state to retain: record the declared count
			// with no endpoints, which projects as an empty pool.
			entries[name] = Entry{
				Service:   obs.Service,
				Replicas:  obs.Replicas,
				UpdatedAt: now,
				Stale:     true,
			}
			continue
		}

		endpoints := append([]string(nil), obs.Endpoints...)
		sort.Strings(endpoints)
		entries[name] = Entry{
			Service:   obs.Service,
			Replicas:  obs.Replicas,
			Endpoints: endpoints,
			UpdatedAt: now,
		}
	}

	sort.Strings(names)
	return &Snapshot{takenAt: now, names: names, entries: entries}
}

// TakenAt is when the snapshot was built.
func (s *Snapshot) TakenAt() time.Time {
	if s == nil {
		return time.Time{}
	}
	return s.takenAt
}

// Len is the number of services in the snapshot.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.names)
}

// Services returns the service names, sorted.
func (s *Snapshot) Services() []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s.names...)
}

// Entry returns the named service's entry.
func (s *Snapshot) Entry(name string) (Entry, bool) {
	if s == nil {
		return Entry{}, false
	}
	entry, ok := s.entries[name]
	if !ok {
		return Entry{}, false
	}
	entry.Endpoints = append([]string(nil), entry.Endpoints...)
	return entry, true
}

// Entries returns all entries sorted by service name.
func (s *Snapshot) Entries() []Entry {
	if s == nil {
		return nil
	}
	out := make([]Entry, 0, len(s.names))
	for _, name := range s.names {
		entry := s.entries[name]
		entry.Endpoints = append([]string(nil), entry.Endpoints...)
		out = append(out, entry)
	}
	return out
}

// StaleCount is the number of entries carried forward from a previous
// snapshot after a failed observation.
func (s *Snapshot) StaleCount() int {
	if s == nil {
		return 0
	}
	n := 0
	for _, entry := range s.entries {
		if entry.Stale {
			n++
		}
	}
	return n
}
