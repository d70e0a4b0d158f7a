package paxosstore

import (
	"sync"

	"github.com/stepchowfun/paxos/internal/paxos"
)

// MemStore is a Store with no durability at all: state lives only in
// process memory. It backs unit tests and the in-process demo mode, where
// surviving a real crash is not the point. Grounded on the teacher's
// in-memory px.log map in paxos/paxos.go, generalized from a map of
// sequence numbers to a single guarded state value.
type MemStore struct {
	mu    sync.Mutex
	state paxos.State
}

// NewMemStore returns a MemStore starting from the initial all-"none"
// state.
func NewMemStore() *MemStore {
	return &MemStore{state: paxos.InitialState()}
}

// Load implements Store.
func (m *MemStore) Load() (paxos.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state, nil
}

// Save implements Store.
func (m *MemStore) Save(state paxos.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = state
	return nil
}
