// Package paxosfake provides an in-memory paxos.Transport for driving a
// cluster of in-process acceptors from tests without any real networking.
// It mirrors the fake-collaborator idiom used throughout
// QuangTung97-libpaxos's paxos/fake package, generalized from a fake log
// store to a fake whole-cluster transport.
package paxosfake

import (
	"context"
	"math/rand"
	"sync"

	"github.com/stepchowfun/paxos/internal/paxos"
)

// Transport wires a fixed set of in-process acceptors together. It can
// simulate a node being completely unreachable (SetPartitioned) and can
// simulate random packet loss (SetDropRate), matching the specification's
// requirement that the protocol tolerate arbitrary message loss.
type Transport struct {
	mu          sync.RWMutex
	acceptors   map[paxos.NodeID]*paxos.Acceptor
	partitioned map[paxos.NodeID]bool
	dropRate    float64
	rng         *rand.Rand
}

// New returns a Transport with no acceptors registered yet.
func New() *Transport {
	return &Transport{
		acceptors:   make(map[paxos.NodeID]*paxos.Acceptor),
		partitioned: make(map[paxos.NodeID]bool),
		rng:         rand.New(rand.NewSource(1)),
	}
}

// Register makes node reachable at the given acceptor.
func (t *Transport) Register(node paxos.NodeID, acceptor *paxos.Acceptor) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.acceptors[node] = acceptor
}

// SetPartitioned marks node as reachable or unreachable from every other
// node, simulating a crashed or network-partitioned peer.
func (t *Transport) SetPartitioned(node paxos.NodeID, partitioned bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.partitioned[node] = partitioned
}

// SetDropRate configures the fraction (0..1) of otherwise-successful calls
// that should be silently dropped, simulating lossy message delivery.
func (t *Transport) SetDropRate(rate float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.dropRate = rate
}

func (t *Transport) reachable(node paxos.NodeID) (*paxos.Acceptor, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.partitioned[node] {
		return nil, false
	}
	if t.dropRate > 0 && t.rng.Float64() < t.dropRate {
		return nil, false
	}
	a, ok := t.acceptors[node]
	return a, ok
}

// Prepare implements paxos.Transport.
func (t *Transport) Prepare(_ context.Context, node paxos.NodeID, n paxos.ProposalNumber) (paxos.PrepareResult, bool) {
	a, ok := t.reachable(node)
	if !ok {
		return paxos.PrepareResult{}, false
	}
	res, err := a.Prepare(n)
	if err != nil {
		return paxos.PrepareResult{}, false
	}
	return res, true
}

// Accept implements paxos.Transport.
func (t *Transport) Accept(_ context.Context, node paxos.NodeID, n paxos.ProposalNumber, v paxos.Value) (paxos.AcceptResult, bool) {
	a, ok := t.reachable(node)
	if !ok {
		return paxos.AcceptResult{}, false
	}
	res, err := a.Accept(n, v)
	if err != nil {
		return paxos.AcceptResult{}, false
	}
	return res, true
}
