package paxos

import (
	"fmt"
	"sync"
)

// Store is the durability contract the acceptor needs. It is declared here
// rather than imported from package paxosstore so this package stays free
// of any storage-implementation dependency; paxosstore.Store satisfies it.
type Store interface {
	Load() (State, error)
	Save(State) error
}

// PrepareResult is the acceptor's response to a prepare(n) request.
type PrepareResult struct {
	MinProposal      ProposalNumber
	AcceptedProposal ProposalNumber
	AcceptedValue    Value
}

// AcceptResult is the acceptor's response to an accept(n, v) request.
type AcceptResult struct {
	MinProposal ProposalNumber
}

// Accepted reports whether the request's proposal number was actually
// accepted: true iff the acceptor's min proposal came back equal to n. A
// caller must not infer acceptance any other way.
func (r AcceptResult) Accepted(n ProposalNumber) bool {
	return r.MinProposal == n
}

// Acceptor implements the Paxos acceptor role described in the
// specification: it answers Prepare and Accept requests against one
// node's durable triple, serializing both behind a single mutex so that
// the durable write and the response it backs are never observed out of
// order by another caller on this node.
type Acceptor struct {
	mu    sync.Mutex
	store Store
}

// NewAcceptor returns an Acceptor backed by store.
func NewAcceptor(store Store) *Acceptor {
	return &Acceptor{store: store}
}

// Prepare implements the prepare(n) rule from the specification: if n
// exceeds the acceptor's min proposal, the min proposal is raised to n and
// durably saved before responding; either way the response echoes the
// (possibly updated) min proposal plus whatever was last accepted, so the
// caller can both detect rejection (MinProposal > n) and discover an
// existing value to subsume.
func (a *Acceptor) Prepare(n ProposalNumber) (PrepareResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	state, err := a.store.Load()
	if err != nil {
		return PrepareResult{}, fmt.Errorf("paxos: acceptor prepare: loading state: %w", err)
	}

	if n.Greater(state.MinProposal) {
		state.MinProposal = n
		if err := a.store.Save(state); err != nil {
			return PrepareResult{}, fmt.Errorf("paxos: acceptor prepare: saving state: %w", err)
		}
	}

	return PrepareResult{
		MinProposal:      state.MinProposal,
		AcceptedProposal: state.AcceptedProposal,
		AcceptedValue:    state.AcceptedValue,
	}, nil
}

// Accept implements the accept(n, v) rule from the specification: if n is
// at or above the acceptor's min proposal, the triple is updated to
// (n, n, v) and durably saved before responding. The response's
// MinProposal equals n iff acceptance succeeded; the caller must treat
// any other value as "not accepted by this acceptor."
func (a *Acceptor) Accept(n ProposalNumber, v Value) (AcceptResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	state, err := a.store.Load()
	if err != nil {
		return AcceptResult{}, fmt.Errorf("paxos: acceptor accept: loading state: %w", err)
	}

	if n.GreaterOrEqual(state.MinProposal) {
		state.MinProposal = n
		state.AcceptedProposal = n
		state.AcceptedValue = v
		if err := a.store.Save(state); err != nil {
			return AcceptResult{}, fmt.Errorf("paxos: acceptor accept: saving state: %w", err)
		}
	}

	return AcceptResult{MinProposal: state.MinProposal}, nil
}
