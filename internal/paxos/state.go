package paxos

// State is the durable acceptor triple described in the specification:
// the highest proposal number promised not to accept below, and the
// proposal number/value last accepted, if any.
//
// Invariant: AcceptedValue is meaningful iff AcceptedProposal.IsNone() is
// false, and when it is meaningful AcceptedProposal is never greater than
// MinProposal.
type State struct {
	MinProposal      ProposalNumber
	AcceptedProposal ProposalNumber
	AcceptedValue    Value
}

// InitialState is the state a freshly-created acceptor starts in: nothing
// promised, nothing accepted.
func InitialState() State {
	return State{}
}

// HasAccepted reports whether the acceptor has ever accepted a value.
func (s State) HasAccepted() bool {
	return !s.AcceptedProposal.IsNone()
}
