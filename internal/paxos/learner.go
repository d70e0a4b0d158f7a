package paxos

import "sync"

// acceptKey identifies one (proposal number, value) pair in the learner's
// bookkeeping map. Value is a byte slice and so isn't itself comparable;
// the learner keys on its string conversion instead.
type acceptKey struct {
	proposal ProposalNumber
	value    string
}

// Learner implements the Paxos learner role: it watches the accepts
// reported by every acceptor it hears from and latches the chosen value
// the first time a single (proposal number, value) pair is known to have
// been accepted by a quorum.
//
// The safety property that makes this correct -- that any two
// quorum-accepted (p, v) pairs must agree on v -- is guaranteed by the
// acceptor/proposer protocol, not enforced here; the learner only ever
// needs to recognize the first quorum it sees.
type Learner struct {
	mu        sync.Mutex
	quorum    int
	observers map[acceptKey]map[NodeID]struct{}
	chosen    bool
	value     Value
}

// NewLearner returns a Learner that latches once quorum distinct
// acceptors are observed to have accepted the same (proposal number,
// value) pair.
func NewLearner(quorum int) *Learner {
	return &Learner{
		quorum:    quorum,
		observers: make(map[acceptKey]map[NodeID]struct{}),
	}
}

// Observe idempotently records that acceptorID has accepted (p, v). It is
// safe to call repeatedly with the same arguments, and safe to call with
// an older proposal number after a newer one has already been observed:
// observations for every (proposal number, value) pair are kept until a
// value is chosen, and then all of them are discarded and later calls are
// ignored.
func (l *Learner) Observe(acceptorID NodeID, p ProposalNumber, v Value) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.chosen {
		return
	}

	key := acceptKey{proposal: p, value: string(v)}
	set, ok := l.observers[key]
	if !ok {
		set = make(map[NodeID]struct{})
		l.observers[key] = set
	}
	set[acceptorID] = struct{}{}

	if len(set) >= l.quorum {
		l.chosen = true
		l.value = v
		// Quorum analysis on every other (proposal, value) pair is now
		// moot: Paxos guarantees no other pair can also reach quorum.
		l.observers = nil
	}
}

// Chosen returns the chosen value and true once any (proposal number,
// value) pair has been observed accepted by a quorum. Once it returns
// true the same value is returned on every subsequent call.
func (l *Learner) Chosen() (Value, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.value, l.chosen
}
