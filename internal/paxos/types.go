// Package paxos implements the single-decree Paxos state machine: the
// acceptor, the proposer, and the learner. Everything in this package is
// transport- and storage-agnostic; it is driven by the node orchestrator in
// package node through the Transport and Store interfaces.
package paxos

import "fmt"

// NodeID identifies a cluster member. IDs are small, non-negative, unique
// within the cluster, and stable across restarts.
type NodeID uint32

// Round counts the number of prepare attempts a single proposer has
// initiated. It starts at zero and is strictly increasing within one
// proposer's lifetime; see ProposalNumber for why this is enough to make
// every proposal number globally unique and totally ordered.
type Round uint64

// ProposalNumber is the pair (Round, NodeID), compared lexicographically by
// Round first and then NodeID. NodeIDs are unique across the cluster and a
// single node's Round is strictly increasing, so ProposalNumbers are
// globally unique and totally ordered.
//
// The zero value is reserved to mean "no proposal has ever been made" (see
// IsNone); real proposal numbers start at Round 1.
type ProposalNumber struct {
	Round  Round
	NodeID NodeID
}

// IsNone reports whether p is the reserved "none" sentinel.
func (p ProposalNumber) IsNone() bool {
	return p.Round == 0
}

// Less reports whether p sorts strictly before other.
func (p ProposalNumber) Less(other ProposalNumber) bool {
	if p.Round != other.Round {
		return p.Round < other.Round
	}
	return p.NodeID < other.NodeID
}

// Greater reports whether p sorts strictly after other.
func (p ProposalNumber) Greater(other ProposalNumber) bool {
	return other.Less(p)
}

// GreaterOrEqual reports whether p sorts at or after other.
func (p ProposalNumber) GreaterOrEqual(other ProposalNumber) bool {
	return !p.Less(other)
}

func (p ProposalNumber) String() string {
	return fmt.Sprintf("%d:%d", p.Round, p.NodeID)
}

// Value is an opaque, finite byte string. Equality is bytewise; the
// protocol never inspects the contents.
type Value []byte

func (v Value) String() string {
	return string(v)
}

// Equal reports whether v and other carry the same bytes.
func (v Value) Equal(other Value) bool {
	if len(v) != len(other) {
		return false
	}
	for i := range v {
		if v[i] != other[i] {
			return false
		}
	}
	return true
}
