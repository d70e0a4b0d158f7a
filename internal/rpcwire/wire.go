// Package rpcwire defines the request/response structs carried over the
// wire between Paxos nodes, and the net/rpc service name/method pair they
// are dispatched through. It is a small, transport-agnostic vocabulary
// shared by internal/rpcserver (which implements it) and internal/rpcclient
// (which calls it), grounded on the teacher's PrepareArgs/PrepareReply/
// AcceptArgs/AcceptReply structs in paxos/common.go, narrowed from the
// teacher's multi-instance (Seq-keyed) fields down to this specification's
// single global decree.
package rpcwire

import "github.com/stepchowfun/paxos/internal/paxos"

// ServiceName is the net/rpc service name the acceptor is registered
// under. Method names below are dotted onto it to form the strings
// net/rpc expects, e.g. "Paxos.Prepare".
const ServiceName = "Paxos"

// Full net/rpc method names, each ServiceName dotted with a method.
const (
	MethodPrepare = ServiceName + ".Prepare"
	MethodAccept  = ServiceName + ".Accept"
)

// PrepareArgs is the prepare(n) request.
type PrepareArgs struct {
	ProposalNumber paxos.ProposalNumber
}

// PrepareReply is the prepare(n) response.
type PrepareReply struct {
	MinProposal      paxos.ProposalNumber
	AcceptedProposal paxos.ProposalNumber
	AcceptedValue    paxos.Value
}

// AcceptArgs is the accept(n, v) request.
type AcceptArgs struct {
	ProposalNumber paxos.ProposalNumber
	Value          paxos.Value
}

// AcceptReply is the accept(n, v) response.
type AcceptReply struct {
	MinProposal paxos.ProposalNumber
}
