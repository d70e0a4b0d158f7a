package paxos

import "context"

// Transport is everything the proposer needs to talk to the rest of the
// cluster. A call that times out, is refused, or otherwise fails must
// return ok=false rather than an error: per the specification, a
// transient RPC failure is not an error condition, it is simply a missing
// contribution to quorum accounting, and the proposer's outer loop is
// what provides the retry.
type Transport interface {
	Prepare(ctx context.Context, node NodeID, n ProposalNumber) (PrepareResult, bool)
	Accept(ctx context.Context, node NodeID, n ProposalNumber, v Value) (AcceptResult, bool)
}

// nodeResult pairs an RPC outcome with the node it came from, so a
// proposer can attribute accepted values to the right acceptor when it
// feeds the learner.
type nodeResult[T any] struct {
	node   NodeID
	result T
}

// broadcast calls fn against every node concurrently and collects results
// on a channel until either a quorum of successful (ok=true) responses has
// arrived or every node has responded (successfully or not) or the
// context is done. It never blocks past ctx's deadline.
func broadcast[T any](
	ctx context.Context,
	nodes []NodeID,
	quorum int,
	fn func(context.Context, NodeID) (T, bool),
) []nodeResult[T] {
	type outcome struct {
		node NodeID
		val  T
		ok   bool
	}

	ch := make(chan outcome, len(nodes))
	for _, node := range nodes {
		node := node
		go func() {
			val, ok := fn(ctx, node)
			ch <- outcome{node: node, val: val, ok: ok}
		}()
	}

	var successes []nodeResult[T]
	received := 0
	for received < len(nodes) {
		select {
		case o := <-ch:
			received++
			if o.ok {
				successes = append(successes, nodeResult[T]{node: o.node, result: o.val})
				if len(successes) >= quorum {
					return successes
				}
			}
		case <-ctx.Done():
			return successes
		}
	}
	return successes
}
