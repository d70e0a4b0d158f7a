// Package rpcclient implements the outbound side of the wire protocol:
// a paxos.Transport that dials peers over net/rpc, retrying a failed call
// with truncated binary exponential backoff until the caller's context
// deadline expires. The backoff policy is carried over from
// original_source/src/util.rs's repeat() helper, which the specification
// this repository distills from uses for exactly this purpose.
package rpcclient

import (
	"context"
	"net/rpc"
	"sync"
	"time"

	"github.com/stepchowfun/paxos/internal/logging"
	"github.com/stepchowfun/paxos/internal/paxos"
	"github.com/stepchowfun/paxos/internal/rpcwire"
)

const (
	backoffMin = 50 * time.Millisecond
	backoffMax = time.Second
)

// peerClient holds a lazily-(re)dialed net/rpc connection to one peer.
type peerClient struct {
	addr string
	log  *logging.Logger

	mu     sync.Mutex
	client *rpc.Client
}

func newPeerClient(addr string, log *logging.Logger) *peerClient {
	return &peerClient{addr: addr, log: log}
}

func (p *peerClient) connection() (*rpc.Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.client != nil {
		return p.client, nil
	}
	client, err := rpc.Dial("tcp", p.addr)
	if err != nil {
		return nil, err
	}
	p.client = client
	return client, nil
}

func (p *peerClient) dropConnection(bad *rpc.Client) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.client == bad {
		p.client = nil
	}
}

// callOnce issues a single RPC, racing it against ctx's deadline.
func (p *peerClient) callOnce(ctx context.Context, method string, args, reply interface{}) error {
	client, err := p.connection()
	if err != nil {
		return err
	}

	done := make(chan error, 1)
	call := client.Go(method, args, reply, nil)
	go func() {
		<-call.Done
		done <- call.Error
	}()

	select {
	case err := <-done:
		if err != nil {
			p.dropConnection(client)
		}
		return err
	case <-ctx.Done():
		p.dropConnection(client)
		return ctx.Err()
	}
}

// callWithRetry retries callOnce with exponential backoff until it
// succeeds or ctx is done, reporting false only in the latter case. Per
// the specification, a transient RPC failure is never surfaced as an
// error to the proposer: it is simply a missing quorum contribution.
func (p *peerClient) callWithRetry(ctx context.Context, method string, args, reply interface{}) bool {
	delay := backoffMin
	for {
		if err := ctx.Err(); err != nil {
			return false
		}
		if err := p.callOnce(ctx, method, args, reply); err == nil {
			return true
		} else {
			p.log.Debugf("rpc %s to %s failed: %v", method, p.addr, err)
		}

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return false
		}
		delay = minDuration(delay*2, backoffMax)
	}
}

func minDuration(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}

// ClusterTransport implements paxos.Transport against a real cluster:
// calls to the local node are dispatched directly to the in-process
// acceptor (mirroring the teacher's own "if ind == px.me" short-circuit in
// paxos/paxos.go's Start loop), and calls to every other node go out over
// net/rpc.
type ClusterTransport struct {
	selfID   paxos.NodeID
	acceptor *paxos.Acceptor
	log      *logging.Logger

	mu    sync.Mutex
	peers map[paxos.NodeID]*peerClient
}

// NewClusterTransport returns a ClusterTransport that serves selfID
// locally via acceptor and dials every other address in addrs (indexed by
// NodeID) over the network as needed.
func NewClusterTransport(selfID paxos.NodeID, acceptor *paxos.Acceptor, addrs map[paxos.NodeID]string, log *logging.Logger) *ClusterTransport {
	t := &ClusterTransport{
		selfID:   selfID,
		acceptor: acceptor,
		log:      log,
		peers:    make(map[paxos.NodeID]*peerClient),
	}
	for id, addr := range addrs {
		if id == selfID {
			continue
		}
		t.peers[id] = newPeerClient(addr, log)
	}
	return t
}

// Prepare implements paxos.Transport.
func (t *ClusterTransport) Prepare(ctx context.Context, node paxos.NodeID, n paxos.ProposalNumber) (paxos.PrepareResult, bool) {
	if node == t.selfID {
		res, err := t.acceptor.Prepare(n)
		if err != nil {
			t.log.Errorf("local prepare failed: %v", err)
			return paxos.PrepareResult{}, false
		}
		return res, true
	}

	peer := t.peerFor(node)
	if peer == nil {
		return paxos.PrepareResult{}, false
	}
	var reply rpcwire.PrepareReply
	if !peer.callWithRetry(ctx, rpcwire.MethodPrepare, &rpcwire.PrepareArgs{ProposalNumber: n}, &reply) {
		return paxos.PrepareResult{}, false
	}
	return paxos.PrepareResult{
		MinProposal:      reply.MinProposal,
		AcceptedProposal: reply.AcceptedProposal,
		AcceptedValue:    reply.AcceptedValue,
	}, true
}

// Accept implements paxos.Transport.
func (t *ClusterTransport) Accept(ctx context.Context, node paxos.NodeID, n paxos.ProposalNumber, v paxos.Value) (paxos.AcceptResult, bool) {
	if node == t.selfID {
		res, err := t.acceptor.Accept(n, v)
		if err != nil {
			t.log.Errorf("local accept failed: %v", err)
			return paxos.AcceptResult{}, false
		}
		return res, true
	}

	peer := t.peerFor(node)
	if peer == nil {
		return paxos.AcceptResult{}, false
	}
	var reply rpcwire.AcceptReply
	if !peer.callWithRetry(ctx, rpcwire.MethodAccept, &rpcwire.AcceptArgs{ProposalNumber: n, Value: v}, &reply) {
		return paxos.AcceptResult{}, false
	}
	return paxos.AcceptResult{MinProposal: reply.MinProposal}, true
}

func (t *ClusterTransport) peerFor(node paxos.NodeID) *peerClient {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.peers[node]
}
