// Package node wires together one cluster member's durable store, acceptor,
// proposer, learner, and RPC server/client into a single runnable unit. It
// owns startup and graceful shutdown, replacing the teacher's atomic-bool
// dead/isdead() shutdown idiom from paxos/paxos.go with context.Context
// cancellation, the idiomatic modern equivalent.
package node

import (
	"context"
	"fmt"
	"sync"

	"github.com/stepchowfun/paxos/internal/config"
	"github.com/stepchowfun/paxos/internal/logging"
	"github.com/stepchowfun/paxos/internal/paxos"
	"github.com/stepchowfun/paxos/internal/paxosstore"
	"github.com/stepchowfun/paxos/internal/rpcclient"
	"github.com/stepchowfun/paxos/internal/rpcserver"
)

// Config collects everything Node needs to start.
type Config struct {
	SelfID paxos.NodeID
	Nodes  []config.NodeConfig

	// DataDir, if non-empty, selects durable on-disk storage via
	// paxosstore.FileStore. An empty DataDir selects paxosstore.MemStore,
	// the non-durable in-process store used by tests and demo runs.
	DataDir string

	// ListenAddr overrides the address this node binds its RPC server to.
	// If empty, the address from Nodes[SelfID] is used.
	ListenAddr string

	ProposeValue paxos.Value
	HasPropose   bool

	Log *logging.Logger
}

// Node is one running cluster member.
type Node struct {
	cfg      Config
	log      *logging.Logger
	acceptor *paxos.Acceptor
	learner  *paxos.Learner
	proposer *paxos.Proposer
	server   *rpcserver.Server

	mu         sync.Mutex
	lastReport bool
}

// New constructs a Node but does not start serving RPCs or proposing.
func New(cfg Config) (*Node, error) {
	if cfg.Log == nil {
		cfg.Log = logging.New(fmt.Sprintf("[node %d] ", cfg.SelfID))
	}
	if int(cfg.SelfID) >= len(cfg.Nodes) {
		return nil, fmt.Errorf("node: self id %d is out of range for a %d-node cluster", cfg.SelfID, len(cfg.Nodes))
	}

	store, err := newStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("node: initializing durable store: %w", err)
	}

	acceptor := paxos.NewAcceptor(store)
	quorum := len(cfg.Nodes)/2 + 1
	learner := paxos.NewLearner(quorum)

	addrs := make(map[paxos.NodeID]string, len(cfg.Nodes))
	for i, n := range cfg.Nodes {
		addrs[paxos.NodeID(i)] = n.Addr()
	}
	transport := rpcclient.NewClusterTransport(cfg.SelfID, acceptor, addrs, cfg.Log)

	nodeIDs := make([]paxos.NodeID, len(cfg.Nodes))
	for i := range cfg.Nodes {
		nodeIDs[i] = paxos.NodeID(i)
	}

	proposer := paxos.NewProposer(paxos.ProposerConfig{
		SelfID:    cfg.SelfID,
		Nodes:     nodeIDs,
		Transport: transport,
		Learner:   learner,
		Value:     cfg.ProposeValue,
		HasValue:  cfg.HasPropose,
	})

	return &Node{
		cfg:      cfg,
		log:      cfg.Log,
		acceptor: acceptor,
		learner:  learner,
		proposer: proposer,
	}, nil
}

func newStore(cfg Config) (paxosstore.Store, error) {
	if cfg.DataDir == "" {
		return paxosstore.NewMemStore(), nil
	}
	return paxosstore.NewFileStore(cfg.DataDir, cfg.SelfID)
}

// Chosen reports the value this node has itself learned to be chosen, if
// any, without waiting for Run to return.
func (n *Node) Chosen() (paxos.Value, bool) {
	return n.learner.Chosen()
}

// Run starts the RPC server, launches the proposer loop, and blocks until
// ctx is canceled. It returns the value this node ultimately learned to be
// chosen, if any was reached before cancellation.
func (n *Node) Run(ctx context.Context) (paxos.Value, bool, error) {
	listenAddr := n.cfg.ListenAddr
	if listenAddr == "" {
		listenAddr = n.cfg.Nodes[n.cfg.SelfID].Addr()
	}

	server, err := rpcserver.Serve(listenAddr, rpcserver.NewService(n.acceptor, n.log))
	if err != nil {
		return nil, false, fmt.Errorf("node: starting rpc server on %q: %w", listenAddr, err)
	}
	n.server = server
	n.log.Infof("listening on %s", server.Addr())
	defer server.Close()

	done := make(chan struct{})
	go n.watchChosen(ctx, done)

	n.proposer.Run(ctx)
	<-done

	value, chosen := n.learner.Chosen()
	return value, chosen, nil
}

// watchChosen polls the learner and reports the not-chosen-to-chosen
// transition exactly once, per the specification's emission rule. Polling
// rather than a callback keeps the learner free of any notion of who is
// watching it, matching the small, dependency-free shape of
// paxos.Learner's exported surface.
func (n *Node) watchChosen(ctx context.Context, done chan<- struct{}) {
	defer close(done)
	ticker := newPollTicker()
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			n.reportIfNewlyChosen()
		}
	}
}

func (n *Node) reportIfNewlyChosen() {
	value, chosen := n.learner.Chosen()
	if !chosen {
		return
	}

	n.mu.Lock()
	already := n.lastReport
	n.lastReport = true
	n.mu.Unlock()

	if !already {
		n.log.Infof("value chosen: %s", value)
		fmt.Printf("Chosen value: %s\n", value)
	}
}
