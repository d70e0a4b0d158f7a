package paxos_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stepchowfun/paxos/internal/paxos"
	"github.com/stepchowfun/paxos/internal/paxos/paxosfake"
)

// clusterNode bundles everything one simulated node needs, for readability in
// the scenario tests below.
type clusterNode struct {
	id       paxos.NodeID
	acceptor *paxos.Acceptor
	learner  *paxos.Learner
	proposer *paxos.Proposer
	store    *memStore
}

func newCluster(t *testing.T, size int, values map[paxos.NodeID]paxos.Value) (*paxosfake.Transport, []*clusterNode) {
	t.Helper()
	transport := paxosfake.New()
	nodes := make([]paxos.NodeID, size)
	for i := 0; i < size; i++ {
		nodes[i] = paxos.NodeID(i)
	}

	cluster := make([]*clusterNode, size)
	for i := 0; i < size; i++ {
		id := paxos.NodeID(i)
		store := &memStore{}
		acceptor := paxos.NewAcceptor(store)
		learner := paxos.NewLearner(size/2 + 1)
		transport.Register(id, acceptor)

		value, hasValue := values[id]
		proposer := paxos.NewProposer(paxos.ProposerConfig{
			SelfID:          id,
			Nodes:           nodes,
			Transport:       transport,
			Learner:         learner,
			Value:           value,
			HasValue:        hasValue,
			PhaseTimeout:    50 * time.Millisecond,
			RestartDelayMin: time.Millisecond,
			RestartDelayMax: 5 * time.Millisecond,
		})

		cluster[i] = &clusterNode{id: id, acceptor: acceptor, learner: learner, proposer: proposer, store: store}
	}
	return transport, cluster
}

func runUntilChosen(t *testing.T, nodes []*clusterNode, timeout time.Duration) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for _, node := range nodes {
		go node.proposer.Run(ctx)
	}

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		allChosen := true
		for _, node := range nodes {
			if _, ok := node.learner.Chosen(); !ok {
				allChosen = false
				break
			}
		}
		if allChosen {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("timed out waiting for all nodes to learn a chosen value")
}

func TestScenarioAllProposeSimultaneouslyDistinctValues(t *testing.T) {
	_, cluster := newCluster(t, 3, map[paxos.NodeID]paxos.Value{
		0: paxos.Value("foo"),
		1: paxos.Value("bar"),
		2: paxos.Value("baz"),
	})
	runUntilChosen(t, cluster, 5*time.Second)

	first, _ := cluster[0].learner.Chosen()
	candidates := map[string]bool{"foo": true, "bar": true, "baz": true}
	assert.True(t, candidates[first.String()])
	for _, node := range cluster {
		v, ok := node.learner.Chosen()
		require.True(t, ok)
		assert.Equal(t, first, v)
	}
}

func TestScenarioLateJoinerLearnsExistingValue(t *testing.T) {
	transport, cluster := newCluster(t, 3, map[paxos.NodeID]paxos.Value{
		0: paxos.Value("foo"),
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Only nodes 0 and 1 start initially.
	go cluster[0].proposer.Run(ctx)
	go cluster[1].proposer.Run(ctx)
	runUntilChosen(t, []*clusterNode{cluster[0], cluster[1]}, 5*time.Second)

	chosen, _ := cluster[0].learner.Chosen()
	require.Equal(t, paxos.Value("foo"), chosen)

	// Now node 2 joins with a different proposal. It must still learn
	// "foo", not its own "bar": the subsumption rule forces it to adopt
	// whatever an already-accepted quorum discloses.
	node2 := cluster[2]
	node2.proposer = paxos.NewProposer(paxos.ProposerConfig{
		SelfID:          node2.id,
		Nodes:           []paxos.NodeID{0, 1, 2},
		Transport:       transport,
		Learner:         node2.learner,
		Value:           paxos.Value("bar"),
		HasValue:        true,
		PhaseTimeout:    50 * time.Millisecond,
		RestartDelayMin: time.Millisecond,
		RestartDelayMax: 5 * time.Millisecond,
	})
	go node2.proposer.Run(ctx)
	runUntilChosen(t, []*clusterNode{node2}, 5*time.Second)

	v, ok := node2.learner.Chosen()
	require.True(t, ok)
	assert.Equal(t, paxos.Value("foo"), v, "late joiner must subsume the existing value, not its own")
}

func TestScenarioMinorityCrashStillReachesConsensus(t *testing.T) {
	transport, cluster := newCluster(t, 3, map[paxos.NodeID]paxos.Value{
		0: paxos.Value("foo"),
		1: paxos.Value("bar"),
		2: paxos.Value("baz"),
	})
	transport.SetPartitioned(2, true)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go cluster[0].proposer.Run(ctx)
	go cluster[1].proposer.Run(ctx)

	runUntilChosen(t, []*clusterNode{cluster[0], cluster[1]}, 5*time.Second)

	v0, _ := cluster[0].learner.Chosen()
	v1, _ := cluster[1].learner.Chosen()
	assert.Equal(t, v0, v1)
	assert.Contains(t, []string{"foo", "bar"}, v0.String())
}

func TestScenarioNoOpProposerWithoutQuorumDoesNotChoose(t *testing.T) {
	transport, cluster := newCluster(t, 3, map[paxos.NodeID]paxos.Value{})
	transport.SetPartitioned(0, true)
	transport.SetPartitioned(2, true)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Only node 1 runs, alone; it can never reach a quorum of 2.
	go cluster[1].proposer.Run(ctx)
	time.Sleep(200 * time.Millisecond)

	_, ok := cluster[1].learner.Chosen()
	assert.False(t, ok)
}

func TestScenarioMessageLossStillConverges(t *testing.T) {
	transport, cluster := newCluster(t, 3, map[paxos.NodeID]paxos.Value{
		0: paxos.Value("foo"),
		1: paxos.Value("bar"),
		2: paxos.Value("baz"),
	})
	transport.SetDropRate(0.5)

	runUntilChosen(t, cluster, 10*time.Second)

	first, _ := cluster[0].learner.Chosen()
	for _, node := range cluster {
		v, ok := node.learner.Chosen()
		require.True(t, ok)
		assert.Equal(t, first, v)
	}
}

func TestProposerActsAsLearnerOnlyWithNoValueAndNoExisting(t *testing.T) {
	_, cluster := newCluster(t, 1, map[paxos.NodeID]paxos.Value{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go cluster[0].proposer.Run(ctx)
	time.Sleep(100 * time.Millisecond)

	_, ok := cluster[0].learner.Chosen()
	assert.False(t, ok)

	state, err := cluster[0].store.Load()
	require.NoError(t, err)
	assert.True(t, state.AcceptedProposal.IsNone(), "phase 2 must not run when there is nothing to propose")
}
