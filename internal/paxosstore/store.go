// Package paxosstore provides crash-atomic persistence for the acceptor's
// durable triple. The on-disk implementation is grounded on the classic
// Go idiom of writing a temporary sibling file and renaming it into place;
// the in-memory implementation backs tests and the non-durable demo mode.
package paxosstore

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/stepchowfun/paxos/internal/paxos"
)

// Store provides persistent, crash-atomic storage for one acceptor's
// state triple.
type Store interface {
	// Load returns the most recently durably-written state, or the
	// initial all-"none" state if nothing has ever been written.
	Load() (paxos.State, error)

	// Save replaces the persisted record and returns only after the
	// write is durable: a subsequent Load, even immediately after a
	// crash, observes this value. Partial writes are never observable.
	Save(paxos.State) error
}

// schemaVersion guards the on-disk envelope so the format can evolve
// without silently misreading an older file.
const schemaVersion = 1

// onDiskEnvelope is what actually gets gob-encoded to disk. Keeping it
// distinct from paxos.State means a future schema change only has to teach
// this package how to read an old envelope, not touch the core package.
type onDiskEnvelope struct {
	SchemaVersion int
	MinProposal   paxos.ProposalNumber
	AcceptedProp  paxos.ProposalNumber
	AcceptedValue paxos.Value
}

// FileStore is a Store backed by a single file, rooted at dir and named
// after the node it belongs to. It is safe for concurrent use, though
// the specification only ever drives it from behind the acceptor's own
// mutex.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore returns a Store that persists to <dir>/<nodeID>.state,
// creating dir if necessary.
func NewFileStore(dir string, nodeID paxos.NodeID) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("paxosstore: creating data directory %q: %w", dir, err)
	}
	return &FileStore{
		path: filepath.Join(dir, fmt.Sprintf("%d.state", nodeID)),
	}, nil
}

// Load implements Store.
func (s *FileStore) Load() (paxos.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return paxos.InitialState(), nil
		}
		return paxos.State{}, fmt.Errorf("paxosstore: reading %q: %w", s.path, err)
	}

	var env onDiskEnvelope
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&env); err != nil {
		return paxos.State{}, fmt.Errorf("paxosstore: decoding %q: %w", s.path, err)
	}
	if env.SchemaVersion != schemaVersion {
		return paxos.State{}, fmt.Errorf(
			"paxosstore: %q has schema version %d, want %d", s.path, env.SchemaVersion, schemaVersion,
		)
	}

	return paxos.State{
		MinProposal:      env.MinProposal,
		AcceptedProposal: env.AcceptedProp,
		AcceptedValue:    env.AcceptedValue,
	}, nil
}

// Save implements Store. It writes to a temporary sibling file, flushes
// it, and renames it over the real path, so a reader never observes a
// half-written record.
func (s *FileStore) Save(state paxos.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	env := onDiskEnvelope{
		SchemaVersion: schemaVersion,
		MinProposal:   state.MinProposal,
		AcceptedProp:  state.AcceptedProposal,
		AcceptedValue: state.AcceptedValue,
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(env); err != nil {
		return fmt.Errorf("paxosstore: encoding state: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("paxosstore: creating temp file in %q: %w", dir, err)
	}
	tmpPath := tmp.Name()
	// Remove the temp file on any early return; the rename below is a
	// no-op on the (hopefully nonexistent) error paths after it.
	succeeded := false
	defer func() {
		if !succeeded {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("paxosstore: writing %q: %w", tmpPath, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("paxosstore: syncing %q: %w", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("paxosstore: closing %q: %w", tmpPath, err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("paxosstore: renaming %q to %q: %w", tmpPath, s.path, err)
	}
	succeeded = true

	if dirHandle, err := os.Open(dir); err == nil {
		_ = dirHandle.Sync()
		_ = dirHandle.Close()
	}

	return nil
}
