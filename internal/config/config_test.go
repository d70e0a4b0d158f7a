package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stepchowfun/paxos/internal/config"
	"github.com/stepchowfun/paxos/internal/paxos"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadParsesNodeList(t *testing.T) {
	path := writeConfig(t, `
nodes:
  - host: 127.0.0.1
    port: 3000
  - host: 127.0.0.1
    port: 3001
  - host: 127.0.0.1
    port: 3002
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Len(t, cfg.Nodes, 3)
	assert.Equal(t, "127.0.0.1:3001", cfg.Nodes[1].Addr())
	assert.Equal(t, []paxos.NodeID{0, 1, 2}, cfg.NodeIDs())
}

func TestLoadRejectsEmptyClusters(t *testing.T) {
	path := writeConfig(t, "nodes: []\n")
	_, err := config.Load(path)
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}

func TestValidateRejectsOutOfRangeIndex(t *testing.T) {
	cfg := config.Config{Nodes: []config.NodeConfig{{Host: "127.0.0.1", Port: 3000}}}
	assert.NoError(t, cfg.Validate(0))
	assert.Error(t, cfg.Validate(1))
	assert.Error(t, cfg.Validate(-1))
}
