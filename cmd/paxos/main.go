// Command paxos runs one node of a single-decree Paxos cluster. Flag
// parsing follows the same flag.StringVar/IntVar-in-init idiom as
// dyv-paxos's db_app main.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/stepchowfun/paxos/internal/config"
	"github.com/stepchowfun/paxos/internal/logging"
	"github.com/stepchowfun/paxos/internal/node"
	"github.com/stepchowfun/paxos/internal/paxos"
)

const version = "0.1.0"

var (
	nodeIndex  int
	configFile string
	dataDir    string
	ip         string
	port       int
	propose    string
	hasPropose bool
	showVer    bool
)

func init() {
	flag.IntVar(&nodeIndex, "node", -1, "this node's index into the cluster config (required)")
	flag.StringVar(&configFile, "config-file", "config.yml", "path to the cluster membership file")
	flag.StringVar(&dataDir, "data-dir", "data", "directory for this node's durable state (empty string disables durability)")
	flag.StringVar(&ip, "ip", "", "override the listen address's host (default: from config-file)")
	flag.IntVar(&port, "port", 0, "override the listen address's port (default: from config-file)")
	flag.StringVar(&propose, "propose", "", "a value for this node to propose")
	flag.BoolVar(&showVer, "version", false, "print the version and exit")
}

func main() {
	flag.Parse()
	hasPropose = isFlagSet("propose")

	if showVer {
		fmt.Println("paxos", version)
		os.Exit(0)
	}

	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "paxos:", err)
		os.Exit(exitCodeFor(err))
	}
}

func isFlagSet(name string) bool {
	found := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

// configError marks a failure that is a misconfiguration rather than a
// runtime I/O problem, so main can report the right exit code.
type configError struct{ err error }

func (e *configError) Error() string { return e.err.Error() }
func (e *configError) Unwrap() error { return e.err }

func exitCodeFor(err error) int {
	var ce *configError
	if errors.As(err, &ce) {
		return 1
	}
	return 2
}

func run() error {
	if nodeIndex < 0 {
		return &configError{fmt.Errorf("-node is required")}
	}

	cfg, err := config.Load(configFile)
	if err != nil {
		return &configError{err}
	}
	if err := cfg.Validate(nodeIndex); err != nil {
		return &configError{err}
	}

	if ip != "" {
		cfg.Nodes[nodeIndex].Host = ip
	}
	if port != 0 {
		cfg.Nodes[nodeIndex].Port = port
	}

	log := logging.New(fmt.Sprintf("[node %d] ", nodeIndex))

	n, err := node.New(node.Config{
		SelfID:       paxos.NodeID(nodeIndex),
		Nodes:        cfg.Nodes,
		DataDir:      dataDir,
		ProposeValue: paxos.Value(propose),
		HasPropose:   hasPropose,
		Log:          log,
	})
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	_, _, err = n.Run(ctx)
	return err
}
