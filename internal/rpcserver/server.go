// Package rpcserver exposes a node's local acceptor over net/rpc, the
// same TCP-listener-plus-rpc.Server idiom the teacher uses for its own
// Paxos RPCs (and that its sibling lineage in bnjmnlim-sharded-key-value
// repeats): net.Listen, rpc.NewServer, a background accept loop calling
// rpcServer.ServeConn per connection.
package rpcserver

import (
	"net"
	"net/rpc"
	"sync"

	"github.com/stepchowfun/paxos/internal/logging"
	"github.com/stepchowfun/paxos/internal/paxos"
	"github.com/stepchowfun/paxos/internal/rpcwire"
)

// Service adapts a *paxos.Acceptor to the net/rpc calling convention:
// exported methods with an args pointer, a reply pointer, and an error
// return.
type Service struct {
	acceptor *paxos.Acceptor
	log      *logging.Logger
}

// NewService returns a Service backed by acceptor.
func NewService(acceptor *paxos.Acceptor, log *logging.Logger) *Service {
	return &Service{acceptor: acceptor, log: log}
}

// Prepare is the net/rpc handler for Paxos.Prepare.
func (s *Service) Prepare(args *rpcwire.PrepareArgs, reply *rpcwire.PrepareReply) error {
	s.log.Debugf("received prepare %s", args.ProposalNumber)
	res, err := s.acceptor.Prepare(args.ProposalNumber)
	if err != nil {
		s.log.Errorf("prepare %s failed: %v", args.ProposalNumber, err)
		return err
	}
	reply.MinProposal = res.MinProposal
	reply.AcceptedProposal = res.AcceptedProposal
	reply.AcceptedValue = res.AcceptedValue
	return nil
}

// Accept is the net/rpc handler for Paxos.Accept.
func (s *Service) Accept(args *rpcwire.AcceptArgs, reply *rpcwire.AcceptReply) error {
	s.log.Debugf("received accept %s", args.ProposalNumber)
	res, err := s.acceptor.Accept(args.ProposalNumber, args.Value)
	if err != nil {
		s.log.Errorf("accept %s failed: %v", args.ProposalNumber, err)
		return err
	}
	reply.MinProposal = res.MinProposal
	return nil
}

// Server listens for and serves incoming Paxos RPCs.
type Server struct {
	listener  net.Listener
	rpcServer *rpc.Server

	mu   sync.Mutex
	done bool
}

// Serve starts listening on addr and serving service in the background.
// It returns once the listener is bound; serving continues on background
// goroutines until Close is called.
func Serve(addr string, service *Service) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	rpcServer := rpc.NewServer()
	if err := rpcServer.RegisterName(rpcwire.ServiceName, service); err != nil {
		listener.Close()
		return nil, err
	}

	s := &Server{listener: listener, rpcServer: rpcServer}
	go s.acceptLoop(service.log)
	return s, nil
}

func (s *Server) acceptLoop(log *logging.Logger) {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.mu.Lock()
			closed := s.done
			s.mu.Unlock()
			if closed {
				return
			}
			log.Warnf("accept error: %v", err)
			return
		}
		go s.rpcServer.ServeConn(conn)
	}
}

// Addr returns the address the server is actually bound to, useful when
// the configured port was 0.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Close stops accepting new connections. Connections accepted before
// Close are not closed and keep being served, including new RPCs on them.
func (s *Server) Close() error {
	s.mu.Lock()
	s.done = true
	s.mu.Unlock()
	return s.listener.Close()
}
