// Copyright © 2015 Drake Wilson.  Copying, distribution, and modification of this software is governed by
// the MIT-style license in the file ../LICENSE.md.

package engine

import (
	"net"

	"github.com/msimiste/dhxfer/crypting"
	"github.com/msimiste/dhxfer/proc"
	"github.com/msimiste/dhxfer/transfer"
)

type CompletionPolicy int

const (
	// The first worker to finish shuts the server down.
	ShutdownOnFirstCompletion CompletionPolicy = iota

	// Workers finish independently; only Shutdown stops the server.
	KeepServing
)

func (p CompletionPolicy) String() string {
	switch p {
	case ShutdownOnFirstCompletion:
		return "shutdown-on-first-completion"
	case KeepServing:
		return "keep-serving"
	default:
		return "???"
	}
}

type ServerConfig struct {
	Crypting crypting.Params
	Transfer transfer.Params
	Store    transfer.Store
	Policy   CompletionPolicy

	// Called from the worker's goroutine after its connection is closed and before any shutdown it
	// triggers.
	OnComplete func(Report)
}

func DefaultServerConfig(root string) ServerConfig {
	return ServerConfig{
		Crypting: crypting.DefaultParams(),
		Transfer: transfer.DefaultParams(),
		Store:    transfer.DirStore{Root: root},
	}
}

type Server struct {
	config ServerConfig
	group  *proc.Group
}

func NewServer(config ServerConfig) *Server {
	return &Server{config: config, group: proc.NewGroup()}
}

// Shutdown stops accepting connections and closes every live one.  Calls after the first do nothing.
func (s *Server) Shutdown(reason interface{}) {
	s.group.Kill(reason)
}

// Done is closed once shutdown has begun.
func (s *Server) Done() <-chan struct{} {
	return s.group.Shutdown.Done()
}

// Active returns the number of connections currently being served.
func (s *Server) Active() int {
	return s.group.Len()
}

// Serve accepts connections on l until the server shuts down, then waits for every worker to exit and
// returns nil.  Any other accept failure also shuts the server down, and is returned.
func (s *Server) Serve(l net.Listener) error {
	log.Noticef("listening on %v (%v)", l.Addr(), s.config.Policy)

	go func() {
		<-s.Done()
		if err := l.Close(); err != nil {
			log.Debugf("closing listener: %v", err)
		}
	}()

	for {
		conn, err := l.Accept()
		if err != nil {
			if s.group.Shutdown.Tripped() {
				s.group.Wait()
				log.Infof("server stopped: %v", s.group.Shutdown.Val())
				return nil
			}
			log.Errorf("accept: %v", err)
			s.Shutdown(err)
			s.group.Wait()
			return err
		}

		if _, err := s.group.Go(conn, func(id proc.DisplayId) { s.work(id, conn) }); err != nil {
			log.Infof("refusing %v: %v", conn.RemoteAddr(), err)
		}
	}
}

func (s *Server) ListenAndServe(addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(l)
}
