// Package control implements the UDP control plane: the line-oriented
// command protocol, its dispatcher, and the receive loop feeding a bounded
// worker pool.
package control

import (
	"context"
	"fmt"
	"net"
	"sync"

	"forum/internal/logging"
)

// maxDatagram bounds a single control request or response.
const maxDatagram = 4096

// Server runs the control plane: one receive loop handing each datagram to
// a fixed-size worker pool, so a slow mutation never blocks the next
// receive. Responses may therefore complete out of submission order across
// peers; ordering within a contended store is preserved by that store's
// lock.
type Server struct {
	addr       string
	workers    int
	dispatcher *Dispatcher
	logger     logging.Logger

	mu   sync.Mutex
	conn *net.UDPConn
}

func NewServer(addr string, workers int, d *Dispatcher, logger logging.Logger) *Server {
	return &Server{
		addr:       addr,
		workers:    workers,
		dispatcher: d,
		logger:     logger.With("module", "control_server"),
	}
}

// LocalAddr returns the bound address once Run has started listening,
// nil before that. Useful when the configured port is 0.
func (s *Server) LocalAddr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	return s.conn.LocalAddr()
}

type request struct {
	data []byte
	peer *net.UDPAddr
}

// Run listens for datagrams until ctx is cancelled. Each request produces
// exactly one response datagram sent back to its source endpoint.
func (s *Server) Run(ctx context.Context) error {
	udpAddr, err := net.ResolveUDPAddr("udp", s.addr)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", s.addr, err)
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return fmt.Errorf("listen udp %s: %w", s.addr, err)
	}
	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "stopping control plane")
		conn.Close()
	}()

	s.logger.Info(ctx, "control plane listening", "addr", conn.LocalAddr().String(), "workers", s.workers)

	tasks := make(chan request)
	var wg sync.WaitGroup
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for req := range tasks {
				resp := s.dispatcher.Handle(ctx, string(req.data), req.peer.String())
				if _, err := conn.WriteToUDP([]byte(resp), req.peer); err != nil {
					s.logger.Error(ctx, "send response failed", "peer", req.peer.String(), "error", err.Error())
				}
			}
		}()
	}

	buf := make([]byte, maxDatagram)
	for {
		n, peer, err := conn.ReadFromUDP(buf)
		if err != nil {
			close(tasks)
			wg.Wait()
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("udp receive: %w", err)
		}
		data := make([]byte, n)
		copy(data, buf[:n])
		tasks <- request{data: data, peer: peer}
	}
}
