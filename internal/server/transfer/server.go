// Package transfer implements the TCP data plane: streaming file uploads
// and downloads correlated with the control plane only by thread title and
// file name.
package transfer

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"

	"forum/internal/common"
	"forum/internal/logging"
	"forum/internal/server/blob"
	"forum/internal/server/threads"
)

// Server accepts one TCP connection per transfer. Each connection is
// handled by its own goroutine; no bound is placed on concurrent transfers.
type Server struct {
	addr    string
	threads *threads.Store
	blobs   blob.Store
	logger  logging.Logger

	mu sync.Mutex
	ln net.Listener
}

func NewServer(addr string, ts *threads.Store, blobs blob.Store, logger logging.Logger) *Server {
	return &Server{
		addr:    addr,
		threads: ts,
		blobs:   blobs,
		logger:  logger.With("module", "transfer_server"),
	}
}

// LocalAddr returns the bound address once Run has started listening,
// nil before that.
func (s *Server) LocalAddr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Run accepts connections until ctx is cancelled. A malformed connection
// is logged and dropped; it never terminates the accept loop.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen tcp %s: %w", s.addr, err)
	}
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "stopping data plane")
		ln.Close()
	}()

	s.logger.Info(ctx, "data plane listening", "addr", ln.Addr().String())

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("tcp accept: %w", err)
		}
		go s.handle(ctx, conn)
	}
}

func (s *Server) handle(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	log := s.logger.With("peer", conn.RemoteAddr().String())

	reader := bufio.NewReader(conn)
	header, err := reader.ReadString('\n')
	if err != nil {
		log.Warn(ctx, "read transfer header failed", "error", err.Error())
		return
	}
	header = strings.TrimSpace(header)

	switch {
	case strings.HasPrefix(header, "UPD:"):
		s.upload(ctx, log, conn, reader, strings.TrimPrefix(header, "UPD:"))
	case strings.HasPrefix(header, "DWN:"):
		s.download(ctx, log, conn, strings.TrimPrefix(header, "DWN:"))
	default:
		log.Warn(ctx, "unrecognized transfer header", "header", header)
	}
}

// upload stores the connection body as "<title>-<filename>" and registers
// the file on the thread. Presence is re-checked here even though the
// control-plane readiness check passed: the window between the two phases
// is not synchronized, and this check is the last line of defense.
func (s *Server) upload(ctx context.Context, log logging.Logger, conn net.Conn, body io.Reader, header string) {
	parts := strings.SplitN(header, "#", 3)
	if len(parts) != 3 {
		log.Warn(ctx, "malformed upload header", "header", header)
		return
	}
	user, title, filename := parts[0], parts[1], parts[2]
	name := title + "-" + filename
	log = log.With("user", user, "object", name)

	exists, err := s.blobs.Exists(ctx, name)
	if err != nil {
		log.Error(ctx, "existence check failed", "error", err.Error())
		return
	}
	if exists {
		io.WriteString(conn, "ERROR: File already exists in thread")
		return
	}

	if err := s.blobs.Save(ctx, name, body); err != nil {
		log.Error(ctx, "store upload failed", "error", err.Error())
		return
	}
	if err := s.threads.RegisterFile(title, user, filename); err != nil {
		log.Error(ctx, "register upload failed", "error", err.Error())
		return
	}

	log.Info(ctx, "upload stored")
	io.WriteString(conn, "UPLOAD_SUCCESS")
}

// download streams "<title>-<filename>" to the peer, or the FILE_NOT_FOUND
// sentinel when the object is absent.
func (s *Server) download(ctx context.Context, log logging.Logger, conn net.Conn, header string) {
	parts := strings.SplitN(header, "#", 2)
	if len(parts) != 2 {
		log.Warn(ctx, "malformed download header", "header", header)
		return
	}
	title, filename := parts[0], parts[1]
	name := title + "-" + filename
	log = log.With("object", name)

	rc, err := s.blobs.Open(ctx, name)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			io.WriteString(conn, "FILE_NOT_FOUND")
			return
		}
		log.Error(ctx, "open download failed", "error", err.Error())
		return
	}
	defer rc.Close()

	if _, err := io.Copy(conn, rc); err != nil {
		log.Warn(ctx, "stream download failed", "error", err.Error())
		return
	}
	log.Info(ctx, "download streamed")
}
