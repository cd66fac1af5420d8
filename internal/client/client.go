// Package client implements the network side of the forum CLI: a UDP
// requester with timeout-based retries for control commands, and TCP
// transfers for file upload and download.
package client

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"time"

	"forum/internal/client/config"
	"forum/internal/common"
)

const fileNotFound = "FILE_NOT_FOUND"

// maxResponse bounds a single UDP control response.
const maxResponse = 4096

// Client talks to a forum server. All control commands are sent from a
// single UDP socket so the server sees a stable peer address for the
// whole session.
type Client struct {
	conn    *net.UDPConn
	server  *net.UDPAddr
	addr    string
	timeout time.Duration
	retries int
}

func New(cfg *config.Config) (*Client, error) {
	server, err := net.ResolveUDPAddr("udp", cfg.ServerAddr)
	if err != nil {
		return nil, fmt.Errorf("resolving server address: %w", err)
	}

	conn, err := net.ListenUDP("udp", nil)
	if err != nil {
		return nil, fmt.Errorf("opening udp socket: %w", err)
	}

	return &Client{
		conn:    conn,
		server:  server,
		addr:    cfg.ServerAddr,
		timeout: cfg.RequestTimeout,
		retries: cfg.MaxRetries,
	}, nil
}

// Send transmits one control command and waits for the reply. Each
// attempt waits up to the configured timeout; after the configured
// number of attempts with no reply it returns common.ErrNoResponse.
func (c *Client) Send(command string) (string, error) {
	buf := make([]byte, maxResponse)

	for attempt := 0; attempt < c.retries; attempt++ {
		if _, err := c.conn.WriteToUDP([]byte(command), c.server); err != nil {
			return "", err
		}

		if err := c.conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
			return "", err
		}

		n, _, err := c.conn.ReadFromUDP(buf)
		if err != nil {
			if errors.Is(err, os.ErrDeadlineExceeded) {
				continue
			}
			return "", err
		}
		return string(buf[:n]), nil
	}

	return "", common.ErrNoResponse
}

// Upload streams src to the server over a fresh TCP connection and
// returns the server's confirmation line.
func (c *Client) Upload(user, title, filename string, src io.Reader) (string, error) {
	conn, err := net.Dial("tcp", c.addr)
	if err != nil {
		return "", err
	}
	defer conn.Close()

	if _, err := fmt.Fprintf(conn, "UPD:%s#%s#%s\n", user, title, filename); err != nil {
		return "", err
	}
	if _, err := io.Copy(conn, src); err != nil {
		return "", err
	}
	// Half-close signals end of the file body; the confirmation comes back
	// on the same connection.
	if tc, ok := conn.(*net.TCPConn); ok {
		if err := tc.CloseWrite(); err != nil {
			return "", err
		}
	}

	reply, err := io.ReadAll(conn)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(reply)), nil
}

// Download fetches a thread attachment over TCP and writes it to dst.
// A missing file is reported as common.ErrNotFound.
func (c *Client) Download(title, filename string, dst io.Writer) error {
	conn, err := net.Dial("tcp", c.addr)
	if err != nil {
		return err
	}
	defer conn.Close()

	if _, err := fmt.Fprintf(conn, "DWN:%s#%s\n", title, filename); err != nil {
		return err
	}

	br := bufio.NewReader(conn)
	head, err := br.Peek(len(fileNotFound) + 1)
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	// The sentinel is only meaningful when it is the entire response.
	if string(head) == fileNotFound {
		return common.ErrNotFound
	}

	_, err = io.Copy(dst, br)
	return err
}

func (c *Client) Close() error {
	return c.conn.Close()
}
