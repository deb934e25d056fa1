package channel

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"github.com/Duyfrom/browser-automation-with-LLM/pkg/protocol"
)

const (
	// acceptPollInterval bounds how long Next sits in Accept before
	// rechecking ctx.
	acceptPollInterval = 200 * time.Millisecond

	// connIOTimeout bounds how long a connected client may take to send
	// its command line, and how long the result write may take.
	connIOTimeout = 10 * time.Second

	// maxLineSize caps one command or result line.
	maxLineSize = 1 << 20
)

// SocketListener receives commands over a Unix domain socket. Each
// connection carries exactly one newline-delimited JSON command and one
// newline-delimited JSON result. Connections are accepted one at a
// time, which keeps command execution strictly serial.
type SocketListener struct {
	path     string
	listener *net.UnixListener
}

// NewSocketListener binds the socket at path, removing a stale socket
// file left behind by a previous run.
func NewSocketListener(path string) (*SocketListener, error) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to remove stale socket: %w", err)
	}

	addr, err := net.ResolveUnixAddr("unix", path)
	if err != nil {
		return nil, fmt.Errorf("invalid socket path: %w", err)
	}
	listener, err := net.ListenUnix("unix", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to bind socket: %w", err)
	}

	return &SocketListener{path: path, listener: listener}, nil
}

// Next accepts one connection and reads its command line. A connection
// that produces no line within the read timeout is dropped and the
// accept loop continues.
func (l *SocketListener) Next(ctx context.Context) (*Exchange, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if err := l.listener.SetDeadline(time.Now().Add(acceptPollInterval)); err != nil {
			return nil, fmt.Errorf("failed to set accept deadline: %w", err)
		}
		conn, err := l.listener.Accept()
		if err != nil {
			if errors.Is(err, os.ErrDeadlineExceeded) {
				continue
			}
			return nil, fmt.Errorf("accept failed: %w", err)
		}

		conn.SetReadDeadline(time.Now().Add(connIOTimeout))
		payload, err := readLine(conn)
		if err != nil {
			conn.Close()
			continue
		}

		return &Exchange{
			Payload: payload,
			reply: func(res protocol.Result) error {
				defer conn.Close()
				conn.SetWriteDeadline(time.Now().Add(connIOTimeout))
				return writeLine(conn, res)
			},
		}, nil
	}
}

// Announce is a no-op for the socket transport: results only flow
// inside a connection, and readiness is the bound socket itself.
func (l *SocketListener) Announce(res protocol.Result) error { return nil }

// Close stops accepting and removes the socket file.
func (l *SocketListener) Close() error {
	err := l.listener.Close()
	if rmErr := os.Remove(l.path); rmErr != nil && !os.IsNotExist(rmErr) && err == nil {
		err = rmErr
	}
	return err
}

// SocketClient sends commands over the daemon's socket, one connection
// per command.
type SocketClient struct {
	path    string
	timeout time.Duration
}

// NewSocketClient creates a client for the socket at path. timeout
// bounds how long Send waits for the daemon's answer.
func NewSocketClient(path string, timeout time.Duration) *SocketClient {
	return &SocketClient{path: path, timeout: timeout}
}

// Send dials the daemon, writes the command line, and reads the result
// line. A daemon that accepts the connection but does not answer within
// the client timeout yields the synthesized timeout result with a nil
// error. A failed dial is an error: the daemon is not running.
func (c *SocketClient) Send(ctx context.Context, cmd protocol.Command) (protocol.Result, error) {
	data, err := protocol.EncodeCommand(cmd)
	if err != nil {
		return protocol.Result{}, err
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", c.path)
	if err != nil {
		return protocol.Result{}, fmt.Errorf("failed to connect to daemon: %w", err)
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(c.timeout)); err != nil {
		return protocol.Result{}, fmt.Errorf("failed to set deadline: %w", err)
	}
	if _, err := conn.Write(append(data, '\n')); err != nil {
		return protocol.Result{}, fmt.Errorf("failed to send command: %w", err)
	}

	payload, err := readLine(conn)
	if err != nil {
		if errors.Is(err, os.ErrDeadlineExceeded) {
			return TimeoutResult(), nil
		}
		return protocol.Result{}, fmt.Errorf("failed to read result: %w", err)
	}
	return protocol.DecodeResult(payload)
}

// WaitReady dials until the socket accepts or ctx is done. The bound
// socket is the readiness signal, so a successful dial synthesizes the
// started result.
func (c *SocketClient) WaitReady(ctx context.Context) (protocol.Result, error) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		var d net.Dialer
		if conn, err := d.DialContext(ctx, "unix", c.path); err == nil {
			conn.Close()
			return protocol.Started(), nil
		}

		select {
		case <-ctx.Done():
			return protocol.Result{}, ctx.Err()
		case <-ticker.C:
		}
	}
}

// readLine reads one newline-delimited payload from conn. Callers arm
// the read deadline before calling.
func readLine(conn net.Conn) ([]byte, error) {
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, err
		}
		return nil, io.EOF
	}
	return append([]byte(nil), scanner.Bytes()...), nil
}

func writeLine(conn net.Conn, res protocol.Result) error {
	data, err := protocol.EncodeResult(res)
	if err != nil {
		return err
	}
	if _, err := conn.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}
	return nil
}
