// Package channel implements the transports that carry commands to the
// browser daemon and results back to its clients.
//
// Two transports share one contract: at most one command is outstanding
// at a time, the daemon replies exactly once per received command, and
// the reply is delivered before the command is consumed. The file
// transport exchanges JSON through a command slot and a result slot in
// a shared directory; the socket transport exchanges newline-delimited
// JSON over a Unix domain socket.
package channel

import (
	"context"
	"fmt"

	"github.com/Duyfrom/browser-automation-with-LLM/pkg/config"
	"github.com/Duyfrom/browser-automation-with-LLM/pkg/protocol"
)

// Slot file names used by the file transport.
const (
	CommandFile = "browser_command.json"
	ResultFile  = "browser_result.json"
)

// TimeoutMessage is the message of the result clients synthesize when
// the daemon does not answer within the deadline.
const TimeoutMessage = "Command timeout"

// Exchange is one received command awaiting its reply. Reply must be
// called exactly once per exchange.
type Exchange struct {
	// Payload holds the raw command bytes. Decoding is the receiver's
	// job, so a malformed command can still be answered and consumed.
	Payload []byte

	reply func(protocol.Result) error
}

// Reply delivers the result for this exchange.
func (e *Exchange) Reply(res protocol.Result) error {
	return e.reply(res)
}

// Listener is the daemon side of a transport.
type Listener interface {
	// Next blocks until a command arrives or ctx is done.
	Next(ctx context.Context) (*Exchange, error)

	// Announce publishes a result outside the command/reply cycle. The
	// daemon uses it for the startup readiness result.
	Announce(res protocol.Result) error

	// Close releases transport resources.
	Close() error
}

// Client is the sender side of a transport.
type Client interface {
	// Send delivers one command and waits for its result. A daemon that
	// does not answer within the client timeout yields the synthesized
	// timeout result with a nil error; transport failures return errors.
	Send(ctx context.Context, cmd protocol.Command) (protocol.Result, error)

	// WaitReady blocks until the daemon is ready to take commands or
	// ctx is done.
	WaitReady(ctx context.Context) (protocol.Result, error)
}

// TimeoutResult is the result a client returns when the daemon did not
// answer in time.
func TimeoutResult() protocol.Result {
	return protocol.Result{Status: protocol.StatusError, Message: TimeoutMessage}
}

// NewListener builds the daemon-side transport selected by cfg.
func NewListener(cfg *config.Config) (Listener, error) {
	switch cfg.Transport {
	case config.TransportFile:
		return NewFileListener(cfg.ChannelDir, cfg.PollInterval()), nil
	case config.TransportSocket:
		return NewSocketListener(cfg.SocketPath)
	default:
		return nil, fmt.Errorf("unknown transport %q", cfg.Transport)
	}
}

// NewClient builds the client-side transport selected by cfg.
func NewClient(cfg *config.Config) (Client, error) {
	switch cfg.Transport {
	case config.TransportFile:
		return NewFileClient(cfg.ChannelDir, cfg.PollInterval(), cfg.ClientTimeout()), nil
	case config.TransportSocket:
		return NewSocketClient(cfg.SocketPath, cfg.ClientTimeout()), nil
	default:
		return nil, fmt.Errorf("unknown transport %q", cfg.Transport)
	}
}
