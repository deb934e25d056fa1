package channel

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Duyfrom/browser-automation-with-LLM/pkg/protocol"
)

// FileListener receives commands through a shared directory: a client
// drops browser_command.json, the daemon answers in browser_result.json.
// The result is written atomically and before the command slot is
// removed, so a polling client never misses its answer.
type FileListener struct {
	commandPath string
	resultPath  string
	poll        time.Duration
}

// NewFileListener creates a listener over the command and result slots
// in dir.
func NewFileListener(dir string, poll time.Duration) *FileListener {
	return &FileListener{
		commandPath: filepath.Join(dir, CommandFile),
		resultPath:  filepath.Join(dir, ResultFile),
		poll:        poll,
	}
}

// Next polls the command slot until a command arrives or ctx is done.
func (l *FileListener) Next(ctx context.Context) (*Exchange, error) {
	ticker := time.NewTicker(l.poll)
	defer ticker.Stop()

	for {
		payload, err := os.ReadFile(l.commandPath)
		if err == nil {
			return &Exchange{Payload: payload, reply: l.consume}, nil
		}
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read command slot: %w", err)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// consume writes the result, then removes the command slot. The slot
// is consumed even when the result write fails, so a broken result
// write surfaces as a client timeout rather than the daemon executing
// the same command again.
func (l *FileListener) consume(res protocol.Result) error {
	writeErr := writeResult(l.resultPath, res)
	if err := os.Remove(l.commandPath); err != nil && !os.IsNotExist(err) {
		if writeErr == nil {
			writeErr = fmt.Errorf("failed to remove command slot: %w", err)
		}
	}
	return writeErr
}

// Announce publishes a result without consuming a command.
func (l *FileListener) Announce(res protocol.Result) error {
	return writeResult(l.resultPath, res)
}

// Close is a no-op; the slot files outlive the process.
func (l *FileListener) Close() error { return nil }

// FileClient sends commands by writing the command slot and polling
// the result slot.
type FileClient struct {
	commandPath string
	resultPath  string
	poll        time.Duration
	timeout     time.Duration
}

// NewFileClient creates a client over the command and result slots in
// dir. timeout bounds how long Send waits for the daemon's answer.
func NewFileClient(dir string, poll, timeout time.Duration) *FileClient {
	return &FileClient{
		commandPath: filepath.Join(dir, CommandFile),
		resultPath:  filepath.Join(dir, ResultFile),
		poll:        poll,
		timeout:     timeout,
	}
}

// Send writes cmd to the command slot and polls for the result. Any
// stale result from an earlier command is removed first so the poll
// cannot return it. A daemon that does not answer within the client
// timeout yields the synthesized timeout result with a nil error. The
// result slot is left in place after reading.
func (c *FileClient) Send(ctx context.Context, cmd protocol.Command) (protocol.Result, error) {
	if err := os.Remove(c.resultPath); err != nil && !os.IsNotExist(err) {
		return protocol.Result{}, fmt.Errorf("failed to clear result slot: %w", err)
	}

	data, err := protocol.EncodeCommand(cmd)
	if err != nil {
		return protocol.Result{}, err
	}
	if err := writeFileAtomic(c.commandPath, data); err != nil {
		return protocol.Result{}, err
	}

	deadline := time.Now().Add(c.timeout)
	ticker := time.NewTicker(c.poll)
	defer ticker.Stop()

	for {
		data, err := os.ReadFile(c.resultPath)
		if err == nil {
			return protocol.DecodeResult(data)
		}
		if !os.IsNotExist(err) {
			return protocol.Result{}, fmt.Errorf("failed to read result slot: %w", err)
		}
		if time.Now().After(deadline) {
			return TimeoutResult(), nil
		}

		select {
		case <-ctx.Done():
			return protocol.Result{}, ctx.Err()
		case <-ticker.C:
		}
	}
}

// WaitReady polls the result slot until the daemon's startup result
// appears or ctx is done. Callers that spawn the daemon clear stale
// slots first (ClearFileSlots) so this cannot read a previous run's
// result.
func (c *FileClient) WaitReady(ctx context.Context) (protocol.Result, error) {
	ticker := time.NewTicker(c.poll)
	defer ticker.Stop()

	for {
		data, err := os.ReadFile(c.resultPath)
		if err == nil {
			return protocol.DecodeResult(data)
		}
		if !os.IsNotExist(err) {
			return protocol.Result{}, fmt.Errorf("failed to read result slot: %w", err)
		}

		select {
		case <-ctx.Done():
			return protocol.Result{}, ctx.Err()
		case <-ticker.C:
		}
	}
}

// ClearFileSlots removes any stale command or result slot in dir.
func ClearFileSlots(dir string) error {
	for _, name := range []string{CommandFile, ResultFile} {
		if err := os.Remove(filepath.Join(dir, name)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove %s: %w", name, err)
		}
	}
	return nil
}

func writeResult(path string, res protocol.Result) error {
	data, err := protocol.EncodeResult(res)
	if err != nil {
		return err
	}
	return writeFileAtomic(path, data)
}

// writeFileAtomic writes data through a temp file and a rename so a
// concurrent reader never observes a partial file.
func writeFileAtomic(path string, data []byte) error {
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}
