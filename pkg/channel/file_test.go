package channel

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Duyfrom/browser-automation-with-LLM/pkg/config"
	"github.com/Duyfrom/browser-automation-with-LLM/pkg/protocol"
)

const testPoll = 5 * time.Millisecond

func TestFileChannel_SendReceive(t *testing.T) {
	dir := t.TempDir()
	listener := NewFileListener(dir, testPoll)
	client := NewFileClient(dir, testPoll, 2*time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	go func() {
		ex, err := listener.Next(ctx)
		if err != nil {
			return
		}
		cmd, err := protocol.DecodeCommand(ex.Payload)
		if err != nil {
			_ = ex.Reply(protocol.Error(err))
			return
		}
		_ = ex.Reply(protocol.Success("Page title: "+cmd.Type, nil))
	}()

	res, err := client.Send(ctx, protocol.Command{Type: protocol.TypeTitle})
	require.NoError(t, err)
	assert.Equal(t, protocol.StatusSuccess, res.Status)
	assert.Equal(t, "Page title: title", res.Message)

	// The command slot is consumed; the result slot is left behind.
	_, err = os.Stat(filepath.Join(dir, CommandFile))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, ResultFile))
	assert.NoError(t, err)
}

func TestFileListener_ReplyWritesResultBeforeConsuming(t *testing.T) {
	dir := t.TempDir()
	listener := NewFileListener(dir, testPoll)

	cmdPath := filepath.Join(dir, CommandFile)
	require.NoError(t, os.WriteFile(cmdPath, []byte(`{"type":"stop"}`), 0644))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	ex, err := listener.Next(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"stop"}`, string(ex.Payload))

	require.NoError(t, ex.Reply(protocol.Success("Stopping daemon", nil)))

	data, err := os.ReadFile(filepath.Join(dir, ResultFile))
	require.NoError(t, err)
	res, err := protocol.DecodeResult(data)
	require.NoError(t, err)
	assert.Equal(t, "Stopping daemon", res.Message)

	_, err = os.Stat(cmdPath)
	assert.True(t, os.IsNotExist(err))
}

func TestFileListener_NextContextCanceled(t *testing.T) {
	listener := NewFileListener(t.TempDir(), testPoll)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := listener.Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFileClient_Timeout(t *testing.T) {
	dir := t.TempDir()
	client := NewFileClient(dir, testPoll, 50*time.Millisecond)

	res, err := client.Send(context.Background(), protocol.Command{Type: protocol.TypeTitle})
	require.NoError(t, err)
	assert.Equal(t, protocol.StatusError, res.Status)
	assert.Equal(t, TimeoutMessage, res.Message)

	// The unanswered command slot stays for a daemon that starts later.
	_, err = os.Stat(filepath.Join(dir, CommandFile))
	assert.NoError(t, err)
}

func TestFileClient_ClearsStaleResult(t *testing.T) {
	dir := t.TempDir()
	stale, err := protocol.EncodeResult(protocol.Success("Clicked #old", nil))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ResultFile), stale, 0644))

	client := NewFileClient(dir, testPoll, 50*time.Millisecond)
	res, err := client.Send(context.Background(), protocol.Command{Type: protocol.TypeTitle})
	require.NoError(t, err)

	// The stale result must not be mistaken for the answer.
	assert.Equal(t, TimeoutMessage, res.Message)
	_, err = os.Stat(filepath.Join(dir, ResultFile))
	assert.True(t, os.IsNotExist(err))
}

func TestFileClient_WaitReady(t *testing.T) {
	dir := t.TempDir()
	listener := NewFileListener(dir, testPoll)
	client := NewFileClient(dir, testPoll, time.Second)

	require.NoError(t, listener.Announce(protocol.Started()))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	res, err := client.WaitReady(ctx)
	require.NoError(t, err)
	assert.Equal(t, protocol.StatusStarted, res.Status)
	assert.Equal(t, protocol.ReadyMessage, res.Message)
}

func TestFileClient_WaitReadyContextCanceled(t *testing.T) {
	client := NewFileClient(t.TempDir(), testPoll, time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := client.WaitReady(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClearFileSlots(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, CommandFile), []byte(`{}`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ResultFile), []byte(`{}`), 0644))

	require.NoError(t, ClearFileSlots(dir))

	_, err := os.Stat(filepath.Join(dir, CommandFile))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, ResultFile))
	assert.True(t, os.IsNotExist(err))

	// Idempotent on an already clean directory.
	require.NoError(t, ClearFileSlots(dir))
}

func TestNewListenerAndClient_TransportSelection(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name      string
		transport string
		wantErr   bool
	}{
		{name: "file transport", transport: "file"},
		{name: "socket transport", transport: "socket"},
		{name: "unknown transport", transport: "carrier-pigeon", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(dir, tt.transport)

			listener, err := NewListener(cfg)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				require.NoError(t, listener.Close())
			}

			_, err = NewClient(cfg)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// testConfig builds a minimal config for transport selection tests.
func testConfig(dir, transport string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Transport = transport
	cfg.ChannelDir = dir
	cfg.SocketPath = filepath.Join(dir, "browserd.sock")
	return cfg
}
