package channel

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Duyfrom/browser-automation-with-LLM/pkg/protocol"
)

func testSocketPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "browserd.sock")
}

func serveOne(ctx context.Context, listener *SocketListener) {
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
}

func TestSocketChannel_SendReceive(t *testing.T) {
	path := testSocketPath(t)
	listener, err := NewSocketListener(path)
	require.NoError(t, err)
	defer listener.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	go serveOne(ctx, listener)

	client := NewSocketClient(path, 2*time.Second)
	res, err := client.Send(ctx, protocol.Command{Type: protocol.TypeTitle})
	require.NoError(t, err)
	assert.Equal(t, protocol.StatusSuccess, res.Status)
	assert.Equal(t, "Page title: title", res.Message)
}

func TestSocketListener_RemovesStaleSocketFile(t *testing.T) {
	path := testSocketPath(t)
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0644))

	listener, err := NewSocketListener(path)
	require.NoError(t, err)
	defer listener.Close()

	// The stale file was replaced by a live socket.
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.ModeSocket, info.Mode()&os.ModeSocket)
}

func TestSocketListener_NextContextCanceled(t *testing.T) {
	listener, err := NewSocketListener(testSocketPath(t))
	require.NoError(t, err)
	defer listener.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = listener.Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSocketListener_SkipsSilentConnection(t *testing.T) {
	path := testSocketPath(t)
	listener, err := NewSocketListener(path)
	require.NoError(t, err)
	defer listener.Close()

	// A connection that closes without sending a line must not consume
	// the listener.
	conn, err := net.Dial("unix", path)
	require.NoError(t, err)
	require.NoError(t, conn.Close())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	go serveOne(ctx, listener)

	client := NewSocketClient(path, 2*time.Second)
	res, err := client.Send(ctx, protocol.Command{Type: protocol.TypeTitle})
	require.NoError(t, err)
	assert.Equal(t, "Page title: title", res.Message)
}

func TestSocketClient_DialFailure(t *testing.T) {
	client := NewSocketClient(testSocketPath(t), time.Second)

	_, err := client.Send(context.Background(), protocol.Command{Type: protocol.TypeTitle})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to daemon")
}

func TestSocketClient_Timeout(t *testing.T) {
	path := testSocketPath(t)
	listener, err := NewSocketListener(path)
	require.NoError(t, err)
	defer listener.Close()

	// Nobody serves the listener, so the command is never answered.
	client := NewSocketClient(path, 100*time.Millisecond)
	res, err := client.Send(context.Background(), protocol.Command{Type: protocol.TypeTitle})
	require.NoError(t, err)
	assert.Equal(t, protocol.StatusError, res.Status)
	assert.Equal(t, TimeoutMessage, res.Message)
}

func TestSocketClient_WaitReady(t *testing.T) {
	path := testSocketPath(t)
	listener, err := NewSocketListener(path)
	require.NoError(t, err)
	defer listener.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	client := NewSocketClient(path, time.Second)
	res, err := client.WaitReady(ctx)
	require.NoError(t, err)
	assert.Equal(t, protocol.StatusStarted, res.Status)
	assert.Equal(t, protocol.ReadyMessage, res.Message)
}

func TestSocketClient_WaitReadyContextCanceled(t *testing.T) {
	client := NewSocketClient(testSocketPath(t), time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.WaitReady(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSocketListener_CloseRemovesSocket(t *testing.T) {
	path := testSocketPath(t)
	listener, err := NewSocketListener(path)
	require.NoError(t, err)

	require.NoError(t, listener.Close())

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	_, err = net.Dial("unix", path)
	assert.Error(t, err)
}
