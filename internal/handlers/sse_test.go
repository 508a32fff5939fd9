package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openStream issues a GET against the SSE handler and returns a line reader
// over the response body. Cancelling the context ends the stream.
func openStream(t *testing.T, url string) (*bufio.Reader, func()) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	return bufio.NewReader(resp.Body), func() {
		cancel()
		resp.Body.Close()
	}
}

// readDataFrame skips blank lines and comments until the next data frame.
func readDataFrame(t *testing.T, r *bufio.Reader) sseFrame {
	t.Helper()
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var frame sseFrame
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &frame))
		return frame
	}
}

func TestChatSubscribeReplaysHistoryThenStreamsLive(t *testing.T) {
	h, _, chatLog := newTestHandler(t)
	srv := httptest.NewServer(http.HandlerFunc(h.ChatSubscribe))
	defer srv.Close()

	chatLog.Post("m1")
	chatLog.Post("m2")

	r, closeStream := openStream(t, srv.URL)
	defer closeStream()

	frame := readDataFrame(t, r)
	assert.Equal(t, "connected", frame.Type)

	// Buffered history arrives first, in sequence order.
	frame = readDataFrame(t, r)
	assert.Equal(t, "chat", frame.Type)
	assert.Equal(t, "m1", frame.Message)
	assert.Equal(t, uint64(1), frame.Seq)

	frame = readDataFrame(t, r)
	assert.Equal(t, "m2", frame.Message)
	assert.Equal(t, uint64(2), frame.Seq)

	// A message posted after connect is delivered live, no gap, no repeat.
	chatLog.Post("m3")
	frame = readDataFrame(t, r)
	assert.Equal(t, "m3", frame.Message)
	assert.Equal(t, uint64(3), frame.Seq)
}

func TestChatSubscribeSendsHeartbeatWhileIdle(t *testing.T) {
	h, _, _ := newTestHandler(t)
	srv := httptest.NewServer(http.HandlerFunc(h.ChatSubscribe))
	defer srv.Close()

	r, closeStream := openStream(t, srv.URL)
	defer closeStream()

	frame := readDataFrame(t, r)
	require.Equal(t, "connected", frame.Type)

	// With no traffic the stream still carries comment heartbeats.
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		if strings.HasPrefix(line, ": heartbeat") {
			return
		}
	}
}

func TestChatSubscribeEndsWhenClientDisconnects(t *testing.T) {
	h, _, chatLog := newTestHandler(t)
	srv := httptest.NewServer(http.HandlerFunc(h.ChatSubscribe))
	defer srv.Close()

	r, closeStream := openStream(t, srv.URL)
	frame := readDataFrame(t, r)
	require.Equal(t, "connected", frame.Type)

	closeStream()

	// The server keeps working after the subscriber is gone.
	msg := chatLog.Post("after disconnect")
	assert.Equal(t, uint64(1), msg.Seq)
}
