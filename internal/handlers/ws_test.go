package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asynkron/liveview/internal/store"
)

func dialWS(t *testing.T, h *Handler) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(h.WebSocket))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) wsOutbound {
	t.Helper()
	var out wsOutbound
	require.NoError(t, conn.ReadJSON(&out))
	return out
}

func TestWebSocketSendsInitialMergedView(t *testing.T) {
	h, st, _ := newTestHandler(t)

	_, err := st.CreateWithID("a.md", "# Existing")
	require.NoError(t, err)

	conn := dialWS(t, h)

	frame := readFrame(t, conn)
	assert.Equal(t, "content_update", frame.Type)
	assert.Contains(t, frame.Content, "# Existing")
}

func TestWebSocketEmptyStoreSendsFallback(t *testing.T) {
	h, _, _ := newTestHandler(t)

	conn := dialWS(t, h)

	frame := readFrame(t, conn)
	assert.Equal(t, "content_update", frame.Type)
	assert.Equal(t, store.FallbackContent, frame.Content)
}

func TestWebSocketPushesContentChanges(t *testing.T) {
	h, st, _ := newTestHandler(t)

	conn := dialWS(t, h)
	readFrame(t, conn) // initial full view

	_, err := st.CreateWithID("a.md", "# New")
	require.NoError(t, err)

	frame := readFrame(t, conn)
	assert.Equal(t, "content_update", frame.Type)
	assert.Contains(t, frame.Content, "# New")
	assert.Equal(t, "a.md", frame.ChangedFile)

	require.NoError(t, st.Delete("a.md"))

	frame = readFrame(t, conn)
	assert.Equal(t, "content_update", frame.Type)
	assert.Equal(t, store.FallbackContent, frame.Content)
	assert.Equal(t, "a.md", frame.ChangedFile)
}

func TestWebSocketChatFrameIsAcknowledgedAndLogged(t *testing.T) {
	h, _, chatLog := newTestHandler(t)

	conn := dialWS(t, h)
	readFrame(t, conn) // initial full view

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "chat", "message": "hello from viewer"}))

	frame := readFrame(t, conn)
	assert.Equal(t, "chat_ack", frame.Type)
	assert.Equal(t, uint64(1), frame.Seq)

	msgs := chatLog.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "hello from viewer", msgs[0].Text)
}

func TestWebSocketMalformedFrameIsDropped(t *testing.T) {
	h, st, _ := newTestHandler(t)

	conn := dialWS(t, h)
	readFrame(t, conn)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))

	// The connection survives; a content change still arrives.
	_, err := st.CreateWithID("a.md", "# Still alive")
	require.NoError(t, err)

	frame := readFrame(t, conn)
	assert.Equal(t, "content_update", frame.Type)
	assert.Contains(t, frame.Content, "# Still alive")
}
