package handlers

import (
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/asynkron/liveview/internal/chat"
	"github.com/asynkron/liveview/internal/hub"
	"github.com/asynkron/liveview/internal/store"
)

const testHeartbeat = 50 * time.Millisecond

func newTestHandler(t *testing.T) (*Handler, *store.Store, *chat.Log) {
	t.Helper()
	broadcast := hub.New(zerolog.Nop())
	t.Cleanup(broadcast.Close)
	st := store.New(broadcast, zerolog.Nop())
	chatLog := chat.New(broadcast, 10, zerolog.Nop())
	return NewHandler(st, broadcast, chatLog, zerolog.Nop(), 16, testHeartbeat), st, chatLog
}
