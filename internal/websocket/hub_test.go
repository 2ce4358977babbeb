package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"insightai-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	h := NewHub(nil, logger.NewNop())
	go h.Run(ctx)
	return h
}

func newTestClient(h *Hub) *Client {
	return &Client{Hub: h, ID: uuid.New(), Send: make(chan []byte, 4)}
}

func TestBroadcastReachesEveryClient(t *testing.T) {
	h := startHub(t)
	a, b := newTestClient(h), newTestClient(h)
	h.register <- a
	h.register <- b
	require.Eventually(t, func() bool { return h.Connected() == 2 }, time.Second, 5*time.Millisecond)

	h.Broadcast(Message{Type: "run_finished", Data: map[string]interface{}{"status": "visualized"}})

	for _, c := range []*Client{a, b} {
		select {
		case raw := <-c.Send:
			var got Message
			require.NoError(t, json.Unmarshal(raw, &got))
			assert.Equal(t, "run_finished", got.Type)
		case <-time.After(time.Second):
			t.Fatal("broadcast not delivered")
		}
	}
}

func TestSendToSkipsUnregisteredClient(t *testing.T) {
	h := startHub(t)
	c := newTestClient(h)
	h.register <- c
	require.Eventually(t, func() bool { return h.Connected() == 1 }, time.Second, 5*time.Millisecond)

	assert.True(t, h.sendTo(c, Message{Type: "step", Data: "🔍 Analyzing your question..."}))

	h.unregister <- c
	require.Eventually(t, func() bool { return h.Connected() == 0 }, time.Second, 5*time.Millisecond)

	assert.False(t, h.sendTo(c, Message{Type: "step", Data: "late"}))

	// Drain the buffered message, then observe the closed channel.
	<-c.Send
	_, open := <-c.Send
	assert.False(t, open)
}

func TestFullBufferDropsClient(t *testing.T) {
	h := startHub(t)
	c := &Client{Hub: h, ID: uuid.New(), Send: make(chan []byte)}
	h.register <- c
	require.Eventually(t, func() bool { return h.Connected() == 1 }, time.Second, 5*time.Millisecond)

	h.Broadcast(Message{Type: "run_finished"})

	assert.Eventually(t, func() bool { return h.Connected() == 0 }, time.Second, 5*time.Millisecond)
}
