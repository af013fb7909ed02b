package brackets

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_BroadcastToRoom(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(nil)
	go hub.Run(ctx)

	room := TournamentRoom(7)
	assert.Equal(t, "tournament_7", room)

	inRoom := &Client{Hub: hub, Send: make(chan []byte, 4), Room: room}
	other := &Client{Hub: hub, Send: make(chan []byte, 4), Room: TournamentRoom(8)}
	hub.Register <- inRoom
	hub.Register <- other

	require.Eventually(t, func() bool { return hub.RoomSize(room) == 1 }, time.Second, 5*time.Millisecond)

	hub.BroadcastToRoom(room, WebSocketMessage{Type: "score_decided", Payload: map[string]int{"match_id": 3}, RoomID: room})

	select {
	case raw := <-inRoom.Send:
		var msg WebSocketMessage
		require.NoError(t, json.Unmarshal(raw, &msg))
		assert.Equal(t, "score_decided", msg.Type)
		assert.Equal(t, room, msg.RoomID)
	case <-time.After(time.Second):
		t.Fatal("message was not delivered")
	}
	assert.Empty(t, other.Send)
}

func TestHub_UnregisterClosesSend(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(nil)
	go hub.Run(ctx)

	client := &Client{Hub: hub, Send: make(chan []byte, 1), Room: TournamentRoom(1)}
	hub.Register <- client
	hub.Unregister <- client

	require.Eventually(t, func() bool { return hub.RoomSize(client.Room) == 0 }, time.Second, 5*time.Millisecond)
	_, ok := <-client.Send
	assert.False(t, ok)

	// в пустую комнату рассылка просто ничего не делает
	hub.BroadcastToRoom(client.Room, WebSocketMessage{Type: "noop"})
}

func TestHub_FullBufferSkipsMessage(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(nil)
	go hub.Run(ctx)

	client := &Client{Hub: hub, Send: make(chan []byte, 1), Room: "r"}
	hub.Register <- client
	require.Eventually(t, func() bool { return hub.RoomSize("r") == 1 }, time.Second, 5*time.Millisecond)

	hub.BroadcastToRoom("r", WebSocketMessage{Type: "first"})
	hub.BroadcastToRoom("r", WebSocketMessage{Type: "second"})

	assert.Len(t, client.Send, 1)
}

func TestHub_StopClosesClients(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(nil)
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()

	client := &Client{Hub: hub, Send: make(chan []byte, 1), Room: "r"}
	hub.Register <- client
	cancel()
	<-done

	_, ok := <-client.Send
	assert.False(t, ok)
	assert.Equal(t, 0, hub.RoomSize("r"))
}

func TestHub_JoinAndLeaveAfterStopDoNotBlock(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(nil)
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped

	select {
	case <-hub.Done():
	default:
		t.Fatal("Done must be closed after Run returns")
	}

	client := &Client{Hub: hub, Send: make(chan []byte, 1), Room: "r"}
	returned := make(chan bool, 1)
	go func() {
		ok := hub.Join(client)
		hub.Leave(client)
		returned <- ok
	}()

	select {
	case ok := <-returned:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("Join/Leave blocked on a stopped hub")
	}
	assert.Equal(t, 0, hub.RoomSize("r"))
}
