package realtime

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recv(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case payload, ok := <-c.Send():
		require.True(t, ok, "send channel closed unexpectedly")
		var ev Event
		require.NoError(t, json.Unmarshal(payload, &ev))
		return ev
	default:
		t.Fatal("expected a pending event")
		return Event{}
	}
}

func drain(c *Client) {
	for {
		select {
		case <-c.Send():
		default:
			return
		}
	}
}

func TestJoinLeave_RoomLifecycle(t *testing.T) {
	hub := NewHub()

	a := hub.Join("user-1", "sess-a")
	assert.Equal(t, 1, hub.RoomSize("user-1"))

	b := hub.Join("user-1", "sess-b")
	assert.Equal(t, 2, hub.RoomSize("user-1"))
	assert.Equal(t, 0, hub.RoomSize("user-2"), "rooms are per user")

	hub.Leave(a)
	assert.Equal(t, 1, hub.RoomSize("user-1"))

	hub.Leave(b)
	assert.Equal(t, 0, hub.RoomSize("user-1"), "last leave prunes the room")

	// A second leave of the same client is harmless
	hub.Leave(b)
	assert.Equal(t, 0, hub.RoomSize("user-1"))
}

func TestJoin_AnnouncesSessionCount(t *testing.T) {
	hub := NewHub()

	a := hub.Join("user-1", "sess-a")
	ev := recv(t, a)
	assert.Equal(t, EventSessionCountUpdated, ev.Event)
	data := ev.Data.(map[string]any)
	assert.Equal(t, float64(1), data["count"])

	b := hub.Join("user-1", "sess-b")
	_ = b

	ev = recv(t, a)
	data = ev.Data.(map[string]any)
	assert.Equal(t, float64(2), data["count"])
}

func TestBroadcastPreferences_SkipsOrigin(t *testing.T) {
	hub := NewHub()

	origin := hub.Join("user-1", "sess-origin")
	other := hub.Join("user-1", "sess-other")
	stranger := hub.Join("user-2", "sess-x")
	drain(origin)
	drain(other)
	drain(stranger)

	hub.BroadcastPreferences("user-1", map[string]any{"theme": "dark"}, 3, "sess-origin")

	ev := recv(t, other)
	assert.Equal(t, EventPreferencesUpdated, ev.Event)
	data := ev.Data.(map[string]any)
	assert.Equal(t, float64(3), data["version"])
	assert.Equal(t, "sess-origin", data["origin_session_id"])
	prefs := data["preferences"].(map[string]any)
	assert.Equal(t, "dark", prefs["theme"])

	select {
	case <-origin.Send():
		t.Fatal("originating session must not receive its own update")
	default:
	}

	select {
	case <-stranger.Send():
		t.Fatal("other users must not receive the update")
	default:
	}
}

func TestBroadcast_SlowClientDoesNotBlock(t *testing.T) {
	hub := NewHub()

	slow := hub.Join("user-1", "sess-slow")
	drain(slow)

	// Overflow the send buffer; extra events are dropped, not deadlocked
	for i := 0; i < sendBuffer*2; i++ {
		hub.BroadcastPreferences("user-1", map[string]any{"i": i}, i, "")
	}

	assert.Equal(t, 1, hub.RoomSize("user-1"))
}
