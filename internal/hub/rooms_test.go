package hub

import (
	"testing"

	"github.com/MBSciTech/EcoChat/internal/event"
	"github.com/MBSciTech/EcoChat/internal/model"
	"github.com/stretchr/testify/require"
)

func TestFanOutReachesEverySubscriber(t *testing.T) {
	rig := newTestRig(t)

	alice := rig.connect("alice")
	bob := rig.connect("bob")
	rig.hub.Subscribe("g1", alice)
	rig.hub.Subscribe("g1", bob)

	rig.hub.ToRoom("g1", event.New(event.EventNewMessage, model.NewMessageEvent{}))

	require.Equal(t, event.EventNewMessage, nextEvent(t, alice).Event)
	require.Equal(t, event.EventNewMessage, nextEvent(t, bob).Event)
}

func TestFanOutExceptSkipsSender(t *testing.T) {
	rig := newTestRig(t)

	alice := rig.connect("alice")
	bob := rig.connect("bob")
	rig.hub.Subscribe("g1", alice)
	rig.hub.Subscribe("g1", bob)

	rig.hub.ToRoomExcept("g1", "alice", event.New(event.EventUserTyping, model.TypingEvent{GroupID: "g1", UserID: "alice"}))

	require.Equal(t, event.EventUserTyping, nextEvent(t, bob).Event)
	requireNoEvent(t, alice)
}

func TestToParticipantOfflineIsNoop(t *testing.T) {
	rig := newTestRig(t)

	ok := rig.hub.ToParticipant("ghost", event.New(event.EventNewMessage, model.NewMessageEvent{}))
	require.False(t, ok)
}

func TestRoomDroppedWhenLastSubscriberLeaves(t *testing.T) {
	rig := newTestRig(t)

	alice := rig.connect("alice")
	rig.hub.Subscribe("g1", alice)
	require.NotNil(t, rig.hub.peekRoom("g1"))

	rig.hub.Unsubscribe("g1", alice)
	require.Nil(t, rig.hub.peekRoom("g1"))
	require.Empty(t, alice.joinedRooms())
}

func TestTypingSetIdempotent(t *testing.T) {
	rig := newTestRig(t)

	require.True(t, rig.hub.StartTyping("g1", "alice"))
	require.False(t, rig.hub.StartTyping("g1", "alice"))
	require.True(t, rig.hub.IsTyping("g1", "alice"))

	require.True(t, rig.hub.StopTyping("g1", "alice"))
	require.False(t, rig.hub.StopTyping("g1", "alice"))
	require.False(t, rig.hub.IsTyping("g1", "alice"))
}

func TestDisconnectClearsRoomsAndTyping(t *testing.T) {
	rig := newTestRig(t)

	alice := rig.connect("alice")
	bob := rig.connect("bob")
	rig.hub.Subscribe("g1", alice)
	rig.hub.Subscribe("g1", bob)
	rig.hub.StartTyping("g1", "alice")

	rig.hub.removeClient(alice)

	// everyone still in the room hears the typing indicator clear
	ev := nextEvent(t, bob)
	require.Equal(t, event.EventUserStoppedTyping, ev.Event)
	typing := decodePayload[model.TypingEvent](t, ev)
	require.Equal(t, "alice", typing.UserID)

	require.False(t, rig.hub.IsTyping("g1", "alice"))
	require.False(t, rig.hub.Registry().IsOnline("alice"))

	room := rig.hub.peekRoom("g1")
	require.NotNil(t, room)
	room.mu.RLock()
	_, stillThere := room.subscribers["alice"]
	room.mu.RUnlock()
	require.False(t, stillThere)
}
