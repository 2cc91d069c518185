package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTextMessage(sender string, members ...string) *Message {
	return &Message{
		GroupID:   "g1",
		SenderID:  sender,
		Kind:      KindText,
		Content:   "hello",
		Status:    NewDeliveryStatus(members, sender),
		CreatedAt: time.Now(),
	}
}

func TestNewDeliveryStatus_ExcludesSender(t *testing.T) {
	st := NewDeliveryStatus([]string{"a", "b", "c"}, "a")

	require.Equal(t, map[string]bool{"b": true, "c": true}, st.Sent)
	require.Empty(t, st.Delivered)
	require.Empty(t, st.Seen)
}

func TestMarkStatus_Cascade(t *testing.T) {
	m := newTextMessage("a", "a", "b", "c")

	changed := m.MarkStatus(StateSeen, "b")
	require.True(t, changed)
	require.True(t, m.Status.Sent["b"])
	require.True(t, m.Status.Delivered["b"])
	require.True(t, m.Status.Seen["b"])

	// c untouched
	require.False(t, m.Status.Delivered["c"])
	require.False(t, m.Status.Seen["c"])
}

func TestMarkStatus_Monotonic(t *testing.T) {
	m := newTextMessage("a", "a", "b")

	require.True(t, m.MarkStatus(StateSeen, "b"))

	// delivered after seen is a no-op, nothing flips back
	require.False(t, m.MarkStatus(StateDelivered, "b"))
	require.True(t, m.Status.Sent["b"])
	require.True(t, m.Status.Delivered["b"])
	require.True(t, m.Status.Seen["b"])

	// re-applying seen is idempotent
	require.False(t, m.MarkStatus(StateSeen, "b"))
}

func TestMarkStatus_Delivered(t *testing.T) {
	m := newTextMessage("a", "a", "b")

	require.True(t, m.MarkStatus(StateDelivered, "b"))
	require.True(t, m.Status.Sent["b"])
	require.True(t, m.Status.Delivered["b"])
	require.False(t, m.Status.Seen["b"])

	require.False(t, m.MarkStatus(StateDelivered, "b"))
}

func TestMarkStatus_IgnoresSender(t *testing.T) {
	m := newTextMessage("a", "a", "b")

	require.False(t, m.MarkStatus(StateSeen, "a"))
	require.False(t, m.Status.Seen["a"])
}

func TestMarkStatus_NilMaps(t *testing.T) {
	// documents decoded from older records may carry nil maps
	m := &Message{SenderID: "a", Kind: KindText}

	require.True(t, m.MarkStatus(StateDelivered, "b"))
	require.True(t, m.Status.Sent["b"])
	require.True(t, m.Status.Delivered["b"])
}

func TestAddReaction_ReplacesPrior(t *testing.T) {
	m := newTextMessage("a", "a", "b")

	m.AddReaction("b", "👍")
	m.AddReaction("b", "❤️")
	m.AddReaction("c", "👍")

	require.Len(t, m.Reactions, 2)

	var forB []Reaction
	for _, r := range m.Reactions {
		if r.UserID == "b" {
			forB = append(forB, r)
		}
	}
	require.Len(t, forB, 1)
	require.Equal(t, "❤️", forB[0].Emoji)
}

func TestRemoveReaction_ExactMatchOnly(t *testing.T) {
	m := newTextMessage("a", "a", "b")
	m.AddReaction("b", "👍")

	// mismatched emoji is a silent no-op
	require.False(t, m.RemoveReaction("b", "❤️"))
	require.Len(t, m.Reactions, 1)

	require.True(t, m.RemoveReaction("b", "👍"))
	require.Empty(t, m.Reactions)

	// removing again is a no-op
	require.False(t, m.RemoveReaction("b", "👍"))
}

func newPollMessage(options ...string) *Message {
	opts := make([]PollOption, len(options))
	for i, text := range options {
		opts[i] = PollOption{Text: text, Votes: []string{}}
	}
	return &Message{
		GroupID:  "g1",
		SenderID: "a",
		Kind:     KindPoll,
		Poll:     &Poll{Question: "?", Options: opts},
	}
}

func TestVote_MovesBetweenOptions(t *testing.T) {
	m := newPollMessage("X", "Y")

	require.NoError(t, m.Vote("u", 0))
	require.Equal(t, []string{"u"}, m.Poll.Options[0].Votes)

	require.NoError(t, m.Vote("u", 1))
	require.Empty(t, m.Poll.Options[0].Votes)
	require.Equal(t, []string{"u"}, m.Poll.Options[1].Votes)
}

func TestVote_Exclusive(t *testing.T) {
	m := newPollMessage("X", "Y", "Z")

	for _, idx := range []int{0, 2, 1, 1, 0} {
		require.NoError(t, m.Vote("u", idx))
	}

	total := 0
	for _, opt := range m.Poll.Options {
		total += len(opt.Votes)
	}
	require.Equal(t, 1, total)
	require.Equal(t, []string{"u"}, m.Poll.Options[0].Votes)
}

func TestVote_InvalidOption(t *testing.T) {
	m := newPollMessage("X", "Y")
	require.NoError(t, m.Vote("u", 0))

	err := m.Vote("u", 5)
	require.ErrorIs(t, err, ErrInvalidOption)

	err = m.Vote("u", -1)
	require.ErrorIs(t, err, ErrInvalidOption)

	// no partial mutation: prior ballot untouched
	require.Equal(t, []string{"u"}, m.Poll.Options[0].Votes)
}

func TestVote_NotAPoll(t *testing.T) {
	m := newTextMessage("a", "a", "b")

	err := m.Vote("b", 0)
	require.ErrorIs(t, err, ErrNotAPoll)
}

func TestMessageKind_Editable(t *testing.T) {
	require.True(t, KindText.Editable())
	require.True(t, KindEmoji.Editable())
	require.False(t, KindImage.Editable())
	require.False(t, KindVideo.Editable())
	require.False(t, KindAudio.Editable())
	require.False(t, KindPoll.Editable())
}

func TestMessageKind_Valid(t *testing.T) {
	require.True(t, KindPoll.Valid())
	require.False(t, MessageKind("sticker").Valid())
}

func TestMarkDeleted(t *testing.T) {
	m := newTextMessage("a", "a", "b")
	at := time.Now()

	m.MarkDeleted(at)
	require.True(t, m.Deleted)
	require.NotNil(t, m.DeletedAt)
	require.Equal(t, at, *m.DeletedAt)
}
