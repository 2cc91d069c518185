package model

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrNotAPoll      = errors.New("message is not a poll")
	ErrInvalidOption = errors.New("poll option index out of range")
)

// MessageKind tags the payload variant of a message.
type MessageKind string

const (
	KindText  MessageKind = "text"
	KindImage MessageKind = "image"
	KindVideo MessageKind = "video"
	KindAudio MessageKind = "audio"
	KindPoll  MessageKind = "poll"
	KindEmoji MessageKind = "emoji"
)

// Valid reports whether k is one of the known kinds.
func (k MessageKind) Valid() bool {
	switch k {
	case KindText, KindImage, KindVideo, KindAudio, KindPoll, KindEmoji:
		return true
	default:
		return false
	}
}

// Editable reports whether a message of this kind may be edited after send.
// Media and poll messages are immutable once created.
func (k MessageKind) Editable() bool {
	return k == KindText || k == KindEmoji
}

// DeliveryState is one step of the per-recipient delivery cascade.
type DeliveryState string

const (
	StateSent      DeliveryState = "sent"
	StateDelivered DeliveryState = "delivered"
	StateSeen      DeliveryState = "seen"
)

// rank orders the cascade; a recipient never moves backward.
func (s DeliveryState) rank() int {
	switch s {
	case StateSent:
		return 1
	case StateDelivered:
		return 2
	case StateSeen:
		return 3
	default:
		return 0
	}
}

// Message represents a chat message in MongoDB
type Message struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	GroupID   string             `json:"groupId" bson:"group_id"`
	SenderID  string             `json:"senderId" bson:"sender_id"`
	Kind      MessageKind        `json:"kind" bson:"kind"`
	Content   string             `json:"content" bson:"content"`
	MediaURL  string             `json:"mediaUrl,omitempty" bson:"media_url,omitempty"`
	ReplyTo   *string            `json:"replyTo,omitempty" bson:"reply_to,omitempty"`
	Reactions []Reaction         `json:"reactions" bson:"reactions"`
	Poll      *Poll              `json:"poll,omitempty" bson:"poll,omitempty"`
	Status    DeliveryStatus     `json:"status" bson:"status"`
	Deleted   bool               `json:"deleted" bson:"deleted"`
	DeletedAt *time.Time         `json:"deletedAt,omitempty" bson:"deleted_at,omitempty"`
	CreatedAt time.Time          `json:"createdAt" bson:"created_at"`
	UpdatedAt time.Time          `json:"updatedAt" bson:"updated_at"`
}

// Reaction represents a reaction on a message
type Reaction struct {
	UserID string `json:"userId" bson:"user_id"`
	Emoji  string `json:"emoji" bson:"emoji"`
}

// Poll holds a question and its option set. A voter appears in at most
// one option's Votes list at any time.
type Poll struct {
	Question string       `json:"question" bson:"question"`
	Options  []PollOption `json:"options" bson:"options"`
}

type PollOption struct {
	Text  string   `json:"text" bson:"text"`
	Votes []string `json:"votes" bson:"votes"`
}

// DeliveryStatus tracks the per-recipient cascade. Invariant:
// seen[u] implies delivered[u] implies sent[u] for every recipient u.
type DeliveryStatus struct {
	Sent      map[string]bool `json:"sent" bson:"sent"`
	Delivered map[string]bool `json:"delivered" bson:"delivered"`
	Seen      map[string]bool `json:"seen" bson:"seen"`
}

// NewDeliveryStatus marks every group member except the sender as "sent".
func NewDeliveryStatus(members []string, senderID string) DeliveryStatus {
	st := DeliveryStatus{
		Sent:      make(map[string]bool),
		Delivered: make(map[string]bool),
		Seen:      make(map[string]bool),
	}
	for _, id := range members {
		if id != senderID {
			st.Sent[id] = true
		}
	}
	return st
}

// ensureMaps guards against documents decoded with nil status maps.
func (st *DeliveryStatus) ensureMaps() {
	if st.Sent == nil {
		st.Sent = make(map[string]bool)
	}
	if st.Delivered == nil {
		st.Delivered = make(map[string]bool)
	}
	if st.Seen == nil {
		st.Seen = make(map[string]bool)
	}
}

// Reached reports whether the recipient has reached (or passed) the state.
func (st *DeliveryStatus) Reached(state DeliveryState, userID string) bool {
	switch {
	case st.Seen[userID]:
		return true
	case st.Delivered[userID]:
		return state.rank() <= StateDelivered.rank()
	case st.Sent[userID]:
		return state.rank() <= StateSent.rank()
	default:
		return false
	}
}

// MarkStatus upgrades the recipient to the given state, cascading every
// lower state to true. Transitions are monotonic: re-applying a state the
// recipient already reached (or passed) is a no-op and returns false.
// The sender never tracks its own message.
func (m *Message) MarkStatus(state DeliveryState, userID string) bool {
	if userID == m.SenderID || state.rank() == 0 {
		return false
	}
	m.Status.ensureMaps()
	if m.Status.Reached(state, userID) {
		return false
	}

	if state.rank() >= StateSent.rank() {
		m.Status.Sent[userID] = true
	}
	if state.rank() >= StateDelivered.rank() {
		m.Status.Delivered[userID] = true
	}
	if state.rank() >= StateSeen.rank() {
		m.Status.Seen[userID] = true
	}
	return true
}

// AddReaction records the user's reaction, replacing any prior entry so a
// user holds at most one reaction per message. Latest write wins.
func (m *Message) AddReaction(userID, emoji string) {
	kept := make([]Reaction, 0, len(m.Reactions)+1)
	for _, r := range m.Reactions {
		if r.UserID != userID {
			kept = append(kept, r)
		}
	}
	m.Reactions = append(kept, Reaction{UserID: userID, Emoji: emoji})
}

// RemoveReaction drops the user's reaction only on an exact emoji match.
// A stale or mismatched emoji is a silent no-op. Returns true if removed.
func (m *Message) RemoveReaction(userID, emoji string) bool {
	for i, r := range m.Reactions {
		if r.UserID == userID && r.Emoji == emoji {
			m.Reactions = append(m.Reactions[:i], m.Reactions[i+1:]...)
			return true
		}
	}
	return false
}

// Vote records the user's ballot on the given option, first clearing the
// user from every option so votes stay mutually exclusive. An out-of-range
// index rejects the vote with no partial mutation.
func (m *Message) Vote(userID string, optionIndex int) error {
	if m.Kind != KindPoll || m.Poll == nil {
		return ErrNotAPoll
	}
	if optionIndex < 0 || optionIndex >= len(m.Poll.Options) {
		return ErrInvalidOption
	}

	for i := range m.Poll.Options {
		opt := &m.Poll.Options[i]
		for j, voter := range opt.Votes {
			if voter == userID {
				opt.Votes = append(opt.Votes[:j], opt.Votes[j+1:]...)
				break
			}
		}
	}
	m.Poll.Options[optionIndex].Votes = append(m.Poll.Options[optionIndex].Votes, userID)
	return nil
}

// MarkDeleted soft-deletes the message; the document is never removed.
func (m *Message) MarkDeleted(at time.Time) {
	m.Deleted = true
	m.DeletedAt = &at
}

// ErrorPayload represents an error response sent to client via WebSocket
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
