package model

// -----------------------------------------------------------------
// WebSocket payloads - Client to Server
// -----------------------------------------------------------------

type JoinGroupPayload struct {
	GroupID string `json:"groupId"`
}

type LeaveGroupPayload struct {
	GroupID string `json:"groupId"`
}

// PollInput is the client-side shape of a new poll.
type PollInput struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

type SendMessagePayload struct {
	GroupID  string      `json:"groupId"`
	Kind     MessageKind `json:"kind"`
	Content  string      `json:"content"`
	MediaURL string      `json:"mediaUrl,omitempty"`
	Poll     *PollInput  `json:"poll,omitempty"`
	ReplyTo  *string     `json:"replyTo,omitempty"`
}

type TypingPayload struct {
	GroupID string `json:"groupId"`
}

type MessageStatusPayload struct {
	MessageID string `json:"messageId"`
}

type MarkGroupSeenPayload struct {
	GroupID string `json:"groupId"`
}

type ReactionPayload struct {
	MessageID string `json:"messageId"`
	Emoji     string `json:"emoji"`
}

type VotePollPayload struct {
	MessageID   string `json:"messageId"`
	OptionIndex int    `json:"optionIndex"`
}

type EditMessagePayload struct {
	MessageID string `json:"messageId"`
	Content   string `json:"content"`
}

type DeleteMessagePayload struct {
	MessageID string `json:"messageId"`
}

type GetOnlineUsersPayload struct {
	GroupID string `json:"groupId"`
}

// -----------------------------------------------------------------
// WebSocket payloads - Server to Client
// -----------------------------------------------------------------

type JoinedGroupEvent struct {
	GroupID string `json:"groupId"`
}

type LeftGroupEvent struct {
	GroupID string `json:"groupId"`
}

type UserJoinedGroupEvent struct {
	GroupID string `json:"groupId"`
	UserID  string `json:"userId"`
}

type NewMessageEvent struct {
	Message *Message `json:"message"`
}

type MessageEditedEvent struct {
	MessageID string   `json:"messageId"`
	Message   *Message `json:"message"`
}

type MessageDeletedEvent struct {
	MessageID string `json:"messageId"`
	GroupID   string `json:"groupId"`
}

// MessageStatusUpdatedEvent is sent directly to the original sender so
// its UI can render per-recipient receipts.
type MessageStatusUpdatedEvent struct {
	MessageID string        `json:"messageId"`
	Status    DeliveryState `json:"status"`
	UserID    string        `json:"userId"`
}

// ReactionUpdatedEvent carries the full reaction aggregate so every
// client recomputes emoji counts identically.
type ReactionUpdatedEvent struct {
	MessageID string     `json:"messageId"`
	GroupID   string     `json:"groupId"`
	Reactions []Reaction `json:"reactions"`
}

// PollVotedEvent carries the authoritative poll state after a vote.
type PollVotedEvent struct {
	MessageID string `json:"messageId"`
	GroupID   string `json:"groupId"`
	Poll      *Poll  `json:"poll"`
}

type TypingEvent struct {
	GroupID string `json:"groupId"`
	UserID  string `json:"userId"`
}

type OnlineUsersEvent struct {
	GroupID string       `json:"groupId"`
	Users   []PublicUser `json:"users"`
}
