package event

// Chat Event Types - Client to Server
const (
	// EventJoinGroups - Subscribe to every group the caller belongs to
	EventJoinGroups = "join-groups"

	// EventJoinGroup - Subscribe to a single group
	EventJoinGroup = "join-group"

	// EventLeaveGroup - Unsubscribe from a group
	EventLeaveGroup = "leave-group"

	// EventSendMessage - Create and broadcast a new message
	EventSendMessage = "send-message"

	// EventTypingStart / EventTypingStop - Typing indicator updates
	EventTypingStart = "typing-start"
	EventTypingStop  = "typing-stop"

	// EventMessageDelivered / EventMessageSeen - Per-recipient delivery acks
	EventMessageDelivered = "message-delivered"
	EventMessageSeen      = "message-seen"

	// EventMarkGroupSeen - Batch-ack every unseen message in a group
	EventMarkGroupSeen = "mark-group-seen"

	// EventAddReaction / EventRemoveReaction - Reaction updates
	EventAddReaction    = "add-reaction"
	EventRemoveReaction = "remove-reaction"

	// EventVotePoll - Cast or move a poll vote
	EventVotePoll = "vote-poll"

	// EventEditMessage - Edit a text message (sender only)
	EventEditMessage = "edit-message"

	// EventDeleteMessage - Soft-delete a message (sender or admin)
	EventDeleteMessage = "delete-message"

	// EventGetOnlineUsers - Query online members of a group
	EventGetOnlineUsers = "get-online-users"
)

// Chat Event Types - Server to Client
const (
	// EventJoinedGroup - Ack to the joiner
	EventJoinedGroup = "joined-group"

	// EventLeftGroup - Ack to the leaver
	EventLeftGroup = "left-group"

	// EventUserJoinedGroup - Notify the rest of the group of a new subscriber
	EventUserJoinedGroup = "user-joined-group"

	// EventNewMessage - A message was created
	EventNewMessage = "new-message"

	// EventMessageEdited / EventMessageDeleted - Message lifecycle updates
	EventMessageEdited  = "message-edited"
	EventMessageDeleted = "message-deleted"

	// EventMessageStatusUpdated - Direct notice to the sender of a delivery ack
	EventMessageStatusUpdated = "message-status-updated"

	// EventReactionAdded / EventReactionRemoved - Reaction aggregate updates
	EventReactionAdded   = "reaction-added"
	EventReactionRemoved = "reaction-removed"

	// EventPollVoted - Authoritative poll state after a vote
	EventPollVoted = "poll-voted"

	// EventUserTyping / EventUserStoppedTyping - Typing indicator broadcasts
	EventUserTyping        = "user-typing"
	EventUserStoppedTyping = "user-stopped-typing"

	// EventOnlineUsers - Reply to get-online-users
	EventOnlineUsers = "online-users"

	// EventError - Request-scoped failure report
	EventError = "error"
)
