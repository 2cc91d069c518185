package hub

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/MBSciTech/EcoChat/internal/event"
	"github.com/MBSciTech/EcoChat/internal/model"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// lockMessage resolves the message's room and re-reads the message under
// the room's write lock. The first read only resolves the room; the
// locked re-read is the copy a mutation may start from, so two in-flight
// events for one message never work from stale state. The caller owns
// room.writeMu when ok is true.
func (ch *ChatHandler) lockMessage(c *Client, messageID string) (*model.Message, *roomState, bool) {
	first, err := ch.findMessage(c, messageID)
	if first == nil || err != nil {
		return nil, nil, false
	}

	room := ch.hub.room(first.GroupID)
	room.writeMu.Lock()

	msg, err := ch.findMessage(c, messageID)
	if msg == nil || err != nil {
		room.writeMu.Unlock()
		return nil, nil, false
	}
	return msg, room, true
}

// -----------------------------------------------------------------
// Message lifecycle: send / edit / delete
// -----------------------------------------------------------------

func (ch *ChatHandler) handleSendMessage(ev event.WsEvent, c *Client) {
	var payload model.SendMessagePayload
	if err := json.Unmarshal(ev.Payload, &payload); err != nil || payload.GroupID == "" {
		ch.sendError(c, codeInvalidPayload, "failed to parse send-message request")
		return
	}

	kind := payload.Kind
	if kind == "" {
		kind = model.KindText
	}
	if !kind.Valid() {
		ch.sendError(c, codeInvalidPayload, "unknown message kind")
		return
	}
	if kind == model.KindPoll && (payload.Poll == nil || len(payload.Poll.Options) == 0) {
		ch.sendError(c, codeInvalidPayload, "poll messages need a question and options")
		return
	}

	group, err := ch.findGroup(c, payload.GroupID)
	if group == nil || err != nil {
		return
	}
	if !group.IsMember(c.userID) {
		ch.sendError(c, codeNotAMember, "you are not a member of this group")
		return
	}

	now := time.Now().UTC()
	msg := &model.Message{
		GroupID:   payload.GroupID,
		SenderID:  c.userID,
		Kind:      kind,
		Content:   payload.Content,
		MediaURL:  payload.MediaURL,
		ReplyTo:   payload.ReplyTo,
		Reactions: []model.Reaction{},
		Status:    model.NewDeliveryStatus(group.Members, c.userID),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if payload.Poll != nil {
		msg.Poll = &model.Poll{
			Question: payload.Poll.Question,
			Options: lo.Map(payload.Poll.Options, func(text string, _ int) model.PollOption {
				return model.PollOption{Text: text, Votes: []string{}}
			}),
		}
	}

	room := ch.hub.room(payload.GroupID)
	room.writeMu.Lock()
	defer room.writeMu.Unlock()

	// The create must land before anyone hears about the message.
	if _, err := ch.messages.InsertMessage(context.Background(), msg); err != nil {
		ch.sendError(c, codePersistence, "could not send message")
		return
	}

	ch.hub.ToRoom(payload.GroupID, event.New(event.EventNewMessage, model.NewMessageEvent{Message: msg}))
	ch.stopTyping(payload.GroupID, c.userID)
}

func (ch *ChatHandler) handleEditMessage(ev event.WsEvent, c *Client) {
	var payload model.EditMessagePayload
	if err := json.Unmarshal(ev.Payload, &payload); err != nil || payload.MessageID == "" {
		ch.sendError(c, codeInvalidPayload, "failed to parse edit-message request")
		return
	}

	msg, room, ok := ch.lockMessage(c, payload.MessageID)
	if !ok {
		return
	}
	defer room.writeMu.Unlock()

	if msg.Deleted {
		ch.sendError(c, codeNotFound, "message not found")
		return
	}
	if msg.SenderID != c.userID {
		ch.sendError(c, codeNotSender, "you can only edit your own messages")
		return
	}
	if !msg.Kind.Editable() {
		ch.sendError(c, codeNotAuthorized, "this kind of message cannot be edited")
		return
	}

	msg.Content = payload.Content
	msg.UpdatedAt = time.Now().UTC()

	if err := ch.messages.UpdateContent(context.Background(), payload.MessageID, msg.Content, msg.UpdatedAt); err != nil {
		ch.logger.Error("edit persist failed", zap.String("message_id", payload.MessageID), zap.Error(err))
	}

	ch.hub.ToRoom(msg.GroupID, event.New(event.EventMessageEdited, model.MessageEditedEvent{
		MessageID: payload.MessageID,
		Message:   msg,
	}))
}

func (ch *ChatHandler) handleDeleteMessage(ev event.WsEvent, c *Client) {
	var payload model.DeleteMessagePayload
	if err := json.Unmarshal(ev.Payload, &payload); err != nil || payload.MessageID == "" {
		ch.sendError(c, codeInvalidPayload, "failed to parse delete-message request")
		return
	}

	msg, room, ok := ch.lockMessage(c, payload.MessageID)
	if !ok {
		return
	}
	defer room.writeMu.Unlock()

	group, err := ch.findGroup(c, msg.GroupID)
	if group == nil || err != nil {
		return
	}
	if msg.SenderID != c.userID && !group.IsAdmin(c.userID) {
		ch.sendError(c, codeNotAuthorized, "only the sender or a group admin can delete a message")
		return
	}

	msg.MarkDeleted(time.Now().UTC())

	if err := ch.messages.MarkDeleted(context.Background(), payload.MessageID, *msg.DeletedAt); err != nil {
		ch.logger.Error("delete persist failed", zap.String("message_id", payload.MessageID), zap.Error(err))
	}

	ch.hub.ToRoom(msg.GroupID, event.New(event.EventMessageDeleted, model.MessageDeletedEvent{
		MessageID: payload.MessageID,
		GroupID:   msg.GroupID,
	}))
}

// -----------------------------------------------------------------
// Delivery status cascade
// -----------------------------------------------------------------

// handleMessageStatus applies one delivered/seen ack and notifies the
// original sender directly so its UI can render per-recipient receipts.
func (ch *ChatHandler) handleMessageStatus(ev event.WsEvent, c *Client, state model.DeliveryState) {
	var payload model.MessageStatusPayload
	if err := json.Unmarshal(ev.Payload, &payload); err != nil || payload.MessageID == "" {
		ch.sendError(c, codeInvalidPayload, "failed to parse status update")
		return
	}

	msg, room, ok := ch.lockMessage(c, payload.MessageID)
	if !ok {
		return
	}
	defer room.writeMu.Unlock()

	// only participants of the room ack delivery
	if !c.inRoom(msg.GroupID) {
		ch.sendError(c, codeNotAMember, "you are not a member of this group")
		return
	}
	if msg.Deleted {
		return
	}

	if !msg.MarkStatus(state, c.userID) {
		// already reached or passed; idempotent no-op
		return
	}

	if err := ch.messages.UpdateStatus(context.Background(), payload.MessageID, msg.Status); err != nil {
		ch.logger.Error("status persist failed",
			zap.String("message_id", payload.MessageID),
			zap.String("status", string(state)),
			zap.Error(err),
		)
	}

	ch.hub.ToParticipant(msg.SenderID, event.New(event.EventMessageStatusUpdated, model.MessageStatusUpdatedEvent{
		MessageID: payload.MessageID,
		Status:    state,
		UserID:    c.userID,
	}))
}

// handleMarkGroupSeen batch-acks every unseen message in the group for
// the caller. One message that fails to persist is logged and skipped so
// a bad record never blocks the batch.
func (ch *ChatHandler) handleMarkGroupSeen(ev event.WsEvent, c *Client) {
	var payload model.MarkGroupSeenPayload
	if err := json.Unmarshal(ev.Payload, &payload); err != nil || payload.GroupID == "" {
		ch.sendError(c, codeInvalidPayload, "failed to parse mark-group-seen request")
		return
	}

	group, err := ch.findGroup(c, payload.GroupID)
	if group == nil || err != nil {
		return
	}
	if !group.IsMember(c.userID) {
		ch.sendError(c, codeNotAMember, "you are not a member of this group")
		return
	}

	room := ch.hub.room(payload.GroupID)
	room.writeMu.Lock()
	defer room.writeMu.Unlock()

	// the sweep reads under the lock so concurrent acks cannot be undone
	msgs, err := ch.messages.FindUnseen(context.Background(), payload.GroupID, c.userID)
	if err != nil {
		ch.logger.Error("unseen lookup failed", zap.String("group_id", payload.GroupID), zap.Error(err))
		ch.sendError(c, codePersistence, "could not mark group as seen")
		return
	}

	for i := range msgs {
		msg := &msgs[i]
		if !msg.MarkStatus(model.StateSeen, c.userID) {
			continue
		}

		if err := ch.messages.UpdateStatus(context.Background(), msg.ID.Hex(), msg.Status); err != nil {
			ch.logger.Warn("skipping message in seen batch",
				zap.String("message_id", msg.ID.Hex()),
				zap.Error(err),
			)
			continue
		}

		ch.hub.ToParticipant(msg.SenderID, event.New(event.EventMessageStatusUpdated, model.MessageStatusUpdatedEvent{
			MessageID: msg.ID.Hex(),
			Status:    model.StateSeen,
			UserID:    c.userID,
		}))
	}
}

// -----------------------------------------------------------------
// Reactions
// -----------------------------------------------------------------

func (ch *ChatHandler) handleAddReaction(ev event.WsEvent, c *Client) {
	var payload model.ReactionPayload
	if err := json.Unmarshal(ev.Payload, &payload); err != nil || payload.MessageID == "" || payload.Emoji == "" {
		ch.sendError(c, codeInvalidPayload, "failed to parse reaction")
		return
	}

	msg, room, ok := ch.lockMessage(c, payload.MessageID)
	if !ok {
		return
	}
	defer room.writeMu.Unlock()

	if !c.inRoom(msg.GroupID) {
		ch.sendError(c, codeNotAMember, "you are not a member of this group")
		return
	}

	msg.AddReaction(c.userID, payload.Emoji)

	if err := ch.messages.UpdateReactions(context.Background(), payload.MessageID, msg.Reactions); err != nil {
		ch.logger.Error("reaction persist failed", zap.String("message_id", payload.MessageID), zap.Error(err))
	}

	ch.hub.ToRoom(msg.GroupID, event.New(event.EventReactionAdded, model.ReactionUpdatedEvent{
		MessageID: payload.MessageID,
		GroupID:   msg.GroupID,
		Reactions: msg.Reactions,
	}))
}

func (ch *ChatHandler) handleRemoveReaction(ev event.WsEvent, c *Client) {
	var payload model.ReactionPayload
	if err := json.Unmarshal(ev.Payload, &payload); err != nil || payload.MessageID == "" {
		ch.sendError(c, codeInvalidPayload, "failed to parse reaction")
		return
	}

	msg, room, ok := ch.lockMessage(c, payload.MessageID)
	if !ok {
		return
	}
	defer room.writeMu.Unlock()

	if !c.inRoom(msg.GroupID) {
		ch.sendError(c, codeNotAMember, "you are not a member of this group")
		return
	}

	// stale or mismatched emoji: silent no-op, nothing to persist
	if !msg.RemoveReaction(c.userID, payload.Emoji) {
		return
	}

	if err := ch.messages.UpdateReactions(context.Background(), payload.MessageID, msg.Reactions); err != nil {
		ch.logger.Error("reaction persist failed", zap.String("message_id", payload.MessageID), zap.Error(err))
	}

	ch.hub.ToRoom(msg.GroupID, event.New(event.EventReactionRemoved, model.ReactionUpdatedEvent{
		MessageID: payload.MessageID,
		GroupID:   msg.GroupID,
		Reactions: msg.Reactions,
	}))
}

// -----------------------------------------------------------------
// Poll ballots
// -----------------------------------------------------------------

func (ch *ChatHandler) handleVotePoll(ev event.WsEvent, c *Client) {
	var payload model.VotePollPayload
	if err := json.Unmarshal(ev.Payload, &payload); err != nil || payload.MessageID == "" {
		ch.sendError(c, codeInvalidPayload, "failed to parse vote")
		return
	}

	msg, room, ok := ch.lockMessage(c, payload.MessageID)
	if !ok {
		return
	}
	defer room.writeMu.Unlock()

	if !c.inRoom(msg.GroupID) {
		ch.sendError(c, codeNotAMember, "you are not a member of this group")
		return
	}

	if err := msg.Vote(c.userID, payload.OptionIndex); err != nil {
		switch {
		case errors.Is(err, model.ErrNotAPoll):
			ch.sendError(c, codeNotAPoll, "message is not a poll")
		case errors.Is(err, model.ErrInvalidOption):
			ch.sendError(c, codeInvalidOption, "poll option does not exist")
		default:
			ch.sendError(c, codeInvalidPayload, "could not register vote")
		}
		return
	}

	if err := ch.messages.UpdatePoll(context.Background(), payload.MessageID, msg.Poll); err != nil {
		ch.logger.Error("poll persist failed", zap.String("message_id", payload.MessageID), zap.Error(err))
	}

	ch.hub.ToRoom(msg.GroupID, event.New(event.EventPollVoted, model.PollVotedEvent{
		MessageID: payload.MessageID,
		GroupID:   msg.GroupID,
		Poll:      msg.Poll,
	}))
}
