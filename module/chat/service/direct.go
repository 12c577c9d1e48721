package service

import (
	"context"
	"strings"
	"time"

	"Linkup/module/chat/model"
	"Linkup/module/chat/store"
	"Linkup/module/realtime/rooms"
	errs "Linkup/tools/errs"
	"Linkup/tools/ids"
)

// DirectService implements direct (1:1) conversations: send, history with
// the per-viewer cleared watermark, read receipts, delete, clear, typing.
type DirectService struct {
	msgs    store.MessageStore
	cleared store.ClearedChatStore
	notify  Notifier

	now   func() time.Time
	newID func() string
}

func NewDirectService(msgs store.MessageStore, cleared store.ClearedChatStore, notify Notifier) *DirectService {
	return &DirectService{
		msgs:    msgs,
		cleared: cleared,
		notify:  notify,
		now:     time.Now,
		newID:   ids.GenerateString,
	}
}

func validateMedia(media *model.Media) error {
	if media == nil {
		return nil
	}
	if media.URL == "" || media.Kind == "" || media.Filename == "" {
		return errs.ErrValidation.WithDetail("media requires url, kind and filename")
	}
	return nil
}

// SendMessage persists the message, recomputes the last-message flag for
// the pair (clear all, then set one — two store calls, not transactional;
// racing sends resolve to store write order, last writer wins), then
// pushes the message to both participants' rooms so local echoes can
// reconcile.
func (s *DirectService) SendMessage(ctx context.Context, senderID, receiverID, body string, media *model.Media) (*model.Message, error) {
	if senderID == "" || receiverID == "" {
		return nil, errs.ErrValidation.WithDetail("sender and receiver are required")
	}
	if strings.TrimSpace(body) == "" && media == nil {
		return nil, errs.ErrValidation.WithDetail("message requires body or media")
	}
	if err := validateMedia(media); err != nil {
		return nil, err
	}

	m := &model.Message{
		ID:         s.newID(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Body:       body,
		Media:      media,
		CreatedAt:  s.now(),
	}
	if err := s.msgs.Insert(ctx, m); err != nil {
		return nil, err
	}
	if err := s.msgs.ClearLastFlags(ctx, senderID, receiverID); err != nil {
		return nil, err
	}
	if err := s.msgs.SetLastFlag(ctx, m.ID); err != nil {
		return nil, err
	}
	m.IsLastMessage = true

	s.notify.EmitToUser(receiverID, rooms.EventMessage, m)
	s.notify.EmitToUser(senderID, rooms.EventMessage, m)
	return m, nil
}

// GetMessages returns the pair's history ascending by time, as seen by
// userID: messages at or before that user's cleared watermark are hidden.
// The counterparty's view is unaffected.
func (s *DirectService) GetMessages(ctx context.Context, userID, otherUserID string) ([]*model.Message, error) {
	var after time.Time
	w, err := s.cleared.Get(ctx, userID, otherUserID)
	if err != nil {
		return nil, err
	}
	if w != nil {
		after = w.ClearedAt
	}
	return s.msgs.ListPair(ctx, userID, otherUserID, after)
}

// MarkSeen flips seen on one message and notifies the original sender's
// room only.
func (s *DirectService) MarkSeen(ctx context.Context, messageID string) (*model.Message, error) {
	m, err := s.msgs.SetSeen(ctx, messageID)
	if err != nil {
		return nil, err
	}
	s.notify.EmitToUser(m.SenderID, rooms.EventMessageSeen, map[string]any{
		"messageId": m.ID,
		"seenBy":    m.ReceiverID,
	})
	return m, nil
}

// MarkAllSeen flips seen on every unseen message from senderID to
// receiverID. Idempotent: a second call finds nothing unseen and emits
// nothing.
func (s *DirectService) MarkAllSeen(ctx context.Context, senderID, receiverID string) error {
	n, err := s.msgs.SetAllSeen(ctx, senderID, receiverID)
	if err != nil {
		return err
	}
	if n > 0 {
		s.notify.EmitToUser(senderID, rooms.EventMessageSeen, map[string]any{
			"seenBy": receiverID,
			"all":    true,
		})
	}
	return nil
}

// DeleteMessage hard-deletes and broadcasts to all connections so every
// client can drop it locally (no ACL on deletes).
func (s *DirectService) DeleteMessage(ctx context.Context, messageID string) error {
	m, err := s.msgs.Delete(ctx, messageID)
	if err != nil {
		return err
	}
	s.notify.Broadcast(rooms.EventMessageDeleted, map[string]any{
		"messageId":  m.ID,
		"senderId":   m.SenderID,
		"receiverId": m.ReceiverID,
	})
	return nil
}

// ClearChat bumps userID's watermark against otherUserID to now and clears
// the pair's last-message flags, hiding the conversation from the "last
// messages" list for both sides until a new message arrives. Only the
// clearing user's view of history changes.
func (s *DirectService) ClearChat(ctx context.Context, userID, otherUserID string) error {
	if err := s.cleared.Upsert(ctx, userID, otherUserID, s.now()); err != nil {
		return err
	}
	if err := s.msgs.ClearLastFlags(ctx, userID, otherUserID); err != nil {
		return err
	}
	payload := map[string]any{"by": userID, "with": otherUserID}
	s.notify.EmitToUser(userID, rooms.EventChatCleared, payload)
	s.notify.EmitToUser(otherUserID, rooms.EventChatCleared, payload)
	return nil
}

// LastMessages is the conversation-list query: one flagged message per
// live conversation involving userID, newest first.
func (s *DirectService) LastMessages(ctx context.Context, userID string) ([]*model.Message, error) {
	return s.msgs.LastMessages(ctx, userID)
}

// Typing and StopTyping are pure fan-out; nothing is persisted.
func (s *DirectService) Typing(fromID, toID string) {
	s.notify.EmitToUser(toID, rooms.EventTyping, map[string]any{"from": fromID})
}

func (s *DirectService) StopTyping(fromID, toID string) {
	s.notify.EmitToUser(toID, rooms.EventStopTyping, map[string]any{"from": fromID})
}
