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

// GroupService implements group conversations: lifecycle, membership,
// messages with read receipts and soft deletes.
type GroupService struct {
	groups store.GroupStore
	msgs   store.GroupMessageStore
	notify Notifier

	now   func() time.Time
	newID func() string
}

func NewGroupService(groups store.GroupStore, msgs store.GroupMessageStore, notify Notifier) *GroupService {
	return &GroupService{
		groups: groups,
		msgs:   msgs,
		notify: notify,
		now:    time.Now,
		newID:  ids.GenerateString,
	}
}

// CreateGroup creates a group with the creator auto-added to members and
// admins. The creator stays both forever.
func (s *GroupService) CreateGroup(ctx context.Context, creatorID, name string, memberIDs []string, maxMembers int) (*model.Group, error) {
	if creatorID == "" {
		return nil, errs.ErrUnauthorized
	}
	if strings.TrimSpace(name) == "" {
		return nil, errs.ErrValidation.WithDetail("group name is required")
	}
	if len(memberIDs) == 0 {
		return nil, errs.ErrValidation.WithDetail("group needs at least one member")
	}
	if maxMembers <= 0 {
		maxMembers = model.DefaultMaxMembers
	}

	members := dedupe(append([]string{creatorID}, memberIDs...))
	if len(members) > maxMembers {
		return nil, errs.ErrValidation.WithDetail("member count exceeds max members")
	}

	now := s.now()
	g := &model.Group{
		ID:         s.newID(),
		Name:       strings.TrimSpace(name),
		Members:    members,
		Admins:     []string{creatorID},
		CreatedBy:  creatorID,
		MaxMembers: maxMembers,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.groups.Insert(ctx, g); err != nil {
		return nil, err
	}
	s.emitToMembers(g.Members, rooms.EventGroupUpdated, map[string]any{
		"action": "created",
		"group":  g,
	})
	return g, nil
}

// SendGroupMessage appends a message with the sender's own read receipt,
// refreshes the group's last-message snapshot, and fans out to every
// member's personal room.
func (s *GroupService) SendGroupMessage(ctx context.Context, groupID, senderID, content string, media *model.Media, replyTo string) (*model.GroupMessage, error) {
	g, err := s.groups.Get(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !g.IsMember(senderID) {
		return nil, errs.ErrAuthorization.WithDetail("sender is not a group member")
	}
	if strings.TrimSpace(content) == "" && media == nil {
		return nil, errs.ErrValidation.WithDetail("message requires content or media")
	}
	if err := validateMedia(media); err != nil {
		return nil, err
	}
	if replyTo != "" {
		rm, err := s.msgs.Get(ctx, replyTo)
		if err != nil {
			return nil, err
		}
		if rm.GroupID != groupID {
			return nil, errs.ErrNotFound.WithDetail("reply target is not in this group")
		}
	}

	now := s.now()
	m := &model.GroupMessage{
		ID:        s.newID(),
		GroupID:   groupID,
		SenderID:  senderID,
		Content:   content,
		Media:     media,
		ReplyTo:   replyTo,
		ReadBy:    []model.ReadReceipt{{UserID: senderID, ReadAt: now}},
		CreatedAt: now,
	}
	if err := s.msgs.Insert(ctx, m); err != nil {
		return nil, err
	}
	if err := s.groups.SetLastMessage(ctx, groupID, &model.GroupLastMessage{
		MessageID: m.ID,
		SenderID:  senderID,
		Preview:   preview(content, media),
		SentAt:    now,
	}, now); err != nil {
		return nil, err
	}

	s.emitToMembers(g.Members, rooms.EventGroupMessage, m)
	return m, nil
}

// AddMembers is admin-only and bounded by the group's max member count.
func (s *GroupService) AddMembers(ctx context.Context, groupID, actorID string, userIDs []string) error {
	g, err := s.groups.Get(ctx, groupID)
	if err != nil {
		return err
	}
	if !g.IsAdmin(actorID) {
		return errs.ErrAuthorization.WithDetail("only admins can add members")
	}

	var fresh []string
	for _, id := range dedupe(userIDs) {
		if !g.IsMember(id) {
			fresh = append(fresh, id)
		}
	}
	if len(fresh) == 0 {
		return nil
	}
	if len(g.Members)+len(fresh) > g.MaxMembers {
		return errs.ErrValidation.WithDetail("group is full")
	}
	if err := s.groups.AddMembers(ctx, groupID, fresh, s.now()); err != nil {
		return err
	}
	s.emitToMembers(append(g.Members, fresh...), rooms.EventGroupUpdated, map[string]any{
		"action":  "members-added",
		"groupId": groupID,
		"userIds": fresh,
	})
	return nil
}

// RemoveMember is admin-only. The creator can never be removed. The
// removed member gets a distinct "you were removed" event; everyone else
// gets the generic membership-changed one.
func (s *GroupService) RemoveMember(ctx context.Context, groupID, actorID, userID string) error {
	g, err := s.groups.Get(ctx, groupID)
	if err != nil {
		return err
	}
	if !g.IsAdmin(actorID) {
		return errs.ErrAuthorization.WithDetail("only admins can remove members")
	}
	if userID == g.CreatedBy {
		return errs.ErrAuthorization.WithDetail("creator cannot be removed")
	}
	if !g.IsMember(userID) {
		return errs.ErrNotFound.WithDetail("user is not a group member")
	}
	if err := s.groups.RemoveMember(ctx, groupID, userID, s.now()); err != nil {
		return err
	}
	s.emitToMembers(remaining(g.Members, userID), rooms.EventGroupUpdated, map[string]any{
		"action":  "member-removed",
		"groupId": groupID,
		"userId":  userID,
	})
	s.notify.EmitToUser(userID, rooms.EventRemovedFromGroup, map[string]any{
		"groupId":   groupID,
		"groupName": g.Name,
	})
	return nil
}

// LeaveGroup is self-only; the creator cannot leave.
func (s *GroupService) LeaveGroup(ctx context.Context, groupID, userID string) error {
	g, err := s.groups.Get(ctx, groupID)
	if err != nil {
		return err
	}
	if !g.IsMember(userID) {
		return errs.ErrNotFound.WithDetail("user is not a group member")
	}
	if userID == g.CreatedBy {
		return errs.ErrAuthorization.WithDetail("creator cannot leave the group")
	}
	if err := s.groups.RemoveMember(ctx, groupID, userID, s.now()); err != nil {
		return err
	}
	s.emitToMembers(remaining(g.Members, userID), rooms.EventGroupUpdated, map[string]any{
		"action":  "member-left",
		"groupId": groupID,
		"userId":  userID,
	})
	return nil
}

// MarkGroupMessageRead appends a read receipt; repeated calls are no-ops.
func (s *GroupService) MarkGroupMessageRead(ctx context.Context, messageID, userID string) error {
	m, err := s.msgs.Get(ctx, messageID)
	if err != nil {
		return err
	}
	g, err := s.groups.Get(ctx, m.GroupID)
	if err != nil {
		return err
	}
	if !g.IsMember(userID) {
		return errs.ErrAuthorization.WithDetail("reader is not a group member")
	}
	if err := s.msgs.MarkRead(ctx, messageID, userID, s.now()); err != nil {
		return err
	}
	s.notify.EmitToGroup(m.GroupID, rooms.EventGroupMessageRead, map[string]any{
		"messageId": messageID,
		"userId":    userID,
	})
	return nil
}

// DeleteGroupMessage is a sender-only soft delete.
func (s *GroupService) DeleteGroupMessage(ctx context.Context, messageID, senderID string) error {
	m, err := s.msgs.Get(ctx, messageID)
	if err != nil {
		return err
	}
	if m.SenderID != senderID {
		return errs.ErrAuthorization.WithDetail("only the sender can delete a group message")
	}
	if err := s.msgs.SoftDelete(ctx, messageID); err != nil {
		return err
	}
	s.notify.EmitToGroup(m.GroupID, rooms.EventGroupMessageDeleted, map[string]any{
		"messageId": messageID,
		"groupId":   m.GroupID,
	})
	return nil
}

// GroupUnreadCount counts live messages not authored by userID and not yet
// read by them.
func (s *GroupService) GroupUnreadCount(ctx context.Context, groupID, userID string) (int64, error) {
	return s.msgs.UnreadCount(ctx, groupID, userID)
}

// RenameGroup is admin-only.
func (s *GroupService) RenameGroup(ctx context.Context, groupID, actorID, name string) error {
	if strings.TrimSpace(name) == "" {
		return errs.ErrValidation.WithDetail("group name is required")
	}
	g, err := s.groups.Get(ctx, groupID)
	if err != nil {
		return err
	}
	if !g.IsAdmin(actorID) {
		return errs.ErrAuthorization.WithDetail("only admins can rename the group")
	}
	if err := s.groups.SetName(ctx, groupID, strings.TrimSpace(name), s.now()); err != nil {
		return err
	}
	s.emitToMembers(g.Members, rooms.EventGroupUpdated, map[string]any{
		"action":  "renamed",
		"groupId": groupID,
		"name":    strings.TrimSpace(name),
	})
	return nil
}

// PromoteAdmin is admin-only; the target must already be a member.
func (s *GroupService) PromoteAdmin(ctx context.Context, groupID, actorID, userID string) error {
	g, err := s.groups.Get(ctx, groupID)
	if err != nil {
		return err
	}
	if !g.IsAdmin(actorID) {
		return errs.ErrAuthorization.WithDetail("only admins can promote members")
	}
	if !g.IsMember(userID) {
		return errs.ErrNotFound.WithDetail("user is not a group member")
	}
	if err := s.groups.AddAdmin(ctx, groupID, userID, s.now()); err != nil {
		return err
	}
	s.emitToMembers(g.Members, rooms.EventGroupUpdated, map[string]any{
		"action":  "admin-added",
		"groupId": groupID,
		"userId":  userID,
	})
	return nil
}

// EnsureMember verifies membership before a room join.
func (s *GroupService) EnsureMember(ctx context.Context, groupID, userID string) error {
	g, err := s.groups.Get(ctx, groupID)
	if err != nil {
		return err
	}
	if !g.IsMember(userID) {
		return errs.ErrAuthorization.WithDetail("not a group member")
	}
	return nil
}

func (s *GroupService) ListGroups(ctx context.Context, userID string) ([]*model.Group, error) {
	return s.groups.ListByMember(ctx, userID)
}

func (s *GroupService) ListGroupMessages(ctx context.Context, groupID, userID string, limit int64) ([]*model.GroupMessage, error) {
	g, err := s.groups.Get(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !g.IsMember(userID) {
		return nil, errs.ErrAuthorization.WithDetail("reader is not a group member")
	}
	return s.msgs.ListByGroup(ctx, groupID, limit)
}

// GroupTyping fans out to the group room; membership-checked, nothing
// persisted.
func (s *GroupService) GroupTyping(ctx context.Context, groupID, userID string) error {
	g, err := s.groups.Get(ctx, groupID)
	if err != nil {
		return err
	}
	if !g.IsMember(userID) {
		return errs.ErrAuthorization.WithDetail("typist is not a group member")
	}
	s.notify.EmitToGroup(groupID, rooms.EventGroupTyping, map[string]any{"from": userID})
	return nil
}

// emitToMembers fans one event out to each member's personal room.
func (s *GroupService) emitToMembers(members []string, event string, data any) {
	for _, id := range members {
		s.notify.EmitToUser(id, event, data)
	}
}

func preview(content string, media *model.Media) string {
	if strings.TrimSpace(content) != "" {
		return content
	}
	if media != nil {
		return "[" + media.Kind + "]"
	}
	return ""
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

func remaining(members []string, removed string) []string {
	out := make([]string, 0, len(members))
	for _, m := range members {
		if m != removed {
			out = append(out, m)
		}
	}
	return out
}
