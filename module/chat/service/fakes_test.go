package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"Linkup/module/chat/model"
	errs "Linkup/tools/errs"
)

// recordingNotifier captures emitted events for assertions.
type recordingNotifier struct {
	mu     sync.Mutex
	toUser []emitted
	toGrp  []emitted
	bcast  []emitted
}

type emitted struct {
	target string
	event  string
	data   any
}

func (n *recordingNotifier) EmitToUser(userID, event string, data any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.toUser = append(n.toUser, emitted{target: userID, event: event, data: data})
}

func (n *recordingNotifier) EmitToGroup(groupID, event string, data any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.toGrp = append(n.toGrp, emitted{target: groupID, event: event, data: data})
}

func (n *recordingNotifier) Broadcast(event string, data any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.bcast = append(n.bcast, emitted{event: event, data: data})
}

func (n *recordingNotifier) userEvents(userID, event string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, e := range n.toUser {
		if e.target == userID && e.event == event {
			c++
		}
	}
	return c
}

// memMessageStore is an in-memory MessageStore.
type memMessageStore struct {
	mu   sync.Mutex
	msgs []*model.Message
}

func (s *memMessageStore) Insert(_ context.Context, m *model.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *m
	s.msgs = append(s.msgs, &cp)
	return nil
}

func (s *memMessageStore) find(id string) *model.Message {
	for _, m := range s.msgs {
		if m.ID == id {
			return m
		}
	}
	return nil
}

func (s *memMessageStore) Get(_ context.Context, id string) (*model.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m := s.find(id); m != nil {
		cp := *m
		return &cp, nil
	}
	return nil, errs.ErrNotFound.WithDetail("message " + id)
}

func inPair(m *model.Message, a, b string) bool {
	return (m.SenderID == a && m.ReceiverID == b) || (m.SenderID == b && m.ReceiverID == a)
}

func (s *memMessageStore) ListPair(_ context.Context, a, b string, after time.Time) ([]*model.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.Message
	for _, m := range s.msgs {
		if !inPair(m, a, b) {
			continue
		}
		if !after.IsZero() && !m.CreatedAt.After(after) {
			continue
		}
		cp := *m
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *memMessageStore) SetSeen(_ context.Context, id string) (*model.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.find(id)
	if m == nil {
		return nil, errs.ErrNotFound.WithDetail("message " + id)
	}
	m.Seen = true
	cp := *m
	return &cp, nil
}

func (s *memMessageStore) SetAllSeen(_ context.Context, senderID, receiverID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, m := range s.msgs {
		if m.SenderID == senderID && m.ReceiverID == receiverID && !m.Seen {
			m.Seen = true
			n++
		}
	}
	return n, nil
}

func (s *memMessageStore) Delete(_ context.Context, id string) (*model.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, m := range s.msgs {
		if m.ID == id {
			s.msgs = append(s.msgs[:i], s.msgs[i+1:]...)
			return m, nil
		}
	}
	return nil, errs.ErrNotFound.WithDetail("message " + id)
}

func (s *memMessageStore) ClearLastFlags(_ context.Context, a, b string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.msgs {
		if inPair(m, a, b) {
			m.IsLastMessage = false
		}
	}
	return nil
}

func (s *memMessageStore) SetLastFlag(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m := s.find(id); m != nil {
		m.IsLastMessage = true
	}
	return nil
}

func (s *memMessageStore) LastMessages(_ context.Context, userID string) ([]*model.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.Message
	for _, m := range s.msgs {
		if m.IsLastMessage && (m.SenderID == userID || m.ReceiverID == userID) {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *memMessageStore) flaggedInPair(a, b string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := 0
	for _, m := range s.msgs {
		if inPair(m, a, b) && m.IsLastMessage {
			c++
		}
	}
	return c
}

// memClearedStore is an in-memory ClearedChatStore.
type memClearedStore struct {
	mu    sync.Mutex
	marks map[string]*model.ClearedChat // userID|otherID
}

func newMemClearedStore() *memClearedStore {
	return &memClearedStore{marks: make(map[string]*model.ClearedChat)}
}

func (s *memClearedStore) Upsert(_ context.Context, userID, otherID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marks[userID+"|"+otherID] = &model.ClearedChat{UserID: userID, ChatWithUserID: otherID, ClearedAt: at}
	return nil
}

func (s *memClearedStore) Get(_ context.Context, userID, otherID string) (*model.ClearedChat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if w, ok := s.marks[userID+"|"+otherID]; ok {
		cp := *w
		return &cp, nil
	}
	return nil, nil
}

func (s *memClearedStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.marks)
}

// memGroupStore is an in-memory GroupStore.
type memGroupStore struct {
	mu     sync.Mutex
	groups map[string]*model.Group
}

func newMemGroupStore() *memGroupStore {
	return &memGroupStore{groups: make(map[string]*model.Group)}
}

func (s *memGroupStore) Insert(_ context.Context, g *model.Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *g
	s.groups[g.ID] = &cp
	return nil
}

func (s *memGroupStore) Get(_ context.Context, id string) (*model.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[id]
	if !ok {
		return nil, errs.ErrNotFound.WithDetail("group " + id)
	}
	cp := *g
	cp.Members = append([]string(nil), g.Members...)
	cp.Admins = append([]string(nil), g.Admins...)
	return &cp, nil
}

func (s *memGroupStore) AddMembers(_ context.Context, id string, userIDs []string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := s.groups[id]
	for _, u := range userIDs {
		if !g.IsMember(u) {
			g.Members = append(g.Members, u)
		}
	}
	g.UpdatedAt = at
	return nil
}

func (s *memGroupStore) RemoveMember(_ context.Context, id, userID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := s.groups[id]
	g.Members = removeString(g.Members, userID)
	g.Admins = removeString(g.Admins, userID)
	g.UpdatedAt = at
	return nil
}

func (s *memGroupStore) AddAdmin(_ context.Context, id, userID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := s.groups[id]
	if !g.IsAdmin(userID) {
		g.Admins = append(g.Admins, userID)
	}
	g.UpdatedAt = at
	return nil
}

func (s *memGroupStore) SetName(_ context.Context, id, name string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groups[id].Name = name
	s.groups[id].UpdatedAt = at
	return nil
}

func (s *memGroupStore) SetLastMessage(_ context.Context, id string, lm *model.GroupLastMessage, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groups[id].LastMessage = lm
	s.groups[id].UpdatedAt = at
	return nil
}

func (s *memGroupStore) ListByMember(_ context.Context, userID string) ([]*model.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.Group
	for _, g := range s.groups {
		if g.IsMember(userID) {
			cp := *g
			out = append(out, &cp)
		}
	}
	return out, nil
}

func removeString(in []string, s string) []string {
	out := in[:0]
	for _, v := range in {
		if v != s {
			out = append(out, v)
		}
	}
	return out
}

// memGroupMessageStore is an in-memory GroupMessageStore.
type memGroupMessageStore struct {
	mu   sync.Mutex
	msgs map[string]*model.GroupMessage
}

func newMemGroupMessageStore() *memGroupMessageStore {
	return &memGroupMessageStore{msgs: make(map[string]*model.GroupMessage)}
}

func (s *memGroupMessageStore) Insert(_ context.Context, m *model.GroupMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *m
	cp.ReadBy = append([]model.ReadReceipt(nil), m.ReadBy...)
	s.msgs[m.ID] = &cp
	return nil
}

func (s *memGroupMessageStore) Get(_ context.Context, id string) (*model.GroupMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.msgs[id]
	if !ok {
		return nil, errs.ErrNotFound.WithDetail("group message " + id)
	}
	cp := *m
	cp.ReadBy = append([]model.ReadReceipt(nil), m.ReadBy...)
	return &cp, nil
}

func (s *memGroupMessageStore) MarkRead(_ context.Context, id, userID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.msgs[id]
	if !ok {
		return errs.ErrNotFound.WithDetail("group message " + id)
	}
	if !m.ReadByUser(userID) {
		m.ReadBy = append(m.ReadBy, model.ReadReceipt{UserID: userID, ReadAt: at})
	}
	return nil
}

func (s *memGroupMessageStore) SoftDelete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.msgs[id]; ok {
		m.IsDeleted = true
	}
	return nil
}

func (s *memGroupMessageStore) UnreadCount(_ context.Context, groupID, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, m := range s.msgs {
		if m.GroupID == groupID && !m.IsDeleted && m.SenderID != userID && !m.ReadByUser(userID) {
			n++
		}
	}
	return n, nil
}

func (s *memGroupMessageStore) ListByGroup(_ context.Context, groupID string, limit int64) ([]*model.GroupMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.GroupMessage
	for _, m := range s.msgs {
		if m.GroupID == groupID && !m.IsDeleted {
			cp := *m
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}
