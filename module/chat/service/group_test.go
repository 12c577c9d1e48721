package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"Linkup/module/chat/model"
	"Linkup/module/realtime/rooms"
	errs "Linkup/tools/errs"
)

func newGroupHarness() (*GroupService, *memGroupStore, *memGroupMessageStore, *recordingNotifier) {
	groups := newMemGroupStore()
	msgs := newMemGroupMessageStore()
	notify := &recordingNotifier{}
	svc := NewGroupService(groups, msgs, notify)

	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	tick := 0
	svc.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	seq := 0
	svc.newID = func() string {
		seq++
		return fmt.Sprintf("g%d", seq)
	}
	return svc, groups, msgs, notify
}

func mustCreateGroup(t *testing.T, svc *GroupService, creator string, members ...string) *model.Group {
	t.Helper()
	g, err := svc.CreateGroup(context.Background(), creator, "team", members, 0)
	if err != nil {
		t.Fatalf("create group: %v", err)
	}
	return g
}

func TestCreateGroup(t *testing.T) {
	svc, _, _, _ := newGroupHarness()
	ctx := context.Background()

	tests := []struct {
		name    string
		creator string
		gname   string
		members []string
		max     int
		check   func(error) bool
	}{
		{name: "no creator", gname: "x", members: []string{"b"}, check: errs.IsUnauthorized},
		{name: "blank name", creator: "a", gname: "  ", members: []string{"b"}, check: errs.IsValidation},
		{name: "no members", creator: "a", gname: "x", check: errs.IsValidation},
		{name: "over capacity", creator: "a", gname: "x", members: []string{"b", "c", "d"}, max: 2, check: errs.IsValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateGroup(ctx, tt.creator, tt.gname, tt.members, tt.max)
			if !tt.check(err) {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}

	g, err := svc.CreateGroup(ctx, "alice", "team", []string{"bob", "bob", "alice", "carol"}, 0)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(g.Members) != 3 {
		t.Fatalf("members = %v, want deduped alice/bob/carol", g.Members)
	}
	if !g.IsAdmin("alice") || g.CreatedBy != "alice" {
		t.Fatal("creator should be admin and recorded as creator")
	}
	if g.MaxMembers != model.DefaultMaxMembers {
		t.Fatalf("max members = %d, want default %d", g.MaxMembers, model.DefaultMaxMembers)
	}
}

func TestSendGroupMessage(t *testing.T) {
	svc, _, _, notify := newGroupHarness()
	ctx := context.Background()
	g := mustCreateGroup(t, svc, "alice", "bob", "carol")

	m, err := svc.SendGroupMessage(ctx, g.ID, "alice", "hello team", nil, "")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if !m.ReadByUser("alice") {
		t.Fatal("sender should start in the read set")
	}
	for _, member := range []string{"alice", "bob", "carol"} {
		if notify.userEvents(member, rooms.EventGroupMessage) != 1 {
			t.Fatalf("%s did not receive the group message", member)
		}
	}

	got, err := svc.ListGroups(ctx, "bob")
	if err != nil {
		t.Fatalf("list groups: %v", err)
	}
	if len(got) != 1 || got[0].LastMessage == nil || got[0].LastMessage.MessageID != m.ID {
		t.Fatal("group last-message snapshot should point at the new message")
	}

	// Non-members are rejected.
	if _, err := svc.SendGroupMessage(ctx, g.ID, "mallory", "hi", nil, ""); !errs.IsAuthorization(err) {
		t.Fatalf("want authorization error, got %v", err)
	}

	// Reply targets must live in the same group.
	other := mustCreateGroup(t, svc, "alice", "dave")
	om, err := svc.SendGroupMessage(ctx, other.ID, "alice", "elsewhere", nil, "")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if _, err := svc.SendGroupMessage(ctx, g.ID, "bob", "re", nil, om.ID); !errs.IsNotFound(err) {
		t.Fatalf("cross-group reply should be not-found, got %v", err)
	}
	if _, err := svc.SendGroupMessage(ctx, g.ID, "bob", "re", nil, m.ID); err != nil {
		t.Fatalf("same-group reply: %v", err)
	}
}

func TestRemovedMemberCannotSend(t *testing.T) {
	svc, _, _, notify := newGroupHarness()
	ctx := context.Background()
	g := mustCreateGroup(t, svc, "alice", "bob")

	if err := svc.RemoveMember(ctx, g.ID, "alice", "bob"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if notify.userEvents("bob", rooms.EventRemovedFromGroup) != 1 {
		t.Fatal("removed member should get the removed-from-group event")
	}
	if notify.userEvents("alice", rooms.EventRemovedFromGroup) != 0 {
		t.Fatal("remaining members should not get the removed-from-group event")
	}
	if notify.userEvents("alice", rooms.EventGroupUpdated) < 1 {
		t.Fatal("remaining members should get the membership-change event")
	}

	if _, err := svc.SendGroupMessage(ctx, g.ID, "bob", "still here?", nil, ""); !errs.IsAuthorization(err) {
		t.Fatalf("removed member send should be rejected, got %v", err)
	}
	if err := svc.EnsureMember(ctx, g.ID, "bob"); !errs.IsAuthorization(err) {
		t.Fatalf("removed member join should be rejected, got %v", err)
	}
	// Remaining members are unaffected.
	if _, err := svc.SendGroupMessage(ctx, g.ID, "alice", "moving on", nil, ""); err != nil {
		t.Fatalf("remaining member send: %v", err)
	}
}

func TestMembershipRules(t *testing.T) {
	svc, _, _, _ := newGroupHarness()
	ctx := context.Background()
	g := mustCreateGroup(t, svc, "alice", "bob", "carol")

	tests := []struct {
		name  string
		op    func() error
		check func(error) bool
	}{
		{
			name:  "non-admin cannot add",
			op:    func() error { return svc.AddMembers(ctx, g.ID, "bob", []string{"dave"}) },
			check: errs.IsAuthorization,
		},
		{
			name:  "non-admin cannot remove",
			op:    func() error { return svc.RemoveMember(ctx, g.ID, "bob", "carol") },
			check: errs.IsAuthorization,
		},
		{
			name:  "creator cannot be removed",
			op:    func() error { return svc.RemoveMember(ctx, g.ID, "alice", "alice") },
			check: errs.IsAuthorization,
		},
		{
			name:  "creator cannot leave",
			op:    func() error { return svc.LeaveGroup(ctx, g.ID, "alice") },
			check: errs.IsAuthorization,
		},
		{
			name:  "remove non-member",
			op:    func() error { return svc.RemoveMember(ctx, g.ID, "alice", "mallory") },
			check: errs.IsNotFound,
		},
		{
			name:  "promote non-member",
			op:    func() error { return svc.PromoteAdmin(ctx, g.ID, "alice", "mallory") },
			check: errs.IsNotFound,
		},
		{
			name:  "non-admin cannot rename",
			op:    func() error { return svc.RenameGroup(ctx, g.ID, "bob", "new name") },
			check: errs.IsAuthorization,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.op(); !tt.check(err) {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}

	// Promoted admin gains admin powers.
	if err := svc.PromoteAdmin(ctx, g.ID, "alice", "bob"); err != nil {
		t.Fatalf("promote: %v", err)
	}
	if err := svc.AddMembers(ctx, g.ID, "bob", []string{"dave"}); err != nil {
		t.Fatalf("promoted admin add: %v", err)
	}

	// Members can leave on their own.
	if err := svc.LeaveGroup(ctx, g.ID, "carol"); err != nil {
		t.Fatalf("leave: %v", err)
	}
	if err := svc.EnsureMember(ctx, g.ID, "carol"); !errs.IsAuthorization(err) {
		t.Fatal("left member should no longer pass the membership check")
	}
}

func TestAddMembersCapacity(t *testing.T) {
	svc, _, _, _ := newGroupHarness()
	ctx := context.Background()

	g, err := svc.CreateGroup(ctx, "alice", "tiny", []string{"bob"}, 3)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Re-adding an existing member is a silent no-op.
	if err := svc.AddMembers(ctx, g.ID, "alice", []string{"bob"}); err != nil {
		t.Fatalf("re-add: %v", err)
	}
	if err := svc.AddMembers(ctx, g.ID, "alice", []string{"carol"}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := svc.AddMembers(ctx, g.ID, "alice", []string{"dave"}); !errs.IsValidation(err) {
		t.Fatalf("over-capacity add should fail validation, got %v", err)
	}
}

func TestGroupReadReceiptsAndUnread(t *testing.T) {
	svc, _, msgs, notify := newGroupHarness()
	ctx := context.Background()
	g := mustCreateGroup(t, svc, "alice", "bob", "carol")

	m1, err := svc.SendGroupMessage(ctx, g.ID, "alice", "one", nil, "")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if _, err := svc.SendGroupMessage(ctx, g.ID, "alice", "two", nil, ""); err != nil {
		t.Fatalf("send: %v", err)
	}

	// Sender's own receipt keeps their unread at zero.
	n, err := svc.GroupUnreadCount(ctx, g.ID, "alice")
	if err != nil || n != 0 {
		t.Fatalf("alice unread = %d (%v), want 0", n, err)
	}
	n, err = svc.GroupUnreadCount(ctx, g.ID, "bob")
	if err != nil || n != 2 {
		t.Fatalf("bob unread = %d (%v), want 2", n, err)
	}

	// Marking read twice leaves a single receipt.
	if err := svc.MarkGroupMessageRead(ctx, m1.ID, "bob"); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if err := svc.MarkGroupMessageRead(ctx, m1.ID, "bob"); err != nil {
		t.Fatalf("mark read again: %v", err)
	}
	got, err := msgs.Get(ctx, m1.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	receipts := 0
	for _, r := range got.ReadBy {
		if r.UserID == "bob" {
			receipts++
		}
	}
	if receipts != 1 {
		t.Fatalf("bob has %d receipts on one message, want 1", receipts)
	}
	n, err = svc.GroupUnreadCount(ctx, g.ID, "bob")
	if err != nil || n != 1 {
		t.Fatalf("bob unread = %d (%v), want 1", n, err)
	}

	// Non-members cannot record receipts.
	if err := svc.MarkGroupMessageRead(ctx, m1.ID, "mallory"); !errs.IsAuthorization(err) {
		t.Fatalf("want authorization error, got %v", err)
	}

	if len(notify.toGrp) == 0 || notify.toGrp[0].event != rooms.EventGroupMessageRead {
		t.Fatal("read receipt should fan out to the group room")
	}
}

func TestDeleteGroupMessage(t *testing.T) {
	svc, _, _, notify := newGroupHarness()
	ctx := context.Background()
	g := mustCreateGroup(t, svc, "alice", "bob")

	m, err := svc.SendGroupMessage(ctx, g.ID, "alice", "typo", nil, "")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if err := svc.DeleteGroupMessage(ctx, m.ID, "bob"); !errs.IsAuthorization(err) {
		t.Fatalf("non-sender delete should be rejected, got %v", err)
	}
	if err := svc.DeleteGroupMessage(ctx, m.ID, "alice"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	// Soft-deleted messages disappear from history and unread counts.
	list, err := svc.ListGroupMessages(ctx, g.ID, "bob", 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("history shows %d messages after delete, want 0", len(list))
	}
	n, err := svc.GroupUnreadCount(ctx, g.ID, "bob")
	if err != nil || n != 0 {
		t.Fatalf("bob unread = %d (%v), want 0 after delete", n, err)
	}

	found := false
	for _, e := range notify.toGrp {
		if e.event == rooms.EventGroupMessageDeleted {
			found = true
		}
	}
	if !found {
		t.Fatal("delete should fan out to the group room")
	}
}

func TestGroupTyping(t *testing.T) {
	svc, _, _, notify := newGroupHarness()
	ctx := context.Background()
	g := mustCreateGroup(t, svc, "alice", "bob")

	if err := svc.GroupTyping(ctx, g.ID, "mallory"); !errs.IsAuthorization(err) {
		t.Fatalf("non-member typing should be rejected, got %v", err)
	}
	if err := svc.GroupTyping(ctx, g.ID, "bob"); err != nil {
		t.Fatalf("typing: %v", err)
	}
	if len(notify.toGrp) != 1 || notify.toGrp[0].event != rooms.EventGroupTyping {
		t.Fatalf("want one group typing event, got %+v", notify.toGrp)
	}
}
