package ws

import (
	"context"
	"encoding/json"

	"Linkup/logger"
	"Linkup/module/realtime/presence"
	errs "Linkup/tools/errs"
	"Linkup/tools/security"
)

var errUnauthorized = errs.ErrUnauthorized

// inboundFrame is the client-to-server envelope, mirroring the outbound
// rooms.Frame shape.
type inboundFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type handlerFunc func(ctx context.Context, sess *presence.Session, p security.Principal, data json.RawMessage) error

func (s *Server) registerHandlers() {
	s.handlers = map[string]handlerFunc{
		"join":           s.onJoin,
		"join-group":     s.onJoinGroup,
		"leave-group":    s.onLeaveGroup,
		"typing":         s.onTyping,
		"stop-typing":    s.onStopTyping,
		"group-typing":   s.onGroupTyping,
		"mark-seen":      s.onMarkSeen,
		"call-user":      s.onCallUser,
		"call-accepted":  s.onCallAccepted,
		"call-declined":  s.onCallDeclined,
		"call-cancelled": s.onCallCancelled,
	}
}

// dispatch routes one inbound frame. Handler errors are logged, never sent
// back; the socket is not a request/response channel.
func (s *Server) dispatch(ctx context.Context, sess *presence.Session, p security.Principal, raw []byte) {
	var f inboundFrame
	if err := json.Unmarshal(raw, &f); err != nil {
		sample := raw
		if len(sample) > 256 {
			sample = sample[:256]
		}
		logger.Infof("[ws] bad frame user=%s err=%v sample=%q", sess.UserID, err, sample)
		return
	}
	h, ok := s.handlers[f.Event]
	if !ok {
		logger.Infof("[ws] no handler for event=%s user=%s", f.Event, sess.UserID)
		return
	}
	if err := h(ctx, sess, p, f.Data); err != nil {
		logger.Infof("[ws] event=%s user=%s err=%v", f.Event, sess.UserID, err)
	}
}

type peerPayload struct {
	To     string          `json:"to"`
	Signal json.RawMessage `json:"signal,omitempty"`
}

type groupPayload struct {
	GroupID string `json:"groupId"`
}

type seenPayload struct {
	MessageID string `json:"messageId"`
	// SenderID set with All marks every message from that sender seen.
	SenderID string `json:"senderId,omitempty"`
	All      bool   `json:"all,omitempty"`
}

// onJoin is the explicit re-join after a client-side reconnect: re-assert
// the persisted flag and rebroadcast the online set.
func (s *Server) onJoin(ctx context.Context, sess *presence.Session, p security.Principal, _ json.RawMessage) error {
	s.markOnline(ctx, p.ID)
	s.broadcastOnline(ctx)
	return nil
}

func (s *Server) onJoinGroup(ctx context.Context, sess *presence.Session, p security.Principal, data json.RawMessage) error {
	var req groupPayload
	if err := json.Unmarshal(data, &req); err != nil {
		return err
	}
	if err := s.deps.Groups.EnsureMember(ctx, req.GroupID, p.ID); err != nil {
		return err
	}
	s.deps.Router.JoinGroup(req.GroupID, sess)
	return nil
}

func (s *Server) onLeaveGroup(_ context.Context, sess *presence.Session, _ security.Principal, data json.RawMessage) error {
	var req groupPayload
	if err := json.Unmarshal(data, &req); err != nil {
		return err
	}
	s.deps.Router.LeaveGroup(req.GroupID, sess)
	return nil
}

func (s *Server) onTyping(_ context.Context, _ *presence.Session, p security.Principal, data json.RawMessage) error {
	var req peerPayload
	if err := json.Unmarshal(data, &req); err != nil {
		return err
	}
	s.deps.Direct.Typing(p.ID, req.To)
	return nil
}

func (s *Server) onStopTyping(_ context.Context, _ *presence.Session, p security.Principal, data json.RawMessage) error {
	var req peerPayload
	if err := json.Unmarshal(data, &req); err != nil {
		return err
	}
	s.deps.Direct.StopTyping(p.ID, req.To)
	return nil
}

func (s *Server) onGroupTyping(ctx context.Context, _ *presence.Session, p security.Principal, data json.RawMessage) error {
	var req groupPayload
	if err := json.Unmarshal(data, &req); err != nil {
		return err
	}
	return s.deps.Groups.GroupTyping(ctx, req.GroupID, p.ID)
}

func (s *Server) onMarkSeen(ctx context.Context, _ *presence.Session, p security.Principal, data json.RawMessage) error {
	var req seenPayload
	if err := json.Unmarshal(data, &req); err != nil {
		return err
	}
	if req.All {
		return s.deps.Direct.MarkAllSeen(ctx, req.SenderID, p.ID)
	}
	_, err := s.deps.Direct.MarkSeen(ctx, req.MessageID)
	return err
}

func (s *Server) onCallUser(_ context.Context, _ *presence.Session, p security.Principal, data json.RawMessage) error {
	var req peerPayload
	if err := json.Unmarshal(data, &req); err != nil {
		return err
	}
	s.deps.Calls.CallUser(p.ID, p.Name, req.To, req.Signal)
	return nil
}

func (s *Server) onCallAccepted(_ context.Context, _ *presence.Session, p security.Principal, data json.RawMessage) error {
	var req peerPayload
	if err := json.Unmarshal(data, &req); err != nil {
		return err
	}
	s.deps.Calls.Accept(p.ID, req.To, req.Signal)
	return nil
}

func (s *Server) onCallDeclined(_ context.Context, _ *presence.Session, p security.Principal, data json.RawMessage) error {
	var req peerPayload
	if err := json.Unmarshal(data, &req); err != nil {
		return err
	}
	s.deps.Calls.Decline(p.ID, req.To)
	return nil
}

func (s *Server) onCallCancelled(_ context.Context, _ *presence.Session, p security.Principal, data json.RawMessage) error {
	var req peerPayload
	if err := json.Unmarshal(data, &req); err != nil {
		return err
	}
	s.deps.Calls.Cancel(p.ID, req.To)
	return nil
}
