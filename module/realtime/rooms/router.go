package rooms

import (
	"encoding/json"
	"sync"

	"Linkup/logger"
	"Linkup/module/realtime/presence"
	errs "Linkup/tools/errs"
)

// Router addresses fan-out by room. Every connected session is implicitly
// in its user's personal room (backed by the presence registry); group
// rooms are joined on demand and tracked here. Emitting to a room with no
// transport bound, or to an empty room, is a no-op — never an error. A
// failed or dropped delivery is logged and swallowed; the durable write
// that preceded it is never rolled back.
type Router struct {
	reg *presence.Registry
	fan *Fanout

	mu     sync.RWMutex
	groups map[string]map[string]*presence.Session // groupID -> sessionID -> session
}

func NewRouter(reg *presence.Registry, fan *Fanout) *Router {
	return &Router{
		reg:    reg,
		fan:    fan,
		groups: make(map[string]map[string]*presence.Session),
	}
}

// JoinGroup binds the session to a group room.
func (r *Router) JoinGroup(groupID string, s *presence.Session) {
	if groupID == "" || s == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	mm := r.groups[groupID]
	if mm == nil {
		mm = make(map[string]*presence.Session)
		r.groups[groupID] = mm
	}
	mm[s.ID] = s
}

func (r *Router) LeaveGroup(groupID string, s *presence.Session) {
	if groupID == "" || s == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if mm := r.groups[groupID]; mm != nil {
		delete(mm, s.ID)
		if len(mm) == 0 {
			delete(r.groups, groupID)
		}
	}
}

// LeaveAll drops the session from every group room; called on disconnect.
func (r *Router) LeaveAll(s *presence.Session) {
	if s == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for gid, mm := range r.groups {
		delete(mm, s.ID)
		if len(mm) == 0 {
			delete(r.groups, gid)
		}
	}
}

// EmitToUser sends to every session in the user's personal room.
func (r *Router) EmitToUser(userID, event string, data any) {
	if r == nil || r.reg == nil || userID == "" {
		return
	}
	payload, ok := r.marshal(event, data)
	if !ok {
		return
	}
	r.fan.dispatch(r.reg.SessionsFor(userID), payload)
}

// EmitToGroup sends to every session currently joined to the group room —
// not to all group members. Members without a joined session simply miss
// the event; history backfill is the conversation store's job.
func (r *Router) EmitToGroup(groupID, event string, data any) {
	if r == nil || groupID == "" {
		return
	}
	payload, ok := r.marshal(event, data)
	if !ok {
		return
	}
	r.mu.RLock()
	mm := r.groups[groupID]
	sessions := make([]*presence.Session, 0, len(mm))
	for _, s := range mm {
		sessions = append(sessions, s)
	}
	r.mu.RUnlock()
	r.fan.dispatch(sessions, payload)
}

// Broadcast sends to every live session.
func (r *Router) Broadcast(event string, data any) {
	if r == nil || r.reg == nil {
		return
	}
	payload, ok := r.marshal(event, data)
	if !ok {
		return
	}
	r.fan.dispatch(r.reg.AllSessions(), payload)
}

func (r *Router) marshal(event string, data any) ([]byte, bool) {
	payload, err := json.Marshal(Frame{Event: event, Data: data})
	if err != nil {
		logger.Errorf("[rooms] marshal event=%s: %v", event, errs.ErrFanout.WithDetail(err.Error()))
		return nil, false
	}
	return payload, true
}
