package ws

import (
	"context"
	"net/http"
	"time"

	"Linkup/logger"
	"Linkup/module/call"
	chatservice "Linkup/module/chat/service"
	"Linkup/module/chat/store"
	"Linkup/module/realtime/presence"
	"Linkup/module/realtime/rooms"
	"Linkup/service/storage"
	"Linkup/tools/security"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Deps wires the transport to the rest of the core. Everything is passed
// by reference; the server owns none of it.
type Deps struct {
	Registry *presence.Registry
	Router   *rooms.Router
	Users    store.UserStore
	Cache    *storage.PresenceCache // may be nil
	Direct   *chatservice.DirectService
	Groups   *chatservice.GroupService
	Calls    *call.Relay
	JWT      security.Options

	SnapshotTTL time.Duration
	SendBuf     int
}

type Server struct {
	deps     Deps
	handlers map[string]handlerFunc
}

func NewServer(d Deps) *Server {
	if d.SnapshotTTL <= 0 {
		d.SnapshotTTL = 10 * time.Second
	}
	s := &Server{deps: d}
	s.registerHandlers()
	return s
}

// HandleWS authenticates the handshake, upgrades, binds the session to the
// user's personal room and runs the read loop until the peer goes away.
func (s *Server) HandleWS(c *gin.Context) {
	principal, err := s.authenticate(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Infof("[ws] upgrade error: %v", err)
		return
	}

	sess := presence.NewSession(uuid.NewString(), principal.ID, s.deps.SendBuf)
	evicted, _ := s.deps.Registry.Register(sess)
	if evicted != nil {
		logger.Infof("[ws] evict oldest session user=%s session=%s", evicted.UserID, evicted.ID)
		evicted.Close()
	}

	s.markOnline(c.Request.Context(), principal.ID)
	s.broadcastOnline(c.Request.Context())

	go s.writePump(conn, sess)
	s.readLoop(c.Request.Context(), conn, sess, principal)
	s.teardown(sess)
}

func (s *Server) authenticate(c *gin.Context) (security.Principal, error) {
	token := c.Query("token")
	if token == "" {
		token = bearerToken(c.GetHeader("Authorization"))
	}
	if token == "" {
		return security.Principal{}, errUnauthorized
	}
	return security.Parse(token, s.deps.JWT)
}

// markOnline persists the online projection; failures are logged and the
// connection proceeds (the reconciler heals missed writes).
func (s *Server) markOnline(ctx context.Context, userID string) {
	now := time.Now()
	if err := s.deps.Users.MarkOnline(ctx, []string{userID}, now); err != nil {
		logger.Warnf("[ws] mark online user=%s: %v", userID, err)
	}
	if s.deps.Cache != nil {
		if err := s.deps.Cache.Refresh(ctx, []string{userID}, s.deps.SnapshotTTL); err != nil {
			logger.Warnf("[ws] presence snapshot user=%s: %v", userID, err)
		}
	}
}

func (s *Server) broadcastOnline(ctx context.Context) {
	online := presence.OnlineUnion(ctx, s.deps.Registry, s.deps.Users)
	s.deps.Router.Broadcast(rooms.EventOnlineUsers, online)
}

// teardown runs once the read loop exits, gracefully or not.
func (s *Server) teardown(sess *presence.Session) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	s.deps.Router.LeaveAll(sess)
	userID, wentOffline := s.deps.Registry.Unregister(sess.ID)
	sess.Close()

	if wentOffline {
		now := time.Now()
		if err := s.deps.Users.MarkOffline(ctx, []string{userID}, now); err != nil {
			logger.Warnf("[ws] mark offline user=%s: %v", userID, err)
		}
		if s.deps.Cache != nil {
			if err := s.deps.Cache.Drop(ctx, userID); err != nil {
				logger.Warnf("[ws] presence snapshot drop user=%s: %v", userID, err)
			}
		}
	}
	s.broadcastOnline(ctx)
	logger.Infof("[ws] session closed user=%s session=%s", sess.UserID, sess.ID)
}
