package ws

import (
	"context"
	"net"
	"strings"
	"time"

	"Linkup/logger"
	"Linkup/module/realtime/presence"
	"Linkup/tools/security"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second

	maxFrameSize = 64 << 10
)

// writePump drains the session's send queue onto the socket and keeps the
// connection alive with pings. It is the only writer on the socket.
func (s *Server) writePump(conn *websocket.Conn, sess *presence.Session) {
	t := time.NewTicker(pingPeriod)
	defer func() {
		t.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case payload := <-sess.Send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				logger.Debugf("[ws] write user=%s: %v", sess.UserID, err)
				return
			}
		case <-t.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-sess.Done():
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// readLoop reads inbound frames until the peer closes or errors. It only
// reads; the write pump owns the socket's write side.
func (s *Server) readLoop(ctx context.Context, conn *websocket.Conn, sess *presence.Session, principal security.Principal) {
	conn.SetReadLimit(maxFrameSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				logger.Infof("[ws] peer closed user=%s session=%s", sess.UserID, sess.ID)
			} else if ne, ok := err.(net.Error); ok && ne.Timeout() {
				logger.Infof("[ws] read timeout user=%s session=%s", sess.UserID, sess.ID)
			} else {
				logger.Infof("[ws] read err user=%s session=%s err=%v", sess.UserID, sess.ID, err)
			}
			return
		}
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}
		s.dispatch(ctx, sess, principal, data)
	}
}

func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return strings.TrimSpace(header[len("bearer "):])
	}
	return header
}
