package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

type MembershipChecker interface {
	IsParticipant(ctx context.Context, chatID, userID int64) (bool, error)
}

type Server struct {
	upgrader  websocket.Upgrader
	hub       *Hub
	chats     MembershipChecker
	jwtSecret []byte

	pingEvery time.Duration
}

func NewServer(hub *Hub, chats MembershipChecker, jwtSecret string) *Server {
	return &Server{
		hub:       hub,
		chats:     chats,
		jwtSecret: []byte(jwtSecret),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		pingEvery: 15 * time.Second,
	}
}

// WS endpoint: GET /ws?access_token=...
// One connection serves all of the user's chats; the client subscribes to
// rooms with join_chat/leave_chat events.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimSpace(r.URL.Query().Get("access_token"))
	if token == "" {
		http.Error(w, "missing access_token", http.StatusUnauthorized)
		return
	}
	userID, err := s.parseUserID(token)
	if err != nil {
		http.Error(w, "invalid access_token", http.StatusUnauthorized)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("ws upgrade failed", "user", userID, "err", err)
		return
	}

	c := newWsConn(conn, userID)
	s.hub.Add(c)
	slog.Debug("ws connected", "conn", c.id, "user", userID)

	go s.writeLoop(c)
	s.readLoop(r.Context(), c)

	// the single disconnect path: readLoop returned, for whatever reason
	s.hub.Remove(c.id)
	if err := c.Close(); err != nil {
		slog.Debug("ws close failed", "conn", c.id, "user", userID, "err", err)
	}
	slog.Debug("ws disconnected", "conn", c.id, "user", userID)
}

func (s *Server) parseUserID(tokenStr string) (int64, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return 0, errors.New("invalid token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, errors.New("invalid claims")
	}
	id, ok := claims["user_id"].(float64)
	if !ok || id <= 0 {
		return 0, errors.New("missing user_id claim")
	}
	return int64(id), nil
}

func (s *Server) readLoop(ctx context.Context, c *wsConn) {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(1 << 20)
	c.conn.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}

		switch msg.Type {
		case TypeJoinChat:
			var p RoomPayload
			if decode(msg.Payload, &p) != nil || p.ChatID <= 0 {
				continue
			}
			ok, err := s.chats.IsParticipant(ctx, p.ChatID, c.userID)
			if err != nil {
				slog.Warn("ws membership check failed", "chat", p.ChatID, "user", c.userID, "err", err)
				continue
			}
			if !ok {
				_ = c.Send(Message{Type: TypeError, Payload: ErrorPayload{Error: "not a participant"}})
				continue
			}
			s.hub.Join(c.id, p.ChatID)
			_ = c.Send(Message{Type: TypeJoinAck, Payload: RoomPayload{ChatID: p.ChatID}})
		case TypeLeaveChat:
			var p RoomPayload
			if decode(msg.Payload, &p) == nil && p.ChatID > 0 {
				s.hub.Leave(c.id, p.ChatID)
			}
		default:
			// ignore
		}
	}
}

func (s *Server) writeLoop(c *wsConn) {
	ticker := time.NewTicker(s.pingEvery)
	defer ticker.Stop()

	for {
		select {
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := c.conn.WriteJSON(msg); err != nil {
				_ = c.Close()
				return
			}
		case <-ticker.C:
			_ = c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
		case <-c.closed:
			return
		}
	}
}

// --- helpers ---

func decode(payload interface{}, dst interface{}) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, dst)
}

type wsConn struct {
	conn   *websocket.Conn
	id     string
	userID int64
	send   chan Message
	closed chan struct{}
	once   sync.Once
}

func newWsConn(c *websocket.Conn, userID int64) *wsConn {
	return &wsConn{
		conn:   c,
		id:     uuid.NewString(),
		userID: userID,
		send:   make(chan Message, 64),
		closed: make(chan struct{}),
	}
}

// Send enqueues without blocking. A connection whose buffer is full is
// dropped so one slow client never holds up a broadcast.
func (c *wsConn) Send(msg Message) error {
	select {
	case <-c.closed:
		return errors.New("connection closed")
	default:
	}
	select {
	case c.send <- msg:
		return nil
	default:
		_ = c.Close()
		return errors.New("send buffer full")
	}
}

func (c *wsConn) Close() error {
	var err error
	c.once.Do(func() {
		close(c.closed)
		err = c.conn.Close()
	})
	return err
}

func (c *wsConn) ID() string    { return c.id }
func (c *wsConn) UserID() int64 { return c.userID }
