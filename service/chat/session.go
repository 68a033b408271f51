package chat

import (
	"sync"
	"time"

	"CipherChat/logger"

	"github.com/gorilla/websocket"
)

// Session is one open handle: a single device/tab connection owned by an
// authenticated user. A user may hold any number of sessions concurrently;
// each session has its own writer goroutine consuming Send.
type Session struct {
	ConnID    string
	UserID    string
	Username  string
	AvatarURL string

	WS   *websocket.Conn
	Send chan []byte

	addSeq    uint64 // registry insertion order
	closeOnce sync.Once
	closing   chan struct{}
}

func NewSession(connID string, ws *websocket.Conn, sendQueueSize int) *Session {
	return &Session{
		ConnID:  connID,
		WS:      ws,
		Send:    make(chan []byte, sendQueueSize),
		closing: make(chan struct{}),
	}
}

// Enqueue hands a frame to the writer queue without blocking. A full queue
// means a slow client; the frame is dropped and reported to the caller.
func (s *Session) Enqueue(payload []byte) bool {
	select {
	case <-s.closing:
		return false
	default:
	}
	select {
	case s.Send <- payload:
		return true
	default:
		logger.Warnf("[session] send queue full, drop frame conn=%s user=%s", s.ConnID, s.UserID)
		return false
	}
}

// Close makes the writer pump shut the connection down. Safe to call from
// any goroutine, any number of times.
func (s *Session) Close() {
	s.closeOnce.Do(func() { close(s.closing) })
}

type writeConf struct {
	writeWait    time.Duration
	pingInterval time.Duration
}

// writePump is the only goroutine that writes to the websocket. It drains
// Send, keeps the transport alive with pings, and closes the socket on the
// way out.
func (s *Session) writePump(conf writeConf) {
	ticker := time.NewTicker(conf.pingInterval)
	defer func() {
		ticker.Stop()
		_ = s.WS.SetWriteDeadline(time.Now().Add(conf.writeWait))
		_ = s.WS.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		_ = s.WS.Close()
	}()

	for {
		select {
		case <-s.closing:
			return
		case payload, ok := <-s.Send:
			if !ok {
				return
			}
			_ = s.WS.SetWriteDeadline(time.Now().Add(conf.writeWait))
			if err := s.WS.WriteMessage(websocket.TextMessage, payload); err != nil {
				logger.Infof("[session] write err conn=%s user=%s err=%v", s.ConnID, s.UserID, err)
				return
			}
		case <-ticker.C:
			_ = s.WS.SetWriteDeadline(time.Now().Add(conf.writeWait))
			if err := s.WS.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(conf.writeWait)); err != nil {
				logger.Infof("[session] ping err conn=%s user=%s err=%v", s.ConnID, s.UserID, err)
				return
			}
		}
	}
}
