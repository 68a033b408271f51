package chat

import (
	"net"
	"net/http"
	"time"

	"CipherChat/global"
	"CipherChat/logger"
	"CipherChat/service/storage"
	"CipherChat/tools/errs"
	"CipherChat/tools/ids"
	"CipherChat/tools/safe"
	"CipherChat/tools/security"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Server owns the delivery core state: registry, presence, outbox, the
// dispatcher, and the two collaborator ports (message store, credential
// verifier). One instance per process; tests build isolated ones.
type Server struct {
	conf     global.GatewayConfig
	registry *Registry
	presence *Presence
	outbox   *Outbox
	store    storage.MessageStore
	disp     *Dispatcher
	jwtOpts  security.Options
}

func NewServer(conf global.GatewayConfig, store storage.MessageStore, jwtOpts security.Options) *Server {
	s := &Server{
		conf:     conf,
		registry: NewRegistry(),
		store:    store,
		disp:     NewDispatcher(),
		jwtOpts:  jwtOpts,
	}
	s.outbox = NewOutbox(OutboxConf{
		Cap:        conf.OutboxCap,
		TTL:        conf.OutboxTTL,
		SweepEvery: conf.OutboxSweepEvery,
	})
	s.presence = NewPresence(conf.OfflineGrace, s.announcePresence,
		func(userID string) bool { return s.registry.CountUser(userID) == 0 })
	return s
}

func (s *Server) Registry() *Registry         { return s.registry }
func (s *Server) Presence() *Presence         { return s.presence }
func (s *Server) Outbox() *Outbox             { return s.outbox }
func (s *Server) Store() storage.MessageStore { return s.store }
func (s *Server) Disp() *Dispatcher           { return s.disp }
func (s *Server) Conf() global.GatewayConfig  { return s.conf }

func (s *Server) Close() {
	s.outbox.Close()
	s.presence.Close()
	for _, sess := range s.registry.ListAll() {
		sess.Close()
	}
}

func (s *Server) announcePresence(userID, username string, online bool) {
	event := EvUserOnline
	if !online {
		event = EvUserOffline
	}
	logger.Infof("[presence] %s user=%s", event, userID)
	s.broadcastExcept(userID, event, UserPresence{UserID: userID, Username: username})
}

// authenticate runs the auth gate: bearer credential from the handshake
// query field `token`, falling back to the `auth_token` cookie. Any
// verification failure rejects the attempt before any state exists.
func (s *Server) authenticate(r *http.Request) (*security.Claims, *errs.CodeError) {
	token := r.URL.Query().Get("token")
	if token == "" {
		if ck, err := r.Cookie("auth_token"); err == nil {
			token = ck.Value
		}
	}
	if token == "" {
		return nil, &errs.ErrTokenMissing
	}
	claims, err := security.Verify(s.jwtOpts, token)
	if err != nil {
		// never log the token itself
		logger.Infof("[auth] verify failed: %v", err)
		return nil, &errs.ErrTokenInvalid
	}
	return claims, nil
}

// HandleWS is the connection pipeline: auth gate -> upgrade -> register ->
// presence -> snapshot -> outbox replay -> read loop -> teardown.
func (s *Server) HandleWS(c *gin.Context) {
	claims, cerr := s.authenticate(c.Request)
	if cerr != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": cerr.Msg})
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Infof("[HandleWS] upgrade websocket error: %v", err)
		return
	}

	sess := NewSession(ids.GenerateString(), ws, s.conf.SendQueueSize)
	sess.UserID = claims.UserID
	sess.Username = claims.Username
	sess.AvatarURL = claims.AvatarURL

	ws.SetReadLimit(s.conf.ReadLimit)
	_ = ws.SetReadDeadline(nowPlus(s.conf.PongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(nowPlus(s.conf.PongWait))
	})

	s.registry.Add(sess)
	s.presence.Connect(sess.UserID, sess.Username)
	safe.Go(func() { sess.writePump(writeConf{writeWait: s.conf.WriteWait, pingInterval: s.conf.PingInterval}) })

	// one-time full snapshot, then any events queued while the user was away
	s.EmitToSession(sess, EvOnlineUsers, OnlineUsers{UserIDs: s.presence.Snapshot()})
	s.outbox.DrainAndReplay(sess.UserID, sess)

	logger.Infof("[HandleWS] connected user=%s conn=%s", sess.UserID, sess.ConnID)
	s.readLoop(sess)

	// teardown: drop the handle first, then let presence decide on the
	// debounced offline announcement
	if userID, empty := s.registry.Remove(sess.ConnID); empty {
		s.presence.Disconnect(userID)
	}
	sess.Close()
	logger.Infof("[HandleWS] closed user=%s conn=%s", sess.UserID, sess.ConnID)
}

func nowPlus(d time.Duration) time.Time { return time.Now().Add(d) }

func (s *Server) readLoop(sess *Session) {
	for {
		mt, data, rerr := sess.WS.ReadMessage()
		if rerr != nil {
			if websocket.IsCloseError(rerr,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				logger.Infof("[WS] peer closed conn=%s err=%v", sess.ConnID, rerr)
			} else if ne, ok := rerr.(net.Error); ok && ne.Timeout() {
				logger.Infof("[WS] read timeout conn=%s err=%v", sess.ConnID, rerr)
			} else {
				logger.Infof("[WS] read err conn=%s err=%v", sess.ConnID, rerr)
			}
			return
		}
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}
		_ = sess.WS.SetReadDeadline(nowPlus(s.conf.PongWait))

		f, perr := ParseFrame(data)
		if perr != nil {
			// payload may carry ciphertext, log the error only
			logger.Infof("[WS] parse frame err conn=%s len=%d err=%v", sess.ConnID, len(data), perr)
			continue
		}

		h := s.disp.GetHandler(f.Event)
		if h == nil {
			logger.Infof("[WS] no handler for event=%s conn=%s", f.Event, sess.ConnID)
			continue
		}
		// Handlers surface user-facing failures themselves via
		// message-error; an error here is infrastructural and must not
		// affect other users.
		if err := h.Handle(&Context{S: s}, sess, f); err != nil {
			logger.Errorf("[WS] handler %s err conn=%s err=%v", f.Event, sess.ConnID, err)
		}
	}
}
