package chat

import (
	"CipherChat/logger"
)

// The emit primitives are the single choke point for outbound dispatch:
// every server->client frame goes through one of them.

// EmitToSession sends to one specific handle (acks, errors, replays).
func (s *Server) EmitToSession(sess *Session, event string, data any) bool {
	frame, err := MarshalFrame(event, data)
	if err != nil {
		logger.Errorf("[emit] %v", err)
		return false
	}
	return sess.Enqueue(frame)
}

// EmitToUser resolves the user to their live handles, or falls back to the
// outbox when none exist. The return value is whether live delivery
// happened; a miss is not an error.
func (s *Server) EmitToUser(userID, event string, data any) bool {
	frame, err := MarshalFrame(event, data)
	if err != nil {
		logger.Errorf("[emit] %v", err)
		return false
	}

	sessions := s.registry.ListUser(userID)
	if len(sessions) == 0 {
		s.outbox.Enqueue(userID, event, frame)
		return false
	}
	for _, sess := range sessions {
		sess.Enqueue(frame)
	}
	return true
}

// EmitLive is the registry-only variant: no live handle means the frame is
// dropped. Typing notices use this, stale typing after a reconnect being
// worse than none.
func (s *Server) EmitLive(userID, event string, data any) bool {
	sessions := s.registry.ListUser(userID)
	if len(sessions) == 0 {
		return false
	}
	frame, err := MarshalFrame(event, data)
	if err != nil {
		logger.Errorf("[emit] %v", err)
		return false
	}
	for _, sess := range sessions {
		sess.Enqueue(frame)
	}
	return true
}

// broadcastExcept fans a frame out to every open handle not owned by
// exceptUser. Presence announcements use it; the announced user learns its
// own state from the snapshot instead.
func (s *Server) broadcastExcept(exceptUser, event string, data any) {
	frame, err := MarshalFrame(event, data)
	if err != nil {
		logger.Errorf("[emit] %v", err)
		return
	}
	for _, sess := range s.registry.ListAll() {
		if sess.UserID == exceptUser {
			continue
		}
		sess.Enqueue(frame)
	}
}
