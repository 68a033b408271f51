package handlers

import (
	"CipherChat/service/chat"
)

type PingHandler struct{}

func NewPingHandler() chat.Handler   { return &PingHandler{} }
func (h *PingHandler) Event() string { return chat.EvPing }

// Pure echo; proves a live round trip without touching any state.
func (h *PingHandler) Handle(ctx *chat.Context, sess *chat.Session, _ *chat.Frame) error {
	ctx.S.EmitToSession(sess, chat.EvPong, chat.Pong{})
	return nil
}
