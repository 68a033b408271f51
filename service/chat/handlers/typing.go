package handlers

import (
	"CipherChat/service/chat"
	"CipherChat/tools/decode"
)

type TypingHandler struct{}

func NewTypingHandler() chat.Handler   { return &TypingHandler{} }
func (h *TypingHandler) Event() string { return chat.EvTyping }

// Typing is registry-only: no persistence, no queuing. A recipient without
// a live handle simply does not hear about it.
func (h *TypingHandler) Handle(ctx *chat.Context, sess *chat.Session, f *chat.Frame) error {
	p, err := decode.Raw[chat.TypingReq](f.Data)
	if err != nil || p.ToUserID == "" {
		emitValidation(ctx, sess, "toUserId is required")
		return nil
	}
	ctx.S.EmitLive(p.ToUserID, chat.EvTyping, chat.TypingNotice{
		FromUserID:   sess.UserID,
		FromUsername: sess.Username,
	})
	return nil
}
