package handlers

import (
	"log"

	"CipherChat/service/chat"
	"CipherChat/tools/decode"
)

type ReadHandler struct{}

func NewReadHandler() chat.Handler   { return &ReadHandler{} }
func (h *ReadHandler) Event() string { return chat.EvReadMessage }

// Read receipts are best-effort: a no-match is silently ignored and
// persistence failures are swallowed (logged only).
func (h *ReadHandler) Handle(ctx *chat.Context, sess *chat.Session, f *chat.Frame) error {
	p, err := decode.Raw[chat.ReadMessage](f.Data)
	if err != nil || p.MessageID == "" {
		emitValidation(ctx, sess, "messageId is required")
		return nil
	}

	cctx, cancel := storeCtx()
	rec, serr := ctx.S.Store().MarkRead(cctx, p.MessageID)
	cancel()
	if serr != nil {
		log.Printf("[read] persist err msg=%s: %v", p.MessageID, serr)
		return nil
	}
	if rec == nil {
		return nil
	}

	ctx.S.EmitToUser(rec.SenderID, chat.EvMessageRead, chat.MessageRead{
		MessageID: rec.ID,
		Timestamp: nowMilli(),
	})
	return nil
}
