package handlers

import (
	"log"

	"CipherChat/service/chat"
	"CipherChat/service/storage"
	"CipherChat/tools/decode"
	"CipherChat/tools/errs"
)

type EditHandler struct{}

func NewEditHandler() chat.Handler   { return &EditHandler{} }
func (h *EditHandler) Event() string { return chat.EvEditMessage }

// Edit requires the acting user to be the original author; the store's
// author-scoped lookup enforces that, and a miss of either kind produces
// the same generic denial.
func (h *EditHandler) Handle(ctx *chat.Context, sess *chat.Session, f *chat.Frame) error {
	p, err := decode.Raw[chat.EditMessage](f.Data)
	if err != nil || p.MessageID == "" {
		emitValidation(ctx, sess, "messageId is required")
		return nil
	}
	if p.Ciphertext == "" {
		emitValidation(ctx, sess, "ciphertext is required")
		return nil
	}

	patch := storage.MessagePatch{Ciphertext: &p.Ciphertext}
	if p.AvatarURL != "" {
		patch.AvatarURL = &p.AvatarURL
	}

	cctx, cancel := storeCtx()
	rec, serr := ctx.S.Store().UpdateIfAuthor(cctx, p.MessageID, sess.UserID, patch)
	cancel()
	if serr != nil {
		log.Printf("[edit] persist err msg=%s user=%s: %v", p.MessageID, sess.UserID, serr)
		ctx.S.EmitToSession(sess, chat.EvMessageError, chat.MessageError{Error: errs.ErrPersistence.Msg})
		return nil
	}
	if rec == nil {
		emitDenied(ctx, sess)
		return nil
	}

	edited := chat.MessageEdited{
		MessageID:  rec.ID,
		Ciphertext: rec.Ciphertext,
		AvatarURL:  rec.AvatarURL,
		Timestamp:  rec.EditedAt.UnixMilli(),
	}
	ctx.S.EmitToSession(sess, chat.EvMessageEdited, edited)
	ctx.S.EmitToUser(rec.ReceiverID, chat.EvMessageEdited, edited)
	return nil
}
