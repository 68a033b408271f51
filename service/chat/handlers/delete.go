package handlers

import (
	"log"

	"CipherChat/service/chat"
	"CipherChat/service/storage"
	"CipherChat/tools/decode"
	"CipherChat/tools/errs"
)

type DeleteHandler struct{}

func NewDeleteHandler() chat.Handler   { return &DeleteHandler{} }
func (h *DeleteHandler) Event() string { return chat.EvDeleteMessage }

// Delete is a soft delete through the same author-scoped lookup as edit.
func (h *DeleteHandler) Handle(ctx *chat.Context, sess *chat.Session, f *chat.Frame) error {
	p, err := decode.Raw[chat.DeleteMessage](f.Data)
	if err != nil || p.MessageID == "" {
		emitValidation(ctx, sess, "messageId is required")
		return nil
	}

	deleted := true
	cctx, cancel := storeCtx()
	rec, serr := ctx.S.Store().UpdateIfAuthor(cctx, p.MessageID, sess.UserID, storage.MessagePatch{Deleted: &deleted})
	cancel()
	if serr != nil {
		log.Printf("[delete] persist err msg=%s user=%s: %v", p.MessageID, sess.UserID, serr)
		ctx.S.EmitToSession(sess, chat.EvMessageError, chat.MessageError{Error: errs.ErrPersistence.Msg})
		return nil
	}
	if rec == nil {
		emitDenied(ctx, sess)
		return nil
	}

	gone := chat.MessageDeleted{MessageID: rec.ID}
	ctx.S.EmitToSession(sess, chat.EvMessageDeleted, gone)
	ctx.S.EmitToUser(rec.ReceiverID, chat.EvMessageDeleted, gone)
	return nil
}
