package handlers

import (
	"log"

	"CipherChat/service/chat"
	"CipherChat/service/storage"
	redisc "CipherChat/service/storage/redis"
	"CipherChat/tools/decode"
	"CipherChat/tools/errs"
	"CipherChat/tools/safe"
)

type SendHandler struct{}

func NewSendHandler() chat.Handler   { return &SendHandler{} }
func (h *SendHandler) Event() string { return chat.EvSendMessage }

func (h *SendHandler) Handle(ctx *chat.Context, sess *chat.Session, f *chat.Frame) error {
	p, err := decode.Raw[chat.SendMessage](f.Data)
	if err != nil {
		emitValidation(ctx, sess, "malformed send-message payload")
		return nil
	}
	if p.ToUserID == "" {
		emitValidation(ctx, sess, "toUserId is required")
		return nil
	}
	if p.Ciphertext == "" {
		emitValidation(ctx, sess, "ciphertext is required")
		return nil
	}

	cctx, cancel := storeCtx()
	rec, serr := ctx.S.Store().CreateMessage(cctx, sess.UserID, p.ToUserID, p.Ciphertext, p.AvatarURL)
	cancel()
	if serr != nil {
		log.Printf("[send] persist err from=%s to=%s: %v", sess.UserID, p.ToUserID, serr)
		ctx.S.EmitToSession(sess, chat.EvMessageError, chat.MessageError{
			Error:   errs.ErrPersistence.Msg,
			Details: serr.Error(),
		})
		return nil
	}

	// ack the sender on their own (always live) handle
	ctx.S.EmitToSession(sess, chat.EvMessageSent, chat.MessageSent{
		MessageID: rec.ID,
		Timestamp: rec.CreatedAt.UnixMilli(),
	})

	// the emit primitive re-resolves the recipient's handles after the
	// store call suspended us; stale pre-call reads are never trusted
	ctx.S.EmitToUser(p.ToUserID, chat.EvReceiveMessage, chat.ReceiveMessage{
		FromUserID:   sess.UserID,
		FromUsername: sess.Username,
		AvatarURL:    rec.AvatarURL,
		Ciphertext:   rec.Ciphertext,
		MessageID:    rec.ID,
		Timestamp:    rec.CreatedAt.UnixMilli(),
	})

	if redisc.GetRedis() != nil {
		safe.Go(func() {
			if _, merr := storage.MirrorMessage(rec); merr != nil {
				log.Printf("[send] history mirror err msg=%s: %v", rec.ID, merr)
			}
		})
	}
	return nil
}
