package handlers

import (
	"context"
	"time"

	"CipherChat/service/chat"
	"CipherChat/tools/errs"
)

const storeTimeout = 5 * time.Second

func storeCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), storeTimeout)
}

func nowMilli() int64 { return time.Now().UnixMilli() }

// emitValidation surfaces a malformed payload to the sender only; the
// connection stays open.
func emitValidation(ctx *chat.Context, sess *chat.Session, details string) {
	ctx.S.EmitToSession(sess, chat.EvMessageError, chat.MessageError{
		Error:   errs.ErrValidation.Msg,
		Details: details,
	})
}

// emitDenied is the generic edit/delete denial. It deliberately does not
// distinguish "not found" from "not yours".
func emitDenied(ctx *chat.Context, sess *chat.Session) {
	ctx.S.EmitToSession(sess, chat.EvMessageError, chat.MessageError{
		Error: errs.ErrDenied.Msg,
	})
}

// RegisterAll wires every inbound event handler into the dispatcher.
func RegisterAll(d *chat.Dispatcher) {
	d.Register(NewSendHandler())
	d.Register(NewTypingHandler())
	d.Register(NewReadHandler())
	d.Register(NewEditHandler())
	d.Register(NewDeleteHandler())
	d.Register(NewPingHandler())
}
