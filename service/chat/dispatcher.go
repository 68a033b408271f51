package chat

import (
	"fmt"

	"CipherChat/logger"
)

type Dispatcher struct {
	handlers map[string]Handler
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[string]Handler)}
}

func (d *Dispatcher) Register(h Handler) { d.handlers[h.Event()] = h }

func (d *Dispatcher) Dispatch(ctx *Context, sess *Session, f *Frame) error {
	h, ok := d.handlers[f.Event]
	if !ok {
		return fmt.Errorf("no handler for event=%s", f.Event)
	}
	return h.Handle(ctx, sess, f)
}

func (d *Dispatcher) GetHandler(event string) Handler {
	h, ok := d.handlers[event]
	if !ok {
		logger.Debugf("no handler for event=%s", event)
		return nil
	}
	return h
}
