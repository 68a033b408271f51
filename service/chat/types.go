package chat

// Handler processes one inbound event type for one session.
type Handler interface {
	Event() string
	Handle(ctx *Context, sess *Session, f *Frame) error
}

type Context struct {
	S *Server
}
