package errs

import (
	"errors"
	"strconv"
	"strings"
)

// Error code ranges: 1xxx auth, 2xxx validation, 3xxx authorization, 4xxx persistence.
const (
	CodeTokenMissing = 1001
	CodeTokenInvalid = 1002

	CodeValidation = 2001

	CodeDenied = 3001

	CodePersistence = 4001
)

type CodeError struct {
	Code   int    `json:"code"`
	Msg    string `json:"msg"`
	Detail string `json:"detail,omitempty"`
}

func NewCodeError(code int, msg string) CodeError {
	return CodeError{Code: code, Msg: msg}
}

// WithDetail returns a copy carrying extra context; the code and msg stay
// stable so clients can match on them.
func (e *CodeError) WithDetail(detail string) CodeError {
	d := detail
	if e.Detail != "" {
		d = e.Detail + ", " + detail
	}
	return CodeError{Code: e.Code, Msg: e.Msg, Detail: d}
}

func (e *CodeError) Error() string {
	v := make([]string, 0, 3)
	v = append(v, strconv.Itoa(e.Code), e.Msg)
	if e.Detail != "" {
		v = append(v, e.Detail)
	}
	return strings.Join(v, " ")
}

func (e *CodeError) Is(err error) bool {
	var ce *CodeError
	if !errors.As(err, &ce) {
		return err == nil && e == nil
	}
	if e == nil {
		return false
	}
	return e.Code == ce.Code
}

// Stable instances. The two token messages are part of the handshake
// contract and must not change.
var (
	ErrTokenMissing = NewCodeError(CodeTokenMissing, "Authentication token missing")
	ErrTokenInvalid = NewCodeError(CodeTokenInvalid, "Invalid token")
	ErrValidation   = NewCodeError(CodeValidation, "Invalid payload")
	ErrDenied       = NewCodeError(CodeDenied, "Message not found or not yours")
	ErrPersistence  = NewCodeError(CodePersistence, "Failed to persist message")
)

func New(msg string) error { return errors.New(msg) }
