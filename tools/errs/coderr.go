package errs

import (
	"errors"
	"strconv"
)

// Stable codes for the realtime core taxonomy. Codes identify the class,
// Msg/Detail carry the human-readable part.
const (
	CodeValidation     = 1001
	CodeAuthorization  = 1002
	CodeNotFound       = 1003
	CodeFanout         = 1004
	CodeReconciliation = 1005
	CodeUnauthorized   = 1006
)

var (
	ErrValidation     = NewCodeError(CodeValidation, "validation failed")
	ErrAuthorization  = NewCodeError(CodeAuthorization, "not allowed")
	ErrNotFound       = NewCodeError(CodeNotFound, "not found")
	ErrFanout         = NewCodeError(CodeFanout, "fanout failed")
	ErrReconciliation = NewCodeError(CodeReconciliation, "reconciliation failed")
	ErrUnauthorized   = NewCodeError(CodeUnauthorized, "unauthorized")
)

func NewCodeError(code int, msg string) *CodeError {
	return &CodeError{
		Code: code,
		Msg:  msg,
	}
}

type CodeError struct {
	Code   int    `json:"code"`
	Msg    string `json:"msg"`
	Detail string `json:"detail,omitempty"`
}

// WithDetail returns a copy carrying extra detail; the receiver keeps its
// code so errors.Is against the sentinel still matches.
func (e *CodeError) WithDetail(detail string) *CodeError {
	d := detail
	if e.Detail != "" {
		d = e.Detail + ", " + detail
	}
	return &CodeError{Code: e.Code, Msg: e.Msg, Detail: d}
}

func (e *CodeError) Error() string {
	s := strconv.Itoa(e.Code) + " " + e.Msg
	if e.Detail != "" {
		s += ": " + e.Detail
	}
	return s
}

// Is matches any CodeError with the same code, so sentinel comparison
// survives WithDetail copies.
func (e *CodeError) Is(target error) bool {
	var t *CodeError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

func IsValidation(err error) bool     { return errors.Is(err, ErrValidation) }
func IsAuthorization(err error) bool  { return errors.Is(err, ErrAuthorization) }
func IsNotFound(err error) bool       { return errors.Is(err, ErrNotFound) }
func IsUnauthorized(err error) bool   { return errors.Is(err, ErrUnauthorized) }
func IsReconciliation(err error) bool { return errors.Is(err, ErrReconciliation) }

func New(msg string) error { return errors.New(msg) }
