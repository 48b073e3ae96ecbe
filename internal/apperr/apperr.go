package apperr

import (
	"errors"
	"fmt"

	goerrors "github.com/go-errors/errors"
)

// Kind classifies a failure so the HTTP layer can pick a status code.
type Kind string

const (
	KindInvalidInput       Kind = "INVALID_INPUT"
	KindConflict           Kind = "CONFLICT"
	KindInvalidCredentials Kind = "INVALID_CREDENTIALS"
	KindUnauthenticated    Kind = "UNAUTHENTICATED"
	KindForbidden          Kind = "FORBIDDEN"
	KindNotFound           Kind = "NOT_FOUND"
	KindRateLimited        Kind = "RATE_LIMITED"
	KindUnexpected         Kind = "UNEXPECTED"
)

// Error 是业务层统一的错误类型，携带分类、对外消息、原始错误与调用栈。
type Error struct {
	Kind    Kind
	Message string
	Err     error
	Stack   []byte
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New builds an Error and captures the caller's stack.
func New(kind Kind, message string, err error) *Error {
	var stack []byte
	if err != nil {
		var stackErr *goerrors.Error
		if errors.As(err, &stackErr) {
			stack = stackErr.Stack()
		} else {
			stack = goerrors.Wrap(err, 2).Stack()
		}
	} else {
		stack = goerrors.New(message).Stack()
	}

	return &Error{
		Kind:    kind,
		Message: message,
		Err:     err,
		Stack:   stack,
	}
}

func InvalidInput(message string) *Error { return New(KindInvalidInput, message, nil) }
func Conflict(message string) *Error     { return New(KindConflict, message, nil) }
func Forbidden(message string) *Error    { return New(KindForbidden, message, nil) }
func NotFound(message string) *Error     { return New(KindNotFound, message, nil) }
func RateLimited(message string) *Error  { return New(KindRateLimited, message, nil) }

// InvalidCredentials is deliberately identical for unknown identifiers and wrong passwords.
func InvalidCredentials() *Error {
	return New(KindInvalidCredentials, "invalid credentials", nil)
}

func Unauthenticated(message string) *Error {
	return New(KindUnauthenticated, message, nil)
}

// Unexpected wraps a storage or transport failure.
func Unexpected(message string, err error) *Error {
	return New(KindUnexpected, message, err)
}

// KindOf returns the Kind of err, or KindUnexpected for foreign errors.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindUnexpected
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	if err == nil {
		return false
	}
	return KindOf(err) == kind
}
