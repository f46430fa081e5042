// Package apperr classifies failures that cross component boundaries so that
// transports can render them without knowing which component produced them.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindValidation
	KindPayment
	KindStorage
	KindRemote
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "NOT_FOUND"
	case KindValidation:
		return "VALIDATION"
	case KindPayment:
		return "PAYMENT"
	case KindStorage:
		return "STORAGE"
	case KindRemote:
		return "REMOTE"
	case KindConflict:
		return "CONFLICT"
	default:
		return "INTERNAL"
	}
}

type Error struct {
	Kind    Kind
	Message string
	// Fields names the offending inputs of a validation failure.
	Fields []string
	Err    error
}

func (e *Error) Error() string {
	msg := e.Message
	if len(e.Fields) > 0 {
		msg = fmt.Sprintf("%s: %s", msg, strings.Join(e.Fields, ", "))
	}
	if e.Err != nil && msg == "" {
		return e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func Validation(message string, fields ...string) *Error {
	return &Error{Kind: KindValidation, Message: message, Fields: fields}
}

func Payment(message string, err error) *Error {
	return &Error{Kind: KindPayment, Message: message, Err: err}
}

func Remote(message string, err error) *Error {
	return &Error{Kind: KindRemote, Message: message, Err: err}
}

func Conflict(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// Wrap tags err with kind unless it already carries one.
func Wrap(kind Kind, message string, err error) error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return err
	}
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf reports the kind of the first *Error in err's chain, KindInternal otherwise.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
