package gateway

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrRejected matches every application-level rejection, whatever its kind.
	ErrRejected     = errors.New("gateway: request rejected")
	ErrAuthRejected = errors.New("gateway: credentials rejected")
	ErrNotFound     = errors.New("gateway: not found")
	ErrConflict     = errors.New("gateway: conflict")
	ErrUnavailable  = errors.New("gateway: backend unavailable")
)

type Kind int

const (
	KindRejected Kind = iota + 1
	KindAuth
	KindNotFound
	KindConflict
	KindUnavailable
)

func (k Kind) sentinel() error {
	switch k {
	case KindAuth:
		return ErrAuthRejected
	case KindNotFound:
		return ErrNotFound
	case KindConflict:
		return ErrConflict
	case KindUnavailable:
		return ErrUnavailable
	default:
		return ErrRejected
	}
}

// Error is returned by every failed call. Status is zero for transport failures.
// Message carries the backend's "error" field when it sent one.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%v: %v", e.Kind.sentinel(), e.Err)
	case e.Message != "":
		return fmt.Sprintf("%v (%d): %s", e.Kind.sentinel(), e.Status, e.Message)
	default:
		return fmt.Sprintf("%v (%d)", e.Kind.sentinel(), e.Status)
	}
}

func (e *Error) Is(target error) bool {
	if target == ErrRejected {
		return e.Kind != KindUnavailable
	}
	return target == e.Kind.sentinel()
}

func (e *Error) Unwrap() error { return e.Err }

// MessageOf returns the backend message carried by err, or "" when there is none.
func MessageOf(err error) string {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Message
	}
	return ""
}

func kindFor(status int) Kind {
	switch {
	case status >= 500:
		return KindUnavailable
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return KindAuth
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusConflict:
		return KindConflict
	default:
		return KindRejected
	}
}
