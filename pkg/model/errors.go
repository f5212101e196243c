package model

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failure by how the session reacts to it.
type ErrorKind string

const (
	KindNetwork            ErrorKind = "NETWORK_FAILURE"
	KindInvalidCredentials ErrorKind = "INVALID_CREDENTIALS"
	KindSessionExpired     ErrorKind = "SESSION_EXPIRED"
	KindProfileMissing     ErrorKind = "PROFILE_MISSING"
	KindValidation         ErrorKind = "VALIDATION_FAILURE"
	KindServer             ErrorKind = "SERVER_FAILURE"
	KindPrecondition       ErrorKind = "CLIENT_PRECONDITION"
	KindBusy               ErrorKind = "BUSY"
	KindNotAuthenticated   ErrorKind = "NOT_AUTHENTICATED"
)

// Error is a classified failure of a session operation.
type Error struct {
	Kind    ErrorKind
	Op      string // e.g. "transfer", "viewAccount"
	Message string // user-facing text
	Status  int    // HTTP status, 0 when no response was received
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates an Error without an underlying cause.
func NewError(kind ErrorKind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

// PreconditionError reports a local input problem that never reached the network.
func PreconditionError(op, message string) *Error {
	return &Error{Kind: KindPrecondition, Op: op, Message: message}
}

// ErrBusy is returned when an operation is attempted while another is in flight.
var ErrBusy = &Error{Kind: KindBusy, Op: "session", Message: "another operation is in progress"}

// KindOf returns the kind of err, or "" if err is not an *Error.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}

// UserMessage returns the text shown to the user for err.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

// RegisterErrorCode is the reason code the authentication service returns
// for a rejected registration.
type RegisterErrorCode string

const (
	RegisterInvalidUsername    RegisterErrorCode = "INVALID_USERNAME"
	RegisterPasswordTooShort   RegisterErrorCode = "TOO_SHORT_PASSWORD"
	RegisterMaxAccountsReached RegisterErrorCode = "MAX_ACCOUNT_LIMIT_REACHED"
)

// RegisterError is the failure body of the register endpoint.
type RegisterError struct {
	Error RegisterErrorCode `json:"error"`
}

// Describe returns a readable message for the code.
func (c RegisterErrorCode) Describe() string {
	switch c {
	case RegisterInvalidUsername:
		return "username is invalid or already taken"
	case RegisterPasswordTooShort:
		return "password is too short"
	case RegisterMaxAccountsReached:
		return "maximum number of accounts reached"
	}
	return "registration rejected"
}
