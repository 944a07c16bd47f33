package marketplace

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode is the stable numeric identifier callers see for a rejected operation.
type ErrorCode uint32

const (
	CodeAlreadyInitialized ErrorCode = 100
	CodeJobNotFound        ErrorCode = 101
	CodeBidNotFound        ErrorCode = 102
	CodeInvalidStatus      ErrorCode = 103
	CodeInsufficientFunds  ErrorCode = 104
	CodeUnauthorized       ErrorCode = 105
	CodeInvalidAmount      ErrorCode = 106
	CodePastDeadline       ErrorCode = 107
	CodeDisputeNotFound    ErrorCode = 108
	CodeInvalidInput       ErrorCode = 109
)

var codeNames = map[ErrorCode]string{
	CodeAlreadyInitialized: "already-initialized",
	CodeJobNotFound:        "job-not-found",
	CodeBidNotFound:        "bid-not-found",
	CodeInvalidStatus:      "invalid-status",
	CodeInsufficientFunds:  "insufficient-funds",
	CodeUnauthorized:       "unauthorized",
	CodeInvalidAmount:      "invalid-amount",
	CodePastDeadline:       "past-deadline",
	CodeDisputeNotFound:    "dispute-not-found",
	CodeInvalidInput:       "invalid-input",
}

func (c ErrorCode) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("code-%d", uint32(c))
}

// Error is a rejected operation. It never wraps infrastructure failures; those
// travel as plain wrapped errors.
type Error struct {
	Code    ErrorCode
	Op      string
	Message string
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	op := strings.TrimSpace(e.Op)
	msg := strings.TrimSpace(e.Message)
	switch {
	case op != "" && msg != "":
		return fmt.Sprintf("%s: %s (%s)", op, msg, e.Code)
	case op != "":
		return fmt.Sprintf("%s (%s)", op, e.Code)
	case msg != "":
		return fmt.Sprintf("%s (%s)", msg, e.Code)
	default:
		return e.Code.String()
	}
}

// Is matches any *Error carrying the same code, so errors.Is(err, ErrUnauthorized) works
// regardless of Op and Message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return t.Code == e.Code
}

var (
	ErrAlreadyInitialized = &Error{Code: CodeAlreadyInitialized}
	ErrJobNotFound        = &Error{Code: CodeJobNotFound}
	ErrBidNotFound        = &Error{Code: CodeBidNotFound}
	ErrInvalidStatus      = &Error{Code: CodeInvalidStatus}
	ErrInsufficientFunds  = &Error{Code: CodeInsufficientFunds}
	ErrUnauthorized       = &Error{Code: CodeUnauthorized}
	ErrInvalidAmount      = &Error{Code: CodeInvalidAmount}
	ErrPastDeadline       = &Error{Code: CodePastDeadline}
	ErrDisputeNotFound    = &Error{Code: CodeDisputeNotFound}
	ErrInvalidInput       = &Error{Code: CodeInvalidInput}
)

func reject(code ErrorCode, op, format string, args ...interface{}) error {
	return &Error{Code: code, Op: op, Message: fmt.Sprintf(format, args...)}
}

// CodeOf returns the code carried by err, or 0 when err is not a rejection.
func CodeOf(err error) ErrorCode {
	var mErr *Error
	if !errors.As(err, &mErr) {
		return 0
	}
	return mErr.Code
}

func IsCode(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}

// Store adapters return these sentinels; the service translates them into rejections.
var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("record already exists")
)

// ErrEscrowEmpty signals a release against a zero balance. Status rules make it
// unreachable, so it is reported as an internal failure rather than a rejection.
var ErrEscrowEmpty = errors.New("escrow balance is empty")
