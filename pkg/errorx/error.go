package errorx

import (
	"errors"
	"fmt"
)

type Error struct {
	Code    Code
	Message string
}

func New(code Code, format string, a ...any) Error {
	return Error{Code: code, Message: fmt.Sprintf(format, a...)}
}

func (e Error) Error() string {
	return e.Message
}

// ErrorCode lets the JSON-RPC server transfer the code to callers.
func (e Error) ErrorCode() int {
	return int(e.Code)
}

// Is matches any error carrying the same code, so callers can write
// errors.Is(err, errorx.Error{Code: errorx.NotFound}).
func (e Error) Is(target error) bool {
	var t Error
	if !errors.As(target, &t) {
		return false
	}

	return t.Code == e.Code
}

// CodeOf returns the code of err, or the Unknown code if err is not an Error.
func CodeOf(err error) Code {
	var e Error
	if errors.As(err, &e) {
		return e.Code
	}

	return Unknown.Code
}
