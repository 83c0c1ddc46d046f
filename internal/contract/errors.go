package contract

import (
	"errors"
	"fmt"
)

// ErrParse is returned, wrapped in a ParseError, for any contract code that cannot be decoded.
var ErrParse = errors.New("invalid contract code")

// ParseError carries the rejected code and what was wrong with it.
type ParseError struct {
	Code   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid contract code %q: %s", e.Code, e.Reason)
}

func (e *ParseError) Unwrap() error {
	return ErrParse
}

func parseErr(code, format string, args ...any) error {
	return &ParseError{Code: code, Reason: fmt.Sprintf(format, args...)}
}
