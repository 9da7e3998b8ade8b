package outcome

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kbukum/pipex/errors"
)

// NormalizedError is the form a failure takes once it has crossed a stage
// boundary. The original error value is not kept; only its text and debug
// renderings survive.
type NormalizedError struct {
	// Message is the text form of the original error with one level of
	// surrounding quotes removed.
	Message string
	// Debug is the %#v rendering of the original error.
	Debug string
	// Code is the AppError code of the original error, if it had one.
	Code errors.ErrorCode
}

func (e *NormalizedError) Error() string { return e.Message }

// Normalize converts err into a *NormalizedError. Normalizing an error that
// is already a *NormalizedError returns it unchanged. A nil err yields nil.
func Normalize(err error) error {
	if err == nil {
		return nil
	}
	if ne, ok := err.(*NormalizedError); ok {
		return ne
	}
	return &NormalizedError{
		Message: unquote(err.Error()),
		Debug:   fmt.Sprintf("%#v", err),
		Code:    errors.CodeOf(err),
	}
}

// unquote strips exactly one level of double quotes.
func unquote(s string) string {
	if len(s) < 2 || !strings.HasPrefix(s, `"`) || !strings.HasSuffix(s, `"`) {
		return s
	}
	if u, err := strconv.Unquote(s); err == nil {
		return u
	}
	return s[1 : len(s)-1]
}
