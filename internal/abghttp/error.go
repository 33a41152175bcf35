package abghttp

import (
	"fmt"
	"net/http"

	"github.com/AdguardTeam/golibs/errors"
)

// StatusError is returned when a dataset server responds with a status code
// other than the expected one.
type StatusError struct {
	// Method is the method of the request, if known.
	Method string

	// Want is the expected status code.
	Want int

	// Got is the actual status code.
	Got int
}

// type check
var _ error = (*StatusError)(nil)

// Error implements the error interface for *StatusError.
func (err *StatusError) Error() (msg string) {
	return fmt.Sprintf("%s: status %d, want %d", err.Method, err.Got, err.Want)
}

// CheckStatus returns a *StatusError if the status code of resp is not want.
// resp must not be nil.
func CheckStatus(resp *http.Response, want int) (err error) {
	if resp.StatusCode == want {
		return nil
	}

	return &StatusError{
		Method: requestMethod(resp),
		Want:   want,
		Got:    resp.StatusCode,
	}
}

// ResponseError is returned when a response has been received but cannot be
// used.
type ResponseError struct {
	// Err is the underlying error.  It must not be nil.
	Err error

	// Method is the method of the request, if known.
	Method string
}

// type check
var _ errors.Wrapper = (*ResponseError)(nil)

// Error implements the error interface for *ResponseError.
func (err *ResponseError) Error() (msg string) {
	return fmt.Sprintf("%s response: %s", err.Method, err.Err)
}

// Unwrap implements the [errors.Wrapper] interface for *ResponseError.
func (err *ResponseError) Unwrap() (unwrapped error) {
	return err.Err
}

// NewResponseError returns a *ResponseError for resp wrapping err.  resp must
// not be nil.
func NewResponseError(err error, resp *http.Response) (respErr *ResponseError) {
	return &ResponseError{
		Err:    err,
		Method: requestMethod(resp),
	}
}

// requestMethod returns the method of the request that resp answers or an
// empty string if the request is unknown.
func requestMethod(resp *http.Response) (method string) {
	if resp.Request == nil {
		return ""
	}

	return resp.Request.Method
}
