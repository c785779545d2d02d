package api

import (
	"errors"
	"fmt"
)

// ErrUnexpectedStatus is wrapped by ResponseError for non-2xx replies.
var ErrUnexpectedStatus = errors.New("unexpected status")

// RequestError means the outgoing request could not be formed. Nothing was
// sent.
type RequestError struct {
	Op  string
	Err error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s: invalid request: %v", e.Op, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

// ResponseError means the backend answered but the reply was not usable.
type ResponseError struct {
	Op         string
	StatusCode int
	Body       string
	Err        error
}

func (e *ResponseError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ResponseError) Unwrap() error { return e.Err }
