// Package upstream describes the result of a single call to a third-party API.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
)

// Kind tags which variant an Outcome holds.
type Kind int

const (
	KindSuccess Kind = iota
	KindHTTPError
	KindNetworkError
	KindFailure
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindHTTPError:
		return "http_error"
	case KindNetworkError:
		return "network_error"
	case KindFailure:
		return "failure"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Outcome is the result of one upstream call. Only the fields of the active
// Kind are meaningful: Value for success, Status and Body for an HTTP error,
// Err for network errors and failures.
type Outcome[T any] struct {
	Kind   Kind
	Value  T
	Status int
	Body   []byte
	Err    error
}

func Success[T any](v T) Outcome[T] {
	return Outcome[T]{Kind: KindSuccess, Value: v}
}

func HTTPError[T any](status int, body []byte) Outcome[T] {
	return Outcome[T]{Kind: KindHTTPError, Status: status, Body: body}
}

func NetworkError[T any](err error) Outcome[T] {
	return Outcome[T]{Kind: KindNetworkError, Err: err}
}

func Failure[T any](err error) Outcome[T] {
	return Outcome[T]{Kind: KindFailure, Err: err}
}

// IsNetworkError reports whether err means a request went out but no
// response came back.
func IsNetworkError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// StripURL drops the request URL from transport errors. Query strings on
// upstream URLs carry credentials and must not reach logs or clients.
func StripURL(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("%s: %w", urlErr.Op, urlErr.Err)
	}
	return err
}
