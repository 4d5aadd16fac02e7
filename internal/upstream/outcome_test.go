package upstream

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOutcomeConstructors(t *testing.T) {
	ok := Success("body")
	assert.Equal(t, KindSuccess, ok.Kind)
	assert.Equal(t, "body", ok.Value)

	httpErr := HTTPError[string](502, []byte(`{"error":"bad gateway"}`))
	assert.Equal(t, KindHTTPError, httpErr.Kind)
	assert.Equal(t, 502, httpErr.Status)
	assert.JSONEq(t, `{"error":"bad gateway"}`, string(httpErr.Body))

	netErr := NetworkError[string](errors.New("dial tcp: refused"))
	assert.Equal(t, KindNetworkError, netErr.Kind)
	assert.EqualError(t, netErr.Err, "dial tcp: refused")

	fail := Failure[string](errors.New("boom"))
	assert.Equal(t, KindFailure, fail.Kind)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "success", KindSuccess.String())
	assert.Equal(t, "http_error", KindHTTPError.String())
	assert.Equal(t, "network_error", KindNetworkError.String())
	assert.Equal(t, "failure", KindFailure.String())
	assert.Equal(t, "kind(9)", Kind(9).String())
}

func TestIsNetworkError(t *testing.T) {
	urlErr := &url.Error{Op: "Get", URL: "https://example.com/?api_key=secret", Err: errors.New("connection refused")}

	assert.True(t, IsNetworkError(urlErr))
	assert.True(t, IsNetworkError(fmt.Errorf("wrapped: %w", urlErr)))
	assert.True(t, IsNetworkError(context.DeadlineExceeded))
	assert.False(t, IsNetworkError(errors.New("json: cannot unmarshal")))
	assert.False(t, IsNetworkError(nil))
}

func TestStripURL(t *testing.T) {
	urlErr := &url.Error{Op: "Get", URL: "https://example.com/?api_key=secret", Err: errors.New("connection refused")}

	stripped := StripURL(urlErr)
	assert.EqualError(t, stripped, "Get: connection refused")
	assert.NotContains(t, stripped.Error(), "secret")

	plain := errors.New("plain")
	assert.Same(t, plain, StripURL(plain))
}
