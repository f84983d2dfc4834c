package transfer

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyRules(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, KindNone},
		{"no response", &OpError{Op: "upload", Err: errors.New("connection refused")}, KindNetworkUnreachable},
		{"non-2xx", &OpError{Op: "download", StatusCode: http.StatusForbidden, Responded: true}, KindServerRejected},
		{"2xx with bad body", &OpError{Op: "upload", StatusCode: http.StatusOK, Responded: true, Err: errors.New("bad json")}, KindUnknownFailure},
		{"invalid code", fmt.Errorf("receive: %w", ErrInvalidCode), KindInvalidInput},
		{"already classified", ServerUnavailable("down"), KindServerUnavailable},
		{"anything else", errors.New("boom"), KindUnknownFailure},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, KindOf(tc.err))
		})
	}
}

func TestClassifiedMessages(t *testing.T) {
	assert.Equal(t, "invalid input: code is required", InvalidInput("code is required").Error())
	assert.Equal(t, "backend server is not accessible", ServerUnavailable("").Error())

	rejected := Classify(&OpError{Op: "upload", StatusCode: 413, Body: "too big", Responded: true})
	assert.Equal(t, "server rejected the request: 413 too big", rejected.Error())

	unknown := Classify(errors.New("boom"))
	assert.Equal(t, "unknown failure: boom", unknown.Error())
	assert.Equal(t, "UnknownFailure", unknown.Kind.String())
}

func TestClassifyKeepsCause(t *testing.T) {
	cause := &OpError{Op: "download", Err: errors.New("dial tcp: connection refused")}
	classified := Classify(cause)
	var op *OpError
	assert.True(t, errors.As(classified, &op))
	assert.Same(t, cause, op)
}
