package httperrors

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	apperr "movieswipe/cli/internal/errors"
)

func response(status int, body string) *http.Response {
	return &http.Response{StatusCode: status, Body: io.NopCloser(strings.NewReader(body))}
}

func TestFromResponse(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{name: "json message", status: 400, body: `{"message":"Invalid Google token"}`, wantMsg: "auth: Invalid Google token"},
		{name: "json error field", status: 403, body: `{"error":"forbidden"}`, wantMsg: "auth: forbidden"},
		{name: "plain body", status: 502, body: "  upstream down \n", wantMsg: "auth: upstream down"},
		{name: "empty body", status: 500, body: "", wantMsg: "auth: Internal Server Error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := FromResponse("auth", response(tt.status, tt.body))

			var e *apperr.E
			if assert.True(t, errors.As(err, &e)) {
				assert.Equal(t, apperr.ServerRejected, e.Kind)
				assert.Equal(t, tt.status, e.Status)
				assert.Equal(t, tt.wantMsg, e.Message)
			}
		})
	}
}

func TestIsSuccess(t *testing.T) {
	assert.True(t, IsSuccess(200))
	assert.True(t, IsSuccess(204))
	assert.False(t, IsSuccess(301))
	assert.False(t, IsSuccess(401))
}
