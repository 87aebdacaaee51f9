package cmd

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"movieswipe/cli/internal/auth"
	"movieswipe/cli/internal/groups"
)

func TestDescribeToken(t *testing.T) {
	assert.Equal(t, "missing", describeToken(auth.TokenStatus{}))
	assert.Equal(t, "unknown", describeToken(auth.TokenStatus{Present: true}))
	assert.Equal(t, "expired", describeToken(auth.TokenStatus{Present: true, Known: true, Remaining: -time.Second}))
	assert.Equal(t, "1m30s", describeToken(auth.TokenStatus{Present: true, Known: true, Remaining: 90*time.Second + 400*time.Millisecond}))
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Ana <ana@example.com>", displayName(groups.User{ID: "1", Name: "Ana", Email: "ana@example.com"}))
	assert.Equal(t, "Ana", displayName(groups.User{ID: "1", Name: "Ana"}))
	assert.Equal(t, "ana@example.com", displayName(groups.User{ID: "1", Email: "ana@example.com"}))
	assert.Equal(t, "1", displayName(groups.User{ID: "1"}))
}

func TestSpinnerIsSilentOffTerminal(t *testing.T) {
	var buf bytes.Buffer
	stop := startInlineSpinner(&buf, "Checking access...", spinnerFrames, time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	stop()
	assert.Empty(t, buf.String())
}

func TestIdentityTokenPrecedence(t *testing.T) {
	t.Setenv(envGoogleToken, "from-env")

	loginGoogleToken = " from-flag "
	t.Cleanup(func() { loginGoogleToken = "" })
	got, err := identityToken()
	assert.NoError(t, err)
	assert.Equal(t, "from-flag", got)

	loginGoogleToken = ""
	got, err = identityToken()
	assert.NoError(t, err)
	assert.Equal(t, "from-env", got)
}
