//nolint:noctx // Test file uses http.Get for convenience; context not required in tests
package oauth

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/gitcred-cli/internal/core/domain"
)

func startServer(t *testing.T, state string) *CallbackServer {
	t.Helper()
	server := NewCallbackServer(state)
	require.NoError(t, server.Start())
	t.Cleanup(func() { _ = server.Stop() })
	return server
}

func TestCallbackServer_RedirectURI(t *testing.T) {
	server := startServer(t, "test-state")

	uri := server.RedirectURI()

	assert.Contains(t, uri, "http://127.0.0.1:")
	assert.Contains(t, uri, server.path)
}

func TestCallbackServer_Success(t *testing.T) {
	server := startServer(t, "test-state-abc")

	go func() {
		resp, err := http.Get(server.RedirectURI() + "?code=auth-code-xyz&state=test-state-abc")
		if err == nil {
			resp.Body.Close()
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	code, err := server.Wait(ctx)

	require.NoError(t, err)
	assert.Equal(t, "auth-code-xyz", code)
}

func TestCallbackServer_StateMismatch(t *testing.T) {
	server := startServer(t, "correct-state")

	resp, err := http.Get(server.RedirectURI() + "?code=somecode&state=wrong-state")
	require.NoError(t, err)
	resp.Body.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err = server.Wait(ctx)

	assert.ErrorIs(t, err, domain.ErrStateMismatch)
}

func TestCallbackServer_ProviderError(t *testing.T) {
	server := startServer(t, "test-state")

	resp, err := http.Get(server.RedirectURI() + "?error=access_denied&error_description=denied")
	require.NoError(t, err)
	resp.Body.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err = server.Wait(ctx)

	require.ErrorIs(t, err, domain.ErrAuthFailed)
	assert.Contains(t, err.Error(), "access_denied")
}

func TestCallbackServer_MissingCode(t *testing.T) {
	server := startServer(t, "test-state")

	resp, err := http.Get(server.RedirectURI() + "?state=test-state")
	require.NoError(t, err)
	resp.Body.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err = server.Wait(ctx)

	require.ErrorIs(t, err, domain.ErrAuthFailed)
	assert.Contains(t, err.Error(), "no authorization code")
}

func TestCallbackServer_SecondCallbackIgnored(t *testing.T) {
	server := startServer(t, "test-state")

	resp1, err := http.Get(server.RedirectURI() + "?code=first&state=test-state")
	require.NoError(t, err)
	resp1.Body.Close()
	assert.Equal(t, http.StatusOK, resp1.StatusCode)

	resp2, err := http.Get(server.RedirectURI() + "?code=second&state=test-state")
	require.NoError(t, err)
	resp2.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp2.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	code, err := server.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, "first", code)
}

func TestCallbackServer_UnknownPath(t *testing.T) {
	server := startServer(t, "test-state")

	base := server.RedirectURI()
	base = base[:len(base)-len(server.path)]
	resp, err := http.Get(base + "/wrongpath")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCallbackServer_WaitCanceled(t *testing.T) {
	server := startServer(t, "test-state")

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	_, err := server.Wait(ctx)

	assert.ErrorIs(t, err, domain.ErrCanceled)
}

func TestCallbackServer_WaitDeadline(t *testing.T) {
	server := startServer(t, "test-state")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := server.Wait(ctx)

	require.ErrorIs(t, err, domain.ErrAuthFailed)
	assert.Contains(t, err.Error(), "timed out")
}

func TestCallbackServer_StopNotStarted(t *testing.T) {
	server := NewCallbackServer("test-state")

	require.NoError(t, server.Stop())
}

func TestCallbackServer_PathIsUnique(t *testing.T) {
	a := NewCallbackServer("s")
	b := NewCallbackServer("s")

	assert.NotEqual(t, a.path, b.path)
}

func TestResultHTML(t *testing.T) {
	html := resultHTML("Authentication successful", "You may close this window.")

	assert.Contains(t, html, "<!DOCTYPE html>")
	assert.Contains(t, html, "Authentication successful")
	assert.Contains(t, html, fmt.Sprintf("<p>%s</p>", "You may close this window."))
}
