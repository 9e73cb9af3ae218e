// Package oauth provides the loopback redirect listener and browser helpers
// for the authorization code flow.
package oauth

import (
	"context"
	"fmt"
	"html"
	"net"
	"net/http"
	"os/exec"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/gitcred-cli/internal/core/domain"
)

// CallbackServer receives the OAuth authorization redirect on a loopback
// address. The callback path is a random nonce so a local port scan cannot
// guess the redirect URI, and only the first matching request is accepted.
type CallbackServer struct {
	mu            sync.Mutex
	path          string
	expectedState string
	accepted      bool
	codeChan      chan string
	errChan       chan error
	server        *http.Server
	listener      net.Listener
}

// NewCallbackServer creates a callback server expecting the given state
// parameter on the redirect.
func NewCallbackServer(expectedState string) *CallbackServer {
	return &CallbackServer{
		path:          "/" + uuid.NewString(),
		expectedState: expectedState,
		codeChan:      make(chan string, 1),
		errChan:       make(chan error, 1),
	}
}

// Start binds the server to an ephemeral loopback port.
func (s *CallbackServer) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	mux := http.NewServeMux()
	mux.HandleFunc(s.path, s.handleCallback)

	s.server = &http.Server{
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return fmt.Errorf("listen on loopback: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			select {
			case s.errChan <- err:
			default:
			}
		}
	}()

	return nil
}

func (s *CallbackServer) handleCallback(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	if s.accepted {
		s.mu.Unlock()
		http.NotFound(w, r)
		return
	}
	s.accepted = true
	s.mu.Unlock()

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		errDesc := r.URL.Query().Get("error_description")
		s.errChan <- fmt.Errorf("%w: %s: %s", domain.ErrAuthFailed, errParam, errDesc)
		s.respond(w, fmt.Sprintf("Authorization failed: %s", html.EscapeString(errDesc)), "")
		return
	}

	state := r.URL.Query().Get("state")
	if state != s.expectedState {
		s.errChan <- domain.ErrStateMismatch
		s.respond(w, "Authorization failed: invalid state parameter", "")
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		s.errChan <- fmt.Errorf("%w: no authorization code received", domain.ErrAuthFailed)
		s.respond(w, "Authorization failed: no code received", "")
		return
	}

	select {
	case s.codeChan <- code:
	default:
	}

	s.respond(w, "Authentication successful", "You may close this window and return to your terminal.")
}

func (s *CallbackServer) respond(w http.ResponseWriter, title, message string) {
	w.Header().Set("Content-Type", "text/html")
	fmt.Fprint(w, resultHTML(title, message))
}

// Wait blocks until the authorization code arrives, the provider reports an
// error, or the context ends. Context cancellation maps to the cancellation
// sentinel so callers exit with the interrupt status.
func (s *CallbackServer) Wait(ctx context.Context) (string, error) {
	select {
	case code := <-s.codeChan:
		return code, nil
	case err := <-s.errChan:
		return "", err
	case <-ctx.Done():
		if ctx.Err() == context.DeadlineExceeded {
			return "", fmt.Errorf("%w: timed out waiting for authorization callback", domain.ErrAuthFailed)
		}
		return "", domain.ErrCanceled
	}
}

// Stop shuts down the callback server.
func (s *CallbackServer) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(ctx)
	}
	return nil
}

// RedirectURI returns the loopback redirect URI registered with the
// authorization request.
func (s *CallbackServer) RedirectURI() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	port := 0
	if tcpAddr, ok := s.listener.Addr().(*net.TCPAddr); ok {
		port = tcpAddr.Port
	}
	return fmt.Sprintf("http://127.0.0.1:%d%s", port, s.path)
}

func resultHTML(title, message string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
    <title>gitcred</title>
    <style>
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
            display: flex;
            justify-content: center;
            align-items: center;
            height: 100vh;
            margin: 0;
            background: #FAFAFA;
        }
        .container {
            text-align: center;
            background: white;
            padding: 48px 64px;
            border-radius: 16px;
            border: 1px solid #C7C8CC;
        }
        h1 {
            color: #333F50;
            margin: 0 0 8px 0;
            font-size: 24px;
            font-weight: 600;
        }
        p {
            color: #7B8088;
            margin: 0;
            font-size: 16px;
        }
    </style>
</head>
<body>
    <div class="container">
        <h1>%s</h1>
        <p>%s</p>
    </div>
</body>
</html>`, title, message)
}

// OpenBrowser opens the default browser to the given URL.
func OpenBrowser(url string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	return cmd.Start()
}
