// Package oauth runs the OAuth 2.0 flows used to obtain host tokens: the
// authorization code flow with PKCE over a loopback redirect, the device
// code flow for terminals without a browser, and refresh token renewal.
package oauth

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	loopback "github.com/custodia-labs/gitcred-cli/internal/adapters/driving/oauth"
	"github.com/custodia-labs/gitcred-cli/internal/core/domain"
	"github.com/custodia-labs/gitcred-cli/internal/core/ports/driven"
	"github.com/custodia-labs/gitcred-cli/internal/logger"
)

const (
	// requestTimeout bounds a single token endpoint round trip.
	requestTimeout = 30 * time.Second
	// authCodeTimeout bounds the whole interactive flow, including the
	// time the user spends in the browser.
	authCodeTimeout = 10 * time.Minute
	// exchangeAttempts is the number of tries for the code exchange.
	exchangeAttempts = 3
	// exchangeBackoff is the delay before the second attempt; it doubles
	// for each attempt after that.
	exchangeBackoff = time.Second
)

// Client runs OAuth flows against a host's authorization server. The
// endpoints and client identity come from the provider via oauth2.Config.
type Client struct {
	prompter   driven.Prompter
	openURL    func(string) error
	httpClient *http.Client
}

// NewClient creates an OAuth client. The prompter displays verification
// messages and is the fallback when no browser can be opened.
func NewClient(prompter driven.Prompter) *Client {
	return &Client{
		prompter:   prompter,
		openURL:    loopback.OpenBrowser,
		httpClient: &http.Client{Timeout: requestTimeout},
	}
}

// AuthorizationCode runs the authorization code flow with PKCE. It opens the
// user's browser at the authorization URL, receives the code on a loopback
// redirect, and exchanges it for tokens.
func (c *Client) AuthorizationCode(ctx context.Context, cfg *oauth2.Config) (*domain.OAuthToken, error) {
	ctx, cancel := context.WithTimeout(ctx, authCodeTimeout)
	defer cancel()

	state := uuid.NewString()
	verifier := oauth2.GenerateVerifier()

	server := loopback.NewCallbackServer(state)
	if err := server.Start(); err != nil {
		return nil, fmt.Errorf("start callback server: %w", err)
	}
	defer func() { _ = server.Stop() }()

	flowCfg := *cfg
	flowCfg.RedirectURL = server.RedirectURI()
	authURL := flowCfg.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))

	logger.Info("starting browser authentication for %s", cfg.Endpoint.AuthURL)
	if err := c.openURL(authURL); err != nil {
		logger.Warn("could not open browser: %v", err)
		if err := c.prompter.Display(ctx, fmt.Sprintf("To sign in, open this URL in your browser:\n\n  %s", authURL)); err != nil {
			return nil, err
		}
	}

	code, err := server.Wait(ctx)
	if err != nil {
		return nil, err
	}

	tok, err := c.exchange(ctx, &flowCfg, code, verifier)
	if err != nil {
		return nil, err
	}
	return fromToken(tok), nil
}

// DeviceCode runs the device authorization flow. The user code and
// verification URL are shown through the prompter while the client polls
// the token endpoint.
func (c *Client) DeviceCode(ctx context.Context, cfg *oauth2.Config) (*domain.OAuthToken, error) {
	da, err := cfg.DeviceAuth(c.httpContext(ctx))
	if err != nil {
		return nil, classify(err)
	}

	uri := da.VerificationURI
	if uri == "" {
		uri = da.VerificationURIComplete
	}
	msg := fmt.Sprintf("To sign in, use a web browser to open the page %s and enter the code %s.", uri, da.UserCode)
	if err := c.prompter.Display(ctx, msg); err != nil {
		return nil, err
	}

	tok, err := cfg.DeviceAccessToken(c.httpContext(ctx), da)
	if err != nil {
		if ctx.Err() != nil && errors.Is(ctx.Err(), context.Canceled) {
			return nil, domain.ErrCanceled
		}
		return nil, classify(err)
	}
	return fromToken(tok), nil
}

// Refresh exchanges a refresh token for a new access token. An expired or
// revoked refresh token yields the auth failure sentinel so callers fall
// back to an interactive flow.
func (c *Client) Refresh(ctx context.Context, cfg *oauth2.Config, refreshToken string) (*domain.OAuthToken, error) {
	reqCtx, cancel := context.WithTimeout(c.httpContext(ctx), requestTimeout)
	defer cancel()

	ts := cfg.TokenSource(reqCtx, &oauth2.Token{RefreshToken: refreshToken})
	tok, err := ts.Token()
	if err != nil {
		return nil, classify(err)
	}
	return fromToken(tok), nil
}

// exchange trades the authorization code for tokens, retrying transient
// failures with exponential backoff.
func (c *Client) exchange(ctx context.Context, cfg *oauth2.Config, code, verifier string) (*oauth2.Token, error) {
	var lastErr error
	delay := exchangeBackoff
	for attempt := 0; attempt < exchangeAttempts; attempt++ {
		if attempt > 0 {
			logger.Debug("retrying token exchange (attempt %d)", attempt+1)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, domain.ErrCanceled
			}
			delay *= 2
		}

		reqCtx, cancel := context.WithTimeout(c.httpContext(ctx), requestTimeout)
		tok, err := cfg.Exchange(reqCtx, code, oauth2.VerifierOption(verifier))
		cancel()
		if err == nil {
			return tok, nil
		}
		if !transient(err) {
			return nil, classify(err)
		}
		lastErr = err
	}
	return nil, fmt.Errorf("%w: token exchange: %v", domain.ErrTransient, lastErr)
}

func (c *Client) httpContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
}

// classify maps a token endpoint error onto the error taxonomy: definitive
// rejections become auth failures, everything else is transient.
func classify(err error) error {
	if errors.Is(err, context.Canceled) {
		return domain.ErrCanceled
	}
	var rerr *oauth2.RetrieveError
	if errors.As(err, &rerr) {
		status := 0
		if rerr.Response != nil {
			status = rerr.Response.StatusCode
		}
		if rerr.ErrorCode == "invalid_grant" || (status >= 400 && status < 500) {
			return fmt.Errorf("%w: %v", domain.ErrAuthFailed, err)
		}
		return fmt.Errorf("%w: %v", domain.ErrTransient, err)
	}
	return fmt.Errorf("%w: %v", domain.ErrTransient, err)
}

// transient reports whether the failure is worth retrying: server errors
// and network failures are, definitive rejections are not.
func transient(err error) bool {
	var rerr *oauth2.RetrieveError
	if errors.As(err, &rerr) {
		return rerr.Response != nil && rerr.Response.StatusCode >= 500
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var nerr net.Error
	return errors.As(err, &nerr) || errors.Is(err, context.DeadlineExceeded)
}

func fromToken(tok *oauth2.Token) *domain.OAuthToken {
	out := &domain.OAuthToken{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		Expiry:       tok.Expiry,
	}
	if id, ok := tok.Extra("id_token").(string); ok {
		out.IDToken = id
	}
	return out
}
