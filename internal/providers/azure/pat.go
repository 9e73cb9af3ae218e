package azure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/custodia-labs/gitcred-cli/internal/core/domain"
)

const (
	// patScopes limits a generated token to code and packaging access.
	patScopes = "vso.code_write vso.packaging"
	// patUsername is the constant account a personal access token is
	// returned under; Azure DevOps ignores the username for PAT auth.
	patUsername = "PersonalAccessToken"
	// patLifetime is how long a generated token stays valid.
	patLifetime = 90 * 24 * time.Hour
)

// createPAT exchanges a bearer token for an Azure DevOps personal access
// token through the token administration API.
func createPAT(ctx context.Context, client *http.Client, baseURL, org, accessToken string) (string, error) {
	body, err := json.Marshal(map[string]any{
		"displayName": "gitcred: " + org,
		"scope":       patScopes,
		"validTo":     time.Now().Add(patLifetime).UTC().Format(time.RFC3339),
		"allOrgs":     false,
	})
	if err != nil {
		return "", fmt.Errorf("encode token request: %w", err)
	}

	url := fmt.Sprintf("%s/%s/_apis/tokens/pats?api-version=7.1-preview.1", baseURL, org)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: create personal access token: %v", domain.ErrTransient, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return "", fmt.Errorf("%w: create personal access token: status %d", domain.ErrAuthFailed, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("create personal access token: status %d: %s", resp.StatusCode, msg)
	}

	var payload struct {
		PatToken struct {
			Token string `json:"token"`
		} `json:"patToken"`
		PatTokenError string `json:"patTokenError"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if payload.PatToken.Token == "" {
		return "", fmt.Errorf("create personal access token: %s", payload.PatTokenError)
	}
	return payload.PatToken.Token, nil
}
