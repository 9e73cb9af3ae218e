package azure

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func probe(t *testing.T, headers http.Header) (string, error) {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
		for key, values := range headers {
			for _, v := range values {
				w.Header().Add(key, v)
			}
		}
		w.WriteHeader(http.StatusUnauthorized)
	}))
	t.Cleanup(ts.Close)
	return discoverAuthority(context.Background(), ts.Client(), ts.URL)
}

func TestDiscoverAuthority(t *testing.T) {
	t.Run("bearer challenge names the authority", func(t *testing.T) {
		authority, err := probe(t, http.Header{
			"Www-Authenticate": {`Bearer authorization_uri=https://login.microsoftonline.com/T1`},
		})

		require.NoError(t, err)
		assert.Equal(t, "https://login.microsoftonline.com/T1", authority)
	})

	t.Run("quoted parameter value", func(t *testing.T) {
		authority, err := probe(t, http.Header{
			"Www-Authenticate": {`Bearer authorization_uri="https://login.microsoftonline.com/T1"`},
		})

		require.NoError(t, err)
		assert.Equal(t, "https://login.microsoftonline.com/T1", authority)
	})

	t.Run("first challenge with an authorization_uri wins", func(t *testing.T) {
		authority, err := probe(t, http.Header{
			"Www-Authenticate": {
				`Basic realm="azure"`,
				`Bearer authorization_uri=https://login.microsoftonline.com/T1`,
				`Bearer authorization_uri=https://login.microsoftonline.com/T2`,
			},
		})

		require.NoError(t, err)
		assert.Equal(t, "https://login.microsoftonline.com/T1", authority)
	})

	t.Run("resource tenant guid selects the tenant authority", func(t *testing.T) {
		authority, err := probe(t, http.Header{
			"X-Vss-Resourcetenant": {"11111111-2222-3333-4444-555555555555"},
		})

		require.NoError(t, err)
		assert.Equal(t, "https://login.microsoftonline.com/11111111-2222-3333-4444-555555555555", authority)
	})

	t.Run("first non-empty tenant wins", func(t *testing.T) {
		authority, err := probe(t, http.Header{
			"X-Vss-Resourcetenant": {
				"00000000-0000-0000-0000-000000000000",
				"11111111-2222-3333-4444-555555555555",
			},
		})

		require.NoError(t, err)
		assert.Equal(t, "https://login.microsoftonline.com/11111111-2222-3333-4444-555555555555", authority)
	})

	t.Run("single zero tenant means a personal organization", func(t *testing.T) {
		authority, err := probe(t, http.Header{
			"X-Vss-Resourcetenant": {"00000000-0000-0000-0000-000000000000"},
		})

		require.NoError(t, err)
		assert.Equal(t, organizationsAuthority, authority)
	})

	t.Run("no signal falls back to common", func(t *testing.T) {
		authority, err := probe(t, http.Header{})

		require.NoError(t, err)
		assert.Equal(t, commonAuthority, authority)
	})
}
