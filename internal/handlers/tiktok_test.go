// internal/handlers/tiktok_test.go
package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProxyWithFakeProvider(t *testing.T) (*TikTokProxy, *[]string) {
	t.Helper()
	var forms []string
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		forms = append(forms, string(body))
		json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "access-1",
			"refresh_token": "refresh-1",
			"expires_in":    3600,
			"open_id":       "open-1",
		})
	}))
	t.Cleanup(provider.Close)

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	proxy := NewTikTokProxy("key-123", "secret-456", "http://localhost/auth/tiktok/callback", logger)
	proxy.TokenEndpoint = provider.URL
	return proxy, &forms
}

func TestExchangeCodeAttachesSecretServerSide(t *testing.T) {
	proxy, forms := newProxyWithFakeProvider(t)

	req := httptest.NewRequest(http.MethodPost, "/api/tiktok/exchange-code",
		strings.NewReader(`{"code":"auth-code-1"}`))
	rec := httptest.NewRecorder()
	proxy.ExchangeCodeHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "access-1", resp["access_token"])

	require.Len(t, *forms, 1)
	form := (*forms)[0]
	assert.Contains(t, form, "client_secret=secret-456", "the secret is attached by the proxy")
	assert.Contains(t, form, "code=auth-code-1")
	assert.Contains(t, form, "grant_type=authorization_code")
}

func TestRefreshTokenForwardsGrant(t *testing.T) {
	proxy, forms := newProxyWithFakeProvider(t)

	req := httptest.NewRequest(http.MethodPost, "/api/tiktok/refresh-token",
		strings.NewReader(`{"refresh_token":"refresh-0"}`))
	rec := httptest.NewRecorder()
	proxy.RefreshTokenHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, *forms, 1)
	form := (*forms)[0]
	assert.Contains(t, form, "grant_type=refresh_token")
	assert.Contains(t, form, "refresh_token=refresh-0")
	assert.Contains(t, form, "client_secret=secret-456")
}

func TestProxyRejectsBadRequests(t *testing.T) {
	proxy, _ := newProxyWithFakeProvider(t)

	rec := httptest.NewRecorder()
	proxy.ExchangeCodeHandler(rec, httptest.NewRequest(http.MethodGet, "/api/tiktok/exchange-code", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = httptest.NewRecorder()
	proxy.ExchangeCodeHandler(rec, httptest.NewRequest(http.MethodPost, "/api/tiktok/exchange-code", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	proxy.RefreshTokenHandler(rec, httptest.NewRequest(http.MethodPost, "/api/tiktok/refresh-token", strings.NewReader(`not json`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
