// internal/handlers/tiktok.go
package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const defaultTokenEndpoint = "https://open.tiktokapis.com/v2/oauth/token/"

// TikTokProxy implements the backend half of the provider OAuth flow.
// Clients send codes and refresh tokens here; the proxy attaches the
// client secret and forwards to the provider, so the secret never ships
// to a player's device.
type TikTokProxy struct {
	ClientKey    string
	ClientSecret string
	RedirectURI  string

	// TokenEndpoint overrides the provider token URL, used by tests.
	TokenEndpoint string

	HTTPClient *http.Client
	Log        *logrus.Logger
}

// NewTikTokProxy builds a proxy for the given app credentials.
func NewTikTokProxy(clientKey, clientSecret, redirectURI string, log *logrus.Logger) *TikTokProxy {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &TikTokProxy{
		ClientKey:     clientKey,
		ClientSecret:  clientSecret,
		RedirectURI:   redirectURI,
		TokenEndpoint: defaultTokenEndpoint,
		HTTPClient:    &http.Client{Timeout: 30 * time.Second},
		Log:           log,
	}
}

// ExchangeCodeHandler trades an authorization code for tokens.
// POST /api/tiktok/exchange-code {"code": "..."}
func (p *TikTokProxy) ExchangeCodeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Code == "" {
		http.Error(w, "missing code", http.StatusBadRequest)
		return
	}

	form := url.Values{}
	form.Set("client_key", p.ClientKey)
	form.Set("client_secret", p.ClientSecret)
	form.Set("code", req.Code)
	form.Set("grant_type", "authorization_code")
	form.Set("redirect_uri", p.RedirectURI)

	p.forwardTokenRequest(w, r, form)
}

// RefreshTokenHandler trades a refresh token for a fresh access token.
// POST /api/tiktok/refresh-token {"refresh_token": "..."}
func (p *TikTokProxy) RefreshTokenHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		http.Error(w, "missing refresh_token", http.StatusBadRequest)
		return
	}

	form := url.Values{}
	form.Set("client_key", p.ClientKey)
	form.Set("client_secret", p.ClientSecret)
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", req.RefreshToken)

	p.forwardTokenRequest(w, r, form)
}

// forwardTokenRequest posts the form to the provider and relays the
// response body and status verbatim.
func (p *TikTokProxy) forwardTokenRequest(w http.ResponseWriter, r *http.Request, form url.Values) {
	req, err := http.NewRequestWithContext(r.Context(), http.MethodPost, p.TokenEndpoint, strings.NewReader(form.Encode()))
	if err != nil {
		p.Log.Warnf("tiktok proxy: building token request: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.HTTPClient.Do(req)
	if err != nil {
		p.Log.Warnf("tiktok proxy: token request failed: %v", err)
		http.Error(w, "provider unreachable", http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		p.Log.Warnf("tiktok proxy: relaying token response: %v", err)
	}
}
