// internal/tiktok/client.go

// Package tiktok adapts the video provider: the OAuth dance, the video
// list API and link validation. Token exchange and refresh go through
// our own backend proxy so the client secret never reaches a player's
// device.
package tiktok

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"github.com/ernsttxbias-web/partyhub/internal/cache"
)

const (
	authorizeEndpoint = "https://www.tiktok.com/v2/oauth/authorize/"
	defaultAPIBase    = "https://open.tiktokapis.com"

	// videoListFields mirrors what the game UI renders per video.
	videoListFields = "id,desc,create_time,video_cover"
)

// Scopes requested from the provider.
var Scopes = []string{"user.info.basic", "video.list"}

// User is the provider's basic profile record.
type User struct {
	OpenID      string `json:"open_id"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url"`
}

// Client talks to the provider APIs and to the backend token proxy.
type Client struct {
	clientKey   string
	redirectURI string
	proxyBase   string
	apiBase     string

	httpClient *http.Client
	clock      clockwork.Clock
	log        logrus.FieldLogger
}

// NewClient builds a provider client. proxyBase is the backend that
// holds the client secret and performs the actual token requests.
func NewClient(clientKey, redirectURI, proxyBase string, log logrus.FieldLogger) *Client {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Client{
		clientKey:   clientKey,
		redirectURI: redirectURI,
		proxyBase:   strings.TrimRight(proxyBase, "/"),
		apiBase:     defaultAPIBase,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		clock:       clockwork.NewRealClock(),
		log:         log,
	}
}

// WithAPIBase redirects provider API calls, used by tests.
func (c *Client) WithAPIBase(base string) *Client {
	c.apiBase = strings.TrimRight(base, "/")
	return c
}

// WithClock swaps the wall clock, used by tests.
func (c *Client) WithClock(clock clockwork.Clock) *Client {
	c.clock = clock
	return c
}

// AuthorizeURL builds the provider authorize URL for the given CSRF
// state. The caller persists the state and checks it on callback.
func (c *Client) AuthorizeURL(state string) string {
	params := url.Values{}
	params.Set("client_key", c.clientKey)
	params.Set("response_type", "code")
	params.Set("scope", strings.Join(Scopes, ","))
	params.Set("redirect_uri", c.redirectURI)
	params.Set("state", state)
	return authorizeEndpoint + "?" + params.Encode()
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	Scope        string `json:"scope"`
	OpenID       string `json:"open_id"`
}

// Exchange trades an authorization code for tokens via the proxy.
func (c *Client) Exchange(ctx context.Context, code string) (cache.TikTokAuth, error) {
	var resp tokenResponse
	if err := c.postJSON(ctx, c.proxyBase+"/api/tiktok/exchange-code", map[string]string{"code": code}, &resp); err != nil {
		return cache.TikTokAuth{}, fmt.Errorf("exchange code: %w", err)
	}
	return cache.TikTokAuth{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresIn:    resp.ExpiresIn,
		Scope:        resp.Scope,
		OpenID:       resp.OpenID,
		Timestamp:    c.clock.Now().UnixMilli(),
	}, nil
}

// Refresh trades a refresh token for a new access token via the proxy.
// The provider may omit a new refresh token; the old one carries over.
func (c *Client) Refresh(ctx context.Context, current cache.TikTokAuth) (cache.TikTokAuth, error) {
	var resp tokenResponse
	payload := map[string]string{"refresh_token": current.RefreshToken}
	if err := c.postJSON(ctx, c.proxyBase+"/api/tiktok/refresh-token", payload, &resp); err != nil {
		return cache.TikTokAuth{}, fmt.Errorf("refresh token: %w", err)
	}
	next := cache.TikTokAuth{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresIn:    resp.ExpiresIn,
		Scope:        current.Scope,
		OpenID:       current.OpenID,
		Timestamp:    c.clock.Now().UnixMilli(),
	}
	if next.RefreshToken == "" {
		next.RefreshToken = current.RefreshToken
	}
	return next, nil
}

// UserInfo fetches the connected account's basic profile.
func (c *Client) UserInfo(ctx context.Context, accessToken string) (User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiBase+"/v2/user/info/", nil)
	if err != nil {
		return User{}, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	var resp struct {
		Data struct {
			User User `json:"user"`
		} `json:"data"`
	}
	if err := c.do(req, &resp); err != nil {
		return User{}, fmt.Errorf("fetch user info: %w", err)
	}
	return resp.Data.User, nil
}

// ListVideos fetches the connected account's video list.
func (c *Client) ListVideos(ctx context.Context, accessToken string, maxCount int) ([]cache.Video, error) {
	body, err := json.Marshal(map[string]int{"max_count": maxCount})
	if err != nil {
		return nil, err
	}
	endpoint := c.apiBase + "/v2/video/list/?fields=" + url.QueryEscape(videoListFields)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	var resp struct {
		Data struct {
			Videos []cache.Video `json:"videos"`
		} `json:"data"`
	}
	if err := c.do(req, &resp); err != nil {
		return nil, fmt.Errorf("fetch video list: %w", err)
	}
	return resp.Data.Videos, nil
}

func (c *Client) postJSON(ctx context.Context, endpoint string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		responseBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API returned status code: %d, response: %s", resp.StatusCode, string(responseBody))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
