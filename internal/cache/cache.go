// internal/cache/cache.go
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/ernsttxbias-web/partyhub/internal/models"
)

// VideoCacheTTL bounds how long a cached video list is served before a
// refetch is required.
const VideoCacheTTL = time.Hour

// Profile identifies this device's player.
type Profile struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	AvatarID int    `json:"avatarId"`
}

// Settings are the local UI preferences.
type Settings struct {
	Theme    string  `json:"theme"`
	Language string  `json:"language"`
	Volume   float64 `json:"volume"`
	Muted    bool    `json:"muted"`
}

// Session ties this device to a room for reconnects.
type Session struct {
	RoomCode       string `json:"roomCode,omitempty"`
	ReconnectToken string `json:"reconnectToken,omitempty"`
}

// TikTokAuth is the video provider's token record. Timestamp is the
// wall-clock ms the token was issued, used with ExpiresIn for expiry.
type TikTokAuth struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	Scope        string `json:"scope"`
	OpenID       string `json:"open_id"`
	Timestamp    int64  `json:"timestamp"`
}

// Expired reports whether the access token is past its lifetime.
func (a TikTokAuth) Expired(now time.Time) bool {
	expiry := time.UnixMilli(a.Timestamp).Add(time.Duration(a.ExpiresIn) * time.Second)
	return now.After(expiry)
}

// Video is one cached entry from the provider's liked-video list.
type Video struct {
	ID         string `json:"id"`
	Desc       string `json:"desc"`
	CreateTime int64  `json:"create_time"`
	CoverURL   string `json:"video_cover"`
}

func defaultSettings() Settings {
	return Settings{Theme: "system", Language: "en", Volume: 0.7, Muted: false}
}

// Cache layers typed accessors over a raw Store. Every getter degrades
// to a default value when storage is missing or corrupt.
type Cache struct {
	store Store
	clock clockwork.Clock
}

// New wraps a Store. A nil clock falls back to the real clock.
func New(store Store, clock clockwork.Clock) *Cache {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Cache{store: store, clock: clock}
}

func (c *Cache) getJSON(ctx context.Context, key string, out any) bool {
	raw, err := c.store.Get(ctx, key)
	if err != nil {
		return false
	}
	return json.Unmarshal(raw, out) == nil
}

func (c *Cache) setJSON(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.store.Set(ctx, key, raw)
}

// Profile returns the stored profile, minting a fresh id (and
// persisting it) the first time the device is seen.
func (c *Cache) Profile(ctx context.Context) Profile {
	var p Profile
	if c.getJSON(ctx, keyProfile, &p) && p.ID != "" {
		return p
	}
	p = Profile{ID: uuid.NewString()}
	_ = c.setJSON(ctx, keyProfile, p)
	return p
}

// SetProfile merges the given fields over the stored profile.
func (c *Cache) SetProfile(ctx context.Context, p Profile) error {
	current := c.Profile(ctx)
	if p.ID == "" {
		p.ID = current.ID
	}
	return c.setJSON(ctx, keyProfile, p)
}

// Settings returns stored settings, or defaults when absent/corrupt.
func (c *Cache) Settings(ctx context.Context) Settings {
	s := defaultSettings()
	c.getJSON(ctx, keySettings, &s)
	return s
}

func (c *Cache) SetSettings(ctx context.Context, s Settings) error {
	return c.setJSON(ctx, keySettings, s)
}

// Session returns the stored session; the zero Session means the
// device is not attached to a room.
func (c *Cache) Session(ctx context.Context) Session {
	var s Session
	c.getJSON(ctx, keySession, &s)
	return s
}

func (c *Cache) SetSession(ctx context.Context, s Session) error {
	return c.setJSON(ctx, keySession, s)
}

func (c *Cache) ClearSession(ctx context.Context) error {
	return c.store.Delete(ctx, keySession)
}

// CachedRoom returns the last room snapshot, or nil when none exists.
func (c *Cache) CachedRoom(ctx context.Context) *models.Room {
	var r models.Room
	if !c.getJSON(ctx, keyCachedRoom, &r) || r.Code == "" {
		return nil
	}
	return &r
}

func (c *Cache) SetCachedRoom(ctx context.Context, r *models.Room) error {
	return c.setJSON(ctx, keyCachedRoom, r)
}

func (c *Cache) ClearCachedRoom(ctx context.Context) error {
	return c.store.Delete(ctx, keyCachedRoom)
}

// TikTokAuth returns the stored token record, or nil when absent.
func (c *Cache) TikTokAuth(ctx context.Context) *TikTokAuth {
	var a TikTokAuth
	if !c.getJSON(ctx, keyTikTokAuth, &a) || a.AccessToken == "" {
		return nil
	}
	return &a
}

func (c *Cache) SetTikTokAuth(ctx context.Context, a TikTokAuth) error {
	return c.setJSON(ctx, keyTikTokAuth, a)
}

func (c *Cache) ClearTikTokAuth(ctx context.Context) error {
	return c.store.Delete(ctx, keyTikTokAuth)
}

// OAuthState stores the short-lived CSRF token for the authorize flow.
func (c *Cache) SetOAuthState(ctx context.Context, state string) error {
	return c.store.Set(ctx, keyOAuthState, []byte(state))
}

// TakeOAuthState returns the stored CSRF token and clears it, so a
// state can only be consumed once.
func (c *Cache) TakeOAuthState(ctx context.Context) string {
	raw, err := c.store.Get(ctx, keyOAuthState)
	if err != nil {
		return ""
	}
	_ = c.store.Delete(ctx, keyOAuthState)
	return string(raw)
}

// CachedVideos returns the cached video list, dropping it when older
// than VideoCacheTTL.
func (c *Cache) CachedVideos(ctx context.Context) []Video {
	var ts int64
	if c.getJSON(ctx, keyCachedVideosTS, &ts) {
		if c.clock.Now().Sub(time.UnixMilli(ts)) > VideoCacheTTL {
			_ = c.ClearCachedVideos(ctx)
			return nil
		}
	}
	var videos []Video
	c.getJSON(ctx, keyCachedVideos, &videos)
	return videos
}

func (c *Cache) SetCachedVideos(ctx context.Context, videos []Video) error {
	if err := c.setJSON(ctx, keyCachedVideos, videos); err != nil {
		return err
	}
	return c.setJSON(ctx, keyCachedVideosTS, c.clock.Now().UnixMilli())
}

func (c *Cache) ClearCachedVideos(ctx context.Context) error {
	if err := c.store.Delete(ctx, keyCachedVideos); err != nil {
		return err
	}
	return c.store.Delete(ctx, keyCachedVideosTS)
}
