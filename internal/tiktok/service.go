// internal/tiktok/service.go
package tiktok

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"github.com/ernsttxbias-web/partyhub/internal/cache"
)

// ErrStateMismatch means the OAuth callback state did not match the one
// we issued; the callback is dropped as a possible forgery.
var ErrStateMismatch = errors.New("tiktok: oauth state mismatch")

// ErrNotConnected means no provider account is linked.
var ErrNotConnected = errors.New("tiktok: not connected")

const likedFetchCount = 100

// Service drives the provider flows against the local cache: connect,
// refresh, and video fetching with a one hour cache behind it.
type Service struct {
	client *Client
	cache  *cache.Cache
	clock  clockwork.Clock
	log    logrus.FieldLogger
}

// NewService wires a provider client to the local cache.
func NewService(client *Client, store *cache.Cache, clock clockwork.Clock, log logrus.FieldLogger) *Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{client: client, cache: store, clock: clock, log: log}
}

// Connected reports whether a non-expired provider token is stored.
func (s *Service) Connected(ctx context.Context) bool {
	auth := s.cache.TikTokAuth(ctx)
	return auth != nil && !auth.Expired(s.clock.Now())
}

// AuthorizeURL mints a CSRF state, persists it, and returns the URL to
// send the player to.
func (s *Service) AuthorizeURL(ctx context.Context) (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate oauth state: %w", err)
	}
	state := hex.EncodeToString(buf)
	if err := s.cache.SetOAuthState(ctx, state); err != nil {
		return "", fmt.Errorf("store oauth state: %w", err)
	}
	return s.client.AuthorizeURL(state), nil
}

// HandleCallback finishes the OAuth flow: the state must match the one
// we issued (single use), then the code is exchanged and the token
// record stored.
func (s *Service) HandleCallback(ctx context.Context, code, state string) error {
	if state == "" || state != s.cache.TakeOAuthState(ctx) {
		return ErrStateMismatch
	}
	auth, err := s.client.Exchange(ctx, code)
	if err != nil {
		return err
	}
	if err := s.cache.SetTikTokAuth(ctx, auth); err != nil {
		return fmt.Errorf("store provider token: %w", err)
	}
	return nil
}

// Disconnect drops the token record and any cached videos.
func (s *Service) Disconnect(ctx context.Context) {
	if err := s.cache.ClearTikTokAuth(ctx); err != nil {
		s.log.Warnf("clearing provider token: %v", err)
	}
	if err := s.cache.ClearCachedVideos(ctx); err != nil {
		s.log.Warnf("clearing cached videos: %v", err)
	}
}

// FetchLiked returns the account's videos, refreshing an expired token
// first. Any failure falls back to the cached list; an empty API
// answer does too. A successful fetch refills the cache.
func (s *Service) FetchLiked(ctx context.Context) ([]cache.Video, error) {
	auth := s.cache.TikTokAuth(ctx)
	if auth == nil {
		return nil, ErrNotConnected
	}

	if auth.Expired(s.clock.Now()) {
		refreshed, err := s.client.Refresh(ctx, *auth)
		if err != nil {
			s.log.Warnf("token refresh failed, serving cached videos: %v", err)
			return s.cache.CachedVideos(ctx), nil
		}
		if err := s.cache.SetTikTokAuth(ctx, refreshed); err != nil {
			s.log.Warnf("storing refreshed token: %v", err)
		}
		auth = &refreshed
	}

	videos, err := s.client.ListVideos(ctx, auth.AccessToken, likedFetchCount)
	if err != nil {
		s.log.Warnf("video fetch failed, serving cached videos: %v", err)
		return s.cache.CachedVideos(ctx), nil
	}
	if len(videos) == 0 {
		return s.cache.CachedVideos(ctx), nil
	}

	if err := s.cache.SetCachedVideos(ctx, videos); err != nil {
		s.log.Warnf("caching videos: %v", err)
	}
	return videos, nil
}
