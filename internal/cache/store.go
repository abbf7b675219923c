// internal/cache/store.go

// Package cache is the local key-value persistence layer: profile,
// settings, session, the cached room snapshot, the video provider's
// auth token and the cached video list. Reads tolerate corrupt or
// missing storage by returning defaults instead of failing.
package cache

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Store.Get when a key has no value.
var ErrNotFound = errors.New("cache: key not found")

// Store is a string key to JSON value store. Implementations must be
// safe for concurrent use.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Namespaced storage keys, kept stable so snapshots survive restarts.
const (
	keyProfile        = "partyhub_profile"
	keySettings       = "partyhub_settings"
	keySession        = "partyhub_session"
	keyCachedRoom     = "partyhub_cached_room"
	keyTikTokAuth     = "partyhub_tiktok_auth"
	keyOAuthState     = "partyhub_oauth_state"
	keyCachedVideos   = "partyhub_cached_videos"
	keyCachedVideosTS = "partyhub_cached_videos_timestamp"
)
