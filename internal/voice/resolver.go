// Package voice resolves a participant's cloned-voice identity from
// the speech vendor's voice library, cached to keep joins fast.
package voice

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/thinkingjet/SpeakSync/internal/infrastructure/cache"
)

// noVoice marks a cached negative lookup so absent clones are not
// re-queried on every join.
const noVoice = "!none"

// Directory lists cloned voices by owner name.
type Directory interface {
	FindVoiceByName(ctx context.Context, name string) (string, error)
}

// Resolver caches cloned-voice lookups by username.
type Resolver struct {
	directory Directory
	store     cache.Store
	ttl       time.Duration
	logger    *zap.Logger
}

// NewResolver constructs a resolver. ttl bounds how long both
// positive and negative lookups are reused.
func NewResolver(dir Directory, store cache.Store, ttl time.Duration, logger *zap.Logger) *Resolver {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Resolver{directory: dir, store: store, ttl: ttl, logger: logger}
}

func cacheKey(username string) string {
	return "voice:" + strings.ToLower(strings.TrimSpace(username))
}

// Resolve returns the voice id cloned for the username, or an empty
// string when the user has no clone. Vendor failures read as no
// clone; the participant falls back to the default voice.
func (r *Resolver) Resolve(ctx context.Context, username string) string {
	if strings.TrimSpace(username) == "" {
		return ""
	}
	key := cacheKey(username)

	if cached, ok := r.store.Get(ctx, key); ok {
		if cached == noVoice {
			return ""
		}
		return cached
	}

	voiceID, err := r.directory.FindVoiceByName(ctx, username)
	if err != nil {
		r.logger.Warn("voice lookup failed", zap.String("username", username), zap.Error(err))
		return ""
	}

	if voiceID == "" {
		r.store.Set(ctx, key, noVoice, r.ttl)
		return ""
	}
	r.store.Set(ctx, key, voiceID, r.ttl)
	r.logger.Info("cloned voice resolved", zap.String("username", username), zap.String("voice_id", voiceID))
	return voiceID
}

// Invalidate drops the cached lookup for the username.
func (r *Resolver) Invalidate(ctx context.Context, username string) {
	r.store.Delete(ctx, cacheKey(username))
}
