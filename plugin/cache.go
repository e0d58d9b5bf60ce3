package plugin

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/BaSui01/speechflow/speech"
)

// ErrCacheMiss indicates the voice list is not cached.
var ErrCacheMiss = errors.New("voice cache miss")

const voiceCachePrefix = "speechflow:voices:"

// VoiceCache caches per-provider voice lists in Redis. Voice catalogs
// change rarely but listing them costs a vendor round trip on every
// synthesize call that resolves a voice by name.
type VoiceCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewVoiceCache creates a Redis-backed voice cache. A zero ttl defaults
// to five minutes.
func NewVoiceCache(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *VoiceCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl == 0 {
		ttl = 5 * time.Minute
	}
	return &VoiceCache{rdb: rdb, ttl: ttl, logger: logger.With(zap.String("component", "voice_cache"))}
}

// Get returns the cached voice list for a provider.
func (c *VoiceCache) Get(ctx context.Context, provider string) ([]speech.Voice, error) {
	data, err := c.rdb.Get(ctx, voiceCachePrefix+provider).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		c.logger.Debug("voice cache read failed", zap.Error(err))
		return nil, ErrCacheMiss
	}
	var voices []speech.Voice
	if err := json.Unmarshal(data, &voices); err != nil {
		return nil, ErrCacheMiss
	}
	return voices, nil
}

// Put stores the voice list. Failures are logged, never surfaced — the
// cache is an optimization, not a source of truth.
func (c *VoiceCache) Put(ctx context.Context, provider string, voices []speech.Voice) {
	data, err := json.Marshal(voices)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, voiceCachePrefix+provider, data, c.ttl).Err(); err != nil {
		c.logger.Debug("voice cache write failed", zap.Error(err))
	}
}

// Invalidate drops the cached list for a provider.
func (c *VoiceCache) Invalidate(ctx context.Context, provider string) {
	if err := c.rdb.Del(ctx, voiceCachePrefix+provider).Err(); err != nil {
		c.logger.Debug("voice cache invalidate failed", zap.Error(err))
	}
}
