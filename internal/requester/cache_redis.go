package requester

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	id "aegis/pkg/domain"
)

const keyCachePrefix = "req:key:"

// CachedStore fronts a Store with a Redis cache on the API key lookup, which
// runs once per authenticated request. The cache is advisory: any Redis
// failure falls through to the backing store.
type CachedStore struct {
	Store
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewCachedStore(store Store, client *redis.Client, ttl time.Duration, logger *slog.Logger) *CachedStore {
	return &CachedStore{Store: store, client: client, ttl: ttl, logger: logger}
}

type cachedRequester struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	ContactEmail string    `json:"contact_email"`
	KeyHash      string    `json:"key_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

func (s *CachedStore) FindByKeyHash(ctx context.Context, keyHash string) (Requester, error) {
	cacheKey := keyCachePrefix + keyHash

	raw, err := s.client.Get(ctx, cacheKey).Result()
	if err == nil {
		var cached cachedRequester
		if jsonErr := json.Unmarshal([]byte(raw), &cached); jsonErr == nil {
			if rid, parseErr := id.ParseRequesterID(cached.ID); parseErr == nil {
				return Requester{
					ID:           rid,
					Name:         cached.Name,
					ContactEmail: cached.ContactEmail,
					KeyHash:      cached.KeyHash,
					CreatedAt:    cached.CreatedAt,
				}, nil
			}
		}
		// Unreadable cache entries are dropped, not trusted.
		s.client.Del(ctx, cacheKey)
	} else if !errors.Is(err, redis.Nil) {
		s.logger.WarnContext(ctx, "api key cache read failed", "error", err)
	}

	r, err := s.Store.FindByKeyHash(ctx, keyHash)
	if err != nil {
		return Requester{}, err
	}

	payload, jsonErr := json.Marshal(cachedRequester{
		ID:           r.ID.String(),
		Name:         r.Name,
		ContactEmail: r.ContactEmail,
		KeyHash:      r.KeyHash,
		CreatedAt:    r.CreatedAt,
	})
	if jsonErr == nil {
		if setErr := s.client.Set(ctx, cacheKey, payload, s.ttl).Err(); setErr != nil {
			s.logger.WarnContext(ctx, "api key cache write failed", "error", setErr)
		}
	}
	return r, nil
}
