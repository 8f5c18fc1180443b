package cashsession

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	draftKeyPrefix = "cashdesk:opening:draft:"
	lockKeyPrefix  = "cashdesk:opening:lock:"
	lockTTL        = 30 * time.Second
)

// releaseLock deletes the lock only if it still carries our token.
var releaseLock = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// extendLock pushes the lock's expiry out only while it still carries our token.
var extendLock = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0`)

type redisDraftStore struct {
	rdb *redis.Client
	ttl time.Duration
	// refresh is how often a held lock is extended back to lockTTL.
	refresh time.Duration
}

// NewRedisDraftStore keeps drafts in Redis so every API instance sees the same
// opening form. Drafts expire after ttl of inactivity.
func NewRedisDraftStore(rdb *redis.Client, ttl time.Duration) DraftStore {
	return &redisDraftStore{rdb: rdb, ttl: ttl, refresh: lockTTL / 3}
}

func (s *redisDraftStore) Get(ctx context.Context, key string) (*Draft, error) {
	raw, err := s.rdb.Get(ctx, draftKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get opening draft: %w", err)
	}
	d := &Draft{}
	if err := json.Unmarshal(raw, d); err != nil {
		return nil, fmt.Errorf("decode opening draft: %w", err)
	}
	return d, nil
}

func (s *redisDraftStore) Put(ctx context.Context, key string, d *Draft) error {
	raw, err := json.Marshal(d)
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, draftKeyPrefix+key, raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("put opening draft: %w", err)
	}
	return nil
}

func (s *redisDraftStore) Delete(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, draftKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("delete opening draft: %w", err)
	}
	return nil
}

// Lock claims the workflow for lockTTL and keeps extending the claim until unlock
// is called, so a slow upsert cannot outlive it.
func (s *redisDraftStore) Lock(ctx context.Context, key string) (func(), error) {
	lockKey := lockKeyPrefix + key
	token := uuid.NewString()
	ok, err := s.rdb.SetNX(ctx, lockKey, token, lockTTL).Result()
	if err != nil {
		return nil, fmt.Errorf("lock opening workflow: %w", err)
	}
	if !ok {
		return nil, ErrWorkflowBusy
	}

	bg := context.WithoutCancel(ctx)
	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(s.refresh)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				err := extendLock.Run(bg, s.rdb, []string{lockKey}, token, lockTTL.Milliseconds()).Err()
				if err != nil {
					log.Warn().Err(err).Str("operator_id", key).Msg("failed to extend opening lock")
				}
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			<-done
			if err := releaseLock.Run(bg, s.rdb, []string{lockKey}, token).Err(); err != nil {
				log.Warn().Err(err).Str("operator_id", key).Msg("failed to release opening lock")
			}
		})
	}, nil
}
