// Package redis implements the cache, lock and pub/sub ports on Redis.
package redis

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/internal/domain"
	apperrors "github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/pkg/errors"
)

const (
	rateKey          = "currency:rates"
	mergeLockPrefix  = "merge:lock:"
	statusChanPrefix = "order:status:"
	processedPrefix  = "kafka:processed:"
)

// RateCache implements repository.RateCache.
type RateCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRateCache creates a rate cache whose entries expire after ttl.
func NewRateCache(client redis.UniversalClient, ttl time.Duration) *RateCache {
	return &RateCache{client: client, ttl: ttl}
}

// Get returns the cached rate table, or a NotFound error on a miss.
func (c *RateCache) Get(ctx context.Context) ([]domain.CurrencyRate, error) {
	data, err := c.client.Get(ctx, rateKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.NotFound("currency rates", rateKey)
		}
		return nil, fmt.Errorf("redis get rates: %w", err)
	}

	var rates []domain.CurrencyRate
	if err := json.Unmarshal(data, &rates); err != nil {
		return nil, fmt.Errorf("unmarshal rates: %w", err)
	}
	return rates, nil
}

func (c *RateCache) Set(ctx context.Context, rates []domain.CurrencyRate) error {
	data, err := json.Marshal(rates)
	if err != nil {
		return fmt.Errorf("marshal rates: %w", err)
	}
	if err := c.client.Set(ctx, rateKey, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set rates: %w", err)
	}
	return nil
}

// releaseScript deletes the lock only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// MergeLock implements repository.MergeLock with SET NX plus a token.
type MergeLock struct {
	client redis.UniversalClient
}

func NewMergeLock(client redis.UniversalClient) *MergeLock {
	return &MergeLock{client: client}
}

// Acquire takes the lock for a (session, user) pair or fails with a conflict
// when another merge for the same pair holds it.
func (l *MergeLock) Acquire(ctx context.Context, sessionID, userID string, ttl time.Duration) (func(context.Context) error, error) {
	key := mergeLockPrefix + sessionID + ":" + userID

	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("generate lock token: %w", err)
	}
	token := hex.EncodeToString(buf)

	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("redis acquire merge lock: %w", err)
	}
	if !ok {
		return nil, apperrors.Conflict("a merge for this session is already running")
	}

	return func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
			return fmt.Errorf("redis release merge lock: %w", err)
		}
		return nil
	}, nil
}

// StatusBroker implements repository.OrderStatusBroker over Redis pub/sub,
// one channel per order.
type StatusBroker struct {
	client redis.UniversalClient
}

func NewStatusBroker(client redis.UniversalClient) *StatusBroker {
	return &StatusBroker{client: client}
}

func (b *StatusBroker) Publish(ctx context.Context, change domain.OrderStatusChange) error {
	data, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("marshal status change: %w", err)
	}
	if err := b.client.Publish(ctx, statusChanPrefix+change.OrderID.String(), data).Err(); err != nil {
		return fmt.Errorf("redis publish status change: %w", err)
	}
	return nil
}

// Subscribe returns once the subscription is live, so no change published
// after it returns is missed.
func (b *StatusBroker) Subscribe(ctx context.Context, orderID uuid.UUID) (<-chan domain.OrderStatusChange, func(), error) {
	ps := b.client.Subscribe(ctx, statusChanPrefix+orderID.String())
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, nil, fmt.Errorf("redis subscribe: %w", err)
	}

	out := make(chan domain.OrderStatusChange, 8)
	done := make(chan struct{})
	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(done)
			_ = ps.Close()
		})
	}

	go func() {
		defer close(out)
		msgs := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				cancel()
				return
			case <-done:
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var change domain.OrderStatusChange
				if err := json.Unmarshal([]byte(msg.Payload), &change); err != nil {
					continue
				}
				select {
				case out <- change:
				case <-ctx.Done():
					cancel()
					return
				case <-done:
					return
				}
			}
		}
	}()

	return out, cancel, nil
}

// IdempotencyStore implements kafka.IdempotencyStore with SET NX.
type IdempotencyStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewIdempotencyStore(client redis.UniversalClient, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{client: client, ttl: ttl}
}

func (s *IdempotencyStore) Claim(ctx context.Context, eventID string) (bool, error) {
	ok, err := s.client.SetNX(ctx, processedPrefix+eventID, 1, s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis claim event: %w", err)
	}
	return ok, nil
}

func (s *IdempotencyStore) Release(ctx context.Context, eventID string) error {
	if err := s.client.Del(ctx, processedPrefix+eventID).Err(); err != nil {
		return fmt.Errorf("redis release event: %w", err)
	}
	return nil
}
