package redisx

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// A completed key replays the created order id for a day. The in-flight
// claim lives much shorter: if the process dies between the order commit
// and Complete, the claim lapses on its own instead of answering every
// retry with a conflict for 24 hours.
const (
	idempotencyTTL = 24 * time.Hour
	claimTTL       = 10 * time.Minute
)

// in-flight marker stored before the order commits
const pendingMarker = "pending"

var ErrInFlight = errors.New("request with this idempotency key is in flight")

func NewClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: addr})
}

// Idempotency guards order creation retries: the first request claims the
// key, the commit stores the created order id, and any retry with the same
// key gets that id back instead of charging again.
type Idempotency struct {
	RDB *redis.Client
}

func key(userID uint, token string) string {
	return fmt.Sprintf("orders:idem:%d:%s", userID, token)
}

// Claim returns (0, nil) when the key is fresh and now claimed by this
// request, or the previously created order id when the key was seen before.
func (i *Idempotency) Claim(ctx context.Context, userID uint, token string) (uint, error) {
	ok, err := i.RDB.SetNX(ctx, key(userID, token), pendingMarker, claimTTL).Result()
	if err != nil {
		return 0, fmt.Errorf("redis setnx: %w", err)
	}
	if ok {
		return 0, nil
	}

	v, err := i.RDB.Get(ctx, key(userID, token)).Result()
	if err != nil {
		return 0, fmt.Errorf("redis get: %w", err)
	}
	if v == pendingMarker {
		return 0, ErrInFlight
	}
	id, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("corrupt idempotency value %q: %w", v, err)
	}
	return uint(id), nil
}

// Complete records the created order id under the claimed key.
func (i *Idempotency) Complete(ctx context.Context, userID uint, token string, orderID uint) error {
	return i.RDB.Set(ctx, key(userID, token), strconv.FormatUint(uint64(orderID), 10), idempotencyTTL).Err()
}

// Release frees the key after a failed attempt so the caller can retry.
func (i *Idempotency) Release(ctx context.Context, userID uint, token string) error {
	return i.RDB.Del(ctx, key(userID, token)).Err()
}
