package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cristianortiz/auctionhouse/internal/auction/domain"
	"github.com/gomodule/redigo/redis"
	"github.com/google/uuid"
)

// releaseScript deletes the lock only when it still holds the caller's token.
var releaseScript = redis.NewScript(1, `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func statusKey(id uuid.UUID) string  { return "auction:" + id.String() + ":status" }
func highestKey(id uuid.UUID) string { return "auction:" + id.String() + ":highest" }
func lockKey(id uuid.UUID) string    { return "auction:" + id.String() + ":lock" }

// StateCache implements domain.StateCache on a single Redis instance. The
// lock is only sound while that instance is the one authority for it.
type StateCache struct {
	pool *redis.Pool
}

func NewStateCache(pool *redis.Pool) *StateCache {
	return &StateCache{pool: pool}
}

func (c *StateCache) do(ctx context.Context, cmd string, args ...interface{}) (interface{}, error) {
	conn, err := c.pool.GetContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("redis: get conn: %w", err)
	}
	defer conn.Close()
	return conn.Do(cmd, args...)
}

func (c *StateCache) AcquireLock(ctx context.Context, auctionID uuid.UUID, token string, ttl time.Duration) (bool, error) {
	_, err := redis.String(c.do(ctx, "SET", lockKey(auctionID), token, "NX", "PX", ttl.Milliseconds()))
	if errors.Is(err, redis.ErrNil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis: acquire lock: %w", err)
	}
	return true, nil
}

func (c *StateCache) ReleaseLock(ctx context.Context, auctionID uuid.UUID, token string) (bool, error) {
	conn, err := c.pool.GetContext(ctx)
	if err != nil {
		return false, fmt.Errorf("redis: get conn: %w", err)
	}
	defer conn.Close()

	n, err := redis.Int(releaseScript.Do(conn, lockKey(auctionID), token))
	if err != nil {
		return false, fmt.Errorf("redis: release lock: %w", err)
	}
	return n == 1, nil
}

func (c *StateCache) GetStatus(ctx context.Context, auctionID uuid.UUID) (domain.AuctionStatus, bool, error) {
	s, err := redis.String(c.do(ctx, "GET", statusKey(auctionID)))
	if errors.Is(err, redis.ErrNil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis: get status: %w", err)
	}
	return domain.AuctionStatus(s), true, nil
}

func (c *StateCache) SetStatus(ctx context.Context, auctionID uuid.UUID, status domain.AuctionStatus) error {
	if _, err := c.do(ctx, "SET", statusKey(auctionID), string(status)); err != nil {
		return fmt.Errorf("redis: set status: %w", err)
	}
	return nil
}

func (c *StateCache) GetSnapshot(ctx context.Context, auctionID uuid.UUID) (*domain.HighestBidSnapshot, error) {
	raw, err := redis.Bytes(c.do(ctx, "GET", highestKey(auctionID)))
	if errors.Is(err, redis.ErrNil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis: get snapshot: %w", err)
	}
	var snap domain.HighestBidSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("redis: decode snapshot: %w", err)
	}
	return &snap, nil
}

func (c *StateCache) SetSnapshot(ctx context.Context, auctionID uuid.UUID, snapshot domain.HighestBidSnapshot) error {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("redis: encode snapshot: %w", err)
	}
	if _, err := c.do(ctx, "SET", highestKey(auctionID), raw); err != nil {
		return fmt.Errorf("redis: set snapshot: %w", err)
	}
	return nil
}

func (c *StateCache) DeleteSnapshot(ctx context.Context, auctionID uuid.UUID) error {
	if _, err := c.do(ctx, "DEL", highestKey(auctionID)); err != nil {
		return fmt.Errorf("redis: delete snapshot: %w", err)
	}
	return nil
}

func (c *StateCache) Teardown(ctx context.Context, auctionID uuid.UUID) error {
	if _, err := c.do(ctx, "DEL", highestKey(auctionID), lockKey(auctionID), statusKey(auctionID)); err != nil {
		return fmt.Errorf("redis: teardown: %w", err)
	}
	return nil
}
