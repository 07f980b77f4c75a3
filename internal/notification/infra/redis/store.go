package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cristianortiz/auctionhouse/internal/notification/domain"
	"github.com/gomodule/redigo/redis"
	"github.com/google/uuid"
)

const markReadAttempts = 3

// pushScript prepends the id, stores the item and evicts beyond the cap.
var pushScript = redis.NewScript(2, `
redis.call("LPUSH", KEYS[1], ARGV[1])
redis.call("HSET", KEYS[2], ARGV[1], ARGV[2])
local cap = tonumber(ARGV[3])
while redis.call("LLEN", KEYS[1]) > cap do
	local evicted = redis.call("RPOP", KEYS[1])
	redis.call("HDEL", KEYS[2], evicted)
end
return redis.call("LLEN", KEYS[1])
`)

// swapScript replaces an item only if it is unchanged since it was read.
var swapScript = redis.NewScript(1, `
if redis.call("HGET", KEYS[1], ARGV[1]) == ARGV[2] then
	redis.call("HSET", KEYS[1], ARGV[1], ARGV[3])
	return 1
end
return 0
`)

func idsKey(userID uuid.UUID) string   { return "notifications:" + userID.String() + ":ids" }
func itemsKey(userID uuid.UUID) string { return "notifications:" + userID.String() + ":items" }

// Store implements domain.Store with a capped list of ids and a hash of
// items per user.
type Store struct {
	pool *redis.Pool
	cap  int
}

func NewStore(pool *redis.Pool, perUserCap int) *Store {
	return &Store{pool: pool, cap: perUserCap}
}

func (s *Store) conn(ctx context.Context) (redis.Conn, error) {
	conn, err := s.pool.GetContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("redis: get conn: %w", err)
	}
	return conn, nil
}

func (s *Store) Push(ctx context.Context, n *domain.Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return err
	}
	conn, err := s.conn(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	_, err = pushScript.Do(conn, idsKey(n.UserID), itemsKey(n.UserID), n.ID.String(), data, s.cap)
	return err
}

func (s *Store) List(ctx context.Context, userID uuid.UUID) ([]*domain.Notification, error) {
	conn, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	ids, err := redis.Strings(conn.Do("LRANGE", idsKey(userID), 0, -1))
	if err != nil {
		return nil, err
	}
	out := []*domain.Notification{}
	if len(ids) == 0 {
		return out, nil
	}

	args := redis.Args{}.Add(itemsKey(userID)).AddFlat(ids)
	items, err := redis.ByteSlices(conn.Do("HMGET", args...))
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		if item == nil {
			continue
		}
		var n domain.Notification
		if err := json.Unmarshal(item, &n); err != nil {
			return nil, fmt.Errorf("decode notification: %w", err)
		}
		out = append(out, &n)
	}
	return out, nil
}

func (s *Store) MarkRead(ctx context.Context, userID, id uuid.UUID) (*domain.Notification, error) {
	conn, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	for attempt := 0; attempt < markReadAttempts; attempt++ {
		current, err := redis.Bytes(conn.Do("HGET", itemsKey(userID), id.String()))
		if errors.Is(err, redis.ErrNil) {
			return nil, domain.ErrNotificationNotFound
		}
		if err != nil {
			return nil, err
		}

		var n domain.Notification
		if err := json.Unmarshal(current, &n); err != nil {
			return nil, fmt.Errorf("decode notification: %w", err)
		}
		if n.Read {
			return &n, nil
		}
		n.Read = true
		updated, err := json.Marshal(&n)
		if err != nil {
			return nil, err
		}

		swapped, err := redis.Int(swapScript.Do(conn, itemsKey(userID), id.String(), current, updated))
		if err != nil {
			return nil, err
		}
		if swapped == 1 {
			return &n, nil
		}
	}
	return nil, fmt.Errorf("mark notification %s read: concurrent updates", id)
}
