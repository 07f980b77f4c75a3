package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gomodule/redigo/redis"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const resubscribeBackoff = time.Second

// RedisPublisher publishes envelopes on a pub/sub channel. Every instance
// runs a Relay on that channel, the publishing one included, so delivery
// does not depend on which instance a client is connected to.
type RedisPublisher struct {
	pool    *redis.Pool
	channel string
}

func NewRedisPublisher(pool *redis.Pool, channel string) *RedisPublisher {
	return &RedisPublisher{pool: pool, channel: channel}
}

func (p *RedisPublisher) BroadcastToAuction(ctx context.Context, auctionID uuid.UUID, event string, payload any) error {
	env, err := NewEnvelope(TargetAuction, auctionID, event, payload)
	if err != nil {
		return err
	}
	return p.publish(ctx, env)
}

func (p *RedisPublisher) NotifyUser(ctx context.Context, userID uuid.UUID, event string, payload any) error {
	env, err := NewEnvelope(TargetUser, userID, event, payload)
	if err != nil {
		return err
	}
	return p.publish(ctx, env)
}

func (p *RedisPublisher) publish(ctx context.Context, env *Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	conn, err := p.pool.GetContext(ctx)
	if err != nil {
		return fmt.Errorf("redis: get conn: %w", err)
	}
	defer conn.Close()

	if _, err := conn.Do("PUBLISH", p.channel, data); err != nil {
		return fmt.Errorf("publish %s: %w", env.Event, err)
	}
	return nil
}

// Relay subscribes to the events channel and delivers what it receives to
// the local hub.
type Relay struct {
	pool    *redis.Pool
	channel string
	d       Deliverer
}

func NewRelay(pool *redis.Pool, channel string, d Deliverer) *Relay {
	return &Relay{pool: pool, channel: channel, d: d}
}

// Run keeps a subscription open until ctx is done, resubscribing after a
// connection loss. Events published while disconnected are lost.
func (r *Relay) Run(ctx context.Context) error {
	for {
		err := r.subscribe(ctx)
		if ctx.Err() != nil {
			log.Info("Event relay stopped", zap.String("channel", r.channel))
			return nil
		}
		log.Warn("Event relay disconnected, resubscribing", zap.String("channel", r.channel), zap.Error(err))

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(resubscribeBackoff):
		}
	}
}

func (r *Relay) subscribe(ctx context.Context) error {
	// a dedicated connection, pooled ones are not safe to close mid receive
	conn, err := r.pool.Dial()
	if err != nil {
		return err
	}
	psc := redis.PubSubConn{Conn: conn}
	defer psc.Close()

	if err := psc.Subscribe(r.channel); err != nil {
		return err
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			// unblocks the receive below
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		switch v := psc.ReceiveWithTimeout(0).(type) {
		case redis.Message:
			r.handle(v.Data)
		case redis.Subscription:
			log.Info("Event relay subscription changed",
				zap.String("kind", v.Kind),
				zap.String("channel", v.Channel),
				zap.Int("count", v.Count),
			)
			if v.Count == 0 {
				return nil
			}
		case error:
			return v
		}
	}
}

func (r *Relay) handle(data []byte) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Warn("Dropping malformed event envelope", zap.Error(err))
		return
	}
	if err := Deliver(r.d, &env); err != nil {
		log.Warn("Dropping undeliverable event", zap.String("event", env.Event), zap.Error(err))
	}
}
