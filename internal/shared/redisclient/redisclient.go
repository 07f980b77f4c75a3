package redisclient

import (
	"math/rand"
	"runtime"
	"time"

	"github.com/gomodule/redigo/redis"
	"go.uber.org/zap"

	"github.com/cristianortiz/auctionhouse/internal/shared/logger"
)

const (
	dialTimeout  = 2 * time.Second
	readTimeout  = 1500 * time.Millisecond
	writeTimeout = 1500 * time.Millisecond

	retryCount = 3
)

var log = logger.GetLogger()

// Param are the optional pool settings.
type Param struct {
	PoolMultiplier float64
	Retry          bool
}

// ConnectRedis builds a pool for addr and checks one connection before returning.
func ConnectRedis(addr, password string, param ...Param) (*redis.Pool, error) {
	p := NewPool(addr, password, param...)

	retry := len(param) > 0 && param[0].Retry
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	var dialErr error
	for i := retryCount; i >= 0; i-- {
		if i < retryCount {
			if !retry {
				break
			}
			// at least 1 second plus jitter
			time.Sleep(time.Duration(r.Float32()*1000)*time.Millisecond + time.Second)
		}
		dialErr = ping(p)
		if dialErr == nil {
			break
		}
		log.Error("fail to dial Redis", zap.String("redisAddr", addr), zap.Int("retry", i), zap.Error(dialErr))
	}
	if dialErr != nil {
		_ = p.Close()
		return nil, dialErr
	}

	log.Info("redis connected", zap.String("redisAddr", addr))
	return p, nil
}

// NewPool returns a lazily dialing pool, no connection is made here.
func NewPool(addr, password string, param ...Param) *redis.Pool {
	maxIdle := 200
	maxActive := 1024
	if len(param) > 0 && param[0].PoolMultiplier > 0 {
		cpu := float64(runtime.NumCPU())
		// allowing 25% idle connection
		maxIdle = int(cpu * param[0].PoolMultiplier / 4)
		maxActive = int(cpu * param[0].PoolMultiplier)
	}

	opts := []redis.DialOption{
		redis.DialConnectTimeout(dialTimeout),
		redis.DialReadTimeout(readTimeout),
		redis.DialWriteTimeout(writeTimeout),
	}
	if password != "" {
		opts = append(opts, redis.DialPassword(password))
	}

	return &redis.Pool{
		MaxIdle:     maxIdle,
		MaxActive:   maxActive,
		Wait:        true,
		IdleTimeout: 240 * time.Second,
		Dial: func() (redis.Conn, error) {
			return redis.Dial("tcp", addr, opts...)
		},
		TestOnBorrow: func(c redis.Conn, t time.Time) error {
			// No need to test if it's been recycled less than 1 sec.
			if time.Since(t) < time.Second {
				return nil
			}
			_, err := c.Do("PING")
			return err
		},
	}
}

func ping(p *redis.Pool) error {
	c := p.Get()
	defer c.Close()
	_, err := c.Do("PING")
	return err
}
