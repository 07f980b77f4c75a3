package redisclient

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gomodule/redigo/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	p, err := ConnectRedis(mr.Addr(), "")
	require.NoError(t, err)
	defer p.Close()

	c := p.Get()
	defer c.Close()
	_, err = c.Do("SET", "k", "v")
	require.NoError(t, err)
	v, err := redis.String(c.Do("GET", "k"))
	require.NoError(t, err)
	assert.Equal(t, "v", v)
}

func TestConnectRedisFailsWithoutRetry(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := ConnectRedis(addr, "", Param{Retry: false})
	assert.Error(t, err)
}

func TestNewPoolMultiplier(t *testing.T) {
	p := NewPool("localhost:0", "", Param{PoolMultiplier: 8})
	assert.Greater(t, p.MaxActive, 0)
	assert.LessOrEqual(t, p.MaxIdle, p.MaxActive)
}
