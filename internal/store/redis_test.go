package store

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisStore_Keys(t *testing.T) {
	s := NewRedisStore(redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"}), "")
	defer func() { _ = s.Close() }()

	keys := s.keys("criminal")
	assert.Equal(t, "reqmatrix:criminal:mappings", keys.mappings)
	assert.Equal(t, "reqmatrix:criminal:availability", keys.availability)
	assert.Equal(t, "reqmatrix:criminal:revision", keys.revision)
}

func TestFlagsCodec(t *testing.T) {
	in := map[string]bool{"usa___req1": true, "ca___req1": false}
	fields := encodeFlags(in)
	assert.Equal(t, map[string]interface{}{"usa___req1": "true", "ca___req1": "false"}, fields)

	out, err := decodeFlags(map[string]string{"usa___req1": "true", "ca___req1": "0"})
	require.NoError(t, err)
	assert.Equal(t, in, out)

	_, err = decodeFlags(map[string]string{"x": "maybe"})
	assert.Error(t, err)
}

func TestOpenRedis_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	_, err := OpenRedis(ctx, "127.0.0.1:1", 0, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connect redis 127.0.0.1:1")
}
