package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jbonatakis/reqmatrix/internal/matrix"
)

const DefaultRedisPrefix = "reqmatrix"

// RedisStore keeps each service in two hashes plus a revision string, all
// written in one MULTI/EXEC.
type RedisStore struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix, now: time.Now}
}

func OpenRedis(ctx context.Context, addr string, db int, prefix string) (*RedisStore, error) {
	if addr == "" {
		addr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{Addr: addr, DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", addr, err)
	}
	return NewRedisStore(client, prefix), nil
}

type redisKeys struct {
	mappings     string
	availability string
	revision     string
}

func (r *RedisStore) keys(serviceID string) redisKeys {
	base := r.prefix + ":" + serviceID
	return redisKeys{
		mappings:     base + ":mappings",
		availability: base + ":availability",
		revision:     base + ":revision",
	}
}

type redisRevision struct {
	Revision string    `json:"revision"`
	SavedAt  time.Time `json:"savedAt"`
}

func (r *RedisStore) Load(ctx context.Context, serviceID string) (Record, error) {
	if err := checkServiceID(serviceID); err != nil {
		return Record{}, err
	}
	keys := r.keys(serviceID)
	rec := emptyRecord(serviceID)

	raw, err := r.client.Get(ctx, keys.revision).Result()
	switch {
	case errors.Is(err, redis.Nil):
		return rec, nil
	case err != nil:
		return Record{}, fmt.Errorf("redis get %s: %w", keys.revision, err)
	}
	var rev redisRevision
	if err := json.Unmarshal([]byte(raw), &rev); err != nil {
		return Record{}, fmt.Errorf("decode revision for %s: %w", serviceID, err)
	}
	rec.Revision, rec.SavedAt = rev.Revision, rev.SavedAt

	mappings, err := r.client.HGetAll(ctx, keys.mappings).Result()
	if err != nil {
		return Record{}, fmt.Errorf("redis hgetall %s: %w", keys.mappings, err)
	}
	if rec.State.Mappings, err = decodeFlags(mappings); err != nil {
		return Record{}, fmt.Errorf("decode mappings for %s: %w", serviceID, err)
	}
	availability, err := r.client.HGetAll(ctx, keys.availability).Result()
	if err != nil {
		return Record{}, fmt.Errorf("redis hgetall %s: %w", keys.availability, err)
	}
	if rec.State.Availability, err = decodeFlags(availability); err != nil {
		return Record{}, fmt.Errorf("decode availability for %s: %w", serviceID, err)
	}
	return rec, nil
}

func (r *RedisStore) Save(ctx context.Context, serviceID string, s matrix.State) (Record, error) {
	if err := checkServiceID(serviceID); err != nil {
		return Record{}, err
	}
	keys := r.keys(serviceID)
	rec := newRecord(serviceID, s, r.now())
	rev, err := json.Marshal(redisRevision{Revision: rec.Revision, SavedAt: rec.SavedAt})
	if err != nil {
		return Record{}, fmt.Errorf("encode revision: %w", err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, keys.mappings, keys.availability)
		if fields := encodeFlags(rec.State.Mappings); len(fields) > 0 {
			pipe.HSet(ctx, keys.mappings, fields)
		}
		if fields := encodeFlags(rec.State.Availability); len(fields) > 0 {
			pipe.HSet(ctx, keys.availability, fields)
		}
		pipe.Set(ctx, keys.revision, rev, 0)
		return nil
	})
	if err != nil {
		return Record{}, fmt.Errorf("save %s: %w", serviceID, err)
	}
	return rec, nil
}

func (r *RedisStore) Close() error { return r.client.Close() }

func encodeFlags(m map[string]bool) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = strconv.FormatBool(v)
	}
	return out
}

func decodeFlags(m map[string]string) (map[string]bool, error) {
	out := make(map[string]bool, len(m))
	for k, v := range m {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", k, err)
		}
		out[k] = b
	}
	return out, nil
}
