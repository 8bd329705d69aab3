package cacheinfra

import (
	"context"
	"errors"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/redis/go-redis/v9"
)

const (
	redisEntrySegment = "entry:"
	redisTagSegment   = "tag:"
	redisScanCount    = 256
	redisDeleteBatch  = 512
)

// removeTagScript deletes a tag set and every entry it lists in one step, so
// an entry tagged while the removal runs is either removed with the set or
// lands in a fresh set that survives.
var removeTagScript = redis.NewScript(`
local members = redis.call('SMEMBERS', KEYS[1])
for i = 1, #members, tonumber(ARGV[1]) do
	redis.call('DEL', unpack(members, i, math.min(i + tonumber(ARGV[1]) - 1, #members)))
end
redis.call('DEL', KEYS[1])
return #members
`)

// RedisStore keeps entries in redis so they are shared across processes.
// Values are stored verbatim under <prefix>entry:<key>; every tag is a set
// under <prefix>tag:<tag> listing the entry keys that carry it.
//
// Unlike the in-process stores, replacing an entry does not drop it from the
// sets of tags it no longer carries. Removing such a tag evicts the newer
// entry too, which only costs a recomputation.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	cfg    Config
}

// NewRedisStore dials redis using cfg.Redis.
func NewRedisStore(cfg Config) (*RedisStore, error) {
	if cfg.Redis == nil {
		cfg.Redis = DefaultRedisConfig()
	}
	cfg.Backend = BackendRedis
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Redis.Addr,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})

	return NewRedisStoreWithClient(client, cfg), nil
}

// NewRedisStoreWithClient wraps an existing client. cfg.Redis.KeyPrefix, when
// present, namespaces every key.
func NewRedisStoreWithClient(client redis.UniversalClient, cfg Config) *RedisStore {
	prefix := ""
	if cfg.Redis != nil {
		prefix = cfg.Redis.KeyPrefix
	}
	return &RedisStore{client: client, prefix: prefix, cfg: cfg}
}

func (s *RedisStore) entryKey(key string) string {
	return s.prefix + redisEntrySegment + key
}

func (s *RedisStore) tagKey(tag string) string {
	return s.prefix + redisTagSegment + tag
}

// Get returns a copy of the value stored under key. Connection failures are returned so the caller
// can decide to bypass the cache.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := s.client.Get(ctx, s.entryKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, goerrors.Wrap(err, goerrors.CategoryExternal, "redis get failed")
	}
	return val, true, nil
}

// Set replaces the entry under key and re-indexes its tags.
func (s *RedisStore) Set(ctx context.Context, key string, value []byte, tags []string, ttl time.Duration) error {
	ttl = s.cfg.clampTTL(ttl)
	entryKey := s.entryKey(key)
	tagTTL := s.cfg.maxTTL()

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, entryKey, value, ttl)
		for _, tag := range tags {
			tagKey := s.tagKey(tag)
			pipe.SAdd(ctx, tagKey, entryKey)
			pipe.Expire(ctx, tagKey, tagTTL)
		}
		return nil
	})
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryExternal, "redis set failed")
	}
	return nil
}

// RemoveByTag evicts every entry carrying tag. WildcardTag evicts everything.
func (s *RedisStore) RemoveByTag(ctx context.Context, tag string) error {
	if tag == WildcardTag {
		return s.removeAll(ctx)
	}

	err := removeTagScript.Run(ctx, s.client, []string{s.tagKey(tag)}, redisDeleteBatch).Err()
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryExternal, "redis tag removal failed")
	}
	return nil
}

// Remove evicts a single key.
func (s *RedisStore) Remove(ctx context.Context, key string) error {
	return s.del(ctx, []string{s.entryKey(key)})
}

func (s *RedisStore) removeAll(ctx context.Context) error {
	var keys []string
	iter := s.client.Scan(ctx, 0, s.prefix+"*", redisScanCount).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryExternal, "redis scan failed")
	}
	return s.del(ctx, keys)
}

func (s *RedisStore) del(ctx context.Context, keys []string) error {
	for start := 0; start < len(keys); start += redisDeleteBatch {
		end := min(start+redisDeleteBatch, len(keys))
		if err := s.client.Del(ctx, keys[start:end]...).Err(); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryExternal, "redis delete failed")
		}
	}
	return nil
}

// Ping checks the redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
