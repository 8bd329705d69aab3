package cacheinfra

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	goerrors "github.com/goliatone/go-errors"
	"github.com/viccon/sturdyc"
)

// Backend names accepted by Config.Backend.
const (
	BackendSturdyc   = "sturdyc"
	BackendRistretto = "ristretto"
	BackendRedis     = "redis"
)

// Config holds the configuration shared by the store implementations.
type Config struct {
	// Backend selects the store implementation. Empty means sturdyc.
	Backend string

	// Capacity defines the maximum number of entries kept in process.
	// For ristretto it is the maximum cost, each entry costs 1.
	Capacity int

	// NumShards determines the number of sturdyc shards.
	NumShards int

	// TTL is applied when Set receives a non-positive ttl.
	TTL time.Duration

	// MaxTTL caps every entry lifetime. Tag sets in redis expire after it.
	MaxTTL time.Duration

	// EvictionPercentage specifies what percentage of entries sturdyc evicts
	// when it reaches capacity. Must be between 1-100.
	EvictionPercentage int

	// EvictionInterval sets how often sturdyc sweeps expired entries.
	// Zero value uses the sturdyc default.
	EvictionInterval time.Duration

	// Redis is required when Backend is "redis".
	Redis *RedisConfig
}

// RedisConfig configures the redis backed store.
type RedisConfig struct {
	Addr         string
	Password     string
	DB           int
	KeyPrefix    string
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults for most use cases.
func DefaultConfig() Config {
	return Config{
		Backend:            BackendSturdyc,
		Capacity:           10000,
		NumShards:          256,
		TTL:                5 * time.Minute,
		MaxTTL:             24 * time.Hour,
		EvictionPercentage: 10,
	}
}

// DefaultRedisConfig returns connection defaults for a local redis.
func DefaultRedisConfig() *RedisConfig {
	return &RedisConfig{
		Addr:         "localhost:6379",
		KeyPrefix:    "querycache:",
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

// Validate checks if the configuration values are valid.
func (c Config) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.Backend, validation.In(BackendSturdyc, BackendRistretto, BackendRedis)),
		validation.Field(&c.Capacity, validation.Required, validation.Min(1)),
		validation.Field(&c.NumShards, validation.Required, validation.Min(1)),
		validation.Field(&c.TTL, validation.Required, validation.Min(time.Nanosecond)),
		validation.Field(&c.MaxTTL, validation.Min(c.TTL)),
		validation.Field(&c.EvictionPercentage, validation.Required, validation.Min(1), validation.Max(100)),
		validation.Field(&c.EvictionInterval, validation.Min(time.Duration(0))),
		validation.Field(&c.Redis, validation.When(c.Backend == BackendRedis, validation.Required)),
	)
	if err != nil {
		return goerrors.FromOzzoValidation(err, "invalid cache configuration")
	}
	return nil
}

// Validate implements validation.Validatable so nested redis settings are
// checked as part of Config.Validate.
func (r RedisConfig) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Addr, validation.Required),
		validation.Field(&r.DB, validation.Min(0)),
		validation.Field(&r.DialTimeout, validation.Min(time.Duration(0))),
		validation.Field(&r.ReadTimeout, validation.Min(time.Duration(0))),
		validation.Field(&r.WriteTimeout, validation.Min(time.Duration(0))),
	)
}

// clampTTL resolves the lifetime of a single entry.
func (c Config) clampTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		ttl = c.TTL
	}
	if c.MaxTTL > 0 && ttl > c.MaxTTL {
		ttl = c.MaxTTL
	}
	return ttl
}

// maxTTL is the lifetime sturdyc itself enforces.
func (c Config) maxTTL() time.Duration {
	if c.MaxTTL > 0 {
		return c.MaxTTL
	}
	return c.TTL
}

// ToSturdycOptions converts the Config to sturdyc.Option slice.
// Capacity, NumShards, TTL, and EvictionPercentage are passed directly
// to sturdyc.New() and are not included here.
func (c Config) ToSturdycOptions() []sturdyc.Option {
	var options []sturdyc.Option

	if c.EvictionInterval > 0 {
		options = append(options, sturdyc.WithEvictionInterval(c.EvictionInterval))
	}

	return options
}
