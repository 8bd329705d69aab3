package cache

import (
	"os"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-query-cache/internal/cacheinfra"
	"gopkg.in/yaml.v3"
)

var (
	_ Store   = (*cacheinfra.SturdycStore)(nil)
	_ Remover = (*cacheinfra.SturdycStore)(nil)
	_ Store   = (*cacheinfra.RistrettoStore)(nil)
	_ Remover = (*cacheinfra.RistrettoStore)(nil)
	_ Store   = (*cacheinfra.RedisStore)(nil)
	_ Remover = (*cacheinfra.RedisStore)(nil)
)

// Backend names accepted by Config.Backend.
const (
	BackendSturdyc   = cacheinfra.BackendSturdyc
	BackendRistretto = cacheinfra.BackendRistretto
	BackendRedis     = cacheinfra.BackendRedis
)

// Config exposes store configuration options for consumers of the cache package.
// Durations are written as Go duration strings ("5m", "24h") in YAML.
type Config struct {
	Backend            string        `yaml:"backend"`
	Codec              string        `yaml:"codec"`
	Capacity           int           `yaml:"capacity"`
	NumShards          int           `yaml:"num_shards"`
	TTL                time.Duration `yaml:"ttl"`
	MaxTTL             time.Duration `yaml:"max_ttl"`
	EvictionPercentage int           `yaml:"eviction_percentage"`
	EvictionInterval   time.Duration `yaml:"eviction_interval"`
	Redis              *RedisConfig  `yaml:"redis"`
}

// RedisConfig mirrors the redis connection settings.
type RedisConfig struct {
	Addr         string        `yaml:"addr"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	KeyPrefix    string        `yaml:"key_prefix"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() Config {
	cfg := convertFromInternal(cacheinfra.DefaultConfig())
	cfg.Codec = DefaultCodec().Name()
	return cfg
}

// DefaultRedisConfig returns connection defaults for a local redis.
func DefaultRedisConfig() *RedisConfig {
	return convertRedisFromInternal(cacheinfra.DefaultRedisConfig())
}

// Validate checks whether the configuration values are valid.
func (c Config) Validate() error {
	if err := validation.Validate(c.Codec, validation.In(codecMsgpack, codecJSON)); err != nil {
		return goerrors.FromOzzoValidation(validation.Errors{"Codec": err}, "invalid cache configuration")
	}
	return c.toInternal().Validate()
}

// NewCodec returns the codec named by c.Codec.
func (c Config) NewCodec() Codec {
	return CodecByName(c.Codec)
}

// ParseConfig decodes YAML on top of DefaultConfig, so omitted fields keep
// their defaults, and validates the result.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, goerrors.Wrap(err, goerrors.CategoryValidation, "failed to parse cache configuration").
			WithTextCode("CACHE_CONFIG_PARSE")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig reads and parses a YAML configuration file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, goerrors.Wrap(err, goerrors.CategoryNotFound, "failed to read cache configuration").
			WithTextCode("CACHE_CONFIG_READ")
	}
	return ParseConfig(data)
}

// NewStore constructs the default in-process store (sturdyc).
func NewStore(cfg Config) (Store, error) {
	s, err := cacheinfra.NewSturdycStore(cfg.toInternal())
	if err != nil {
		return nil, err
	}
	return s, nil
}

// NewRistrettoStore constructs a cost bounded in-process store.
func NewRistrettoStore(cfg Config) (Store, error) {
	s, err := cacheinfra.NewRistrettoStore(cfg.toInternal())
	if err != nil {
		return nil, err
	}
	return s, nil
}

// NewRedisStore constructs a store shared across processes through redis.
// When cfg.Redis is nil DefaultRedisConfig is used.
func NewRedisStore(cfg Config) (Store, error) {
	s, err := cacheinfra.NewRedisStore(cfg.toInternal())
	if err != nil {
		return nil, err
	}
	return s, nil
}

// NewStoreFromConfig picks the implementation named by cfg.Backend.
func NewStoreFromConfig(cfg Config) (Store, error) {
	switch cfg.Backend {
	case BackendRistretto:
		return NewRistrettoStore(cfg)
	case BackendRedis:
		return NewRedisStore(cfg)
	case "", BackendSturdyc:
		return NewStore(cfg)
	default:
		return nil, cfg.Validate()
	}
}

func (c Config) toInternal() cacheinfra.Config {
	var redisCfg *cacheinfra.RedisConfig
	if c.Redis != nil {
		redisCfg = &cacheinfra.RedisConfig{
			Addr:         c.Redis.Addr,
			Password:     c.Redis.Password,
			DB:           c.Redis.DB,
			KeyPrefix:    c.Redis.KeyPrefix,
			DialTimeout:  c.Redis.DialTimeout,
			ReadTimeout:  c.Redis.ReadTimeout,
			WriteTimeout: c.Redis.WriteTimeout,
		}
	}

	return cacheinfra.Config{
		Backend:            c.Backend,
		Capacity:           c.Capacity,
		NumShards:          c.NumShards,
		TTL:                c.TTL,
		MaxTTL:             c.MaxTTL,
		EvictionPercentage: c.EvictionPercentage,
		EvictionInterval:   c.EvictionInterval,
		Redis:              redisCfg,
	}
}

func convertFromInternal(cfg cacheinfra.Config) Config {
	return Config{
		Backend:            cfg.Backend,
		Capacity:           cfg.Capacity,
		NumShards:          cfg.NumShards,
		TTL:                cfg.TTL,
		MaxTTL:             cfg.MaxTTL,
		EvictionPercentage: cfg.EvictionPercentage,
		EvictionInterval:   cfg.EvictionInterval,
		Redis:              convertRedisFromInternal(cfg.Redis),
	}
}

func convertRedisFromInternal(cfg *cacheinfra.RedisConfig) *RedisConfig {
	if cfg == nil {
		return nil
	}
	return &RedisConfig{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		KeyPrefix:    cfg.KeyPrefix,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
}
