// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package config

import (
	"errors"
	"net"
	"strconv"
	"strings"
	"time"

	ragerr "github.com/sigil-dev/ragd/pkg/errors"
	"github.com/spf13/viper"
)

// Config is the top-level ragd configuration.
type Config struct {
	Networking NetworkingConfig          `mapstructure:"networking"`
	Providers  map[string]ProviderConfig `mapstructure:"providers"`
	Models     ModelsConfig              `mapstructure:"models"`
	Retrieval  RetrievalConfig           `mapstructure:"retrieval"`
	Storage    StorageConfig             `mapstructure:"storage"`
	Cache      CacheConfig               `mapstructure:"cache"`
	Ingest     IngestConfig              `mapstructure:"ingest"`
}

// NetworkingConfig controls how ragd listens for connections.
type NetworkingConfig struct {
	Listen         string   `mapstructure:"listen"`
	CORSOrigins    []string `mapstructure:"cors_origins"`
	RateLimitRPS   float64  `mapstructure:"rate_limit_rps"`
	RateLimitBurst int      `mapstructure:"rate_limit_burst"`
}

// ProviderConfig holds credentials and endpoint for a model provider.
type ProviderConfig struct {
	APIKey   string `mapstructure:"api_key"`
	Endpoint string `mapstructure:"endpoint"`
}

// ModelsConfig selects the embedding and generation models as
// "provider/model" references.
type ModelsConfig struct {
	Embedding           string `mapstructure:"embedding"`
	EmbeddingDimensions int    `mapstructure:"embedding_dimensions"`
	Generation          string `mapstructure:"generation"`
	MaxTokens           int    `mapstructure:"max_tokens"`
}

// RetrievalConfig controls nearest-neighbour retrieval and query caching.
type RetrievalConfig struct {
	TopK     int           `mapstructure:"top_k"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
	Metric   string        `mapstructure:"metric"`
}

// StorageConfig selects the backends for the index, the document store
// and the history log.
type StorageConfig struct {
	DataDir   string           `mapstructure:"data_dir"`
	Index     BackendConfig    `mapstructure:"index"`
	Documents DocumentsConfig  `mapstructure:"documents"`
	History   HistoryLogConfig `mapstructure:"history"`
}

type BackendConfig struct {
	Backend string `mapstructure:"backend"`
}

type DocumentsConfig struct {
	Backend       string `mapstructure:"backend"`
	MongoURI      string `mapstructure:"mongo_uri"`
	MongoDatabase string `mapstructure:"mongo_database"`
}

type HistoryLogConfig struct {
	Backend     string `mapstructure:"backend"`
	PostgresDSN string `mapstructure:"postgres_dsn"`
}

// CacheConfig selects the retrieval cache backend.
type CacheConfig struct {
	Backend       string `mapstructure:"backend"`
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisDB       int    `mapstructure:"redis_db"`
	RedisPassword string `mapstructure:"redis_password"`
	MaxEntries    int    `mapstructure:"max_entries"`
}

// IngestConfig controls the upload surface.
type IngestConfig struct {
	AllowTextUpload bool `mapstructure:"allow_text_upload"`
}

// KnownProviders lists the provider names ragd can construct.
var KnownProviders = []string{"openai", "anthropic", "google", "deepseek"}

// embeddingProviders are the providers with an embeddings endpoint.
var embeddingProviders = map[string]bool{"openai": true, "google": true}

// SetDefaults registers the default value of every configuration key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("networking.listen", "127.0.0.1:5000")
	v.SetDefault("networking.rate_limit_rps", 0)
	v.SetDefault("networking.rate_limit_burst", 0)
	v.SetDefault("providers.deepseek.endpoint", "https://api.deepseek.com/v1")
	v.SetDefault("models.embedding", "openai/text-embedding-3-small")
	v.SetDefault("models.embedding_dimensions", 1536)
	v.SetDefault("models.generation", "deepseek/deepseek-chat")
	v.SetDefault("models.max_tokens", 1024)
	v.SetDefault("retrieval.top_k", 3)
	v.SetDefault("retrieval.cache_ttl", time.Hour)
	v.SetDefault("retrieval.metric", "cosine")
	v.SetDefault("storage.data_dir", "")
	v.SetDefault("storage.index.backend", "sqlite")
	v.SetDefault("storage.documents.backend", "sqlite")
	v.SetDefault("storage.documents.mongo_database", "rag_db")
	v.SetDefault("storage.history.backend", "sqlite")
	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.max_entries", 10000)
	v.SetDefault("cache.redis_addr", "localhost:6379")
	v.SetDefault("cache.redis_db", 0)
	v.SetDefault("ingest.allow_text_upload", false)
}

// SetupEnv binds RAGD_* environment variables. Provider keys are bound
// explicitly because AutomaticEnv only sees keys viper already knows.
func SetupEnv(v *viper.Viper) {
	v.SetEnvPrefix("RAGD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for _, name := range KnownProviders {
		_ = v.BindEnv("providers." + name + ".api_key")
		_ = v.BindEnv("providers." + name + ".endpoint")
	}
	_ = v.BindEnv("storage.documents.mongo_uri")
	_ = v.BindEnv("storage.history.postgres_dsn")
	_ = v.BindEnv("cache.redis_password")
}

// Load reads configuration from the given path (or defaults) with
// environment variable overrides (prefix RAGD_).
func Load(path string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)
	SetupEnv(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, ragerr.Errorf(ragerr.CodeConfigLoadReadFailure, "reading config %s: %w", path, err)
		}
	}

	return FromViper(v)
}

// FromViper decodes and validates the configuration held by v.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, ragerr.Errorf(ragerr.CodeConfigParseInvalidFormat, "unmarshalling config: %w", err)
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ragerr.Errorf(ragerr.CodeConfigValidateInvalidValue, "validating config: %w", errors.Join(errs...))
	}

	return &cfg, nil
}

// Validate checks the configuration for logical errors.
// It returns every problem found rather than stopping at the first one.
func (c *Config) Validate() []error {
	var errs []error

	errs = append(errs, c.validateNetworking()...)
	errs = append(errs, c.validateModels()...)
	errs = append(errs, c.validateRetrieval()...)
	errs = append(errs, c.validateStorage()...)
	errs = append(errs, c.validateCache()...)

	return errs
}

// Provider returns the configuration for name, or a zero value.
func (c *Config) Provider(name string) ProviderConfig {
	if c.Providers == nil {
		return ProviderConfig{}
	}
	return c.Providers[name]
}

func (c *Config) validateNetworking() []error {
	var errs []error

	if c.Networking.Listen == "" {
		errs = append(errs, invalid("config: networking.listen must not be empty"))
	} else if _, portStr, err := net.SplitHostPort(c.Networking.Listen); err != nil {
		errs = append(errs, ragerr.Errorf(ragerr.CodeConfigValidateInvalidValue,
			"config: networking.listen must be a valid host:port address, got %q: %w",
			c.Networking.Listen, err,
		))
	} else if port, err := strconv.Atoi(portStr); err != nil {
		errs = append(errs, invalid("config: networking.listen port must be a number, got %q", portStr))
	} else if port < 1 || port > 65535 {
		errs = append(errs, invalid("config: networking.listen port must be between 1 and 65535, got %d", port))
	}

	if c.Networking.RateLimitRPS < 0 {
		errs = append(errs, invalid("config: networking.rate_limit_rps must not be negative, got %g", c.Networking.RateLimitRPS))
	}
	if c.Networking.RateLimitBurst < 0 {
		errs = append(errs, invalid("config: networking.rate_limit_burst must not be negative, got %d", c.Networking.RateLimitBurst))
	}
	if c.Networking.RateLimitRPS > 0 && c.Networking.RateLimitBurst == 0 {
		errs = append(errs, invalid("config: networking.rate_limit_burst must be set when rate_limit_rps is enabled"))
	}

	return errs
}

func (c *Config) validateModels() []error {
	var errs []error

	errs = append(errs, c.validateModelRef("models.embedding", c.Models.Embedding)...)
	errs = append(errs, c.validateModelRef("models.generation", c.Models.Generation)...)

	if name := providerFromModel(c.Models.Embedding); c.Models.Embedding != "" && !embeddingProviders[name] {
		errs = append(errs, invalid("config: models.embedding provider %q does not offer embeddings", name))
	}

	if c.Models.EmbeddingDimensions <= 0 {
		errs = append(errs, invalid("config: models.embedding_dimensions must be greater than 0, got %d", c.Models.EmbeddingDimensions))
	}
	if c.Models.MaxTokens < 0 {
		errs = append(errs, invalid("config: models.max_tokens must not be negative, got %d", c.Models.MaxTokens))
	}

	return errs
}

func (c *Config) validateModelRef(key, ref string) []error {
	if ref == "" {
		return []error{invalid("config: %s must not be empty", key)}
	}
	if !strings.Contains(ref, "/") {
		return []error{invalid("config: %s must be in \"provider/model\" format, got %q", key, ref)}
	}

	name := providerFromModel(ref)
	known := false
	for _, p := range KnownProviders {
		if p == name {
			known = true
			break
		}
	}
	if !known {
		return []error{invalid("config: %s references unknown provider %q", key, name)}
	}

	return nil
}

func (c *Config) validateRetrieval() []error {
	var errs []error

	if c.Retrieval.TopK <= 0 {
		errs = append(errs, invalid("config: retrieval.top_k must be greater than 0, got %d", c.Retrieval.TopK))
	}
	if c.Retrieval.CacheTTL <= 0 {
		errs = append(errs, invalid("config: retrieval.cache_ttl must be greater than 0, got %s", c.Retrieval.CacheTTL))
	}
	if c.Retrieval.Metric != "cosine" && c.Retrieval.Metric != "l2" {
		errs = append(errs, invalid("config: retrieval.metric must be one of [cosine, l2], got %q", c.Retrieval.Metric))
	}

	return errs
}

func (c *Config) validateStorage() []error {
	var errs []error

	switch c.Storage.Index.Backend {
	case "sqlite", "memory":
	default:
		errs = append(errs, invalid("config: storage.index.backend must be one of [sqlite, memory], got %q", c.Storage.Index.Backend))
	}

	switch c.Storage.Documents.Backend {
	case "sqlite":
	case "mongo":
		if c.Storage.Documents.MongoURI == "" {
			errs = append(errs, invalid("config: storage.documents.mongo_uri is required for the mongo backend"))
		}
		if c.Storage.Documents.MongoDatabase == "" {
			errs = append(errs, invalid("config: storage.documents.mongo_database must not be empty"))
		}
	default:
		errs = append(errs, invalid("config: storage.documents.backend must be one of [sqlite, mongo], got %q", c.Storage.Documents.Backend))
	}

	switch c.Storage.History.Backend {
	case "sqlite":
	case "postgres":
		if c.Storage.History.PostgresDSN == "" {
			errs = append(errs, invalid("config: storage.history.postgres_dsn is required for the postgres backend"))
		}
	default:
		errs = append(errs, invalid("config: storage.history.backend must be one of [sqlite, postgres], got %q", c.Storage.History.Backend))
	}

	return errs
}

func (c *Config) validateCache() []error {
	var errs []error

	switch c.Cache.Backend {
	case "memory":
		if c.Cache.MaxEntries < 0 {
			errs = append(errs, invalid("config: cache.max_entries must not be negative, got %d", c.Cache.MaxEntries))
		}
	case "redis":
		if c.Cache.RedisAddr == "" {
			errs = append(errs, invalid("config: cache.redis_addr is required for the redis backend"))
		}
		if c.Cache.RedisDB < 0 {
			errs = append(errs, invalid("config: cache.redis_db must not be negative, got %d", c.Cache.RedisDB))
		}
	default:
		errs = append(errs, invalid("config: cache.backend must be one of [memory, redis], got %q", c.Cache.Backend))
	}

	return errs
}

func invalid(format string, args ...any) error {
	return ragerr.Errorf(ragerr.CodeConfigValidateInvalidValue, format, args...)
}

// providerFromModel extracts the provider prefix from a "provider/model" string.
func providerFromModel(model string) string {
	if idx := strings.Index(model, "/"); idx > 0 {
		return model[:idx]
	}
	return model
}
