package config

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Kafka      KafkaConfig      `mapstructure:"kafka"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Engine     EngineConfig     `mapstructure:"engine"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
	Security   SecurityConfig   `mapstructure:"security"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	URL            string        `mapstructure:"url"`
	MaxConnections int           `mapstructure:"max_connections"`
	MaxIdleTime    time.Duration `mapstructure:"max_idle_time"`
	MaxLifetime    time.Duration `mapstructure:"max_lifetime"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

type RedisConfig struct {
	Hot  RedisInstanceConfig `mapstructure:"hot"`
	Warm RedisInstanceConfig `mapstructure:"warm"`
}

type RedisInstanceConfig struct {
	URL        string        `mapstructure:"url"`
	MaxRetries int           `mapstructure:"max_retries"`
	PoolSize   int           `mapstructure:"pool_size"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topics  struct {
		Feedback string `mapstructure:"feedback"`
	} `mapstructure:"topics"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// EngineConfig holds the knobs of the ranking engine and similarity search.
type EngineConfig struct {
	AlgorithmVersion   string           `mapstructure:"algorithm_version"`
	Weights            ScoreWeights     `mapstructure:"weights"`
	ColdStartWeights   ScoreWeights     `mapstructure:"cold_start_weights"`
	ColdStartThreshold float64          `mapstructure:"cold_start_threshold"`
	CandidateOverFetch int              `mapstructure:"candidate_over_fetch"`
	Similarity         SimilarityConfig `mapstructure:"similarity"`
	Caching            CachingConfig    `mapstructure:"caching"`
}

// ScoreWeights is one weight triple used to blend the three scorers.
// The three weights must sum to 1.0.
type ScoreWeights struct {
	Content       float64 `mapstructure:"content"`
	Collaborative float64 `mapstructure:"collaborative"`
	Popularity    float64 `mapstructure:"popularity"`
}

// Validate checks the invariant that the triple sums to 1.0 within 1e-9.
func (w ScoreWeights) Validate() error {
	sum := w.Content + w.Collaborative + w.Popularity
	if math.Abs(sum-1.0) > 1e-9 {
		return fmt.Errorf("score weights must sum to 1.0, got %g", sum)
	}
	return nil
}

type SimilarityConfig struct {
	Threshold    float64 `mapstructure:"threshold"`
	DefaultLimit int     `mapstructure:"default_limit"`
	Dimensions   int     `mapstructure:"dimensions"`
}

type CachingConfig struct {
	RecommendationsTTL time.Duration `mapstructure:"recommendations_ttl"`
	VectorPoolTTL      time.Duration `mapstructure:"vector_pool_ttl"`
}

type RateLimitConfig struct {
	Default int           `mapstructure:"default"`
	Premium int           `mapstructure:"premium"`
	Window  time.Duration `mapstructure:"window"`
}

type MonitoringConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	MetricsPath string `mapstructure:"metrics_path"`
}

type SecurityConfig struct {
	CORS CORSConfig `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
}

func Load() (*Config, error) {
	viper.SetConfigName("app")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	viper.AddConfigPath(".")

	setDefaults()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		// Config file is optional, continue with env vars and defaults
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	// Misconfigured weights are a startup failure, never a request-time one.
	if err := config.Engine.Weights.Validate(); err != nil {
		return nil, fmt.Errorf("engine.weights: %w", err)
	}
	if err := config.Engine.ColdStartWeights.Validate(); err != nil {
		return nil, fmt.Errorf("engine.cold_start_weights: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	// Server defaults
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.mode", "development")

	// Database defaults
	viper.SetDefault("database.max_connections", 25)
	viper.SetDefault("database.max_idle_time", "15m")
	viper.SetDefault("database.max_lifetime", "1h")
	viper.SetDefault("database.connect_timeout", "10s")

	// Redis defaults
	viper.SetDefault("redis.hot.max_retries", 3)
	viper.SetDefault("redis.hot.pool_size", 10)
	viper.SetDefault("redis.hot.timeout", "5s")
	viper.SetDefault("redis.warm.max_retries", 3)
	viper.SetDefault("redis.warm.pool_size", 5)
	viper.SetDefault("redis.warm.timeout", "10s")

	// Kafka defaults
	viper.SetDefault("kafka.topics.feedback", "artwork-feedback")

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "text")

	// Engine defaults
	viper.SetDefault("engine.algorithm_version", "v1.0")
	viper.SetDefault("engine.weights.content", 0.5)
	viper.SetDefault("engine.weights.collaborative", 0.3)
	viper.SetDefault("engine.weights.popularity", 0.2)
	viper.SetDefault("engine.cold_start_weights.content", 0.3)
	viper.SetDefault("engine.cold_start_weights.collaborative", 0.2)
	viper.SetDefault("engine.cold_start_weights.popularity", 0.5)
	viper.SetDefault("engine.cold_start_threshold", 0.3)
	viper.SetDefault("engine.candidate_over_fetch", 3)
	viper.SetDefault("engine.similarity.threshold", 0.8)
	viper.SetDefault("engine.similarity.default_limit", 10)
	viper.SetDefault("engine.similarity.dimensions", 512)
	viper.SetDefault("engine.caching.recommendations_ttl", "15m")
	viper.SetDefault("engine.caching.vector_pool_ttl", "1h")

	// Rate limit defaults
	viper.SetDefault("rate_limit.default", 1000)
	viper.SetDefault("rate_limit.premium", 10000)
	viper.SetDefault("rate_limit.window", "1h")

	// Monitoring defaults
	viper.SetDefault("monitoring.enabled", true)
	viper.SetDefault("monitoring.metrics_path", "/metrics")

	// Security defaults
	viper.SetDefault("security.cors.allowed_origins", []string{"*"})
	viper.SetDefault("security.cors.allowed_methods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	viper.SetDefault("security.cors.allowed_headers", []string{"*"})
}
