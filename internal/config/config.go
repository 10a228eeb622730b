package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Warning sources.
const (
	SourceNGA   = "nga"
	SourceKafka = "kafka"
)

const defaultNGAFeedURL = "https://msi.nga.mil/api/publications/broadcast-warn"

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// WarningSource selects where warnings come from: SourceNGA polls the
	// public feed, SourceKafka consumes the source topic.
	WarningSource string
	NGAFeedURL    string
	NGATimeout    time.Duration

	KafkaBrokers     []string
	KafkaSourceTopic string
	KafkaSinkTopic   string
	KafkaGroupID     string

	BatchSize          int
	BatchFlushInterval time.Duration

	CacheTTL         time.Duration
	CacheNegativeTTL time.Duration
	PublishInterval  time.Duration
	WarningLogSize   int
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	ngaTimeout, err := parsePositiveDuration("NGA_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	cacheTTL, err := parsePositiveDuration("CACHE_TTL", "3m")
	if err != nil {
		return nil, err
	}
	negativeTTL, err := parsePositiveDuration("CACHE_NEGATIVE_TTL", "1m")
	if err != nil {
		return nil, err
	}
	publishInterval, err := parsePositiveDuration("PUBLISH_INTERVAL", "1m")
	if err != nil {
		return nil, err
	}

	logSize, err := parsePositiveInt("WARNING_LOG_SIZE", 5000)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		WarningSource: strings.ToLower(sharedcfg.EnvOrDefault("WARNING_SOURCE", SourceNGA)),
		NGAFeedURL:    sharedcfg.EnvOrDefault("NGA_FEED_URL", defaultNGAFeedURL),
		NGATimeout:    ngaTimeout,

		KafkaBrokers:     sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic: sharedcfg.EnvOrDefault("KAFKA_SOURCE_TOPIC", "nga-broadcast-warnings"),
		KafkaSinkTopic:   kafkaSinkTopic(),
		KafkaGroupID:     sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "cable-health"),

		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,

		CacheTTL:         cacheTTL,
		CacheNegativeTTL: negativeTTL,
		PublishInterval:  publishInterval,
		WarningLogSize:   logSize,
	}

	switch cfg.WarningSource {
	case SourceNGA:
		if cfg.NGAFeedURL == "" {
			return nil, errors.New("NGA_FEED_URL is required when WARNING_SOURCE is nga")
		}
	case SourceKafka:
		if cfg.KafkaSourceTopic == "" {
			return nil, errors.New("KAFKA_SOURCE_TOPIC is required when WARNING_SOURCE is kafka")
		}
	default:
		return nil, fmt.Errorf("invalid WARNING_SOURCE %q: want %s or %s", cfg.WarningSource, SourceNGA, SourceKafka)
	}
	if len(cfg.KafkaBrokers) == 0 && (cfg.WarningSource == SourceKafka || cfg.PublishEnabled()) {
		return nil, errors.New("KAFKA_BROKERS is required")
	}

	return cfg, nil
}

// PublishEnabled reports whether health snapshots are written to Kafka.
func (c *Config) PublishEnabled() bool {
	return c.KafkaSinkTopic != ""
}

// kafkaSinkTopic distinguishes an explicitly empty KAFKA_SINK_TOPIC, which
// disables publishing, from an unset one.
func kafkaSinkTopic() string {
	if v, ok := os.LookupEnv("KAFKA_SINK_TOPIC"); ok {
		return strings.TrimSpace(v)
	}
	return "cable-health"
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parsePositiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}
