package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/Touchkin/eventcollate/internal/config/dto"
	"github.com/spf13/viper"
)

// Loader handles configuration loading and validation
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a new configuration loader
func NewLoader() *Loader {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return &Loader{v: v}
}

// Load loads configuration from file and environment variables
func (l *Loader) Load(path string) (*dto.ApplicationConfig, error) {
	// Set defaults
	l.setDefaults()

	// Load from file if provided
	if path != "" {
		l.v.SetConfigFile(path)
		if err := l.v.ReadInConfig(); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	// Expand environment variables in config values
	// Only expand if the value contains ${...} pattern
	for _, key := range l.v.AllKeys() {
		value := l.v.GetString(key)
		if strings.Contains(value, "${") {
			l.v.Set(key, os.ExpandEnv(value))
		}
	}

	// Unmarshal configuration
	var config dto.ApplicationConfig
	if err := l.v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate configuration
	if err := l.Validate(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func (l *Loader) setDefaults() {
	// Application defaults
	l.v.SetDefault("application.name", "eventcollate")
	l.v.SetDefault("application.version", "1.0.0")
	l.v.SetDefault("application.environment", "development")

	// Kafka defaults
	l.v.SetDefault("kafka.security_protocol", "PLAINTEXT")
	l.v.SetDefault("kafka.sasl_mechanism", "PLAIN")
	l.v.SetDefault("kafka.consumer.auto_offset_reset", "earliest")
	l.v.SetDefault("kafka.consumer.enable_auto_commit", false)
	l.v.SetDefault("kafka.consumer.max_poll_interval_ms", 300000)
	l.v.SetDefault("kafka.consumer.session_timeout_ms", 30000)
	l.v.SetDefault("kafka.consumer.heartbeat_interval_ms", 10000)
	l.v.SetDefault("kafka.output.compression", "snappy")
	l.v.SetDefault("kafka.dlq.enabled", true)
	l.v.SetDefault("kafka.dlq.topic_suffix", "-dlq")
	l.v.SetDefault("kafka.dlq.max_retries", 3)

	// Collation defaults
	l.v.SetDefault("collate.count", 1000)
	l.v.SetDefault("collate.interval", "60s")
	l.v.SetDefault("collate.order", "ascending")
	l.v.SetDefault("collate.idle_flush_interval", "5s")

	// Archive defaults
	l.v.SetDefault("archive.enabled", false)
	l.v.SetDefault("archive.backend", "file")
	l.v.SetDefault("archive.format", "parquet")
	l.v.SetDefault("archive.compression", "snappy")
	l.v.SetDefault("archive.s3.use_path_style", false)
	l.v.SetDefault("archive.s3.sse_enabled", true)

	// Observability defaults
	l.v.SetDefault("observability.logging.level", "info")
	l.v.SetDefault("observability.logging.format", "json")
	l.v.SetDefault("observability.logging.output", "stdout")
	l.v.SetDefault("observability.metrics.enabled", true)
	l.v.SetDefault("observability.metrics.port", 9090)
	l.v.SetDefault("observability.metrics.path", "/metrics")
	l.v.SetDefault("observability.health.port", 8080)
	l.v.SetDefault("observability.health.liveness_path", "/health/live")
	l.v.SetDefault("observability.health.readiness_path", "/health/ready")

	// Shutdown defaults
	l.v.SetDefault("shutdown.grace_period", "30s")
}

// Validate validates the configuration
func (l *Loader) Validate(config *dto.ApplicationConfig) error {
	// Kafka validation
	if len(config.Kafka.BootstrapServers) == 0 {
		return errors.New("kafka.bootstrap_servers is required")
	}
	if len(config.Kafka.Consumer.Topics) == 0 {
		return errors.New("kafka.consumer.topics is required")
	}
	if config.Kafka.Consumer.GroupID == "" {
		return errors.New("kafka.consumer.group_id is required")
	}
	if config.Kafka.Output.Topic == "" {
		return errors.New("kafka.output.topic is required")
	}

	// Collation validation. Invalid thresholds are fatal at startup
	// rather than silently corrected.
	if config.Collate.Count <= 0 {
		return fmt.Errorf("collate.count must be positive, got %d", config.Collate.Count)
	}
	if config.Collate.Interval <= 0 {
		return fmt.Errorf("collate.interval must be positive, got %s", config.Collate.Interval)
	}
	if config.Collate.Order != "ascending" && config.Collate.Order != "descending" {
		return fmt.Errorf("collate.order must be ascending or descending, got %q", config.Collate.Order)
	}
	if config.Collate.IdleFlushInterval < 0 {
		return fmt.Errorf("collate.idle_flush_interval must not be negative, got %s", config.Collate.IdleFlushInterval)
	}

	// Archive validation only applies when archival is enabled
	if config.Archive.Enabled {
		switch config.Archive.Backend {
		case "s3":
			if config.Archive.S3.Bucket == "" {
				return errors.New("archive.s3.bucket is required for S3 backend")
			}
			if config.Archive.S3.Region == "" {
				return errors.New("archive.s3.region is required for S3 backend")
			}
		case "azure":
			if config.Archive.Azure.AccountName == "" {
				return errors.New("archive.azure.account_name is required for Azure backend")
			}
			if config.Archive.Azure.Container == "" {
				return errors.New("archive.azure.container is required for Azure backend")
			}
		case "gcs":
			if config.Archive.GCS.Bucket == "" {
				return errors.New("archive.gcs.bucket is required for GCS backend")
			}
		case "file":
			if config.Archive.File.BasePath == "" {
				return errors.New("archive.file.base_path is required for file backend")
			}
		default:
			return fmt.Errorf("unsupported archive backend: %s", config.Archive.Backend)
		}

		if config.Archive.Format != "parquet" && config.Archive.Format != "avro" {
			return fmt.Errorf("unsupported archive format: %s", config.Archive.Format)
		}
	}

	// Port validation
	if config.Observability.Metrics.Port < 1 || config.Observability.Metrics.Port > 65535 {
		return fmt.Errorf("invalid metrics port: %d", config.Observability.Metrics.Port)
	}
	if config.Observability.Health.Port < 1 || config.Observability.Health.Port > 65535 {
		return fmt.Errorf("invalid health port: %d", config.Observability.Health.Port)
	}

	return nil
}
