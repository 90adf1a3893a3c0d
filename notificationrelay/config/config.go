package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/illmade-knight/go-dataflow/pkg/messagepipeline"
	"github.com/tinywideclouds/go-microservice-base/pkg/middleware"

	"github.com/tinywideclouds/go-notification-relay/pkg/dispatch"
)

const (
	DefaultRetentionInterval = 24 * time.Hour
	DefaultRetentionWindow   = 7 * 24 * time.Hour
	DefaultTokenCacheTTL     = 5 * time.Minute

	DefaultNotificationsCollection = "notifications"
	DefaultUsersCollection         = "users"
	DefaultIdentityServiceURL      = "http://localhost:3000"
)

type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

type RetentionConfig struct {
	// Enabled starts the in-process ticker.
	Enabled    bool
	Window     time.Duration
	Interval   time.Duration
	RunOnStart bool
	// HTTPTrigger exposes POST /tasks/retention for an external scheduler.
	HTTPTrigger bool
}

type CollectionsConfig struct {
	Notifications string
	Users         string
}

// Config defines the *single*, authoritative configuration.
type Config struct {
	ProjectID              string
	ListenAddr             string
	TopicID                string
	SubscriptionID         string
	SubscriptionDLQTopicID string
	NumPipelineWorkers     int
	IdentityServiceURL     string

	CorsConfig  middleware.CorsConfig
	Redis       RedisConfig
	Retention   RetentionConfig
	Collections CollectionsConfig
	PrunePolicy dispatch.PrunePolicy

	PubsubConsumerConfig *messagepipeline.GooglePubsubConsumerConfig
}

// UpdateConfigWithEnvOverrides applies environment variables and final validation.
func UpdateConfigWithEnvOverrides(cfg *Config, logger *slog.Logger) (*Config, error) {
	logger.Debug("Applying environment variable overrides...")

	// 1. Apply Environment Overrides
	if val := os.Getenv("PROJECT_ID"); val != "" {
		logger.Debug("Overriding config value", "key", "PROJECT_ID", "source", "env")
		cfg.ProjectID = val
	}
	if val := os.Getenv("PORT"); val != "" {
		logger.Debug("Overriding config value", "key", "PORT", "source", "env")
		cfg.ListenAddr = ":" + val
	}
	if val := os.Getenv("TOPIC_ID"); val != "" {
		logger.Debug("Overriding config value", "key", "TOPIC_ID", "source", "env")
		cfg.TopicID = val
	}
	if val := os.Getenv("SUBSCRIPTION_ID"); val != "" {
		logger.Debug("Overriding config value", "key", "SUBSCRIPTION_ID", "source", "env")
		cfg.SubscriptionID = val
		cfg.PubsubConsumerConfig = messagepipeline.NewGooglePubsubConsumerDefaults(val)
	}
	if val := os.Getenv("SUBSCRIPTION_DLQ_TOPIC_ID"); val != "" {
		logger.Debug("Overriding config value", "key", "SUBSCRIPTION_DLQ_TOPIC_ID", "source", "env")
		cfg.SubscriptionDLQTopicID = val
	}
	if val := os.Getenv("NUM_PIPELINE_WORKERS"); val != "" {
		if workers, err := strconv.Atoi(val); err == nil && workers > 0 {
			logger.Debug("Overriding config value", "key", "NUM_PIPELINE_WORKERS", "source", "env")
			cfg.NumPipelineWorkers = workers
		}
	}
	if val := os.Getenv("IDENTITY_SERVICE_URL"); val != "" {
		logger.Debug("Overriding config value", "key", "IDENTITY_SERVICE_URL", "source", "env")
		cfg.IdentityServiceURL = val
	}

	// Redis Overrides
	if val := os.Getenv("REDIS_ADDR"); val != "" {
		cfg.Redis.Addr = val
		cfg.Redis.Enabled = true
	}
	if val := os.Getenv("REDIS_PASSWORD"); val != "" {
		cfg.Redis.Password = val
	}
	if val := os.Getenv("REDIS_DB"); val != "" {
		if db, err := strconv.Atoi(val); err == nil {
			cfg.Redis.DB = db
		}
	}
	if val := os.Getenv("REDIS_ENABLED"); val != "" {
		enabled, _ := strconv.ParseBool(val)
		cfg.Redis.Enabled = enabled
	}
	if val := os.Getenv("REDIS_TTL"); val != "" {
		ttl, err := time.ParseDuration(val)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_TTL %q: %w", val, err)
		}
		cfg.Redis.TTL = ttl
	}

	// Retention Overrides
	if val := os.Getenv("RETENTION_WINDOW"); val != "" {
		window, err := time.ParseDuration(val)
		if err != nil {
			return nil, fmt.Errorf("invalid RETENTION_WINDOW %q: %w", val, err)
		}
		logger.Debug("Overriding config value", "key", "RETENTION_WINDOW", "source", "env")
		cfg.Retention.Window = window
	}
	if val := os.Getenv("RETENTION_INTERVAL"); val != "" {
		interval, err := time.ParseDuration(val)
		if err != nil {
			return nil, fmt.Errorf("invalid RETENTION_INTERVAL %q: %w", val, err)
		}
		logger.Debug("Overriding config value", "key", "RETENTION_INTERVAL", "source", "env")
		cfg.Retention.Interval = interval
	}
	if val := os.Getenv("RETENTION_ENABLED"); val != "" {
		enabled, _ := strconv.ParseBool(val)
		cfg.Retention.Enabled = enabled
	}
	if val := os.Getenv("RETENTION_HTTP_TRIGGER"); val != "" {
		enabled, _ := strconv.ParseBool(val)
		cfg.Retention.HTTPTrigger = enabled
	}

	if val := os.Getenv("PRUNE_POLICY"); val != "" {
		logger.Debug("Overriding config value", "key", "PRUNE_POLICY", "source", "env")
		cfg.PrunePolicy = dispatch.PrunePolicy(val)
	}

	// Collection Overrides
	if val := os.Getenv("NOTIFICATIONS_COLLECTION"); val != "" {
		cfg.Collections.Notifications = val
	}
	if val := os.Getenv("USERS_COLLECTION"); val != "" {
		cfg.Collections.Users = val
	}

	// CORS Overrides
	if corsOrigins := os.Getenv("CORS_ALLOWED_ORIGINS"); corsOrigins != "" {
		logger.Debug("Overriding config value", "key", "CORS_ALLOWED_ORIGINS", "source", "env")
		rawOrigins := strings.Split(corsOrigins, ",")
		var cleanOrigins []string
		for _, o := range rawOrigins {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				cleanOrigins = append(cleanOrigins, trimmed)
			}
		}
		cfg.CorsConfig.AllowedOrigins = cleanOrigins
	}

	// 2. Final Validation
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("project_id is required (set via YAML or PROJECT_ID env var)")
	}
	if cfg.SubscriptionID == "" {
		return nil, fmt.Errorf("subscription_id is required (set via YAML or SUBSCRIPTION_ID env var)")
	}

	policy, err := dispatch.ParsePrunePolicy(string(cfg.PrunePolicy))
	if err != nil {
		return nil, err
	}
	cfg.PrunePolicy = policy

	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.NumPipelineWorkers <= 0 {
		cfg.NumPipelineWorkers = 1
	}
	if cfg.IdentityServiceURL == "" {
		cfg.IdentityServiceURL = DefaultIdentityServiceURL
	}
	if cfg.Redis.TTL <= 0 {
		cfg.Redis.TTL = DefaultTokenCacheTTL
	}
	if cfg.Retention.Window <= 0 {
		cfg.Retention.Window = DefaultRetentionWindow
	}
	if cfg.Retention.Interval <= 0 {
		cfg.Retention.Interval = DefaultRetentionInterval
	}
	if cfg.Collections.Notifications == "" {
		cfg.Collections.Notifications = DefaultNotificationsCollection
	}
	if cfg.Collections.Users == "" {
		cfg.Collections.Users = DefaultUsersCollection
	}

	if cfg.PubsubConsumerConfig == nil && cfg.SubscriptionID != "" {
		cfg.PubsubConsumerConfig = messagepipeline.NewGooglePubsubConsumerDefaults(cfg.SubscriptionID)
	}

	logger.Debug("Configuration finalized and validated successfully")
	return cfg, nil
}
