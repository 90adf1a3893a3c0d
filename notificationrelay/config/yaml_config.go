package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/illmade-knight/go-dataflow/pkg/messagepipeline"
	"github.com/tinywideclouds/go-microservice-base/pkg/middleware"

	"github.com/tinywideclouds/go-notification-relay/pkg/dispatch"
)

type YamlCorsConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	Role           string   `yaml:"role"`
}

type YamlRedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Enabled  bool   `yaml:"enabled"`
	TTL      string `yaml:"ttl"`
}

type YamlRetentionConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Window      string `yaml:"window"`
	Interval    string `yaml:"interval"`
	RunOnStart  bool   `yaml:"run_on_start"`
	HTTPTrigger bool   `yaml:"http_trigger"`
}

type YamlCollectionsConfig struct {
	Notifications string `yaml:"notifications"`
	Users         string `yaml:"users"`
}

// YamlConfig is the structure that mirrors the raw config.yaml file.
type YamlConfig struct {
	ProjectID              string                `yaml:"project_id"`
	ListenAddr             string                `yaml:"listen_addr"`
	TopicID                string                `yaml:"topic_id"`
	SubscriptionID         string                `yaml:"subscription_id"`
	SubscriptionDLQTopicID string                `yaml:"subscription_dlq_topic_id"`
	IdentityServiceURL     string                `yaml:"identity_service_url"`
	PrunePolicy            string                `yaml:"prune_policy"`
	CorsConfig             YamlCorsConfig        `yaml:"cors"`
	RedisConfig            YamlRedisConfig       `yaml:"redis"`
	RetentionConfig        YamlRetentionConfig   `yaml:"retention"`
	Collections            YamlCollectionsConfig `yaml:"collections"`
	NumPipelineWorkers     int                   `yaml:"num_pipeline_workers"`
}

// NewConfigFromYaml converts the YamlConfig into a clean, base Config struct.
// Durations are Go duration strings ("168h", "30m"); empty means default.
func NewConfigFromYaml(baseCfg *YamlConfig, logger *slog.Logger) (*Config, error) {
	logger.Debug("Mapping YAML config to base config struct")

	redisTTL, err := parseOptionalDuration("redis.ttl", baseCfg.RedisConfig.TTL)
	if err != nil {
		return nil, err
	}
	window, err := parseOptionalDuration("retention.window", baseCfg.RetentionConfig.Window)
	if err != nil {
		return nil, err
	}
	interval, err := parseOptionalDuration("retention.interval", baseCfg.RetentionConfig.Interval)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		ProjectID:          baseCfg.ProjectID,
		ListenAddr:         baseCfg.ListenAddr,
		TopicID:            baseCfg.TopicID,
		SubscriptionID:     baseCfg.SubscriptionID,
		IdentityServiceURL: baseCfg.IdentityServiceURL,
		PrunePolicy:        dispatch.PrunePolicy(baseCfg.PrunePolicy),
		CorsConfig: middleware.CorsConfig{
			AllowedOrigins: baseCfg.CorsConfig.AllowedOrigins,
			Role:           middleware.CorsRole(baseCfg.CorsConfig.Role),
		},
		Redis: RedisConfig{
			Addr:     baseCfg.RedisConfig.Addr,
			Password: baseCfg.RedisConfig.Password,
			DB:       baseCfg.RedisConfig.DB,
			Enabled:  baseCfg.RedisConfig.Enabled,
			TTL:      redisTTL,
		},
		Retention: RetentionConfig{
			Enabled:     baseCfg.RetentionConfig.Enabled,
			Window:      window,
			Interval:    interval,
			RunOnStart:  baseCfg.RetentionConfig.RunOnStart,
			HTTPTrigger: baseCfg.RetentionConfig.HTTPTrigger,
		},
		Collections: CollectionsConfig{
			Notifications: baseCfg.Collections.Notifications,
			Users:         baseCfg.Collections.Users,
		},
		SubscriptionDLQTopicID: baseCfg.SubscriptionDLQTopicID,
		NumPipelineWorkers:     baseCfg.NumPipelineWorkers,
	}

	if cfg.SubscriptionID != "" {
		cfg.PubsubConsumerConfig = messagepipeline.NewGooglePubsubConsumerDefaults(cfg.SubscriptionID)
	}

	logger.Debug("YAML config mapping complete",
		"project_id", cfg.ProjectID,
		"listen_addr", cfg.ListenAddr,
		"subscription_id", cfg.SubscriptionID,
		"retention_enabled", cfg.Retention.Enabled,
	)

	return cfg, nil
}

func parseOptionalDuration(key, raw string) (time.Duration, error) {
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return d, nil
}
