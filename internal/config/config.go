package config

import (
	"fmt"
	"time"

	"hmadashboard/pkg/config"
	"hmadashboard/pkg/logger"
)

type Config struct {
	Server      config.ServerConfig      `yaml:"server"`
	Log         logger.Config            `yaml:"log"`
	DB          config.DBConfig          `yaml:"db"`
	Redis       config.RedisConfig       `yaml:"redis"`
	MQ          config.MQConfig          `yaml:"mq"`
	Assets      config.AssetsConfig      `yaml:"assets"`
	Persistence config.PersistenceConfig `yaml:"persistence"`
	// DedupTTL bounds how long a converted request ID is remembered.
	DedupTTL time.Duration `yaml:"dedup_ttl"`
}

// Load reads config/base.yaml plus the CONFIG_ENV overlay, then applies
// environment overrides.
func Load(configDir string) (*Config, error) {
	merged, err := config.LoadConfig(config.GetConfigEnv(), configDir)
	if err != nil {
		return nil, err
	}

	cfg := Defaults()
	if err := config.Decode(merged, cfg); err != nil {
		return nil, err
	}

	config.OverrideServerFromEnv(&cfg.Server)
	config.OverrideDBFromEnv(&cfg.DB)
	config.OverrideRedisFromEnv(&cfg.Redis)
	config.OverrideMQFromEnv(&cfg.MQ)
	config.OverrideAssetsFromEnv(&cfg.Assets)
	config.OverridePersistenceFromEnv(&cfg.Persistence)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Defaults returns the values used for keys absent from every config file.
func Defaults() *Config {
	return &Config{
		Server: config.ServerConfig{Port: ":8080"},
		Log:    logger.Config{Level: "info"},
		Assets: config.AssetsConfig{
			BaseURL: "http://localhost:3000",
			Timeout: 5 * time.Second,
		},
		Persistence: config.PersistenceConfig{
			Driver:    "redis",
			KeyPrefix: "hma:",
		},
		DedupTTL: 24 * time.Hour,
	}
}

func (c *Config) Validate() error {
	switch c.Persistence.Driver {
	case "redis", "postgres", "memory":
	default:
		return fmt.Errorf("unknown persistence driver %q", c.Persistence.Driver)
	}
	if c.Server.Port == "" {
		return fmt.Errorf("server.port is required")
	}
	return nil
}
