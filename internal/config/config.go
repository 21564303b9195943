package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config defines server configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	DB         DBConfig         `yaml:"db"`
	Log        LogConfig        `yaml:"log"`
	Auth       AuthConfig       `yaml:"auth"`
	Model      ModelConfig      `yaml:"model"`
	Assessment AssessmentConfig `yaml:"assessment"`
	Transport  TransportConfig  `yaml:"transport"`
}

type ServerConfig struct {
	Host        string   `yaml:"host"`
	Port        int      `yaml:"port"`
	CORSOrigins []string `yaml:"cors_origins"`
}

type DBConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type AuthConfig struct {
	Enabled   bool   `yaml:"enabled"`
	JWTSecret string `yaml:"jwt_secret"`
}

type ModelConfig struct {
	Provider       string `yaml:"provider"`
	APIKey         string `yaml:"api_key"`
	Model          string `yaml:"model"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type AssessmentConfig struct {
	DefaultItemCount int `yaml:"default_item_count"`
}

type TransportConfig struct {
	Mode string `yaml:"mode"` // "http" or "stdio"
}

// Load reads configuration from an optional YAML file and environment variables.
func Load() (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		DB: DBConfig{
			Path: "prepdeck.db",
		},
		Log: LogConfig{
			Level: "info",
		},
		Auth: AuthConfig{
			Enabled: true,
		},
		Model: ModelConfig{
			Provider:       "openai",
			Model:          "gpt-4o-mini",
			TimeoutSeconds: 30,
		},
		Assessment: AssessmentConfig{
			DefaultItemCount: 3,
		},
		Transport: TransportConfig{
			Mode: "http",
		},
	}

	if path := os.Getenv("PREPDECK_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if host := os.Getenv("PREPDECK_SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if portStr := os.Getenv("PREPDECK_SERVER_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return Config{}, fmt.Errorf("invalid PREPDECK_SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if origins := os.Getenv("PREPDECK_CORS_ORIGINS"); origins != "" {
		cfg.Server.CORSOrigins = strings.Split(origins, ",")
	}
	if dbPath := os.Getenv("PREPDECK_DB_PATH"); dbPath != "" {
		cfg.DB.Path = dbPath
	}
	if level := os.Getenv("PREPDECK_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if enabled := os.Getenv("PREPDECK_AUTH_ENABLED"); enabled != "" {
		cfg.Auth.Enabled = enabled == "true" || enabled == "1"
	}
	if secret := os.Getenv("PREPDECK_JWT_SECRET"); secret != "" {
		cfg.Auth.JWTSecret = secret
	}
	if provider := os.Getenv("PREPDECK_MODEL_PROVIDER"); provider != "" {
		cfg.Model.Provider = provider
	}
	if key := os.Getenv("PREPDECK_MODEL_API_KEY"); key != "" {
		cfg.Model.APIKey = key
	}
	if model := os.Getenv("PREPDECK_MODEL_NAME"); model != "" {
		cfg.Model.Model = model
	}
	if timeoutStr := os.Getenv("PREPDECK_MODEL_TIMEOUT_SECONDS"); timeoutStr != "" {
		timeout, err := strconv.Atoi(timeoutStr)
		if err != nil {
			return Config{}, fmt.Errorf("invalid PREPDECK_MODEL_TIMEOUT_SECONDS: %w", err)
		}
		cfg.Model.TimeoutSeconds = timeout
	}
	if countStr := os.Getenv("PREPDECK_DEFAULT_ITEM_COUNT"); countStr != "" {
		count, err := strconv.Atoi(countStr)
		if err != nil {
			return Config{}, fmt.Errorf("invalid PREPDECK_DEFAULT_ITEM_COUNT: %w", err)
		}
		cfg.Assessment.DefaultItemCount = count
	}
	if mode := os.Getenv("PREPDECK_TRANSPORT_MODE"); mode != "" {
		cfg.Transport.Mode = mode
	}

	// Fall back to the conventional provider key variables.
	if cfg.Model.APIKey == "" {
		switch cfg.Model.Provider {
		case "openai":
			cfg.Model.APIKey = os.Getenv("OPENAI_API_KEY")
		case "gemini":
			cfg.Model.APIKey = os.Getenv("GEMINI_API_KEY")
		}
	}

	if cfg.Auth.Enabled && cfg.Auth.JWTSecret == "" && cfg.Transport.Mode != "stdio" {
		return Config{}, fmt.Errorf("auth enabled but PREPDECK_JWT_SECRET is not set")
	}

	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
