package main

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config mirrors the teacher's cmd/hereandnow/config.go shape: a
// top-level struct of yaml-tagged sections, loaded from a fixed path
// with sane defaults when the file is absent.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Logging   LoggingConfig   `yaml:"logging"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Auth      AuthConfig      `yaml:"auth"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// SchedulerConfig is parsed and defaulted from the config file, but
// runServe does not pass it to the service: each solve uses the Policy
// its request carries, and zero fields there fall back to the
// scheduler package defaults (scheduler.Policy.WithDefaults).
type SchedulerConfig struct {
	TimeBudgetSeconds       int  `yaml:"time_budget_seconds"`
	BacktrackBudget         int  `yaml:"backtrack_budget"`
	AllowRebalancingDefault bool `yaml:"allow_rebalancing_default"`
}

type AuthConfig struct {
	// TokenSecret signs/verifies caller identity tokens (internal/auth).
	// Overridable via ROSTERD_TOKEN_SECRET so it never needs to be
	// committed to the config file.
	TokenSecret string `yaml:"token_secret"`
}

func getConfigPath() string {
	if path := os.Getenv("ROSTERD_CONFIG"); path != "" {
		return path
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".rosterd/config.yaml"
	}
	return filepath.Join(homeDir, ".rosterd", "config.yaml")
}

func LoadConfig() (*Config, error) {
	configPath := getConfigPath()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.Database.Path = expandPath(config.Database.Path)

	if secret := os.Getenv("ROSTERD_TOKEN_SECRET"); secret != "" {
		config.Auth.TokenSecret = secret
	}

	return config, nil
}

func DefaultConfig() *Config {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	baseDir := filepath.Join(homeDir, ".rosterd")

	return &Config{
		Server: ServerConfig{Host: "127.0.0.1", Port: 8080},
		Database: DatabaseConfig{
			Path: filepath.Join(baseDir, "roster.db"),
		},
		Logging: LoggingConfig{Level: "info"},
		Scheduler: SchedulerConfig{
			TimeBudgetSeconds: 5,
			BacktrackBudget:   50000,
		},
		Auth: AuthConfig{TokenSecret: "dev-secret-change-me"},
	}
}

func expandPath(path string) string {
	if path == "" {
		return path
	}
	if path[0] == '~' {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		if len(path) == 1 {
			return homeDir
		}
		return filepath.Join(homeDir, path[1:])
	}
	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return path
		}
		return absPath
	}
	return path
}

func ValidateConfig(config *Config) error {
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}
	if config.Server.Host == "" {
		return fmt.Errorf("server host cannot be empty")
	}
	if config.Database.Path == "" {
		return fmt.Errorf("database path cannot be empty")
	}
	switch config.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging level: %s", config.Logging.Level)
	}
	if config.Auth.TokenSecret == "" {
		return fmt.Errorf("auth token secret cannot be empty")
	}
	return nil
}
