package main

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is deliberately the same shape as cmd/rosterd's, narrowed to
// the sections rosterctl touches directly (no server/scheduler
// listening concerns here): the sqlite path it opens and the token
// secret it signs operator tokens with. Pointing both binaries at the
// same file keeps a token minted by rosterctl verifiable by the rosterd
// instance serving the same database.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type AuthConfig struct {
	TokenSecret string `yaml:"token_secret"`
}

func getConfigPath() string {
	if globalConfig.ConfigPath != "" {
		return globalConfig.ConfigPath
	}
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

	config := DefaultConfig()
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return config, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
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
	return &Config{
		Database: DatabaseConfig{Path: filepath.Join(homeDir, ".rosterd", "roster.db")},
		Auth:     AuthConfig{TokenSecret: "dev-secret-change-me"},
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

// operatorCredentialPath holds the argon2 hash of the local operator's
// password, separate from config.yaml so it never gets checked into a
// dotfiles repo alongside the rest of the config by accident.
func operatorCredentialPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".rosterctl-operator"
	}
	return filepath.Join(homeDir, ".rosterd", "operator.yaml")
}

type operatorCredential struct {
	ActorID string `yaml:"actor_id"`
	OrgID   string `yaml:"org_id"`
	Salt    string `yaml:"salt"`
	Hash    string `yaml:"hash"`
}

func loadOperatorCredential() (*operatorCredential, error) {
	data, err := os.ReadFile(operatorCredentialPath())
	if err != nil {
		return nil, err
	}
	var cred operatorCredential
	if err := yaml.Unmarshal(data, &cred); err != nil {
		return nil, fmt.Errorf("failed to parse operator credential file: %w", err)
	}
	return &cred, nil
}

func saveOperatorCredential(cred *operatorCredential) error {
	path := operatorCredentialPath()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(cred)
	if err != nil {
		return fmt.Errorf("failed to marshal operator credential: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}

func tokenCachePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".rosterctl-token"
	}
	return filepath.Join(homeDir, ".rosterd", "operator.token")
}
