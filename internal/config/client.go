package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Client is the CLI configuration stored in ~/.preupgrade/config.yaml.
type Client struct {
	URL      string `yaml:"url"`
	User     string `yaml:"user,omitempty"`
	Password string `yaml:"password,omitempty"`
	PerPage  int    `yaml:"per_page,omitempty"`
}

// ClientConfigPath returns the config file path, honouring PREUPGRADE_CONFIG.
func ClientConfigPath() (string, error) {
	if p := os.Getenv("PREUPGRADE_CONFIG"); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".preupgrade", "config.yaml"), nil
}

// LoadClient reads the config file, if any, and applies the PREUPGRADE_URL,
// PREUPGRADE_USER and PREUPGRADE_PASSWORD overrides.
func LoadClient() (*Client, error) {
	cfg, err := ReadClient()
	if err != nil {
		return nil, err
	}
	if v := os.Getenv("PREUPGRADE_URL"); v != "" {
		cfg.URL = v
	}
	if v := os.Getenv("PREUPGRADE_USER"); v != "" {
		cfg.User = v
	}
	if v := os.Getenv("PREUPGRADE_PASSWORD"); v != "" {
		cfg.Password = v
	}
	return cfg, nil
}

// ReadClient returns the stored config without environment overrides.
func ReadClient() (*Client, error) {
	path, err := ClientConfigPath()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Client{URL: "http://localhost:8080"}, nil
	}
	if err != nil {
		return nil, err
	}
	var cfg Client
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SaveClient writes cfg without any environment overrides applied.
func SaveClient(cfg *Client) error {
	path, err := ClientConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	// 0600: the file may hold a password
	return os.WriteFile(path, data, 0o600)
}
