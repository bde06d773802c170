// Package config loads TOML configuration for the terminal daemon and the
// interactive client.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

type ServerConfig struct {
	Addr         string `toml:"addr"`
	DeepwellPath string `toml:"deepwell_path"`
}

type ClientConfig struct {
	ServerAddr     string   `toml:"server_addr"`
	ConnectTimeout duration `toml:"connect_timeout"`
}

// duration lets TOML carry values like "5s".
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:         ":9977",
		DeepwellPath: "deepwell.db",
	}
}

func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		ServerAddr:     "127.0.0.1:9977",
		ConnectTimeout: duration{5 * time.Second},
	}
}

func LoadServerConfig(path string) (ServerConfig, error) {
	cfg := DefaultServerConfig()
	if err := loadToml(path, &cfg); err != nil {
		return ServerConfig{}, err
	}
	if err := ValidateServerConfig(cfg); err != nil {
		return ServerConfig{}, err
	}
	return cfg, nil
}

func LoadClientConfig(path string) (ClientConfig, error) {
	cfg := DefaultClientConfig()
	if err := loadToml(path, &cfg); err != nil {
		return ClientConfig{}, err
	}
	if err := ValidateClientConfig(cfg); err != nil {
		return ClientConfig{}, err
	}
	return cfg, nil
}

func loadToml(path string, out any) error {
	meta, err := toml.DecodeFile(path, out)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("config parse failed (%s): unknown key %q", path, undecoded[0].String())
	}
	return nil
}

func ValidateServerConfig(cfg ServerConfig) error {
	if strings.TrimSpace(cfg.Addr) == "" {
		return fmt.Errorf("server config missing addr")
	}
	if strings.TrimSpace(cfg.DeepwellPath) == "" {
		return fmt.Errorf("server config missing deepwell_path")
	}
	return nil
}

func ValidateClientConfig(cfg ClientConfig) error {
	if strings.TrimSpace(cfg.ServerAddr) == "" {
		return fmt.Errorf("client config missing server_addr")
	}
	if cfg.ConnectTimeout.Duration <= 0 {
		return fmt.Errorf("client config connect_timeout must be positive")
	}
	return nil
}
