package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App       AppConfig       `yaml:"app"`
	Server    ServerConfig    `yaml:"server"`
	Data      DataConfig      `yaml:"data"`
	Channel   ChannelConfig   `yaml:"channel"`
	Spool     SpoolConfig     `yaml:"spool"`
	Collector CollectorConfig `yaml:"collector"`
}

type AppConfig struct {
	Identifier string `yaml:"identifier"`
}

type ServerConfig struct {
	URL string `yaml:"url"`
}

type DataConfig struct {
	Dir string `yaml:"dir"`
}

type ChannelConfig struct {
	MaxBatchSize  int           `yaml:"max_batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
}

type SpoolConfig struct {
	MaxPendingFiles int `yaml:"max_pending_files"`
}

// CollectorConfig configures the development collector binary.
type CollectorConfig struct {
	Host    string   `yaml:"host"`
	Port    int      `yaml:"port"`
	Origins []string `yaml:"origins"`
}

// Default returns the built-in configuration: no app identifier, the
// sender's default collector endpoint, the XDG state directory and the
// pipeline defaults.
func Default() *Config {
	return &Config{
		Channel: ChannelConfig{
			MaxBatchSize:  50,
			FlushInterval: 15 * time.Second,
		},
		Spool: SpoolConfig{
			MaxPendingFiles: 50,
		},
		Collector: CollectorConfig{
			Host: "0.0.0.0",
			Port: 8127,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
