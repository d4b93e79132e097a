package config

import (
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"

	"comercio/internal/repository"
)

// Config is the full runtime configuration. Every field has a sane default,
// so the binary runs with no config file and no environment at all.
type Config struct {
	DataDir    string               `yaml:"data_dir" env:"DATA_DIR" env-default:"."`
	Files      repository.FileNames `yaml:"files"`
	ReportSize int                  `yaml:"report_size" env:"REPORT_SIZE" env-default:"10"`
	LogLevel   string               `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
}

// Load reads configuration from an optional YAML file, with environment
// variables layered on top. An empty path means environment only.
func Load(path string) (cfg Config, err error) {
	if path == "" {
		if err = cleanenv.ReadEnv(&cfg); err != nil {
			return cfg, fmt.Errorf("read env config: %w", err)
		}
		return cfg, nil
	}

	if _, err = os.Stat(path); err != nil {
		return cfg, fmt.Errorf("config path %s: %w", path, err)
	}
	if err = cleanenv.ReadConfig(path, &cfg); err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	return cfg, nil
}
