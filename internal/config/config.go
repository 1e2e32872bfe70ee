package config

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	API struct {
		URL             string `yaml:"url"`
		Timeout         string `yaml:"timeout"`
		GenerateTimeout string `yaml:"generate_timeout"`
	} `yaml:"api"`
	Auth struct {
		TokenFile string `yaml:"token_file"`
	} `yaml:"auth"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	History struct {
		DetailTTL string `yaml:"detail_ttl"`
	} `yaml:"history"`
	Feed struct {
		Addr string `yaml:"addr"`
	} `yaml:"feed"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	cfg := Config{}
	cfg.API.URL = "http://localhost:8000/api"
	cfg.API.Timeout = "30s"
	cfg.API.GenerateTimeout = "2m"
	cfg.Auth.TokenFile = defaultTokenFile()
	cfg.Redis.TTL = "24h"
	cfg.History.DetailTTL = "5m"
	cfg.Log.Level = "info"
	cfg.Log.Format = "text"
	return cfg
}

// Load reads YAML config from path over the defaults, then applies
// environment overrides. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return cfg, err
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, err
			}
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

// LoadEnv loads a dotenv file into the process environment without
// overriding variables that are already set. A missing file is ignored.
func LoadEnv(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return godotenv.Load(path)
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("API_URL"); v != "" {
		cfg.API.URL = v
	}
	if v := os.Getenv("QUIZ_TOKEN_FILE"); v != "" {
		cfg.Auth.TokenFile = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			cfg.Redis.DB = db
		}
	}
	if v := os.Getenv("POSTGRES_URL"); v != "" {
		cfg.Postgres.URL = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}

func defaultTokenFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "quizctl", "token")
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
