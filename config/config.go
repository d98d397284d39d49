// Package config loads service configuration from a YAML file with
// environment variable overrides, via cleanenv. The file path comes from
// CONFIG_PATH; with no file the environment alone must satisfy the
// required fields.
package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env         string `yaml:"env" env:"APP_ENV" env-default:"development"`
	StoragePath string `yaml:"storage_path" env:"STORAGE_PATH" env-default:"./data/payroll.db"`
	HTTPServer  `yaml:"http_server"`

	// Empty secret disables bearer auth entirely (local development).
	JWTSecret string `yaml:"jwt_secret" env:"JWT_SECRET"`

	// Browser origins allowed by CORS, comma-separated in the env form.
	AllowedOrigins []string `yaml:"allowed_origins" env:"ALLOWED_ORIGINS" env-default:"http://localhost:3000"`
}

type HTTPServer struct {
	Address     string        `yaml:"address" env:"HTTP_ADDRESS" env-default:"localhost:8080"`
	Timeout     time.Duration `yaml:"timeout" env-default:"10s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// MustLoad reads configuration or exits. A missing CONFIG_PATH is fine;
// a CONFIG_PATH pointing at a missing file is not.
func MustLoad() *Config {
	var cfg Config

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			log.Fatalf("cannot read config from environment: %s", err)
		}
		return &cfg
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("config file does not exist: %s", configPath)
	}
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return &cfg
}

func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}
