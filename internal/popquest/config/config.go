package config

import (
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env       string  `yaml:"env" env:"ENV" env-default:"local"`
	HttpPort  string  `yaml:"http_port" env:"HTTP_PORT" env-default:"8080"`
	JWTSecret string  `yaml:"jwt_secret" env:"JWT_SECRET" env-required:"true"`
	Storage   Storage `yaml:"storage"`
	Log       Log     `yaml:"log"`
}

type Storage struct {
	// Backend selects where the state blob lives: postgres, redis or memory.
	Backend     string `yaml:"backend" env:"STORAGE_BACKEND" env-default:"postgres"`
	Key         string `yaml:"key" env:"STORAGE_KEY" env-default:"popquest_mvp_state"`
	PostgresURL string `yaml:"postgres_url" env:"POSTGRES_URL"`
	Redis       Redis  `yaml:"redis"`
}

type Redis struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

type Log struct {
	// Path enables a rolling file sink next to stdout when set.
	Path       string `yaml:"path" env:"LOG_PATH"`
	MaxSizeMB  int    `yaml:"max_size_mb" env:"LOG_MAX_SIZE_MB" env-default:"100"`
	MaxBackups int    `yaml:"max_backups" env:"LOG_MAX_BACKUPS" env-default:"3"`
	MaxAgeDays int    `yaml:"max_age_days" env:"LOG_MAX_AGE_DAYS" env-default:"7"`
	Compress   bool   `yaml:"compress" env:"LOG_COMPRESS"`
}

// MustLoad reads the yaml config named by CONFIG_PATH (default
// ./config/config.yaml), falling back to environment variables when no file
// exists. Panics on any error, there is no way to run without config.
func MustLoad() *Config {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "./config/config.yaml"
	}
	cfg := &Config{}
	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			panic(err)
		}
		return cfg
	}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		panic(err)
	}
	return cfg
}
