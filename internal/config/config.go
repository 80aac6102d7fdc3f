package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config корневая конфигурация сервиса.
// Секреты читаются один раз при старте и дальше передаются как значения.
type Config struct {
	Env        string `yaml:"env" env:"APP_ENV" env-default:"local"`
	DB         DB     `yaml:"db"`
	HTTPServer HTTP   `yaml:"http_server"`
	Auth       Auth   `yaml:"auth"`
	SMTP       SMTP   `yaml:"smtp"`
	RateLimit  Limit  `yaml:"rate_limit"`
	AppURL     string `yaml:"app_url" env:"APP_URL" env-default:"http://localhost:8080"`
}

type DB struct {
	Path string `yaml:"path" env:"DB_PATH" env-default:"fitpro.db"`
}

type HTTP struct {
	Address      string        `yaml:"address" env:"HTTP_ADDRESS" env-default:":8080"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env:"HTTP_READ_TIMEOUT" env-default:"10s"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"HTTP_WRITE_TIMEOUT" env-default:"10s"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
}

type Auth struct {
	AccessSecret      string        `yaml:"access_secret" env:"JWT_ACCESS_SECRET" env-required:"true"`
	RefreshSecret     string        `yaml:"refresh_secret" env:"JWT_REFRESH_SECRET" env-required:"true"`
	AccessTokenTTL    time.Duration `yaml:"access_token_ttl" env:"ACCESS_TOKEN_TTL" env-default:"15m"`
	RefreshTokenTTL   time.Duration `yaml:"refresh_token_ttl" env:"REFRESH_TOKEN_TTL" env-default:"168h"`
	EphemeralTokenTTL time.Duration `yaml:"ephemeral_token_ttl" env:"EPHEMERAL_TOKEN_TTL" env-default:"24h"`
}

type SMTP struct {
	Host     string        `yaml:"host" env:"SMTP_HOST" env-default:""`
	Port     int           `yaml:"port" env:"SMTP_PORT" env-default:"587"`
	Username string        `yaml:"username" env:"SMTP_USERNAME" env-default:""`
	Password string        `yaml:"password" env:"SMTP_PASSWORD" env-default:""`
	From     string        `yaml:"from" env:"SMTP_FROM" env-default:"no-reply@fitpro.local"`
	Timeout  time.Duration `yaml:"timeout" env:"SMTP_TIMEOUT" env-default:"10s"`
}

type Limit struct {
	ResetRequests int           `yaml:"reset_requests" env:"RESET_RATE_LIMIT" env-default:"5"`
	ResetWindow   time.Duration `yaml:"reset_window" env:"RESET_RATE_WINDOW" env-default:"15m"`
}

// MustLoad загружает конфигурацию из файла (если указан) и окружения.
// Паникует при отсутствии обязательных значений - без секретов сервис
// не имеет смысла запускать.
func MustLoad(configPath string) *Config {
	config, err := Load(configPath)
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	return config
}

// Load загружает конфигурацию
func Load(configPath string) (*Config, error) {
	var config Config

	if configPath != "" {
		if _, err := os.Stat(configPath); err != nil {
			return nil, fmt.Errorf("config file not found: %w", err)
		}
		if err := cleanenv.ReadConfig(configPath, &config); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		return &config, nil
	}

	if err := cleanenv.ReadEnv(&config); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	return &config, nil
}

// IsLocal сообщает, запущен ли сервис в локальном окружении.
// В локальном окружении cookie выставляются без флага Secure
// и почта пишется в лог.
func (c *Config) IsLocal() bool {
	return c.Env == "local"
}
