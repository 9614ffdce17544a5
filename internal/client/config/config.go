// Package config loads the client configuration from a YAML file, .env and
// environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"github.com/iudanet/scholardesk/internal/validation"
)

const (
	// EnvConfigPath переменная окружения с путем к YAML файлу
	EnvConfigPath = "SCHOLARDESK_CONFIG"
	// DefaultConfigFile ищется в рабочей директории
	DefaultConfigFile = "scholardesk.yaml"
)

// Config: корневая конфигурация клиента.
// Источники значений (по убыванию приоритета):
//  1. флаги командной строки (применяются в cli);
//  2. переменные окружения, в том числе из .env;
//  3. YAML файл: --config, SCHOLARDESK_CONFIG или ./scholardesk.yaml;
//  4. значения по умолчанию.
type Config struct {
	API     APIConfig     `yaml:"api"`
	Storage StorageConfig `yaml:"storage"`
	Log     LogConfig     `yaml:"log"`
	Cache   CacheConfig   `yaml:"cache"`
}

// APIConfig: адрес API и таймаут HTTP клиента.
// Пустой BaseURL означает адрес по умолчанию
type APIConfig struct {
	BaseURL string        `yaml:"base_url" env:"SCHOLARDESK_API_URL"`
	Timeout time.Duration `yaml:"timeout" env:"SCHOLARDESK_API_TIMEOUT" env-default:"30s" validate:"gt=0"`
}

// StorageConfig: где хранятся токены, пользователь и кэш.
type StorageConfig struct {
	Backend string      `yaml:"backend" env:"SCHOLARDESK_STORAGE" env-default:"bolt" validate:"oneof=memory bolt sqlite redis"`
	Path    string      `yaml:"path" env:"SCHOLARDESK_DB_PATH" env-default:"scholardesk.db"`
	Redis   RedisConfig `yaml:"redis"`
}

// RedisConfig: подключение к Redis для общей сессии.
type RedisConfig struct {
	Addr     string `yaml:"addr" env:"SCHOLARDESK_REDIS_ADDR" env-default:"localhost:6379"`
	Password string `yaml:"password" env:"SCHOLARDESK_REDIS_PASSWORD"`
	Prefix   string `yaml:"prefix" env:"SCHOLARDESK_REDIS_PREFIX" env-default:"scholardesk:"`
	DB       int    `yaml:"db" env:"SCHOLARDESK_REDIS_DB" env-default:"0"`
}

// CacheConfig: пространство имен и TTL кэша чтений.
type CacheConfig struct {
	Namespace         string        `yaml:"namespace" env:"SCHOLARDESK_CACHE_NAMESPACE" env-default:"scholardesk_cache"`
	DefaultTTL        time.Duration `yaml:"default_ttl" env:"SCHOLARDESK_CACHE_TTL" env-default:"5m"`
	Scholarships      time.Duration `yaml:"scholarships_ttl" env-default:"2m"`
	Scholarship       time.Duration `yaml:"scholarship_ttl" env-default:"10m"`
	AdminScholarships time.Duration `yaml:"admin_scholarships_ttl" env-default:"1m"`
	Statistics        time.Duration `yaml:"statistics_ttl" env-default:"30s"`
	Admins            time.Duration `yaml:"admins_ttl" env-default:"1m"`
}

// LogConfig: уровень и формат логов.
type LogConfig struct {
	Level  string `yaml:"level" env:"SCHOLARDESK_LOG_LEVEL" env-default:"warn"`
	Format string `yaml:"format" env:"SCHOLARDESK_LOG_FORMAT" env-default:"console" validate:"oneof=console json"`
}

// Load загружает конфигурацию. Файл ищется по приоритету:
// 1) явный путь; 2) SCHOLARDESK_CONFIG; 3) ./scholardesk.yaml.
// Без файла используются только окружение и значения по умолчанию
func Load(path string) (*Config, error) {
	// .env необязателен
	_ = godotenv.Load()

	var cfg Config

	file, err := locate(path)
	if err != nil {
		return nil, err
	}

	if file != "" {
		// ReadConfig накладывает ENV поверх значений из YAML
		if err := cleanenv.ReadConfig(file, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config %q: %w", file, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read env: %w", err)
	}

	if err := validation.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func locate(path string) (string, error) {
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("config file %q stat failed: %w", path, err)
		}
		return path, nil
	}

	if envPath := os.Getenv(EnvConfigPath); envPath != "" {
		if _, err := os.Stat(envPath); err != nil {
			return "", fmt.Errorf("config file %q stat failed: %w", envPath, err)
		}
		return envPath, nil
	}

	if _, err := os.Stat(DefaultConfigFile); err == nil {
		return DefaultConfigFile, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("config file %q stat failed: %w", DefaultConfigFile, err)
	}
	return "", nil
}
