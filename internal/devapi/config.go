package devapi

import (
	"fmt"
	"net"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"github.com/iudanet/scholardesk/internal/validation"
)

// EnvConfigPath: переменная окружения с путем к YAML файлу dev API
const EnvConfigPath = "DEVAPI_CONFIG"

// Config: конфигурация dev API.
// Источники: --config или DEVAPI_CONFIG, затем окружение (в том числе .env)
type Config struct {
	HTTP   HTTPConfig   `yaml:"http"`
	Auth   AuthConfig   `yaml:"auth"`
	Seed   SeedConfig   `yaml:"seed"`
	Log    LogConfig    `yaml:"log"`
	CORS   CORSConfig   `yaml:"cors"`
	Limits LimitsConfig `yaml:"limits"`
}

// HTTPConfig: адрес сервера
type HTTPConfig struct {
	Host string `yaml:"host" env:"DEVAPI_HOST" env-default:"127.0.0.1"`
	Port string `yaml:"port" env:"DEVAPI_PORT" env-default:"8000"`
}

// Addr returns host:port
func (h HTTPConfig) Addr() string { return net.JoinHostPort(h.Host, h.Port) }

// AuthConfig: параметры токенов
type AuthConfig struct {
	Secret        string        `yaml:"secret" env:"DEVAPI_JWT_SECRET"`
	AccessTTL     time.Duration `yaml:"access_ttl" env:"DEVAPI_ACCESS_TTL" env-default:"5m" validate:"gt=0"`
	RefreshTTL    time.Duration `yaml:"refresh_ttl" env:"DEVAPI_REFRESH_TTL" env-default:"24h" validate:"gt=0"`
	BcryptCost    int           `yaml:"bcrypt_cost" env:"DEVAPI_BCRYPT_COST" env-default:"10"`
	RotateRefresh bool          `yaml:"rotate_refresh" env:"DEVAPI_ROTATE_REFRESH"`
}

// SeedConfig: начальный super admin и демонстрационные стипендии
type SeedConfig struct {
	AdminEmail    string `yaml:"admin_email" env:"DEVAPI_ADMIN_EMAIL" env-default:"admin@example.com" validate:"omitempty,email"`
	AdminPassword string `yaml:"admin_password" env:"DEVAPI_ADMIN_PASSWORD" env-default:"admin123" validate:"omitempty,min=6"`
	Scholarships  bool   `yaml:"scholarships" env:"DEVAPI_SEED_SCHOLARSHIPS" env-default:"true"`
}

// LogConfig: уровень и формат логов
type LogConfig struct {
	Level  string `yaml:"level" env:"DEVAPI_LOG_LEVEL" env-default:"info"`
	Format string `yaml:"format" env:"DEVAPI_LOG_FORMAT" env-default:"console" validate:"oneof=console json"`
}

// CORSConfig: разрешенные origin браузерного фронтенда
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins" env:"DEVAPI_CORS_ORIGINS" env-separator:"," env-default:"http://localhost:*"`
}

// LimitsConfig: ограничение попыток входа
type LimitsConfig struct {
	LoginRate   int           `yaml:"login_rate" env:"DEVAPI_LOGIN_RATE" env-default:"20" validate:"gte=0"`
	LoginWindow time.Duration `yaml:"login_window" env:"DEVAPI_LOGIN_WINDOW" env-default:"1m" validate:"gt=0"`
}

// LoadConfig читает конфигурацию; пустой path и пустой DEVAPI_CONFIG означают только окружение
func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}

	var cfg Config
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file %q stat failed: %w", path, err)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read env: %w", err)
	}

	if err := validation.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Options переводит конфигурацию в параметры сервера
func (c *Config) Options() Options {
	return Options{
		Secret:         []byte(c.Auth.Secret),
		AllowedOrigins: c.CORS.AllowedOrigins,
		AccessTTL:      c.Auth.AccessTTL,
		RefreshTTL:     c.Auth.RefreshTTL,
		BcryptCost:     c.Auth.BcryptCost,
		LoginRate:      c.Limits.LoginRate,
		LoginWindow:    c.Limits.LoginWindow,
		RotateRefresh:  c.Auth.RotateRefresh,
	}
}
