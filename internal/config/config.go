package config

import (
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	Env        string           `yaml:"env" env-default:"local"` // environment
	LogLevel   string           `yaml:"log_level" env:"LOG_LEVEL"`
	HTTPServer HTTPServerConfig `yaml:"http_server"`
	Database   DatabaseConfig   `yaml:"database"`
	Migrations MigrationsConfig `yaml:"migrations"`
	Admin      AdminConfig      `yaml:"admin"`
	JWT        JWTConfig        `yaml:"jwt"`
	CORS       CORSConfig       `yaml:"cors"`
	Orders     OrdersConfig     `yaml:"orders"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

// HTTPServerConfig структура http сервера
type HTTPServerConfig struct {
	Address     string        `yaml:"address" env:"HTTP_ADDRESS" env-default:"localhost:5000"`
	Timeout     time.Duration `yaml:"timeout" env-default:"4s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// DatabaseConfig структура по работе с БД
type DatabaseConfig struct {
	Host     string `yaml:"host" env:"DB_HOST" env-default:"localhost"`
	Port     int    `yaml:"port" env:"DB_PORT" env-default:"5432"`
	User     string `yaml:"user" env:"DB_USER" env-required:"true"`
	Password string `yaml:"-" env:"DB_PASSWORD" env-required:"true"`
	Name     string `yaml:"name" env:"DB_NAME" env-required:"true"`
	SSLMode  string `yaml:"sslmode" env-default:"disable"`
}

type MigrationsConfig struct {
	Path string `yaml:"path" env-default:"./migrations"`
}

// AdminConfig: общий секрет администратора. Если задан secret_hash (bcrypt),
// секрет сверяется с ним, иначе с ADMIN_SECRET.
type AdminConfig struct {
	Secret     string `yaml:"-" env:"ADMIN_SECRET"`
	SecretHash string `yaml:"secret_hash" env:"ADMIN_SECRET_HASH"`
	TokenTTL   int    `yaml:"token_ttl" env-default:"60"` // минуты
}

// JWTConfig настройка jwt
type JWTConfig struct {
	Secret string `yaml:"-" env:"JWT_SECRET" env-required:"true"`
}

type CORSConfig struct {
	AllowOrigins []string `yaml:"allow_origins" env:"CORS_ALLOW_ORIGINS" env-default:"*"`
}

// OrdersConfig: strict_transitions включает таблицу допустимых переходов статусов
type OrdersConfig struct {
	StrictTransitions bool `yaml:"strict_transitions" env:"ORDERS_STRICT_TRANSITIONS" env-default:"false"`
}

type MetricsConfig struct {
	Enabled     bool          `yaml:"enabled" env:"METRICS_ENABLED" env-default:"false"`
	Endpoint    string        `yaml:"endpoint" env:"OTEL_EXPORTER_OTLP_ENDPOINT" env-default:"localhost:4318"`
	Insecure    bool          `yaml:"insecure" env:"OTEL_EXPORTER_OTLP_INSECURE" env-default:"true"`
	ServiceName string        `yaml:"service_name" env:"OTEL_SERVICE_NAME" env-default:"storefront"`
	Interval    time.Duration `yaml:"interval" env-default:"10s"`
}

// MustLoad - если не загружаем - паникуем
func MustLoad() *Config {
	configPath := fetchConfigPath()
	if configPath == "" {
		log.Fatal("CONFIG_PATH not exists")
	}
	return MustLoadByPath(configPath)
}

func fetchConfigPath() string {
	var path string

	flag.StringVar(&path, "config", "", "path to config file")
	flag.Parse()

	// .env подхватываем до чтения CONFIG_PATH, отсутствие файла не ошибка
	_ = godotenv.Load()

	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	return path
}

func MustLoadByPath(configPath string) *Config {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file not found: " + configPath)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("can't read config file %s: %v", configPath, err)
	}

	if cfg.Admin.Secret == "" && cfg.Admin.SecretHash == "" {
		log.Fatal("admin secret is not configured: set ADMIN_SECRET or admin.secret_hash")
	}

	return &cfg
}

// DSN собирает строку подключения к Postgres
func (d DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     d.Name,
		RawQuery: url.Values{"sslmode": {d.SSLMode}}.Encode(),
	}
	return u.String()
}
