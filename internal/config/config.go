package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Redis    RedisConfig
	Cache    CacheConfig
	Media    MediaConfig
	Layout   LayoutConfig
	Runtime  RuntimeConfig
	Logger   LoggerConfig
}

type ServerConfig struct {
	Port       string
	AppEnv     string
	PublicURL  string // scheme://host used to build absolute image URLs
	CORSOrigin string
}

type DatabaseConfig struct {
	Driver          string // postgres, mysql or sqlite
	DSN             string
	Path            string // sqlite file, used when Driver is sqlite
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type JWTConfig struct {
	Secret string
	TTL    time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type CacheConfig struct {
	ConfigTTL time.Duration
}

type MediaConfig struct {
	Dir      string
	MaxBytes int64
}

type LayoutConfig struct {
	MaxButtonsPerLine int
}

// RuntimeConfig covers outbound calls to the bot runtimes.
type RuntimeConfig struct {
	Timeout time.Duration
}

type LoggerConfig struct {
	Level string
}

func (c *Config) IsDevelopment() bool {
	return c.Server.AppEnv == "dev" || c.Server.AppEnv == "development"
}

func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Error loading .env file")
	}

	return &Config{
		Server: ServerConfig{
			Port:       getEnv("PORT", "8080"),
			AppEnv:     getEnv("APP_ENV", "dev"),
			PublicURL:  strings.TrimRight(getEnv("PUBLIC_URL", "http://localhost:8080"), "/"),
			CORSOrigin: getEnv("CORS_ORIGIN", "*"),
		},
		Database: DatabaseConfig{
			Driver:          getEnv("DB_DRIVER", "sqlite"),
			DSN:             getEnv("DB_DSN", ""),
			Path:            getEnv("DB_PATH", "./catalog.db"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 10),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", "change-me"),
			TTL:    getEnvDuration("JWT_TTL", 72*time.Hour),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Cache: CacheConfig{
			ConfigTTL: getEnvDuration("CONFIG_CACHE_TTL", time.Hour),
		},
		Media: MediaConfig{
			Dir:      getEnv("MEDIA_DIR", "./public"),
			MaxBytes: int64(getEnvInt("MEDIA_MAX_BYTES", 5<<20)),
		},
		Layout: LayoutConfig{
			MaxButtonsPerLine: getEnvInt("LAYOUT_MAX_BUTTONS_PER_LINE", 8),
		},
		Runtime: RuntimeConfig{
			Timeout: getEnvDuration("BOT_RUNTIME_TIMEOUT", 10*time.Second),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOGGER_LEVEL", "info"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
