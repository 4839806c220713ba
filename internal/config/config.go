package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// Auth
	JWTSecret string
	TokenTTL  time.Duration

	// Rate Limit
	GeneralLimit      int
	GeneralWindow     time.Duration
	AuthLimit         int
	AuthWindow        time.Duration
	PerUserLimit      int
	PerUserWindow     time.Duration
	TodoCreateLimit   int
	TodoCreateWindow  time.Duration

	// Redis（マルチインスタンス構成でのカウンタ共有用、省略可）
	RedisURL string

	// Server
	ServerPort  string
	Environment string

	// CORS
	CORSAllowedOrigin string
}

// IsDevelopment は開発モードかどうかを返す。
// 開発モードでは内部エラーの詳細をレスポンスに含める。
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// Load は環境変数からConfigを読み込む。
// カレントディレクトリに.envファイルがあれば先に読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	// .envは存在しない場合は無視する
	_ = godotenv.Load()

	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.TokenTTL = getEnvDuration("TOKEN_TTL", 24*time.Hour)
	cfg.GeneralLimit = getEnvInt("RATE_LIMIT_GENERAL", 100)
	cfg.GeneralWindow = getEnvDuration("RATE_LIMIT_GENERAL_WINDOW", 15*time.Minute)
	cfg.AuthLimit = getEnvInt("RATE_LIMIT_AUTH", 20)
	cfg.AuthWindow = getEnvDuration("RATE_LIMIT_AUTH_WINDOW", 15*time.Minute)
	cfg.PerUserLimit = getEnvInt("RATE_LIMIT_PER_USER", 200)
	cfg.PerUserWindow = getEnvDuration("RATE_LIMIT_PER_USER_WINDOW", 15*time.Minute)
	cfg.TodoCreateLimit = getEnvInt("RATE_LIMIT_TODO_CREATE", 10)
	cfg.TodoCreateWindow = getEnvDuration("RATE_LIMIT_TODO_CREATE_WINDOW", time.Minute)
	cfg.RedisURL = getEnvString("REDIS_URL", "")
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.Environment = strings.ToLower(getEnvString("ENVIRONMENT", "development"))
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
