package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Configはアプリ全体の設定。起動時に一度だけ解決する。
// cookieポリシーは持たない（トークンはレスポンスボディで返す方式に統一）。
type Config struct {
	Port string

	DatabaseURL      string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresHost     string
	PostgresPort     int
	PostgresSSLMode  string

	JWTSecret string

	//カンマ区切り。devでは *.vercel.app を追加で許可する。
	AllowedOrigins []string

	ResendAPIKey string
	MailFrom     string
	MailBaseURL  string

	StorageBaseURL string
	StorageAPIKey  string

	//紹介リンクの生成に使うフロントURL
	FrontendBaseURL string

	Env string // dev / prod
}

func (c Config) IsDev() bool { return c.Env != "prod" }

// Loadは環境変数から設定を読む。
func Load() (Config, error) {
	cfg := Config{
		Port: getenv("PORT", "8080"),

		DatabaseURL:      os.Getenv("DATABASE_URL"),
		PostgresUser:     getenv("POSTGRES_USER", "postgres"),
		PostgresPassword: getenv("POSTGRES_PASSWORD", "postgres"),
		PostgresDB:       getenv("POSTGRES_DB", "rentalapp"),
		PostgresHost:     getenv("POSTGRES_HOST", "localhost"),
		PostgresSSLMode:  getenv("POSTGRES_SSLMODE", "disable"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		ResendAPIKey: os.Getenv("RESEND_API_KEY"),
		MailFrom:     getenv("MAIL_FROM", "Yafora <notifications@yafora.com>"),
		MailBaseURL:  getenv("MAIL_BASE_URL", "https://api.resend.com"),

		StorageBaseURL: getenv("STORAGE_BASE_URL", "http://localhost:9000"),
		StorageAPIKey:  os.Getenv("STORAGE_API_KEY"),

		FrontendBaseURL: getenv("FRONTEND_BASE_URL", "https://yafora.vercel.app"),

		Env: getenv("GO_ENV", "dev"),
	}

	pgPort, err := atoiDefault("POSTGRES_PORT", 5432)
	if err != nil {
		return Config{}, err
	}
	cfg.PostgresPort = pgPort

	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		for _, o := range strings.Split(v, ",") {
			o = strings.TrimSpace(o)
			if o != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
			}
		}
	}

	//必須チェック
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.DatabaseURL == "" && cfg.PostgresDB == "" {
		return Config{}, fmt.Errorf("database settings are required")
	}

	return cfg, nil
}

func getenv(key string, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoiDefault(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be number: %w", key, err)
	}
	return i, nil
}
