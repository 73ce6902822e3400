package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App          AppConfig
	HTTP         ServerConfig
	MySQL        MySQLConfig
	Log          LogConfig
	Entitlements EntitlementConfig
	Jobs         JobsConfig
}

type AppConfig struct {
	ServiceName string
	Environment string
}

type ServerConfig struct {
	Host string
	Port string
}

type MySQLConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type LogConfig struct {
	Level string
}

type EntitlementConfig struct {
	SigningSecret     string
	AdminEmails       []string
	TokenCookieName   string
	LegacyCookieName  string
	SecureCookies     bool
	CampaignCutoff    time.Time
	PremiumCodes      []string
	CodePrefix        string
	CodeIssueAttempts int
}

type JobsConfig struct {
	ExpirationCheckInterval time.Duration
}

const defaultCampaignCutoff = "2026-12-31T23:59:59Z"

func Load() (*Config, error) {
	_ = godotenv.Load()

	mysqlDSN := os.Getenv("MYSQL_DSN")
	if mysqlDSN == "" {
		return nil, errors.New("MYSQL_DSN environment variable is required")
	}

	signingSecret := os.Getenv("ENTITLEMENT_SIGNING_SECRET")
	if signingSecret == "" {
		return nil, errors.New("ENTITLEMENT_SIGNING_SECRET environment variable is required")
	}

	campaignCutoff, err := time.Parse(time.RFC3339, getEnv("CAMPAIGN_CUTOFF", defaultCampaignCutoff))
	if err != nil {
		return nil, errors.New("CAMPAIGN_CUTOFF must be RFC3339")
	}

	return &Config{
		App: AppConfig{
			ServiceName: getEnv("APP_SERVICE_NAME", "entitlements-service"),
			Environment: getEnv("APP_ENV", "production"),
		},
		HTTP: ServerConfig{
			Host: getEnv("HTTP_HOST", "0.0.0.0"),
			Port: getEnv("HTTP_PORT", "8080"),
		},
		MySQL: MySQLConfig{
			DSN:             mysqlDSN,
			MaxOpenConns:    getIntEnv("MYSQL_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getIntEnv("MYSQL_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getDurationEnv("MYSQL_CONN_MAX_LIFETIME_MINUTES", 30*time.Minute),
		},
		Log: LogConfig{Level: getEnv("LOG_LEVEL", "info")},
		Entitlements: EntitlementConfig{
			SigningSecret:     signingSecret,
			AdminEmails:       getListEnv("ADMIN_EMAILS"),
			TokenCookieName:   getEnv("TOKEN_COOKIE_NAME", "entitlement_token"),
			LegacyCookieName:  getEnv("LEGACY_COOKIE_NAME", "premium_member"),
			SecureCookies:     getEnv("APP_ENV", "production") == "production",
			CampaignCutoff:    campaignCutoff.UTC(),
			PremiumCodes:      getListEnv("PREMIUM_CODES"),
			CodePrefix:        getEnv("CODE_PREFIX", "SUB"),
			CodeIssueAttempts: getIntEnv("CODE_ISSUE_ATTEMPTS", 5),
		},
		Jobs: JobsConfig{
			ExpirationCheckInterval: getDurationEnv("EXPIRATION_CHECK_INTERVAL_MINUTES", time.Hour),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if minutes, err := strconv.Atoi(value); err == nil {
			return time.Duration(minutes) * time.Minute
		}
	}
	return defaultValue
}

func getListEnv(key string) []string {
	raw := os.Getenv(key)
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	items := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
