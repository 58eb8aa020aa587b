package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// App holds the runtime configuration loaded from environment variables.
type App struct {
	Env      string
	HTTPPort string
	AppTitle string

	ServiceAccountJSON string
	ServiceAccountFile string
	SpreadsheetID      string
	DriveFolderID      string
	RosterSheet        string
	RecordsSheet       string
	RosterTTL          time.Duration

	CacheBackend string
	RedisAddr    string

	SessionIssuer     string
	SessionSigningKey string
	SessionTTL        time.Duration

	RateLimitPerMin int
	CORSOrigins     []string
	MaxUploadMB     int
	Timezone        string
}

// Load returns application config populated from environment variables with sensible defaults.
// A .env file in the working directory is read first when present.
func Load() App {
	if err := godotenv.Load(); err == nil {
		zap.L().Info("loaded .env file")
	}

	return App{
		Env:                getEnv("APP_ENV", "dev"),
		HTTPPort:           getEnv("HTTP_PORT", "8080"),
		AppTitle:           getEnv("APP_TITLE", "🌱 매현중 스마트 가든"),
		ServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		ServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),
		SpreadsheetID:      getEnv("GOOGLE_SHEET_ID", ""),
		DriveFolderID:      getEnv("DRIVE_FOLDER_ID", ""),
		RosterSheet:        getEnv("ROSTER_SHEET", "학생명단"),
		RecordsSheet:       getEnv("RECORDS_SHEET", "기록"),
		RosterTTL:          durationEnv("ROSTER_TTL", 30*time.Second),
		CacheBackend:       getEnv("CACHE_BACKEND", "memory"),
		RedisAddr:          getEnv("REDIS_ADDR", "localhost:6379"),
		SessionIssuer:      getEnv("SESSION_ISSUER", "garden-journal"),
		SessionSigningKey:  getEnv("SESSION_SIGNING_KEY", "dev-signing-secret-change"),
		SessionTTL:         durationEnv("SESSION_TTL", 8*time.Hour),
		RateLimitPerMin:    intEnv("RATE_LIMIT_PER_MIN", 120),
		CORSOrigins:        listEnv("CORS_ORIGINS"),
		MaxUploadMB:        intEnv("MAX_UPLOAD_MB", 20),
		Timezone:           getEnv("TIMEZONE", "Asia/Seoul"),
	}
}

// Production reports whether the app runs in a production environment.
func (a App) Production() bool {
	return a.Env == "production" || a.Env == "prod"
}

// Location resolves the configured time zone, falling back to the local zone.
func (a App) Location() *time.Location {
	if a.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(a.Timezone)
	if err != nil {
		zap.L().Warn("invalid timezone, using local", zap.String("timezone", a.Timezone), zap.Error(err))
		return time.Local
	}
	return loc
}

// Validate reports every missing or inconsistent setting at once.
func (a App) Validate() error {
	var result *multierror.Error
	if a.ServiceAccountJSON == "" && a.ServiceAccountFile == "" {
		result = multierror.Append(result, errors.New("GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE must be set"))
	}
	if a.SpreadsheetID == "" {
		result = multierror.Append(result, errors.New("GOOGLE_SHEET_ID must be set"))
	}
	if a.DriveFolderID == "" {
		result = multierror.Append(result, errors.New("DRIVE_FOLDER_ID must be set"))
	}
	if a.RosterSheet == "" || a.RecordsSheet == "" {
		result = multierror.Append(result, errors.New("ROSTER_SHEET and RECORDS_SHEET must not be empty"))
	}
	switch a.CacheBackend {
	case "memory", "redis":
	default:
		result = multierror.Append(result, fmt.Errorf("CACHE_BACKEND must be memory or redis, got %q", a.CacheBackend))
	}
	if a.SessionSigningKey == "" {
		result = multierror.Append(result, errors.New("SESSION_SIGNING_KEY must be set"))
	}
	if a.Production() && a.SessionSigningKey == "dev-signing-secret-change" {
		result = multierror.Append(result, errors.New("SESSION_SIGNING_KEY must be changed in production"))
	}
	if a.SessionTTL <= 0 {
		result = multierror.Append(result, errors.New("SESSION_TTL must be positive"))
	}
	if a.MaxUploadMB <= 0 {
		result = multierror.Append(result, errors.New("MAX_UPLOAD_MB must be positive"))
	}
	return result.ErrorOrNil()
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			zap.L().Warn("invalid duration, using fallback", zap.String("key", key), zap.Error(err), zap.Duration("fallback", fallback))
			return fallback
		}
		return d
	}
	return fallback
}

func intEnv(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		var parsed int
		if _, err := fmt.Sscanf(val, "%d", &parsed); err == nil {
			return parsed
		}
		zap.L().Warn("invalid int, using fallback", zap.String("key", key), zap.Int("fallback", fallback))
	}
	return fallback
}

func listEnv(key string) []string {
	val := os.Getenv(key)
	if val == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
