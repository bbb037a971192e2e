package config

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"socialhub/utils"
)

type Config struct {
	Port string
	Env  string

	MongoURI     string
	DatabaseName string

	JWTSecret     string
	JWTExpiration time.Duration
	JWTIssuer     string

	B2ApplicationKeyID string
	B2ApplicationKey   string
	B2BucketName       string

	MaxMediaSize int64
	MediaURLTTL  time.Duration

	AllowedOrigins []string

	NotificationPageSize    int
	NotificationMaxPageSize int
	NotificationRetention   time.Duration
	RetentionSweepInterval  time.Duration

	ActionRateLimit  int
	ActionRateWindow time.Duration

	LogLevel  string
	LogFormat string
}

var AppConfig *Config

// LoadConfig loads the configuration into AppConfig and exits on invalid settings.
func LoadConfig() {
	cfg, err := Load()
	if err != nil {
		utils.LogFatal("Invalid configuration", err)
	}
	AppConfig = cfg
	logConfig(cfg)
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	var parseErrs []string

	cfg := &Config{
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),

		MongoURI:     getMongoURI(),
		DatabaseName: getEnv("DATABASE_NAME", "socialhub"),

		JWTSecret: getEnv("JWT_SECRET", ""),
		JWTIssuer: getEnv("JWT_ISSUER", "socialhub"),

		B2ApplicationKeyID: firstEnv("B2_APPLICATION_KEY_ID", "B2_KEY_ID", "BACKBLAZE_KEY_ID"),
		B2ApplicationKey:   firstEnv("B2_APPLICATION_KEY", "B2_APP_KEY", "BACKBLAZE_APP_KEY"),
		B2BucketName:       firstEnv("B2_BUCKET_NAME", "B2_BUCKET", "BACKBLAZE_BUCKET"),

		AllowedOrigins: parseStringSlice(getEnv("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	cfg.JWTExpiration = parseDuration("JWT_EXPIRATION", "24h", &parseErrs)
	cfg.MediaURLTTL = parseDuration("MEDIA_URL_TTL", "1h", &parseErrs)
	cfg.NotificationRetention = parseDuration("NOTIFICATION_RETENTION", "2160h", &parseErrs)
	cfg.RetentionSweepInterval = parseDuration("RETENTION_SWEEP_INTERVAL", "6h", &parseErrs)
	cfg.MaxMediaSize = parseInt64("MAX_MEDIA_SIZE", "26214400", &parseErrs)
	cfg.NotificationPageSize = int(parseInt64("NOTIFICATION_PAGE_SIZE", "20", &parseErrs))
	cfg.NotificationMaxPageSize = int(parseInt64("NOTIFICATION_MAX_PAGE_SIZE", "100", &parseErrs))
	cfg.ActionRateLimit = int(parseInt64("ACTION_RATE_LIMIT", "30", &parseErrs))
	cfg.ActionRateWindow = parseDuration("ACTION_RATE_WINDOW", "1m", &parseErrs)

	if len(parseErrs) > 0 {
		return nil, fmt.Errorf("failed to parse settings: %s", strings.Join(parseErrs, "; "))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required settings and value ranges.
func (c *Config) Validate() error {
	var missingVars []string

	required := map[string]string{
		"MONGO_URI":             c.MongoURI,
		"JWT_SECRET":            c.JWTSecret,
		"B2_APPLICATION_KEY_ID": c.B2ApplicationKeyID,
		"B2_APPLICATION_KEY":    c.B2ApplicationKey,
		"B2_BUCKET_NAME":        c.B2BucketName,
	}

	for key, value := range required {
		if value == "" {
			missingVars = append(missingVars, key)
		}
	}

	if len(missingVars) > 0 {
		sort.Strings(missingVars)
		return fmt.Errorf("missing required environment variables: %v", missingVars)
	}

	if c.NotificationPageSize <= 0 || c.NotificationMaxPageSize < c.NotificationPageSize {
		return fmt.Errorf("notification page size must be positive and not exceed the max page size (%d > %d)",
			c.NotificationPageSize, c.NotificationMaxPageSize)
	}
	if c.ActionRateLimit <= 0 || c.ActionRateWindow <= 0 {
		return fmt.Errorf("ACTION_RATE_LIMIT and ACTION_RATE_WINDOW must be positive")
	}
	if c.MaxMediaSize <= 0 {
		return fmt.Errorf("MAX_MEDIA_SIZE must be positive")
	}
	return nil
}

func getMongoURI() string {
	if uri := firstEnv("MONGO_URI", "MONGODB_URI"); uri != "" {
		return uri
	}
	return "mongodb://localhost:27017"
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if value := os.Getenv(key); value != "" {
			return value
		}
	}
	return ""
}

func logConfig(cfg *Config) {
	l := utils.Logger("config")
	l.Info().
		Str("port", cfg.Port).
		Str("env", cfg.Env).
		Str("database", cfg.DatabaseName).
		Str("mongo_uri", maskConnectionString(cfg.MongoURI)).
		Str("jwt_secret", maskSecret(cfg.JWTSecret)).
		Dur("jwt_expiration", cfg.JWTExpiration).
		Str("b2_key_id", maskSecret(cfg.B2ApplicationKeyID)).
		Str("b2_bucket", cfg.B2BucketName).
		Int64("max_media_size", cfg.MaxMediaSize).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Int("notification_page_size", cfg.NotificationPageSize).
		Dur("notification_retention", cfg.NotificationRetention).
		Msg("Configuration loaded")
}

func maskSecret(secret string) string {
	if secret == "" {
		return "[NOT SET]"
	}
	if len(secret) <= 8 {
		return "[HIDDEN]"
	}
	return secret[:4] + "***" + secret[len(secret)-4:]
}

func maskConnectionString(uri string) string {
	if uri == "" {
		return "[NOT SET]"
	}
	if strings.Contains(uri, "@") {
		parts := strings.Split(uri, "@")
		if len(parts) >= 2 {
			return "[CREDENTIALS_HIDDEN]@" + parts[len(parts)-1]
		}
	}
	return uri
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseInt64(key, defaultValue string, errs *[]string) int64 {
	s := getEnv(key, defaultValue)
	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("%s: %q is not an integer", key, s))
	}
	return i
}

func parseDuration(key, defaultValue string, errs *[]string) time.Duration {
	s := getEnv(key, defaultValue)
	d, err := time.ParseDuration(s)
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("%s: %q is not a duration", key, s))
	}
	return d
}

func CreateContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}

func parseStringSlice(s string) []string {
	if s == "" {
		return []string{}
	}

	parts := strings.Split(s, ",")
	var result []string
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
