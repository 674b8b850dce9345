package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Supported calendar store backends.
const (
	StorePostgres = "postgres"
	StoreRedis    = "redis"
	StoreFile     = "file"
	StoreMemory   = "memory"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string
	Timezone  string

	Database  DatabaseConfig
	Redis     RedisConfig
	CORS      CORSConfig
	Log       LogConfig
	Store     StoreConfig
	Cache     CacheConfig
	Templates TemplatesConfig
	Reminders RemindersConfig
	Export    ExportConfig
	Feeds     FeedsConfig
}

type DatabaseConfig struct {
	// URL, when set, is used verbatim instead of the discrete fields.
	URL          string
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host      string
	Port      int
	Password  string
	DB        int
	KeyPrefix string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// StoreConfig selects the persistence backend for calendars and subjects.
type StoreConfig struct {
	Backend          string
	FileDir          string
	ActiveCalendarID string
}

// CacheConfig controls cache-aside loading of calendars.
type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

// TemplatesConfig points at additional institution calendar templates.
type TemplatesConfig struct {
	File         string
	RemoteURL    string
	FetchTimeout time.Duration
}

// RemindersConfig drives the class reminder planner.
type RemindersConfig struct {
	Enabled     bool
	Cron        string
	LeadTime    time.Duration
	HorizonDays int
	Workers     int
	Retries     int
}

// FeedsConfig signs public calendar subscription links.
type FeedsConfig struct {
	SigningSecret string
	// PreviousSecrets still verify links issued before a rotation.
	PreviousSecrets []string
	LinkTTL         time.Duration
	PublicBaseURL   string
}

// ExportConfig tunes calendar exports.
type ExportConfig struct {
	Title        string
	CSVDelimiter rune
	CSVBOM       bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")
	cfg.Timezone = v.GetString("TIMEZONE")

	cfg.Database = DatabaseConfig{
		URL:          v.GetString("DATABASE_URL"),
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:      v.GetString("REDIS_HOST"),
		Port:      v.GetInt("REDIS_PORT"),
		Password:  v.GetString("REDIS_PASSWORD"),
		DB:        v.GetInt("REDIS_DB"),
		KeyPrefix: v.GetString("REDIS_KEY_PREFIX"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Store = StoreConfig{
		Backend:          normalizeBackend(v.GetString("CALENDAR_STORE")),
		FileDir:          v.GetString("STORE_FILE_DIR"),
		ActiveCalendarID: v.GetString("ACTIVE_CALENDAR_ID"),
	}

	cfg.Cache = CacheConfig{
		Enabled: v.GetBool("ENABLE_CACHE"),
		TTL:     parseDuration(v.GetString("CACHE_TTL"), 10*time.Minute),
	}

	cfg.Templates = TemplatesConfig{
		File:         v.GetString("TEMPLATES_FILE"),
		RemoteURL:    v.GetString("TEMPLATES_REMOTE_URL"),
		FetchTimeout: parseDuration(v.GetString("TEMPLATES_FETCH_TIMEOUT"), 5*time.Second),
	}

	horizon := v.GetInt("REMINDERS_HORIZON_DAYS")
	if horizon <= 0 {
		horizon = 7
	}
	cfg.Reminders = RemindersConfig{
		Enabled:     v.GetBool("ENABLE_REMINDERS"),
		Cron:        v.GetString("REMINDERS_CRON"),
		LeadTime:    parseDuration(v.GetString("REMINDERS_LEAD_TIME"), 15*time.Minute),
		HorizonDays: horizon,
		Workers:     v.GetInt("REMINDERS_WORKERS"),
		Retries:     v.GetInt("REMINDERS_RETRIES"),
	}

	cfg.Export = ExportConfig{
		Title:        v.GetString("EXPORT_TITLE"),
		CSVDelimiter: firstRune(v.GetString("EXPORT_CSV_DELIMITER"), ','),
		CSVBOM:       v.GetBool("EXPORT_CSV_BOM"),
	}

	cfg.Feeds = FeedsConfig{
		SigningSecret:   v.GetString("FEEDS_SIGNING_SECRET"),
		PreviousSecrets: splitAndTrim(v.GetString("FEEDS_PREVIOUS_SECRETS")),
		LinkTTL:         parseDuration(v.GetString("FEEDS_LINK_TTL"), 30*24*time.Hour),
		PublicBaseURL:   strings.TrimRight(v.GetString("FEEDS_PUBLIC_BASE_URL"), "/"),
	}

	return cfg, nil
}

// Location resolves the configured timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	if c == nil || c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")
	v.SetDefault("TIMEZONE", "UTC")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "studyplan")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_KEY_PREFIX", "studyplan")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("CALENDAR_STORE", StoreFile)
	v.SetDefault("STORE_FILE_DIR", "./data")
	v.SetDefault("ACTIVE_CALENDAR_ID", "")

	v.SetDefault("ENABLE_CACHE", false)
	v.SetDefault("CACHE_TTL", "10m")

	v.SetDefault("TEMPLATES_FILE", "")
	v.SetDefault("TEMPLATES_REMOTE_URL", "")
	v.SetDefault("TEMPLATES_FETCH_TIMEOUT", "5s")

	v.SetDefault("ENABLE_REMINDERS", false)
	v.SetDefault("REMINDERS_CRON", "*/5 * * * *")
	v.SetDefault("REMINDERS_LEAD_TIME", "15m")
	v.SetDefault("REMINDERS_HORIZON_DAYS", 7)
	v.SetDefault("REMINDERS_WORKERS", 1)
	v.SetDefault("REMINDERS_RETRIES", 3)

	v.SetDefault("EXPORT_TITLE", "Academic calendar")
	v.SetDefault("EXPORT_CSV_DELIMITER", ",")
	v.SetDefault("EXPORT_CSV_BOM", false)
	v.SetDefault("FEEDS_SIGNING_SECRET", "dev_feeds_secret")
	v.SetDefault("FEEDS_LINK_TTL", "720h")
	v.SetDefault("FEEDS_PUBLIC_BASE_URL", "http://localhost:8080")
}

func normalizeBackend(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case StorePostgres:
		return StorePostgres
	case StoreRedis:
		return StoreRedis
	case StoreMemory:
		return StoreMemory
	default:
		return StoreFile
	}
}

func isMissingFile(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

func firstRune(value string, fallback rune) rune {
	for _, r := range value {
		return r
	}
	return fallback
}
