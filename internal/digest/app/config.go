package app

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Token store backends selectable through TOKEN_STORE.
const (
	StoreFile   = "file"
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
)

type Config struct {
	QWeatherHost       string // Optional: provider API host, normalised by NormalizeHost
	QWeatherPrivateKey string // Required for weather: Ed25519 PKCS8 PEM
	QWeatherKeyID      string // Required for weather: credential id (kid)
	QWeatherProjectID  string // Required for weather: project id (sub)

	TokenStore     string // Optional: file, sqlite or redis (default: file)
	TokenCacheFile string // Optional: JSON token file (default: data/hefeng_token.json)
	DatabaseFile   string // Optional: SQLite database file (default: data/digest.db)
	RedisAddr      string // Optional: Redis address (default: localhost:6379)
	RedisPassword  string // Optional
	RedisDB        int    // Optional (default: 0)

	WxPusherAppToken string // Required: WxPusher application token
	WxPusherAPI      string // Optional: send endpoint override
	UIDAPI           string // Optional: latest subscriber endpoint, used by scheduled runs
	UIDFile          string // Optional: stored uid document (default: data/latest_uid.json)
	HistoryFile      string // Optional: last seen exchange, gold and fuel prices (default: data/history_data.json)

	TelegramBotToken string // Optional: enables the Telegram channel with TelegramChatID
	TelegramChatID   string // Optional

	Location     string  // Optional: city name for the 60s weather API (default: 余杭)
	LocationLat  string  // Optional: latitude for provider lookups
	LocationLon  string  // Optional: longitude for provider lookups
	SixtyAPIBase string  // Optional: 60s API base URL
	HitokotoAPI  string  // Optional: hitokoto endpoint
	Modules      Modules // Optional: enabled digest sections (default: weather,bing,hitokoto,kfc)

	TimeZone    string        // Optional: IANA zone the digest is rendered in (default: Asia/Shanghai)
	HTTPTimeout time.Duration // Optional: per request timeout (default: 10s)

	Env       string // Environment (dev, staging, prod) (default: prod)
	LogLevel  string // Log level (debug, info, warn, error) (default: info)
	LogFormat string // Log format (json, text) (default: json)

	// LogOutput is where logs go, stdout when nil. Not read from the environment.
	LogOutput io.Writer
}

// LoadDotEnv loads variables from the given files (".env" when none) without
// overriding ones already set. Missing files are not an error.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

func LoadConfig() Config {
	cfg := Config{
		QWeatherHost:       NormalizeHost(getEnvAny("QWEATHER_API_HOST", "HEFENG_API_HOST")),
		QWeatherPrivateKey: getEnvAny("QWEATHER_PRIVATE_KEY", "HEFENG_PRIVATE_KEY"),
		QWeatherKeyID:      strings.TrimSpace(getEnvAny("QWEATHER_KEY_ID", "HEFENG_KEY_ID")),
		QWeatherProjectID:  strings.TrimSpace(getEnvAny("QWEATHER_PROJECT_ID", "HEFENG_PROJECT_ID")),

		TokenStore:     strings.ToLower(getEnvOrDefault("TOKEN_STORE", StoreFile)),
		TokenCacheFile: getEnvOrDefault("TOKEN_CACHE_FILE", "data/hefeng_token.json"),
		DatabaseFile:   getEnvOrDefault("TOKEN_DATABASE_FILE", "data/digest.db"),
		RedisAddr:      getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		RedisDB:        getEnvIntOrDefault("REDIS_DB", 0),

		WxPusherAppToken: os.Getenv("WXPUSHER_APP_TOKEN"),
		WxPusherAPI:      os.Getenv("WXPUSHER_API"),
		UIDAPI:           os.Getenv("UID_API"),
		UIDFile:          getEnvOrDefault("UID_FILE", "data/latest_uid.json"),
		HistoryFile:      getEnvOrDefault("HISTORY_FILE", "data/history_data.json"),

		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramChatID:   os.Getenv("TELEGRAM_CHAT_ID"),

		Location:     getEnvOrDefault("LOCATION", "余杭"),
		LocationLat:  getEnvOrDefault("LOCATION_LAT", "30.27371"),
		LocationLon:  getEnvOrDefault("LOCATION_LON", "119.97874"),
		SixtyAPIBase: os.Getenv("SIXTY_API_BASE"),
		HitokotoAPI:  os.Getenv("HITOKOTO_API"),
		Modules:      ParseModules(getEnvOrDefault("DIGEST_MODULES", DefaultModules)),

		TimeZone:    getEnvOrDefault("TIMEZONE", "Asia/Shanghai"),
		HTTPTimeout: getEnvDurationOrDefault("HTTP_TIMEOUT", 10*time.Second),

		Env:       getEnvOrDefault("ENV", "prod"),
		LogLevel:  getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "json"),
	}

	return cfg
}

// NormalizeHost cleans a provider host pasted into an environment variable:
// whitespace and line breaks go, a missing scheme becomes https and trailing
// slashes are dropped. An empty host stays empty.
func NormalizeHost(host string) string {
	host = strings.NewReplacer("\r", "", "\n", "").Replace(host)
	host = strings.TrimSpace(host)
	if host == "" {
		return ""
	}
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "https://" + host
	}
	return strings.TrimRight(host, "/")
}

// getEnvAny returns the first non-empty variable out of keys.
func getEnvAny(keys ...string) string {
	for _, key := range keys {
		if value := os.Getenv(key); value != "" {
			return value
		}
	}
	return ""
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "10s", "1m")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Bare integers are seconds
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}

	return defaultValue
}
