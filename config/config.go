package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// DefaultPath is where Load looks for the JSON config file when no path is given.
var DefaultPath = filepath.Join("config", "config.json")

// AppConfig holds environment driven configuration values.
// Sensitive data should never have defaults inside code and must be provided via the config file or the environment.
type AppConfig struct {
	AppPort         string
	JWTSecret       string
	TokenTTLMinutes int
	// Gin framework configuration
	GinMode            string
	GinPath            string
	AllowedOrigins     []string
	RateLimitPerMinute int
	// Post store: "mongo" (default) or "mysql"
	StoreDriver   string
	MongoURI      string
	MongoDatabase string
	DatabaseURI   string
	DBHost        string
	DBPort        string
	DBUser        string
	DBPassword    string
	DBName        string
	// Redis for token revocation; empty host keeps revocations in memory
	RedisHost     string
	RedisPort     int
	RedisDB       int
	RedisPassword string
	// Logging configuration
	LogLevel      string
	LogPath       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
	LogCompress   bool
	// Image intake
	ImageDir       string
	ImageMaxSizeMB int
	ImageMIMETypes map[string]string
}

var cfg AppConfig
var loaded bool

// Load reads configuration once during boot and exits when it is unusable.
func Load(path string) AppConfig {
	if loaded {
		return cfg
	}
	c, err := LoadFrom(path)
	if err != nil {
		log.Fatal(err)
	}
	cfg = c
	loaded = true
	return cfg
}

// LoadFrom builds a configuration without caching it.
// Precedence: JSON file -> defaults for zero values -> environment variable overrides.
func LoadFrom(path string) (AppConfig, error) {
	var c AppConfig
	if path == "" {
		path = DefaultPath
	}
	if err := loadJSONConfig(path, &c); err != nil {
		return c, fmt.Errorf("read %s: %w", path, err)
	}
	applyDefaults(&c)
	applyEnvOverrides(&c)

	if c.JWTSecret == "" {
		return c, errors.New("JWT_SECRET must be set in config or environment")
	}
	switch c.StoreDriver {
	case "mongo", "mysql":
	default:
		return c, fmt.Errorf("unsupported store driver %q", c.StoreDriver)
	}
	return c, nil
}

// loadJSONConfig reads grouped JSON sections into out. A missing file is not an error.
func loadJSONConfig(path string, out *AppConfig) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	defer f.Close()

	var raw map[string]any
	if err := json.NewDecoder(f).Decode(&raw); err != nil {
		return err
	}

	section := func(name string) map[string]any {
		if m, ok := raw[name].(map[string]any); ok {
			return m
		}
		return map[string]any{}
	}
	getString := func(m map[string]any, key string) string {
		if s, ok := m[key].(string); ok {
			return s
		}
		return ""
	}
	getInt := func(m map[string]any, key string) int {
		if f, ok := m[key].(float64); ok {
			return int(f)
		}
		return 0
	}
	getBool := func(m map[string]any, key string) bool {
		b, _ := m[key].(bool)
		return b
	}

	app := section("app")
	out.AppPort = getString(app, "AppPort")
	out.JWTSecret = getString(app, "JWTSecret")
	out.TokenTTLMinutes = getInt(app, "TokenTTLMinutes")
	out.GinMode = getString(app, "GinMode")
	out.GinPath = getString(app, "GinPath")
	out.RateLimitPerMinute = getInt(app, "RateLimitPerMinute")
	if arr, ok := app["AllowedOrigins"].([]any); ok {
		for _, it := range arr {
			if s, ok := it.(string); ok {
				out.AllowedOrigins = append(out.AllowedOrigins, s)
			}
		}
	}

	store := section("store")
	out.StoreDriver = getString(store, "Driver")
	out.MongoURI = getString(store, "MongoURI")
	out.MongoDatabase = getString(store, "MongoDatabase")
	out.DatabaseURI = getString(store, "DatabaseURI")
	out.DBHost = getString(store, "DBHost")
	out.DBPort = getString(store, "DBPort")
	out.DBUser = getString(store, "DBUser")
	out.DBPassword = getString(store, "DBPassword")
	out.DBName = getString(store, "DBName")

	redis := section("redis")
	out.RedisHost = getString(redis, "Host")
	out.RedisPort = getInt(redis, "Port")
	out.RedisDB = getInt(redis, "DB")
	out.RedisPassword = getString(redis, "Password")

	logs := section("log")
	out.LogLevel = getString(logs, "Level")
	out.LogPath = getString(logs, "Path")
	out.LogMaxSizeMB = getInt(logs, "MaxSizeMB")
	out.LogMaxBackups = getInt(logs, "MaxBackups")
	out.LogMaxAgeDays = getInt(logs, "MaxAgeDays")
	out.LogCompress = getBool(logs, "Compress")

	images := section("images")
	out.ImageDir = getString(images, "Dir")
	out.ImageMaxSizeMB = getInt(images, "MaxSizeMB")
	if m, ok := images["MIMETypes"].(map[string]any); ok {
		out.ImageMIMETypes = map[string]string{}
		for mime, ext := range m {
			if s, ok := ext.(string); ok && s != "" {
				out.ImageMIMETypes[strings.ToLower(mime)] = s
			}
		}
	}
	return nil
}

// DefaultImageMIMETypes maps accepted upload MIME types to stored file extensions.
func DefaultImageMIMETypes() map[string]string {
	return map[string]string{
		"image/png":  "png",
		"image/jpeg": "jpeg",
		"image/jpg":  "jpg",
	}
}

// applyDefaults sets sane defaults for zero-value fields.
func applyDefaults(c *AppConfig) {
	if c.AppPort == "" {
		c.AppPort = "3000"
	}
	if c.TokenTTLMinutes == 0 {
		c.TokenTTLMinutes = 60
	}
	if c.GinMode == "" {
		c.GinMode = "release"
	}
	if c.GinPath == "" {
		c.GinPath = "logs/go_gin.log"
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"*"}
	}
	if c.RateLimitPerMinute == 0 {
		c.RateLimitPerMinute = 60
	}
	if c.StoreDriver == "" {
		c.StoreDriver = "mongo"
	}
	if c.MongoURI == "" {
		c.MongoURI = "mongodb://127.0.0.1:27017"
	}
	if c.MongoDatabase == "" {
		c.MongoDatabase = "postboard"
	}
	if c.DBHost == "" {
		c.DBHost = "127.0.0.1"
	}
	if c.DBPort == "" {
		c.DBPort = "3306"
	}
	if c.DBUser == "" {
		c.DBUser = "root"
	}
	if c.DBName == "" {
		c.DBName = "postboard"
	}
	if c.RedisPort == 0 {
		c.RedisPort = 6379
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogMaxSizeMB == 0 {
		c.LogMaxSizeMB = 100
	}
	if c.LogMaxBackups == 0 {
		c.LogMaxBackups = 3
	}
	if c.LogMaxAgeDays == 0 {
		c.LogMaxAgeDays = 7
	}
	if c.ImageDir == "" {
		c.ImageDir = "images"
	}
	if c.ImageMaxSizeMB == 0 {
		c.ImageMaxSizeMB = 10
	}
	if len(c.ImageMIMETypes) == 0 {
		c.ImageMIMETypes = DefaultImageMIMETypes()
	}
}

// applyEnvOverrides maps known environment variables onto config values when present.
func applyEnvOverrides(c *AppConfig) {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
				*dst = n
			}
		}
	}

	setString("APP_PORT", &c.AppPort)
	setString("JWT_SECRET", &c.JWTSecret)
	setInt("TOKEN_TTL_MINUTES", &c.TokenTTLMinutes)
	setString("GIN_MODE", &c.GinMode)
	setString("GIN_PATH", &c.GinPath)
	setInt("RATE_LIMIT_PER_MINUTE", &c.RateLimitPerMinute)
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		c.AllowedOrigins = splitAndTrim(v)
	}

	setString("STORE_DRIVER", &c.StoreDriver)
	setString("MONGO_URI", &c.MongoURI)
	setString("MONGO_DATABASE", &c.MongoDatabase)
	setString("DATABASE_URI", &c.DatabaseURI)
	setString("DB_HOST", &c.DBHost)
	setString("DB_PORT", &c.DBPort)
	setString("DB_USER", &c.DBUser)
	setString("DB_PASSWORD", &c.DBPassword)
	setString("DB_NAME", &c.DBName)

	setString("REDIS_HOST", &c.RedisHost)
	setInt("REDIS_PORT", &c.RedisPort)
	setInt("REDIS_DB", &c.RedisDB)
	setString("REDIS_PASSWORD", &c.RedisPassword)

	setString("LOG_LEVEL", &c.LogLevel)
	setString("LOG_PATH", &c.LogPath)
	setInt("LOG_MAX_SIZE_MB", &c.LogMaxSizeMB)
	setInt("LOG_MAX_BACKUPS", &c.LogMaxBackups)
	setInt("LOG_MAX_AGE_DAYS", &c.LogMaxAgeDays)
	if v := os.Getenv("LOG_COMPRESS"); v != "" {
		c.LogCompress, _ = strconv.ParseBool(v)
	}

	setString("IMAGE_DIR", &c.ImageDir)
	setInt("IMAGE_MAX_SIZE_MB", &c.ImageMaxSizeMB)

	c.StoreDriver = strings.ToLower(strings.TrimSpace(c.StoreDriver))
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
