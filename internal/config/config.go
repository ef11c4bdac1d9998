package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port           string
	AllowedOrigins []string
	Development    bool
	Timezone       string

	SnapshotBackend string
	DatabaseURL     string
	MongoURI        string
	MongoDB         string
	SeedWorkspaces  []string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	AuthSecret            string
	AccessTokenTTLMinutes int
	AccessPIN             string

	BusinessName          string
	GeminiAPIKey          string
	GeminiModel           string
	InsightTimeoutSeconds int
	InsightCacheMinutes   int

	ArchiveBucket    string
	ArchiveEndpoint  string
	ArchiveRegion    string
	ArchiveAccessKey string
	ArchiveSecretKey string
	ArchivePrefix    string
	ArchivePathStyle bool
	ArchiveCron      string
}

// Load reads the environment, optionally seeded from a .env file. A
// missing file is not an error.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("failed loading env file %s: %w", envFile, err)
		}
	} else {
		_ = godotenv.Load()
	}

	cfg := Config{
		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "http://127.0.0.1:3000")),
		Development:    getBool("DEVELOPMENT", false),
		Timezone:       getEnv("TZ_NAME", "Asia/Dhaka"),

		SnapshotBackend: strings.ToLower(getEnv("SNAPSHOT_BACKEND", "")),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		MongoURI:        os.Getenv("MONGO_URI"),
		MongoDB:         getEnv("MONGO_DB", "sweetlive"),
		SeedWorkspaces:  splitList(os.Getenv("SEED_WORKSPACES")),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getInt("REDIS_DB", 0),

		AuthSecret:            strings.TrimSpace(os.Getenv("AUTH_SECRET")),
		AccessTokenTTLMinutes: getPositiveInt("ACCESS_TOKEN_TTL_MINUTES", 720),
		AccessPIN:             strings.TrimSpace(os.Getenv("ACCESS_PIN")),

		BusinessName:          getEnv("BUSINESS_NAME", "Sweet Live Bakery"),
		GeminiAPIKey:          strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		GeminiModel:           os.Getenv("GEMINI_MODEL"),
		InsightTimeoutSeconds: getPositiveInt("INSIGHT_TIMEOUT_SECONDS", 20),
		InsightCacheMinutes:   getPositiveInt("INSIGHT_CACHE_MINUTES", 30),

		ArchiveBucket:    os.Getenv("ARCHIVE_BUCKET"),
		ArchiveEndpoint:  os.Getenv("ARCHIVE_ENDPOINT"),
		ArchiveRegion:    getEnv("ARCHIVE_REGION", "us-east-1"),
		ArchiveAccessKey: os.Getenv("ARCHIVE_ACCESS_KEY"),
		ArchiveSecretKey: os.Getenv("ARCHIVE_SECRET_KEY"),
		ArchivePrefix:    getEnv("ARCHIVE_PREFIX", "snapshots"),
		ArchivePathStyle: getBool("ARCHIVE_PATH_STYLE", false),
		ArchiveCron:      getEnv("ARCHIVE_CRON", "30 23 * * *"),
	}

	if cfg.SnapshotBackend == "" {
		switch {
		case cfg.DatabaseURL != "":
			cfg.SnapshotBackend = "postgres"
		case cfg.MongoURI != "":
			cfg.SnapshotBackend = "mongo"
		default:
			cfg.SnapshotBackend = "memory"
		}
	}
	switch cfg.SnapshotBackend {
	case "memory", "postgres", "mongo":
	default:
		return Config{}, fmt.Errorf("unknown SNAPSHOT_BACKEND %q", cfg.SnapshotBackend)
	}
	return cfg, nil
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

func (c Config) AccessTokenTTL() time.Duration {
	return time.Duration(c.AccessTokenTTLMinutes) * time.Minute
}

func (c Config) InsightTimeout() time.Duration {
	return time.Duration(c.InsightTimeoutSeconds) * time.Second
}

func (c Config) InsightCacheTTL() time.Duration {
	return time.Duration(c.InsightCacheMinutes) * time.Minute
}

func (c Config) ArchiveEnabled() bool {
	return c.ArchiveBucket != ""
}

// Location resolves Timezone, falling back to the process local zone.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

func getEnv(key string, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}

func getInt(key string, fallback int) int {
	val, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return val
}

func getPositiveInt(key string, fallback int) int {
	val := getInt(key, fallback)
	if val < 1 {
		return fallback
	}
	return val
}

func getBool(key string, fallback bool) bool {
	val, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return val
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
