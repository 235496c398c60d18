package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultTMDBURL        = "https://api.themoviedb.org/3/"
	DefaultTMDBImageURL   = "https://image.tmdb.org/t/p/w500"
	DefaultFallbackPoster = "https://dummyimage.com/500x750/CCCCCC/ffffff.jpg&text=Poster+not+available"
)

type Config struct {
	Server ServerConfig
	TMDB   TMDBConfig
	Redis  RedisConfig
	Screen ScreenConfig
}

type ServerConfig struct {
	Env  string
	Port string
}

type TMDBConfig struct {
	APIKey         string
	BaseURL        string
	ImageBaseURL   string
	FallbackPoster string
	Timeout        time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type ScreenConfig struct {
	TTL time.Duration
}

// Load reads environment variables and returns a Config struct
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	timeoutSecs, err := getEnvInt("TMDB_TIMEOUT_SECS", 10)
	if err != nil {
		return nil, err
	}
	redisDB, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}
	ttlMinutes, err := getEnvInt("SCREEN_TTL_MINUTES", 30)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Env:  getEnv("APP_ENV", "local"),
			Port: getEnv("PORT", "4000"),
		},
		TMDB: TMDBConfig{
			// An empty key is allowed; TMDB answers 401 and the screen shows the toast.
			APIKey:         os.Getenv("TMDB_KEY"),
			BaseURL:        getEnv("TMDB_URL", DefaultTMDBURL),
			ImageBaseURL:   getEnv("TMDB_IMAGE_URL", DefaultTMDBImageURL),
			FallbackPoster: getEnv("TMDB_FALLBACK_POSTER", DefaultFallbackPoster),
			Timeout:        time.Duration(timeoutSecs) * time.Second,
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Screen: ScreenConfig{
			TTL: time.Duration(ttlMinutes) * time.Minute,
		},
	}

	// The endpoint is joined as BaseURL + "movie/popular"
	if !strings.HasSuffix(cfg.TMDB.BaseURL, "/") {
		cfg.TMDB.BaseURL += "/"
	}

	if timeoutSecs <= 0 {
		return nil, fmt.Errorf("TMDB_TIMEOUT_SECS must be positive")
	}
	if ttlMinutes <= 0 {
		return nil, fmt.Errorf("SCREEN_TTL_MINUTES must be positive")
	}
	if redisDB < 0 {
		return nil, fmt.Errorf("REDIS_DB must be non-negative")
	}
	if cfg.TMDB.FallbackPoster == "" {
		return nil, fmt.Errorf("TMDB_FALLBACK_POSTER must not be empty")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return parsed, nil
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// UsesRedis reports whether screen state should be kept in Redis
func (c *Config) UsesRedis() bool {
	return c.Redis.Addr != ""
}
