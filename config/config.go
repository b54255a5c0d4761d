package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type Config struct {
	// Server settings
	ServerPort      string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	Debug           bool
	Version         string

	// Logging
	LogDir    string
	LogLevel  string
	LogFormat string

	// Transcripts longer than this many characters are rejected. Zero disables the check.
	MaxTranscriptChars int

	Completion CompletionConfig
	CORS       CORSConfig
	RateLimit  RateLimitConfig
	Client     ClientConfig
	Spaces     SpacesConfig
}

type CompletionConfig struct {
	BaseURL            string
	SummaryModel       string
	SummaryTemperature float32
	SummaryMaxTokens   int
	AskModel           string
	AskTemperature     float32
}

type CORSConfig struct {
	Enabled          bool
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	AllowCredentials bool
	MaxAge           int
}

type RateLimitConfig struct {
	Enabled           bool
	RequestsPerMinute int
	BurstSize         int
}

type ClientConfig struct {
	RelayURL       string
	DBPath         string
	YouTubeBaseURL string
}

// SpacesConfig selects the S3-compatible summary slot when Bucket is set.
type SpacesConfig struct {
	AccessKey string
	SecretKey string
	Region    string
	Endpoint  string
	Bucket    string
}

// Load reads a .env file when one exists and builds the configuration from
// the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logrus.WithError(err).Warn("Could not load .env file, using process environment")
	}

	cfg := LoadConfig()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func LoadConfig() *Config {
	return &Config{
		ServerPort:      GetEnv("SERVER_PORT", "3000"),
		ReadTimeout:     getEnvAsDuration("READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    getEnvAsDuration("WRITE_TIMEOUT", 0),
		IdleTimeout:     getEnvAsDuration("IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
		Debug:           getEnvAsBool("DEBUG", false),
		Version:         GetEnv("VERSION", "dev"),

		LogDir:    GetEnv("LOG_DIR", ""),
		LogLevel:  GetEnv("LOG_LEVEL", "info"),
		LogFormat: GetEnv("LOG_FORMAT", "text"),

		MaxTranscriptChars: getEnvAsInt("MAX_TRANSCRIPT_CHARS", 12000),

		Completion: CompletionConfig{
			BaseURL:            GetEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			SummaryModel:       GetEnv("SUMMARY_MODEL", "gpt-4o"),
			SummaryTemperature: getEnvAsFloat("SUMMARY_TEMPERATURE", 0.1),
			SummaryMaxTokens:   getEnvAsInt("SUMMARY_MAX_TOKENS", 250),
			AskModel:           GetEnv("ASK_MODEL", "gpt-4"),
			AskTemperature:     getEnvAsFloat("ASK_TEMPERATURE", 0.5),
		},

		CORS: CORSConfig{
			Enabled:          getEnvAsBool("CORS_ENABLED", true),
			AllowedOrigins:   getEnvAsStringSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
			AllowedMethods:   getEnvAsStringSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "OPTIONS"}),
			AllowedHeaders:   getEnvAsStringSlice("CORS_ALLOWED_HEADERS", []string{"Content-Type", "Authorization"}),
			AllowCredentials: getEnvAsBool("CORS_ALLOW_CREDENTIALS", false),
			MaxAge:           getEnvAsInt("CORS_MAX_AGE", 86400),
		},

		RateLimit: RateLimitConfig{
			Enabled:           getEnvAsBool("RATE_LIMIT_ENABLED", false),
			RequestsPerMinute: getEnvAsInt("RATE_LIMIT_RPM", 60),
			BurstSize:         getEnvAsInt("RATE_LIMIT_BURST", 10),
		},

		Client: ClientConfig{
			RelayURL:       GetEnv("RELAY_URL", "http://localhost:3000"),
			DBPath:         GetEnv("DB_PATH", "./data/yt-summary.db"),
			YouTubeBaseURL: GetEnv("YOUTUBE_BASE_URL", "https://www.youtube.com"),
		},

		Spaces: SpacesConfig{
			AccessKey: GetEnv("SPACES_ACCESS_KEY", ""),
			SecretKey: GetEnv("SPACES_SECRET_KEY", ""),
			Region:    GetEnv("SPACES_REGION", "us-east-1"),
			Endpoint:  GetEnv("SPACES_ENDPOINT", ""),
			Bucket:    GetEnv("SPACES_BUCKET", ""),
		},
	}
}

func GetEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		logrus.WithFields(logrus.Fields{
			"key":          key,
			"value":        value,
			"defaultValue": defaultValue,
		}).Warn("Invalid duration, using default")
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
		logrus.WithFields(logrus.Fields{
			"key":          key,
			"value":        value,
			"defaultValue": defaultValue,
		}).Warn("Invalid integer, using default")
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float32) float32 {
	if value, exists := os.LookupEnv(key); exists {
		if f, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(f)
		}
		logrus.WithFields(logrus.Fields{
			"key":          key,
			"value":        value,
			"defaultValue": defaultValue,
		}).Warn("Invalid float, using default")
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsStringSlice(key string, defaultValue []string) []string {
	if value, exists := os.LookupEnv(key); exists {
		if value = strings.TrimSpace(value); value != "" {
			parts := strings.Split(value, ",")
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			return parts
		}
	}
	return defaultValue
}

func (c *Config) Validate() error {
	if c.ServerPort == "" {
		return errors.New("server port is required")
	}
	if c.ReadTimeout <= 0 {
		return errors.New("read timeout must be greater than 0")
	}
	if c.WriteTimeout < 0 {
		return errors.New("write timeout must not be negative")
	}
	if c.IdleTimeout <= 0 {
		return errors.New("idle timeout must be greater than 0")
	}
	if c.MaxTranscriptChars < 0 {
		return errors.New("max transcript chars must not be negative")
	}
	if c.Completion.BaseURL == "" {
		return errors.New("completion base URL is required")
	}
	if c.Completion.SummaryModel == "" || c.Completion.AskModel == "" {
		return errors.New("completion models are required")
	}
	if c.RateLimit.Enabled && (c.RateLimit.RequestsPerMinute <= 0 || c.RateLimit.BurstSize <= 0) {
		return errors.New("rate limit requires positive requests per minute and burst size")
	}
	if c.Spaces.Bucket != "" && c.Spaces.Endpoint == "" {
		return errors.Errorf("spaces bucket %q configured without an endpoint", c.Spaces.Bucket)
	}
	return nil
}
