package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName                string
	AppEnv                 string
	AppPort                string
	DatabaseURL            string
	RedisURL               string
	JWTSecret              string
	JWTTokenTTL            time.Duration
	OpenAIAPIKey           string
	OpenAIModel            string
	JudgeBaseURL           string
	JudgeAuthToken         string
	JudgePollInterval      time.Duration
	JudgePollDeadline      time.Duration
	AzureSpeechKey         string
	AzureSpeechRegion      string
	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryUploadFolder string
	ProgramCacheTTL        time.Duration
	NATSURL                string
	NATSActivitySubject    string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("PAATHSHALA")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Paathshala API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("jwt.token_ttl", "24h")
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("judge.poll_interval", "500ms")
	v.SetDefault("judge.poll_deadline", "20s")
	v.SetDefault("cloudinary.folder", "paathshala/narration")
	v.SetDefault("program.cache_ttl", "5m")
	v.SetDefault("nats.activity_subject", "paathshala.activity")

	tokenTTL, err := parseDuration(v, "jwt.token_ttl")
	if err != nil {
		return Config{}, err
	}
	pollInterval, err := parseDuration(v, "judge.poll_interval")
	if err != nil {
		return Config{}, err
	}
	pollDeadline, err := parseDuration(v, "judge.poll_deadline")
	if err != nil {
		return Config{}, err
	}
	cacheTTL, err := parseDuration(v, "program.cache_ttl")
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppName:                v.GetString("app.name"),
		AppEnv:                 v.GetString("app.env"),
		AppPort:                v.GetString("app.port"),
		DatabaseURL:            v.GetString("database.url"),
		RedisURL:               v.GetString("redis.url"),
		JWTSecret:              v.GetString("jwt.secret"),
		JWTTokenTTL:            tokenTTL,
		OpenAIAPIKey:           v.GetString("openai.api_key"),
		OpenAIModel:            v.GetString("openai.model"),
		JudgeBaseURL:           v.GetString("judge.base_url"),
		JudgeAuthToken:         v.GetString("judge.auth_token"),
		JudgePollInterval:      pollInterval,
		JudgePollDeadline:      pollDeadline,
		AzureSpeechKey:         v.GetString("azure.speech_key"),
		AzureSpeechRegion:      v.GetString("azure.speech_region"),
		CloudinaryCloudName:    v.GetString("cloudinary.cloud_name"),
		CloudinaryAPIKey:       v.GetString("cloudinary.api_key"),
		CloudinaryAPISecret:    v.GetString("cloudinary.api_secret"),
		CloudinaryUploadFolder: v.GetString("cloudinary.folder"),
		ProgramCacheTTL:        cacheTTL,
		NATSURL:                v.GetString("nats.url"),
		NATSActivitySubject:    v.GetString("nats.activity_subject"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.JudgeBaseURL == "" {
		return Config{}, fmt.Errorf("judge base url must be provided")
	}

	if cfg.OpenAIAPIKey == "" {
		return Config{}, fmt.Errorf("openai api key must be provided")
	}

	return cfg, nil
}

func parseDuration(v *viper.Viper, key string) (time.Duration, error) {
	raw := v.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}

	return d, nil
}
