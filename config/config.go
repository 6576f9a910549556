package config

import (
	"log"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	PublicHost        string `mapstructure:"PUBLIC_HOST"` // host Twilio connects back to (wss://)
	DatabaseURL       string `mapstructure:"DATABASE_URL"`
	Env               string `mapstructure:"ENV"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Redis configuration.
	RedisAddr           string `mapstructure:"REDIS_ADDR"`
	RedisPassword       string `mapstructure:"REDIS_PASSWORD"`
	RedisConversationDB int    `mapstructure:"REDIS_CONVERSATION_DB"`

	// Twilio call control.
	TwilioAccountSID string `mapstructure:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken  string `mapstructure:"TWILIO_AUTH_TOKEN"`
	TwilioVoice      string `mapstructure:"TWILIO_VOICE"`

	// Google credentials.
	GoogleServiceAccountFile string `mapstructure:"GOOGLE_SERVICE_ACCOUNT_FILE"`
	GeminiAPIKey             string `mapstructure:"GEMINI_API_KEY"`
	GeminiModel              string `mapstructure:"GEMINI_MODEL"`

	// Speech-to-text retry policy.
	STTMaxAttempts    int `mapstructure:"STT_MAX_ATTEMPTS"`
	STTBackoffMillis  int `mapstructure:"STT_BACKOFF_MILLIS"`
	STTTimeoutSeconds int `mapstructure:"STT_TIMEOUT_SECONDS"`

	// Audio segmentation thresholds.
	SilenceFrames     int `mapstructure:"SILENCE_FRAMES"`
	MinUtteranceBytes int `mapstructure:"MIN_UTTERANCE_BYTES"`
	MaxBufferBytes    int `mapstructure:"MAX_BUFFER_BYTES"`

	// Utterance worker pool size.
	PipelineWorkers int `mapstructure:"PIPELINE_WORKERS"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	// Set default values.
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_CONVERSATION_DB", 0)
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("TWILIO_VOICE", "Polly.Joanna")
	viper.SetDefault("GEMINI_MODEL", "models/gemini-1.5-pro")
	viper.SetDefault("STT_MAX_ATTEMPTS", 3)
	viper.SetDefault("STT_BACKOFF_MILLIS", 500)
	viper.SetDefault("STT_TIMEOUT_SECONDS", 20)
	viper.SetDefault("SILENCE_FRAMES", 12)
	viper.SetDefault("MIN_UTTERANCE_BYTES", 8000)
	viper.SetDefault("MAX_BUFFER_BYTES", 32000)
	viper.SetDefault("PIPELINE_WORKERS", 8)

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}
