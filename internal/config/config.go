package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string

	// LINE Messaging API
	LineChannelSecret      string
	LineChannelAccessToken string
	LineAPIBaseURL         string
	LineDataAPIBaseURL     string

	// Background jobs
	UseSQSQueue    bool
	NoteQueueURL   string
	WorkerCount    int
	QueueBufferLen int

	// AWS
	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string

	// Persistence / object storage
	NotesTable     string
	ImageBucket    string
	ImageKeyPrefix string

	// Enrichment vendors
	GeminiAPIKey        string
	GeminiModelID       string
	BedrockModelID      string
	OpenAIAPIKey        string
	OpenAIBaseURL       string
	TranscribeLanguage  string
	TranscriptionModel  string
	DisableImageUploads bool

	// Webhook dedupe
	RedisAddr     string
	RedisPassword string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		LineChannelSecret:      getEnv("LINE_CHANNEL_SECRET", ""),
		LineChannelAccessToken: getEnv("LINE_CHANNEL_ACCESS_TOKEN", ""),
		LineAPIBaseURL:         getEnv("LINE_API_BASE_URL", ""),
		LineDataAPIBaseURL:     getEnv("LINE_DATA_API_BASE_URL", ""),

		UseSQSQueue:    getEnvAsBool("USE_SQS_QUEUE", false),
		NoteQueueURL:   getEnv("NOTE_QUEUE_URL", ""),
		WorkerCount:    getEnvAsInt("WORKER_COUNT", 2),
		QueueBufferLen: getEnvAsInt("QUEUE_BUFFER_LEN", 128),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),

		NotesTable:     getEnv("NOTES_TABLE", "notes"),
		ImageBucket:    getEnv("IMAGE_BUCKET", ""),
		ImageKeyPrefix: getEnv("IMAGE_KEY_PREFIX", ""),

		GeminiAPIKey:        getEnv("GEMINI_API_KEY", ""),
		GeminiModelID:       getEnv("GEMINI_MODEL_ID", "gemini-2.5-flash"),
		BedrockModelID:      getEnv("BEDROCK_MODEL_ID", ""),
		OpenAIAPIKey:        getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:       getEnv("OPENAI_BASE_URL", ""),
		TranscribeLanguage:  getEnv("TRANSCRIBE_LANGUAGE", "zh"),
		TranscriptionModel:  getEnv("TRANSCRIPTION_MODEL", "whisper-1"),
		DisableImageUploads: getEnvAsBool("DISABLE_IMAGE_UPLOADS", false),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
	}
}

// Validate reports every required setting that is missing. Vendor credentials
// are checked at startup; a partially configured process must not serve
// webhooks.
func (c *Config) Validate() error {
	var missing []string

	if strings.TrimSpace(c.LineChannelSecret) == "" {
		missing = append(missing, "LINE_CHANNEL_SECRET")
	}
	if strings.TrimSpace(c.LineChannelAccessToken) == "" {
		missing = append(missing, "LINE_CHANNEL_ACCESS_TOKEN")
	}
	if strings.TrimSpace(c.GeminiAPIKey) == "" {
		missing = append(missing, "GEMINI_API_KEY")
	}
	if strings.TrimSpace(c.OpenAIAPIKey) == "" {
		missing = append(missing, "OPENAI_API_KEY")
	}
	if strings.TrimSpace(c.NotesTable) == "" {
		missing = append(missing, "NOTES_TABLE")
	}
	if !c.DisableImageUploads && strings.TrimSpace(c.ImageBucket) == "" {
		missing = append(missing, "IMAGE_BUCKET")
	}
	if c.UseSQSQueue && strings.TrimSpace(c.NoteQueueURL) == "" {
		missing = append(missing, "NOTE_QUEUE_URL")
	}

	if len(missing) > 0 {
		return fmt.Errorf("config: missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}
