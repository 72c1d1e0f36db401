package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		LineChannelSecret:      "secret",
		LineChannelAccessToken: "token",
		GeminiAPIKey:           "gemini-key",
		OpenAIAPIKey:           "openai-key",
		NotesTable:             "notes",
		ImageBucket:            "note-images",
	}
}

func TestValidateAcceptsCompleteConfig(t *testing.T) {
	require.NoError(t, validConfig().Validate())
}

func TestValidateListsAllMissingVariables(t *testing.T) {
	cfg := &Config{}
	err := cfg.Validate()
	require.Error(t, err)

	for _, name := range []string{"LINE_CHANNEL_SECRET", "LINE_CHANNEL_ACCESS_TOKEN", "GEMINI_API_KEY", "OPENAI_API_KEY", "NOTES_TABLE", "IMAGE_BUCKET"} {
		assert.Contains(t, err.Error(), name)
	}
}

func TestValidateBucketOptionalWhenUploadsDisabled(t *testing.T) {
	cfg := validConfig()
	cfg.ImageBucket = ""
	cfg.DisableImageUploads = true
	require.NoError(t, cfg.Validate())
}

func TestValidateRequiresQueueURLForSQS(t *testing.T) {
	cfg := validConfig()
	cfg.UseSQSQueue = true
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NOTE_QUEUE_URL")
}

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 2, cfg.WorkerCount)
	assert.Equal(t, "zh", cfg.TranscribeLanguage)
	assert.Equal(t, "whisper-1", cfg.TranscriptionModel)
	assert.False(t, cfg.UseSQSQueue)
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("WORKER_COUNT", "8")
	t.Setenv("USE_SQS_QUEUE", "true")

	cfg := Load()

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 8, cfg.WorkerCount)
	assert.True(t, cfg.UseSQSQueue)
}
