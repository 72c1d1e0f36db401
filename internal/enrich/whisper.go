package enrich

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

const (
	defaultTranscribeBaseURL = "https://api.openai.com/v1"
	defaultTranscribeModel   = "whisper-1"
)

// WhisperConfig controls the transcription client.
type WhisperConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// WhisperClient implements Transcriber against an OpenAI-compatible
// audio transcription endpoint.
type WhisperClient struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

// NewWhisperClient creates a configured transcription client.
func NewWhisperClient(cfg WhisperConfig) (*WhisperClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("enrich: transcription api key is required")
	}
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultTranscribeBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultTranscribeModel
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			// Transcription uploads the whole clip; give it more room than
			// the JSON endpoints get.
			timeout = 60 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &WhisperClient{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		model:      model,
		httpClient: httpClient,
	}, nil
}

// Transcribe uploads the audio clip and returns the recognized text.
func (c *WhisperClient) Transcribe(ctx context.Context, audio []byte, languageHint string) (string, error) {
	if len(audio) == 0 {
		return "", errors.New("enrich: audio payload is empty")
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	if err := writer.WriteField("model", c.model); err != nil {
		return "", fmt.Errorf("enrich: write field: %w", err)
	}
	if strings.TrimSpace(languageHint) != "" {
		if err := writer.WriteField("language", languageHint); err != nil {
			return "", fmt.Errorf("enrich: write field: %w", err)
		}
	}
	part, err := writer.CreateFormFile("file", "audio.m4a")
	if err != nil {
		return "", fmt.Errorf("enrich: create form file: %w", err)
	}
	if _, err := io.Copy(part, bytes.NewReader(audio)); err != nil {
		return "", fmt.Errorf("enrich: copy audio: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("enrich: close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/audio/transcriptions", &buf)
	if err != nil {
		return "", fmt.Errorf("enrich: build transcription request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("enrich: transcription request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("enrich: read transcription response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		if err := json.Unmarshal(data, &apiErr); err == nil && apiErr.Error.Message != "" {
			return "", fmt.Errorf("enrich: transcription failed: %s (status %d)", apiErr.Error.Message, resp.StatusCode)
		}
		return "", fmt.Errorf("enrich: transcription failed with status %d", resp.StatusCode)
	}

	var out struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return "", fmt.Errorf("enrich: decode transcription response: %w", err)
	}
	if strings.TrimSpace(out.Text) == "" {
		return "", errors.New("enrich: transcription returned empty text")
	}
	return out.Text, nil
}
