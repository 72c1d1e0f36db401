package line

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	defaultAPIBaseURL     = "https://api.line.me"
	defaultDataAPIBaseURL = "https://api-data.line.me"
	defaultUserAgent      = "notes-assistant-line/0.1"

	// LINE caps audio messages at 200MB; anything larger is a decoding bug.
	maxContentBytes = 200 << 20
)

// Config controls how the Messaging API client behaves.
type Config struct {
	AccessToken    string
	APIBaseURL     string
	DataAPIBaseURL string
	Timeout        time.Duration
	HTTPClient     *http.Client
	Logger         *slog.Logger
	UserAgent      string
}

// Client wraps the LINE Messaging API endpoints used by the bot: the
// single-use reply channel, the identity-addressed push channel, and content
// download for media messages.
type Client struct {
	accessToken string
	apiBase     string
	dataBase    string
	httpClient  *http.Client
	logger      *slog.Logger
	userAgent   string
}

// New creates a configured Client with sane defaults.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.AccessToken) == "" {
		return nil, errors.New("line: channel access token is required")
	}
	apiBase := strings.TrimSpace(cfg.APIBaseURL)
	if apiBase == "" {
		apiBase = defaultAPIBaseURL
	}
	apiBase = strings.TrimRight(apiBase, "/")
	dataBase := strings.TrimSpace(cfg.DataAPIBaseURL)
	if dataBase == "" {
		dataBase = defaultDataAPIBaseURL
	}
	dataBase = strings.TrimRight(dataBase, "/")
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &Client{
		accessToken: cfg.AccessToken,
		apiBase:     apiBase,
		dataBase:    dataBase,
		httpClient:  httpClient,
		logger:      logger,
		userAgent:   userAgent,
	}, nil
}

// ReplyText sends a single text message on the reply channel. The token is
// single-use: a second call with the same token fails at the API.
func (c *Client) ReplyText(ctx context.Context, replyToken, text string) error {
	if strings.TrimSpace(replyToken) == "" {
		return errors.New("line: reply token is required")
	}
	body := replyRequest{
		ReplyToken: replyToken,
		Messages:   []textMessage{{Type: "text", Text: text}},
	}
	return c.postJSON(ctx, c.apiBase+"/v2/bot/message/reply", body)
}

// PushText sends a single text message to a recipient outside any reply
// window. Safe to call repeatedly for the same recipient.
func (c *Client) PushText(ctx context.Context, to, text string) error {
	if strings.TrimSpace(to) == "" {
		return errors.New("line: push recipient is required")
	}
	body := pushRequest{
		To:       to,
		Messages: []textMessage{{Type: "text", Text: text}},
	}
	return c.postJSON(ctx, c.apiBase+"/v2/bot/message/push", body)
}

// GetContent downloads the binary payload of a media message.
func (c *Client) GetContent(ctx context.Context, messageID string) ([]byte, error) {
	if strings.TrimSpace(messageID) == "" {
		return nil, errors.New("line: message id is required")
	}

	url := fmt.Sprintf("%s/v2/bot/message/%s/content", c.dataBase, messageID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("line: build content request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("line: fetch content %s: %w", messageID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.decodeError(resp, "content")
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxContentBytes))
	if err != nil {
		return nil, fmt.Errorf("line: read content %s: %w", messageID, err)
	}
	return data, nil
}

func (c *Client) postJSON(ctx context.Context, url string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("line: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("line: build request: %w", err)
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("line: send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.decodeError(resp, "message")
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("User-Agent", c.userAgent)
}

func (c *Client) decodeError(resp *http.Response, op string) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))

	var apiErr apiError
	if err := json.Unmarshal(data, &apiErr); err == nil && apiErr.Message != "" {
		return fmt.Errorf("line: %s request failed: %s (status %d)", op, apiErr.Message, resp.StatusCode)
	}
	return fmt.Errorf("line: %s request failed with status %d", op, resp.StatusCode)
}
