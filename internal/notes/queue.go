package notes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Queue is the transport between the dispatcher and the background workers.
// MemoryQueue serves single-process deployments; SQSQueue serves everything
// else.
type Queue interface {
	Send(ctx context.Context, body string) error
	Receive(ctx context.Context, maxMessages int, waitSeconds int) ([]queueMessage, error)
	Delete(ctx context.Context, receiptHandle string) error
}

type queueMessage struct {
	ID            string
	Body          string
	ReceiptHandle string
}

type jobKind string

const (
	jobKindSummary jobKind = "summary"
	jobKindAudio   jobKind = "audio"
	jobKindImage   jobKind = "image"
)

// SummaryJob carries a command-prefixed text request: the trimmed content is
// available at enqueue time, so no fetch is needed.
type SummaryJob struct {
	SenderID string `json:"senderId"`
	Content  string `json:"content"`
}

// AudioJob carries an audio message reference plus the duration the platform
// already reported synchronously.
type AudioJob struct {
	SenderID   string `json:"senderId"`
	MessageID  string `json:"messageId"`
	DurationMS int64  `json:"durationMs"`
}

// ImageJob carries an image message reference.
type ImageJob struct {
	SenderID  string `json:"senderId"`
	MessageID string `json:"messageId"`
}

// jobPayload is the queued unit of work. Exactly one of the per-kind variants
// is set; required fields differ per content kind.
type jobPayload struct {
	ID      string      `json:"id"`
	Kind    jobKind     `json:"kind"`
	Summary *SummaryJob `json:"summary,omitempty"`
	Audio   *AudioJob   `json:"audio,omitempty"`
	Image   *ImageJob   `json:"image,omitempty"`
}

func (p jobPayload) validate() error {
	switch p.Kind {
	case jobKindSummary:
		if p.Summary == nil || strings.TrimSpace(p.Summary.SenderID) == "" || strings.TrimSpace(p.Summary.Content) == "" {
			return errors.New("notes: summary job requires sender id and content")
		}
	case jobKindAudio:
		if p.Audio == nil || strings.TrimSpace(p.Audio.SenderID) == "" || strings.TrimSpace(p.Audio.MessageID) == "" {
			return errors.New("notes: audio job requires sender id and message id")
		}
	case jobKindImage:
		if p.Image == nil || strings.TrimSpace(p.Image.SenderID) == "" || strings.TrimSpace(p.Image.MessageID) == "" {
			return errors.New("notes: image job requires sender id and message id")
		}
	default:
		return fmt.Errorf("notes: unknown job kind %q", p.Kind)
	}
	return nil
}

// senderID returns the push recipient for whichever variant is set.
func (p jobPayload) senderID() string {
	switch {
	case p.Summary != nil:
		return p.Summary.SenderID
	case p.Audio != nil:
		return p.Audio.SenderID
	case p.Image != nil:
		return p.Image.SenderID
	}
	return ""
}

func encodePayload(payload jobPayload) (jobPayload, string, error) {
	if payload.ID == "" {
		payload.ID = uuid.NewString()
	}
	if err := payload.validate(); err != nil {
		return jobPayload{}, "", err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return jobPayload{}, "", fmt.Errorf("notes: failed to encode payload: %w", err)
	}

	return payload, string(body), nil
}
