package notes

import (
	"context"
	"fmt"

	"github.com/HongCH-code/Notes-Assistant/pkg/logging"
)

// Publisher enqueues note jobs for asynchronous processing.
type Publisher struct {
	queue  Queue
	logger *logging.Logger
}

// NewPublisher creates a queue-backed publisher.
func NewPublisher(queue Queue, logger *logging.Logger) *Publisher {
	if queue == nil {
		panic("notes: queue cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Publisher{
		queue:  queue,
		logger: logger,
	}
}

// EnqueueSummary publishes a summarization job.
func (p *Publisher) EnqueueSummary(ctx context.Context, job SummaryJob) error {
	return p.enqueue(ctx, jobPayload{Kind: jobKindSummary, Summary: &job})
}

// EnqueueAudio publishes an audio transcription job.
func (p *Publisher) EnqueueAudio(ctx context.Context, job AudioJob) error {
	return p.enqueue(ctx, jobPayload{Kind: jobKindAudio, Audio: &job})
}

// EnqueueImage publishes an image analysis job.
func (p *Publisher) EnqueueImage(ctx context.Context, job ImageJob) error {
	return p.enqueue(ctx, jobPayload{Kind: jobKindImage, Image: &job})
}

func (p *Publisher) enqueue(ctx context.Context, payload jobPayload) error {
	if ctx == nil {
		ctx = context.Background()
	}

	payload, body, err := encodePayload(payload)
	if err != nil {
		return err
	}

	if err := p.queue.Send(ctx, body); err != nil {
		return fmt.Errorf("notes: failed to enqueue job: %w", err)
	}

	p.logger.Debug("note job enqueued", "job_id", payload.ID, "kind", payload.Kind)
	return nil
}
