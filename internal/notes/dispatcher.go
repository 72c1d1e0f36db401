package notes

import (
	"context"
	"strings"

	"github.com/HongCH-code/Notes-Assistant/internal/channels/line"
	"github.com/HongCH-code/Notes-Assistant/internal/observability/metrics"
	"github.com/HongCH-code/Notes-Assistant/pkg/logging"
)

// CommandPrefix marks a text message as a summarization request.
const CommandPrefix = "/sum"

const dedupeProvider = "line"

// Messenger is the outbound side of the transport adapter: a single-use
// reply channel and a repeatable, identity-addressed push channel.
type Messenger interface {
	ReplyText(ctx context.Context, replyToken, text string) error
	PushText(ctx context.Context, to, text string) error
}

type processedEventStore interface {
	AlreadyProcessed(ctx context.Context, provider, eventID string) (bool, error)
	MarkProcessed(ctx context.Context, provider, eventID string) (bool, error)
}

// Dispatcher decides synchronously, per inbound event, between the fast path
// (answer inline) and the slow path (acknowledge inline, defer to a
// background job).
//
// Invariant: exactly one reply-channel call per inbound event — the echo, a
// usage hint, an acknowledgement, or a best-effort apology. Everything after
// that first reply goes through the push channel.
type Dispatcher struct {
	publisher *Publisher
	messenger Messenger
	processed processedEventStore
	metrics   *metrics.PipelineMetrics
	logger    *logging.Logger
}

// DispatcherOption customizes dispatcher behavior.
type DispatcherOption func(*Dispatcher)

// WithProcessedEventStore enables webhook redelivery dedupe.
func WithProcessedEventStore(store processedEventStore) DispatcherOption {
	return func(d *Dispatcher) {
		d.processed = store
	}
}

// WithDispatcherMetrics wires inbound event metrics.
func WithDispatcherMetrics(m *metrics.PipelineMetrics) DispatcherOption {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

// NewDispatcher builds a dispatcher around the publisher and messenger.
func NewDispatcher(publisher *Publisher, messenger Messenger, logger *logging.Logger, opts ...DispatcherOption) *Dispatcher {
	if publisher == nil {
		panic("notes: publisher cannot be nil")
	}
	if messenger == nil {
		panic("notes: messenger cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}

	d := &Dispatcher{
		publisher: publisher,
		messenger: messenger,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// HandleEvent runs the synchronous half of event handling. It never panics
// past its boundary: a failure here becomes a best-effort apology, not a
// server error.
func (d *Dispatcher) HandleEvent(ctx context.Context, evt line.InboundEvent) {
	replied := false

	defer func() {
		r := recover()
		if r == nil {
			return
		}
		d.logger.Error("dispatcher recovered from panic", "event_type", evt.Kind, "panic", r)
		d.metrics.ObserveInbound(string(evt.Kind), "panic")
		if !replied {
			d.reply(ctx, evt.ReplyToken, msgApology)
		} else {
			d.push(ctx, evt.SenderID, msgApology)
		}
	}()

	if d.isDuplicate(ctx, evt) {
		d.logger.Info("skipping redelivered webhook event", "webhook_event_id", evt.WebhookEventID)
		d.metrics.ObserveInbound(string(evt.Kind), "duplicate")
		return
	}

	switch evt.Kind {
	case line.EventText:
		d.handleText(ctx, evt, &replied)
	case line.EventAudio:
		// Ack first so it always precedes pipeline work, then enqueue.
		replied = true
		d.reply(ctx, evt.ReplyToken, msgAckAudio)
		d.startJob(ctx, evt, jobPayload{Kind: jobKindAudio, Audio: &AudioJob{
			SenderID:   evt.SenderID,
			MessageID:  evt.MessageID,
			DurationMS: evt.DurationMS,
		}})
	case line.EventImage:
		replied = true
		d.reply(ctx, evt.ReplyToken, msgAckImage)
		d.startJob(ctx, evt, jobPayload{Kind: jobKindImage, Image: &ImageJob{
			SenderID:  evt.SenderID,
			MessageID: evt.MessageID,
		}})
	default:
		d.logger.Warn("ignoring event of unknown kind", "event_type", evt.Kind)
	}
}

func (d *Dispatcher) handleText(ctx context.Context, evt line.InboundEvent, replied *bool) {
	text := evt.Text

	if !strings.HasPrefix(text, CommandPrefix) {
		// Echo semantics: answer inline with the text verbatim, no job.
		*replied = true
		d.reply(ctx, evt.ReplyToken, text)
		d.metrics.ObserveInbound(string(evt.Kind), "echo")
		return
	}

	content := strings.TrimSpace(strings.TrimPrefix(text, CommandPrefix))
	if content == "" {
		*replied = true
		d.reply(ctx, evt.ReplyToken, msgUsageHint)
		d.metrics.ObserveInbound(string(evt.Kind), "usage")
		return
	}

	*replied = true
	d.reply(ctx, evt.ReplyToken, msgAckSummary)
	d.startJob(ctx, evt, jobPayload{Kind: jobKindSummary, Summary: &SummaryJob{
		SenderID: evt.SenderID,
		Content:  content,
	}})
}

// startJob enqueues exactly one background job. The ack reply has already
// consumed the reply token, so an enqueue failure falls back to a push.
func (d *Dispatcher) startJob(ctx context.Context, evt line.InboundEvent, payload jobPayload) {
	if err := d.publisher.enqueue(ctx, payload); err != nil {
		d.logger.Error("failed to start note job", "error", err, "kind", payload.Kind, "sender_id", evt.SenderID)
		d.metrics.ObserveInbound(string(evt.Kind), "enqueue_failed")
		d.push(ctx, evt.SenderID, msgApology)
		return
	}
	d.metrics.ObserveInbound(string(evt.Kind), "ack")
}

// isDuplicate marks the event processed and reports whether it had been seen
// before. Dedupe failures are treated as "not a duplicate": better a repeated
// note than a dropped one.
func (d *Dispatcher) isDuplicate(ctx context.Context, evt line.InboundEvent) bool {
	if d.processed == nil || strings.TrimSpace(evt.WebhookEventID) == "" {
		return false
	}
	first, err := d.processed.MarkProcessed(ctx, dedupeProvider, evt.WebhookEventID)
	if err != nil {
		d.logger.Warn("webhook dedupe check failed", "error", err, "webhook_event_id", evt.WebhookEventID)
		return false
	}
	return !first
}

func (d *Dispatcher) reply(ctx context.Context, replyToken, text string) {
	if err := d.messenger.ReplyText(ctx, replyToken, text); err != nil {
		d.logger.Error("failed to send reply", "error", err)
	}
}

func (d *Dispatcher) push(ctx context.Context, to, text string) {
	if err := d.messenger.PushText(ctx, to, text); err != nil {
		d.logger.Warn("failed to send push", "error", err, "to", to)
	}
}
