package line

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/HongCH-code/Notes-Assistant/pkg/logging"
)

// WebhookHandler verifies and decodes inbound LINE webhook deliveries.
type WebhookHandler struct {
	channelSecret string
	onEvent       func(evt InboundEvent)
	logger        *logging.Logger
}

// NewWebhookHandler creates a webhook handler. onEvent is called for each
// decoded message event, after the HTTP response has been written.
func NewWebhookHandler(channelSecret string, onEvent func(InboundEvent), logger *logging.Logger) *WebhookHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &WebhookHandler{
		channelSecret: channelSecret,
		onEvent:       onEvent,
		logger:        logger,
	}
}

// HandleInbound handles POST webhook deliveries. Invalid signatures are
// rejected with 401 and produce no side effects. Valid deliveries are
// acknowledged with 200 before event processing starts, to stay inside the
// platform's delivery window.
func (h *WebhookHandler) HandleInbound(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	signature := r.Header.Get("X-Line-Signature")
	if !VerifySignature(h.channelSecret, body, signature) {
		h.logger.Warn("rejecting webhook with invalid signature")
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req webhookRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	w.WriteHeader(http.StatusOK)

	for _, evt := range ParseWebhookRequest(req) {
		if h.onEvent != nil {
			h.onEvent(evt)
		}
	}
}

// ParseWebhookRequest extracts the message events this bot understands.
// Non-message events (follow, unfollow, join, ...) are skipped.
func ParseWebhookRequest(req webhookRequest) []InboundEvent {
	var events []InboundEvent

	for _, e := range req.Events {
		if e.Type != "message" || e.Message == nil || e.Source == nil {
			continue
		}

		evt := InboundEvent{
			ReplyToken:     e.ReplyToken,
			SenderID:       e.Source.UserID,
			WebhookEventID: e.WebhookEventID,
			Timestamp:      time.UnixMilli(e.Timestamp),
		}
		if e.DeliveryContext != nil {
			evt.Redelivery = e.DeliveryContext.IsRedelivery
		}

		switch e.Message.Type {
		case "text":
			evt.Kind = EventText
			evt.Text = e.Message.Text
		case "audio":
			evt.Kind = EventAudio
			evt.MessageID = e.Message.ID
			evt.DurationMS = e.Message.Duration
		case "image":
			evt.Kind = EventImage
			evt.MessageID = e.Message.ID
		default:
			continue
		}

		events = append(events, evt)
	}

	return events
}

// VerifySignature verifies the X-Line-Signature header: the base64-encoded
// HMAC-SHA256 of the raw request body keyed by the channel secret.
func VerifySignature(channelSecret string, body []byte, signature string) bool {
	if channelSecret == "" || signature == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(channelSecret))
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(signature))
}
