package line

import "time"

// EventKind discriminates the inbound message types this bot handles.
type EventKind string

const (
	EventText  EventKind = "text"
	EventAudio EventKind = "audio"
	EventImage EventKind = "image"
)

// InboundEvent is a decoded webhook message event.
//
// ReplyToken is single-use and only valid during the synchronous request that
// delivered the event; SenderID addresses out-of-band pushes. MessageID is
// the opaque handle for downloadable content (audio/image only).
type InboundEvent struct {
	Kind           EventKind
	ReplyToken     string
	SenderID       string
	MessageID      string
	Text           string
	DurationMS     int64
	WebhookEventID string
	Redelivery     bool
	Timestamp      time.Time
}

// webhookRequest mirrors the LINE webhook delivery body.
type webhookRequest struct {
	Destination string         `json:"destination"`
	Events      []webhookEvent `json:"events"`
}

type webhookEvent struct {
	Type            string           `json:"type"`
	Timestamp       int64            `json:"timestamp"`
	ReplyToken      string           `json:"replyToken"`
	WebhookEventID  string           `json:"webhookEventId"`
	Source          *eventSource     `json:"source"`
	Message         *eventMessage    `json:"message"`
	DeliveryContext *deliveryContext `json:"deliveryContext"`
}

type eventSource struct {
	Type    string `json:"type"`
	UserID  string `json:"userId"`
	GroupID string `json:"groupId"`
	RoomID  string `json:"roomId"`
}

type eventMessage struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Text     string `json:"text"`
	Duration int64  `json:"duration"`
}

type deliveryContext struct {
	IsRedelivery bool `json:"isRedelivery"`
}

// textMessage is the outbound message payload for reply and push calls.
type textMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type replyRequest struct {
	ReplyToken string        `json:"replyToken"`
	Messages   []textMessage `json:"messages"`
}

type pushRequest struct {
	To       string        `json:"to"`
	Messages []textMessage `json:"messages"`
}

type apiError struct {
	Message string `json:"message"`
	Details []struct {
		Message  string `json:"message"`
		Property string `json:"property"`
	} `json:"details"`
}
