package router

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/HongCH-code/Notes-Assistant/internal/channels/line"
	"github.com/HongCH-code/Notes-Assistant/pkg/logging"
)

func TestHealthEndpoint(t *testing.T) {
	r := New(&Config{Logger: logging.Default()})

	req := httptest.NewRequest("GET", "/health", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body["status"] != "ok" {
		t.Fatalf("unexpected body: %#v", body)
	}
}

func TestWebhookRouteWired(t *testing.T) {
	secret := "channel-secret"
	received := 0
	webhook := line.NewWebhookHandler(secret, func(line.InboundEvent) { received++ }, logging.Default())

	r := New(&Config{Logger: logging.Default(), Webhook: webhook})

	body := `{"events":[{"type":"message","replyToken":"rt","source":{"type":"user","userId":"u"},"message":{"id":"m","type":"text","text":"hi"}}]}`
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(body))

	req := httptest.NewRequest("POST", "/webhook", strings.NewReader(body))
	req.Header.Set("X-Line-Signature", base64.StdEncoding.EncodeToString(mac.Sum(nil)))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if received != 1 {
		t.Fatalf("expected one event to reach the handler, got %d", received)
	}
}

func TestMetricsRouteWired(t *testing.T) {
	metricsHandler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("# metrics"))
	})

	r := New(&Config{Logger: logging.Default(), MetricsHandler: metricsHandler})

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "# metrics") {
		t.Fatalf("expected metrics handler response, got %d %q", rec.Code, rec.Body.String())
	}
}

func TestUnknownRouteReturns404(t *testing.T) {
	r := New(&Config{Logger: logging.Default()})

	req := httptest.NewRequest("GET", "/nope", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
