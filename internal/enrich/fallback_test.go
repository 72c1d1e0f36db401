package enrich

import (
	"context"
	"errors"
	"log/slog"
	"testing"
)

type countingLLM struct {
	calls int
	text  string
	err   error
}

func (c *countingLLM) Complete(_ context.Context, _ LLMRequest) (LLMResponse, error) {
	c.calls++
	if c.err != nil {
		return LLMResponse{}, c.err
	}
	return LLMResponse{Text: c.text}, nil
}

func TestFallbackNotUsedWhenPrimarySucceeds(t *testing.T) {
	primary := &countingLLM{text: "primary"}
	fallback := &countingLLM{text: "fallback"}
	client := NewFallbackLLMClient(primary, fallback, slog.Default())

	resp, err := client.Complete(context.Background(), LLMRequest{})
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if resp.Text != "primary" {
		t.Fatalf("expected primary response, got %q", resp.Text)
	}
	if fallback.calls != 0 {
		t.Fatalf("expected fallback untouched, got %d calls", fallback.calls)
	}
}

func TestFallbackUsedWhenPrimaryFails(t *testing.T) {
	primary := &countingLLM{err: errors.New("quota exceeded")}
	fallback := &countingLLM{text: "fallback"}
	client := NewFallbackLLMClient(primary, fallback, slog.Default())

	resp, err := client.Complete(context.Background(), LLMRequest{})
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if resp.Text != "fallback" {
		t.Fatalf("expected fallback response, got %q", resp.Text)
	}
}

func TestFallbackErrorReturnedWhenBothFail(t *testing.T) {
	primary := &countingLLM{err: errors.New("primary down")}
	fallback := &countingLLM{err: errors.New("fallback down")}
	client := NewFallbackLLMClient(primary, fallback, slog.Default())

	_, err := client.Complete(context.Background(), LLMRequest{})
	if err == nil || err.Error() != "fallback down" {
		t.Fatalf("expected fallback error, got %v", err)
	}
}

func TestPrimaryErrorReturnedWithoutFallback(t *testing.T) {
	primary := &countingLLM{err: errors.New("primary down")}
	client := NewFallbackLLMClient(primary, nil, slog.Default())

	_, err := client.Complete(context.Background(), LLMRequest{})
	if err == nil || err.Error() != "primary down" {
		t.Fatalf("expected primary error, got %v", err)
	}
}
