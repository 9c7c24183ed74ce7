package mymemory

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"gnurante/internal/services"
	"gnurante/internal/translate"
)

func TestClientTranslate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		if query.Get("q") != "Hello world" {
			t.Errorf("q = %q", query.Get("q"))
		}
		if query.Get("langpair") != "en|it" {
			t.Errorf("langpair = %q", query.Get("langpair"))
		}
		if query.Get("de") != "me@example.com" {
			t.Errorf("de = %q", query.Get("de"))
		}
		_, _ = w.Write([]byte(`{"responseData":{"translatedText":"Ciao mondo &amp; amici","match":0.98},"responseStatus":200,"responseDetails":"","quotaFinished":false}`))
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, Email: "me@example.com"})
	got, err := client.Translate(context.Background(), "Hello world", "eng", "Italian")
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if got != "Ciao mondo & amici" {
		t.Fatalf("Translate = %q", got)
	}
	if client.MaxBytes() != MaxBytes {
		t.Fatalf("MaxBytes = %d", client.MaxBytes())
	}
}

func TestClientTranslateInBandFailures(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		status    int
		transient bool
	}{
		{"quota", `{"responseData":{"translatedText":"MYMEMORY WARNING"},"responseStatus":429,"quotaFinished":true}`, http.StatusTooManyRequests, true},
		{"string status", `{"responseData":{"translatedText":"QUERY LENGTH LIMIT EXCEEDED"},"responseStatus":"403","responseDetails":"QUERY LENGTH LIMIT EXCEEDED"}`, http.StatusForbidden, false},
		{"server", `{"responseData":{"translatedText":""},"responseStatus":503}`, http.StatusServiceUnavailable, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := NewClient(Config{BaseURL: server.URL}).Translate(context.Background(), "Hello", "en", "it")
			var statusErr *services.HTTPStatusError
			if !errors.As(err, &statusErr) {
				t.Fatalf("expected HTTPStatusError, got %v", err)
			}
			if statusErr.StatusCode != tt.status || statusErr.Transient() != tt.transient {
				t.Fatalf("unexpected classification %+v", statusErr)
			}
		})
	}
}

func TestClientTranslateHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "5")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := NewClient(Config{BaseURL: server.URL}).Translate(context.Background(), "Hello", "en", "it")
	var statusErr *services.HTTPStatusError
	if !errors.As(err, &statusErr) || statusErr.RetryDelay() == 0 {
		t.Fatalf("expected HTTPStatusError with Retry-After, got %v", err)
	}
}

func TestClientTranslateRejectsUnknownLanguages(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://127.0.0.1:1"})
	_, err := client.Translate(context.Background(), "Hello", "und", "it")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestClientHealthCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("langpair") != "en|it" {
			t.Errorf("langpair = %q", r.URL.Query().Get("langpair"))
		}
		_, _ = w.Write([]byte(`{"responseData":{"translatedText":"ciao"},"responseStatus":200}`))
	}))
	defer server.Close()

	if err := NewClient(Config{BaseURL: server.URL}).HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck: %v", err)
	}
}

func TestEngineKeepsWideScriptQueriesUnderByteCap(t *testing.T) {
	var longest atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		if n := int64(len(q)); n > longest.Load() {
			longest.Store(n)
		}
		if len(q) > MaxBytes {
			_, _ = w.Write([]byte(`{"responseData":{"translatedText":"QUERY LENGTH LIMIT EXCEEDED"},"responseStatus":403}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"responseData":   map[string]any{"translatedText": q},
			"responseStatus": 200,
		})
	}))
	defer server.Close()

	unit := strings.Repeat("你好世界大家早上好", 30)
	engine := translate.NewEngine(NewClient(Config{BaseURL: server.URL}), translate.WithWorkers(1))
	batch, err := engine.TranslateAll(context.Background(), []string{unit}, "zh", "en")
	if err != nil {
		t.Fatalf("TranslateAll: %v", err)
	}
	outcome := batch.Results[0]
	if outcome.Err != nil {
		t.Fatalf("unit failed: %v", outcome.Err)
	}
	if outcome.Text != unit {
		t.Fatalf("reassembled text differs: %q", outcome.Text)
	}
	if got := longest.Load(); got > MaxBytes {
		t.Fatalf("largest query was %d bytes, cap %d", got, MaxBytes)
	}
	if outcome.Attempts != 2 {
		t.Fatalf("expected 2 backend calls, got %d", outcome.Attempts)
	}
}
