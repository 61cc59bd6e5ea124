package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func sampleNotice() ReportNotice {
	return ReportNotice{
		Date:          time.Date(2025, 8, 10, 6, 30, 0, 0, time.UTC),
		Path:          "reports/2025-08-10.md",
		Securities:    5,
		Qualifying:    12,
		NewsErrors:    1,
		RevenueMisses: 2,
	}
}

func TestSlackNotifier_buildBlockKitPayload(t *testing.T) {
	n := NewSlackNotifier(SlackConfig{
		Enabled:    true,
		WebhookURL: "https://hooks.slack.com/services/test",
		Timeout:    10 * time.Second,
	})

	payload := n.buildBlockKitPayload(sampleNotice())

	if payload.Text != "台股追蹤報告 2025-08-10" {
		t.Errorf("fallback text = %q", payload.Text)
	}
	if len(payload.Blocks) != 2 {
		t.Fatalf("blocks = %d, want 2", len(payload.Blocks))
	}

	section := payload.Blocks[0]
	if section.Type != "section" {
		t.Errorf("block type = %q, want %q", section.Type, "section")
	}
	if section.Text == nil || section.Text.Type != "mrkdwn" {
		t.Fatal("section block missing mrkdwn text")
	}
	if !strings.Contains(section.Text.Text, "追蹤 5 檔個股，收錄 12 則新聞。") {
		t.Errorf("section text missing summary: %q", section.Text.Text)
	}
	if !strings.Contains(section.Text.Text, "`reports/2025-08-10.md`") {
		t.Errorf("section text missing report path: %q", section.Text.Text)
	}

	contextBlock := payload.Blocks[1]
	if contextBlock.Type != "context" {
		t.Errorf("block type = %q, want %q", contextBlock.Type, "context")
	}
	if len(contextBlock.Elements) != 1 {
		t.Fatalf("context elements = %d, want 1", len(contextBlock.Elements))
	}
	if !strings.Contains(contextBlock.Elements[0].Text, "新聞來源失敗 1 • 營收缺漏 2") {
		t.Errorf("context text missing counters: %q", contextBlock.Elements[0].Text)
	}
}

func TestSlackNotifier_NotifyReport_Success(t *testing.T) {
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q, want application/json", ct)
		}
		gotBody, _ = io.ReadAll(r.Body)
		if _, err := w.Write([]byte("ok")); err != nil {
			t.Errorf("write response: %v", err)
		}
	}))
	defer server.Close()

	n := NewSlackNotifier(SlackConfig{
		Enabled:    true,
		WebhookURL: server.URL,
		Timeout:    10 * time.Second,
	})

	if err := n.NotifyReport(context.Background(), sampleNotice()); err != nil {
		t.Fatalf("NotifyReport() error = %v", err)
	}

	var payload SlackWebhookPayload
	if err := json.Unmarshal(gotBody, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if payload.Text != "台股追蹤報告 2025-08-10" {
		t.Errorf("payload.Text = %q", payload.Text)
	}
}

func TestSlackNotifier_NotifyReport_ClientErrorNoRetry(t *testing.T) {
	var hits int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		http.Error(w, "invalid_payload", http.StatusBadRequest)
	}))
	defer server.Close()

	n := NewSlackNotifier(SlackConfig{
		Enabled:    true,
		WebhookURL: server.URL,
		Timeout:    10 * time.Second,
	})

	err := n.NotifyReport(context.Background(), sampleNotice())
	if err == nil {
		t.Fatal("NotifyReport() error = nil, want error")
	}
	var clientErr *ClientError
	if !errors.As(err, &clientErr) {
		t.Errorf("error = %v, want *ClientError", err)
	}
	if got := atomic.LoadInt64(&hits); got != 1 {
		t.Errorf("server hits = %d, want 1 (no retry on 4xx)", got)
	}
}

func TestSlackNotifier_NotifyReport_ServerErrorRetries(t *testing.T) {
	var hits int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt64(&hits, 1) == 1 {
			http.Error(w, "server_error", http.StatusInternalServerError)
			return
		}
		if _, err := w.Write([]byte("ok")); err != nil {
			t.Errorf("write response: %v", err)
		}
	}))
	defer server.Close()

	n := NewSlackNotifier(SlackConfig{
		Enabled:    true,
		WebhookURL: server.URL,
		Timeout:    10 * time.Second,
	})

	start := time.Now()
	if err := n.NotifyReport(context.Background(), sampleNotice()); err != nil {
		t.Fatalf("NotifyReport() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed < 5*time.Second {
		t.Errorf("retry happened after %v, want >= 5s backoff", elapsed)
	}

	if got := atomic.LoadInt64(&hits); got != 2 {
		t.Errorf("server hits = %d, want 2", got)
	}
}

func TestSlackNotifier_NotifyReport_RateLimitUsesRetryAfter(t *testing.T) {
	var hits int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt64(&hits, 1) == 1 {
			w.Header().Set("Retry-After", "1")
			http.Error(w, "rate_limited", http.StatusTooManyRequests)
			return
		}
		if _, err := w.Write([]byte("ok")); err != nil {
			t.Errorf("write response: %v", err)
		}
	}))
	defer server.Close()

	n := NewSlackNotifier(SlackConfig{
		Enabled:    true,
		WebhookURL: server.URL,
		Timeout:    10 * time.Second,
	})

	if err := n.NotifyReport(context.Background(), sampleNotice()); err != nil {
		t.Fatalf("NotifyReport() error = %v", err)
	}
	if got := atomic.LoadInt64(&hits); got != 2 {
		t.Errorf("server hits = %d, want 2", got)
	}
}

func TestSlackNotifier_NotifyReport_ContextCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "server_error", http.StatusInternalServerError)
	}))
	defer server.Close()

	n := NewSlackNotifier(SlackConfig{
		Enabled:    true,
		WebhookURL: server.URL,
		Timeout:    10 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	err := n.NotifyReport(ctx, sampleNotice())
	if err == nil {
		t.Fatal("NotifyReport() error = nil, want error")
	}
}

func TestExtractRetryAfter(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   time.Duration
	}{
		{name: "valid seconds", header: "30", want: 30 * time.Second},
		{name: "missing header", header: "", want: 5 * time.Second},
		{name: "malformed", header: "soon", want: 5 * time.Second},
		{name: "negative", header: "-1", want: 5 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := &http.Response{Header: http.Header{}}
			if tt.header != "" {
				resp.Header.Set("Retry-After", tt.header)
			}
			if got := extractRetryAfter(resp); got != tt.want {
				t.Errorf("extractRetryAfter() = %v, want %v", got, tt.want)
			}
		})
	}
}
