package jobqueue

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/riskibarqy/gift-exchange/internal/platform/logging"
)

type capturedRequest struct {
	path    string
	headers http.Header
	body    string
}

func newQStashServer(t *testing.T, status int) (*httptest.Server, chan capturedRequest) {
	t.Helper()

	captured := make(chan capturedRequest, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		captured <- capturedRequest{path: r.URL.Path, headers: r.Header.Clone(), body: string(body)}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"messageId":"msg-1"}`))
	}))
	t.Cleanup(srv.Close)
	return srv, captured
}

func TestQStashPublisher_ScheduleCompletionSweep(t *testing.T) {
	srv, captured := newQStashServer(t, http.StatusCreated)

	publisher, err := NewQStashPublisher(QStashPublisherConfig{
		BaseURL:          srv.URL,
		Token:            "qstash-token",
		TargetBaseURL:    "https://gifts.example.com/",
		Retries:          3,
		InternalJobToken: "job-token",
	}, logging.NewNop())
	if err != nil {
		t.Fatalf("NewQStashPublisher error: %v", err)
	}
	now := time.Date(2026, 12, 1, 9, 0, 0, 0, time.UTC)
	publisher.now = func() time.Time { return now }

	runAt := time.Date(2026, 12, 25, 0, 0, 0, 0, time.UTC)
	if err := publisher.ScheduleCompletionSweep(t.Context(), runAt); err != nil {
		t.Fatalf("ScheduleCompletionSweep error: %v", err)
	}

	got := <-captured
	wantPath := "/v2/publish/https://gifts.example.com" + CompleteDueGamesPath
	if got.path != wantPath {
		t.Fatalf("unexpected publish path: %s", got.path)
	}
	if got.headers.Get("Authorization") != "Bearer qstash-token" {
		t.Fatalf("unexpected authorization header: %q", got.headers.Get("Authorization"))
	}
	if got.headers.Get("Upstash-Delay") != "2041200s" {
		t.Fatalf("unexpected delay header: %q", got.headers.Get("Upstash-Delay"))
	}
	if got.headers.Get("Upstash-Deduplication-Id") != "complete-due-games-20261225" {
		t.Fatalf("unexpected dedup header: %q", got.headers.Get("Upstash-Deduplication-Id"))
	}
	if got.headers.Get("Upstash-Retries") != "3" {
		t.Fatalf("unexpected retries header: %q", got.headers.Get("Upstash-Retries"))
	}
	if got.headers.Get("Upstash-Forward-X-Internal-Job-Token") != "job-token" {
		t.Fatalf("expected forwarded job token header")
	}
	if strings.TrimSpace(got.body) != "{}" {
		t.Fatalf("unexpected body: %q", got.body)
	}
}

func TestQStashPublisher_PastRunAtHasNoDelay(t *testing.T) {
	srv, captured := newQStashServer(t, http.StatusOK)

	publisher, err := NewQStashPublisher(QStashPublisherConfig{BaseURL: srv.URL, TargetBaseURL: "https://gifts.example.com"}, logging.NewNop())
	if err != nil {
		t.Fatalf("NewQStashPublisher error: %v", err)
	}
	publisher.now = func() time.Time { return time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC) }

	if err := publisher.ScheduleCompletionSweep(t.Context(), time.Date(2026, 12, 25, 0, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("ScheduleCompletionSweep error: %v", err)
	}
	if got := <-captured; got.headers.Get("Upstash-Delay") != "" {
		t.Fatalf("expected no delay header, got %q", got.headers.Get("Upstash-Delay"))
	}
}

func TestQStashPublisher_Non2xxIsError(t *testing.T) {
	srv, _ := newQStashServer(t, http.StatusUnauthorized)

	publisher, err := NewQStashPublisher(QStashPublisherConfig{BaseURL: srv.URL, TargetBaseURL: "https://gifts.example.com"}, logging.NewNop())
	if err != nil {
		t.Fatalf("NewQStashPublisher error: %v", err)
	}
	err = publisher.Enqueue(t.Context(), CompleteDueGamesPath, nil, 0, "")
	if err == nil || !strings.Contains(err.Error(), "status=401") {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestNewQStashPublisher_ValidatesURLs(t *testing.T) {
	tests := []QStashPublisherConfig{
		{BaseURL: "", TargetBaseURL: "https://gifts.example.com"},
		{BaseURL: "ftp://qstash.upstash.io", TargetBaseURL: "https://gifts.example.com"},
		{BaseURL: "https://qstash.upstash.io", TargetBaseURL: "https://"},
	}
	for _, cfg := range tests {
		if _, err := NewQStashPublisher(cfg, logging.NewNop()); err == nil {
			t.Fatalf("expected error for %+v", cfg)
		}
	}
}

func TestNormalizeDelay(t *testing.T) {
	if got := normalizeDelay(-time.Second); got != "0s" {
		t.Fatalf("normalizeDelay(-1s) = %s", got)
	}
	if got := normalizeDelay(1500 * time.Millisecond); got != "2s" {
		t.Fatalf("normalizeDelay(1.5s) = %s", got)
	}
}
