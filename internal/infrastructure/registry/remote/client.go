// Package remote reads participants from an external registry service over
// HTTP. Large lookups are split into batches fetched in parallel.
package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/gift-exchange/internal/domain/participant"
	"github.com/riskibarqy/gift-exchange/internal/platform/logging"
	"github.com/riskibarqy/gift-exchange/internal/platform/resilience"
	"github.com/sourcegraph/conc/pool"
	"github.com/valyala/bytebufferpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	batchPath           = "/v1/participants/batch"
	defaultBatchSize    = 100
	defaultConcurrency  = 4
	maxResponseBodySize = 4 << 20
)

var errRegistryTransient = crerr.New("participant registry transient failure")

type Config struct {
	BaseURL        string
	APIKey         string
	Timeout        time.Duration
	BatchSize      int
	MaxConcurrency int
	CircuitBreaker resilience.CircuitBreakerConfig
}

type Client struct {
	httpClient  *http.Client
	batchURL    string
	apiKey      string
	batchSize   int
	concurrency int
	breaker     *resilience.CircuitBreaker
	logger      *logging.Logger
}

func NewClient(httpClient *http.Client, cfg Config, logger *logging.Logger) (*Client, error) {
	base, err := validateBaseURL(cfg.BaseURL)
	if err != nil {
		return nil, crerr.Wrap(err, "invalid REGISTRY_BASE_URL")
	}
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	if logger == nil {
		logger = logging.Default()
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	concurrency := cfg.MaxConcurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	breakerCfg := cfg.CircuitBreaker
	if breakerCfg.OnStateChange == nil {
		breakerCfg.OnStateChange = func(from, to resilience.CircuitState) {
			logger.Warn("participant registry circuit breaker state changed", "from", from, "to", to)
		}
	}

	return &Client{
		httpClient:  httpClient,
		batchURL:    base + batchPath,
		apiKey:      strings.TrimSpace(cfg.APIKey),
		batchSize:   batchSize,
		concurrency: concurrency,
		breaker:     resilience.NewCircuitBreaker(breakerCfg),
		logger:      logger,
	}, nil
}

// GetByIDs returns participants in the order of ids. Any id the registry
// does not know fails the whole call with participant.ErrNotFound.
func (c *Client) GetByIDs(ctx context.Context, ids []string) ([]participant.Participant, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	p := pool.NewWithResults[[]participant.Participant]().
		WithContext(ctx).
		WithCancelOnError().
		WithFirstError().
		WithMaxGoroutines(c.concurrency)
	for _, chunk := range chunkIDs(ids, c.batchSize) {
		p.Go(func(ctx context.Context) ([]participant.Participant, error) {
			return c.fetchBatch(ctx, chunk)
		})
	}
	batches, err := p.Wait()
	if err != nil {
		return nil, err
	}

	byID := make(map[string]participant.Participant, len(ids))
	for _, batch := range batches {
		for _, item := range batch {
			byID[item.ID] = item
		}
	}
	out := make([]participant.Participant, 0, len(ids))
	var missing []string
	for _, id := range ids {
		item, ok := byID[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		out = append(out, item)
	}
	if len(missing) > 0 {
		return nil, crerr.Wrapf(participant.ErrNotFound, "registry has no participants %v", missing)
	}
	return out, nil
}

func (c *Client) fetchBatch(ctx context.Context, ids []string) ([]participant.Participant, error) {
	var out []participant.Participant
	var permanent error
	err := c.breaker.Execute(ctx, func(ctx context.Context) error {
		items, err := c.doBatch(ctx, ids)
		if err != nil && !errors.Is(err, errRegistryTransient) && ctx.Err() == nil {
			permanent = err
			return nil
		}
		out = items
		return err
	})
	if errors.Is(err, resilience.ErrCircuitOpen) {
		c.logger.WarnContext(ctx, "participant registry circuit breaker rejected request", "state", c.breaker.State())
		return nil, crerr.Wrap(err, "participant registry is temporarily unavailable")
	}
	if err != nil {
		return nil, err
	}
	if permanent != nil {
		return nil, permanent
	}
	return out, nil
}

func (c *Client) doBatch(ctx context.Context, ids []string) ([]participant.Participant, error) {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	if err := sonic.ConfigDefault.NewEncoder(buf).Encode(batchRequest{IDs: ids}); err != nil {
		return nil, crerr.Wrap(err, "marshal registry batch request")
	}

	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.SetAttributes(
			attribute.String("registry.url", c.batchURL),
			attribute.Int("registry.batch_size", len(ids)),
		)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.batchURL, bytes.NewReader(buf.B))
	if err != nil {
		return nil, crerr.Wrap(err, "create registry request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-Registry-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, crerr.Mark(crerr.Wrap(err, "request participant registry"), errRegistryTransient)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	if err != nil {
		return nil, crerr.Mark(crerr.Wrap(err, "read registry response"), errRegistryTransient)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, crerr.Wrapf(participant.ErrNotFound, "registry returned 404 for %d ids", len(ids))
	case resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests:
		c.logger.WarnContext(ctx, "participant registry non-2xx", "status_code", resp.StatusCode)
		return nil, crerr.Mark(crerr.Newf("registry returned status %d", resp.StatusCode), errRegistryTransient)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		c.logger.WarnContext(ctx, "participant registry rejected request", "status_code", resp.StatusCode, "body", truncate(string(body), 512))
		return nil, crerr.Newf("registry rejected request with status %d", resp.StatusCode)
	}

	var decoded batchResponse
	if err := sonic.Unmarshal(body, &decoded); err != nil {
		return nil, crerr.Wrap(err, "decode registry response")
	}

	out := make([]participant.Participant, 0, len(decoded.Data))
	for _, item := range decoded.Data {
		p, err := item.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

type batchRequest struct {
	IDs []string `json:"ids"`
}

type batchResponse struct {
	Data []registryParticipant `json:"data"`
}

type registryParticipant struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Email     string  `json:"email"`
	BirthDate *string `json:"birth_date"`
}

func (p registryParticipant) toDomain() (participant.Participant, error) {
	out := participant.Participant{
		ID:    strings.TrimSpace(p.ID),
		Name:  strings.TrimSpace(p.Name),
		Email: strings.TrimSpace(p.Email),
	}
	if out.ID == "" {
		return participant.Participant{}, crerr.New("registry returned a participant without id")
	}
	if p.BirthDate != nil && strings.TrimSpace(*p.BirthDate) != "" {
		parsed, err := time.Parse(participant.DateLayout, strings.TrimSpace(*p.BirthDate))
		if err != nil {
			return participant.Participant{}, crerr.Wrapf(err, "registry participant %s has invalid birth_date", out.ID)
		}
		out.BirthDate = &parsed
	}
	return out, nil
}

func chunkIDs(ids []string, size int) [][]string {
	out := make([][]string, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		end := min(start+size, len(ids))
		out = append(out, ids[start:end])
	}
	return out
}

func validateBaseURL(raw string) (string, error) {
	raw = strings.TrimRight(strings.TrimSpace(raw), "/")
	if raw == "" {
		return "", fmt.Errorf("base url is empty")
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("base url must use http or https, got %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("base url host is empty")
	}
	return raw, nil
}

func truncate(v string, limit int) string {
	if len(v) <= limit {
		return v
	}
	return v[:limit] + "..."
}
