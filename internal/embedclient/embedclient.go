// Package embedclient talks to an external embedding model over HTTP,
// batching requests and retrying transient failures with backoff.
package embedclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/veridetect/plagiscan/internal/apperr"
)

// RetryableError indicates a transient transport failure worth retrying.
type RetryableError struct {
	StatusCode int
	Message    string
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable embedder error (status %d): %s", e.StatusCode, truncate(e.Message, 200))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// Backoff returns the delay before retry attempt n (0-indexed), capped and
// jittered.
func Backoff(attempt int) time.Duration {
	base := time.Duration(1<<uint(attempt)) * time.Second
	if base > 30*time.Second {
		base = 30 * time.Second
	}
	jitter := time.Duration(rand.Int64N(int64(base)/2 + 1))
	return base + jitter
}

// Config controls batching, retry and dimensionality.
type Config struct {
	Endpoint    string
	APIKey      string
	Model       string
	Dimensions  int
	BatchSize   int
	MaxAttempts int
	Timeout     time.Duration
}

// DefaultConfig mirrors the service's documented embedder defaults.
func DefaultConfig() Config {
	return Config{
		Dimensions:  768,
		BatchSize:   32,
		MaxAttempts: 3,
		Timeout:     60 * time.Second,
	}
}

// Client is a thread-safe batched embedding client with its own
// connection pool.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

func New(cfg Config) *Client {
	if cfg.Dimensions <= 0 {
		cfg.Dimensions = 768
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 32
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

func (c *Client) Dimensions() int { return c.cfg.Dimensions }

// Embed returns one vector per input text, in the same order, calling the
// embedder once per unique text within this invocation (so a request with
// repeated chunk text is internally consistent) and grouping unique texts
// into batches bounded by cfg.BatchSize.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	unique := make([]string, 0, len(texts))
	index := make(map[string]int, len(texts))
	for _, t := range texts {
		if _, ok := index[t]; !ok {
			index[t] = len(unique)
			unique = append(unique, t)
		}
	}

	vectors := make([][]float32, len(unique))
	for start := 0; start < len(unique); start += c.cfg.BatchSize {
		end := start + c.cfg.BatchSize
		if end > len(unique) {
			end = len(unique)
		}
		batch := unique[start:end]
		result, err := c.embedBatchWithRetry(ctx, batch)
		if err != nil {
			return nil, err
		}
		copy(vectors[start:end], result)
	}

	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = vectors[index[t]]
	}
	return out, nil
}

func (c *Client) embedBatchWithRetry(ctx context.Context, batch []string) ([][]float32, error) {
	var lastErr error
	for attempt := 0; attempt < c.cfg.MaxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, apperr.Wrap(apperr.DeadlineExceeded, "embedder retry wait cancelled", ctx.Err())
			case <-time.After(Backoff(attempt - 1)):
			}
		}

		vectors, err := c.embedBatch(ctx, batch)
		if err == nil {
			return vectors, nil
		}
		lastErr = err

		var retryable *RetryableError
		if !asRetryable(err, &retryable) {
			return nil, apperr.Wrap(apperr.Internal, "embedder call failed", err)
		}
	}
	return nil, apperr.Wrap(apperr.Unavailable, "embedder unreachable after retries", lastErr)
}

func asRetryable(err error, target **RetryableError) bool {
	e, ok := err.(*RetryableError)
	if !ok {
		return false
	}
	*target = e
	return true
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) embedBatch(ctx context.Context, batch []string) ([][]float32, error) {
	reqBody := embedRequest{Model: c.cfg.Model, Input: batch}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal embed request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create embed request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &RetryableError{StatusCode: 0, Message: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, fmt.Errorf("read embed response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return nil, &RetryableError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embedder status %d: %s", resp.StatusCode, truncate(string(respBody), 200))
	}

	var parsed embedResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("decode embed response: %w", err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("embedder error: %s", parsed.Error.Message)
	}
	if len(parsed.Data) != len(batch) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d inputs", len(parsed.Data), len(batch))
	}

	vectors := make([][]float32, len(batch))
	for i, d := range parsed.Data {
		if len(d.Embedding) != c.cfg.Dimensions {
			return nil, fmt.Errorf("embedder vector length %d != configured dimension %d", len(d.Embedding), c.cfg.Dimensions)
		}
		vectors[i] = d.Embedding
	}
	return vectors, nil
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}
