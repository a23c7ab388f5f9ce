// Package objectstore fetches objects from a MinIO-compatible bucket over
// its S3-style HTTP API, using a raw REST client in the same idiom as the
// other external-service clients in this repository — no object-store SDK
// is required for a single GET-by-key operation.
package objectstore

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/veridetect/plagiscan/internal/apperr"
)

// Client talks to a MinIO (or any S3-compatible) endpoint.
type Client struct {
	baseURL    string
	accessKey  string
	secretKey  string
	httpClient *http.Client
}

func NewClient(baseURL, accessKey, secretKey string) *Client {
	return &Client{
		baseURL:   baseURL,
		accessKey: accessKey,
		secretKey: secretKey,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// FetchObject downloads bucket/objectPath and returns its raw bytes.
func (c *Client) FetchObject(ctx context.Context, bucket, objectPath string) ([]byte, error) {
	u := c.baseURL + "/" + url.PathEscape(bucket) + "/" + escapePath(objectPath)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create fetch request: %w", err)
	}
	if c.accessKey != "" {
		req.SetBasicAuth(c.accessKey, c.secretKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperr.Wrap(apperr.Unavailable, "object store unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, apperr.NotFoundf("object %s/%s not found", bucket, objectPath)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, apperr.Internalf("fetch object %s/%s: status %d: %s", bucket, objectPath, resp.StatusCode, string(body))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 256<<20))
	if err != nil {
		return nil, fmt.Errorf("read object body: %w", err)
	}
	return data, nil
}

func escapePath(p string) string {
	parts := splitPath(p)
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return joinPath(parts)
}

func splitPath(p string) []string {
	var parts []string
	start := 0
	for i := 0; i < len(p); i++ {
		if p[i] == '/' {
			parts = append(parts, p[start:i])
			start = i + 1
		}
	}
	parts = append(parts, p[start:])
	return parts
}

func joinPath(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += "/"
		}
		out += p
	}
	return out
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}
