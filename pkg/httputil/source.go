package httputil

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	apperrors "github.com/dhuston/livingmap/pkg/errors"
	"github.com/dhuston/livingmap/pkg/graph"
)

// maxGraphBytes caps response bodies so a misbehaving source can't exhaust
// memory. 64 MiB covers graphs far past the size the engine handles anyway.
const maxGraphBytes = 64 << 20

// GraphClient fetches view graphs from a KnowledgePlane-compatible API
// over HTTP, with retry for transient failures.
type GraphClient struct {
	baseURL string
	token   string
	http    *http.Client

	retryAttempts int
	retryDelay    time.Duration
}

// NewGraphClient creates a client for the given API base URL.
// An empty token disables the Authorization header.
func NewGraphClient(baseURL, token string) *GraphClient {
	return &GraphClient{
		baseURL:       baseURL,
		token:         token,
		http:          &http.Client{Timeout: 30 * time.Second},
		retryAttempts: 3,
		retryDelay:    time.Second,
	}
}

// FetchGraph retrieves the graph for a view from GET {base}/views/{id}/graph.
// Transient failures (network errors, 429, 5xx) are retried with backoff.
func (c *GraphClient) FetchGraph(ctx context.Context, viewID string) (graph.Graph, error) {
	if err := apperrors.ValidateViewID(viewID); err != nil {
		return graph.Graph{}, err
	}
	endpoint := fmt.Sprintf("%s/views/%s/graph", c.baseURL, url.PathEscape(viewID))

	var g graph.Graph
	err := Retry(ctx, c.retryAttempts, c.retryDelay, func() error {
		got, err := c.fetch(ctx, endpoint)
		if err != nil {
			return err
		}
		g = got
		return nil
	})
	return g, err
}

func (c *GraphClient) fetch(ctx context.Context, endpoint string) (graph.Graph, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return graph.Graph{}, err
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return graph.Graph{}, Retryable(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return graph.Graph{}, apperrors.New(apperrors.ErrCodeNotFound, "view not found: %s", endpoint)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return graph.Graph{}, Retryable(fmt.Errorf("fetch graph: %s returned %d", endpoint, resp.StatusCode))
	case resp.StatusCode != http.StatusOK:
		return graph.Graph{}, apperrors.New(apperrors.ErrCodeInvalidInput,
			"fetch graph: %s returned %d", endpoint, resp.StatusCode)
	}

	g, err := graph.Read(io.LimitReader(resp.Body, maxGraphBytes))
	if err != nil {
		return graph.Graph{}, err
	}
	return g, nil
}
