package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// StatusError is returned for non-200 upstream responses.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	switch e.Code {
	case http.StatusTooManyRequests:
		return fmt.Sprintf("rate limited (429): %s", e.Body)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Sprintf("unauthorized (%d): %s", e.Code, e.Body)
	default:
		return fmt.Sprintf("http %d: %s", e.Code, e.Body)
	}
}

// httpProvider issues JSON GET requests and tracks their outcome.
type httpProvider struct {
	*BaseProvider
	httpClient *http.Client
}

func newHTTPProvider(name string, timeout time.Duration) httpProvider {
	return httpProvider{
		BaseProvider: NewBaseProvider(name),
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// getJSON fetches url and decodes the body into out. check, when set, rejects
// payloads that decoded cleanly but carry an upstream error.
func (p httpProvider) getJSON(ctx context.Context, url string, out any, check func() error) error {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		p.recordFailure(err)
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		p.recordFailure(err)
		return fmt.Errorf("%s request: %w", p.Name(), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		p.recordFailure(err)
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		err := &StatusError{Code: resp.StatusCode, Body: truncate(string(body), 256)}
		p.recordFailure(err)
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		p.recordFailure(err)
		return fmt.Errorf("parse response: %w", err)
	}
	if check != nil {
		if err := check(); err != nil {
			p.recordFailure(err)
			return err
		}
	}

	p.recordSuccess(time.Since(start))
	return nil
}

// Close releases idle connections.
func (p httpProvider) Close() error {
	p.httpClient.CloseIdleConnections()
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
