package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// HTTPDoer defines http.Client interface subset.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Call describes one finished backend round trip.
type Call struct {
	Method   string
	Path     string
	Status   int
	Duration time.Duration
	Err      error
}

// Recorder observes backend calls (metrics, audit log).
type Recorder interface {
	Record(ctx context.Context, call Call)
}

// Recorders fans a call out to several recorders.
type Recorders []Recorder

// Record implements Recorder.
func (rs Recorders) Record(ctx context.Context, call Call) {
	for _, r := range rs {
		if r != nil {
			r.Record(ctx, call)
		}
	}
}

// BaseClient provides simple request helpers against one base URL.
type BaseClient struct {
	baseURL  string
	client   HTTPDoer
	recorder Recorder
}

// NewBaseClient builds client with base URL. recorder may be nil.
func NewBaseClient(baseURL string, client HTTPDoer, recorder Recorder) *BaseClient {
	return &BaseClient{
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   client,
		recorder: recorder,
	}
}

func (c *BaseClient) buildURL(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}

func stripQuery(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		return path[:i]
	}
	return path
}

// Do executes HTTP request and returns status/body. Transport failures are wrapped in
// ErrUnavailable.
func (c *BaseClient) Do(ctx context.Context, method, path string, body []byte, headers map[string]string) (status int, respBody []byte, err error) {
	started := time.Now()
	defer func() {
		if c.recorder != nil {
			c.recorder.Record(ctx, Call{
				Method:   method,
				Path:     stripQuery(path),
				Status:   status,
				Duration: time.Since(started),
				Err:      err,
			})
		}
	}()

	var reader io.Reader
	if len(body) > 0 {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.buildURL(path), reader)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return 0, nil, fmt.Errorf("%w: %s %s: %v", ErrUnavailable, method, stripQuery(path), err)
	}
	defer resp.Body.Close()
	respBody, err = io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("%w: read %s %s: %v", ErrUnavailable, method, stripQuery(path), err)
	}
	return resp.StatusCode, respBody, nil
}

// DoJSON marshals in (when non-nil), executes the request and decodes a 2xx body into out
// (when non-nil). Non-2xx answers become *APIError.
func (c *BaseClient) DoJSON(ctx context.Context, method, path string, in, out interface{}) error {
	var body []byte
	if in != nil {
		encoded, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("clients: encode %s %s: %w", method, path, err)
		}
		body = encoded
	}

	status, respBody, err := c.Do(ctx, method, path, body, nil)
	if err != nil {
		return err
	}
	if status < 200 || status > 299 {
		return newAPIError(status, respBody)
	}
	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("clients: decode %s %s: %w", method, path, err)
	}
	return nil
}

// NewDefaultHTTPClient returns *http.Client with timeout. jar may be nil.
func NewDefaultHTTPClient(timeout time.Duration, jar http.CookieJar) *http.Client {
	return &http.Client{Timeout: timeout, Jar: jar}
}
