package jellyfin

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"jellysweep/internal/logging"
)

const (
	clientName    = "jellysweep"
	clientVersion = "0.1.0"
)

// ErrUnauthorized indicates the server rejected the API key.
var ErrUnauthorized = errors.New("jellyfin: authentication rejected")

// StatusError reports a non-2xx response that is not an auth failure.
type StatusError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("jellyfin %s %s returned %d", e.Method, e.Path, e.Status)
	}
	return fmt.Sprintf("jellyfin %s %s returned %d: %s", e.Method, e.Path, e.Status, e.Body)
}

// HTTPDoer abstracts http.Client.Do for testing.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Options configures client construction.
type Options struct {
	Timeout  time.Duration
	Insecure bool
	Client   HTTPDoer // overrides the default http.Client when set
	Logger   *slog.Logger
}

// Client issues authenticated requests against a Jellyfin server.
type Client struct {
	baseURL  string
	apiKey   string
	deviceID string
	client   HTTPDoer
	logger   *slog.Logger
}

// New constructs a Jellyfin API client.
func New(baseURL, apiKey string, opts Options) *Client {
	doer := opts.Client
	if doer == nil {
		transport := http.DefaultTransport
		if opts.Insecure {
			transport = &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
			}
		}
		doer = &http.Client{Timeout: opts.Timeout, Transport: transport}
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Client{
		baseURL:  strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:   strings.TrimSpace(apiKey),
		deviceID: strings.ReplaceAll(uuid.New().String(), "-", ""),
		client:   doer,
		logger:   logger,
	}
}

// doJSON performs a JSON request and decodes the response into out when
// non-nil. Empty response bodies are tolerated; Jellyfin returns them for
// policy writes.
func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	requestURL := c.baseURL + path
	if len(query) > 0 {
		requestURL += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, requestURL, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Emby-Token", c.apiKey)
	req.Header.Set("X-Emby-Authorization", c.authorizationHeader())

	c.logger.Debug("jellyfin request", "method", method, "path", path)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("jellyfin %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		errBody := strings.TrimSpace(string(bodyBytes))
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			return fmt.Errorf("jellyfin %s %s: %w", method, path, ErrUnauthorized)
		}
		return &StatusError{Method: method, Path: path, Status: resp.StatusCode, Body: errBody}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) authorizationHeader() string {
	return fmt.Sprintf(
		`MediaBrowser Client=%q, Device=%q, DeviceId=%q, Version=%q`,
		clientName, clientName, c.deviceID, clientVersion,
	)
}
