// Package client speaks the container daemon's REST API over its local unix
// socket. It covers only the instance surface the manager needs: listing,
// state reads, and state writes. Everything else goes through the managed
// CLI transport in incusrun.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"

	"incman/pkg/sdk/types"

	"github.com/docker/go-connections/sockets"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const envSocket = "INCMAN_SOCKET"

const (
	// apiRoot is the daemon's stable API prefix.
	apiRoot = "/1.0"

	// maxResponseBytes caps how much of a response body is kept.
	maxResponseBytes = 1 << 20
)

// DefaultSocketPath returns the daemon control socket path, honoring the
// INCMAN_SOCKET override.
func DefaultSocketPath() string {
	if fromEnv := strings.TrimSpace(os.Getenv(envSocket)); fromEnv != "" {
		return fromEnv
	}
	return "/var/lib/incus/unix.socket"
}

// Client is a typed view of the daemon REST API. The zero value is not
// usable; construct with New.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	transport *http.Transport
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client, replacing the unix-socket
// transport built by New.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// New creates a client that dials the daemon's unix socket for every
// request. The host in request URLs is nominal; the transport pins each
// connection to socketPath.
func New(socketPath string, opts ...Option) (*Client, error) {
	tr := &http.Transport{}
	if err := sockets.ConfigureTransport(tr, "unix", socketPath); err != nil {
		return nil, fmt.Errorf("configure unix socket transport: %w", err)
	}

	baseURL, err := url.Parse("http://incus" + apiRoot)
	if err != nil {
		return nil, fmt.Errorf("parse daemon URL: %w", err)
	}

	c := &Client{
		baseURL:   baseURL,
		http:      &http.Client{Transport: otelhttp.NewTransport(tr)},
		transport: tr,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Close releases any idle daemon connections held by the transport.
func (c *Client) Close() {
	c.transport.CloseIdleConnections()
}

// envelope is the daemon's standard response wrapper. Metadata shape varies
// per endpoint, so it stays raw until the caller picks it apart.
type envelope struct {
	Type       string          `json:"type"`
	Status     string          `json:"status"`
	StatusCode int             `json:"status_code"`
	Metadata   json.RawMessage `json:"metadata"`
}

// ListInstances returns the names of all instances known to the daemon.
func (c *Client) ListInstances(ctx context.Context) ([]string, error) {
	status, body, err := c.do(ctx, http.MethodGet, nil, "instances")
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, &DaemonError{StatusCode: status, Body: string(body)}
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode instance list: %w", err)
	}
	var urls []string
	if len(env.Metadata) > 0 {
		if err := json.Unmarshal(env.Metadata, &urls); err != nil {
			return nil, fmt.Errorf("decode instance list metadata: %w", err)
		}
	}

	// The daemon lists instances as API paths; the name is the last segment.
	names := make([]string, 0, len(urls))
	for _, u := range urls {
		names = append(names, path.Base(u))
	}
	return names, nil
}

// InstanceState reads one instance's lifecycle state. Any non-200 response
// degrades to StatusUnknown instead of failing, so one broken instance does
// not abort a whole inventory read. Transport failures still propagate.
func (c *Client) InstanceState(ctx context.Context, name string) (types.Status, error) {
	status, body, err := c.do(ctx, http.MethodGet, nil, "instances", name, "state")
	if err != nil {
		return types.StatusUnknown, err
	}
	if status != http.StatusOK {
		return types.StatusUnknown, nil
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return types.StatusUnknown, nil
	}
	var meta struct {
		Status string `json:"status"`
	}
	if len(env.Metadata) > 0 {
		if err := json.Unmarshal(env.Metadata, &meta); err != nil {
			return types.StatusUnknown, nil
		}
	}
	return types.ParseStatus(meta.Status), nil
}

// SetInstanceState asks the daemon to apply a start or stop action. A 202
// means the daemon accepted the action and completes it asynchronously; the
// call does not wait for completion.
func (c *Client) SetInstanceState(ctx context.Context, name string, action types.Action) error {
	payload := struct {
		Action types.Action `json:"action"`
	}{Action: action}

	status, body, err := c.do(ctx, http.MethodPut, payload, "instances", name, "state")
	if err != nil {
		return err
	}
	if status != http.StatusOK && status != http.StatusAccepted {
		return &DaemonError{StatusCode: status, Body: string(body)}
	}
	return nil
}

// do issues one request and returns the raw status code and body. Transport
// failures come back as *TransportError; response codes are never judged
// here.
func (c *Client) do(ctx context.Context, method string, payload any, elem ...string) (int, []byte, error) {
	endpoint := c.baseURL.JoinPath(elem...)

	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), reqBody)
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, &TransportError{Op: method + " " + endpoint.Path, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return 0, nil, &TransportError{Op: method + " " + endpoint.Path, Err: err}
	}
	return resp.StatusCode, body, nil
}
