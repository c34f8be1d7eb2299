package shazam

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
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/himanishpuri/songtag/pkg/songtag/signature"
)

// ErrTransport covers network failures, non-2xx replies and bodies that are not JSON.
var ErrTransport = errors.New("recognition request failed")

const (
	DefaultBaseURL   = "https://amp.shazam.com/match/v1/en/US/android"
	DefaultUserAgent = "curl/7"
	DefaultTimezone  = "GMT"
	DefaultTimeout   = 20 * time.Second

	maxResponseBytes = 4 << 20
)

var processInstallationID = sync.OnceValue(func() string {
	return uuid.NewString()
})

// InstallationID is generated once per process and shared by every client.
func InstallationID() string {
	return processInstallationID()
}

// Client posts signatures to the recognition service.
type Client struct {
	baseURL        string
	userAgent      string
	timezone       string
	installationID string
	http           *http.Client
}

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

func WithTimezone(tz string) Option {
	return func(c *Client) {
		c.timezone = tz
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithTimeout replaces the client's HTTP client with one using d. Zero keeps
// DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http = &http.Client{Timeout: d}
		}
	}
}

func WithInstallationID(id string) Option {
	return func(c *Client) {
		c.installationID = id
	}
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:        DefaultBaseURL,
		userAgent:      DefaultUserAgent,
		timezone:       DefaultTimezone,
		installationID: InstallationID(),
		http:           &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) InstallationID() string {
	return c.installationID
}

type matchRequest struct {
	Signatures []signaturePayload `json:"signatures"`
	Timezone   string             `json:"timezone"`
}

type signaturePayload struct {
	URI      string `json:"uri"`
	SampleMs int64  `json:"samplems"`
}

// SendRequest submits one signature for the session tagID and parses the reply.
func (c *Client) SendRequest(ctx context.Context, tagID string, sampleMs int64, sig []byte) (*Result, error) {
	body, err := json.Marshal(matchRequest{
		Signatures: []signaturePayload{{URI: signature.DataURI(sig), SampleMs: sampleMs}},
		Timezone:   c.timezone,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	endpoint := c.baseURL + "/" + url.PathEscape(c.installationID) + "/" + url.PathEscape(tagID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %w", ErrTransport, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: unexpected status %s", ErrTransport, resp.Status)
	}
	return ParseResult(data)
}
