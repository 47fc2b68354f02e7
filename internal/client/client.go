package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/thanhnp/poa-ledger/internal/models"
	"github.com/thanhnp/poa-ledger/pkg/semver"
)

// DefaultTimeout bounds every request made by a Client
const DefaultTimeout = 10 * time.Second

// CompatibleAPIs lists the node API versions a client can talk to
var CompatibleAPIs = []semver.Version{
	{Major: 1},
}

// ErrIncompatible is returned when a node advertises an unsupported API
var ErrIncompatible = errors.New("incompatible node API version")

// Health is the status a node reports on /health
type Health struct {
	Status  string `json:"status"`
	Node    string `json:"node"`
	Version string `json:"version"`
}

// StatusError is a non-2xx answer from a node
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("node answered %d: %s", e.Code, e.Message)
}

// Client talks to the HTTP API of one node
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for the node at baseURL
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
	}
}

// Connect creates a client and ensures the node has a compatible API version
func Connect(ctx context.Context, baseURL string) (*Client, semver.Version, error) {
	c := New(baseURL)

	health, err := c.Health(ctx)
	if err != nil {
		return nil, semver.Version{}, fmt.Errorf("unable to get node API version: %w", err)
	}

	nodeVer, err := semver.Parse(health.Version)
	if err != nil {
		return nil, semver.Version{}, err
	}

	// Check if the node API version is compatible.
	if !semver.AnyCompatible(CompatibleAPIs, nodeVer) {
		return nil, nodeVer, fmt.Errorf("node advertises %v but requires one of %v: %w",
			nodeVer, CompatibleAPIs, ErrIncompatible)
	}

	return c, nodeVer, nil
}

// URL returns the base URL of the node
func (c *Client) URL() string {
	return c.baseURL
}

// Health returns the node status
func (c *Client) Health(ctx context.Context) (*Health, error) {
	var health Health
	if err := c.get(ctx, "/health", &health); err != nil {
		return nil, err
	}
	return &health, nil
}

// Height returns the number of blocks in the node's chain
func (c *Client) Height(ctx context.Context) (int, error) {
	var out struct {
		Height int `json:"height"`
	}
	if err := c.get(ctx, "/api/v1/current", &out); err != nil {
		return 0, err
	}
	return out.Height, nil
}

// Snapshot returns the node's chain and hash index
func (c *Client) Snapshot(ctx context.Context) (*models.Snapshot, error) {
	var snapshot models.Snapshot
	if err := c.get(ctx, "/api/v1/chain", &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// Post sends body as JSON to path and returns the raw response body
func (c *Client) Post(ctx context.Context, path string, body interface{}) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req)
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}

	data, err := c.do(req)
	if err != nil {
		return err
	}

	// Numbers are kept as written so block hashes still verify
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", req.URL, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var body struct {
			Error string `json:"error"`
		}
		message := strings.TrimSpace(string(data))
		if json.Unmarshal(data, &body) == nil && body.Error != "" {
			message = body.Error
		}
		return data, &StatusError{Code: resp.StatusCode, Message: message}
	}

	return data, nil
}
