// Package syncer exchanges catalog subsets with the companion server.
// Requests carry basic auth built from the site username and the
// JSON-serialized session cookies; the peer treats the cookie blob as a
// one-time bearer token, not a password.
package syncer

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

	"github.com/liamcryan/ieuler/internal/models"
)

// ErrPeerUnavailable reports that the companion server cannot be
// reached. Callers treat it as "sync skipped", never as fatal to the
// primary workflow.
var ErrPeerUnavailable = errors.New("companion server unavailable")

// ErrUnauthorized reports that the peer rejected the credentials.
var ErrUnauthorized = errors.New("login to companion server unsuccessful")

// CredentialSource supplies the identity used to authenticate with the
// peer: the site username and the current session cookie map.
type CredentialSource interface {
	Credentials() (*models.Credentials, error)
	Cookies() (map[string]string, error)
}

// Client is the remote sync client.
type Client struct {
	baseURL string
	http    *http.Client
	creds   CredentialSource
}

// New returns a sync client for the companion server at baseURL.
func New(baseURL string, creds CredentialSource) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
		creds:   creds,
	}
}

// NewWithHTTPClient returns a sync client using the given http.Client,
// letting tests stub the transport.
func NewWithHTTPClient(baseURL string, creds CredentialSource, httpClient *http.Client) *Client {
	c := New(baseURL, creds)
	c.http = httpClient
	return c
}

// basicAuth builds the username/password pair for the peer.
func (c *Client) basicAuth() (string, string, error) {
	creds, err := c.creds.Credentials()
	if err != nil {
		return "", "", err
	}
	if creds == nil {
		return "", "", fmt.Errorf("no stored credentials: %w", ErrUnauthorized)
	}
	cookies, err := c.creds.Cookies()
	if err != nil {
		return "", "", err
	}
	blob, err := json.Marshal(cookies)
	if err != nil {
		return "", "", fmt.Errorf("serialize cookies: %w", err)
	}
	return creds.Username, string(blob), nil
}

func (c *Client) do(ctx context.Context, method string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/api/problems", body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	user, pass, err := c.basicAuth()
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(user, pass)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPeerUnavailable, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode == http.StatusUnauthorized {
		return nil, fmt.Errorf("%s: %w", c.baseURL, ErrUnauthorized)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("companion server error %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}
	return payload, nil
}

// Ping fails fast with ErrPeerUnavailable when the peer is unreachable,
// letting callers skip sync instead of blocking.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPeerUnavailable, err)
	}
	resp.Body.Close()
	return nil
}

// Pull fetches the peer's stored records for this identity.
func (c *Client) Pull(ctx context.Context) ([]models.SyncRecord, error) {
	payload, err := c.do(ctx, http.MethodGet, nil)
	if err != nil {
		return nil, err
	}
	var records []models.SyncRecord
	if err := json.Unmarshal(payload, &records); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return records, nil
}

// Push sends the filtered catalog projection to the peer and returns
// the peer's response body, opaque to this client.
func (c *Client) Push(ctx context.Context, records []models.SyncRecord) ([]byte, error) {
	body, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("encode records: %w", err)
	}
	return c.do(ctx, http.MethodPost, bytes.NewReader(body))
}
