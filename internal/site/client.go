// Package site implements the puzzle-site protocol: session management,
// the human-solved challenge flow, the listing crawler and the answer
// submission workflow.
package site

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/liamcryan/ieuler/internal/config"
	"github.com/liamcryan/ieuler/internal/models"
)

// SessionStore is the subset of the persistent store the client needs:
// cookies survive restarts and credentials survive re-prompts.
type SessionStore interface {
	Cookies() (map[string]string, error)
	SaveCookies(map[string]string) error
	Credentials() (*models.Credentials, error)
	SaveCredentials(models.Credentials) error
}

// Client talks to the puzzle site through a cookie-jar-backed HTTP
// client. The jar is primed from the store at construction and written
// back after every successful authenticated operation.
type Client struct {
	baseURL         *url.URL
	http            *http.Client
	jar             http.CookieJar
	store           SessionStore
	prompter        Prompter
	log             *zap.Logger
	captchaAttempts int
}

// New creates a site client from the given configuration.
func New(cfg config.Client, store SessionStore, prompter Prompter, log *zap.Logger) (*Client, error) {
	if cfg.SiteURL == "" {
		return nil, errors.New("site url is required")
	}
	u, err := url.Parse(cfg.SiteURL)
	if err != nil {
		return nil, fmt.Errorf("invalid site url: %w", err)
	}
	u.Path = strings.TrimRight(u.Path, "/")

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}

	c := &Client{
		baseURL:         u,
		jar:             jar,
		store:           store,
		prompter:        prompter,
		log:             log,
		captchaAttempts: cfg.CaptchaAttempts,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Jar:     jar,
		},
	}
	if c.captchaAttempts < 1 {
		c.captchaAttempts = 1
	}

	cookies, err := store.Cookies()
	if err != nil {
		return nil, err
	}
	c.setCookies(cookies)

	return c, nil
}

// URL returns the base URL joined with path. path may use the site's
// "problem=N" pseudo-path form.
func (c *Client) URL(path string) string {
	if path == "" {
		return c.baseURL.String()
	}
	return c.baseURL.String() + "/" + strings.TrimPrefix(path, "/")
}

func (c *Client) problemURL(id int) string {
	return c.URL(fmt.Sprintf("problem=%d", id))
}

func (c *Client) setCookies(cookies map[string]string) {
	if len(cookies) == 0 {
		return
	}
	set := make([]*http.Cookie, 0, len(cookies))
	for name, value := range cookies {
		set = append(set, &http.Cookie{Name: name, Value: value})
	}
	c.jar.SetCookies(c.baseURL, set)
}

// persistSession writes the jar's current site cookies back to the store.
func (c *Client) persistSession() error {
	cookies := map[string]string{}
	for _, ck := range c.jar.Cookies(c.baseURL) {
		cookies[ck.Name] = ck.Value
	}
	return c.store.SaveCookies(cookies)
}

// get fetches rawURL and parses the response body. The returned URL is
// the final one after redirects, used to detect landing-page changes.
func (c *Client) get(ctx context.Context, rawURL string) (*goquery.Document, *url.URL, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("get %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("parse %s: %w", rawURL, err)
	}
	return doc, resp.Request.URL, nil
}

// postForm posts form data to rawURL, retrying transient connection
// failures with exponential backoff before giving up.
func (c *Client) postForm(ctx context.Context, rawURL string, data url.Values) (*goquery.Document, *url.URL, error) {
	var (
		doc      *goquery.Document
		finalURL *url.URL
	)
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, strings.NewReader(data.Encode()))
		if err != nil {
			return backoff.Permanent(fmt.Errorf("build request: %w", err))
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		resp, err := c.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			c.log.Warn("post failed, retrying", zap.String("url", rawURL), zap.Error(err))
			return err
		}
		defer resp.Body.Close()

		doc, err = goquery.NewDocumentFromReader(resp.Body)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("parse %s: %w", rawURL, err))
		}
		finalURL = resp.Request.URL
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, nil, fmt.Errorf("post %s: %w", rawURL, err)
	}
	return doc, finalURL, nil
}

// getBytes fetches rawURL and returns the raw response body.
func (c *Client) getBytes(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", rawURL, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rawURL, err)
	}
	return body, nil
}
