package site

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/liamcryan/ieuler/internal/config"
	"github.com/liamcryan/ieuler/internal/models"
)

// roundTripperFunc lets tests stub the http.Client transport.
type roundTripperFunc func(req *http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := f(req)
	if resp != nil && resp.Request == nil {
		// Real transports attach the request to the response; the
		// client relies on it for redirect resolution and final URLs.
		resp.Request = req
	}
	return resp, err
}

// fakeSession is an in-memory SessionStore that counts writes.
type fakeSession struct {
	cookies      map[string]string
	creds        *models.Credentials
	cookieWrites int
	credWrites   int
}

func (f *fakeSession) Cookies() (map[string]string, error) {
	if f.cookies == nil {
		return map[string]string{}, nil
	}
	return f.cookies, nil
}

func (f *fakeSession) SaveCookies(cookies map[string]string) error {
	f.cookies = cookies
	f.cookieWrites++
	return nil
}

func (f *fakeSession) Credentials() (*models.Credentials, error) { return f.creds, nil }

func (f *fakeSession) SaveCredentials(creds models.Credentials) error {
	f.creds = &creds
	f.credWrites++
	return nil
}

// fakePrompter answers every prompt with fixed values.
type fakePrompter struct {
	code        string
	confirm     bool
	imagesShown int
}

func (f *fakePrompter) Confirm(string) bool { return f.confirm }

func (f *fakePrompter) Prompt(string) (string, error) { return f.code, nil }

func (f *fakePrompter) Password(string) (string, error) { return f.code, nil }

func (f *fakePrompter) ShowImage([]byte, string) error {
	f.imagesShown++
	return nil
}

func newTestSite(t *testing.T, rt roundTripperFunc, st *fakeSession, pr *fakePrompter) *Client {
	t.Helper()
	cfg := config.Client{SiteURL: "https://projecteuler.net", CaptchaAttempts: 3}
	c, err := New(cfg, st, pr, zap.NewNop())
	require.NoError(t, err)
	c.http.Transport = rt
	return c
}

func htmlResponse(body string) *http.Response {
	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{"Content-Type": []string{"text/html; charset=UTF-8"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func redirectResponse(location string) *http.Response {
	return &http.Response{
		StatusCode: http.StatusFound,
		Header:     http.Header{"Location": []string{location}},
		Body:       io.NopCloser(strings.NewReader("")),
	}
}

func bytesResponse(b []byte) *http.Response {
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(bytes.NewReader(b)),
	}
}

// captchaImage returns a minimal valid GIF, the format the challenge
// endpoint serves.
func captchaImage(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	img := image.NewPaletted(image.Rect(0, 0, 1, 1), color.Palette{color.Black})
	require.NoError(t, gif.Encode(&buf, img, nil))
	return buf.Bytes()
}

const anonymousHome = `<html><body><div id="info_panel">Sign In</div></body></html>`

const authenticatedHome = `<html><body><div id="info_panel"><strong>euler</strong></div></body></html>`
