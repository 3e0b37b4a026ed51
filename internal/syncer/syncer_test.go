package syncer

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liamcryan/ieuler/internal/models"
)

type roundTripperFunc func(req *http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// fakeCreds is an in-memory CredentialSource.
type fakeCreds struct {
	creds   *models.Credentials
	cookies map[string]string
}

func (f *fakeCreds) Credentials() (*models.Credentials, error) { return f.creds, nil }

func (f *fakeCreds) Cookies() (map[string]string, error) { return f.cookies, nil }

func newTestClient(rt roundTripperFunc) *Client {
	creds := &fakeCreds{
		creds:   &models.Credentials{Username: "euler", Password: "secret"},
		cookies: map[string]string{"PHPSESSID": "abc123"},
	}
	return NewWithHTTPClient("http://127.0.0.1:2718", creds, &http.Client{Transport: rt})
}

func jsonResponse(code int, body string) *http.Response {
	return &http.Response{
		StatusCode: code,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestPushThenPullRoundTrip(t *testing.T) {
	solved := true
	pushed := []models.SyncRecord{{
		ID:            7,
		Solved:        &solved,
		CorrectAnswer: "104743",
		CompletedOn:   "Sun, 31 Aug 2026, 10:15",
		Code:          map[string]models.CodeEntry{"python": {Filename: "7.py", FileContent: "print(104743)"}},
	}}

	// Stub peer: stores whatever is posted, serves it back on GET.
	var stored []byte
	c := newTestClient(func(req *http.Request) (*http.Response, error) {
		require.Equal(t, "/api/problems", req.URL.Path)

		user, pass, ok := req.BasicAuth()
		require.True(t, ok, "requests must carry basic auth")
		assert.Equal(t, "euler", user)
		var cookies map[string]string
		require.NoError(t, json.Unmarshal([]byte(pass), &cookies),
			"basic-auth password is the JSON cookie blob")
		assert.Equal(t, "abc123", cookies["PHPSESSID"])

		switch req.Method {
		case http.MethodPost:
			assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
			var err error
			stored, err = io.ReadAll(req.Body)
			require.NoError(t, err)
			return jsonResponse(http.StatusOK, string(stored)), nil
		case http.MethodGet:
			return jsonResponse(http.StatusOK, string(stored)), nil
		}
		t.Fatalf("unexpected method %s", req.Method)
		return nil, nil
	})

	_, err := c.Push(context.Background(), pushed)
	require.NoError(t, err)

	pulled, err := c.Pull(context.Background())
	require.NoError(t, err)
	assert.Equal(t, pushed, pulled, "pulled records match the pushed projection field for field")
}

func TestPull_Unauthorized(t *testing.T) {
	c := newTestClient(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusUnauthorized, ""), nil
	})

	_, err := c.Pull(context.Background())
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestPull_NoStoredCredentials(t *testing.T) {
	c := NewWithHTTPClient("http://127.0.0.1:2718", &fakeCreds{}, &http.Client{
		Transport: roundTripperFunc(func(req *http.Request) (*http.Response, error) {
			t.Fatal("no request expected without credentials")
			return nil, nil
		}),
	})

	_, err := c.Pull(context.Background())
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestPing_PeerUnreachable(t *testing.T) {
	c := newTestClient(func(req *http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	})

	err := c.Ping(context.Background())
	assert.ErrorIs(t, err, ErrPeerUnavailable)
}

func TestPush_PeerUnreachable(t *testing.T) {
	c := newTestClient(func(req *http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	})

	_, err := c.Push(context.Background(), []models.SyncRecord{{ID: 1}})
	assert.ErrorIs(t, err, ErrPeerUnavailable)
}

func TestPush_ServerError(t *testing.T) {
	c := newTestClient(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusInternalServerError, "boom"), nil
	})

	_, err := c.Push(context.Background(), []models.SyncRecord{{ID: 1}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}
