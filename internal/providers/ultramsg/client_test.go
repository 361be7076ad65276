package ultramsg

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"waphone/internal/domain"
	"waphone/internal/providers"
	"waphone/internal/secrets"
)

func TestSendPostsFormAndDetectsMarker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/instance42/messages/chat", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "tok", r.PostForm.Get("token"))
		assert.Equal(t, "+201001234567", r.PostForm.Get("to"))
		assert.Equal(t, "hello", r.PostForm.Get("body"))
		_, _ = w.Write([]byte(`{"sent":"true","message":"ok","id":1}`))
	}))
	defer srv.Close()

	c := &Client{InstanceID: "instance42", Token: "tok", HTTP: srv.Client(), BaseURL: srv.URL}
	out := c.Send(context.Background(), "+201001234567", "hello")
	require.NoError(t, out.Err)
	assert.True(t, out.Success)
	assert.Contains(t, out.Raw, `"sent":"true"`)
}

func TestSendFailureResponses(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		detail string
	}{
		{name: "sent false", status: 200, body: `{"sent":"false"}`},
		{name: "sent boolean", status: 200, body: `{"sent":true}`},
		{name: "error field", status: 200, body: `{"error":"Wrong token. Please provide token"}`, detail: "Wrong token"},
		{name: "not json", status: 502, body: `<html>bad gateway</html>`},
		{name: "empty", status: 200, body: ``},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := &Client{InstanceID: "i", Token: "t", HTTP: srv.Client(), BaseURL: srv.URL}
			out := c.Send(context.Background(), "+201001234567", "x")
			assert.False(t, out.Success)
			assert.ErrorIs(t, out.Err, domain.ErrRejected)
			assert.Contains(t, out.Err.Error(), tt.detail)
		})
	}
}

func TestSendWithoutCredentialsMakesNoCall(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer srv.Close()

	for _, c := range []*Client{
		{InstanceID: "", Token: "t", BaseURL: srv.URL},
		{InstanceID: "i", Token: "", BaseURL: srv.URL},
	} {
		out := c.Send(context.Background(), "+201001234567", "x")
		assert.False(t, out.Success)
		assert.ErrorIs(t, out.Err, providers.ErrMissingCredentials)
	}
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestSendDecryptsTokenEachCall(t *testing.T) {
	box, err := secrets.NewBox("secret-key")
	require.NoError(t, err)
	enc, err := box.Encrypt("real-token")
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "real-token", r.PostForm.Get("token"))
		_, _ = w.Write([]byte(`{"sent":"true"}`))
	}))
	defer srv.Close()

	c := &Client{InstanceID: "i", Token: enc, Secrets: box, HTTP: srv.Client(), BaseURL: srv.URL}
	assert.True(t, c.Send(context.Background(), "+201001234567", "x").Success)

	c.Token = "not-a-ciphertext"
	out := c.Send(context.Background(), "+201001234567", "x")
	assert.False(t, out.Success)
	assert.ErrorIs(t, out.Err, providers.ErrUndecryptable)
}

func TestSendTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := srv.URL
	srv.Close()

	c := &Client{InstanceID: "i", Token: "t", BaseURL: base}
	out := c.Send(context.Background(), "+201001234567", "x")
	assert.False(t, out.Success)
	assert.ErrorIs(t, out.Err, domain.ErrTransport)
}
