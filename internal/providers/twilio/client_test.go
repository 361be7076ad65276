package twilio

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"waphone/internal/domain"
	"waphone/internal/providers"
)

func TestSendWhatsAppMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/2010-04-01/Accounts/AC123/Messages.json", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "AC123", user)
		assert.Equal(t, "auth", pass)

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "whatsapp:+14155238886", r.PostForm.Get("From"))
		assert.Equal(t, "whatsapp:+201001234567", r.PostForm.Get("To"))
		assert.Equal(t, "your code", r.PostForm.Get("Body"))

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"sid":"SM1","status":"queued"}`))
	}))
	defer srv.Close()

	c := &Client{AccountSID: "AC123", AuthToken: "auth", FromNumber: "+14155238886", HTTP: srv.Client(), BaseURL: srv.URL}
	out := c.Send(context.Background(), "+201001234567", "your code")
	require.NoError(t, out.Err)
	assert.True(t, out.Success)
}

func TestSendRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":21211,"message":"The 'To' number is not a valid phone number.","status":400}`))
	}))
	defer srv.Close()

	c := &Client{AccountSID: "AC1", AuthToken: "a", FromNumber: "+1", HTTP: srv.Client(), BaseURL: srv.URL}
	out := c.Send(context.Background(), "+201001234567", "x")
	assert.False(t, out.Success)
	assert.ErrorIs(t, out.Err, domain.ErrRejected)
	assert.Contains(t, out.Err.Error(), "not a valid phone number")
}

func TestSendMissingCredentials(t *testing.T) {
	for _, c := range []*Client{
		{AuthToken: "a", FromNumber: "+1"},
		{AccountSID: "AC", FromNumber: "+1"},
		{AccountSID: "AC", AuthToken: "a"},
	} {
		out := c.Send(context.Background(), "+201001234567", "x")
		assert.ErrorIs(t, out.Err, providers.ErrMissingCredentials)
	}
}
