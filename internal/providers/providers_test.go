package providers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"waphone/internal/domain"
	"waphone/internal/secrets"
)

func TestNextMakesOneHopForward(t *testing.T) {
	tests := []struct {
		from Name
		want Name
		ok   bool
	}{
		{UltraMsg, Dialog360, true},
		{Dialog360, WATI, true},
		{WATI, Twilio, true},
		{Twilio, "", false},
		{Name("telegram"), "", false},
	}
	for _, tt := range tests {
		got, ok := Next(tt.from)
		assert.Equal(t, tt.ok, ok, tt.from)
		assert.Equal(t, tt.want, got, tt.from)
	}
}

func TestParse(t *testing.T) {
	n, ok := Parse(" UltraMsg ")
	assert.True(t, ok)
	assert.Equal(t, UltraMsg, n)

	_, ok = Parse("")
	assert.False(t, ok)
	_, ok = Parse("sms")
	assert.False(t, ok)
}

type brokenDecrypter struct{}

func (brokenDecrypter) Decrypt(string) (string, error) { return "", secrets.ErrUndecryptable }

func TestReveal(t *testing.T) {
	_, err := Reveal(nil, "")
	assert.ErrorIs(t, err, ErrMissingCredentials)
	assert.ErrorIs(t, err, domain.ErrCredential)

	v, err := Reveal(nil, "plain")
	require.NoError(t, err)
	assert.Equal(t, "plain", v)

	_, err = Reveal(brokenDecrypter{}, "cipher")
	assert.ErrorIs(t, err, ErrUndecryptable)
	assert.True(t, IsCredentialError(err))

	box, err := secrets.NewBox("k")
	require.NoError(t, err)
	enc, err := box.Encrypt("token-1")
	require.NoError(t, err)
	v, err = Reveal(box, enc)
	require.NoError(t, err)
	assert.Equal(t, "token-1", v)
}

func TestRequired(t *testing.T) {
	assert.NoError(t, Required("a", "b"))
	assert.ErrorIs(t, Required("a", " "), ErrMissingCredentials)
}

func TestRejectedWrapsDetail(t *testing.T) {
	o := Rejected(`{"error":"bad token"}`, "bad token")
	assert.False(t, o.Success)
	assert.ErrorIs(t, o.Err, domain.ErrRejected)
	assert.Contains(t, o.Err.Error(), "bad token")

	o = Rejected("", "")
	assert.Contains(t, o.Err.Error(), "success marker missing")
}

func TestDoTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	req, err := http.NewRequest(http.MethodPost, url, nil)
	require.NoError(t, err)
	_, _, err = Do(NewHTTPClient(0, false), req)
	assert.True(t, errors.Is(err, domain.ErrTransport))
}

func TestDoReturnsBodyForNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"nope"}`))
	}))
	defer srv.Close()

	req, err := http.NewRequest(http.MethodPost, srv.URL, nil)
	require.NoError(t, err)
	status, body, err := Do(srv.Client(), req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.JSONEq(t, `{"message":"nope"}`, string(body))
}

func TestNewHTTPClient(t *testing.T) {
	c := NewHTTPClient(0, true)
	assert.Equal(t, DefaultTimeout, c.Timeout)
	tr, ok := c.Transport.(*http.Transport)
	require.True(t, ok)
	assert.True(t, tr.TLSClientConfig.InsecureSkipVerify)

	c = NewHTTPClient(0, false)
	tr = c.Transport.(*http.Transport)
	if tr.TLSClientConfig != nil {
		assert.False(t, tr.TLSClientConfig.InsecureSkipVerify)
	}
}
