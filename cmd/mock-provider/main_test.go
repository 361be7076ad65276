package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"waphone/internal/config"
	"waphone/internal/dispatch"
	"waphone/internal/domain"
	"waphone/internal/providers"
	"waphone/internal/providers/dialog360"
	"waphone/internal/providers/twilio"
	"waphone/internal/providers/ultramsg"
	"waphone/internal/providers/wati"
)

func startMock(t *testing.T, cfg config.MockProviderConfig) (*server, string) {
	t.Helper()
	s := newServer(cfg)
	ts := httptest.NewServer(s.routes())
	t.Cleanup(ts.Close)
	return s, ts.URL
}

func senders(base string) []providers.Sender {
	return []providers.Sender{
		&ultramsg.Client{InstanceID: "instance1", Token: "tok", BaseURL: base},
		&dialog360.Client{APIKey: "key", BaseURL: base},
		&wati.Client{Endpoint: base, APIKey: "key"},
		&twilio.Client{AccountSID: "AC123", AuthToken: "secret", FromNumber: "+14155238886", BaseURL: base},
	}
}

func TestAdaptersSucceedAgainstMock(t *testing.T) {
	_, base := startMock(t, config.MockProviderConfig{})
	for _, s := range senders(base) {
		t.Run(string(s.Name()), func(t *testing.T) {
			out := s.Send(context.Background(), "+201001234567", "hello")
			assert.True(t, out.Success, out.Raw)
			assert.NoError(t, out.Err)
		})
	}
}

func TestAdaptersRejectedByMock(t *testing.T) {
	_, base := startMock(t, config.MockProviderConfig{
		UltraMsgOutcome:  "reject",
		Dialog360Outcome: "reject",
		WatiOutcome:      "reject",
		TwilioOutcome:    "reject",
	})
	for _, s := range senders(base) {
		t.Run(string(s.Name()), func(t *testing.T) {
			out := s.Send(context.Background(), "+201001234567", "hello")
			assert.False(t, out.Success)
			assert.ErrorIs(t, out.Err, domain.ErrRejected)
		})
	}
}

func TestDispatcherFallsBackThroughMock(t *testing.T) {
	s, base := startMock(t, config.MockProviderConfig{WatiOutcome: "error"})
	d := dispatch.New(dispatch.Options{Primary: "wati"}, senders(base)...)

	res, err := d.Send(context.Background(), domain.OutboundMessage{ID: "m1", DestinationPhone: "+201001234567", Body: "hi"})
	require.NoError(t, err)
	assert.True(t, res.Succeeded)
	assert.Equal(t, "twilio", res.ProviderUsed)

	s.mu.Lock()
	s.outcomes[providers.Twilio] = outcomeReject
	s.mu.Unlock()

	res, err = d.Send(context.Background(), domain.OutboundMessage{ID: "m2", DestinationPhone: "+201001234567", Body: "hi"})
	require.NoError(t, err)
	assert.False(t, res.Succeeded)
	assert.Equal(t, "twilio", res.ProviderUsed)
}

func TestSetOutcome(t *testing.T) {
	s, base := startMock(t, config.MockProviderConfig{})

	req, err := http.NewRequest(http.MethodPut, base+"/_mock/outcomes/dialog360/reject", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, outcomeReject, s.outcome(providers.Dialog360))

	req, err = http.NewRequest(http.MethodPut, base+"/_mock/outcomes/dialog360/explode", nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	req, err = http.NewRequest(http.MethodPut, base+"/_mock/outcomes/telegram/ok", nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSlowOutcomeHitsClientTimeout(t *testing.T) {
	_, base := startMock(t, config.MockProviderConfig{UltraMsgOutcome: "slow", SlowDelay: 2 * time.Second})
	c := &ultramsg.Client{
		InstanceID: "instance1",
		Token:      "tok",
		BaseURL:    base,
		HTTP:       providers.NewHTTPClient(100*time.Millisecond, false),
	}
	out := c.Send(context.Background(), "+201001234567", "hello")
	assert.False(t, out.Success)
	assert.ErrorIs(t, out.Err, domain.ErrTransport)
}

func TestNormalizeOutcome(t *testing.T) {
	assert.Equal(t, outcomeOK, normalizeOutcome(""))
	assert.Equal(t, outcomeSlow, normalizeOutcome(" SLOW "))
	assert.Equal(t, outcomeOK, normalizeOutcome("weird"))
}
