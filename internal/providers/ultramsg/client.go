package ultramsg

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"

	"waphone/internal/phone"
	"waphone/internal/providers"
	"waphone/internal/secrets"
)

const defaultBaseURL = "https://api.ultramsg.com"

// Client sends chat messages through an UltraMsg instance. Token is the
// stored (possibly encrypted) value and is decrypted on every send.
type Client struct {
	InstanceID string
	Token      string
	Secrets    secrets.Decrypter
	HTTP       *http.Client
	BaseURL    string
}

func (c *Client) Name() providers.Name { return providers.UltraMsg }

func (c *Client) Send(ctx context.Context, to, body string) providers.Outcome {
	if err := providers.Required(c.InstanceID); err != nil {
		return providers.Failed(err)
	}
	token, err := providers.Reveal(c.Secrets, c.Token)
	if err != nil {
		return providers.Failed(err)
	}

	form := url.Values{}
	form.Set("token", token)
	form.Set("to", "+"+phone.Digits(to))
	form.Set("body", body)

	baseURL := strings.TrimRight(c.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	endpoint := baseURL + "/" + url.PathEscape(c.InstanceID) + "/messages/chat"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return providers.Failed(err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	_, b, err := providers.Do(c.HTTP, req)
	if err != nil {
		return providers.Outcome{Raw: string(b), Err: err}
	}
	res := gjson.ParseBytes(b)
	// The marker is the string "true"; a JSON boolean does not count.
	if sent := res.Get("sent"); sent.Type == gjson.String && sent.Str == "true" {
		return providers.Outcome{Success: true, Raw: string(b)}
	}
	return providers.Rejected(string(b), res.Get("error").String())
}
