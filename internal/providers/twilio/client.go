package twilio

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

const defaultBaseURL = "https://api.twilio.com"

// Client sends WhatsApp messages through the Twilio Messages API. FromNumber
// is the WhatsApp-enabled sender without the "whatsapp:" prefix.
type Client struct {
	AccountSID string
	AuthToken  string
	FromNumber string
	Secrets    secrets.Decrypter
	HTTP       *http.Client
	BaseURL    string
}

func (c *Client) Name() providers.Name { return providers.Twilio }

func (c *Client) Send(ctx context.Context, to, body string) providers.Outcome {
	if err := providers.Required(c.AccountSID, c.FromNumber); err != nil {
		return providers.Failed(err)
	}
	authToken, err := providers.Reveal(c.Secrets, c.AuthToken)
	if err != nil {
		return providers.Failed(err)
	}

	form := url.Values{}
	form.Set("From", "whatsapp:"+c.FromNumber)
	form.Set("To", "whatsapp:+"+phone.Digits(to))
	form.Set("Body", body)

	baseURL := strings.TrimRight(c.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	endpoint := baseURL + "/2010-04-01/Accounts/" + url.PathEscape(c.AccountSID) + "/Messages.json"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return providers.Failed(err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.AccountSID, authToken)

	// Twilio answers 201 with the created message; the sid is the marker.
	_, b, err := providers.Do(c.HTTP, req)
	if err != nil {
		return providers.Outcome{Raw: string(b), Err: err}
	}
	res := gjson.ParseBytes(b)
	if sid := res.Get("sid"); sid.Exists() && sid.String() != "" {
		return providers.Outcome{Success: true, Raw: string(b)}
	}
	return providers.Rejected(string(b), res.Get("message").String())
}
