package wati

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"

	"waphone/internal/phone"
	"waphone/internal/providers"
	"waphone/internal/secrets"
)

// Client posts session messages to a WATI tenant. Endpoint is the tenant
// base URL, e.g. https://live-server-1234.wati.io.
type Client struct {
	Endpoint string
	APIKey   string
	Secrets  secrets.Decrypter
	HTTP     *http.Client
}

type sendRequest struct {
	MessageText string `json:"messageText"`
}

func (c *Client) Name() providers.Name { return providers.WATI }

func (c *Client) Send(ctx context.Context, to, body string) providers.Outcome {
	if err := providers.Required(c.Endpoint); err != nil {
		return providers.Failed(err)
	}
	apiKey, err := providers.Reveal(c.Secrets, c.APIKey)
	if err != nil {
		return providers.Failed(err)
	}

	payload, err := json.Marshal(sendRequest{MessageText: body})
	if err != nil {
		return providers.Failed(err)
	}
	endpoint := strings.TrimRight(c.Endpoint, "/") + "/api/v1/sendSessionMessage/" + phone.Digits(to)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return providers.Failed(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	_, b, err := providers.Do(c.HTTP, req)
	if err != nil {
		return providers.Outcome{Raw: string(b), Err: err}
	}
	res := gjson.ParseBytes(b)
	if r := res.Get("result"); r.Type == gjson.True {
		return providers.Outcome{Success: true, Raw: string(b)}
	}
	return providers.Rejected(string(b), res.Get("message").String())
}
