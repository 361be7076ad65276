package dialog360

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

const defaultBaseURL = "https://waba.360dialog.io"

type Client struct {
	APIKey  string
	Secrets secrets.Decrypter
	HTTP    *http.Client
	BaseURL string
}

type textBody struct {
	Body string `json:"body"`
}

type sendRequest struct {
	To   string   `json:"to"`
	Type string   `json:"type"`
	Text textBody `json:"text"`
}

func (c *Client) Name() providers.Name { return providers.Dialog360 }

func (c *Client) Send(ctx context.Context, to, body string) providers.Outcome {
	apiKey, err := providers.Reveal(c.Secrets, c.APIKey)
	if err != nil {
		return providers.Failed(err)
	}

	payload, err := json.Marshal(sendRequest{To: phone.Digits(to), Type: "text", Text: textBody{Body: body}})
	if err != nil {
		return providers.Failed(err)
	}
	baseURL := strings.TrimRight(c.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/v1/messages", bytes.NewReader(payload))
	if err != nil {
		return providers.Failed(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("D360-API-KEY", apiKey)

	_, b, err := providers.Do(c.HTTP, req)
	if err != nil {
		return providers.Outcome{Raw: string(b), Err: err}
	}
	res := gjson.ParseBytes(b)
	if id := res.Get("messages.0.id"); id.Exists() && id.String() != "" {
		return providers.Outcome{Success: true, Raw: string(b)}
	}
	return providers.Rejected(string(b), res.Get("errors").Raw)
}
