// Package providers holds what the WhatsApp vendor adapters share: the
// fixed provider chain, the send outcome, and the credential and HTTP helpers.
package providers

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"waphone/internal/domain"
	"waphone/internal/secrets"
)

type Name string

const (
	UltraMsg  Name = "ultramsg"
	Dialog360 Name = "dialog360"
	WATI      Name = "wati"
	Twilio    Name = "twilio"
)

// Chain is the fallback order. It is read only.
var Chain = []Name{UltraMsg, Dialog360, WATI, Twilio}

const DefaultTimeout = 30 * time.Second

// maxResponseBytes bounds how much of a vendor response is kept.
const maxResponseBytes = 64 << 10

var (
	ErrMissingCredentials = fmt.Errorf("%w: credentials not configured", domain.ErrCredential)
	ErrUndecryptable      = fmt.Errorf("%w: failed to decrypt credential", domain.ErrCredential)
)

// Outcome is the result of a single adapter call. Success false with a nil
// Err never happens; Err always explains the failure.
type Outcome struct {
	Success bool
	Raw     string
	Err     error
}

// Sender is implemented by every vendor adapter. Send never panics on vendor
// input and never returns an error outside the Outcome.
type Sender interface {
	Name() Name
	Send(ctx context.Context, phone, body string) Outcome
}

func Parse(s string) (Name, bool) {
	n := Name(strings.ToLower(strings.TrimSpace(s)))
	for _, c := range Chain {
		if c == n {
			return n, true
		}
	}
	return "", false
}

// Next returns the successor of name in Chain. The last provider and names
// outside the chain have none.
func Next(name Name) (Name, bool) {
	for i, c := range Chain {
		if c == name && i < len(Chain)-1 {
			return Chain[i+1], true
		}
	}
	return "", false
}

func Failed(err error) Outcome { return Outcome{Err: err} }

// Rejected builds the outcome for a response without the success marker.
func Rejected(raw, detail string) Outcome {
	if detail == "" {
		detail = "success marker missing"
	}
	return Outcome{Raw: raw, Err: fmt.Errorf("%w: %s", domain.ErrRejected, detail)}
}

// Reveal decrypts a required credential field. Empty values fail before any
// decryption is attempted.
func Reveal(d secrets.Decrypter, value string) (string, error) {
	if value == "" {
		return "", ErrMissingCredentials
	}
	if d == nil {
		d = secrets.Plain{}
	}
	plain, err := d.Decrypt(value)
	if err != nil || plain == "" {
		return "", ErrUndecryptable
	}
	return plain, nil
}

// Required reports ErrMissingCredentials when any plain field is empty.
func Required(values ...string) error {
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			return ErrMissingCredentials
		}
	}
	return nil
}

// NewHTTPClient returns a client with a bounded timeout. insecureTLS skips
// certificate verification and is meant for self-hosted gateways only.
func NewHTTPClient(timeout time.Duration, insecureTLS bool) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if insecureTLS {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
	}
	return &http.Client{Timeout: timeout, Transport: transport}
}

// Do executes req and returns the (bounded) response body. Network failures
// are wrapped with domain.ErrTransport. Non-2xx statuses are not errors here;
// vendors report failures in the body and the caller checks the marker.
func Do(client *http.Client, req *http.Request) (int, []byte, error) {
	if client == nil {
		client = NewHTTPClient(DefaultTimeout, false)
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", domain.ErrTransport, err)
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return resp.StatusCode, b, fmt.Errorf("%w: read body: %v", domain.ErrTransport, err)
	}
	return resp.StatusCode, b, nil
}

// IsCredentialError reports whether an outcome failed before any network call.
func IsCredentialError(err error) bool { return errors.Is(err, domain.ErrCredential) }
