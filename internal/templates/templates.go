// Package templates renders WhatsApp message bodies for order-status changes and one-time codes.
package templates

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Placeholders is the fixed set of tokens substituted in order-status templates.
var Placeholders = []string{
	"order_id",
	"customer_name",
	"order_total",
	"tracking_number",
	"business_name",
	"support_phone",
	"order_date",
	"delivery_date",
	"payment_method",
	"shipping_method",
	"order_status",
	"order_link",
}

// GenericTemplate is used for statuses without an override or built-in body.
const GenericTemplate = "Order #{{order_id}} status: {{order_status}}"

var defaultTemplates = map[string]string{
	"pending":    "Hello {{customer_name}}, your order #{{order_id}} has been received.",
	"processing": "Hello {{customer_name}}, your order #{{order_id}} is being processed.",
	"complete":   "Hello {{customer_name}}, your order #{{order_id}} has been completed.",
	"canceled":   "Hello {{customer_name}}, your order #{{order_id}} has been canceled.",
	"holded":     "Hello {{customer_name}}, your order #{{order_id}} is on hold.",
	"shipped":    "Hello {{customer_name}}, your order #{{order_id}} has been shipped!",
	"refunded":   "Hello {{customer_name}}, your order #{{order_id}} has been refunded.",
}

// Statuses lists the order statuses with a built-in template.
var Statuses = []string{"pending", "processing", "complete", "canceled", "holded", "shipped", "refunded"}

// Defaults returns a copy of the built-in status templates.
func Defaults() map[string]string {
	out := make(map[string]string, len(defaultTemplates))
	for k, v := range defaultTemplates {
		out[k] = v
	}
	return out
}

// DefaultFor returns the built-in body for status, or GenericTemplate.
func DefaultFor(status string) string {
	if body, ok := defaultTemplates[status]; ok {
		return body
	}
	return GenericTemplate
}

type Renderer struct {
	// Overrides holds admin-configured bodies keyed by status. Empty values are ignored.
	Overrides    map[string]string
	BusinessName string
	SupportPhone string
}

// Template resolves the body used for status before substitution.
func (r *Renderer) Template(status string) string {
	if body := strings.TrimSpace(r.Overrides[status]); body != "" {
		return r.Overrides[status]
	}
	return DefaultFor(status)
}

// Render builds the order-status message for status using values from ctx.
func (r *Renderer) Render(status string, ctx map[string]string) string {
	return r.Substitute(r.Template(status), status, ctx)
}

// Substitute replaces every known placeholder in body in a single pass. Values are inserted literally
// and are never rescanned, and missing values become empty strings. Unknown tokens are left alone.
func (r *Renderer) Substitute(body, status string, ctx map[string]string) string {
	values := make(map[string]string, len(Placeholders))
	for _, name := range Placeholders {
		values[name] = ctx[name]
	}
	values["business_name"] = r.BusinessName
	values["support_phone"] = r.SupportPhone
	values["order_status"] = upperFirst(status)

	pairs := make([]string, 0, 2*len(Placeholders))
	for _, name := range Placeholders {
		pairs = append(pairs, "{{"+name+"}}", values[name])
	}
	return strings.NewReplacer(pairs...).Replace(body)
}

func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
