package templates

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var tokenPattern = regexp.MustCompile(`\{\{[a-z_]+\}\}`)

func fullContext() map[string]string {
	return map[string]string{
		"order_id":        "100000042",
		"customer_name":   "Mona Adel",
		"order_total":     "EGP 1250.00",
		"tracking_number": "TRK-9",
		"order_date":      "Mar 03, 2026",
		"delivery_date":   "Mar 06, 2026",
		"payment_method":  "Cash On Delivery",
		"shipping_method": "Flat Rate",
		"order_link":      "https://shop.example/sales/order/view/order_id/42",
	}
}

func TestRenderBuiltInStatuses(t *testing.T) {
	r := &Renderer{BusinessName: "Shop", SupportPhone: "+20221234567"}

	for _, status := range Statuses {
		got := r.Render(status, fullContext())
		assert.Contains(t, got, "#100000042", status)
		assert.Contains(t, got, "Mona Adel", status)
		assert.Empty(t, tokenPattern.FindAllString(got, -1), status)
	}
}

func TestRenderEveryPlaceholder(t *testing.T) {
	r := &Renderer{
		Overrides: map[string]string{
			"shipped": "{{order_id}}|{{customer_name}}|{{order_total}}|{{tracking_number}}|{{business_name}}|{{support_phone}}|" +
				"{{order_date}}|{{delivery_date}}|{{payment_method}}|{{shipping_method}}|{{order_status}}|{{order_link}}",
		},
		BusinessName: "Shop",
		SupportPhone: "+20221234567",
	}

	got := r.Render("shipped", fullContext())
	assert.Equal(t, "100000042|Mona Adel|EGP 1250.00|TRK-9|Shop|+20221234567|Mar 03, 2026|Mar 06, 2026|"+
		"Cash On Delivery|Flat Rate|Shipped|https://shop.example/sales/order/view/order_id/42", got)
}

func TestRenderMissingValuesBecomeEmpty(t *testing.T) {
	r := &Renderer{Overrides: map[string]string{"shipped": "Tracking: [{{tracking_number}}] by {{shipping_method}}"}}

	assert.Equal(t, "Tracking: [] by ", r.Render("shipped", nil))
}

func TestRenderWithoutTokensIsIdentity(t *testing.T) {
	body := "Thanks for shopping with us. {not a token} {{ spaced }}"
	r := &Renderer{Overrides: map[string]string{"complete": body}}

	assert.Equal(t, body, r.Render("complete", fullContext()))
	assert.Equal(t, body, r.Substitute(body, "complete", fullContext()))
}

func TestRenderIsNotRecursive(t *testing.T) {
	r := &Renderer{Overrides: map[string]string{"pending": "Hi {{customer_name}}"}}

	got := r.Render("pending", map[string]string{"customer_name": "{{order_id}}", "order_id": "7"})
	assert.Equal(t, "Hi {{order_id}}", got)
}

func TestRenderUnknownStatusUsesGeneric(t *testing.T) {
	r := &Renderer{}

	got := r.Render("awaiting_pickup", map[string]string{"order_id": "55"})
	assert.Equal(t, "Order #55 status: Awaiting_pickup", got)
}

func TestRenderBlankOverrideFallsBackToDefault(t *testing.T) {
	r := &Renderer{Overrides: map[string]string{"pending": "   "}}

	got := r.Render("pending", map[string]string{"order_id": "1", "customer_name": "A"})
	assert.Equal(t, "Hello A, your order #1 has been received.", got)
}

func TestRenderBusinessFieldsComeFromRenderer(t *testing.T) {
	r := &Renderer{
		Overrides:    map[string]string{"complete": "{{business_name}} {{support_phone}}"},
		BusinessName: "Shop",
		SupportPhone: "123",
	}

	got := r.Render("complete", map[string]string{"business_name": "Other", "support_phone": "999"})
	assert.Equal(t, "Shop 123", got)
}

func TestDefaultsReturnsCopy(t *testing.T) {
	d := Defaults()
	require.Len(t, d, len(Statuses))
	d["pending"] = "changed"
	assert.NotEqual(t, "changed", DefaultFor("pending"))
}

func TestUpperFirst(t *testing.T) {
	assert.Equal(t, "", upperFirst(""))
	assert.Equal(t, "Pending", upperFirst("pending"))
	assert.Equal(t, "Élan", upperFirst("élan"))
}

func TestOTPMessage(t *testing.T) {
	tests := []struct {
		purpose string
		prefix  string
	}{
		{"registration", "Your registration OTP code is: 482913."},
		{"forgot_password", "Your password reset OTP code is: 482913."},
		{"change_phone", "Your phone number change OTP code is: 482913."},
		{"something_else", "Your OTP code is: 482913."},
		{"", "Your OTP code is: 482913."},
	}
	for _, tt := range tests {
		got := OTPMessage("482913", tt.purpose, 5)
		assert.True(t, strings.HasPrefix(got, tt.prefix), got)
		assert.True(t, strings.HasSuffix(got, "This code will expire in 5 minutes."), got)
	}
}
