// Package orders turns order status events into WhatsApp notifications.
package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"waphone/internal/domain"
	"waphone/internal/phone"
	"waphone/internal/util"
)

const (
	dateLayout       = "Jan 02, 2006"
	fallbackCustomer = "Valued Customer"
)

type Result string

const (
	ResultSent         Result = "sent"
	ResultFailed       Result = "failed"
	ResultDisabled     Result = "skipped_disabled"
	ResultNoPhone      Result = "skipped_no_phone"
	ResultInvalidPhone Result = "skipped_invalid_phone"
	ResultError        Result = "error"
)

type Notifier interface {
	SendOrderStatus(ctx context.Context, phone string, vars map[string]string, status string) (domain.DeliveryResult, error)
}

type LinkBuilder interface {
	OrderLink(orderID string) string
}

// URLLinkBuilder appends the escaped order id to BaseURL.
type URLLinkBuilder struct {
	BaseURL string
}

func (b URLLinkBuilder) OrderLink(orderID string) string {
	if b.BaseURL == "" || orderID == "" {
		return ""
	}
	return strings.TrimRight(b.BaseURL, "/") + "/" + url.PathEscape(orderID)
}

type Deps struct {
	Notifier   Notifier
	Normalizer *phone.Normalizer
	Links      LinkBuilder
	// Enabled reports whether status changes to status are announced.
	Enabled func(status string) bool
	Now     func() time.Time
	Logger  *slog.Logger
}

type Handler struct {
	notifier   Notifier
	normalizer *phone.Normalizer
	links      LinkBuilder
	enabled    func(string) bool
	now        func() time.Time
	log        *slog.Logger
}

func NewHandler(d Deps) *Handler {
	h := &Handler{
		notifier:   d.Notifier,
		normalizer: d.Normalizer,
		links:      d.Links,
		enabled:    d.Enabled,
		now:        d.Now,
		log:        d.Logger,
	}
	if h.normalizer == nil {
		h.normalizer = phone.NewNormalizer(0, 0, "", nil)
	}
	if h.links == nil {
		h.links = URLLinkBuilder{}
	}
	if h.enabled == nil {
		h.enabled = func(string) bool { return true }
	}
	if h.now == nil {
		h.now = util.NowUTC
	}
	if h.log == nil {
		h.log = slog.Default()
	}
	return h
}

// Handle sends the notification for ev. Delivery problems are logged and
// reported through the Result; the event is never retried.
func (h *Handler) Handle(ctx context.Context, ev domain.OrderStatusEvent) Result {
	log := h.log.With("order_id", ev.DisplayID(), "status", ev.Status)
	if ev.OrderID == "" || ev.Status == "" || !h.enabled(ev.Status) {
		return ResultDisabled
	}

	raw := firstNonEmpty(ev.CustomerPhone, ev.ShippingPhone, ev.BillingPhone)
	if raw == "" {
		log.Info("no phone number available for order")
		return ResultNoPhone
	}
	to, err := h.normalizer.Normalize(raw)
	if err != nil {
		log.Warn("order phone number rejected", "err", err)
		return ResultInvalidPhone
	}

	res, err := h.notifier.SendOrderStatus(ctx, to, h.Vars(ev), ev.Status)
	switch {
	case err != nil:
		level := slog.LevelError
		if errors.Is(err, domain.ErrValidation) {
			level = slog.LevelWarn
		}
		log.Log(ctx, level, "order notification not sent", "err", err)
		return ResultError
	case !res.Succeeded:
		log.Warn("order notification failed", "provider", res.ProviderUsed, "detail", res.ErrorDetail)
		return ResultFailed
	}
	log.Info("order notification sent", "provider", res.ProviderUsed, "phone", util.MaskPhone(to))
	return ResultSent
}

// Vars builds the template placeholder values for ev.
func (h *Handler) Vars(ev domain.OrderStatusEvent) map[string]string {
	now := h.now()
	created := ev.CreatedAt
	if created.IsZero() {
		created = now
	}
	vars := map[string]string{
		"order_id":        ev.DisplayID(),
		"customer_name":   customerName(ev),
		"order_total":     formatTotal(ev.Currency, ev.GrandTotal),
		"order_date":      created.Format(dateLayout),
		"payment_method":  ev.PaymentMethod,
		"shipping_method": ev.ShippingDescription,
		"order_link":      h.links.OrderLink(ev.OrderID),
	}
	if (ev.Status == "shipped" || ev.Status == "complete") && len(ev.TrackingNumbers) > 0 {
		vars["tracking_number"] = ev.TrackingNumbers[0]
	}
	if ev.ShippingMethod != "" {
		vars["delivery_date"] = addWeekdays(now, deliveryDays(ev.ShippingMethod)).Format(dateLayout)
	}
	return vars
}

func customerName(ev domain.OrderStatusEvent) string {
	if ev.CustomerFirstName != "" {
		return strings.TrimSpace(ev.CustomerFirstName + " " + ev.CustomerLastName)
	}
	if billing := strings.TrimSpace(ev.BillingFirstName + " " + ev.BillingLastName); billing != "" {
		return billing
	}
	return fallbackCustomer
}

func formatTotal(currency string, total float64) string {
	if currency == "" {
		return fmt.Sprintf("%.2f", total)
	}
	return fmt.Sprintf("%s %.2f", currency, total)
}

func deliveryDays(method string) int {
	m := strings.ToLower(method)
	switch {
	case strings.Contains(m, "express"):
		return 1
	case strings.Contains(m, "priority"):
		return 2
	}
	return 3
}

// addWeekdays moves t forward by n days skipping Saturdays and Sundays.
func addWeekdays(t time.Time, n int) time.Time {
	for n > 0 {
		t = t.AddDate(0, 0, 1)
		if wd := t.Weekday(); wd != time.Saturday && wd != time.Sunday {
			n--
		}
	}
	return t
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
