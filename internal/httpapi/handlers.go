package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"waphone/internal/domain"
	"waphone/internal/phone"
	"waphone/internal/service"
	"waphone/internal/store"
	"waphone/internal/templates"
)

type Service interface {
	GenerateOTP(length int) (string, error)
	SendOTP(ctx context.Context, req domain.SendOTPRequest) (domain.DeliveryResult, error)
	NotifyOrderStatus(ctx context.Context, req domain.OrderStatusNotificationRequest) (domain.DeliveryResult, error)
	EnqueueOrderEvent(ctx context.Context, ev domain.OrderStatusEvent) (string, error)
	ListDeliveries(ctx context.Context, q store.AttemptQuery) ([]store.DeliveryAttempt, error)
}

type API struct {
	Svc        Service
	Normalizer *phone.Normalizer
	Codes      phone.DialCodes
	Renderer   *templates.Renderer
}

func (a *API) Register(r *mux.Router) {
	r.HandleFunc("/v1/otp", a.handleGenerateOTP).Methods(http.MethodPost)
	r.HandleFunc("/v1/otp/send", a.handleSendOTP).Methods(http.MethodPost)
	r.HandleFunc("/v1/notifications/order-status", a.handleOrderStatus).Methods(http.MethodPost)
	r.HandleFunc("/v1/order-events", a.handleEnqueueOrderEvent).Methods(http.MethodPost)
	r.HandleFunc("/v1/phone/normalize", a.handleNormalize).Methods(http.MethodPost)
	r.HandleFunc("/v1/phone/dial-codes/{country}", a.handleDialCode).Methods(http.MethodGet)
	r.HandleFunc("/v1/templates", a.handleTemplates).Methods(http.MethodGet)
	r.HandleFunc("/v1/templates/preview", a.handlePreview).Methods(http.MethodPost)
	r.HandleFunc("/v1/deliveries", a.handleDeliveries).Methods(http.MethodGet)
}

func (a *API) handleGenerateOTP(w http.ResponseWriter, r *http.Request) {
	var req domain.GenerateOTPRequest
	if !decode(w, r, &req, true) {
		return
	}
	code, err := a.Svc.GenerateOTP(req.Length)
	if err != nil {
		slog.Error("generate otp failed", "err", err)
		writeError(w, http.StatusInternalServerError, ErrDependency)
		return
	}
	writeJSON(w, http.StatusOK, domain.GenerateOTPResponse{Code: code})
}

func (a *API) handleSendOTP(w http.ResponseWriter, r *http.Request) {
	var req domain.SendOTPRequest
	if !decode(w, r, &req, false) {
		return
	}
	res, err := a.Svc.SendOTP(r.Context(), req)

	if req.Purpose == domain.PurposeForgotPassword {
		// The caller learns nothing about the account or the delivery.
		if err != nil {
			slog.Warn("password recovery otp not sent", "err", err)
		}
		writeJSON(w, http.StatusAccepted, domain.AckResponse{Message: recoveryAck})
		return
	}
	a.writeDelivery(w, res, err)
}

func (a *API) handleOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req domain.OrderStatusNotificationRequest
	if !decode(w, r, &req, false) {
		return
	}
	res, err := a.Svc.NotifyOrderStatus(r.Context(), req)
	a.writeDelivery(w, res, err)
}

func (a *API) writeDelivery(w http.ResponseWriter, res domain.DeliveryResult, err error) {
	switch {
	case errors.Is(err, domain.ErrEmptyCode):
		writeError(w, http.StatusUnprocessableEntity, ErrInvalidCode)
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusUnprocessableEntity, ErrInvalidPhone)
	case errors.Is(err, domain.ErrConfiguration):
		slog.Error("whatsapp provider misconfigured", "err", err)
		writeError(w, http.StatusInternalServerError, ErrProviderNotSet)
	case err != nil:
		slog.Error("dispatch failed", "err", err)
		writeError(w, http.StatusInternalServerError, ErrDependency)
	case !res.Succeeded:
		writeJSON(w, http.StatusBadGateway, res)
	default:
		writeJSON(w, http.StatusOK, res)
	}
}

func (a *API) handleEnqueueOrderEvent(w http.ResponseWriter, r *http.Request) {
	var ev domain.OrderStatusEvent
	if !decode(w, r, &ev, false) {
		return
	}
	id, err := a.Svc.EnqueueOrderEvent(r.Context(), ev)
	switch {
	case errors.Is(err, service.ErrQueueDisabled):
		writeError(w, http.StatusServiceUnavailable, ErrQueueUnavailable)
	case err != nil:
		slog.Error("enqueue order event failed", "err", err, "order_id", ev.OrderID, "status", ev.Status)
		writeError(w, http.StatusBadGateway, ErrDependency)
	default:
		writeJSON(w, http.StatusAccepted, domain.EnqueueResponse{EventID: id})
	}
}

func (a *API) handleNormalize(w http.ResponseWriter, r *http.Request) {
	var req domain.NormalizePhoneRequest
	if !decode(w, r, &req, false) {
		return
	}
	p, err := a.Normalizer.Normalize(req.Phone)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, domain.NormalizePhoneResponse{Phone: p})
}

func (a *API) handleDialCode(w http.ResponseWriter, r *http.Request) {
	country := strings.ToUpper(mux.Vars(r)["country"])
	writeJSON(w, http.StatusOK, domain.DialCodeResponse{Country: country, DialCode: a.Codes.Lookup(country)})
}

func (a *API) handleTemplates(w http.ResponseWriter, r *http.Request) {
	effective := make(map[string]string, len(templates.Statuses))
	for _, s := range templates.Statuses {
		effective[s] = a.Renderer.Template(s)
	}
	for s := range a.Renderer.Overrides {
		effective[s] = a.Renderer.Template(s)
	}
	writeJSON(w, http.StatusOK, domain.TemplatesResponse{
		Placeholders: templates.Placeholders,
		Defaults:     templates.Defaults(),
		Effective:    effective,
		Generic:      templates.GenericTemplate,
	})
}

func (a *API) handlePreview(w http.ResponseWriter, r *http.Request) {
	var req domain.TemplatePreviewRequest
	if !decode(w, r, &req, false) {
		return
	}
	writeJSON(w, http.StatusOK, domain.TemplatePreviewResponse{
		Template: a.Renderer.Template(req.Status),
		Body:     a.Renderer.Render(req.Status, req.Context),
	})
}

func (a *API) handleDeliveries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := store.AttemptQuery{
		Phone:    q.Get("phone"),
		Provider: q.Get("provider"),
		Status:   q.Get("status"),
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, ErrInvalidLimit)
			return
		}
		query.Limit = n
	}
	if query.Phone != "" {
		if p, err := a.Normalizer.Normalize(query.Phone); err == nil {
			query.Phone = p
		}
	}

	out, err := a.Svc.ListDeliveries(r.Context(), query)
	switch {
	case errors.Is(err, service.ErrAuditDisabled):
		writeError(w, http.StatusServiceUnavailable, ErrDeliveryLogDisabled)
	case err != nil:
		slog.Error("list deliveries failed", "err", err)
		writeError(w, http.StatusBadGateway, ErrDependency)
	default:
		if out == nil {
			out = []store.DeliveryAttempt{}
		}
		writeJSON(w, http.StatusOK, out)
	}
}
