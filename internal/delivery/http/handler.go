package http

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/piyushdan-dataslush/bms-analytics/internal/models"
	"github.com/piyushdan-dataslush/bms-analytics/internal/service"
	pkgErrors "github.com/piyushdan-dataslush/bms-analytics/pkg/errors"
	"github.com/piyushdan-dataslush/bms-analytics/pkg/logger"
	"github.com/piyushdan-dataslush/bms-analytics/pkg/response"
)

const (
	serviceName      = "occupancy-service"
	defaultJobsLimit = 50
	maxBodyBytes     = 1 << 20
)

type HTTPHandler struct {
	scheduler  service.CampaignScheduler
	batch      service.BatchService
	trigger    service.TriggerService
	shows      service.ShowService
	dispatcher service.JobDispatcher
	logger     logger.Logger
	validator  *validator.Validate
}

func NewHTTPHandler(
	scheduler service.CampaignScheduler,
	batch service.BatchService,
	trigger service.TriggerService,
	shows service.ShowService,
	dispatcher service.JobDispatcher,
	logger logger.Logger,
) *HTTPHandler {
	return &HTTPHandler{
		scheduler:  scheduler,
		batch:      batch,
		trigger:    trigger,
		shows:      shows,
		dispatcher: dispatcher,
		logger:     logger,
		validator:  validator.New(),
	}
}

// HealthCheck handles health check requests
func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, r, http.StatusOK, map[string]any{
		"status":  "healthy",
		"service": serviceName,
	})
}

// BootstrapCampaign schedules the first day of a campaign and returns
// without waiting for it to run.
func (h *HTTPHandler) BootstrapCampaign(w http.ResponseWriter, r *http.Request) {
	var req service.BootstrapInput
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		h.respondError(w, r, pkgErrors.ErrInvalidBody, err)
		return
	}
	req.EventID = models.NormalizeEventID(req.EventID)

	if err := h.validator.Struct(req); err != nil {
		h.respondError(w, r, pkgErrors.ErrValidation, err)
		return
	}

	out, err := h.scheduler.Bootstrap(r.Context(), req)
	if err != nil {
		h.respondError(w, r, mapError(err), err)
		return
	}

	h.respondJSON(w, r, http.StatusAccepted, out)
}

// pushEnvelope is the push-subscription body wrapping a base64 payload.
type pushEnvelope struct {
	Message *struct {
		Data string `json:"data"`
	} `json:"message"`
}

// decodeBatchInput accepts a bare BatchInput or one wrapped in a push envelope.
func decodeBatchInput(body []byte) (service.BatchInput, error) {
	var in service.BatchInput

	var env pushEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return in, err
	}
	if env.Message != nil && env.Message.Data != "" {
		data, err := base64.StdEncoding.DecodeString(env.Message.Data)
		if err != nil {
			return in, fmt.Errorf("envelope data: %w", err)
		}
		body = data
	}

	if err := json.Unmarshal(body, &in); err != nil {
		return in, err
	}
	in.EventID = models.NormalizeEventID(in.EventID)
	return in, nil
}

// ProcessCity runs a one-off capture batch for a city.
func (h *HTTPHandler) ProcessCity(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		h.respondError(w, r, pkgErrors.ErrInvalidBody, err)
		return
	}

	req, err := decodeBatchInput(body)
	if err != nil {
		h.respondError(w, r, pkgErrors.ErrInvalidBody, err)
		return
	}

	if err := h.validator.Struct(req); err != nil {
		h.respondError(w, r, pkgErrors.ErrValidation, err)
		return
	}

	out, err := h.batch.ProcessCity(r.Context(), req)
	if err != nil {
		h.respondError(w, r, mapError(err), err)
		return
	}

	h.respondJSON(w, r, http.StatusOK, out)
}

// TriggerOnDemand queues a city batch for one event and returns at once.
// Fields come from a JSON body, query parameters override them.
func (h *HTTPHandler) TriggerOnDemand(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		h.respondError(w, r, pkgErrors.ErrInvalidBody, err)
		return
	}

	var req service.TriggerInput
	if len(strings.TrimSpace(string(body))) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			h.respondError(w, r, pkgErrors.ErrInvalidBody, err)
			return
		}
	}

	q := r.URL.Query()
	if v := q.Get("event_id"); v != "" {
		req.EventID = v
	}
	if v := q.Get("city"); v != "" {
		req.City = v
	}
	if v := q.Get("date"); v != "" {
		req.Date = v
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			h.respondError(w, r, pkgErrors.ErrValidation, fmt.Errorf("invalid limit %q", v))
			return
		}
		req.Limit = n
	}
	req.EventID = models.NormalizeEventID(req.EventID)

	if err := h.validator.Struct(req); err != nil {
		h.respondError(w, r, pkgErrors.ErrValidation, err)
		return
	}

	out, err := h.trigger.Trigger(r.Context(), req)
	if err != nil {
		h.respondError(w, r, mapError(err), err)
		return
	}

	h.respondJSON(w, r, http.StatusAccepted, out)
}

// GetShow returns the stored record of one show.
func (h *HTTPHandler) GetShow(w http.ResponseWriter, r *http.Request) {
	show, err := h.shows.GetShow(r.Context(),
		chi.URLParam(r, "eventId"),
		chi.URLParam(r, "sessionId"),
		chi.URLParam(r, "date"),
	)
	if err != nil {
		h.respondError(w, r, mapError(err), err)
		return
	}

	h.respondJSON(w, r, http.StatusOK, show)
}

// ListJobs reports the deferred jobs still waiting and the poller status.
func (h *HTTPHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	limit := defaultJobsLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			h.respondError(w, r, pkgErrors.ErrValidation, fmt.Errorf("invalid limit %q", v))
			return
		}
		limit = n
	}

	out, err := h.shows.PendingJobs(r.Context(), limit)
	if err != nil {
		h.respondError(w, r, mapError(err), err)
		return
	}

	h.respondJSON(w, r, http.StatusOK, map[string]any{
		"total":      out.Total,
		"in_flight":  out.InFlight,
		"jobs":       out.Jobs,
		"dispatcher": h.dispatcher.GetStatus(),
	})
}

// Helper functions

func (h *HTTPHandler) respondJSON(w http.ResponseWriter, r *http.Request, statusCode int, data any) {
	if err := response.JSON(w, statusCode, data); err != nil {
		h.logger.Errorf(r.Context(), "delivery.http.HTTPHandler.respondJSON: %v", err)
	}
}

func (h *HTTPHandler) respondError(w http.ResponseWriter, r *http.Request, mapped error, cause error) {
	var details any
	var httpErr *pkgErrors.HTTPError
	if errors.As(mapped, &httpErr) && httpErr.StatusCode < http.StatusInternalServerError {
		details = cause.Error()
		h.logger.Debugf(r.Context(), "delivery.http.HTTPHandler: %s: %v", httpErr.Message, cause)
	} else {
		h.logger.Errorf(r.Context(), "delivery.http.HTTPHandler: %s %s: %v", r.Method, r.URL.Path, cause)
	}

	if err := response.Error(w, mapped, details); err != nil {
		h.logger.Errorf(r.Context(), "delivery.http.HTTPHandler.respondError: %v", err)
	}
}
