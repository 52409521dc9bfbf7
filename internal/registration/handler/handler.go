// Package handler exposes the registration endpoints over HTTP.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"udyam/internal/registration/models"
	"udyam/internal/registration/service"
	"udyam/pkg/platform/httputil"
	"udyam/pkg/platform/middleware/metadata"
)

const (
	msgSubmitted          = "Registration submitted successfully"
	msgSubmitFailed       = "Internal server error during submission"
	msgSubmissionsFetched = "Submissions retrieved successfully"
	msgSubmissionFetched  = "Submission retrieved successfully"
	msgSubmissionNotFound = "Submission not found"
	msgStatsFetched       = "Statistics retrieved successfully"
	msgBodyTooLarge       = "Request body too large"

	defaultMaxBodyBytes = 10 << 20
)

// Service defines the registration operations the handlers need.
type Service interface {
	Submit(ctx context.Context, in models.FormInput, requestID string) (*service.SubmitResult, error)
	List(ctx context.Context) []models.SubmissionRecord
	Stats(ctx context.Context) models.Stats
	Get(ctx context.Context, id string) (*models.SubmissionRecord, bool)
	GetByRegistrationNumber(ctx context.Context, regNum string) (*models.SubmissionRecord, bool)
}

// Handler handles registration endpoints.
type Handler struct {
	svc          Service
	logger       *slog.Logger
	maxBodyBytes int64
	submitChain  []func(http.Handler) http.Handler
}

type Option func(*Handler)

// WithMaxBodyBytes caps the size of a submitted form.
func WithMaxBodyBytes(n int64) Option {
	return func(h *Handler) {
		if n > 0 {
			h.maxBodyBytes = n
		}
	}
}

// WithSubmitMiddleware wraps only the submit route, typically with the admission check.
func WithSubmitMiddleware(mw ...func(http.Handler) http.Handler) Option {
	return func(h *Handler) {
		h.submitChain = append(h.submitChain, mw...)
	}
}

func New(svc Service, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{
		svc:          svc,
		logger:       logger,
		maxBodyBytes: defaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register registers the registration routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.With(h.submitChain...).Post("/api/submit", h.handleSubmit)
	r.Get("/api/submissions", h.handleListSubmissions)
	r.Get("/api/submissions/registration/{registrationNumber}", h.handleGetByRegistrationNumber)
	r.Get("/api/submissions/{id}", h.handleGetSubmission)
	r.Get("/api/stats", h.handleStats)
}

type submitResponse struct {
	RegistrationNumber string                  `json:"registrationNumber"`
	SubmissionID       string                  `json:"submissionId"`
	SubmittedAt        time.Time               `json:"submittedAt"`
	Status             models.Status           `json:"status"`
	AllSubmissions     []models.SubmissionView `json:"allSubmissions"`
}

type listResponse struct {
	Total       int                     `json:"total"`
	Submissions []models.SubmissionView `json:"submissions"`
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := chimiddleware.GetReqID(ctx)

	in, err := httputil.DecodeJSON[models.FormInput](w, r, h.maxBodyBytes)
	if err != nil && !errors.Is(err, httputil.ErrEmptyBody) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.logger.WarnContext(ctx, "submission body too large", "request_id", requestID, "limit", tooLarge.Limit)
			httputil.WriteFailure(w, http.StatusRequestEntityTooLarge, msgBodyTooLarge)
			return
		}
		h.logger.WarnContext(ctx, "invalid submission body", "error", err, "request_id", requestID)
		httputil.WriteFailure(w, http.StatusBadRequest, httputil.MessageInvalidBody)
		return
	}

	res, err := h.svc.Submit(ctx, in, requestID)
	if err != nil {
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			httputil.WriteValidationError(w, verr.Fields)
			return
		}
		h.logger.ErrorContext(ctx, "submission failed", "error", err, "request_id", requestID)
		httputil.WriteInternalError(w, msgSubmitFailed)
		return
	}

	client := metadata.DescribeClient(ctx)
	h.logger.InfoContext(ctx, "registration submitted",
		"request_id", requestID,
		"registration_number", res.Record.RegistrationNumber,
		"client_browser", client.Browser,
		"client_os", client.OS,
		"client_mobile", client.Mobile,
	)

	httputil.WriteSuccess(w, http.StatusCreated, msgSubmitted, submitResponse{
		RegistrationNumber: res.Record.RegistrationNumber,
		SubmissionID:       res.Record.ID,
		SubmittedAt:        res.Record.SubmittedAt,
		Status:             res.Record.Status,
		AllSubmissions:     models.Views(res.All),
	})
}

func (h *Handler) handleListSubmissions(w http.ResponseWriter, r *http.Request) {
	records := h.svc.List(r.Context())
	httputil.WriteSuccess(w, http.StatusOK, msgSubmissionsFetched, listResponse{
		Total:       len(records),
		Submissions: models.Views(records),
	})
}

func (h *Handler) handleGetSubmission(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	h.writeSubmission(w, rec, ok)
}

func (h *Handler) handleGetByRegistrationNumber(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.svc.GetByRegistrationNumber(r.Context(), chi.URLParam(r, "registrationNumber"))
	h.writeSubmission(w, rec, ok)
}

func (h *Handler) writeSubmission(w http.ResponseWriter, rec *models.SubmissionRecord, ok bool) {
	if !ok {
		httputil.WriteFailure(w, http.StatusNotFound, msgSubmissionNotFound)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, msgSubmissionFetched, rec.View())
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	httputil.WriteSuccess(w, http.StatusOK, msgStatsFetched, h.svc.Stats(r.Context()))
}
