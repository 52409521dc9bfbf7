// Package service coordinates validation, storage and event publication for
// registration submissions.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"udyam/internal/events"
	"udyam/internal/registration/models"
	"udyam/internal/registration/validation"
	"udyam/pkg/requestcontext"
)

// DefaultProcessingDelay stands in for downstream verification work that the
// system does not perform yet.
const DefaultProcessingDelay = time.Second

type Store interface {
	Create(ctx context.Context, form models.ValidatedForm) (*models.SubmissionRecord, error)
	FindByID(ctx context.Context, id string) (*models.SubmissionRecord, bool)
	FindByRegistrationNumber(ctx context.Context, regNum string) (*models.SubmissionRecord, bool)
	ListAll(ctx context.Context) []models.SubmissionRecord
	Stats(ctx context.Context) models.Stats
}

type Metrics interface {
	IncrementSubmissionsCreated()
	RecordValidationFailures(fields map[string]string)
	IncrementEventPublishErrors()
}

// ValidationError carries one message per offending field.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return "validation failed: " + strings.Join(names, ", ")
}

// SubmitResult is the stored record plus a snapshot of every submission after it.
type SubmitResult struct {
	Record *models.SubmissionRecord
	All    []models.SubmissionRecord
}

type Service struct {
	store           Store
	validator       *validation.Validator
	publisher       events.Publisher
	metrics         Metrics
	logger          *slog.Logger
	tracer          trace.Tracer
	processingDelay time.Duration
	sleep           func(time.Duration)
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithPublisher(p events.Publisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

func WithMetrics(m Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

// WithProcessingDelay sets the fixed wait before an accepted form is stored.
// Zero disables it.
func WithProcessingDelay(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.processingDelay = d
		}
	}
}

func New(store Store, validator *validation.Validator, opts ...Option) *Service {
	s := &Service{
		store:           store,
		validator:       validator,
		logger:          slog.Default(),
		tracer:          otel.Tracer("udyam/registration"),
		processingDelay: DefaultProcessingDelay,
		sleep:           time.Sleep,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.publisher == nil {
		s.publisher = events.NewLogPublisher(s.logger)
	}
	return s
}

// Submit validates in, waits for the processing delay, stores the form and
// announces it. A *ValidationError is returned for invalid input; any other
// error is unexpected.
func (s *Service) Submit(ctx context.Context, in models.FormInput, requestID string) (*SubmitResult, error) {
	ctx, span := s.tracer.Start(ctx, "registration.Submit")
	defer span.End()

	res := s.validator.Validate(in, requestcontext.Now(ctx))
	if !res.Valid {
		if s.metrics != nil {
			s.metrics.RecordValidationFailures(res.Errors)
		}
		span.SetAttributes(attribute.Int("validation.errors", len(res.Errors)))
		return nil, &ValidationError{Fields: res.Errors}
	}

	// The wait does not observe ctx: a submission that passed validation is
	// always stored, even if the client has gone away.
	if s.processingDelay > 0 {
		s.sleep(s.processingDelay)
	}

	record, err := s.store.Create(ctx, *res.Data)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "store submission")
		return nil, fmt.Errorf("store submission: %w", err)
	}
	span.SetAttributes(
		attribute.String("submission.id", record.ID),
		attribute.String("submission.org_type", string(record.OrgType)),
	)
	if s.metrics != nil {
		s.metrics.IncrementSubmissionsCreated()
	}

	s.logger.InfoContext(ctx, "submission accepted",
		"submission_id", record.ID,
		"registration_number", record.RegistrationNumber,
		"org_type", record.OrgType,
		"request_id", requestID,
	)

	if err := s.publisher.PublishSubmissionCreated(ctx, events.NewSubmissionCreated(record, requestID)); err != nil {
		if s.metrics != nil {
			s.metrics.IncrementEventPublishErrors()
		}
		s.logger.WarnContext(ctx, "failed to publish submission event",
			"error", err,
			"submission_id", record.ID,
			"request_id", requestID,
		)
	}

	return &SubmitResult{Record: record, All: s.store.ListAll(ctx)}, nil
}

// List returns every submission in the order it was accepted.
func (s *Service) List(ctx context.Context) []models.SubmissionRecord {
	return s.store.ListAll(ctx)
}

func (s *Service) Stats(ctx context.Context) models.Stats {
	return s.store.Stats(ctx)
}

func (s *Service) Get(ctx context.Context, id string) (*models.SubmissionRecord, bool) {
	return s.store.FindByID(ctx, id)
}

func (s *Service) GetByRegistrationNumber(ctx context.Context, regNum string) (*models.SubmissionRecord, bool) {
	return s.store.FindByRegistrationNumber(ctx, strings.ToUpper(strings.TrimSpace(regNum)))
}
