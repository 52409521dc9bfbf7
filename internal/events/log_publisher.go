package events

import (
	"context"
	"log/slog"
)

// LogPublisher writes events to the structured log. It is the default when no
// broker is configured.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) PublishSubmissionCreated(ctx context.Context, event SubmissionCreated) error {
	p.logger.InfoContext(ctx, "submission event",
		"type", event.Type,
		"submission_id", event.SubmissionID,
		"registration_number", event.RegistrationNumber,
		"org_type", event.OrgType,
		"request_id", event.RequestID,
	)
	return nil
}

func (p *LogPublisher) Close() error {
	return nil
}
