package notification

import (
	"context"
	"encoding/json"
	"time"

	"rx-logistics/internal/domain/feedback"
	"rx-logistics/internal/domain/triplog"
	"rx-logistics/internal/logger"
	"rx-logistics/internal/render"

	"go.uber.org/zap"
)

// SubmissionEvent is the payload published when a trip log is submitted.
type SubmissionEvent struct {
	ID          int64     `json:"id"`
	Driver      string    `json:"driver"`
	TripType    string    `json:"trip_type"`
	RouteID     string    `json:"route_id"`
	IssueCount  int       `json:"issue_count"`
	SubmittedAt time.Time `json:"submitted_at"`
}

type DispatcherConfig struct {
	Topic      string
	TripLogTo  []string
	TripLogCC  []string
	FeedbackTo []string
}

// Dispatcher fans notifications out to email and the event broker. It never
// returns an error: every failure is logged and dropped.
type Dispatcher struct {
	mailer    Mailer
	publisher EventPublisher
	renderer  *render.Renderer
	cfg       DispatcherConfig
}

func NewDispatcher(mailer Mailer, publisher EventPublisher, renderer *render.Renderer, cfg DispatcherConfig) *Dispatcher {
	if mailer == nil {
		mailer = NoopMailer{}
	}
	if publisher == nil {
		publisher = NoopPublisher{}
	}
	return &Dispatcher{
		mailer:    mailer,
		publisher: publisher,
		renderer:  renderer,
		cfg:       cfg,
	}
}

func (d *Dispatcher) TripLogSubmitted(ctx context.Context, l *triplog.TripLog, shareURL string) {
	fields := []zap.Field{zap.Int64("trip_log_id", l.ID)}

	if len(d.cfg.TripLogTo) == 0 {
		logger.Warn("No trip log recipients configured", fields...)
	} else if email, err := d.renderer.TripLogEmail(l, shareURL); err != nil {
		logger.Error("Failed to render trip log email", append(fields, zap.Error(err))...)
	} else if err := d.mailer.Send(ctx, &Message{
		To:      d.cfg.TripLogTo,
		CC:      d.cfg.TripLogCC,
		Subject: email.Subject,
		HTML:    email.HTML,
	}); err != nil {
		logger.Error("Failed to email trip log", append(fields, zap.Error(err))...)
	}

	if d.cfg.Topic == "" {
		return
	}

	payload, err := json.Marshal(SubmissionEvent{
		ID:          l.ID,
		Driver:      l.DriverName,
		TripType:    string(l.TripType),
		RouteID:     l.RouteID,
		IssueCount:  l.IssueCount(),
		SubmittedAt: l.CreatedAt,
	})
	if err != nil {
		logger.Error("Failed to encode submission event", append(fields, zap.Error(err))...)
		return
	}
	if err := d.publisher.Publish(ctx, d.cfg.Topic, payload); err != nil {
		logger.Error("Failed to publish submission event", append(fields, zap.Error(err))...)
	}
}

func (d *Dispatcher) FeedbackReceived(ctx context.Context, fb *feedback.Feedback, inboxURL string) {
	fields := []zap.Field{zap.String("feedback_id", fb.ID.String())}

	if len(d.cfg.FeedbackTo) == 0 {
		logger.Warn("No feedback recipients configured", fields...)
		return
	}

	email, err := d.renderer.FeedbackEmail(fb, inboxURL)
	if err != nil {
		logger.Error("Failed to render feedback email", append(fields, zap.Error(err))...)
		return
	}

	if err := d.mailer.Send(ctx, &Message{
		To:      d.cfg.FeedbackTo,
		Subject: email.Subject,
		HTML:    email.HTML,
	}); err != nil {
		logger.Error("Failed to email feedback", append(fields, zap.Error(err))...)
	}
}

// Close disconnects the event broker. Call it after every background send has finished.
func (d *Dispatcher) Close() {
	d.publisher.Close()
}
