package notification

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"rx-logistics/internal/domain/feedback"
	"rx-logistics/internal/domain/triplog"
	"rx-logistics/internal/render"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMailer struct {
	sent []*Message
	err  error
}

func (m *fakeMailer) Send(ctx context.Context, msg *Message) error {
	m.sent = append(m.sent, msg)
	return m.err
}

type published struct {
	topic   string
	payload []byte
}

type fakePublisher struct {
	events []published
	err    error
	closed bool
}

func (p *fakePublisher) Publish(ctx context.Context, topic string, payload []byte) error {
	p.events = append(p.events, published{topic: topic, payload: payload})
	return p.err
}

func (p *fakePublisher) Close() {
	p.closed = true
}

func submittedLog() *triplog.TripLog {
	return &triplog.TripLog{
		ID:         7,
		UserID:     uuid.New(),
		DriverName: "Jane Doe",
		RouteID:    "003",
		Odometer:   decimal.NewFromInt(1200),
		TripType:   triplog.PostTrip,
		Checklist: triplog.Checklist{
			Answers: map[triplog.QuestionID]triplog.Answer{
				triplog.QFuelTankFull:        triplog.AnswerNo,
				triplog.QInteriorClean:       triplog.AnswerYes,
				triplog.QScannerSynced:       triplog.AnswerYes,
				triplog.QScannerReturned:     triplog.AnswerYes,
				triplog.QTackleBoxesReturned: triplog.AnswerYes,
			},
			Comments: map[triplog.QuestionID]string{triplog.QFuelTankFull: "station closed"},
		},
		CreatedAt: time.Date(2024, 6, 3, 17, 0, 0, 0, time.UTC),
	}
}

func newTestDispatcher(m Mailer, p EventPublisher, cfg DispatcherConfig) *Dispatcher {
	return NewDispatcher(m, p, render.New("RX", time.UTC), cfg)
}

func TestDispatcher_TripLogSubmitted(t *testing.T) {
	mailer := &fakeMailer{}
	publisher := &fakePublisher{}
	d := newTestDispatcher(mailer, publisher, DispatcherConfig{
		Topic:     "rx/inspections/submitted",
		TripLogTo: []string{"dispatch@symbria.com"},
		TripLogCC: []string{"ops@symbria.com"},
	})

	d.TripLogSubmitted(context.Background(), submittedLog(), "https://rx.example.com/share/abc")

	require.Len(t, mailer.sent, 1)
	msg := mailer.sent[0]
	assert.Equal(t, []string{"dispatch@symbria.com"}, msg.To)
	assert.Equal(t, []string{"ops@symbria.com"}, msg.CC)
	assert.Equal(t, "Trip Log: Jane Doe - Post-Trip - 6/3/2024", msg.Subject)
	assert.Contains(t, msg.HTML, "https://rx.example.com/share/abc")

	require.Len(t, publisher.events, 1)
	assert.Equal(t, "rx/inspections/submitted", publisher.events[0].topic)

	var event SubmissionEvent
	require.NoError(t, json.Unmarshal(publisher.events[0].payload, &event))
	assert.Equal(t, int64(7), event.ID)
	assert.Equal(t, "Jane Doe", event.Driver)
	assert.Equal(t, "Post-Trip", event.TripType)
	assert.Equal(t, 1, event.IssueCount)
}

func TestDispatcher_FailuresAreSwallowed(t *testing.T) {
	mailer := &fakeMailer{err: errors.New("smtp down")}
	publisher := &fakePublisher{err: errors.New("broker down")}
	d := newTestDispatcher(mailer, publisher, DispatcherConfig{
		Topic:     "t",
		TripLogTo: []string{"dispatch@symbria.com"},
	})

	assert.NotPanics(t, func() {
		d.TripLogSubmitted(context.Background(), submittedLog(), "")
	})
	assert.Len(t, mailer.sent, 1)
	assert.Len(t, publisher.events, 1, "publish still attempted after a mail failure")
}

func TestDispatcher_SkipsUnconfiguredChannels(t *testing.T) {
	mailer := &fakeMailer{}
	publisher := &fakePublisher{}
	d := newTestDispatcher(mailer, publisher, DispatcherConfig{})

	d.TripLogSubmitted(context.Background(), submittedLog(), "")

	assert.Empty(t, mailer.sent)
	assert.Empty(t, publisher.events)
}

func TestDispatcher_DefaultsToNoop(t *testing.T) {
	d := NewDispatcher(nil, nil, render.New("RX", time.UTC), DispatcherConfig{
		Topic:     "t",
		TripLogTo: []string{"dispatch@symbria.com"},
	})

	assert.NotPanics(t, func() {
		d.TripLogSubmitted(context.Background(), submittedLog(), "")
	})
}

func TestDispatcher_FeedbackReceived(t *testing.T) {
	mailer := &fakeMailer{}
	d := newTestDispatcher(mailer, &fakePublisher{}, DispatcherConfig{
		FeedbackTo: []string{"admin@symbria.com"},
	})
	fb := &feedback.Feedback{
		ID:        uuid.New(),
		Name:      "Pat",
		Email:     "pat@symbria.com",
		Subject:   feedback.SubjectFeature,
		Message:   "Dark mode please",
		CreatedAt: time.Now(),
	}

	d.FeedbackReceived(context.Background(), fb, "https://rx.example.com/admin/feedback")

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, []string{"admin@symbria.com"}, mailer.sent[0].To)
	assert.Equal(t, "New Feedback from Pat", mailer.sent[0].Subject)
	assert.Contains(t, mailer.sent[0].HTML, "Dark mode please")
}

func TestDispatcher_CloseDisconnectsPublisher(t *testing.T) {
	publisher := &fakePublisher{}
	d := newTestDispatcher(&fakeMailer{}, publisher, DispatcherConfig{})

	d.Close()
	assert.True(t, publisher.closed)

	assert.NotPanics(t, func() {
		NewDispatcher(nil, nil, render.New("RX", time.UTC), DispatcherConfig{}).Close()
	})
}
