package notification

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"
)

func TestSMTPMailer_Send(t *testing.T) {
	var captured *mail.Msg
	m := &SMTPMailer{
		from: "no-reply@symbria.com",
		send: func(ctx context.Context, msg *mail.Msg) error {
			captured = msg
			return nil
		},
	}

	err := m.Send(context.Background(), &Message{
		To:      []string{"dispatch@symbria.com"},
		CC:      []string{"ops@symbria.com"},
		Subject: "Trip Log: Jane Doe - Pre-Trip - 6/3/2024",
		HTML:    "<p>hello</p>",
	})
	require.NoError(t, err)
	require.NotNil(t, captured)

	assert.Equal(t, []string{"Trip Log: Jane Doe - Pre-Trip - 6/3/2024"}, captured.GetGenHeader(mail.HeaderSubject))

	rcpts, err := captured.GetRecipients()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"dispatch@symbria.com", "ops@symbria.com"}, rcpts)
}

func TestSMTPMailer_SendError(t *testing.T) {
	m := &SMTPMailer{
		from: "no-reply@symbria.com",
		send: func(ctx context.Context, msg *mail.Msg) error {
			return errors.New("connection refused")
		},
	}

	err := m.Send(context.Background(), &Message{To: []string{"a@symbria.com"}, Subject: "s"})
	assert.ErrorContains(t, err, "connection refused")
}

func TestSMTPMailer_Validation(t *testing.T) {
	called := false
	m := &SMTPMailer{
		from: "no-reply@symbria.com",
		send: func(ctx context.Context, msg *mail.Msg) error {
			called = true
			return nil
		},
	}

	err := m.Send(context.Background(), &Message{Subject: "s"})
	assert.ErrorIs(t, err, ErrNoRecipients)

	err = m.Send(context.Background(), &Message{To: []string{"not an address"}, Subject: "s"})
	assert.Error(t, err)

	m.from = "broken"
	err = m.Send(context.Background(), &Message{To: []string{"a@symbria.com"}, Subject: "s"})
	assert.Error(t, err)

	assert.False(t, called)
}

func TestNoopMailer(t *testing.T) {
	assert.NoError(t, NoopMailer{}.Send(context.Background(), &Message{Subject: "s"}))
}
