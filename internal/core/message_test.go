package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComposeMessage(t *testing.T) {
	msg := ComposeMessage(&Submission{
		Name:    "Jane Doe",
		Email:   "jane@example.org",
		Message: "Hello\nthere",
	}, MailIdentity{
		FromAddress: "noreply@example.com",
		FromName:    "Contact Form",
		To:          "inbox@example.com",
	})

	assert.Equal(t, "Contact form: Jane Doe", msg.Subject)
	assert.Equal(t, "Name:    Jane Doe\nEmail:   jane@example.org\n\nMessage:\nHello\nthere", msg.Body)
	assert.Equal(t, "jane@example.org", msg.ReplyToAddress)
	assert.Equal(t, "Jane Doe", msg.ReplyToName)
	assert.Equal(t, "noreply@example.com", msg.FromAddress)
	assert.Equal(t, "Contact Form", msg.FromName)
	assert.Equal(t, "inbox@example.com", msg.To)
}

func TestAsError(t *testing.T) {
	assert.Same(t, ErrRateLimited, AsError(ErrRateLimited))

	wrapped := ErrMailDelivery.Wrap(assert.AnError)
	assert.ErrorIs(t, wrapped, ErrMailDelivery)
	assert.ErrorIs(t, wrapped, assert.AnError)
	assert.NotErrorIs(t, wrapped, ErrRateLimited)

	internal := AsError(assert.AnError)
	assert.Equal(t, KindInternal, internal.Kind)
	assert.Equal(t, 500, internal.Status)
	assert.Equal(t, "Something went wrong. Please try again later.", internal.Message)
}
