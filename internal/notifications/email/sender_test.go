package email

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitRecipients(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"comma", "a@x.com,b@x.com", []string{"a@x.com", "b@x.com"}},
		{"semicolon", "a@x.com;b@x.com", []string{"a@x.com", "b@x.com"}},
		{"mixed with spaces", " a@x.com , b@x.com ; c@x.com ", []string{"a@x.com", "b@x.com", "c@x.com"}},
		{"empty entries", "a@x.com,,;b@x.com", []string{"a@x.com", "b@x.com"}},
		{"empty string", "", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitRecipients(tt.raw))
		})
	}
}

func TestSendSkipsWithoutCredentials(t *testing.T) {
	sender := NewSender(Config{Host: "smtp.example.com", FromAddress: "noreply@example.com"})

	err := sender.Send(context.Background(), "subject", "body", false, []string{"a@x.com"})
	assert.NoError(t, err)
}

func TestSendSkipsWithoutHost(t *testing.T) {
	sender := NewSender(Config{User: "u", Password: "p", FromAddress: "noreply@example.com"})

	err := sender.Send(context.Background(), "subject", "body", false, []string{"a@x.com"})
	assert.NoError(t, err)
}

func TestBuildMessage(t *testing.T) {
	sender := NewSender(Config{
		Host:        "smtp.example.com",
		FromAddress: "noreply@example.com",
		FromName:    "SafetyDesk",
	})

	msg := string(sender.buildMessage("Weekly digest", "hello", false))
	assert.Contains(t, msg, "From: SafetyDesk <noreply@example.com>\r\n")
	assert.Contains(t, msg, "Subject: Weekly digest\r\n")
	assert.Contains(t, msg, `Content-Type: text/plain; charset="utf-8"`)
	assert.Contains(t, msg, "\r\n\r\nhello")

	htmlMsg := string(sender.buildMessage("Alert", "<b>hi</b>", true))
	assert.Contains(t, htmlMsg, `Content-Type: text/html; charset="utf-8"`)
}
