package mail

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/corpsite/corpsite-api/internal/config"
	"github.com/corpsite/corpsite-api/internal/enquiries"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEnquiry() *enquiries.Enquiry {
	return &enquiries.Enquiry{
		ID:        "ref-1",
		Name:      "Asha",
		Email:     "asha@example.com",
		Company:   "Fund Co",
		Subject:   "Dividend",
		Message:   "When is the record date?",
		CreatedAt: time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC),
	}
}

func TestNewSMTPMailer_Disabled(t *testing.T) {
	assert.Nil(t, NewSMTPMailer(config.SMTPConfig{}))
}

func TestSubject(t *testing.T) {
	e := testEnquiry()
	assert.Equal(t, "[Contact] Dividend - Asha", Subject(e))
	e.Subject = "  "
	assert.Equal(t, "[Contact] Website enquiry - Asha", Subject(e))
}

func TestCompose(t *testing.T) {
	m := NewSMTPMailer(config.SMTPConfig{Enabled: true, Host: "smtp.example.com", Port: 587, From: "web@example.com", To: "ir@example.com,cs@example.com"})
	require.NotNil(t, m)

	msg, err := m.Compose(testEnquiry())
	require.NoError(t, err)
	rcpts, err := msg.GetRecipients()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"ir@example.com", "cs@example.com"}, rcpts)

	var buf bytes.Buffer
	_, err = msg.WriteTo(&buf)
	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "Reply-To: <asha@example.com>")
	assert.Contains(t, out, "Subject: [Contact] Dividend - Asha")
	assert.Contains(t, out, "Company: Fund Co")
	assert.NotContains(t, out, "Phone:")
}

func TestCompose_BadSender(t *testing.T) {
	m := NewSMTPMailer(config.SMTPConfig{Enabled: true, Host: "h", To: "ir@example.com", From: "not an address"})
	_, err := m.Compose(testEnquiry())
	require.Error(t, err)
}

func TestSend_UnreachableRelay(t *testing.T) {
	m := NewSMTPMailer(config.SMTPConfig{Enabled: true, Host: "127.0.0.1", Port: 1, From: "web@example.com", To: "ir@example.com"})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.Error(t, m.Send(ctx, testEnquiry()))
}
