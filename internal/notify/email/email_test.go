package email

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/waterprint/waterprint/internal/config"
)

func TestSendReportDisabled(t *testing.T) {
	for name, cfg := range map[string]*config.EmailConfig{
		"nil config": nil,
		"disabled":   {Enabled: false, SMTPHost: "localhost"},
	} {
		t.Run(name, func(t *testing.T) {
			s := New(cfg)
			assert.False(t, s.Enabled())
			err := s.SendReport(context.Background(), ReportMessage{UserEmail: "a@example.com"})
			assert.ErrorIs(t, err, ErrDisabled)
		})
	}
}

func TestSendReportMissingRecipient(t *testing.T) {
	s := New(&config.EmailConfig{Enabled: true, SMTPHost: "localhost", SMTPPort: 25})
	err := s.SendReport(context.Background(), ReportMessage{UserName: "Ada"})
	assert.ErrorIs(t, err, ErrMissingRecipient)
}

func TestSendReportCanceledContext(t *testing.T) {
	s := New(&config.EmailConfig{Enabled: true, SMTPHost: "localhost", SMTPPort: 25})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := s.SendReport(ctx, ReportMessage{UserEmail: "a@example.com"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGenerateEmailBody(t *testing.T) {
	body, err := generateEmailBody(ReportMessage{
		UserName:    "Ada <script>",
		Total:       38300,
		ServerURL:   "https://water.example.com",
		GeneratedAt: time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Contains(t, body, "38,300 liters")
	assert.Contains(t, body, "Ada &lt;script&gt;")
	assert.Contains(t, body, "https://water.example.com")
	assert.Contains(t, body, "2024-03-01 12:30")
}
