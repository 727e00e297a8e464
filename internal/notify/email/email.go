package email

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"html/template"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/waterprint/waterprint/internal/config"
	mail "github.com/xhit/go-simple-mail/v2"
)

var (
	// ErrDisabled is returned when a report is mailed while email is not configured.
	ErrDisabled = errors.New("email is disabled")
	// ErrMissingRecipient is returned for users without an email address.
	ErrMissingRecipient = errors.New("recipient email is empty")
)

// Attachment is a file sent along with a message.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ReportMessage contains the data for a footprint report email.
type ReportMessage struct {
	UserEmail   string
	UserName    string
	Total       float64
	ServerURL   string
	Attachment  Attachment
	GeneratedAt time.Time
}

// TotalDisplay returns the total with thousands separators.
func (m ReportMessage) TotalDisplay() string {
	return humanize.Commaf(m.Total)
}

// ReportService mails footprint reports.
type ReportService struct {
	config *config.EmailConfig
}

// New creates a new report mailer.
func New(cfg *config.EmailConfig) *ReportService {
	return &ReportService{
		config: cfg,
	}
}

// Enabled reports whether mail can be sent.
func (s *ReportService) Enabled() bool {
	return s.config != nil && s.config.Enabled
}

// SendReport sends the report with its attachment to the user.
func (s *ReportService) SendReport(ctx context.Context, msg ReportMessage) error {
	if !s.Enabled() {
		return ErrDisabled
	}
	if msg.UserEmail == "" {
		return fmt.Errorf("user %q: %w", msg.UserName, ErrMissingRecipient)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	subject := "[Waterprint] Your water footprint report"

	body, err := generateEmailBody(msg)
	if err != nil {
		return fmt.Errorf("failed to generate email body: %w", err)
	}

	return s.sendEmail(msg.UserEmail, subject, body, msg.Attachment)
}

var reportTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: sans-serif;">
  <h2>Water Footprint Report</h2>
  <p>Hello {{ .UserName }},</p>
  <p>your current water footprint is <strong>{{ .TotalDisplay }} liters</strong>.</p>
  <p>The full report is attached to this message.</p>
  {{ if .ServerURL }}<p><a href="{{ .ServerURL }}">{{ .ServerURL }}</a></p>{{ end }}
  <p style="color: #888; font-size: 12px;">Generated {{ .GeneratedAt.Format "2006-01-02 15:04" }}</p>
</body>
</html>
`))

// generateEmailBody creates the HTML email body.
func generateEmailBody(msg ReportMessage) (string, error) {
	if msg.GeneratedAt.IsZero() {
		msg.GeneratedAt = time.Now()
	}

	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, msg); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// sendEmail sends an email using go-simple-mail library.
func (s *ReportService) sendEmail(to, subject, body string, attachment Attachment) error {
	server := mail.NewSMTPClient()
	server.Host = s.config.SMTPHost
	server.Port = s.config.SMTPPort
	server.Username = s.config.Username
	server.Password = s.config.Password

	switch {
	case s.config.UseSSL:
		server.Encryption = mail.EncryptionSSLTLS
	case s.config.UseTLS:
		server.Encryption = mail.EncryptionSTARTTLS
	default:
		server.Encryption = mail.EncryptionNone
	}

	if s.config.InsecureSkipVerify {
		server.TLSConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
	}

	server.KeepAlive = false
	server.ConnectTimeout = 10 * time.Second
	server.SendTimeout = 30 * time.Second

	smtpClient, err := server.Connect()
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer func() {
		if closeErr := smtpClient.Close(); closeErr != nil {
			log.Warn("Failed to close SMTP client", "error", closeErr)
		}
	}()

	fromName := s.config.FromName
	if fromName == "" {
		fromName = "Waterprint"
	}

	email := mail.NewMSG()
	email.SetFrom(fmt.Sprintf("%s <%s>", fromName, s.config.FromEmail))
	email.AddTo(to)
	email.SetSubject(subject)
	email.SetBody(mail.TextHTML, body)

	if len(attachment.Data) > 0 {
		email.Attach(&mail.File{
			Name:     attachment.Filename,
			MimeType: attachment.ContentType,
			Data:     attachment.Data,
		})
	}
	if email.Error != nil {
		return fmt.Errorf("failed to build email: %w", email.Error)
	}

	if err := email.Send(smtpClient); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	log.Info("Report email sent", "to", to, "attachment", attachment.Filename)
	return nil
}
