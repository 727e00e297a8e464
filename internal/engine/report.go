package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/waterprint/waterprint/internal/notify/email"
	"github.com/waterprint/waterprint/internal/report"
)

// Export renders the user's report in the given format.
// The artifact is complete or nil, never partial.
func (e *Engine) Export(ctx context.Context, userID uint, format report.Format) (*report.Artifact, error) {
	rep, err := e.aggregator.BuildReport(ctx, userID)
	if err != nil {
		return nil, err
	}
	return e.renderer.Render(format, rep)
}

// EmailReport mails the PDF report to the user's registered address.
func (e *Engine) EmailReport(ctx context.Context, userID uint) error {
	if e.mailer == nil || !e.mailer.Enabled() {
		return ErrEmailDisabled
	}

	rep, err := e.aggregator.BuildReport(ctx, userID)
	if err != nil {
		return err
	}

	artifact, err := e.renderer.Render(report.FormatPDF, rep)
	if err != nil {
		return err
	}

	msg := email.ReportMessage{
		UserEmail: rep.Email,
		UserName:  rep.UserName,
		Total:     rep.Total,
		ServerURL: e.cfg.ServerURL,
		Attachment: email.Attachment{
			Filename:    artifact.Filename,
			ContentType: artifact.ContentType,
			Data:        artifact.Data,
		},
		GeneratedAt: time.Now(),
	}
	if err := e.mailer.SendReport(ctx, msg); err != nil {
		log.Error("failed to email report", "user", userID, "error", err)
		return fmt.Errorf("failed to email report: %w", err)
	}
	return nil
}
