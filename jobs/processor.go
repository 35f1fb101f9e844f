package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/smtp"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/ledgerdesk/ledgerdesk/internal/jobs"
)

// auditRetention is how long audit entries are kept before the nightly trim.
const auditRetention = 90 * 24 * time.Hour

// SessionPruner deletes expired refresh sessions.
type SessionPruner interface {
	DeleteExpiredSessions(ctx context.Context, before time.Time) (int64, error)
}

// AuditPruner trims the audit trail.
type AuditPruner interface {
	PruneBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Mailer delivers outbound mail.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Processor owns the task handlers and their dependencies.
type Processor struct {
	logger   *slog.Logger
	sessions SessionPruner
	audit    AuditPruner
	mailer   Mailer
	metrics  *jobmetrics.Metrics
}

// NewProcessor constructs a Processor. Any dependency may be nil; the matching
// handler then logs and skips.
func NewProcessor(logger *slog.Logger, sessions SessionPruner, audit AuditPruner, mailer Mailer) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		logger:   logger,
		sessions: sessions,
		audit:    audit,
		mailer:   mailer,
		metrics:  jobmetrics.NewMetrics(nil),
	}
}

// HandleSendEmail processes TaskTypeSendEmail tasks.
func (p *Processor) HandleSendEmail(ctx context.Context, t *asynq.Task) error {
	var payload SendEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	tracker := p.metrics.Track(TaskTypeSendEmail)
	if p.mailer == nil {
		p.logger.Warn("mailer not configured, dropping email", slog.String("to", payload.To))
		return tracker.End(nil)
	}
	if err := p.mailer.Send(ctx, payload.To, payload.Subject, payload.Body); err != nil {
		return tracker.End(fmt.Errorf("send email to %s: %w", payload.To, err))
	}
	return tracker.End(nil)
}

// HandleSessionPurge processes TaskSessionPurge tasks.
func (p *Processor) HandleSessionPurge(ctx context.Context, t *asynq.Task) error {
	var payload SweepPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if p.sessions == nil {
		return nil
	}
	tracker := p.metrics.Track(TaskSessionPurge)
	removed, err := p.sessions.DeleteExpiredSessions(ctx, time.Now())
	if err != nil {
		return tracker.End(fmt.Errorf("purge sessions: %w", err))
	}
	p.logger.Info("session purge complete", slog.Int64("removed", removed))
	return tracker.End(nil)
}

// HandleAuditRetention processes TaskAuditRetention tasks.
func (p *Processor) HandleAuditRetention(ctx context.Context, t *asynq.Task) error {
	var payload SweepPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if p.audit == nil {
		return nil
	}
	tracker := p.metrics.Track(TaskAuditRetention)
	removed, err := p.audit.PruneBefore(ctx, time.Now().Add(-auditRetention))
	if err != nil {
		return tracker.End(fmt.Errorf("prune audit trail: %w", err))
	}
	p.logger.Info("audit retention complete", slog.Int64("removed", removed))
	return tracker.End(nil)
}

// SMTPMailer sends mail through a plain SMTP relay, typically Mailpit in
// development.
type SMTPMailer struct {
	Addr string
	From string
}

// Send delivers one message.
func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	msg := []byte("From: " + m.From + "\r\n" +
		"To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"\r\n" + body + "\r\n")
	return smtp.SendMail(m.Addr, nil, m.From, []string{to}, msg)
}
