// Package report is the downstream notification batch: it reads aggregated
// client data from the warehouse and dispatches one templated email per
// client. It runs independently of the ingestion pipeline with its own
// retry policy.
package report

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pointsworks/pointstream/internal/config"
	"github.com/pointsworks/pointstream/internal/mailer"
	"github.com/pointsworks/pointstream/internal/metrics"
	"go.uber.org/zap"
)

// maxRetries is the number of resends after a failed attempt, with 2^n
// second backoff between attempts.
const maxRetries = 3

// Source reads the commission rows the job aggregates over.
type Source interface {
	CommissionRows(ctx context.Context) ([]CommissionRow, error)
}

type Job struct {
	source  Source
	mailer  mailer.Mailer
	cfg     config.Notifier
	metrics *metrics.Registry
	log     *zap.Logger

	// sleep is swapped out in tests.
	sleep func(time.Duration)
}

func NewJob(source Source, m mailer.Mailer, cfg config.Notifier, reg *metrics.Registry, log *zap.Logger) *Job {
	return &Job{
		source:  source,
		mailer:  m,
		cfg:     cfg,
		metrics: reg,
		log:     log.Named("report.job"),
		sleep:   time.Sleep,
	}
}

// Run aggregates and dispatches. Individual send failures are logged and do
// not abort the run; only a failed source read does.
func (j *Job) Run(ctx context.Context) error {
	runID := uuid.NewString()
	log := j.log.With(zap.String("run_id", runID))

	rows, err := j.source.CommissionRows(ctx)
	if err != nil {
		return err
	}
	summaries := Aggregate(rows)
	log.Info("aggregated client data",
		zap.Int("rows", len(rows)),
		zap.Int("clients", len(summaries)))

	sent := 0
	for _, summary := range summaries {
		if j.cfg.TestMode && sent >= j.cfg.SendLimit {
			log.Info("send limit reached in test mode", zap.Int("limit", j.cfg.SendLimit))
			break
		}

		recipient := summary.Email
		if j.cfg.TestMode {
			recipient = j.cfg.TestRecipient
		}
		if recipient == "" {
			log.Warn("client without email address, skipping",
				zap.String("client", summary.Name))
			continue
		}

		msg := mailer.Message{
			To:               recipient,
			From:             j.cfg.FromEmail,
			TemplateID:       j.cfg.TemplateID,
			Data:             summary.TemplateData(),
			UnsubscribeGroup: j.cfg.UnsubscribeGroup,
		}
		if err := j.sendWithRetry(ctx, msg); err != nil {
			j.metrics.MailFailed.Inc()
			log.Error("giving up on client email",
				zap.String("recipient", recipient),
				zap.Error(err))
			continue
		}
		j.metrics.MailDispatched.Inc()
		sent++
		log.Info("email dispatched", zap.String("recipient", recipient))
	}

	log.Info("notification run completed", zap.Int("sent", sent))
	return nil
}

func (j *Job) sendWithRetry(ctx context.Context, msg mailer.Message) error {
	var err error
	for attempt := 0; ; attempt++ {
		err = j.mailer.Send(ctx, msg)
		if err == nil {
			return nil
		}
		if attempt >= maxRetries {
			return err
		}
		j.sleep(time.Duration(1<<attempt) * time.Second)
	}
}
