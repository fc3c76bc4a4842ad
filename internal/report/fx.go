package report

import (
	"cloud.google.com/go/bigquery"
	"github.com/pointsworks/pointstream/internal/config"
	"github.com/pointsworks/pointstream/internal/mailer"
	"github.com/pointsworks/pointstream/internal/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("report",
	fx.Provide(func(client *bigquery.Client, cfg config.Config) *BigQuerySource {
		return NewBigQuerySource(client, cfg.Project.ID, cfg.Warehouse.DatasetID, cfg.Notifier.ReportTable, cfg.Notifier.ContactsTable)
	}),
	fx.Provide(func(s *BigQuerySource) Source { return s }),
	fx.Provide(func(cfg config.Config) mailer.Mailer {
		return mailer.NewClient(cfg.Notifier.MailAPIURL, cfg.Notifier.MailAPIToken)
	}),
	fx.Provide(func(source Source, m mailer.Mailer, cfg config.Config, reg *metrics.Registry, log *zap.Logger) *Job {
		return NewJob(source, m, cfg.Notifier, reg, log)
	}),
)
