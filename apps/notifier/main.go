package main

import (
	"context"

	"github.com/pointsworks/pointstream/internal/clock"
	"github.com/pointsworks/pointstream/internal/config"
	"github.com/pointsworks/pointstream/internal/metrics"
	"github.com/pointsworks/pointstream/internal/observability"
	"github.com/pointsworks/pointstream/internal/report"
	"github.com/pointsworks/pointstream/internal/warehouse"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// The notifier is a run-to-completion batch: aggregate, dispatch, exit.
func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		metrics.Module,
		clock.Module,

		warehouse.Module,
		report.Module,

		fx.Invoke(runOnce),
	)
	app.Run()
}

func runOnce(lc fx.Lifecycle, job *report.Job, sd fx.Shutdowner, log *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				if err := job.Run(context.Background()); err != nil {
					log.Error("notification run failed", zap.Error(err))
				}
				_ = sd.Shutdown()
			}()
			return nil
		},
	})
}
