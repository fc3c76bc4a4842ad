package pipeline

import (
	"github.com/pointsworks/pointstream/internal/assemble"
	"github.com/pointsworks/pointstream/internal/clock"
	"github.com/pointsworks/pointstream/internal/config"
	"github.com/pointsworks/pointstream/internal/correlate"
	"github.com/pointsworks/pointstream/internal/docstore"
	"github.com/pointsworks/pointstream/internal/points"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("pipeline",
	fx.Provide(func(store docstore.Store, log *zap.Logger) *correlate.Correlator {
		return correlate.New(store, log)
	}),
	fx.Provide(func(cfg config.Config, clk clock.Clock, log *zap.Logger) *assemble.Assembler {
		rates := points.Rates{
			Loyalty:   cfg.Rates.Loyalty,
			Morning:   cfg.Rates.Morning,
			HappyHour: cfg.Rates.HappyHour,
		}
		prov := assemble.Provenance{
			ProjectID:        cfg.Project.ID,
			SourceIdentifier: cfg.Project.SourceIdentifier,
			SchemaVersion:    cfg.Project.SchemaVersion,
		}
		return assemble.New(rates, prov, clk, log)
	}),
	fx.Provide(func(c *correlate.Correlator) Correlator { return c }),
	fx.Provide(func(a *assemble.Assembler) Assembler { return a }),
	fx.Provide(NewHandler),
	fx.Provide(func(h *Handler) MessageHandler { return h }),
)
