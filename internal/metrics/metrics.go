package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
)

var Module = fx.Module("metrics",
	fx.Provide(NewRegistry),
)

// Registry exposes the pipeline counters. One instance per process.
type Registry struct {
	reg *prometheus.Registry

	MessagesReceived  prometheus.Counter
	MessagesAcked     prometheus.Counter
	MissingTimestamp  prometheus.Counter
	BundlesIncomplete prometheus.Counter
	AssemblyFailures  prometheus.Counter
	ItemsDropped      prometheus.Counter
	OrdersPersisted   prometheus.Counter
	InsertRowErrors   prometheus.Counter
	HandlerPanics     prometheus.Counter

	MailDispatched prometheus.Counter
	MailFailed     prometheus.Counter
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()

	received := prometheus.NewCounter(prometheus.CounterOpts{Name: "pointstream_messages_received_total"})
	acked := prometheus.NewCounter(prometheus.CounterOpts{Name: "pointstream_messages_acked_total"})
	missingTS := prometheus.NewCounter(prometheus.CounterOpts{Name: "pointstream_missing_timestamp_total"})
	incomplete := prometheus.NewCounter(prometheus.CounterOpts{Name: "pointstream_bundles_incomplete_total"})
	assemblyFail := prometheus.NewCounter(prometheus.CounterOpts{Name: "pointstream_assembly_failures_total"})
	dropped := prometheus.NewCounter(prometheus.CounterOpts{Name: "pointstream_items_dropped_total"})
	persisted := prometheus.NewCounter(prometheus.CounterOpts{Name: "pointstream_orders_persisted_total"})
	insertErrs := prometheus.NewCounter(prometheus.CounterOpts{Name: "pointstream_insert_row_errors_total"})
	panics := prometheus.NewCounter(prometheus.CounterOpts{Name: "pointstream_handler_panics_total"})
	mailSent := prometheus.NewCounter(prometheus.CounterOpts{Name: "pointstream_mail_dispatched_total"})
	mailFail := prometheus.NewCounter(prometheus.CounterOpts{Name: "pointstream_mail_failed_total"})

	r.MustRegister(received, acked, missingTS, incomplete, assemblyFail, dropped, persisted, insertErrs, panics, mailSent, mailFail)

	return &Registry{
		reg:               r,
		MessagesReceived:  received,
		MessagesAcked:     acked,
		MissingTimestamp:  missingTS,
		BundlesIncomplete: incomplete,
		AssemblyFailures:  assemblyFail,
		ItemsDropped:      dropped,
		OrdersPersisted:   persisted,
		InsertRowErrors:   insertErrs,
		HandlerPanics:     panics,
		MailDispatched:    mailSent,
		MailFailed:        mailFail,
	}
}

func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}
