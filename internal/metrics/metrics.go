package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds the service's prometheus collectors on a private registry.
type Registry struct {
	reg *prometheus.Registry

	CommandsHandled     *prometheus.CounterVec
	LedgerWriteFailures prometheus.Counter
	ReplyFailures       prometheus.Counter
	ActiveSessions      prometheus.Gauge
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()

	commands := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "grouporder_commands_handled_total",
	}, []string{"command"})
	ledgerFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "grouporder_ledger_write_failures_total",
	})
	replyFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "grouporder_reply_failures_total",
	})
	activeSessions := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "grouporder_active_sessions",
	})

	r.MustRegister(commands, ledgerFailures, replyFailures, activeSessions)
	return &Registry{
		reg:                 r,
		CommandsHandled:     commands,
		LedgerWriteFailures: ledgerFailures,
		ReplyFailures:       replyFailures,
		ActiveSessions:      activeSessions,
	}
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }
