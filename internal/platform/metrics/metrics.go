package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service. Counters are not
// correctness-critical but every create/remove/publish must tick one.
type Metrics struct {
	OppgaverOpprettet  prometheus.Counter
	VersjonerOpprettet prometheus.Counter
	OppgaverFjernet    prometheus.Counter
	OppgaverPublisert  prometheus.Counter
	PubliseringFeilet  prometheus.Counter
}

// New creates and registers all metrics against the given registerer. Tests
// pass a fresh prometheus.NewRegistry so suites do not collide.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		OppgaverOpprettet: factory.NewCounter(prometheus.CounterOpts{
			Name: "huskelapp_oppgaver_opprettet_total",
			Help: "Total number of follow-up notes created",
		}),
		VersjonerOpprettet: factory.NewCounter(prometheus.CounterOpts{
			Name: "huskelapp_versjoner_opprettet_total",
			Help: "Total number of note versions created by edits",
		}),
		OppgaverFjernet: factory.NewCounter(prometheus.CounterOpts{
			Name: "huskelapp_oppgaver_fjernet_total",
			Help: "Total number of follow-up notes removed",
		}),
		OppgaverPublisert: factory.NewCounter(prometheus.CounterOpts{
			Name: "huskelapp_oppgaver_publisert_total",
			Help: "Total number of note states published to the event bus",
		}),
		PubliseringFeilet: factory.NewCounter(prometheus.CounterOpts{
			Name: "huskelapp_publisering_feilet_total",
			Help: "Total number of per-note publish attempts that failed",
		}),
	}
}

func (m *Metrics) IncrementOppgaverOpprettet() {
	m.OppgaverOpprettet.Inc()
}

func (m *Metrics) IncrementVersjonerOpprettet() {
	m.VersjonerOpprettet.Inc()
}

func (m *Metrics) IncrementOppgaverFjernet() {
	m.OppgaverFjernet.Inc()
}

func (m *Metrics) IncrementOppgaverPublisert() {
	m.OppgaverPublisert.Inc()
}

func (m *Metrics) IncrementPubliseringFeilet() {
	m.PubliseringFeilet.Inc()
}
