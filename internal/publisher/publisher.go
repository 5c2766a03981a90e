package publisher

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"

	"huskelapp/internal/oppfolgingsoppgave"
	"huskelapp/internal/platform/metrics"
)

var tracer = otel.Tracer("huskelapp/publisher")

// Oppgaver is the slice of the record service the job needs.
type Oppgaver interface {
	GetUpubliserte(ctx context.Context) ([]oppfolgingsoppgave.Oppfolgingsoppgave, error)
	MarkerPublisert(ctx context.Context, oppgave oppfolgingsoppgave.Oppfolgingsoppgave) error
}

// Producer sends one event and blocks until the broker acknowledges it.
type Producer interface {
	Produce(ctx context.Context, topic string, key, value []byte) error
}

// Leader gates whether this instance may run the schedule at all.
type Leader interface {
	IsLeader(ctx context.Context) bool
}

// Resultat summarizes one reconciliation batch for logging and alerting.
type Resultat struct {
	Oppdatert int
	Feilet    int
}

// Publisher is the periodic reconciliation loop projecting every note state
// change onto the event bus. One failing note never blocks or aborts a batch;
// it is retried on the next tick.
type Publisher struct {
	oppgaver     Oppgaver
	producer     Producer
	leader       Leader
	topic        string
	initialDelay time.Duration
	interval     time.Duration
	metrics      *metrics.Metrics
	logger       *slog.Logger
}

func New(oppgaver Oppgaver, producer Producer, leader Leader, topic string, initialDelay, interval time.Duration, metrics *metrics.Metrics, logger *slog.Logger) *Publisher {
	return &Publisher{
		oppgaver:     oppgaver,
		producer:     producer,
		leader:       leader,
		topic:        topic,
		initialDelay: initialDelay,
		interval:     interval,
		metrics:      metrics,
		logger:       logger,
	}
}

// Run ticks on a fixed interval after an initial delay until the context is
// cancelled. The leader check happens immediately before each tick; losing
// leadership stops further ticks but never interrupts one in flight.
func (p *Publisher) Run(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(p.initialDelay):
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if !p.leader.IsLeader(ctx) {
				continue
			}
			resultat := p.PubliserOppgaver(ctx)
			p.logger.InfoContext(ctx, "publisering ferdig",
				"oppdatert", resultat.Oppdatert, "feilet", resultat.Feilet)
		}
	}
}

// PubliserOppgaver runs one reconciliation batch: fetch unpublished notes
// oldest first, emit each to the bus, stamp it published after the broker
// ack. Per-note failures are counted and skipped so the rest of the batch
// proceeds.
func (p *Publisher) PubliserOppgaver(ctx context.Context) Resultat {
	ctx, span := tracer.Start(ctx, "Publisher.PubliserOppgaver")
	defer span.End()

	var resultat Resultat

	upubliserte, err := p.oppgaver.GetUpubliserte(ctx)
	if err != nil {
		p.logger.ErrorContext(ctx, "kunne ikke hente upubliserte oppgaver", "error", err)
		return resultat
	}

	for _, oppgave := range upubliserte {
		if err := p.publiser(ctx, oppgave); err != nil {
			resultat.Feilet++
			p.metrics.IncrementPubliseringFeilet()
			p.logger.ErrorContext(ctx, "publisering av oppgave feilet",
				"uuid", oppgave.UUID, "error", err)
			continue
		}
		resultat.Oppdatert++
		p.metrics.IncrementOppgaverPublisert()
	}
	return resultat
}

func (p *Publisher) publiser(ctx context.Context, oppgave oppfolgingsoppgave.Oppfolgingsoppgave) error {
	key, value, err := buildRecord(oppgave)
	if err != nil {
		return err
	}
	if err := p.producer.Produce(ctx, p.topic, key, value); err != nil {
		return err
	}
	// A crash here re-emits the note next tick; consumers tolerate duplicates.
	return p.oppgaver.MarkerPublisert(ctx, oppgave)
}
