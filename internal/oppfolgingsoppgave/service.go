package oppfolgingsoppgave

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"huskelapp/internal/platform/metrics"
	"huskelapp/pkg/platform/sentinel"
	txcontext "huskelapp/pkg/platform/tx"
)

var tracer trace.Tracer = otel.Tracer("huskelapp/oppfolgingsoppgave")

// Service orchestrates note lifecycles between the API and the store and owns
// the business rules: one active note per reason category, no-op edits
// rejected, removal only of active notes.
type Service struct {
	store   Store
	tx      txcontext.Transactor
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewService(store Store, tx txcontext.Transactor, metrics *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{store: store, tx: tx, metrics: metrics, logger: logger}
}

// GetAktiv returns the person's newest note when it is active, nil otherwise.
// A person with only removed history shows nothing.
func (s *Service) GetAktiv(ctx context.Context, personIdent string) (*Oppfolgingsoppgave, error) {
	ctx, span := tracer.Start(ctx, "Service.GetAktiv")
	defer span.End()

	oppgaver, err := s.store.GetForPerson(ctx, personIdent)
	if err != nil {
		return nil, err
	}
	if len(oppgaver) == 0 || !oppgaver[0].IsActive {
		return nil, nil
	}
	return &oppgaver[0], nil
}

// Opprett always starts a brand-new note, even when the person has removed
// history under the same reason. Reactivation does not exist.
func (s *Service) Opprett(ctx context.Context, personIdent, navIdent string, tekst *string, grunner []Oppfolgingsgrunn, frist *Dato) (Oppfolgingsoppgave, error) {
	ctx, span := tracer.Start(ctx, "Service.Opprett")
	defer span.End()

	oppgave, err := s.store.Create(ctx, Ny(personIdent, navIdent, tekst, grunner, frist))
	if err != nil {
		return Oppfolgingsoppgave{}, err
	}
	s.metrics.IncrementOppgaverOpprettet()
	s.logger.InfoContext(ctx, "oppfolgingsoppgave opprettet", "uuid", oppgave.UUID)
	return oppgave, nil
}

// Rediger applies an edit to the note with the given uuid.
//
// When the reason codes are unchanged (or omitted) a new version is appended
// to the same note; ErrIngenEndring propagates when tekst and frist are also
// unchanged. A changed reason is a category change: the old note is removed
// and a fresh one created under the new reason, atomically. Both note
// lifecycles stay visible downstream, so the two branches must not be unified
// without checking consumer impact.
func (s *Service) Rediger(ctx context.Context, id uuid.UUID, navIdent string, tekst *string, grunner []Oppfolgingsgrunn, frist *Dato) (Oppfolgingsoppgave, error) {
	ctx, span := tracer.Start(ctx, "Service.Rediger")
	defer span.End()

	oppgave, err := s.store.GetByUUID(ctx, id)
	if err != nil {
		return Oppfolgingsoppgave{}, err
	}
	if !oppgave.IsActive {
		return Oppfolgingsoppgave{}, fmt.Errorf("oppgave %s er fjernet: %w", id, sentinel.ErrNotFound)
	}

	if grunner == nil || LikeGrunner(oppgave.SisteVersjon().Grunner, grunner) {
		return s.nyVersjon(ctx, oppgave, navIdent, tekst, frist)
	}
	return s.byttGrunn(ctx, oppgave, navIdent, tekst, grunner, frist)
}

func (s *Service) nyVersjon(ctx context.Context, oppgave Oppfolgingsoppgave, navIdent string, tekst *string, frist *Dato) (Oppfolgingsoppgave, error) {
	redigert, err := oppgave.Rediger(tekst, frist, navIdent)
	if err != nil {
		return Oppfolgingsoppgave{}, err
	}
	lagret, err := s.store.CreateVersjon(ctx, redigert)
	if err != nil {
		return Oppfolgingsoppgave{}, err
	}
	s.metrics.IncrementVersjonerOpprettet()
	s.logger.InfoContext(ctx, "oppfolgingsoppgave redigert", "uuid", lagret.UUID)
	return lagret, nil
}

func (s *Service) byttGrunn(ctx context.Context, oppgave Oppfolgingsoppgave, navIdent string, tekst *string, grunner []Oppfolgingsgrunn, frist *Dato) (Oppfolgingsoppgave, error) {
	var ny Oppfolgingsoppgave
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.store.MarkerFjernet(ctx, oppgave.Fjernet(navIdent)); err != nil {
			return err
		}
		lagret, err := s.store.Create(ctx, Ny(oppgave.PersonIdent, navIdent, tekst, grunner, frist))
		if err != nil {
			return err
		}
		ny = lagret
		return nil
	})
	if err != nil {
		return Oppfolgingsoppgave{}, err
	}
	s.metrics.IncrementOppgaverFjernet()
	s.metrics.IncrementOppgaverOpprettet()
	s.logger.InfoContext(ctx, "oppfolgingsoppgave byttet grunn",
		"fjernet", oppgave.UUID, "opprettet", ny.UUID)
	return ny, nil
}

// Fjern soft-deletes the note. Removing an unknown or already-removed note is
// not-found to the caller.
func (s *Service) Fjern(ctx context.Context, id uuid.UUID, navIdent string) error {
	ctx, span := tracer.Start(ctx, "Service.Fjern")
	defer span.End()

	oppgave, err := s.store.GetByUUID(ctx, id)
	if err != nil {
		return err
	}
	if !oppgave.IsActive {
		return fmt.Errorf("oppgave %s er allerede fjernet: %w", id, sentinel.ErrNotFound)
	}
	if err := s.store.MarkerFjernet(ctx, oppgave.Fjernet(navIdent)); err != nil {
		return err
	}
	s.metrics.IncrementOppgaverFjernet()
	s.logger.InfoContext(ctx, "oppfolgingsoppgave fjernet", "uuid", oppgave.UUID)
	return nil
}

// GetVersjoner returns the note's history newest-first.
func (s *Service) GetVersjoner(ctx context.Context, id uuid.UUID) ([]Versjon, error) {
	oppgave, err := s.store.GetByUUID(ctx, id)
	if err != nil {
		return nil, err
	}
	return oppgave.Versjoner, nil
}

// GetAktiveForPersoner is the batched active lookup. Input idents are
// deduplicated by the handler; the store additionally tolerates duplicates.
func (s *Service) GetAktiveForPersoner(ctx context.Context, personIdenter []string) ([]Oppfolgingsoppgave, error) {
	ctx, span := tracer.Start(ctx, "Service.GetAktiveForPersoner")
	defer span.End()

	return s.store.GetAktiveForPersoner(ctx, personIdenter)
}

// GetUpubliserte exposes pending publish work to the publisher job.
func (s *Service) GetUpubliserte(ctx context.Context) ([]Oppfolgingsoppgave, error) {
	return s.store.GetUpubliserte(ctx)
}

// MarkerPublisert stamps the note published after a broker-acknowledged send.
func (s *Service) MarkerPublisert(ctx context.Context, oppgave Oppfolgingsoppgave) error {
	return s.store.MarkerPublisert(ctx, oppgave.Publisert())
}

// ErIkkeFunnet reports whether err carries not-found semantics.
func ErIkkeFunnet(err error) bool {
	return errors.Is(err, sentinel.ErrNotFound)
}
