// Package identendring migrates follow-up notes when the person registry
// retires an ident in favor of a new canonical one. Version history is never
// rewritten; only the owning ident moves.
package identendring

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"huskelapp/internal/oppfolgingsoppgave"
)

type IdentGruppe string

const (
	GruppeFolkeregisterident IdentGruppe = "FOLKEREGISTERIDENT"
	GruppeAktorID            IdentGruppe = "AKTORID"
	GruppeNPID               IdentGruppe = "NPID"
)

// Ident is one identifier tuple from the registry's change event.
type Ident struct {
	Ident     string      `json:"ident"`
	Gjeldende bool        `json:"gjeldende"`
	Gruppe    IdentGruppe `json:"gruppe"`
}

// IdentEndring is the registry's notification that a person's identifiers
// changed. At most one folkeregisterident is gjeldende.
type IdentEndring struct {
	Identer []Ident `json:"identer"`
}

// Store is the slice of the note store the reconciler needs.
type Store interface {
	GetForPerson(ctx context.Context, personIdent string) ([]oppfolgingsoppgave.Oppfolgingsoppgave, error)
	ReassignPerson(ctx context.Context, nyIdent string, oppgaver []oppfolgingsoppgave.Oppfolgingsoppgave) error
}

type Reconciler struct {
	store  Store
	logger *slog.Logger
}

func NewReconciler(store Store, logger *slog.Logger) *Reconciler {
	return &Reconciler{store: store, logger: logger}
}

// HandleRecord adapts a raw bus record to Handle; wired into the consumer loop.
func (r *Reconciler) HandleRecord(ctx context.Context, _, value []byte) error {
	var endring IdentEndring
	if err := json.Unmarshal(value, &endring); err != nil {
		return fmt.Errorf("unmarshal ident-endring: %w", err)
	}
	return r.Handle(ctx, endring)
}

// Handle moves all notes under retired idents to the new canonical ident in
// one atomic store operation. Without a canonical ident there is nothing safe
// to do: guessing could attach notes to the wrong person, so the event is
// logged and skipped.
func (r *Reconciler) Handle(ctx context.Context, endring IdentEndring) error {
	gjeldende := gjeldendeIdent(endring.Identer)
	if gjeldende == "" {
		r.logger.WarnContext(ctx, "ident-endring uten gjeldende ident, hopper over")
		return nil
	}

	var flyttes []oppfolgingsoppgave.Oppfolgingsoppgave
	for _, utgaatt := range utgaatteIdenter(endring.Identer) {
		oppgaver, err := r.store.GetForPerson(ctx, utgaatt)
		if err != nil {
			return fmt.Errorf("hent oppgaver for utgått ident: %w", err)
		}
		flyttes = append(flyttes, oppgaver...)
	}
	if len(flyttes) == 0 {
		return nil
	}

	if err := r.store.ReassignPerson(ctx, gjeldende, flyttes); err != nil {
		return fmt.Errorf("flytt oppgaver til ny ident: %w", err)
	}
	r.logger.InfoContext(ctx, "oppgaver flyttet til ny ident", "antall", len(flyttes))
	return nil
}

func gjeldendeIdent(identer []Ident) string {
	for _, ident := range identer {
		if ident.Gjeldende && ident.Gruppe == GruppeFolkeregisterident {
			return ident.Ident
		}
	}
	return ""
}

func utgaatteIdenter(identer []Ident) []string {
	var utgaatte []string
	for _, ident := range identer {
		if ident.Gjeldende || ident.Gruppe == GruppeAktorID {
			continue
		}
		utgaatte = append(utgaatte, ident.Ident)
	}
	return utgaatte
}
