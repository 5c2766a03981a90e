package oppfolgingsoppgave

import (
	"context"

	"github.com/google/uuid"
)

// Store is the persistence gateway for notes and their versions. Writes that
// affect an unexpected number of rows fail with sentinel.ErrPersistence;
// lookups that find nothing fail with sentinel.ErrNotFound.
//
// Implementations pick up an ambient transaction from the context (see
// pkg/platform/tx), so the service can span remove+create atomically.
type Store interface {
	// Create inserts the note and its single initial version atomically and
	// returns the note with its store-assigned id.
	Create(ctx context.Context, oppgave Oppfolgingsoppgave) (Oppfolgingsoppgave, error)

	// CreateVersjon inserts the note's newest version and stamps the parent's
	// updated_at/published_at in the same transaction.
	CreateVersjon(ctx context.Context, oppgave Oppfolgingsoppgave) (Oppfolgingsoppgave, error)

	// GetForPerson returns the person's notes newest-created-first, each
	// carrying only its latest version.
	GetForPerson(ctx context.Context, personIdent string) ([]Oppfolgingsoppgave, error)

	// GetByUUID returns the note with its full version history.
	GetByUUID(ctx context.Context, id uuid.UUID) (Oppfolgingsoppgave, error)

	// GetVersjoner returns the note's versions newest-first.
	GetVersjoner(ctx context.Context, oppgaveID int64) ([]Versjon, error)

	// GetAktiveForPersoner returns active notes for the given idents, each
	// carrying only its latest version. An empty input yields an empty result
	// and duplicate idents are not counted twice.
	GetAktiveForPersoner(ctx context.Context, personIdenter []string) ([]Oppfolgingsoppgave, error)

	// GetUpubliserte returns notes with unpublished state oldest-created-first
	// so the longest-waiting work publishes first.
	GetUpubliserte(ctx context.Context) ([]Oppfolgingsoppgave, error)

	// MarkerPublisert persists the note's PublishedAt stamp.
	MarkerPublisert(ctx context.Context, oppgave Oppfolgingsoppgave) error

	// MarkerFjernet persists the removal of an active note.
	MarkerFjernet(ctx context.Context, oppgave Oppfolgingsoppgave) error

	// ReassignPerson moves the given notes to a new person ident, all rows or
	// none.
	ReassignPerson(ctx context.Context, nyIdent string, oppgaver []Oppfolgingsoppgave) error
}
