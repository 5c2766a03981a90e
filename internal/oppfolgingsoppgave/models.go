package oppfolgingsoppgave

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrIngenEndring rejects edits where neither tekst nor frist differ from the
// latest version. Stores never see these; the service surfaces them as a
// client error.
var ErrIngenEndring = errors.New("ingen endring i tekst eller frist")

// Oppfolgingsgrunn categorizes why a follow-up note exists.
type Oppfolgingsgrunn string

const (
	GrunnVurderBehovForArbeidsevne Oppfolgingsgrunn = "VURDER_BEHOV_FOR_ARBEIDSEVNEVURDERING"
	GrunnTaKontaktBruker           Oppfolgingsgrunn = "TA_KONTAKT_BRUKER"
	GrunnTaKontaktArbeidsgiver     Oppfolgingsgrunn = "TA_KONTAKT_ARBEIDSGIVER"
	GrunnTaKontaktBehandler        Oppfolgingsgrunn = "TA_KONTAKT_BEHANDLER"
	GrunnFolgOppEgenvurdering      Oppfolgingsgrunn = "FOLG_OPP_EGENVURDERING"
	GrunnAnnen                     Oppfolgingsgrunn = "ANNEN_GRUNN"
)

var gyldigeGrunner = map[Oppfolgingsgrunn]bool{
	GrunnVurderBehovForArbeidsevne: true,
	GrunnTaKontaktBruker:           true,
	GrunnTaKontaktArbeidsgiver:     true,
	GrunnTaKontaktBehandler:        true,
	GrunnFolgOppEgenvurdering:      true,
	GrunnAnnen:                     true,
}

func (g Oppfolgingsgrunn) Gyldig() bool {
	return gyldigeGrunner[g]
}

// Dato is a calendar date without a time component, serialized as YYYY-MM-DD.
// Deadlines (frist) are dates, not instants.
type Dato struct {
	time.Time
}

const datoFormat = "2006-01-02"

func NyDato(year int, month time.Month, day int) Dato {
	return Dato{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func ParseDato(s string) (Dato, error) {
	t, err := time.Parse(datoFormat, s)
	if err != nil {
		return Dato{}, err
	}
	return Dato{t}, nil
}

func (d Dato) String() string {
	return d.Format(datoFormat)
}

func (d Dato) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(datoFormat) + `"`), nil
}

func (d *Dato) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		return nil
	}
	t, err := time.Parse(`"`+datoFormat+`"`, s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// Versjon is one immutable snapshot of a note's content. Every edit produces a
// new one; existing versions are never rewritten.
type Versjon struct {
	UUID      uuid.UUID
	CreatedBy string
	CreatedAt time.Time
	Tekst     *string
	Grunner   []Oppfolgingsgrunn
	Frist     *Dato
}

// Oppfolgingsoppgave is a follow-up note attached to a person, with its full
// version history ordered newest first. Versjoner is never empty for any
// reachable value. Values are snapshots: transitions return a new value and
// never mutate the receiver.
type Oppfolgingsoppgave struct {
	ID          int64 // store-assigned, zero until persisted
	UUID        uuid.UUID
	PersonIdent string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
	PublishedAt *time.Time
	RemovedBy   *string
	Versjoner   []Versjon
}

// Ny builds a fresh active note with a single initial version and nothing
// published yet.
func Ny(personIdent, createdBy string, tekst *string, grunner []Oppfolgingsgrunn, frist *Dato) Oppfolgingsoppgave {
	now := time.Now()
	return Oppfolgingsoppgave{
		UUID:        uuid.New(),
		PersonIdent: personIdent,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
		Versjoner: []Versjon{{
			UUID:      uuid.New(),
			CreatedBy: createdBy,
			CreatedAt: now,
			Tekst:     tekst,
			Grunner:   grunner,
			Frist:     frist,
		}},
	}
}

// SisteVersjon returns the newest version.
func (o Oppfolgingsoppgave) SisteVersjon() Versjon {
	return o.Versjoner[0]
}

// Rediger prepends a new version with the given content, bumps UpdatedAt and
// clears PublishedAt so the publisher picks the change up. Fails with
// ErrIngenEndring when both tekst and frist match the latest version.
// The reason codes carry over unchanged; a reason change is a new note, not a
// new version.
func (o Oppfolgingsoppgave) Rediger(tekst *string, frist *Dato, createdBy string) (Oppfolgingsoppgave, error) {
	siste := o.SisteVersjon()
	if likTekst(siste.Tekst, tekst) && likFrist(siste.Frist, frist) {
		return Oppfolgingsoppgave{}, ErrIngenEndring
	}
	now := time.Now()
	versjon := Versjon{
		UUID:      uuid.New(),
		CreatedBy: createdBy,
		CreatedAt: now,
		Tekst:     tekst,
		Grunner:   siste.Grunner,
		Frist:     frist,
	}
	o.Versjoner = append([]Versjon{versjon}, o.Versjoner...)
	o.UpdatedAt = now
	o.PublishedAt = nil
	return o, nil
}

// Fjernet marks the note removed. The version history stays; only the active
// flag, the removing actor and the timestamps change. A removed note never
// becomes active again.
func (o Oppfolgingsoppgave) Fjernet(removedBy string) Oppfolgingsoppgave {
	o.IsActive = false
	o.RemovedBy = &removedBy
	o.UpdatedAt = time.Now()
	o.PublishedAt = nil
	return o
}

// Publisert stamps the note as delivered to the event bus. UpdatedAt is left
// alone so publishing is invisible to clients.
func (o Oppfolgingsoppgave) Publisert() Oppfolgingsoppgave {
	now := time.Now()
	o.PublishedAt = &now
	return o
}

func likTekst(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func likFrist(a, b *Dato) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(b.Time)
}

// LikeGrunner compares two reason-code sets independent of order.
func LikeGrunner(a, b []Oppfolgingsgrunn) bool {
	if len(a) != len(b) {
		return false
	}
	sett := make(map[Oppfolgingsgrunn]int, len(a))
	for _, g := range a {
		sett[g]++
	}
	for _, g := range b {
		sett[g]--
		if sett[g] < 0 {
			return false
		}
	}
	return true
}
