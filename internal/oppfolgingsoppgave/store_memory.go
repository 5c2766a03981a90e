package oppfolgingsoppgave

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"huskelapp/pkg/platform/sentinel"
)

// InMemoryStore mirrors PostgresStore semantics for tests: same ordering, same
// sentinel errors, same "latest version only" read models.
type InMemoryStore struct {
	mu       sync.RWMutex
	nesteID  int64
	oppgaver map[uuid.UUID]Oppfolgingsoppgave
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{oppgaver: make(map[uuid.UUID]Oppfolgingsoppgave)}
}

func (s *InMemoryStore) Create(_ context.Context, oppgave Oppfolgingsoppgave) (Oppfolgingsoppgave, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nesteID++
	oppgave.ID = s.nesteID
	s.oppgaver[oppgave.UUID] = kopier(oppgave)
	return oppgave, nil
}

func (s *InMemoryStore) CreateVersjon(_ context.Context, oppgave Oppfolgingsoppgave) (Oppfolgingsoppgave, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.oppgaver[oppgave.UUID]; !ok {
		return Oppfolgingsoppgave{}, sentinel.ErrPersistence
	}
	s.oppgaver[oppgave.UUID] = kopier(oppgave)
	return oppgave, nil
}

func (s *InMemoryStore) GetForPerson(_ context.Context, personIdent string) ([]Oppfolgingsoppgave, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var resultat []Oppfolgingsoppgave
	for _, oppgave := range s.oppgaver {
		if oppgave.PersonIdent == personIdent {
			resultat = append(resultat, medSisteVersjon(oppgave))
		}
	}
	nyesteForst(resultat)
	return resultat, nil
}

func (s *InMemoryStore) GetByUUID(_ context.Context, id uuid.UUID) (Oppfolgingsoppgave, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	oppgave, ok := s.oppgaver[id]
	if !ok {
		return Oppfolgingsoppgave{}, sentinel.ErrNotFound
	}
	return kopier(oppgave), nil
}

func (s *InMemoryStore) GetVersjoner(_ context.Context, oppgaveID int64) ([]Versjon, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, oppgave := range s.oppgaver {
		if oppgave.ID == oppgaveID {
			return append([]Versjon{}, oppgave.Versjoner...), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) GetAktiveForPersoner(_ context.Context, personIdenter []string) ([]Oppfolgingsoppgave, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	identer := make(map[string]struct{}, len(personIdenter))
	for _, ident := range personIdenter {
		identer[ident] = struct{}{}
	}
	var resultat []Oppfolgingsoppgave
	for _, oppgave := range s.oppgaver {
		if _, ok := identer[oppgave.PersonIdent]; ok && oppgave.IsActive {
			resultat = append(resultat, medSisteVersjon(oppgave))
		}
	}
	nyesteForst(resultat)
	return resultat, nil
}

func (s *InMemoryStore) GetUpubliserte(_ context.Context) ([]Oppfolgingsoppgave, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var resultat []Oppfolgingsoppgave
	for _, oppgave := range s.oppgaver {
		if oppgave.PublishedAt == nil {
			resultat = append(resultat, medSisteVersjon(oppgave))
		}
	}
	sort.Slice(resultat, func(i, j int) bool {
		if resultat[i].CreatedAt.Equal(resultat[j].CreatedAt) {
			return resultat[i].ID < resultat[j].ID
		}
		return resultat[i].CreatedAt.Before(resultat[j].CreatedAt)
	})
	return resultat, nil
}

func (s *InMemoryStore) MarkerPublisert(_ context.Context, oppgave Oppfolgingsoppgave) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	lagret, ok := s.oppgaver[oppgave.UUID]
	if !ok {
		return sentinel.ErrPersistence
	}
	lagret.PublishedAt = oppgave.PublishedAt
	s.oppgaver[oppgave.UUID] = lagret
	return nil
}

func (s *InMemoryStore) MarkerFjernet(_ context.Context, oppgave Oppfolgingsoppgave) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	lagret, ok := s.oppgaver[oppgave.UUID]
	if !ok || !lagret.IsActive {
		return sentinel.ErrPersistence
	}
	lagret.IsActive = false
	lagret.RemovedBy = oppgave.RemovedBy
	lagret.UpdatedAt = oppgave.UpdatedAt
	lagret.PublishedAt = nil
	s.oppgaver[oppgave.UUID] = lagret
	return nil
}

func (s *InMemoryStore) ReassignPerson(_ context.Context, nyIdent string, oppgaver []Oppfolgingsoppgave) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, oppgave := range oppgaver {
		if _, ok := s.oppgaver[oppgave.UUID]; !ok {
			return sentinel.ErrPersistence
		}
	}
	for _, oppgave := range oppgaver {
		lagret := s.oppgaver[oppgave.UUID]
		lagret.PersonIdent = nyIdent
		s.oppgaver[oppgave.UUID] = lagret
	}
	return nil
}

func kopier(oppgave Oppfolgingsoppgave) Oppfolgingsoppgave {
	oppgave.Versjoner = append([]Versjon{}, oppgave.Versjoner...)
	return oppgave
}

func medSisteVersjon(oppgave Oppfolgingsoppgave) Oppfolgingsoppgave {
	oppgave.Versjoner = []Versjon{oppgave.SisteVersjon()}
	return oppgave
}

func nyesteForst(oppgaver []Oppfolgingsoppgave) {
	sort.Slice(oppgaver, func(i, j int) bool {
		if oppgaver[i].CreatedAt.Equal(oppgaver[j].CreatedAt) {
			return oppgaver[i].ID > oppgaver[j].ID
		}
		return oppgaver[i].CreatedAt.After(oppgaver[j].CreatedAt)
	})
}
