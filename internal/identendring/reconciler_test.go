package identendring

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/suite"

	"huskelapp/internal/oppfolgingsoppgave"
)

type ReconcilerSuite struct {
	suite.Suite
	store      *oppfolgingsoppgave.InMemoryStore
	reconciler *Reconciler
}

func TestReconcilerSuite(t *testing.T) {
	suite.Run(t, new(ReconcilerSuite))
}

func (s *ReconcilerSuite) SetupTest() {
	s.store = oppfolgingsoppgave.NewInMemoryStore()
	s.reconciler = NewReconciler(s.store, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func (s *ReconcilerSuite) opprett(personIdent string) oppfolgingsoppgave.Oppfolgingsoppgave {
	t := "notat"
	oppgave := oppfolgingsoppgave.Ny(personIdent, "Z999999", &t,
		[]oppfolgingsoppgave.Oppfolgingsgrunn{oppfolgingsoppgave.GrunnAnnen}, nil)
	lagret, err := s.store.Create(context.Background(), oppgave)
	s.Require().NoError(err)
	return lagret
}

func (s *ReconcilerSuite) antallFor(personIdent string) int {
	oppgaver, err := s.store.GetForPerson(context.Background(), personIdent)
	s.Require().NoError(err)
	return len(oppgaver)
}

func (s *ReconcilerSuite) TestHandle() {
	ctx := context.Background()

	s.Run("moves notes from every retired ident to the new one", func() {
		gammelA := s.opprett("11111111111")
		s.opprett("22222222222")

		err := s.reconciler.Handle(ctx, IdentEndring{Identer: []Ident{
			{Ident: "33333333333", Gjeldende: true, Gruppe: GruppeFolkeregisterident},
			{Ident: "11111111111", Gjeldende: false, Gruppe: GruppeFolkeregisterident},
			{Ident: "22222222222", Gjeldende: false, Gruppe: GruppeFolkeregisterident},
		}})
		s.Require().NoError(err)

		s.Zero(s.antallFor("11111111111"))
		s.Zero(s.antallFor("22222222222"))
		s.Equal(2, s.antallFor("33333333333"))

		flyttet, err := s.store.GetByUUID(ctx, gammelA.UUID)
		s.Require().NoError(err)
		s.Len(flyttet.Versjoner, 1, "version history must survive the move")
	})

	s.Run("removed notes move along with active ones", func() {
		oppgave := s.opprett("44444444444")
		s.Require().NoError(s.store.MarkerFjernet(ctx, oppgave.Fjernet("Z999999")))

		err := s.reconciler.Handle(ctx, IdentEndring{Identer: []Ident{
			{Ident: "55555555555", Gjeldende: true, Gruppe: GruppeFolkeregisterident},
			{Ident: "44444444444", Gjeldende: false, Gruppe: GruppeFolkeregisterident},
		}})
		s.Require().NoError(err)

		s.Zero(s.antallFor("44444444444"))
		s.Equal(1, s.antallFor("55555555555"))
	})

	s.Run("no canonical ident means no mutation", func() {
		s.opprett("66666666666")

		err := s.reconciler.Handle(ctx, IdentEndring{Identer: []Ident{
			{Ident: "66666666666", Gjeldende: false, Gruppe: GruppeFolkeregisterident},
			{Ident: "1000012345678", Gjeldende: true, Gruppe: GruppeAktorID},
		}})
		s.Require().NoError(err)

		s.Equal(1, s.antallFor("66666666666"))
	})

	s.Run("aktør ids are never treated as note owners", func() {
		err := s.reconciler.Handle(ctx, IdentEndring{Identer: []Ident{
			{Ident: "77777777777", Gjeldende: true, Gruppe: GruppeFolkeregisterident},
			{Ident: "1000087654321", Gjeldende: false, Gruppe: GruppeAktorID},
		}})
		s.NoError(err)
	})

	s.Run("event without matching notes is a no-op", func() {
		err := s.reconciler.Handle(ctx, IdentEndring{Identer: []Ident{
			{Ident: "88888888888", Gjeldende: true, Gruppe: GruppeFolkeregisterident},
			{Ident: "99999999999", Gjeldende: false, Gruppe: GruppeFolkeregisterident},
		}})
		s.NoError(err)
	})
}

func (s *ReconcilerSuite) TestHandleRecord() {
	ctx := context.Background()

	s.Run("decodes the bus payload", func() {
		s.opprett("11111111112")

		payload := []byte(`{"identer":[` +
			`{"ident":"11111111113","gjeldende":true,"gruppe":"FOLKEREGISTERIDENT"},` +
			`{"ident":"11111111112","gjeldende":false,"gruppe":"FOLKEREGISTERIDENT"}]}`)
		err := s.reconciler.HandleRecord(ctx, []byte("key"), payload)
		s.Require().NoError(err)

		s.Equal(1, s.antallFor("11111111113"))
	})

	s.Run("rejects malformed payloads", func() {
		err := s.reconciler.HandleRecord(ctx, nil, []byte("not json"))
		s.Error(err)
	})
}
