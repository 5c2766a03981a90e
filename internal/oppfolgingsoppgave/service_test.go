package oppfolgingsoppgave

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"huskelapp/internal/platform/metrics"
	"huskelapp/pkg/platform/sentinel"
	txcontext "huskelapp/pkg/platform/tx"
)

type ServiceSuite struct {
	suite.Suite
	store   *InMemoryStore
	metrics *metrics.Metrics
	service *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.metrics = metrics.New(prometheus.NewRegistry())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.service = NewService(s.store, txcontext.Passthrough{}, s.metrics, logger)
}

func (s *ServiceSuite) TestGetAktiv() {
	ctx := context.Background()

	s.Run("no notes yields nil", func() {
		oppgave, err := s.service.GetAktiv(ctx, "12345678910")
		s.NoError(err)
		s.Nil(oppgave)
	})

	s.Run("returns the newest active note", func() {
		opprettet, err := s.service.Opprett(ctx, "12345678911", "Z999999", tekst("A"), []Oppfolgingsgrunn{GrunnAnnen}, nil)
		s.Require().NoError(err)

		oppgave, err := s.service.GetAktiv(ctx, "12345678911")
		s.Require().NoError(err)
		s.Require().NotNil(oppgave)
		s.Equal(opprettet.UUID, oppgave.UUID)
	})

	s.Run("only removed history yields nil", func() {
		opprettet, err := s.service.Opprett(ctx, "12345678912", "Z999999", tekst("A"), []Oppfolgingsgrunn{GrunnAnnen}, nil)
		s.Require().NoError(err)
		s.Require().NoError(s.service.Fjern(ctx, opprettet.UUID, "Z999999"))

		oppgave, err := s.service.GetAktiv(ctx, "12345678912")
		s.NoError(err)
		s.Nil(oppgave)
	})
}

func (s *ServiceSuite) TestOpprett() {
	ctx := context.Background()

	s.Run("always starts a brand-new note", func() {
		forste, err := s.service.Opprett(ctx, "12345678913", "Z999999", tekst("A"), []Oppfolgingsgrunn{GrunnAnnen}, nil)
		s.Require().NoError(err)
		s.Require().NoError(s.service.Fjern(ctx, forste.UUID, "Z999999"))

		andre, err := s.service.Opprett(ctx, "12345678913", "Z999999", tekst("A"), []Oppfolgingsgrunn{GrunnAnnen}, nil)
		s.Require().NoError(err)

		s.NotEqual(forste.UUID, andre.UUID, "inactive notes are never reactivated")
		s.Len(andre.Versjoner, 1)
	})

	s.Run("increments the created counter", func() {
		foer := testutil.ToFloat64(s.metrics.OppgaverOpprettet)
		_, err := s.service.Opprett(ctx, "12345678914", "Z999999", nil, []Oppfolgingsgrunn{GrunnAnnen}, nil)
		s.Require().NoError(err)
		s.Equal(foer+1, testutil.ToFloat64(s.metrics.OppgaverOpprettet))
	})
}

func (s *ServiceSuite) TestRediger() {
	ctx := context.Background()

	s.Run("unknown uuid is not found", func() {
		ukjent := Ny("12345678915", "Z999999", nil, []Oppfolgingsgrunn{GrunnAnnen}, nil)
		_, err := s.service.Rediger(ctx, ukjent.UUID, "Z999999", tekst("B"), nil, nil)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("removed note is not found", func() {
		oppgave, err := s.service.Opprett(ctx, "12345678916", "Z999999", tekst("A"), []Oppfolgingsgrunn{GrunnAnnen}, nil)
		s.Require().NoError(err)
		s.Require().NoError(s.service.Fjern(ctx, oppgave.UUID, "Z999999"))

		_, err = s.service.Rediger(ctx, oppgave.UUID, "Z999999", tekst("B"), nil, nil)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("same reason appends a version to the same note", func() {
		oppgave, err := s.service.Opprett(ctx, "12345678917", "Z999999", tekst("A"), []Oppfolgingsgrunn{GrunnTaKontaktBruker}, frist(2026, time.October, 1))
		s.Require().NoError(err)

		redigert, err := s.service.Rediger(ctx, oppgave.UUID, "Z888888", tekst("B"),
			[]Oppfolgingsgrunn{GrunnTaKontaktBruker}, frist(2026, time.October, 1))
		s.Require().NoError(err)
		s.Equal(oppgave.UUID, redigert.UUID)

		hentet, err := s.store.GetByUUID(ctx, oppgave.UUID)
		s.Require().NoError(err)
		s.Require().Len(hentet.Versjoner, 2)
		s.Equal("B", *hentet.Versjoner[0].Tekst)
		s.Equal("A", *hentet.Versjoner[1].Tekst)
	})

	s.Run("omitted reason means unchanged", func() {
		oppgave, err := s.service.Opprett(ctx, "12345678918", "Z999999", tekst("A"), []Oppfolgingsgrunn{GrunnTaKontaktBehandler}, nil)
		s.Require().NoError(err)

		redigert, err := s.service.Rediger(ctx, oppgave.UUID, "Z999999", tekst("B"), nil, nil)
		s.Require().NoError(err)
		s.Equal(oppgave.UUID, redigert.UUID)
		s.Equal([]Oppfolgingsgrunn{GrunnTaKontaktBehandler}, redigert.SisteVersjon().Grunner)
	})

	s.Run("no actual change is rejected and nothing persisted", func() {
		oppgave, err := s.service.Opprett(ctx, "12345678919", "Z999999", tekst("A"), []Oppfolgingsgrunn{GrunnAnnen}, nil)
		s.Require().NoError(err)

		_, err = s.service.Rediger(ctx, oppgave.UUID, "Z999999", tekst("A"), nil, nil)
		s.ErrorIs(err, ErrIngenEndring)

		hentet, err := s.store.GetByUUID(ctx, oppgave.UUID)
		s.Require().NoError(err)
		s.Len(hentet.Versjoner, 1)
	})

	s.Run("changed reason removes the old note and creates a new one", func() {
		oppgave, err := s.service.Opprett(ctx, "12345678920", "Z999999", tekst("A"), []Oppfolgingsgrunn{GrunnTaKontaktBruker}, nil)
		s.Require().NoError(err)

		ny, err := s.service.Rediger(ctx, oppgave.UUID, "Z888888", tekst("A"),
			[]Oppfolgingsgrunn{GrunnTaKontaktArbeidsgiver}, nil)
		s.Require().NoError(err)

		s.NotEqual(oppgave.UUID, ny.UUID)
		s.True(ny.IsActive)
		s.Equal([]Oppfolgingsgrunn{GrunnTaKontaktArbeidsgiver}, ny.SisteVersjon().Grunner)
		s.Len(ny.Versjoner, 1)

		gammel, err := s.store.GetByUUID(ctx, oppgave.UUID)
		s.Require().NoError(err)
		s.False(gammel.IsActive)
		s.Equal("Z888888", *gammel.RemovedBy)
		s.Equal([]Oppfolgingsgrunn{GrunnTaKontaktBruker}, gammel.SisteVersjon().Grunner)
		s.Len(gammel.Versjoner, 1)

		oppgaver, err := s.store.GetForPerson(ctx, "12345678920")
		s.Require().NoError(err)
		s.Len(oppgaver, 2)
	})
}

func (s *ServiceSuite) TestFjern() {
	ctx := context.Background()

	s.Run("removes an active note", func() {
		oppgave, err := s.service.Opprett(ctx, "12345678921", "Z999999", tekst("A"), []Oppfolgingsgrunn{GrunnAnnen}, nil)
		s.Require().NoError(err)

		foer := testutil.ToFloat64(s.metrics.OppgaverFjernet)
		s.Require().NoError(s.service.Fjern(ctx, oppgave.UUID, "Z888888"))
		s.Equal(foer+1, testutil.ToFloat64(s.metrics.OppgaverFjernet))

		hentet, err := s.store.GetByUUID(ctx, oppgave.UUID)
		s.Require().NoError(err)
		s.False(hentet.IsActive)
		s.Nil(hentet.PublishedAt)
	})

	s.Run("removing twice is not found", func() {
		oppgave, err := s.service.Opprett(ctx, "12345678922", "Z999999", tekst("A"), []Oppfolgingsgrunn{GrunnAnnen}, nil)
		s.Require().NoError(err)
		s.Require().NoError(s.service.Fjern(ctx, oppgave.UUID, "Z999999"))

		err = s.service.Fjern(ctx, oppgave.UUID, "Z999999")
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *ServiceSuite) TestMarkerPublisert() {
	ctx := context.Background()

	s.Run("stamps the note as published", func() {
		oppgave, err := s.service.Opprett(ctx, "12345678923", "Z999999", tekst("A"), []Oppfolgingsgrunn{GrunnAnnen}, nil)
		s.Require().NoError(err)

		s.Require().NoError(s.service.MarkerPublisert(ctx, oppgave))

		upubliserte, err := s.service.GetUpubliserte(ctx)
		s.Require().NoError(err)
		s.Empty(upubliserte)
	})
}
