package handler

import (
	"time"

	"github.com/google/uuid"

	"huskelapp/internal/oppfolgingsoppgave"
)

// OppgaveResponse is a note joined with its latest version, the shape clients
// work with.
type OppgaveResponse struct {
	UUID               uuid.UUID                             `json:"uuid"`
	PersonIdent        string                                `json:"personIdent"`
	Tekst              *string                               `json:"tekst,omitempty"`
	Oppfolgingsgrunner []oppfolgingsoppgave.Oppfolgingsgrunn `json:"oppfolgingsgrunner"`
	Frist              *oppfolgingsoppgave.Dato              `json:"frist,omitempty"`
	IsActive           bool                                  `json:"isActive"`
	CreatedBy          string                                `json:"createdBy"`
	CreatedAt          time.Time                             `json:"createdAt"`
	UpdatedAt          time.Time                             `json:"updatedAt"`
}

func tilOppgaveResponse(oppgave oppfolgingsoppgave.Oppfolgingsoppgave) OppgaveResponse {
	siste := oppgave.SisteVersjon()
	return OppgaveResponse{
		UUID:               oppgave.UUID,
		PersonIdent:        oppgave.PersonIdent,
		Tekst:              siste.Tekst,
		Oppfolgingsgrunner: siste.Grunner,
		Frist:              siste.Frist,
		IsActive:           oppgave.IsActive,
		CreatedBy:          siste.CreatedBy,
		CreatedAt:          oppgave.CreatedAt,
		UpdatedAt:          oppgave.UpdatedAt,
	}
}

type VersjonResponse struct {
	UUID               uuid.UUID                             `json:"uuid"`
	CreatedBy          string                                `json:"createdBy"`
	CreatedAt          time.Time                             `json:"createdAt"`
	Tekst              *string                               `json:"tekst,omitempty"`
	Oppfolgingsgrunner []oppfolgingsoppgave.Oppfolgingsgrunn `json:"oppfolgingsgrunner"`
	Frist              *oppfolgingsoppgave.Dato              `json:"frist,omitempty"`
}

func tilVersjonResponser(versjoner []oppfolgingsoppgave.Versjon) []VersjonResponse {
	responser := make([]VersjonResponse, len(versjoner))
	for i, versjon := range versjoner {
		responser[i] = VersjonResponse{
			UUID:               versjon.UUID,
			CreatedBy:          versjon.CreatedBy,
			CreatedAt:          versjon.CreatedAt,
			Tekst:              versjon.Tekst,
			Oppfolgingsgrunner: versjon.Grunner,
			Frist:              versjon.Frist,
		}
	}
	return responser
}
