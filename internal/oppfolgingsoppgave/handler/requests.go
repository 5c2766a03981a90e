package handler

import (
	"errors"

	"huskelapp/internal/oppfolgingsoppgave"
)

type OpprettRequest struct {
	Tekst            *string                             `json:"tekst,omitempty"`
	Oppfolgingsgrunn oppfolgingsoppgave.Oppfolgingsgrunn `json:"oppfolgingsgrunn"`
	Frist            *oppfolgingsoppgave.Dato            `json:"frist,omitempty"`
}

func (r OpprettRequest) validate() error {
	if !r.Oppfolgingsgrunn.Gyldig() {
		return errors.New("ugyldig oppfolgingsgrunn")
	}
	return nil
}

type RedigerRequest struct {
	Tekst            *string                              `json:"tekst,omitempty"`
	Oppfolgingsgrunn *oppfolgingsoppgave.Oppfolgingsgrunn `json:"oppfolgingsgrunn,omitempty"`
	Frist            *oppfolgingsoppgave.Dato             `json:"frist,omitempty"`
}

func (r RedigerRequest) validate() error {
	if r.Oppfolgingsgrunn != nil && !r.Oppfolgingsgrunn.Gyldig() {
		return errors.New("ugyldig oppfolgingsgrunn")
	}
	return nil
}

// grunner maps the optional request field to the service's "nil means
// unchanged" contract.
func (r RedigerRequest) grunner() []oppfolgingsoppgave.Oppfolgingsgrunn {
	if r.Oppfolgingsgrunn == nil {
		return nil
	}
	return []oppfolgingsoppgave.Oppfolgingsgrunn{*r.Oppfolgingsgrunn}
}

type HentAktiveRequest struct {
	PersonIdenter []string `json:"personidenter"`
}
