package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"huskelapp/internal/oppfolgingsoppgave"
	"huskelapp/internal/platform/middleware"
	"huskelapp/internal/tilgang"
	pkgstrings "huskelapp/pkg/platform/strings"
)

// Service is the slice of the record service the HTTP layer consumes.
type Service interface {
	GetAktiv(ctx context.Context, personIdent string) (*oppfolgingsoppgave.Oppfolgingsoppgave, error)
	Opprett(ctx context.Context, personIdent, navIdent string, tekst *string, grunner []oppfolgingsoppgave.Oppfolgingsgrunn, frist *oppfolgingsoppgave.Dato) (oppfolgingsoppgave.Oppfolgingsoppgave, error)
	Rediger(ctx context.Context, id uuid.UUID, navIdent string, tekst *string, grunner []oppfolgingsoppgave.Oppfolgingsgrunn, frist *oppfolgingsoppgave.Dato) (oppfolgingsoppgave.Oppfolgingsoppgave, error)
	Fjern(ctx context.Context, id uuid.UUID, navIdent string) error
	GetVersjoner(ctx context.Context, id uuid.UUID) ([]oppfolgingsoppgave.Versjon, error)
	GetAktiveForPersoner(ctx context.Context, personIdenter []string) ([]oppfolgingsoppgave.Oppfolgingsoppgave, error)
}

// Handler is the thin HTTP layer. It delegates to the record service and the
// external authorization client; business logic stays out of transport.
type Handler struct {
	service Service
	tilgang tilgang.Client
	logger  *slog.Logger
}

func New(service Service, tilgang tilgang.Client, logger *slog.Logger) *Handler {
	return &Handler{service: service, tilgang: tilgang, logger: logger}
}

// Routes mounts the note endpoints on the given router.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.handleGetAktiv)
	r.Post("/", h.handleOpprett)
	r.Put("/{uuid}", h.handleRediger)
	r.Delete("/{uuid}", h.handleFjern)
	r.Get("/{uuid}/versjoner", h.handleGetVersjoner)
	r.Post("/hent-aktive", h.handleHentAktive)
}

func (h *Handler) handleGetAktiv(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	personIdent, ok := h.krevTilgang(w, r)
	if !ok {
		return
	}

	oppgave, err := h.service.GetAktiv(ctx, personIdent)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if oppgave == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, tilOppgaveResponse(*oppgave))
}

func (h *Handler) handleOpprett(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	personIdent, ok := h.krevTilgang(w, r)
	if !ok {
		return
	}

	var req OpprettRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "ugyldig request body")
		return
	}
	if err := req.validate(); err != nil {
		badRequest(w, err.Error())
		return
	}

	oppgave, err := h.service.Opprett(ctx, personIdent, middleware.NavIdent(ctx), req.Tekst,
		[]oppfolgingsoppgave.Oppfolgingsgrunn{req.Oppfolgingsgrunn}, req.Frist)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tilOppgaveResponse(oppgave))
}

func (h *Handler) handleRediger(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, ok := h.krevTilgang(w, r); !ok {
		return
	}
	id, ok := parseUUID(w, r)
	if !ok {
		return
	}

	var req RedigerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "ugyldig request body")
		return
	}
	if err := req.validate(); err != nil {
		badRequest(w, err.Error())
		return
	}

	oppgave, err := h.service.Rediger(ctx, id, middleware.NavIdent(ctx), req.Tekst, req.grunner(), req.Frist)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tilOppgaveResponse(oppgave))
}

func (h *Handler) handleFjern(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, ok := h.krevTilgang(w, r); !ok {
		return
	}
	id, ok := parseUUID(w, r)
	if !ok {
		return
	}

	if err := h.service.Fjern(ctx, id, middleware.NavIdent(ctx)); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleGetVersjoner(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, ok := h.krevTilgang(w, r); !ok {
		return
	}
	id, ok := parseUUID(w, r)
	if !ok {
		return
	}

	versjoner, err := h.service.GetVersjoner(ctx, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tilVersjonResponser(versjoner))
}

// handleHentAktive is the batched lookup. Idents without an access grant are
// silently dropped; only idents with both a grant and an active note appear
// in the response.
func (h *Handler) handleHentAktive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	navIdent := middleware.NavIdent(ctx)

	var req HentAktiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "ugyldig request body")
		return
	}

	var tillatt []string
	for _, personIdent := range pkgstrings.DedupeAndTrim(req.PersonIdenter) {
		harTilgang, err := h.tilgang.HarTilgang(ctx, navIdent, personIdent)
		if err != nil {
			h.logger.ErrorContext(ctx, "tilgangssjekk feilet", "error", err)
			continue
		}
		if harTilgang {
			tillatt = append(tillatt, personIdent)
		}
	}

	oppgaver, err := h.service.GetAktiveForPersoner(ctx, tillatt)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	resultat := make(map[string]OppgaveResponse, len(oppgaver))
	for _, oppgave := range oppgaver {
		if _, ok := resultat[oppgave.PersonIdent]; ok {
			continue
		}
		resultat[oppgave.PersonIdent] = tilOppgaveResponse(oppgave)
	}
	writeJSON(w, http.StatusOK, resultat)
}

// krevTilgang reads the subject ident from the fnr header and consults the
// external authorization service. Missing grants read as 403 without leaking
// whether the person exists.
func (h *Handler) krevTilgang(w http.ResponseWriter, r *http.Request) (string, bool) {
	ctx := r.Context()
	personIdent := r.Header.Get("fnr")
	if personIdent == "" {
		badRequest(w, "fnr header mangler")
		return "", false
	}

	harTilgang, err := h.tilgang.HarTilgang(ctx, middleware.NavIdent(ctx), personIdent)
	if err != nil {
		h.logger.ErrorContext(ctx, "tilgangssjekk feilet", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal"})
		return "", false
	}
	if !harTilgang {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "forbidden"})
		return "", false
	}
	return personIdent, true
}

func parseUUID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "uuid"))
	if err != nil {
		badRequest(w, "ugyldig uuid")
		return uuid.UUID{}, false
	}
	return id, true
}

// writeError translates service errors to HTTP. Not-found and no-change are
// distinct client-visible outcomes; everything else is a 500.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case oppfolgingsoppgave.ErIkkeFunnet(err):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found"})
	case errors.Is(err, oppfolgingsoppgave.ErrIngenEndring):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "ingen_endring"})
	default:
		h.logger.ErrorContext(r.Context(), "request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal"})
	}
}

func badRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
