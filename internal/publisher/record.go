package publisher

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"huskelapp/internal/oppfolgingsoppgave"
)

// KafkaOppfolgingsoppgave is the outbound event, one per note per publish.
// Downstream consumers must be idempotent on (uuid, updatedAt): delivery is
// at-least-once and re-emits happen after a crash between broker ack and the
// published stamp.
type KafkaOppfolgingsoppgave struct {
	UUID               uuid.UUID                             `json:"uuid"`
	PersonIdent        string                                `json:"personIdent"`
	VeilederIdent      string                                `json:"veilederIdent"`
	Tekst              *string                               `json:"tekst,omitempty"`
	Oppfolgingsgrunner []oppfolgingsoppgave.Oppfolgingsgrunn `json:"oppfolgingsgrunner"`
	Frist              *oppfolgingsoppgave.Dato              `json:"frist,omitempty"`
	IsActive           bool                                  `json:"isActive"`
	CreatedAt          time.Time                             `json:"createdAt"`
	UpdatedAt          time.Time                             `json:"updatedAt"`
}

// buildRecord maps a note's latest version onto the wire event. The key is a
// stable hash of the person ident so all events for one person land on the
// same partition and keep their order.
func buildRecord(oppgave oppfolgingsoppgave.Oppfolgingsoppgave) (key, value []byte, err error) {
	siste := oppgave.SisteVersjon()
	event := KafkaOppfolgingsoppgave{
		UUID:               oppgave.UUID,
		PersonIdent:        oppgave.PersonIdent,
		VeilederIdent:      siste.CreatedBy,
		Tekst:              siste.Tekst,
		Oppfolgingsgrunner: siste.Grunner,
		Frist:              siste.Frist,
		IsActive:           oppgave.IsActive,
		CreatedAt:          oppgave.CreatedAt,
		UpdatedAt:          oppgave.UpdatedAt,
	}
	value, err = json.Marshal(event)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal oppgave event: %w", err)
	}
	sum := sha256.Sum256([]byte(oppgave.PersonIdent))
	return []byte(hex.EncodeToString(sum[:])), value, nil
}
