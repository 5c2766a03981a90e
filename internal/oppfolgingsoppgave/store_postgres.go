package oppfolgingsoppgave

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"huskelapp/pkg/platform/sentinel"
	txcontext "huskelapp/pkg/platform/tx"
)

// PostgresStore is the durable Store. Every write checks the affected-row
// count; a mismatch means a lost race or a concurrently deleted row and
// surfaces as sentinel.ErrPersistence rather than a silent no-op.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// transact runs fn inside the ambient transaction when one is present,
// otherwise inside a fresh one. Multi-statement writes stay atomic either way.
func (s *PostgresStore) transact(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := txcontext.From(ctx); ok {
		return fn(ctx)
	}
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(txcontext.WithTx(ctx, sqlTx)); err != nil {
		_ = sqlTx.Rollback()
		return err
	}
	return sqlTx.Commit()
}

func (s *PostgresStore) Create(ctx context.Context, oppgave Oppfolgingsoppgave) (Oppfolgingsoppgave, error) {
	err := s.transact(ctx, func(ctx context.Context) error {
		row := s.execer(ctx).QueryRowContext(ctx, `
			INSERT INTO oppfolgingsoppgave (uuid, person_ident, is_active, created_at, updated_at, published_at, removed_by)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id
		`,
			oppgave.UUID,
			oppgave.PersonIdent,
			oppgave.IsActive,
			oppgave.CreatedAt,
			oppgave.UpdatedAt,
			nullTime(oppgave.PublishedAt),
			nullString(oppgave.RemovedBy),
		)
		if err := row.Scan(&oppgave.ID); err != nil {
			return fmt.Errorf("insert oppfolgingsoppgave: %w: %w", sentinel.ErrPersistence, err)
		}
		return s.insertVersjon(ctx, oppgave.ID, oppgave.SisteVersjon())
	})
	if err != nil {
		return Oppfolgingsoppgave{}, err
	}
	return oppgave, nil
}

func (s *PostgresStore) CreateVersjon(ctx context.Context, oppgave Oppfolgingsoppgave) (Oppfolgingsoppgave, error) {
	err := s.transact(ctx, func(ctx context.Context) error {
		if err := s.insertVersjon(ctx, oppgave.ID, oppgave.SisteVersjon()); err != nil {
			return err
		}
		result, err := s.execer(ctx).ExecContext(ctx, `
			UPDATE oppfolgingsoppgave SET updated_at = $2, published_at = NULL WHERE id = $1
		`, oppgave.ID, oppgave.UpdatedAt)
		if err != nil {
			return fmt.Errorf("stamp oppfolgingsoppgave: %w", err)
		}
		return expectOneRow(result, "stamp oppfolgingsoppgave")
	})
	if err != nil {
		return Oppfolgingsoppgave{}, err
	}
	return oppgave, nil
}

func (s *PostgresStore) insertVersjon(ctx context.Context, oppgaveID int64, versjon Versjon) error {
	result, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO oppfolgingsoppgave_versjon (uuid, oppfolgingsoppgave_id, created_by, created_at, tekst, oppfolgingsgrunner, frist)
		VALUES ($1, $2, $3, $4, $5, $6::text[], $7)
	`,
		versjon.UUID,
		oppgaveID,
		versjon.CreatedBy,
		versjon.CreatedAt,
		nullString(versjon.Tekst),
		pq.Array(grunnerTilStrenger(versjon.Grunner)),
		nullDato(versjon.Frist),
	)
	if err != nil {
		return fmt.Errorf("insert versjon: %w", err)
	}
	return expectOneRow(result, "insert versjon")
}

const selectMedSisteVersjon = `
	SELECT o.id, o.uuid, o.person_ident, o.is_active, o.created_at, o.updated_at, o.published_at, o.removed_by,
	       v.uuid, v.created_by, v.created_at, v.tekst, v.oppfolgingsgrunner, v.frist
	FROM oppfolgingsoppgave o
	JOIN LATERAL (
		SELECT uuid, created_by, created_at, tekst, oppfolgingsgrunner, frist
		FROM oppfolgingsoppgave_versjon
		WHERE oppfolgingsoppgave_id = o.id
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	) v ON TRUE
`

func (s *PostgresStore) GetForPerson(ctx context.Context, personIdent string) ([]Oppfolgingsoppgave, error) {
	rows, err := s.execer(ctx).QueryContext(ctx,
		selectMedSisteVersjon+` WHERE o.person_ident = $1 ORDER BY o.created_at DESC`,
		personIdent,
	)
	if err != nil {
		return nil, fmt.Errorf("query oppgaver for person: %w", err)
	}
	defer rows.Close()
	return scanOppgaver(rows)
}

func (s *PostgresStore) GetByUUID(ctx context.Context, id uuid.UUID) (Oppfolgingsoppgave, error) {
	row := s.execer(ctx).QueryRowContext(ctx, `
		SELECT id, uuid, person_ident, is_active, created_at, updated_at, published_at, removed_by
		FROM oppfolgingsoppgave
		WHERE uuid = $1
	`, id)

	var (
		oppgave     Oppfolgingsoppgave
		publishedAt sql.NullTime
		removedBy   sql.NullString
	)
	err := row.Scan(
		&oppgave.ID,
		&oppgave.UUID,
		&oppgave.PersonIdent,
		&oppgave.IsActive,
		&oppgave.CreatedAt,
		&oppgave.UpdatedAt,
		&publishedAt,
		&removedBy,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Oppfolgingsoppgave{}, sentinel.ErrNotFound
	}
	if err != nil {
		return Oppfolgingsoppgave{}, fmt.Errorf("query oppgave by uuid: %w", err)
	}
	oppgave.PublishedAt = timePtr(publishedAt)
	oppgave.RemovedBy = stringPtr(removedBy)

	oppgave.Versjoner, err = s.GetVersjoner(ctx, oppgave.ID)
	if err != nil {
		return Oppfolgingsoppgave{}, err
	}
	return oppgave, nil
}

func (s *PostgresStore) GetVersjoner(ctx context.Context, oppgaveID int64) ([]Versjon, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, `
		SELECT uuid, created_by, created_at, tekst, oppfolgingsgrunner, frist
		FROM oppfolgingsoppgave_versjon
		WHERE oppfolgingsoppgave_id = $1
		ORDER BY created_at DESC, id DESC
	`, oppgaveID)
	if err != nil {
		return nil, fmt.Errorf("query versjoner: %w", err)
	}
	defer rows.Close()

	var versjoner []Versjon
	for rows.Next() {
		versjon, err := scanVersjon(rows)
		if err != nil {
			return nil, err
		}
		versjoner = append(versjoner, versjon)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate versjoner: %w", err)
	}
	return versjoner, nil
}

func (s *PostgresStore) GetAktiveForPersoner(ctx context.Context, personIdenter []string) ([]Oppfolgingsoppgave, error) {
	if len(personIdenter) == 0 {
		return nil, nil
	}
	rows, err := s.execer(ctx).QueryContext(ctx,
		selectMedSisteVersjon+` WHERE o.is_active AND o.person_ident = ANY($1::text[]) ORDER BY o.created_at DESC`,
		pq.Array(personIdenter),
	)
	if err != nil {
		return nil, fmt.Errorf("query aktive oppgaver: %w", err)
	}
	defer rows.Close()
	return scanOppgaver(rows)
}

func (s *PostgresStore) GetUpubliserte(ctx context.Context) ([]Oppfolgingsoppgave, error) {
	rows, err := s.execer(ctx).QueryContext(ctx,
		selectMedSisteVersjon+` WHERE o.published_at IS NULL ORDER BY o.created_at ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("query upubliserte oppgaver: %w", err)
	}
	defer rows.Close()
	return scanOppgaver(rows)
}

func (s *PostgresStore) MarkerPublisert(ctx context.Context, oppgave Oppfolgingsoppgave) error {
	result, err := s.execer(ctx).ExecContext(ctx, `
		UPDATE oppfolgingsoppgave SET published_at = $2 WHERE uuid = $1
	`, oppgave.UUID, nullTime(oppgave.PublishedAt))
	if err != nil {
		return fmt.Errorf("mark publisert: %w", err)
	}
	return expectOneRow(result, "mark publisert")
}

func (s *PostgresStore) MarkerFjernet(ctx context.Context, oppgave Oppfolgingsoppgave) error {
	result, err := s.execer(ctx).ExecContext(ctx, `
		UPDATE oppfolgingsoppgave
		SET is_active = FALSE, removed_by = $2, updated_at = $3, published_at = NULL
		WHERE uuid = $1 AND is_active
	`, oppgave.UUID, nullString(oppgave.RemovedBy), oppgave.UpdatedAt)
	if err != nil {
		return fmt.Errorf("mark fjernet: %w", err)
	}
	return expectOneRow(result, "mark fjernet")
}

func (s *PostgresStore) ReassignPerson(ctx context.Context, nyIdent string, oppgaver []Oppfolgingsoppgave) error {
	if len(oppgaver) == 0 {
		return nil
	}
	ids := make([]int64, len(oppgaver))
	for i, oppgave := range oppgaver {
		ids[i] = oppgave.ID
	}
	return s.transact(ctx, func(ctx context.Context) error {
		result, err := s.execer(ctx).ExecContext(ctx, `
			UPDATE oppfolgingsoppgave SET person_ident = $1 WHERE id = ANY($2::bigint[])
		`, nyIdent, pq.Array(ids))
		if err != nil {
			return fmt.Errorf("reassign person: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("reassign person rows affected: %w", err)
		}
		if affected != int64(len(ids)) {
			return fmt.Errorf("reassign person affected %d of %d rows: %w", affected, len(ids), sentinel.ErrPersistence)
		}
		return nil
	})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOppgaver(rows *sql.Rows) ([]Oppfolgingsoppgave, error) {
	var oppgaver []Oppfolgingsoppgave
	for rows.Next() {
		var (
			oppgave     Oppfolgingsoppgave
			publishedAt sql.NullTime
			removedBy   sql.NullString
			tekst       sql.NullString
			grunner     []string
			frist       sql.NullTime
			versjon     Versjon
		)
		err := rows.Scan(
			&oppgave.ID,
			&oppgave.UUID,
			&oppgave.PersonIdent,
			&oppgave.IsActive,
			&oppgave.CreatedAt,
			&oppgave.UpdatedAt,
			&publishedAt,
			&removedBy,
			&versjon.UUID,
			&versjon.CreatedBy,
			&versjon.CreatedAt,
			&tekst,
			pq.Array(&grunner),
			&frist,
		)
		if err != nil {
			return nil, fmt.Errorf("scan oppgave: %w", err)
		}
		oppgave.PublishedAt = timePtr(publishedAt)
		oppgave.RemovedBy = stringPtr(removedBy)
		versjon.Tekst = stringPtr(tekst)
		versjon.Grunner = strengerTilGrunner(grunner)
		versjon.Frist = datoPtr(frist)
		oppgave.Versjoner = []Versjon{versjon}
		oppgaver = append(oppgaver, oppgave)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate oppgaver: %w", err)
	}
	return oppgaver, nil
}

func scanVersjon(row rowScanner) (Versjon, error) {
	var (
		versjon Versjon
		tekst   sql.NullString
		grunner []string
		frist   sql.NullTime
	)
	err := row.Scan(
		&versjon.UUID,
		&versjon.CreatedBy,
		&versjon.CreatedAt,
		&tekst,
		pq.Array(&grunner),
		&frist,
	)
	if err != nil {
		return Versjon{}, fmt.Errorf("scan versjon: %w", err)
	}
	versjon.Tekst = stringPtr(tekst)
	versjon.Grunner = strengerTilGrunner(grunner)
	versjon.Frist = datoPtr(frist)
	return versjon, nil
}

func expectOneRow(result sql.Result, operation string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", operation, err)
	}
	if affected != 1 {
		return fmt.Errorf("%s affected %d rows: %w", operation, affected, sentinel.ErrPersistence)
	}
	return nil
}

func grunnerTilStrenger(grunner []Oppfolgingsgrunn) []string {
	strenger := make([]string, len(grunner))
	for i, g := range grunner {
		strenger[i] = string(g)
	}
	return strenger
}

func strengerTilGrunner(strenger []string) []Oppfolgingsgrunn {
	grunner := make([]Oppfolgingsgrunn, len(strenger))
	for i, s := range strenger {
		grunner[i] = Oppfolgingsgrunn(s)
	}
	return grunner
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullDato(d *Dato) sql.NullTime {
	if d == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: d.Time, Valid: true}
}

func stringPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	return &t.Time
}

func datoPtr(t sql.NullTime) *Dato {
	if !t.Valid {
		return nil
	}
	return &Dato{t.Time}
}
