package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"casedesk/internal/contract/models"
	"casedesk/internal/contract/schema"
	"casedesk/internal/platform/postgres"
	"casedesk/pkg/platform/sentinel"
	"casedesk/pkg/platform/tx"
)

// PostgresStore persists cases and claims in PostgreSQL. Every query runs on
// the ambient transaction when the context carries one.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed case store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const claimColumns = `case_id, creditor_id, principal, interest, penalties, fines, state_duty, legal_costs,
	registry_priority, legal_basis, included, created_at, updated_at`

func (s *PostgresStore) LoadCase(ctx context.Context, id int64) (*models.CaseRow, error) {
	return s.loadCase(ctx, id, "")
}

func (s *PostgresStore) LoadCaseForUpdate(ctx context.Context, id int64) (*models.CaseRow, error) {
	return s.loadCase(ctx, id, " FOR UPDATE")
}

func (s *PostgresStore) loadCase(ctx context.Context, id int64, lock string) (*models.CaseRow, error) {
	columns := schema.Columns()
	query := fmt.Sprintf(`SELECT id, %s FROM cases WHERE id = $1%s`, strings.Join(columns, ", "), lock)

	values := make([]any, len(columns))
	dest := make([]any, len(columns)+1)
	row := &models.CaseRow{}
	dest[0] = &row.ID
	for i := range values {
		dest[i+1] = &values[i]
	}

	err := tx.Conn(ctx, s.db).QueryRowContext(ctx, query, id).Scan(dest...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("case %d: %w", id, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("load case: %w", err)
	}

	row.Columns = make(map[string]any, len(columns))
	for i, col := range columns {
		if values[i] != nil {
			row.Columns[col] = values[i]
		}
	}
	return row, nil
}

func (s *PostgresStore) CreateCase(ctx context.Context, columns map[string]any) (int64, error) {
	names, args, err := columnArgs(columns)
	if err != nil {
		return 0, err
	}

	var query string
	if len(names) == 0 {
		query = `INSERT INTO cases DEFAULT VALUES RETURNING id`
	} else {
		placeholders := make([]string, len(names))
		for i := range names {
			placeholders[i] = fmt.Sprintf("$%d", i+1)
		}
		query = fmt.Sprintf(`INSERT INTO cases (%s) VALUES (%s) RETURNING id`,
			strings.Join(names, ", "), strings.Join(placeholders, ", "))
	}

	var id int64
	if err := tx.Conn(ctx, s.db).QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		return 0, mapWriteError("create case", err)
	}
	return id, nil
}

func (s *PostgresStore) SaveCase(ctx context.Context, id int64, columns map[string]any) error {
	names, args, err := columnArgs(columns)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		return nil
	}

	sets := make([]string, len(names))
	for i, name := range names {
		sets[i] = fmt.Sprintf("%s = $%d", name, i+1)
	}
	query := fmt.Sprintf(`UPDATE cases SET %s WHERE id = $%d`, strings.Join(sets, ", "), len(names)+1)

	res, err := tx.Conn(ctx, s.db).ExecContext(ctx, query, append(args, id)...)
	if err != nil {
		return mapWriteError("save case", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("save case: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("case %d: %w", id, sentinel.ErrNotFound)
	}
	return nil
}

// columnArgs orders the column names and checks each against the case
// schema, which keeps identifiers out of reach of callers.
func columnArgs(columns map[string]any) ([]string, []any, error) {
	names := make([]string, 0, len(columns))
	for name := range columns {
		if _, ok := schema.ByColumn(name); !ok {
			return nil, nil, fmt.Errorf("unknown case column %q", name)
		}
		names = append(names, name)
	}
	slices.Sort(names)
	args := make([]any, len(names))
	for i, name := range names {
		args[i] = columns[name]
	}
	return names, args, nil
}

func (s *PostgresStore) LoadClaims(ctx context.Context, caseID int64) ([]*models.ClaimRow, error) {
	query := `SELECT ` + claimColumns + ` FROM claims WHERE case_id = $1 ORDER BY position`
	rows, err := tx.Conn(ctx, s.db).QueryContext(ctx, query, caseID)
	if err != nil {
		return nil, fmt.Errorf("load claims: %w", err)
	}
	defer rows.Close()

	var claims []*models.ClaimRow
	for rows.Next() {
		claim, err := scanClaim(rows)
		if err != nil {
			return nil, err
		}
		claims = append(claims, claim)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate claims: %w", err)
	}
	return claims, nil
}

func scanClaim(rows *sql.Rows) (*models.ClaimRow, error) {
	var (
		c          models.ClaimRow
		amounts    [7]sql.NullString
		legalBasis string
	)
	err := rows.Scan(&c.CaseID, &c.CreditorID,
		&amounts[0], &amounts[1], &amounts[2], &amounts[3], &amounts[4], &amounts[5], &amounts[6],
		&legalBasis, &c.Included, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("scan claim: %w", err)
	}
	targets := []**string{&c.Principal, &c.Interest, &c.Penalties, &c.Fines, &c.StateDuty, &c.LegalCosts, &c.RegistryPriority}
	for i, v := range amounts {
		if v.Valid {
			s := v.String
			*targets[i] = &s
		}
	}
	// A malformed stored list reads as empty rather than failing the case.
	if err := json.Unmarshal([]byte(legalBasis), &c.LegalBasis); err != nil || c.LegalBasis == nil {
		c.LegalBasis = []string{}
	}
	return &c, nil
}

func (s *PostgresStore) UpsertClaim(ctx context.Context, claim *models.ClaimRow) error {
	legalBasis := claim.LegalBasis
	if legalBasis == nil {
		legalBasis = []string{}
	}
	encoded, err := json.Marshal(legalBasis)
	if err != nil {
		return fmt.Errorf("encode legal basis: %w", err)
	}

	query := `
		INSERT INTO claims (case_id, creditor_id, principal, interest, penalties, fines, state_duty, legal_costs,
			registry_priority, legal_basis, included, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now(), now())
		ON CONFLICT (case_id, creditor_id) DO UPDATE SET
			principal = EXCLUDED.principal,
			interest = EXCLUDED.interest,
			penalties = EXCLUDED.penalties,
			fines = EXCLUDED.fines,
			state_duty = EXCLUDED.state_duty,
			legal_costs = EXCLUDED.legal_costs,
			registry_priority = EXCLUDED.registry_priority,
			legal_basis = EXCLUDED.legal_basis,
			included = EXCLUDED.included,
			updated_at = now()
	`
	_, err = tx.Conn(ctx, s.db).ExecContext(ctx, query,
		claim.CaseID, claim.CreditorID,
		nullString(claim.Principal), nullString(claim.Interest), nullString(claim.Penalties),
		nullString(claim.Fines), nullString(claim.StateDuty), nullString(claim.LegalCosts),
		nullString(claim.RegistryPriority), string(encoded), claim.Included,
	)
	if err != nil {
		return mapWriteError("upsert claim", err)
	}
	return nil
}

func (s *PostgresStore) DeleteClaim(ctx context.Context, caseID, creditorID int64) error {
	_, err := tx.Conn(ctx, s.db).ExecContext(ctx,
		`DELETE FROM claims WHERE case_id = $1 AND creditor_id = $2`, caseID, creditorID)
	if err != nil {
		return fmt.Errorf("delete claim: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindCaseIDBySNILS(ctx context.Context, snils string) (int64, error) {
	var id int64
	err := tx.Conn(ctx, s.db).QueryRowContext(ctx, `SELECT id FROM cases WHERE snils = $1`, snils).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("snils: %w", sentinel.ErrNotFound)
		}
		return 0, fmt.Errorf("find case by snils: %w", err)
	}
	return id, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func mapWriteError(op string, err error) error {
	if constraint, ok := postgres.IsUniqueViolation(err); ok {
		return fmt.Errorf("%s: %s: %w", op, constraint, sentinel.ErrConflict)
	}
	return fmt.Errorf("%s: %w", op, err)
}
