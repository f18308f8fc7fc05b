package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"casedesk/internal/registry/models"
	"casedesk/pkg/platform/sentinel"
	"casedesk/pkg/platform/tx"
)

// PostgresStore reads reference entities from PostgreSQL. Regulator branches of
// all four kinds share one table discriminated by the regulator column.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed registry store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type source struct {
	table     string
	nameExpr  string
	regulator string
}

func sourceFor(kind models.Kind) (source, error) {
	switch kind {
	case models.KindCreditor:
		return source{table: "creditors", nameExpr: "name"}, nil
	case models.KindCourt:
		return source{table: "courts", nameExpr: "name"}, nil
	case models.KindBailiff:
		return source{table: "bailiffs", nameExpr: "name"}, nil
	case models.KindTaxBranch:
		return source{table: "tax_branches", nameExpr: "name"}, nil
	case models.KindUser:
		return source{table: "users", nameExpr: "full_name"}, nil
	}
	if kind.IsRegulator() {
		return source{table: "regulator_branches", nameExpr: "name", regulator: strings.TrimSuffix(string(kind), "_branch")}, nil
	}
	return source{}, fmt.Errorf("unknown registry kind %q", kind)
}

func (src source) selectList() string {
	return fmt.Sprintf("id, %s, COALESCE(address, ''), COALESCE(phone, ''), COALESCE(email, '')", src.nameExpr)
}

func (s *PostgresStore) FindByID(ctx context.Context, kind models.Kind, id int64) (*models.Entity, error) {
	src, err := sourceFor(kind)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, src.selectList(), src.table)
	args := []any{id}
	if src.regulator != "" {
		query += ` AND regulator = $2`
		args = append(args, src.regulator)
	}

	entity := &models.Entity{Kind: kind}
	err = tx.Conn(ctx, s.db).QueryRowContext(ctx, query, args...).
		Scan(&entity.ID, &entity.Name, &entity.Address, &entity.Phone, &entity.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s %d: %w", kind, id, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find %s: %w", kind, err)
	}
	return entity, nil
}

// FindByIDs resolves many ids of one kind in a single round trip.
func (s *PostgresStore) FindByIDs(ctx context.Context, kind models.Kind, ids []int64) (map[int64]*models.Entity, error) {
	found := make(map[int64]*models.Entity, len(ids))
	if len(ids) == 0 {
		return found, nil
	}
	src, err := sourceFor(kind)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = ANY($1)`, src.selectList(), src.table)
	args := []any{pq.Array(ids)}
	if src.regulator != "" {
		query += ` AND regulator = $2`
		args = append(args, src.regulator)
	}

	rows, err := tx.Conn(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find %s batch: %w", kind, err)
	}
	defer rows.Close()
	for rows.Next() {
		entity := &models.Entity{Kind: kind}
		if err := rows.Scan(&entity.ID, &entity.Name, &entity.Address, &entity.Phone, &entity.Email); err != nil {
			return nil, fmt.Errorf("scan %s: %w", kind, err)
		}
		found[entity.ID] = entity
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", kind, err)
	}
	return found, nil
}

func (s *PostgresStore) Search(ctx context.Context, kind models.Kind, query string, page, pageSize int) (*models.Page, error) {
	src, err := sourceFor(kind)
	if err != nil {
		return nil, err
	}
	page, pageSize = models.ClampPage(page, pageSize)

	stmt := fmt.Sprintf(`
		SELECT %s, COUNT(*) OVER ()
		FROM %s
		WHERE %s ILIKE '%%' || $1 || '%%' ESCAPE '\'`, src.selectList(), src.table, src.nameExpr)
	args := []any{escapeLike(strings.TrimSpace(query))}
	if src.regulator != "" {
		stmt += ` AND regulator = $4`
	}
	stmt += fmt.Sprintf(` ORDER BY %s, id LIMIT $2 OFFSET $3`, src.nameExpr)
	args = append(args, pageSize, (page-1)*pageSize)
	if src.regulator != "" {
		args = append(args, src.regulator)
	}

	rows, err := tx.Conn(ctx, s.db).QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", kind, err)
	}
	defer rows.Close()

	result := &models.Page{Items: []*models.Entity{}, Page: page, PageSize: pageSize}
	for rows.Next() {
		entity := &models.Entity{Kind: kind}
		if err := rows.Scan(&entity.ID, &entity.Name, &entity.Address, &entity.Phone, &entity.Email, &result.Total); err != nil {
			return nil, fmt.Errorf("scan %s: %w", kind, err)
		}
		result.Items = append(result.Items, entity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", kind, err)
	}
	return result, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
