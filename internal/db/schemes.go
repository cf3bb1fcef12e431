package db

import (
	"context"
	"time"
)

type SchemeRow struct {
	ID         string
	OwnerID    string
	Name       string
	CategoryID *string
	Tags       []string
	Body       []byte
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// SchemeFilter narrows ListSchemes. Zero values mean no filtering.
type SchemeFilter struct {
	OwnerID    string
	Query      string
	CategoryID string
	Tag        string
}

const schemeColumns = `id, owner_id, name, category_id, tags, body, created_at, updated_at`

func (s *Store) CreateScheme(ctx context.Context, r SchemeRow) (SchemeRow, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO schemes (id, owner_id, name, category_id, tags, body)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+schemeColumns,
		r.ID, r.OwnerID, r.Name, r.CategoryID, r.Tags, r.Body)
	return scanScheme(row)
}

func (s *Store) GetScheme(ctx context.Context, id string) (SchemeRow, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+schemeColumns+` FROM schemes WHERE id = $1`, id)
	return scanScheme(row)
}

// UpdateScheme rewrites the body and the denormalized search columns.
func (s *Store) UpdateScheme(ctx context.Context, r SchemeRow) (SchemeRow, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE schemes
		SET name = $2, category_id = $3, tags = $4, body = $5, updated_at = now()
		WHERE id = $1
		RETURNING `+schemeColumns,
		r.ID, r.Name, r.CategoryID, r.Tags, r.Body)
	return scanScheme(row)
}

func (s *Store) DeleteScheme(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM schemes WHERE id = $1`, id)
	return err
}

func (s *Store) ListSchemes(ctx context.Context, f SchemeFilter) ([]SchemeRow, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+schemeColumns+` FROM schemes
		WHERE ($1 = '' OR owner_id = $1)
		  AND ($2 = '' OR name ILIKE '%' || $2 || '%')
		  AND ($3 = '' OR category_id = $3)
		  AND ($4 = '' OR $4 = ANY(tags))
		ORDER BY updated_at DESC`,
		f.OwnerID, f.Query, f.CategoryID, f.Tag)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SchemeRow
	for rows.Next() {
		r, err := scanScheme(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ListSchemeTags returns the distinct tags used by an owner's schemes.
func (s *Store) ListSchemeTags(ctx context.Context, ownerID string) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT DISTINCT unnest(tags) AS tag FROM schemes
		WHERE owner_id = $1 ORDER BY tag`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, err
		}
		out = append(out, tag)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanScheme(row rowScanner) (SchemeRow, error) {
	var r SchemeRow
	err := row.Scan(&r.ID, &r.OwnerID, &r.Name, &r.CategoryID, &r.Tags,
		&r.Body, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}
