package db

import (
	"context"
	"time"
)

type ArtRow struct {
	ID        string
	OwnerID   string
	Name      string
	URL       string
	CreatedAt time.Time
}

func (s *Store) CreateArt(ctx context.Context, a ArtRow) (ArtRow, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO art (id, owner_id, name, url)
		VALUES ($1, $2, $3, $4)
		RETURNING id, owner_id, name, url, created_at`,
		a.ID, a.OwnerID, a.Name, a.URL)
	var out ArtRow
	err := row.Scan(&out.ID, &out.OwnerID, &out.Name, &out.URL, &out.CreatedAt)
	return out, err
}

func (s *Store) GetArt(ctx context.Context, id string) (ArtRow, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, owner_id, name, url, created_at FROM art WHERE id = $1`, id)
	var out ArtRow
	err := row.Scan(&out.ID, &out.OwnerID, &out.Name, &out.URL, &out.CreatedAt)
	return out, err
}

func (s *Store) DeleteArt(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM art WHERE id = $1`, id)
	return err
}

func (s *Store) ListArtByOwner(ctx context.Context, ownerID string) ([]ArtRow, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, owner_id, name, url, created_at FROM art
		WHERE owner_id = $1 ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ArtRow
	for rows.Next() {
		var a ArtRow
		if err := rows.Scan(&a.ID, &a.OwnerID, &a.Name, &a.URL, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
