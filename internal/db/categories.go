package db

import "context"

type CategoryRow struct {
	ID       string
	OwnerID  string
	Name     string
	ParentID *string
}

func (s *Store) CreateCategory(ctx context.Context, c CategoryRow) (CategoryRow, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO categories (id, owner_id, name, parent_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, owner_id, name, parent_id`,
		c.ID, c.OwnerID, c.Name, c.ParentID)
	var out CategoryRow
	err := row.Scan(&out.ID, &out.OwnerID, &out.Name, &out.ParentID)
	return out, err
}

func (s *Store) GetCategory(ctx context.Context, id string) (CategoryRow, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, owner_id, name, parent_id FROM categories WHERE id = $1`, id)
	var out CategoryRow
	err := row.Scan(&out.ID, &out.OwnerID, &out.Name, &out.ParentID)
	return out, err
}

func (s *Store) UpdateCategory(ctx context.Context, c CategoryRow) (CategoryRow, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE categories SET name = $2, parent_id = $3
		WHERE id = $1
		RETURNING id, owner_id, name, parent_id`,
		c.ID, c.Name, c.ParentID)
	var out CategoryRow
	err := row.Scan(&out.ID, &out.OwnerID, &out.Name, &out.ParentID)
	return out, err
}

func (s *Store) DeleteCategory(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	return err
}

func (s *Store) ListCategories(ctx context.Context, ownerID string) ([]CategoryRow, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, owner_id, name, parent_id FROM categories
		WHERE owner_id = $1 ORDER BY name`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CategoryRow
	for rows.Next() {
		var c CategoryRow
		if err := rows.Scan(&c.ID, &c.OwnerID, &c.Name, &c.ParentID); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
