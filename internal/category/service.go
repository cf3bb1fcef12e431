// Package category manages the per-user category tree used to organize
// schemes.
package category

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/schemeflow/schemeflow/backend-go/internal/db"
	"github.com/schemeflow/schemeflow/backend-go/internal/typeid"
)

var (
	ErrNotFound  = errors.New("category not found")
	ErrForbidden = errors.New("forbidden")
	ErrCycle     = errors.New("category cannot be its own ancestor")
)

type Service struct {
	store *db.Store
}

func NewService(store *db.Store) *Service {
	return &Service{store: store}
}

type Category struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ParentID string `json:"parentId,omitempty"`
}

func (s *Service) Create(ctx context.Context, userID, name, parentID string) (*Category, error) {
	if parentID != "" {
		if _, err := s.getOwned(ctx, parentID, userID); err != nil {
			return nil, err
		}
	}

	row, err := s.store.CreateCategory(ctx, db.CategoryRow{
		ID:       typeid.NewCategoryID(),
		OwnerID:  userID,
		Name:     name,
		ParentID: nullable(parentID),
	})
	if err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return fromRow(row), nil
}

func (s *Service) List(ctx context.Context, userID string) ([]Category, error) {
	rows, err := s.store.ListCategories(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	out := make([]Category, 0, len(rows))
	for _, r := range rows {
		out = append(out, *fromRow(r))
	}
	return out, nil
}

// Update renames a category and moves it under a new parent. Moving a
// category under itself or one of its descendants is rejected.
func (s *Service) Update(ctx context.Context, userID, id, name, parentID string) (*Category, error) {
	if _, err := s.getOwned(ctx, id, userID); err != nil {
		return nil, err
	}

	if parentID != "" {
		if _, err := s.getOwned(ctx, parentID, userID); err != nil {
			return nil, err
		}
		if err := s.checkNoCycle(ctx, userID, id, parentID); err != nil {
			return nil, err
		}
	}

	row, err := s.store.UpdateCategory(ctx, db.CategoryRow{
		ID:       id,
		Name:     name,
		ParentID: nullable(parentID),
	})
	if err != nil {
		return nil, fmt.Errorf("update category: %w", err)
	}
	return fromRow(row), nil
}

func (s *Service) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.getOwned(ctx, id, userID); err != nil {
		return err
	}
	if err := s.store.DeleteCategory(ctx, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}

// checkNoCycle walks up from the proposed parent; reaching the moved category
// means the move would create a loop.
func (s *Service) checkNoCycle(ctx context.Context, userID, id, parentID string) error {
	rows, err := s.store.ListCategories(ctx, userID)
	if err != nil {
		return fmt.Errorf("list categories: %w", err)
	}

	parents := make(map[string]string, len(rows))
	for _, r := range rows {
		if r.ParentID != nil {
			parents[r.ID] = *r.ParentID
		}
	}

	if wouldCycle(parents, id, parentID) {
		return ErrCycle
	}
	return nil
}

func wouldCycle(parents map[string]string, id, parentID string) bool {
	for cur := parentID; cur != ""; cur = parents[cur] {
		if cur == id {
			return true
		}
	}
	return false
}

func (s *Service) getOwned(ctx context.Context, id, userID string) (db.CategoryRow, error) {
	row, err := s.store.GetCategory(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return db.CategoryRow{}, ErrNotFound
		}
		return db.CategoryRow{}, fmt.Errorf("get category: %w", err)
	}
	if row.OwnerID != userID {
		return db.CategoryRow{}, ErrForbidden
	}
	return row, nil
}

func fromRow(r db.CategoryRow) *Category {
	c := &Category{ID: r.ID, Name: r.Name}
	if r.ParentID != nil {
		c.ParentID = *r.ParentID
	}
	return c
}

func nullable(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
