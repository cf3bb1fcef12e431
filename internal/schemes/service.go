// Package schemes persists diagram documents. The full document body lives in
// a JSONB column; name, tags and category are denormalized for search.
package schemes

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/schemeflow/schemeflow/backend-go/internal/db"
	"github.com/schemeflow/schemeflow/backend-go/internal/scheme"
	"github.com/schemeflow/schemeflow/backend-go/internal/typeid"
)

var (
	ErrNotFound  = errors.New("scheme not found")
	ErrForbidden = errors.New("forbidden")
)

type Service struct {
	store *db.Store
}

func NewService(store *db.Store) *Service {
	return &Service{store: store}
}

// Summary is the listing view of a scheme, without the document body.
type Summary struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Tags         []string  `json:"tags,omitempty"`
	CategoryID   string    `json:"categoryId,omitempty"`
	ModifiedTime time.Time `json:"modifiedTime"`
}

// ListFilter narrows List. Zero values mean no filtering.
type ListFilter struct {
	Query      string
	CategoryID string
	Tag        string
}

func (s *Service) Create(ctx context.Context, ownerID string, sch *scheme.Scheme) (*scheme.Scheme, error) {
	if sch.ID == "" {
		sch.ID = typeid.NewSchemeID()
	}
	sch.ModifiedTime = time.Now().UTC()

	body, err := sch.Marshal()
	if err != nil {
		return nil, fmt.Errorf("marshal scheme: %w", err)
	}

	_, err = s.store.CreateScheme(ctx, db.SchemeRow{
		ID:         sch.ID,
		OwnerID:    ownerID,
		Name:       sch.Name,
		CategoryID: nullable(sch.CategoryID),
		Tags:       notNil(sch.Tags),
		Body:       body,
	})
	if err != nil {
		return nil, fmt.Errorf("create scheme: %w", err)
	}
	return sch, nil
}

func (s *Service) Get(ctx context.Context, id, userID string) (*scheme.Scheme, error) {
	row, err := s.store.GetScheme(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get scheme: %w", err)
	}
	if row.OwnerID != userID {
		return nil, ErrForbidden
	}
	return scheme.Unmarshal(row.Body)
}

// GetScheme loads a scheme by id without an ownership check. The collab hub
// uses it after the websocket handshake has already authorized the user.
func (s *Service) GetScheme(ctx context.Context, id string) (*scheme.Scheme, error) {
	row, err := s.store.GetScheme(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get scheme: %w", err)
	}
	return scheme.Unmarshal(row.Body)
}

func (s *Service) Update(ctx context.Context, id, userID string, sch *scheme.Scheme) (*scheme.Scheme, error) {
	if err := s.checkOwner(ctx, id, userID); err != nil {
		return nil, err
	}

	sch.ID = id
	sch.ModifiedTime = time.Now().UTC()
	body, err := sch.Marshal()
	if err != nil {
		return nil, fmt.Errorf("marshal scheme: %w", err)
	}

	_, err = s.store.UpdateScheme(ctx, db.SchemeRow{
		ID:         id,
		Name:       sch.Name,
		CategoryID: nullable(sch.CategoryID),
		Tags:       notNil(sch.Tags),
		Body:       body,
	})
	if err != nil {
		return nil, fmt.Errorf("update scheme: %w", err)
	}
	return sch, nil
}

// SaveScheme overwrites the stored body from its serialized form, keeping the
// denormalized columns in sync. The collab hub uses it to flush dirty rooms.
func (s *Service) SaveScheme(ctx context.Context, id string, body []byte) error {
	sch, err := scheme.Unmarshal(body)
	if err != nil {
		return fmt.Errorf("unmarshal scheme: %w", err)
	}

	_, err = s.store.UpdateScheme(ctx, db.SchemeRow{
		ID:         id,
		Name:       sch.Name,
		CategoryID: nullable(sch.CategoryID),
		Tags:       notNil(sch.Tags),
		Body:       body,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("save scheme: %w", err)
	}
	return nil
}

func (s *Service) Delete(ctx context.Context, id, userID string) error {
	if err := s.checkOwner(ctx, id, userID); err != nil {
		return err
	}
	if err := s.store.DeleteScheme(ctx, id); err != nil {
		return fmt.Errorf("delete scheme: %w", err)
	}
	return nil
}

func (s *Service) List(ctx context.Context, userID string, f ListFilter) ([]Summary, error) {
	rows, err := s.store.ListSchemes(ctx, db.SchemeFilter{
		OwnerID:    userID,
		Query:      f.Query,
		CategoryID: f.CategoryID,
		Tag:        f.Tag,
	})
	if err != nil {
		return nil, fmt.Errorf("list schemes: %w", err)
	}

	out := make([]Summary, 0, len(rows))
	for _, r := range rows {
		sum := Summary{ID: r.ID, Name: r.Name, Tags: r.Tags, ModifiedTime: r.UpdatedAt}
		if r.CategoryID != nil {
			sum.CategoryID = *r.CategoryID
		}
		out = append(out, sum)
	}
	return out, nil
}

func (s *Service) Tags(ctx context.Context, userID string) ([]string, error) {
	tags, err := s.store.ListSchemeTags(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return notNil(tags), nil
}

// CheckAccess reports whether the user may open the scheme for editing.
func (s *Service) CheckAccess(ctx context.Context, id, userID string) error {
	return s.checkOwner(ctx, id, userID)
}

func (s *Service) checkOwner(ctx context.Context, id, userID string) error {
	row, err := s.store.GetScheme(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("get scheme: %w", err)
	}
	if row.OwnerID != userID {
		return ErrForbidden
	}
	return nil
}

func nullable(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func notNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
