package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Ali-LB/dbcc/internal/common"
	"github.com/Ali-LB/dbcc/internal/domain/model"
)

type EventFilter struct {
	VisibleOnly bool
	// ViewerID, when set, fills Event.HasRSVPed for that user.
	ViewerID string
}

type EventRepository interface {
	Create(ctx context.Context, event *model.Event) error
	Update(ctx context.Context, event *model.Event) error
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id, viewerID string) (*model.Event, error)
	List(ctx context.Context, filter EventFilter) ([]model.Event, error)
	// LockByID loads the event inside tx and holds its row lock until tx ends.
	LockByID(ctx context.Context, tx *sql.Tx, id string) (*model.Event, error)
}

const slugConstraint = "events_slug_key"

type pgEventRepository struct {
	db *sql.DB
}

func NewPgEventRepository(db *sql.DB) EventRepository {
	return &pgEventRepository{db: db}
}

func (r *pgEventRepository) Create(ctx context.Context, e *model.Event) error {
	query := `INSERT INTO events (id, title, slug, description, location, starts_at, max_attendees, is_active, published)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	          RETURNING created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query,
		e.ID, e.Title, e.Slug, e.Description, e.Location, e.Date, nullableInt(e.MaxAttendees), e.IsActive, e.Published,
	).Scan(&e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return eventWriteError("pgEventRepository.Create", err)
	}
	return nil
}

func (r *pgEventRepository) Update(ctx context.Context, e *model.Event) error {
	query := `UPDATE events
	          SET title = $2, slug = $3, description = $4, location = $5, starts_at = $6,
	              max_attendees = $7, is_active = $8, published = $9, updated_at = NOW()
	          WHERE id = $1
	          RETURNING updated_at`
	err := r.db.QueryRowContext(ctx, query,
		e.ID, e.Title, e.Slug, e.Description, e.Location, e.Date, nullableInt(e.MaxAttendees), e.IsActive, e.Published,
	).Scan(&e.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return common.ErrEventNotFound
		}
		return eventWriteError("pgEventRepository.Update", err)
	}
	return nil
}

// Delete removes the event and, through ON DELETE CASCADE, its registrations.
func (r *pgEventRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return common.StoreError("pgEventRepository.Delete", err)
	}
	return expectOneRow(res, "pgEventRepository.Delete", common.ErrEventNotFound)
}

const eventSelect = `SELECT e.id, e.title, e.slug, e.description, e.location, e.starts_at, e.max_attendees,
       e.is_active, e.published, e.created_at, e.updated_at,
       (SELECT COUNT(*) FROM registrations reg WHERE reg.event_id = e.id AND reg.status = 'CONFIRMED') AS confirmed_count,
       EXISTS (SELECT 1 FROM registrations mine WHERE mine.event_id = e.id AND mine.user_id::text = $1) AS has_rsvped
FROM events e`

func (r *pgEventRepository) FindByID(ctx context.Context, id, viewerID string) (*model.Event, error) {
	row := r.db.QueryRowContext(ctx, eventSelect+` WHERE e.id = $2`, viewerID, id)
	e, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrEventNotFound
		}
		return nil, common.StoreError("pgEventRepository.FindByID", err)
	}
	return e, nil
}

func (r *pgEventRepository) List(ctx context.Context, filter EventFilter) ([]model.Event, error) {
	query := eventSelect
	if filter.VisibleOnly {
		query += ` WHERE e.is_active AND e.published`
	}
	query += ` ORDER BY e.starts_at ASC`

	rows, err := r.db.QueryContext(ctx, query, filter.ViewerID)
	if err != nil {
		return nil, common.StoreError("pgEventRepository.List", err)
	}
	defer rows.Close()

	events := []model.Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, common.StoreError("pgEventRepository.List scan", err)
		}
		events = append(events, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, common.StoreError("pgEventRepository.List rows", err)
	}
	return events, nil
}

func (r *pgEventRepository) LockByID(ctx context.Context, tx *sql.Tx, id string) (*model.Event, error) {
	query := `SELECT id, title, slug, description, location, starts_at, max_attendees, is_active, published, created_at, updated_at
	          FROM events WHERE id = $1
	          FOR UPDATE`
	e := &model.Event{}
	var max sql.NullInt64
	err := conn(r.db, tx).QueryRowContext(ctx, query, id).Scan(
		&e.ID, &e.Title, &e.Slug, &e.Description, &e.Location, &e.Date, &max, &e.IsActive, &e.Published, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrEventNotFound
		}
		return nil, common.StoreError("pgEventRepository.LockByID", err)
	}
	e.MaxAttendees = intFromNull(max)
	return e, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(s rowScanner) (*model.Event, error) {
	e := &model.Event{}
	var max sql.NullInt64
	if err := s.Scan(
		&e.ID, &e.Title, &e.Slug, &e.Description, &e.Location, &e.Date, &max,
		&e.IsActive, &e.Published, &e.CreatedAt, &e.UpdatedAt, &e.ConfirmedCount, &e.HasRSVPed,
	); err != nil {
		return nil, err
	}
	e.MaxAttendees = intFromNull(max)
	return e, nil
}

func eventWriteError(op string, err error) error {
	if constraint, ok := common.IsUniqueViolation(err); ok {
		if constraint == slugConstraint {
			return common.ErrDuplicateSlug
		}
		return fmt.Errorf("%s: %w", op, common.ErrConflict)
	}
	return common.StoreError(op, err)
}

func nullableInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func intFromNull(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}
