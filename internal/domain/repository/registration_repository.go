package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Ali-LB/dbcc/internal/common"
	"github.com/Ali-LB/dbcc/internal/domain/model"
)

type RegistrationRepository interface {
	Exists(ctx context.Context, tx *sql.Tx, userID, eventID string) (bool, error)
	CountConfirmed(ctx context.Context, tx *sql.Tx, eventID string) (int, error)
	Create(ctx context.Context, tx *sql.Tx, reg *model.Registration) error
	// Delete removes the user's registration for the event, or returns
	// ErrNotRegistered when there is none.
	Delete(ctx context.Context, tx *sql.Tx, userID, eventID string) error
	ListByUser(ctx context.Context, userID string) ([]model.Registration, error)
}

const (
	registrationUserConstraint  = "registrations_user_id_fkey"
	registrationEventConstraint = "registrations_event_id_fkey"
)

type pgRegistrationRepository struct {
	db *sql.DB
}

func NewPgRegistrationRepository(db *sql.DB) RegistrationRepository {
	return &pgRegistrationRepository{db: db}
}

func (r *pgRegistrationRepository) Exists(ctx context.Context, tx *sql.Tx, userID, eventID string) (bool, error) {
	var exists bool
	err := conn(r.db, tx).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM registrations WHERE user_id = $1 AND event_id = $2)`, userID, eventID,
	).Scan(&exists)
	if err != nil {
		return false, common.StoreError("pgRegistrationRepository.Exists", err)
	}
	return exists, nil
}

func (r *pgRegistrationRepository) CountConfirmed(ctx context.Context, tx *sql.Tx, eventID string) (int, error) {
	var n int
	err := conn(r.db, tx).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM registrations WHERE event_id = $1 AND status = $2`, eventID, model.RegistrationConfirmed,
	).Scan(&n)
	if err != nil {
		return 0, common.StoreError("pgRegistrationRepository.CountConfirmed", err)
	}
	return n, nil
}

func (r *pgRegistrationRepository) Create(ctx context.Context, tx *sql.Tx, reg *model.Registration) error {
	query := `INSERT INTO registrations (id, user_id, event_id, status)
	          VALUES ($1, $2, $3, $4)
	          RETURNING created_at`
	err := conn(r.db, tx).QueryRowContext(ctx, query, reg.ID, reg.UserID, reg.EventID, reg.Status).Scan(&reg.CreatedAt)
	if err != nil {
		if _, ok := common.IsUniqueViolation(err); ok {
			return common.ErrAlreadyRegistered
		}
		if constraint, ok := common.IsForeignKeyViolation(err); ok {
			switch constraint {
			case registrationUserConstraint:
				return common.ErrUserNotFound
			case registrationEventConstraint:
				return common.ErrEventNotFound
			}
		}
		return common.StoreError("pgRegistrationRepository.Create", err)
	}
	return nil
}

func (r *pgRegistrationRepository) Delete(ctx context.Context, tx *sql.Tx, userID, eventID string) error {
	res, err := conn(r.db, tx).ExecContext(ctx,
		`DELETE FROM registrations WHERE user_id = $1 AND event_id = $2`, userID, eventID)
	if err != nil {
		return common.StoreError("pgRegistrationRepository.Delete", err)
	}
	return expectOneRow(res, "pgRegistrationRepository.Delete", common.ErrNotRegistered)
}

func (r *pgRegistrationRepository) ListByUser(ctx context.Context, userID string) ([]model.Registration, error) {
	query := `SELECT reg.id, reg.user_id, reg.event_id, reg.status, reg.created_at,
	                 e.id, e.title, e.slug, e.description, e.location, e.starts_at, e.is_active
	          FROM registrations reg
	          JOIN events e ON e.id = reg.event_id
	          WHERE reg.user_id = $1 AND reg.status = $2
	          ORDER BY e.starts_at ASC`
	rows, err := r.db.QueryContext(ctx, query, userID, model.RegistrationConfirmed)
	if err != nil {
		return nil, common.StoreError("pgRegistrationRepository.ListByUser", err)
	}
	defer rows.Close()

	regs := []model.Registration{}
	for rows.Next() {
		var reg model.Registration
		ev := &model.EventSummary{}
		if err := rows.Scan(&reg.ID, &reg.UserID, &reg.EventID, &reg.Status, &reg.CreatedAt,
			&ev.ID, &ev.Title, &ev.Slug, &ev.Description, &ev.Location, &ev.Date, &ev.IsActive); err != nil {
			return nil, common.StoreError(fmt.Sprintf("pgRegistrationRepository.ListByUser scan (user %s)", userID), err)
		}
		reg.Event = ev
		regs = append(regs, reg)
	}
	if err := rows.Err(); err != nil {
		return nil, common.StoreError("pgRegistrationRepository.ListByUser rows", err)
	}
	return regs, nil
}
