package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Ali-LB/dbcc/internal/common"
	"github.com/Ali-LB/dbcc/internal/domain/model"
)

type UserRepository interface {
	Create(ctx context.Context, tx *sql.Tx, user *model.User) error
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	FindByID(ctx context.Context, id string) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
	Update(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, id string) error
	Activate(ctx context.Context, tx *sql.Tx, id string) error
	UpdatePassword(ctx context.Context, tx *sql.Tx, id, hashedPassword string) error
	AdminExists(ctx context.Context) (bool, error)
}

const (
	usernameConstraint = "users_username_key"
	emailConstraint    = "users_email_key"
)

const userColumns = `id, username, first_name, last_name, email, hashed_password, is_active, role, created_at, updated_at`

type pgUserRepository struct {
	db *sql.DB
}

func NewPgUserRepository(db *sql.DB) UserRepository {
	return &pgUserRepository{db: db}
}

func (r *pgUserRepository) Create(ctx context.Context, tx *sql.Tx, user *model.User) error {
	query := `INSERT INTO users (id, username, first_name, last_name, email, hashed_password, is_active, role)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	          RETURNING created_at, updated_at`
	err := conn(r.db, tx).QueryRowContext(ctx, query,
		user.ID, user.Username, user.FirstName, user.LastName, user.Email, user.HashedPassword, user.IsActive, user.Role,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return userWriteError("pgUserRepository.Create", err)
	}
	return nil
}

func (r *pgUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, "pgUserRepository.FindByEmail", `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *pgUserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.findOne(ctx, "pgUserRepository.FindByUsername", `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
}

func (r *pgUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	return r.findOne(ctx, "pgUserRepository.FindByID", `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *pgUserRepository) findOne(ctx context.Context, op, query string, arg any) (*model.User, error) {
	user := &model.User{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID, &user.Username, &user.FirstName, &user.LastName, &user.Email, &user.HashedPassword,
		&user.IsActive, &user.Role, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrUserNotFound
		}
		return nil, common.StoreError(op, err)
	}
	return user, nil
}

func (r *pgUserRepository) List(ctx context.Context) ([]model.User, error) {
	query := `SELECT u.id, u.username, u.first_name, u.last_name, u.email, u.is_active, u.role, u.created_at, u.updated_at,
	                 (SELECT COUNT(*) FROM registrations reg WHERE reg.user_id = u.id) AS rsvp_count
	          FROM users u
	          ORDER BY u.created_at DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, common.StoreError("pgUserRepository.List", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Username, &u.FirstName, &u.LastName, &u.Email, &u.IsActive, &u.Role,
			&u.CreatedAt, &u.UpdatedAt, &u.RSVPCount); err != nil {
			return nil, common.StoreError("pgUserRepository.List scan", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, common.StoreError("pgUserRepository.List rows", err)
	}
	return users, nil
}

func (r *pgUserRepository) Update(ctx context.Context, user *model.User) error {
	query := `UPDATE users SET first_name = $2, last_name = $3, email = $4, is_active = $5, role = $6, updated_at = NOW()
	          WHERE id = $1
	          RETURNING updated_at`
	err := r.db.QueryRowContext(ctx, query, user.ID, user.FirstName, user.LastName, user.Email, user.IsActive, user.Role).
		Scan(&user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return common.ErrUserNotFound
		}
		return userWriteError("pgUserRepository.Update", err)
	}
	return nil
}

// Delete removes the user; tokens and registrations go with it via ON DELETE CASCADE.
func (r *pgUserRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return common.StoreError("pgUserRepository.Delete", err)
	}
	return expectOneRow(res, "pgUserRepository.Delete", common.ErrUserNotFound)
}

func (r *pgUserRepository) Activate(ctx context.Context, tx *sql.Tx, id string) error {
	res, err := conn(r.db, tx).ExecContext(ctx, `UPDATE users SET is_active = TRUE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return common.StoreError("pgUserRepository.Activate", err)
	}
	return expectOneRow(res, "pgUserRepository.Activate", common.ErrUserNotFound)
}

func (r *pgUserRepository) UpdatePassword(ctx context.Context, tx *sql.Tx, id, hashedPassword string) error {
	res, err := conn(r.db, tx).ExecContext(ctx,
		`UPDATE users SET hashed_password = $2, updated_at = NOW() WHERE id = $1`, id, hashedPassword)
	if err != nil {
		return common.StoreError("pgUserRepository.UpdatePassword", err)
	}
	return expectOneRow(res, "pgUserRepository.UpdatePassword", common.ErrUserNotFound)
}

func (r *pgUserRepository) AdminExists(ctx context.Context) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE role = $1)`, model.RoleAdmin).Scan(&exists)
	if err != nil {
		return false, common.StoreError("pgUserRepository.AdminExists", err)
	}
	return exists, nil
}

func userWriteError(op string, err error) error {
	if constraint, ok := common.IsUniqueViolation(err); ok {
		switch constraint {
		case usernameConstraint:
			return common.ErrDuplicateUsername
		case emailConstraint:
			return common.ErrDuplicateEmail
		default:
			return fmt.Errorf("user with given username or email already exists: %w", common.ErrConflict)
		}
	}
	return common.StoreError(op, err)
}

func expectOneRow(res sql.Result, op string, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return common.StoreError(op, err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
