package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Ali-LB/dbcc/internal/app/access"
	"github.com/Ali-LB/dbcc/internal/app/validation"
	"github.com/Ali-LB/dbcc/internal/common"
	"github.com/Ali-LB/dbcc/internal/common/security"
	"github.com/Ali-LB/dbcc/internal/domain/model"
	"github.com/Ali-LB/dbcc/internal/domain/repository"

	"github.com/google/uuid"
)

type UserAdminService struct {
	log      *slog.Logger
	userRepo repository.UserRepository
	hasher   security.PasswordHasher
}

func NewUserAdminService(log *slog.Logger, userRepo repository.UserRepository, hasher security.PasswordHasher) *UserAdminService {
	return &UserAdminService{log: log, userRepo: userRepo, hasher: hasher}
}

type UpdateUserRequest struct {
	FirstName *string     `json:"first_name,omitempty"`
	LastName  *string     `json:"last_name,omitempty"`
	Email     *string     `json:"email,omitempty"`
	IsActive  *bool       `json:"is_active,omitempty"`
	Role      *model.Role `json:"role,omitempty"`
}

type BootstrapAdminRequest struct {
	Email     string `validate:"required"`
	Password  string `validate:"required"`
	Username  string `validate:"required"`
	FirstName string `validate:"required"`
	LastName  string `validate:"required"`
}

// List returns every account with its registration count, newest first.
func (s *UserAdminService) List(ctx context.Context, p model.Principal) ([]model.User, error) {
	if err := access.Authorize(p, model.RoleAdmin); err != nil {
		return nil, err
	}
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []model.User{}
	}
	return users, nil
}

func (s *UserAdminService) Update(ctx context.Context, p model.Principal, id string, req UpdateUserRequest) (*model.User, error) {
	const op = "service.UserAdminService.Update"

	if err := access.Authorize(p, model.RoleAdmin); err != nil {
		return nil, err
	}
	id, ok := canonicalID(id)
	if !ok {
		return nil, common.ErrUserNotFound
	}

	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.FirstName != nil {
		name := strings.TrimSpace(*req.FirstName)
		if err := validation.Name("first_name", name); err != nil {
			return nil, err
		}
		user.FirstName = name
	}
	if req.LastName != nil {
		name := strings.TrimSpace(*req.LastName)
		if err := validation.Name("last_name", name); err != nil {
			return nil, err
		}
		user.LastName = name
	}
	if req.Email != nil {
		email := normalizeEmail(*req.Email)
		if err := validation.Email(email); err != nil {
			return nil, err
		}
		user.Email = email
	}
	if req.IsActive != nil {
		if user.ID == p.UserID && !*req.IsActive {
			return nil, fmt.Errorf("%w: you cannot deactivate your own account", common.ErrValidation)
		}
		user.IsActive = *req.IsActive
	}
	if req.Role != nil {
		if !req.Role.Valid() {
			return nil, fmt.Errorf("%w: role must be one of [MEMBER ADMIN]", common.ErrValidation)
		}
		if user.ID == p.UserID && *req.Role != model.RoleAdmin {
			return nil, fmt.Errorf("%w: you cannot remove your own admin role", common.ErrValidation)
		}
		user.Role = *req.Role
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	s.log.Info("user updated", slog.String("op", op), slog.String("user_id", user.ID), slog.String("admin_id", p.UserID))
	return user, nil
}

// Delete removes an account with its tokens and registrations.
func (s *UserAdminService) Delete(ctx context.Context, p model.Principal, id string) error {
	const op = "service.UserAdminService.Delete"

	if err := access.Authorize(p, model.RoleAdmin); err != nil {
		return err
	}
	id, ok := canonicalID(id)
	if !ok {
		return common.ErrUserNotFound
	}
	if id == p.UserID {
		return fmt.Errorf("%w: you cannot delete your own account", common.ErrValidation)
	}
	if err := s.userRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("user deleted", slog.String("op", op), slog.String("user_id", id), slog.String("admin_id", p.UserID))
	return nil
}

// Bootstrap creates the first active admin account. It is a no-op when an
// admin already exists or the email is taken, so it is safe to run on every
// deploy.
func (s *UserAdminService) Bootstrap(ctx context.Context, req BootstrapAdminRequest) (bool, error) {
	const op = "service.UserAdminService.Bootstrap"
	log := s.log.With(slog.String("op", op))

	req.Email = normalizeEmail(req.Email)
	req.Username = strings.TrimSpace(req.Username)
	if err := validation.Struct(req); err != nil {
		return false, err
	}
	if err := validation.Email(req.Email); err != nil {
		return false, err
	}
	if err := validation.Password(req.Password, validation.MinAdminPassword); err != nil {
		return false, err
	}

	exists, err := s.userRepo.AdminExists(ctx)
	if err != nil {
		return false, err
	}
	if exists {
		log.Info("admin already exists, skipping")
		return false, nil
	}

	if _, err := s.userRepo.FindByEmail(ctx, req.Email); err == nil {
		log.Info("email already registered, skipping", slog.String("email", req.Email))
		return false, nil
	} else if !errors.Is(err, common.ErrNotFound) {
		return false, err
	}

	hashed, err := s.hasher.Hash(req.Password)
	if err != nil {
		return false, fmt.Errorf("%s: hash password: %w", op, err)
	}

	admin := &model.User{
		ID:             uuid.NewString(),
		Username:       req.Username,
		FirstName:      strings.TrimSpace(req.FirstName),
		LastName:       strings.TrimSpace(req.LastName),
		Email:          req.Email,
		HashedPassword: hashed,
		IsActive:       true,
		Role:           model.RoleAdmin,
	}
	if err := s.userRepo.Create(ctx, nil, admin); err != nil {
		return false, err
	}
	log.Info("admin account created", slog.String("user_id", admin.ID), slog.String("email", admin.Email))
	return true, nil
}
