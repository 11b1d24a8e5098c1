package service

import (
	"context"
	"database/sql"
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

// SessionIssuer signs a session for an authenticated user.
type SessionIssuer func(userID, role string) (string, error)

type AuthService struct {
	log      *slog.Logger
	userRepo repository.UserRepository
	tokens   *TokenService
	tx       repository.Transactor
	hasher   security.PasswordHasher
	sessions SessionIssuer
}

func NewAuthService(
	log *slog.Logger,
	userRepo repository.UserRepository,
	tokens *TokenService,
	tx repository.Transactor,
	hasher security.PasswordHasher,
	sessions SessionIssuer,
) *AuthService {
	return &AuthService{
		log:      log,
		userRepo: userRepo,
		tokens:   tokens,
		tx:       tx,
		hasher:   hasher,
		sessions: sessions,
	}
}

type SignupRequest struct {
	Username  string `json:"username" validate:"required"`
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Email     string `json:"email" validate:"required"`
	Password  string `json:"password" validate:"required"`
}

type SignupResponse struct {
	User    *model.User `json:"user"`
	Message string      `json:"message"`
}

type LoginRequest struct {
	LoginField string `json:"login_field" validate:"required"` // Can be username or email
	Password   string `json:"password" validate:"required"`
}

type AuthResponse struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

// Signup creates an inactive member account together with its email
// confirmation token.
func (s *AuthService) Signup(ctx context.Context, req SignupRequest) (*SignupResponse, error) {
	const op = "service.AuthService.Signup"

	req.Username = strings.TrimSpace(req.Username)
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.Email = normalizeEmail(req.Email)

	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	if err := validation.Username(req.Username); err != nil {
		return nil, err
	}
	if err := validation.Name("first_name", req.FirstName); err != nil {
		return nil, err
	}
	if err := validation.Name("last_name", req.LastName); err != nil {
		return nil, err
	}
	if err := validation.Email(req.Email); err != nil {
		return nil, err
	}
	if err := validation.Password(req.Password, validation.MinPasswordLength); err != nil {
		return nil, err
	}

	hashedPassword, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("%s: hash password: %w", op, err)
	}

	user := &model.User{
		ID:             uuid.NewString(),
		Username:       req.Username,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Email:          req.Email,
		HashedPassword: hashedPassword,
		IsActive:       false,
		Role:           model.RoleMember,
	}

	var token string
	err = s.tx.WithinTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if err := s.userRepo.Create(ctx, tx, user); err != nil {
			return err
		}
		token, err = s.tokens.Issue(ctx, tx, user.ID, model.TokenKindEmailConfirmation)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.tokens.notify(ctx, user, model.TokenKindEmailConfirmation, token)
	s.log.Info("user registered", slog.String("op", op), slog.String("user_id", user.ID))

	return &SignupResponse{
		User:    user,
		Message: "Registration successful! Please check your email to confirm your account.",
	}, nil
}

// Login authenticates by username or email and returns a signed session.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	const op = "service.AuthService.Login"

	req.LoginField = strings.TrimSpace(req.LoginField)
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	// Try finding by email first, then by username
	user, err := s.userRepo.FindByEmail(ctx, normalizeEmail(req.LoginField))
	if errors.Is(err, common.ErrNotFound) {
		user, err = s.userRepo.FindByUsername(ctx, req.LoginField)
	}
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrInvalidCredentials
		}
		return nil, err
	}

	if !s.hasher.Verify(req.Password, user.HashedPassword) {
		return nil, common.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, common.ErrAccountInactive
	}

	token, err := s.sessions(user.ID, string(user.Role))
	if err != nil {
		return nil, fmt.Errorf("%s: generate session: %w", op, err)
	}
	return &AuthResponse{User: user, Token: token}, nil
}

// Me returns the caller's own profile.
func (s *AuthService) Me(ctx context.Context, p model.Principal) (*model.User, error) {
	if err := access.Authorize(p, model.RoleMember); err != nil {
		return nil, err
	}
	return s.userRepo.FindByID(ctx, p.UserID)
}
