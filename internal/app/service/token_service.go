package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/Ali-LB/dbcc/internal/app/validation"
	"github.com/Ali-LB/dbcc/internal/common"
	"github.com/Ali-LB/dbcc/internal/common/security"
	"github.com/Ali-LB/dbcc/internal/domain/model"
	"github.com/Ali-LB/dbcc/internal/domain/repository"
	"github.com/Ali-LB/dbcc/internal/lib/logger/sl"
	"github.com/Ali-LB/dbcc/internal/platform/metrics"
)

// Notifier hands a freshly issued token to the out-of-band delivery channel.
type Notifier interface {
	Send(ctx context.Context, n model.Notification) error
}

type TokenTTLs struct {
	Confirmation time.Duration
	Reset        time.Duration
}

func (t TokenTTLs) For(kind model.TokenKind) time.Duration {
	if kind == model.TokenKindPasswordReset {
		return t.Reset
	}
	return t.Confirmation
}

// TokenService issues and redeems single-use, expiring, kind-bound tokens.
type TokenService struct {
	log       *slog.Logger
	tokenRepo repository.TokenRepository
	userRepo  repository.UserRepository
	tx        repository.Transactor
	hasher    security.PasswordHasher
	notifier  Notifier
	ttls      TokenTTLs
	now       func() time.Time

	// deliveries tracks issuance started by RequestToken.
	deliveries sync.WaitGroup
}

func NewTokenService(
	log *slog.Logger,
	tokenRepo repository.TokenRepository,
	userRepo repository.UserRepository,
	tx repository.Transactor,
	hasher security.PasswordHasher,
	notifier Notifier,
	ttls TokenTTLs,
) *TokenService {
	return &TokenService{
		log:       log,
		tokenRepo: tokenRepo,
		userRepo:  userRepo,
		tx:        tx,
		hasher:    hasher,
		notifier:  notifier,
		ttls:      ttls,
		now:       time.Now,
	}
}

// SetClock replaces the time source used for expiry decisions.
func (s *TokenService) SetClock(now func() time.Time) {
	s.now = now
}

// Issue stores a new token for userID and returns its plaintext value, which
// is never persisted. A nil tx runs outside any transaction.
func (s *TokenService) Issue(ctx context.Context, tx *sql.Tx, userID string, kind model.TokenKind) (string, error) {
	if !kind.Valid() {
		return "", fmt.Errorf("%w: unknown token kind %q", common.ErrValidation, kind)
	}

	plaintext, err := security.GenerateOpaqueToken()
	if err != nil {
		return "", fmt.Errorf("service.TokenService.Issue: %w", err)
	}

	now := s.now().UTC()
	token := &model.Token{
		Hash:      security.HashOpaqueToken(plaintext),
		Kind:      kind,
		UserID:    userID,
		ExpiresAt: now.Add(s.ttls.For(kind)),
		CreatedAt: now,
	}
	if err := s.tokenRepo.Create(ctx, tx, token); err != nil {
		return "", err
	}

	metrics.TokensIssued.WithLabelValues(string(kind)).Inc()
	return plaintext, nil
}

type RequestTokenRequest struct {
	Email string `json:"email"`
}

// RequestToken issues a token of kind for the account owning email and
// notifies its owner. Issuance and delivery run in the background after the
// lookup, so neither the result nor the response time tells callers whether
// the account exists.
func (s *TokenService) RequestToken(ctx context.Context, email string, kind model.TokenKind) error {
	const op = "service.TokenService.RequestToken"
	log := s.log.With(slog.String("op", op), slog.String("kind", string(kind)))

	email = normalizeEmail(email)
	if err := validation.Email(email); err != nil {
		return err
	}
	if !kind.Valid() {
		return fmt.Errorf("%w: unknown token kind %q", common.ErrValidation, kind)
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			log.Debug("token requested for unknown email")
			return nil
		}
		return err
	}

	if kind == model.TokenKindEmailConfirmation && user.IsActive {
		log.Debug("confirmation requested for active account", slog.String("user_id", user.ID))
		return nil
	}

	ctx = context.WithoutCancel(ctx)
	s.deliveries.Add(1)
	go func() {
		defer s.deliveries.Done()

		plaintext, err := s.Issue(ctx, nil, user.ID, kind)
		if err != nil {
			log.Error("failed to issue token", slog.String("user_id", user.ID), sl.Err(err))
			return
		}
		s.notify(ctx, user, kind, plaintext)
	}()
	return nil
}

// Wait blocks until every token delivery started by RequestToken has finished.
func (s *TokenService) Wait() {
	s.deliveries.Wait()
}

// Redeem consumes token for kind and applies its effect in the same
// transaction: confirmation activates the account, reset replaces the password.
// A token redeems at most once; a failed attempt leaves it untouched.
func (s *TokenService) Redeem(ctx context.Context, token string, kind model.TokenKind, newPassword string) (string, error) {
	const op = "service.TokenService.Redeem"

	if !kind.Valid() {
		return "", fmt.Errorf("%w: unknown token kind %q", common.ErrValidation, kind)
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", fmt.Errorf("%w: token is required", common.ErrValidation)
	}

	var hashedPassword string
	if kind == model.TokenKindPasswordReset {
		if err := validation.Password(newPassword, validation.MinPasswordLength); err != nil {
			return "", err
		}
		hashed, err := s.hasher.Hash(newPassword)
		if err != nil {
			return "", fmt.Errorf("%s: hash password: %w", op, err)
		}
		hashedPassword = hashed
	}

	var userID string
	err := s.tx.WithinTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		id, err := s.tokenRepo.Consume(ctx, tx, security.HashOpaqueToken(token), kind, s.now().UTC())
		if err != nil {
			return err
		}

		switch kind {
		case model.TokenKindEmailConfirmation:
			err = s.userRepo.Activate(ctx, tx, id)
		case model.TokenKindPasswordReset:
			err = s.userRepo.UpdatePassword(ctx, tx, id, hashedPassword)
		}
		if err != nil {
			return err
		}
		userID = id
		return nil
	})

	metrics.TokenRedemptions.WithLabelValues(string(kind), metrics.Outcome(err)).Inc()
	if err != nil {
		if errors.Is(err, common.ErrStoreUnavailable) {
			s.log.Error("token redemption failed", slog.String("op", op), slog.String("kind", string(kind)), sl.Err(err))
		}
		return "", err
	}

	s.log.Info("token redeemed", slog.String("op", op), slog.String("kind", string(kind)), slog.String("user_id", userID))
	return userID, nil
}

// ConfirmEmail redeems an email-confirmation token.
func (s *TokenService) ConfirmEmail(ctx context.Context, token string) (string, error) {
	return s.Redeem(ctx, token, model.TokenKindEmailConfirmation, "")
}

// ResetPassword redeems a password-reset token, setting newPassword.
func (s *TokenService) ResetPassword(ctx context.Context, token, newPassword string) (string, error) {
	return s.Redeem(ctx, token, model.TokenKindPasswordReset, newPassword)
}

// notify enqueues delivery after the issuing transaction has committed.
// Failures are logged only; the token stays valid and can be re-requested.
func (s *TokenService) notify(ctx context.Context, user *model.User, kind model.TokenKind, token string) {
	n := model.Notification{
		UserID:    user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		Kind:      kind,
		Token:     token,
		CreatedAt: s.now().UTC(),
	}
	if err := s.notifier.Send(context.WithoutCancel(ctx), n); err != nil {
		s.log.Error("failed to enqueue notification",
			slog.String("op", "service.TokenService.notify"),
			slog.String("user_id", user.ID),
			slog.String("kind", string(kind)),
			sl.Err(err),
		)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
