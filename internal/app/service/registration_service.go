package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/Ali-LB/dbcc/internal/app/access"
	"github.com/Ali-LB/dbcc/internal/common"
	"github.com/Ali-LB/dbcc/internal/domain/model"
	"github.com/Ali-LB/dbcc/internal/domain/repository"
	"github.com/Ali-LB/dbcc/internal/lib/logger/sl"
	"github.com/Ali-LB/dbcc/internal/platform/metrics"

	"github.com/google/uuid"
)

// RegistrationService manages member RSVPs against event capacity.
type RegistrationService struct {
	log       *slog.Logger
	eventRepo repository.EventRepository
	regRepo   repository.RegistrationRepository
	tx        repository.Transactor
}

func NewRegistrationService(
	log *slog.Logger,
	eventRepo repository.EventRepository,
	regRepo repository.RegistrationRepository,
	tx repository.Transactor,
) *RegistrationService {
	return &RegistrationService{
		log:       log,
		eventRepo: eventRepo,
		regRepo:   regRepo,
		tx:        tx,
	}
}

// Register confirms a seat for the caller. The event row stays locked from the
// capacity check until the insert commits, so concurrent registrations for
// one event never exceed its capacity.
func (s *RegistrationService) Register(ctx context.Context, p model.Principal, eventID string) (*model.Registration, error) {
	const op = "service.RegistrationService.Register"

	if err := access.Authorize(p, model.RoleMember); err != nil {
		return nil, err
	}
	eventID, ok := canonicalID(eventID)
	if !ok {
		return nil, common.ErrEventNotFound
	}

	reg := &model.Registration{
		ID:      uuid.NewString(),
		UserID:  p.UserID,
		EventID: eventID,
		Status:  model.RegistrationConfirmed,
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		event, err := s.eventRepo.LockByID(ctx, tx, eventID)
		if err != nil {
			return err
		}
		if !event.IsActive {
			return common.ErrEventInactive
		}

		exists, err := s.regRepo.Exists(ctx, tx, p.UserID, eventID)
		if err != nil {
			return err
		}
		if exists {
			return common.ErrAlreadyRegistered
		}

		if event.MaxAttendees != nil {
			confirmed, err := s.regRepo.CountConfirmed(ctx, tx, eventID)
			if err != nil {
				return err
			}
			if !event.HasCapacityFor(confirmed) {
				return common.ErrEventFull
			}
		}

		return s.regRepo.Create(ctx, tx, reg)
	})

	metrics.RSVPAttempts.WithLabelValues("register", metrics.Outcome(err)).Inc()
	if err != nil {
		s.logFailure(op, p, eventID, err)
		return nil, err
	}

	s.log.Info("registration confirmed", slog.String("op", op), slog.String("user_id", p.UserID), slog.String("event_id", eventID))
	return reg, nil
}

// Cancel releases the caller's seat immediately.
func (s *RegistrationService) Cancel(ctx context.Context, p model.Principal, eventID string) error {
	const op = "service.RegistrationService.Cancel"

	if err := access.Authorize(p, model.RoleMember); err != nil {
		return err
	}
	eventID, ok := canonicalID(eventID)
	if !ok {
		return common.ErrNotRegistered
	}

	err := s.regRepo.Delete(ctx, nil, p.UserID, eventID)
	metrics.RSVPAttempts.WithLabelValues("cancel", metrics.Outcome(err)).Inc()
	if err != nil {
		s.logFailure(op, p, eventID, err)
		return err
	}

	s.log.Info("registration cancelled", slog.String("op", op), slog.String("user_id", p.UserID), slog.String("event_id", eventID))
	return nil
}

// ListMine returns the caller's confirmed registrations ordered by event date.
func (s *RegistrationService) ListMine(ctx context.Context, p model.Principal) ([]model.Registration, error) {
	if err := access.Authorize(p, model.RoleMember); err != nil {
		return nil, err
	}
	return s.regRepo.ListByUser(ctx, p.UserID)
}

func (s *RegistrationService) logFailure(op string, p model.Principal, eventID string, err error) {
	log := s.log.With(slog.String("op", op), slog.String("user_id", p.UserID), slog.String("event_id", eventID))
	if errors.Is(err, common.ErrStoreUnavailable) {
		log.Error("registration store failure", sl.Err(err))
		return
	}
	log.Debug("registration rejected", sl.Err(err))
}

// canonicalID parses a client-supplied identifier. Malformed ids can never
// match a row, so callers report them as not found.
func canonicalID(id string) (string, bool) {
	u, err := uuid.Parse(id)
	if err != nil {
		return "", false
	}
	return u.String(), true
}
