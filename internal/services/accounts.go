package services

import (
	"context"
	"fmt"
	"time"

	"art-auction/internal/domain"
	"art-auction/pkg/logger"
	"art-auction/pkg/utils"
)

// AccountService handles registration and the session lifecycle. Session
// expiry is lazy: nothing sweeps expired rows, they simply stop
// validating.
type AccountService struct {
	store      domain.Store
	sessionTTL time.Duration
	log        logger.Logger
}

func NewAccountService(store domain.Store, sessionTTL time.Duration, log logger.Logger) *AccountService {
	return &AccountService{
		store:      store,
		sessionTTL: sessionTTL,
		log:        log,
	}
}

func (s *AccountService) Register(ctx context.Context, name, phone, email string) (*domain.User, error) {
	if phone == "" || email == "" {
		return nil, fmt.Errorf("%w: phone number and email are required", domain.ErrInvalidRequest)
	}

	user := &domain.User{
		ID:          utils.GenerateID("user"),
		Name:        name,
		PhoneNumber: phone,
		Email:       email,
		CreatedAt:   time.Now().UTC(),
	}

	err := s.store.Update(ctx, func(tx domain.Tx) error {
		return tx.CreateUser(ctx, user)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("User registered", "user_id", user.ID, "phone", phone)
	return user, nil
}

// StartSession is idempotent: while the user's current session is
// unexpired it is returned as-is, otherwise a fresh one replaces it.
// Prior sessions are not invalidated.
func (s *AccountService) StartSession(ctx context.Context, phone string) (*domain.Session, error) {
	if phone == "" {
		return nil, fmt.Errorf("%w: phone number is required", domain.ErrInvalidRequest)
	}

	var session *domain.Session
	err := s.store.Update(ctx, func(tx domain.Tx) error {
		user, err := tx.UserByPhoneForUpdate(ctx, phone)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		if user.LastSessionID != nil {
			existing, err := tx.SessionByID(ctx, *user.LastSessionID)
			if err == nil && !existing.Expired(now) {
				session = existing
				return nil
			}
		}

		session = &domain.Session{
			ID:        utils.GenerateID("session"),
			UserID:    user.ID,
			CreatedAt: now,
			ExpiresAt: now.Add(s.sessionTTL),
		}
		if err := tx.CreateSession(ctx, session); err != nil {
			return err
		}
		return tx.SetLastSession(ctx, user.ID, &session.ID)
	})
	if err != nil {
		return nil, err
	}

	return session, nil
}

// EndSession destroys the user's current session. Ending when none is
// active is not an error.
func (s *AccountService) EndSession(ctx context.Context, phone string) error {
	if phone == "" {
		return fmt.Errorf("%w: phone number is required", domain.ErrInvalidRequest)
	}

	return s.store.Update(ctx, func(tx domain.Tx) error {
		user, err := tx.UserByPhoneForUpdate(ctx, phone)
		if err != nil {
			return err
		}

		if user.LastSessionID == nil {
			return nil
		}
		if err := tx.DeleteSession(ctx, *user.LastSessionID); err != nil {
			return err
		}
		return tx.SetLastSession(ctx, user.ID, nil)
	})
}

// activeSession resolves the user's current session and validates its
// expiry. Shared by every operation that requires "a validated active
// session".
func activeSession(ctx context.Context, tx domain.Tx, user *domain.User, now time.Time) (*domain.Session, error) {
	if user.LastSessionID == nil {
		return nil, domain.ErrUnauthorized
	}

	session, err := tx.SessionByID(ctx, *user.LastSessionID)
	if err != nil {
		return nil, err
	}
	if session.UserID != user.ID || session.Expired(now) {
		return nil, domain.ErrUnauthorized
	}
	return session, nil
}
