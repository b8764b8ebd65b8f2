package recovery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-recovery-api/internal/domain"
	"github.com/go-recovery-api/internal/pkg/id"
)

// ExchangeCodeRequest is the body of the validate-code step.
type ExchangeCodeRequest struct {
	Key  string `json:"key" validate:"required"`
	Code string `json:"code" validate:"required"`
}

// ExchangeResult carries the rotated token that authorizes the password change.
type ExchangeResult struct {
	Key    string
	Claims domain.ResetClaims
}

// RecordStore is the persistence the exchange needs from a user store.
type RecordStore interface {
	// FindForRecovery returns the user whose live key, id and channel code all match,
	// or an error wrapping domain.ErrNotFound.
	FindForRecovery(ctx context.Context, m domain.RecoveryMatch) (*domain.User, error)
	// RotateRecoveryKey swaps the key in one conditional write. It returns an error
	// wrapping domain.ErrConflict when the record no longer satisfies the rotation.
	RotateRecoveryKey(ctx context.Context, r domain.KeyRotation) error
}

// TokenCodec seals and opens opaque recovery tokens.
type TokenCodec interface {
	Seal(c domain.ResetClaims) (string, error)
	Open(token string) (domain.ResetClaims, error)
}

type Service interface {
	ExchangeCode(ctx context.Context, req ExchangeCodeRequest) (*ExchangeResult, error)
}

// ServiceDeps groups the collaborators of the recovery service.
type ServiceDeps struct {
	Store       RecordStore
	Codec       TokenCodec
	Now         func() time.Time
	ResetWindow time.Duration
	// ConsumeCode clears the channel code on success, making it single-use.
	ConsumeCode bool
}

type service struct {
	store       RecordStore
	codec       TokenCodec
	now         func() time.Time
	resetWindow time.Duration
	consumeCode bool
}

func NewService(deps ServiceDeps) Service {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		store:       deps.Store,
		codec:       deps.Codec,
		now:         now,
		resetWindow: deps.ResetWindow,
		consumeCode: deps.ConsumeCode,
	}
}

// ExchangeCode trades a recovery token plus the delivered code for a new token scoped to
// the password change. Unless ConsumeCode is set the code stays on the record, so the
// same code can be exchanged again against the latest token until it expires.
func (s *service) ExchangeCode(ctx context.Context, req ExchangeCodeRequest) (*ExchangeResult, error) {
	claims, err := s.codec.Open(req.Key)
	if err != nil {
		return nil, err
	}

	u, err := s.store.FindForRecovery(ctx, domain.RecoveryMatch{
		UserID:  claims.SubjectID,
		Key:     req.Key,
		Channel: claims.Channel,
		Code:    req.Code,
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("no record for token and code: %w", domain.ErrInvalidCode)
		}
		slog.Warn("recovery lookup failed", "user_id", claims.SubjectID, "err", err)
		return nil, fmt.Errorf("lookup recovery record: %w", errors.Join(domain.ErrPersistence, err))
	}

	at := s.now()
	now := at.Unix()
	if u.Verification.Expiration(claims.Channel) < now {
		return nil, fmt.Errorf("%s code expired: %w", claims.Channel, domain.ErrCodeExpired)
	}

	exp := now + int64(s.resetWindow/time.Second)
	next := domain.ResetClaims{
		SubjectID:  u.UserID,
		Channel:    claims.Channel,
		Expiration: &exp,
		TokenID:    id.New(),
	}
	newKey, err := s.codec.Seal(next)
	if err != nil {
		return nil, fmt.Errorf("seal recovery token: %w", errors.Join(domain.ErrPersistence, err))
	}

	err = s.store.RotateRecoveryKey(ctx, domain.KeyRotation{
		UserID:      u.UserID,
		Channel:     claims.Channel,
		OldKey:      req.Key,
		Code:        req.Code,
		NewKey:      newKey,
		NotBefore:   now,
		RotatedAt:   at,
		ConsumeCode: s.consumeCode,
	})
	if err != nil {
		slog.Warn("recovery key rotation failed", "user_id", u.UserID, "channel", claims.Channel, "err", err)
		return nil, fmt.Errorf("rotate recovery key: %w", errors.Join(domain.ErrPersistence, err))
	}

	slog.Info("recovery code exchanged", "user_id", u.UserID, "channel", claims.Channel, "token_id", next.TokenID)
	return &ExchangeResult{Key: newKey, Claims: next}, nil
}
