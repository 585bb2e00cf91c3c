package checkout

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/Its-SuperNova/duchess-backend-sub004/pkg/config"
	"github.com/Its-SuperNova/duchess-backend-sub004/pkg/enums"
	pkgerrors "github.com/Its-SuperNova/duchess-backend-sub004/pkg/errors"
	"github.com/Its-SuperNova/duchess-backend-sub004/pkg/redis"
)

type sessionBackend interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	CheckoutSessionKey(checkoutID string) string
}

// SessionStore keeps checkout sessions in Redis as JSON with a TTL. Every
// mutation rewrites the whole session and refreshes the TTL, the session dies
// either by explicit destroy after order creation or by expiry.
type SessionStore struct {
	backend sessionBackend
	ttl     time.Duration
}

// NewSessionStore wires the store.
func NewSessionStore(backend sessionBackend, cfg config.CheckoutConfig) (*SessionStore, error) {
	if backend == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "session backend is required")
	}
	return &SessionStore{backend: backend, ttl: cfg.SessionTTL}, nil
}

// Create persists a new session, assigning an ID when absent.
func (s *SessionStore) Create(ctx context.Context, session *Session) (*Session, error) {
	if session.ID == "" {
		session.ID = NewSessionID()
	}
	if session.PaymentStatus == "" {
		session.PaymentStatus = enums.CheckoutPaymentStatusPending
	}
	now := time.Now().UTC()
	session.CreatedAt = now
	session.UpdatedAt = now

	if err := s.write(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Get loads a session. A missing or expired session maps to CodeNotFound.
func (s *SessionStore) Get(ctx context.Context, checkoutID string) (*Session, error) {
	raw, err := s.backend.Get(ctx, s.backend.CheckoutSessionKey(checkoutID))
	if err != nil {
		if redis.IsNil(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "checkout session not found or expired")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading checkout session")
	}

	var session Session
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decoding checkout session")
	}
	return &session, nil
}

// Update applies the mutation under a read-modify-write and refreshes the TTL.
func (s *SessionStore) Update(ctx context.Context, checkoutID string, mutate func(*Session) error) (*Session, error) {
	session, err := s.Get(ctx, checkoutID)
	if err != nil {
		return nil, err
	}
	if err := mutate(session); err != nil {
		return nil, err
	}
	session.UpdatedAt = time.Now().UTC()

	if err := s.write(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// SetPaymentStatus records an absolute payment state on the session. Missing
// sessions are tolerated, settlement can outlive the session TTL.
func (s *SessionStore) SetPaymentStatus(ctx context.Context, checkoutID string, status enums.CheckoutPaymentStatus, databaseOrderID *uuid.UUID) error {
	_, err := s.Update(ctx, checkoutID, func(session *Session) error {
		session.PaymentStatus = status
		if databaseOrderID != nil {
			session.DatabaseOrderID = databaseOrderID
		}
		return nil
	})
	if err != nil && pkgerrors.As(err).Code() == pkgerrors.CodeNotFound {
		return nil
	}
	return err
}

// AttachProviderOrder links the gateway order opened for this session.
func (s *SessionStore) AttachProviderOrder(ctx context.Context, checkoutID, providerOrderID string) error {
	_, err := s.Update(ctx, checkoutID, func(session *Session) error {
		session.ProviderOrderID = &providerOrderID
		return nil
	})
	return err
}

// Destroy removes the session.
func (s *SessionStore) Destroy(ctx context.Context, checkoutID string) error {
	if err := s.backend.Del(ctx, s.backend.CheckoutSessionKey(checkoutID)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "destroying checkout session")
	}
	return nil
}

func (s *SessionStore) write(ctx context.Context, session *Session) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding checkout session")
	}
	key := s.backend.CheckoutSessionKey(session.ID)
	if err := s.backend.Set(ctx, key, payload, s.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "storing checkout session")
	}
	return nil
}
