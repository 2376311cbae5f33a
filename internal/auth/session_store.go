package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"membership/internal/cache"
	apperrors "membership/internal/errors"
	"membership/internal/model"
)

const (
	sessionKeyPrefix = "session:"
	// DefaultSessionTTL is how long a session stays valid after creation.
	DefaultSessionTTL = time.Hour
	maxCreateAttempts = 3
)

// SessionStore defines the interface for session storage operations.
type SessionStore interface {
	Create(ctx context.Context, principal model.Principal) (*model.Session, error)
	Get(ctx context.Context, id string) (*model.Session, error)
	Touch(ctx context.Context, session *model.Session) error
	Delete(ctx context.Context, id string) error
}

// RedisSessionStore keeps sessions in Redis under their id, expiring them with the key TTL.
type RedisSessionStore struct {
	cache *cache.Client
	ttl   time.Duration
	now   func() time.Time
}

// Ensure RedisSessionStore implements SessionStore
var _ SessionStore = (*RedisSessionStore)(nil)

// NewSessionStore creates a new session store.
func NewSessionStore(cache *cache.Client, ttl time.Duration) *RedisSessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &RedisSessionStore{cache: cache, ttl: ttl, now: time.Now}
}

// Create stores a new session for principal under a fresh random id.
func (s *RedisSessionStore) Create(ctx context.Context, principal model.Principal) (*model.Session, error) {
	now := s.now()
	session := &model.Session{
		Principal: principal,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	payload, err := json.Marshal(session)
	if err != nil {
		return nil, fmt.Errorf("marshal session: %w", err)
	}

	for attempt := 0; attempt < maxCreateAttempts; attempt++ {
		id := uuid.NewString()
		created, err := s.cache.SetNX(ctx, sessionKeyPrefix+id, payload, s.ttl)
		if err != nil {
			return nil, apperrors.Storage("create session", err)
		}
		if created {
			session.ID = id
			return session, nil
		}
	}
	return nil, apperrors.Storage("create session", errors.New("could not allocate a unique session id"))
}

// Get loads a live session. Unknown, expired and unreadable entries yield ErrSessionNotFound.
func (s *RedisSessionStore) Get(ctx context.Context, id string) (*model.Session, error) {
	if id == "" {
		return nil, apperrors.ErrSessionNotFound
	}
	key := sessionKeyPrefix + id
	data, err := s.cache.Get(ctx, key)
	if errors.Is(err, cache.ErrNotFound) {
		return nil, apperrors.ErrSessionNotFound
	}
	if err != nil {
		return nil, apperrors.Storage("get session", err)
	}

	var session model.Session
	if err := json.Unmarshal(data, &session); err != nil {
		_ = s.cache.Delete(ctx, key)
		return nil, apperrors.ErrSessionNotFound
	}
	session.ID = id

	if session.Expired(s.now()) {
		_ = s.cache.Delete(ctx, key)
		return nil, apperrors.ErrSessionNotFound
	}
	return &session, nil
}

// Touch extends a live session by a full TTL from now. A session deleted in
// the meantime is not brought back.
func (s *RedisSessionStore) Touch(ctx context.Context, session *model.Session) error {
	expiresAt := s.now().Add(s.ttl)
	touched := *session
	touched.ExpiresAt = expiresAt
	payload, err := json.Marshal(&touched)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	ok, err := s.cache.SetXX(ctx, sessionKeyPrefix+session.ID, payload, s.ttl)
	if err != nil {
		return apperrors.Storage("touch session", err)
	}
	if !ok {
		return apperrors.ErrSessionNotFound
	}
	session.ExpiresAt = expiresAt
	return nil
}

// Delete destroys a session. Deleting an unknown session is not an error.
func (s *RedisSessionStore) Delete(ctx context.Context, id string) error {
	if err := s.cache.Delete(ctx, sessionKeyPrefix+id); err != nil {
		return apperrors.Storage("delete session", err)
	}
	return nil
}
