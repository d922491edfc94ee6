package cache

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/store"
)

// CachedSessionStore is a read-through cache in front of a session store.
// Sessions never change after creation so entries are never invalidated, only expired.
type CachedSessionStore struct {
	next  store.SessionStore
	cache SessionCache
	log   *slog.Logger
	sfg   singleflight.Group
}

var _ store.SessionStore = (*CachedSessionStore)(nil)

func NewCachedSessionStore(next store.SessionStore, cache SessionCache, log *slog.Logger) *CachedSessionStore {
	if log == nil {
		log = slog.Default()
	}
	return &CachedSessionStore{next: next, cache: cache, log: log}
}

func (c *CachedSessionStore) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	// collapse concurrent misses for the same session into one backend read
	v, err, _ := c.sfg.Do(sessionID, func() (any, error) {
		session, err := c.cache.Get(ctx, sessionID)
		if err == nil {
			return session, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			c.log.WarnContext(ctx, "session cache get failed", slog.String("session_id", sessionID), slog.Any("error", err))
		}

		session, err = c.next.GetSession(ctx, sessionID)
		if err != nil {
			return nil, err
		}

		if err := c.cache.Set(ctx, session); err != nil {
			c.log.WarnContext(ctx, "session cache set failed", slog.String("session_id", sessionID), slog.Any("error", err))
		}
		return session, nil
	})
	if err != nil {
		return nil, err
	}

	session := *v.(*domain.Session)
	return &session, nil
}

func (c *CachedSessionStore) CreateSession(ctx context.Context, session *domain.Session) error {
	if err := c.next.CreateSession(ctx, session); err != nil {
		return err
	}
	if err := c.cache.Set(ctx, session); err != nil {
		c.log.WarnContext(ctx, "session cache set failed", slog.String("session_id", session.SessionID), slog.Any("error", err))
	}
	return nil
}
