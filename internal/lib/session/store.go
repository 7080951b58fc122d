package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/ewa-delivery/internal/cache"
	"github.com/magabrotheeeer/ewa-delivery/internal/lib/sl"
)

// Store читает и пишет сессии в Redis по идентификатору токена.
type Store struct {
	cache *cache.Cache
	log   *slog.Logger
}

// NewStore создаёт хранилище сессий.
func NewStore(c *cache.Cache, log *slog.Logger) *Store {
	return &Store{cache: c, log: log}
}

// Save записывает сессию текущей версии с временем жизни ttl.
func (s *Store) Save(ctx context.Context, tokenID string, state State, ttl time.Duration) error {
	const op = "session.Store.Save"
	fields, err := Encode(state)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.cache.HSet(ctx, cache.SessionKey(tokenID), fields, ttl); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Load читает сессию. Запись первой версии переписывается в текущую.
// Испорченная запись удаляется, вызывающий получает Empty() и ErrSessionInvalid.
func (s *Store) Load(ctx context.Context, tokenID string) (State, error) {
	const op = "session.Store.Load"
	key := cache.SessionKey(tokenID)
	fields, err := s.cache.HGetAll(ctx, key)
	if err != nil {
		return Empty(), fmt.Errorf("%s: %w", op, err)
	}

	state, err := Decode(fields)
	switch {
	case errors.Is(err, ErrSessionInvalid):
		s.log.Warn("dropping invalid session", slog.String("op", op), sl.Err(err))
		if delErr := s.cache.Invalidate(ctx, key); delErr != nil {
			s.log.Error("failed to drop invalid session", slog.String("op", op), sl.Err(delErr))
		}
		return Empty(), err
	case err != nil:
		return Empty(), err
	}

	if fields[FieldVersion] != fmt.Sprint(CurrentVersion) {
		ttl, ttlErr := s.cache.Db.TTL(ctx, key).Result()
		if ttlErr == nil && ttl > 0 {
			if err := s.Save(ctx, tokenID, state, ttl); err != nil {
				s.log.Warn("failed to migrate session", slog.String("op", op), sl.Err(err))
			}
		}
	}
	return state, nil
}

// Delete удаляет сессию.
func (s *Store) Delete(ctx context.Context, tokenID string) error {
	const op = "session.Store.Delete"
	if err := s.cache.Invalidate(ctx, cache.SessionKey(tokenID)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
