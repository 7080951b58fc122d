// Package cache реализует кеш чтения и хранилище сессий поверх Redis.
// Значения сериализуются в JSON.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/magabrotheeeer/ewa-delivery/internal/config"
)

// Cache обёртка над клиентом Redis.
type Cache struct {
	Db  *redis.Client
	ttl time.Duration
}

// InitServer подключается к Redis и проверяет соединение.
func InitServer(ctx context.Context, cfg config.RedisConnection) (*Cache, error) {
	const op = "cache.InitServer"
	db := redis.NewClient(&redis.Options{
		Addr:         cfg.AddressRedis,
		Password:     cfg.Password,
		DB:           cfg.DB,
		Username:     cfg.User,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.TimeoutRedis,
		WriteTimeout: cfg.TimeoutRedis,
	})

	if err := db.Ping(ctx).Err(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Cache{Db: db, ttl: cfg.CacheTTL}, nil
}

// Ping проверяет соединение с Redis.
func (c *Cache) Ping(ctx context.Context) error {
	return c.Db.Ping(ctx).Err()
}

// TTL возвращает время жизни записей по умолчанию.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// Get читает значение по ключу в result. Второе значение false, если ключа нет.
func (c *Cache) Get(ctx context.Context, key string, result any) (bool, error) {
	const op = "cache.Get"
	val, err := c.Db.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if err := json.Unmarshal(val, result); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return true, nil
}

// Set сохраняет значение. Нулевой expiration означает TTL по умолчанию.
func (c *Cache) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	const op = "cache.Set"
	jsonData, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if expiration == 0 {
		expiration = c.ttl
	}
	if err := c.Db.Set(ctx, key, jsonData, expiration).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Invalidate удаляет ключи.
func (c *Cache) Invalidate(ctx context.Context, keys ...string) error {
	const op = "cache.Invalidate"
	if len(keys) == 0 {
		return nil
	}
	if err := c.Db.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// HSet записывает поля хеша и выставляет ему время жизни.
func (c *Cache) HSet(ctx context.Context, key string, fields map[string]string, expiration time.Duration) error {
	const op = "cache.HSet"
	if expiration == 0 {
		expiration = c.ttl
	}
	pipe := c.Db.TxPipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key, fields)
	pipe.Expire(ctx, key, expiration)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// HGetAll читает все поля хеша. Для отсутствующего ключа возвращается пустая карта.
func (c *Cache) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	const op = "cache.HGetAll"
	fields, err := c.Db.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return fields, nil
}

// Once ставит отметку key, если её ещё нет. Возвращает true, если отметка
// поставлена этим вызовом.
func (c *Cache) Once(ctx context.Context, key string, expiration time.Duration) (bool, error) {
	const op = "cache.Once"
	if expiration == 0 {
		expiration = c.ttl
	}
	ok, err := c.Db.SetNX(ctx, key, "1", expiration).Result()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return ok, nil
}

// Close закрывает соединение с Redis.
func (c *Cache) Close() error {
	return c.Db.Close()
}

// Ключи кеша.
const (
	plansKey = "plans:all"
)

// PlansKey ключ списка тарифов.
func PlansKey() string { return plansKey }

// SubscriptionKey ключ подписки по идентификатору.
func SubscriptionKey(id string) string { return "subscription:" + id }

// SessionKey ключ сессии по идентификатору токена.
func SessionKey(tokenID string) string { return "session:" + tokenID }

// ReminderKey отметка отправленного напоминания о доставке на дату date.
func ReminderKey(deliveryID, date string) string { return "reminder:" + deliveryID + ":" + date }
