// Package command реализует оптимистичное изменение с откатом: новое состояние
// сразу становится видимым, а при ошибке сохранения восстанавливается прежнее.
package command

import (
	"context"
	"errors"
	"fmt"
)

// Command хранит прежнее и новое значение и функции применения состояния.
type Command[T any] struct {
	previous T
	next     T
	write    func(context.Context, T) error
}

// New создаёт команду. write публикует состояние (например, в кеш чтения)
// и вызывается как для нового значения, так и для отката.
func New[T any](previous, next T, write func(context.Context, T) error) *Command[T] {
	return &Command[T]{previous: previous, next: next, write: write}
}

// Previous возвращает значение до изменения.
func (c *Command[T]) Previous() T {
	return c.previous
}

// Apply публикует новое значение.
func (c *Command[T]) Apply(ctx context.Context) error {
	return c.write(ctx, c.next)
}

// Rollback восстанавливает прежнее значение.
func (c *Command[T]) Rollback(ctx context.Context) error {
	return c.write(ctx, c.previous)
}

// Execute применяет команду и вызывает commit. Если commit завершился ошибкой,
// команда откатывается и возвращается ошибка commit (вместе с ошибкой отката, если она была).
// Ошибка публикации нового значения не мешает commit: кеш лишь отражает хранилище.
func (c *Command[T]) Execute(ctx context.Context, commit func(context.Context) error) (applyErr error, err error) {
	applyErr = c.Apply(ctx)
	if err := commit(ctx); err != nil {
		if rbErr := c.Rollback(ctx); rbErr != nil {
			return applyErr, errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		return applyErr, err
	}
	return applyErr, nil
}
