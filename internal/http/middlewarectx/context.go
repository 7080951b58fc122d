package middlewarectx

import (
	"context"

	"github.com/magabrotheeeer/ewa-delivery/internal/models"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

const (
	// ActorKey ключ пользователя, выполняющего запрос.
	ActorKey Key = "actor"
	// TokenIDKey ключ идентификатора токена (jti), под которым хранится сессия.
	TokenIDKey Key = "token_id"
)

// WithActor кладёт пользователя и идентификатор токена в контекст.
func WithActor(ctx context.Context, actor models.Actor, tokenID string) context.Context {
	ctx = context.WithValue(ctx, ActorKey, actor)
	return context.WithValue(ctx, TokenIDKey, tokenID)
}

// ActorFrom достаёт пользователя из контекста.
func ActorFrom(ctx context.Context) (models.Actor, bool) {
	actor, ok := ctx.Value(ActorKey).(models.Actor)
	return actor, ok && actor.ID != ""
}

// TokenIDFrom достаёт идентификатор токена из контекста.
func TokenIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(TokenIDKey).(string)
	return id
}
