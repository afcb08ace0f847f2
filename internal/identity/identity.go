package identity

import "context"

type ctxKey struct{}

// WithActor кладёт в контекст имя пользователя для журнала событий
func WithActor(ctx context.Context, actor string) context.Context {
	if actor == "" {
		return ctx
	}
	return context.WithValue(ctx, ctxKey{}, actor)
}

// Actor пустая строка — анонимное действие
func Actor(ctx context.Context) string {
	actor, _ := ctx.Value(ctxKey{}).(string)
	return actor
}
