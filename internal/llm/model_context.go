package llm

import (
	"context"
	"strings"
)

type ctxKeyOperation struct{}

// WithOperation tags ctx with the logical AI operation (classify, summarize,
// embed, chat) so middleware and fakes can tell calls apart.
func WithOperation(ctx context.Context, op string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxKeyOperation{}, strings.ToLower(strings.TrimSpace(op)))
}

func OperationFrom(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	op, _ := ctx.Value(ctxKeyOperation{}).(string)
	return op
}
