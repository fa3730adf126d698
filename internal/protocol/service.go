package protocol

import (
	"context"

	"kudubot/internal/domain"
)

// Service is the domain logic a concrete kudubot service supplies.
type Service interface {
	// IsApplicable is the applicability predicate over the inbound message.
	IsApplicable(ctx context.Context, msg domain.Message) bool
	// Reply returns the title and body of the answer to msg.
	Reply(ctx context.Context, msg domain.Message) (title, body string)
}

// Explainer is implemented by services that can name the rule behind a
// decision. The name only ends up in the invocation history.
type Explainer interface {
	Explain(msg domain.Message) string
}

// Funcs adapts two plain functions to Service.
type Funcs struct {
	Applicable func(msg domain.Message) bool
	Answer     func(msg domain.Message) (title, body string)
}

func (f Funcs) IsApplicable(_ context.Context, msg domain.Message) bool {
	if f.Applicable == nil {
		return false
	}
	return f.Applicable(msg)
}

func (f Funcs) Reply(_ context.Context, msg domain.Message) (string, string) {
	if f.Answer == nil {
		return "", ""
	}
	return f.Answer(msg)
}
