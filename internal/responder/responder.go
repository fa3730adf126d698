package responder

import (
	"context"
	"fmt"
	"strings"

	"kudubot/internal/config"
	"kudubot/internal/domain"
	"kudubot/internal/protocol"

	"github.com/rs/zerolog"
)

// Responder answers messages from a rule table. It implements protocol.Service.
type Responder struct {
	registry     *Registry
	defaultTitle string
	fallback     config.ReplyConfig
	logger       zerolog.Logger
}

var (
	_ protocol.Service   = (*Responder)(nil)
	_ protocol.Explainer = (*Responder)(nil)
)

func New(registry *Registry, cfg config.ResponderConfig, logger zerolog.Logger) *Responder {
	return &Responder{
		registry:     registry,
		defaultTitle: cfg.DefaultTitle,
		fallback:     cfg.Fallback,
		logger:       logger,
	}
}

// Build assembles the rule table described by cfg: built-ins first (unless
// disabled), then the rules file, then the rules directory.
func Build(cfg config.ResponderConfig, logger zerolog.Logger) (*Responder, error) {
	registry := NewRegistry(logger)
	if !cfg.DisableBuiltins {
		registry.RegisterBuiltins()
	}

	var defs []domain.RuleDefinition
	if cfg.RulesFile != "" {
		loaded, err := LoadFile(cfg.RulesFile)
		if err != nil {
			return nil, err
		}
		defs = append(defs, loaded...)
	}
	if cfg.RulesDir != "" {
		loaded, err := LoadFromDirectory(cfg.RulesDir, logger)
		if err != nil {
			return nil, err
		}
		defs = append(defs, loaded...)
	}
	for _, def := range defs {
		if err := registry.Register(def); err != nil {
			return nil, err
		}
	}

	logger.Debug().Int("rules", registry.Len()).Msg("responder ready")
	return New(registry, cfg, logger), nil
}

// Registry exposes the rule table, e.g. for listing.
func (r *Responder) Registry() *Registry { return r.registry }

func (r *Responder) IsApplicable(_ context.Context, msg domain.Message) bool {
	return r.registry.match(msg.MessageBody) != nil
}

// Reply answers with the first matching rule, or with the fallback reply when
// nothing matches: a handle_message invocation always produces a reply.
func (r *Responder) Reply(_ context.Context, msg domain.Message) (string, string) {
	cr := r.registry.match(msg.MessageBody)
	if cr == nil {
		r.logger.Debug().Msg("no rule matches, using fallback reply")
		return r.titleOr(r.fallback.Title), r.fallback.Body
	}

	body, err := render(cr, msg)
	if err != nil {
		r.logger.Warn().Err(err).Str("rule", cr.def.Name).Msg("cannot render reply, sending template text")
		body = cr.def.Reply.Body
	}
	return r.titleOr(cr.def.Reply.Title), body
}

// Explain names the rule that decides msg.
func (r *Responder) Explain(msg domain.Message) string {
	if cr := r.registry.match(msg.MessageBody); cr != nil {
		return cr.def.Name
	}
	return ""
}

func (r *Responder) titleOr(title string) string {
	if title != "" {
		return title
	}
	return r.defaultTitle
}

func render(cr *compiledRule, msg domain.Message) (string, error) {
	var sb strings.Builder
	if err := cr.body.Execute(&sb, msg); err != nil {
		return "", fmt.Errorf("render %s: %w", cr.def.Name, err)
	}
	return sb.String(), nil
}
