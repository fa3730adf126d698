// Package responder is the rule-based service shipped with kudubot: an ordered
// table of rules, each matching the message body and producing a reply.
package responder

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
	"text/template"

	"kudubot/internal/domain"

	"github.com/rs/zerolog"
)

// Registry holds the rule table. Rules are matched in registration order.
type Registry struct {
	rules  []*compiledRule
	mu     sync.RWMutex
	logger zerolog.Logger
}

// compiledRule caches everything Match needs so matching does no parsing.
type compiledRule struct {
	def          domain.RuleDefinition
	containsFold []string
	pattern      *regexp.Regexp
	body         *template.Template
}

func NewRegistry(logger zerolog.Logger) *Registry {
	return &Registry{logger: logger}
}

// Register adds a rule, replacing an existing rule of the same name in place.
func (r *Registry) Register(def domain.RuleDefinition) error {
	if def.Name == "" {
		return fmt.Errorf("rule without name")
	}
	if isEmptyTrigger(def.Trigger) {
		return fmt.Errorf("rule %s: trigger has no matcher", def.Name)
	}

	cr := &compiledRule{def: def}
	for _, kw := range def.Trigger.ContainsFold {
		cr.containsFold = append(cr.containsFold, strings.ToLower(kw))
	}
	if def.Trigger.Pattern != "" {
		re, err := regexp.Compile(def.Trigger.Pattern)
		if err != nil {
			return fmt.Errorf("rule %s: invalid pattern: %w", def.Name, err)
		}
		cr.pattern = re
	}
	tmpl, err := template.New(def.Name).Option("missingkey=error").Parse(def.Reply.Body)
	if err != nil {
		return fmt.Errorf("rule %s: invalid reply body: %w", def.Name, err)
	}
	cr.body = tmpl

	r.mu.Lock()
	defer r.mu.Unlock()

	for i, existing := range r.rules {
		if existing.def.Name == def.Name {
			r.rules[i] = cr
			r.logger.Debug().Str("rule", def.Name).Msg("rule updated")
			return nil
		}
	}
	r.rules = append(r.rules, cr)
	r.logger.Debug().Str("rule", def.Name).Bool("built_in", def.BuiltIn).Msg("rule registered")
	return nil
}

// Match returns the first rule whose trigger matches body, or nil.
func (r *Registry) Match(body string) *domain.RuleDefinition {
	cr := r.match(body)
	if cr == nil {
		return nil
	}
	def := cr.def
	return &def
}

func (r *Registry) match(body string) *compiledRule {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lowerBody := strings.ToLower(body)
	for _, cr := range r.rules {
		if cr.matches(body, lowerBody) {
			return cr
		}
	}
	return nil
}

func (cr *compiledRule) matches(body, lowerBody string) bool {
	t := cr.def.Trigger
	for _, s := range t.Equals {
		if body == s {
			return true
		}
	}
	for _, s := range t.EqualsFold {
		if strings.EqualFold(body, s) {
			return true
		}
	}
	for _, s := range t.Contains {
		if strings.Contains(body, s) {
			return true
		}
	}
	for _, s := range cr.containsFold {
		if strings.Contains(lowerBody, s) {
			return true
		}
	}
	for _, s := range t.Prefix {
		if strings.HasPrefix(body, s) {
			return true
		}
	}
	return cr.pattern != nil && cr.pattern.MatchString(body)
}

// List returns all registered rules in match order.
func (r *Registry) List() []domain.RuleDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.RuleDefinition, 0, len(r.rules))
	for _, cr := range r.rules {
		result = append(result, cr.def)
	}
	return result
}

// Len returns the number of registered rules.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rules)
}

// RegisterBuiltins loads the built-in rules.
func (r *Registry) RegisterBuiltins() {
	builtins := []domain.RuleDefinition{
		{
			Name:    "hello",
			BuiltIn: true,
			Trigger: domain.RuleTrigger{EqualsFold: []string{"hello go!"}},
			Reply:   domain.RuleReply{Title: "Hello Go", Body: "Hi!"},
		},
		{
			Name:    "ping",
			BuiltIn: true,
			Trigger: domain.RuleTrigger{EqualsFold: []string{"ping"}},
			Reply:   domain.RuleReply{Body: "Pong"},
		},
		{
			Name:    "smiley",
			BuiltIn: true,
			Trigger: domain.RuleTrigger{Equals: []string{":)"}},
			Reply:   domain.RuleReply{Body: ":) :) :)"},
		},
	}

	for _, def := range builtins {
		if err := r.Register(def); err != nil {
			r.logger.Error().Err(err).Str("rule", def.Name).Msg("cannot register built-in rule")
		}
	}
}

func isEmptyTrigger(t domain.RuleTrigger) bool {
	return len(t.Equals) == 0 && len(t.EqualsFold) == 0 && len(t.Contains) == 0 &&
		len(t.ContainsFold) == 0 && len(t.Prefix) == 0 && t.Pattern == ""
}
