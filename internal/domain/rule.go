package domain

// RuleTrigger defines when a responder rule applies to a message body.
// Empty fields are ignored; a rule matches if any non-empty matcher matches.
type RuleTrigger struct {
	Equals       []string `json:"equals,omitempty" yaml:"equals,omitempty"`
	EqualsFold   []string `json:"equalsFold,omitempty" yaml:"equalsFold,omitempty"`
	Contains     []string `json:"contains,omitempty" yaml:"contains,omitempty"`
	ContainsFold []string `json:"containsFold,omitempty" yaml:"containsFold,omitempty"`
	Prefix       []string `json:"prefix,omitempty" yaml:"prefix,omitempty"`
	Pattern      string   `json:"pattern,omitempty" yaml:"pattern,omitempty"`
}

// RuleReply is the answer a rule produces. Body may hold text/template
// placeholders evaluated against the inbound Message.
type RuleReply struct {
	Title string `json:"title,omitempty" yaml:"title,omitempty"`
	Body  string `json:"body" yaml:"body"`
}

// RuleDefinition is one entry of the responder's rule table.
type RuleDefinition struct {
	Name    string      `json:"name" yaml:"name"`
	Trigger RuleTrigger `json:"trigger" yaml:"trigger"`
	Reply   RuleReply   `json:"reply" yaml:"reply"`
	BuiltIn bool        `json:"built_in" yaml:"-"`
}
