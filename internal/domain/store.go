package domain

import (
	"context"
	"time"
)

// Invocation outcomes recorded by the store.
const (
	OutcomeApplicable    = "applicable"
	OutcomeNotApplicable = "not_applicable"
	OutcomeReplied       = "replied"
)

// InvocationRecord is one service invocation as kept in the history log.
type InvocationRecord struct {
	ID          int64     `json:"id"`
	Mode        string    `json:"mode"`
	SenderID    int64     `json:"sender_id"`
	GroupID     *int64    `json:"group_id,omitempty"`
	MessageBody string    `json:"message_body"`
	Outcome     string    `json:"outcome"`
	Rule        string    `json:"rule,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// ContactRecord is an address book entry.
type ContactRecord struct {
	Contact
	LastSeen time.Time `json:"last_seen"`
}

// InvocationStore keeps the optional history of what a service decided.
type InvocationStore interface {
	RecordInvocation(ctx context.Context, rec InvocationRecord) error
	UpsertContact(ctx context.Context, c Contact) error
	GetContact(ctx context.Context, databaseID int64) (*ContactRecord, error)
	RecentInvocations(ctx context.Context, limit int) ([]InvocationRecord, error)
	Close() error
}
