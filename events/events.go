package events

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

type Type string

const (
	OrganizationCreated Type = "organization.created"
	OrganizationRenamed Type = "organization.renamed"
	OrganizationDeleted Type = "organization.deleted"
)

// Event describes a committed lifecycle change of an organization.
type Event struct {
	Type             Type      `json:"type"`
	OrgId            string    `json:"org_id"`
	OrganizationName string    `json:"organization_name"`
	CollectionName   string    `json:"collection_name"`
	PreviousName     string    `json:"previous_name,omitempty"`
	AdminEmail       string    `json:"admin_email,omitempty"`
	Documents        int64     `json:"documents,omitempty"`
	At               time.Time `json:"at"`
}

// Publisher delivers lifecycle events. Events are emitted after the change is committed,
// so delivery failures never roll anything back.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, e Event) error {
	var first error
	for _, p := range f {
		if err := p.Publish(ctx, e); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// LogPublisher only records events in the service log.
type LogPublisher struct{}

func (LogPublisher) Publish(ctx context.Context, e Event) error {
	log.Info().
		Str("event", string(e.Type)).
		Str("org_id", e.OrgId).
		Str("organization", e.OrganizationName).
		Str("previous", e.PreviousName).
		Msg("Lifecycle event")
	return nil
}
