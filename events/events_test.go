package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	mail "github.com/xhit/go-simple-mail/v2"
)

type stubPublisher struct {
	err    error
	events []Event
}

func (s *stubPublisher) Publish(ctx context.Context, e Event) error {
	s.events = append(s.events, e)
	return s.err
}

func TestFanout(t *testing.T) {
	failing := &stubPublisher{err: errors.New("down")}
	ok := &stubPublisher{}

	e := Event{Type: OrganizationCreated, OrganizationName: "acme"}
	err := Fanout{failing, ok, LogPublisher{}}.Publish(context.Background(), e)

	assert.EqualError(t, err, "down")
	assert.Len(t, failing.events, 1)
	assert.Len(t, ok.events, 1, "a failing publisher must not stop the others")
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "orgs.organization.renamed", NewNATS(nil, "orgs.").Subject(OrganizationRenamed))
	assert.Equal(t, "organization.deleted", NewNATS(nil, "").Subject(OrganizationDeleted))
}

func TestCompose(t *testing.T) {
	subject, body := compose(Event{
		Type:             OrganizationRenamed,
		OrganizationName: "acme2",
		PreviousName:     "acme",
		CollectionName:   "org_acme2",
		Documents:        3,
	})
	assert.Equal(t, "Organization acme renamed to acme2", subject)
	assert.Contains(t, body, "3 documents were moved to collection org_acme2")

	subject, _ = compose(Event{Type: "unknown"})
	assert.Empty(t, subject)
}

func TestMailer(t *testing.T) {
	m := NewMailer(SmtpConfig{Host: "localhost", Port: 2525, User: "noreply@orgs.io"})

	var sent []*mail.Email
	m.send = func(msg *mail.Email) error {
		sent = append(sent, msg)
		return nil
	}

	ctx := context.Background()
	require.NoError(t, m.Publish(ctx, Event{Type: OrganizationCreated, OrganizationName: "acme", CollectionName: "org_acme", AdminEmail: "a@acme.io"}))
	require.NoError(t, m.Publish(ctx, Event{Type: OrganizationRenamed, OrganizationName: "acme2"}))

	require.Len(t, sent, 1)
	msg := sent[0].GetMessage()
	assert.Contains(t, msg, "a@acme.io")
	assert.Contains(t, msg, "Organization acme created")
}
