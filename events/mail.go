package events

import (
	"context"
	"crypto/tls"
	"fmt"
	"sync"
	"time"

	mail "github.com/xhit/go-simple-mail/v2"
)

type SmtpConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	SkipInsecure bool
	From         string
}

// Mailer notifies the organization admin of lifecycle changes by email.
type Mailer struct {
	mtx    sync.Mutex
	server *mail.SMTPServer
	from   string
	send   func(msg *mail.Email) error
}

func NewMailer(c SmtpConfig) *Mailer {
	server := mail.NewSMTPClient()
	server.Host = c.Host
	server.Port = c.Port
	server.Username = c.User
	server.Password = c.Password
	server.Encryption = mail.EncryptionSTARTTLS
	server.TLSConfig = &tls.Config{InsecureSkipVerify: c.SkipInsecure}
	server.SendTimeout = 10 * time.Second
	server.ConnectTimeout = 10 * time.Second

	from := c.From
	if from == "" {
		from = c.User
	}

	m := &Mailer{server: server, from: from}
	m.send = m.deliver
	return m
}

func (m *Mailer) deliver(msg *mail.Email) error {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	client, err := m.server.Connect()
	if err != nil {
		return err
	}
	defer client.Close()

	return msg.Send(client)
}

func (m *Mailer) Publish(ctx context.Context, e Event) error {
	if e.AdminEmail == "" {
		return nil
	}

	subject, body := compose(e)
	if subject == "" {
		return nil
	}

	msg := mail.NewMSG()
	msg.SetFrom(m.from).AddTo(e.AdminEmail).SetSubject(subject).SetBody(mail.TextPlain, body)
	if msg.Error != nil {
		return msg.Error
	}

	return m.send(msg)
}

func compose(e Event) (subject, body string) {
	switch e.Type {
	case OrganizationCreated:
		return fmt.Sprintf("Organization %s created", e.OrganizationName),
			fmt.Sprintf("Your organization %s is ready. Its data lives in collection %s.\n", e.OrganizationName, e.CollectionName)
	case OrganizationRenamed:
		return fmt.Sprintf("Organization %s renamed to %s", e.PreviousName, e.OrganizationName),
			fmt.Sprintf("Organization %s is now %s. %d documents were moved to collection %s.\n",
				e.PreviousName, e.OrganizationName, e.Documents, e.CollectionName)
	case OrganizationDeleted:
		return fmt.Sprintf("Organization %s deleted", e.OrganizationName),
			fmt.Sprintf("Organization %s and all of its data have been removed.\n", e.OrganizationName)
	}
	return "", ""
}
