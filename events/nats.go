package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// NATS publishes each event on "<prefix>.<type>", eg. "orgs.organization.renamed".
type NATS struct {
	nc     *nats.Conn
	prefix string
}

func ConnectNATS(url, name string) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name(name),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				log.Warn().Err(err).Msg("NATS disconnected")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return nc, nil
}

func NewNATS(nc *nats.Conn, prefix string) *NATS {
	return &NATS{nc: nc, prefix: strings.TrimSuffix(prefix, ".")}
}

func (n *NATS) Subject(t Type) string {
	if n.prefix == "" {
		return string(t)
	}
	return n.prefix + "." + string(t)
}

func (n *NATS) Publish(ctx context.Context, e Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if err := n.nc.Publish(n.Subject(e.Type), payload); err != nil {
		return fmt.Errorf("publish %s: %w", e.Type, err)
	}
	return nil
}
