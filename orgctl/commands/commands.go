package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/automate/orgs-server/credentials"
	"github.com/automate/orgs-server/events"
	"github.com/automate/orgs-server/lifecycle"
	"github.com/automate/orgs-server/locks"
	"github.com/automate/orgs-server/org-service/config"
	"github.com/automate/orgs-server/repos"
	"github.com/automate/orgs-server/utils-go"
	"github.com/google/uuid"
)

type Globals struct {
	Debug   bool
	EnvFile string
	Version string
}

// session is what every command works with: the configured store and a manager on top.
type session struct {
	config  *config.Config
	store   repos.Store
	manager *lifecycle.Manager
}

func open(ctx context.Context, globals *Globals) (*session, error) {
	cfg, err := config.Load(globals.EnvFile, !globals.Debug)
	if err != nil {
		return nil, err
	}

	utils.ConfigureLogger(&utils.LoggerConfig{IsProduction: cfg.IsProduction, LogLevel: cfg.LogLevel})

	creds, err := config.ProvideCredentials(cfg)
	if errors.Is(err, credentials.ErrNoSigningKey) {
		// orgctl never issues tokens
		creds, err = credentials.NewService(credentials.Config{Secret: uuid.NewString()})
	}
	if err != nil {
		return nil, err
	}

	store, err := config.OpenStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	locker, err := openLocker(cfg)
	if err != nil {
		store.Close(ctx)
		return nil, err
	}

	manager, err := lifecycle.NewManager(store, creds, locker, events.LogPublisher{}, lifecycle.Options{
		RenameTimeout: cfg.RenameTimeout,
		LockWait:      cfg.LockWait,
	})
	if err != nil {
		store.Close(ctx)
		return nil, err
	}

	return &session{config: cfg, store: store, manager: manager}, nil
}

// openLocker joins the service's redis locks so operator commands serialize with live
// requests.
func openLocker(cfg *config.Config) (locks.Locker, error) {
	client, err := utils.ProvideRedis(&utils.RedisConfig{RedisUrl: cfg.RedisUrl})
	if err != nil {
		return nil, fmt.Errorf("failed to connect redis: %w", err)
	}
	return config.ProvideLocker(client, cfg), nil
}

func (s *session) Close(ctx context.Context) {
	s.manager.Close(ctx)
	s.store.Close(ctx)
}
