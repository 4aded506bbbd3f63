package config

import (
	"context"
	"time"

	"github.com/automate/orgs-server/credentials"
	"github.com/automate/orgs-server/events"
	"github.com/automate/orgs-server/lifecycle"
	"github.com/automate/orgs-server/locks"
	"github.com/automate/orgs-server/repos"
	"github.com/automate/orgs-server/repos/memory"
	"github.com/automate/orgs-server/repos/mongodb"
	"github.com/automate/orgs-server/repos/postgres"
	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"
	"go.uber.org/fx"
)

const connectTimeout = 10 * time.Second

func ProvideCredentials(config *Config) (*credentials.Service, error) {
	c := credentials.Config{
		Secret:   config.JwtSecret,
		ExpireIn: config.JwtExpires,
	}

	if len(config.JwtPrivateKey) > 0 {
		key, err := credentials.ParsePrivateKey(config.JwtPrivateKey)
		if err != nil {
			return nil, err
		}
		c.PrivateKey = key
	}
	if len(config.JwtPublicKey) > 0 {
		key, err := credentials.ParsePublicKey(config.JwtPublicKey)
		if err != nil {
			return nil, err
		}
		c.PublicKey = key
	}

	return credentials.NewService(c)
}

// OpenStore connects the configured backend and migrates it when AUTO_MIGRATE is set.
func OpenStore(ctx context.Context, config *Config) (repos.Store, error) {
	var store repos.Store

	switch config.StoreDriver {
	case DriverPostgres:
		db, err := postgres.Connect(ctx, config.Dsn, !config.IsProduction)
		if err != nil {
			return nil, err
		}
		store = postgres.NewStore(db)
	case DriverMemory:
		log.Warn().Msg("Using the in-memory store, nothing is persisted")
		store = memory.NewStore()
	default:
		client, err := mongodb.Connect(ctx, config.MongoUri)
		if err != nil {
			return nil, err
		}
		store = mongodb.NewStore(client, config.MasterDb)
	}

	if config.AutoMigrate {
		if err := store.Migrate(ctx); err != nil {
			store.Close(ctx)
			return nil, err
		}
	}

	log.Info().Str("driver", config.StoreDriver).Msg("Connected store")
	return store, nil
}

func ProvideStore(config *Config, lc fx.Lifecycle) (repos.Store, error) {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	store, err := OpenStore(ctx, config)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return store.Close(ctx)
		},
	})

	return store, nil
}

// ProvideLocker shares locks through redis when REDIS_URL is configured.
func ProvideLocker(client *redis.Client, config *Config) locks.Locker {
	if client == nil {
		return locks.NewLocal()
	}
	return locks.NewRedis(client, config.LockTtl)
}

func ProvidePublisher(config *Config, lc fx.Lifecycle) (events.Publisher, error) {
	publishers := events.Fanout{events.LogPublisher{}}

	if len(config.NatsUrl) > 0 {
		nc, err := events.ConnectNATS(config.NatsUrl, config.AppName)
		if err != nil {
			return nil, err
		}
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				return nc.Drain()
			},
		})
		publishers = append(publishers, events.NewNATS(nc, config.NatsSubjectPrefix))
	}

	if len(config.EmailConfig.SmtpHost) > 0 {
		publishers = append(publishers, events.NewMailer(events.SmtpConfig{
			Host:         config.EmailConfig.SmtpHost,
			Port:         config.EmailConfig.SmtpPort,
			User:         config.EmailConfig.SmtpUser,
			Password:     config.EmailConfig.SmtpPassword,
			SkipInsecure: config.EmailConfig.SmtpSkipInsecure,
			From:         config.EmailConfig.From,
		}))
	}

	return publishers, nil
}

// ProvideManager registers its stop hook after the publisher's, so in-flight events are
// flushed before NATS drains.
func ProvideManager(store repos.Store, creds *credentials.Service, locker locks.Locker, publisher events.Publisher, config *Config, lc fx.Lifecycle) (*lifecycle.Manager, error) {
	manager, err := lifecycle.NewManager(store, creds, locker, publisher, lifecycle.Options{
		RenameTimeout:        config.RenameTimeout,
		LockWait:             config.LockWait,
		AllowAnonymousUpdate: config.AllowAnonymousUpdate,
	})
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return manager.Close(ctx)
		},
	})

	return manager, nil
}
