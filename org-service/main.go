package main

import (
	"context"
	"time"

	"github.com/automate/orgs-server/org-service/config"
	"github.com/automate/orgs-server/org-service/controllers"
	"github.com/automate/orgs-server/server-go"
	"github.com/automate/orgs-server/utils-go"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/fx"
)

func main() {

	opts := []fx.Option{}
	opts = append(opts, provideOptions()...)
	opts = append(opts, fx.Invoke(run))

	app := fx.New(opts...)

	app.Run()
}

func provideOptions() []fx.Option {
	return []fx.Option{
		fx.Provide(config.Parse),
		fx.Provide(utils.ConvertConfig[config.Config, utils.LoggerConfig]),
		fx.Invoke(utils.ConfigureLogger),
		fx.Provide(utils.ConvertConfig[config.Config, server.Config]),
		fx.Provide(utils.ConvertConfig[config.Config, utils.RedisConfig]),
		fx.Provide(utils.ProvideRedis),
		fx.Provide(config.ProvideStore),
		fx.Provide(config.ProvideLocker),
		fx.Provide(config.ProvideCredentials),
		fx.Provide(config.ProvidePublisher),
		fx.Provide(config.ProvideManager),
		fx.Provide(server.CreateServer),
		fx.Provide(utils.GetDefaultRouter),
		fx.Invoke(controllers.RegisterHealthController),
		fx.Invoke(controllers.RegisterAuthController),
		fx.Invoke(controllers.RegisterOrganizationController),
	}
}

func run(app *fiber.App, config *server.Config, lc fx.Lifecycle) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			errChan := make(chan error)

			go func() {
				errChan <- app.Listen(config.Port)
			}()

			select {
			case err := <-errChan:
				return err
			case <-time.After(100 * time.Millisecond):
				return nil
			}
		},
		OnStop: func(ctx context.Context) error {
			return app.Shutdown()
		},
	})
}
