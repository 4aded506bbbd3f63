package main

import (
	"context"

	"github.com/alecthomas/kong"
	"github.com/automate/orgs-server/orgctl/commands"
)

var (
	version = "dev"
	cli     struct {
		Reconcile commands.ReconcileCmd `cmd:"" help:"Compare catalogs with tenant collections"`
		Inspect   commands.InspectCmd   `cmd:"" help:"Show an organization, its admin and document count"`
		Migrate   commands.MigrateCmd   `cmd:"" help:"Create catalog indexes and tables"`
		Env       string                `help:".env file path" type:"path"`
		Debug     bool                  `help:"Enable debug mode."`
		Version   kong.VersionFlag
	}
)

func main() {
	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Name("orgctl"),
		kong.Description("Operator tooling for the organization service."),
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := cmd.Run(&commands.Globals{Debug: cli.Debug, EnvFile: cli.Env, Version: version})
	cmd.FatalIfErrorf(err)
}
