package app

import (
	"github.com/urfave/cli/v2"
	"go.uber.org/fx"

	"github.com/thrive-wellness/devenv/config"
	"github.com/thrive-wellness/devenv/internal/orchestrator"
	"github.com/thrive-wellness/devenv/internal/shell"
	"github.com/thrive-wellness/devenv/util/conf"
	"github.com/thrive-wellness/devenv/util/logging"
)

// New creates the shell running the orchestrator, using the logger
// and the config stored in the cli context.
func New(ctx *cli.Context) (*shell.Shell, error) {
	log, err := logging.LoggerFromContext(ctx.Context)
	if err != nil {
		return nil, err
	}

	cfg, err := conf.GetConfigFromContext[config.Config](ctx.Context)
	if err != nil {
		return nil, err
	}

	sharedModule := fx.Module(
		"shared",
		// provide global config
		fx.Supply(cfg),
	)

	return shell.New(log, sharedModule, orchestrator.Module(cfg.Orchestrator)), nil
}
