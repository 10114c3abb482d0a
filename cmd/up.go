package cmd

import (
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/thrive-wellness/devenv/app"
	"github.com/thrive-wellness/devenv/util/conf"
	"github.com/thrive-wellness/devenv/util/logging"
)

var (
	upCmdDescription = `The up command starts the primary process (the front-end dev
server) right away, and the secondary process (the chatbot
backend) after the stagger delay. Both processes write to the
terminal.

If the secondary process cannot be started, a warning is
printed and the dev server keeps running. On Ctrl+C or
SIGTERM the dev server is stopped and devenv exits with 0.`
	upCmd = &cli.Command{
		Name:        "up",
		Usage:       "Start the dev server and the backend.",
		Description: upCmdDescription,
		Action:      upAction,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "primary-command",
				Usage:    "the command that starts the primary process.",
				Category: "primary",
				EnvVars:  []string{"PRIMARY_COMMAND"},
			},
			&cli.StringSliceFlag{
				Name:     "primary-arg",
				Usage:    "arguments to pass to the primary process.",
				Category: "primary",
				EnvVars:  []string{"PRIMARY_ARGS"},
			},
			&cli.PathFlag{
				Name:     "primary-cwd",
				Usage:    "the working directory of the primary process.",
				Category: "primary",
			},
			&cli.StringFlag{
				Name:     "secondary-command",
				Usage:    "the command that starts the secondary process.",
				Category: "secondary",
				EnvVars:  []string{"SECONDARY_COMMAND"},
			},
			&cli.StringSliceFlag{
				Name:     "secondary-arg",
				Usage:    "arguments to pass to the secondary process.",
				Category: "secondary",
				EnvVars:  []string{"SECONDARY_ARGS"},
			},
			&cli.PathFlag{
				Name:     "secondary-cwd",
				Usage:    "the working directory of the secondary process.",
				Category: "secondary",
			},
			&cli.DurationFlag{
				Name:     "stagger-delay",
				Usage:    "the delay between starting the primary and the secondary process.",
				Aliases:  []string{"d"},
				Category: "orchestrator",
			},
			&cli.DurationFlag{
				Name:     "stop-timeout",
				Usage:    "the time the primary process gets to exit before it is killed.",
				Category: "orchestrator",
			},
			&cli.BoolFlag{
				Name:     "stop-secondary",
				Usage:    "also stop the secondary process on shutdown.",
				Category: "orchestrator",
			},
		},
	}

	upCliMap = map[string]string{
		"primary-command":   "orchestrator.primary.cmd",
		"primary-arg":       "orchestrator.primary.args",
		"primary-cwd":       "orchestrator.primary.cwd",
		"secondary-command": "orchestrator.secondary.cmd",
		"secondary-arg":     "orchestrator.secondary.args",
		"secondary-cwd":     "orchestrator.secondary.cwd",
		"stagger-delay":     "orchestrator.stagger_delay",
		"stop-timeout":      "orchestrator.stop_timeout",
		"stop-secondary":    "orchestrator.stop_secondary",
	}
)

func upAction(ctx *cli.Context) error {
	log, err := logging.LoggerFromContext(ctx.Context)
	if err != nil {
		return err
	}

	// parse again, now including the flags of the command
	cfg, err := parseConfig(ctx, upCliMap)
	if err != nil {
		return err
	}

	ctx.Context = conf.ContextWithConfig(ctx.Context, cfg)

	app, err := app.New(ctx)
	if err != nil {
		return err
	}

	log.Info("starting development environment",
		zap.String("primary", cfg.Orchestrator.Primary.Cmd),
		zap.String("secondary", cfg.Orchestrator.Secondary.Cmd),
		zap.Duration("stagger_delay", cfg.Orchestrator.StaggerDelay),
	)

	return app.Run(ctx.Context)
}

func init() {
	// devenv without a command behaves like devenv up
	rootApp.Flags = append(rootApp.Flags, upCmd.Flags...)
	rootApp.Action = upAction

	rootApp.Commands = append(rootApp.Commands, upCmd)
}
