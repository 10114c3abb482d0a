package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/thrive-wellness/devenv/config"
	"github.com/thrive-wellness/devenv/internal/process"
	"github.com/thrive-wellness/devenv/internal/shell"
	"github.com/thrive-wellness/devenv/util/conf"
)

var (
	checkCmdDescription = `The check command looks up the executables of the primary
and the secondary process, without starting them. A missing
primary executable is an error, a missing secondary executable
prints the install hints.`
	checkCmd = &cli.Command{
		Name:        "check",
		Usage:       "Check that the configured commands are installed.",
		Description: checkCmdDescription,
		Action:      checkAction,
	}
)

func checkAction(ctx *cli.Context) error {
	cfg, err := conf.GetConfigFromContext[config.Config](ctx.Context)
	if err != nil {
		return err
	}

	o := cfg.Orchestrator
	out := ctx.App.Writer

	if err := checkProcess(ctx, o.Primary); err != nil {
		return shell.NewExitError(1, err)
	}

	if err := checkProcess(ctx, o.Secondary); err != nil && len(o.SecondaryHints) > 0 {
		fmt.Fprintf(out, "\nMake sure %s is installed and the dependencies are installed:\n", o.Secondary.Cmd)
		for _, hint := range o.SecondaryHints {
			fmt.Fprintf(out, "   %s\n", hint)
		}
	}

	return nil
}

func checkProcess(ctx *cli.Context, config process.StartConfig) error {
	name := config.Name
	if name == "" {
		name = config.Cmd
	}

	path, err := process.LookPath(config)
	if err != nil {
		fmt.Fprintf(ctx.App.Writer, "missing  %s: %s\n", name, err)
		return err
	}

	fmt.Fprintf(ctx.App.Writer, "found    %s: %s\n", name, path)
	return nil
}

func init() {
	rootApp.Commands = append(rootApp.Commands, checkCmd)
}
