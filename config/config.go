package config

import (
	"github.com/thrive-wellness/devenv/internal/orchestrator"
	"github.com/thrive-wellness/devenv/internal/process"
	"github.com/thrive-wellness/devenv/util/conf"
)

// EnvPrefix is the prefix of env vars, and keys in .env files,
// that configure devenv, e.g. DEVENV__ORCHESTRATOR__STAGGER_DELAY.
const EnvPrefix = "DEVENV__"

type Config struct {
	// LogLevel is the log level for the application
	LogLevel string `conf:"log_level"`

	// LogFormat is the log format for the application
	LogFormat string `conf:"log_format"`

	// Orchestrator is the configuration of the managed processes
	Orchestrator orchestrator.Config `conf:"orchestrator"`
}

// DefaultConfig starts the vite dev server and, two seconds
// later, the python chatbot backend.
var DefaultConfig = conf.MergeDefaults("orchestrator", conf.Defaults{
	"primary.name":  "Vite dev server",
	"primary.cmd":   "npm",
	"primary.args":  []string{"run", "start"},
	"primary.shell": true,
	"primary.io":    string(process.InheritIO),

	"secondary.name": "Python chatbot backend",
	"secondary.cmd":  orchestrator.DefaultInterpreter(),
	"secondary.args": []string{"chatbot-backend/app.py"},
	"secondary.io":   string(process.InheritIO),

	"secondary_hints": []string{
		"cd chatbot-backend",
		"pip install -r requirements.txt",
	},

	"stagger_delay":  orchestrator.DefaultStaggerDelay.String(),
	"stop_timeout":   orchestrator.DefaultStopTimeout.String(),
	"stop_secondary": false,
})
