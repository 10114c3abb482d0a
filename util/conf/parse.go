package conf

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/dotenv"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/urfave/cli/v2"
	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"

	"github.com/thrive-wellness/devenv/util/cliflags"
)

var (
	ErrInvalidConfig   = errors.New("invalid config")
	ErrUnsupportedFile = errors.New("unsupported config file")
)

// Defaults is a flat map of default values, keyed by koanf paths.
type Defaults map[string]any

type ParseOptions struct {
	// Cli is the cli.Context from urfave/cli
	Cli *cli.Context

	// CliMap is a map of cli flag names to config keys
	CliMap map[string]string

	// Defaults is a map of default values
	Defaults Defaults

	// EnvPrefix is the prefix for env vars. Nested keys
	// are separated by a double underscore.
	EnvPrefix string

	// FileName is the name of the configuration file to load,
	// either a .json or a .env file
	FileName string

	// Schema validates the contents of a json config file
	Schema *gojsonschema.Schema

	// Log is the logger to use
	Log *zap.Logger
}

// Parse loads the config from defaults, the config file, env
// vars and cli flags, in increasing order of precedence.
func Parse[C any](opt ParseOptions) (C, error) {
	var config C

	var log *zap.Logger
	if opt.Log != nil {
		log = opt.Log
	} else {
		log = zap.NewNop()
	}

	k := koanf.New(".")

	if opt.Defaults != nil {
		if err := k.Load(confmap.Provider(opt.Defaults, "."), nil); err != nil {
			log.Error("error loading defaults", zap.Error(err))
			return config, err
		}
	}

	if opt.FileName != "" {
		if err := loadFile(k, opt); err != nil {
			log.Error("error parsing file",
				zap.Error(err),
				zap.String("file", opt.FileName),
			)
			return config, err
		}
	}

	transformPrefixedEnv := func(s string) string {
		return transformEnv(s, opt.EnvPrefix)
	}

	if err := k.Load(env.Provider(opt.EnvPrefix, ".", transformPrefixedEnv), nil); err != nil {
		log.Error("error parsing env vars", zap.Error(err))
		return config, err
	}

	if opt.Cli != nil {
		transformFlag := func(s string) string {
			if opt.CliMap != nil {
				if name, ok := opt.CliMap[s]; ok {
					return name
				}
			}

			// replace - with _
			return strings.ReplaceAll(strings.ToLower(s), "-", "_")
		}

		if err := k.Load(cliflags.Provider(opt.Cli, ".", transformFlag), nil); err != nil {
			log.Error("error parsing cli flags", zap.Error(err))
			return config, err
		}
	}

	if err := k.UnmarshalWithConf("", &config, koanf.UnmarshalConf{Tag: "conf"}); err != nil {
		log.Error("error unmarshalling config", zap.Error(err))
		return config, err
	}

	return config, nil
}

func loadFile(k *koanf.Koanf, opt ParseOptions) error {
	b, err := file.Provider(opt.FileName).ReadBytes()
	if err != nil {
		return err
	}

	switch ext := strings.ToLower(filepath.Ext(opt.FileName)); ext {
	case ".env":
		vars, err := dotenv.Parser().Unmarshal(b)
		if err != nil {
			return err
		}

		// dotenv files use the same key format as env vars
		mp := make(map[string]any, len(vars))
		for key, val := range vars {
			mp[transformEnv(key, opt.EnvPrefix)] = val
		}

		return k.Load(confmap.Provider(mp, "."), nil)
	case ".json":
		mp, err := json.Parser().Unmarshal(b)
		if err != nil {
			return err
		}

		if opt.Schema != nil {
			if err := validate(opt.Schema, mp); err != nil {
				return err
			}
		}

		return k.Load(confmap.Provider(mp, "."), nil)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFile, ext)
	}
}

func validate(schema *gojsonschema.Schema, data map[string]any) error {
	result, err := schema.Validate(gojsonschema.NewGoLoader(data))
	if err != nil {
		return err
	}

	if result.Valid() {
		return nil
	}

	violations := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		violations = append(violations, desc.String())
	}

	return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(violations, "; "))
}

func transformEnv(s, prefix string) string {
	// strip the prefix, it is not part of the key
	s = strings.TrimPrefix(s, prefix)
	// allow specifying nested env vars w/ __
	return strings.ReplaceAll(strings.ToLower(s), "__", ".")
}
