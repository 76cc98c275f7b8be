package config

import (
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"

	"github.com/dmitrijs2005/authkeeper/internal/flagx"
)

// EnvPrefix marks the environment variables read into Config, e.g.
// AUTHKEEPER_DATABASE_DSN sets database_dsn.
const EnvPrefix = "AUTHKEEPER_"

func configFilePath(args []string) string {
	return flagx.ConfigFileFlag(args)
}

// loadFileAndEnv overlays cfg with the config file at path (skipped when
// path is empty) and then with AUTHKEEPER_* variables. Keys absent from both
// leave the corresponding fields untouched. JSON files are read with the
// YAML parser, which accepts them as-is.
func loadFileAndEnv(cfg *Config, path string) error {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return errors.Wrapf(err, "read config file %s", path)
		}
	}

	if err := k.Load(env.Provider(".", env.Opt{
		Prefix: EnvPrefix,
		TransformFunc: func(key, value string) (string, any) {
			return strings.ToLower(strings.TrimPrefix(key, EnvPrefix)), value
		},
	}), nil); err != nil {
		return errors.Wrap(err, "load env variables failed")
	}

	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
			),
		},
	}); err != nil {
		return errors.Wrap(err, "unmarshal config failed")
	}

	return nil
}
