package config

import (
	"errors"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/pflag"
)

var (
	// EnvPrefix defines name prefix for environment variables
	// with struct-path selector and value, for example:
	//    ZBX_CONNECTION_PASSWORD=PASS_WORD
	EnvPrefix = "ZBX_"
	// ConfigEnv defines environment variable for config file path, overrides the ConfigName
	ConfigEnv = "ZBX_CONFIG"
	// ConfigName defines default filename for look in work directory if ConfigEnv is empty
	ConfigName = "zbxctl.yaml"
	// ConfigFile overrides config file path, set by the --config flag
	ConfigFile string
	// SecKeyEnv defines environment variable for secret to crypt passwords in config file
	SecKeyEnv = "ZBX_SECKEY"
)

// BindFlags registers configuration flags in the command line flag set
func BindFlags(flags *pflag.FlagSet) {
	flags.StringVar(&ConfigFile, "config", "",
		`config file path, overrides the `+ConfigEnv+` environment variable`)
	flags.StringVar(&EnvPrefix, "env-prefix", EnvPrefix,
		`prefix for environment variables, "ZBX_" by default`)
	flags.StringVar(&SecKeyEnv, "seckey-env", SecKeyEnv,
		`environment variable for secret to crypt passwords in config file, "ZBX_SECKEY" by default`)
}

func applyFlags() {
	for _, s := range []*string{&ConfigEnv, &SecKeyEnv} {
		*s = strings.TrimPrefix(*s, "ZBX_")
		*s = strings.TrimPrefix(*s, EnvPrefix)
		*s = EnvPrefix + *s
	}
}

func applyEnv(v ...any) error {
	var ee []error
	for i := range v {
		if err := env.ParseWithOptions(v[i], env.Options{Prefix: EnvPrefix}); err != nil {
			ee = append(ee, err)
		}
	}
	if len(ee) > 0 {
		return errors.Join(ee...)
	}
	return nil
}
