package viper

import (
	"strings"

	v "github.com/spf13/viper"

	"github.com/adsdrill/drillctl/internal/meta"
	"github.com/adsdrill/drillctl/internal/util"
)

// EnvPrefix is prepended to every environment override, e.g. DRILLCTL_DEFAULT_OUTPUT.
var EnvPrefix = strings.ToUpper(meta.CLIName)

// InitializeDefaultViper loads path, writing defaultValues to it first when the
// file is missing or empty.
func InitializeDefaultViper(defaultValues map[string]any, path string) (*v.Viper, error) {
	if err := util.InitDir(path, 0o755); err != nil {
		return nil, err
	}

	rv := NewViper(path)
	if len(rv.AllSettings()) == 0 {
		if err := rv.MergeConfigMap(defaultValues); err != nil {
			return nil, err
		}
		if err := rv.WriteConfig(); err != nil {
			return nil, err
		}
	}
	return rv, nil
}

// NewViperE is NewViper but fails when the file cannot be read.
func NewViperE(path string) (*v.Viper, error) {
	rv := v.New()
	rv.SetConfigFile(path)
	ConfigureEnvVars(rv, EnvPrefix)
	if err := rv.ReadInConfig(); err != nil {
		return nil, err
	}
	return rv, nil
}

func NewViper(path string) *v.Viper {
	rv := v.New()
	rv.SetConfigFile(path)
	ConfigureEnvVars(rv, EnvPrefix)
	_ = rv.ReadInConfig()
	return rv
}

// ConfigureEnvVars maps keys like data.source to PREFIX_DATA_SOURCE.
func ConfigureEnvVars(rv *v.Viper, prefix string) {
	rv.SetEnvPrefix(prefix)
	rv.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	rv.AutomaticEnv()
}
