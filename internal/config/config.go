package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/spf13/pflag"
	v "github.com/spf13/viper"

	"github.com/adsdrill/drillctl/internal/cmd/common"
	"github.com/adsdrill/drillctl/internal/dataset"
	"github.com/adsdrill/drillctl/internal/meta"
	"github.com/adsdrill/drillctl/internal/util/viper"
)

const defaultConfigFileName = "config.yaml"

// GetDefaultConfigPath returns $XDG_CONFIG_HOME/drillctl, falling back to the
// platform config directory resolved by xdg.
func GetDefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, meta.CLIName)
}

func GetDefaultConfigFilePath() string {
	return filepath.Join(GetDefaultConfigPath(), defaultConfigFileName)
}

// GetConfig loads the configuration for profile. A missing file at the default
// location is created with defaults; any other missing path is an error.
func GetConfig(path string, profile string, defaultConfigFilePath string) (*ProfiledConfig, error) {
	path = os.ExpandEnv(path)

	if _, err := os.Stat(path); err == nil {
		vip, err := viper.NewViperE(path)
		if err != nil {
			return nil, err
		}
		return BuildProfiledConfig(profile, path, vip), nil
	}

	if path != defaultConfigFilePath {
		return nil, fmt.Errorf("the provided config file path %q does not exist", path)
	}

	vip, err := viper.InitializeDefaultViper(getDefaultConfig(profile, path), path)
	if err != nil {
		return nil, err
	}
	return BuildProfiledConfig(profile, path, vip), nil
}

// Empty type to represent the _type_ Config. Genesis is to support a key in a Context
type Key struct{}

// ConfigKey is a global instance of the Key type
var ConfigKey = Key{}

// Hook is the subset of Viper the commands are allowed to use. Reads are scoped
// to the active profile.
type Hook interface {
	Save() error
	GetString(key string) string
	GetBool(key string) bool
	GetInt(key string) int
	GetIntOrElse(key string, orElse int) int
	GetStringSlice(key string) []string
	SetString(key string, value string)
	Set(k string, v any)
	Get(key string) any
	// BindFlag lets a flag override the configuration path when it is set
	BindFlag(configPath string, f *pflag.Flag) error
	GetProfile() string
	GetPath() string
}

// ProfiledConfig is a Viper with the sub-configuration of one profile
// extracted.
type ProfiledConfig struct {
	*v.Viper
	subViper    *v.Viper
	ProfileName string
	Path        string
}

func (p *ProfiledConfig) GetProfile() string {
	return p.ProfileName
}

func (p *ProfiledConfig) Save() error {
	return p.WriteConfig()
}

func (p *ProfiledConfig) Get(key string) any {
	return p.subViper.Get(key)
}

func (p *ProfiledConfig) GetString(key string) string {
	return p.subViper.GetString(key)
}

func (p *ProfiledConfig) GetBool(key string) bool {
	return p.subViper.GetBool(key)
}

func (p *ProfiledConfig) GetInt(key string) int {
	return p.subViper.GetInt(key)
}

func (p *ProfiledConfig) GetIntOrElse(key string, orElse int) int {
	if p.subViper.IsSet(key) {
		return p.subViper.GetInt(key)
	}
	return orElse
}

func (p *ProfiledConfig) GetStringSlice(key string) []string {
	return p.subViper.GetStringSlice(key)
}

func (p *ProfiledConfig) BindFlag(configPath string, f *pflag.Flag) error {
	return p.subViper.BindPFlag(configPath, f)
}

func (p *ProfiledConfig) SetString(k string, v string) {
	p.subViper.Set(k, v)
}

func (p *ProfiledConfig) Set(k string, v any) {
	p.subViper.Set(k, v)
}

func (p *ProfiledConfig) GetPath() string {
	return p.Path
}

// BuildProfiledConfig extracts profile from mainv. Profile keys can be
// overridden with DRILLCTL_<PROFILE>_<KEY> environment variables, e.g.
// DRILLCTL_DEFAULT_DATA_SOURCE.
func BuildProfiledConfig(profile string, path string, mainv *v.Viper) *ProfiledConfig {
	subv := mainv.Sub(profile)
	if subv == nil {
		subv = v.New()
	}
	envPrefix := viper.EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(profile, "-", "_"))
	viper.ConfigureEnvVars(subv, envPrefix)

	for key, value := range defaults(filepath.Dir(path)) {
		subv.SetDefault(key, value)
	}

	return &ProfiledConfig{
		Viper:       mainv,
		ProfileName: profile,
		subViper:    subv,
		Path:        path,
	}
}

// DataLayout returns the dataset resource names configured for cfg.
func DataLayout(cfg Hook) dataset.Layout {
	return dataset.Layout{
		AccountsResource: cfg.GetString(common.AccountsResourceConfigPath),
		ProfilesPrefix:   cfg.GetString(common.ProfilesPrefixConfigPath),
		CampaignsPrefix:  cfg.GetString(common.CampaignsPrefixConfigPath),
	}
}

func defaults(configDir string) map[string]any {
	return map[string]any{
		common.OutputConfigPath:           common.DefaultOutputFormat,
		common.LogLevelConfigPath:         common.DefaultLogLevel,
		common.LogFileConfigPath:          filepath.Join(configDir, "logs", meta.CLIName+".log"),
		common.ColorConfigPath:            common.DefaultColorMode,
		common.ColorThemeConfigPath:       common.DefaultColorTheme,
		common.DataSourceConfigPath:       common.DefaultDataSource,
		common.AccountsResourceConfigPath: dataset.DefaultLayout.AccountsResource,
		common.ProfilesPrefixConfigPath:   dataset.DefaultLayout.ProfilesPrefix,
		common.CampaignsPrefixConfigPath:  dataset.DefaultLayout.CampaignsPrefix,
	}
}

func getDefaultConfig(profileName, configFilePath string) map[string]any {
	configDir := filepath.Dir(configFilePath)
	return map[string]any{
		profileName: map[string]any{
			common.OutputConfigPath:     common.DefaultOutputFormat,
			common.LogFileConfigPath:    filepath.Join(configDir, "logs", meta.CLIName+".log"),
			common.ColorThemeConfigPath: common.DefaultColorTheme,
			"data": map[string]any{
				"source": common.DefaultDataSource,
			},
		},
	}
}
