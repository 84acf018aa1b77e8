package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/adsdrill/drillctl/internal/cmd/common"
	"github.com/adsdrill/drillctl/internal/config"
	"github.com/adsdrill/drillctl/internal/dataset"
	"github.com/adsdrill/drillctl/internal/iostreams"
	"github.com/adsdrill/drillctl/internal/log"
	"github.com/adsdrill/drillctl/internal/meta"
)

type Helper interface {
	GetCmd() *cobra.Command
	GetArgs() []string
	GetStreams() *iostreams.IOStreams
	GetConfig() (config.Hook, error)
	GetOutputFormat() (common.OutputFormat, error)
	GetColorMode() (common.ColorMode, error)
	GetLogger() (*slog.Logger, error)
	GetBuildInfo() (*meta.BuildInfo, error)
	GetContext() context.Context
	// OpenLoaders resolves the configured data source. The closer releases it.
	OpenLoaders() (dataset.Loaders, io.Closer, error)
}

type CommandHelper struct {
	// Cmd is a pointer to the command that is being executed
	Cmd *cobra.Command
	// Args are the arguments (not flags) passed to the command
	Args []string
}

func (r *CommandHelper) GetCmd() *cobra.Command {
	return r.Cmd
}

func (r *CommandHelper) GetArgs() []string {
	return r.Args
}

func (r *CommandHelper) GetBuildInfo() (*meta.BuildInfo, error) {
	info, ok := r.GetContext().Value(meta.InfoKey).(*meta.BuildInfo)
	if !ok || info == nil {
		return nil, &ConfigurationError{
			Err: fmt.Errorf("no build info configured"),
		}
	}
	return info, nil
}

func (r *CommandHelper) GetLogger() (*slog.Logger, error) {
	logger, ok := r.GetContext().Value(log.LoggerKey).(*slog.Logger)
	if !ok || logger == nil {
		return nil, &ConfigurationError{
			Err: fmt.Errorf("no logger configured"),
		}
	}
	return logger, nil
}

func (r *CommandHelper) GetStreams() *iostreams.IOStreams {
	if s, ok := r.GetContext().Value(iostreams.StreamsKey).(*iostreams.IOStreams); ok && s != nil {
		return s
	}
	return iostreams.GetOSIOStreams()
}

func (r *CommandHelper) GetConfig() (config.Hook, error) {
	cfg, ok := r.GetContext().Value(config.ConfigKey).(config.Hook)
	if !ok || cfg == nil {
		return nil, PrepareExecutionErrorMsg(r, "no config found in context")
	}
	return cfg, nil
}

func (r *CommandHelper) GetOutputFormat() (common.OutputFormat, error) {
	c, e := r.GetConfig()
	if e != nil {
		return common.TEXT, e
	}
	rv, e := common.OutputFormatStringToIota(c.GetString(common.OutputConfigPath))
	if e != nil {
		return common.TEXT, &ConfigurationError{Err: e}
	}
	return rv, nil
}

func (r *CommandHelper) GetColorMode() (common.ColorMode, error) {
	c, e := r.GetConfig()
	if e != nil {
		return common.ColorModeAuto, e
	}
	rv, e := common.ColorModeStringToIota(c.GetString(common.ColorConfigPath))
	if e != nil {
		return common.ColorModeAuto, &ConfigurationError{Err: e}
	}
	return rv, nil
}

func (r *CommandHelper) GetContext() context.Context {
	if ctx := r.Cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func (r *CommandHelper) OpenLoaders() (dataset.Loaders, io.Closer, error) {
	cfg, err := r.GetConfig()
	if err != nil {
		return dataset.Loaders{}, nil, err
	}
	location := cfg.GetString(common.DataSourceConfigPath)
	src, closer, err := dataset.Open(location)
	if err != nil {
		return dataset.Loaders{}, nil, PrepareExecutionError("unable to open data source", err, r.Cmd,
			"data_source", location)
	}
	if logger, lerr := r.GetLogger(); lerr == nil {
		logger.Debug("opened data source", slog.String("source", dataset.Describe(src)))
	}
	return dataset.NewLoaders(src, config.DataLayout(cfg)), closer, nil
}

func BuildHelper(cmd *cobra.Command, args []string) Helper {
	return &CommandHelper{
		Cmd:  cmd,
		Args: args,
	}
}
