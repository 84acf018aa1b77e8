package root

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/segmentio/cli"
	"github.com/spf13/cobra"

	"github.com/adsdrill/drillctl/internal/cmd"
	"github.com/adsdrill/drillctl/internal/cmd/common"
	"github.com/adsdrill/drillctl/internal/cmd/root/verbs/browse"
	"github.com/adsdrill/drillctl/internal/cmd/root/verbs/check"
	"github.com/adsdrill/drillctl/internal/cmd/root/verbs/imp"
	"github.com/adsdrill/drillctl/internal/cmd/root/verbs/list"
	"github.com/adsdrill/drillctl/internal/cmd/root/version"
	"github.com/adsdrill/drillctl/internal/config"
	"github.com/adsdrill/drillctl/internal/iostreams"
	"github.com/adsdrill/drillctl/internal/log"
	"github.com/adsdrill/drillctl/internal/meta"
	"github.com/adsdrill/drillctl/internal/theme"
	"github.com/adsdrill/drillctl/internal/util/i18n"
	"github.com/adsdrill/drillctl/internal/util/normalizers"
)

var (
	rootLong = normalizers.LongDesc(i18n.T("root.rootLong", `
  drillctl browses advertising accounts, their profiles and the campaigns of
  each profile as paged tables that can be filtered and sorted.

  Datasets are read from the bundled sample data by default. Point
  --data-source at a directory, an http(s) base URL or a SQLite database to
  use your own.`))

	rootShort = i18n.T("root/rootShort", fmt.Sprintf("%s drills through accounts, profiles and campaigns", meta.CLIName))
)

// rootState holds what the persistent flags and the pre-run hook resolve for
// one execution.
type rootState struct {
	streams   *iostreams.IOStreams
	buildInfo *meta.BuildInfo

	configFilePath string
	profile        string

	outputFormat *cmd.FlagEnum
	logLevel     *cmd.FlagEnum
	colorMode    *cmd.FlagEnum
	colorTheme   *cmd.FlagEnum

	config    config.Hook
	logger    *slog.Logger
	logCloser io.Closer
}

func newRootCmd(state *rootState) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           meta.CLIName,
		Short:         rootShort,
		Long:          rootLong,
		SilenceErrors: false,
		PersistentPreRunE: func(c *cobra.Command, _ []string) error {
			return state.initialize(c)
		},
	}

	// parses all flags not just the target command
	rootCmd.TraverseChildren = true

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&state.configFilePath, common.ConfigFilePathFlagName,
		config.GetDefaultConfigFilePath(),
		i18n.T("root."+common.ConfigFilePathFlagName, "Path to the configuration file to load."))

	flags.StringVarP(&state.profile, common.ProfileFlagName, common.ProfileFlagShort,
		state.profile,
		"Specify the profile to use for this command.")

	state.outputFormat = cmd.NewEnum(common.OutputFormats, common.DefaultOutputFormat)
	flags.VarP(state.outputFormat, common.OutputFlagName, common.OutputFlagShort,
		fmt.Sprintf(`Configures the output format.
- Config path: [ %s ]
- Allowed    : [ %s ]`,
			common.OutputConfigPath, strings.Join(state.outputFormat.Allowed, "|")))

	state.logLevel = cmd.NewEnum(log.Levels, common.DefaultLogLevel)
	flags.Var(state.logLevel, common.LogLevelFlagName,
		fmt.Sprintf(`Configures the logging level. Execution logs are written to the log file.
- Config path: [ %s ]
- Allowed    : [ %s ]`,
			common.LogLevelConfigPath, strings.Join(state.logLevel.Allowed, "|")))

	flags.String(common.LogFileFlagName, "",
		fmt.Sprintf(`Write execution logs to the specified file.
- Config path: [ %s ]
- Default    : [ <config dir>/logs/%s.log ]`, common.LogFileConfigPath, meta.CLIName))

	state.colorMode = cmd.NewEnum(common.ColorModes, common.DefaultColorMode)
	flags.Var(state.colorMode, common.ColorFlagName,
		fmt.Sprintf(`Controls colored output.
- Config path: [ %s ]
- Allowed    : [ %s ]`,
			common.ColorConfigPath, strings.Join(state.colorMode.Allowed, "|")))

	state.colorTheme = cmd.NewEnum(theme.Available(), common.DefaultColorTheme)
	flags.Var(state.colorTheme, common.ColorThemeFlagName,
		fmt.Sprintf(`Color theme of the table browser.
- Config path: [ %s ]
- Allowed    : [ %s ]`,
			common.ColorThemeConfigPath, strings.Join(state.colorTheme.Allowed, "|")))

	flags.String(common.DataSourceFlagName, "",
		fmt.Sprintf(`Where datasets are read from: embedded, a directory, an http(s) base URL
or sqlite:<path>.
- Config path: [ %s ]
- Default    : [ %s ]`, common.DataSourceConfigPath, common.DefaultDataSource))

	return rootCmd
}

// addCommands adds the root subcommands to the command.
func addCommands(rootCmd *cobra.Command) error {
	rootCmd.AddCommand(version.NewVersionCmd())
	rootCmd.AddCommand(browse.NewBrowseCmd())
	rootCmd.AddCommand(check.NewCheckCmd())
	rootCmd.AddCommand(imp.NewImportCmd())

	c, e := list.NewListCmd()
	if e != nil {
		return e
	}
	rootCmd.AddCommand(c)
	return nil
}

var flagBindings = map[string]string{
	common.OutputFlagName:     common.OutputConfigPath,
	common.LogLevelFlagName:   common.LogLevelConfigPath,
	common.LogFileFlagName:    common.LogFileConfigPath,
	common.ColorFlagName:      common.ColorConfigPath,
	common.ColorThemeFlagName: common.ColorThemeConfigPath,
	common.DataSourceFlagName: common.DataSourceConfigPath,
}

// initialize loads the profile configuration, binds the global flags to it
// and stores the config, streams, logger and build info on the command
// context.
func (s *rootState) initialize(c *cobra.Command) error {
	cfg, err := config.GetConfig(s.configFilePath, s.profile, config.GetDefaultConfigFilePath())
	if err != nil {
		return &cmd.ConfigurationError{Err: err}
	}
	root := c.Root()
	for flag, path := range flagBindings {
		if err := cfg.BindFlag(path, root.PersistentFlags().Lookup(flag)); err != nil {
			return &cmd.ConfigurationError{Err: err}
		}
	}
	s.config = cfg

	level := cfg.GetString(common.LogLevelConfigPath)
	if err := s.logLevel.Set(level); err != nil {
		return &cmd.ConfigurationError{Err: fmt.Errorf("%s: %w", common.LogLevelConfigPath, err)}
	}
	logger, closer, err := log.New(log.Options{
		Level:  level,
		File:   cfg.GetString(common.LogFileConfigPath),
		ErrOut: s.streams.ErrOut,
	})
	if err != nil {
		return &cmd.ConfigurationError{Err: err}
	}
	s.logger, s.logCloser = logger, closer

	mode, err := common.ColorModeStringToIota(cfg.GetString(common.ColorConfigPath))
	if err != nil {
		return &cmd.ConfigurationError{Err: err}
	}
	theme.ApplyColorMode(mode)
	if err := theme.SetCurrent(cfg.GetString(common.ColorThemeConfigPath)); err != nil {
		return &cmd.ConfigurationError{Err: err}
	}

	logger.Debug("starting command",
		slog.String("command", c.CommandPath()),
		slog.String("profile", cfg.GetProfile()),
		slog.String("config", cfg.GetPath()),
		slog.String("version", s.buildInfo.Version))

	ctx := context.WithValue(c.Context(), config.ConfigKey, cfg)
	ctx = context.WithValue(ctx, iostreams.StreamsKey, s.streams)
	ctx = context.WithValue(ctx, meta.InfoKey, s.buildInfo)
	ctx = log.WithLogger(ctx, logger)
	ctx = theme.ContextWithPalette(ctx, theme.Current())
	c.SetContext(ctx)
	return nil
}

func (s *rootState) close() {
	if s.logCloser != nil {
		_ = s.logCloser.Close()
	}
}

// reportExecutionError prints err in the configured output format. Text output
// goes through the logger so the failure is also recorded in the log file.
func (s *rootState) reportExecutionError(err *cmd.ExecutionError) {
	msg := err.Msg
	if msg == "" {
		msg = err.Error()
	}

	format := common.TEXT
	if s.config != nil {
		format, _ = common.OutputFormatStringToIota(s.config.GetString(common.OutputConfigPath))
	}
	if format == common.JSON || format == common.YAML {
		printer, perr := cli.Format(format.String(), s.streams.ErrOut)
		if perr == nil {
			printer.Print(map[string]any{"error": msg, "detail": err.Error()})
			printer.Flush()
			return
		}
	}

	attrs := append([]any{slog.Any("error", err.Err)}, err.Attrs...)
	if err.Err != nil && err.Err.Error() != msg {
		attrs = append(attrs, slog.String("cause", err.Err.Error()))
	}
	logger := s.logger
	if logger == nil {
		logger = slog.New(log.NewFriendlyErrorHandler(s.streams.ErrOut))
	}
	logger.Error(msg, attrs...)
}

// Run executes the command line args and returns the error that ended it.
func Run(ctx context.Context, streams *iostreams.IOStreams, bi *meta.BuildInfo, args []string) error {
	cobra.EnableTraverseRunHooks = true
	if bi == nil {
		bi = meta.Info()
	}

	state := &rootState{
		streams:   streams,
		buildInfo: bi,
		profile:   common.DefaultProfile,
	}
	// The profile selects the configuration section, so it cannot come from
	// the configuration itself. DRILLCTL_PROFILE < --profile.
	if p, found := os.LookupEnv(strings.ToUpper(meta.CLIName) + "_PROFILE"); found {
		state.profile = p
	}

	rootCmd := newRootCmd(state)
	if err := addCommands(rootCmd); err != nil {
		return err
	}
	rootCmd.SetArgs(args)
	rootCmd.SetIn(streams.In)
	rootCmd.SetOut(streams.Out)
	rootCmd.SetErr(streams.ErrOut)

	err := rootCmd.ExecuteContext(ctx)
	defer state.close()
	if err == nil {
		return nil
	}

	var executionError *cmd.ExecutionError
	if errors.As(err, &executionError) {
		state.reportExecutionError(executionError)
	}
	return err
}

func Execute(ctx context.Context, s *iostreams.IOStreams, bi *meta.BuildInfo) {
	if err := Run(ctx, s, bi, os.Args[1:]); err != nil {
		os.Exit(1)
	}
}
