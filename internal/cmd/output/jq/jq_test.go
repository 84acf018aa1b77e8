package jq

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	cmdcommon "github.com/adsdrill/drillctl/internal/cmd/common"
)

type stubConfig struct {
	values map[string]string
}

func (s stubConfig) Save() error                           { return nil }
func (s stubConfig) GetString(key string) string           { return s.values[key] }
func (s stubConfig) GetBool(string) bool                   { return false }
func (s stubConfig) GetInt(string) int                     { return 0 }
func (s stubConfig) GetIntOrElse(_ string, orElse int) int { return orElse }
func (s stubConfig) GetStringSlice(string) []string        { return nil }
func (s stubConfig) SetString(string, string)              {}
func (s stubConfig) Set(string, any)                       {}
func (s stubConfig) Get(string) any                        { return nil }
func (s stubConfig) BindFlag(string, *pflag.Flag) error    { return nil }
func (s stubConfig) GetProfile() string                    { return "default" }
func (s stubConfig) GetPath() string                       { return "" }

func newCommand() *cobra.Command {
	command := &cobra.Command{Use: "test"}
	AddFlags(command.Flags())
	return command
}

func TestResolveSettingsDefaults(t *testing.T) {
	settings, err := ResolveSettings(newCommand(), nil, cmdcommon.ColorModeNever)
	require.NoError(t, err)
	require.Equal(t, "", settings.Filter)
	require.Equal(t, cmdcommon.ColorModeNever, settings.ColorMode)
	require.Equal(t, DefaultTheme, settings.Theme)
	require.False(t, settings.HasFilter())
}

func TestResolveSettingsEmptyFilterDefaultsToIdentity(t *testing.T) {
	command := newCommand()
	require.NoError(t, command.Flags().Set(FlagName, ""))

	settings, err := ResolveSettings(command, stubConfig{values: map[string]string{DefaultExprConfigKey: ".[0]"}},
		cmdcommon.ColorModeAuto)
	require.NoError(t, err)
	require.Equal(t, ".", settings.Filter)
}

func TestResolveSettingsReadsConfig(t *testing.T) {
	cfg := stubConfig{values: map[string]string{
		DefaultExprConfigKey: ".[].id",
		ThemeConfigPath:      "github",
	}}

	settings, err := ResolveSettings(newCommand(), cfg, cmdcommon.ColorModeAlways)
	require.NoError(t, err)
	require.Equal(t, ".[].id", settings.Filter)
	require.Equal(t, "github", settings.Theme)

	command := newCommand()
	require.NoError(t, command.Flags().Parse([]string{"--jq", ".[0]", "-r", "--jq-color-theme", "dracula"}))
	settings, err = ResolveSettings(command, cfg, cmdcommon.ColorModeAlways)
	require.NoError(t, err)
	require.Equal(t, ".[0]", settings.Filter)
	require.Equal(t, "dracula", settings.Theme)
	require.True(t, settings.RawOutput)
}

func TestResolveSettingsWithoutJQFlags(t *testing.T) {
	cfg := stubConfig{values: map[string]string{DefaultExprConfigKey: ".[].id"}}
	settings, err := ResolveSettings(&cobra.Command{Use: "test"}, cfg, cmdcommon.ColorModeAuto)
	require.NoError(t, err)
	require.Equal(t, "", settings.Filter)
}

func TestValidateOutputFormat(t *testing.T) {
	err := ValidateOutputFormat(cmdcommon.TEXT, Settings{Filter: "."})
	require.ErrorContains(t, err, "only supported")

	err = ValidateOutputFormat(cmdcommon.JSON, Settings{RawOutput: true})
	require.ErrorContains(t, err, "requires")

	err = ValidateOutputFormat(cmdcommon.YAML, Settings{Filter: ".", RawOutput: true})
	require.ErrorContains(t, err, "--output json")

	require.NoError(t, ValidateOutputFormat(cmdcommon.YAML, Settings{Filter: "."}))
	require.NoError(t, ValidateOutputFormat(cmdcommon.TEXT, Settings{}))
}

func TestApplySelectsRecords(t *testing.T) {
	payload := []map[string]any{
		{"campaignId": "c1", "clicks": 10},
		{"campaignId": "c2", "clicks": 250},
	}
	settings := Settings{Filter: "[.[] | select(.clicks > 100) | .campaignId]", ColorMode: cmdcommon.ColorModeNever}

	result, handled, err := Apply(payload, cmdcommon.JSON, settings, &bytes.Buffer{})
	require.NoError(t, err)
	require.False(t, handled)
	require.Equal(t, []any{"c2"}, result)
}

func TestApplyWithoutFilterPassesThrough(t *testing.T) {
	payload := map[string]any{"a": 1}
	result, handled, err := Apply(payload, cmdcommon.TEXT, Settings{}, &bytes.Buffer{})
	require.NoError(t, err)
	require.False(t, handled)
	require.Equal(t, payload, result)
}

func TestApplyRawOutputWritesUnquotedStrings(t *testing.T) {
	payload := []map[string]any{{"id": "1"}, {"id": "2"}}

	buf := &bytes.Buffer{}
	result, handled, err := Apply(payload, cmdcommon.JSON, Settings{Filter: ".[].id", RawOutput: true}, buf)
	require.NoError(t, err)
	require.True(t, handled)
	require.Nil(t, result)
	require.Equal(t, "1\n2\n", buf.String())
}

func TestApplyColorizedJSONWritesDirectly(t *testing.T) {
	payload := map[string]any{"foo": map[string]any{"bar": 1}}
	settings := Settings{Filter: ".", ColorMode: cmdcommon.ColorModeAlways, Theme: DefaultTheme}

	buf := &bytes.Buffer{}
	result, handled, err := Apply(payload, cmdcommon.JSON, settings, buf)
	require.NoError(t, err)
	require.True(t, handled)
	require.Nil(t, result)
	require.Contains(t, buf.String(), "\x1b[")
}

func TestApplyFilter(t *testing.T) {
	out, err := ApplyFilter([]byte(`[{"id":"1"},{"id":"2"}]`), ".[].id")
	require.NoError(t, err)
	require.JSONEq(t, `["1","2"]`, string(out))

	out, err = ApplyFilter([]byte(`[]`), ".[]")
	require.NoError(t, err)
	require.Equal(t, "null", string(out))

	_, err = ApplyFilter([]byte(`{"foo":1}`), ".foo[")
	require.ErrorContains(t, err, "invalid jq expression")
}
