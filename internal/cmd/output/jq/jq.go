// Package jq filters json and yaml command output with jq expressions.
package jq

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/itchyny/gojq"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	cmdpkg "github.com/adsdrill/drillctl/internal/cmd"
	cmdcommon "github.com/adsdrill/drillctl/internal/cmd/common"
	"github.com/adsdrill/drillctl/internal/config"
	"github.com/adsdrill/drillctl/internal/iostreams"
)

const (
	FlagName             = "jq"
	RawOutputFlagName    = "jq-raw-output"
	RawOutputFlagShort   = "r"
	ThemeFlagName        = "jq-color-theme"
	ThemeConfigPath      = "jq.color-theme"
	DefaultExprConfigKey = "jq.default-expression"
	DefaultTheme         = "friendly"
)

var queryCache sync.Map

type Settings struct {
	Filter    string
	ColorMode cmdcommon.ColorMode
	Theme     string
	RawOutput bool
}

func AddFlags(flags *pflag.FlagSet) {
	flags.String(FlagName, "",
		"Filter json or yaml output with a jq expression, e.g. '.[] | select(.clicks > 100)'")
	flags.BoolP(RawOutputFlagName, RawOutputFlagShort, false,
		"Print string results of the jq filter without quotes (like jq -r).")
	flags.String(ThemeFlagName, DefaultTheme, fmt.Sprintf(`Color theme used for jq results.
- Config path: [ %s ]
- Examples   : [ friendly, github-dark, dracula ]`, ThemeConfigPath))
}

// ResolveSettings reads the jq flags of command. The color mode follows the
// global --color setting; cfg may be nil.
func ResolveSettings(command *cobra.Command, cfg config.Hook, mode cmdcommon.ColorMode) (Settings, error) {
	settings := Settings{Theme: DefaultTheme, ColorMode: mode}
	if command == nil || command.Flags().Lookup(FlagName) == nil {
		return settings, nil
	}
	flags := command.Flags()

	filter, err := flags.GetString(FlagName)
	if err != nil {
		return Settings{}, err
	}
	filter = strings.TrimSpace(filter)
	switch {
	case flags.Changed(FlagName) && filter == "":
		filter = "."
	case !flags.Changed(FlagName) && cfg != nil:
		filter = strings.TrimSpace(cfg.GetString(DefaultExprConfigKey))
	}
	settings.Filter = filter

	if settings.RawOutput, err = flags.GetBool(RawOutputFlagName); err != nil {
		return Settings{}, err
	}

	theme, _ := flags.GetString(ThemeFlagName)
	if !flags.Changed(ThemeFlagName) && cfg != nil {
		if configured := strings.TrimSpace(cfg.GetString(ThemeConfigPath)); configured != "" {
			theme = configured
		}
	}
	if theme != "" {
		settings.Theme = theme
	}
	return settings, nil
}

func (s Settings) HasFilter() bool {
	return strings.TrimSpace(s.Filter) != ""
}

// ValidateOutputFormat rejects jq flags that cannot apply to the chosen output.
func ValidateOutputFormat(outType cmdcommon.OutputFormat, settings Settings) error {
	if settings.RawOutput {
		if !settings.HasFilter() {
			return &cmdpkg.ConfigurationError{
				Err: fmt.Errorf("--%s requires --%s", RawOutputFlagName, FlagName),
			}
		}
		if outType != cmdcommon.JSON {
			return &cmdpkg.ConfigurationError{
				Err: fmt.Errorf("--%s is only supported with --output json", RawOutputFlagName),
			}
		}
		return nil
	}
	if !settings.HasFilter() || outType == cmdcommon.JSON || outType == cmdcommon.YAML {
		return nil
	}
	return &cmdpkg.ConfigurationError{
		Err: fmt.Errorf("--%s is only supported with --output json or --output yaml", FlagName),
	}
}

// Apply runs the filter over payload. When handled is true the result was
// already written to out (raw or colorized output); otherwise the caller prints
// the returned value with its regular printer.
func Apply(payload any, outType cmdcommon.OutputFormat, settings Settings, out io.Writer) (any, bool, error) {
	if !settings.HasFilter() {
		return payload, false, nil
	}
	if err := ValidateOutputFormat(outType, settings); err != nil {
		return nil, false, err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, false, fmt.Errorf("failed to encode output before applying jq filter: %w", err)
	}
	results, err := evaluate(body, settings.Filter)
	if err != nil {
		return nil, false, err
	}

	if settings.RawOutput {
		return nil, true, writeRaw(results, out)
	}

	var result any
	switch len(results) {
	case 0:
	case 1:
		result = results[0]
	default:
		result = results
	}

	if outType == cmdcommon.JSON && ShouldUseColor(settings.ColorMode, out) {
		formatted, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return nil, false, err
		}
		_, err = fmt.Fprintln(out, Colorize(string(formatted), settings.Theme))
		return nil, true, err
	}
	return result, false, nil
}

// ApplyFilter evaluates filter over a JSON document and returns the JSON
// encoded result. Multiple results are collected into an array.
func ApplyFilter(body []byte, filter string) ([]byte, error) {
	results, err := evaluate(body, filter)
	if err != nil {
		return nil, err
	}
	switch len(results) {
	case 0:
		return []byte("null"), nil
	case 1:
		return json.Marshal(results[0])
	default:
		return json.Marshal(results)
	}
}

func evaluate(body []byte, filter string) ([]any, error) {
	filter = strings.TrimSpace(filter)
	if filter == "" {
		filter = "."
	}

	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("output is not valid JSON: %w", err)
	}

	code, err := compile(filter)
	if err != nil {
		return nil, err
	}

	var results []any
	iter := code.Run(payload)
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, isErr := v.(error); isErr {
			return nil, fmt.Errorf("jq filter failed: %w", err)
		}
		results = append(results, v)
	}
	return results, nil
}

func compile(filter string) (*gojq.Code, error) {
	if cached, ok := queryCache.Load(filter); ok {
		return cached.(*gojq.Code), nil
	}
	parsed, err := gojq.Parse(filter)
	if err != nil {
		return nil, fmt.Errorf("invalid jq expression: %w", err)
	}
	code, err := gojq.Compile(parsed)
	if err != nil {
		return nil, fmt.Errorf("failed to compile jq expression: %w", err)
	}
	queryCache.Store(filter, code)
	return code, nil
}

func writeRaw(results []any, out io.Writer) error {
	for _, v := range results {
		line, ok := v.(string)
		if !ok {
			encoded, err := json.Marshal(v)
			if err != nil {
				return fmt.Errorf("failed to encode filtered result: %w", err)
			}
			line = string(encoded)
		}
		if _, err := fmt.Fprintln(out, line); err != nil {
			return err
		}
	}
	return nil
}

// ShouldUseColor resolves auto against NO_COLOR and whether out is a terminal.
func ShouldUseColor(mode cmdcommon.ColorMode, out io.Writer) bool {
	switch mode {
	case cmdcommon.ColorModeAlways:
		return true
	case cmdcommon.ColorModeNever:
		return false
	default:
		if _, disabled := os.LookupEnv("NO_COLOR"); disabled {
			return false
		}
		return iostreams.IsTerminal(out)
	}
}

// Colorize highlights a JSON document for a 256 color terminal. It returns the
// input unchanged if highlighting fails.
func Colorize(formatted, theme string) string {
	lexer := lexers.Get("json")
	formatter := formatters.Get("terminal256")
	if lexer == nil || formatter == nil {
		return formatted
	}
	iterator, err := lexer.Tokenise(nil, formatted)
	if err != nil {
		return formatted
	}

	style := styles.Get(theme)
	if style == nil {
		style = styles.Fallback
	}

	var buf bytes.Buffer
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return formatted
	}
	return strings.TrimRight(buf.String(), "\n")
}
