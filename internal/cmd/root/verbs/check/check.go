package check

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	prettytable "github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/segmentio/cli"
	"github.com/spf13/cobra"

	"github.com/adsdrill/drillctl/internal/cmd"
	"github.com/adsdrill/drillctl/internal/cmd/common"
	"github.com/adsdrill/drillctl/internal/cmd/root/verbs"
	"github.com/adsdrill/drillctl/internal/dataset"
	"github.com/adsdrill/drillctl/internal/meta"
	"github.com/adsdrill/drillctl/internal/util"
	"github.com/adsdrill/drillctl/internal/util/i18n"
	"github.com/adsdrill/drillctl/internal/util/normalizers"
)

const (
	Verb = verbs.Check

	ConcurrencyFlagName   = "concurrency"
	ConcurrencyConfigPath = "check." + ConcurrencyFlagName

	FailOnMissingFlagName   = "fail-on-missing"
	FailOnMissingConfigPath = "check." + FailOnMissingFlagName
)

var (
	checkUse = Verb.String()

	checkShort = i18n.T("root.verbs.check.checkShort", "Load and validate every dataset")

	checkLong = normalizers.LongDesc(i18n.T("root.verbs.check.checkLong",
		`Load the accounts dataset, the profiles of every account and the campaigns
of every profile from the configured data source and report the result of each.

Datasets that do not exist are reported as missing. Malformed or unreadable
datasets are failures and make the command exit with a non-zero status.`))

	checkExamples = normalizers.Examples(i18n.T("root.verbs.check.checkExamples",
		fmt.Sprintf(`
		# Check the bundled sample data
		%[1]s check
		# Check a directory and treat missing datasets as failures
		%[1]s check --data-source ./datasets --fail-on-missing
		# Only print the failures
		%[1]s check -o json --jq '.datasets[] | select(.status != "ok")'
		`, meta.CLIName)))
)

// datasetStatus is the printed form of dataset.Status.
type datasetStatus struct {
	Level   string `json:"level" yaml:"level"`
	Key     string `json:"key,omitempty" yaml:"key,omitempty"`
	Records int    `json:"records" yaml:"records"`
	Status  string `json:"status" yaml:"status"`
	Error   string `json:"error,omitempty" yaml:"error,omitempty"`
}

type checkResult struct {
	Source   string          `json:"source" yaml:"source"`
	Datasets []datasetStatus `json:"datasets" yaml:"datasets"`
	Missing  int             `json:"missing" yaml:"missing"`
	Failed   int             `json:"failed" yaml:"failed"`
}

func NewCheckCmd() *cobra.Command {
	rv := &cobra.Command{
		Use:     checkUse,
		Short:   checkShort,
		Long:    checkLong,
		Example: checkExamples,
		Args:    cobra.NoArgs,
		PersistentPreRun: func(c *cobra.Command, _ []string) {
			c.SetContext(context.WithValue(c.Context(), verbs.Verb, Verb))
		},
		PreRun: func(c *cobra.Command, args []string) {
			bindFlags(c, args)
		},
		RunE: func(c *cobra.Command, args []string) error {
			helper := cmd.BuildHelper(c, args)
			if err := validate(helper); err != nil {
				return err
			}
			return run(helper)
		},
	}

	rv.Flags().Int(ConcurrencyFlagName, dataset.DefaultCheckConcurrency,
		fmt.Sprintf("Number of datasets loaded at once.\n- Config path: [ %s ]", ConcurrencyConfigPath))
	rv.Flags().Bool(FailOnMissingFlagName, false,
		fmt.Sprintf("Count missing datasets as failures.\n- Config path: [ %s ]", FailOnMissingConfigPath))
	return rv
}

func bindFlags(c *cobra.Command, args []string) {
	helper := cmd.BuildHelper(c, args)
	cfg, e := helper.GetConfig()
	util.CheckError(e)
	util.CheckError(cfg.BindFlag(ConcurrencyConfigPath, c.Flags().Lookup(ConcurrencyFlagName)))
	util.CheckError(cfg.BindFlag(FailOnMissingConfigPath, c.Flags().Lookup(FailOnMissingFlagName)))
}

func validate(helper cmd.Helper) error {
	cfg, err := helper.GetConfig()
	if err != nil {
		return err
	}
	if n := cfg.GetIntOrElse(ConcurrencyConfigPath, dataset.DefaultCheckConcurrency); n < 1 {
		return cmd.PrepareConfigurationError(
			fmt.Errorf("%s must be 1 or greater, got %d", ConcurrencyConfigPath, n))
	}
	_, err = helper.GetOutputFormat()
	return err
}

func run(helper cmd.Helper) error {
	cfg, err := helper.GetConfig()
	if err != nil {
		return err
	}
	logger, err := helper.GetLogger()
	if err != nil {
		return err
	}
	outType, err := helper.GetOutputFormat()
	if err != nil {
		return err
	}

	loaders, closer, err := helper.OpenLoaders()
	if err != nil {
		return err
	}
	defer closer.Close()

	limit := cfg.GetIntOrElse(ConcurrencyConfigPath, dataset.DefaultCheckConcurrency)
	report, err := dataset.CheckAll(helper.GetContext(), loaders, limit)
	if err != nil && len(report) == 0 {
		return cmd.PrepareExecutionErrorWithHelper(helper, "unable to load accounts", err)
	}
	if err != nil {
		return cmd.PrepareExecutionErrorWithHelper(helper, "check interrupted", err)
	}

	result := summarize(report, dataset.Describe(loaders.Accounts.Source),
		cfg.GetBool(FailOnMissingConfigPath))
	logger.Info("check finished",
		slog.Int("datasets", len(result.Datasets)),
		slog.Int("missing", result.Missing),
		slog.Int("failed", result.Failed))

	if err := printResult(result, outType, helper.GetStreams().Out); err != nil {
		return err
	}

	if result.Failed > 0 {
		return cmd.PrepareExecutionErrorWithHelper(helper,
			fmt.Sprintf("%d of %d datasets failed to load", result.Failed, len(result.Datasets)),
			errors.New("dataset check failed"),
			"source", result.Source)
	}
	return nil
}

// summarize converts report and counts missing and failed datasets. With
// failOnMissing, missing datasets are also counted as failures.
func summarize(report dataset.Report, source string, failOnMissing bool) checkResult {
	result := checkResult{Source: source, Datasets: make([]datasetStatus, 0, len(report))}
	for _, st := range report {
		ds := datasetStatus{Level: st.Level, Key: st.Key, Records: st.Records, Status: "ok"}
		switch {
		case st.OK():
		case errors.Is(st.Err, dataset.ErrNotFound):
			ds.Status = "missing"
			ds.Error = st.Err.Error()
			result.Missing++
			if failOnMissing {
				result.Failed++
			}
		default:
			ds.Status = "failed"
			ds.Error = st.Err.Error()
			result.Failed++
		}
		result.Datasets = append(result.Datasets, ds)
	}
	return result
}

func printResult(result checkResult, outType common.OutputFormat, out io.Writer) error {
	if outType == common.TEXT {
		return printText(result, out)
	}
	p, err := cli.Format(outType.String(), out)
	if err != nil {
		return err
	}
	defer p.Flush()
	p.Print(result)
	return nil
}

func printText(result checkResult, out io.Writer) error {
	tw := prettytable.NewWriter()
	tw.SetStyle(prettytable.StyleLight)
	tw.Style().Format.Header = text.FormatDefault
	tw.AppendHeader(prettytable.Row{"level", "key", "records", "status", "error"})
	tw.SetColumnConfigs([]prettytable.ColumnConfig{{Number: 3, Align: text.AlignRight}})
	for _, ds := range result.Datasets {
		records := ""
		if ds.Status == "ok" {
			records = strconv.Itoa(ds.Records)
		}
		tw.AppendRow(prettytable.Row{ds.Level, ds.Key, records, ds.Status, ds.Error})
	}
	_, err := fmt.Fprintf(out, "%s\n%d datasets checked in %s: %d missing, %d failed\n",
		tw.Render(), len(result.Datasets), result.Source, result.Missing, result.Failed)
	return err
}
