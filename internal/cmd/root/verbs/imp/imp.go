package imp

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

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
	Verb = verbs.Import

	DBFlagName   = "db"
	DBConfigPath = "import." + DBFlagName
)

var (
	importUse = Verb.String() + " <dir>"

	importShort = i18n.T("root.verbs.import.importShort", "Copy dataset files into a SQLite database")

	importLong = normalizers.LongDesc(i18n.T("root.verbs.import.importLong",
		`Copy every JSON and YAML dataset file below a directory into a SQLite
database that can then be used as the data source.

Each file is stored under its path relative to the directory without the
extension, so campaignsData/campaignsp1.json becomes campaignsData/campaignsp1.
Importing the same directory again replaces the stored documents.`))

	importExamples = normalizers.Examples(i18n.T("root.verbs.import.importExamples",
		fmt.Sprintf(`
		# Import a directory and browse it
		%[1]s import ./datasets --db ./datasets.db
		%[1]s browse --data-source sqlite:./datasets.db
		`, meta.CLIName)))
)

type importResult struct {
	Database string   `json:"database" yaml:"database"`
	Datasets []string `json:"datasets" yaml:"datasets"`
}

func NewImportCmd() *cobra.Command {
	rv := &cobra.Command{
		Use:     importUse,
		Short:   importShort,
		Long:    importLong,
		Example: importExamples,
		Args:    cobra.ExactArgs(1),
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

	rv.Flags().String(DBFlagName, "",
		fmt.Sprintf("Path of the SQLite database to write. Created when missing.\n- Config path: [ %s ]",
			DBConfigPath))
	return rv
}

func bindFlags(c *cobra.Command, args []string) {
	helper := cmd.BuildHelper(c, args)
	cfg, e := helper.GetConfig()
	util.CheckError(e)
	util.CheckError(cfg.BindFlag(DBConfigPath, c.Flags().Lookup(DBFlagName)))
}

func validate(helper cmd.Helper) error {
	cfg, err := helper.GetConfig()
	if err != nil {
		return err
	}
	if strings.TrimSpace(cfg.GetString(DBConfigPath)) == "" {
		return cmd.PrepareConfigurationError(fmt.Errorf("--%s is required", DBFlagName))
	}

	dir := helper.GetArgs()[0]
	info, err := os.Stat(dir)
	if err != nil {
		return cmd.PrepareConfigurationError(err)
	}
	if !info.IsDir() {
		return cmd.PrepareConfigurationError(fmt.Errorf("%s is not a directory", dir))
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

	dir := helper.GetArgs()[0]
	path := cfg.GetString(DBConfigPath)
	db, err := dataset.OpenSQLite(path)
	if err != nil {
		return cmd.PrepareExecutionErrorWithHelper(helper, "unable to open database", err, "db", path)
	}
	defer db.Close()

	names, err := dataset.Import(helper.GetContext(), os.DirFS(dir), db)
	if err != nil {
		return cmd.PrepareExecutionErrorWithHelper(helper,
			fmt.Sprintf("import stopped after %d datasets", len(names)), err,
			"dir", dir, "db", path)
	}
	logger.Info("imported datasets",
		slog.String("dir", dir), slog.String("db", path), slog.Int("datasets", len(names)))

	result := importResult{Database: db.String(), Datasets: names}
	if result.Datasets == nil {
		result.Datasets = []string{}
	}
	return printResult(result, outType, helper.GetStreams().Out)
}

func printResult(result importResult, outType common.OutputFormat, out io.Writer) error {
	if outType == common.TEXT {
		_, err := fmt.Fprintf(out, "Imported %d datasets into %s\n", len(result.Datasets), result.Database)
		return err
	}
	p, err := cli.Format(outType.String(), out)
	if err != nil {
		return err
	}
	defer p.Flush()
	p.Print(result)
	return nil
}
