package browse

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/adsdrill/drillctl/internal/cmd"
	"github.com/adsdrill/drillctl/internal/cmd/output/tableview"
	"github.com/adsdrill/drillctl/internal/cmd/root/verbs"
	"github.com/adsdrill/drillctl/internal/dataset"
	"github.com/adsdrill/drillctl/internal/meta"
	"github.com/adsdrill/drillctl/internal/util/i18n"
	"github.com/adsdrill/drillctl/internal/util/normalizers"
)

const (
	Verb = verbs.Browse
)

var (
	browseUse = Verb.String() + " [route]"

	browseShort = i18n.T("root.verbs.browse.browseShort",
		"Browse accounts, profiles and campaigns interactively")

	browseLong = normalizers.LongDesc(i18n.T("root.verbs.browse.browseLong",
		`Open the interactive table browser.

The browser starts on the accounts table, or on the table named by the optional
route. Press enter to drill into a row, esc to go back and ? for the key map.
When the output is not a terminal the first page of the route is printed instead.`))

	browseExamples = normalizers.Examples(i18n.T("root.verbs.browse.browseExamples",
		fmt.Sprintf(`
		# Start on the accounts table
		%[1]s browse
		# Start on the campaigns of profile p1 in account 1
		%[1]s browse /accounts/1/profiles/p1
		# Browse datasets from a directory
		%[1]s browse --data-source ./datasets
		`, meta.CLIName)))
)

func NewBrowseCmd() *cobra.Command {
	return &cobra.Command{
		Use:     browseUse,
		Short:   browseShort,
		Long:    browseLong,
		Example: browseExamples,
		Aliases: []string{"b"},
		Args:    verbs.MaxOneRoute,
		PersistentPreRun: func(c *cobra.Command, _ []string) {
			c.SetContext(context.WithValue(c.Context(), verbs.Verb, Verb))
		},
		RunE: func(c *cobra.Command, args []string) error {
			helper := cmd.BuildHelper(c, args)
			if err := validate(helper); err != nil {
				return err
			}
			return run(helper)
		},
	}
}

func validate(helper cmd.Helper) error {
	if _, err := verbs.RouteArg(helper.GetArgs()); err != nil {
		return cmd.PrepareConfigurationError(err)
	}
	return nil
}

func run(helper cmd.Helper) error {
	route, _ := verbs.RouteArg(helper.GetArgs())

	mode, err := helper.GetColorMode()
	if err != nil {
		return err
	}
	logger, err := helper.GetLogger()
	if err != nil {
		return err
	}

	loaders, closer, err := helper.OpenLoaders()
	if err != nil {
		return err
	}
	defer closer.Close()

	logger.Debug("browsing", slog.String("route", route.String()))
	err = tableview.Browse(helper.GetContext(), helper.GetStreams(), tableview.Options{
		Route:     route,
		Loaders:   loaders,
		ColorMode: mode,
	})
	switch {
	case err == nil, errors.Is(err, context.Canceled):
		return nil
	case errors.Is(err, dataset.ErrNotFound):
		return cmd.PrepareExecutionErrorWithHelper(helper,
			fmt.Sprintf("nothing to browse at %s", route), err, "route", route.String())
	default:
		return cmd.PrepareExecutionErrorWithHelper(helper, "unable to browse datasets", err,
			"route", route.String())
	}
}
