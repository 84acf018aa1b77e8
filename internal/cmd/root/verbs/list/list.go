package list

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/adsdrill/drillctl/internal/cmd/root/verbs"
	"github.com/adsdrill/drillctl/internal/meta"
	"github.com/adsdrill/drillctl/internal/navigator"
	"github.com/adsdrill/drillctl/internal/util/i18n"
	"github.com/adsdrill/drillctl/internal/util/normalizers"
)

const (
	Verb = verbs.List
)

var (
	listUse = Verb.String()

	listShort = i18n.T("root.verbs.list.listShort", "Print one page of a table")

	listLong = normalizers.LongDesc(i18n.T("root.verbs.list.listLong",
		`Use list to print one page of the accounts, profiles or campaigns table.

The same filter, sort and paging rules as the interactive browser apply: the
filter is matched case-insensitively against every column, sorting is stable
and a page outside the available range falls back to the first page.
Output can be formatted in multiple ways to aid in further processing.`))

	listExamples = normalizers.Examples(i18n.T("root.verbs.list.listExamples",
		fmt.Sprintf(`
		# List the accounts
		%[1]s list accounts
		# List the profiles of account 1 matching "ES"
		%[1]s list profiles 1 --filter es
		# Second page of campaigns of profile p1, most clicks first
		%[1]s list campaigns 1 p1 --sort clicks --desc --page 2
		# Campaign ids with more than 100 clicks
		%[1]s list campaigns 1 p1 -o json --jq '.records[] | select(.clicks > 100) | .campaignId' -r
		`, meta.CLIName)))
)

func NewListCmd() (*cobra.Command, error) {
	cmd := &cobra.Command{
		Use:     listUse,
		Short:   listShort,
		Long:    listLong,
		Example: listExamples,
		Aliases: []string{"ls", "l"},
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			cmd.SetContext(context.WithValue(cmd.Context(), verbs.Verb, Verb))
		},
	}

	for _, level := range []navigator.Level{navigator.Accounts, navigator.Profiles, navigator.Campaigns} {
		c, err := newTableCmd(level)
		if err != nil {
			return nil, err
		}
		cmd.AddCommand(c)
	}
	return cmd, nil
}
