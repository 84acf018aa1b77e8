package list

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/segmentio/cli"
	"github.com/spf13/cobra"

	"github.com/adsdrill/drillctl/internal/cmd"
	"github.com/adsdrill/drillctl/internal/cmd/common"
	"github.com/adsdrill/drillctl/internal/cmd/output/jq"
	"github.com/adsdrill/drillctl/internal/cmd/output/tableview"
	"github.com/adsdrill/drillctl/internal/dataset"
	"github.com/adsdrill/drillctl/internal/navigator"
	"github.com/adsdrill/drillctl/internal/record"
	"github.com/adsdrill/drillctl/internal/table"
	"github.com/adsdrill/drillctl/internal/util/i18n"
)

const (
	FilterFlagName = "filter"
	SortFlagName   = "sort"
	DescFlagName   = "desc"
	PageFlagName   = "page"
)

// query is what the list flags ask of the table pipeline.
type query struct {
	filter string
	sort   string
	desc   bool
	page   int
}

// listResult is the json and yaml shape of one page.
type listResult struct {
	Table       string           `json:"table" yaml:"table"`
	Route       string           `json:"route" yaml:"route"`
	Filter      string           `json:"filter,omitempty" yaml:"filter,omitempty"`
	Sort        *sortResult      `json:"sort,omitempty" yaml:"sort,omitempty"`
	Page        int              `json:"page" yaml:"page"`
	TotalPages  int              `json:"totalPages" yaml:"totalPages"`
	Filtered    int              `json:"filtered" yaml:"filtered"`
	Total       int              `json:"total" yaml:"total"`
	PageNumbers []int            `json:"pageNumbers" yaml:"pageNumbers"`
	Records     []map[string]any `json:"records" yaml:"records"`
}

type sortResult struct {
	Field     string `json:"field" yaml:"field"`
	Direction string `json:"direction" yaml:"direction"`
}

func newTableCmd(level navigator.Level) (*cobra.Command, error) {
	c := &cobra.Command{
		RunE: func(c *cobra.Command, args []string) error {
			helper := cmd.BuildHelper(c, args)
			q, err := validate(helper, level)
			if err != nil {
				return err
			}
			return run(helper, level, q)
		},
	}

	switch level {
	case navigator.Accounts:
		c.Use = "accounts"
		c.Aliases = []string{"account", "a"}
		c.Short = i18n.T("root.verbs.list.accounts.short", "List accounts")
		c.Args = cobra.NoArgs
	case navigator.Profiles:
		c.Use = "profiles <accountId>"
		c.Aliases = []string{"profile", "p"}
		c.Short = i18n.T("root.verbs.list.profiles.short", "List the profiles of an account")
		c.Args = cobra.ExactArgs(1)
	case navigator.Campaigns:
		c.Use = "campaigns <accountId> <profileId>"
		c.Aliases = []string{"campaign", "c"}
		c.Short = i18n.T("root.verbs.list.campaigns.short", "List the campaigns of a profile")
		c.Args = cobra.ExactArgs(2)
	default:
		return nil, fmt.Errorf("no list command for level %s", level)
	}

	schema := tableview.SchemaFor(level)
	flags := c.Flags()
	flags.String(FilterFlagName, "",
		"Keep only the rows where some column contains this text (case-insensitive).")
	flags.String(SortFlagName, "",
		fmt.Sprintf("Sort by this column.\n- Allowed: [ %s ]", strings.Join(schema.SortableFieldNames(), "|")))
	flags.Bool(DescFlagName, false, fmt.Sprintf("Sort descending. Requires --%s.", SortFlagName))
	flags.Int(PageFlagName, 1, "Page to print. Pages outside the available range print the first page.")
	jq.AddFlags(flags)

	return c, nil
}

func routeFor(level navigator.Level, args []string) navigator.Route {
	switch level {
	case navigator.Profiles:
		return navigator.ProfilesOf(args[0])
	case navigator.Campaigns:
		return navigator.CampaignsOf(args[0], args[1])
	default:
		return navigator.Root
	}
}

func validate(helper cmd.Helper, level navigator.Level) (query, error) {
	flags := helper.GetCmd().Flags()
	var q query
	var err error
	if q.filter, err = flags.GetString(FilterFlagName); err != nil {
		return q, cmd.PrepareConfigurationError(err)
	}
	if q.desc, err = flags.GetBool(DescFlagName); err != nil {
		return q, cmd.PrepareConfigurationError(err)
	}
	if q.page, err = flags.GetInt(PageFlagName); err != nil {
		return q, cmd.PrepareConfigurationError(err)
	}
	sortName, err := flags.GetString(SortFlagName)
	if err != nil {
		return q, cmd.PrepareConfigurationError(err)
	}

	if q.page < 1 {
		return q, cmd.PrepareConfigurationError(fmt.Errorf("--%s must be 1 or greater, got %d", PageFlagName, q.page))
	}
	if q.sort, err = resolveSort(tableview.SchemaFor(level), sortName); err != nil {
		return q, cmd.PrepareConfigurationError(err)
	}
	if q.desc && q.sort == "" {
		return q, cmd.PrepareConfigurationError(fmt.Errorf("--%s requires --%s", DescFlagName, SortFlagName))
	}

	for _, arg := range helper.GetArgs() {
		if strings.TrimSpace(arg) == "" {
			return q, cmd.PrepareConfigurationError(errors.New("ids must not be empty"))
		}
	}

	outType, err := helper.GetOutputFormat()
	if err != nil {
		return q, err
	}
	settings, err := jqSettings(helper)
	if err != nil {
		return q, err
	}
	return q, jq.ValidateOutputFormat(outType, settings)
}

// resolveSort maps a user supplied column name onto the schema field name.
func resolveSort(schema *record.Schema, name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", nil
	}
	f, ok := schema.ResolveField(name)
	if !ok || !f.Sortable {
		return "", fmt.Errorf("%s cannot be sorted by %q, must be one of [%s]",
			schema.Name, name, strings.Join(schema.SortableFieldNames(), " "))
	}
	return f.Name, nil
}

func jqSettings(helper cmd.Helper) (jq.Settings, error) {
	cfg, err := helper.GetConfig()
	if err != nil {
		return jq.Settings{}, err
	}
	mode, err := helper.GetColorMode()
	if err != nil {
		return jq.Settings{}, err
	}
	settings, err := jq.ResolveSettings(helper.GetCmd(), cfg, mode)
	if err != nil {
		return jq.Settings{}, cmd.PrepareConfigurationError(err)
	}
	return settings, nil
}

// page runs filter, sort and paging over ds the same way the browser does.
func page(schema *record.Schema, ds record.Dataset, q query) (table.View, error) {
	ctrl := table.NewReadyController(schema, ds)
	if err := ctrl.SetFilter(q.filter); err != nil {
		return table.View{}, err
	}
	if q.sort != "" {
		if err := ctrl.RequestSort(q.sort); err != nil {
			return table.View{}, err
		}
		if q.desc {
			if err := ctrl.RequestSort(q.sort); err != nil {
				return table.View{}, err
			}
		}
	}
	if err := ctrl.GotoPage(q.page); err != nil {
		return table.View{}, err
	}
	return ctrl.View(), nil
}

func run(helper cmd.Helper, level navigator.Level, q query) error {
	route := routeFor(level, helper.GetArgs())
	schema := tableview.SchemaFor(level)

	logger, err := helper.GetLogger()
	if err != nil {
		return err
	}
	outType, err := helper.GetOutputFormat()
	if err != nil {
		return err
	}
	settings, err := jqSettings(helper)
	if err != nil {
		return err
	}

	loaders, closer, err := helper.OpenLoaders()
	if err != nil {
		return err
	}
	defer closer.Close()

	ds, err := tableview.LoaderFor(loaders, level).Load(helper.GetContext(), route.Key())
	if err != nil {
		msg := fmt.Sprintf("unable to load %s", schema.Name)
		if errors.Is(err, dataset.ErrNotFound) {
			msg = fmt.Sprintf("no %s found at %s", schema.Name, route)
		}
		return cmd.PrepareExecutionErrorWithHelper(helper, msg, err, "route", route.String())
	}

	view, err := page(schema, ds, q)
	if err != nil {
		return cmd.PrepareExecutionErrorFromErr(helper, err)
	}
	if view.CurrentPage != q.page {
		logger.Debug("requested page out of range",
			slog.Int("requested", q.page), slog.Int("total_pages", view.TotalPages))
	}

	streams := helper.GetStreams()
	if outType == common.TEXT {
		return tableview.WritePage(streams.Out, schema, view, tableview.StaticOptions{
			Title: tableview.Breadcrumb(route),
			Width: streams.Width(0),
		})
	}

	payload, handled, err := jq.Apply(newListResult(schema, route, view), outType, settings, streams.Out)
	if err != nil {
		return cmd.PrepareExecutionErrorWithHelper(helper, "jq filter failed", err)
	}
	if handled {
		return nil
	}

	p, err := cli.Format(outType.String(), streams.Out)
	if err != nil {
		return err
	}
	defer p.Flush()
	p.Print(payload)
	return nil
}

func newListResult(schema *record.Schema, route navigator.Route, v table.View) listResult {
	result := listResult{
		Table:       schema.Name,
		Route:       route.String(),
		Filter:      v.Filter,
		Page:        v.CurrentPage,
		TotalPages:  v.TotalPages,
		Filtered:    v.Filtered,
		Total:       v.Total,
		PageNumbers: v.Buttons.Window,
		Records:     make([]map[string]any, 0, len(v.Visible)),
	}
	if result.PageNumbers == nil {
		result.PageNumbers = []int{}
	}
	if v.Sort.Active() {
		result.Sort = &sortResult{Field: v.Sort.Field, Direction: v.Sort.Direction.String()}
	}
	for _, rec := range v.Visible {
		result.Records = append(result.Records, rec.Map())
	}
	return result
}
