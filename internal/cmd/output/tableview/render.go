package tableview

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	prettytable "github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-runewidth"

	"github.com/adsdrill/drillctl/internal/record"
	pipeline "github.com/adsdrill/drillctl/internal/table"
)

const (
	minColumnWidth = 6
	maxColumnWidth = 40
	ellipsis       = "…"
)

// pagerStyles decorates the parts of the pager line. The zero value renders
// plain text.
type pagerStyles struct {
	button   lipgloss.Style
	current  lipgloss.Style
	disabled lipgloss.Style
}

// renderPager draws the page controls: prev, an optional first page and
// ellipsis, the window with the current page bracketed, an optional ellipsis
// and last page, then next.
func renderPager(b pipeline.Buttons, st pagerStyles) string {
	if b.TotalPages == 0 {
		return st.disabled.Render("‹ prev") + "  " + st.disabled.Render("next ›")
	}

	parts := make([]string, 0, len(b.Window)+6)
	prev := "‹ prev"
	if b.PrevDisabled {
		parts = append(parts, st.disabled.Render(prev))
	} else {
		parts = append(parts, st.button.Render(prev))
	}
	if b.ShowFirst {
		parts = append(parts, st.button.Render("1"))
	}
	if b.LeadingEllipsis {
		parts = append(parts, st.disabled.Render(ellipsis))
	}
	for _, p := range b.Window {
		if p == b.CurrentPage {
			parts = append(parts, st.current.Render(fmt.Sprintf("[%d]", p)))
			continue
		}
		parts = append(parts, st.button.Render(fmt.Sprint(p)))
	}
	if b.TrailingEllipsis {
		parts = append(parts, st.disabled.Render(ellipsis))
	}
	if b.ShowLast {
		parts = append(parts, st.button.Render(fmt.Sprint(b.TotalPages)))
	}
	next := "next ›"
	if b.NextDisabled {
		parts = append(parts, st.disabled.Render(next))
	} else {
		parts = append(parts, st.button.Render(next))
	}
	return strings.Join(parts, " ")
}

// PagerLine renders the page controls of v without styling.
func PagerLine(v pipeline.View) string {
	return renderPager(v.Buttons, pagerStyles{})
}

// Summary describes the position of v, e.g. "page 2 of 3 · 20 of 20 campaigns".
func Summary(schema *record.Schema, v pipeline.View) string {
	var b strings.Builder
	if v.TotalPages == 0 {
		b.WriteString("no pages")
	} else {
		fmt.Fprintf(&b, "page %d of %d", v.CurrentPage, v.TotalPages)
	}
	fmt.Fprintf(&b, " · %d of %d %s", v.Filtered, v.Total, schema.Name)
	if v.Filter != "" {
		fmt.Fprintf(&b, " matching %q", v.Filter)
	}
	if v.Sort.Active() {
		fmt.Fprintf(&b, " · sorted by %s %s", v.Sort.Field, v.Sort.Direction)
	}
	return b.String()
}

// headerTitle appends the sort arrow to the active column.
func headerTitle(field string, s pipeline.SortState) string {
	if s.Field != field {
		return field
	}
	switch s.Direction {
	case pipeline.Ascending:
		return field + " ▲"
	case pipeline.Descending:
		return field + " ▼"
	default:
		return field
	}
}

func rowCells(ds record.Dataset) [][]string {
	rows := make([][]string, len(ds))
	for i, rec := range ds {
		rows[i] = rec.Strings()
	}
	return rows
}

// calculateColumnWidths sizes every column to its widest cell within
// [minColumnWidth, maxColumnWidth] and then shrinks the widest columns until
// the total fits widthLimit or every column is at its minimum.
func calculateColumnWidths(headers []string, rows [][]string, widthLimit int) ([]int, []int) {
	widths := make([]int, len(headers))
	minWidths := make([]int, len(headers))
	for i, header := range headers {
		headerWidth := runewidth.StringWidth(header)
		minWidth := clamp(headerWidth, minColumnWidth, maxColumnWidth)
		minWidths[i] = minWidth

		widest := headerWidth
		for _, row := range rows {
			if i < len(row) {
				widest = max(widest, runewidth.StringWidth(row[i]))
			}
		}
		widths[i] = max(clamp(widest, minColumnWidth, maxColumnWidth), minWidth)
	}

	if widthLimit <= 0 {
		return widths, minWidths
	}

	total := sum(widths)
	for total > widthLimit {
		idx := widestColumnAboveMin(widths, minWidths)
		if idx == -1 {
			break
		}
		widths[idx]--
		total--
	}
	return widths, minWidths
}

func sum(values []int) int {
	total := 0
	for _, v := range values {
		total += v
	}
	return total
}

func widestColumnAboveMin(widths, minWidths []int) int {
	idx := -1
	widest := math.MinInt
	for i, width := range widths {
		if width > widest && width > minWidths[i] {
			widest = width
			idx = i
		}
	}
	return idx
}

func clamp(val, minVal, maxVal int) int {
	return min(max(val, minVal), maxVal)
}

// truncate cuts s to width terminal cells, marking the cut with an ellipsis.
func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if ansi.StringWidth(s) <= width {
		return s
	}
	return ansi.Truncate(s, width, ellipsis)
}

// StaticOptions tunes WritePage.
type StaticOptions struct {
	Title string
	// Width limits the table width; 0 leaves it unbounded.
	Width int
}

// WritePage prints the visible page of v as a table followed by the pager line
// and a summary. It is used whenever output is not a terminal.
func WritePage(out io.Writer, schema *record.Schema, v pipeline.View, opts StaticOptions) error {
	var sections []string
	if opts.Title != "" {
		sections = append(sections, opts.Title)
	}

	if v.Empty() {
		msg := fmt.Sprintf("No %s to display.", schema.Name)
		if v.Filter != "" {
			msg = fmt.Sprintf("No %s match %q.", schema.Name, v.Filter)
		}
		sections = append(sections, msg)
	} else {
		sections = append(sections, renderPrettyTable(schema, v, opts.Width))
	}

	sections = append(sections, PagerLine(v), Summary(schema, v))
	_, err := fmt.Fprintln(out, strings.Join(sections, "\n"))
	return err
}

func renderPrettyTable(schema *record.Schema, v pipeline.View, widthLimit int) string {
	headers := make([]string, len(schema.Fields))
	header := make(prettytable.Row, len(schema.Fields))
	configs := make([]prettytable.ColumnConfig, 0, len(schema.Fields))
	for i, f := range schema.Fields {
		headers[i] = headerTitle(f.Name, v.Sort)
		header[i] = headers[i]
		cfg := prettytable.ColumnConfig{Number: i + 1}
		if f.Kind.Numeric() {
			cfg.Align = text.AlignRight
		}
		configs = append(configs, cfg)
	}

	rows := rowCells(v.Visible)
	if widthLimit > 0 {
		// each column costs 3 cells of padding and separator, plus the outer border
		widths, _ := calculateColumnWidths(headers, rows, widthLimit-3*len(headers)-1)
		for i := range configs {
			configs[i].WidthMax = widths[i]
			configs[i].WidthMaxEnforcer = func(col string, maxLen int) string {
				return truncate(col, maxLen)
			}
		}
	}

	tw := prettytable.NewWriter()
	tw.SetStyle(prettytable.StyleLight)
	tw.Style().Format.Header = text.FormatDefault
	tw.AppendHeader(header)
	for _, row := range rows {
		cells := make(prettytable.Row, len(row))
		for i, c := range row {
			cells[i] = c
		}
		tw.AppendRow(cells)
	}
	tw.SetColumnConfigs(configs)
	return tw.Render()
}
