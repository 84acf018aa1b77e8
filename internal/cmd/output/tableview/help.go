package tableview

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
)

const helpMarkdown = `# drillctl

Browse accounts, open an account to see its profiles and open a profile to
see its campaigns. Every table shows %d rows per page.

| Keys | Action |
|------|--------|
| ↑ ↓ j k | move the row cursor |
| enter | open the selected row |
| esc backspace | go back to the parent table |
| / | filter rows, esc or enter to leave the input |
| 1-9 | sort by column N, again to reverse |
| ← → | move the sort column marker, s to sort by it |
| n ] | next page |
| p [ | previous page |
| g G | first and last page |
| y | copy the selected id |
| r | reload the current table |
| ? | toggle this help |
| q | quit |

Filters match any column as a substring. Text is matched ignoring case,
numbers, amounts and dates are matched as displayed.
`

// renderHelp renders the help panel as markdown for width cells. When glamour
// fails the raw markdown is returned.
func renderHelp(style string, width, perPage int) string {
	raw := fmt.Sprintf(helpMarkdown, perPage)
	if width <= 0 {
		width = 80
	}
	if style == "" {
		style = "notty"
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return raw
	}
	out, err := renderer.Render(raw)
	if err != nil {
		return raw
	}
	return strings.TrimRight(out, "\n")
}
