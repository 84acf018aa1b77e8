// Package tableview renders the accounts > profiles > campaigns tables, either
// as an interactive Bubble Tea browser or as a static page when the output is
// not a terminal.
package tableview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	cmdcommon "github.com/adsdrill/drillctl/internal/cmd/common"
	"github.com/adsdrill/drillctl/internal/dataset"
	"github.com/adsdrill/drillctl/internal/iostreams"
	"github.com/adsdrill/drillctl/internal/log"
	"github.com/adsdrill/drillctl/internal/navigator"
	"github.com/adsdrill/drillctl/internal/record"
	pipeline "github.com/adsdrill/drillctl/internal/table"
	"github.com/adsdrill/drillctl/internal/theme"
)

// Options configures Browse.
type Options struct {
	Route     navigator.Route
	Loaders   dataset.Loaders
	Palette   *theme.Palette
	ColorMode cmdcommon.ColorMode
	// Clipboard receives copied ids. Defaults to the system clipboard.
	Clipboard func(string) error
}

type datasetLoadedMsg struct {
	level   navigator.Level
	ticket  pipeline.Ticket
	outcome dataset.Outcome
	elapsed time.Duration
}

type accountsReloadedMsg struct {
	seq     uint64
	outcome dataset.Outcome
	elapsed time.Duration
}

// levelState is what a hierarchy level keeps while the user is deeper down.
type levelState struct {
	route   navigator.Route
	ctrl    *pipeline.Controller
	cursor  int
	sortCol int
}

type bubbleModel struct {
	ctx       context.Context
	loaders   dataset.Loaders
	levels    [3]*levelState
	route     navigator.Route
	table     table.Model
	filter    textinput.Model
	spinner   spinner.Model
	help      help.Model
	keys      keyMap
	palette   theme.Palette
	styles    styles
	colorMode cmdcommon.ColorMode
	showHelp  bool
	status    string
	width     int
	height    int
	copy      func(string) error
	initCmd   tea.Cmd

	// reloadSeq numbers top level reloads; only the latest one is applied.
	reloadSeq uint64
}

type styles struct {
	box          lipgloss.Style
	title        lipgloss.Style
	crumb        lipgloss.Style
	crumbCurrent lipgloss.Style
	muted        lipgloss.Style
	danger       lipgloss.Style
	prompt       lipgloss.Style
	pager        pagerStyles
	table        table.Styles
}

func newStyles(p theme.Palette) styles {
	ts := table.DefaultStyles()
	ts.Header = ts.Header.
		Foreground(p.Adaptive(theme.ColorTextPrimary)).
		BorderForeground(p.Adaptive(theme.ColorBorder)).
		Bold(true)
	ts.Cell = ts.Cell.Foreground(p.Adaptive(theme.ColorTextPrimary))
	ts.Selected = ts.Selected.
		Foreground(p.Adaptive(theme.ColorPrimaryText)).
		Background(p.Adaptive(theme.ColorPrimary))

	muted := p.ForegroundStyle(theme.ColorTextMuted)
	return styles{
		box:          newTableBoxStyle(p),
		title:        p.ForegroundStyle(theme.ColorTextPrimary).Bold(true),
		crumb:        muted,
		crumbCurrent: p.ForegroundStyle(theme.ColorAccent).Bold(true),
		muted:        muted,
		danger:       p.ForegroundStyle(theme.ColorDanger).Bold(true),
		prompt:       p.ForegroundStyle(theme.ColorAccent),
		pager: pagerStyles{
			button:   p.ForegroundStyle(theme.ColorTextSecondary),
			current:  p.ForegroundStyle(theme.ColorPrimary).Bold(true),
			disabled: p.ForegroundStyle(theme.ColorTextMuted).Faint(true),
		},
		table: ts,
	}
}

func newTableBoxStyle(p theme.Palette) lipgloss.Style {
	return lipgloss.NewStyle().BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(p.Adaptive(theme.ColorBorder)).
		Padding(0, 1)
}

func newSpinnerModel(p theme.Palette) spinner.Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = p.ForegroundStyle(theme.ColorAccent)
	return s
}

func formatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	seconds := int(d.Round(time.Second).Seconds())
	if seconds < 1 {
		fraction := d.Round(100 * time.Millisecond)
		return fmt.Sprintf("%.1fs", float64(fraction)/float64(time.Second))
	}
	if seconds < 60 {
		return fmt.Sprintf("%ds", seconds)
	}
	minutes, remainder := seconds/60, seconds%60
	if remainder == 0 {
		return fmt.Sprintf("%dmin", minutes)
	}
	return fmt.Sprintf("%dmin %ds", minutes, remainder)
}

// Browse loads the accounts and runs the browser at opts.Route. When streams
// are not attached to a terminal the page for the route is printed instead.
func Browse(ctx context.Context, streams *iostreams.IOStreams, opts Options) error {
	if streams == nil || streams.Out == nil {
		return errors.New("tableview: output stream is not available")
	}
	if opts.Loaders.Accounts == nil || opts.Loaders.Profiles == nil || opts.Loaders.Campaigns == nil {
		return errors.New("tableview: loaders are not configured")
	}

	accounts, err := opts.Loaders.Accounts.Load(ctx, "")
	if err != nil {
		return err
	}

	if !streams.IsInteractive() {
		return writeStatic(ctx, streams, accounts, opts)
	}

	m := newBubbleModel(ctx, accounts, opts)
	log.DisableErrorMirroring()
	defer log.EnableErrorMirroring()

	program := tea.NewProgram(m,
		tea.WithContext(ctx),
		tea.WithInput(streams.In),
		tea.WithOutput(streams.Out),
		tea.WithAltScreen(),
	)
	_, err = program.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func writeStatic(ctx context.Context, streams *iostreams.IOStreams, accounts record.Dataset, opts Options) error {
	route := opts.Route
	schema := SchemaFor(route.Level)
	ds := accounts
	if route.Level != navigator.Accounts {
		var err error
		ds, err = LoaderFor(opts.Loaders, route.Level).Load(ctx, route.Key())
		if err != nil {
			return err
		}
	}
	ctrl := pipeline.NewReadyController(schema, ds)
	return WritePage(streams.Out, schema, ctrl.View(), StaticOptions{
		Title: Breadcrumb(route),
		Width: streams.Width(0),
	})
}

// SchemaFor returns the record schema of level.
func SchemaFor(level navigator.Level) *record.Schema {
	switch level {
	case navigator.Profiles:
		return record.Profiles
	case navigator.Campaigns:
		return record.Campaigns
	default:
		return record.Accounts
	}
}

// LoaderFor picks the loader serving level.
func LoaderFor(l dataset.Loaders, level navigator.Level) dataset.Loader {
	switch level {
	case navigator.Profiles:
		return l.Profiles
	case navigator.Campaigns:
		return l.Campaigns
	default:
		return l.Accounts
	}
}

func newBubbleModel(ctx context.Context, accounts record.Dataset, opts Options) *bubbleModel {
	palette := theme.FromContext(ctx)
	if opts.Palette != nil {
		palette = *opts.Palette
	}
	copyFn := opts.Clipboard
	if copyFn == nil {
		copyFn = clipboard.WriteAll
	}

	filter := textinput.New()
	filter.Prompt = "/ "
	filter.Placeholder = "filter"
	filter.CharLimit = 120
	filter.Cursor.SetMode(cursor.CursorStatic)

	m := &bubbleModel{
		ctx:       ctx,
		loaders:   opts.Loaders,
		route:     navigator.Root,
		filter:    filter,
		spinner:   newSpinnerModel(palette),
		help:      help.New(),
		keys:      defaultKeyMap(),
		palette:   palette,
		styles:    newStyles(palette),
		colorMode: opts.ColorMode,
		copy:      copyFn,
	}
	m.levels[navigator.Accounts] = &levelState{
		route: navigator.Root,
		ctrl:  pipeline.NewReadyController(record.Accounts, accounts),
	}
	m.levels[navigator.Profiles] = &levelState{ctrl: pipeline.NewController(record.Profiles)}
	m.levels[navigator.Campaigns] = &levelState{ctrl: pipeline.NewController(record.Campaigns)}

	m.filter.PromptStyle = m.styles.prompt
	m.table = table.New(
		table.WithFocused(true),
		table.WithStyles(m.styles.table),
		table.WithKeyMap(table.KeyMap{}),
		table.WithHeight(pipeline.ItemsPerPage+1),
	)

	var cmds []tea.Cmd
	for _, r := range opts.Route.Trail()[1:] {
		cmds = append(cmds, m.observe(r))
	}
	m.route = opts.Route
	if len(cmds) > 0 {
		cmds = append(cmds, m.spinner.Tick)
		m.initCmd = tea.Batch(cmds...)
	}
	m.syncTable()
	return m
}

func (m *bubbleModel) Init() tea.Cmd {
	return m.initCmd
}

func (m *bubbleModel) current() *levelState {
	return m.levels[m.route.Level]
}

// observe points the level of r at its key and returns the command that loads
// it.
func (m *bubbleModel) observe(r navigator.Route) tea.Cmd {
	lv := m.levels[r.Level]
	lv.route = r
	lv.cursor = 0
	lv.sortCol = 0
	ticket, load := lv.ctrl.Load(m.ctx, LoaderFor(m.loaders, r.Level), r.Key())
	return func() tea.Msg {
		start := time.Now()
		outcome := load()
		return datasetLoadedMsg{
			level:   r.Level,
			ticket:  ticket,
			outcome: outcome,
			elapsed: time.Since(start),
		}
	}
}

func (m *bubbleModel) loading() bool {
	for _, lv := range m.levels {
		if lv.ctrl.Phase() == pipeline.Loading {
			return true
		}
	}
	return false
}

func (m *bubbleModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) { //nolint:ireturn
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.syncTable()
		return m, nil
	case datasetLoadedMsg:
		m.applyLoaded(msg)
		return m, nil
	case accountsReloadedMsg:
		if msg.seq != m.reloadSeq {
			log.FromContext(m.ctx).Log(m.ctx, log.LevelTrace, "discarding stale accounts reload",
				slog.Uint64("seq", msg.seq))
			return m, nil
		}
		lv := m.levels[navigator.Accounts]
		if msg.outcome.Failed() {
			m.setStatus(fmt.Sprintf("Unable to reload accounts: %v", msg.outcome.Err))
			return m, nil
		}
		lv.ctrl.Replace(msg.outcome.Dataset)
		m.setStatus(fmt.Sprintf("accounts reloaded in %s", formatElapsed(msg.elapsed)))
		if m.route.Level == navigator.Accounts {
			m.syncTable()
		}
		return m, nil
	case spinner.TickMsg:
		if !m.loading() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *bubbleModel) applyLoaded(msg datasetLoadedMsg) {
	lv := m.levels[msg.level]
	logger := log.FromContext(m.ctx).With(
		slog.String("level", msg.level.String()),
		slog.String("key", msg.ticket.Key),
		slog.String("request_id", msg.ticket.RequestID),
	)
	if !lv.ctrl.Apply(msg.ticket, msg.outcome) {
		logger.Log(m.ctx, log.LevelTrace, "discarding stale dataset")
		return
	}
	if msg.outcome.Failed() {
		m.setStatus(fmt.Sprintf("Unable to load %s", describeRoute(lv.route)))
	} else {
		m.setStatus(fmt.Sprintf("%s loaded in %s", describeRoute(lv.route), formatElapsed(msg.elapsed)))
	}
	if msg.level == m.route.Level {
		m.syncTable()
	}
}

func (m *bubbleModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.filter.Focused() {
		return m.handleFilterKey(msg)
	}

	if m.showHelp {
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help), key.Matches(msg, m.keys.Back):
			m.showHelp = false
		}
		return m, nil
	}

	lv := m.current()
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
	case key.Matches(msg, m.keys.Back):
		m.back()
	case key.Matches(msg, m.keys.Open):
		return m, m.open()
	case key.Matches(msg, m.keys.Reload):
		return m, m.reload()
	case key.Matches(msg, m.keys.Filter):
		if lv.ctrl.Phase() != pipeline.Ready {
			return m, nil
		}
		m.filter.SetValue(lv.ctrl.State().Filter)
		m.filter.CursorEnd()
		return m, m.filter.Focus()
	case key.Matches(msg, m.keys.SortBy):
		if len(msg.Runes) == 1 {
			m.sortBy(int(msg.Runes[0] - '1'))
		}
	case key.Matches(msg, m.keys.SortLeft):
		lv.sortCol = max(lv.sortCol-1, 0)
		m.syncTable()
	case key.Matches(msg, m.keys.SortRight):
		lv.sortCol = min(lv.sortCol+1, len(lv.ctrl.Schema().Fields)-1)
		m.syncTable()
	case key.Matches(msg, m.keys.Sort):
		m.sortBy(lv.sortCol)
	case key.Matches(msg, m.keys.NextPage):
		m.page(lv.ctrl.NextPage)
	case key.Matches(msg, m.keys.PrevPage):
		m.page(lv.ctrl.PrevPage)
	case key.Matches(msg, m.keys.FirstPage):
		m.page(lv.ctrl.FirstPage)
	case key.Matches(msg, m.keys.LastPage):
		m.page(lv.ctrl.LastPage)
	case key.Matches(msg, m.keys.Up):
		m.table.MoveUp(1)
		lv.cursor = m.table.Cursor()
	case key.Matches(msg, m.keys.Down):
		m.table.MoveDown(1)
		lv.cursor = m.table.Cursor()
	case key.Matches(msg, m.keys.Copy):
		m.copySelected()
	}
	return m, nil
}

func (m *bubbleModel) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyEsc, tea.KeyEnter:
		m.filter.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	lv := m.current()
	if query := m.filter.Value(); query != lv.ctrl.State().Filter {
		if err := lv.ctrl.SetFilter(query); err != nil {
			m.setStatus(err.Error())
		}
		lv.cursor = 0
		m.syncTable()
	}
	return m, cmd
}

func (m *bubbleModel) sortBy(col int) {
	lv := m.current()
	if lv.ctrl.Phase() != pipeline.Ready {
		return
	}
	field, ok := lv.ctrl.Schema().FieldByIndex(col)
	if !ok {
		m.setStatus(fmt.Sprintf("There is no column %d", col+1))
		return
	}
	if !field.Sortable {
		m.setStatus(fmt.Sprintf("%s cannot be sorted", field.Name))
		return
	}
	lv.sortCol = col
	if err := lv.ctrl.RequestSort(field.Name); err != nil {
		m.setStatus(err.Error())
		return
	}
	m.clearStatus()
	m.syncTable()
}

func (m *bubbleModel) page(step func() error) {
	if err := step(); err != nil {
		m.setStatus(err.Error())
		return
	}
	m.syncTable()
}

func (m *bubbleModel) open() tea.Cmd {
	lv := m.current()
	rec, ok := lv.ctrl.Row(m.table.Cursor())
	if !ok {
		return nil
	}
	child, ok := m.route.Child(rec.ID())
	if !ok {
		m.setStatus(fmt.Sprintf("%s have nothing to open", lv.ctrl.Schema().Name))
		return nil
	}
	lv.cursor = m.table.Cursor()
	m.route = child
	m.clearStatus()
	cmd := m.observe(child)
	m.syncTable()
	return tea.Batch(cmd, m.spinner.Tick)
}

// back returns to the parent level, whose state was kept untouched.
func (m *bubbleModel) back() {
	if m.route.Level == navigator.Accounts {
		return
	}
	m.route = m.route.Parent()
	m.clearStatus()
	m.syncTable()
}

func (m *bubbleModel) reload() tea.Cmd {
	if m.route.Level == navigator.Accounts {
		loader := m.loaders.Accounts
		ctx := m.ctx
		m.reloadSeq++
		seq := m.reloadSeq
		return func() tea.Msg {
			start := time.Now()
			ds, err := loader.Load(ctx, "")
			return accountsReloadedMsg{
				seq:     seq,
				outcome: dataset.Outcome{Dataset: ds, Err: err},
				elapsed: time.Since(start),
			}
		}
	}
	cmd := m.observe(m.route)
	m.syncTable()
	return tea.Batch(cmd, m.spinner.Tick)
}

func (m *bubbleModel) copySelected() {
	rec, ok := m.current().ctrl.Row(m.table.Cursor())
	if !ok {
		return
	}
	id := rec.ID()
	if err := m.copy(id); err != nil {
		m.setStatus(fmt.Sprintf("Unable to copy %s: %v", id, err))
		return
	}
	m.setStatus(fmt.Sprintf("Copied %s", id))
}

func (m *bubbleModel) setStatus(msg string) {
	m.status = strings.TrimSpace(msg)
}

func (m *bubbleModel) clearStatus() {
	m.status = ""
}

// syncTable rebuilds the table component from the current level's view.
func (m *bubbleModel) syncTable() {
	lv := m.current()
	schema := lv.ctrl.Schema()
	view := lv.ctrl.View()

	headers := make([]string, len(schema.Fields))
	for i, f := range schema.Fields {
		title := headerTitle(f.Name, view.Sort)
		if i == lv.sortCol {
			title = "›" + title
		}
		headers[i] = title
	}
	cells := rowCells(view.Visible)

	limit := 0
	if m.width > 0 {
		frame, _ := m.styles.box.GetFrameSize()
		padding := m.styles.table.Cell.GetHorizontalPadding()
		limit = max(m.width-frame-padding*len(headers), len(headers)*minColumnWidth)
	}
	widths, _ := calculateColumnWidths(headers, cells, limit)

	columns := make([]table.Column, len(headers))
	for i, h := range headers {
		columns[i] = table.Column{Title: truncate(h, widths[i]), Width: widths[i]}
	}
	rows := make([]table.Row, len(cells))
	for i, row := range cells {
		r := make(table.Row, len(row))
		for j, c := range row {
			r[j] = truncate(c, widths[j])
		}
		rows[i] = r
	}

	// rows must never have fewer cells than there are columns
	m.table.SetRows(nil)
	m.table.SetColumns(columns)
	m.table.SetRows(rows)
	m.table.SetCursor(clamp(lv.cursor, 0, max(len(rows)-1, 0)))
	lv.cursor = m.table.Cursor()
}

func (m *bubbleModel) View() string {
	lv := m.current()
	sections := []string{m.renderBreadcrumb()}

	width := m.width
	if width <= 0 {
		width = 80
	}

	switch {
	case m.showHelp:
		style := "notty"
		if m.colorMode != cmdcommon.ColorModeNever {
			style = "light"
			if lipgloss.HasDarkBackground() {
				style = "dark"
			}
		}
		sections = append(sections, renderHelp(style, width, pipeline.ItemsPerPage))
	case lv.ctrl.Phase() == pipeline.Loading:
		sections = append(sections, fmt.Sprintf("%s Loading %s...", m.spinner.View(), describeRoute(lv.route)))
	case lv.ctrl.Phase() == pipeline.Failed:
		sections = append(sections,
			m.styles.danger.Render(fmt.Sprintf("Unable to load %s", describeRoute(lv.route))),
			wordwrap.String(lv.ctrl.Err().Error(), max(width-2, 20)),
			m.styles.muted.Render("Press esc to go back or r to try again."),
		)
	default:
		sections = append(sections, m.renderReady(lv)...)
	}

	if m.status != "" {
		sections = append(sections, m.styles.muted.Render(m.status))
	}
	if !m.showHelp {
		sections = append(sections, m.help.View(m.keys))
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *bubbleModel) renderReady(lv *levelState) []string {
	view := lv.ctrl.View()
	schema := lv.ctrl.Schema()

	var sections []string
	if m.filter.Focused() || view.Filter != "" {
		if m.filter.Focused() {
			sections = append(sections, m.filter.View())
		} else {
			sections = append(sections, m.styles.prompt.Render("/ ")+view.Filter)
		}
	}

	if view.Empty() {
		msg := fmt.Sprintf("No %s to display.", schema.Name)
		if view.Filter != "" {
			msg = fmt.Sprintf("No %s match %q.", schema.Name, view.Filter)
		}
		sections = append(sections, m.styles.box.Render(msg))
	} else {
		sections = append(sections, m.styles.box.Render(m.table.View()))
	}

	sections = append(sections,
		renderPager(view.Buttons, m.styles.pager),
		m.styles.muted.Render(Summary(schema, view)),
	)
	return sections
}

func (m *bubbleModel) renderBreadcrumb() string {
	segments := breadcrumbSegments(m.route)
	rendered := make([]string, len(segments))
	for i, s := range segments {
		if i == len(segments)-1 {
			rendered[i] = m.styles.crumbCurrent.Render(s)
		} else {
			rendered[i] = m.styles.crumb.Render(s)
		}
	}
	title := m.styles.title.Render(m.current().ctrl.Schema().Title)
	return title + "  " + strings.Join(rendered, m.styles.crumb.Render(" › "))
}

func breadcrumbSegments(r navigator.Route) []string {
	segments := []string{navigator.Accounts.String()}
	switch r.Level {
	case navigator.Profiles:
		segments = append(segments, quoteBreadcrumbSegment(r.AccountID))
	case navigator.Campaigns:
		segments = append(segments, quoteBreadcrumbSegment(r.AccountID), quoteBreadcrumbSegment(r.ProfileID))
	}
	return segments
}

// Breadcrumb renders r as "accounts › 1 › p1".
func Breadcrumb(r navigator.Route) string {
	return strings.Join(breadcrumbSegments(r), " › ")
}

func quoteBreadcrumbSegment(segment string) string {
	trimmed := strings.TrimSpace(segment)
	if strings.ContainsAny(trimmed, " ›") || trimmed == "" {
		return fmt.Sprintf("%q", segment)
	}
	return trimmed
}

func describeRoute(r navigator.Route) string {
	switch r.Level {
	case navigator.Profiles:
		return fmt.Sprintf("profiles of account %s", r.AccountID)
	case navigator.Campaigns:
		return fmt.Sprintf("campaigns of profile %s", r.ProfileID)
	default:
		return "accounts"
	}
}
