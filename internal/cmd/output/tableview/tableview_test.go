package tableview

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	cmdcommon "github.com/adsdrill/drillctl/internal/cmd/common"
	"github.com/adsdrill/drillctl/internal/dataset"
	"github.com/adsdrill/drillctl/internal/iostreams"
	"github.com/adsdrill/drillctl/internal/navigator"
	"github.com/adsdrill/drillctl/internal/record"
	pipeline "github.com/adsdrill/drillctl/internal/table"
)

func executeCmd(t *testing.T, model *bubbleModel, cmd tea.Cmd) *bubbleModel {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if current == nil {
			continue
		}
		msg := current()
		switch m := msg.(type) {
		case tea.BatchMsg:
			queue = append(queue, []tea.Cmd(m)...)
			continue
		case nil:
			continue
		}
		updated, next := model.Update(msg)
		bm, ok := updated.(*bubbleModel)
		require.True(t, ok)
		model = bm
		if next != nil {
			queue = append(queue, next)
		}
	}
	return model
}

// loadedMsg runs cmd without delivering anything and returns the dataset
// message it produced.
func loadedMsg(t *testing.T, cmd tea.Cmd) datasetLoadedMsg {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if current == nil {
			continue
		}
		switch m := current().(type) {
		case tea.BatchMsg:
			queue = append(queue, []tea.Cmd(m)...)
		case datasetLoadedMsg:
			return m
		}
	}
	t.Fatal("command produced no dataset message")
	return datasetLoadedMsg{}
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// press feeds keys one by one and runs every resulting command.
func press(t *testing.T, m *bubbleModel, keys ...tea.KeyMsg) *bubbleModel {
	t.Helper()
	for _, k := range keys {
		updated, cmd := m.Update(k)
		m = executeCmd(t, updated.(*bubbleModel), cmd)
	}
	return m
}

func typeText(t *testing.T, m *bubbleModel, s string) *bubbleModel {
	t.Helper()
	for _, r := range s {
		m = press(t, m, keyRunes(string(r)))
	}
	return m
}

var (
	enter = tea.KeyMsg{Type: tea.KeyEnter}
	esc   = tea.KeyMsg{Type: tea.KeyEsc}
	down  = tea.KeyMsg{Type: tea.KeyDown}
)

type testBrowser struct {
	model  *bubbleModel
	copied []string
}

func newTestBrowser(t *testing.T, route navigator.Route) *testBrowser {
	t.Helper()
	ctx := context.Background()
	loaders := dataset.NewLoaders(dataset.Embedded(), dataset.DefaultLayout)
	accounts, err := loaders.Accounts.Load(ctx, "")
	require.NoError(t, err)

	tb := &testBrowser{}
	m := newBubbleModel(ctx, accounts, Options{
		Route:     route,
		Loaders:   loaders,
		ColorMode: cmdcommon.ColorModeNever,
		Clipboard: func(s string) error {
			tb.copied = append(tb.copied, s)
			return nil
		},
	})
	tb.model = executeCmd(t, m, m.Init())
	return tb
}

func visibleIDs(m *bubbleModel) []string {
	var ids []string
	for _, rec := range m.current().ctrl.View().Visible {
		ids = append(ids, rec.ID())
	}
	return ids
}

func TestBrowserStartsOnAccounts(t *testing.T) {
	m := newTestBrowser(t, navigator.Root).model

	require.Nil(t, m.Init())
	require.Equal(t, navigator.Root, m.route)
	view := m.current().ctrl.View()
	require.Equal(t, 12, view.Total)
	require.Equal(t, 2, view.TotalPages)
	require.Equal(t, []string{"1", "2", "3", "4", "5", "6", "7", "8"}, visibleIDs(m))
	require.Len(t, m.table.Rows(), pipeline.ItemsPerPage)

	out := m.View()
	require.Contains(t, out, "Table Accounts")
	require.Contains(t, out, "[1]")
	require.Contains(t, out, "page 1 of 2 · 12 of 12 accounts")
}

func TestBrowserDrillDownKeepsParentState(t *testing.T) {
	m := newTestBrowser(t, navigator.Root).model

	m = press(t, m, down, down, enter)
	require.Equal(t, navigator.ProfilesOf("3"), m.route)
	profiles := m.current().ctrl
	require.Equal(t, pipeline.Ready, profiles.Phase())
	require.Equal(t, 9, profiles.View().Total)
	require.Contains(t, m.View(), "accounts › 3")

	m = press(t, m, enter)
	require.Equal(t, navigator.Campaigns, m.route.Level)
	require.Equal(t, "3", m.route.AccountID)

	m = press(t, m, esc)
	require.Equal(t, navigator.ProfilesOf("3"), m.route)
	require.Equal(t, pipeline.Ready, m.current().ctrl.Phase())

	m = press(t, m, tea.KeyMsg{Type: tea.KeyBackspace})
	require.Equal(t, navigator.Root, m.route)
	require.Equal(t, 2, m.table.Cursor())
	require.Equal(t, 1, m.current().ctrl.View().CurrentPage)

	// the root has no parent
	m = press(t, m, esc)
	require.Equal(t, navigator.Root, m.route)
}

func TestBrowserStartsAtDeepRoute(t *testing.T) {
	m := newTestBrowser(t, navigator.CampaignsOf("1", "p1")).model

	require.Equal(t, pipeline.Ready, m.levels[navigator.Profiles].ctrl.Phase())
	require.Equal(t, "1", m.levels[navigator.Profiles].ctrl.Key())
	campaigns := m.current().ctrl
	require.Equal(t, pipeline.Ready, campaigns.Phase())
	require.Equal(t, 20, campaigns.View().Total)
	require.Equal(t, 3, campaigns.View().TotalPages)

	m = press(t, m, esc)
	require.Equal(t, navigator.ProfilesOf("1"), m.route)
}

func TestBrowserPagingKeys(t *testing.T) {
	m := newTestBrowser(t, navigator.CampaignsOf("1", "p1")).model
	page := func() int { return m.current().ctrl.View().CurrentPage }

	m = press(t, m, keyRunes("G"))
	require.Equal(t, 3, page())
	require.True(t, m.current().ctrl.View().Buttons.NextDisabled)
	require.Len(t, m.table.Rows(), 4)

	m = press(t, m, keyRunes("n"))
	require.Equal(t, 3, page())

	m = press(t, m, keyRunes("["))
	require.Equal(t, 2, page())
	require.Equal(t, "cmp-1-09", visibleIDs(m)[0])

	m = press(t, m, keyRunes("]"))
	require.Equal(t, 3, page())

	m = press(t, m, keyRunes("g"))
	require.Equal(t, 1, page())

	m = press(t, m, keyRunes("p"))
	require.Equal(t, 1, page())
}

func TestBrowserFilterResetsPage(t *testing.T) {
	m := newTestBrowser(t, navigator.CampaignsOf("1", "p1")).model

	m = press(t, m, keyRunes("n"))
	require.Equal(t, 2, m.current().ctrl.View().CurrentPage)

	m = press(t, m, keyRunes("/"))
	require.True(t, m.filter.Focused())
	m = typeText(t, m, "cmp-1-1")

	view := m.current().ctrl.View()
	require.Equal(t, "cmp-1-1", view.Filter)
	require.Equal(t, 10, view.Filtered)
	require.Equal(t, 1, view.CurrentPage)
	require.Equal(t, 2, view.TotalPages)

	// keys go to the input while it is focused
	require.Equal(t, navigator.Campaigns, m.route.Level)

	m = press(t, m, enter)
	require.False(t, m.filter.Focused())
	require.Contains(t, m.View(), `20 campaigns matching "cmp-1-1"`)

	m = press(t, m, keyRunes("/"))
	m = typeText(t, m, "zzz")
	m = press(t, m, esc)
	require.True(t, m.current().ctrl.View().Empty())
	require.Contains(t, m.View(), `No campaigns match "cmp-1-1zzz".`)
}

func TestBrowserSortKeys(t *testing.T) {
	m := newTestBrowser(t, navigator.CampaignsOf("1", "p1")).model

	m = press(t, m, keyRunes("2"))
	require.Equal(t, pipeline.SortState{Field: "clicks", Direction: pipeline.Ascending}, m.current().ctrl.State().Sort)
	visible := m.current().ctrl.View().Visible
	for i := 1; i < len(visible); i++ {
		require.LessOrEqual(t, visible[i-1].Value("clicks").(int64), visible[i].Value("clicks").(int64))
	}

	m = press(t, m, keyRunes("2"))
	require.Equal(t, pipeline.Descending, m.current().ctrl.State().Sort.Direction)
	require.Contains(t, m.View(), "clicks ▼")

	m = press(t, m, keyRunes("9"))
	require.Equal(t, "There is no column 9", m.status)

	m = press(t, m, keyRunes("l"), keyRunes("s"))
	require.Equal(t, pipeline.SortState{Field: "cost", Direction: pipeline.Ascending}, m.current().ctrl.State().Sort)

	m = press(t, m, keyRunes("h"), keyRunes("h"), keyRunes("h"), keyRunes("s"))
	require.Equal(t, "campaignId", m.current().ctrl.State().Sort.Field)
}

func TestBrowserFailedLoad(t *testing.T) {
	m := newTestBrowser(t, navigator.Root).model

	m = press(t, m, keyRunes("n"), enter)
	require.Equal(t, navigator.ProfilesOf("9"), m.route)
	ctrl := m.current().ctrl
	require.Equal(t, pipeline.Failed, ctrl.Phase())
	require.ErrorIs(t, ctrl.Err(), dataset.ErrNotFound)

	out := m.View()
	require.Contains(t, out, "Unable to load profiles of account 9")
	require.Contains(t, out, "Press esc to go back")

	// nothing to open or page on a failed level
	m = press(t, m, enter, keyRunes("n"))
	require.Equal(t, navigator.ProfilesOf("9"), m.route)

	m = press(t, m, esc)
	require.Equal(t, navigator.Root, m.route)
	require.Equal(t, 2, m.current().ctrl.View().CurrentPage)
}

func TestBrowserDiscardsStaleLoads(t *testing.T) {
	m := newTestBrowser(t, navigator.Root).model

	updated, first := m.Update(enter)
	m = updated.(*bubbleModel)
	require.Equal(t, navigator.ProfilesOf("1"), m.route)
	require.Contains(t, m.View(), "Loading profiles of account 1")

	m = press(t, m, esc, down)
	updated, second := m.Update(enter)
	m = updated.(*bubbleModel)
	require.Equal(t, navigator.ProfilesOf("2"), m.route)

	late := loadedMsg(t, first)
	require.Equal(t, "1", late.ticket.Key)
	updated, _ = m.Update(late)
	m = updated.(*bubbleModel)
	require.Equal(t, pipeline.Loading, m.current().ctrl.Phase())
	require.Equal(t, "2", m.current().ctrl.Key())

	m = executeCmd(t, m, second)
	require.Equal(t, pipeline.Ready, m.current().ctrl.Phase())
	require.Equal(t, 3, m.current().ctrl.View().Total)
}

func TestBrowserReopenSameKeyDiscardsEarlierTicket(t *testing.T) {
	m := newTestBrowser(t, navigator.Root).model

	updated, first := m.Update(enter)
	m = press(t, updated.(*bubbleModel), esc)
	updated, second := m.Update(enter)
	m = updated.(*bubbleModel)

	updated, _ = m.Update(loadedMsg(t, first))
	m = updated.(*bubbleModel)
	require.Equal(t, pipeline.Loading, m.current().ctrl.Phase())

	m = executeCmd(t, m, second)
	require.Equal(t, pipeline.Ready, m.current().ctrl.Phase())
}

func TestBrowserReload(t *testing.T) {
	tb := newTestBrowser(t, navigator.Root)
	m := press(t, tb.model, keyRunes("/"))
	m = typeText(t, m, "olivia")
	m = press(t, m, enter, keyRunes("r"))

	require.Equal(t, "olivia", m.current().ctrl.State().Filter)
	require.Equal(t, 1, m.current().ctrl.View().Filtered)
	require.Contains(t, m.status, "accounts reloaded")

	m = press(t, m, enter)
	require.Equal(t, navigator.ProfilesOf("1"), m.route)
	m = press(t, m, keyRunes("2"))
	require.True(t, m.current().ctrl.State().Sort.Active())

	// reloading a child level starts over from a fresh state
	m = press(t, m, keyRunes("r"))
	require.Equal(t, pipeline.Ready, m.current().ctrl.Phase())
	require.False(t, m.current().ctrl.State().Sort.Active())
}

func TestBrowserKeepsLatestAccountsReload(t *testing.T) {
	m := newTestBrowser(t, navigator.Root).model
	account := func(id string) record.Record {
		return record.Accounts.MustRecord(map[string]any{
			"id":           id,
			"email":        id + "@example.com",
			"authToken":    "token-" + id,
			"creationDate": "2023-01-01",
		})
	}

	updated, older := m.Update(keyRunes("r"))
	m = updated.(*bubbleModel)
	updated, newer := m.Update(keyRunes("r"))
	m = updated.(*bubbleModel)
	require.NotNil(t, older)
	require.NotNil(t, newer)

	updated, _ = m.Update(accountsReloadedMsg{
		seq:     m.reloadSeq,
		outcome: dataset.Outcome{Dataset: record.Dataset{account("a1"), account("a2")}},
	})
	m = updated.(*bubbleModel)
	updated, _ = m.Update(accountsReloadedMsg{
		seq:     m.reloadSeq - 1,
		outcome: dataset.Outcome{Dataset: record.Dataset{account("a1")}},
	})
	m = updated.(*bubbleModel)

	require.Equal(t, 2, m.current().ctrl.View().Total)
	require.Equal(t, []string{"a1", "a2"}, visibleIDs(m))
}

func TestBrowserCopySelectedID(t *testing.T) {
	tb := newTestBrowser(t, navigator.ProfilesOf("1"))
	m := press(t, tb.model, down, keyRunes("y"))
	require.Equal(t, []string{"p2"}, tb.copied)
	require.Equal(t, "Copied p2", m.status)

	m.copy = func(string) error { return errors.New("no clipboard") }
	m = press(t, m, keyRunes("y"))
	require.Equal(t, "Unable to copy p2: no clipboard", m.status)
}

func TestBrowserHelpPanel(t *testing.T) {
	m := newTestBrowser(t, navigator.Root).model

	m = press(t, m, keyRunes("?"))
	require.True(t, m.showHelp)
	out := m.View()
	require.Contains(t, out, "open the selected row")

	// paging keys are ignored while the panel is open
	m = press(t, m, keyRunes("n"))
	require.Equal(t, 1, m.current().ctrl.View().CurrentPage)

	m = press(t, m, keyRunes("?"))
	require.False(t, m.showHelp)
}

func TestBrowserQuit(t *testing.T) {
	m := newTestBrowser(t, navigator.Root).model
	_, cmd := m.Update(keyRunes("q"))
	require.NotNil(t, cmd)
	require.IsType(t, tea.QuitMsg{}, cmd())
}

func TestBrowserWindowResize(t *testing.T) {
	m := newTestBrowser(t, navigator.Root).model
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 60, Height: 30})
	m = updated.(*bubbleModel)

	total := 0
	for _, c := range m.table.Columns() {
		total += c.Width
	}
	require.LessOrEqual(t, total, 60)
}

func TestBrowseStaticOutput(t *testing.T) {
	streams, _, out, _ := iostreams.NewTestIOStreams()
	loaders := dataset.NewLoaders(dataset.Embedded(), dataset.DefaultLayout)

	err := Browse(context.Background(), streams, Options{
		Route:   navigator.CampaignsOf("1", "p1"),
		Loaders: loaders,
	})
	require.NoError(t, err)

	output := out.String()
	require.Contains(t, output, "accounts › 1 › p1")
	require.Contains(t, output, "campaignId")
	require.Contains(t, output, "cmp-1-08")
	require.NotContains(t, output, "cmp-1-09")
	require.Contains(t, output, "‹ prev [1] 2 3 next ›")
	require.Contains(t, output, "page 1 of 3 · 20 of 20 campaigns")
}

func TestBrowseMissingKey(t *testing.T) {
	streams, _, _, _ := iostreams.NewTestIOStreams()
	loaders := dataset.NewLoaders(dataset.Embedded(), dataset.DefaultLayout)

	err := Browse(context.Background(), streams, Options{
		Route:   navigator.ProfilesOf("404"),
		Loaders: loaders,
	})
	require.ErrorIs(t, err, dataset.ErrNotFound)

	require.Error(t, Browse(context.Background(), streams, Options{}))
}
