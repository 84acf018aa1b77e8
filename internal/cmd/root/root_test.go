package root

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/adsdrill/drillctl/internal/cmd"
	"github.com/adsdrill/drillctl/internal/iostreams"
	"github.com/adsdrill/drillctl/internal/meta"
)

type cliResult struct {
	out    string
	errOut string
	err    error
}

// runCLI executes args against a fresh config file in a temp directory.
func runCLI(t *testing.T, config string, args ...string) cliResult {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(config), 0o600))

	streams, _, out, errOut := iostreams.NewTestIOStreams()
	bi := &meta.BuildInfo{Version: "1.2.3", Commit: "abc123", Date: "2026-01-02"}
	args = append([]string{"--config-file", path, "--color", "never"}, args...)
	err := Run(context.Background(), streams, bi, args)
	return cliResult{out: out.String(), errOut: errOut.String(), err: err}
}

func TestListAccountsText(t *testing.T) {
	res := runCLI(t, "", "list", "accounts")
	require.NoError(t, res.err)
	require.Contains(t, res.out, "accounts")
	require.Contains(t, res.out, "olivia@adsdrill.example")
	require.Contains(t, res.out, "‹ prev [1] 2 next ›")
	require.Contains(t, res.out, "page 1 of 2 · 12 of 12 accounts")
}

func TestListCampaignsSortedJSON(t *testing.T) {
	res := runCLI(t, "", "list", "campaigns", "1", "p1", "--sort", "CLICKS", "--desc", "-o", "json")
	require.NoError(t, res.err)

	var page struct {
		Table      string `json:"table"`
		Route      string `json:"route"`
		Page       int    `json:"page"`
		TotalPages int    `json:"totalPages"`
		Sort       struct {
			Field     string `json:"field"`
			Direction string `json:"direction"`
		} `json:"sort"`
		Records []map[string]any `json:"records"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.out), &page))
	require.Equal(t, "campaigns", page.Table)
	require.Equal(t, "/accounts/1/profiles/p1", page.Route)
	require.Equal(t, 1, page.Page)
	require.Equal(t, 3, page.TotalPages)
	require.Equal(t, "clicks", page.Sort.Field)
	require.Equal(t, "descending", page.Sort.Direction)
	require.Len(t, page.Records, 8)
	require.Equal(t, "cmp-1-14", page.Records[0]["campaignId"])
	require.Equal(t, "cmp-1-05", page.Records[1]["campaignId"])
}

func TestListJQFilter(t *testing.T) {
	res := runCLI(t, "", "list", "campaigns", "1", "p1", "--page", "3", "-o", "json",
		"--jq", ".records | length")
	require.NoError(t, res.err)
	require.Equal(t, "4", strings.TrimSpace(res.out))
}

func TestListPageOutOfRangeFallsBackToFirst(t *testing.T) {
	res := runCLI(t, "", "list", "campaigns", "1", "p1", "--page", "9")
	require.NoError(t, res.err)
	require.Contains(t, res.out, "cmp-1-01")
	require.Contains(t, res.out, "page 1 of 3")
}

func TestListFilterWithoutMatches(t *testing.T) {
	res := runCLI(t, "", "list", "profiles", "1", "--filter", "atlantis")
	require.NoError(t, res.err)
	require.Contains(t, res.out, `No profiles match "atlantis".`)
	require.Contains(t, res.out, "no pages · 0 of 10 profiles")
}

func TestListRejectsBadFlags(t *testing.T) {
	var cfgErr *cmd.ConfigurationError

	res := runCLI(t, "", "list", "campaigns", "1", "p1", "--sort", "budget")
	require.ErrorAs(t, res.err, &cfgErr)
	require.Contains(t, res.err.Error(), "campaigns cannot be sorted by \"budget\"")

	res = runCLI(t, "", "list", "accounts", "--desc")
	require.ErrorAs(t, res.err, &cfgErr)

	res = runCLI(t, "", "list", "accounts", "--page", "0")
	require.ErrorAs(t, res.err, &cfgErr)

	res = runCLI(t, "", "list", "accounts", "--jq", ".")
	require.ErrorAs(t, res.err, &cfgErr)
}

func TestListMissingDataset(t *testing.T) {
	res := runCLI(t, "", "list", "profiles", "404")
	var execErr *cmd.ExecutionError
	require.ErrorAs(t, res.err, &execErr)
	require.Contains(t, res.errOut, "Error: no profiles found at /accounts/404")
	require.Contains(t, res.errOut, "route: /accounts/404")
}

func TestListJSONErrorOutput(t *testing.T) {
	res := runCLI(t, "", "list", "profiles", "404", "-o", "json")
	require.Error(t, res.err)

	var body map[string]string
	require.NoError(t, json.Unmarshal([]byte(res.errOut), &body))
	require.Equal(t, "no profiles found at /accounts/404", body["error"])
}

func TestProfileSelectsConfigSection(t *testing.T) {
	config := "staging:\n  output: yaml\n"
	res := runCLI(t, config, "--profile", "staging", "version")
	require.NoError(t, res.err)
	require.Contains(t, res.out, "version: 1.2.3")
	require.NotContains(t, res.out, "commit")

	res = runCLI(t, config, "version", "--show-commit")
	require.NoError(t, res.err)
	require.Equal(t, "1.2.3 (abc123, built 2026-01-02)\n", res.out)
}

func TestCheckEmbedded(t *testing.T) {
	res := runCLI(t, "", "check", "-o", "json")
	require.NoError(t, res.err)

	var result struct {
		Source   string `json:"source"`
		Datasets []struct {
			Level  string `json:"level"`
			Key    string `json:"key"`
			Status string `json:"status"`
		} `json:"datasets"`
		Missing int `json:"missing"`
		Failed  int `json:"failed"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.out), &result))
	require.Equal(t, "embedded", result.Source)
	require.Len(t, result.Datasets, 36)
	require.Equal(t, 8, result.Missing)
	require.Equal(t, 0, result.Failed)
	require.Equal(t, "ok", result.Datasets[0].Status)

	res = runCLI(t, "", "check", "--fail-on-missing")
	var execErr *cmd.ExecutionError
	require.ErrorAs(t, res.err, &execErr)
	require.Contains(t, res.out, "36 datasets checked in embedded: 8 missing, 8 failed")
	require.Contains(t, res.errOut, "Error: 8 of 36 datasets failed to load")
}

func TestImportThenListFromSQLite(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "accounts.yaml"), []byte(`
- id: "7"
  email: zoe@example.com
  authToken: tok_7
  creationDate: "2024-01-01"
`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(src, "profiles7.json"),
		[]byte(`[{"profileId":"z1","country":"Norway","marketplace":"Amazon.no"}]`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(src, "README.md"), []byte("# notes"), 0o600))

	db := filepath.Join(t.TempDir(), "data.db")
	res := runCLI(t, "", "import", src, "--db", db)
	require.NoError(t, res.err)
	require.Contains(t, res.out, "Imported 2 datasets into sqlite:"+db)

	res = runCLI(t, "", "list", "profiles", "7", "--data-source", "sqlite:"+db)
	require.NoError(t, res.err)
	require.Contains(t, res.out, "Norway")
	require.Contains(t, res.out, "page 1 of 1 · 1 of 1 profiles")
}

func TestImportValidation(t *testing.T) {
	var cfgErr *cmd.ConfigurationError

	res := runCLI(t, "", "import", t.TempDir())
	require.ErrorAs(t, res.err, &cfgErr)

	res = runCLI(t, "", "import", filepath.Join(t.TempDir(), "missing"), "--db", "x.db")
	require.ErrorAs(t, res.err, &cfgErr)
}

func TestBrowseWithoutTerminalPrintsPage(t *testing.T) {
	res := runCLI(t, "", "browse", "/accounts/1")
	require.NoError(t, res.err)
	require.Contains(t, res.out, "accounts › 1")
	require.Contains(t, res.out, "Amazon.fr")
	require.Contains(t, res.out, "page 1 of 2 · 10 of 10 profiles")

	res = runCLI(t, "", "browse", "/nowhere")
	require.Error(t, res.err)
}

func TestUnknownOutputFormat(t *testing.T) {
	res := runCLI(t, "", "version", "-o", "xml")
	require.Error(t, res.err)
}
