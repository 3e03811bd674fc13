package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ytclone/catalog"
	"ytclone/config"
)

func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	err = rootCmd.Execute()
	return out.String(), errOut.String(), err
}

// writeConfig saves a config with no simulated latency and memory storage.
func writeConfig(t *testing.T) string {
	t.Helper()
	cfg := config.Default()
	cfg.Feed.Latency = 0
	cfg.Storage.Path = ""
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, config.Save(cfg, path))
	return path
}

func TestParseFeedArgs(t *testing.T) {
	tests := []struct {
		args      []string
		wantName  string
		wantQuery string
		wantErr   string
	}{
		{nil, catalog.FeedHome, "", ""},
		{[]string{"home"}, catalog.FeedHome, "", ""},
		{[]string{"search", "go"}, catalog.FeedSearch, "go", ""},
		{[]string{"related", "abc"}, catalog.FeedRelated, "abc", ""},
		{[]string{"home", "x"}, "", "", "takes no query"},
		{[]string{"search"}, "", "", "missing search query"},
		{[]string{"trending"}, "", "", "unknown feed"},
	}
	for _, tt := range tests {
		name, query, err := parseFeedArgs(tt.args)
		if tt.wantErr != "" {
			assert.ErrorContains(t, err, tt.wantErr, "args %v", tt.args)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.wantName, name)
		assert.Equal(t, tt.wantQuery, query)
	}
}

func TestFeedSelection(t *testing.T) {
	name, query, title := feedSelection("", "")
	assert.Equal(t, catalog.FeedHome, name)
	assert.Empty(t, query)
	assert.Equal(t, "Home", title)

	name, query, title = feedSelection("cats", "")
	assert.Equal(t, catalog.FeedSearch, name)
	assert.Equal(t, "cats", query)
	assert.Equal(t, "Search: cats", title)

	name, query, _ = feedSelection("", "v1")
	assert.Equal(t, catalog.FeedRelated, name)
	assert.Equal(t, "v1", query)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
}

func TestVersionCommand(t *testing.T) {
	out, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "ytclone dev (commit: none, built: unknown)\n", out)
}

func TestConfigInitAndShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	out, _, err := execute(t, "config", "init", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)

	_, _, err = execute(t, "config", "init", "--config", path)
	assert.ErrorContains(t, err, "already exists")

	out, _, err = execute(t, "config", "show", "--config", path, "--output", "json")
	require.NoError(t, err)
	var shown config.Config
	require.NoError(t, json.Unmarshal([]byte(out), &shown))
	assert.Equal(t, config.Default().Server.Addr, shown.Server.Addr)
	assert.Equal(t, config.Default().Feed.InitialSize, shown.Feed.InitialSize)

	out, _, err = execute(t, "config", "show", "--config", path, "--output", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "initial_size: 40")

	_, _, err = execute(t, "config", "show", "--config", path, "--output", "toml")
	assert.ErrorContains(t, err, "unknown output format")
	showOutput = "yaml"
}

func TestInvalidLogLevel(t *testing.T) {
	path := writeConfig(t)
	_, _, err := execute(t, "config", "show", "--config", path, "--log-level", "loud")
	assert.ErrorContains(t, err, "--log-level")
	logLevel = ""
}

func TestFeedCommandPrintsPages(t *testing.T) {
	path := writeConfig(t)

	out, errOut, err := execute(t, "feed", "home", "--pages", "2", "--config", path)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(out, "VIDEO ID"), "one table per page")
	assert.Contains(t, errOut, "Total: 60 videos")
	assert.NotContains(t, errOut, "end of feed")
}

func TestFeedCommandReadsToTheEnd(t *testing.T) {
	path := writeConfig(t)

	out, errOut, err := execute(t, "feed", "related", "abc", "--pages", "0", "--json", "--config", path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 1, "related lists fit in the first page")

	var page struct {
		Items []catalog.Video `json:"items"`
	}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &page))
	assert.Len(t, page.Items, catalog.DefaultRelatedCount)
	assert.Contains(t, errOut, "(end of feed)")
	feedJSON = false
}
