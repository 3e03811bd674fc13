package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"ytclone/catalog"
	"ytclone/client"
	"ytclone/config"
	"ytclone/feed"
	"ytclone/internal/logger"
	"ytclone/loader"
	"ytclone/tui"
)

var (
	browseRemote  bool
	browseServer  string
	browseSearch  string
	browseRelated string
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Scroll a video feed in the terminal",
	Long: `Open an infinite-scroll grid of video cards. More videos load as the
last row comes into view.

Keys: j/k or arrows scroll, pgup/pgdn page, r reloads, q quits.

By default the feed is generated locally. With --remote the pages come
from a running server (client.base_url, or --server).

Examples:
  ytclone browse
  ytclone browse --search cooking
  ytclone browse --remote --server http://localhost:9090`,
	Args: cobra.NoArgs,
	RunE: runBrowse,
}

func init() {
	browseCmd.Flags().BoolVar(&browseRemote, "remote", false, "load pages from the API server")
	browseCmd.Flags().StringVar(&browseServer, "server", "", "API server URL (overrides client.base_url)")
	browseCmd.Flags().StringVar(&browseSearch, "search", "", "browse search results for this query")
	browseCmd.Flags().StringVar(&browseRelated, "related", "", "browse videos related to this video id")
	browseCmd.MarkFlagsMutuallyExclusive("search", "related")
}

func runBrowse(cmd *cobra.Command, _ []string) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("browse needs an interactive terminal; use `ytclone feed` for plain output")
	}
	cfg := appConfig

	// Log lines would tear the full-screen view; only a log file survives.
	if cfg.Logging.Output == "stdout" || cfg.Logging.Output == "stderr" {
		logger.InitWithWriter(io.Discard, cfg.Logging.Level, cfg.Logging.Format)
	}

	name, query, title := feedSelection(browseSearch, browseRelated)
	p, closeProvider, err := provider(cfg, name, query, browseRemote, browseServer)
	if err != nil {
		return err
	}
	defer closeProvider()

	m, err := tui.New(p,
		tui.WithTitle(title),
		tui.WithName(name),
		tui.WithPageSizes(cfg.Feed.InitialSize, cfg.Feed.PageSize),
		tui.WithLoaderOptions(loader.WithThreshold(cfg.Loader.Threshold)),
	)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return tui.Run(ctx, m)
}

// feedSelection maps the --search and --related flags to a feed.
func feedSelection(search, related string) (name, query, title string) {
	switch {
	case search != "":
		return catalog.FeedSearch, search, fmt.Sprintf("Search: %s", search)
	case related != "":
		return catalog.FeedRelated, related, fmt.Sprintf("Related to %s", related)
	default:
		return catalog.FeedHome, "", "Home"
	}
}

// provider returns the named feed, generated locally or fetched from a
// server. The returned func releases it.
func provider(cfg *config.Config, name, query string, remote bool, serverURL string) (feed.Provider[catalog.Video], func(), error) {
	if remote {
		c, err := newClient(cfg.Client, serverURL)
		if err != nil {
			return nil, nil, err
		}
		closeClient := func() {
			if err := c.Close(); err != nil {
				logger.Debug("client close error", logger.KeyErr, err)
			}
		}
		return client.NewRemoteFeed(c, name, query), closeClient, nil
	}

	gen := catalog.NewGenerator(cfg.Feed.Seed)
	opts := cfg.Feed.ProviderOptions()
	noop := func() {}
	switch name {
	case catalog.FeedSearch:
		return catalog.NewSearchFeed(gen, query, opts...), noop, nil
	case catalog.FeedRelated:
		return catalog.NewRelatedFeed(gen, query, catalog.DefaultRelatedCount, opts...), noop, nil
	default:
		return catalog.NewHomeFeed(gen, opts...), noop, nil
	}
}

func newClient(cfg config.ClientConfig, serverURL string) (*client.Client, error) {
	if serverURL == "" {
		serverURL = cfg.BaseURL
	}
	return client.New(serverURL, client.WithConfig(client.Config{
		Timeout:           cfg.Timeout,
		RequestsPerSecond: cfg.RequestsPerSecond,
		Burst:             cfg.Burst,
		BreakerThreshold:  cfg.BreakerThreshold,
		BreakerCooldown:   cfg.BreakerCooldown,
		Retry:             cfg.Retry,
		UserAgent:         "ytclone/" + version,
	}))
}
