package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"ytclone/catalog"
	"ytclone/feed"
	"ytclone/internal/logger"
)

var (
	feedPages  int
	feedJSON   bool
	feedRemote bool
	feedServer string
)

var feedCmd = &cobra.Command{
	Use:   "feed [home|search|related] [query]",
	Short: "Print pages of a video feed",
	Long: `Fetch pages of a feed the way the infinite-scroll grid does, and print
each page as it arrives. search takes the query text and related takes a
video id.

Examples:
  ytclone feed
  ytclone feed home --pages 5
  ytclone feed search "street food" --json
  ytclone feed related 3f2a... --remote`,
	Args: cobra.RangeArgs(0, 2),
	RunE: runFeed,
}

func init() {
	feedCmd.Flags().IntVar(&feedPages, "pages", 1, "number of pages to fetch (0 = until exhausted)")
	feedCmd.Flags().BoolVar(&feedJSON, "json", false, "print one JSON page per line")
	feedCmd.Flags().BoolVar(&feedRemote, "remote", false, "load pages from the API server")
	feedCmd.Flags().StringVar(&feedServer, "server", "", "API server URL (overrides client.base_url)")
}

func parseFeedArgs(args []string) (name, query string, err error) {
	name = catalog.FeedHome
	if len(args) > 0 {
		name = args[0]
	}
	if len(args) > 1 {
		query = args[1]
	}
	switch name {
	case catalog.FeedHome:
		if query != "" {
			return "", "", errors.New("the home feed takes no query")
		}
	case catalog.FeedSearch, catalog.FeedRelated:
		if query == "" {
			return "", "", fmt.Errorf("missing %s query", name)
		}
	default:
		return "", "", fmt.Errorf("unknown feed %q (use home, search or related)", name)
	}
	return name, query, nil
}

func runFeed(cmd *cobra.Command, args []string) error {
	name, query, err := parseFeedArgs(args)
	if err != nil {
		return err
	}
	if feedPages < 0 {
		return errors.New("--pages must not be negative")
	}
	cfg := appConfig

	p, closeProvider, err := provider(cfg, name, query, feedRemote, feedServer)
	if err != nil {
		return err
	}
	defer closeProvider()

	f, err := feed.New(p,
		feed.WithName(name),
		feed.WithInitialSize(cfg.Feed.InitialSize),
		feed.WithPageSize(cfg.Feed.PageSize),
	)
	if err != nil {
		return err
	}
	return printPages(cmd, f, feedPages, feedJSON)
}

// printPages fetches up to pages pages (all of them for 0) and writes each
// one to the command's output.
func printPages(cmd *cobra.Command, f *feed.Feed[catalog.Video], pages int, asJSON bool) error {
	out := cmd.OutOrStdout()
	for page := 1; pages == 0 || page <= pages; page++ {
		seen := f.Len()
		more, err := f.FetchMore(cmd.Context())
		if err != nil {
			return fmt.Errorf("page %d: %w", page, err)
		}
		items := f.Since(seen)
		logger.Debug("feed page printed", logger.KeyFeed, f.Name(), logger.KeyItems, len(items), logger.KeyHasMore, more)

		if asJSON {
			if err := json.NewEncoder(out).Encode(feed.Page[catalog.Video]{Items: items}); err != nil {
				return err
			}
		} else {
			writeTable(out, items)
		}
		if !more {
			break
		}
	}
	if f.Len() == 0 {
		fmt.Fprintln(cmd.ErrOrStderr(), "No videos found.")
		return nil
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "\nTotal: %d videos", f.Len())
	if f.Done() {
		fmt.Fprint(cmd.ErrOrStderr(), " (end of feed)")
	}
	fmt.Fprintln(cmd.ErrOrStderr())
	return nil
}

func writeTable(out io.Writer, items []catalog.Video) {
	if len(items) == 0 {
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "VIDEO ID\tTITLE\tCHANNEL\tDURATION\tVIEWS\tUPLOADED")
	for _, v := range items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			v.ID,
			truncate(v.Title, 50),
			truncate(v.Channel.Name, 24),
			v.Duration,
			v.Views,
			v.UploadTime,
		)
	}
	w.Flush()
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
