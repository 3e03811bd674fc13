package catalog

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/fnv"
	"math/rand/v2"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrSummaryFailed is the simulated summary outage. Pages show
// SummaryFailedMessage for it.
var ErrSummaryFailed = errors.New("catalog: summary generation failed")

// SummaryFailedMessage is the user-facing text for ErrSummaryFailed.
const SummaryFailedMessage = "Failed to generate AI summary. Please try again."

// DefaultSummaryFailureRate is the fraction of summary requests that fail.
const DefaultSummaryFailureRate = 0.1

// Limits applied by Search and Suggestions.
const (
	searchPool        = 50
	maxSearchResults  = 10
	suggestionPool    = 30
	maxVideoSuggests  = 5
	maxChannelSuggest = 3
	maxSuggestions    = 8
	minSuggestQuery   = 2
)

// Generator produces synthetic catalog data. The same seed yields the same
// sequence of videos. It is safe for concurrent use.
type Generator struct {
	mu          sync.Mutex
	src         *rand.ChaCha8
	rng         *rand.Rand
	now         func() time.Time
	failureRate float64
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithSummaryFailureRate sets the fraction of Summary calls that fail.
func WithSummaryFailureRate(rate float64) GeneratorOption {
	return func(g *Generator) { g.failureRate = rate }
}

// WithClock overrides the time source used for comment timestamps.
func WithClock(now func() time.Time) GeneratorOption {
	return func(g *Generator) { g.now = now }
}

// NewGenerator returns a generator seeded with seed.
func NewGenerator(seed uint64, opts ...GeneratorOption) *Generator {
	var key [32]byte
	binary.LittleEndian.PutUint64(key[:], seed)
	src := rand.NewChaCha8(key)
	g := &Generator{
		src:         src,
		rng:         rand.New(src),
		now:         time.Now,
		failureRate: DefaultSummaryFailureRate,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Videos returns n new videos with fresh ids.
func (g *Generator) Videos(n int) []Video {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.videosLocked(n)
}

func (g *Generator) videosLocked(n int) []Video {
	if n <= 0 {
		return nil
	}
	out := make([]Video, n)
	for i := range out {
		out[i] = Video{
			ID:    g.newIDLocked(),
			Title: pick(g.rng, videoTitles),
			Channel: Channel{
				Name:   pick(g.rng, channelNames),
				Avatar: picsum(strconv.Itoa(i+100), 40, 40),
			},
			Views:        randomViews(g.rng),
			Duration:     randomDuration(g.rng),
			ThumbnailURL: picsum(strconv.Itoa(i+1000), 320, 180),
			UploadTime:   pick(g.rng, uploadTimes),
		}
	}
	return out
}

func (g *Generator) newIDLocked() string {
	id, err := uuid.NewRandomFromReader(g.src)
	if err != nil {
		// ChaCha8 reads never fail.
		return uuid.NewString()
	}
	return id.String()
}

// Details returns the watch-page data for id. The result depends only on id.
func (g *Generator) Details(id string) VideoDetails {
	h := hashID(id)
	r := rand.New(rand.NewPCG(h, h>>1))
	title := videoTitles[h%uint64(len(videoTitles))]
	channel := int(h % uint64(len(channelNames)))
	likes := randomLikes(r)

	return VideoDetails{
		Video: Video{
			ID:    id,
			Title: title,
			Channel: Channel{
				Name:   channelNames[channel],
				Avatar: picsum(strconv.Itoa(channel+100), 40, 40),
			},
			Views:        randomViews(r),
			Duration:     randomDuration(r),
			ThumbnailURL: picsum(strconv.FormatUint(h%10000+1000, 10), 320, 180),
			UploadTime:   pick(r, uploadTimes),
		},
		Description:   videoDescriptions[h%uint64(len(videoDescriptions))],
		Likes:         likes,
		Dislikes:      dislikesFor(randomLikes(r)),
		VideoURL:      sampleVideoURLs[h%uint64(len(sampleVideoURLs))],
		PublishedDate: pick(r, uploadTimes),
		Category:      "Education",
		Tags:          slices.Clone(defaultTags),
	}
}

// Related returns up to n videos to show next to id, never id itself.
func (g *Generator) Related(id string, n int) []Video {
	return slices.DeleteFunc(g.Videos(n), func(v Video) bool { return v.ID == id })
}

// UserVideos returns between 3 and 10 videos presented as a user's uploads.
func (g *Generator) UserVideos() []Video {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 3 + g.rng.IntN(8)
	return g.videosLocked(n)
}

// Comments returns 5 to 14 comments for videoID, most liked first. About
// 30% of them carry 1 to 3 replies.
func (g *Generator) Comments(videoID string) []Comment {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	n := 5 + g.rng.IntN(10)
	out := make([]Comment, 0, n)
	for i := 0; i < n; i++ {
		c := g.commentLocked(fmt.Sprintf("comment-%s-%d", videoID, i), now, 100, 10, 7*24*time.Hour)
		if g.rng.Float64() < 0.3 {
			replies := 1 + g.rng.IntN(3)
			for j := 0; j < replies; j++ {
				c.Replies = append(c.Replies,
					g.commentLocked(fmt.Sprintf("reply-%s-%d", c.ID, j), now, 20, 5, 2*24*time.Hour))
			}
		}
		out = append(out, c)
	}
	slices.SortStableFunc(out, func(a, b Comment) int { return b.Likes - a.Likes })
	return out
}

func (g *Generator) commentLocked(id string, now time.Time, maxLikes, maxDislikes int, age time.Duration) Comment {
	userID := fmt.Sprintf("user-%d", g.rng.IntN(1000))
	return Comment{
		ID:         id,
		UserID:     userID,
		UserName:   fmt.Sprintf("User%d", g.rng.IntN(1000)),
		UserAvatar: picsum(userID, 40, 40),
		Text:       pick(g.rng, sampleComments),
		Likes:      g.rng.IntN(maxLikes),
		Dislikes:   g.rng.IntN(maxDislikes),
		Timestamp:  now.Add(-time.Duration(g.rng.Int64N(int64(age)))).UTC(),
		Replies:    []Comment{},
	}
}

// Summary returns a generated synopsis for videoID. A configurable fraction
// of calls fails with ErrSummaryFailed.
func (g *Generator) Summary(ctx context.Context, videoID string) (Summary, error) {
	if err := ctx.Err(); err != nil {
		return Summary{}, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.rng.Float64() < g.failureRate {
		return Summary{}, ErrSummaryFailed
	}
	return Summary{
		Text:         pick(g.rng, summaries),
		HighlightURL: pick(g.rng, highlightURLs),
	}, nil
}

// Search matches query case-insensitively against titles and channel names
// of a fresh pool of videos. Title matches sort first. A blank query
// matches nothing.
func (g *Generator) Search(query string) []Video {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}

	var matches []Video
	for _, v := range g.Videos(searchPool) {
		if titleMatch(v, q) || strings.Contains(strings.ToLower(v.Channel.Name), q) {
			matches = append(matches, v)
		}
	}
	slices.SortStableFunc(matches, func(a, b Video) int {
		return rank(a, q) - rank(b, q)
	})
	if len(matches) > maxSearchResults {
		matches = matches[:maxSearchResults]
	}
	return matches
}

// Suggestions returns autocomplete entries for query: up to 5 videos whose
// title matches and up to 3 matching channels, at most 8 in total. Queries
// shorter than two characters get none.
func (g *Generator) Suggestions(query string) []Suggestion {
	if strings.TrimSpace(query) == "" || len(query) < minSuggestQuery {
		return nil
	}
	q := strings.ToLower(strings.TrimSpace(query))
	pool := g.Videos(suggestionPool)

	var out []Suggestion
	for _, v := range pool {
		if len(out) == maxVideoSuggests {
			break
		}
		if titleMatch(v, q) {
			out = append(out, Suggestion{
				ID:        v.ID,
				Type:      SuggestionVideo,
				Title:     v.Title,
				Subtitle:  v.Channel.Name,
				Thumbnail: v.ThumbnailURL,
			})
		}
	}

	seen := make(map[string]bool)
	channels := 0
	for _, v := range pool {
		name := v.Channel.Name
		if channels == maxChannelSuggest || seen[name] || !strings.Contains(strings.ToLower(name), q) {
			continue
		}
		seen[name] = true
		channels++
		out = append(out, Suggestion{
			ID:        ChannelID(name),
			Type:      SuggestionChannel,
			Title:     name,
			Subtitle:  "Channel",
			Thumbnail: v.Channel.Avatar,
		})
	}

	if len(out) > maxSuggestions {
		out = out[:maxSuggestions]
	}
	return out
}

var whitespace = regexp.MustCompile(`\s+`)

// ChannelID derives the suggestion id of a channel name.
func ChannelID(name string) string {
	return "channel-" + strings.ToLower(whitespace.ReplaceAllString(name, "-"))
}

func titleMatch(v Video, q string) bool {
	return strings.Contains(strings.ToLower(v.Title), q)
}

func rank(v Video, q string) int {
	if titleMatch(v, q) {
		return 0
	}
	return 1
}

func pick[T any](r *rand.Rand, xs []T) T {
	return xs[r.IntN(len(xs))]
}

func picsum(seed string, w, h int) string {
	return fmt.Sprintf("https://picsum.photos/seed/%s/%d/%d", seed, w, h)
}

func hashID(id string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(id))
	return h.Sum64()
}

func randomViews(r *rand.Rand) string {
	switch x := r.Float64(); {
	case x < 0.1:
		return fmt.Sprintf("%d views", r.IntN(999)+1)
	case x < 0.3:
		return fmt.Sprintf("%.1fK views", r.Float64()*99+1)
	case x < 0.7:
		return fmt.Sprintf("%dK views", r.IntN(999)+1)
	case x < 0.9:
		return fmt.Sprintf("%.1fM views", r.Float64()*9+1)
	default:
		return fmt.Sprintf("%dM views", r.IntN(50)+1)
	}
}

func randomDuration(r *rand.Rand) string {
	return fmt.Sprintf("%d:%02d", r.IntN(45)+1, r.IntN(60))
}

func randomLikes(r *rand.Rand) string {
	switch x := r.Float64(); {
	case x < 0.3:
		return strconv.Itoa(r.IntN(999) + 1)
	case x < 0.7:
		return fmt.Sprintf("%.1fK", r.Float64()*99+1)
	default:
		return fmt.Sprintf("%dK", r.IntN(500)+1)
	}
}

// dislikesFor takes 5% of the whole-number part of a likes label.
func dislikesFor(likes string) string {
	whole, _, _ := strings.Cut(strings.TrimSuffix(likes, "K"), ".")
	n, err := strconv.Atoi(whole)
	if err != nil {
		return "0"
	}
	return strconv.Itoa(n * 5 / 100)
}

// FormatViews renders a raw view count the way cards show it. Labels that
// are already formatted pass through.
func FormatViews(views string) string {
	if strings.ContainsAny(views, "KM") || strings.Contains(views, "views") {
		return views
	}
	n, err := strconv.Atoi(strings.TrimSpace(views))
	if err != nil {
		return views
	}
	switch {
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM views", float64(n)/1_000_000)
	case n >= 1000:
		return fmt.Sprintf("%.1fK views", float64(n)/1000)
	default:
		return fmt.Sprintf("%d views", n)
	}
}
