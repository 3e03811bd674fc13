// Package loader implements incremental list loading: it watches a sentinel
// target through a viewport.Source and calls a fetch-more function each time
// the sentinel becomes visible, tracking loading, error and exhaustion state.
//
// The Loader never touches the item list itself. The fetch function, supplied
// by the feed that owns the list, appends the next batch and reports whether
// more items may exist.
//
//	l, err := loader.New(feed.FetchMore, scroll,
//		loader.WithThreshold(0.5),
//		loader.WithRootMargin("200px"),
//	)
//	if err != nil {
//		return err
//	}
//	defer l.Close()
//	l.Bind(sentinel)
//
// At most one fetch is in flight per Loader. Visibility signals that arrive
// while a fetch runs are dropped, not queued. A failed fetch is reported in
// State.Error and retried only on the next visibility signal.
package loader

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ytclone/internal/logger"
	"ytclone/viewport"
)

// FetchFunc loads the next batch. It returns more=false once the underlying
// list is exhausted. ctx is cancelled when the Loader is reset or closed.
type FetchFunc func(ctx context.Context) (more bool, err error)

const defaultErrorMessage = "an error occurred while loading more data"

// Loader is the incremental loading controller. It is safe for concurrent use.
type Loader struct {
	fetch     FetchFunc
	source    viewport.Source
	threshold float64
	margin    viewport.Margin
	name      string
	metrics   Metrics

	// bindMu serializes observation setup and teardown. It is never taken
	// from a visibility callback, so sources may deliver synchronously.
	bindMu sync.Mutex
	obs    viewport.Observation

	mu       sync.Mutex
	state    State
	target   viewport.Target
	enabled  bool
	closed   bool
	watching bool
	obsSeq   uint64 // identifies the live observation; older callbacks are dropped
	epoch    uint64 // bumped by Reset and Close; older fetch results are dropped
	cancel   context.CancelFunc
	inflight chan struct{}

	pubMu   sync.Mutex
	subs    map[int]func(State)
	nextSub int
}

// New configures a Loader for fetch, observing through source.
func New(fetch FetchFunc, source viewport.Source, opts ...Option) (*Loader, error) {
	if fetch == nil {
		return nil, ErrNilFetch
	}
	if source == nil {
		return nil, ErrNilSource
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	margin, err := o.validate()
	if err != nil {
		return nil, err
	}

	return &Loader{
		fetch:     fetch,
		source:    source,
		threshold: o.threshold,
		margin:    margin,
		name:      o.name,
		metrics:   o.metrics,
		state:     State{HasMore: true},
		enabled:   o.enabled,
		subs:      make(map[int]func(State)),
	}, nil
}

// State returns a snapshot of the loader state.
func (l *Loader) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Phase reports where the Loader is in its state machine.
func (l *Loader) Phase() Phase {
	l.mu.Lock()
	defer l.mu.Unlock()
	switch {
	case l.state.Loading:
		return PhaseLoading
	case !l.state.HasMore:
		return PhaseExhausted
	case !l.watching:
		return PhaseIdle
	case l.state.Error != "":
		return PhaseErrored
	default:
		return PhaseWatching
	}
}

// Bind observes target as the sentinel, replacing any previous one. A nil
// target detaches without observing anything. While a fetch is in flight
// the previous observation is torn down at once and target is observed
// after the fetch settles.
func (l *Loader) Bind(target viewport.Target) {
	l.bindMu.Lock()
	defer l.bindMu.Unlock()

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.target = target
	l.mu.Unlock()

	l.rearm()
}

// SetEnabled opens or closes the enabled gate. Disabling disconnects the
// observation but leaves the state untouched.
func (l *Loader) SetEnabled(enabled bool) {
	l.bindMu.Lock()
	defer l.bindMu.Unlock()

	l.mu.Lock()
	if l.closed || l.enabled == enabled {
		l.mu.Unlock()
		return
	}
	l.enabled = enabled
	l.mu.Unlock()

	l.rearm()
}

// Reset restores {Loading: false, HasMore: true, Error: ""} and drops the
// current observation. A fetch still in flight is cancelled and its result
// discarded. If a target is bound and the Loader is enabled, a fresh
// observation starts. Calling Reset twice is the same as calling it once.
func (l *Loader) Reset() {
	l.bindMu.Lock()
	defer l.bindMu.Unlock()

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	changed := l.state != State{HasMore: true}
	l.epoch++
	l.abortLocked()
	l.state = State{HasMore: true}
	l.mu.Unlock()

	l.disconnect()
	if changed {
		l.publish()
	}
	l.rearm()

	logger.Debug("loader reset", logger.KeyFeed, l.name)
}

// Close tears the Loader down. It disconnects unconditionally, discards any
// in-flight result and drops subscribers. Close is idempotent.
func (l *Loader) Close() {
	l.bindMu.Lock()
	defer l.bindMu.Unlock()

	l.mu.Lock()
	if !l.closed {
		l.closed = true
		l.epoch++
		l.abortLocked()
		l.target = nil
	}
	l.mu.Unlock()

	l.disconnect()

	l.pubMu.Lock()
	clear(l.subs)
	l.pubMu.Unlock()
}

// Wait blocks until the fetch in flight at the time of the call settles and
// the sentinel is observed again, or ctx is done. It returns immediately when
// nothing is loading.
func (l *Loader) Wait(ctx context.Context) error {
	l.mu.Lock()
	ch := l.inflight
	l.mu.Unlock()
	if ch == nil {
		return nil
	}
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Subscribe registers fn to be called with the new state after every change.
// fn runs on whichever goroutine made the change and must not call back into
// the Loader synchronously. The returned function unregisters fn.
func (l *Loader) Subscribe(fn func(State)) (unsubscribe func()) {
	l.pubMu.Lock()
	defer l.pubMu.Unlock()
	id := l.nextSub
	l.nextSub++
	l.subs[id] = fn
	return func() {
		l.pubMu.Lock()
		delete(l.subs, id)
		l.pubMu.Unlock()
	}
}

// abortLocked cancels the in-flight fetch, if any. Callers hold l.mu.
func (l *Loader) abortLocked() {
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	l.inflight = nil
}

// rearm drops the current observation and starts a new one when the Loader
// is eligible to watch. Callers hold bindMu.
func (l *Loader) rearm() {
	// The old observation goes first, so a report arriving before the new
	// one is registered reaches no observer and the source holds it.
	if l.obs != nil {
		l.obs.Disconnect()
		l.obs = nil
	}

	l.mu.Lock()
	l.obsSeq++
	eligible := !l.closed && l.enabled && l.target != nil && !l.state.Loading && l.state.HasMore
	target := l.target
	seq := l.obsSeq
	l.watching = eligible
	l.mu.Unlock()

	if !eligible {
		return
	}
	l.obs = l.source.Observe(target, viewport.ObserveOptions{
		Threshold: l.threshold,
		Margin:    l.margin,
	}, func(e viewport.Entry) {
		l.handleEntry(seq, e)
	})
}

// disconnect tears down the live observation. Callers hold bindMu.
func (l *Loader) disconnect() {
	if l.obs != nil {
		l.obs.Disconnect()
		l.obs = nil
	}

	l.mu.Lock()
	l.obsSeq++
	l.watching = false
	l.mu.Unlock()
}

// handleEntry is the visibility callback. It starts a fetch when the entry
// meets the threshold, the observation is current and nothing is loading.
func (l *Loader) handleEntry(seq uint64, e viewport.Entry) {
	if !e.Visible(l.threshold) {
		return
	}

	l.mu.Lock()
	if seq != l.obsSeq || l.closed || l.state.Loading || !l.state.HasMore {
		l.mu.Unlock()
		return
	}
	l.state.Loading = true
	l.state.Error = ""
	epoch := l.epoch
	ctx, cancel := context.WithCancel(context.Background())
	l.cancel = cancel
	done := make(chan struct{})
	l.inflight = done
	l.mu.Unlock()

	l.publish()
	go l.run(ctx, cancel, epoch, done)
}

// run performs one fetch and applies its result if the epoch still matches.
func (l *Loader) run(ctx context.Context, cancel context.CancelFunc, epoch uint64, done chan struct{}) {
	defer close(done)
	defer cancel()

	start := time.Now()
	more, err := l.call(ctx)
	elapsed := time.Since(start)

	l.mu.Lock()
	if epoch != l.epoch {
		l.mu.Unlock()
		l.observe(OutcomeStale, elapsed)
		return
	}
	l.cancel = nil
	l.state.Loading = false
	outcome := OutcomeMore
	switch {
	case err != nil:
		l.state.Error = errorMessage(err)
		outcome = OutcomeError
	case !more:
		l.state.HasMore = false
		l.state.Error = ""
		outcome = OutcomeExhausted
	default:
		l.state.Error = ""
	}
	rewatch := err == nil || !l.watching
	l.mu.Unlock()

	l.observe(outcome, elapsed)
	if err != nil {
		logger.Warn("infinite scroll fetch failed", logger.KeyFeed, l.name, logger.KeyErr, err)
	} else {
		logger.Debug("infinite scroll fetch settled", logger.KeyFeed, l.name,
			logger.KeyHasMore, more, logger.KeyDuration, elapsed.Milliseconds())
	}
	l.publish()

	// After a success the observation is renewed so the source reports the
	// sentinel's fresh position. After a failure an existing observation is
	// kept, so only a new visibility change retries.
	if rewatch {
		l.bindMu.Lock()
		l.mu.Lock()
		current := epoch == l.epoch
		l.mu.Unlock()
		if current {
			l.rearm()
		}
		l.bindMu.Unlock()
	}

	// Wait returns only once the renewed observation is in place.
	l.mu.Lock()
	if l.inflight == done {
		l.inflight = nil
	}
	l.mu.Unlock()
}

// call invokes fetch, converting a panic into an error.
func (l *Loader) call(ctx context.Context) (more bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("fetch panicked: %v", r)
		}
	}()
	return l.fetch(ctx)
}

func (l *Loader) observe(outcome string, d time.Duration) {
	if l.metrics != nil {
		l.metrics.ObserveFetch(l.name, outcome, d)
	}
}

// publish notifies subscribers of the current state. pubMu orders
// notifications so the last one delivered always reflects the latest state.
func (l *Loader) publish() {
	l.pubMu.Lock()
	defer l.pubMu.Unlock()
	if len(l.subs) == 0 {
		return
	}
	s := l.State()
	for _, fn := range l.subs {
		fn(s)
	}
}

func errorMessage(err error) string {
	if msg := err.Error(); msg != "" {
		return msg
	}
	return defaultErrorMessage
}
