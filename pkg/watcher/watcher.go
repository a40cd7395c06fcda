// Package watcher polls the clipboard and replaces Markdown with styled HTML.
//
// Each tick compares the clipboard change counter with the last one seen. On a
// change the text is read and hashed; a text whose hash matches the processed
// marker is skipped, which both deduplicates repeated notifications and
// suppresses the change caused by our own write. Markdown is converted and
// written back as HTML plus the original text.
package watcher

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"md2rt/pkg/config"
	"md2rt/pkg/detector"
	"md2rt/pkg/errors"
	"md2rt/pkg/logger"
	"md2rt/pkg/pipeline"

	"github.com/rs/zerolog"
)

// Clipboard is the pasteboard as seen by the watcher.
type Clipboard interface {
	ChangeCount() (int64, error)
	ReadText() (string, error)
	Write(html, plain string) error
}

// Converter turns Markdown into clipboard-ready HTML. It must not fail.
type Converter interface {
	Convert(ctx context.Context, text string) pipeline.Result
}

type State int

const (
	Idle State = iota
	Watching
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Watching:
		return "watching"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Outcome is what a single tick did.
type Outcome string

const (
	OutcomeUnchanged   Outcome = "unchanged"
	OutcomeCountFailed Outcome = "count_failed"
	OutcomeUnreadable  Outcome = "unreadable"
	OutcomeEmpty       Outcome = "empty"
	OutcomeDuplicate   Outcome = "duplicate"
	OutcomeIgnored     Outcome = "ignored"
	OutcomeHTML        Outcome = "html"
	OutcomeNotMarkdown Outcome = "not_markdown"
	OutcomeDryRun      Outcome = "dry_run"
	OutcomeWritten     Outcome = "written"
	OutcomeWriteFailed Outcome = "write_failed"
	OutcomePanic       Outcome = "panic"
)

// Event describes a tick that saw a clipboard change.
type Event struct {
	Outcome Outcome
	Hash    string
	Result  *pipeline.Result
	Err     error
}

type Watcher struct {
	clip          Clipboard
	conv          Converter
	interval      time.Duration
	dryRun        bool
	skipHTML      bool
	isMarkdown    func(string) bool
	ignore        func(string) bool
	looksLikeHTML func(string) bool
	onEvent       func(Event)
	log           zerolog.Logger

	mu      sync.Mutex
	running atomic.Bool
	stop    chan struct{}
	done    chan struct{}

	// Owned by the loop goroutine once it is running.
	baseline int64
	marker   string

	stats counters
}

type Option func(*Watcher)

// WithInterval sets the polling interval. Values below config.MinInterval are
// raised to it.
func WithInterval(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.interval = max(d, config.MinInterval)
		}
	}
}

// WithDryRun converts and logs but never writes the clipboard.
func WithDryRun(dryRun bool) Option {
	return func(w *Watcher) {
		w.dryRun = dryRun
	}
}

// WithSkipHTML ignores clipboard text that is already rendered HTML.
func WithSkipHTML(skip bool) Option {
	return func(w *Watcher) {
		w.skipHTML = skip
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(w *Watcher) {
		w.log = l
	}
}

// WithDetector replaces the Markdown detector.
func WithDetector(fn func(string) bool) Option {
	return func(w *Watcher) {
		if fn != nil {
			w.isMarkdown = fn
		}
	}
}

// WithIgnore skips clipboard text for which fn returns true, before any
// detection runs.
func WithIgnore(fn func(string) bool) Option {
	return func(w *Watcher) {
		w.ignore = fn
	}
}

// WithEventHandler is called from the loop goroutine after every tick that
// saw a change.
func WithEventHandler(fn func(Event)) Option {
	return func(w *Watcher) {
		w.onEvent = fn
	}
}

func New(clip Clipboard, conv Converter, opts ...Option) *Watcher {
	w := &Watcher{
		clip:          clip,
		conv:          conv,
		interval:      config.DefaultInterval,
		isMarkdown:    detector.IsMarkdown,
		looksLikeHTML: detector.LooksLikeHTML,
		log:           logger.ForComponent("watcher"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *Watcher) State() State {
	if w.running.Load() {
		return Watching
	}
	return Idle
}

func (w *Watcher) Interval() time.Duration {
	return w.interval
}

// Start captures the current change count as the baseline, resets the
// processed marker and begins polling. Calling Start while watching is a
// no-op. If the baseline cannot be read the watcher stays idle.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running.Load() {
		return nil
	}
	if w.done != nil {
		<-w.done
	}

	count, err := w.clip.ChangeCount()
	if err != nil {
		return errors.ClipboardError("failed to read the clipboard change count", err)
	}

	w.baseline = count
	w.marker = ""
	w.stop = make(chan struct{})
	w.done = make(chan struct{})
	w.running.Store(true)

	w.log.Info().
		Dur("interval", w.interval).
		Bool("dry_run", w.dryRun).
		Int64("baseline", count).
		Msg("Watching clipboard")

	go w.loop(ctx, w.stop, w.done)
	return nil
}

// Stop asks the loop to exit before its next tick. A conversion already in
// progress finishes. Stop is idempotent and does not wait; use Wait for that.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running.Load() {
		return
	}
	w.running.Store(false)
	close(w.stop)
}

// Wait blocks until the loop goroutine has exited.
func (w *Watcher) Wait() {
	w.mu.Lock()
	done := w.done
	w.mu.Unlock()

	if done != nil {
		<-done
	}
}

// Run watches until ctx is cancelled or Stop is called.
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.Start(ctx); err != nil {
		return err
	}

	w.mu.Lock()
	done := w.done
	w.mu.Unlock()

	select {
	case <-ctx.Done():
	case <-done:
	}
	w.Stop()
	w.Wait()
	return nil
}

func (w *Watcher) loop(ctx context.Context, stop, done chan struct{}) {
	defer func() {
		w.running.Store(false)
		close(done)
		w.log.Info().Msg("Stopped watching clipboard")
	}()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		// Stop may race with the ticker; never start a tick after it.
		select {
		case <-stop:
			return
		default:
		}

		w.tick(ctx)
	}
}

// tick runs one poll. It never panics.
func (w *Watcher) tick(ctx context.Context) (ev Event) {
	w.stats.ticks.Add(1)

	defer func() {
		if r := recover(); r != nil {
			w.stats.panics.Add(1)
			w.stats.failures.Add(1)
			ev.Outcome = OutcomePanic
			ev.Err = fmt.Errorf("panic: %v", r)
			w.log.Error().Interface("panic", r).Msg("Recovered from panic while processing clipboard")
		}
		if ev.Outcome != OutcomeUnchanged && w.onEvent != nil {
			w.notify(ev)
		}
	}()

	count, err := w.clip.ChangeCount()
	if err != nil {
		w.stats.failures.Add(1)
		w.log.Debug().Err(err).Msg("Failed to read change count")
		return Event{Outcome: OutcomeCountFailed, Err: err}
	}
	if count == w.baseline {
		return Event{Outcome: OutcomeUnchanged}
	}
	w.baseline = count
	w.stats.changes.Add(1)

	text, err := w.clip.ReadText()
	if err != nil {
		w.stats.skipped.Add(1)
		w.log.Debug().Err(err).Msg("Clipboard text unreadable")
		return Event{Outcome: OutcomeUnreadable, Err: err}
	}
	if text == "" {
		w.stats.skipped.Add(1)
		return Event{Outcome: OutcomeEmpty}
	}

	hash := Hash(text)
	ev = Event{Hash: hash}
	if hash == w.marker {
		w.stats.duplicates.Add(1)
		w.log.Debug().Str("hash", hash[:12]).Msg("Already processed")
		ev.Outcome = OutcomeDuplicate
		return ev
	}

	if w.ignore != nil && w.ignore(text) {
		w.marker = hash
		w.stats.skipped.Add(1)
		w.log.Debug().Str("hash", hash[:12]).Msg("Matched an ignore rule")
		ev.Outcome = OutcomeIgnored
		return ev
	}

	if w.skipHTML && w.looksLikeHTML(text) {
		w.marker = hash
		w.stats.skipped.Add(1)
		w.log.Debug().Str("hash", hash[:12]).Msg("Clipboard already holds HTML")
		ev.Outcome = OutcomeHTML
		return ev
	}

	if !w.isMarkdown(text) {
		w.marker = hash
		w.stats.skipped.Add(1)
		w.log.Debug().Str("hash", hash[:12]).Int("len", len(text)).Msg("Not markdown")
		ev.Outcome = OutcomeNotMarkdown
		return ev
	}

	res := w.conv.Convert(context.WithoutCancel(ctx), text)
	ev.Result = &res
	w.stats.conversions.Add(1)
	if res.Fallback {
		w.stats.fallbacks.Add(1)
	}

	if w.dryRun {
		w.marker = hash
		w.stats.dryRuns.Add(1)
		w.log.Info().
			Str("hash", hash[:12]).
			Str("source", res.Source).
			Bool("fallback", res.Fallback).
			Int("html_len", len(res.HTML)).
			Msg("Dry run: would write styled HTML")
		ev.Outcome = OutcomeDryRun
		return ev
	}

	if err := w.clip.Write(res.HTML, res.Original); err != nil {
		w.stats.failures.Add(1)
		w.log.Error().Err(err).Str("hash", hash[:12]).Msg("Failed to write clipboard")
		ev.Outcome = OutcomeWriteFailed
		ev.Err = err
		return ev
	}

	w.marker = Hash(res.Original)
	w.stats.written.Add(1)
	w.log.Info().
		Str("hash", hash[:12]).
		Str("source", res.Source).
		Bool("fallback", res.Fallback).
		Int("html_len", len(res.HTML)).
		Dur("duration", res.Duration).
		Msg("Converted markdown to rich text")
	ev.Outcome = OutcomeWritten
	return ev
}

// notify shields the loop from a panicking event handler.
func (w *Watcher) notify(ev Event) {
	defer func() {
		if r := recover(); r != nil {
			w.log.Error().Interface("panic", r).Msg("Event handler panicked")
		}
	}()
	w.onEvent(ev)
}

// Hash is the processed-marker digest of a clipboard text.
func Hash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
