package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	am "github.com/pancsta/asyncmachine-go/pkg/machine"
	"github.com/pancsta/asyncmachine-go/pkg/telemetry"
	"github.com/rs/zerolog"

	ss "github.com/pancsta/sway-stashgrid/internal/watcher/states"
)

const DefaultDebounce = 300 * time.Millisecond

// ConfigWatcher watches a config file and calls Reload after it changes,
// max once per Debounce.
type ConfigWatcher struct {
	am.ExceptionHandler

	Mach     *am.Machine
	Path     string
	Debounce time.Duration
	Reload   func() error
	// OnError receives reload and fsnotify errors.
	OnError func(error)

	logger  zerolog.Logger
	watcher *fsnotify.Watcher
	// changes arrived since the last reload started
	dirty atomic.Bool
}

func New(
	ctx context.Context, logger zerolog.Logger, path string, reload func() error,
) (*ConfigWatcher, error) {
	if reload == nil {
		return nil, errors.New("reload func is required")
	}

	w := &ConfigWatcher{
		Path:     filepath.Clean(path),
		Debounce: DefaultDebounce,
		Reload:   reload,
		logger:   logger,
	}
	opts := &am.Opts{
		ID: "config-watcher",
	}

	if isAMDebug() {
		opts.HandlerTimeout = time.Minute
		opts.DontPanicToException = true
	}
	w.Mach = am.New(ctx, ss.States, opts)

	err := w.Mach.VerifyStates(ss.Names)
	if err != nil {
		return nil, err
	}

	err = w.Mach.BindHandlers(w)
	if err != nil {
		return nil, err
	}

	if logger.GetLevel() <= zerolog.TraceLevel {
		w.Mach.SetTestLogger(logger.Printf, am.LogChanges)
	}
	w.Mach.SetLogArgs(am.NewArgsMapper([]string{"file"}, 0))
	if isAMDebug() {
		err = telemetry.TransitionsToDBG(w.Mach, "")
		if err != nil {
			return nil, err
		}
	}

	return w, nil
}

func (w *ConfigWatcher) InitState(e *am.Event) {
	var err error

	w.watcher, err = fsnotify.NewWatcher()
	if err != nil {
		w.Mach.Remove1(ss.Init, nil)
		w.Mach.AddErr(err)
	}
}

func (w *ConfigWatcher) InitEnd(e *am.Event) {
	if w.watcher != nil {
		w.watcher.Close()
	}
}

func (w *ConfigWatcher) WatchingState(e *am.Event) {
	if w.watcher == nil {
		// Init failed
		e.Machine.Remove1(ss.Watching, nil)
		return
	}

	// start the loop (bound to this instance)
	ctx := e.Machine.NewStateCtx(ss.Watching)
	go w.watchLoop(ctx)

	// editors replace the file, so watch the whole dir
	dir := filepath.Dir(w.Path)
	if err := w.watcher.Add(dir); err != nil {
		e.Machine.AddErr(err)
		return
	}
	w.logger.Debug().Str("file", w.Path).Msg("Watching config")
}

func (w *ConfigWatcher) WatchingEnd(e *am.Event) {
	if w.watcher == nil {
		return
	}
	for _, path := range w.watcher.WatchList() {
		err := w.watcher.Remove(path)
		if err != nil {
			e.Machine.AddErr(err)
		}
	}
}

func (w *ConfigWatcher) watchLoop(ctx context.Context) {
	for {
		select {

		case event, ok := <-w.watcher.Events:
			if !ok {
				w.Mach.Remove1(ss.Watching, nil)
				return
			}
			w.Mach.Add1(ss.ChangeEvent, am.A{
				"fsnotify.Event": event,
				"file":           event.Name,
			})

		case err, ok := <-w.watcher.Errors:
			if !ok {
				w.Mach.Remove1(ss.Watching, nil)
				return
			}
			w.Mach.AddErr(err)

		case <-ctx.Done():
			// state expired
			return
		}
	}
}

func (w *ConfigWatcher) ChangeEventEnter(e *am.Event) bool {
	_, ok := e.Args["fsnotify.Event"].(fsnotify.Event)
	return ok
}

func (w *ConfigWatcher) ChangeEventState(e *am.Event) {
	defer e.Machine.Remove1(ss.ChangeEvent, nil)
	event := e.Args["fsnotify.Event"].(fsnotify.Event)

	if filepath.Clean(event.Name) != w.Path {
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}

	w.dirty.Store(true)
	// a reload is already scheduled
	if e.Machine.Is1(ss.Debounced) {
		return
	}
	e.Machine.Add1(ss.Debounced, nil)
}

func (w *ConfigWatcher) DebouncedState(e *am.Event) {
	ctx := e.Machine.NewStateCtx(ss.Watching)
	debounce := w.Debounce

	go func() {
		select {
		case <-ctx.Done():
			return // expired
		case <-time.After(debounce):
		}
		w.Mach.Remove1(ss.Debounced, nil)
		w.Mach.Add1(ss.Reloading, nil)
	}()
}

func (w *ConfigWatcher) ReloadingState(e *am.Event) {
	ctx := e.Machine.NewStateCtx(ss.Reloading)
	w.dirty.Store(false)

	go func() {
		if ctx.Err() != nil {
			return // expired
		}

		err := w.Reload()
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			w.Mach.Remove1(ss.Reloading, nil)
			w.Mach.AddErr(err)
		} else {
			w.Mach.Add1(ss.Reloaded, am.A{"file": w.Path})
		}

		// changes during the reload
		if w.dirty.Load() {
			w.Mach.Add1(ss.Debounced, nil)
		}
	}()
}

func (w *ConfigWatcher) ReloadedState(e *am.Event) {
	w.logger.Info().Str("file", w.Path).Msg("Config reloaded")
}

func (w *ConfigWatcher) ExceptionState(e *am.Event) {
	err, _ := e.Args["err"].(error)
	if err != nil {
		w.logger.Error().Err(err).Str("file", w.Path).Msg("Config watcher error")
		if w.OnError != nil {
			w.OnError(err)
		}
	}
	w.ExceptionHandler.ExceptionState(e)
}

// Start begins watching. Reloaded is active after every successful reload.
func (w *ConfigWatcher) Start() {
	w.Mach.Add(am.S{ss.Init, ss.Watching}, nil)
}

func (w *ConfigWatcher) Stop() {
	w.Mach.Remove1(ss.Init, nil)
}

// ///// ///// /////
// ///// HELPERS
// ///// ///// /////

func isAMDebug() bool {
	return os.Getenv("STASHGRID_DEBUG") == "2"
}
