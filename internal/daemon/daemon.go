package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"

	"golang.org/x/sync/errgroup"

	"github.com/pancsta/sway-stashgrid/internal/config"
	"github.com/pancsta/sway-stashgrid/internal/display"
	"github.com/pancsta/sway-stashgrid/internal/grid"
	"github.com/pancsta/sway-stashgrid/internal/logging"
	"github.com/pancsta/sway-stashgrid/internal/scaling"
	"github.com/pancsta/sway-stashgrid/internal/stash"
	"github.com/pancsta/sway-stashgrid/internal/store"
	"github.com/pancsta/sway-stashgrid/internal/tracker"
	"github.com/pancsta/sway-stashgrid/internal/ui"
	"github.com/pancsta/sway-stashgrid/internal/watcher"
)

const uiQueueSize = 64

type Daemon struct {
	Config *config.Manager

	ctx     context.Context
	store   *store.Store
	stash   *stash.Service
	ui      *ui.Dispatcher
	grid    *grid.Grid
	tracker *tracker.Tracker
	view    *display.SwayView
	watcher *watcher.ConfigWatcher
}

func New(cfg *config.Manager) *Daemon {
	return &Daemon{Config: cfg}
}

// ///// ///// /////
// ///// DAEMON
// ///// ///// /////

// Start connects to sway, opens the database and serves RPC until ctx is done.
func (d *Daemon) Start(ctx context.Context) error {
	ctx = logging.WithComponent(ctx, "daemon")
	log := logging.FromContext(ctx)
	cfg := d.Config.Get()

	dbPath, err := cfg.DatabaseFile()
	if err != nil {
		return err
	}
	st, err := store.Open(ctx, dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := d.init(ctx, st, cfg); err != nil {
		return err
	}
	defer d.grid.Close()

	// sway
	d.tracker = tracker.New(cfg.Tracker.Match, cfg.Overlay.Title)
	if err := d.tracker.Connect(ctx); err != nil {
		return err
	}

	// set up the window layout
	if cfg.Overlay.Autoconfig {
		if err := d.tracker.SwayMsgs(display.Autoconfig(cfg.Overlay.Title)); err != nil {
			return fmt.Errorf("sway autoconfig: %w", err)
		}
	}

	d.view = display.NewSwayView(cfg.Overlay.Title, d.tracker.SwayMsg)
	d.ui.Do(func() { d.grid.Attach(d.view) })
	d.grid.Track(d.tracker)
	// the tree was read before Track
	if win, ok := d.tracker.Current(); ok {
		d.ui.Do(func() { d.grid.SetWindowPosition(&win) })
	}

	// config hot reload
	d.watcher, err = watcher.New(ctx, *log, d.Config.Path(), d.Config.Reload)
	if err != nil {
		return err
	}
	d.Config.OnChange(d.applyConfig)
	d.watcher.Start()
	defer d.watcher.Stop()

	l, err := d.listen(cfg.RPC.Addr)
	if err != nil {
		return err
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return d.ui.Run(egCtx)
	})
	eg.Go(func() error {
		return d.tracker.Run(egCtx)
	})
	eg.Go(func() error {
		return d.serveRPC(egCtx, l)
	})
	log.Info().Str("rpc", cfg.RPC.Addr).Str("match", cfg.Tracker.Match).
		Msg("Listening for sway events...")

	err = eg.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}

	return err
}

// init creates the sway-independent parts: the stash service, UI loop and
// the grid.
func (d *Daemon) init(ctx context.Context, st *store.Store, cfg *config.Config) error {
	var err error

	d.ctx = ctx
	d.store = st
	d.stash, err = stash.NewService(ctx, st)
	if err != nil {
		return err
	}
	d.ui = ui.NewDispatcher(uiQueueSize)

	scaler := scaling.New(cfg.Overlay.ScaleX, cfg.Overlay.ScaleY)
	d.grid = grid.New(d.stash, d.ui, scaler, cfg.Overlay.MarginY)
	d.grid.OnError = func(err error) {
		logging.FromContext(ctx).Error().Err(err).Msg("overlay")
	}

	return nil
}

// applyConfig pushes reloaded settings onto the grid.
func (d *Daemon) applyConfig(cfg *config.Config) {
	logging.FromContext(d.ctx).Info().
		Float64("margin_y", cfg.Overlay.MarginY).
		Float64("scale_x", cfg.Overlay.ScaleX).
		Float64("scale_y", cfg.Overlay.ScaleY).
		Msg("applying config")

	scaler := scaling.New(cfg.Overlay.ScaleX, cfg.Overlay.ScaleY)
	margin := cfg.Overlay.MarginY
	d.ui.Do(func() {
		d.grid.SetScaler(scaler)
		d.grid.SetMarginY(margin)
	})
}

// flush waits for the already queued UI work.
func (d *Daemon) flush() error {
	return d.ui.Call(d.ctx, func() {})
}

func (d *Daemon) listen(addr string) (net.Listener, error) {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("rpc listen on %s: %w", addr, err)
	}
	return l, nil
}
