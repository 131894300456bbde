// Package grid is the state behind the stash tab grid overlay: which tab is
// shown, where its marker is, and where the overlay sits on the screen.
//
// All the methods of Grid have to be called from the UI goroutine (see
// internal/ui). Events coming from other goroutines get marshaled via the
// executor passed to New.
package grid

import (
	"context"
	"sync/atomic"

	"github.com/pancsta/sway-stashgrid/internal/events"
	"github.com/pancsta/sway-stashgrid/internal/placement"
	"github.com/pancsta/sway-stashgrid/internal/types"
	"github.com/pancsta/sway-stashgrid/internal/ui"
)

// property names published on Grid.Changed
const (
	PropTop           = "Top"
	PropLeft          = "Left"
	PropIsVisible     = "IsVisible"
	PropIsRegularTab  = "IsRegularTab"
	PropIsQuadTab     = "IsQuadTab"
	PropIsInFolder    = "IsInFolder"
	PropIsNotInFolder = "IsNotInFolder"
	PropBounds        = "Bounds"
)

// StashService is the stash tab service consumed by the grid.
type StashService interface {
	OnNewMarker(fn func(types.StashTabLocation)) *events.Subscription
	OnClose(fn func()) *events.Subscription
	AddQuadTab(ctx context.Context, name string) error
	RemoveQuadTab(ctx context.Context, name string) error
	AddOrUpdateTab(ctx context.Context, tab types.StashTab) error
}

// WindowSource publishes geometry changes of the tracked window.
type WindowSource interface {
	OnWindowInformationChanged(fn func(types.WindowInformation)) *events.Subscription
}

// View is the overlay surface.
type View interface {
	SetBounds(r types.OverlayRect) error
	SetVisible(visible bool) error
}

// Snapshot is a copy of the grid state.
type Snapshot struct {
	TabName    string
	Top        int
	Left       int
	TabType    types.StashTabType
	Folder     types.Folder
	Visibility types.Visibility
	Bounds     types.OverlayRect
	Placed     bool
}

type Grid struct {
	// Changed publishes names of changed properties.
	Changed *events.Bus[string]
	// OnError gets errors of the view, which have no caller to return to.
	OnError func(err error)

	service StashService
	exec    ui.Executor
	scaler  placement.Scaler
	subs    events.Group
	closed  atomic.Bool

	top        int
	left       int
	tabName    string
	tabType    types.StashTabType
	folder     types.Folder
	visibility types.Visibility
	marginY    float64

	win    *types.WindowInformation
	view   View
	bounds types.OverlayRect
	placed bool
}

// New creates a grid and subscribes it to the service events. Close releases
// the subscriptions.
func New(service StashService, exec ui.Executor, scaler placement.Scaler, marginY float64) *Grid {
	g := &Grid{
		Changed: events.NewBus[string](),
		service: service,
		exec:    exec,
		scaler:  scaler,
		marginY: marginY,
		tabType: types.Regular,
	}

	g.subs.Add(
		service.OnNewMarker(func(loc types.StashTabLocation) {
			g.do(func() { g.newMarkerRequested(loc) })
		}),
		service.OnClose(func() {
			g.do(g.closeRequested)
		}),
	)

	return g
}

// Track follows the geometry of the window published by src, until Close.
func (g *Grid) Track(src WindowSource) {
	g.subs.Add(src.OnWindowInformationChanged(func(info types.WindowInformation) {
		g.do(func() { g.SetWindowPosition(&info) })
	}))
}

// Close unsubscribes from all the sources. Work already queued on the UI
// executor is skipped.
func (g *Grid) Close() {
	g.closed.Store(true)
	g.subs.Close()
}

// do queues fn on the UI executor, unless the grid gets closed first.
func (g *Grid) do(fn func()) {
	g.exec.Do(func() {
		if g.closed.Load() {
			return
		}
		fn()
	})
}

// Attach binds the overlay surface and places it, if the window is known.
func (g *Grid) Attach(v View) {
	g.view = v
	g.setWindowPosition()
	if v != nil {
		g.viewErr(v.SetVisible(g.IsVisible()))
	}
}

// ///// ///// /////
// ///// ACTIONS
// ///// ///// /////

// ToggleTabType switches between regular and quad, and updates the quad
// registry.
func (g *Grid) ToggleTabType(ctx context.Context) error {
	g.setTabType(g.tabType.Toggle())

	if g.IsQuadTab() {
		return g.service.AddQuadTab(ctx, g.tabName)
	}
	return g.service.RemoveQuadTab(ctx, g.tabName)
}

// ToggleInFolder moves the tab in or out of a folder, persists the new
// settings and moves the overlay.
func (g *Grid) ToggleInFolder(ctx context.Context) error {
	g.setFolder(g.folder.Toggle())

	err := g.service.AddOrUpdateTab(ctx, types.StashTab{
		Name:     g.tabName,
		InFolder: g.IsInFolder(),
		TabType:  g.tabType,
	})

	g.setWindowPosition()

	return err
}

// SetWindowPosition places the overlay over win. Nothing gets placed before a
// view is attached.
func (g *Grid) SetWindowPosition(win *types.WindowInformation) {
	g.win = win
	g.setWindowPosition()
}

// SetMarginY changes the vertical margin and moves the overlay.
func (g *Grid) SetMarginY(margin float64) {
	if margin == g.marginY {
		return
	}
	g.marginY = margin
	g.setWindowPosition()
}

// SetScaler replaces the display scaling and moves the overlay.
func (g *Grid) SetScaler(s placement.Scaler) {
	g.scaler = s
	g.setWindowPosition()
}

func (g *Grid) setWindowPosition() {
	// no window or no view yet
	if g.win == nil || g.view == nil {
		return
	}

	rect := placement.Place(*g.win, g.folder, g.marginY)
	if g.scaler != nil {
		rect = placement.Scaled(rect, g.scaler)
	}

	g.bounds = rect
	g.placed = true
	g.viewErr(g.view.SetBounds(rect))
	g.notify(PropBounds)
}

// ///// ///// /////
// ///// EVENTS
// ///// ///// /////

func (g *Grid) newMarkerRequested(loc types.StashTabLocation) {
	g.tabName = loc.Name
	g.setLeft(loc.Left - 1)
	g.setTop(loc.Top - 1)
	g.setTabType(loc.StashTabType)
	g.setVisibility(types.Visible)
}

func (g *Grid) closeRequested() {
	g.setVisibility(types.Hidden)
}

// ///// ///// /////
// ///// PROPS
// ///// ///// /////

func (g *Grid) Top() int { return g.top }
func (g *Grid) Left() int { return g.left }
func (g *Grid) TabName() string { return g.tabName }
func (g *Grid) TabType() types.StashTabType { return g.tabType }
func (g *Grid) Folder() types.Folder { return g.folder }
func (g *Grid) Visibility() types.Visibility { return g.visibility }
func (g *Grid) IsVisible() bool { return g.visibility == types.Visible }
func (g *Grid) IsRegularTab() bool { return g.tabType == types.Regular }
func (g *Grid) IsQuadTab() bool { return !g.IsRegularTab() }
func (g *Grid) IsInFolder() bool { return g.folder == types.InFolder }
func (g *Grid) IsNotInFolder() bool { return !g.IsInFolder() }
func (g *Grid) MarginY() float64 { return g.marginY }
func (g *Grid) Bounds() (types.OverlayRect, bool) { return g.bounds, g.placed }

func (g *Grid) Snapshot() Snapshot {
	return Snapshot{
		TabName:    g.tabName,
		Top:        g.top,
		Left:       g.left,
		TabType:    g.tabType,
		Folder:     g.folder,
		Visibility: g.visibility,
		Bounds:     g.bounds,
		Placed:     g.placed,
	}
}

func (g *Grid) setTop(v int) {
	g.top = v
	g.notify(PropTop)
}

func (g *Grid) setLeft(v int) {
	g.left = v
	g.notify(PropLeft)
}

func (g *Grid) setTabType(t types.StashTabType) {
	g.tabType = t
	g.notify(PropIsRegularTab, PropIsQuadTab)
}

func (g *Grid) setFolder(f types.Folder) {
	g.folder = f
	g.notify(PropIsInFolder, PropIsNotInFolder)
}

func (g *Grid) setVisibility(v types.Visibility) {
	g.visibility = v
	if g.view != nil {
		g.viewErr(g.view.SetVisible(v == types.Visible))
	}
	g.notify(PropIsVisible)

	// showing may reset the position
	if v == types.Visible {
		g.setWindowPosition()
	}
}

func (g *Grid) notify(props ...string) {
	for _, p := range props {
		g.Changed.Publish(p)
	}
}

func (g *Grid) viewErr(err error) {
	if err != nil && g.OnError != nil {
		g.OnError(err)
	}
}
