// Package tracker follows the geometry of the game window via sway IPC.
package tracker

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/Difrex/gosway/ipc"
	"github.com/pancsta/sway-stashgrid/internal/events"
	"github.com/pancsta/sway-stashgrid/internal/logging"
	"github.com/pancsta/sway-stashgrid/internal/types"
	"github.com/samber/lo"
)

// window changes which can move or resize the window
var geometryChanges = []string{"focus", "new", "move", "floating", "fullscreen_mode", "title"}

// Tracker tracks the last seen window matching Match (app ID, class or title) and
// publishes its geometry. Overlay windows (Skip) are never tracked.
type Tracker struct {
	Match string
	Skip  string

	changed *events.Bus[types.WindowInformation]
	conn    *ipc.SwayConnection

	mu        sync.Mutex
	tracked   types.WindowData
	isTracked bool
	last      types.WindowInformation
	published bool
}

func New(match, skip string) *Tracker {
	return &Tracker{
		Match:   match,
		Skip:    skip,
		changed: events.NewBus[types.WindowInformation](),
	}
}

// OnWindowInformationChanged subscribes fn to geometry changes. fn is called
// on the tracker's goroutine.
func (t *Tracker) OnWindowInformationChanged(fn func(types.WindowInformation)) *events.Subscription {
	return t.changed.Subscribe(fn)
}

// Current returns the last known geometry of the tracked window.
func (t *Tracker) Current() (types.WindowInformation, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.last, t.isTracked && t.published
}

// Tracked returns the tracked window.
func (t *Tracker) Tracked() (types.WindowData, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tracked, t.isTracked
}

// ///// ///// /////
// ///// SWAY
// ///// ///// /////

// Connect opens the IPC connection and looks for the window in the current
// tree.
func (t *Tracker) Connect(ctx context.Context) error {
	// TODO reconnect backoff?
	conn, err := ipc.NewSwayConnection()
	if err != nil {
		return fmt.Errorf("sway connection: %w", err)
	}
	t.conn = conn

	tree, err := conn.GetTree()
	if err != nil {
		return fmt.Errorf("sway tree: %w", err)
	}
	for _, output := range tree.Nodes {
		for _, workspace := range output.Nodes {
			for _, container := range workspace.Nodes {
				t.parseNode(&container, workspace.Name, output.Name)
			}
		}
	}

	if win, ok := t.Tracked(); ok {
		logging.FromContext(ctx).Info().Int("id", win.ID).Str("app", win.App).
			Msg("found the game window")
	}

	return nil
}

// Run listens for window events until ctx is done. Requires Connect.
func (t *Tracker) Run(ctx context.Context) error {
	log := logging.FromContext(ctx)

	subCon, err := ipc.NewSwayConnection()
	if err != nil {
		return fmt.Errorf("sway connection: %w", err)
	}

	// Subscribe only to the window related events
	_, err = subCon.SendCommand(ipc.IPC_SUBSCRIBE, `["window"]`)
	if err != nil {
		return fmt.Errorf("sway subscribe: %w", err)
	}

	s := subCon.Subscribe()
	defer s.Close()

	log.Info().Str("match", t.Match).Msg("listening for sway events...")

	for {
		select {

		case <-ctx.Done():
			return nil

		case event := <-s.Events:
			log.Trace().Str("change", string(event.Change)).Int("id", event.Container.ID).
				Msg("event")
			t.handleEvent(event.Change, &event.Container)

		case err := <-s.Errors:
			// TODO reconnect / backoff
			log.Error().Err(err).Msg("sway event error")
		}
	}
}

// SwayMsg runs a formatted sway command.
func (t *Tracker) SwayMsg(msg string, args ...any) error {
	if t.conn == nil {
		return fmt.Errorf("not connected to sway")
	}
	cmd := fmt.Sprintf(msg, args...)
	_, err := t.conn.RunSwayCommand(cmd)
	if err != nil {
		return fmt.Errorf("swaymsg %q: %w", cmd, err)
	}

	return nil
}

func (t *Tracker) SwayMsgs(msgs []string) error {
	for _, msg := range msgs {
		if err := t.SwayMsg("%s", msg); err != nil {
			return err
		}
	}

	return nil
}

func (t *Tracker) parseNode(con *ipc.Node, space, output string) {
	isWin := con.Layout != "splith" && con.Layout != "splitv" &&
		con.Layout != "tabbed" && con.Layout != "stacked"

	if isWin {
		data := types.WindowData{
			ID:        int(con.ID),
			Output:    output,
			Workspace: space,
			Title:     con.Name,
			App:       con.WindowProperties.Class,
			Rect:      con.Rect,
		}
		if app, ok := con.AppID.(string); ok && app != "" {
			data.App = app
		}
		t.observe(data, "new")
	}

	for i := range con.Nodes {
		t.parseNode(&con.Nodes[i], space, output)
	}
}

func (t *Tracker) handleEvent(change ipc.ChangeEvent, con *ipc.Container) {
	t.observe(containerData(con), string(change))
}

func containerData(con *ipc.Container) types.WindowData {
	data := types.WindowData{
		ID:    con.ID,
		Title: con.Name,
		Rect:  con.Rect,
		App:   con.WindowProperties.Class,
	}
	if app, ok := con.AppID.(string); ok && app != "" {
		data.App = app
	}

	return data
}

// ///// ///// /////
// ///// TRACKING
// ///// ///// /////

// Matches says whether win is the game window.
func (t *Tracker) Matches(win types.WindowData) bool {
	if t.Match == "" {
		return false
	}
	if t.Skip != "" && win.Title == t.Skip {
		return false
	}
	match := strings.ToLower(t.Match)

	return strings.Contains(strings.ToLower(win.App), match) ||
		strings.Contains(strings.ToLower(win.Title), match)
}

func (t *Tracker) observe(win types.WindowData, change string) {
	t.mu.Lock()

	if change == "close" {
		if t.isTracked && win.ID == t.tracked.ID {
			t.isTracked = false
			t.published = false
			t.tracked = types.WindowData{}
		}
		t.mu.Unlock()
		return
	}

	isGeometry := lo.Contains(geometryChanges, change)
	isSame := t.isTracked && win.ID == t.tracked.ID
	if !isGeometry || (!isSame && !t.Matches(win)) {
		t.mu.Unlock()
		return
	}

	// keep the known output / workspace, events don't carry them
	if isSame {
		if win.Output == "" {
			win.Output = t.tracked.Output
		}
		if win.Workspace == "" {
			win.Workspace = t.tracked.Workspace
		}
	}
	t.tracked = win
	t.isTracked = true

	info := types.WindowInformationFromRect(win.Rect)
	if t.published && info == t.last {
		t.mu.Unlock()
		return
	}
	t.last = info
	t.published = true
	t.mu.Unlock()

	t.changed.Publish(info)
}
