package daemon

import (
	"context"
	"net"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pancsta/sway-stashgrid/internal/config"
	"github.com/pancsta/sway-stashgrid/internal/logging"
	"github.com/pancsta/sway-stashgrid/internal/store"
	"github.com/pancsta/sway-stashgrid/internal/types"
)

// newTestDaemon runs everything except sway and returns the RPC address.
func newTestDaemon(t *testing.T) (*Daemon, string) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	ctx = logging.WithContext(ctx, zerolog.Nop())

	st, err := store.Open(ctx, filepath.Join(t.TempDir(), "tabs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	d := New(nil)
	require.NoError(t, d.init(ctx, st, config.Default()))
	t.Cleanup(d.grid.Close)
	go func() { _ = d.ui.Run(ctx) }()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = d.serveRPC(ctx, l) }()

	return d, l.Addr().String()
}

func TestRemoteMarker(t *testing.T) {
	d, addr := newTestDaemon(t)

	reply, err := RemoteCall(addr, "RemoteMarker", RPCArgs{Name: "T1", Left: 100, Top: 200})
	require.NoError(t, err)

	assert.Contains(t, reply, "tab:      T1")
	assert.Contains(t, reply, "type:     regular")
	assert.Contains(t, reply, "overlay:  visible")
	assert.Contains(t, reply, "marker:   99,199")
	assert.Contains(t, reply, "bounds:   not placed")

	var snap types.Visibility
	require.NoError(t, d.ui.Call(d.ctx, func() { snap = d.grid.Visibility() }))
	assert.Equal(t, types.Visible, snap)
}

func TestRemoteMarker_EmptyName(t *testing.T) {
	_, addr := newTestDaemon(t)

	_, err := RemoteCall(addr, "RemoteMarker", RPCArgs{Left: 1, Top: 1})
	assert.ErrorContains(t, err, "name is empty")
}

func TestRemoteClose(t *testing.T) {
	_, addr := newTestDaemon(t)

	_, err := RemoteCall(addr, "RemoteMarker", RPCArgs{Name: "T1", Left: 1, Top: 1})
	require.NoError(t, err)
	_, err = RemoteCall(addr, "RemoteClose", RPCArgs{})
	require.NoError(t, err)

	reply, err := RemoteCall(addr, "RemoteStatus", RPCArgs{})
	require.NoError(t, err)
	assert.Contains(t, reply, "overlay:  hidden")
	assert.Contains(t, reply, "tab:      T1")
}

func TestRemoteToggleTabType_Persists(t *testing.T) {
	d, addr := newTestDaemon(t)

	_, err := RemoteCall(addr, "RemoteMarker", RPCArgs{Name: "Currency", Left: 1, Top: 1})
	require.NoError(t, err)
	reply, err := RemoteCall(addr, "RemoteToggleTabType", RPCArgs{})
	require.NoError(t, err)
	assert.Contains(t, reply, "type:     quad")
	assert.True(t, d.stash.IsQuadTab("Currency"))

	// the stored type is used when not passed
	_, err = RemoteCall(addr, "RemoteClose", RPCArgs{})
	require.NoError(t, err)
	reply, err = RemoteCall(addr, "RemoteMarker", RPCArgs{Name: "Currency", Left: 1, Top: 1})
	require.NoError(t, err)
	assert.Contains(t, reply, "type:     quad")

	// explicit type wins
	reply, err = RemoteCall(addr, "RemoteMarker",
		RPCArgs{Name: "Currency", Left: 1, Top: 1, TypeSet: true})
	require.NoError(t, err)
	assert.Contains(t, reply, "type:     regular")
}

func TestRemoteToggleInFolder(t *testing.T) {
	_, addr := newTestDaemon(t)

	_, err := RemoteCall(addr, "RemoteMarker", RPCArgs{Name: "Maps", Left: 1, Top: 1})
	require.NoError(t, err)
	reply, err := RemoteCall(addr, "RemoteToggleInFolder", RPCArgs{})
	require.NoError(t, err)
	assert.Contains(t, reply, "folder:   in-folder")

	tabs, err := RemoteCall(addr, "RemoteTabs", RPCArgs{})
	require.NoError(t, err)
	assert.Contains(t, tabs, "Maps")
	assert.Contains(t, tabs, "| in-folder")
}

func TestRemoteTabs_Filter(t *testing.T) {
	_, addr := newTestDaemon(t)

	for _, name := range []string{"Currency", "Maps", "Dump"} {
		_, err := RemoteCall(addr, "RemoteMarker", RPCArgs{Name: name, Left: 1, Top: 1})
		require.NoError(t, err)
		_, err = RemoteCall(addr, "RemoteToggleInFolder", RPCArgs{})
		require.NoError(t, err)
	}

	all, err := RemoteCall(addr, "RemoteTabs", RPCArgs{})
	require.NoError(t, err)
	assert.Len(t, strings.Split(all, "\n"), 3)

	filtered, err := RemoteCall(addr, "RemoteTabs", RPCArgs{Name: "cur"})
	require.NoError(t, err)
	assert.Contains(t, filtered, "Currency")
	assert.NotContains(t, filtered, "Maps")
}

func TestFilterTabs(t *testing.T) {
	tabs := []types.StashTab{{Name: "Maps"}, {Name: "Map Dump"}, {Name: "Currency"}}

	assert.Equal(t, tabs, filterTabs(tabs, " "))
	got := filterTabs(tabs, "mp")
	require.Len(t, got, 2)
	assert.NotContains(t, got, types.StashTab{Name: "Currency"})
	assert.Empty(t, filterTabs(tabs, "xyz"))
}

func TestApplyConfig(t *testing.T) {
	d, _ := newTestDaemon(t)

	cfg := config.Default()
	cfg.Overlay.MarginY = 15
	d.applyConfig(cfg)

	var margin float64
	require.NoError(t, d.ui.Call(d.ctx, func() { margin = d.grid.MarginY() }))
	assert.Equal(t, 15.0, margin)
}

func TestRemoteCall_NoDaemon(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	_, err = RemoteCall(addr, "RemoteStatus", RPCArgs{})
	assert.ErrorContains(t, err, "is the daemon running")
}

func TestMaxLen(t *testing.T) {
	assert.Equal(t, "abc", maxLen("abc", 3))
	assert.Equal(t, "ab…", maxLen("abcd", 3))

	name := strings.Repeat("А", 25)
	got := maxLen(name, lenName)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, lenName, utf8.RuneCountInString(got))
	assert.Equal(t, "ЖЖ", maxLen("ЖЖ", 3))
}

func TestRemoteMarker_KeepsFolder(t *testing.T) {
	_, addr := newTestDaemon(t)

	_, err := RemoteCall(addr, "RemoteMarker", RPCArgs{Name: "Maps", Left: 1, Top: 1})
	require.NoError(t, err)
	_, err = RemoteCall(addr, "RemoteToggleInFolder", RPCArgs{})
	require.NoError(t, err)

	// the folder value belongs to the grid, not to the stored tab
	reply, err := RemoteCall(addr, "RemoteMarker", RPCArgs{Name: "Currency", Left: 1, Top: 1})
	require.NoError(t, err)
	assert.Contains(t, reply, "folder:   in-folder")

	tabs, err := RemoteCall(addr, "RemoteTabs", RPCArgs{})
	require.NoError(t, err)
	assert.NotContains(t, tabs, "Currency")
}
