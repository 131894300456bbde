package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/rpc"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sahilm/fuzzy"
	"github.com/samber/lo"

	"github.com/pancsta/sway-stashgrid/internal/grid"
	"github.com/pancsta/sway-stashgrid/internal/logging"
	"github.com/pancsta/sway-stashgrid/internal/types"
)

const dialTimeout = 3 * time.Second

// RPC

type RPCArgs struct {
	Name string
	Left int
	Top  int
	Quad bool
	// TypeSet means Quad was passed explicitly, otherwise the stored type is
	// used.
	TypeSet bool
}

// RemoteMarker is an RPC method
func (d *Daemon) RemoteMarker(args RPCArgs, reply *string) error {
	log := logging.FromContext(d.ctx)

	typ := types.Regular
	if args.TypeSet {
		typ = lo.Ternary(args.Quad, types.Quad, types.Regular)
	} else if d.stash.IsQuadTab(args.Name) {
		typ = types.Quad
	}

	err := d.stash.RequestMarker(types.StashTabLocation{
		Name:         args.Name,
		Left:         args.Left,
		Top:          args.Top,
		StashTabType: typ,
	})
	if err != nil {
		log.Error().Err(err).Str("tab", args.Name).Msg("RemoteMarker")
		return err
	}
	if err := d.flush(); err != nil {
		return err
	}

	return d.RemoteStatus(args, reply)
}

// RemoteClose is an RPC method
func (d *Daemon) RemoteClose(_ RPCArgs, _ *string) error {
	d.stash.RequestClose()
	return d.flush()
}

// RemoteToggleTabType is an RPC method
func (d *Daemon) RemoteToggleTabType(args RPCArgs, reply *string) error {
	return d.toggle(args, reply, "RemoteToggleTabType", d.grid.ToggleTabType)
}

// RemoteToggleInFolder is an RPC method
func (d *Daemon) RemoteToggleInFolder(args RPCArgs, reply *string) error {
	return d.toggle(args, reply, "RemoteToggleInFolder", d.grid.ToggleInFolder)
}

func (d *Daemon) toggle(
	args RPCArgs, reply *string, method string, fn func(context.Context) error,
) error {
	var err error
	callErr := d.ui.Call(d.ctx, func() {
		err = fn(d.ctx)
	})
	if err = errors.Join(callErr, err); err != nil {
		logging.FromContext(d.ctx).Error().Err(err).Msg(method)
		return err
	}

	return d.RemoteStatus(args, reply)
}

// RemoteStatus is an RPC method
func (d *Daemon) RemoteStatus(_ RPCArgs, reply *string) error {
	var snap grid.Snapshot
	err := d.ui.Call(d.ctx, func() {
		snap = d.grid.Snapshot()
	})
	if err != nil {
		return err
	}
	*reply = formatStatus(snap)

	return nil
}

// RemoteTabs is an RPC method. A non-empty Name fuzzy-filters the tabs,
// best match first.
func (d *Daemon) RemoteTabs(args RPCArgs, reply *string) error {
	tabs, err := d.stash.Tabs(d.ctx)
	if err != nil {
		logging.FromContext(d.ctx).Error().Err(err).Msg("RemoteTabs")
		return err
	}
	tabs = filterTabs(tabs, args.Name)

	lines := lo.Map(tabs, func(t types.StashTab, _ int) string {
		return fmt.Sprintf("%-*s | %-7s | %s",
			lenName, maxLen(t.Name, lenName), t.TabType, types.FolderOf(t.InFolder))
	})
	*reply = strings.Join(lines, "\n")

	return nil
}

// RemoteCall calls an RPC method of the daemon listening on addr.
func RemoteCall(addr, method string, args RPCArgs) (string, error) {
	conn, err := net.DialTimeout("tcp", addr, dialTimeout)
	if err != nil {
		return "", fmt.Errorf("rpc connection error, is the daemon running? %w", err)
	}
	client := rpc.NewClient(conn)
	defer client.Close()

	var reply string
	err = client.Call("Daemon."+method, args, &reply)
	if err != nil {
		return "", err
	}

	return reply, nil
}

// SERVER

func (d *Daemon) serveRPC(ctx context.Context, l net.Listener) error {
	server := rpc.NewServer()
	if err := server.RegisterName("Daemon", d); err != nil {
		_ = l.Close()
		return fmt.Errorf("rpc register: %w", err)
	}

	go func() {
		<-ctx.Done()
		_ = l.Close()
	}()

	// returns after the listener gets closed
	server.Accept(l)
	if ctx.Err() != nil {
		return nil
	}

	return errors.New("rpc listener closed")
}

// ///// ///// /////
// ///// HELPERS
// ///// ///// /////

const lenName = 24

func formatStatus(s grid.Snapshot) string {
	bounds := "not placed"
	if s.Placed {
		bounds = s.Bounds.String()
	}

	return fmt.Sprintf("tab:      %s\n"+
		"type:     %s\n"+
		"folder:   %s\n"+
		"overlay:  %s\n"+
		"marker:   %d,%d\n"+
		"bounds:   %s",
		lo.Ternary(s.TabName == "", "-", s.TabName),
		s.TabType, s.Folder, s.Visibility, s.Left, s.Top, bounds)
}

type tabSource []types.StashTab

func (s tabSource) String(i int) string { return s[i].Name }
func (s tabSource) Len() int            { return len(s) }

func filterTabs(tabs []types.StashTab, query string) []types.StashTab {
	query = strings.TrimSpace(query)
	if query == "" {
		return tabs
	}

	matches := fuzzy.FindFrom(query, tabSource(tabs))
	return lo.Map(matches, func(m fuzzy.Match, _ int) types.StashTab {
		return tabs[m.Index]
	})
}

// maxLen cuts s to l runes.
func maxLen(s string, l int) string {
	if utf8.RuneCountInString(s) > l {
		return string([]rune(s)[:l-1]) + "…"
	}
	return s
}
