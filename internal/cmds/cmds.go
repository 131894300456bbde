package cmds

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"strconv"
	"strings"
	"syscall"

	"github.com/lithammer/dedent"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/pancsta/sway-stashgrid/internal/config"
	"github.com/pancsta/sway-stashgrid/internal/daemon"
	"github.com/pancsta/sway-stashgrid/internal/logging"
	"github.com/pancsta/sway-stashgrid/internal/stash"
)

var usage = strings.Trim(dedent.Dedent(`
	sway-stashgrid: stash tab grid overlay for sway

	Daemon placing a grid overlay over the game's stash tab, following the game
	window. The game (or a helper script) calls the CLI to show the marker.

	Usage:

	$ sway-stashgrid daemon
	$ sway-stashgrid marker "Currency" 4 7 --quad
	$ sway-stashgrid toggle-folder
	$ sway-stashgrid close
	$ sway-stashgrid help`), " \n")

// ///// ///// /////
// ///// COBRAS
// ///// ///// /////

func GetRootCmd(logger zerolog.Logger) *cobra.Command {

	cmdDaemon := &cobra.Command{
		Use:   "daemon",
		Short: "Start tracking the game window in sway",
		RunE:  cmdDaemon(logger),
		Args:  cobra.NoArgs,
	}

	cmdMarker := &cobra.Command{
		Use:     "marker NAME LEFT TOP",
		Short:   "Show the grid with a marker on a stash tab",
		Long:    "Show the grid with a marker at LEFT,TOP (1-based cells) of the stash tab NAME.",
		Example: `sway-stashgrid marker "Currency" 4 7 --quad`,
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			rpcArgs, err := parseMarkerArgs(cmd, args)
			if err != nil {
				return err
			}
			return remote(cmd, "RemoteMarker", rpcArgs)
		},
	}
	cmdMarker.Flags().Bool("quad", false,
		"Quad tab (24x24), defaults to the stored type of the tab")

	cmdClose := &cobra.Command{
		Use:   "close",
		Short: "Hide the grid",
		Args:  cobra.NoArgs,
		RunE:  remoteCmd("RemoteClose"),
	}

	cmdToggleType := &cobra.Command{
		Use:   "toggle-type",
		Short: "Switch the current tab between regular and quad",
		Args:  cobra.NoArgs,
		RunE:  remoteCmd("RemoteToggleTabType"),
	}

	cmdToggleFolder := &cobra.Command{
		Use:   "toggle-folder",
		Short: "Move the current tab in or out of a folder",
		Args:  cobra.NoArgs,
		RunE:  remoteCmd("RemoteToggleInFolder"),
	}

	cmdStatus := &cobra.Command{
		Use:   "status",
		Short: "Print the grid state",
		Args:  cobra.NoArgs,
		RunE:  remoteCmd("RemoteStatus"),
	}

	cmdTabs := &cobra.Command{
		Use:   "tabs [QUERY]",
		Short: "List the stored stash tabs, optionally fuzzy-filtered",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var query string
			if len(args) > 0 {
				query = args[0]
			}
			return remote(cmd, "RemoteTabs", daemon.RPCArgs{Name: query})
		},
	}

	var rootCmd = &cobra.Command{
		Use:           "sway-stashgrid",
		Long:          usage,
		RunE:          cmdRoot,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(cmdDaemon, cmdMarker, cmdClose, cmdToggleType, cmdToggleFolder,
		cmdStatus, cmdTabs)
	rootCmd.Flags().Bool("version", false,
		"Print version and exit")
	rootCmd.PersistentFlags().String("config", "",
		"Config file, defaults to $XDG_CONFIG_HOME/sway-stashgrid/config.toml")
	rootCmd.PersistentFlags().String("addr", "",
		"RPC address of the daemon, defaults to rpc.addr from the config")

	return rootCmd
}

func cmdDaemon(logger zerolog.Logger) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		mgr, err := loadConfig(cmd)
		if err != nil {
			logger.Error().Err(err).Msg("config")
			return err
		}
		cfg := mgr.Get()

		// the config decides the format, env wins for the level
		level := cfg.Logging.Level
		if env := os.Getenv("STASHGRID_LOG_LEVEL"); env != "" {
			level = env
		}
		log := logging.NewFromConfigValues(level, cfg.Logging.Format)
		log.Info().Str("config", mgr.Path()).Msg("Starting the daemon")

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		ctx = logging.WithContext(ctx, log)

		return daemon.New(mgr).Start(ctx)
	}
}

// ///// ///// /////
// ///// CLIENT CMDS
// ///// ///// /////

func remoteCmd(method string) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		return remote(cmd, method, daemon.RPCArgs{})
	}
}

func remote(cmd *cobra.Command, method string, args daemon.RPCArgs) error {
	addr, err := rpcAddr(cmd)
	if err != nil {
		return err
	}

	result, err := daemon.RemoteCall(addr, method, args)
	if err != nil {
		return fmt.Errorf("rpc error: %w", err)
	}
	if result != "" {
		fmt.Fprintln(cmd.OutOrStdout(), result)
	}

	return nil
}

func parseMarkerArgs(cmd *cobra.Command, args []string) (daemon.RPCArgs, error) {
	name := strings.TrimSpace(args[0])
	if name == "" {
		return daemon.RPCArgs{}, stash.ErrEmptyName
	}

	left, err := strconv.Atoi(args[1])
	if err != nil {
		return daemon.RPCArgs{}, fmt.Errorf("LEFT: %w", err)
	}
	top, err := strconv.Atoi(args[2])
	if err != nil {
		return daemon.RPCArgs{}, fmt.Errorf("TOP: %w", err)
	}

	quad, _ := cmd.Flags().GetBool("quad")

	return daemon.RPCArgs{
		Name:    name,
		Left:    left,
		Top:     top,
		Quad:    quad,
		TypeSet: cmd.Flags().Changed("quad"),
	}, nil
}

// ///// ///// /////
// ///// OTHER CMDS
// ///// ///// /////

func cmdRoot(cmd *cobra.Command, _ []string) error {
	version, _ := cmd.Flags().GetBool("version")

	if !version {
		fmt.Fprintln(cmd.OutOrStdout(), usage)
		return nil
	}

	build, ok := debug.ReadBuildInfo()
	if !ok {
		return fmt.Errorf("no build info available")
	}
	fmt.Fprintln(cmd.OutOrStdout(), build.Main.Version)

	return nil
}

// ///// ///// /////
// ///// HELPERS
// ///// ///// /////

func loadConfig(cmd *cobra.Command) (*config.Manager, error) {
	path, _ := cmd.Flags().GetString("config")
	mgr, err := config.NewManager(path)
	if err != nil {
		return nil, err
	}
	if err := mgr.Load(); err != nil {
		return nil, err
	}

	return mgr, nil
}

func rpcAddr(cmd *cobra.Command) (string, error) {
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		return addr, nil
	}

	mgr, err := loadConfig(cmd)
	if err != nil {
		return "", err
	}

	return mgr.Get().RPC.Addr, nil
}
