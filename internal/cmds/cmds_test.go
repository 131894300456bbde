package cmds

import (
	"bytes"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pancsta/sway-stashgrid/internal/daemon"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := GetRootCmd(zerolog.Nop())
	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetErr(out)
	root.SetArgs(args)

	err := root.Execute()
	return out.String(), err
}

func markerCmd(t *testing.T, flags ...string) (*daemon.RPCArgs, error) {
	t.Helper()
	root := GetRootCmd(zerolog.Nop())
	cmd, _, err := root.Find([]string{"marker"})
	require.NoError(t, err)
	require.NoError(t, cmd.Flags().Parse(flags))

	args := cmd.Flags().Args()
	rpcArgs, err := parseMarkerArgs(cmd, args)
	if err != nil {
		return nil, err
	}
	return &rpcArgs, nil
}

func TestRoot_Usage(t *testing.T) {
	out, err := execute(t)

	require.NoError(t, err)
	assert.Contains(t, out, "sway-stashgrid: stash tab grid overlay for sway")
	assert.Contains(t, out, "$ sway-stashgrid daemon")
}

func TestRoot_Commands(t *testing.T) {
	root := GetRootCmd(zerolog.Nop())

	for _, name := range []string{
		"daemon", "marker", "close", "toggle-type", "toggle-folder", "status", "tabs",
	} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}
}

func TestParseMarkerArgs(t *testing.T) {
	args, err := markerCmd(t, "Currency", "4", "7")
	require.NoError(t, err)
	assert.Equal(t, daemon.RPCArgs{Name: "Currency", Left: 4, Top: 7}, *args)

	args, err = markerCmd(t, "--quad", "Dump", "24", "1")
	require.NoError(t, err)
	assert.Equal(t, daemon.RPCArgs{Name: "Dump", Left: 24, Top: 1, Quad: true, TypeSet: true}, *args)

	args, err = markerCmd(t, "--quad=false", "Dump", "1", "1")
	require.NoError(t, err)
	assert.False(t, args.Quad)
	assert.True(t, args.TypeSet)
}

func TestParseMarkerArgs_Invalid(t *testing.T) {
	_, err := markerCmd(t, "Currency", "x", "7")
	assert.ErrorContains(t, err, "LEFT")

	_, err = markerCmd(t, "Currency", "1", "1.5")
	assert.ErrorContains(t, err, "TOP")

	_, err = markerCmd(t, " ", "1", "1")
	assert.ErrorContains(t, err, "empty")
}

func TestMarker_ArgCount(t *testing.T) {
	_, err := execute(t, "marker", "Currency", "1")
	assert.Error(t, err)
}

func TestClient_NoDaemon(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	_, err = execute(t, "status", "--addr", addr)
	assert.ErrorContains(t, err, "rpc error")
}

func TestClient_AddrFromConfig(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[rpc]\naddr = \""+addr+"\"\n"), 0o600))

	_, err = execute(t, "close", "--config", path)
	assert.ErrorContains(t, err, addr)
}
