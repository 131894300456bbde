package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/pancsta/sway-stashgrid/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTest(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "db", "tabs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_UpsertAndGet(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)

	_, err := s.Tab(ctx, "currency")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.UpsertTab(ctx, types.StashTab{Name: "currency", TabType: types.Quad}))
	tab, err := s.Tab(ctx, "currency")
	require.NoError(t, err)
	assert.Equal(t, types.StashTab{Name: "currency", TabType: types.Quad}, tab)

	require.NoError(t, s.UpsertTab(ctx, types.StashTab{Name: "currency", InFolder: true}))
	tab, err = s.Tab(ctx, "currency")
	require.NoError(t, err)
	assert.True(t, tab.InFolder)
	assert.Equal(t, types.Regular, tab.TabType)
}

func TestStore_Lists(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)

	require.NoError(t, s.UpsertTab(ctx, types.StashTab{Name: "b", TabType: types.Quad}))
	require.NoError(t, s.UpsertTab(ctx, types.StashTab{Name: "a", InFolder: true}))
	require.NoError(t, s.UpsertTab(ctx, types.StashTab{Name: "c", TabType: types.Quad}))

	tabs, err := s.Tabs(ctx)
	require.NoError(t, err)
	require.Len(t, tabs, 3)
	assert.Equal(t, "a", tabs[0].Name)
	assert.True(t, tabs[0].InFolder)

	quad, err := s.QuadTabNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, quad)
}

func TestOpen_EmptyPath(t *testing.T) {
	_, err := Open(context.Background(), "")
	assert.Error(t, err)
}
