// Package stash keeps the stash tab settings and announces marker requests.
package stash

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/pancsta/sway-stashgrid/internal/events"
	"github.com/pancsta/sway-stashgrid/internal/logging"
	"github.com/pancsta/sway-stashgrid/internal/store"
	"github.com/pancsta/sway-stashgrid/internal/types"
	"github.com/samber/lo"
)

var ErrEmptyName = errors.New("stash tab name is empty")

// Store persists tab settings.
type Store interface {
	Tab(ctx context.Context, name string) (types.StashTab, error)
	UpsertTab(ctx context.Context, tab types.StashTab) error
	Tabs(ctx context.Context) ([]types.StashTab, error)
	QuadTabNames(ctx context.Context) ([]string, error)
}

type Service struct {
	NewMarkerRequested *events.Bus[types.StashTabLocation]
	CloseRequested     *events.Bus[struct{}]

	store Store
	mu    sync.Mutex
	quad  []string
}

// NewService loads the quad tab registry from s.
func NewService(ctx context.Context, s Store) (*Service, error) {
	quad, err := s.QuadTabNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("load quad tabs: %w", err)
	}

	return &Service{
		NewMarkerRequested: events.NewBus[types.StashTabLocation](),
		CloseRequested:     events.NewBus[struct{}](),
		store:              s,
		quad:               quad,
	}, nil
}

func (s *Service) OnNewMarker(fn func(types.StashTabLocation)) *events.Subscription {
	return s.NewMarkerRequested.Subscribe(fn)
}

func (s *Service) OnClose(fn func()) *events.Subscription {
	return s.CloseRequested.Subscribe(func(struct{}) { fn() })
}

// RequestMarker shows the grid for the given location.
func (s *Service) RequestMarker(loc types.StashTabLocation) error {
	if loc.Name == "" {
		return ErrEmptyName
	}
	s.NewMarkerRequested.Publish(loc)
	return nil
}

// RequestClose hides the grid.
func (s *Service) RequestClose() {
	s.CloseRequested.Publish(struct{}{})
}

// AddQuadTab marks the tab as quad, keeping its folder setting.
func (s *Service) AddQuadTab(ctx context.Context, name string) error {
	return s.setType(ctx, name, types.Quad)
}

// RemoveQuadTab marks the tab as regular, keeping its folder setting.
func (s *Service) RemoveQuadTab(ctx context.Context, name string) error {
	return s.setType(ctx, name, types.Regular)
}

func (s *Service) setType(ctx context.Context, name string, typ types.StashTabType) error {
	if name == "" {
		return ErrEmptyName
	}

	tab, err := s.Tab(ctx, name)
	if err != nil {
		return err
	}
	tab.TabType = typ

	return s.AddOrUpdateTab(ctx, tab)
}

// AddOrUpdateTab persists the tab settings and syncs the quad registry.
func (s *Service) AddOrUpdateTab(ctx context.Context, tab types.StashTab) error {
	if tab.Name == "" {
		return ErrEmptyName
	}

	log := logging.FromContext(ctx)
	if err := s.store.UpsertTab(ctx, tab); err != nil {
		return err
	}

	s.mu.Lock()
	if tab.TabType == types.Quad {
		if !lo.Contains(s.quad, tab.Name) {
			s.quad = append(s.quad, tab.Name)
		}
	} else {
		s.quad = lo.Without(s.quad, tab.Name)
	}
	s.mu.Unlock()

	log.Info().Str("tab", tab.Name).Bool("in_folder", tab.InFolder).
		Stringer("type", tab.TabType).Msg("stash tab updated")

	return nil
}

// Tab returns the stored settings of a tab, or the defaults for unknown tabs.
func (s *Service) Tab(ctx context.Context, name string) (types.StashTab, error) {
	tab, err := s.store.Tab(ctx, name)
	if errors.Is(err, store.ErrNotFound) {
		return types.StashTab{Name: name, TabType: types.Regular}, nil
	}
	if err != nil {
		return types.StashTab{}, err
	}
	return tab, nil
}

func (s *Service) Tabs(ctx context.Context) ([]types.StashTab, error) {
	return s.store.Tabs(ctx)
}

func (s *Service) IsQuadTab(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return lo.Contains(s.quad, name)
}

func (s *Service) QuadTabs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.quad...)
}
