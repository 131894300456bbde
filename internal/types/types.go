package types

import (
	"fmt"
	"strings"

	"github.com/Difrex/gosway/ipc"
)

// WindowData is a snapshot of a sway window.
type WindowData struct {
	ID        int
	Output    string
	Workspace string
	Title     string
	App       string
	Rect      ipc.Rect
}

// Position is a top-left screen coordinate, in pixels.
type Position struct {
	Top  float64
	Left float64
}

// WindowInformation is the geometry of the tracked game window.
type WindowInformation struct {
	Position Position
	Height   float64
}

// WindowInformationFromRect converts a sway rect into window information.
func WindowInformationFromRect(r ipc.Rect) WindowInformation {
	return WindowInformation{
		Position: Position{Top: float64(r.Y), Left: float64(r.X)},
		Height:   float64(r.Height),
	}
}

// OverlayRect is where the grid overlay should be drawn.
type OverlayRect struct {
	Top    float64
	Left   float64
	Width  float64
	Height float64
}

func (r OverlayRect) String() string {
	return fmt.Sprintf("%.0fx%.0f+%.0f+%.0f", r.Width, r.Height, r.Left, r.Top)
}

// StashTabLocation is a detected marker of a stash tab on screen.
type StashTabLocation struct {
	Name         string
	Left         int
	Top          int
	StashTabType StashTabType
}

// StashTab holds the persisted settings of a single stash tab.
type StashTab struct {
	Name     string
	InFolder bool
	TabType  StashTabType
}

// ///// ///// /////
// ///// ENUMS
// ///// ///// /////

// StashTabType is the grid size of a tab: regular (12x12) or quad (24x24).
type StashTabType int

const (
	Regular StashTabType = iota
	Quad
)

func (t StashTabType) String() string {
	switch t {
	case Quad:
		return "quad"
	default:
		return "regular"
	}
}

// Toggle returns the other tab type.
func (t StashTabType) Toggle() StashTabType {
	if t == Quad {
		return Regular
	}
	return Quad
}

// ParseStashTabType parses "regular" or "quad".
func ParseStashTabType(s string) (StashTabType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "regular", "":
		return Regular, nil
	case "quad":
		return Quad, nil
	}
	return Regular, fmt.Errorf("unknown stash tab type %q", s)
}

// Folder says whether a tab is nested in a folder, which shifts it down.
type Folder int

const (
	NotInFolder Folder = iota
	InFolder
)

// FolderOf maps the persisted in_folder flag.
func FolderOf(inFolder bool) Folder {
	if inFolder {
		return InFolder
	}
	return NotInFolder
}

func (f Folder) String() string {
	if f == InFolder {
		return "in-folder"
	}
	return "not-in-folder"
}

// Toggle returns the other folder value.
func (f Folder) Toggle() Folder {
	if f == InFolder {
		return NotInFolder
	}
	return InFolder
}

// ParseFolder parses "in-folder" or "not-in-folder".
func ParseFolder(s string) (Folder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "not-in-folder", "":
		return NotInFolder, nil
	case "in-folder":
		return InFolder, nil
	}
	return NotInFolder, fmt.Errorf("unknown folder %q", s)
}

// Visibility of the overlay.
type Visibility int

const (
	Hidden Visibility = iota
	Visible
)

func (v Visibility) String() string {
	if v == Visible {
		return "visible"
	}
	return "hidden"
}

// ParseVisibility parses "visible" or "hidden".
func ParseVisibility(s string) (Visibility, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "hidden", "":
		return Hidden, nil
	case "visible":
		return Visible, nil
	}
	return Hidden, fmt.Errorf("unknown visibility %q", s)
}
