// Package display moves the overlay window with sway commands.
package display

import (
	"fmt"
	"math"

	"github.com/pancsta/sway-stashgrid/internal/types"
)

// MsgFunc runs a formatted sway command.
type MsgFunc func(msg string, args ...any) error

// SwayView is the overlay window matched by its title.
type SwayView struct {
	Title string
	msg   MsgFunc
	shown bool
	known bool
}

func NewSwayView(title string, msg MsgFunc) *SwayView {
	return &SwayView{Title: title, msg: msg}
}

// Autoconfig returns the sway rules making the overlay float on top of the
// game, without borders.
func Autoconfig(title string) []string {
	return []string{
		fmt.Sprintf(`for_window [title="%s"] floating enable`, title),
		fmt.Sprintf(`for_window [title="%s"] border none`, title),
		fmt.Sprintf(`for_window [title="%s"] sticky enable`, title),
	}
}

func (v *SwayView) criteria() string {
	return fmt.Sprintf(`[title="%s"]`, v.Title)
}

// SetBounds moves and resizes the overlay, rounded to whole pixels.
func (v *SwayView) SetBounds(r types.OverlayRect) error {
	err := v.msg(`%s move absolute position %d %d`, v.criteria(), px(r.Left), px(r.Top))
	if err != nil {
		return err
	}

	return v.msg(`%s resize set width %d px height %d px`, v.criteria(), px(r.Width), px(r.Height))
}

// SetVisible shows the overlay from the scratchpad, or hides it there.
func (v *SwayView) SetVisible(visible bool) error {
	if v.known && visible == v.shown {
		return nil
	}

	var err error
	if visible {
		err = v.msg(`%s scratchpad show`, v.criteria())
	} else {
		err = v.msg(`%s move scratchpad`, v.criteria())
	}
	if err != nil {
		return err
	}
	v.shown = visible
	v.known = true

	return nil
}

func px(v float64) int {
	return int(math.Round(v))
}
