// Package placement computes where the stash grid overlay goes, relative to the
// game window. All the reference values were measured on a 1119px tall window.
package placement

import "github.com/pancsta/sway-stashgrid/internal/types"

const (
	DefaultSize       = 637
	DefaultTabHeight  = 1119
	DefaultLeftMargin = 17
	DefaultTopMargin  = 154
	// vertical shift of a tab nested in a folder
	FolderOffset = 42
	FooterHeight = 50
)

// Scaler adjusts logical values to the display scale.
type Scaler interface {
	ApplyScalingX(v float64) float64
	ApplyScalingY(v float64) float64
}

// Place returns the overlay rectangle for the given window. marginY is
// subtracted from the top (window decorations).
func Place(win types.WindowInformation, folder types.Folder, marginY float64) types.OverlayRect {
	h := win.Height
	size := scale(DefaultSize, h)
	leftMargin := scale(DefaultLeftMargin, h)
	topMargin := scale(DefaultTopMargin, h)

	top := win.Position.Top + topMargin - marginY
	if folder == types.InFolder {
		top += scale(FolderOffset, h)
	}

	return types.OverlayRect{
		Top:    top,
		Left:   win.Position.Left + leftMargin,
		Width:  size,
		Height: size + FooterHeight,
	}
}

// Scaled passes every coordinate of r through s.
func Scaled(r types.OverlayRect, s Scaler) types.OverlayRect {
	return types.OverlayRect{
		Top:    s.ApplyScalingY(r.Top),
		Left:   s.ApplyScalingX(r.Left),
		Width:  s.ApplyScalingX(r.Width),
		Height: s.ApplyScalingY(r.Height),
	}
}

// multiply first, so the reference height gives exact values
func scale(v, height float64) float64 {
	return v * height / DefaultTabHeight
}
