package placement

import (
	"testing"

	"github.com/pancsta/sway-stashgrid/internal/types"
	"github.com/stretchr/testify/assert"
)

func win(top, left, height float64) types.WindowInformation {
	return types.WindowInformation{
		Position: types.Position{Top: top, Left: left},
		Height:   height,
	}
}

func TestPlace_ReferenceHeight(t *testing.T) {
	r := Place(win(0, 0, DefaultTabHeight), types.NotInFolder, 0)

	assert.Equal(t, 637.0, r.Width)
	assert.Equal(t, 687.0, r.Height)
	assert.Equal(t, 17.0, r.Left)
	assert.Equal(t, 154.0, r.Top)
}

func TestPlace_Offsets(t *testing.T) {
	r := Place(win(100, 200, DefaultTabHeight), types.NotInFolder, 30)

	assert.Equal(t, 100.0+154-30, r.Top)
	assert.Equal(t, 200.0+17, r.Left)
}

func TestPlace_LinearScaling(t *testing.T) {
	for _, h := range []float64{720, 1080, 1119, 1440} {
		one := Place(win(0, 0, h), types.InFolder, 0)
		two := Place(win(0, 0, 2*h), types.InFolder, 0)

		assert.InDelta(t, 2*one.Width, two.Width, 1e-9, "height %v", h)
		assert.InDelta(t, 2*one.Left, two.Left, 1e-9, "height %v", h)
		assert.InDelta(t, 2*one.Top, two.Top, 1e-9, "height %v", h)
		// footer is fixed
		assert.InDelta(t, two.Width+FooterHeight, two.Height, 1e-9)
	}
}

func TestPlace_FolderOffset(t *testing.T) {
	for _, h := range []float64{600, 1080, 1119, 2160} {
		w := win(40, 50, h)
		root := Place(w, types.NotInFolder, 8)
		nested := Place(w, types.InFolder, 8)

		assert.InDelta(t, FolderOffset*(h/DefaultTabHeight), nested.Top-root.Top, 1e-9)
		assert.Equal(t, root.Left, nested.Left)
		assert.Equal(t, root.Width, nested.Width)
		assert.Equal(t, root.Height, nested.Height)
	}
}

func TestPlace_Deterministic(t *testing.T) {
	w := win(13, 17, 1337)
	assert.Equal(t, Place(w, types.InFolder, 3), Place(w, types.InFolder, 3))
}

type halfScaler struct{}

func (halfScaler) ApplyScalingX(v float64) float64 { return v / 2 }
func (halfScaler) ApplyScalingY(v float64) float64 { return v / 4 }

func TestScaled(t *testing.T) {
	r := Scaled(types.OverlayRect{Top: 8, Left: 8, Width: 8, Height: 8}, halfScaler{})

	assert.Equal(t, types.OverlayRect{Top: 2, Left: 4, Width: 4, Height: 2}, r)
}
