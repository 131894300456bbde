package scaling

import "math"

// Display converts logical overlay values into output coordinates, by dividing
// them with the output's scale factor.
type Display struct {
	FactorX float64
	FactorY float64
}

// New returns a Display for the given factors. Non-positive or non-finite
// factors fall back to 1.
func New(factorX, factorY float64) *Display {
	return &Display{FactorX: sanitize(factorX), FactorY: sanitize(factorY)}
}

func (d *Display) ApplyScalingX(v float64) float64 {
	return v / sanitize(d.FactorX)
}

func (d *Display) ApplyScalingY(v float64) float64 {
	return v / sanitize(d.FactorY)
}

func sanitize(f float64) float64 {
	if f <= 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return 1
	}
	return f
}
