package world

import (
	"github.com/chewxy/math32"

	"motionstack.dev/internal/sim/tuning"
)

// Terrain is a height field: a flat base with an optional sine hill pattern.
type Terrain struct {
	g tuning.Ground
}

func NewTerrain(g tuning.Ground) Terrain { return Terrain{g: g} }

func (t Terrain) HeightAt(x, y float32) float32 {
	h := t.g.BaseHeight
	if t.g.HillAmplitude == 0 || t.g.HillPeriod <= 0 {
		return h
	}
	k := 2 * math32.Pi / t.g.HillPeriod
	return h + t.g.HillAmplitude*math32.Sin(k*x)*math32.Cos(k*y)
}

// GroundHeight looks for ground below z. Ground above z, or deeper than
// maxSearch below it, is not found.
func (t Terrain) GroundHeight(x, y, z, maxSearch float32) (float32, bool) {
	h := t.HeightAt(x, y)
	if h > z+groundSlack || z-h > maxSearch {
		return 0, false
	}
	return h, true
}

// groundSlack lets a unit standing a hair below the surface still find it.
const groundSlack = 0.05
