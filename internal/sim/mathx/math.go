package mathx

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

func mix64(z uint64) uint64 {
	z += 0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

// Hash2 mixes a seed with two counters. Generators use it instead of a shared
// rand source so that a replayed world makes the same choices.
func Hash2(seed uint64, a, b uint32) uint64 {
	v := seed ^ (uint64(a) * 0x9e3779b97f4a7c15) ^ (uint64(b) * 0xbf58476d1ce4e5b9)
	return mix64(v)
}

// Unit maps h to [0, 1).
func Unit(h uint64) float32 {
	return float32(h>>40) / float32(1<<24)
}

// Range maps h to [lo, hi).
func Range(h uint64, lo, hi float32) float32 {
	return lo + (hi-lo)*Unit(h)
}

// Dist2D is the distance on the horizontal plane.
func Dist2D(a, b mgl32.Vec3) float32 {
	return math32.Hypot(a.X()-b.X(), a.Y()-b.Y())
}

// AngleTo is the horizontal angle from a towards b, in radians.
func AngleTo(a, b mgl32.Vec3) float32 {
	return NormalizeAngle(math32.Atan2(b.Y()-a.Y(), b.X()-a.X()))
}

// NormalizeAngle wraps o into [0, 2π).
func NormalizeAngle(o float32) float32 {
	const twoPi = 2 * math32.Pi
	o = math32.Mod(o, twoPi)
	if o < 0 {
		o += twoPi
	}
	return o
}

// NearPoint returns the point dist yards from origin at the given angle. z is kept.
func NearPoint(origin mgl32.Vec3, dist, angle float32) mgl32.Vec3 {
	return mgl32.Vec3{
		origin.X() + dist*math32.Cos(angle),
		origin.Y() + dist*math32.Sin(angle),
		origin.Z(),
	}
}
