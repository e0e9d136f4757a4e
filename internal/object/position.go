package object

import "math"

// Position is a point with a facing.
type Position struct {
	X, Y, Z float64
	O       float64
}

func NewPosition(x, y, z, o float64) Position {
	return Position{X: x, Y: y, Z: z, O: NormalizeOrientation(o)}
}

// NormalizeOrientation maps o into [0, 2π).
func NormalizeOrientation(o float64) float64 {
	o = math.Mod(o, 2*math.Pi)
	if o < 0 {
		o += 2 * math.Pi
	}
	return o
}

func (p Position) Distance2D(o Position) float64 {
	return math.Hypot(p.X-o.X, p.Y-o.Y)
}

func (p Position) Distance(o Position) float64 {
	dx, dy, dz := p.X-o.X, p.Y-o.Y, p.Z-o.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// IsWithinDist reports whether o is within d of p.
func (p Position) IsWithinDist(o Position, d float64, is3D bool) bool {
	if is3D {
		return p.Distance(o) <= d
	}
	return p.Distance2D(o) <= d
}

// AngleTo is the absolute angle from p to o.
func (p Position) AngleTo(o Position) float64 {
	return NormalizeOrientation(math.Atan2(o.Y-p.Y, o.X-p.X))
}

// HasInArc reports whether o lies within an arc of width arc centred on p's
// facing.
func (p Position) HasInArc(arc float64, o Position) bool {
	if p.X == o.X && p.Y == o.Y {
		return true
	}
	arc = NormalizeOrientation(arc)
	if arc == 0 {
		arc = 2 * math.Pi
	}

	angle := p.AngleTo(o) - p.O
	for angle > math.Pi {
		angle -= 2 * math.Pi
	}
	for angle < -math.Pi {
		angle += 2 * math.Pi
	}
	return angle >= -arc/2 && angle <= arc/2
}
