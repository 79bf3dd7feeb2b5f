package arena

import "math"

// ToroidalDelta returns the shortest vector from (x2, y2) to (x1, y1) on a
// torus of the given dimensions.
func ToroidalDelta(x1, y1, x2, y2, w, h float32) (dx, dy float32) {
	dx = x1 - x2
	dy = y1 - y2

	if dx > w/2 {
		dx -= w
	} else if dx < -w/2 {
		dx += w
	}
	if dy > h/2 {
		dy -= h
	} else if dy < -h/2 {
		dy += h
	}
	return dx, dy
}

// wrap maps v into [0, limit).
func wrap(v, limit float32) float32 {
	v = float32(math.Mod(float64(v), float64(limit)))
	if v < 0 {
		v += limit
	}
	return v
}

// normalizeAngle maps an angle into [-pi, pi].
func normalizeAngle(a float32) float32 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a < -math.Pi {
		a += 2 * math.Pi
	}
	return a
}

func cosf(a float32) float32 {
	return float32(math.Cos(float64(a)))
}

func sinf(a float32) float32 {
	return float32(math.Sin(float64(a)))
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
