package arena

import (
	"math"
	"math/rand"
)

// ResourceField is a continuous food source on a torus, built from Gaussian
// hotspots. Each hotspot has an amplitude that depletes as actors graze near
// it and regrows toward full strength, and the hotspot centers drift slowly
// so camping a single patch never pays forever.
type ResourceField struct {
	centers []hotspot
	sigma   float32
	width   float32
	height  float32

	regrowRate float32 // amplitude per second toward 1
	driftSpeed float32 // world units per second
}

type hotspot struct {
	X, Y   float32
	Amp    float32
	driftX float32
	driftY float32
}

// NewResourceField creates a resource field with randomly placed hotspots at
// full amplitude.
func NewResourceField(w, h float32, numHotspots int, rng *rand.Rand) *ResourceField {
	minDim := w
	if h < minDim {
		minDim = h
	}

	rf := &ResourceField{
		centers:    make([]hotspot, numHotspots),
		sigma:      minDim * 0.08,
		width:      w,
		height:     h,
		regrowRate: 0.05,
		driftSpeed: minDim * 0.005,
	}

	for i := range rf.centers {
		angle := rng.Float64() * 2 * math.Pi
		rf.centers[i] = hotspot{
			X:      rng.Float32() * w,
			Y:      rng.Float32() * h,
			Amp:    1,
			driftX: float32(math.Cos(angle)),
			driftY: float32(math.Sin(angle)),
		}
	}

	return rf
}

// Sample returns the resource density at (x, y) in [0, 1). Smooth saturation
// preserves gradient information when hotspots overlap.
func (rf *ResourceField) Sample(x, y float32) float32 {
	var sum float32
	sigma2 := 2 * rf.sigma * rf.sigma

	for _, c := range rf.centers {
		dx, dy := ToroidalDelta(x, y, c.X, c.Y, rf.width, rf.height)
		d2 := dx*dx + dy*dy
		sum += c.Amp * float32(math.Exp(-float64(d2)/float64(sigma2)))
	}

	return 1 - float32(math.Exp(-float64(sum)))
}

// Graze removes up to rate*dt resource at (x, y), depleting the amplitudes
// of the contributing hotspots in proportion to their local contribution.
// Returns the energy actually removed.
func (rf *ResourceField) Graze(x, y, rate, dt float32) float32 {
	density := rf.Sample(x, y)
	if density <= 0 {
		return 0
	}

	removed := rate * dt * density
	sigma2 := 2 * rf.sigma * rf.sigma

	var totalContrib float32
	contribs := make([]float32, len(rf.centers))
	for i, c := range rf.centers {
		dx, dy := ToroidalDelta(x, y, c.X, c.Y, rf.width, rf.height)
		d2 := dx*dx + dy*dy
		contribs[i] = c.Amp * float32(math.Exp(-float64(d2)/float64(sigma2)))
		totalContrib += contribs[i]
	}
	if totalContrib <= 0 {
		return 0
	}

	// Deplete amplitude in proportion to how much each hotspot fed the graze.
	for i := range rf.centers {
		share := contribs[i] / totalContrib
		rf.centers[i].Amp -= removed * share
		if rf.centers[i].Amp < 0 {
			rf.centers[i].Amp = 0
		}
	}

	return removed
}

// Step regrows depleted hotspots and drifts their centers.
func (rf *ResourceField) Step(dt float32) {
	for i := range rf.centers {
		c := &rf.centers[i]
		if c.Amp < 1 {
			c.Amp += rf.regrowRate * dt
			if c.Amp > 1 {
				c.Amp = 1
			}
		}
		c.X = wrap(c.X+c.driftX*rf.driftSpeed*dt, rf.width)
		c.Y = wrap(c.Y+c.driftY*rf.driftSpeed*dt, rf.height)
	}
}

// Sigma returns the hotspot radius parameter.
func (rf *ResourceField) Sigma() float32 {
	return rf.sigma
}

// Width returns the field width.
func (rf *ResourceField) Width() float32 {
	return rf.width
}

// Height returns the field height.
func (rf *ResourceField) Height() float32 {
	return rf.height
}
