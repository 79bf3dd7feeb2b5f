package arena

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"vivarium/evolve"
)

// goldenAngle spaces species hues so neighboring ids stay distinguishable.
const goldenAngle = 137.5

// Viewer renders the arena and handles interactive input.
type Viewer struct {
	world *World

	speed    float32
	paused   bool
	selected evolve.ActorID
}

// NewViewer wraps a world for interactive display.
func NewViewer(w *World) *Viewer {
	return &Viewer{world: w, speed: 1}
}

// Update handles input and advances the simulation according to the speed
// setting.
func (v *Viewer) Update() {
	if rl.IsKeyPressed(rl.KeySpace) {
		v.paused = !v.paused
	}
	if rl.IsMouseButtonPressed(rl.MouseLeftButton) {
		v.selectAt(rl.GetMousePosition())
	}
	if rl.IsKeyPressed(rl.KeyX) && v.selected != 0 {
		v.world.Controller().Smite(v.selected)
	}

	if v.paused {
		return
	}
	for i := 0; i < int(v.speed); i++ {
		v.world.Step()
	}
}

// selectAt picks the actor nearest the click, within a small radius.
func (v *Viewer) selectAt(mouse rl.Vector2) {
	const pickRadius = 15.0

	v.selected = 0
	best := float32(pickRadius * pickRadius)

	query := v.world.filter.Query()
	for query.Next() {
		pos, _, _, energy, actor := query.Get()
		if !energy.Alive {
			continue
		}
		dx, dy := ToroidalDelta(mouse.X, mouse.Y, pos.X, pos.Y, v.world.width, v.world.height)
		if d2 := dx*dx + dy*dy; d2 < best {
			best = d2
			v.selected = evolve.ActorID(actor.ID)
		}
	}
}

// Draw renders one frame.
func (v *Viewer) Draw() {
	rl.BeginDrawing()
	rl.ClearBackground(rl.Color{R: 12, G: 18, B: 24, A: 255})

	v.drawResource()
	v.drawActors()
	v.drawHUD()

	rl.EndDrawing()
}

// drawResource renders each hotspot as concentric circles faded by its
// current amplitude.
func (v *Viewer) drawResource() {
	rf := v.world.Resource()
	for _, c := range rf.centers {
		base := rl.Color{R: 40, G: 120, B: 60, A: 255}
		rl.DrawCircle(int32(c.X), int32(c.Y), rf.Sigma()*1.5, rl.Fade(base, 0.15*c.Amp))
		rl.DrawCircle(int32(c.X), int32(c.Y), rf.Sigma()*0.7, rl.Fade(base, 0.25*c.Amp))
	}
}

// drawActors renders each actor as a triangle pointing along its heading,
// colored by species.
func (v *Viewer) drawActors() {
	ctrl := v.world.Controller()

	query := v.world.filter.Query()
	for query.Next() {
		pos, _, rot, energy, actor := query.Get()
		if !energy.Alive {
			continue
		}

		color := rl.Gray
		if brain := ctrl.Brain(evolve.ActorID(actor.ID)); brain != nil {
			color = speciesColor(speciesID(brain.Organism()))
		}

		drawOrientedTriangle(pos.X, pos.Y, rot.Heading, 7, color)

		// Energy bar under the actor
		barW := 14 * clamp01(energy.Value/maxEnergy)
		rl.DrawRectangle(int32(pos.X-7), int32(pos.Y+9), int32(barW), 2, rl.Fade(rl.Green, 0.7))

		if evolve.ActorID(actor.ID) == v.selected {
			rl.DrawCircleLines(int32(pos.X), int32(pos.Y), 12, rl.White)
		}
	}
}

func drawOrientedTriangle(x, y, heading, size float32, color rl.Color) {
	tip := rotatePoint(size, 0, heading)
	left := rotatePoint(-size*0.6, size*0.5, heading)
	right := rotatePoint(-size*0.6, -size*0.5, heading)

	rl.DrawTriangle(
		rl.Vector2{X: x + tip.X, Y: y + tip.Y},
		rl.Vector2{X: x + left.X, Y: y + left.Y},
		rl.Vector2{X: x + right.X, Y: y + right.Y},
		color,
	)
}

func rotatePoint(x, y, angle float32) rl.Vector2 {
	cos := cosf(angle)
	sin := sinf(angle)
	return rl.Vector2{X: x*cos - y*sin, Y: x*sin + y*cos}
}

func speciesColor(id int) rl.Color {
	hue := float32(id) * goldenAngle
	for hue >= 360 {
		hue -= 360
	}
	return rl.ColorFromHSV(hue, 0.75, 0.95)
}

// drawHUD renders run state and the speed control.
func (v *Viewer) drawHUD() {
	w := v.world
	ctrl := w.Controller()
	pop := ctrl.Population()

	lines := []string{
		fmt.Sprintf("tick %d", w.Tick()),
		fmt.Sprintf("actors %d  waiting %d", w.ActorCount(), ctrl.Table().WaitingCount()),
		fmt.Sprintf("species %d  threshold %.2f", len(pop.Species), pop.CompatThreshold),
		fmt.Sprintf("offspring %d  deletions %d", pop.OffspringCount, ctrl.Table().Deletions()),
	}
	for i, line := range lines {
		rl.DrawText(line, 10, int32(10+i*18), 16, rl.RayWhite)
	}
	if v.selected != 0 {
		rl.DrawText(fmt.Sprintf("selected actor %d (X to smite)", v.selected), 10, 86, 16, rl.Orange)
	}
	if v.paused {
		rl.DrawText("PAUSED", 10, 104, 16, rl.Red)
	}

	v.speed = gui.SliderBar(
		rl.Rectangle{X: 70, Y: float32(w.cfg.Screen.Height - 30), Width: 160, Height: 16},
		"speed", fmt.Sprintf("%dx", int(v.speed)),
		v.speed, 1, 10,
	)
}
