// Package arena hosts the evaluation environment: a toroidal world of
// foraging actors whose brains come from the evolution controller. Actors
// spend energy to move, regain it by grazing the resource field, and die
// when they run dry; the controller replaces the population underneath them
// as attrition accumulates.
package arena

import (
	"log/slog"
	"math"
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"vivarium/components"
	"vivarium/config"
	"vivarium/evolve"
	"vivarium/neural"
	"vivarium/telemetry"
)

// probeDistance is how far ahead of an actor the resource sensors look, in
// world units.
const probeDistance = 40.0

// maxEnergy caps how much an actor can store from grazing.
const maxEnergy = 1.5

// World is the arena simulation state.
type World struct {
	cfg *config.Config
	rng *rand.Rand

	world  *ecs.World
	mapper *ecs.Map5[
		components.Position,
		components.Velocity,
		components.Rotation,
		components.Energy,
		components.Actor,
	]
	filter *ecs.Filter5[
		components.Position,
		components.Velocity,
		components.Rotation,
		components.Energy,
		components.Actor,
	]

	resource *ResourceField
	ctrl     *evolve.Controller

	collector *telemetry.Collector
	output    *telemetry.OutputManager
	champions *telemetry.Champions

	alive       map[evolve.ActorID]ecs.Entity
	nextActorID evolve.ActorID

	tick       int32
	sinceSpawn int

	width, height float32
}

// NewWorld builds the arena around an existing population. The output
// manager may be nil (output disabled).
func NewWorld(cfg *config.Config, pop *neural.Population, output *telemetry.OutputManager, rng *rand.Rand) *World {
	if rng == nil {
		rng = rand.New(rand.NewSource(42))
	}

	world := ecs.NewWorld()
	collector := telemetry.NewCollector(cfg.Telemetry.StatsWindow, cfg.Derived.DT32)

	w := &World{
		cfg:   cfg,
		rng:   rng,
		world: world,
		mapper: ecs.NewMap5[
			components.Position,
			components.Velocity,
			components.Rotation,
			components.Energy,
			components.Actor,
		](world),
		filter: ecs.NewFilter5[
			components.Position,
			components.Velocity,
			components.Rotation,
			components.Energy,
			components.Actor,
		](world),
		resource:    NewResourceField(cfg.Derived.WorldW32, cfg.Derived.WorldH32, cfg.Arena.Hotspots, rng),
		collector:   collector,
		output:      output,
		champions:   telemetry.NewChampions(20),
		alive:       make(map[evolve.ActorID]ecs.Entity),
		nextActorID: 1,
		width:       cfg.Derived.WorldW32,
		height:      cfg.Derived.WorldH32,
	}

	w.ctrl = evolve.NewController(pop, evolve.Params{
		TimeAliveMinimum:            cfg.Evolution.TimeAliveMinimum,
		MinTicksBetweenEvolutions:   cfg.Evolution.MinTicksBetween,
		MinDeletionsBeforeEvolution: uint64(cfg.Evolution.MinDeletions),
		TargetSpecies:               cfg.Evolution.TargetSpecies,
		CompatStep:                  cfg.Evolution.CompatStep,
		CompatFloor:                 cfg.Evolution.CompatFloor,
		SmitePenalty:                cfg.Evolution.SmitePenalty,
		RunningAvgSamples:           cfg.Evolution.RunningAvgSamples,
		TrialLength:                 cfg.Evolution.TrialLength,
	}, w, collector)

	w.spawnInitialActors()

	return w
}

// ActorExists reports whether the actor is still alive in the arena.
func (w *World) ActorExists(id evolve.ActorID) bool {
	_, ok := w.alive[id]
	return ok
}

// RemoveActor evicts a live actor whose brain the controller is retiring.
func (w *World) RemoveActor(id evolve.ActorID) {
	entity, ok := w.alive[id]
	if !ok {
		return
	}
	w.mapper.Remove(entity)
	delete(w.alive, id)
}

// Controller returns the evolution controller.
func (w *World) Controller() *evolve.Controller {
	return w.ctrl
}

// Resource returns the resource field.
func (w *World) Resource() *ResourceField {
	return w.resource
}

// Tick returns the current simulation tick.
func (w *World) Tick() int32 {
	return w.tick
}

// ActorCount returns the number of live actors.
func (w *World) ActorCount() int {
	return len(w.alive)
}

// Champions returns the champion board accumulated so far.
func (w *World) Champions() *telemetry.Champions {
	return w.champions
}

func (w *World) spawnInitialActors() {
	n := w.cfg.Arena.InitialActors
	for i := 0; i < n && w.ctrl.Ready(); i++ {
		w.spawnActor()
	}
}

func (w *World) spawnActor() {
	id := w.nextActorID
	w.nextActorID++

	w.ctrl.RequestBrain(id)

	pos := components.Position{
		X: w.rng.Float32() * w.width,
		Y: w.rng.Float32() * w.height,
	}
	vel := components.Velocity{}
	rot := components.Rotation{Heading: w.rng.Float32() * 2 * math.Pi}
	energy := components.Energy{Value: float32(w.cfg.Arena.InitialEnergy), Alive: true}
	actor := components.Actor{ID: uint64(id)}

	entity := w.mapper.NewEntity(&pos, &vel, &rot, &energy, &actor)
	w.alive[id] = entity
}

// Step advances the simulation by one tick.
func (w *World) Step() {
	w.tick++

	w.updateActors()
	w.cleanupDead()
	w.resource.Step(w.cfg.Derived.DT32)

	w.ctrl.Tick()

	w.maybeSpawn()
	w.flushTelemetry()
}

// updateActors runs the sense-think-act loop for every live actor and
// settles its energy budget for the tick. The net energy flux, forage gain
// minus movement cost, is the brain's raw reward signal.
func (w *World) updateActors() {
	arenaCfg := &w.cfg.Arena
	dt := w.cfg.Derived.DT32

	query := w.filter.Query()
	for query.Next() {
		pos, vel, rot, energy, actor := query.Get()
		if !energy.Alive {
			continue
		}

		brain := w.ctrl.Brain(evolve.ActorID(actor.ID))
		if brain == nil {
			continue
		}

		speed := float32(math.Hypot(float64(vel.X), float64(vel.Y)))
		inputs := w.senseInputs(pos, rot, energy, speed)

		outputs, err := brain.Think(inputs)
		if err != nil || len(outputs) < 2 {
			continue
		}

		turn := (float32(outputs[0]) - 0.5) * 2 * float32(arenaCfg.MaxTurnRate)
		thrust := clamp01(float32(outputs[1]))

		rot.Heading = normalizeAngle(rot.Heading + turn*dt)
		newSpeed := thrust * float32(arenaCfg.MaxSpeed)
		vel.X = float32(math.Cos(float64(rot.Heading))) * newSpeed
		vel.Y = float32(math.Sin(float64(rot.Heading))) * newSpeed

		pos.X = wrap(pos.X+vel.X*dt, w.width)
		pos.Y = wrap(pos.Y+vel.Y*dt, w.height)

		gain := w.resource.Graze(pos.X, pos.Y, float32(arenaCfg.ForageRate), dt)
		cost := (float32(arenaCfg.BaseCost) + float32(arenaCfg.MoveCost)*thrust) * dt

		energy.Value += gain - cost
		if energy.Value > maxEnergy {
			energy.Value = maxEnergy
		}
		energy.Age += dt
		if energy.Value <= 0 {
			energy.Value = 0
			energy.Alive = false
		}

		brain.Reward(float64(gain - cost))
	}
}

// senseInputs builds the 8-wide sensor vector: resource density here and at
// three probe points (ahead, left, right), stored energy, speed fraction,
// and the heading as sin/cos.
func (w *World) senseInputs(pos *components.Position, rot *components.Rotation, energy *components.Energy, speed float32) []float64 {
	probe := func(offset float64) float64 {
		angle := float64(rot.Heading) + offset
		px := wrap(pos.X+float32(math.Cos(angle))*probeDistance, w.width)
		py := wrap(pos.Y+float32(math.Sin(angle))*probeDistance, w.height)
		return float64(w.resource.Sample(px, py))
	}

	return []float64{
		float64(w.resource.Sample(pos.X, pos.Y)),
		probe(0),
		probe(-math.Pi / 4),
		probe(math.Pi / 4),
		float64(clamp01(energy.Value / maxEnergy)),
		float64(clamp01(speed / float32(w.cfg.Arena.MaxSpeed))),
		math.Sin(float64(rot.Heading)),
		math.Cos(float64(rot.Heading)),
	}
}

// cleanupDead removes dead entities. Their brains are detached by the
// controller on its next tick, once the actors are gone from the alive set.
func (w *World) cleanupDead() {
	type deadInfo struct {
		entity ecs.Entity
		id     evolve.ActorID
	}
	var toRemove []deadInfo

	// First pass: collect dead entities (must complete before modifying).
	query := w.filter.Query()
	for query.Next() {
		entity := query.Entity()
		_, _, _, energy, actor := query.Get()
		if !energy.Alive {
			toRemove = append(toRemove, deadInfo{entity: entity, id: evolve.ActorID(actor.ID)})
		}
	}

	for _, dead := range toRemove {
		w.mapper.Remove(dead.entity)
		delete(w.alive, dead.id)
	}
}

// maybeSpawn backfills actors up to the ceiling, at most one per spawn
// interval and only when a brain is waiting.
func (w *World) maybeSpawn() {
	w.sinceSpawn++
	if w.sinceSpawn < w.cfg.Arena.SpawnInterval {
		return
	}
	if len(w.alive) >= w.cfg.Arena.MaxActors {
		return
	}
	if !w.ctrl.Ready() {
		return
	}

	w.spawnActor()
	w.sinceSpawn = 0
}

// flushTelemetry emits a stats window when due and refreshes the champion
// board from the current population.
func (w *World) flushTelemetry() {
	if !w.collector.ShouldFlush(w.tick) {
		return
	}

	w.considerChampions()

	stats := w.collector.Flush(w.tick, w.ctrl.Sample())
	stats.LogStats()
	if err := w.output.WriteTelemetry(stats); err != nil {
		slog.Warn("telemetry write failed", "error", err)
	}
}

func (w *World) considerChampions() {
	for _, b := range w.ctrl.Brains() {
		org := b.Organism()
		if org.TimeAlive < w.cfg.Evolution.TimeAliveMinimum {
			continue
		}

		entry := telemetry.ChampionEntry{
			OrganismID:    org.ID(),
			SpeciesID:     speciesID(org),
			Fitness:       org.Fitness,
			AbsoluteScore: b.AbsoluteScore,
			TimeAlive:     org.TimeAlive,
			Tick:          w.tick,
		}
		if p, err := org.Decode(); err == nil {
			entry.Nodes = p.NodeCount()
			entry.Links = p.LinkCount()
		}
		w.champions.Consider(entry)
	}
}

func speciesID(org *neural.Organism) int {
	if org.Species == nil {
		return 0
	}
	return org.Species.ID
}
