// Package sim is the per tick simulation core: vehicle and projectile
// physics, weapons and the effect events drawn by viewers.
package sim

import (
	"fmt"
	"math"

	"driftpursuit/arena/internal/archetype"
	"driftpursuit/arena/internal/cvars"
	"driftpursuit/arena/internal/ecs"
	"driftpursuit/arena/internal/geom"
	"driftpursuit/arena/internal/logging"
)

// RunTick runs every system once in the fixed order that keeps random
// consumption, and therefore replays, deterministic.
func RunTick(cv *cvars.Cvars, w *World, gs *GameState, m Map) {
	SelfDestruct(cv, w, gs)
	VehicleMovement(cv, w, gs, m)
	VehicleLogic(cv, w, gs)
	WeaponFiring(cv, w, gs, m)
	GuidedMissileSteering(cv, w, gs)
	ProjectileMotion(cv, w, gs, m)
	ProjectileTimeout(cv, w, gs)
}

// Option customises a Simulation.
type Option func(*Simulation)

// WithLogger sets the logger used for notable transitions.
func WithLogger(logger *logging.Logger) Option {
	return func(s *Simulation) {
		if logger != nil {
			s.log = logger
		}
	}
}

// WithSeed seeds the random source used for weapon spread.
func WithSeed(seed int64) Option {
	return func(s *Simulation) {
		s.state = NewGameState(seed)
	}
}

// Simulation owns the world, the game state and the level, and advances them
// one tick at a time. It is not safe for concurrent use.
type Simulation struct {
	cv    cvars.Cvars
	world *World
	state *GameState
	level Map
	log   *logging.Logger
	tick  uint64

	destroyed map[ecs.Entity]struct{}
}

// New creates a simulation over the given tunables and level.
func New(cv cvars.Cvars, level Map, opts ...Option) *Simulation {
	mustHaveMap(level)
	s := &Simulation{
		cv:        cv,
		world:     NewWorld(),
		state:     NewGameState(1),
		level:     level,
		log:       logging.L(),
		destroyed: make(map[ecs.Entity]struct{}),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// World exposes the entity store.
func (s *Simulation) World() *World { return s.world }

// State exposes the frame scoped game state.
func (s *Simulation) State() *GameState { return s.state }

// Cvars exposes the tunables in use.
func (s *Simulation) Cvars() *cvars.Cvars { return &s.cv }

// Level exposes the map geometry.
func (s *Simulation) Level() Map { return s.level }

// Tick returns the number of completed ticks.
func (s *Simulation) Tick() uint64 { return s.tick }

// SpawnVehicle adds a vehicle driven by its own input component.
func (s *Simulation) SpawnVehicle(vt archetype.VehicleType, pos geom.Vec2, angle float64) ecs.Entity {
	e := SpawnVehicle(&s.cv, s.world, vt, pos, angle)
	s.log.Debug("vehicle spawned", logging.Entity(e), logging.String("type", vt.String()))
	return e
}

// SpawnPlayer adds a vehicle and makes it the one driven by SetInput.
func (s *Simulation) SpawnPlayer(vt archetype.VehicleType, pos geom.Vec2, angle float64) ecs.Entity {
	e := s.SpawnVehicle(vt, pos, angle)
	s.state.PlayerEntity = e
	return e
}

// SetInput replaces the player's input snapshot used from the next tick on.
func (s *Simulation) SetInput(input Input) {
	s.state.Input = input
}

// SetEntityInput replaces the input of a non player entity. It reports false
// when the entity has no input component.
func (s *Simulation) SetEntityInput(e ecs.Entity, input Input) bool {
	stored, ok := s.world.Inputs.Get(e)
	if !ok {
		return false
	}
	*stored = input
	return true
}

// Step advances the simulation by dt seconds.
func (s *Simulation) Step(dt float64) {
	if dt < 0 || math.IsNaN(dt) || math.IsInf(dt, 0) {
		panic(fmt.Sprintf("sim: invalid time step %v", dt))
	}
	gs := s.state
	gs.Dt = dt
	gs.FrameTime += dt
	s.tick++

	missileBefore := gs.GuidedMissile
	s.routeInput()
	RunTick(&s.cv, s.world, gs, s.level)
	s.logTransitions(missileBefore)
}

// routeInput hands the player's input to the live guided missile, if any,
// and a neutral input to the player's vehicle meanwhile.
func (s *Simulation) routeInput() {
	gs := s.state
	w := s.world
	if gs.GuidedMissile != ecs.Nil && !w.Registry.Alive(gs.GuidedMissile) {
		gs.GuidedMissile = ecs.Nil
	}
	if gs.GuidedMissile != ecs.Nil {
		if missile, ok := w.Inputs.Get(gs.GuidedMissile); ok {
			*missile = gs.Input
		}
		if vehicle, ok := w.Inputs.Get(gs.PlayerEntity); ok {
			*vehicle = Input{}
		}
		return
	}
	if vehicle, ok := w.Inputs.Get(gs.PlayerEntity); ok {
		*vehicle = gs.Input
	}
}

func (s *Simulation) logTransitions(missileBefore ecs.Entity) {
	gs := s.state
	frameTime := logging.FrameTime(gs.FrameTime)
	if gs.GuidedMissile != missileBefore {
		if gs.GuidedMissile != ecs.Nil {
			s.log.Debug("guided missile launched", logging.Entity(gs.GuidedMissile), frameTime)
		} else {
			s.log.Debug("guided missile gone", logging.Entity(missileBefore), frameTime)
		}
	}
	for e := range ecs.NewQuery(s.world.Vehicles).Each() {
		if !s.world.Vehicles.Must(e).Destroyed {
			continue
		}
		if _, seen := s.destroyed[e]; seen {
			continue
		}
		s.destroyed[e] = struct{}{}
		s.log.Info("vehicle destroyed", logging.Entity(e), logging.Tick(s.tick), frameTime)
	}
}

// ClearEvents drops the effect events once they have been captured.
func (s *Simulation) ClearEvents() {
	s.state.ClearEvents()
}
