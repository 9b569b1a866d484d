package sim

import (
	"math/rand"

	"driftpursuit/arena/internal/ecs"
	"driftpursuit/arena/internal/geom"
)

// Explosion is an effect event appended by the systems and drawn by the renderer.
type Explosion struct {
	Pos   geom.Vec2
	Scale float64
	Start float64
	Bfg   bool
}

// Segment is a line effect such as a BFG beam or a railgun trace.
type Segment struct {
	From geom.Vec2
	To   geom.Vec2
}

// GameState is the frame scoped record shared by every system of a tick.
type GameState struct {
	FrameTime float64
	Dt        float64
	Input     Input
	Rng       *rand.Rand

	Explosions []Explosion
	BfgBeams   []Segment
	Railguns   []Segment

	GuidedMissile ecs.Entity
	PlayerEntity  ecs.Entity
}

// NewGameState creates a state at frame time zero with a seeded random source.
func NewGameState(seed int64) *GameState {
	//1.- Seed deterministically so identical inputs replay identical spreads.
	return &GameState{Rng: rand.New(rand.NewSource(seed))}
}

// ClearEvents drops the effect events once the consumer has drawn them.
func (gs *GameState) ClearEvents() {
	if gs == nil {
		return
	}
	gs.Explosions = gs.Explosions[:0]
	gs.BfgBeams = gs.BfgBeams[:0]
	gs.Railguns = gs.Railguns[:0]
}

func (gs *GameState) pushExplosion(pos geom.Vec2, scale float64, bfg bool) {
	gs.Explosions = append(gs.Explosions, Explosion{Pos: pos, Scale: scale, Start: gs.FrameTime, Bfg: bfg})
}

// uniform samples a float in [lo, hi).
func (gs *GameState) uniform(lo, hi float64) float64 {
	return lo + gs.Rng.Float64()*(hi-lo)
}
