package sim

import (
	"math"
	"testing"

	"driftpursuit/arena/internal/archetype"
	"driftpursuit/arena/internal/cvars"
	"driftpursuit/arena/internal/ecs"
	"driftpursuit/arena/internal/geom"
	"driftpursuit/arena/internal/tilemap"
)

const eps = 1e-9

type openMap struct{}

func (openMap) Collision(geom.Vec2) bool { return false }

func (openMap) CollisionBetween(geom.Vec2, geom.Vec2) (geom.Vec2, bool) { return geom.Vec2{}, false }

type solidMap struct{}

func (solidMap) Collision(geom.Vec2) bool { return true }

func (solidMap) CollisionBetween(from, _ geom.Vec2) (geom.Vec2, bool) { return from, true }

func fixture(t *testing.T) (*cvars.Cvars, *World, *GameState) {
	t.Helper()
	cv := cvars.Default()
	gs := NewGameState(7)
	gs.Dt = 0.1
	return &cv, NewWorld(), gs
}

func gridFromRows(t *testing.T, rows ...string) *tilemap.Grid {
	t.Helper()
	grid, err := tilemap.FromRows(rows, 10)
	if err != nil {
		t.Fatalf("build grid: %v", err)
	}
	return grid
}

func spawnTestProjectile(w *World, weapon archetype.Weapon, pos, vel geom.Vec2, owner ecs.Entity) ecs.Entity {
	e := w.spawnProjectile(weapon, pos, vel, owner, nil)
	w.Commands.Flush()
	return e
}

func near(a, b float64) bool {
	return math.Abs(a-b) <= eps
}

func nearVec(a, b geom.Vec2) bool {
	return near(a.X, b.X) && near(a.Y, b.Y)
}
