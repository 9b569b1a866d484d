package sim

import (
	"slices"

	"driftpursuit/arena/internal/archetype"
	"driftpursuit/arena/internal/ecs"
	"driftpursuit/arena/internal/geom"
)

// VehicleRecord is a detached copy of a vehicle's components.
type VehicleRecord struct {
	Entity   ecs.Entity
	Vehicle  Vehicle
	Pos      geom.Vec2
	Vel      geom.Vec2
	Angle    float64
	TurnRate float64
}

// ProjectileRecord is a detached copy of a projectile's components.
type ProjectileRecord struct {
	Entity    ecs.Entity
	Weapon    archetype.Weapon
	Owner     ecs.Entity
	Pos       geom.Vec2
	Vel       geom.Vec2
	Angle     float64
	TurnRate  float64
	Expiry    float64
	HasExpiry bool
}

// Snapshot is a point in time copy of every vehicle and projectile.
type Snapshot struct {
	Tick          uint64
	FrameTime     float64
	GuidedMissile ecs.Entity
	Vehicles      map[ecs.Entity]VehicleRecord
	Projectiles   map[ecs.Entity]ProjectileRecord
}

// SnapshotDiff lists what changed between two snapshots, ordered by entity.
type SnapshotDiff struct {
	UpdatedVehicles    []VehicleRecord
	RemovedVehicles    []ecs.Entity
	UpdatedProjectiles []ProjectileRecord
	RemovedProjectiles []ecs.Entity
}

// HasChanges reports whether the diff carries any update or removal.
func (d SnapshotDiff) HasChanges() bool {
	return len(d.UpdatedVehicles) > 0 || len(d.RemovedVehicles) > 0 ||
		len(d.UpdatedProjectiles) > 0 || len(d.RemovedProjectiles) > 0
}

// Snapshot copies the current state of the simulation.
func (s *Simulation) Snapshot() Snapshot {
	return TakeSnapshot(s.tick, s.world, s.state)
}

// TakeSnapshot copies the components of every vehicle and projectile.
func TakeSnapshot(tick uint64, w *World, gs *GameState) Snapshot {
	snap := Snapshot{
		Tick:          tick,
		FrameTime:     gs.FrameTime,
		GuidedMissile: gs.GuidedMissile,
		Vehicles:      make(map[ecs.Entity]VehicleRecord, w.Vehicles.Len()),
		Projectiles:   make(map[ecs.Entity]ProjectileRecord, w.Weapons.Len()),
	}

	//1.- Vehicles carry their ammo array by value, so the copy is detached.
	for e := range ecs.NewQuery(w.Vehicles, w.Pos, w.Vel, w.Angles, w.TurnRates).Each() {
		snap.Vehicles[e] = VehicleRecord{
			Entity:   e,
			Vehicle:  *w.Vehicles.Must(e),
			Pos:      *w.Pos.Must(e),
			Vel:      *w.Vel.Must(e),
			Angle:    *w.Angles.Must(e),
			TurnRate: *w.TurnRates.Must(e),
		}
	}

	//2.- Projectiles, with the optional steering and fuse components.
	for e := range ecs.NewQuery(w.Weapons, w.Pos, w.Vel, w.Owners).Each() {
		record := ProjectileRecord{
			Entity: e,
			Weapon: *w.Weapons.Must(e),
			Owner:  *w.Owners.Must(e),
			Pos:    *w.Pos.Must(e),
			Vel:    *w.Vel.Must(e),
		}
		if angle, ok := w.Angles.Get(e); ok {
			record.Angle = *angle
		}
		if turnRate, ok := w.TurnRates.Get(e); ok {
			record.TurnRate = *turnRate
		}
		if expiry, ok := w.Expiries.Get(e); ok {
			record.Expiry = *expiry
			record.HasExpiry = true
		}
		snap.Projectiles[e] = record
	}
	return snap
}

// Diff reports the records that differ from prev and the entities that disappeared since.
func (s Snapshot) Diff(prev Snapshot) SnapshotDiff {
	var diff SnapshotDiff
	for e, record := range s.Vehicles {
		if old, ok := prev.Vehicles[e]; !ok || old != record {
			diff.UpdatedVehicles = append(diff.UpdatedVehicles, record)
		}
	}
	for e := range prev.Vehicles {
		if _, ok := s.Vehicles[e]; !ok {
			diff.RemovedVehicles = append(diff.RemovedVehicles, e)
		}
	}
	for e, record := range s.Projectiles {
		if old, ok := prev.Projectiles[e]; !ok || old != record {
			diff.UpdatedProjectiles = append(diff.UpdatedProjectiles, record)
		}
	}
	for e := range prev.Projectiles {
		if _, ok := s.Projectiles[e]; !ok {
			diff.RemovedProjectiles = append(diff.RemovedProjectiles, e)
		}
	}

	//1.- Map iteration is random; order by entity so diffs are reproducible.
	slices.SortFunc(diff.UpdatedVehicles, func(a, b VehicleRecord) int { return compareEntity(a.Entity, b.Entity) })
	slices.SortFunc(diff.UpdatedProjectiles, func(a, b ProjectileRecord) int { return compareEntity(a.Entity, b.Entity) })
	slices.Sort(diff.RemovedVehicles)
	slices.Sort(diff.RemovedProjectiles)
	return diff
}

func compareEntity(a, b ecs.Entity) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
