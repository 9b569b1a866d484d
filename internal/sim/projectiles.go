package sim

import (
	"driftpursuit/arena/internal/archetype"
	"driftpursuit/arena/internal/cvars"
	"driftpursuit/arena/internal/ecs"
	"driftpursuit/arena/internal/geom"
)

// target is the read-only view of a live vehicle during the projectile pass.
type target struct {
	entity ecs.Entity
	pos    geom.Vec2
}

// ProjectileMotion moves projectiles, resolves wall and vehicle hits and BFG
// beams. Removals and kills are applied after the pass.
func ProjectileMotion(cv *cvars.Cvars, w *World, gs *GameState, m Map) {
	mustHaveMap(m)

	//1.- Freeze the set of live vehicles for the whole pass; kills land after it.
	var targets []target
	for e := range ecs.NewQuery(w.Vehicles, w.Pos).Each() {
		if !w.Vehicles.Must(e).Destroyed {
			targets = append(targets, target{entity: e, pos: *w.Pos.Must(e)})
		}
	}

	hitRadius2 := cv.ProjectileHitRadius * cv.ProjectileHitRadius
	beamRange2 := cv.BfgBeamRange * cv.BfgBeamRange
	var kills []ecs.Entity
	kill := func(victim target) {
		gs.pushExplosion(victim.pos, cv.VehicleExplosionScale, false)
		kills = append(kills, victim.entity)
	}

	for e := range ecs.NewQuery(w.Weapons, w.Pos, w.Vel, w.Owners).Each() {
		weapon := *w.Weapons.Must(e)
		pos := w.Pos.Must(e)
		owner := *w.Owners.Must(e)
		next := pos.Add(w.Vel.Must(e).Scale(gs.Dt))

		//2.- Submunitions fly blind until their fuse runs out.
		if w.ClusterBombs.Has(e) {
			*pos = next
			continue
		}

		//3.- Walls stop the projectile at the entry point of the sweep.
		if hit, ok := m.CollisionBetween(*pos, next); ok {
			removeProjectile(cv, w, gs, e, weapon, hit)
			continue
		}
		*pos = next

		//4.- The nearest other live vehicle inside the hit radius takes the direct hit.
		struck := -1
		bestDist2 := 0.0
		for idx, victim := range targets {
			if victim.entity == owner {
				continue
			}
			dist2 := pos.DistanceSquared(victim.pos)
			if dist2 <= hitRadius2 && (struck < 0 || dist2 < bestDist2) {
				struck = idx
				bestDist2 = dist2
			}
		}

		//5.- A BFG round also beams everyone else in range with a clear line of sight.
		if w.BfgRounds.Has(e) {
			for idx, victim := range targets {
				if idx == struck || victim.entity == owner {
					continue
				}
				if pos.DistanceSquared(victim.pos) > beamRange2 {
					continue
				}
				if _, blocked := m.CollisionBetween(*pos, victim.pos); blocked {
					continue
				}
				kill(victim)
				gs.BfgBeams = append(gs.BfgBeams, Segment{From: *pos, To: victim.pos})
			}
		}

		//6.- The vehicle explosion goes first so it draws beneath the projectile's.
		if struck >= 0 {
			kill(targets[struck])
			removeProjectile(cv, w, gs, e, weapon, *pos)
		}
	}
	w.Commands.Flush()

	for _, victim := range kills {
		w.Vehicles.Must(victim).Destroyed = true
	}
}

// ProjectileTimeout removes fused projectiles whose expiry has passed.
func ProjectileTimeout(cv *cvars.Cvars, w *World, gs *GameState) {
	for e := range ecs.NewQuery(w.Weapons, w.Pos, w.Expiries).Each() {
		if gs.FrameTime > *w.Expiries.Must(e) {
			removeProjectile(cv, w, gs, e, *w.Weapons.Must(e), *w.Pos.Must(e))
		}
	}
	w.Commands.Flush()
}

// removeProjectile emits the weapon's explosion, releases the guided missile
// reference and buffers the despawn.
func removeProjectile(cv *cvars.Cvars, w *World, gs *GameState, e ecs.Entity, weapon archetype.Weapon, at geom.Vec2) {
	if scale, ok := cv.WeaponExplosionScale(weapon); ok {
		gs.pushExplosion(at, scale, weapon == archetype.Bfg)
	}
	if gs.GuidedMissile == e {
		gs.GuidedMissile = ecs.Nil
	}
	w.Commands.Despawn(e)
}
