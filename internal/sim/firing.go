package sim

import (
	"driftpursuit/arena/internal/archetype"
	"driftpursuit/arena/internal/cvars"
	"driftpursuit/arena/internal/ecs"
	"driftpursuit/arena/internal/geom"
)

// WeaponFiring fires the selected weapon of every live vehicle holding the
// trigger. Projectiles are spawned through the command buffer and appear once
// the vehicle pass is over.
func WeaponFiring(cv *cvars.Cvars, w *World, gs *GameState, m Map) {
	mustHaveMap(m)
	for e := range ecs.NewQuery(w.Vehicles, w.Pos, w.Vel, w.Angles, w.Inputs).Each() {
		vehicle := w.Vehicles.Must(e)
		if vehicle.Destroyed || !w.Inputs.Must(e).Fire {
			continue
		}
		weapon := vehicle.CurWeapon
		slot := weapon.Index()
		loaded, ok := vehicle.Ammos[slot].(Loaded)
		if !ok || gs.FrameTime < loaded.ReadyTime {
			continue
		}
		//1.- Only the player may launch a guided missile; refuse before touching ammo.
		if weapon == archetype.GuidedMissile && e != gs.PlayerEntity {
			continue
		}

		//2.- Consume the round and start reloading on an empty magazine.
		loaded.ReadyTime = gs.FrameTime + cv.WeaponRefire(weapon)
		loaded.Count--
		if loaded.Count <= 0 {
			vehicle.Ammos[slot] = Reloading{Start: gs.FrameTime, End: gs.FrameTime + cv.WeaponReloadTime(weapon)}
		} else {
			vehicle.Ammos[slot] = loaded
		}

		//3.- Resolve the muzzle pose and hand off to the archetype.
		vehPos := *w.Pos.Must(e)
		vehVel := *w.Vel.Must(e)
		vehAngle := *w.Angles.Must(e)
		origin, shotAngle := muzzle(cv, vehicle, vehPos, vehAngle)
		inherited := vehVel.Scale(cv.WeaponVehicleVelocityFactor(weapon))

		switch weapon {
		case archetype.MachineGun:
			spread := cv.MachineGunAngleSpread * gs.Rng.NormFloat64()
			vel := geom.V(cv.WeaponSpeed(weapon), 0).Rotated(shotAngle + spread).Add(inherited)
			w.spawnProjectile(weapon, origin, vel, e, nil)
		case archetype.Railgun:
			end := origin.Add(geom.FromAngle(shotAngle).Scale(cv.RailgunRange))
			if hit, ok := m.CollisionBetween(origin, end); ok {
				gs.Railguns = append(gs.Railguns, Segment{From: origin, To: hit})
			}
		case archetype.ClusterBomb:
			fireClusterBomb(cv, w, gs, e, origin, shotAngle, inherited)
		case archetype.Rockets, archetype.HomingMissile, archetype.Bfg:
			vel := geom.V(cv.WeaponSpeed(weapon), 0).Rotated(shotAngle).Add(inherited)
			w.spawnProjectile(weapon, origin, vel, e, nil)
		case archetype.GuidedMissile:
			vel := geom.V(cv.WeaponSpeed(weapon), 0).Rotated(shotAngle).Add(inherited)
			heading := vel.Angle()
			gs.GuidedMissile = w.spawnProjectile(weapon, origin, vel, e, func(missile ecs.Entity) {
				w.Angles.Insert(missile, heading)
				w.TurnRates.Insert(missile, 0)
				w.Inputs.Insert(missile, Input{})
			})
		}
	}
	w.Commands.Flush()
}

// muzzle returns the shot origin and direction of the selected weapon.
func muzzle(cv *cvars.Cvars, vehicle *Vehicle, pos geom.Vec2, angle float64) (geom.Vec2, float64) {
	hardpoint, offset := cv.Hardpoint(vehicle.Type, vehicle.CurWeapon)
	if hardpoint == archetype.Turret {
		shotAngle := angle + vehicle.TurretAngle
		pivot := cv.VehicleTurretOffsetChassis(vehicle.Type).Rotated(angle)
		return pos.Add(pivot).Add(offset.Rotated(shotAngle)), shotAngle
	}
	return pos.Add(offset.Rotated(angle)), angle
}

func fireClusterBomb(cv *cvars.Cvars, w *World, gs *GameState, owner ecs.Entity, origin geom.Vec2, shotAngle float64, inherited geom.Vec2) {
	cb := cv.ClusterBomb
	speed := cv.WeaponSpeed(archetype.ClusterBomb)
	for i := 0; i < cb.Count; i++ {
		//1.- Each submunition samples its own speed spread.
		var forward, sideways float64
		if cb.SpeedSpreadGaussian {
			forward = cb.SpeedSpreadForward * gs.Rng.NormFloat64()
			sideways = cb.SpeedSpreadSideways * gs.Rng.NormFloat64()
		} else {
			forward = cb.SpeedSpreadForward * gs.uniform(-cb.UniformRange, cb.UniformRange)
			sideways = cb.SpeedSpreadSideways * gs.uniform(-cb.UniformRange, cb.UniformRange)
		}
		vel := geom.V(speed+forward, sideways).Rotated(shotAngle).Add(inherited)

		//2.- And its own fuse.
		expiry := gs.FrameTime + cb.Time + gs.uniform(-1, 1)*cb.TimeSpread
		w.spawnProjectile(archetype.ClusterBomb, origin, vel, owner, func(bomb ecs.Entity) {
			w.Expiries.Insert(bomb, expiry)
		})
	}
}

// spawnProjectile buffers a projectile entity; extra attaches archetype specific components.
func (w *World) spawnProjectile(weapon archetype.Weapon, pos, vel geom.Vec2, owner ecs.Entity, extra func(ecs.Entity)) ecs.Entity {
	return w.Commands.Spawn(func(e ecs.Entity) {
		w.Weapons.Insert(e, weapon)
		w.Pos.Insert(e, pos)
		w.Vel.Insert(e, vel)
		w.Owners.Insert(e, owner)
		if marker := w.markerStore(weapon); marker != nil {
			marker.Insert(e, Marker{})
		}
		if extra != nil {
			extra(e)
		}
	})
}
