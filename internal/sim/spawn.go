package sim

import (
	"driftpursuit/arena/internal/archetype"
	"driftpursuit/arena/internal/cvars"
	"driftpursuit/arena/internal/ecs"
	"driftpursuit/arena/internal/geom"
)

// SpawnVehicle creates a vehicle with every component the systems expect and
// all magazines full. It must not run inside a query.
func SpawnVehicle(cv *cvars.Cvars, w *World, vt archetype.VehicleType, pos geom.Vec2, angle float64) ecs.Entity {
	e := w.Registry.Create()
	mins, maxs := cv.VehicleHitbox(vt)

	vehicle := Vehicle{Type: vt, CurWeapon: archetype.MachineGun}
	for _, weapon := range archetype.Weapons() {
		vehicle.Ammos[weapon.Index()] = Loaded{ReadyTime: 0, Count: cv.WeaponReloadAmmo(weapon)}
	}

	w.Vehicles.Insert(e, vehicle)
	w.Pos.Insert(e, pos)
	w.Vel.Insert(e, geom.Vec2{})
	w.Angles.Insert(e, geom.WrapAngle(angle))
	w.TurnRates.Insert(e, 0)
	w.Hitboxes.Insert(e, Hitbox{Mins: mins, Maxs: maxs})
	w.Inputs.Insert(e, Input{})
	w.PrevInputs.Insert(e, Input{})
	return e
}
