package sim

import (
	"driftpursuit/arena/internal/cvars"
	"driftpursuit/arena/internal/ecs"
	"driftpursuit/arena/internal/geom"
)

// VehicleLogic cycles weapons on key presses, turns turrets and completes reloads.
func VehicleLogic(cv *cvars.Cvars, w *World, gs *GameState) {
	for e := range ecs.NewQuery(w.Vehicles, w.Inputs).Each() {
		vehicle := w.Vehicles.Must(e)
		input := *w.Inputs.Must(e)
		var prev Input
		if stored, ok := w.PrevInputs.Get(e); ok {
			prev = *stored
		}

		//1.- Weapon cycling reacts to the press, not the hold.
		if input.PrevWeapon && !prev.PrevWeapon {
			vehicle.CurWeapon = vehicle.CurWeapon.Prev()
		}
		if input.NextWeapon && !prev.NextWeapon {
			vehicle.CurWeapon = vehicle.CurWeapon.Next()
		}
		if stored, ok := w.PrevInputs.Get(e); ok {
			*stored = input
		}

		//2.- The turret turns independently of the chassis and has no stop.
		if input.TurretLeft {
			vehicle.TurretAngle = geom.WrapAngle(vehicle.TurretAngle - cv.TurretTurnSpeed*gs.Dt)
		}
		if input.TurretRight {
			vehicle.TurretAngle = geom.WrapAngle(vehicle.TurretAngle + cv.TurretTurnSpeed*gs.Dt)
		}

		//3.- Only the selected weapon reloads.
		slot := vehicle.CurWeapon.Index()
		if reloading, ok := vehicle.Ammos[slot].(Reloading); ok && gs.FrameTime >= reloading.End {
			vehicle.Ammos[slot] = Loaded{ReadyTime: gs.FrameTime, Count: cv.WeaponReloadAmmo(vehicle.CurWeapon)}
		}
	}
}
