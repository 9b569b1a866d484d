package sim

import (
	"testing"

	"driftpursuit/arena/internal/archetype"
	"driftpursuit/arena/internal/geom"
)

func TestVehicleLogicCyclesWeaponOnPressOnly(t *testing.T) {
	cv, w, gs := fixture(t)
	e := SpawnVehicle(cv, w, archetype.Tank, geom.V(0, 0), 0)
	*w.Inputs.Must(e) = Input{NextWeapon: true}

	//1.- Holding the key for several ticks advances a single slot.
	for i := 0; i < 3; i++ {
		VehicleLogic(cv, w, gs)
	}
	if got := w.Vehicles.Must(e).CurWeapon; got != archetype.Railgun {
		t.Fatalf("expected railgun after a held press, got %v", got)
	}

	//2.- Release and press again.
	*w.Inputs.Must(e) = Input{}
	VehicleLogic(cv, w, gs)
	*w.Inputs.Must(e) = Input{NextWeapon: true}
	VehicleLogic(cv, w, gs)
	if got := w.Vehicles.Must(e).CurWeapon; got != archetype.ClusterBomb {
		t.Fatalf("expected cluster bomb after a second press, got %v", got)
	}
}

func TestVehicleLogicPrevWeaponWraps(t *testing.T) {
	cv, w, gs := fixture(t)
	e := SpawnVehicle(cv, w, archetype.Hovercraft, geom.V(0, 0), 0)
	*w.Inputs.Must(e) = Input{PrevWeapon: true}

	VehicleLogic(cv, w, gs)

	if got := w.Vehicles.Must(e).CurWeapon; got != archetype.Bfg {
		t.Fatalf("expected wrap to bfg, got %v", got)
	}
}

func TestVehicleLogicTurretWraps(t *testing.T) {
	cv, w, gs := fixture(t)
	e := SpawnVehicle(cv, w, archetype.Tank, geom.V(0, 0), 0)
	*w.Inputs.Must(e) = Input{TurretLeft: true}

	VehicleLogic(cv, w, gs)

	want := geom.TwoPi - cv.TurretTurnSpeed*gs.Dt
	if got := w.Vehicles.Must(e).TurretAngle; !near(got, want) {
		t.Fatalf("expected turret angle %v, got %v", want, got)
	}

	//1.- Both keys cancel out.
	*w.Inputs.Must(e) = Input{TurretLeft: true, TurretRight: true}
	VehicleLogic(cv, w, gs)
	if got := w.Vehicles.Must(e).TurretAngle; !near(got, want) {
		t.Fatalf("expected turret to stay at %v, got %v", want, got)
	}
}

func TestVehicleLogicReloadsOnlyCurrentWeapon(t *testing.T) {
	cv, w, gs := fixture(t)
	e := SpawnVehicle(cv, w, archetype.Tank, geom.V(0, 0), 0)
	vehicle := w.Vehicles.Must(e)
	vehicle.Ammos[archetype.MachineGun.Index()] = Reloading{Start: 0, End: 1}
	vehicle.Ammos[archetype.Rockets.Index()] = Reloading{Start: 0, End: 1}

	//1.- Before the end nothing changes.
	gs.FrameTime = 0.99
	VehicleLogic(cv, w, gs)
	if _, ok := vehicle.CurrentAmmo().(Reloading); !ok {
		t.Fatalf("reload finished early: %#v", vehicle.CurrentAmmo())
	}

	//2.- At the end only the selected slot refills.
	gs.FrameTime = 1
	VehicleLogic(cv, w, gs)
	loaded, ok := vehicle.CurrentAmmo().(Loaded)
	if !ok {
		t.Fatalf("expected loaded magazine, got %#v", vehicle.CurrentAmmo())
	}
	if loaded.Count != cv.WeaponReloadAmmo(archetype.MachineGun) || loaded.ReadyTime != 1 {
		t.Fatalf("unexpected magazine %+v", loaded)
	}
	if _, ok := vehicle.Ammos[archetype.Rockets.Index()].(Reloading); !ok {
		t.Fatalf("unselected weapon reloaded: %#v", vehicle.Ammos[archetype.Rockets.Index()])
	}
}
