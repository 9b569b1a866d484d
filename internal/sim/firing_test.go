package sim

import (
	"math"
	"testing"

	"driftpursuit/arena/internal/archetype"
	"driftpursuit/arena/internal/ecs"
	"driftpursuit/arena/internal/geom"
)

func TestWeaponFiringAmmoCycle(t *testing.T) {
	cv, w, gs := fixture(t)
	e := SpawnVehicle(cv, w, archetype.Tank, geom.V(0, 0), 0)
	vehicle := w.Vehicles.Must(e)
	vehicle.Ammos[archetype.MachineGun.Index()] = Loaded{ReadyTime: 1, Count: 1}
	w.Inputs.Must(e).Fire = true
	gs.FrameTime = 1

	//1.- The last round starts a reload ending after the reload time.
	WeaponFiring(cv, w, gs, openMap{})
	reloading, ok := vehicle.CurrentAmmo().(Reloading)
	if !ok {
		t.Fatalf("expected reloading, got %#v", vehicle.CurrentAmmo())
	}
	if reloading.Start != 1 || !near(reloading.End, 1+cv.WeaponReloadTime(archetype.MachineGun)) {
		t.Fatalf("unexpected reload window %+v", reloading)
	}
	if got := w.Weapons.Len(); got != 1 {
		t.Fatalf("expected one round in flight, got %d", got)
	}

	//2.- Holding the trigger while reloading fires nothing.
	WeaponFiring(cv, w, gs, openMap{})
	if got := w.Weapons.Len(); got != 1 {
		t.Fatalf("fired while reloading, %d rounds in flight", got)
	}

	//3.- Once the window ends the magazine is full again.
	gs.FrameTime = reloading.End
	VehicleLogic(cv, w, gs)
	loaded, ok := vehicle.CurrentAmmo().(Loaded)
	if !ok || loaded.Count != cv.WeaponReloadAmmo(archetype.MachineGun) {
		t.Fatalf("expected full magazine, got %#v", vehicle.CurrentAmmo())
	}
}

func TestWeaponFiringHonoursRefire(t *testing.T) {
	cv, w, gs := fixture(t)
	e := SpawnVehicle(cv, w, archetype.Tank, geom.V(0, 0), 0)
	vehicle := w.Vehicles.Must(e)
	vehicle.CurWeapon = archetype.Rockets
	w.Inputs.Must(e).Fire = true
	gs.FrameTime = 1

	WeaponFiring(cv, w, gs, openMap{})
	WeaponFiring(cv, w, gs, openMap{})

	loaded := vehicle.CurrentAmmo().(Loaded)
	if loaded.Count != cv.WeaponReloadAmmo(archetype.Rockets)-1 {
		t.Fatalf("expected a single rocket, magazine %+v", loaded)
	}
	if !near(loaded.ReadyTime, 1+cv.WeaponRefire(archetype.Rockets)) {
		t.Fatalf("unexpected ready time %v", loaded.ReadyTime)
	}
}

func TestMachineGunRoundLeavesTheTurret(t *testing.T) {
	cv, w, gs := fixture(t)
	cv.MachineGunAngleSpread = 0
	stats := cv.Weapon(archetype.MachineGun)
	stats.VehicleVelocityFactor = 0
	cv.SetWeapon(archetype.MachineGun, stats)

	e := SpawnVehicle(cv, w, archetype.Tank, geom.V(0, 0), 0)
	*w.Vel.Must(e) = geom.V(80, 0)
	w.Inputs.Must(e).Fire = true

	WeaponFiring(cv, w, gs, openMap{})

	rounds := w.MachineGunRounds.Entities()
	if len(rounds) != 1 {
		t.Fatalf("expected one machine gun round, got %d", len(rounds))
	}
	round := rounds[0]
	if got := *w.Vel.Must(round); got != geom.V(stats.Speed, 0) {
		t.Fatalf("expected velocity (%v, 0), got %+v", stats.Speed, got)
	}
	//1.- Turret pivot plus the barrel offset.
	_, offset := cv.Hardpoint(archetype.Tank, archetype.MachineGun)
	want := cv.VehicleTurretOffsetChassis(archetype.Tank).Add(offset)
	if got := *w.Pos.Must(round); !nearVec(got, want) {
		t.Fatalf("expected muzzle %+v, got %+v", want, got)
	}
	if got := *w.Owners.Must(round); got != e {
		t.Fatalf("expected owner %v, got %v", e, got)
	}
}

func TestMuzzleFollowsTurret(t *testing.T) {
	cv, _, _ := fixture(t)
	vehicle := &Vehicle{Type: archetype.Tank, CurWeapon: archetype.Rockets, TurretAngle: math.Pi / 2}
	pos := geom.V(100, 50)

	origin, shotAngle := muzzle(cv, vehicle, pos, math.Pi/2)

	//1.- Chassis faces +y and the turret another quarter turn, so the barrel points at -x.
	_, offset := cv.Hardpoint(archetype.Tank, archetype.Rockets)
	pivot := cv.VehicleTurretOffsetChassis(archetype.Tank).Rotated(math.Pi / 2)
	want := pos.Add(pivot).Add(offset.Rotated(math.Pi))
	if !near(shotAngle, math.Pi) || !nearVec(origin, want) {
		t.Fatalf("expected %+v at %v, got %+v at %v", want, math.Pi, origin, shotAngle)
	}

	//2.- Chassis mounts ignore the turret.
	vehicle.Type = archetype.Hovercraft
	_, offset = cv.Hardpoint(archetype.Hovercraft, archetype.Rockets)
	origin, shotAngle = muzzle(cv, vehicle, pos, 0)
	if shotAngle != 0 || !nearVec(origin, pos.Add(offset)) {
		t.Fatalf("unexpected chassis muzzle %+v at %v", origin, shotAngle)
	}
}

func TestRailgunTracesToWall(t *testing.T) {
	cv, w, gs := fixture(t)
	grid := gridFromRows(t,
		"##########",
		"#........#",
		"#........#",
		"#........#",
		"#........#",
		"##########",
	)
	e := SpawnVehicle(cv, w, archetype.Tank, geom.V(40, 30), 0)
	vehicle := w.Vehicles.Must(e)
	vehicle.CurWeapon = archetype.Railgun
	w.Inputs.Must(e).Fire = true

	WeaponFiring(cv, w, gs, grid)

	if len(gs.Railguns) != 1 {
		t.Fatalf("expected one railgun trace, got %d", len(gs.Railguns))
	}
	origin, _ := muzzle(cv, vehicle, geom.V(40, 30), 0)
	trace := gs.Railguns[0]
	if !nearVec(trace.From, origin) {
		t.Fatalf("trace starts at %+v, want %+v", trace.From, origin)
	}
	if math.Abs(trace.To.X-90) > 1e-6 || math.Abs(trace.To.Y-30) > 1e-6 {
		t.Fatalf("trace should end on the wall face at x=90, got %+v", trace.To)
	}
	if got := w.Weapons.Len(); got != 0 {
		t.Fatalf("railgun must not spawn projectiles, got %d", got)
	}
}

func TestClusterBombSpawnsFusedSubmunitions(t *testing.T) {
	for _, gaussian := range []bool{true, false} {
		cv, w, gs := fixture(t)
		cv.ClusterBomb.Count = 5
		cv.ClusterBomb.SpeedSpreadGaussian = gaussian
		e := SpawnVehicle(cv, w, archetype.Hummer, geom.V(0, 0), 0)
		w.Vehicles.Must(e).CurWeapon = archetype.ClusterBomb
		w.Inputs.Must(e).Fire = true
		gs.FrameTime = 2

		WeaponFiring(cv, w, gs, openMap{})

		bombs := w.ClusterBombs.Entities()
		if len(bombs) != 5 {
			t.Fatalf("gaussian=%v: expected 5 submunitions, got %d", gaussian, len(bombs))
		}
		cb := cv.ClusterBomb
		for _, bomb := range bombs {
			expiry, ok := w.Expiries.Get(bomb)
			if !ok {
				t.Fatalf("gaussian=%v: submunition %v has no fuse", gaussian, bomb)
			}
			lo, hi := gs.FrameTime+cb.Time-cb.TimeSpread, gs.FrameTime+cb.Time+cb.TimeSpread
			if *expiry < lo || *expiry > hi {
				t.Fatalf("gaussian=%v: expiry %v outside [%v, %v]", gaussian, *expiry, lo, hi)
			}
			if !gaussian {
				//1.- Uniform spread bounds the speed deviation per axis.
				vel := *w.Vel.Must(bomb)
				speed := cv.WeaponSpeed(archetype.ClusterBomb)
				if math.Abs(vel.X-speed) > cb.SpeedSpreadForward*cb.UniformRange+eps ||
					math.Abs(vel.Y) > cb.SpeedSpreadSideways*cb.UniformRange+eps {
					t.Fatalf("uniform spread out of range: %+v", vel)
				}
			}
		}
	}
}

func TestGuidedMissileOnlyForPlayer(t *testing.T) {
	cv, w, gs := fixture(t)
	bot := SpawnVehicle(cv, w, archetype.Tank, geom.V(0, 0), 0)
	player := SpawnVehicle(cv, w, archetype.Tank, geom.V(200, 0), math.Pi/2)
	gs.PlayerEntity = player
	for _, e := range []ecs.Entity{bot, player} {
		w.Vehicles.Must(e).CurWeapon = archetype.GuidedMissile
		w.Inputs.Must(e).Fire = true
	}
	*w.Vel.Must(player) = geom.V(10, 0)

	WeaponFiring(cv, w, gs, openMap{})

	//1.- The bot keeps its round.
	if got := w.Vehicles.Must(bot).CurrentAmmo(); got != (Loaded{ReadyTime: 0, Count: 1}) {
		t.Fatalf("bot ammo changed to %#v", got)
	}

	//2.- The player's missile is steerable and tracked.
	missiles := w.GuidedMissiles.Entities()
	if len(missiles) != 1 {
		t.Fatalf("expected one guided missile, got %d", len(missiles))
	}
	missile := missiles[0]
	if gs.GuidedMissile != missile {
		t.Fatalf("expected tracked missile %v, got %v", missile, gs.GuidedMissile)
	}
	if got := *w.Owners.Must(missile); got != player {
		t.Fatalf("missile owned by %v", got)
	}
	vel := *w.Vel.Must(missile)
	if got := *w.Angles.Must(missile); !near(got, vel.Angle()) {
		t.Fatalf("missile heading %v does not follow velocity %+v", got, vel)
	}
	if *w.TurnRates.Must(missile) != 0 || *w.Inputs.Must(missile) != (Input{}) {
		t.Fatalf("missile should start straight with a neutral input")
	}
	if _, ok := w.Vehicles.Must(player).CurrentAmmo().(Reloading); !ok {
		t.Fatalf("player should be reloading the guided missile")
	}
}

func TestDestroyedVehicleDoesNotFire(t *testing.T) {
	cv, w, gs := fixture(t)
	e := SpawnVehicle(cv, w, archetype.Tank, geom.V(0, 0), 0)
	w.Vehicles.Must(e).Destroyed = true
	w.Inputs.Must(e).Fire = true

	WeaponFiring(cv, w, gs, openMap{})

	if got := w.Weapons.Len(); got != 0 {
		t.Fatalf("destroyed vehicle fired %d rounds", got)
	}
}
