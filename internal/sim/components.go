package sim

import (
	"driftpursuit/arena/internal/archetype"
	"driftpursuit/arena/internal/ecs"
	"driftpursuit/arena/internal/geom"
)

// Hitbox is a chassis relative rectangle rotated with the entity.
type Hitbox struct {
	Mins geom.Vec2
	Maxs geom.Vec2
}

// Corners returns the four world space corners for the given pose.
func (h Hitbox) Corners(pos geom.Vec2, angle float64) [4]geom.Vec2 {
	local := [4]geom.Vec2{
		{X: h.Mins.X, Y: h.Mins.Y},
		{X: h.Maxs.X, Y: h.Mins.Y},
		{X: h.Maxs.X, Y: h.Maxs.Y},
		{X: h.Mins.X, Y: h.Maxs.Y},
	}
	var corners [4]geom.Vec2
	for idx, corner := range local {
		corners[idx] = pos.Add(corner.Rotated(angle))
	}
	return corners
}

// Ammo is the state of one weapon slot: either Loaded or Reloading.
type Ammo interface {
	isAmmo()
}

// Loaded holds a magazine that can fire once the frame time reaches ReadyTime.
type Loaded struct {
	ReadyTime float64
	Count     int
}

// Reloading holds an empty magazine that refills at End.
type Reloading struct {
	Start float64
	End   float64
}

func (Loaded) isAmmo()    {}
func (Reloading) isAmmo() {}

// Vehicle is the per vehicle bookkeeping component.
type Vehicle struct {
	Type        archetype.VehicleType
	Destroyed   bool
	CurWeapon   archetype.Weapon
	TurretAngle float64
	Ammos       [archetype.WeaponCount]Ammo
}

// CurrentAmmo returns the ammo state of the selected weapon.
func (v *Vehicle) CurrentAmmo() Ammo {
	return v.Ammos[v.CurWeapon.Index()]
}

// Marker tags a projectile archetype so systems can filter without reading the Weapon payload.
type Marker struct{}

// Input is the per tick control snapshot of one steerable entity.
type Input struct {
	Left         bool `json:"left"`
	Right        bool `json:"right"`
	Up           bool `json:"up"`
	Down         bool `json:"down"`
	TurretLeft   bool `json:"turretLeft"`
	TurretRight  bool `json:"turretRight"`
	PrevWeapon   bool `json:"prevWeapon"`
	NextWeapon   bool `json:"nextWeapon"`
	Fire         bool `json:"fire"`
	SelfDestruct bool `json:"selfDestruct"`
}

// RightLeft combines the steering keys into -1, 0 or 1.
func (i Input) RightLeft() float64 {
	return axis(i.Right, i.Left)
}

// UpDown combines the throttle keys into -1, 0 or 1.
func (i Input) UpDown() float64 {
	return axis(i.Up, i.Down)
}

func axis(positive, negative bool) float64 {
	value := 0.0
	if positive {
		value++
	}
	if negative {
		value--
	}
	return value
}

// World groups the entity registry with one typed store per component.
type World struct {
	Registry *ecs.Registry
	Commands *ecs.Commands

	Pos       *ecs.Store[geom.Vec2]
	Vel       *ecs.Store[geom.Vec2]
	Angles    *ecs.Store[float64]
	TurnRates *ecs.Store[float64]
	Hitboxes  *ecs.Store[Hitbox]
	Vehicles  *ecs.Store[Vehicle]

	Weapons  *ecs.Store[archetype.Weapon]
	Owners   *ecs.Store[ecs.Entity]
	Expiries *ecs.Store[float64]

	MachineGunRounds *ecs.Store[Marker]
	ClusterBombs     *ecs.Store[Marker]
	GuidedMissiles   *ecs.Store[Marker]
	BfgRounds        *ecs.Store[Marker]

	Inputs     *ecs.Store[Input]
	PrevInputs *ecs.Store[Input]
}

// NewWorld creates an empty world with every component store registered.
func NewWorld() *World {
	reg := ecs.NewRegistry()
	return &World{
		Registry:         reg,
		Commands:         ecs.NewCommands(reg),
		Pos:              ecs.NewStore[geom.Vec2](reg),
		Vel:              ecs.NewStore[geom.Vec2](reg),
		Angles:           ecs.NewStore[float64](reg),
		TurnRates:        ecs.NewStore[float64](reg),
		Hitboxes:         ecs.NewStore[Hitbox](reg),
		Vehicles:         ecs.NewStore[Vehicle](reg),
		Weapons:          ecs.NewStore[archetype.Weapon](reg),
		Owners:           ecs.NewStore[ecs.Entity](reg),
		Expiries:         ecs.NewStore[float64](reg),
		MachineGunRounds: ecs.NewStore[Marker](reg),
		ClusterBombs:     ecs.NewStore[Marker](reg),
		GuidedMissiles:   ecs.NewStore[Marker](reg),
		BfgRounds:        ecs.NewStore[Marker](reg),
		Inputs:           ecs.NewStore[Input](reg),
		PrevInputs:       ecs.NewStore[Input](reg),
	}
}

// markerStore returns the archetype marker store of a weapon, if it has one.
func (w *World) markerStore(weapon archetype.Weapon) *ecs.Store[Marker] {
	switch weapon {
	case archetype.MachineGun:
		return w.MachineGunRounds
	case archetype.ClusterBomb:
		return w.ClusterBombs
	case archetype.GuidedMissile:
		return w.GuidedMissiles
	case archetype.Bfg:
		return w.BfgRounds
	default:
		return nil
	}
}

