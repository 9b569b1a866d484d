// Package cvars holds the read-only gameplay tunables consumed by the
// simulation core.
package cvars

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	_ "embed"

	"driftpursuit/arena/internal/archetype"
	"driftpursuit/arena/internal/geom"
)

// MovementStats parameterises the friction based kinematics for one archetype.
type MovementStats struct {
	AccelForward           float64 `json:"accelForward"`
	FrictionConst          float64 `json:"frictionConst"`
	FrictionLinear         float64 `json:"frictionLinear"`
	SpeedMax               float64 `json:"speedMax"`
	TurnRateIncrease       float64 `json:"turnRateIncrease"`
	TurnRateFrictionConst  float64 `json:"turnRateFrictionConst"`
	TurnRateFrictionLinear float64 `json:"turnRateFrictionLinear"`
	TurnRateMax            float64 `json:"turnRateMax"`
	TurnEffectiveness      float64 `json:"turnEffectiveness"`
}

// Mount places a weapon on a vehicle.
type Mount struct {
	Hardpoint archetype.Hardpoint `json:"hardpoint"`
	Offset    geom.Vec2           `json:"offset"`
}

// VehicleStats groups the per vehicle type tunables.
type VehicleStats struct {
	Movement            MovementStats
	TurretOffsetChassis geom.Vec2
	HitboxMins          geom.Vec2
	HitboxMaxs          geom.Vec2
	Mounts              [archetype.WeaponCount]Mount
}

// WeaponStats groups the per weapon tunables. An ExplosionScale of zero marks
// a weapon whose projectiles vanish without an explosion.
type WeaponStats struct {
	Refire                float64 `json:"refire"`
	ReloadTime            float64 `json:"reloadTime"`
	ReloadAmmo            int     `json:"reloadAmmo"`
	ExplosionScale        float64 `json:"explosionScale"`
	Speed                 float64 `json:"speed"`
	VehicleVelocityFactor float64 `json:"vehicleVelocityFactor"`
}

// ClusterBombStats shapes the submunition fan of a cluster bomb shot.
type ClusterBombStats struct {
	Count               int     `json:"count"`
	SpeedSpreadForward  float64 `json:"speedSpreadForward"`
	SpeedSpreadSideways float64 `json:"speedSpreadSideways"`
	SpeedSpreadGaussian bool    `json:"speedSpreadGaussian"`
	UniformRange        float64 `json:"uniformRange"`
	Time                float64 `json:"time"`
	TimeSpread          float64 `json:"timeSpread"`
}

// Cvars is the complete tunable set. It is a value type; copies are independent.
type Cvars struct {
	vehicles [archetype.VehicleTypeCount]VehicleStats
	weapons  [archetype.WeaponCount]WeaponStats

	GuidedMissileMovement       MovementStats
	MachineGunAngleSpread       float64
	ClusterBomb                 ClusterBombStats
	BfgBeamRange                float64
	RailgunRange                float64
	ProjectileHitRadius         float64
	TurretTurnSpeed             float64
	VehicleExplosionScale       float64
	SelfDestructExplosion1Scale float64
	SelfDestructExplosion2Scale float64
}

// Vehicle returns the full stat block for a vehicle type.
func (c *Cvars) Vehicle(vt archetype.VehicleType) VehicleStats {
	return c.vehicles[vt.Index()]
}

// SetVehicle replaces the stat block for a vehicle type.
func (c *Cvars) SetVehicle(vt archetype.VehicleType, stats VehicleStats) {
	c.vehicles[vt.Index()] = stats
}

// Weapon returns the full stat block for a weapon.
func (c *Cvars) Weapon(w archetype.Weapon) WeaponStats {
	return c.weapons[w.Index()]
}

// SetWeapon replaces the stat block for a weapon.
func (c *Cvars) SetWeapon(w archetype.Weapon, stats WeaponStats) {
	c.weapons[w.Index()] = stats
}

// VehicleMovementStats returns the kinematics parameters of a vehicle type.
func (c *Cvars) VehicleMovementStats(vt archetype.VehicleType) MovementStats {
	return c.vehicles[vt.Index()].Movement
}

// WeaponMovementStats returns the kinematics parameters of steerable projectiles.
func (c *Cvars) WeaponMovementStats() MovementStats {
	return c.GuidedMissileMovement
}

// WeaponRefire returns the delay between consecutive shots in seconds.
func (c *Cvars) WeaponRefire(w archetype.Weapon) float64 {
	return c.weapons[w.Index()].Refire
}

// WeaponReloadTime returns the reload duration in seconds.
func (c *Cvars) WeaponReloadTime(w archetype.Weapon) float64 {
	return c.weapons[w.Index()].ReloadTime
}

// WeaponReloadAmmo returns the magazine size after a reload.
func (c *Cvars) WeaponReloadAmmo(w archetype.Weapon) int {
	return c.weapons[w.Index()].ReloadAmmo
}

// WeaponExplosionScale reports the explosion scale of a weapon's projectiles, if any.
func (c *Cvars) WeaponExplosionScale(w archetype.Weapon) (float64, bool) {
	scale := c.weapons[w.Index()].ExplosionScale
	return scale, scale > 0
}

// WeaponSpeed returns the initial projectile speed of a weapon.
func (c *Cvars) WeaponSpeed(w archetype.Weapon) float64 {
	return c.weapons[w.Index()].Speed
}

// WeaponVehicleVelocityFactor returns the share of vehicle velocity inherited by projectiles.
func (c *Cvars) WeaponVehicleVelocityFactor(w archetype.Weapon) float64 {
	return c.weapons[w.Index()].VehicleVelocityFactor
}

// Hardpoint resolves where a vehicle type mounts a weapon.
func (c *Cvars) Hardpoint(vt archetype.VehicleType, w archetype.Weapon) (archetype.Hardpoint, geom.Vec2) {
	mount := c.vehicles[vt.Index()].Mounts[w.Index()]
	return mount.Hardpoint, mount.Offset
}

// VehicleTurretOffsetChassis returns the turret pivot relative to the chassis centre.
func (c *Cvars) VehicleTurretOffsetChassis(vt archetype.VehicleType) geom.Vec2 {
	return c.vehicles[vt.Index()].TurretOffsetChassis
}

// VehicleHitbox returns the chassis relative hitbox bounds of a vehicle type.
func (c *Cvars) VehicleHitbox(vt archetype.VehicleType) (mins, maxs geom.Vec2) {
	stats := c.vehicles[vt.Index()]
	return stats.HitboxMins, stats.HitboxMaxs
}

type vehicleDocument struct {
	Movement            MovementStats              `json:"movement"`
	TurretOffsetChassis geom.Vec2                  `json:"turretOffsetChassis"`
	HitboxMins          geom.Vec2                  `json:"hitboxMins"`
	HitboxMaxs          geom.Vec2                  `json:"hitboxMaxs"`
	Hardpoints          map[archetype.Weapon]Mount `json:"hardpoints"`
}

// document mirrors the structure of defaults.json.
type document struct {
	Vehicles                    map[archetype.VehicleType]vehicleDocument `json:"vehicles"`
	Weapons                     map[archetype.Weapon]WeaponStats          `json:"weapons"`
	GuidedMissileMovement       MovementStats                             `json:"guidedMissileMovement"`
	MachineGunAngleSpread       float64                                   `json:"machineGunAngleSpread"`
	ClusterBomb                 ClusterBombStats                          `json:"clusterBomb"`
	BfgBeamRange                float64                                   `json:"bfgBeamRange"`
	RailgunRange                float64                                   `json:"railgunRange"`
	ProjectileHitRadius         float64                                   `json:"projectileHitRadius"`
	TurretTurnSpeed             float64                                   `json:"turretTurnSpeed"`
	VehicleExplosionScale       float64                                   `json:"vehicleExplosionScale"`
	SelfDestructExplosion1Scale float64                                   `json:"selfDestructExplosion1Scale"`
	SelfDestructExplosion2Scale float64                                   `json:"selfDestructExplosion2Scale"`
}

var (
	defaultsOnce sync.Once
	defaultsData Cvars
	defaultsErr  error
)

//go:embed defaults.json
var defaultsPayload []byte

// Default returns the embedded tunables.
func Default() Cvars {
	defaultsOnce.Do(func() {
		//1.- Parse the embedded payload once so every caller shares the same baseline.
		defaultsData, defaultsErr = decode(defaultsPayload)
	})
	//2.- A broken embedded file is a build defect, surface it loudly.
	if defaultsErr != nil {
		panic(defaultsErr)
	}
	//3.- Cvars is a value type so the cached baseline cannot be mutated through the copy.
	return defaultsData
}

// Load overlays the JSON document read from r on top of the embedded defaults.
// Objects merge key by key, so an overlay only needs the values it changes.
func Load(r io.Reader) (Cvars, error) {
	if r == nil {
		return Default(), nil
	}
	overlay, err := io.ReadAll(r)
	if err != nil {
		return Cvars{}, fmt.Errorf("read cvars overlay: %w", err)
	}
	if len(bytes.TrimSpace(overlay)) == 0 {
		return Default(), nil
	}

	//1.- Merge the overlay into the defaults as generic trees so partial objects keep sibling values.
	var base map[string]any
	if err := json.Unmarshal(defaultsPayload, &base); err != nil {
		return Cvars{}, fmt.Errorf("parse cvars defaults: %w", err)
	}
	var patch map[string]any
	if err := json.Unmarshal(overlay, &patch); err != nil {
		return Cvars{}, fmt.Errorf("parse cvars overlay: %w", err)
	}
	merged, err := json.Marshal(mergeTrees(base, patch))
	if err != nil {
		return Cvars{}, fmt.Errorf("merge cvars overlay: %w", err)
	}

	//2.- Decode the merged tree strictly so misspelled keys are reported.
	cv, err := decode(merged)
	if err != nil {
		return Cvars{}, err
	}
	return cv, nil
}

// LoadFile overlays the JSON file at path on top of the embedded defaults.
// An empty path yields the defaults.
func LoadFile(path string) (Cvars, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Default(), nil
	}
	file, err := os.Open(path)
	if err != nil {
		return Cvars{}, fmt.Errorf("open cvars file: %w", err)
	}
	defer file.Close()
	return Load(file)
}

func mergeTrees(base, patch map[string]any) map[string]any {
	for key, value := range patch {
		if patchChild, ok := value.(map[string]any); ok {
			if baseChild, ok := base[key].(map[string]any); ok {
				base[key] = mergeTrees(baseChild, patchChild)
				continue
			}
		}
		base[key] = value
	}
	return base
}

func decode(payload []byte) (Cvars, error) {
	decoder := json.NewDecoder(bytes.NewReader(payload))
	decoder.DisallowUnknownFields()
	var doc document
	if err := decoder.Decode(&doc); err != nil {
		return Cvars{}, fmt.Errorf("decode cvars: %w", err)
	}
	return doc.build()
}

func (d document) build() (Cvars, error) {
	var problems []string
	cv := Cvars{
		GuidedMissileMovement:       d.GuidedMissileMovement,
		MachineGunAngleSpread:       d.MachineGunAngleSpread,
		ClusterBomb:                 d.ClusterBomb,
		BfgBeamRange:                d.BfgBeamRange,
		RailgunRange:                d.RailgunRange,
		ProjectileHitRadius:         d.ProjectileHitRadius,
		TurretTurnSpeed:             d.TurretTurnSpeed,
		VehicleExplosionScale:       d.VehicleExplosionScale,
		SelfDestructExplosion1Scale: d.SelfDestructExplosion1Scale,
		SelfDestructExplosion2Scale: d.SelfDestructExplosion2Scale,
	}

	//1.- Every vehicle type needs a complete entry including one mount per weapon.
	for idx := 0; idx < archetype.VehicleTypeCount; idx++ {
		vt := archetype.VehicleType(idx)
		entry, ok := d.Vehicles[vt]
		if !ok {
			problems = append(problems, fmt.Sprintf("vehicle %s is missing", vt))
			continue
		}
		stats := VehicleStats{
			Movement:            entry.Movement,
			TurretOffsetChassis: entry.TurretOffsetChassis,
			HitboxMins:          entry.HitboxMins,
			HitboxMaxs:          entry.HitboxMaxs,
		}
		if entry.HitboxMins.X >= entry.HitboxMaxs.X || entry.HitboxMins.Y >= entry.HitboxMaxs.Y {
			problems = append(problems, fmt.Sprintf("vehicle %s hitbox is empty", vt))
		}
		problems = append(problems, validateMovement("vehicle "+vt.String(), entry.Movement)...)
		for _, w := range archetype.Weapons() {
			mount, ok := entry.Hardpoints[w]
			if !ok {
				problems = append(problems, fmt.Sprintf("vehicle %s has no hardpoint for %s", vt, w))
				continue
			}
			stats.Mounts[w.Index()] = mount
		}
		cv.vehicles[idx] = stats
	}

	//2.- Every weapon needs stats with a usable magazine.
	for _, w := range archetype.Weapons() {
		stats, ok := d.Weapons[w]
		if !ok {
			problems = append(problems, fmt.Sprintf("weapon %s is missing", w))
			continue
		}
		if stats.ReloadAmmo < 1 {
			problems = append(problems, fmt.Sprintf("weapon %s reloadAmmo must be at least 1", w))
		}
		if stats.Refire < 0 || stats.ReloadTime < 0 {
			problems = append(problems, fmt.Sprintf("weapon %s timers must not be negative", w))
		}
		if stats.ExplosionScale < 0 {
			problems = append(problems, fmt.Sprintf("weapon %s explosionScale must not be negative", w))
		}
		cv.weapons[w.Index()] = stats
	}

	//3.- Scalars shared by several systems.
	problems = append(problems, validateMovement("guided missile", d.GuidedMissileMovement)...)
	if d.ClusterBomb.Count < 0 {
		problems = append(problems, "clusterBomb.count must not be negative")
	}
	if d.ClusterBomb.TimeSpread < 0 || d.ClusterBomb.UniformRange < 0 {
		problems = append(problems, "clusterBomb spreads must not be negative")
	}
	if d.ProjectileHitRadius <= 0 {
		problems = append(problems, "projectileHitRadius must be positive")
	}
	if d.RailgunRange <= 0 {
		problems = append(problems, "railgunRange must be positive")
	}
	if d.BfgBeamRange < 0 {
		problems = append(problems, "bfgBeamRange must not be negative")
	}

	if len(problems) > 0 {
		return Cvars{}, fmt.Errorf("invalid cvars: %s", strings.Join(problems, "; "))
	}
	return cv, nil
}

func validateMovement(owner string, stats MovementStats) []string {
	var problems []string
	if stats.SpeedMax < 0 || stats.TurnRateMax < 0 {
		problems = append(problems, owner+" movement maxima must not be negative")
	}
	if stats.FrictionLinear < 0 || stats.FrictionLinear > 1 || stats.TurnRateFrictionLinear < 0 || stats.TurnRateFrictionLinear > 1 {
		problems = append(problems, owner+" linear friction must be within [0, 1]")
	}
	if stats.FrictionConst < 0 || stats.TurnRateFrictionConst < 0 {
		problems = append(problems, owner+" constant friction must not be negative")
	}
	return problems
}
