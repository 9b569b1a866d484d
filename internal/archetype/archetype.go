// Package archetype enumerates the weapon and vehicle categories shared by the
// tunables and the simulation core.
package archetype

import (
	"fmt"
	"strings"
)

// Weapon identifies a weapon archetype. It tags projectile entities and is
// the value of a vehicle's currently selected weapon.
type Weapon uint8

const (
	MachineGun Weapon = iota
	Railgun
	ClusterBomb
	Rockets
	HomingMissile
	GuidedMissile
	Bfg
)

// WeaponCount is the number of weapon archetypes; vehicles carry one ammo slot per archetype.
const WeaponCount = 7

var weaponNames = [WeaponCount]string{"mg", "rail", "cb", "rockets", "hm", "gm", "bfg"}

// WeaponFromIndex converts a slot index into a weapon, panicking when out of range.
func WeaponFromIndex(index int) Weapon {
	if index < 0 || index >= WeaponCount {
		panic(fmt.Sprintf("archetype: weapon index %d out of range [0, %d)", index, WeaponCount))
	}
	return Weapon(index)
}

// Index returns the ammo slot of the weapon.
func (w Weapon) Index() int {
	if int(w) >= WeaponCount {
		panic(fmt.Sprintf("archetype: invalid weapon %d", uint8(w)))
	}
	return int(w)
}

// Next cycles forward through the weapon list with wraparound.
func (w Weapon) Next() Weapon {
	return WeaponFromIndex((w.Index() + 1) % WeaponCount)
}

// Prev cycles backward through the weapon list with wraparound.
func (w Weapon) Prev() Weapon {
	return WeaponFromIndex((w.Index() + WeaponCount - 1) % WeaponCount)
}

// String returns the short cvar name of the weapon.
func (w Weapon) String() string {
	if int(w) >= WeaponCount {
		return fmt.Sprintf("weapon(%d)", uint8(w))
	}
	return weaponNames[w]
}

// MarshalText encodes the weapon by name so it can key JSON objects.
func (w Weapon) MarshalText() ([]byte, error) {
	if int(w) >= WeaponCount {
		return nil, fmt.Errorf("invalid weapon %d", uint8(w))
	}
	return []byte(weaponNames[w]), nil
}

// UnmarshalText decodes a weapon name.
func (w *Weapon) UnmarshalText(text []byte) error {
	name := strings.ToLower(strings.TrimSpace(string(text)))
	for idx, candidate := range weaponNames {
		if candidate == name {
			*w = Weapon(idx)
			return nil
		}
	}
	return fmt.Errorf("unknown weapon %q", string(text))
}

// Weapons lists every archetype in slot order.
func Weapons() []Weapon {
	all := make([]Weapon, WeaponCount)
	for idx := range all {
		all[idx] = Weapon(idx)
	}
	return all
}

// VehicleType identifies a vehicle archetype.
type VehicleType uint8

const (
	Tank VehicleType = iota
	Hovercraft
	Hummer
)

// VehicleTypeCount is the number of vehicle archetypes.
const VehicleTypeCount = 3

var vehicleNames = [VehicleTypeCount]string{"tank", "hovercraft", "hummer"}

// String returns the cvar name of the vehicle type.
func (v VehicleType) String() string {
	if int(v) >= VehicleTypeCount {
		return fmt.Sprintf("vehicle(%d)", uint8(v))
	}
	return vehicleNames[v]
}

// Index returns the table slot of the vehicle type.
func (v VehicleType) Index() int {
	if int(v) >= VehicleTypeCount {
		panic(fmt.Sprintf("archetype: invalid vehicle type %d", uint8(v)))
	}
	return int(v)
}

// MarshalText encodes the vehicle type by name.
func (v VehicleType) MarshalText() ([]byte, error) {
	if int(v) >= VehicleTypeCount {
		return nil, fmt.Errorf("invalid vehicle type %d", uint8(v))
	}
	return []byte(vehicleNames[v]), nil
}

// UnmarshalText decodes a vehicle type name.
func (v *VehicleType) UnmarshalText(text []byte) error {
	name := strings.ToLower(strings.TrimSpace(string(text)))
	for idx, candidate := range vehicleNames {
		if candidate == name {
			*v = VehicleType(idx)
			return nil
		}
	}
	return fmt.Errorf("unknown vehicle type %q", string(text))
}

// Hardpoint is the mount a weapon fires from.
type Hardpoint uint8

const (
	Chassis Hardpoint = iota
	Turret
)

// MarshalText encodes the hardpoint by name.
func (h Hardpoint) MarshalText() ([]byte, error) {
	switch h {
	case Chassis:
		return []byte("chassis"), nil
	case Turret:
		return []byte("turret"), nil
	default:
		return nil, fmt.Errorf("invalid hardpoint %d", uint8(h))
	}
}

// UnmarshalText decodes a hardpoint name.
func (h *Hardpoint) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "chassis":
		*h = Chassis
	case "turret":
		*h = Turret
	default:
		return fmt.Errorf("unknown hardpoint %q", string(text))
	}
	return nil
}
