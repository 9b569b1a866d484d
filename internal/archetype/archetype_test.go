package archetype

import (
	"encoding/json"
	"testing"
)

func TestWeaponCyclingWraps(t *testing.T) {
	//1.- Walk forward and backward across the list boundaries.
	if got := Bfg.Next(); got != MachineGun {
		t.Fatalf("expected wrap to machine gun, got %v", got)
	}
	if got := MachineGun.Prev(); got != Bfg {
		t.Fatalf("expected wrap to bfg, got %v", got)
	}
	if got := Railgun.Next(); got != ClusterBomb {
		t.Fatalf("unexpected next weapon %v", got)
	}
}

func TestWeaponFromIndexPanicsOutOfRange(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for out of range index")
		}
	}()
	WeaponFromIndex(WeaponCount)
}

func TestWeaponJSONKeys(t *testing.T) {
	payload := []byte(`{"mg": 1, "bfg": 2}`)
	var decoded map[Weapon]int
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decoded[MachineGun] != 1 || decoded[Bfg] != 2 {
		t.Fatalf("unexpected decode %v", decoded)
	}
	if err := json.Unmarshal([]byte(`{"laser": 1}`), &decoded); err == nil {
		t.Fatalf("expected unknown weapon error")
	}
}

func TestHardpointText(t *testing.T) {
	var h Hardpoint
	if err := h.UnmarshalText([]byte("Turret")); err != nil || h != Turret {
		t.Fatalf("unexpected hardpoint %v err %v", h, err)
	}
	if err := h.UnmarshalText([]byte("wing")); err == nil {
		t.Fatalf("expected error for unknown hardpoint")
	}
}
