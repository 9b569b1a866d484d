package sim

import (
	"driftpursuit/arena/internal/cvars"
	"driftpursuit/arena/internal/ecs"
)

// SelfDestruct blows up vehicles whose driver asked for it.
func SelfDestruct(cv *cvars.Cvars, w *World, gs *GameState) {
	for e := range ecs.NewQuery(w.Vehicles, w.Pos, w.Inputs).Each() {
		vehicle := w.Vehicles.Must(e)
		if vehicle.Destroyed || !w.Inputs.Must(e).SelfDestruct {
			continue
		}
		vehicle.Destroyed = true
		pos := *w.Pos.Must(e)
		gs.pushExplosion(pos, cv.SelfDestructExplosion1Scale, false)
		gs.pushExplosion(pos, cv.SelfDestructExplosion2Scale, false)
	}
}
