package sim

import (
	"driftpursuit/arena/internal/cvars"
	"driftpursuit/arena/internal/ecs"
)

// GuidedMissileSteering steers guided missiles from their own input component.
func GuidedMissileSteering(cv *cvars.Cvars, w *World, gs *GameState) {
	stats := cv.WeaponMovementStats()
	for e := range ecs.NewQuery(w.GuidedMissiles, w.Vel, w.Angles, w.TurnRates, w.Inputs).Each() {
		vel := w.Vel.Must(e)
		angle := w.Angles.Must(e)
		turnRate := w.TurnRates.Must(e)
		input := *w.Inputs.Must(e)

		//1.- Missiles have no hitbox, so the heading is always committed.
		*angle = Turning(stats, vel, *angle, turnRate, input, gs.Dt)
		AccelDecel(stats, vel, *angle, input, gs.Dt)
	}
}
