package sim

import (
	"driftpursuit/arena/internal/cvars"
	"driftpursuit/arena/internal/ecs"
	"driftpursuit/arena/internal/geom"
)

// Map is the static level geometry the systems collide against.
type Map interface {
	Collision(point geom.Vec2) bool
	CollisionBetween(from, to geom.Vec2) (geom.Vec2, bool)
}

func mustHaveMap(m Map) {
	if m == nil {
		panic("sim: system requires map geometry")
	}
}

// VehicleMovement steers and moves every live vehicle, bouncing back from walls.
func VehicleMovement(cv *cvars.Cvars, w *World, gs *GameState, m Map) {
	mustHaveMap(m)
	query := ecs.NewQuery(w.Vehicles, w.Pos, w.Vel, w.Angles, w.TurnRates, w.Hitboxes, w.Inputs)
	for e := range query.Each() {
		vehicle := w.Vehicles.Must(e)
		if vehicle.Destroyed {
			continue
		}
		pos := w.Pos.Must(e)
		vel := w.Vel.Must(e)
		angle := w.Angles.Must(e)
		turnRate := w.TurnRates.Must(e)
		hitbox := w.Hitboxes.Must(e)
		input := *w.Inputs.Must(e)
		stats := cv.VehicleMovementStats(vehicle.Type)

		//1.- Try the new heading in place; a wall flips and halves the turn rate instead.
		newAngle := Turning(stats, vel, *angle, turnRate, input, gs.Dt)
		if cornersCollide(m, hitbox.Corners(*pos, newAngle)) {
			*turnRate *= -0.5
		} else {
			*angle = newAngle
		}

		AccelDecel(stats, vel, *angle, input, gs.Dt)

		//2.- Try the new position with the committed heading; a wall flips and halves the velocity.
		newPos := pos.Add(vel.Scale(gs.Dt))
		if cornersCollide(m, hitbox.Corners(newPos, *angle)) {
			*vel = vel.Scale(-0.5)
		} else {
			*pos = newPos
		}
	}
}

func cornersCollide(m Map, corners [4]geom.Vec2) bool {
	for _, corner := range corners {
		if m.Collision(corner) {
			return true
		}
	}
	return false
}
