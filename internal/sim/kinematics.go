package sim

import (
	"math"

	"driftpursuit/arena/internal/cvars"
	"driftpursuit/arena/internal/geom"
)

// Turning updates the turn rate from the steering input, rotates the velocity
// by the steering share of the turn and returns the new heading. The caller
// decides whether to commit the heading.
func Turning(stats cvars.MovementStats, vel *geom.Vec2, angle float64, turnRate *float64, input Input, dt float64) float64 {
	//1.- Steering input accelerates the turn rate.
	*turnRate += input.RightLeft() * stats.TurnRateIncrease * dt

	//2.- Constant friction pulls the rate towards zero without crossing it.
	frictionConst := stats.TurnRateFrictionConst * dt
	if *turnRate >= 0 {
		*turnRate = math.Max(*turnRate-frictionConst, 0)
	} else {
		*turnRate = math.Min(*turnRate+frictionConst, 0)
	}

	//3.- Linear friction scales with the rate, then the rate is capped.
	damped := *turnRate * math.Pow(1-stats.TurnRateFrictionLinear, dt)
	*turnRate = geom.Clamp(damped, -stats.TurnRateMax, stats.TurnRateMax)

	//4.- Part of the turn bleeds into the direction of travel.
	turn := *turnRate * dt
	*vel = vel.Rotated(turn * stats.TurnEffectiveness)

	return geom.WrapAngle(angle + turn)
}

// AccelDecel applies throttle along the heading, both drag terms and the speed cap.
func AccelDecel(stats cvars.MovementStats, vel *geom.Vec2, angle float64, input Input, dt float64) {
	//1.- Throttle pushes along the current heading.
	*vel = vel.Add(geom.FromAngle(angle).Scale(input.UpDown() * stats.AccelForward * dt))

	//2.- Constant drag removes at most the current speed so it never reverses direction.
	direction := vel.Normalized()
	drag := math.Min(stats.FrictionConst*dt, vel.Length())
	*vel = vel.Sub(direction.Scale(drag))

	//3.- Linear drag scales the remaining speed.
	*vel = vel.Scale(math.Pow(1-stats.FrictionLinear, dt))

	//4.- Rescale to the cap while keeping the direction.
	if vel.LengthSquared() > stats.SpeedMax*stats.SpeedMax {
		*vel = direction.Scale(stats.SpeedMax)
	}
}
