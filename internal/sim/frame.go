package sim

import (
	"driftpursuit/arena/internal/ecs"
	"driftpursuit/arena/internal/wire"
)

// CaptureFrame copies the post tick poses and the pending effect events into
// a wire frame. It does not clear the events.
func (s *Simulation) CaptureFrame() *wire.Frame {
	return BuildFrame(s.tick, s.world, s.state)
}

// BuildFrame assembles a wire frame from the world and game state.
func BuildFrame(tick uint64, w *World, gs *GameState) *wire.Frame {
	frame := &wire.Frame{
		Tick:          tick,
		FrameTime:     gs.FrameTime,
		GuidedMissile: uint64(gs.GuidedMissile),
	}

	//1.- Vehicles, destroyed ones included so viewers can draw wrecks.
	for e := range ecs.NewQuery(w.Vehicles, w.Pos, w.Angles).Each() {
		vehicle := w.Vehicles.Must(e)
		pos := w.Pos.Must(e)
		frame.Vehicles = append(frame.Vehicles, wire.Vehicle{
			Entity:      uint64(e),
			Type:        uint32(vehicle.Type),
			X:           pos.X,
			Y:           pos.Y,
			Angle:       *w.Angles.Must(e),
			TurretAngle: vehicle.TurretAngle,
			Weapon:      uint32(vehicle.CurWeapon),
			Destroyed:   vehicle.Destroyed,
		})
	}

	//2.- Projectiles.
	for e := range ecs.NewQuery(w.Weapons, w.Pos).Each() {
		pos := w.Pos.Must(e)
		frame.Projectiles = append(frame.Projectiles, wire.Projectile{
			Entity: uint64(e),
			Weapon: uint32(*w.Weapons.Must(e)),
			X:      pos.X,
			Y:      pos.Y,
		})
	}

	//3.- Effect events of this tick.
	for _, explosion := range gs.Explosions {
		frame.Explosions = append(frame.Explosions, wire.Explosion{
			X:     explosion.Pos.X,
			Y:     explosion.Pos.Y,
			Scale: explosion.Scale,
			Start: explosion.Start,
			Bfg:   explosion.Bfg,
		})
	}
	frame.BfgBeams = appendSegments(frame.BfgBeams, gs.BfgBeams)
	frame.Railguns = appendSegments(frame.Railguns, gs.Railguns)
	return frame
}

func appendSegments(dst []wire.Segment, src []Segment) []wire.Segment {
	for _, segment := range src {
		dst = append(dst, wire.Segment{X1: segment.From.X, Y1: segment.From.Y, X2: segment.To.X, Y2: segment.To.Y})
	}
	return dst
}
