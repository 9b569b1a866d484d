package replay

import (
	"fmt"
	"sync"

	"driftpursuit/arena/internal/wire"
)

// Event type names written to the event log.
const (
	EventExplosion        = "explosion"
	EventRailgun          = "railgun"
	EventBfgBeam          = "bfg_beam"
	EventVehicleDestroyed = "vehicle_destroyed"
	EventMissileLaunched  = "guided_missile_launched"
	EventMissileGone      = "guided_missile_gone"
)

// ExplosionEvent is the payload of an explosion event.
type ExplosionEvent struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Scale float64 `json:"scale"`
	Bfg   bool    `json:"bfg,omitempty"`
}

// SegmentEvent is the payload of a railgun or beam event.
type SegmentEvent struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// EntityEvent is the payload of events about a single entity.
type EntityEvent struct {
	Entity uint64 `json:"entity"`
}

// Stats summarises recorder activity for monitoring.
type Stats struct {
	Frames uint64
	Events uint64
}

// Recorder turns the frame stream of a running match into a replay bundle.
// Every frame is stored; its effect events and state transitions are also
// written to the event log for tools that only need the timeline.
type Recorder struct {
	mu        sync.Mutex
	writer    *Writer
	destroyed map[uint64]struct{}
	missile   uint64
	stats     Stats
}

// NewRecorder wraps an open writer.
func NewRecorder(writer *Writer) (*Recorder, error) {
	if writer == nil {
		return nil, fmt.Errorf("replay writer must be provided")
	}
	return &Recorder{writer: writer, destroyed: make(map[uint64]struct{})}, nil
}

// Record appends a captured frame and derives its events.
func (r *Recorder) Record(frame *wire.Frame) error {
	if r == nil {
		return fmt.Errorf("recorder not configured")
	}
	if frame == nil {
		return fmt.Errorf("frame must be provided")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.writer.AppendFrame(frame); err != nil {
		return fmt.Errorf("append frame %d: %w", frame.Tick, err)
	}
	r.stats.Frames++

	emit := func(eventType string, payload any) error {
		if err := r.writer.AppendEvent(frame.Tick, frame.FrameTime, eventType, payload); err != nil {
			return fmt.Errorf("append %s event: %w", eventType, err)
		}
		r.stats.Events++
		return nil
	}

	//1.- Effect events in the order the simulation produced them.
	for _, explosion := range frame.Explosions {
		if err := emit(EventExplosion, ExplosionEvent{X: explosion.X, Y: explosion.Y, Scale: explosion.Scale, Bfg: explosion.Bfg}); err != nil {
			return err
		}
	}
	for _, segment := range frame.Railguns {
		if err := emit(EventRailgun, segmentEvent(segment)); err != nil {
			return err
		}
	}
	for _, segment := range frame.BfgBeams {
		if err := emit(EventBfgBeam, segmentEvent(segment)); err != nil {
			return err
		}
	}

	//2.- State transitions are only visible by comparing against earlier frames.
	for _, vehicle := range frame.Vehicles {
		if !vehicle.Destroyed {
			continue
		}
		if _, seen := r.destroyed[vehicle.Entity]; seen {
			continue
		}
		r.destroyed[vehicle.Entity] = struct{}{}
		if err := emit(EventVehicleDestroyed, EntityEvent{Entity: vehicle.Entity}); err != nil {
			return err
		}
	}
	if frame.GuidedMissile != r.missile {
		if r.missile != 0 {
			if err := emit(EventMissileGone, EntityEvent{Entity: r.missile}); err != nil {
				return err
			}
		}
		if frame.GuidedMissile != 0 {
			if err := emit(EventMissileLaunched, EntityEvent{Entity: frame.GuidedMissile}); err != nil {
				return err
			}
		}
		r.missile = frame.GuidedMissile
	}
	return nil
}

// Snapshot returns statistics describing the recorder state.
func (r *Recorder) Snapshot() Stats {
	if r == nil {
		return Stats{}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

// Close finalises the bundle.
func (r *Recorder) Close() error {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.writer.Close()
}

func segmentEvent(segment wire.Segment) SegmentEvent {
	return SegmentEvent{X1: segment.X1, Y1: segment.Y1, X2: segment.X2, Y2: segment.Y2}
}
