package runner

import (
	"errors"
	"testing"
	"time"

	"driftpursuit/arena/internal/archetype"
	"driftpursuit/arena/internal/cvars"
	"driftpursuit/arena/internal/geom"
	"driftpursuit/arena/internal/logging"
	"driftpursuit/arena/internal/sim"
	"driftpursuit/arena/internal/tilemap"
	"driftpursuit/arena/internal/wire"
)

func TestSessionPublishesFramesAndClearsEvents(t *testing.T) {
	grid, err := tilemap.Arena(16, 10, 64)
	if err != nil {
		t.Fatalf("arena: %v", err)
	}
	simulation := sim.New(cvars.Default(), grid, sim.WithLogger(logging.NewTestLogger()))
	player := simulation.SpawnPlayer(archetype.Tank, geom.V(300, 300), 0)

	var frames []*wire.Frame
	collect := FrameSinkFunc(func(frame *wire.Frame) error {
		frames = append(frames, frame)
		return nil
	})
	failing := FrameSinkFunc(func(*wire.Frame) error { return errors.New("sink down") })
	session := NewSession(simulation, logging.NewTestLogger(), collect, nil, failing)

	//1.- A self destruct shows up once in the published frames.
	session.SetInput(sim.Input{SelfDestruct: true})
	session.Step(time.Second / 60)
	session.SetInput(sim.Input{})
	session.Step(time.Second / 60)

	if len(frames) != 2 {
		t.Fatalf("expected two frames, got %d", len(frames))
	}
	if frames[0].Tick != 1 || len(frames[0].Explosions) != 2 {
		t.Fatalf("unexpected first frame %+v", frames[0])
	}
	if len(frames[1].Explosions) != 0 {
		t.Fatalf("events leaked into the next frame: %+v", frames[1].Explosions)
	}
	snap := session.Snapshot()
	if !snap.Vehicles[player].Vehicle.Destroyed || snap.Tick != 2 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}
