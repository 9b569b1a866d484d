package runner

import (
	"sync"
	"time"

	"driftpursuit/arena/internal/logging"
	"driftpursuit/arena/internal/sim"
	"driftpursuit/arena/internal/wire"
)

// FrameSink consumes the frame captured after every step.
type FrameSink interface {
	Publish(frame *wire.Frame) error
}

// FrameSinkFunc adapts a function into a FrameSink.
type FrameSinkFunc func(frame *wire.Frame) error

// Publish implements FrameSink.
func (f FrameSinkFunc) Publish(frame *wire.Frame) error { return f(frame) }

// Session serialises access to a simulation shared by the loop goroutine and
// the input handlers, and fans each captured frame out to the sinks.
type Session struct {
	mu    sync.Mutex
	sim   *sim.Simulation
	sinks []FrameSink
	log   *logging.Logger
}

// NewSession wraps a simulation; nil sinks are skipped.
func NewSession(simulation *sim.Simulation, logger *logging.Logger, sinks ...FrameSink) *Session {
	if logger == nil {
		logger = logging.L()
	}
	session := &Session{sim: simulation, log: logger}
	for _, sink := range sinks {
		if sink != nil {
			session.sinks = append(session.sinks, sink)
		}
	}
	return session
}

// Step advances the simulation once and publishes the resulting frame.
func (s *Session) Step(step time.Duration) {
	//1.- Advance and capture under the lock; the frame is a detached copy.
	s.mu.Lock()
	s.sim.Step(step.Seconds())
	frame := s.sim.CaptureFrame()
	s.sim.ClearEvents()
	s.mu.Unlock()

	//2.- Sinks run outside the lock so slow consumers never stall input handling.
	for _, sink := range s.sinks {
		if err := sink.Publish(frame); err != nil {
			s.log.Warn("frame sink failed", logging.Error(err), logging.Tick(frame.Tick))
		}
	}
}

// SetInput replaces the player's input snapshot.
func (s *Session) SetInput(input sim.Input) {
	s.mu.Lock()
	s.sim.SetInput(input)
	s.mu.Unlock()
}

// Snapshot copies the current simulation state.
func (s *Session) Snapshot() sim.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sim.Snapshot()
}
