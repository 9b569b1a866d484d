// Package runner drives the simulation at a fixed rate and reports its health.
package runner

import (
	"context"
	"sync"
	"time"
)

// StepFunc advances the simulation by a fixed timestep.
type StepFunc func(step time.Duration)

// LoopOption customises a Loop.
type LoopOption func(*Loop)

// WithMonitor records the wall clock duration of every step.
func WithMonitor(monitor *TickMonitor) LoopOption {
	return func(l *Loop) {
		l.monitor = monitor
	}
}

// WithHealth flips the health status to serving while the loop runs.
func WithHealth(health *Health) LoopOption {
	return func(l *Loop) {
		l.health = health
	}
}

// WithMaxCatchUp bounds how many steps one wake up may run after a stall.
func WithMaxCatchUp(steps int) LoopOption {
	return func(l *Loop) {
		if steps > 0 {
			l.maxCatchUp = steps
		}
	}
}

// Loop drives a fixed timestep simulation at the configured target frequency.
type Loop struct {
	step       time.Duration
	stepFunc   StepFunc
	monitor    *TickMonitor
	health     *Health
	maxCatchUp int

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewLoop configures a loop that targets the provided frequency.
func NewLoop(targetHz float64, step StepFunc, opts ...LoopOption) *Loop {
	if targetHz <= 0 {
		targetHz = 60
	}
	if step == nil {
		step = func(time.Duration) {}
	}
	interval := time.Duration(float64(time.Second) / targetHz)
	if interval <= 0 {
		interval = time.Second / 60
	}
	l := &Loop{step: interval, stepFunc: step, maxCatchUp: 5}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	return l
}

// Start begins ticking until the context is cancelled or Stop is invoked.
// Starting a running loop is a no-op.
func (l *Loop) Start(ctx context.Context) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.done != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	l.done = make(chan struct{})
	l.health.SetServing(true)

	go func(done chan struct{}) {
		defer close(done)
		defer l.release(done, cancel)
		defer l.health.SetServing(false)
		ticker := time.NewTicker(l.step)
		defer ticker.Stop()
		last := time.Now()
		accumulator := time.Duration(0)
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				//1.- Accumulate elapsed time and run fixed steps while catching up.
				accumulator += now.Sub(last)
				last = now
				for steps := 0; accumulator >= l.step; steps++ {
					//2.- After a long stall drop the backlog instead of spiralling.
					if steps == l.maxCatchUp {
						accumulator = 0
						break
					}
					started := time.Now()
					l.stepFunc(l.step)
					l.monitor.Observe(time.Since(started))
					accumulator -= l.step
				}
			}
		}
	}(l.done)
}

// Stop cancels the loop and waits for the goroutine to exit.
func (l *Loop) Stop() {
	if l == nil {
		return
	}
	l.mu.Lock()
	cancel, done := l.cancel, l.done
	l.cancel, l.done = nil, nil
	l.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// release forgets a run that ended on its own, such as a cancelled parent
// context, so the loop can be started again.
func (l *Loop) release(done chan struct{}, cancel context.CancelFunc) {
	cancel()
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.done == done {
		l.cancel, l.done = nil, nil
	}
}

// Running reports whether a tick goroutine is active.
func (l *Loop) Running() bool {
	if l == nil {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.done != nil
}

// StepDuration exposes the configured timestep.
func (l *Loop) StepDuration() time.Duration {
	if l == nil {
		return 0
	}
	return l.step
}
