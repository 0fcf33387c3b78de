package playback

import (
	"sync"
	"time"
)

// Surface paints the frame at index. It is called with the runner's lock
// held and must not call back into the runner.
type Surface interface {
	Show(index int)
}

// SurfaceFunc adapts a function to Surface.
type SurfaceFunc func(index int)

func (f SurfaceFunc) Show(index int) { f(index) }

// DefaultInterval is the clock evaluation rate.
const DefaultInterval = time.Second / 60

// Runner drives an Engine from a single pending timer. Pause cancels that
// timer under the same lock the tick renders under, so once Pause returns no
// further frame is shown.
type Runner struct {
	mu       sync.Mutex
	engine   *Engine
	surface  Surface
	interval time.Duration
	now      func() time.Time
	timer    *time.Timer
	gen      uint64
}

func NewRunner(e *Engine, s Surface) *Runner {
	return &Runner{
		engine:   e,
		surface:  s,
		interval: DefaultInterval,
		now:      time.Now,
	}
}

// SetClock replaces the time source. Intended for tests.
func (r *Runner) SetClock(now func() time.Time) {
	r.mu.Lock()
	r.now = now
	r.mu.Unlock()
}

func (r *Runner) SetInterval(d time.Duration) {
	r.mu.Lock()
	if d > 0 {
		r.interval = d
	}
	r.mu.Unlock()
}

func (r *Runner) Play() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.engine.State() == Stopped || r.engine.Playing() {
		return
	}
	r.engine.Play(r.now())
	r.surface.Show(r.engine.Index())
	r.schedule()
}

func (r *Runner) Pause() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.engine.Pause()
	r.cancel()
}

func (r *Runner) Toggle() {
	r.mu.Lock()
	playing := r.engine.Playing()
	r.mu.Unlock()
	if playing {
		r.Pause()
	} else {
		r.Play()
	}
}

// Seek shows the target frame immediately and keeps the current state.
func (r *Runner) Seek(index int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.surface.Show(r.engine.Seek(index, r.now()))
}

func (r *Runner) Step(delta int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancel()
	r.surface.Show(r.engine.Step(delta, r.now()))
}

// Snapshot returns the current index and state.
func (r *Runner) Snapshot() (int, State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.engine.Index(), r.engine.State()
}

// Stop cancels the pending tick without changing the engine.
func (r *Runner) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancel()
}

func (r *Runner) cancel() {
	r.gen++
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
}

func (r *Runner) schedule() {
	r.cancel()
	gen := r.gen
	r.timer = time.AfterFunc(r.interval, func() { r.tick(gen) })
}

func (r *Runner) tick(gen uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if gen != r.gen || !r.engine.Playing() {
		return
	}
	if idx, changed := r.engine.Tick(r.now()); changed {
		r.surface.Show(idx)
	}
	r.timer = time.AfterFunc(r.interval, func() { r.tick(gen) })
}
