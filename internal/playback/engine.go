// Package playback selects which precomputed frame to show at a given time.
//
// The Engine is a pure state machine driven by explicit timestamps; Runner
// adds a real timer and a rendering surface on top of it.
package playback

import (
	"fmt"
	"time"
)

type State int

const (
	Stopped State = iota
	Paused
	Playing
)

func (s State) String() string {
	switch s {
	case Paused:
		return "paused"
	case Playing:
		return "playing"
	default:
		return "stopped"
	}
}

// Engine owns the playback position. It is not safe for concurrent use.
type Engine struct {
	frames int
	fps    float64
	period time.Duration
	index  int
	state  State
	last   time.Time
}

func New() *Engine {
	return &Engine{}
}

// Load resets the engine to frame 0, paused.
func (e *Engine) Load(frameCount int, fps float64) error {
	if frameCount <= 0 {
		return fmt.Errorf("frame count must be positive, got %d", frameCount)
	}
	if fps <= 0 {
		return fmt.Errorf("fps must be positive, got %f", fps)
	}
	e.frames = frameCount
	e.fps = fps
	e.period = time.Duration(float64(time.Second) / fps)
	e.index = 0
	e.state = Paused
	e.last = time.Time{}
	return nil
}

func (e *Engine) State() State { return e.state }

func (e *Engine) Index() int { return e.index }

func (e *Engine) FrameCount() int { return e.frames }

func (e *Engine) Period() time.Duration { return e.period }

func (e *Engine) Playing() bool { return e.state == Playing }

// Position is the current frame's start time in seconds.
func (e *Engine) Position() float64 {
	if e.fps <= 0 {
		return 0
	}
	return float64(e.index) / e.fps
}

// Duration is the total animation length in seconds.
func (e *Engine) Duration() float64 {
	if e.fps <= 0 {
		return 0
	}
	return float64(e.frames) / e.fps
}

func (e *Engine) Play(now time.Time) {
	if e.state == Stopped {
		return
	}
	e.state = Playing
	e.last = now
}

func (e *Engine) Pause() {
	if e.state == Stopped {
		return
	}
	e.state = Paused
}

func (e *Engine) Toggle(now time.Time) {
	if e.state == Playing {
		e.Pause()
	} else {
		e.Play(now)
	}
}

// Seek jumps to index, clamped to the animation. The play or pause state is
// kept; while playing the clock restarts from now.
func (e *Engine) Seek(index int, now time.Time) int {
	if e.state == Stopped {
		return 0
	}
	if index < 0 {
		index = 0
	}
	if index >= e.frames {
		index = e.frames - 1
	}
	e.index = index
	if e.state == Playing {
		e.last = now
	}
	return e.index
}

// Step pauses and moves delta frames, clamped.
func (e *Engine) Step(delta int, now time.Time) int {
	e.Pause()
	return e.Seek(e.index+delta, now)
}

// Tick evaluates the clock. It advances floor(elapsed/period) frames at
// once, wraps to frame 0 past the end, and carries the remainder into the
// next tick. changed reports whether a new frame should be shown.
func (e *Engine) Tick(now time.Time) (index int, changed bool) {
	if e.state != Playing {
		return e.index, false
	}
	elapsed := now.Sub(e.last)
	if elapsed < e.period {
		return e.index, false
	}

	steps := int(elapsed / e.period)
	e.index += steps
	if e.index >= e.frames {
		e.index = 0
	}
	e.last = now.Add(-(elapsed % e.period))
	return e.index, true
}
