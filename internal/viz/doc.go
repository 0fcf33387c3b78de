// Package viz provides the terminal front ends: an interactive player for
// exported animations and a progress view for conversions.
//
// Both are Bubble Tea models. The player drives a playback.Engine from a
// 60 Hz tick and renders the current frame with ANSI colour.
//
// # Key Bindings
//
//	Space      - Play/Pause
//	Left/Right - Step one frame (pauses)
//	Home/End   - Jump to first/last frame
//	M          - Toggle glyph/dot rendering
//	G          - Toggle GIF recording
//	?          - Show help
//	Q          - Quit
//
// # Recording
//
// G records the frames shown while it is active and writes them as a GIF
// next to the animation when recording stops.
package viz
