// Package viz draws the counter in the terminal with braille dots.
//
// [Model] is a Bubble Tea program that runs the engine live: the mouse
// drags items around and the keyboard moves between recipe steps, playing
// the jiggle, swipe and slide-in transition as it goes. [RunInteractive]
// opens a picker over the built-in scenes first.
//
// # Key Bindings
//
//	Space - Pause/Resume physics
//	R     - Drop the current step's items again
//	N/P   - Next/previous step
//	T     - Cycle color themes
//	?     - Show help overlay
package viz
