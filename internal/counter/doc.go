// Package counter implements the item physics behind the recipe counter view.
//
// Items are circles that fall onto a counter surface, stack on one another,
// slide off unbalanced supports and bounce softly off the container walls.
// A single pointer can grab any item and push its neighbours around.
//
// The package is organised around a few pieces:
//
//   - [Store]: the authoritative collection of [Item] values
//   - [Initialize]: turns ingredient and equipment lists into a starting layout
//   - [Engine]: runs one tick (fall, collide, walls, stability) over the store
//     and exposes the pointer-driven drag surface
//   - [LayoutProvider]: yields container geometry and the floor line
//
// # Thread Safety
//
// Engine instances are NOT thread-safe. Every tick and every pointer handler
// must run on the same goroutine; see package sim for a loop that serializes
// both onto one goroutine.
package counter
