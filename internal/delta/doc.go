// Package delta turns change notifications into distribution runs.
//
// Notifications are reduced to the set of touched resources by an
// Accumulator. A Coalescer debounces them so a burst of changes leads to a
// single processing pass, and a Dispatcher resolves the touched resources to
// agendas and runs every enabled profile for them.
package delta
