// Package domain holds the shared vocabulary of the controller: run
// lifecycle states, protocol definitions, sweep specifications, measurement
// records, and the typed error taxonomy. It has no dependencies on the
// engine or the hardware layer and is safe to import from any adapter.
package domain
