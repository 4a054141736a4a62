// Package ports declares the collaborator interfaces the core depends on:
// protocol storage, result persistence, and instrument transports. Adapters
// implement them; the core only consumes them.
package ports
