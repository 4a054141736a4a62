package ports

import "context"

// Transport is an opaque synchronous link to a physical instrument (VISA,
// serial, TCP). Real hardware backends speak through it; mock backends never
// touch it. Commands block until the instrument answers or the context
// expires.
type Transport interface {
	// Open establishes the link to the instrument at the given address.
	Open(ctx context.Context, address string) error

	// Close releases the link. Safe to call on an unopened transport.
	Close() error

	// Send writes a command that expects no reply.
	Send(ctx context.Context, cmd string) error

	// Query writes a command and returns the instrument's reply.
	Query(ctx context.Context, cmd string) (string, error)
}
