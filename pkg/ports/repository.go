package ports

// ProtocolRepository defines how the loader retrieves protocol documents.
// This keeps the storage layer (filesystem, memory, remote) decoupled from
// parsing and validation, which belong to the loader.
type ProtocolRepository interface {
	// List returns the names of all available protocols, sorted.
	List() ([]string, error)

	// Load retrieves the raw document for a protocol by name. The loader
	// parses and validates it; the repository only fetches bytes.
	Load(name string) ([]byte, error)
}
