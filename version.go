package ivctl

// Version is the library release version, reported by the CLI and the MCP
// server handshake.
const Version = "0.3.0"
