// Package driving declares what the core offers to its callers: the CLI,
// the HTTP API, the MCP server and the TUI all depend on these interfaces
// rather than on internal/core/services directly.
package driving
