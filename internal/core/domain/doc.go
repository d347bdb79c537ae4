// Package domain defines the core business entities for docs-agent.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Section: A titled span of a markdown document
//   - DocumentRecord: One embedded section held by a vector store
//   - QueryResult: The envelope returned for every question
//   - Project: A registered repository
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
