// Package sqlite provides an embedded SQLite implementation of the vector
// store and project registry ports.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that
// requires no CGO. Both stores share one database connection:
//
//   - VectorStore: README section records with float32 BLOB vectors
//   - ProjectStore: the registry of known projects
//
// # Search
//
// Similarity search is brute-force cosine over every record in a collection.
// It suits the few thousand sections a local docs index holds.
//
// # Schema
//
// The schema is managed through versioned migrations embedded from the
// migrations/ directory. Applied versions are recorded in schema_migrations.
//
// # Data Location
//
// By default, the database is stored at ~/.docs-agent/data/docs.db
package sqlite
