// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Pipeline Interfaces
//
//   - Fetcher: Retrieves raw README markdown
//   - Sectioner: Splits markdown into titled sections
//   - EmbeddingService: Turns text into vectors
//   - VectorStore: Stores records and answers similarity queries
//   - Generator: Produces grounded answers, optionally calling tools
//
// # Supporting Interfaces
//
//   - ProjectStore: Persisted project registry
//   - ConfigStore: Application configuration
//   - PromptStore: Customisable prompt templates
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, connector, or normaliser package
package driven
