// Package normalisers provides parsers that turn fetched documents into
// the structured form the ingestion pipeline stores.
//
// Only markdown is supported; see the markdown subpackage.
package normalisers
