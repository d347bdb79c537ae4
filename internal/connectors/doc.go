// Package connectors provides clients for the document sources READMEs
// are read from. Only GitHub is supported.
package connectors
