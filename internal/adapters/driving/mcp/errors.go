// Package mcp provides an MCP (Model Context Protocol) server adapter for
// docs-agent. It lets AI assistants ask questions about ingested READMEs,
// search them and ingest new repositories.
package mcp

import "errors"

// ErrMissingAnswerService is returned when the answer service is not provided.
var ErrMissingAnswerService = errors.New("mcp: answer service is required")
