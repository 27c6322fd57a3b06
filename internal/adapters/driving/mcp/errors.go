// Package mcp provides an MCP (Model Context Protocol) server adapter
// for the knowledge base. It lets AI assistants retrieve grounded HR
// policy context and trigger reloads.
package mcp

import "errors"

// ErrMissingRetrievalService is returned when the retrieval service is not provided.
var ErrMissingRetrievalService = errors.New("mcp: retrieval service is required")
