// Package domain contains the core business entities of the retrieval
// engine: tenants, documents, chunks, embeddings, and retrieval results.
//
// Domain types have no dependencies on infrastructure. Adapters translate
// between these types and their storage or wire representations.
package domain
