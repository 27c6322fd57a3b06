// Package services implements the core business logic for document
// ingestion, retrieval, and grounded answer generation. Services depend
// on driven ports and are wired by the driving adapters.
package services
