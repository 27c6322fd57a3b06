// Package driven provides interfaces for infrastructure adapters
// (secondary/outbound ports): embedding providers, LLM services,
// extractors, and persistence.
package driven
