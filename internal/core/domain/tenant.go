package domain

import "strings"

// TenantID identifies an isolated partition of documents, embeddings,
// and index state. Typically a region such as "jordan" or "us".
type TenantID string

// String returns the tenant identifier as a plain string.
func (t TenantID) String() string { return string(t) }

// Validate checks the tenant identifier is usable as a storage key.
func (t TenantID) Validate() error {
	s := string(t)
	if s == "" {
		return ErrInvalidInput
	}
	if strings.ContainsAny(s, " /\\") {
		return ErrInvalidInput
	}
	return nil
}

// Tenant is the configuration for one logical partition. Each tenant owns
// its document set, its embedding cache namespace, and its vector index.
// No retrieval operation for one tenant may return another tenant's data.
type Tenant struct {
	// ID is the unique tenant identifier.
	ID TenantID

	// Name is the human-readable tenant name.
	Name string

	// KnowledgeDir is the directory scanned on reload for source files.
	KnowledgeDir string

	// Features are tenant-specific feature switches.
	Features []string
}

// HasFeature reports whether a named feature is enabled for the tenant.
func (t Tenant) HasFeature(name string) bool {
	for _, f := range t.Features {
		if f == name {
			return true
		}
	}
	return false
}
