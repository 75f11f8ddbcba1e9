package domain

import "context"

// RosterRepository provides the current document → name mapping. How the
// roster file is stored and secured is the collaborator's concern.
type RosterRepository interface {
	// All returns the full roster keyed by normalized document ID.
	All(ctx context.Context) (map[string]string, error)
	// Replace swaps the stored roster for the given users in one transaction.
	Replace(ctx context.Context, users []AuthorizedUser) error
	Count(ctx context.Context) (int, error)
}

// AuditRepository persists ingestion audit entries.
type AuditRepository interface {
	Insert(ctx context.Context, e *AuditEntry) error
	List(ctx context.Context, limit int) ([]AuditEntry, error)
}

// CacheStore persists validated, filtered tables keyed by module name.
// Save fully replaces the prior entry atomically; Load returns
// *CacheMissError when no entry exists or the on-disk file cannot be read.
type CacheStore interface {
	Save(ctx context.Context, table *Table) (*CacheMeta, error)
	Load(ctx context.Context, module string) (*Table, *CacheMeta, error)
	Meta(ctx context.Context, module string) (*CacheMeta, error)
}
