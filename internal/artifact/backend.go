// Package artifact implements content-addressed blob storage for large
// event payloads (file snapshots). Content is keyed by SHA-256 checksum,
// namespaced per owner, compressed at rest, and deduplicated: storing the
// same bytes twice converges on one physical object.
package artifact

import (
	"context"
	"time"
)

// Backend is the capability surface a blob store must provide. The core
// never makes vendor-specific calls; swapping the durable backend means
// implementing these five operations.
type Backend interface {
	// Put stores the compressed object under (owner, checksum). Writing an
	// object that already exists must be idempotent.
	Put(ctx context.Context, ownerID, checksum string, compressed []byte) error

	// Get returns the compressed object bytes, or ErrNotFound.
	Get(ctx context.Context, ownerID, checksum string) ([]byte, error)

	// Exists reports whether the object is present.
	Exists(ctx context.Context, ownerID, checksum string) (bool, error)

	// SignedURL returns a time-limited URL granting direct read access.
	SignedURL(ownerID, checksum string, ttl time.Duration) (string, error)

	// BatchSignedURLs signs many checksums at once. Individual failures
	// are skipped: a missing map entry signals per-item failure without
	// aborting the batch.
	BatchSignedURLs(ownerID string, checksums []string, ttl time.Duration) map[string]string
}
