package artifact

import (
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"github.com/blackwell-systems/assay/internal/metrics"
	"github.com/blackwell-systems/assay/internal/store"
)

// StoreResult describes the outcome of a Store call.
type StoreResult struct {
	Checksum       string `json:"checksum"`
	Size           int64  `json:"size"`
	CompressedSize int64  `json:"compressed_size"`

	// AlreadyExists is true when the content was deduplicated: no bytes
	// were rewritten.
	AlreadyExists bool `json:"already_exists"`
}

// Store is the content-addressed artifact store: checksum on write, gzip at
// rest, dedup per owner, metadata indexed in SQLite.
type Store struct {
	backend Backend
	index   *store.DB
}

// NewStore creates an artifact store over the given backend and metadata
// index.
func NewStore(backend Backend, index *store.DB) *Store {
	return &Store{backend: backend, index: index}
}

// Checksum returns the hex SHA-256 content hash used as the artifact key.
func Checksum(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// Store persists content for the owner. If an object already exists under
// the content's checksum for that owner the physical write is skipped and
// AlreadyExists is reported. Owner namespacing keeps byte-identical content
// from different candidates in separate objects.
func (s *Store) Store(ctx context.Context, ownerID string, content []byte) (StoreResult, error) {
	checksum := Checksum(content)
	res := StoreResult{Checksum: checksum, Size: int64(len(content))}

	exists, err := s.backend.Exists(ctx, ownerID, checksum)
	if err != nil {
		return res, fmt.Errorf("checking artifact existence: %w", err)
	}
	if exists {
		res.AlreadyExists = true
		if row, err := s.index.GetArtifact(ctx, ownerID, checksum); err == nil {
			res.CompressedSize = row.CompressedSize
		}
		metrics.ArtifactDedupHits.Inc()
		return res, nil
	}

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(content); err != nil {
		return res, fmt.Errorf("compressing artifact: %w", err)
	}
	if err := zw.Close(); err != nil {
		return res, fmt.Errorf("compressing artifact: %w", err)
	}
	res.CompressedSize = int64(buf.Len())

	if err := s.backend.Put(ctx, ownerID, checksum, buf.Bytes()); err != nil {
		return res, fmt.Errorf("writing artifact: %w", err)
	}

	if err := s.index.InsertArtifact(ctx, &store.ArtifactRow{
		OwnerID:        ownerID,
		Checksum:       checksum,
		Size:           res.Size,
		CompressedSize: res.CompressedSize,
	}); err != nil {
		return res, fmt.Errorf("indexing artifact: %w", err)
	}

	metrics.ArtifactsStored.Inc()
	return res, nil
}

// Retrieve returns the original content, transparently decompressed.
func (s *Store) Retrieve(ctx context.Context, ownerID, checksum string) ([]byte, error) {
	compressed, err := s.backend.Get(ctx, ownerID, checksum)
	if err != nil {
		return nil, err
	}
	zr, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("decompressing artifact %s: %w", checksum, err)
	}
	defer func() { _ = zr.Close() }()

	content, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("decompressing artifact %s: %w", checksum, err)
	}
	return content, nil
}

// AccessURL returns a time-limited direct-access URL for the artifact.
func (s *Store) AccessURL(ownerID, checksum string, ttl time.Duration) (string, error) {
	return s.backend.SignedURL(ownerID, checksum, ttl)
}

// BatchAccessURLs signs many checksums; entries missing from the result
// failed individually without aborting the batch.
func (s *Store) BatchAccessURLs(ownerID string, checksums []string, ttl time.Duration) map[string]string {
	return s.backend.BatchSignedURLs(ownerID, checksums, ttl)
}
