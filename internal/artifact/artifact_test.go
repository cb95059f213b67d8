package artifact

import (
	"bytes"
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/blackwell-systems/assay/internal/store"
)

func newTestStore(t *testing.T) (*Store, *FSBackend) {
	t.Helper()
	db, err := store.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	backend := NewFSBackend(t.TempDir(), NewSigner("test-secret"))
	return NewStore(backend, db), backend
}

func TestStore_RoundTrip(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	content := []byte(strings.Repeat("function cache() {}\n", 100))
	res, err := s.Store(ctx, "cand-1", content)
	require.NoError(t, err)
	require.Equal(t, Checksum(content), res.Checksum)
	require.Equal(t, int64(len(content)), res.Size)
	require.False(t, res.AlreadyExists)
	require.Less(t, res.CompressedSize, res.Size, "repetitive content should compress")

	got, err := s.Retrieve(ctx, "cand-1", res.Checksum)
	require.NoError(t, err)
	require.True(t, bytes.Equal(content, got))
}

func TestStore_DedupSkipsRewrite(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	content := []byte("const x = 1;")
	first, err := s.Store(ctx, "cand-1", content)
	require.NoError(t, err)
	require.False(t, first.AlreadyExists)

	second, err := s.Store(ctx, "cand-1", content)
	require.NoError(t, err)
	require.True(t, second.AlreadyExists)
	require.Equal(t, first.Checksum, second.Checksum)
}

func TestStore_OwnerNamespacing(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	content := []byte("shared solution text")
	_, err := s.Store(ctx, "cand-1", content)
	require.NoError(t, err)

	// Identical content from another owner is a separate object, not a
	// dedup hit.
	res, err := s.Store(ctx, "cand-2", content)
	require.NoError(t, err)
	require.False(t, res.AlreadyExists)

	// And retrieval under a third owner fails.
	_, err = s.Retrieve(ctx, "cand-3", Checksum(content))
	require.ErrorIs(t, err, ErrNotFound)
}

func TestAccessURL_VerifiableAndExpiring(t *testing.T) {
	s, backend := newTestStore(t)
	ctx := context.Background()

	content := []byte("snapshot body")
	res, err := s.Store(ctx, "cand-1", content)
	require.NoError(t, err)

	rawURL, err := s.AccessURL("cand-1", res.Checksum, time.Minute)
	require.NoError(t, err)

	u, err := url.Parse(rawURL)
	require.NoError(t, err)
	expires := u.Query().Get("expires")
	sig := u.Query().Get("sig")
	require.True(t, backend.Verify("cand-1", res.Checksum, expires, sig))

	// Tampered owner fails.
	require.False(t, backend.Verify("cand-2", res.Checksum, expires, sig))

	// Expired URL fails even with a valid signature over the old expiry.
	past := time.Now().Add(-time.Minute)
	signer := NewSigner("test-secret")
	oldSig := signer.Sign("cand-1", res.Checksum, past)
	require.False(t, backend.Verify("cand-1", res.Checksum, "0", oldSig))
}

func TestAccessURL_MissingObject(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.AccessURL("cand-1", "deadbeef", time.Minute)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestBatchAccessURLs_PartialFailure(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	a, err := s.Store(ctx, "cand-1", []byte("first"))
	require.NoError(t, err)
	b, err := s.Store(ctx, "cand-1", []byte("second"))
	require.NoError(t, err)

	urls := s.BatchAccessURLs("cand-1", []string{a.Checksum, "missing", b.Checksum}, time.Minute)
	require.Len(t, urls, 2, "missing checksum should be omitted, not fail the batch")
	require.Contains(t, urls, a.Checksum)
	require.Contains(t, urls, b.Checksum)
	require.NotContains(t, urls, "missing")
}

func TestChecksum_Stable(t *testing.T) {
	c1 := Checksum([]byte("same"))
	c2 := Checksum([]byte("same"))
	require.Equal(t, c1, c2)
	require.Len(t, c1, 64)
	require.NotEqual(t, c1, Checksum([]byte("different")))
}
