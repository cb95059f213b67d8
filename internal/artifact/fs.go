package artifact

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no object exists for (owner, checksum).
var ErrNotFound = errors.New("artifact not found")

// FSBackend stores compressed objects on the local filesystem under
// root/<owner>/<checksum prefix>/<checksum>. It satisfies the same
// capability surface an object-storage service would.
type FSBackend struct {
	root   string
	signer *Signer
}

// NewFSBackend creates a filesystem backend rooted at dir.
func NewFSBackend(dir string, signer *Signer) *FSBackend {
	return &FSBackend{root: dir, signer: signer}
}

func (b *FSBackend) objectPath(ownerID, checksum string) string {
	prefix := checksum
	if len(prefix) > 2 {
		prefix = prefix[:2]
	}
	return filepath.Join(b.root, ownerID, prefix, checksum)
}

// Put writes the object via a temp file and rename, so concurrent writers
// of identical content converge on one object without partial reads.
func (b *FSBackend) Put(ctx context.Context, ownerID, checksum string, compressed []byte) error {
	path := b.objectPath(ownerID, checksum)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	tmp := path + ".tmp." + uuid.NewString()
	if err := os.WriteFile(tmp, compressed, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

// Get returns the compressed object bytes.
func (b *FSBackend) Get(ctx context.Context, ownerID, checksum string) ([]byte, error) {
	data, err := os.ReadFile(b.objectPath(ownerID, checksum))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%s/%s: %w", ownerID, checksum, ErrNotFound)
	}
	return data, err
}

// Exists reports whether the object is present on disk.
func (b *FSBackend) Exists(ctx context.Context, ownerID, checksum string) (bool, error) {
	_, err := os.Stat(b.objectPath(ownerID, checksum))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// SignedURL returns a relative URL served by `assay serve`, carrying an
// HMAC signature and expiry that the artifact handler verifies.
func (b *FSBackend) SignedURL(ownerID, checksum string, ttl time.Duration) (string, error) {
	ok, err := b.Exists(context.Background(), ownerID, checksum)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("%s/%s: %w", ownerID, checksum, ErrNotFound)
	}

	expires := time.Now().Add(ttl)
	sig := b.signer.Sign(ownerID, checksum, expires)
	q := url.Values{}
	q.Set("expires", fmt.Sprintf("%d", expires.Unix()))
	q.Set("sig", sig)
	return fmt.Sprintf("/artifacts/%s/%s?%s", url.PathEscape(ownerID), checksum, q.Encode()), nil
}

// BatchSignedURLs signs every checksum it can; failures are omitted from
// the result rather than failing the batch.
func (b *FSBackend) BatchSignedURLs(ownerID string, checksums []string, ttl time.Duration) map[string]string {
	urls := make(map[string]string, len(checksums))
	for _, c := range checksums {
		u, err := b.SignedURL(ownerID, c, ttl)
		if err != nil {
			continue
		}
		urls[c] = u
	}
	return urls
}

// Verify checks a URL signature for the serve handler.
func (b *FSBackend) Verify(ownerID, checksum, expiresUnix, sig string) bool {
	return b.signer.Verify(ownerID, checksum, expiresUnix, sig)
}
