package artifact

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"
)

// Signer produces and verifies HMAC access signatures for artifact URLs.
type Signer struct {
	secret []byte
}

// NewSigner creates a Signer from the configured secret.
func NewSigner(secret string) *Signer {
	return &Signer{secret: []byte(secret)}
}

// Sign returns the signature for (owner, checksum) valid until expires.
func (s *Signer) Sign(ownerID, checksum string, expires time.Time) string {
	mac := hmac.New(sha256.New, s.secret)
	fmt.Fprintf(mac, "%s\x00%s\x00%d", ownerID, checksum, expires.Unix())
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify checks a signature and its expiry. Expired or forged signatures
// are rejected.
func (s *Signer) Verify(ownerID, checksum, expiresUnix, sig string) bool {
	exp, err := strconv.ParseInt(expiresUnix, 10, 64)
	if err != nil {
		return false
	}
	expires := time.Unix(exp, 0)
	if time.Now().After(expires) {
		return false
	}
	want := s.Sign(ownerID, checksum, expires)
	return hmac.Equal([]byte(want), []byte(sig))
}
