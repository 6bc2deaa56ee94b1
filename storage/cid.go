package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ruteri/trustedcert-registry/interfaces"
)

const digestPrefix = "sha256-"

// DigestCID returns the content identifier used by the file and S3 stores.
func DigestCID(data []byte) string {
	sum := sha256.Sum256(data)
	return digestPrefix + hex.EncodeToString(sum[:])
}

// parseDigestCID validates a DigestCID and returns its hex part, which is safe to use
// as a file name or object key.
func parseDigestCID(cid string) (string, error) {
	digest, ok := strings.CutPrefix(cid, digestPrefix)
	if !ok || len(digest) != sha256.Size*2 {
		return "", fmt.Errorf("%w: malformed cid %q", interfaces.ErrContentNotFound, cid)
	}
	if _, err := hex.DecodeString(digest); err != nil {
		return "", fmt.Errorf("%w: malformed cid %q", interfaces.ErrContentNotFound, cid)
	}
	return strings.ToLower(digest), nil
}
