// Package checksum computes spec blob digests and compares them against
// HTTP-style If-Match values.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// ETag renders a checksum as a strong entity tag.
func ETag(sum string) string {
	return `"` + sum + `"`
}

// Match reports whether an If-Match value accepts the current checksum.
// An empty value or "*" always matches; quotes and a weak W/ prefix are
// ignored, and a comma-separated list matches if any entry does.
func Match(ifMatch, current string) bool {
	ifMatch = strings.TrimSpace(ifMatch)
	if ifMatch == "" || ifMatch == "*" {
		return true
	}
	for _, tag := range strings.Split(ifMatch, ",") {
		tag = strings.TrimSpace(tag)
		tag = strings.TrimPrefix(tag, "W/")
		tag = strings.Trim(tag, `"`)
		if tag == current {
			return true
		}
	}
	return false
}
