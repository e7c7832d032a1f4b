package syncer

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Fingerprint hashes a record's mapped field values. Two imports of an
// unchanged record produce the same fingerprint, letting the upsert skip
// the write. encoding/json sorts map keys, so the hash is stable across
// map iteration order.
func Fingerprint(fields map[string]any) string {
	raw, err := json.Marshal(fields)
	if err != nil {
		// Mapped fields are always JSON-representable; a failure here is
		// a programming defect, but an empty fingerprint only costs one
		// redundant write.
		return ""
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
