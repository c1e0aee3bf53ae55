package webhooks

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Sign computes the HMAC-SHA256 signature of payload keyed by the endpoint
// secret, as lowercase hex. The caller must sign the exact bytes it transmits:
// a re-serialized copy is not guaranteed to byte-match, and the receiver
// verifies against the body it received.
func Sign(secret string, payload []byte) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}
