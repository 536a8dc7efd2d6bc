package identity

import (
	"crypto/sha256"
	"encoding/hex"
)

// MessageKey is the dedup key of a message: exact (sender, text) equality.
// Fields are joined with a NUL byte so ("ab","c") and ("a","bc") differ.
func MessageKey(sender, text string) string {
	hash := sha256.Sum256([]byte(sender + "\x00" + text))
	return hex.EncodeToString(hash[:])
}
