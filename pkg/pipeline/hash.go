package pipeline

import (
	"crypto/md5"
	"encoding/hex"
)

// ContentHash computes the content hash described in spec.md §4.2: if both
// file bytes and text are present, md5 of the concatenated lowercase hex
// digests of each; if only one is present, that one's own digest.
func ContentHash(fileBytes []byte, text string) string {
	hasFile := len(fileBytes) > 0
	hasText := text != ""

	switch {
	case hasFile && hasText:
		hf := md5Hex(fileBytes)
		ht := md5Hex([]byte(text))
		return md5Hex([]byte(hf + ht))
	case hasFile:
		return md5Hex(fileBytes)
	case hasText:
		return md5Hex([]byte(text))
	default:
		return ""
	}
}

func md5Hex(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}
