package collections

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
)

// Sha256 computes the sha256 of the given reader.
func Sha256(in io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, in); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// BytesSha256 computes the sha256 hash of a byte slice.
func BytesSha256(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// FileSha256 computes the sha256 hash of a file, used to key stored indexes
// by the content they were computed from.
func FileSha256(filename string) (string, error) {
	f, err := os.Open(filename)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return Sha256(f)
}
