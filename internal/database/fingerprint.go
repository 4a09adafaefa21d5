package database

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"golang.org/x/crypto/sha3"
)

// FingerprintFile returns the hex SHA3-256 digest of the file at path.
// Runs on byte-identical input share a fingerprint.
func FingerprintFile(path string) (string, error) {
	f, err := os.Open(path) //nolint:gosec // User-provided input path is intentional
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	return Fingerprint(f)
}

// Fingerprint returns the hex SHA3-256 digest of everything read from r.
func Fingerprint(r io.Reader) (string, error) {
	h := sha3.New256()
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("failed to hash input: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
