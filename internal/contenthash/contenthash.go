// Package contenthash computes the content and argument-vector fingerprints
// used throughout the indexer to decide whether a file needs reanalysis,
// grounded on the streaming sha1 hash code.go computes while scanning a
// source file for comments, adapted to sha256 since there is no git blob
// format to match here.
package contenthash

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"

	"github.com/pkg/errors"
)

// File returns the sha256 hex digest of path's current contents.
func File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errors.Wrapf(err, "hashing %q", path)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", errors.Wrapf(err, "hashing %q", path)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Args returns a 16-hex-character fingerprint of an ordered argument
// vector, used as the persisted compile_args_hash.
func Args(args []string) string {
	h := sha256.New()
	for _, a := range args {
		io.WriteString(h, a)
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}
