package hashing

import (
	"crypto/md5"  //nolint:gosec // MD5 sidecars are part of the Maven repository layout
	"crypto/sha1" //nolint:gosec // SHA-1 sidecars are part of the Maven repository layout
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
)

// Checksum algorithms written as Maven sidecar files.
const (
	MD5    = "md5"
	SHA1   = "sha1"
	SHA256 = "sha256"
	SHA512 = "sha512"
)

// Writer passes writes through to an underlying writer while computing one
// digest per requested algorithm.
type Writer struct {
	w      io.Writer
	hashes map[string]hash.Hash
}

// NewWriter wraps w. With no algorithms it computes SHA256.
func NewWriter(w io.Writer, algorithms ...string) (*Writer, error) {
	if len(algorithms) == 0 {
		algorithms = []string{SHA256}
	}
	hw := &Writer{w: w, hashes: make(map[string]hash.Hash, len(algorithms))}
	for _, alg := range algorithms {
		h, err := newHash(alg)
		if err != nil {
			return nil, err
		}
		hw.hashes[alg] = h
	}
	return hw, nil
}

func (hw *Writer) Write(p []byte) (int, error) {
	n, err := hw.w.Write(p)
	if n > 0 {
		for _, h := range hw.hashes {
			h.Write(p[:n])
		}
	}
	return n, err
}

// Sum returns the hex digest for algorithm, or "" if it was not requested.
func (hw *Writer) Sum(algorithm string) string {
	h, ok := hw.hashes[algorithm]
	if !ok {
		return ""
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Sums returns the hex digests of data for each algorithm in one pass.
func Sums(data []byte, algorithms ...string) (map[string]string, error) {
	hw, err := NewWriter(io.Discard, algorithms...)
	if err != nil {
		return nil, err
	}
	_, _ = hw.Write(data)
	sums := make(map[string]string, len(hw.hashes))
	for alg := range hw.hashes {
		sums[alg] = hw.Sum(alg)
	}
	return sums, nil
}

// SHA256Hex returns the hex-encoded SHA256 of data.
func SHA256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Checksum returns the hex digest of data for the named algorithm.
func Checksum(algorithm string, data []byte) (string, error) {
	h, err := newHash(algorithm)
	if err != nil {
		return "", err
	}
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil)), nil
}

func newHash(algorithm string) (hash.Hash, error) {
	switch algorithm {
	case MD5:
		return md5.New(), nil
	case SHA1:
		return sha1.New(), nil
	case SHA256:
		return sha256.New(), nil
	case SHA512:
		return sha512.New(), nil
	}
	return nil, fmt.Errorf("unknown checksum algorithm %q", algorithm)
}
