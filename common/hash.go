package common

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"golang.org/x/crypto/blake2b"
)

const checksumBlock = 1 << 20

// Hash is a BLAKE2b-256 digest.
type Hash [32]byte

func (h Hash) Hex() string { return hex.EncodeToString(h[:]) }

func (h Hash) String() string { return "0x" + h.Hex() }

// ComputeHash computes the BLAKE2b hash of the given data
func ComputeHash(data []byte) Hash {
	return blake2b.Sum256(data)
}

// ChecksumReader hashes r to EOF in 1 MiB blocks.
func ChecksumReader(r io.Reader) (Hash, int64, error) {
	h, err := blake2b.New256(nil)
	if err != nil {
		return Hash{}, 0, err
	}
	n, err := io.CopyBuffer(h, r, make([]byte, checksumBlock))
	if err != nil {
		return Hash{}, n, err
	}
	var out Hash
	copy(out[:], h.Sum(nil))
	return out, n, nil
}

// Checksum hashes the file at path, so that two machines can confirm they
// hold the same cell file before sharing work on it.
func Checksum(path string) (Hash, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return Hash{}, 0, err
	}
	defer f.Close()
	h, n, err := ChecksumReader(f)
	if err != nil {
		return Hash{}, n, fmt.Errorf("checksum %s: %w", path, err)
	}
	return h, n, nil
}
