package world

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed hashing. The version suffix
// allows a future algorithm migration without ambiguity.
const (
	DomainSnapshot = "urd/snapshot/v1"
	DomainWorld    = "urd/world/v1"
	DomainPick     = "urd/pick/v1"
)

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data). The null separator prevents
// domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) []byte {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return h.Sum(nil)
}

// HashCanonical canonically marshals v and returns the hex digest under
// the given domain. Used for world identity and snapshot comparison.
func HashCanonical(domain string, v any) (string, error) {
	canonical, err := MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("hash %s: %w", domain, err)
	}
	return hex.EncodeToString(hashWithDomain(domain, canonical)), nil
}

// Pick deterministically selects an index in [0, n) from the world seed
// and a discriminator string. The same (seed, discriminator, n) always
// yields the same index, on every host and in every run. Used to break
// ties when a selection rule has more than one qualifying candidate.
func Pick(seed int64, discriminator string, n int) int {
	if n <= 1 {
		return 0
	}
	var seedBytes [8]byte
	binary.BigEndian.PutUint64(seedBytes[:], uint64(seed))

	h := sha256.New()
	h.Write([]byte(DomainPick))
	h.Write([]byte{0x00})
	h.Write(seedBytes[:])
	h.Write([]byte{0x00})
	h.Write([]byte(discriminator))
	sum := h.Sum(nil)

	return int(binary.BigEndian.Uint64(sum[:8]) % uint64(n))
}
