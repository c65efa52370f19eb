package transform

import (
	"encoding/binary"
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// HashKey computes a stable, seeded hash of an arbitrary key value. Two
// runs with the same deterministic_hash_seed and the same key produce the
// same hash, which is what lets the parallel executor's shuffle assign a
// key to the same bucket across runs (§9: "Parallel shuffle: partition by
// a stable, seeded hash of the key").
//
// Keys are rendered through fmt's Go-syntax verb (%#v) before hashing.
// This is not a general-purpose encoding — it is stable for the
// comparable key types combine/transform actually support (scalars,
// strings, and structs/arrays built from them) and deliberately avoids
// pulling in a serialization library for a single internal hash input.
func HashKey(seed uint64, key any) uint64 {
	digest := xxhash.New()
	var seedBuf [8]byte
	binary.LittleEndian.PutUint64(seedBuf[:], seed)
	_, _ = digest.Write(seedBuf[:])
	_, _ = fmt.Fprintf(digest, "%#v", key)
	return digest.Sum64()
}

// Bucket maps a hash to one of numBuckets partitions.
func Bucket(hash uint64, numBuckets int) int {
	if numBuckets <= 0 {
		return 0
	}
	return int(hash % uint64(numBuckets))
}
