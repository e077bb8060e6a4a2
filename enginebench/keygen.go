package enginebench

import (
	"math"
	mrand "math/rand"
)

// KeyDistribution selects the access pattern a KeyGenerator produces.
type KeyDistribution string

const (
	DistUniform    KeyDistribution = "uniform"    // all keys equally likely
	DistZipfian    KeyDistribution = "zipfian"    // 80/20 rule (realistic)
	DistSequential KeyDistribution = "sequential" // sequential access
	DistLatest     KeyDistribution = "latest"     // recent keys favoured (time-series)
)

// KeyGenerator produces uint64 keys for the tree under benchmark,
// according to distribution. Keys are plain numbers, not padded byte
// strings: the engine under test is the generic bptree.Tree keyed on
// Scalar[uint64], not a byte-oriented KV store.
type KeyGenerator struct {
	numKeys      int
	distribution KeyDistribution
	rng          *mrand.Rand

	zipf       *mrand.Zipf
	seqCounter int64
}

func NewKeyGenerator(numKeys int, distribution KeyDistribution, seed int64) *KeyGenerator {
	rng := mrand.New(mrand.NewSource(seed))

	kg := &KeyGenerator{
		numKeys:      numKeys,
		distribution: distribution,
		rng:          rng,
	}

	if distribution == DistZipfian {
		kg.zipf = mrand.NewZipf(rng, 1.1, 1, uint64(numKeys))
	}

	return kg
}

// NextKey returns the next key per the configured distribution.
func (kg *KeyGenerator) NextKey() uint64 {
	switch kg.distribution {
	case DistUniform:
		return uint64(kg.rng.Intn(kg.numKeys))

	case DistZipfian:
		return kg.zipf.Uint64()

	case DistSequential:
		kg.seqCounter++
		return uint64(kg.seqCounter % int64(kg.numKeys))

	case DistLatest:
		rang := kg.numKeys / 10
		if rang < 100 {
			rang = 100
		}
		offset := int(math.Abs(kg.rng.NormFloat64()) * float64(rang))
		keyNum := kg.numKeys - 1 - offset
		if keyNum < 0 {
			keyNum = 0
		}
		return uint64(keyNum)

	default:
		return uint64(kg.rng.Intn(kg.numKeys))
	}
}

// GenerateSequential returns key n directly, used for preloading.
func (kg *KeyGenerator) GenerateSequential(n int) uint64 {
	return uint64(n)
}
