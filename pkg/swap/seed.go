package swap

import (
	"encoding/hex"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const (
	// SeedLength is the length of every issued seed, the maximum the system
	// program accepts.
	SeedLength = 32

	defaultExpectedSeeds     = 100_000
	defaultFalsePositiveRate = 1e-9
	maxSeedAttempts          = 8
)

// SeedSource issues seeds for ephemeral accounts derived from a signer.
// Seeds are random, and a bloom filter over issued seeds guarantees none is
// handed out twice by the same source. It is safe for concurrent use.
type SeedSource struct {
	mu     sync.Mutex
	issued *bloom.BloomFilter
	random func() ([]byte, error)
}

func NewSeedSource() *SeedSource {
	return &SeedSource{
		issued: bloom.NewWithEstimates(defaultExpectedSeeds, defaultFalsePositiveRate),
		random: randomUUIDBytes,
	}
}

func randomUUIDBytes() ([]byte, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return nil, err
	}
	return id[:], nil
}

// Next returns a fresh 32 character seed.
//
// A false positive from the filter only costs a regeneration.
func (s *SeedSource) Next() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := 0; i < maxSeedAttempts; i++ {
		raw, err := s.random()
		if err != nil {
			return "", errors.Wrap(err, "error generating seed entropy")
		}

		seed := hex.EncodeToString(raw)
		if len(seed) != SeedLength {
			return "", errors.Errorf("seed entropy has unexpected length %d", len(raw))
		}
		if !s.issued.TestAndAdd([]byte(seed)) {
			return seed, nil
		}
	}
	return "", ErrSeedCollision
}
