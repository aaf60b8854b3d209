package service

import (
	"math/rand"
	"sync"

	"github.com/noah-isme/gema-study-api/internal/models"
)

// RandomSource yields floats uniformly distributed in [0, 1).
type RandomSource interface {
	Float64() float64
}

type lockedSource struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewRandomSource returns a goroutine-safe source seeded with seed.
func NewRandomSource(seed int64) RandomSource {
	return &lockedSource{rnd: rand.New(rand.NewSource(seed))}
}

func (s *lockedSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rnd.Float64()
}

// AssignGroup draws the experimental condition for a new participant.
func AssignGroup(src RandomSource) string {
	if src.Float64() <= 0.5 {
		return models.GroupA
	}
	return models.GroupB
}
