// Package randsrc provides the seedable random source shared by key rotation,
// voice selection and speech fillers.
package randsrc

import (
	"math/rand/v2"
	"sync"
	"time"
)

// Locked is a goroutine-safe PCG source.
type Locked struct {
	mu sync.Mutex
	r  *rand.Rand
}

// New returns a source seeded with seed, or with the current time when seed is 0.
func New(seed uint64) *Locked {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &Locked{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (l *Locked) IntN(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.IntN(n)
}
