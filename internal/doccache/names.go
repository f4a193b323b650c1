package doccache

import (
	"math/rand/v2"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	namePrefix = "fw_"
	nameDigits = 6
	// nameSpace is 36^6, the number of distinct 6-digit base-36 values.
	nameSpace = 2176782336
)

// NameGenerator produces cache file names of the form fw_ followed by six
// zero-padded lowercase base-36 digits.
type NameGenerator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewNameGenerator returns a generator with a fixed seed.
func NewNameGenerator(seed uint64) *NameGenerator {
	return &NameGenerator{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// processNames is seeded once per process from the wall clock.
var processNames = sync.OnceValue(func() *NameGenerator {
	return NewNameGenerator(uint64(time.Now().UnixNano()))
})

// Next returns a random name.
func (g *NameGenerator) Next() string {
	g.mu.Lock()
	v := g.rng.Int64N(nameSpace)
	g.mu.Unlock()

	digits := strconv.FormatInt(v, 36)
	return namePrefix + strings.Repeat("0", nameDigits-len(digits)) + digits
}

// Unique returns the first name for which taken reports false.
func (g *NameGenerator) Unique(taken func(name string) bool) string {
	for {
		if name := g.Next(); !taken(name) {
			return name
		}
	}
}

// IsCacheFileName reports whether name has the cache file name format.
func IsCacheFileName(name string) bool {
	digits, ok := strings.CutPrefix(name, namePrefix)
	if !ok || len(digits) != nameDigits {
		return false
	}
	for _, r := range digits {
		if (r < '0' || r > '9') && (r < 'a' || r > 'z') {
			return false
		}
	}
	return true
}
