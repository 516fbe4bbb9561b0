package skiplist

import (
	"math/bits"
	"sync/atomic"

	"github.com/valyala/fastrand"
)

const defaultSeed = uint64(0xdeadbeefcafebabe)

// heightSource decides how many levels a new key occupies.
type heightSource interface {
	height(maxLevel int) int
}

// coin draws tower heights from unbiased coin flips: level 0 always, then one
// more level per consecutive heads. Each bit of a 64-bit word is one flip.
type coin struct {
	seeded bool
	seed   atomic.Uint64
}

func newCoin(seed uint64, seeded bool) *coin {
	c := &coin{seeded: seeded}
	if seeded {
		if seed == 0 {
			seed = defaultSeed
		}
		c.seed.Store(seed)
	}
	return c
}

func (c *coin) flips() uint64 {
	if !c.seeded {
		return uint64(fastrand.Uint32())<<32 | uint64(fastrand.Uint32())
	}
	for {
		current := c.seed.Load()
		x := current
		x ^= x >> 12
		x ^= x << 25
		x ^= x >> 27
		if x == 0 {
			x = defaultSeed
		}
		if c.seed.CompareAndSwap(current, x) {
			return x * 2685821657736338717
		}
	}
}

func (c *coin) height(maxLevel int) int {
	return min(bits.TrailingZeros64(c.flips())+1, maxLevel)
}
