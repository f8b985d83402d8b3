package particles

// DefaultSeed is the seed shared with the in-app renderer.
const DefaultSeed uint64 = 42

// RandomSource yields uniform doubles in [0, 1).
type RandomSource interface {
	Float64() float64
}

// NewSource returns the reference generator seeded with seed.
func NewSource(seed uint64) RandomSource {
	return NewMT19937(seed)
}

const (
	mtN         = 624
	mtM         = 397
	mtMatrixA   = 0x9908b0df
	mtUpperMask = 0x80000000
	mtLowerMask = 0x7fffffff
)

// MT19937 is the 32-bit Mersenne Twister, seeded through init_by_array
// with the seed split into little-endian 32-bit words. Doubles are built
// from two outputs (27 + 26 bits), so a seed yields exactly the sequence of
// the reference renderer's random().
type MT19937 struct {
	mt  [mtN]uint32
	mti int
}

// NewMT19937 returns a generator seeded with seed.
func NewMT19937(seed uint64) *MT19937 {
	r := &MT19937{}
	r.initByArray(seedKey(seed))
	return r
}

func seedKey(seed uint64) []uint32 {
	lo, hi := uint32(seed), uint32(seed>>32)
	if hi == 0 {
		return []uint32{lo}
	}
	return []uint32{lo, hi}
}

func (r *MT19937) initGenrand(s uint32) {
	r.mt[0] = s
	for r.mti = 1; r.mti < mtN; r.mti++ {
		prev := r.mt[r.mti-1]
		r.mt[r.mti] = 1812433253*(prev^(prev>>30)) + uint32(r.mti)
	}
}

func (r *MT19937) initByArray(key []uint32) {
	r.initGenrand(19650218)
	i, j := 1, 0
	k := max(mtN, len(key))
	for ; k > 0; k-- {
		prev := r.mt[i-1]
		r.mt[i] = (r.mt[i] ^ ((prev ^ (prev >> 30)) * 1664525)) + key[j] + uint32(j)
		i++
		j++
		if i >= mtN {
			r.mt[0] = r.mt[mtN-1]
			i = 1
		}
		if j >= len(key) {
			j = 0
		}
	}
	for k = mtN - 1; k > 0; k-- {
		prev := r.mt[i-1]
		r.mt[i] = (r.mt[i] ^ ((prev ^ (prev >> 30)) * 1566083941)) - uint32(i)
		i++
		if i >= mtN {
			r.mt[0] = r.mt[mtN-1]
			i = 1
		}
	}
	r.mt[0] = 0x80000000
}

// Uint32 returns the next tempered 32-bit output.
func (r *MT19937) Uint32() uint32 {
	if r.mti >= mtN {
		r.twist()
	}
	y := r.mt[r.mti]
	r.mti++

	y ^= y >> 11
	y ^= (y << 7) & 0x9d2c5680
	y ^= (y << 15) & 0xefc60000
	y ^= y >> 18
	return y
}

func (r *MT19937) twist() {
	for kk := 0; kk < mtN; kk++ {
		y := (r.mt[kk] & mtUpperMask) | (r.mt[(kk+1)%mtN] & mtLowerMask)
		v := r.mt[(kk+mtM)%mtN] ^ (y >> 1)
		if y&1 != 0 {
			v ^= mtMatrixA
		}
		r.mt[kk] = v
	}
	r.mti = 0
}

// Float64 returns a 53-bit double in [0, 1).
func (r *MT19937) Float64() float64 {
	a := r.Uint32() >> 5
	b := r.Uint32() >> 6
	return (float64(a)*67108864.0 + float64(b)) * (1.0 / 9007199254740992.0)
}

// uniform draws from [lo, hi) the way the reference does: lo + (hi-lo)*x.
func uniform(rng RandomSource, lo, hi float64) float64 {
	return lo + (hi-lo)*rng.Float64()
}
