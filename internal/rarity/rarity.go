package rarity

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrInvalidProfile is returned for unsupported tiers and for profiles that
// cannot be simulated.
var ErrInvalidProfile = errors.New("invalid profile")

// Tier is the quality class of a collectible.
type Tier string

const (
	TierCommon   Tier = "common"
	TierUncommon Tier = "uncommon"
	TierRare     Tier = "rare"
)

// Tiers returns all tiers in batch processing order.
func Tiers() []Tier {
	return []Tier{TierCommon, TierUncommon, TierRare}
}

// DisplayName returns a human-readable label for the tier.
func (t Tier) DisplayName() string {
	switch t {
	case TierCommon:
		return "Common"
	case TierUncommon:
		return "Uncommon"
	case TierRare:
		return "Rare"
	default:
		return string(t)
	}
}

// ParseTier normalizes s and checks it against the supported tiers.
func ParseTier(s string) (Tier, error) {
	t := Tier(strings.ToLower(strings.TrimSpace(s)))
	if !slices.Contains(Tiers(), t) {
		return "", fmt.Errorf("%w: unsupported rarity %q", ErrInvalidProfile, s)
	}
	return t, nil
}

// Effect is a secondary visual effect layered on top of the confetti.
type Effect string

const (
	EffectBurstRays Effect = "burst_rays"
	EffectShockwave Effect = "shockwave"
)

// SizeRange bounds the particle size in canvas units.
type SizeRange struct {
	Min int
	Max int
}

// Profile is the fixed render configuration of one tier.
type Profile struct {
	Tier          Tier
	ParticleCount int
	SizeRange     SizeRange
	RayCount      int

	palette []Color
	effects []Effect
}

// Palette returns a copy of the particle colors, cycled by spawn index.
func (p Profile) Palette() []Color {
	return slices.Clone(p.palette)
}

// Effects returns a copy of the enabled secondary effects.
func (p Profile) Effects() []Effect {
	return slices.Clone(p.effects)
}

// Has reports whether the effect is enabled.
func (p Profile) Has(e Effect) bool {
	return slices.Contains(p.effects, e)
}

// BurstRayCount is the number of rays to simulate, 0 when rays are disabled.
func (p Profile) BurstRayCount() int {
	if !p.Has(EffectBurstRays) {
		return 0
	}
	return p.RayCount
}

// ColorAt returns the palette color for spawn index i.
func (p Profile) ColorAt(i int) Color {
	return p.palette[i%len(p.palette)]
}

// Validate checks that the profile can be simulated.
func (p Profile) Validate() error {
	switch {
	case p.ParticleCount <= 0:
		return fmt.Errorf("%w: %s: particle count must be > 0, got %d", ErrInvalidProfile, p.Tier, p.ParticleCount)
	case len(p.palette) == 0:
		return fmt.Errorf("%w: %s: palette is empty", ErrInvalidProfile, p.Tier)
	case p.SizeRange.Min <= 0 || p.SizeRange.Max < p.SizeRange.Min:
		return fmt.Errorf("%w: %s: size range %d-%d", ErrInvalidProfile, p.Tier, p.SizeRange.Min, p.SizeRange.Max)
	case p.Has(EffectBurstRays) && p.RayCount <= 0:
		return fmt.Errorf("%w: %s: burst rays need a positive ray count", ErrInvalidProfile, p.Tier)
	}
	for _, c := range p.palette {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidProfile, p.Tier, err)
		}
	}
	return nil
}

// NewProfile builds a profile outside the static table. Intended for tests
// and tooling; Resolve is the only source of production profiles.
func NewProfile(tier Tier, count int, palette []Color, size SizeRange, rays int, effects ...Effect) Profile {
	return Profile{
		Tier:          tier,
		ParticleCount: count,
		SizeRange:     size,
		RayCount:      rays,
		palette:       slices.Clone(palette),
		effects:       slices.Clone(effects),
	}
}

// The table must stay identical to the in-app renderer.
var profiles = map[Tier]Profile{
	TierCommon: {
		Tier:          TierCommon,
		ParticleCount: 30,
		SizeRange:     SizeRange{Min: 2, Max: 5},
		palette:       []Color{"#32CD32", "#90EE90"},
	},
	TierUncommon: {
		Tier:          TierUncommon,
		ParticleCount: 60,
		SizeRange:     SizeRange{Min: 2, Max: 5},
		RayCount:      32,
		palette:       []Color{"#4A90E2", "#00CED1"},
		effects:       []Effect{EffectBurstRays},
	},
	TierRare: {
		Tier:          TierRare,
		ParticleCount: 100,
		SizeRange:     SizeRange{Min: 2, Max: 5},
		RayCount:      48,
		palette:       []Color{"#FF6B35", "#FFD700"},
		effects:       []Effect{EffectBurstRays, EffectShockwave},
	},
}

// Resolve returns the profile for a tier name.
func Resolve(tier string) (Profile, error) {
	t, err := ParseTier(tier)
	if err != nil {
		return Profile{}, err
	}
	p := profiles[t]
	return NewProfile(p.Tier, p.ParticleCount, p.palette, p.SizeRange, p.RayCount, p.effects...), nil
}

// All returns every profile in processing order.
func All() []Profile {
	out := make([]Profile, 0, len(profiles))
	for _, t := range Tiers() {
		p, _ := Resolve(string(t))
		out = append(out, p)
	}
	return out
}
