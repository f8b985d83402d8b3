package rarity

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_Table(t *testing.T) {
	tests := []struct {
		tier      string
		particles int
		palette   []Color
		effects   []Effect
		rays      int
	}{
		{"common", 30, []Color{"#32CD32", "#90EE90"}, nil, 0},
		{"uncommon", 60, []Color{"#4A90E2", "#00CED1"}, []Effect{EffectBurstRays}, 32},
		{"rare", 100, []Color{"#FF6B35", "#FFD700"}, []Effect{EffectBurstRays, EffectShockwave}, 48},
	}

	for _, tt := range tests {
		t.Run(tt.tier, func(t *testing.T) {
			p, err := Resolve(tt.tier)
			require.NoError(t, err)
			assert.Equal(t, Tier(tt.tier), p.Tier)
			assert.Equal(t, tt.particles, p.ParticleCount)
			assert.Equal(t, tt.palette, p.Palette())
			assert.Equal(t, tt.rays, p.BurstRayCount())
			assert.ElementsMatch(t, tt.effects, p.Effects())
			assert.Equal(t, SizeRange{Min: 2, Max: 5}, p.SizeRange)
			require.NoError(t, p.Validate())
		})
	}
}

func TestResolve_Uncommon(t *testing.T) {
	p, err := Resolve("uncommon")
	require.NoError(t, err)
	assert.Equal(t, 60, p.ParticleCount)
	assert.Equal(t, 32, p.BurstRayCount())
	assert.Equal(t, []Effect{EffectBurstRays}, p.Effects())
	assert.False(t, p.Has(EffectShockwave))
}

func TestResolve_Normalizes(t *testing.T) {
	p, err := Resolve("  RARE ")
	require.NoError(t, err)
	assert.Equal(t, TierRare, p.Tier)
}

func TestResolve_Invalid(t *testing.T) {
	for _, name := range []string{"epic", "", "legendary", "common2"} {
		_, err := Resolve(name)
		require.Error(t, err, name)
		assert.True(t, errors.Is(err, ErrInvalidProfile), "%q: %v", name, err)
	}
}

func TestProfile_IsImmutable(t *testing.T) {
	p, err := Resolve("common")
	require.NoError(t, err)

	pal := p.Palette()
	pal[0] = "#000000"

	again, err := Resolve("common")
	require.NoError(t, err)
	assert.Equal(t, Color("#32CD32"), p.ColorAt(0))
	assert.Equal(t, Color("#32CD32"), again.ColorAt(0))
}

func TestProfile_ColorAtCycles(t *testing.T) {
	p, err := Resolve("rare")
	require.NoError(t, err)
	pal := p.Palette()
	for i := 0; i < p.ParticleCount; i++ {
		assert.Equal(t, pal[i%len(pal)], p.ColorAt(i))
	}
}

func TestProfile_Validate(t *testing.T) {
	good := []Color{"#112233"}
	tests := []struct {
		name string
		p    Profile
		ok   bool
	}{
		{"valid", NewProfile("x", 1, good, SizeRange{2, 5}, 0), true},
		{"zero count", NewProfile("x", 0, good, SizeRange{2, 5}, 0), false},
		{"negative count", NewProfile("x", -3, good, SizeRange{2, 5}, 0), false},
		{"empty palette", NewProfile("x", 5, nil, SizeRange{2, 5}, 0), false},
		{"bad size", NewProfile("x", 5, good, SizeRange{5, 2}, 0), false},
		{"rays without count", NewProfile("x", 5, good, SizeRange{2, 5}, 0, EffectBurstRays), false},
		{"bad color", NewProfile("x", 5, []Color{"red"}, SizeRange{2, 5}, 0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.p.Validate()
			if tt.ok {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidProfile)
		})
	}
}

func TestTiers_Order(t *testing.T) {
	assert.Equal(t, []Tier{TierCommon, TierUncommon, TierRare}, Tiers())
	all := All()
	require.Len(t, all, 3)
	assert.Equal(t, TierRare, all[2].Tier)
}

func TestTier_DisplayName(t *testing.T) {
	assert.Equal(t, "Uncommon", TierUncommon.DisplayName())
	assert.Equal(t, "mythic", Tier("mythic").DisplayName())
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in      string
		want    Color
		wantErr bool
	}{
		{"#1a1a2e", "#1A1A2E", false},
		{"0xFFD700", "#FFD700", false},
		{"32cd32", "#32CD32", false},
		{"#12345", "", true},
		{"#GGGGGG", "", true},
	}
	for _, tt := range tests {
		got, err := ParseColor(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
	assert.Equal(t, "0xFFD700", Gold.FFmpeg())
}
