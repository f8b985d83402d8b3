package particles

import (
	"errors"
	"fmt"
	"math"

	"github.com/abhisek/celebrate/internal/rarity"
)

const (
	// MaxRadiusFraction of the short side bounds particle travel.
	MaxRadiusFraction = 0.6
	// RayLengthFraction of the short side is the burst ray travel.
	RayLengthFraction = 0.15

	// BaseSize is the smallest particle size; SizeSpread is added on top.
	BaseSize   = 2.0
	SizeSpread = 3.0

	RayWidth  = 2
	RayHeight = 20
)

// Particle is one confetti element.
type Particle struct {
	SpawnIndex int
	Start      Point
	End        Point
	Size       float64
	Color      rarity.Color

	// Raw draws, kept so trajectories can be checked against the renderer.
	Angle    float64
	Velocity float64
	Radius   float64
}

// BurstRay is one radial line, fully determined by its index.
type BurstRay struct {
	Index  int
	Angle  float64
	Start  Point
	End    Point
	Width  int
	Height int
	Color  rarity.Color
}

// Result is the ordered output of one simulation.
type Result struct {
	Tier      rarity.Tier
	Canvas    Canvas
	Particles []Particle
	Rays      []BurstRay
}

// Simulate generates particles in spawn order, consuming three draws each
// (angle, velocity, size), then the burst rays if the profile enables them.
// rng must be freshly seeded for the output to match the reference.
func Simulate(p rarity.Profile, c Canvas, rng RandomSource) (Result, error) {
	if err := p.Validate(); err != nil {
		return Result{}, err
	}
	if err := c.Validate(); err != nil {
		return Result{}, err
	}
	if rng == nil {
		return Result{}, errors.New("simulate: nil random source")
	}

	center := c.Center()
	maxRadius := c.MaxRadius()

	particles := make([]Particle, p.ParticleCount)
	for i := range particles {
		angle := uniform(rng, 0, 2*math.Pi)
		velocity := uniform(rng, 0, 1)
		radius := maxRadius * velocity
		size := BaseSize + uniform(rng, 0, SizeSpread)

		particles[i] = Particle{
			SpawnIndex: i,
			Start:      center,
			End:        center.Polar(angle, radius),
			Size:       size,
			Color:      p.ColorAt(i),
			Angle:      angle,
			Velocity:   velocity,
			Radius:     radius,
		}
	}

	return Result{
		Tier:      p.Tier,
		Canvas:    c,
		Particles: particles,
		Rays:      Rays(p.BurstRayCount(), c),
	}, nil
}

// Rays returns n evenly spaced burst rays. It draws no random numbers.
func Rays(n int, c Canvas) []BurstRay {
	if n <= 0 {
		return nil
	}
	center := c.Center()
	length := c.RayLength()
	step := 2 * math.Pi / float64(n)

	rays := make([]BurstRay, n)
	for i := range rays {
		angle := step * float64(i)
		rays[i] = BurstRay{
			Index:  i,
			Angle:  angle,
			Start:  center,
			End:    center.Polar(angle, length),
			Width:  RayWidth,
			Height: RayHeight,
			Color:  rarity.Gold,
		}
	}
	return rays
}

// EntityCount is the number of layers the result will compile to,
// excluding the background.
func (r Result) EntityCount() int {
	return len(r.Particles) + len(r.Rays)
}

func (r Result) String() string {
	return fmt.Sprintf("%s: %d particles, %d rays on %dx%d", r.Tier, len(r.Particles), len(r.Rays), r.Canvas.Width, r.Canvas.Height)
}
