package particles

import (
	"fmt"
	"math"
)

// Point is a position in canvas units.
type Point struct {
	X float64
	Y float64
}

// Add returns p offset by (dx, dy).
func (p Point) Add(dx, dy float64) Point {
	return Point{X: p.X + dx, Y: p.Y + dy}
}

// Polar returns the point at distance r from p in direction angle.
func (p Point) Polar(angle, r float64) Point {
	return p.Add(math.Cos(angle)*r, math.Sin(angle)*r)
}

// Canvas is the pixel geometry of the rendered frame.
type Canvas struct {
	Width  int
	Height int
}

// DefaultCanvas is the portrait frame used by the app.
var DefaultCanvas = Canvas{Width: 720, Height: 1280}

// Validate checks that both dimensions are positive.
func (c Canvas) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("canvas %dx%d: dimensions must be positive", c.Width, c.Height)
	}
	return nil
}

// ShortSide is the smaller canvas dimension.
func (c Canvas) ShortSide() float64 {
	return float64(min(c.Width, c.Height))
}

// Center is the burst origin: horizontal middle, upper vertical third.
// Both use integer division, matching the reference renderer.
func (c Canvas) Center() Point {
	return Point{X: float64(c.Width / 2), Y: float64(c.Height / 3)}
}

// MaxRadius is the farthest a particle can travel.
func (c Canvas) MaxRadius() float64 {
	return MaxRadiusFraction * c.ShortSide()
}

// RayLength is the distance a burst ray travels.
func (c Canvas) RayLength() float64 {
	return RayLengthFraction * c.ShortSide()
}
