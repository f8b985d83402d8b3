package compose

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/abhisek/celebrate/internal/particles"
	"github.com/abhisek/celebrate/internal/rarity"
)

// ErrInvalidGraph is returned when a graph breaks the single-chain contract.
var ErrInvalidGraph = errors.New("invalid composition graph")

// LayerKind identifies what a layer draws.
type LayerKind string

const (
	KindBackground LayerKind = "background"
	KindParticle   LayerKind = "particle"
	KindRay        LayerKind = "ray"
)

// Layer is one timed visual element. X, Y and Opacity are ffmpeg
// expressions in t (seconds since the first frame).
type Layer struct {
	Kind    LayerKind
	Index   int
	Source  string
	Width   int
	Height  int
	Color   string
	X       string
	Y       string
	Opacity string

	// Output labels the accumulated canvas after this layer is composited.
	Output string
}

// Filter is one statement of the filter graph.
type Filter struct {
	Inputs  []string
	Body    string
	Outputs []string
}

func (f Filter) String() string {
	var b strings.Builder
	for _, in := range f.Inputs {
		b.WriteString("[" + in + "]")
	}
	b.WriteString(f.Body)
	for _, out := range f.Outputs {
		b.WriteString("[" + out + "]")
	}
	return b.String()
}

// Graph is the compiled composition of one clip. Layers are in z-order:
// the background first, then particles in spawn order, then rays.
type Graph struct {
	Tier       rarity.Tier
	Params     VideoParams
	Background Background
	Layers     []Layer
	Filters    []Filter
}

// Compile turns a simulation into an ordered overlay chain.
func Compile(sim particles.Result, v VideoParams, bg Background) (*Graph, error) {
	if err := v.Validate(); err != nil {
		return nil, err
	}
	if sim.Canvas != v.Canvas() {
		return nil, fmt.Errorf("simulation canvas %dx%d does not match video %s",
			sim.Canvas.Width, sim.Canvas.Height, v.Size())
	}
	if len(sim.Particles) == 0 {
		return nil, fmt.Errorf("%w: %s: no particles to compose", rarity.ErrInvalidProfile, sim.Tier)
	}

	g := &Graph{
		Tier:       sim.Tier,
		Params:     v,
		Background: bg,
		Layers:     make([]Layer, 0, 1+sim.EntityCount()),
		Filters:    make([]Filter, 0, 1+2*sim.EntityCount()),
	}
	g.addBackground()

	for _, p := range sim.Particles {
		side := max(int(p.Size), 1)
		g.addOverlay(Layer{
			Kind:   KindParticle,
			Index:  p.SpawnIndex,
			Source: fmt.Sprintf("p%d", p.SpawnIndex),
			Width:  side,
			Height: side,
			Color:  p.Color.FFmpeg(),
			X:      g.lerp(p.Start.X, p.End.X),
			Y:      g.lerp(p.Start.Y, p.End.Y),
			Output: fmt.Sprintf("tmp%d", p.SpawnIndex),
		})
	}
	for _, r := range sim.Rays {
		g.addOverlay(Layer{
			Kind:   KindRay,
			Index:  r.Index,
			Source: fmt.Sprintf("ray%d", r.Index),
			Width:  r.Width,
			Height: r.Height,
			Color:  r.Color.FFmpeg(),
			X:      g.lerp(r.Start.X, r.End.X),
			Y:      g.lerp(r.Start.Y, r.End.Y),
			Output: fmt.Sprintf("ray_tmp%d", r.Index),
		})
	}

	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *Graph) addBackground() {
	body := fmt.Sprintf("color=c=%s:s=%s:d=%s:r=%d", g.Background.ffmpeg(), g.Params.Size(), g.Params.Seconds(), g.Params.FPS)
	if g.Background.IsTransparent() {
		body += ",format=rgba"
	}
	g.Layers = append(g.Layers, Layer{
		Kind:    KindBackground,
		Index:   -1,
		Source:  "bg",
		Width:   g.Params.Width,
		Height:  g.Params.Height,
		Color:   g.Background.ffmpeg(),
		X:       "0",
		Y:       "0",
		Opacity: "1",
		Output:  "bg",
	})
	g.Filters = append(g.Filters, Filter{Body: body, Outputs: []string{"bg"}})
}

// addOverlay declares the layer's source and composites it onto the
// current top of the chain.
func (g *Graph) addOverlay(l Layer) {
	d := g.Params.Seconds()
	l.Opacity = "1-t/" + d
	below := g.Output()

	src := fmt.Sprintf("color=c=%s:s=%dx%d:d=%s:r=%d,format=rgba,fade=t=out:st=0:d=%s:alpha=1",
		l.Color, l.Width, l.Height, d, g.Params.FPS, d)
	overlay := fmt.Sprintf("overlay=x='%s':y='%s':eval=frame:format=auto", l.X, l.Y)

	g.Layers = append(g.Layers, l)
	g.Filters = append(g.Filters,
		Filter{Body: src, Outputs: []string{l.Source}},
		Filter{Inputs: []string{below, l.Source}, Body: overlay, Outputs: []string{l.Output}},
	)
}

// lerp moves linearly from start at t=0 to end at t=duration.
func (g *Graph) lerp(start, end float64) string {
	s := formatNumber(start)
	return fmt.Sprintf("%s+(%s-%s)*t/%s", s, formatNumber(end), s, g.Params.Seconds())
}

// Output is the label of the fully composited canvas.
func (g *Graph) Output() string {
	if len(g.Layers) == 0 {
		return ""
	}
	return g.Layers[len(g.Layers)-1].Output
}

// LayerCount includes the background.
func (g *Graph) LayerCount() int {
	return len(g.Layers)
}

// Statements returns the filter statements in order.
func (g *Graph) Statements() []string {
	out := make([]string, len(g.Filters))
	for i, f := range g.Filters {
		out[i] = f.String()
	}
	return out
}

// FilterComplex is the semicolon-delimited graph passed to ffmpeg.
func (g *Graph) FilterComplex() string {
	return strings.Join(g.Statements(), ";")
}

// Validate checks that every label is declared once before use, every
// intermediate label is consumed exactly once, and the chain ends in the
// single label returned by Output.
func (g *Graph) Validate() error {
	if len(g.Filters) == 0 {
		return fmt.Errorf("%w: empty graph", ErrInvalidGraph)
	}
	declared := make(map[string]int)
	consumed := make(map[string]int)

	for i, f := range g.Filters {
		for _, in := range f.Inputs {
			if _, ok := declared[in]; !ok {
				return fmt.Errorf("%w: statement %d consumes undeclared label %q", ErrInvalidGraph, i, in)
			}
			consumed[in]++
			if consumed[in] > 1 {
				return fmt.Errorf("%w: label %q consumed more than once", ErrInvalidGraph, in)
			}
		}
		if len(f.Outputs) == 0 {
			return fmt.Errorf("%w: statement %d has no output label", ErrInvalidGraph, i)
		}
		for _, out := range f.Outputs {
			if _, dup := declared[out]; dup {
				return fmt.Errorf("%w: label %q declared twice", ErrInvalidGraph, out)
			}
			declared[out] = i
		}
	}

	var finals []string
	for label := range declared {
		if consumed[label] == 0 {
			finals = append(finals, label)
		}
	}
	slices.Sort(finals)
	if len(finals) != 1 {
		return fmt.Errorf("%w: want one final output, got %v", ErrInvalidGraph, finals)
	}
	if finals[0] != g.Output() {
		return fmt.Errorf("%w: chain ends at %q, top layer is %q", ErrInvalidGraph, finals[0], g.Output())
	}
	return nil
}
