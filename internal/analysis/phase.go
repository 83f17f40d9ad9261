package analysis

import (
	"math"
	"strings"

	"github.com/san-kum/xpbdsim/internal/sim"
)

// PhasePortrait2D holds data for a 2D phase space plot
type PhasePortrait2D struct {
	Particle, Axis int
	Points         []struct{ X, Y float64 }
}

// Coordinate extracts axis (0 x, 1 y, 2 z) of one particle from every frame.
func Coordinate(frames []sim.Frame, particle, axis int) []float64 {
	out := make([]float64, 0, len(frames))
	for _, f := range frames {
		i := 3*particle + axis
		if i >= len(f) {
			return nil
		}
		out = append(out, f[i])
	}
	return out
}

// GeneratePhasePortrait pairs one coordinate of a particle with its central
// difference velocity. Frames must be sampled at a fixed dt.
func GeneratePhasePortrait(frames []sim.Frame, particle, axis int, dt float64) *PhasePortrait2D {
	xs := Coordinate(frames, particle, axis)
	if len(xs) < 3 || dt <= 0 {
		return nil
	}

	portrait := &PhasePortrait2D{
		Particle: particle,
		Axis:     axis,
		Points:   make([]struct{ X, Y float64 }, 0, len(xs)-2),
	}

	for i := 1; i+1 < len(xs); i++ {
		portrait.Points = append(portrait.Points, struct{ X, Y float64 }{
			X: xs[i],
			Y: (xs[i+1] - xs[i-1]) / (2 * dt),
		})
	}

	return portrait
}

// PhasePortraitToASCII plots the portrait on a width x height character
// grid with 10% padding, drawing the axes where they are in view.
func PhasePortraitToASCII(portrait *PhasePortrait2D, width, height int) string {
	if portrait == nil || len(portrait.Points) == 0 || width < 2 || height < 2 {
		return ""
	}

	minX, maxX := math.Inf(1), math.Inf(-1)
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, p := range portrait.Points {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	minX, maxX = pad(minX, maxX)
	minY, maxY = pad(minY, maxY)

	col := func(x float64) int { return int((x - minX) / (maxX - minX) * float64(width-1)) }
	row := func(y float64) int { return height - 1 - int((y-minY)/(maxY-minY)*float64(height-1)) }

	grid := make([][]rune, height)
	for r := range grid {
		grid[r] = []rune(strings.Repeat(" ", width))
	}

	if minX <= 0 && maxX >= 0 {
		c := col(0)
		for r := range grid {
			grid[r][c] = '│'
		}
	}
	if minY <= 0 && maxY >= 0 {
		r := row(0)
		for c := range grid[r] {
			if grid[r][c] == '│' {
				grid[r][c] = '┼'
			} else {
				grid[r][c] = '─'
			}
		}
	}

	for _, p := range portrait.Points {
		r, c := row(p.Y), col(p.X)
		if r >= 0 && r < height && c >= 0 && c < width {
			grid[r][c] = '•'
		}
	}

	var sb strings.Builder
	for _, line := range grid {
		sb.WriteString(string(line))
		sb.WriteRune('\n')
	}
	return sb.String()
}

func pad(lo, hi float64) (float64, float64) {
	span := hi - lo
	if span == 0 {
		span = 1
	}
	return lo - span*0.1, hi + span*0.1
}
