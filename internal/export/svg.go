// Package export renders recorded runs as standalone SVG documents.
package export

import (
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/xpbdsim/internal/sim"
	"github.com/san-kum/xpbdsim/internal/viz"
)

const background = "#0a0a0a"

func header(sb *strings.Builder, width, height float64) {
	fmt.Fprintf(sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="%s"/>
`, width, height, width, height, background)
}

// FrameCamera returns a camera framing every particle of f.
func FrameCamera(f sim.Frame) *viz.Camera {
	cam := viz.NewCamera()
	if f.Len() == 0 {
		return cam
	}
	lo, hi := f.At(0), f.At(0)
	for i := 1; i < f.Len(); i++ {
		p := f.At(i)
		for k := 0; k < 3; k++ {
			lo[k] = min(lo[k], p[k])
			hi[k] = max(hi[k], p[k])
		}
	}
	cam.Frame(lo, hi)
	return cam
}

// WireframeToSVG projects one frame through cam and draws its edges as
// lines and its particles as dots. Edges with an endpoint behind the
// camera or out of range are skipped.
func WireframeToSVG(f sim.Frame, edges [][2]int, cam *viz.Camera, width, height int, stroke string) string {
	if f.Len() == 0 || width <= 0 || height <= 0 {
		return ""
	}

	type point struct {
		x, y    int
		visible bool
	}
	points := make([]point, f.Len())
	for i := range points {
		x, y, _, inFront, _ := cam.Project(f.At(i), width, height)
		points[i] = point{x, y, inFront}
	}

	var sb strings.Builder
	header(&sb, float64(width), float64(height))

	fmt.Fprintf(&sb, "<g stroke=\"%s\" stroke-width=\"1\">\n", stroke)
	for _, e := range edges {
		if e[0] < 0 || e[1] < 0 || e[0] >= len(points) || e[1] >= len(points) {
			continue
		}
		a, b := points[e[0]], points[e[1]]
		if !a.visible || !b.visible {
			continue
		}
		fmt.Fprintf(&sb, "<line x1=\"%d\" y1=\"%d\" x2=\"%d\" y2=\"%d\"/>\n", a.x, a.y, b.x, b.y)
	}
	sb.WriteString("</g>\n")

	fmt.Fprintf(&sb, "<g fill=\"%s\">\n", stroke)
	for _, p := range points {
		if p.visible {
			fmt.Fprintf(&sb, "<circle cx=\"%d\" cy=\"%d\" r=\"1.5\"/>\n", p.x, p.y)
		}
	}
	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

// CanvasToSVG draws every lit braille sub-pixel of canvas as a dot.
func CanvasToSVG(canvas *viz.Canvas, scale float64, fill string) string {
	if canvas == nil {
		return ""
	}
	w, h := canvas.Pixels()

	var sb strings.Builder
	header(&sb, float64(w)*scale, float64(h)*scale)
	fmt.Fprintf(&sb, "<g fill=\"%s\">\n", fill)

	r := scale * 0.4
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if !canvas.Lit(x, y) {
				continue
			}
			cx := float64(x)*scale + scale/2
			cy := float64(y)*scale + scale/2
			fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\"/>\n", cx, cy, r)
		}
	}

	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

// PathToSVG plots ys against xs as a single polyline, scaled to fill the
// document with a 10% margin.
func PathToSVG(xs, ys []float64, width, height int, stroke string) string {
	n := min(len(xs), len(ys))
	if n < 2 {
		return ""
	}

	lo := mgl64.Vec2{xs[0], ys[0]}
	hi := lo
	for i := 1; i < n; i++ {
		lo = mgl64.Vec2{min(lo[0], xs[i]), min(lo[1], ys[i])}
		hi = mgl64.Vec2{max(hi[0], xs[i]), max(hi[1], ys[i])}
	}
	span := hi.Sub(lo)
	for k := range span {
		if span[k] == 0 {
			span[k] = 1
		}
		lo[k] -= span[k] * 0.1
		span[k] *= 1.2
	}

	var sb strings.Builder
	header(&sb, float64(width), float64(height))
	fmt.Fprintf(&sb, `<path fill="none" stroke="%s" stroke-width="1.5" d="M`, stroke)

	for i := 0; i < n; i++ {
		x := (xs[i] - lo[0]) / span[0] * float64(width)
		y := float64(height) - (ys[i]-lo[1])/span[1]*float64(height)
		if i > 0 {
			sb.WriteString(" L")
		}
		fmt.Fprintf(&sb, "%.1f,%.1f", x, y)
	}

	sb.WriteString("\"/>\n</svg>")
	return sb.String()
}
