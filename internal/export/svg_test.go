package export

import (
	"strings"
	"testing"

	"github.com/san-kum/xpbdsim/internal/sim"
	"github.com/san-kum/xpbdsim/internal/viz"
)

func TestWireframeToSVG(t *testing.T) {
	f := sim.Frame{-1, 3, 0, 1, 3, 0, 0, 5, 0}
	cam := FrameCamera(f)
	svg := WireframeToSVG(f, [][2]int{{0, 1}, {1, 2}, {2, 9}}, cam, 320, 240, "#00ff00")

	if !strings.HasPrefix(svg, "<?xml") || !strings.HasSuffix(svg, "</svg>") {
		t.Fatal("not a complete SVG document")
	}
	if got := strings.Count(svg, "<line"); got != 2 {
		t.Errorf("expected 2 lines, got %d", got)
	}
	if got := strings.Count(svg, "<circle"); got != 3 {
		t.Errorf("expected 3 particles, got %d", got)
	}
	if WireframeToSVG(nil, nil, cam, 320, 240, "#fff") != "" {
		t.Error("empty frame should give no document")
	}
}

func TestCanvasToSVG(t *testing.T) {
	c := viz.NewCanvas(2, 1)
	c.Set(0, 0)
	c.Set(3, 3)
	svg := CanvasToSVG(c, 2, "#fff")
	if got := strings.Count(svg, "<circle"); got != 2 {
		t.Errorf("expected 2 dots, got %d", got)
	}
	if !strings.Contains(svg, `cx="7.0" cy="7.0"`) {
		t.Error("dot not placed at its sub-pixel")
	}
	if CanvasToSVG(nil, 1, "#fff") != "" {
		t.Error("nil canvas should give no document")
	}
}

func TestPathToSVG(t *testing.T) {
	svg := PathToSVG([]float64{0, 1, 2}, []float64{0, 1, 0}, 100, 100, "#f00")
	if !strings.Contains(svg, "M") || strings.Count(svg, " L") != 2 {
		t.Errorf("unexpected path: %s", svg)
	}
	if PathToSVG([]float64{1}, []float64{1}, 100, 100, "#f00") != "" {
		t.Error("single point should give no path")
	}
}
