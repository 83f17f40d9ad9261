package viz

import (
	"image"
	"image/color"
	"strings"
)

const brailleBase = 0x2800

// dotBits maps a sub-cell (row, col) to its braille dot:
//
//	1 4
//	2 5
//	3 6
//	7 8
var dotBits = [4][2]uint8{
	{0x01, 0x08},
	{0x02, 0x10},
	{0x04, 0x20},
	{0x40, 0x80},
}

// Canvas is a monochrome bitmap drawn with braille characters. Each cell
// holds 2x4 dots, so a Cols x Rows canvas has Cols*2 x Rows*4 pixels.
type Canvas struct {
	Cols, Rows int
	cells      []uint8
}

func NewCanvas(cols, rows int) *Canvas {
	return &Canvas{Cols: cols, Rows: rows, cells: make([]uint8, cols*rows)}
}

// Pixels returns the drawable size in dots.
func (c *Canvas) Pixels() (w, h int) { return c.Cols * 2, c.Rows * 4 }

// Set lights the dot at pixel (x, y). Out of range pixels are ignored.
func (c *Canvas) Set(x, y int) {
	w, h := c.Pixels()
	if x < 0 || y < 0 || x >= w || y >= h {
		return
	}
	c.cells[(y/4)*c.Cols+x/2] |= dotBits[y%4][x%2]
}

// Lit reports whether the dot at (x, y) is set.
func (c *Canvas) Lit(x, y int) bool {
	w, h := c.Pixels()
	if x < 0 || y < 0 || x >= w || y >= h {
		return false
	}
	return c.cells[(y/4)*c.Cols+x/2]&dotBits[y%4][x%2] != 0
}

func (c *Canvas) Clear() {
	clear(c.cells)
}

// Line draws from (x0, y0) to (x1, y1) with Bresenham's algorithm.
func (c *Canvas) Line(x0, y0, x1, y1 int) {
	dx, dy := absInt(x1-x0), absInt(y1-y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx - dy

	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

// Cross draws a small plus sign centred on (x, y).
func (c *Canvas) Cross(x, y, r int) {
	c.Line(x-r, y, x+r, y)
	c.Line(x, y-r, x, y+r)
}

func (c *Canvas) String() string {
	var b strings.Builder
	b.Grow(c.Rows * (c.Cols*3 + 1))
	for row := 0; row < c.Rows; row++ {
		for _, cell := range c.cells[row*c.Cols : (row+1)*c.Cols] {
			b.WriteRune(rune(brailleBase + int(cell)))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// Image rasterises the canvas with each dot drawn as a scale x scale block.
func (c *Canvas) Image(scale int, fg color.Color) *image.Paletted {
	if scale < 1 {
		scale = 1
	}
	w, h := c.Pixels()
	img := image.NewPaletted(image.Rect(0, 0, w*scale, h*scale), color.Palette{color.Black, fg})
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if !c.Lit(x, y) {
				continue
			}
			for py := 0; py < scale; py++ {
				for px := 0; px < scale; px++ {
					img.SetColorIndex(x*scale+px, y*scale+py, 1)
				}
			}
		}
	}
	return img
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
