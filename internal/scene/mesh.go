package scene

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/xpbdsim/internal/xpbd"
)

// CubeOBJ is a unit cube centred on the origin.
const CubeOBJ = `# cube
v -1 -1 -1
v  1 -1 -1
v  1  1 -1
v -1  1 -1
v -1 -1  1
v  1 -1  1
v  1  1  1
v -1  1  1
f 1 4 3 2
f 5 6 7 8
f 1 2 6 5
f 4 8 7 3
f 1 5 8 4
f 2 3 7 6
`

// Mesh is a triangle mesh read from a Wavefront OBJ file. Faces hold
// 0-based vertex indices.
type Mesh struct {
	Vertices []mgl64.Vec3
	Faces    [][3]int
}

// ParseOBJ reads "v" and "f" records and ignores everything else. Face
// entries may carry texture and normal indices ("1/2/3"), negative indices
// count back from the last vertex, and polygons are fan-triangulated.
func ParseOBJ(r io.Reader) (*Mesh, error) {
	m := &Mesh{}
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "v":
			if len(fields) < 4 {
				return nil, fmt.Errorf("line %d: vertex needs 3 coordinates", line)
			}
			var v mgl64.Vec3
			for i := 0; i < 3; i++ {
				f, err := strconv.ParseFloat(fields[i+1], 64)
				if err != nil {
					return nil, fmt.Errorf("line %d: %w", line, err)
				}
				v[i] = f
			}
			m.Vertices = append(m.Vertices, v)

		case "f":
			if len(fields) < 4 {
				return nil, fmt.Errorf("line %d: face needs at least 3 vertices", line)
			}
			polygon := make([]int, 0, len(fields)-1)
			for _, field := range fields[1:] {
				idx, err := faceIndex(field, len(m.Vertices))
				if err != nil {
					return nil, fmt.Errorf("line %d: %w", line, err)
				}
				polygon = append(polygon, idx)
			}
			for i := 1; i+1 < len(polygon); i++ {
				m.Faces = append(m.Faces, [3]int{polygon[0], polygon[i], polygon[i+1]})
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return m, nil
}

func faceIndex(field string, count int) (int, error) {
	if slash := strings.IndexByte(field, '/'); slash >= 0 {
		field = field[:slash]
	}
	n, err := strconv.Atoi(field)
	if err != nil {
		return 0, err
	}
	idx := n - 1
	if n < 0 {
		idx = count + n
	}
	if n == 0 || idx < 0 || idx >= count {
		return 0, fmt.Errorf("vertex index %d out of range", n)
	}
	return idx, nil
}

func LoadOBJ(path string) (*Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseOBJ(f)
}

// Load adds one particle per vertex, copying inverse mass and gravity from
// template, and one rest-length distance constraint per unique edge. With
// colliders set every face also becomes a TriangleCollider.
func (m *Mesh) Load(sim *xpbd.Simulation, template xpbd.Particle, compliance float64, transform mgl64.Mat4, colliders bool) *Body {
	body := &Body{}
	for _, v := range m.Vertices {
		position := transform.Mul4x1(v.Vec4(1)).Vec3()
		p := xpbd.NewParticle(position, template.Velocity, template.InverseMass, template.HasGravity)
		body.Particles = append(body.Particles, p)
		sim.AddParticle(p)
	}

	ps := body.Particles
	for _, e := range uniqueEdges(m.Faces) {
		body.constrain(sim, xpbd.NewRestDistanceConstraint(ps[e[0]], ps[e[1]], compliance))
	}
	if colliders {
		for _, f := range m.Faces {
			body.collide(sim, xpbd.NewTriangleCollider(ps[f[0]], ps[f[1]], ps[f[2]]))
		}
	}
	return body
}
