package viz

import (
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"math"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/xpbdsim/internal/config"
	"github.com/san-kum/xpbdsim/internal/experiment"
	"github.com/san-kum/xpbdsim/internal/geom"
	"github.com/san-kum/xpbdsim/internal/scene"
	"github.com/san-kum/xpbdsim/internal/sim"
	"github.com/san-kum/xpbdsim/internal/xpbd"
)

const (
	canvasCols      = 80
	canvasRows      = 24
	historyCapacity = 600
	maxCatchUp      = 8
	liveGrabRadius  = 0.4
	orbitStep       = 0.1
	cursorStep      = 2
	gifScale        = 3
)

var GIFPath = "xpbdsim.gif"

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second/60, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Model drives one simulation at a fixed tick from wall-clock time and
// draws it as a braille wireframe beside a stats panel.
type Model struct {
	cfg   *config.Config
	build experiment.Builder

	world   *xpbd.Simulation
	edges   [][2]int
	grabber *scene.Grabber
	clock   *experiment.Accumulator
	t       float64
	ticks   int
	last    time.Time
	stats   xpbd.StepStats
	err     error

	camera *Camera
	canvas *Canvas
	cursor [2]int
	theme  Theme
	style  styles

	running   bool
	showHelp  bool
	recording bool
	frames    []*image.Paletted

	kinetic  []float64
	contacts []float64
}

// NewModel builds the scene described by cfg.
func NewModel(cfg *config.Config, build experiment.Builder) (Model, error) {
	theme := Themes[0]
	m := Model{
		cfg:     cfg,
		build:   build,
		clock:   experiment.NewAccumulator(cfg.Dt, maxCatchUp),
		camera:  NewCamera(),
		canvas:  NewCanvas(canvasCols, canvasRows),
		theme:   theme,
		style:   newStyles(theme),
		running: true,
	}
	if err := m.reset(); err != nil {
		return Model{}, err
	}
	m.fit()
	w, h := m.canvas.Pixels()
	m.cursor = [2]int{w / 2, h / 2}
	return m, nil
}

func (m Model) Init() tea.Cmd { return tick() }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.MouseMsg:
		m.handleMouse(msg)
	case TickMsg:
		m.advance(time.Time(msg))
		m.draw()
		if m.recording {
			m.frames = append(m.frames, m.canvas.Image(gifScale, color.White))
		}
		return m, tick()
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	w, h := m.canvas.Pixels()
	switch msg.String() {
	case "q", "ctrl+c":
		if m.recording {
			m.saveGIF()
		}
		return m, tea.Quit
	case " ":
		m.running = !m.running
		m.last = time.Time{}
	case "n":
		if !m.running {
			m.step()
		}
	case "r":
		if err := m.reset(); err != nil {
			m.err = err
		}
	case "left":
		m.camera.Orbit(-orbitStep, 0)
	case "right":
		m.camera.Orbit(orbitStep, 0)
	case "up":
		m.camera.Orbit(0, orbitStep)
	case "down":
		m.camera.Orbit(0, -orbitStep)
	case "+", "=":
		m.camera.ZoomIn()
	case "-", "_":
		m.camera.ZoomOut()
	case "f":
		m.fit()
	case "w":
		m.moveCursor(0, -cursorStep, w, h)
	case "s":
		m.moveCursor(0, cursorStep, w, h)
	case "a":
		m.moveCursor(-cursorStep, 0, w, h)
	case "d":
		m.moveCursor(cursorStep, 0, w, h)
	case "g":
		if m.grabber.Grabbed() != nil {
			m.grabber.End()
		} else {
			m.grabber.Begin(m.cursorRay())
		}
	case "t":
		m.theme = NextTheme(m.theme.Name)
		m.style = newStyles(m.theme)
	case "v":
		if m.recording {
			m.saveGIF()
		}
		m.recording = !m.recording
		m.frames = nil
	case "?":
		m.showHelp = !m.showHelp
	}
	m.draw()
	return m, nil
}

// handleMouse grabs with the left button, mapping terminal cells to the
// centre of the matching braille cell.
func (m *Model) handleMouse(msg tea.MouseMsg) {
	col, row := msg.X-canvasPadLeft, msg.Y-canvasPadTop
	if col < 0 || row < 0 || col >= m.canvas.Cols || row >= m.canvas.Rows {
		if msg.Action == tea.MouseActionRelease {
			m.grabber.End()
		}
		return
	}
	m.cursor = [2]int{col*2 + 1, row*4 + 2}

	switch {
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		m.grabber.Begin(m.cursorRay())
	case msg.Action == tea.MouseActionMotion:
		m.grabber.Move(m.cursorRay())
	case msg.Action == tea.MouseActionRelease:
		m.grabber.End()
	}
}

func (m *Model) moveCursor(dx, dy, w, h int) {
	m.cursor[0] = max(0, min(w-1, m.cursor[0]+dx))
	m.cursor[1] = max(0, min(h-1, m.cursor[1]+dy))
	m.grabber.Move(m.cursorRay())
}

func (m *Model) cursorRay() geom.Ray {
	w, h := m.canvas.Pixels()
	return m.camera.Ray(float64(m.cursor[0])+0.5, float64(m.cursor[1])+0.5, w, h)
}

// advance runs as many fixed ticks as the wall clock allows since the
// previous call.
func (m *Model) advance(now time.Time) {
	if !m.running || m.err != nil {
		m.last = time.Time{}
		return
	}
	if m.last.IsZero() {
		m.last = now
		return
	}
	n := m.clock.Advance(now.Sub(m.last).Seconds())
	m.last = now
	for i := 0; i < n && m.err == nil; i++ {
		m.step()
	}
}

func (m *Model) step() {
	m.world.Step(m.cfg.Dt)
	m.stats = m.world.Stats()

	if !m.world.Finite() {
		m.err = sim.SimError{Step: m.ticks, Time: m.t, Message: "non-finite particle state"}
		m.running = false
		return
	}

	m.ticks++
	m.t = float64(m.ticks) * m.cfg.Dt

	kinetic, _ := m.world.Energy()
	m.kinetic = appendCapped(m.kinetic, kinetic)
	m.contacts = appendCapped(m.contacts, float64(m.stats.Contacts))
}

func appendCapped(values []float64, v float64) []float64 {
	values = append(values, v)
	if len(values) > historyCapacity {
		values = values[1:]
	}
	return values
}

// reset rebuilds the scene from the config.
func (m *Model) reset() error {
	world, err := m.build(m.cfg)
	if err != nil {
		return err
	}
	m.world = world
	m.edges = sim.Edges(world)
	m.grabber = scene.NewGrabber(world)
	m.grabber.Radius = liveGrabRadius
	m.clock.Reset()
	m.t, m.ticks, m.last, m.err = 0, 0, time.Time{}, nil
	m.stats = xpbd.StepStats{}
	m.kinetic, m.contacts = m.kinetic[:0], m.contacts[:0]
	return nil
}

// fit frames the movable particles, leaving room below them to hang or
// fall by their horizontal extent.
func (m *Model) fit() {
	inf := math.Inf(1)
	lo, hi := mgl64.Vec3{inf, inf, inf}, mgl64.Vec3{-inf, -inf, -inf}
	for _, p := range m.world.Particles {
		if p.Immovable() {
			continue
		}
		for i := 0; i < 3; i++ {
			lo[i] = math.Min(lo[i], p.Position[i])
			hi[i] = math.Max(hi[i], p.Position[i])
		}
	}
	if lo.X() > hi.X() {
		lo, hi = m.world.Bounds()
	}
	lo[1] -= math.Max(hi.X()-lo.X(), hi.Z()-lo.Z())
	m.camera.Frame(lo, hi)
}

// wireframe returns the particle positions of world.
func wireframe(world *xpbd.Simulation) []mgl64.Vec3 {
	points := make([]mgl64.Vec3, len(world.Particles))
	for i, p := range world.Particles {
		points[i] = p.Position
	}
	return points
}

func (m *Model) draw() {
	m.canvas.Clear()
	Render(m.canvas, m.camera, wireframe(m.world), m.edges)

	if held := m.grabber.Grabbed(); held != nil {
		w, h := m.canvas.Pixels()
		ax, ay, _, _, aOn := m.camera.Project(m.grabber.Anchor(), w, h)
		px, py, _, _, pOn := m.camera.Project(held.Position, w, h)
		if aOn && pOn {
			m.canvas.Line(ax, ay, px, py)
		}
	}
	m.canvas.Cross(m.cursor[0], m.cursor[1], 1)
}

func (m Model) status() string {
	switch {
	case m.err != nil:
		return m.style.failed.Render("FAILED")
	case !m.running:
		return m.style.paused.Render("PAUSED")
	case m.recording:
		return m.style.failed.Render("● REC")
	}
	return m.style.running.Render("RUNNING")
}

func (m Model) View() string {
	st := m.style
	var s strings.Builder

	s.WriteString(st.header.Render(strings.ToUpper(m.cfg.Scene)) + "\n")
	s.WriteString(m.status() + "\n\n")

	if len(m.kinetic) > 1 {
		chart := asciigraph.Plot(m.kinetic, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Kinetic energy"))
		s.WriteString(st.graph.Render(chart) + "\n")
	}

	s.WriteString(st.row("Time", fmt.Sprintf("%.2fs", m.t)))
	s.WriteString(st.row("Particles", fmt.Sprintf("%d", len(m.world.Particles))))
	s.WriteString(st.row("Constraints", fmt.Sprintf("%d", len(m.world.Constraints))))
	s.WriteString(st.row("Colliders", fmt.Sprintf("%d", len(m.world.Colliders))))
	s.WriteString(st.row("Substeps", fmt.Sprintf("%d x %d", m.cfg.Simulation.Substeps, m.cfg.Simulation.Iterations)))
	s.WriteString(st.row("Projected", fmt.Sprintf("%d (%d skipped)", m.stats.Projections, m.stats.Skipped)))
	s.WriteString(st.row("Contacts", fmt.Sprintf("%d (%d active)", m.stats.Contacts, m.stats.ActiveContacts)))
	s.WriteString(st.row("", Sparkline(m.contacts, 30)))

	kinetic, potential := m.world.Energy()
	s.WriteString(st.row("Energy", fmt.Sprintf("%.2f + %.2f", kinetic, potential)))
	if held := m.grabber.Grabbed(); held != nil {
		p := held.Position
		s.WriteString(st.row("Grabbed", fmt.Sprintf("(%.1f, %.1f, %.1f)", p.X(), p.Y(), p.Z())))
	}
	if m.err != nil {
		s.WriteString("\n" + st.failed.Render(m.err.Error()) + "\n")
	}

	s.WriteString(st.help.Render("SP:Pause N:Step R:Reset Q:Quit\n←→↑↓:Orbit +-:Zoom F:Fit\nWASD:Cursor G:Grab T:Theme\nV:Record ?:Help"))

	main := lipgloss.JoinHorizontal(lipgloss.Top, st.canvas.Render(m.canvas.String()), st.stats.Render(s.String()))
	if m.showHelp {
		return helpText + "\n" + main
	}
	return main
}

const helpText = `
╔════════════════════════════════════════╗
║  Space      pause / resume             ║
║  N          single step while paused   ║
║  R          rebuild the scene          ║
║  Arrows     orbit the camera           ║
║  + / -      zoom                       ║
║  F          fit the scene in view      ║
║  W A S D    move the cursor            ║
║  G / mouse  grab or release a particle ║
║  T          cycle themes               ║
║  V          toggle GIF recording       ║
║  Q          quit                       ║
╚════════════════════════════════════════╝`

func (m *Model) saveGIF() {
	if len(m.frames) == 0 {
		return
	}
	anim := gif.GIF{LoopCount: 0}
	for _, frame := range m.frames {
		anim.Image = append(anim.Image, frame)
		anim.Delay = append(anim.Delay, 2)
	}
	f, err := os.Create(GIFPath)
	if err != nil {
		m.err = err
		return
	}
	defer f.Close()
	if err := gif.EncodeAll(f, &anim); err != nil {
		m.err = err
	}
}

// Run opens the live view for cfg on the alternate screen.
func Run(cfg *config.Config, build experiment.Builder) error {
	m, err := NewModel(cfg, build)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion()).Run()
	return err
}
