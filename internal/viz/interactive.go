package viz

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/xpbdsim/internal/config"
	"github.com/san-kum/xpbdsim/internal/experiment"
)

var sceneInfo = map[string]string{
	"rope":  "pinned chain of links",
	"cloth": "triangulated sheet with bending",
	"mesh":  "soft body from an OBJ mesh",
	"drop":  "loose particles onto the ground",
}

// tunables are the parameters offered before launch, keyed for config.Set.
var tunables = []string{
	"dt",
	"simulation.substeps",
	"simulation.iterations",
	"simulation.damping",
	"simulation.friction",
	"simulation.restitution",
	"simulation.gravity",
}

const (
	stateMenu = iota
	stateConfig
	stateSim
)

type entry struct {
	scene, preset string
}

func (e entry) String() string {
	if e.preset == "" {
		return e.scene
	}
	return e.scene + "/" + e.preset
}

// menu picks a scene or preset, lets the solver settings be edited and then
// hands over to the live view.
type menu struct {
	registry    *experiment.Registry
	state       int
	entries     []entry
	cursor      int
	cfg         *config.Config
	values      []float64
	paramCursor int
	editing     bool
	editBuf     string
	err         error
	live        Model
}

func newMenu(registry *experiment.Registry) menu {
	var entries []entry
	for _, scene := range registry.ListScenes() {
		entries = append(entries, entry{scene: scene})
		for _, preset := range config.ListPresets(scene) {
			entries = append(entries, entry{scene, preset})
		}
	}
	return menu{registry: registry, entries: entries}
}

func (m menu) Init() tea.Cmd { return nil }

func (m menu) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.state == stateSim {
		next, cmd := m.live.Update(msg)
		m.live = next.(Model)
		return m, cmd
	}
	if key, ok := msg.(tea.KeyMsg); ok {
		switch m.state {
		case stateMenu:
			return m.menuKey(key)
		case stateConfig:
			return m.configKey(key)
		}
	}
	return m, nil
}

func (m menu) menuKey(msg tea.KeyMsg) (menu, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.entries)-1 {
			m.cursor++
		}
	case "enter", " ":
		m.cfg = configFor(m.entries[m.cursor])
		m.values = currentValues(m.cfg)
		m.state, m.paramCursor, m.err = stateConfig, 0, nil
	}
	return m, nil
}

func configFor(e entry) *config.Config {
	if e.preset != "" {
		if cfg := config.GetPreset(e.scene, e.preset); cfg != nil {
			return cfg
		}
	}
	cfg := config.DefaultConfig()
	cfg.Scene = e.scene
	return cfg
}

func currentValues(cfg *config.Config) []float64 {
	s := cfg.Simulation
	return []float64{
		cfg.Dt,
		float64(s.Substeps),
		float64(s.Iterations),
		s.Damping,
		s.Friction,
		s.Restitution,
		s.Gravity,
	}
}

func (m menu) configKey(msg tea.KeyMsg) (menu, tea.Cmd) {
	if m.editing {
		switch msg.String() {
		case "enter":
			if v, err := strconv.ParseFloat(m.editBuf, 64); err == nil {
				m.values[m.paramCursor] = v
			}
			m.editing, m.editBuf = false, ""
		case "esc":
			m.editing, m.editBuf = false, ""
		case "backspace":
			if len(m.editBuf) > 0 {
				m.editBuf = m.editBuf[:len(m.editBuf)-1]
			}
		default:
			if s := msg.String(); len(s) == 1 && strings.ContainsAny(s, "0123456789.-e") {
				m.editBuf += s
			}
		}
		return m, nil
	}

	switch msg.String() {
	case "q", "esc":
		m.state = stateMenu
	case "up", "k":
		if m.paramCursor > 0 {
			m.paramCursor--
		}
	case "down", "j":
		if m.paramCursor < len(tunables)-1 {
			m.paramCursor++
		}
	case "enter":
		m.editing, m.editBuf = true, strconv.FormatFloat(m.values[m.paramCursor], 'g', -1, 64)
	case "s":
		return m.start()
	}
	return m, nil
}

func (m menu) start() (menu, tea.Cmd) {
	cfg := m.cfg.Clone()
	for i, key := range tunables {
		if err := cfg.Set(key, m.values[i]); err != nil {
			m.err = err
			return m, nil
		}
	}
	live, err := NewModel(cfg, m.registry.Build)
	if err != nil {
		m.err = err
		return m, nil
	}
	m.live, m.state = live, stateSim
	return m, live.Init()
}

var (
	menuTitle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#00cccc")).Bold(true)
	menuSub      = lipgloss.NewStyle().Foreground(lipgloss.Color("#666688"))
	menuPointer  = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ffff")).Bold(true)
	menuSelected = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffffff")).Bold(true)
	menuDesc     = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff88ff"))
	menuIdle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#555566"))
	menuHint     = lipgloss.NewStyle().Foreground(lipgloss.Color("#00aaaa")).Bold(true)
	menuError    = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff4444"))
)

func (m menu) View() string {
	switch m.state {
	case stateConfig:
		return m.viewConfig()
	case stateSim:
		return m.live.View()
	}
	return m.viewMenu()
}

func hints(pairs ...string) string {
	var b strings.Builder
	for i := 0; i+1 < len(pairs); i += 2 {
		b.WriteString(menuHint.Render(pairs[i]) + menuIdle.Render(" "+pairs[i+1]+"  "))
	}
	return b.String()
}

func (m menu) viewMenu() string {
	var b strings.Builder
	b.WriteString("\n\n    " + menuTitle.Render("XPBDSIM") + "\n    " + menuSub.Render("position based dynamics") + "\n    " + menuSub.Render("─────────────────────────") + "\n\n")
	for i, e := range m.entries {
		desc := ""
		if e.preset == "" {
			desc = sceneInfo[e.scene]
		}
		name := fmt.Sprintf("%-16s", e)
		if i == m.cursor {
			b.WriteString(fmt.Sprintf("    %s %s  %s\n", menuPointer.Render("▸"), menuSelected.Render(name), menuDesc.Render(desc)))
		} else {
			b.WriteString(fmt.Sprintf("      %s  %s\n", menuIdle.Render(name), menuIdle.Render(desc)))
		}
	}
	b.WriteString("\n    " + hints("j/k", "navigate", "enter", "select", "q", "quit") + "\n")
	return b.String()
}

func (m menu) viewConfig() string {
	var b strings.Builder
	title := m.entries[m.cursor].String()
	b.WriteString("\n\n    " + menuTitle.Render(strings.ToUpper(title)) + "\n    " + menuSub.Render(sceneInfo[m.cfg.Scene]) + "\n    " + menuSub.Render("─────────────────────────") + "\n\n")
	for i, name := range tunables {
		val := fmt.Sprintf("%10.4g", m.values[i])
		if m.editing && i == m.paramCursor {
			val = fmt.Sprintf("%10s", m.editBuf+"_")
		}
		if i == m.paramCursor {
			b.WriteString(fmt.Sprintf("    %s %s %s\n", menuPointer.Render("▸"), menuSelected.Render(fmt.Sprintf("%-24s", name)), menuDesc.Render(val)))
		} else {
			b.WriteString(fmt.Sprintf("      %s %s\n", menuIdle.Render(fmt.Sprintf("%-24s", name)), menuIdle.Render(val)))
		}
	}
	if m.err != nil {
		b.WriteString("\n    " + menuError.Render(m.err.Error()) + "\n")
	}
	b.WriteString("\n    " + hints("j/k", "select", "enter", "edit", "s", "start", "esc", "back") + "\n")
	return b.String()
}

// RunInteractive opens the scene picker.
func RunInteractive(registry *experiment.Registry) error {
	_, err := tea.NewProgram(newMenu(registry), tea.WithAltScreen(), tea.WithMouseCellMotion()).Run()
	return err
}
