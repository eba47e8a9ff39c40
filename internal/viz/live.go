package viz

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	kitlog "github.com/go-kit/kit/log"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/mdsim/internal/config"
	"github.com/san-kum/mdsim/internal/dynamo"
	"github.com/san-kum/mdsim/internal/experiment"
	"github.com/san-kum/mdsim/internal/sim"
)

const (
	canvasWidth     = 40
	canvasHeight    = 20
	historyCapacity = 240
	targetFactor    = 1.05
	minTarget       = 0.01
)

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second/30, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Model runs an experiment step by step and renders it in the terminal.
type Model struct {
	cfg           *config.Config
	title         string
	exp           *experiment.Experiment
	simCfg        sim.Config
	step          int
	stepsPerFrame int
	running       bool
	done          bool
	err           error
	notice        string
	last          dynamo.StepRecord
	e0            float64
	temps         []float64
	energies      []float64
	canvas        *Canvas
	camera        *Camera
	theme         Theme
	styles        Styles
}

// NewModel builds the experiment described by cfg. stepsPerFrame steps are
// integrated per tick.
func NewModel(cfg *config.Config, title string, stepsPerFrame int) (Model, error) {
	if stepsPerFrame < 1 {
		stepsPerFrame = 1
	}
	m := Model{
		cfg:           cfg,
		title:         title,
		stepsPerFrame: stepsPerFrame,
		canvas:        NewCanvas(canvasWidth, canvasHeight),
		camera:        NewCamera(),
		theme:         ThemeDefault,
		styles:        NewStyles(ThemeDefault),
	}
	if err := m.reset(); err != nil {
		return Model{}, err
	}
	return m, nil
}

func (m Model) Init() tea.Cmd {
	return tick()
}

// Update handles key presses and advances the run on every tick.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			if !m.done && m.err == nil {
				m.running = !m.running
			}
		case "r":
			if err := m.reset(); err != nil {
				m.err = err
			}
		case "up", "k":
			m.adjustTarget(targetFactor)
		case "down", "j":
			m.adjustTarget(1 / targetFactor)
		case "t":
			m.theme = NextTheme(m.theme)
			m.styles = NewStyles(m.theme)
		case "x":
			m.camera.RotateX(0.1)
		case "X":
			m.camera.RotateX(-0.1)
		case "y":
			m.camera.RotateY(0.1)
		case "Y":
			m.camera.RotateY(-0.1)
		case "+", "=":
			m.camera.ZoomIn()
		case "-", "_":
			m.camera.ZoomOut()
		}
	case TickMsg:
		if m.running {
			m.advance()
		}
		return m, tick()
	}
	return m, nil
}

func (m *Model) reset() error {
	exp := experiment.New(m.cfg)
	if err := exp.Setup(kitlog.NewNopLogger()); err != nil {
		return err
	}
	m.exp = exp
	m.simCfg = exp.SimConfig()
	m.step = 0
	m.running = true
	m.done = false
	m.err = nil
	m.notice = ""
	m.last = dynamo.StepRecord{Temperature: exp.System().Temperature()}
	m.e0 = 0
	m.temps = m.temps[:0]
	m.energies = m.energies[:0]
	return nil
}

// advance integrates up to stepsPerFrame steps. A fault stops the run and
// keeps the state it was raised on for display.
func (m *Model) advance() {
	if m.done || m.err != nil {
		return
	}
	sys := m.exp.System()
	s := m.exp.GetSimulator()

	stepped := false
	for i := 0; i < m.stepsPerFrame && m.step < m.simCfg.Steps; i++ {
		rec, err := s.Step(sys, m.simCfg, m.step)
		if err != nil {
			m.err = err
			m.running = false
			return
		}
		if m.step == 0 {
			m.e0 = rec.Total()
		}
		m.last = rec
		m.step++
		stepped = true
	}
	if stepped {
		m.temps = appendCapped(m.temps, m.last.Temperature)
		m.energies = appendCapped(m.energies, m.last.Total())
	}
	if m.step >= m.simCfg.Steps {
		m.done = true
		m.running = false
	}
}

func appendCapped(xs []float64, x float64) []float64 {
	xs = append(xs, x)
	if len(xs) > historyCapacity {
		xs = xs[1:]
	}
	return xs
}

func (m *Model) configurable() (dynamo.Configurable, bool) {
	c, ok := m.exp.GetSimulator().Thermostat().(dynamo.Configurable)
	return c, ok
}

// Target returns the thermostat's target temperature, if it has one.
func (m Model) Target() (float64, bool) {
	c, ok := m.configurable()
	if !ok {
		return 0, false
	}
	t, ok := c.GetParams()["target"]
	return t, ok
}

func (m *Model) adjustTarget(factor float64) {
	c, ok := m.configurable()
	if !ok {
		m.notice = "thermostat has no target temperature"
		return
	}
	t := c.GetParams()["target"] * factor
	if t < minTarget {
		t = minTarget
	}
	if err := c.SetParam("target", t); err != nil {
		m.notice = err.Error()
		return
	}
	m.notice = ""
}

func (m Model) Step() int               { return m.step }
func (m Model) Running() bool           { return m.running }
func (m Model) Done() bool              { return m.done }
func (m Model) Err() error              { return m.err }
func (m Model) Last() dynamo.StepRecord { return m.last }
func (m Model) Temperatures() []float64 { return m.temps }
func (m Model) Theme() Theme            { return m.theme }

func (m Model) Experiment() *experiment.Experiment { return m.exp }

func (m Model) status() string {
	switch {
	case m.err != nil:
		return m.styles.Failed.Render("FAULT")
	case m.done:
		return m.styles.Active.Render("DONE")
	case m.running:
		return m.styles.Running.Render("RUNNING")
	default:
		return m.styles.Paused.Render("PAUSED")
	}
}

func (m Model) row(label, value string) string {
	return m.styles.Label.Render(label) + m.styles.Value.Render(value) + "\n"
}

// View renders the projected box next to the run statistics and charts.
func (m Model) View() string {
	sys := m.exp.System()
	DrawSystem(m.canvas, m.camera, sys)
	canvasView := m.styles.Canvas.Render(m.canvas.String())

	var s strings.Builder
	s.WriteString(m.styles.Header.Render(strings.ToUpper(m.title)) + "\n")
	s.WriteString(m.status() + "\n\n")

	progress := float64(m.step) / float64(m.simCfg.Steps)
	s.WriteString(m.row("Step", fmt.Sprintf("%d/%d", m.step, m.simCfg.Steps)))
	s.WriteString(m.styles.Label.Render("") + m.styles.Graph.Render(ProgressBar(progress, 24)) + "\n")
	s.WriteString(m.row("Time", fmt.Sprintf("%.3f", float64(m.step)*m.simCfg.Dt)))
	s.WriteString(m.row("Particles", fmt.Sprintf("%d (L=%.3f)", sys.N(), sys.Box)))
	s.WriteString(m.row("Thermostat", m.exp.GetSimulator().Thermostat().Name()))
	if target, ok := m.Target(); ok {
		s.WriteString(m.styles.Label.Render("Target") + m.styles.Active.Render(fmt.Sprintf("%.4f", target)) + "\n")
	}
	s.WriteString(m.row("T", fmt.Sprintf("%.4f", m.last.Temperature)))
	s.WriteString(m.row("KE", fmt.Sprintf("%.4f", m.last.Kinetic)))
	s.WriteString(m.row("PE", fmt.Sprintf("%.4f", m.last.Potential)))
	s.WriteString(m.row("E", fmt.Sprintf("%.4f", m.last.Total())))
	if m.step > 0 && m.e0 != 0 {
		drift := math.Abs(m.last.Total()-m.e0) / math.Abs(m.e0)
		s.WriteString(m.row("Drift", fmt.Sprintf("%.2e", drift)))
	}

	if len(m.temps) > 1 {
		chart := asciigraph.Plot(m.temps, asciigraph.Height(5), asciigraph.Width(36), asciigraph.Caption("Temperature"))
		s.WriteString("\n" + m.styles.Graph.Render(chart) + "\n")
	}
	if len(m.energies) > 1 {
		chart := asciigraph.Plot(m.energies, asciigraph.Height(5), asciigraph.Width(36), asciigraph.Caption("Total energy"))
		s.WriteString("\n" + m.styles.Graph.Render(chart) + "\n")
	}

	if m.err != nil {
		s.WriteString("\n" + m.styles.Failed.Render(m.err.Error()) + "\n")
	} else if m.notice != "" {
		s.WriteString("\n" + m.styles.Paused.Render(m.notice) + "\n")
	}

	s.WriteString(m.styles.Help.Render("SP:Pause R:Reset Q:Quit T:Theme\n↑↓:Target  x/y:Rotate  +/-:Zoom"))
	statsView := m.styles.Stats.Render(s.String())
	return lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsView)
}
