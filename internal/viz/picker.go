package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/mdsim/internal/config"
)

var presetInfo = map[string]string{
	"gas":    "dilute vapour, Langevin bath",
	"liquid": "triple point liquid, Berendsen",
	"nve":    "microcanonical, no thermostat",
	"quench": "hot start cooled by Berendsen",
	"solid":  "compressed cold FCC crystal",
}

// Picker lists the presets and opens a live Model for the chosen one.
type Picker struct {
	presets       []string
	cursor        int
	override      func(*config.Config)
	stepsPerFrame int
	live          *Model
	err           error
	styles        Styles
}

// NewPicker applies override, if any, to every preset before it runs.
func NewPicker(override func(*config.Config), stepsPerFrame int) Picker {
	return Picker{
		presets:       config.ListPresets(),
		override:      override,
		stepsPerFrame: stepsPerFrame,
		styles:        NewStyles(ThemeDefault),
	}
}

func (p Picker) Init() tea.Cmd { return nil }

func (p Picker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if p.live != nil {
		if key, ok := msg.(tea.KeyMsg); ok && key.String() == "esc" {
			p.live = nil
			return p, nil
		}
		next, cmd := p.live.Update(msg)
		live := next.(Model)
		p.live = &live
		return p, cmd
	}

	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return p, nil
	}
	switch key.String() {
	case "q", "ctrl+c", "esc":
		return p, tea.Quit
	case "up", "k":
		if p.cursor > 0 {
			p.cursor--
		}
	case "down", "j":
		if p.cursor < len(p.presets)-1 {
			p.cursor++
		}
	case "enter":
		return p.start()
	}
	return p, nil
}

func (p Picker) start() (tea.Model, tea.Cmd) {
	if len(p.presets) == 0 {
		return p, nil
	}
	name := p.presets[p.cursor]
	cfg := config.GetPreset(name)
	if cfg == nil {
		p.err = fmt.Errorf("unknown preset: %s", name)
		return p, nil
	}
	if p.override != nil {
		p.override(cfg)
	}
	live, err := NewModel(cfg, name, p.stepsPerFrame)
	if err != nil {
		p.err = err
		return p, nil
	}
	p.err = nil
	p.live = &live
	return p, live.Init()
}

// Selected returns the preset under the cursor.
func (p Picker) Selected() string {
	if len(p.presets) == 0 {
		return ""
	}
	return p.presets[p.cursor]
}

func (p Picker) Live() *Model { return p.live }

func (p Picker) View() string {
	if p.live != nil {
		return p.live.View()
	}

	var s strings.Builder
	s.WriteString(p.styles.Header.Render("MDSIM PRESETS") + "\n")
	for i, name := range p.presets {
		line := fmt.Sprintf("%-8s %s", name, presetInfo[name])
		if i == p.cursor {
			s.WriteString(p.styles.Active.Render("> "+line) + "\n")
		} else {
			s.WriteString("  " + p.styles.Value.Render(line) + "\n")
		}
	}
	if p.err != nil {
		s.WriteString("\n" + p.styles.Failed.Render(p.err.Error()) + "\n")
	}
	s.WriteString(p.styles.Help.Render("↑↓:Select Enter:Run Esc:Back Q:Quit"))
	return s.String()
}
