package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/finsolve/internal/config"
	"github.com/san-kum/finsolve/internal/dispatch"
	"github.com/san-kum/finsolve/internal/display"
	"github.com/san-kum/finsolve/internal/finance"
)

var (
	cyan    = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white   = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim     = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	dimmer  = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	magenta = lipgloss.NewStyle().Foreground(lipgloss.Color("213"))
)

type state int

const (
	stateMenu state = iota
	stateInput
)

type solvedMsg struct {
	res dispatch.Result
	err error
}

type model struct {
	engine *finance.Engine
	cfg    *config.Config
	format *display.Formatter

	state    state
	cursor   int
	families []string
	selected string

	vars      []string
	values    map[string]float64
	varCursor int
	editing   bool
	editBuf   string
	preset    int
	solving   bool
	result    string

	width  int
	height int
}

func NewInteractiveApp(engine *finance.Engine, cfg *config.Config, format *display.Formatter) *model {
	return &model{
		engine:   engine,
		cfg:      cfg,
		format:   format,
		state:    stateMenu,
		families: engine.Registry().ListFamilies(),
		values:   make(map[string]float64),
		width:    80,
		height:   24,
	}
}

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case solvedMsg:
		m.solving = false
		if msg.err != nil {
			m.result = display.Error.Render(msg.err.Error())
			return m, nil
		}
		m.result = m.format.Result(msg.res)
		if msg.res.Calculated() {
			m.values[msg.res.Var] = msg.res.Value
		}
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch m.state {
	case stateMenu:
		return m.menuKey(msg)
	case stateInput:
		return m.inputKey(msg)
	}
	return m, nil
}

func (m model) menuKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.families)-1 {
			m.cursor++
		}
	case "enter", " ":
		m.selected = m.families[m.cursor]
		vars, _ := m.engine.Registry().Vars(m.selected)
		m.vars = vars
		m.values = make(map[string]float64)
		m.varCursor = 0
		m.preset = 0
		m.result = ""
		m.state = stateInput
	}
	return m, nil
}

func (m model) inputKey(msg tea.KeyMsg) (model, tea.Cmd) {
	if m.editing {
		switch msg.String() {
		case "enter":
			if v, err := strconv.ParseFloat(m.editBuf, 64); err == nil {
				m.values[m.vars[m.varCursor]] = v
			}
			m.editing = false
			m.editBuf = ""
		case "esc":
			m.editing = false
			m.editBuf = ""
		case "backspace":
			if len(m.editBuf) > 0 {
				m.editBuf = m.editBuf[:len(m.editBuf)-1]
			}
		default:
			if len(msg.String()) == 1 {
				c := msg.String()[0]
				if (c >= '0' && c <= '9') || c == '.' || c == '-' || c == 'e' {
					m.editBuf += string(c)
				}
			}
		}
		return m, nil
	}

	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "q", "esc":
		m.state = stateMenu
	case "up", "k":
		if m.varCursor > 0 {
			m.varCursor--
		}
	case "down", "j":
		if m.varCursor < len(m.vars)-1 {
			m.varCursor++
		}
	case "enter", " ":
		m.editing = true
		m.editBuf = ""
		if v, ok := m.values[m.vars[m.varCursor]]; ok {
			m.editBuf = strconv.FormatFloat(v, 'f', -1, 64)
		}
	case "x", "delete", "backspace":
		delete(m.values, m.vars[m.varCursor])
	case "p":
		m.applyNextPreset()
	case "s":
		if m.solving {
			return m, nil
		}
		m.solving = true
		m.result = ""
		return m, m.solve()
	}
	return m, nil
}

func (m *model) applyNextPreset() {
	names := m.cfg.ListPresets(m.selected)
	if len(names) == 0 {
		return
	}
	name := names[m.preset%len(names)]
	m.preset++

	m.values = make(map[string]float64)
	for k, v := range m.cfg.GetPreset(m.selected, name) {
		m.values[k] = v
	}
	m.result = dim.Render("preset " + name)
}

func (m model) solve() tea.Cmd {
	family := m.selected
	known := make(map[string]float64, len(m.values))
	for k, v := range m.values {
		known[k] = v
	}
	engine := m.engine
	return func() tea.Msg {
		res, err := engine.Solve(context.Background(), family, known)
		return solvedMsg{res: res, err: err}
	}
}

func (m model) View() string {
	switch m.state {
	case stateMenu:
		return m.viewMenu()
	case stateInput:
		return m.viewInput()
	}
	return ""
}

func (m model) viewMenu() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(dimmer.Render("    ╺━━━━━━━━━━━━━━━━━━━━━━━━╸") + "\n")
	b.WriteString("           " + cyan.Render("f i n s o l v e") + "\n")
	b.WriteString(dimmer.Render("    ╺━━━━━━━━━━━━━━━━━━━━━━━━╸") + "\n")
	b.WriteString("\n")

	reg := m.engine.Registry()
	for i, name := range m.families {
		desc := reg.Describe(name)
		if i == m.cursor {
			b.WriteString("      " + cyan.Render("▸ ") + white.Render(fmt.Sprintf("%-14s", name)) + dim.Render(desc) + "\n")
		} else {
			b.WriteString("        " + dim.Render(fmt.Sprintf("%-14s", name)) + dimmer.Render(desc) + "\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(dim.Render("      ↑↓ select   enter open   q quit") + "\n")

	return b.String()
}

func (m model) viewInput() string {
	var b strings.Builder
	reg := m.engine.Registry()

	b.WriteString("\n")
	b.WriteString("      " + cyan.Render(m.selected) + "  " + dim.Render(reg.Describe(m.selected)) + "\n")
	b.WriteString(dimmer.Render("      "+strings.Repeat("─", 40)) + "\n\n")

	for i, name := range m.vars {
		val := dimmer.Render(fmt.Sprintf("%16s", "?"))
		if v, ok := m.values[name]; ok {
			val = fmt.Sprintf("%16s", m.format.Number(v))
		}
		if m.editing && i == m.varCursor {
			val = fmt.Sprintf("%16s", m.editBuf+"▋")
		}
		label := fmt.Sprintf("%-8s", reg.Label(m.selected, name))
		if i == m.varCursor {
			b.WriteString("      " + cyan.Render("▸ ") + white.Render(label) + magenta.Render(val) + "\n")
		} else {
			b.WriteString("        " + dim.Render(label) + dim.Render(val) + "\n")
		}
	}

	b.WriteString("\n")
	switch {
	case m.solving:
		b.WriteString("      " + dim.Render("solving...") + "\n")
	case m.result != "":
		b.WriteString("      " + m.result + "\n")
	}

	b.WriteString("\n")
	b.WriteString(dim.Render("      ↑↓ select  enter edit  x clear  p preset  s solve  esc back") + "\n")

	return b.String()
}

func RunInteractive(engine *finance.Engine, cfg *config.Config, format *display.Formatter) error {
	p := tea.NewProgram(NewInteractiveApp(engine, cfg, format), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
