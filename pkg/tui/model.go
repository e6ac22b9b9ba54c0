// Package tui implements the terminal user interface
package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/oisee/slicegrid/pkg/grid"
)

// Status is the read-only view of the sequencer the header shows
type Status interface {
	Cursor() int
	Page() int
	Patterns() int
	Editing() bool
}

// Queue reports how many commands are waiting for the audio thread
type Queue interface {
	Len() int
	Pending() int
}

// Model is the main TUI model. It draws the virtual grid and turns keys into
// grid presses.
type Model struct {
	Grid   *grid.Virtual
	Status Status
	Queue  Queue
	BPM    int
	Sample string

	// View state
	Width    int
	Height   int
	ShowHelp bool

	// Grid cursor
	CursorX int
	CursorY int
	Held    map[int]bool // keys pressed and not yet released, by grid index

	// Last frame read from the grid
	Levels grid.Frame

	// Status message
	StatusMsg string
}

// NewModel creates a new TUI model over g
func NewModel(g *grid.Virtual, status Status, queue Queue, bpm int) Model {
	return Model{
		Grid:    g,
		Status:  status,
		Queue:   queue,
		BPM:     bpm,
		Width:   80,
		Height:  24,
		CursorY: grid.StepRowTop,
		Held:    make(map[int]bool),
	}
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		tickCmd(),
	)
}

// tickMsg refreshes the grid from the sequencer
type tickMsg struct{}

const frameInterval = time.Second / 30

func tickCmd() tea.Cmd {
	return tea.Tick(frameInterval, func(_ time.Time) tea.Msg {
		return tickMsg{}
	})
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		return m, nil

	case tickMsg:
		m.Levels = m.Grid.Levels()
		return m, tickCmd()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		m.releaseAll()
		return m, tea.Quit

	case "f1", "?":
		m.ShowHelp = !m.ShowHelp

	// Navigation
	case "up", "k":
		m.move(0, -1)
	case "down", "j":
		m.move(0, 1)
	case "left", "h":
		m.move(-1, 0)
	case "right", "l":
		m.move(1, 0)

	// Grid keys
	case " ":
		if m.held(m.CursorX, m.CursorY) {
			m.press(m.CursorX, m.CursorY, false)
		} else {
			m.press(m.CursorX, m.CursorY, true)
		}

	case "enter":
		if m.held(m.CursorX, m.CursorY) {
			m.press(m.CursorX, m.CursorY, false)
		} else if m.press(m.CursorX, m.CursorY, true) {
			m.press(m.CursorX, m.CursorY, false)
		}
	}

	return m, nil
}

// move shifts the cursor. Held keys stay down so a step can be edited
// while its column is held.
func (m *Model) move(dx, dy int) {
	x, y := m.CursorX+dx, m.CursorY+dy
	if grid.InBounds(x, y) {
		m.CursorX, m.CursorY = x, y
	}
}

func (m *Model) held(x, y int) bool {
	return m.Held[grid.Index(x, y)]
}

func (m *Model) press(x, y int, down bool) bool {
	if !m.Grid.Press(x, y, down) {
		m.StatusMsg = "grid busy, key dropped"
		return false
	}
	if down {
		m.Held[grid.Index(x, y)] = true
	} else {
		delete(m.Held, grid.Index(x, y))
	}
	m.StatusMsg = ""
	return true
}

func (m *Model) releaseAll() {
	for i := range m.Held {
		m.press(i%grid.Width, i/grid.Width, false)
	}
}

// View implements tea.Model
func (m Model) View() string {
	if m.ShowHelp {
		return m.helpView()
	}

	var b strings.Builder

	b.WriteString(m.headerView())
	b.WriteString("\n\n")
	b.WriteString(m.gridView())
	b.WriteString("\n")
	b.WriteString(m.footerView())

	return b.String()
}

func (m Model) headerView() string {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("14")).
		Render("SLICEGRID")

	info := fmt.Sprintf(" │ BPM:%d", m.BPM)
	if m.Status != nil {
		screen := "SEQ"
		if m.Status.Editing() {
			screen = lipgloss.NewStyle().
				Foreground(lipgloss.Color("11")).
				Render("EDIT")
		}
		info += fmt.Sprintf(" │ Step:%03d Page:%d/%d │ %s",
			m.Status.Cursor(), m.Status.Page()+1, m.Status.Patterns(), screen)
	}
	if m.Queue != nil {
		info += fmt.Sprintf(" │ Q:%d+%d", m.Queue.Len(), m.Queue.Pending())
	}
	if m.Sample != "" {
		info += " │ " + m.Sample
	}

	return title + info
}

var levelColors = map[uint8]string{
	grid.LevelEmpty:  "236",
	grid.LevelOff:    "8",
	grid.LevelAccent: "12",
	grid.LevelOn:     "15",
}

func cellStyle(level uint8) lipgloss.Style {
	c, ok := levelColors[level]
	if !ok {
		c = "7"
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(c))
}

func (m Model) gridView() string {
	var lines []string

	for y := 0; y < grid.Height; y++ {
		var row strings.Builder
		rowStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
		if y == grid.StepRowTop {
			rowStyle = rowStyle.Foreground(lipgloss.Color("14"))
		}
		row.WriteString(rowStyle.Render(fmt.Sprintf("%d ", y)))

		for x := 0; x < grid.Width; x++ {
			style := cellStyle(m.Levels[grid.Index(x, y)])
			switch {
			case x == m.CursorX && y == m.CursorY:
				style = style.Background(lipgloss.Color("6"))
			case m.held(x, y):
				style = style.Background(lipgloss.Color("4"))
			}
			glyph := "■ "
			if m.Levels[grid.Index(x, y)] == grid.LevelEmpty {
				glyph = "· "
			}
			row.WriteString(style.Render(glyph))
		}
		lines = append(lines, row.String())
	}

	return strings.Join(lines, "\n")
}

func (m Model) footerView() string {
	if m.StatusMsg != "" {
		return lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Render(" " + m.StatusMsg)
	}
	keys := " [hjkl]Move [Space]Hold/Release [Enter]Tap [?]Help [Q]Quit"
	return lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(keys)
}

func (m Model) helpView() string {
	help := `
╔══════════════════════════════════════════════════════════════╗
║                       SLICEGRID HELP                         ║
╠══════════════════════════════════════════════════════════════╣
║ KEYS                                                         ║
║   ↑↓←→ / hjkl  Move the grid cursor                          ║
║   Space        Hold a key, again to release it               ║
║   Enter        Tap (press and release)                       ║
║                                                              ║
║ SEQUENCER PAGE                                               ║
║   Row 0        Select page (adds patterns as needed)         ║
║   Row 1, x=15  Stop playback                                 ║
║   Rows 4-7     Hold a column to edit that step               ║
║                                                              ║
║ STEP EDITOR (while the step is held)                         ║
║   Row 0        Slice                                         ║
║   Row 1        Backward (0-1)  Forward (3-4)  Clear (14-15)  ║
║   Row 2        Pitch, 0.25x to 3x                            ║
║   Space on the held step again saves it                      ║
║                                                              ║
║                              [?] Close help                  ║
╚══════════════════════════════════════════════════════════════╝
`
	return lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Render(help)
}
