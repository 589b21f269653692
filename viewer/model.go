// Package viewer renders a running simulation in the terminal.
package viewer

import (
	"fmt"
	"strings"
	"time"

	"github.com/brensch/evoblock/cell"
	"github.com/brensch/evoblock/engine"
	"github.com/brensch/evoblock/grid"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Source is the part of the engine the viewer needs.
type Source interface {
	View(fn func(g *grid.Grid[cell.Cell]))
	TogglePause()
	IsPaused() bool
}

const frameInterval = 100 * time.Millisecond

var headerStyle = lipgloss.NewStyle().Bold(true)

type frameMsg time.Time

type statsMsg engine.Stats

type Model struct {
	src     Source
	updates <-chan engine.Stats

	stats     engine.Stats
	startTime time.Time
	cols      int
	rows      int
	frame     string
}

// New returns a viewer drawing src and reading per-tick stats from updates.
// The sender should drop stats rather than block when the channel is full.
func New(src Source, updates <-chan engine.Stats) Model {
	return Model{
		src:       src,
		updates:   updates,
		startTime: time.Now(),
		cols:      80,
		rows:      24,
	}
}

func frameCmd() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

func waitForStats(updates <-chan engine.Stats) tea.Cmd {
	return func() tea.Msg {
		st, ok := <-updates
		if !ok {
			return tea.Quit()
		}
		return statsMsg(st)
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(waitForStats(m.updates), frameCmd())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "p", " ":
			m.src.TogglePause()
		}
	case tea.WindowSizeMsg:
		m.cols = msg.Width
		m.rows = msg.Height
	case statsMsg:
		m.stats = engine.Stats(msg)
		return m, waitForStats(m.updates)
	case frameMsg:
		m.src.View(func(g *grid.Grid[cell.Cell]) {
			// Header, blank line and footer take three lines.
			m.frame = renderHalfBlocks(g, m.cols, max(m.rows-3, 1))
		})
		return m, frameCmd()
	}
	return m, nil
}

func (m Model) View() string {
	var sb strings.Builder
	sb.WriteString(headerStyle.Render(m.header()))
	sb.WriteString("\n\n")
	sb.WriteString(m.frame)
	sb.WriteString("q quit · p pause")
	return sb.String()
}

func (m Model) header() string {
	elapsed := time.Since(m.startTime)
	tps := 0.0
	if elapsed >= time.Second {
		tps = float64(m.stats.Tick) / elapsed.Seconds()
	}
	state := "running"
	if m.src.IsPaused() {
		state = "paused"
	}
	c := m.stats.Census
	return fmt.Sprintf("tick %d (%.1f/s, %s) · organisms %d · birth %d · death %d · incubated %d · obliterated %d",
		m.stats.Tick, tps, state, c.Organisms, c.BirthBlocks, c.DeathBlocks,
		m.stats.Events.Incubated, m.stats.Events.Obliterated)
}
