// Package tui is the read-only terminal browser over stored call
// records.
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/callsight/callsight/internal/store"
	"github.com/callsight/callsight/internal/types"
)

// Key bindings handled in Update.
const (
	keyQuit   = "q"
	keyCtrlC  = "ctrl+c"
	keyUp     = "up"
	keyDown   = "down"
	keyJ      = "j"
	keyK      = "k"
	keyEnter  = "enter"
	keyEscape = "esc"
	keyReload = "r"
)

// Model is the root bubbletea model for the browse view.
type Model struct {
	db       store.Store
	records  []*store.Record
	selected int
	detail   bool
	width    int
	height   int
	errMsg   string
}

type recordsLoadedMsg struct {
	records []*store.Record
	err     error
}

// New creates the model; records load on Init.
func New(db store.Store) Model {
	return Model{db: db}
}

func (m Model) Init() tea.Cmd {
	return m.loadCmd()
}

func (m Model) loadCmd() tea.Cmd {
	return func() tea.Msg {
		records, err := m.db.List(200)
		return recordsLoadedMsg{records: records, err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case recordsLoadedMsg:
		if msg.err != nil {
			m.errMsg = msg.err.Error()
		} else {
			m.records = msg.records
			m.errMsg = ""
			if m.selected >= len(m.records) {
				m.selected = 0
			}
		}

	case tea.KeyMsg:
		switch msg.String() {
		case keyQuit, keyCtrlC:
			return m, tea.Quit
		case keyUp, keyK:
			if m.selected > 0 {
				m.selected--
			}
		case keyDown, keyJ:
			if m.selected < len(m.records)-1 {
				m.selected++
			}
		case keyEnter:
			if len(m.records) > 0 {
				m.detail = true
			}
		case keyEscape:
			m.detail = false
		case keyReload:
			return m, m.loadCmd()
		}
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("callsight: stored calls"))
	b.WriteString("\n\n")

	if m.errMsg != "" {
		b.WriteString(errorStyle.Render("error: " + m.errMsg))
		b.WriteString("\n")
		return b.String()
	}
	if len(m.records) == 0 {
		b.WriteString(dimStyle.Render("no stored calls"))
		b.WriteString("\n")
		return b.String()
	}

	if m.detail {
		m.renderDetail(&b)
	} else {
		m.renderList(&b)
	}

	b.WriteString("\n")
	b.WriteString(footerKeyStyle.Render("j/k"))
	b.WriteString(footerDescStyle.Render(" move  "))
	b.WriteString(footerKeyStyle.Render("enter"))
	b.WriteString(footerDescStyle.Render(" detail  "))
	b.WriteString(footerKeyStyle.Render("esc"))
	b.WriteString(footerDescStyle.Render(" back  "))
	b.WriteString(footerKeyStyle.Render("r"))
	b.WriteString(footerDescStyle.Render(" reload  "))
	b.WriteString(footerKeyStyle.Render("q"))
	b.WriteString(footerDescStyle.Render(" quit"))
	return b.String()
}

func (m Model) renderList(b *strings.Builder) {
	visible := m.height - 6
	if visible < 1 {
		visible = len(m.records)
	}
	start := 0
	if m.selected >= visible {
		start = m.selected - visible + 1
	}
	for i := start; i < len(m.records) && i < start+visible; i++ {
		rec := m.records[i]
		line := fmt.Sprintf("%-30s %8.0fs  %s", rec.CallID, rec.Duration,
			sentimentStyle(rec.Sentiment).Render(rec.Sentiment))
		if rec.Flagged {
			line += "  " + flaggedStyle.Render("flagged")
		}
		if i == m.selected {
			b.WriteString(selectedStyle.Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}
}

func (m Model) renderDetail(b *strings.Builder) {
	rec := m.records[m.selected]
	b.WriteString(selectedStyle.Render(rec.CallID))
	b.WriteString("\n")
	if rec.Title != "" {
		b.WriteString(dimStyle.Render(rec.Title))
		b.WriteString("\n")
	}
	fmt.Fprintf(b, "language: %s  duration: %.0fs  sentiment: %s (%.2f)\n",
		rec.Language, rec.Duration,
		sentimentStyle(rec.Sentiment).Render(rec.Sentiment), rec.Score)
	if rec.AgentID != "" || rec.Queue != "" {
		fmt.Fprintf(b, "agent: %s  queue: %s  city: %s\n", rec.AgentID, rec.Queue, rec.City)
	}
	fmt.Fprintf(b, "redactions: %d\n\n", rec.RedactedCount)

	text := rec.Transcript
	limit := (m.height - 12) * maxInt(m.width-2, 40)
	if limit > 0 && len(text) > limit {
		text = text[:limit] + "…"
	}
	b.WriteString(text)
	b.WriteString("\n")
}

func sentimentStyle(label string) interface{ Render(...string) string } {
	switch label {
	case types.SentimentPositive:
		return positiveStyle
	case types.SentimentNegative:
		return negativeStyle
	default:
		return neutralStyle
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
