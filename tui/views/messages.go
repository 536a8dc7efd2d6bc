package views

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tui/client"
	"tui/styles"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// typeFilters cycles with "t"; empty means all types.
var typeFilters = []string{"", "apartment", "villa", "land", "office", "warehouse", "shop", "building"}

type messagesMsg struct {
	messages []client.Message
	err      error
}

type Messages struct {
	api           *client.Client
	width, height int
	messages      []client.Message
	err           error
	selectedRow   int
	filterIdx     int
	search        string
	editing       bool
}

func NewMessages(api *client.Client) Messages {
	return Messages{api: api}
}

func (m Messages) Init() tea.Cmd {
	return m.Refresh()
}

func (m Messages) Refresh() tea.Cmd {
	search, typeCode := m.search, typeFilters[m.filterIdx]
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		msgs, err := m.api.Messages(ctx, search, typeCode, 500)
		return messagesMsg{msgs, err}
	}
}

// Editing reports whether the search box has focus, so global keys pass
// through as text.
func (m Messages) Editing() bool {
	return m.editing
}

func (m Messages) SetSize(w, h int) Messages {
	m.width = w
	m.height = h
	return m
}

func (m Messages) Update(msg tea.Msg) (Messages, tea.Cmd) {
	switch msg := msg.(type) {
	case messagesMsg:
		m.err = msg.err
		if msg.err == nil {
			m.messages = msg.messages
			if m.selectedRow >= len(m.messages) {
				m.selectedRow = 0
			}
		}

	case tea.KeyMsg:
		if m.editing {
			return m.updateSearch(msg)
		}
		switch msg.String() {
		case "up", "k":
			m.selectedRow = max(m.selectedRow-1, 0)
		case "down", "j":
			if m.selectedRow < len(m.messages)-1 {
				m.selectedRow++
			}
		case "pgup", "ctrl+u":
			m.selectedRow = max(m.selectedRow-10, 0)
		case "pgdown", "ctrl+d":
			m.selectedRow = max(min(m.selectedRow+10, len(m.messages)-1), 0)
		case "home", "g":
			m.selectedRow = 0
		case "end", "G":
			m.selectedRow = max(len(m.messages)-1, 0)
		case "t":
			m.filterIdx = (m.filterIdx + 1) % len(typeFilters)
			m.selectedRow = 0
			return m, m.Refresh()
		case "/":
			m.editing = true
		}
	}
	return m, nil
}

func (m Messages) updateSearch(msg tea.KeyMsg) (Messages, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.editing = false
		m.selectedRow = 0
		return m, m.Refresh()
	case tea.KeyEsc:
		m.editing = false
	case tea.KeyBackspace:
		if r := []rune(m.search); len(r) > 0 {
			m.search = string(r[:len(r)-1])
		}
	case tea.KeySpace:
		m.search += " "
	case tea.KeyRunes:
		m.search += string(msg.Runes)
	}
	return m, nil
}

func (m Messages) visibleRows() int {
	if m.height <= 0 {
		return 20
	}
	return max(m.height*55/100, 8)
}

func (m Messages) View() string {
	filter := typeFilters[m.filterIdx]
	if filter == "" {
		filter = "all"
	}
	search := m.search
	if m.editing {
		search += "▏"
	}

	header := styles.Heading.Render("Messages") +
		styles.Value.Render(fmt.Sprintf("  %d", len(m.messages))) + "  " +
		styles.Dim.Render(fmt.Sprintf("[t] Type: %s  [/] Search: %s", filter, search))

	parts := []string{header}
	if m.err != nil {
		parts = append(parts, styles.Bad.Render("API unreachable: "+m.err.Error()))
	}
	parts = append(parts, m.renderTable(), "", m.renderDetail())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Messages) renderTable() string {
	header := fmt.Sprintf("%-16s %-18s %-10s %-14s %-16s %s", "Date", "Sender", "Type", "Location", "Price", "Message")
	rows := styles.Heading.Render(header) + "\n"

	visible := m.visibleRows()
	offset := 0
	if m.selectedRow >= visible {
		offset = m.selectedRow - visible + 1
	}
	end := min(offset+visible, len(m.messages))

	textWidth := max(m.width-82, 20)
	for i := offset; i < end; i++ {
		msg := m.messages[i]
		row := fmt.Sprintf("%-16s %-18s %-10s %-14s %-16s %s",
			formatDate(msg.Timestamp),
			truncate(msg.Sender, 18),
			truncate(deref(msg.PropertyType), 10),
			truncate(deref(msg.Location), 14),
			truncate(deref(msg.Price), 16),
			truncate(oneLine(msg.Message), textWidth),
		)
		if i == m.selectedRow {
			rows += styles.Selected.Render(row) + "\n"
		} else {
			rows += row + "\n"
		}
	}
	if len(m.messages) > visible {
		rows += styles.Dim.Render(fmt.Sprintf("  [%d-%d of %d]", offset+1, end, len(m.messages)))
	}
	return rows
}

func (m Messages) renderDetail() string {
	if len(m.messages) == 0 {
		return styles.Dim.Render("No messages")
	}
	msg := m.messages[m.selectedRow]

	lines := []string{
		styles.Dim.Render("Sender: ") + msg.Sender,
		styles.Dim.Render("Phone: ") + deref(msg.AgentPhone),
		styles.Dim.Render("Keywords: ") + msg.Keywords,
	}
	if msg.PropertyID != nil {
		lines = append(lines, styles.Good.Render(fmt.Sprintf("Property #%d", *msg.PropertyID)))
	}
	lines = append(lines, "")
	lines = append(lines, wrapText(msg.FullDescription, max(m.width-8, 40))...)

	return styles.Panel(false).Width(max(m.width-4, 40)).Render(strings.Join(lines, "\n"))
}

func formatDate(ts string) string {
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return truncate(ts, 16)
	}
	return t.Format("2006-01-02 15:04")
}
