package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"tui/client"
	"tui/styles"
	"tui/views"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"
)

type tab int

const (
	tabDashboard tab = iota
	tabMessages
)

type model struct {
	api           *client.Client
	activeTab     tab
	width, height int
	notification  string
	notifyUntil   time.Time

	dashboard views.Dashboard
	messages  views.Messages
}

type tickMsg time.Time
type logTickMsg time.Time
type notifyMsg string

func initialModel(api *client.Client, logPath string) model {
	return model{
		api:       api,
		activeTab: tabDashboard,
		dashboard: views.NewDashboard(api, logPath),
		messages:  views.NewMessages(api),
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		m.dashboard.Init(),
		m.messages.Init(),
		tickCmd(),
		logTickCmd(),
	)
}

func tickCmd() tea.Cmd {
	return tea.Tick(30*time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func logTickCmd() tea.Cmd {
	return tea.Tick(2*time.Second, func(t time.Time) tea.Msg {
		return logTickMsg(t)
	})
}

func (m model) notify(text string) model {
	m.notification = text
	m.notifyUntil = time.Now().Add(2 * time.Second)
	return m
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.activeTab == tabMessages && m.messages.Editing() {
			var cmd tea.Cmd
			m.messages, cmd = m.messages.Update(msg)
			return m, cmd
		}
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "d":
			m.activeTab = tabDashboard
			return m, nil
		case "m":
			m.activeTab = tabMessages
			return m, nil
		case "tab":
			m.activeTab = (m.activeTab + 1) % 2
			return m, nil
		case "r":
			return m.notify("Refreshed"), m.refreshActive()
		case "i":
			return m, m.runIngest()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.dashboard = m.dashboard.SetSize(msg.Width, msg.Height-4)
		m.messages = m.messages.SetSize(msg.Width, msg.Height-4)
		return m, nil

	case tickMsg:
		return m, tea.Batch(m.refreshActive(), tickCmd())

	case logTickMsg:
		return m, tea.Batch(m.dashboard.TailLog(), logTickCmd())

	case notifyMsg:
		return m.notify(string(msg)), m.refreshActive()
	}

	// keys go to the active tab, data messages to every view
	if _, ok := msg.(tea.KeyMsg); ok {
		var cmd tea.Cmd
		switch m.activeTab {
		case tabDashboard:
			m.dashboard, cmd = m.dashboard.Update(msg)
		case tabMessages:
			m.messages, cmd = m.messages.Update(msg)
		}
		return m, cmd
	}

	var cmd tea.Cmd
	m.dashboard, cmd = m.dashboard.Update(msg)
	cmds = append(cmds, cmd)
	m.messages, cmd = m.messages.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m model) runIngest() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := m.api.RunIngest(ctx); err != nil {
			return notifyMsg("Ingest: " + err.Error())
		}
		return notifyMsg("Ingest run started")
	}
}

func (m model) refreshActive() tea.Cmd {
	switch m.activeTab {
	case tabDashboard:
		return m.dashboard.Refresh()
	case tabMessages:
		return m.messages.Refresh()
	}
	return nil
}

func (m model) View() string {
	return lipgloss.JoinVertical(lipgloss.Left, m.renderTabs(), m.renderContent(), m.renderStatusBar())
}

func (m model) renderTabs() string {
	var rendered []string
	for i, name := range []string{"Dashboard", "Messages"} {
		rendered = append(rendered, styles.Tab(name, tab(i) == m.activeTab))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...) + "\n"
}

func (m model) renderContent() string {
	if m.activeTab == tabMessages {
		return m.messages.View()
	}
	return m.dashboard.View()
}

func (m model) renderStatusBar() string {
	left := "d Dash  m Messages  r Refresh  i Ingest  q Quit"
	right := ""
	if time.Now().Before(m.notifyUntil) {
		right = styles.Good.Padding(0, 1).Render(m.notification)
	}

	gap := max(m.width-lipgloss.Width(left)-lipgloss.Width(right)-2, 0)
	return styles.Dim.Padding(0, 1).Render(left) + lipgloss.NewStyle().Width(gap).Render("") + right
}

func main() {
	_ = godotenv.Load()

	apiURL := os.Getenv("API_URL")
	if apiURL == "" {
		apiURL = "http://localhost:8080"
	}
	// LOG_FILE of the daemon, tailed on the dashboard when set
	logPath := os.Getenv("LOG_FILE")

	p := tea.NewProgram(
		initialModel(client.New(apiURL), logPath),
		tea.WithAltScreen(),
	)
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
