package views

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"tui/client"
	"tui/styles"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type dashboardDataMsg struct {
	stats  []client.TypeStat
	agents []client.Agent
	ingest *client.IngestStatus
	err    error
}

type logTailMsg struct {
	lines   []string
	modTime time.Time
}

type Dashboard struct {
	api           *client.Client
	width, height int
	stats         []client.TypeStat
	agents        []client.Agent
	ingest        *client.IngestStatus
	err           error
	logLines      []string
	logPath       string
	logScroll     int // 0 = newest
	logViewport   int
	logBuffer     int
	logModTime    time.Time
}

func NewDashboard(api *client.Client, logPath string) Dashboard {
	return Dashboard{
		api:         api,
		logPath:     logPath,
		logViewport: 15,
		logBuffer:   200,
	}
}

func (d Dashboard) Init() tea.Cmd {
	return tea.Batch(d.Refresh(), d.TailLog())
}

func (d Dashboard) Refresh() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		stats, err := d.api.Stats(ctx)
		if err != nil {
			return dashboardDataMsg{err: err}
		}
		agents, err := d.api.Agents(ctx)
		if err != nil {
			return dashboardDataMsg{err: err}
		}
		// ingest routes are optional
		ingest, _ := d.api.IngestStatus(ctx)
		return dashboardDataMsg{stats: stats, agents: agents, ingest: ingest}
	}
}

func (d Dashboard) TailLog() tea.Cmd {
	if d.logPath == "" {
		return nil
	}
	return func() tea.Msg {
		lines, modTime := readLastLines(d.logPath, d.logBuffer)
		return logTailMsg{lines, modTime}
	}
}

func readLastLines(path string, n int) ([]string, time.Time) {
	f, err := os.Open(path)
	if err != nil {
		return []string{"(no log file)"}, time.Time{}
	}
	defer f.Close()

	var modTime time.Time
	if info, err := f.Stat(); err == nil {
		modTime = info.ModTime()
	}

	var all []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		all = append(all, scanner.Text())
	}
	if len(all) == 0 {
		return []string{"(empty log)"}, modTime
	}
	if start := len(all) - n; start > 0 {
		all = all[start:]
	}
	return all, modTime
}

func (d Dashboard) SetSize(w, h int) Dashboard {
	d.width = w
	d.height = h
	return d
}

func (d Dashboard) Update(msg tea.Msg) (Dashboard, tea.Cmd) {
	switch msg := msg.(type) {
	case dashboardDataMsg:
		d.err = msg.err
		if msg.err == nil {
			d.stats = msg.stats
			d.agents = msg.agents
			d.ingest = msg.ingest
		}
	case logTailMsg:
		d.logLines = msg.lines
		d.logModTime = msg.modTime
	case tea.KeyMsg:
		maxScroll := len(d.logLines) - d.logViewport
		if maxScroll < 0 {
			maxScroll = 0
		}
		switch msg.String() {
		case "up", "k":
			d.logScroll = min(d.logScroll+1, maxScroll)
		case "down", "j":
			d.logScroll = max(d.logScroll-1, 0)
		case "home":
			d.logScroll = maxScroll
		case "end":
			d.logScroll = 0
		}
	}
	return d, nil
}

func (d Dashboard) View() string {
	parts := []string{styles.Heading.Render("Dashboard")}
	if d.err != nil {
		parts = append(parts, styles.Bad.Render("API unreachable: "+d.err.Error()))
	}
	parts = append(parts,
		d.renderStatCards(),
		"",
		d.renderTypeCards(),
		"",
		styles.Heading.Render("Top Agents"),
		d.renderAgentsTable(),
	)
	if d.logPath != "" {
		parts = append(parts, "", d.renderLogTail())
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (d Dashboard) renderStatCards() string {
	total := 0
	for _, s := range d.stats {
		total += s.Count
	}
	sources, ingest := "—", "—"
	if d.ingest != nil {
		sources = fmt.Sprintf("%d", len(d.ingest.Sources))
		ingest = "running"
		if d.ingest.Paused {
			ingest = "paused"
		}
	}
	cards := []string{
		renderStatCard("Properties", fmt.Sprintf("%d", total)),
		renderStatCard("Agents", fmt.Sprintf("%d", len(d.agents))),
		renderStatCard("Sources", sources),
		renderStatCard("Ingest", ingest),
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}

func renderStatCard(label, value string) string {
	content := lipgloss.JoinVertical(lipgloss.Center,
		styles.Value.Render(value),
		styles.Dim.Render(label),
	)
	return styles.Panel(false).Width(16).Render(content)
}

func (d Dashboard) renderTypeCards() string {
	if len(d.stats) == 0 {
		return styles.Dim.Render("No properties yet")
	}
	var cards []string
	for _, s := range d.stats {
		content := lipgloss.JoinVertical(lipgloss.Left,
			styles.Value.Render(s.NameEnglish),
			styles.Dim.Render(s.NameArabic),
			styles.Dim.Render(fmt.Sprintf("Available: %d", s.Count)),
		)
		cards = append(cards, styles.Panel(true).Width(18).Render(content))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}

func (d Dashboard) renderAgentsTable() string {
	if len(d.agents) == 0 {
		return styles.Dim.Render("No agents yet")
	}

	agents := append([]client.Agent(nil), d.agents...)
	sort.SliceStable(agents, func(i, j int) bool {
		return agents[i].PropertiesCount > agents[j].PropertiesCount
	})
	if len(agents) > 10 {
		agents = agents[:10]
	}

	header := fmt.Sprintf("%-24s %-12s %-4s %6s %10s", "Name", "Phone", "Op", "Props", "Avg EGP")
	rows := styles.Heading.Render(header) + "\n"
	for _, a := range agents {
		avg := "—"
		if a.AvgPrice != nil {
			avg = formatEGP(*a.AvgPrice)
		}
		rows += fmt.Sprintf("%-24s %-12s %-4s %6d %10s\n",
			truncate(a.Name, 24), a.Phone, deref(a.PhoneOperator), a.PropertiesCount, avg)
	}
	return rows
}

func (d Dashboard) renderLogTail() string {
	total := len(d.logLines)
	end := total - d.logScroll
	start := max(end-d.logViewport, 0)

	var lines []string
	for _, line := range d.logLines[start:end] {
		lines = append(lines, styleLogLine(truncate(line, d.width-8)))
	}

	indicator := styles.Good.Render(" ● LIVE ")
	if d.logScroll > 0 {
		indicator = styles.Warn.Render(fmt.Sprintf(" ↑%d ", d.logScroll))
	}
	header := styles.Heading.Render("Log") + indicator +
		styles.Dim.Render(fmt.Sprintf("[%d-%d/%d]", start+1, end, total))

	return styles.LogPanel.Width(max(d.width-4, 20)).Render(header + "\n" + strings.Join(lines, "\n"))
}

func styleLogLine(line string) string {
	switch {
	case strings.Contains(line, "ERR"):
		return styles.Bad.Render(line)
	case strings.Contains(line, "WRN"), strings.Contains(line, "WARN"):
		return styles.Warn.Render(line)
	}
	return line
}
