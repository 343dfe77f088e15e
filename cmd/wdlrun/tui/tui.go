// Package tui renders a live Bubble Tea dashboard of the job graph's unit
// statuses as they stream in from the job engine.
package tui

import (
	"sort"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wdlrun/wdlrun/engine/jobengine"
)

// UnitStatus is one lifecycle transition of a scheduled unit, as streamed
// by a jobengine.StatusSource.
type UnitStatus = jobengine.StatusEvent

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#2E86AB")).MarginBottom(1)
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666")).Italic(true)

	statusStyles = map[string]lipgloss.Style{
		jobengine.StatusSubmitted: lipgloss.NewStyle().Foreground(lipgloss.Color("#F18F01")),
		jobengine.StatusCompleted: lipgloss.NewStyle().Foreground(lipgloss.Color("#46A758")).Bold(true),
		jobengine.StatusFailed:    lipgloss.NewStyle().Foreground(lipgloss.Color("#C73E1D")).Bold(true),
	}
)

type row struct {
	unitID  string
	nodeID  string
	status  string
	at      time.Time
	errText string
}

type model struct {
	statuses <-chan UnitStatus
	rows     map[string]*row
	order    []string
	table    table.Model
	closed   bool
}

func newModel(statuses <-chan UnitStatus) *model {
	columns := []table.Column{
		{Title: "Unit", Width: 22},
		{Title: "Node", Width: 22},
		{Title: "Status", Width: 12},
		{Title: "At", Width: 10},
	}
	t := table.New(table.WithColumns(columns), table.WithFocused(false), table.WithHeight(18))
	style := table.DefaultStyles()
	style.Header = style.Header.BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#3A3A3A")).BorderBottom(true).Bold(true)
	style.Selected = style.Selected.Foreground(lipgloss.Color("#FAFAFA")).Background(lipgloss.Color("#2A2A2A"))
	t.SetStyles(style)
	return &model{statuses: statuses, rows: map[string]*row{}, table: t}
}

type statusMsg UnitStatus
type closedMsg struct{}

func waitForStatus(ch <-chan UnitStatus) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return closedMsg{}
		}
		return statusMsg(ev)
	}
}

func (m *model) Init() tea.Cmd {
	return waitForStatus(m.statuses)
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case statusMsg:
		m.apply(UnitStatus(msg))
		return m, waitForStatus(m.statuses)
	case closedMsg:
		m.closed = true
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m *model) apply(ev UnitStatus) {
	r, ok := m.rows[ev.UnitID]
	if !ok {
		r = &row{unitID: ev.UnitID}
		m.rows[ev.UnitID] = r
		m.order = append(m.order, ev.UnitID)
	}
	r.nodeID = ev.NodeID
	r.status = ev.Status
	r.at = ev.At
	if ev.Err != nil {
		r.errText = ev.Err.Error()
	}
	m.refreshTable()
}

func (m *model) refreshTable() {
	ordered := append([]string(nil), m.order...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return m.rows[ordered[i]].at.Before(m.rows[ordered[j]].at)
	})
	rows := make([]table.Row, 0, len(ordered))
	for _, id := range ordered {
		r := m.rows[id]
		rows = append(rows, table.Row{r.unitID, r.nodeID, styledStatus(r.status), r.at.Format("15:04:05")})
	}
	m.table.SetRows(rows)
}

func styledStatus(status string) string {
	if style, ok := statusStyles[status]; ok {
		return style.Render(status)
	}
	return status
}

func (m *model) View() string {
	var footer string
	if m.closed {
		footer = "run finished — press q to exit"
	} else {
		footer = "press q to quit the dashboard (the run keeps going in the background)"
	}
	return titleStyle.Render("wdlrun — job graph status") + "\n" +
		m.table.View() + "\n" +
		helpStyle.Render(footer)
}

// Run drives the dashboard to completion, rendering every UnitStatus read
// from statuses until the channel closes or the user quits. Errors from
// the underlying terminal program are returned to the caller, which logs
// them rather than failing: the dashboard is a best-effort side channel
// and a TUI failure must never abort the run it is merely observing.
func Run(statuses <-chan UnitStatus) error {
	p := tea.NewProgram(newModel(statuses))
	_, err := p.Run()
	return err
}
