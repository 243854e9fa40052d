// Package browse provides the Bubble Tea report browser.
package browse

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"
	"github.com/sirupsen/logrus"

	"github.com/verte-zerg/fuelstat/internal/model"
	"github.com/verte-zerg/fuelstat/internal/render"
	"github.com/verte-zerg/fuelstat/internal/report"
)

const (
	inputPeriod = iota
	inputProducts
	inputRegion
)

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
)

// Model implements the Bubble Tea report browser.
type Model struct {
	session *report.Session
	catalog report.Catalog
	log     logrus.FieldLogger
	color   bool

	views     []report.View
	activeTab int
	viewports []viewport.Model
	stale     []bool
	errMsg    string

	width  int
	height int

	filterMode   bool
	filterInputs []textinput.Model
	filterIndex  int
	filterError  string
}

// NewModel constructs a browser over session.
func NewModel(session *report.Session, log logrus.FieldLogger) *Model {
	if log == nil {
		log = logrus.New()
	}
	m := &Model{
		session: session,
		catalog: session.Catalog(),
		log:     log,
		color:   render.ShouldUseColor(os.Stdout, false),
		views:   report.Views(),
	}
	m.viewports = make([]viewport.Model, len(m.views))
	m.stale = make([]bool, len(m.views))
	for i := range m.viewports {
		m.viewports[i] = viewport.New(0, 0)
		m.stale[i] = true
	}
	m.initInputs()
	return m
}

// Run starts the browser in the alternate screen.
func Run(session *report.Session, log logrus.FieldLogger) error {
	program := tea.NewProgram(NewModel(session, log), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run browser: %w", err)
	}
	return nil
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		m.markStale()
		m.refreshActive()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.filterMode {
			return m.updateFilter(msg)
		}
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "left", "h", "shift+tab":
			m.moveTab(-1)
			return m, nil
		case "right", "l", "tab":
			m.moveTab(1)
			return m, nil
		case "1", "2", "3", "4", "5", "6":
			m.selectTab(int(msg.String()[0] - '1'))
			return m, nil
		case "/":
			return m.startFilter()
		case "r":
			m.setFilter(model.DefaultFilter())
			return m, nil
		case "g", "home":
			m.viewports[m.activeTab].GotoTop()
			return m, nil
		case "G", "end":
			m.viewports[m.activeTab].GotoBottom()
			return m, nil
		default:
			vp := m.viewports[m.activeTab]
			var cmd tea.Cmd
			vp, cmd = vp.Update(msg)
			m.viewports[m.activeTab] = vp
			return m, cmd
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(bodyHeight), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

func (m *Model) initInputs() {
	m.filterInputs = []textinput.Model{
		newFilterInput("Period (YYYYS1/YYYYS2 or all): "),
		newFilterInput("Products (comma separated): "),
		newFilterInput("Region (or all): "),
	}
	m.filterInputs[inputPeriod].Placeholder = strings.Join(m.catalog.Periods, " ")
	m.filterInputs[inputProducts].Placeholder = strings.Join(m.catalog.Products, ", ")
	m.filterInputs[inputRegion].Placeholder = strings.Join(m.catalog.Regions, ", ")
	m.setInputsFromFilter()
}

func newFilterInput(prompt string) textinput.Model {
	input := textinput.New()
	input.Prompt = prompt
	input.CharLimit = 0
	input.Cursor.SetMode(cursor.CursorBlink)
	return input
}

func (m *Model) setInputsFromFilter() {
	spec := m.session.Filter()
	m.filterInputs[inputPeriod].SetValue(spec.Period)
	m.filterInputs[inputProducts].SetValue(strings.Join(spec.Products, ", "))
	m.filterInputs[inputRegion].SetValue(spec.Region)
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := lipgloss.Height(activeNavStyle.Render("X"))
	if tabsHeight < 1 {
		tabsHeight = 1
	}
	headerHeight = tabsHeight + 1
	footerHeight = 1
	if !m.filterMode && m.errMsg != "" {
		footerHeight++
	}
	bodyHeight = m.height - headerHeight - footerHeight
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, vpHeight, _ := m.layoutHeights()
	for i := range m.viewports {
		m.viewports[i].Width = m.width
		m.viewports[i].Height = vpHeight
	}
	for i := range m.filterInputs {
		promptWidth := lipgloss.Width(m.filterInputs[i].Prompt)
		m.filterInputs[i].Width = maxInt(10, m.width-promptWidth-2)
	}
}

func (m *Model) moveTab(delta int) {
	count := len(m.views)
	if count == 0 {
		return
	}
	next := m.activeTab + delta
	if next < 0 {
		next = count - 1
	}
	if next >= count {
		next = 0
	}
	m.selectTab(next)
}

func (m *Model) selectTab(idx int) {
	if idx < 0 || idx >= len(m.views) {
		return
	}
	m.activeTab = idx
	m.refreshActive()
}

func (m *Model) markStale() {
	for i := range m.stale {
		m.stale[i] = true
	}
}

// refreshActive renders the active view if it is stale. Results come from the session cache.
func (m *Model) refreshActive() {
	if !m.stale[m.activeTab] {
		return
	}
	v := m.views[m.activeTab]
	content, err := render.String(m.session.Build(v), render.Options{Color: m.color})
	if err != nil {
		m.errMsg = err.Error()
		m.updateLayout()
		content = "Failed to render view."
	}
	m.viewports[m.activeTab].SetContent(content)
	m.viewports[m.activeTab].GotoTop()
	m.stale[m.activeTab] = false
	st := m.session.Cache().Stats()
	m.log.WithFields(logrus.Fields{"view": v, "hits": st.Hits, "misses": st.Misses}).Debug("rendered view")
}

func (m *Model) setFilter(spec model.FilterSpec) {
	if m.session.SetFilter(spec) {
		m.markStale()
	}
	m.errMsg = ""
	m.updateLayout()
	m.refreshActive()
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.views))
	for i, v := range m.views {
		label := fmt.Sprintf("%d %s", i+1, v.Title())
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(label))
		} else {
			parts = append(parts, inactiveNavStyle.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderHeader() string {
	tabs := padLines(m.renderTabs(), m.width)
	filters := padLines(m.renderFilterSummary(), m.width)
	return tabs + "\n" + filters
}

func (m *Model) renderFilterSummary() string {
	spec := m.session.Filter()
	products := "any"
	if len(spec.Products) > 0 {
		products = strings.Join(spec.Products, ",")
	}
	summary := fmt.Sprintf("Filter: period=%s  products=%s  region=%s  |  %s of %s records",
		spec.Period, products, spec.Region,
		humanize.Comma(int64(m.session.Filtered().Len())),
		humanize.Comma(int64(len(m.session.Records()))))
	return headerStyle.Render(truncateLine(summary, m.width))
}

func (m *Model) renderHelp() string {
	return headerStyle.Render("Nav: left/right or 1-6  Scroll: up/down/pgup/pgdn  Filter: /  Reset: r  Quit: q")
}

func (m *Model) renderFooter() string {
	if m.filterMode {
		return headerStyle.Render("tab/shift+tab: next field  enter: apply  esc: cancel")
	}
	if m.errMsg != "" {
		return m.renderHelp() + "\n" + errorStyle.Render(m.errMsg)
	}
	return m.renderHelp()
}

func (m *Model) renderFilterForm() string {
	lines := []string{"Filter (enter to apply, esc to cancel)"}
	for _, input := range m.filterInputs {
		lines = append(lines, input.View())
	}
	if m.filterError != "" {
		lines = append(lines, errorStyle.Render(m.filterError))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderBody(height int) string {
	if m.filterMode {
		return fitLines(m.renderFilterForm(), m.width, height)
	}
	return fitLines(m.viewports[m.activeTab].View(), m.width, height)
}

func (m *Model) startFilter() (tea.Model, tea.Cmd) {
	m.filterMode = true
	m.filterError = ""
	m.setInputsFromFilter()
	return m, m.setFilterIndex(0)
}

func (m *Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.filterMode = false
		m.filterError = ""
		return m, nil
	case tea.KeyEnter:
		spec, err := m.catalog.Resolve(m.filterFromInputs())
		if err != nil {
			m.filterError = err.Error()
			return m, nil
		}
		m.filterMode = false
		m.filterError = ""
		m.setFilter(spec)
		return m, nil
	case tea.KeyTab, tea.KeyDown:
		return m, m.setFilterIndex(m.filterIndex + 1)
	case tea.KeyShiftTab, tea.KeyUp:
		return m, m.setFilterIndex(m.filterIndex - 1)
	}
	var cmd tea.Cmd
	m.filterInputs[m.filterIndex], cmd = m.filterInputs[m.filterIndex].Update(msg)
	return m, cmd
}

func (m *Model) filterFromInputs() model.FilterSpec {
	spec := model.FilterSpec{
		Period: strings.TrimSpace(m.filterInputs[inputPeriod].Value()),
		Region: strings.TrimSpace(m.filterInputs[inputRegion].Value()),
	}
	for _, p := range strings.Split(m.filterInputs[inputProducts].Value(), ",") {
		if p = strings.TrimSpace(p); p != "" {
			spec.Products = append(spec.Products, p)
		}
	}
	return spec
}

func (m *Model) setFilterIndex(idx int) tea.Cmd {
	count := len(m.filterInputs)
	if count == 0 {
		return nil
	}
	if idx < 0 {
		idx = count - 1
	}
	if idx >= count {
		idx = 0
	}
	m.filterIndex = idx
	var cmd tea.Cmd
	for i := range m.filterInputs {
		if i == m.filterIndex {
			cmd = m.filterInputs[i].Focus()
		} else {
			m.filterInputs[i].Blur()
		}
	}
	return cmd
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func padLines(s string, width int) string {
	if width <= 0 || s == "" {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	return strings.Join(lines, "\n")
}

func padLine(line string, width int) string {
	lineWidth := lipgloss.Width(line)
	if lineWidth < width {
		return line + strings.Repeat(" ", width-lineWidth)
	}
	return line
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

func truncateLine(s string, width int) string {
	if width <= 0 || runewidth.StringWidth(s) <= width {
		return s
	}
	if width <= 3 {
		return runewidth.Truncate(s, width, "")
	}
	return runewidth.Truncate(s, width, "...")
}
