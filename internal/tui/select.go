// Package tui provides interactive terminal UI components.
package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	defaultListWidth  = 48
	defaultListHeight = 14
)

var runProgram = func(m tea.Model) (tea.Model, error) {
	return tea.NewProgram(m).Run()
}

// PickAction represents the user's action in the location picker.
type PickAction int

const (
	// ActionNone indicates no action was taken.
	ActionNone PickAction = iota
	// ActionAssign indicates the user picked or typed a location.
	ActionAssign
	// ActionSkip indicates the user skipped this set code.
	ActionSkip
	// ActionStop indicates the user stopped the fill run entirely.
	ActionStop
)

// PickResult holds the outcome of one picker round.
type PickResult struct {
	Action   PickAction
	Location string
}

type labelItem string

func (i labelItem) Title() string       { return string(i) }
func (i labelItem) Description() string { return "" }
func (i labelItem) FilterValue() string { return string(i) }

type labelDelegate struct {
	normal   lipgloss.Style
	selected lipgloss.Style
}

func newLabelDelegate() labelDelegate {
	return labelDelegate{
		normal: lipgloss.NewStyle().
			Padding(0, 2).
			Foreground(lipgloss.Color("252")),
		selected: lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("237")).
			Bold(true),
	}
}

func (d labelDelegate) Height() int                         { return 1 }
func (d labelDelegate) Spacing() int                        { return 0 }
func (d labelDelegate) Update(tea.Msg, *list.Model) tea.Cmd { return nil }

func (d labelDelegate) Render(w io.Writer, m list.Model, idx int, item list.Item) {
	label, ok := item.(labelItem)
	if !ok {
		return
	}
	if idx == m.Index() {
		_, _ = fmt.Fprint(w, d.selected.Render("> "+string(label)))
		return
	}
	_, _ = fmt.Fprint(w, d.normal.Render(string(label)))
}

type pickerModel struct {
	list    list.Model
	input   textinput.Model
	typing  bool
	setCode string
	result  PickResult
}

func newPickerModel(setCode string, labels []string) *pickerModel {
	items := make([]list.Item, len(labels))
	for i, label := range labels {
		items[i] = labelItem(label)
	}

	l := list.New(items, newLabelDelegate(), defaultListWidth, defaultListHeight)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	l.SetShowTitle(false)
	l.SetShowPagination(false)
	l.DisableQuitKeybindings()
	l.Styles.NoItems = lipgloss.NewStyle()

	input := textinput.New()
	input.Placeholder = "e.g. Drawer 12"
	input.CharLimit = 64
	input.Width = defaultListWidth - 4

	m := &pickerModel{
		list:    l,
		input:   input,
		setCode: setCode,
		result:  PickResult{Action: ActionNone},
	}
	if len(labels) == 0 {
		// Nothing to pick from, go straight to typing a new label.
		m.typing = true
		m.input.Focus()
	}
	return m
}

func (m *pickerModel) Init() tea.Cmd { return nil }

func (m *pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.typing {
		return m.updateTyping(msg)
	}
	return m.updateBrowsing(msg)
}

func (m *pickerModel) updateBrowsing(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			if selected, ok := m.list.SelectedItem().(labelItem); ok {
				m.result = PickResult{Action: ActionAssign, Location: string(selected)}
				return m, tea.Quit
			}
		case "n":
			m.typing = true
			m.input.Focus()
			return m, textinput.Blink
		case "s", "esc":
			m.result = PickResult{Action: ActionSkip}
			return m, tea.Quit
		case "q", "ctrl+c":
			m.result = PickResult{Action: ActionStop}
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		width := clamp(defaultListWidth, msg.Width-4, 30)
		height := clamp(defaultListHeight, msg.Height-8, 4)
		m.list.SetSize(width, height)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *pickerModel) updateTyping(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "enter":
			location := strings.TrimSpace(m.input.Value())
			if location != "" {
				m.result = PickResult{Action: ActionAssign, Location: location}
				return m, tea.Quit
			}
		case "esc":
			if len(m.list.Items()) > 0 {
				m.typing = false
				m.input.Blur()
				m.input.SetValue("")
				return m, nil
			}
			m.result = PickResult{Action: ActionSkip}
			return m, tea.Quit
		case "ctrl+c":
			m.result = PickResult{Action: ActionStop}
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *pickerModel) View() string {
	header := headerStyle.Render(fmt.Sprintf("Where is set %s stored?", m.setCode))

	var body string
	var help string
	if m.typing {
		body = lipgloss.NewStyle().MarginTop(1).Render("New location: " + m.input.View())
		help = helpStyle.Render("Enter save | Esc back | Ctrl+C stop")
	} else {
		body = m.list.View()
		help = helpStyle.Render("Up/Down navigate | Enter pick | n new | s skip | q stop")
	}

	buttons := lipgloss.JoinHorizontal(
		lipgloss.Left,
		skipButtonStyle.Render(" Skip "),
		lipgloss.NewStyle().Padding(0, 2).Render(""),
		stopButtonStyle.Render(" Stop "),
	)
	return lipgloss.JoinVertical(lipgloss.Left, header, body, buttons, help)
}

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("214")).
			MarginBottom(1)

	skipButtonStyle = lipgloss.NewStyle().
			MarginTop(1).
			Padding(0, 2).
			Background(lipgloss.Color("178")).
			Foreground(lipgloss.Color("0")).
			Bold(true)

	stopButtonStyle = lipgloss.NewStyle().
			MarginTop(1).
			Padding(0, 2).
			Background(lipgloss.Color("161")).
			Foreground(lipgloss.Color("230")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			MarginTop(1).
			Foreground(lipgloss.Color("244"))
)

// PickLocation shows the interactive picker for one set code. The user can
// pick an existing label, type a new one, skip the set, or stop the run.
func PickLocation(setCode string, labels []string) (PickResult, error) {
	m := newPickerModel(setCode, labels)
	finalModel, err := runProgram(m)
	if err != nil {
		return PickResult{}, err
	}

	if typed, ok := finalModel.(*pickerModel); ok {
		return typed.result, nil
	}
	return PickResult{}, fmt.Errorf("unexpected program result")
}

func clamp(defaultValue, available, minimum int) int {
	width := defaultValue
	if available > 0 && available < defaultValue {
		width = available
	}
	if width < minimum {
		width = minimum
	}
	return width
}
