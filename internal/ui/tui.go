// Package ui is a terminal front end for the todo API.
package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/ytakahashi/todo-web/internal/viewmodel"
)

type keyMap struct {
	Up     key.Binding
	Down   key.Binding
	Add    key.Binding
	Edit   key.Binding
	Toggle key.Binding
	Delete key.Binding
	Reload key.Binding
	Quit   key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Add, k.Edit, k.Toggle, k.Delete, k.Reload, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Up, k.Down}, k.ShortHelp()}
}

var keys = keyMap{
	Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Add:    key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
	Edit:   key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
	Toggle: key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "toggle")),
	Delete: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
	Reload: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
	Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

// eventMsg carries a view-model event back into the program.
type eventMsg struct {
	event viewmodel.Event
}

// Model renders a viewmodel.State and forwards key presses to the controller.
type Model struct {
	ctrl   *viewmodel.Controller
	state  viewmodel.State
	cursor int
	adding bool
	input  textinput.Model
	help   help.Model
}

func New(ctrl *viewmodel.Controller) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.CharLimit = 200
	return Model{
		ctrl:  ctrl,
		input: ti,
		help:  help.New(),
	}
}

// Run starts the program and blocks until the user quits.
func Run(ctrl *viewmodel.Controller) error {
	p := tea.NewProgram(New(ctrl), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// State returns the current view-model state.
func (m Model) State() viewmodel.State {
	return m.state
}

// call runs fn off the update loop. Responses come back in arrival order.
func call(fn func(ctx context.Context) viewmodel.Event) tea.Cmd {
	return func() tea.Msg {
		ev := fn(context.Background())
		if ev == nil {
			return nil
		}
		return eventMsg{event: ev}
	}
}

func (m Model) Init() tea.Cmd {
	return call(m.ctrl.Load)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		m.apply(msg.event)
		if !m.adding && !m.state.Editing() {
			m.input.Blur()
		}
		return m, nil
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m, nil
	case tea.KeyMsg:
		if m.adding || m.state.Editing() {
			return m.updateInput(msg)
		}
		return m.updateBrowse(msg)
	}
	return m, nil
}

func (m *Model) apply(ev viewmodel.Event) {
	m.state = viewmodel.Reduce(m.state, ev)
	if m.cursor >= len(m.state.Items) {
		m.cursor = len(m.state.Items) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	selected, hasSelection := m.selected()

	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, keys.Down):
		if m.cursor < len(m.state.Items)-1 {
			m.cursor++
		}
	case key.Matches(msg, keys.Add):
		m.adding = true
		m.input.Placeholder = "What needs to be done?"
		m.input.SetValue(m.state.NewItemDraft)
		m.input.CursorEnd()
		return m, m.input.Focus()
	case key.Matches(msg, keys.Edit):
		if !hasSelection {
			return m, nil
		}
		m.apply(viewmodel.EditStarted{ID: selected})
		m.input.Placeholder = "Edit todo..."
		m.input.SetValue(m.state.EditDraft)
		m.input.CursorEnd()
		return m, m.input.Focus()
	case key.Matches(msg, keys.Toggle):
		if !hasSelection {
			return m, nil
		}
		snapshot := m.state
		return m, call(func(ctx context.Context) viewmodel.Event {
			return m.ctrl.Toggle(ctx, snapshot, selected)
		})
	case key.Matches(msg, keys.Delete):
		if !hasSelection {
			return m, nil
		}
		return m, call(func(ctx context.Context) viewmodel.Event {
			return m.ctrl.Delete(ctx, selected)
		})
	case key.Matches(msg, keys.Reload):
		return m, call(m.ctrl.Load)
	}
	return m, nil
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		if m.adding {
			m.input.Blur()
			m.adding = false
			draft := m.state.NewItemDraft
			return m, call(func(ctx context.Context) viewmodel.Event {
				return m.ctrl.Add(ctx, draft)
			})
		}
		// Edit mode stays open until Saved arrives.
		id, text := m.state.EditingID, m.state.EditDraft
		return m, call(func(ctx context.Context) viewmodel.Event {
			return m.ctrl.SaveEdit(ctx, id, text)
		})
	case tea.KeyEsc:
		m.input.Blur()
		if m.adding {
			m.adding = false
			return m, nil
		}
		m.apply(viewmodel.EditCanceled{})
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.adding {
		m.apply(viewmodel.DraftChanged{Text: m.input.Value()})
	} else {
		m.apply(viewmodel.EditDraftChanged{Text: m.input.Value()})
	}
	return m, cmd
}

func (m Model) selected() (string, bool) {
	if m.cursor < 0 || m.cursor >= len(m.state.Items) {
		return "", false
	}
	return m.state.Items[m.cursor].ID, true
}

func (m Model) View() string {
	var b strings.Builder

	done, pending := stats(m.state)
	fmt.Fprintf(&b, "%s   %s %d  %s %d  %s %d\n\n",
		titleStyle.Render("Todos"),
		successStyle.Render("✔"), done,
		pendingStyle.Render("•"), pending,
		accentStyle.Render("Total"), len(m.state.Items),
	)

	if len(m.state.Items) == 0 {
		b.WriteString(mutedStyle.Render("You have no tasks yet. Start by adding one!"))
		b.WriteString("\n")
	}
	for i, todo := range m.state.Items {
		prefix := "  "
		if i == m.cursor {
			prefix = selectedStyle.Render("> ")
		}
		box, text := mutedStyle.Render(boxUnchecked), todo.Text
		if todo.Completed {
			box, text = successStyle.Render(boxChecked), doneStyle.Render(todo.Text)
		}
		if todo.ID == m.state.EditingID {
			text = accentStyle.Render(todo.Text + " (editing)")
		}
		fmt.Fprintf(&b, "%s%s %s\n", prefix, box, text)
	}

	if m.adding || m.state.Editing() {
		title := "Add new todo"
		if m.state.Editing() {
			title = "Edit todo"
		}
		b.WriteString("\n")
		b.WriteString(panelStyle.Render(title + "\n" + m.input.View()))
		b.WriteString("\n")
	}

	if m.state.Err != nil {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render("✖ " + m.state.Err.Error()))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(keys))
	return panelStyle.Render(b.String())
}

func stats(s viewmodel.State) (done, pending int) {
	for _, todo := range s.Items {
		if todo.Completed {
			done++
		} else {
			pending++
		}
	}
	return
}
