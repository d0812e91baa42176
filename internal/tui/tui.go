// Package tui is the interactive list view. Rows are rendered from the
// store's entries and every row action is sent back to the store; the view
// never edits entries itself.
package tui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/ui"
)

// Store is what the view drives. *liststore.Store satisfies it.
type Store interface {
	Entries() model.Collection
	Draft() string
	SetDraft(text string)
	Submit() (model.Collection, error)
	MarkDone(id int) (model.Collection, error)
	Delete(id int) (model.Collection, error)
}

// rowItem adapts an entry to bubbles/list.Item
type rowItem struct {
	model.Entry
}

func (r rowItem) FilterValue() string { return r.Text }

// Custom delegate to control how rows render (single line)
type rowDelegate struct{}

func (d rowDelegate) Height() int                               { return 1 }
func (d rowDelegate) Spacing() int                              { return 0 }
func (d rowDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }
func (d rowDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	r, ok := item.(rowItem)
	if !ok {
		return
	}
	prefix := "  "
	if index == m.Index() {
		prefix = ui.Current().Selected.Render(">") + " "
	}
	fmt.Fprint(w, prefix+ui.Row(r.Entry))
}

type keyMap struct {
	Add    key.Binding
	Done   key.Binding
	Delete key.Binding
	Quit   key.Binding
	Submit key.Binding
	Leave  key.Binding
}

var keys = keyMap{
	Add:    key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
	Done:   key.NewBinding(key.WithKeys(" ", "x"), key.WithHelp("space/x", "done")),
	Delete: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
	Quit:   key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
	Submit: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "add")),
	Leave:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
}

// Model implements tea.Model over a Store.
type Model struct {
	store Store
	list  list.Model
	input textinput.Model

	adding bool   // draft input has focus
	err    string // last failed action, cleared by the next success

	width, height int
}

// New builds the view for s. The size is a guess until the first
// tea.WindowSizeMsg arrives.
func New(s Store) Model {
	l := list.New(nil, rowDelegate{}, 0, 0)
	l.SetShowHelp(true)
	l.SetShowPagination(true)
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(false)
	l.Styles.Title = ui.Current().Title
	l.Styles.HelpStyle = ui.Current().Muted
	l.Styles.PaginationStyle = ui.Current().Muted
	l.SetStatusBarItemName("item", "items")
	// "d" deletes; keep it out of the default next-page keys.
	l.KeyMap.NextPage = key.NewBinding(
		key.WithKeys("right", "l", "pgdown", "f"),
		key.WithHelp("→/l/pgdn", "next page"),
	)
	l.AdditionalShortHelpKeys = func() []key.Binding { return []key.Binding{keys.Add, keys.Done, keys.Delete} }
	l.AdditionalFullHelpKeys = func() []key.Binding { return []key.Binding{keys.Add, keys.Done, keys.Delete} }

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "New item..."

	m := Model{store: s, list: l, input: ti, width: 80, height: 24}
	m.refresh()
	m.resize()
	return m
}

// Run starts the program on the alternate screen and blocks until quit.
func Run(s Store, opts ...tea.ProgramOption) error {
	opts = append([]tea.ProgramOption{tea.WithAltScreen()}, opts...)
	_, err := tea.NewProgram(New(s), opts...).Run()
	return err
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if size, ok := msg.(tea.WindowSizeMsg); ok {
		m.width, m.height = size.Width, size.Height
		m.resize()
		return m, nil
	}

	// add mode
	if m.adding {
		if k, ok := msg.(tea.KeyMsg); ok {
			switch {
			case key.Matches(k, keys.Submit):
				m.apply(m.store.Submit())
				m.input.SetValue(m.store.Draft())
				return m, nil
			case key.Matches(k, keys.Leave):
				m.adding = false
				m.input.Blur()
				m.resize()
				return m, nil
			}
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		m.store.SetDraft(m.input.Value())
		return m, cmd
	}

	if k, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(k, keys.Quit):
			return m, tea.Quit
		case key.Matches(k, keys.Add):
			m.adding = true
			m.input.SetValue(m.store.Draft())
			m.input.CursorEnd()
			m.resize()
			return m, m.input.Focus()
		case key.Matches(k, keys.Done):
			if r, ok := m.selected(); ok {
				m.apply(m.store.MarkDone(r.ID))
			}
			return m, nil
		case key.Matches(k, keys.Delete):
			if r, ok := m.selected(); ok {
				m.apply(m.store.Delete(r.ID))
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	content := m.list.View()
	if m.adding {
		bar := ui.PanelString("Add new item\n" + m.input.View())
		content += "\n" + bar
	}
	if m.err != "" {
		content += "\n" + ui.Current().Error.Render("✖ "+m.err)
	}
	return ui.PanelString(content)
}

func (m *Model) selected() (rowItem, bool) {
	r, ok := m.list.SelectedItem().(rowItem)
	return r, ok
}

// apply records the outcome of a store call and redraws from the store.
func (m *Model) apply(_ model.Collection, err error) {
	if err != nil {
		m.err = err.Error()
		return
	}
	m.err = ""
	m.refresh()
}

func (m *Model) refresh() {
	entries := m.store.Entries()
	items := make([]list.Item, 0, len(entries))
	for _, e := range entries {
		items = append(items, rowItem{Entry: e})
	}
	m.list.SetItems(items)
	if n := len(items); n > 0 && m.list.Index() >= n {
		m.list.Select(n - 1)
	}
	m.list.Title = ui.Header(entries)
}

func (m *Model) resize() {
	h := m.height - 4
	if m.adding {
		h -= 4
	}
	if m.err != "" {
		h--
	}
	m.list.SetSize(max(m.width-4, 10), max(h, 3))
}
