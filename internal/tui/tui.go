package tui

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/idilsaglam/cards/internal/model"
	"github.com/idilsaglam/cards/internal/roster"
	"github.com/idilsaglam/cards/internal/ui"
)

// Controller is what the TUI drives.
type Controller interface {
	Snapshot() roster.Snapshot
	Load(ctx context.Context) roster.Snapshot
	Sync(ctx context.Context) roster.Snapshot
	SetFeedURL(ctx context.Context, url string) roster.Snapshot
	Lookup(id string) (model.Card, bool)
	Add(card model.Card) string
	Update(card model.Card)
	Delete(id string)
	Restore(card model.Card, index int) bool
	Watch(fn func(roster.Snapshot)) func()
}

type Options struct {
	ShareBaseURL string
}

// snapshotMsg carries controller state into the event loop.
type snapshotMsg roster.Snapshot

type view int

const (
	viewList view = iota
	viewDetail
	viewForm
	viewSource
)

// listItem adapts a card to bubbles/list.Item
type listItem struct{ card model.Card }

func (i listItem) Title() string       { return i.card.Name }
func (i listItem) Description() string { return i.card.Title }
func (i listItem) FilterValue() string {
	return i.card.Name + " " + i.card.Title + " " + i.card.CompanyName + " " + i.card.Email
}

// Custom delegate to control how items render (single line)
type itemDelegate struct{}

func (d itemDelegate) Height() int                               { return 1 }
func (d itemDelegate) Spacing() int                              { return 0 }
func (d itemDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(listItem)
	if !ok {
		return
	}
	name := it.card.Name
	if name == "" {
		name = "(unnamed)"
	}
	line := titleStyle.Render(name)
	if role := strings.Trim(it.card.Title+" @ "+it.card.CompanyName, " @"); role != "" {
		line += "  " + mutedStyle.Render(role)
	}
	prefix := "  "
	if index == m.Index() {
		prefix = selectedStyle.Render("> ")
	}
	fmt.Fprint(w, prefix+line)
}

var (
	addBind    = key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add"))
	editBind   = key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit"))
	deleteBind = key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete"))
	undoBind   = key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "undo"))
	syncBind   = key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sync"))
	sourceBind = key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "data source"))
	openBind   = key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open"))
	localKeys  = []key.Binding{openBind, addBind, editBind, deleteBind, undoBind, sourceBind}
	remoteKeys = []key.Binding{openBind, syncBind, sourceBind}
	formFields = model.FieldNames[1:]
	formLabels = map[string]string{
		model.FieldName:        "Full name*",
		model.FieldTitle:       "Job title*",
		model.FieldCompanyName: "Company*",
		model.FieldPhone:       "Phone",
		model.FieldEmail:       "Email*",
		model.FieldWebsite:     "Website",
		model.FieldPhotoURL:    "Photo URL",
		model.FieldLogoURL:     "Logo URL",
	}
)

type modelTUI struct {
	ctrl  Controller
	opt   Options
	snap  roster.Snapshot
	list  list.Model
	spin  spinner.Model
	view  view
	width int

	// detail / form target
	selected model.Card

	// undo support (single-level)
	canUndo   bool
	undoIndex int
	undoCard  model.Card

	// add & edit form
	inputs  []textinput.Model
	focus   int
	editing bool // false = adding
	formErr string

	// data source form
	urlInput textinput.Model
	status   string
}

func newModel(ctrl Controller, opt Options) modelTUI {
	l := list.New(nil, itemDelegate{}, 0, 0)
	l.SetShowHelp(true)
	l.SetShowPagination(true)
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = titleStyle
	l.Styles.HelpStyle = helpStyle
	l.Styles.PaginationStyle = helpStyle
	l.FilterInput.Prompt = "/ "
	l.SetStatusBarItemName("card", "cards")

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = accentStyle

	inputs := make([]textinput.Model, len(formFields))
	for i, f := range formFields {
		ti := textinput.New()
		ti.Prompt = "> "
		ti.Placeholder = formLabels[f]
		ti.CharLimit = 200
		inputs[i] = ti
	}

	u := textinput.New()
	u.Prompt = "> "
	u.Placeholder = "Paste your published sheet URL here..."
	u.CharLimit = 2048

	m := modelTUI{
		ctrl:     ctrl,
		opt:      opt,
		list:     l,
		spin:     sp,
		inputs:   inputs,
		urlInput: u,
		width:    80,
	}
	m.applySnapshot(ctrl.Snapshot())
	return m
}

// Run starts the Bubble Tea program and blocks until the user quits.
func Run(ctrl Controller, opt Options) error {
	p := tea.NewProgram(newModel(ctrl, opt), tea.WithAltScreen())
	// controller calls only run inside commands, so Send never blocks the loop
	stop := ctrl.Watch(func(s roster.Snapshot) { p.Send(snapshotMsg(s)) })
	defer stop()
	_, err := p.Run()
	return err
}

// -------------- commands ----------------

func loadCmd(ctrl Controller) tea.Cmd {
	return func() tea.Msg { return snapshotMsg(ctrl.Load(context.Background())) }
}

func syncCmd(ctrl Controller) tea.Cmd {
	return func() tea.Msg { return snapshotMsg(ctrl.Sync(context.Background())) }
}

func setURLCmd(ctrl Controller, url string) tea.Cmd {
	return func() tea.Msg { return snapshotMsg(ctrl.SetFeedURL(context.Background(), url)) }
}

func mutateCmd(ctrl Controller, fn func()) tea.Cmd {
	return func() tea.Msg {
		fn()
		return snapshotMsg(ctrl.Snapshot())
	}
}

// -------------- model ----------------

func (m modelTUI) Init() tea.Cmd {
	return tea.Batch(loadCmd(m.ctrl), m.spin.Tick)
}

func (m *modelTUI) applySnapshot(s roster.Snapshot) {
	m.snap = s
	items := make([]list.Item, 0, len(s.Employees))
	for _, c := range s.Employees {
		items = append(items, listItem{card: c})
	}
	m.list.SetItems(items)

	keys := localKeys
	if s.IsSheetMode {
		keys = remoteKeys
	}
	m.list.AdditionalShortHelpKeys = func() []key.Binding { return keys }
	m.list.AdditionalFullHelpKeys = func() []key.Binding { return keys }
	m.list.Title = m.header()
}

func (m modelTUI) header() string {
	badge := successStyle.Render(ui.Current().SymLocal + " Manual")
	if m.snap.IsSheetMode {
		badge = pendingStyle.Render(ui.Current().SymRemote + " Live")
	}
	return fmt.Sprintf("%s   %s  %s %d",
		titleStyle.Render("Business Cards"),
		badge,
		accentStyle.Render("Total"), len(m.snap.Employees),
	)
}

func (m modelTUI) current() (model.Card, bool) {
	it, ok := m.list.SelectedItem().(listItem)
	if !ok {
		return model.Card{}, false
	}
	return it.card, true
}

func (m modelTUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case snapshotMsg:
		m.applySnapshot(roster.Snapshot(msg))
		if !msg.IsLoading {
			m.status = ""
		}
		if msg.IsSheetMode {
			m.canUndo = false
		}
		if msg.IsLoading {
			return m, m.spin.Tick
		}
		return m, nil
	case spinner.TickMsg:
		if !m.snap.IsLoading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.list.SetSize(msg.Width-4, msg.Height-6)
		return m, nil
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.view {
		case viewForm:
			return m.updateForm(msg)
		case viewSource:
			return m.updateSource(msg)
		case viewDetail:
			return m.updateDetail(msg)
		}
		return m.updateList(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m modelTUI) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// let the filter input have every key while typing
	if m.list.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}
	local := !m.snap.IsSheetMode

	switch msg.String() {
	case "q", "esc":
		if m.list.FilterState() == list.FilterApplied {
			break
		}
		return m, tea.Quit
	case "enter":
		if c, ok := m.current(); ok {
			m.selected = c
			m.view = viewDetail
		}
		return m, nil
	case "s":
		if m.snap.IsSheetMode {
			m.status = "syncing..."
			return m, syncCmd(m.ctrl)
		}
		return m, nil
	case "c":
		m.view = viewSource
		m.urlInput.SetValue(m.snap.SheetURL)
		m.urlInput.CursorEnd()
		return m, m.urlInput.Focus()
	case "a":
		if local {
			return m, m.openForm(model.Card{}, false)
		}
		return m, nil
	case "e":
		if c, ok := m.current(); ok && local {
			return m, m.openForm(c, true)
		}
		return m, nil
	case "d":
		c, ok := m.current()
		if !ok || !local {
			return m, nil
		}
		m.undoCard = c
		m.undoIndex = m.rosterIndex(c.ID)
		m.canUndo = true
		return m, mutateCmd(m.ctrl, func() { m.ctrl.Delete(c.ID) })
	case "u":
		if !m.canUndo || !local {
			return m, nil
		}
		m.canUndo = false
		c, idx := m.undoCard, m.undoIndex
		return m, mutateCmd(m.ctrl, func() { m.ctrl.Restore(c, idx) })
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// rosterIndex is the position of id in the full roster, which differs from
// the list index while a filter is applied.
func (m modelTUI) rosterIndex(id string) int {
	for i, c := range m.snap.Employees {
		if c.ID == id {
			return i
		}
	}
	return len(m.snap.Employees)
}

func (m *modelTUI) openForm(c model.Card, editing bool) tea.Cmd {
	m.view = viewForm
	m.editing = editing
	m.selected = c
	m.formErr = ""
	m.focus = 0
	for i, f := range formFields {
		v, _ := c.Get(f)
		m.inputs[i].SetValue(v)
		m.inputs[i].Blur()
	}
	return m.inputs[0].Focus()
}

func (m modelTUI) formCard() model.Card {
	c := m.selected
	for i, f := range formFields {
		c.Set(f, strings.TrimSpace(m.inputs[i].Value()))
	}
	return c
}

func (m modelTUI) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.view = viewList
		return m, nil
	case "tab", "down":
		return m, m.moveFocus(1)
	case "shift+tab", "up":
		return m, m.moveFocus(-1)
	case "enter", "ctrl+s":
		if msg.String() == "enter" && m.focus < len(m.inputs)-1 {
			return m, m.moveFocus(1)
		}
		c := m.formCard()
		if missing := c.Missing(); len(missing) > 0 {
			m.formErr = "required: " + strings.Join(missing, ", ")
			return m, nil
		}
		m.view = viewList
		if m.editing {
			return m, mutateCmd(m.ctrl, func() { m.ctrl.Update(c) })
		}
		return m, mutateCmd(m.ctrl, func() { m.ctrl.Add(c) })
	}
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m *modelTUI) moveFocus(delta int) tea.Cmd {
	m.inputs[m.focus].Blur()
	m.focus = (m.focus + delta + len(m.inputs)) % len(m.inputs)
	return m.inputs[m.focus].Focus()
}

func (m modelTUI) updateSource(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.urlInput.Blur()
		m.view = viewList
		return m, nil
	case "enter":
		url := strings.TrimSpace(m.urlInput.Value())
		if url == "" {
			m.status = "enter a sheet URL, or ctrl+l for manual mode"
			return m, nil
		}
		m.urlInput.Blur()
		m.view = viewList
		m.status = ""
		return m, setURLCmd(m.ctrl, url)
	case "ctrl+l":
		m.urlInput.Blur()
		m.view = viewList
		m.status = ""
		return m, setURLCmd(m.ctrl, "")
	}
	var cmd tea.Cmd
	m.urlInput, cmd = m.urlInput.Update(msg)
	return m, cmd
}

func (m modelTUI) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q", "enter":
		m.view = viewList
	}
	return m, nil
}

// -------------- rendering ----------------

func (m modelTUI) View() string {
	var b strings.Builder
	if m.snap.Error != "" && m.snap.IsSheetMode {
		b.WriteString(bannerStyle.Render(m.snap.Error) + "\n")
	}
	if m.snap.IsLoading {
		b.WriteString(m.spin.View() + " Loading business cards...\n")
	}
	if m.status != "" && !m.snap.IsLoading {
		b.WriteString(mutedStyle.Render(m.status) + "\n")
	}
	if m.canUndo && m.view == viewList {
		b.WriteString(mutedStyle.Render("deleted "+m.undoCard.Name+", press u to undo") + "\n")
	}

	switch m.view {
	case viewDetail:
		b.WriteString(m.detailView())
	case viewForm:
		b.WriteString(m.formView())
	case viewSource:
		b.WriteString(m.sourceView())
	default:
		b.WriteString(m.list.View())
	}
	return panelString(b.String())
}

func (m modelTUI) detailView() string {
	// re-read so an edit or sync shows through
	c, ok := m.ctrl.Lookup(m.selected.ID)
	if !ok {
		return errorStyle.Render("Card not found") + "\n" + helpStyle.Render("esc back")
	}
	lines := []string{
		titleStyle.Render(c.Name),
		c.Title,
		accentStyle.Render(c.CompanyName),
		"",
	}
	for _, f := range []string{model.FieldPhone, model.FieldEmail, model.FieldWebsite} {
		if v, _ := c.Get(f); v != "" {
			lines = append(lines, labelStyle.Render(f)+v)
		}
	}
	link := ui.ShareURL(m.opt.ShareBaseURL, c.ID)
	lines = append(lines, "", labelStyle.Render("share link")+link)
	if code, err := ui.QR(link); err == nil {
		lines = append(lines, "", strings.TrimRight(code, "\n"))
	}
	lines = append(lines, "", helpStyle.Render("esc back"))
	return strings.Join(lines, "\n")
}

func (m modelTUI) formView() string {
	title := "Add new card"
	if m.editing {
		title = "Edit " + m.selected.Name
	}
	if m.formErr != "" {
		title += "  " + errorStyle.Render(m.formErr)
	}
	lines := []string{titleStyle.Render(title), ""}
	for i, f := range formFields {
		lines = append(lines, labelStyle.Render(formLabels[f])+m.inputs[i].View())
	}
	lines = append(lines, "", helpStyle.Render("tab next • shift+tab prev • ctrl+s save • esc cancel"))
	return strings.Join(lines, "\n")
}

func (m modelTUI) sourceView() string {
	lines := []string{
		titleStyle.Render("Data Source Settings"),
		"",
		accentStyle.Render("Live Mode") + mutedStyle.Render(": cards come from a published Google Sheet (CSV); edit them in the sheet, then sync."),
		m.urlInput.View(),
		"",
		accentStyle.Render("Manual Mode") + mutedStyle.Render(": cards are stored locally and edited here."),
		"",
		helpStyle.Render("enter connect sheet • ctrl+l use manual mode • esc cancel"),
	}
	return strings.Join(lines, "\n")
}
