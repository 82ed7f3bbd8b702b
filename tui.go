package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/slmtnm/bnav/browse"
)

// ViewMode represents the current view mode
type ViewMode int

const (
	ViewBrowser ViewMode = iota
	ViewPreview
	ViewHelp
	ViewUpload
	ViewAddress
	ViewConfirm
)

// LocalItem represents a local file or directory
type LocalItem struct {
	Name  string
	IsDir bool
	Size  int64
}

// keyMap holds the browser key bindings.
type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	Open     key.Binding
	Back     key.Binding
	Refresh  key.Binding
	Address  key.Binding
	Clear    key.Binding
	Download key.Binding
	Upload   key.Binding
	Delete   key.Binding
	Help     key.Binding
	Quit     key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Open:     key.NewBinding(key.WithKeys("enter", "right", "l", "o"), key.WithHelp("→/l/o/enter", "select")),
		Back:     key.NewBinding(key.WithKeys("backspace", "left", "h"), key.WithHelp("←/h", "back")),
		Refresh:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Address:  key.NewBinding(key.WithKeys(":", "b"), key.WithHelp(":/b", "go to")),
		Clear:    key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "root")),
		Download: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "download")),
		Upload:   key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "upload")),
		Delete:   key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "delete")),
		Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:     key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) shortHelp() string {
	bindings := []key.Binding{k.Up, k.Down, k.Back, k.Open, k.Address, k.Clear, k.Download, k.Upload, k.Delete, k.Refresh, k.Help, k.Quit}
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		parts = append(parts, h.Key+": "+h.Desc)
	}
	return strings.Join(parts, " • ")
}

// pendingAction is an operation waiting for a y/n answer.
type pendingAction struct {
	prompt string
	run    tea.Cmd
}

// Model represents the application state
type Model struct {
	session *browse.Session
	keys    keyMap

	// nav is the context the displayed entries were listed under.
	nav     browse.NavigationContext
	entries []browse.VirtualEntry
	cursor  int

	viewMode ViewMode
	address  textinput.Model
	spinner  spinner.Model
	confirm  *pendingAction

	initialAddress string

	previewContent  string
	previewFileName string
	previewLines    []string
	previewScroll   int
	previewWidth    int

	localItems []LocalItem
	localPath  string

	err           error
	statusMessage string
	loading       bool
	width         int
	height        int
}

// Messages for async operations
type listingMsg struct {
	listing *browse.Listing
	err     error
}

type previewLoadedMsg struct {
	preview *browse.Preview
	err     error
}

type transferDoneMsg struct {
	verb    string
	key     string
	refresh bool
	err     error
}

type localFilesLoadedMsg struct {
	items []LocalItem
	path  string
	err   error
}

// Styles - Minimalistic theme
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ffffff")).
			Background(lipgloss.Color("#333333")).
			Padding(0, 1)

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ffffff")).
			Padding(0, 1)

	directoryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#0066cc")).
			Bold(true)

	fileStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#bbbbbb"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#cc0000")).
			Bold(true)

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#cc6600"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#006600")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))

	previewStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("#999999")).
			Padding(1, 2)

	browserStyle = lipgloss.NewStyle().
			BorderForeground(lipgloss.Color("#999999")).
			Padding(1, 2).
			Align(lipgloss.Center)

	centerStyle = lipgloss.NewStyle().
			Align(lipgloss.Center)

	verticalCenterStyle = lipgloss.NewStyle().
				AlignVertical(lipgloss.Center)
)

// NewModel creates a new TUI model. An empty initialAddress starts in the address prompt.
func NewModel(session *browse.Session, initialAddress string) Model {
	address := textinput.New()
	address.Placeholder = "bucket/path/to/folder"
	address.Prompt = "Bucket: "
	address.CharLimit = 1024
	address.SetValue(initialAddress)

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		session:        session,
		keys:           defaultKeyMap(),
		address:        address,
		spinner:        sp,
		initialAddress: strings.TrimSpace(initialAddress),
		viewMode:       ViewBrowser,
	}
	if m.initialAddress == "" {
		m.viewMode = ViewAddress
		m.address.Focus()
	} else {
		m.loading = true
	}
	return m
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	if m.initialAddress == "" {
		return textinput.Blink
	}
	return tea.Batch(m.spinner.Tick, m.navigate(func(ctx context.Context) (*browse.Listing, error) {
		return m.session.Open(ctx, m.initialAddress)
	}))
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch m.viewMode {
		case ViewBrowser:
			return m.updateBrowser(msg)
		case ViewPreview:
			return m.updatePreview(msg)
		case ViewHelp:
			return m.updateHelp(msg)
		case ViewUpload:
			return m.updateUpload(msg)
		case ViewAddress:
			return m.updateAddress(msg)
		case ViewConfirm:
			return m.updateConfirm(msg)
		}

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case listingMsg:
		if errors.Is(msg.err, browse.ErrSuperseded) {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			m.setError(msg.err)
			return m, nil
		}
		m.applyListing(msg.listing)
		return m, nil

	case previewLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.setError(msg.err)
			return m, nil
		}
		m.err = nil
		m.previewFileName = msg.preview.Key
		switch {
		case msg.preview.Binary:
			m.previewContent = "[Binary file - cannot preview]"
		case msg.preview.Truncated:
			m.previewContent = string(msg.preview.Content) + "\n[... truncated]"
		default:
			m.previewContent = string(msg.preview.Content)
		}
		m.previewLines = strings.Split(m.previewContent, "\n")
		m.previewScroll = 0
		m.previewWidth = m.calculatePreviewWidth()
		m.viewMode = ViewPreview
		return m, nil

	case transferDoneMsg:
		m.loading = false
		if msg.err != nil {
			m.setError(msg.err)
			return m, nil
		}
		m.err = nil
		m.statusMessage = fmt.Sprintf("✓ %s '%s' successfully", msg.verb, msg.key)
		if msg.refresh {
			m.loading = true
			return m, tea.Batch(m.spinner.Tick, m.navigate(m.session.Refresh))
		}
		return m, nil

	case localFilesLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.localItems = msg.items
		m.localPath = msg.path
		m.cursor = 0
		m.viewMode = ViewUpload
		m.err = nil
		return m, nil
	}

	return m, nil
}

func (m *Model) applyListing(listing *browse.Listing) {
	m.nav = browse.NavigationContext{Container: listing.Container, Prefix: listing.Prefix}
	m.entries = listing.Entries()
	m.cursor = 0
	m.err = nil
	m.address.SetValue(m.nav.Address().String())
}

func (m *Model) setError(err error) {
	m.err = err
	m.statusMessage = ""
}

func (m Model) selected() (browse.VirtualEntry, bool) {
	if m.cursor < 0 || m.cursor >= len(m.entries) {
		return browse.VirtualEntry{}, false
	}
	return m.entries[m.cursor], true
}

// updateBrowser handles browser view updates
func (m Model) updateBrowser(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.entries)-1 {
			m.cursor++
		}

	case key.Matches(msg, m.keys.Open):
		entry, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.loading = true
		if entry.IsFolder() {
			return m, tea.Batch(m.spinner.Tick, m.navigate(func(ctx context.Context) (*browse.Listing, error) {
				return m.session.Descend(ctx, entry.Name)
			}))
		}
		return m, tea.Batch(m.spinner.Tick, m.previewFile(entry.Name))

	case key.Matches(msg, m.keys.Back):
		if m.nav.IsRoot() {
			return m, nil
		}
		m.loading = true
		return m, tea.Batch(m.spinner.Tick, m.navigate(m.session.Ascend))

	case key.Matches(msg, m.keys.Refresh):
		if m.nav.IsZero() {
			return m, nil
		}
		m.loading = true
		return m, tea.Batch(m.spinner.Tick, m.navigate(m.session.Refresh))

	case key.Matches(msg, m.keys.Clear):
		if m.nav.IsZero() {
			return m, nil
		}
		m.loading = true
		return m, tea.Batch(m.spinner.Tick, m.navigate(m.session.ClearPrefix))

	case key.Matches(msg, m.keys.Address):
		m.viewMode = ViewAddress
		m.address.CursorEnd()
		return m, m.address.Focus()

	case key.Matches(msg, m.keys.Download):
		entry, ok := m.selected()
		if !ok {
			return m, nil
		}
		if _, err := browse.ObjectKey(m.nav, entry.Name); err != nil {
			m.setError(browse.Classify(browse.OpDownload, err))
			return m, nil
		}
		m.loading = true
		return m, tea.Batch(m.spinner.Tick, m.downloadFile(entry.Name))

	case key.Matches(msg, m.keys.Upload):
		if m.nav.IsZero() {
			m.setError(browse.Classify(browse.OpUpload, browse.ErrNoContainer))
			return m, nil
		}
		return m, m.loadLocalFiles(".")

	case key.Matches(msg, m.keys.Delete):
		entry, ok := m.selected()
		if !ok {
			return m, nil
		}
		objectKey, err := browse.ObjectKey(m.nav, entry.Name)
		if err != nil {
			m.setError(browse.Classify(browse.OpDelete, err))
			return m, nil
		}
		m.confirm = &pendingAction{
			prompt: fmt.Sprintf("Delete file '%s'?", objectKey),
			run:    m.deleteFile(entry.Name),
		}
		m.viewMode = ViewConfirm

	case key.Matches(msg, m.keys.Help):
		m.viewMode = ViewHelp
	}

	return m, nil
}

// updateAddress handles the address prompt.
func (m Model) updateAddress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		if m.nav.IsZero() {
			return m, nil
		}
		m.address.Blur()
		m.address.SetValue(m.nav.Address().String())
		m.viewMode = ViewBrowser
		return m, nil
	case "enter":
		input := m.address.Value()
		if _, err := browse.Parse(input); err != nil {
			m.setError(browse.Classify(browse.OpHeadContainer, err))
			return m, nil
		}
		m.address.Blur()
		m.viewMode = ViewBrowser
		m.loading = true
		return m, tea.Batch(m.spinner.Tick, m.navigate(func(ctx context.Context) (*browse.Listing, error) {
			return m.session.Open(ctx, input)
		}))
	}

	var cmd tea.Cmd
	m.address, cmd = m.address.Update(msg)
	return m, cmd
}

// updateConfirm handles y/n answers to a pending action.
func (m Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	action := m.confirm
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "y", "Y":
		m.confirm = nil
		m.viewMode = ViewBrowser
		if action == nil {
			return m, nil
		}
		m.loading = true
		return m, tea.Batch(m.spinner.Tick, action.run)
	case "n", "N", "esc", "q":
		m.confirm = nil
		m.viewMode = ViewBrowser
		m.statusMessage = "Cancelled."
	}
	return m, nil
}

// updatePreview handles preview view updates
func (m Model) updatePreview(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	maxScroll := max(len(m.previewLines)-(m.height-8), 0) // Account for title, borders, help

	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "esc", "backspace", "h", "left":
		m.viewMode = ViewBrowser
		m.previewContent = ""
		m.previewFileName = ""
		m.previewLines = nil
		m.previewScroll = 0
		m.previewWidth = 0
	case "up", "k":
		if m.previewScroll > 0 {
			m.previewScroll--
		}
	case "down", "j":
		if m.previewScroll < maxScroll {
			m.previewScroll++
		}
	case "pgup", "u":
		m.previewScroll = max(m.previewScroll-10, 0)
	case "pgdown", "d":
		m.previewScroll = min(m.previewScroll+10, maxScroll)
	case "home", "g":
		m.previewScroll = 0
	case "end", "G":
		m.previewScroll = maxScroll
	}
	return m, nil
}

// updateHelp handles help view updates
func (m Model) updateHelp(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "esc", "?":
		m.viewMode = ViewBrowser
	}
	return m, nil
}

// updateUpload handles upload view updates
func (m Model) updateUpload(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "esc":
		m.viewMode = ViewBrowser
		m.cursor = 0
		return m, nil
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.localItems)-1 {
			m.cursor++
		}
	case "enter", "l", "o":
		if len(m.localItems) == 0 {
			return m, nil
		}
		selected := m.localItems[m.cursor]
		if selected.IsDir {
			return m, m.loadLocalFiles(filepath.Join(m.localPath, selected.Name))
		}

		fullPath := filepath.Join(m.localPath, selected.Name)
		objectKey, err := browse.UploadKey(m.nav, fullPath)
		if err != nil {
			m.setError(browse.Classify(browse.OpUpload, err))
			return m, nil
		}
		m.cursor = 0
		m.confirm = &pendingAction{
			prompt: fmt.Sprintf("Upload '%s' as:\n'%s'\n\nProceed?", selected.Name, objectKey),
			run:    m.uploadFile(fullPath),
		}
		m.viewMode = ViewConfirm
	case "backspace", "h":
		return m, m.loadLocalFiles(filepath.Join(m.localPath, ".."))
	}
	return m, nil
}

// View renders the current view
func (m Model) View() string {
	switch m.viewMode {
	case ViewBrowser:
		return m.viewBrowser()
	case ViewPreview:
		return m.viewPreview()
	case ViewHelp:
		return m.viewHelp()
	case ViewUpload:
		return m.viewUpload()
	case ViewAddress:
		return m.viewAddress()
	case ViewConfirm:
		return m.viewConfirm()
	}
	return ""
}

// renderStatus writes the error, with its permission hint, or the status message.
func (m Model) renderStatus(s *strings.Builder) {
	if m.err != nil {
		s.WriteString(errorStyle.Render(fmt.Sprintf("Error: %s", m.err.Error())))
		var ce *browse.ClassifiedError
		if errors.As(m.err, &ce) && ce.Hint() != "" && ce.Kind != browse.KindAccessDenied {
			s.WriteString("\n")
			s.WriteString(hintStyle.Render(ce.Hint()))
		}
		s.WriteString("\n\n")
	} else if m.statusMessage != "" {
		s.WriteString(successStyle.Render(m.statusMessage))
		s.WriteString("\n\n")
	}
}

func (m Model) center(content string) string {
	if m.width > 0 && m.height > 0 {
		centered := centerStyle.Width(m.width).Render(content)
		return verticalCenterStyle.Height(m.height).Render(centered)
	}
	return content
}

// viewBrowser renders the file browser view
func (m Model) viewBrowser() string {
	var s strings.Builder

	title := "No bucket loaded"
	if !m.nav.IsZero() {
		title = fmt.Sprintf("Bucket: %s | Path: /%s", m.nav.Container, m.nav.Prefix)
	}
	s.WriteString(titleStyle.Render(title))
	s.WriteString("\n\n")

	m.renderStatus(&s)

	if m.loading {
		s.WriteString(m.spinner.View() + " Loading...\n")
	} else if len(m.entries) == 0 {
		s.WriteString("No objects found in this location.\n")
	} else {
		for i, entry := range m.entries {
			cursor := " "
			if i == m.cursor {
				cursor = ">"
			}

			var line string
			if entry.IsFolder() {
				line = fmt.Sprintf("%s %s", cursor, directoryStyle.Render(entry.Name))
			} else {
				line = fmt.Sprintf("%s %s (%s) %s", cursor, fileStyle.Render(entry.Name),
					browse.FormatSize(entry.Size), entry.Modified.Format("2006-01-02 15:04:05"))
			}

			if i == m.cursor {
				line = selectedStyle.Render(line)
			}

			s.WriteString(line)
			s.WriteString("\n")
		}
	}

	s.WriteString("\n")
	s.WriteString(helpStyle.Render(m.keys.shortHelp()))

	return m.center(browserStyle.Render(s.String()))
}

// viewAddress renders the address prompt.
func (m Model) viewAddress() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("Open bucket"))
	s.WriteString("\n\n")
	m.renderStatus(&s)
	s.WriteString(m.address.View())
	s.WriteString("\n\n")
	s.WriteString(helpStyle.Render("enter: open • esc: cancel • ctrl+c: quit"))

	return m.center(browserStyle.Render(s.String()))
}

// viewConfirm renders a pending y/n question.
func (m Model) viewConfirm() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("Confirm"))
	s.WriteString("\n\n")
	if m.confirm != nil {
		s.WriteString(m.confirm.prompt)
	}
	s.WriteString("\n\n")
	s.WriteString(helpStyle.Render("y: yes • n/esc: no"))

	return m.center(browserStyle.Render(s.String()))
}

// viewPreview renders the file preview view
func (m Model) viewPreview() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(fmt.Sprintf("Preview: %s", m.previewFileName)))
	s.WriteString("\n\n")

	visibleHeight := m.height - 8 // Account for title, borders, help
	if visibleHeight < 1 {
		visibleHeight = 10
	}

	var visibleLines []string
	totalLines := len(m.previewLines)

	if totalLines == 0 || (totalLines == 1 && m.previewLines[0] == "") {
		visibleLines = []string{"[Empty file]"}
	} else {
		start := m.previewScroll
		end := min(start+visibleHeight, totalLines)
		if start < totalLines {
			visibleLines = m.previewLines[start:end]
		}
	}

	var content strings.Builder
	for i, line := range visibleLines {
		content.WriteString(fmt.Sprintf("%4d │ %s\n", m.previewScroll+i+1, line))
	}

	if totalLines > visibleHeight {
		content.WriteString(fmt.Sprintf("\n[Showing lines %d-%d of %d]",
			m.previewScroll+1,
			m.previewScroll+len(visibleLines),
			totalLines))
	}

	s.WriteString(previewStyle.Width(m.previewWidth - 8).Render(content.String()))
	s.WriteString("\n\n")
	s.WriteString(helpStyle.Render("↑/k,↓/j: scroll • u/d: page up/down • g/G: top/bottom • ←/h/esc: back • q: quit"))

	return m.center(s.String())
}

// viewHelp renders the help view
func (m Model) viewHelp() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("bnav - Help"))
	s.WriteString("\n\n")

	help := `Navigation:
  ↑/k         Move cursor up
  ↓/j         Move cursor down
  ←/h         Go up to the parent folder
  →/l/o/enter Enter folder or preview file
  :/b         Type a bucket/path address
  c           Go to the bucket root
  r           Refresh current folder

File Operations:
  d           Download selected file to current directory
  u           Upload a local file into the current folder
  x           Delete selected file (asks first)

Preview Navigation:
  ↑/k,↓/j     Scroll line by line
  u/d         Page up/down (10 lines)
  g/G         Jump to top/bottom
  ←/h/esc     Return to browser

Folders are derived from "/" in object keys; they cannot be
downloaded or deleted as a unit.

Errors that come from missing permissions name the S3
permission you need (for example s3:ListBucket).
`

	s.WriteString(help)
	s.WriteString("\n")
	s.WriteString(helpStyle.Render("esc/?: back • q: quit"))

	return m.center(s.String())
}

// viewUpload renders the upload file selection view
func (m Model) viewUpload() string {
	var s strings.Builder

	displayPath := m.localPath
	if absPath, err := filepath.Abs(m.localPath); err == nil {
		displayPath = absPath
	}

	title := fmt.Sprintf("Local: %s → %s", displayPath, m.nav.Address())
	s.WriteString(titleStyle.Render(title))
	s.WriteString("\n\n")

	m.renderStatus(&s)

	if len(m.localItems) == 0 {
		s.WriteString("No files or directories found.\n")
	} else {
		for i, item := range m.localItems {
			cursor := " "
			if i == m.cursor {
				cursor = ">"
			}

			var line string
			if item.IsDir {
				line = fmt.Sprintf("%s %s", cursor, directoryStyle.Render(item.Name+"/"))
			} else {
				line = fmt.Sprintf("%s %s (%s)", cursor, fileStyle.Render(item.Name), browse.FormatSize(uint64(item.Size)))
			}

			if i == m.cursor {
				line = selectedStyle.Render(line)
			}

			s.WriteString(line)
			s.WriteString("\n")
		}
	}

	s.WriteString("\n")
	s.WriteString(helpStyle.Render("↑/k: up • ↓/j: down • ←/h: back • →/l/o/enter: select • esc: cancel • q: quit"))

	return m.center(browserStyle.Render(s.String()))
}

// navigate runs a session navigation off the UI loop.
func (m Model) navigate(fn func(context.Context) (*browse.Listing, error)) tea.Cmd {
	return func() tea.Msg {
		listing, err := fn(context.Background())
		return listingMsg{listing: listing, err: err}
	}
}

// previewFile loads the head of a file for preview
func (m Model) previewFile(name string) tea.Cmd {
	nav := m.nav
	return func() tea.Msg {
		p, err := m.session.Preview(context.Background(), nav, name, browse.DefaultPreviewLimit)
		return previewLoadedMsg{preview: p, err: err}
	}
}

// loadLocalFiles loads files and directories from the specified path
func (m Model) loadLocalFiles(path string) tea.Cmd {
	return func() tea.Msg {
		items, err := readLocalDir(path)
		if err != nil {
			return localFilesLoadedMsg{err: err}
		}
		return localFilesLoadedMsg{items: items, path: filepath.Clean(path)}
	}
}

// readLocalDir lists path for the upload picker: a ".." entry, then
// directories and files by name, hidden entries skipped.
func readLocalDir(path string) ([]LocalItem, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}

	items := []LocalItem{{Name: "..", IsDir: true}}
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".") {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		items = append(items, LocalItem{
			Name:  entry.Name(),
			IsDir: entry.IsDir(),
			Size:  info.Size(),
		})
	}

	rest := items[1:]
	sort.Slice(rest, func(i, j int) bool {
		if rest[i].IsDir != rest[j].IsDir {
			return rest[i].IsDir
		}
		return rest[i].Name < rest[j].Name
	})
	return items, nil
}

// uploadFile uploads a local file into the folder it was confirmed against.
func (m Model) uploadFile(fullPath string) tea.Cmd {
	nav := m.nav
	return func() tea.Msg {
		key, err := m.session.Upload(context.Background(), nav, fullPath)
		return transferDoneMsg{verb: "Uploaded", key: key, refresh: true, err: err}
	}
}

// deleteFile deletes a file from the folder it was confirmed against.
func (m Model) deleteFile(name string) tea.Cmd {
	nav := m.nav
	return func() tea.Msg {
		key, err := m.session.Delete(context.Background(), nav, name)
		return transferDoneMsg{verb: "Deleted", key: key, refresh: true, err: err}
	}
}

// downloadFile downloads a file to the current working directory.
func (m Model) downloadFile(name string) tea.Cmd {
	nav := m.nav
	return func() tea.Msg {
		key, err := m.session.Download(context.Background(), nav, name, filepath.Base(name))
		return transferDoneMsg{verb: "Downloaded", key: key, err: err}
	}
}

// calculatePreviewWidth calculates the optimal width for the preview window
func (m Model) calculatePreviewWidth() int {
	if len(m.previewLines) == 0 {
		return 80 // Default width
	}

	maxLineLength := 0
	for _, line := range m.previewLines {
		// Use rune count for proper Unicode handling, account for line numbers (4 digits + " │ ")
		maxLineLength = max(maxLineLength, utf8.RuneCountInString(line)+6)
	}

	// Add padding for borders and content padding (4 chars for borders + 4 for padding)
	optimalWidth := maxLineLength + 8

	// Limit to terminal width minus some margin
	maxAllowedWidth := max(m.width-10, 40)

	if optimalWidth > maxAllowedWidth {
		return maxAllowedWidth
	}

	// Ensure minimum width for readability
	return max(optimalWidth, 60)
}
