// Copyright 2026 The Comptree Authors
// SPDX-License-Identifier: Apache-2.0

package treeui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/componentfabric/comptree/tree"
)

// Config configures a watch session.
type Config struct {
	// Tree is the parsed tree to watch. Required.
	Tree *tree.Tree

	// Path is the subtree to display. Empty means the whole tree.
	Path string

	// Interval is the reparse period. Values <= 0 fall back to two
	// seconds.
	Interval time.Duration

	// Logger receives reparse failures. nil means slog.Default().
	Logger *slog.Logger
}

// reparseTickMsg fires when the reparse interval elapses.
type reparseTickMsg struct{}

// reparseDoneMsg is sent when a background reparse completes. A
// failed server keeps its previous children, so err is informational:
// the rows are rebuilt either way.
type reparseDoneMsg struct {
	err  error
	took time.Duration
}

// row is one rendered line of the tree view.
type row struct {
	path        string
	name        string
	typeName    string
	depth       int
	kind        tree.Kind
	zombie      bool
	hasChildren bool
	collapsed   bool
}

// Model is the bubbletea model for the watch view.
type Model struct {
	tree     *tree.Tree
	path     string
	interval time.Duration
	logger   *slog.Logger
	theme    Theme
	keys     KeyMap

	// Remote calls issued by background reparses use this context;
	// canceling it (the command's interrupt context) stops them.
	ctx context.Context

	// Terminal dimensions (set by WindowSizeMsg).
	width  int
	height int
	ready  bool

	// List state. selectedPath keeps the cursor on the same node
	// across rebuilds; collapsed is keyed by node path.
	rows         []row
	cursor       int
	scrollOffset int
	selectedPath string
	collapsed    map[string]bool
	hideZombies  bool

	// Reparse state for the status line.
	reparsing   bool
	lastReparse time.Time
	lastError   string
}

// NewModel builds a watch model over an already-parsed tree.
func NewModel(ctx context.Context, config Config) (Model, error) {
	if config.Tree == nil {
		return Model{}, errors.New("treeui: config needs a tree")
	}
	path := config.Path
	if path == "" {
		path = "/"
	}
	if _, err := config.Tree.Lookup(path); err != nil {
		return Model{}, err
	}
	interval := config.Interval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	model := Model{
		tree:      config.Tree,
		path:      path,
		interval:  interval,
		logger:    logger,
		theme:     DefaultTheme,
		keys:      DefaultKeyMap,
		ctx:       ctx,
		collapsed: make(map[string]bool),
	}
	model.rebuildRows()
	if len(model.rows) > 0 {
		model.selectedPath = model.rows[0].path
	}
	return model, nil
}

// Run builds a model from config and runs the watch program until the
// user quits or ctx is canceled.
func Run(ctx context.Context, config Config) error {
	model, err := NewModel(ctx, config)
	if err != nil {
		return err
	}
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err = program.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		// Interrupt-driven shutdown is a normal exit for a watch.
		return nil
	}
	return err
}

// Init implements tea.Model: it schedules the first reparse tick.
func (model Model) Init() tea.Cmd {
	return model.scheduleTick()
}

func (model Model) scheduleTick() tea.Cmd {
	return tea.Tick(model.interval, func(time.Time) tea.Msg {
		return reparseTickMsg{}
	})
}

// reparseCmd runs one reparse off the event loop and reports how it
// went.
func (model Model) reparseCmd() tea.Cmd {
	tr, ctx := model.tree, model.ctx
	return func() tea.Msg {
		start := time.Now()
		err := tr.Reparse(ctx)
		return reparseDoneMsg{err: err, took: time.Since(start)}
	}
}

// Update implements tea.Model.
func (model Model) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch message := message.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(message, model.keys.Quit):
			return model, tea.Quit

		case key.Matches(message, model.keys.Up):
			model.moveCursor(-1)

		case key.Matches(message, model.keys.Down):
			model.moveCursor(1)

		case key.Matches(message, model.keys.PageUp):
			model.moveCursor(-model.bodyHeight())

		case key.Matches(message, model.keys.PageDown):
			model.moveCursor(model.bodyHeight())

		case key.Matches(message, model.keys.Home):
			model.cursor = 0
			model.rememberSelection()
			model.clampScroll()

		case key.Matches(message, model.keys.End):
			model.cursor = len(model.rows) - 1
			model.rememberSelection()
			model.clampScroll()

		case key.Matches(message, model.keys.Collapse):
			model.collapseAtCursor()

		case key.Matches(message, model.keys.Expand):
			model.expandAtCursor()

		case key.Matches(message, model.keys.ToggleZombies):
			model.hideZombies = !model.hideZombies
			model.rebuildRows()
			model.restoreSelection()

		case key.Matches(message, model.keys.Refresh):
			if !model.reparsing {
				model.reparsing = true
				return model, model.reparseCmd()
			}
		}

	case tea.WindowSizeMsg:
		model.width = message.Width
		model.height = message.Height
		model.ready = true
		model.clampScroll()

	case reparseTickMsg:
		if model.reparsing {
			return model, model.scheduleTick()
		}
		model.reparsing = true
		return model, model.reparseCmd()

	case reparseDoneMsg:
		model.reparsing = false
		model.lastReparse = time.Now()
		if message.err != nil {
			model.lastError = message.err.Error()
			model.logger.Warn("reparse failed", "error", message.err, "took", message.took)
		} else {
			model.lastError = ""
		}
		model.rebuildRows()
		model.restoreSelection()
		return model, model.scheduleTick()
	}
	return model, nil
}

func (model *Model) moveCursor(delta int) {
	model.cursor += delta
	if model.cursor < 0 {
		model.cursor = 0
	}
	if model.cursor >= len(model.rows) {
		model.cursor = len(model.rows) - 1
	}
	model.rememberSelection()
	model.clampScroll()
}

func (model *Model) rememberSelection() {
	if model.cursor >= 0 && model.cursor < len(model.rows) {
		model.selectedPath = model.rows[model.cursor].path
	}
}

// collapseAtCursor folds the subtree under the cursor; on an already
// folded (or leaf) row it jumps to the parent row instead.
func (model *Model) collapseAtCursor() {
	if model.cursor < 0 || model.cursor >= len(model.rows) {
		return
	}
	current := model.rows[model.cursor]
	if current.hasChildren && !current.collapsed {
		model.collapsed[current.path] = true
		model.rebuildRows()
		model.restoreSelection()
		return
	}
	for index := model.cursor - 1; index >= 0; index-- {
		if model.rows[index].depth < current.depth {
			model.cursor = index
			model.rememberSelection()
			model.clampScroll()
			return
		}
	}
}

func (model *Model) expandAtCursor() {
	if model.cursor < 0 || model.cursor >= len(model.rows) {
		return
	}
	current := model.rows[model.cursor]
	if current.hasChildren && current.collapsed {
		delete(model.collapsed, current.path)
		model.rebuildRows()
		model.restoreSelection()
	}
}

// rebuildRows flattens the watched subtree into display rows,
// honoring the collapse map and the zombie filter. The walk touches
// only the mirrored tree; no remote calls.
func (model *Model) rebuildRows() {
	model.rows = model.rows[:0]
	node, err := model.tree.Lookup(model.path)
	if err != nil || node == nil {
		model.lastError = fmt.Sprintf("no node at %q", model.path)
		return
	}
	model.appendRows(node, 0)
}

func (model *Model) appendRows(n tree.Node, depth int) {
	if model.hideZombies && n.IsZombie() {
		return
	}
	path := n.PathString()
	children := n.Children()
	collapsed := model.collapsed[path]
	r := row{
		path:        path,
		name:        n.Name(),
		depth:       depth,
		kind:        n.Kind(),
		zombie:      n.IsZombie(),
		hasChildren: len(children) > 0,
		collapsed:   collapsed,
	}
	if component, ok := n.(*tree.Component); ok && !component.IsZombie() {
		r.typeName = component.TypeName()
	}
	model.rows = append(model.rows, r)
	if collapsed {
		return
	}
	for _, child := range children {
		model.appendRows(child, depth+1)
	}
}

// restoreSelection keeps the cursor on the previously selected node
// when it still exists, clamping otherwise.
func (model *Model) restoreSelection() {
	for index, r := range model.rows {
		if r.path == model.selectedPath {
			model.cursor = index
			model.clampScroll()
			return
		}
	}
	if model.cursor >= len(model.rows) {
		model.cursor = len(model.rows) - 1
	}
	if model.cursor < 0 {
		model.cursor = 0
	}
	model.rememberSelection()
	model.clampScroll()
}

// bodyHeight is the number of tree rows that fit between the header
// and the help line.
func (model Model) bodyHeight() int {
	height := model.height - 2
	if height < 1 {
		height = 1
	}
	return height
}

func (model *Model) clampScroll() {
	body := model.bodyHeight()
	if model.cursor < model.scrollOffset {
		model.scrollOffset = model.cursor
	}
	if model.cursor >= model.scrollOffset+body {
		model.scrollOffset = model.cursor - body + 1
	}
	if model.scrollOffset < 0 {
		model.scrollOffset = 0
	}
}

// View implements tea.Model.
func (model Model) View() string {
	if !model.ready {
		return "loading..."
	}

	var view strings.Builder
	view.WriteString(model.headerLine())
	view.WriteString("\n")

	body := model.bodyHeight()
	end := model.scrollOffset + body
	if end > len(model.rows) {
		end = len(model.rows)
	}
	for index := model.scrollOffset; index < end; index++ {
		view.WriteString(model.renderRow(index))
		view.WriteString("\n")
	}
	for filler := end - model.scrollOffset; filler < body; filler++ {
		view.WriteString("\n")
	}

	view.WriteString(model.helpLine())
	return view.String()
}

func (model Model) headerLine() string {
	header := lipgloss.NewStyle().
		Foreground(model.theme.HeaderForeground).
		Bold(true).
		Render(fmt.Sprintf("watch %s", model.path))

	status := fmt.Sprintf("every %s", model.interval)
	if model.reparsing {
		status = "reparsing..."
	} else if !model.lastReparse.IsZero() {
		status = fmt.Sprintf("reparsed %s", model.lastReparse.Format("15:04:05"))
	}
	if model.hideZombies {
		status += " · zombies hidden"
	}
	line := header + "  " + lipgloss.NewStyle().Foreground(model.theme.FaintText).Render(status)

	if model.lastError != "" {
		line += "  " + lipgloss.NewStyle().Foreground(model.theme.ErrorText).Render(model.lastError)
	}
	return line
}

func (model Model) renderRow(index int) string {
	r := model.rows[index]

	marker := "  "
	if r.hasChildren {
		if r.collapsed {
			marker = "▸ "
		} else {
			marker = "▾ "
		}
	}
	label := r.name
	if r.typeName != "" {
		label += " (" + r.typeName + ")"
	}
	if r.zombie {
		label += " [zombie]"
	}
	text := strings.Repeat("  ", r.depth) + marker + label

	style := lipgloss.NewStyle().Foreground(model.theme.KindColor(r.kind))
	if r.zombie {
		style = lipgloss.NewStyle().Foreground(model.theme.ZombieText)
	}
	if index == model.cursor {
		style = style.
			Background(model.theme.SelectedBackground).
			Foreground(model.theme.SelectedForeground)
	}
	return style.Render(text)
}

func (model Model) helpLine() string {
	bindings := []key.Binding{
		model.keys.Up,
		model.keys.Down,
		model.keys.Collapse,
		model.keys.Expand,
		model.keys.Refresh,
		model.keys.ToggleZombies,
		model.keys.Quit,
	}
	parts := make([]string, 0, len(bindings))
	for _, binding := range bindings {
		help := binding.Help()
		parts = append(parts, help.Key+" "+help.Desc)
	}
	return lipgloss.NewStyle().
		Foreground(model.theme.HelpText).
		Render(strings.Join(parts, " · "))
}
