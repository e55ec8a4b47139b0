package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/movevm/mvb2wasm/abi"
	"github.com/movevm/mvb2wasm/compiler"
	"github.com/movevm/mvb2wasm/intermediate"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	selectorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// entryItem is one row of the selector table this TUI browses: a public
// function's name, MVB signature, and the 4-byte selector dispatch.Build
// computes the same way (§4.5/§4.7). It implements list.DefaultItem so
// bubbles/list can render it without a custom delegate.
type entryItem struct {
	module   string
	name     string
	wireSig  string
	selector [4]byte
}

func (e entryItem) Title() string {
	return fmt.Sprintf("%s::%s%s", e.module, e.name, e.wireSig)
}

func (e entryItem) Description() string {
	return selectorStyle.Render(fmt.Sprintf("selector %#x", e.selector))
}

func (e entryItem) FilterValue() string { return e.name }

func buildEntries(pkg compiler.Package) []list.Item {
	var out []list.Item
	for _, md := range pkg.Modules {
		for _, fn := range md.Functions {
			if !fn.IsPublic {
				continue
			}
			sel, err := abi.Selector(fn.Identifier, fn.Params)
			if err != nil {
				continue
			}
			out = append(out, entryItem{
				module:   md.ID.String(),
				name:     fn.Identifier,
				wireSig:  wireSignature(fn.Params),
				selector: sel,
			})
		}
	}
	return out
}

func wireSignature(params []intermediate.Type) string {
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = p.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// selectorBrowser is a thin wrapper around bubbles/list: the dispatcher's
// selector table is exactly the kind of static, scrollable list that
// component already renders, so there is nothing this package needs to
// reimplement beyond wiring its own items in.
type selectorBrowser struct {
	list list.Model
}

func newSelectorBrowser(pkg compiler.Package) selectorBrowser {
	items := buildEntries(pkg)
	delegate := list.NewDefaultDelegate()
	l := list.New(items, delegate, 0, 0)
	l.Title = "compiled entrypoint selectors"
	l.Styles.Title = titleStyle
	l.SetShowHelp(true)
	return selectorBrowser{list: l}
}

func (m selectorBrowser) Init() tea.Cmd { return nil }

func (m selectorBrowser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width, msg.Height-2)
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m selectorBrowser) View() string {
	return m.list.View() + "\n" + helpStyle.Render("q to quit")
}

// runInteractive launches a read-only TUI over pkg's public function
// selector table, grounded on cmd/run/interactive.go's bubbletea harness
// and the teacher's own bubbles dependency, reduced from a full
// call-and-inspect REPL to a browser — this CLI already compiled the
// module earlier in main; there is nothing left to invoke, only the
// selector table to inspect.
func runInteractive(pkg compiler.Package) error {
	p := tea.NewProgram(newSelectorBrowser(pkg), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
