package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/v2/viewport"
	tea "github.com/charmbracelet/bubbletea/v2"

	"objdump2itb/internal/itb"
	"objdump2itb/internal/objdump2itb/styles"
)

type browser struct {
	viewport viewport.Model
	title    string
	count    int
	width    int
	height   int
}

func newBrowser(title, content string, count int) browser {
	vp := viewport.New()
	vp.SetWidth(80)
	vp.SetHeight(22)
	vp.SetContent(content)

	return browser{
		viewport: vp,
		title:    title,
		count:    count,
		width:    80,
		height:   24,
	}
}

func (m browser) Init() tea.Cmd {
	return nil
}

func (m browser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.SetWidth(msg.Width)
		m.viewport.SetHeight(max(msg.Height-2, 1))
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "g", "home":
			m.viewport.GotoTop()
			return m, nil
		case "G", "end":
			m.viewport.GotoBottom()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m browser) View() string {
	title := styles.FunctionStyle.Render(fmt.Sprintf(" %s: %d instructions ", m.title, m.count))
	menu := fmt.Sprintf(" %3.f%% • ↑/↓ scroll • g/G: top/bottom • Q: quit ", m.viewport.ScrollPercent()*100)
	return title + "\n" + m.viewport.View() + "\n" + styles.MenuStyle.Width(m.width).Render(menu)
}

func browse(ctx context.Context, path string, entries []itb.Entry, opts showOptions) error {
	var b strings.Builder
	l := newListing(&b, opts.color)
	for _, e := range entries {
		if err := l.write(e); err != nil {
			return err
		}
	}

	title := filepath.Base(path)
	if path == "-" {
		title = "stdin"
	}

	program := tea.NewProgram(
		newBrowser(title, b.String(), len(entries)),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	if _, err := program.Run(); err != nil {
		slog.Error("TUI run error", "error", err)
		return fmt.Errorf("TUI error: %v", err)
	}
	return nil
}
