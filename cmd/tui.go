package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/mkplaylist/internal/shared"
	"github.com/desertthunder/mkplaylist/internal/tasks"
	"github.com/desertthunder/mkplaylist/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive browser over the local mirror.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	st, err := r.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/mkplaylist-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	browser := tasks.NewBrowser(st.lists, st.tracks)
	merger := st.merger(r.logger)

	model := ui.NewModel(ctx, browser, merger)
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
