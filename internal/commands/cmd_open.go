package commands

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/termenv"
	"github.com/urfave/cli/v3"

	"github.com/fragmede/threadview/internal/monitor"
	"github.com/fragmede/threadview/internal/ui"
)

type OpenCmd struct {
	flags *Flags

	// flags
	commentID int
	noPoll    bool
}

// NewOpenCmd creates a new open command
func NewOpenCmd(flags *Flags) *OpenCmd {
	return &OpenCmd{flags: flags}
}

// Flags returns the open flags so they can be registered on the root
// command, which opens a page when given one.
func (cmd *OpenCmd) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:        "comment",
			Usage:       "comment id to highlight and scroll to",
			Destination: &cmd.commentID,
		},
		&cli.BoolFlag{
			Name:        "no-poll",
			Usage:       "do not check the server for new comments",
			Destination: &cmd.noPoll,
		},
	}
}

// Register adds the open command to the application
func (cmd *OpenCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "open",
		Usage:     "Browse the comments of a page",
		UsageText: "threadview open [--comment ID] <page-url>",
		Description: `Opens the interactive comment thread of a participation page.

Press ? inside the view for the key bindings.`,
		Flags:  cmd.Flags(),
		Action: cmd.Run,
	})
	return app
}

// Run opens the page given as first argument.
func (cmd *OpenCmd) Run(ctx context.Context, c *cli.Command) error {
	cfg := cmd.flags.Config
	p, err := cmd.flags.openPage(c.Args().First())
	if err != nil {
		return err
	}
	defer func() { _ = p.Close() }()

	r, err := newRenderer(cfg, termenv.ColorProfile())
	if err != nil {
		return err
	}

	var mon *monitor.Monitor
	if !cmd.noPoll && cfg.PollInterval > 0 {
		mon = monitor.New(p.client, p.db, cfg.PollInterval)
	}

	app := ui.NewApp(cfg, p.options(cfg, cmd.commentID, r), p.session, mon, p.session.Host())
	prog := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	app.SetProgram(prog)
	if _, err := prog.Run(); err != nil {
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}
