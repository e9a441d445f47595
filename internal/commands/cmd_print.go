package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/muesli/termenv"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/fragmede/threadview/internal/ui/commentview"
	"github.com/fragmede/threadview/internal/ui/threadview"
)

const defaultPrintWidth = 100

type PrintCmd struct {
	flags *Flags

	// flags
	commentID int
	width     int
	plain     bool
}

// NewPrintCmd creates a new print command
func NewPrintCmd(flags *Flags) *PrintCmd {
	return &PrintCmd{flags: flags}
}

// Register adds the print command to the application
func (cmd *PrintCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "print",
		Usage:     "Print the comments of a page",
		UsageText: "threadview print [--comment ID] [--width N] [--plain] <page-url>",
		Description: `Writes the whole comment thread of a page to stdout with all replies
shown. Colors are dropped when stdout is not a terminal or --plain is set.`,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:        "comment",
				Usage:       "comment id to highlight",
				Destination: &cmd.commentID,
			},
			&cli.IntFlag{
				Name:        "width",
				Usage:       "wrap width (defaults to the terminal width)",
				Destination: &cmd.width,
			},
			&cli.BoolFlag{
				Name:        "plain",
				Usage:       "no colors",
				Destination: &cmd.plain,
			},
		},
		Action: cmd.run,
	})
	return app
}

func (cmd *PrintCmd) run(ctx context.Context, c *cli.Command) error {
	cfg := cmd.flags.Config
	p, err := cmd.flags.openPage(c.Args().First())
	if err != nil {
		return err
	}
	defer func() { _ = p.Close() }()

	fd := int(os.Stdout.Fd())
	isTerm := term.IsTerminal(fd)

	width := cmd.width
	if width <= 0 {
		width = defaultPrintWidth
		if isTerm {
			if w, _, err := term.GetSize(fd); err == nil && w > 0 {
				width = w
			}
		}
	}

	profile := termenv.Ascii
	if isTerm && !cmd.plain {
		profile = termenv.ColorProfile()
	}
	r, err := newRenderer(cfg, profile)
	if err != nil {
		return err
	}

	opts := p.options(cfg, cmd.commentID, r)
	if p.session.Load(ctx, cfg.SessionPath()) {
		opts.Viewer = commentview.Viewer{Name: p.session.Username, Authenticated: true}
	}

	_, env, err := threadview.Load(ctx, opts)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(os.Stdout, threadview.Print(env, r, width))
	return err
}
