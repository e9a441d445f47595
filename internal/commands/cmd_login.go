package commands

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
)

type LoginCmd struct {
	flags *Flags

	// flags
	username string
}

// NewLoginCmd creates the login and logout commands
func NewLoginCmd(flags *Flags) *LoginCmd {
	return &LoginCmd{flags: flags}
}

// Register adds the login and logout commands to the application
func (cmd *LoginCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands,
		&cli.Command{
			Name:      "login",
			Usage:     "Sign in to the site of a page",
			UsageText: "threadview login [--username NAME] <page-url>",
			Description: `Prompts for the password and stores the session cookies in the data
directory, readable only by you. The password itself is not stored.

Set THREADVIEW_PASSWORD to skip the prompt.`,
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:        "username",
					Aliases:     []string{"u"},
					Usage:       "username or email",
					Sources:     cli.EnvVars("THREADVIEW_USERNAME"),
					Destination: &cmd.username,
				},
			},
			Action: cmd.login,
		},
		&cli.Command{
			Name:      "logout",
			Usage:     "Forget the stored session",
			UsageText: "threadview logout <page-url>",
			Action:    cmd.logout,
		},
	)
	return app
}

func (cmd *LoginCmd) login(ctx context.Context, c *cli.Command) error {
	p, err := cmd.flags.openPage(c.Args().First())
	if err != nil {
		return err
	}
	defer func() { _ = p.Close() }()

	username := cmd.username
	password := os.Getenv("THREADVIEW_PASSWORD")
	if username == "" || password == "" {
		form := huh.NewForm(huh.NewGroup(
			huh.NewInput().
				Title("Username or email").
				Value(&username).
				Validate(required("username")),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&password).
				Validate(required("password")),
		).Title("Login to " + p.session.Host()))
		if err := form.RunWithContext(ctx); err != nil {
			return err
		}
	}

	if err := p.session.Login(ctx, strings.TrimSpace(username), password); err != nil {
		return err
	}
	if err := p.session.Save(cmd.flags.Config.SessionPath()); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	log.Info().Str("host", p.session.Host()).Msg("session saved")
	fmt.Printf("Logged in as %s\n", p.session.Username)
	return nil
}

func (cmd *LoginCmd) logout(ctx context.Context, c *cli.Command) error {
	p, err := cmd.flags.openPage(c.Args().First())
	if err != nil {
		return err
	}
	defer func() { _ = p.Close() }()

	if err := p.session.Logout(cmd.flags.Config.SessionPath()); err != nil {
		return err
	}
	fmt.Println("Logged out")
	return nil
}

func required(name string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", name)
		}
		return nil
	}
}
