package main

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/fragmede/threadview/internal/commands"
	"github.com/fragmede/threadview/internal/config"
	"github.com/fragmede/threadview/internal/logging"
)

var (
	// Build information. Populated at build-time via -ldflags flag.
	version = "dev"
	commit  = "HEAD"
)

func build() string {
	v, c := version, commit
	if v == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok {
			if mv := info.Main.Version; mv != "" && mv != "(devel)" {
				v = mv
			}
			for _, s := range info.Settings {
				if s.Key == "vcs.revision" {
					c = s.Value
				}
			}
		}
	}
	if len(c) > 7 {
		c = c[:7]
	}
	return fmt.Sprintf("%s (%s)", v, c)
}

func main() {
	ctx := context.Background()

	var logCloser func()
	flags := &commands.Flags{}

	app := &cli.Command{
		Name:      "threadview",
		Usage:     "Read and write comments of participation pages in the terminal",
		UsageText: "threadview [global options] [command] <page-url>",
		Description: `threadview shows the comment thread of an adhocracy participation page:
read, reply, edit, rate and report comments without leaving the terminal.

Run 'threadview <page-url>' to open a page.`,
		Version: build(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error, fatal, panic)",
				Sources:     cli.EnvVars("THREADVIEW_LOG_LEVEL"),
				Value:       "info",
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "path to log file (defaults to <data-dir>/threadview.log)",
				Sources:     cli.EnvVars("THREADVIEW_LOG_FILE"),
				Destination: &flags.LogFile,
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file",
				Sources:     cli.EnvVars("THREADVIEW_CONFIG"),
				Value:       config.DefaultConfigPath(),
				Destination: &flags.ConfigPath,
			},
			&cli.StringFlag{
				Name:        "data-dir",
				Usage:       "path to data directory",
				Sources:     cli.EnvVars("THREADVIEW_DATA_DIR"),
				Value:       config.DefaultDataDir(),
				Destination: &flags.DataDir,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			if err := os.MkdirAll(flags.DataDir, 0o755); err != nil {
				return ctx, fmt.Errorf("create data dir: %w", err)
			}

			cfg, err := config.Load(flags.ConfigPath, flags.DataDir)
			if err != nil {
				return ctx, fmt.Errorf("load config: %w", err)
			}
			flags.Config = cfg

			logFile := flags.LogFile
			if logFile == "" {
				logFile = cfg.LogPath()
			}
			logger, closer, err := logging.New(flags.LogLevel, logFile)
			if err != nil {
				return ctx, fmt.Errorf("setup logger: %w", err)
			}
			log.Logger = logger
			logCloser = closer
			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			if logCloser != nil {
				logCloser()
			}
			return nil
		},
	}

	openCmd := commands.NewOpenCmd(flags)

	app = openCmd.Register(app)
	app = commands.NewPrintCmd(flags).Register(app)
	app = commands.NewLoginCmd(flags).Register(app)
	app = commands.NewCacheCmd(flags).Register(app)

	// A bare page url opens it.
	app.Flags = append(app.Flags, openCmd.Flags()...)
	app.Action = func(ctx context.Context, c *cli.Command) error {
		if c.Args().Len() == 0 {
			return fmt.Errorf("missing page url. Run 'threadview --help' for usage")
		}
		return openCmd.Run(ctx, c)
	}

	exitCode := 0
	if err := app.Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		exitCode = 1
	}
	os.Exit(exitCode)
}
