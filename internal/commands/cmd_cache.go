package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/fragmede/threadview/internal/cache"
)

type CacheCmd struct {
	flags *Flags
}

// NewCacheCmd creates a new cache command
func NewCacheCmd(flags *Flags) *CacheCmd {
	return &CacheCmd{flags: flags}
}

// Register adds the cache command to the application
func (cmd *CacheCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "cache",
		Usage: "Manage the local comment cache",
		Commands: []*cli.Command{
			{
				Name:   "clear",
				Usage:  "Remove all cached pages, threads and seen comments",
				Action: cmd.clear,
			},
		},
	})
	return app
}

func (cmd *CacheCmd) clear(ctx context.Context, c *cli.Command) error {
	db, err := cache.Open(cmd.flags.Config.DBPath())
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	defer func() { _ = db.Close() }()

	if err := db.Clear(); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	fmt.Println("Cache cleared")
	return nil
}
