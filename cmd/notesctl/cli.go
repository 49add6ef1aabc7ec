package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/urfave/cli/v2"

	"notebook-ai/internal/app"
	"notebook-ai/internal/config"
	"notebook-ai/internal/indexer"
	"notebook-ai/internal/llm"
	"notebook-ai/internal/scope"
	"notebook-ai/internal/service"
	"notebook-ai/internal/storage"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(cfg *config.Config, out io.Writer) *cli.App {
	cliApp := &cli.App{
		Name:    "notesctl",
		Usage:   "Administer the notebook retrieval index",
		Version: Version,
		Writer:  out,
		Commands: []*cli.Command{
			migrateCmd(cfg),
			embedCmd(cfg),
			unembedCmd(cfg),
			searchCmd(cfg),
			chatCmd(cfg),
			statsCmd(cfg),
			importCmd(cfg),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	cliApp.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return cliApp
}

func userFlag() cli.Flag {
	return &cli.StringFlag{Name: "user", Aliases: []string{"u"}, Required: true, Usage: "User ID"}
}

// withApp builds the application graph for one command and closes it afterwards.
func withApp(c *cli.Context, cfg *config.Config, fn func(ctx context.Context, a *app.App) error) error {
	ctx := c.Context
	a, err := app.New(ctx, cfg)
	if err != nil {
		return outputError(err)
	}
	defer a.Close()
	return fn(ctx, a)
}

// migrateCmd creates the migrate command.
func migrateCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Create or upgrade the relational schema",
		Action: func(c *cli.Context) error {
			db, err := storage.New(cfg.DBPath)
			if err != nil {
				return outputError(err)
			}
			defer func() {
				_ = db.Close()
			}()
			if err := storage.Migrate(db); err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, map[string]string{"status": "migrated", "db_path": cfg.DBPath})
		},
	}
}

// embedCmd creates the embed command.
func embedCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "embed",
		Usage: "Re-embed a published version",
		Flags: []cli.Flag{
			userFlag(),
			&cli.StringFlag{Name: "version", Required: true, Usage: "Version ID"},
		},
		Action: func(c *cli.Context) error {
			return withApp(c, cfg, func(ctx context.Context, a *app.App) error {
				result, err := a.Pipeline.EmbedVersion(ctx, c.String("user"), c.String("version"))
				if err != nil {
					return outputError(err)
				}
				return outputJSON(c.App.Writer, result)
			})
		},
	}
}

// unembedCmd creates the unembed command.
func unembedCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "unembed",
		Usage: "Remove the chunks of a version without changing its publication state",
		Flags: []cli.Flag{
			userFlag(),
			&cli.StringFlag{Name: "version", Required: true, Usage: "Version ID"},
		},
		Action: func(c *cli.Context) error {
			return withApp(c, cfg, func(ctx context.Context, a *app.App) error {
				userID, versionID := c.String("user"), c.String("version")

				version, err := a.Versions.GetByID(ctx, versionID)
				if err != nil {
					return outputError(err)
				}
				if _, err := a.Notes.GetByID(ctx, version.NoteID, userID); err != nil {
					return outputError(err)
				}

				removed, err := a.Pipeline.RemoveVersion(ctx, userID, versionID)
				if err != nil {
					return outputError(err)
				}
				return outputJSON(c.App.Writer, map[string]any{"version_id": versionID, "removed": removed})
			})
		},
	}
}

// searchCmd creates the search command.
func searchCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "Search a user's notes",
		Flags: []cli.Flag{
			userFlag(),
			&cli.StringFlag{Name: "query", Aliases: []string{"q"}, Required: true, Usage: "Search query"},
			&cli.BoolFlag{Name: "history", Usage: "Include every published version, not only the latest"},
		},
		Action: func(c *cli.Context) error {
			return withApp(c, cfg, func(ctx context.Context, a *app.App) error {
				result, err := a.SearchService.Search(ctx, service.SearchRequest{
					UserID:  c.String("user"),
					Query:   c.String("query"),
					History: c.Bool("history"),
				})
				if err != nil {
					return outputError(err)
				}
				return outputJSON(c.App.Writer, result)
			})
		},
	}
}

// chatCmd creates the chat command.
func chatCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "chat",
		Usage: "Ask a question about a user's notes",
		Flags: []cli.Flag{
			userFlag(),
			&cli.StringFlag{Name: "message", Aliases: []string{"m"}, Required: true, Usage: "Question to ask"},
			&cli.StringFlag{Name: "scope-kind", Value: string(scope.KindGlobal), Usage: "Scope kind: note|folder|global"},
			&cli.StringFlag{Name: "scope-id", Usage: "Note or folder ID for note and folder scopes"},
		},
		Action: func(c *cli.Context) error {
			s, err := scope.Parse(c.String("scope-kind"), c.String("scope-id"))
			if err != nil {
				return outputError(err)
			}
			return withApp(c, cfg, func(ctx context.Context, a *app.App) error {
				resp, err := a.ChatService.Chat(ctx, service.ChatRequest{
					UserID:  c.String("user"),
					Message: c.String("message"),
					Scope:   s,
				})
				if err != nil {
					return outputError(err)
				}
				return outputJSON(c.App.Writer, resp)
			})
		},
	}
}

// statsCmd creates the stats command.
func statsCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Report embedding coverage for a user",
		Flags: []cli.Flag{userFlag()},
		Action: func(c *cli.Context) error {
			return withApp(c, cfg, func(ctx context.Context, a *app.App) error {
				stats, err := a.StatsService.Coverage(ctx, c.String("user"))
				if err != nil {
					return outputError(err)
				}
				return outputJSON(c.App.Writer, stats)
			})
		},
	}
}

// importCmd creates the import command.
func importCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Import a directory of markdown files as notes",
		Flags: []cli.Flag{
			userFlag(),
			&cli.StringFlag{Name: "dir", Aliases: []string{"d"}, Required: true, Usage: "Directory to import"},
			&cli.BoolFlag{Name: "publish", Usage: "Publish and embed every imported note"},
		},
		Action: func(c *cli.Context) error {
			return withApp(c, cfg, func(ctx context.Context, a *app.App) error {
				result, err := a.Importer.Import(ctx, c.String("user"), c.String("dir"), c.Bool("publish"))
				if err != nil {
					return outputError(err)
				}
				return outputJSON(c.App.Writer, result)
			})
		},
	}
}

// outputJSON writes v as indented JSON.
func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	switch {
	case errors.Is(err, service.ErrRateLimited), errors.Is(err, llm.ErrRateLimited):
		return cli.Exit(fmt.Sprintf("[rate_limited] try again later: %v", err), 1)
	case errors.Is(err, service.ErrNotFound), errors.Is(err, storage.ErrNotFound):
		return cli.Exit(fmt.Sprintf("[not_found] %v", err), 1)
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, indexer.ErrNotPublished):
		return cli.Exit(fmt.Sprintf("[invalid_input] %v", err), 1)
	default:
		return cli.Exit(err.Error(), 1)
	}
}
