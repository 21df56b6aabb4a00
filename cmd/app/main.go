package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/halvard/othala/internal"
	"github.com/halvard/othala/internal/editcli"
	"github.com/halvard/othala/internal/mcpserver"
	"github.com/halvard/othala/internal/noteclient"
	"github.com/halvard/othala/internal/noteservice"
	"github.com/halvard/othala/internal/renderclient"
	"github.com/halvard/othala/internal/storage"
	pkgconfig "github.com/halvard/othala/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadIfExists(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func edit(ctx context.Context, cmd *cli.Command) error {
	noteID := cmd.Args().First()
	if noteID == "" {
		return fmt.Errorf("usage: othala edit <note-id>")
	}
	base := cmd.String("server")
	token := cmd.String("token")

	notes := noteclient.New(base, noteclient.WithToken(token))
	renderer := renderclient.New(base, renderclient.WithToken(token))

	e := editcli.New(notes, renderer)
	return e.Run(ctx, noteID, os.Stdin, os.Stdout)
}

func mcp(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	// MCP traffic uses stdout; keep logs on stderr.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	db, err := storage.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer db.Close()

	svc := noteservice.NewService(db, nil)
	return mcpserver.New(svc).ServeStdio()
}

func main() {
	configFlag := &cli.StringFlag{
		Name:        "config",
		Aliases:     []string{"c"},
		Usage:       "Path to config file",
		DefaultText: "config/config.yaml",
		Value:       "config/config.yaml",
		Sources:     cli.EnvVars("APP_CONFIG_FILE"),
	}

	cmd := &cli.Command{
		Name:  "othala",
		Usage: "Personal wiki with bidirectional wikilinks, dual-view editing, and capture tools",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API server",
				Action: serve,
				Flags:  []cli.Flag{configFlag},
			},
			{
				Name:      "edit",
				Usage:     "Edit a note in the terminal against a running server",
				ArgsUsage: "<note-id>",
				Action:    edit,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "server",
						Usage:   "API base URL",
						Value:   "http://localhost:8080/api",
						Sources: cli.EnvVars("OTHALA_SERVER"),
					},
					&cli.StringFlag{
						Name:    "token",
						Usage:   "Bearer token for the API",
						Sources: cli.EnvVars("OTHALA_TOKEN"),
					},
				},
			},
			{
				Name:   "mcp",
				Usage:  "Run the MCP server on stdio",
				Action: mcp,
				Flags:  []cli.Flag{configFlag},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
