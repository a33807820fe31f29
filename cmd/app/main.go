package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/notekeep/internal"
	"github.com/starford/notekeep/internal/mcpserver"
	"github.com/starford/notekeep/internal/noteservice"
	pkgconfig "github.com/starford/notekeep/pkg/config"
)

var version = "dev"

var stdout io.Writer = os.Stdout

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOrDefault(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	// The flag wins over the file.
	if root := cmd.String("root"); root != "" {
		cfg.Storage.Root = root
	}
	return cfg, nil
}

type serviceAction func(ctx context.Context, cmd *cli.Command, svc *noteservice.Service) error

// withService opens the configured storage root before running fn. CLI
// commands log to stderr so stdout carries only command output.
func withService(fn serviceAction) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		svc, err := internal.OpenService(cfg, internal.NewLogger(cfg, os.Stderr))
		if err != nil {
			return err
		}
		return fn(ctx, cmd, svc)
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// argAt returns the i-th positional argument or a usage error naming it.
func argAt(cmd *cli.Command, i int, name string) (string, error) {
	v := cmd.Args().Get(i)
	if strings.TrimSpace(v) == "" {
		return "", fmt.Errorf("missing argument <%s>", name)
	}
	return v, nil
}

// textInput returns the --<flag> value, or the content of --file ("-" reads stdin).
func textInput(cmd *cli.Command, flag string) (string, error) {
	path := cmd.String("file")
	if path == "" {
		return cmd.String(flag), nil
	}
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if s := cmd.String("socket"); s != "" {
		cfg.IPC.Socket = s
	}

	opts := []internal.Option{
		internal.WithConfig(cfg),
		internal.WithVersion(version),
	}

	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}

	return nil
}

func serveMCP(_ context.Context, _ *cli.Command, svc *noteservice.Service) error {
	return mcpserver.New(svc, version).ServeStdio()
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:    "notekeep",
		Usage:   "Local-first note store with tags, links, version history and a query language",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
			&cli.StringFlag{
				Name:    "root",
				Usage:   "Storage root directory (overrides storage.root)",
				Sources: cli.EnvVars("NOTEKEEP_ROOT"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "init",
				Usage:  "Create the storage layout and an empty index",
				Action: withService(initRoot),
			},
			listCommand(),
			showCommand(),
			saveCommand(),
			renameCommand(),
			deleteCommand(),
			searchCommand(),
			tagsCommand(),
			tagCommand(),
			starCommand(),
			backlinksCommand(),
			versionsCommand(),
			dailyCommand(),
			exportCommand(),
			importCommand(),
			mergeCommand(),
			duplicateCommand(),
			notebooksCommand(),
			templatesCommand(),
			attachCommand(),
			syncFolderCommand(),
			backupCommand(),
			reconcileCommand(),
			{
				Name:  "serve",
				Usage: "Serve the JSON command shim on a unix socket",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "socket", Usage: "Unix socket path (overrides ipc.socket)"},
				},
				Action: serve,
			},
			{
				Name:   "mcp",
				Usage:  "Serve notekeep tools over MCP on stdin/stdout",
				Action: withService(serveMCP),
			},
		},
	}
}

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func initRoot(_ context.Context, _ *cli.Command, svc *noteservice.Service) error {
	_, err := fmt.Fprintln(stdout, svc.Root())
	return err
}
