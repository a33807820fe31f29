package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/starford/notekeep/internal/noteservice"
)

func exportCommand() *cli.Command {
	format := func(name, usage string, render func(*noteservice.Service) func(context.Context, string) (string, error)) *cli.Command {
		return &cli.Command{
			Name:      name,
			Usage:     usage,
			ArgsUsage: "<id>",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "Write to a file instead of stdout"},
			},
			Action: withService(func(ctx context.Context, cmd *cli.Command, svc *noteservice.Service) error {
				id, err := argAt(cmd, 0, "id")
				if err != nil {
					return err
				}
				text, err := render(svc)(ctx, id)
				if err != nil {
					return err
				}
				if out := cmd.String("out"); out != "" {
					return noteservice.WriteTextFile(out, text)
				}
				_, err = fmt.Fprint(stdout, text)
				return err
			}),
		}
	}
	return &cli.Command{
		Name:  "export",
		Usage: "Render a note as text, Markdown or HTML",
		Commands: []*cli.Command{
			format("text", "Title and body as plain text", func(s *noteservice.Service) func(context.Context, string) (string, error) {
				return s.ExportText
			}),
			format("md", "Markdown with tag and date frontmatter", func(s *noteservice.Service) func(context.Context, string) (string, error) {
				return s.ExportMarkdown
			}),
			format("html", "HTML fragment", func(s *noteservice.Service) func(context.Context, string) (string, error) {
				return s.ExportHTML
			}),
		},
	}
}

func importCommand() *cli.Command {
	return &cli.Command{
		Name:      "import-md",
		Usage:     "Create a note from a Markdown file",
		ArgsUsage: "<path>",
		Action: withService(func(ctx context.Context, cmd *cli.Command, svc *noteservice.Service) error {
			path, err := argAt(cmd, 0, "path")
			if err != nil {
				return err
			}
			meta, err := svc.ImportMarkdown(ctx, path)
			if err != nil {
				return err
			}
			return printJSON(meta)
		}),
	}
}

func syncFolderCommand() *cli.Command {
	return &cli.Command{
		Name:  "sync-folder",
		Usage: "Show or set the advisory sync folder",
		Commands: []*cli.Command{
			{
				Name: "get",
				Action: withService(func(ctx context.Context, _ *cli.Command, svc *noteservice.Service) error {
					folder, err := svc.GetSyncFolder(ctx)
					if err != nil {
						return err
					}
					if folder == nil {
						return nil
					}
					_, err = fmt.Fprintln(stdout, *folder)
					return err
				}),
			},
			{
				Name:      "set",
				Usage:     "Set the folder; no argument clears it",
				ArgsUsage: "[path]",
				Action: withService(func(ctx context.Context, cmd *cli.Command, svc *noteservice.Service) error {
					var folder *string
					if p := cmd.Args().First(); p != "" {
						folder = &p
					}
					return svc.SetSyncFolder(ctx, folder)
				}),
			},
		},
	}
}

func backupCommand() *cli.Command {
	return &cli.Command{
		Name:  "backup",
		Usage: "Copy notes, metadata and images to or from a directory",
		Commands: []*cli.Command{
			{
				Name:      "export",
				ArgsUsage: "<dir>",
				Action: withService(func(ctx context.Context, cmd *cli.Command, svc *noteservice.Service) error {
					dir, err := argAt(cmd, 0, "dir")
					if err != nil {
						return err
					}
					return svc.ExportBackup(ctx, dir)
				}),
			},
			{
				Name:      "import",
				Usage:     "Overwrite notes, metadata and images from a backup directory",
				ArgsUsage: "<dir>",
				Action: withService(func(ctx context.Context, cmd *cli.Command, svc *noteservice.Service) error {
					dir, err := argAt(cmd, 0, "dir")
					if err != nil {
						return err
					}
					return svc.ImportBackup(ctx, dir)
				}),
			},
		},
	}
}
