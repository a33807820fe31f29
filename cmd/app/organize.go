package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/starford/notekeep/internal/noteservice"
)

func tagsCommand() *cli.Command {
	return &cli.Command{
		Name:  "tags",
		Usage: "List every tag in use",
		Action: withService(func(ctx context.Context, _ *cli.Command, svc *noteservice.Service) error {
			tags, err := svc.ListTags(ctx)
			if err != nil {
				return err
			}
			for _, t := range tags {
				if _, err := fmt.Fprintln(stdout, t); err != nil {
					return err
				}
			}
			return nil
		}),
	}
}

func tagCommand() *cli.Command {
	return &cli.Command{
		Name:  "tag",
		Usage: "Add or remove a tag by hand",
		Commands: []*cli.Command{
			{
				Name:      "add",
				ArgsUsage: "<tag> <id>...",
				Action: withService(func(ctx context.Context, cmd *cli.Command, svc *noteservice.Service) error {
					tag, err := argAt(cmd, 0, "tag")
					if err != nil {
						return err
					}
					notes, err := svc.AddTagToNotes(ctx, cmd.Args().Tail(), tag)
					if err != nil {
						return err
					}
					return printNotes(notes)
				}),
			},
			{
				Name:      "rm",
				ArgsUsage: "<tag> <id>",
				Action: withService(func(ctx context.Context, cmd *cli.Command, svc *noteservice.Service) error {
					tag, err := argAt(cmd, 0, "tag")
					if err != nil {
						return err
					}
					id, err := argAt(cmd, 1, "id")
					if err != nil {
						return err
					}
					meta, err := svc.RemoveTagFromNote(ctx, id, tag)
					if err != nil {
						return err
					}
					return printJSON(meta)
				}),
			},
		},
	}
}

func notebooksCommand() *cli.Command {
	return &cli.Command{
		Name:  "notebooks",
		Usage: "Manage notebooks",
		Commands: []*cli.Command{
			{
				Name: "list",
				Action: withService(func(ctx context.Context, _ *cli.Command, svc *noteservice.Service) error {
					books, err := svc.ListNotebooks(ctx)
					if err != nil {
						return err
					}
					for _, nb := range books {
						state := ""
						if nb.Archived {
							state = " (archived)"
						}
						if _, err := fmt.Fprintf(stdout, "%s  %s%s\n", nb.ID, nb.Name, state); err != nil {
							return err
						}
					}
					return nil
				}),
			},
			{
				Name:      "create",
				ArgsUsage: "<name>",
				Action: withService(func(ctx context.Context, cmd *cli.Command, svc *noteservice.Service) error {
					nb, err := svc.CreateNotebook(ctx, strings.Join(cmd.Args().Slice(), " "))
					if err != nil {
						return err
					}
					return printJSON(nb)
				}),
			},
			{
				Name:      "move",
				Usage:     "File a note into a notebook; omit the notebook to unfile it",
				ArgsUsage: "<note-id> [notebook-id]",
				Action: withService(func(ctx context.Context, cmd *cli.Command, svc *noteservice.Service) error {
					id, err := argAt(cmd, 0, "note-id")
					if err != nil {
						return err
					}
					meta, err := svc.MoveNote(ctx, id, cmd.Args().Get(1))
					if err != nil {
						return err
					}
					return printJSON(meta)
				}),
			},
			{
				Name:      "archive",
				ArgsUsage: "<id>",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "off", Usage: "Unarchive instead"},
				},
				Action: withService(func(ctx context.Context, cmd *cli.Command, svc *noteservice.Service) error {
					id, err := argAt(cmd, 0, "id")
					if err != nil {
						return err
					}
					nb, err := svc.ArchiveNotebook(ctx, id, !cmd.Bool("off"))
					if err != nil {
						return err
					}
					return printJSON(nb)
				}),
			},
			{
				Name:      "rename",
				ArgsUsage: "<id> <name>",
				Action: withService(func(ctx context.Context, cmd *cli.Command, svc *noteservice.Service) error {
					id, err := argAt(cmd, 0, "id")
					if err != nil {
						return err
					}
					nb, err := svc.RenameNotebook(ctx, id, strings.Join(cmd.Args().Tail(), " "))
					if err != nil {
						return err
					}
					return printJSON(nb)
				}),
			},
		},
	}
}

func templatesCommand() *cli.Command {
	return &cli.Command{
		Name:  "templates",
		Usage: "Manage note templates",
		Commands: []*cli.Command{
			{
				Name: "list",
				Action: withService(func(ctx context.Context, _ *cli.Command, svc *noteservice.Service) error {
					tpls, err := svc.ListTemplates(ctx)
					if err != nil {
						return err
					}
					for _, tpl := range tpls {
						if _, err := fmt.Fprintf(stdout, "%s  %s\n", tpl.ID, tpl.Name); err != nil {
							return err
						}
					}
					return nil
				}),
			},
			{
				Name:      "create",
				ArgsUsage: "<name>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "body", Usage: "Template body; {{date}} and {{title}} are substituted"},
					&cli.StringFlag{Name: "file", Usage: "Read the body from a file, - for stdin"},
				},
				Action: withService(func(ctx context.Context, cmd *cli.Command, svc *noteservice.Service) error {
					body, err := textInput(cmd, "body")
					if err != nil {
						return err
					}
					tpl, err := svc.SaveCustomTemplate(ctx, strings.Join(cmd.Args().Slice(), " "), body)
					if err != nil {
						return err
					}
					return printJSON(tpl)
				}),
			},
			{
				Name:      "delete",
				ArgsUsage: "<id>",
				Action: withService(func(ctx context.Context, cmd *cli.Command, svc *noteservice.Service) error {
					id, err := argAt(cmd, 0, "id")
					if err != nil {
						return err
					}
					return svc.DeleteCustomTemplate(ctx, id)
				}),
			},
			{
				Name:      "use",
				Usage:     "Create a note from a template",
				ArgsUsage: "<id> [title]",
				Action: withService(func(ctx context.Context, cmd *cli.Command, svc *noteservice.Service) error {
					id, err := argAt(cmd, 0, "id")
					if err != nil {
						return err
					}
					meta, err := svc.CreateFromTemplate(ctx, id, strings.Join(cmd.Args().Tail(), " "))
					if err != nil {
						return err
					}
					return printJSON(meta)
				}),
			},
		},
	}
}

func attachCommand() *cli.Command {
	return &cli.Command{
		Name:  "attach",
		Usage: "Manage a note's image attachments",
		Commands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "Copy image files into the note",
				ArgsUsage: "<id> <path>...",
				Action: withService(func(ctx context.Context, cmd *cli.Command, svc *noteservice.Service) error {
					id, err := argAt(cmd, 0, "id")
					if err != nil {
						return err
					}
					meta, err := svc.AttachImages(ctx, id, cmd.Args().Tail())
					if err != nil {
						return err
					}
					return printJSON(meta.Images)
				}),
			},
			{
				Name:      "paste",
				Usage:     "Attach base64 image data read from stdin",
				ArgsUsage: "<id> [name]",
				Action: withService(func(ctx context.Context, cmd *cli.Command, svc *noteservice.Service) error {
					id, err := argAt(cmd, 0, "id")
					if err != nil {
						return err
					}
					data, err := io.ReadAll(os.Stdin)
					if err != nil {
						return fmt.Errorf("read stdin: %w", err)
					}
					meta, err := svc.AttachImageData(ctx, id, string(data), cmd.Args().Get(1))
					if err != nil {
						return err
					}
					return printJSON(meta.Images)
				}),
			},
			{
				Name:      "rm",
				ArgsUsage: "<id> <path>",
				Action: withService(func(ctx context.Context, cmd *cli.Command, svc *noteservice.Service) error {
					id, err := argAt(cmd, 0, "id")
					if err != nil {
						return err
					}
					rel, err := argAt(cmd, 1, "path")
					if err != nil {
						return err
					}
					meta, err := svc.RemoveAttachment(ctx, id, rel)
					if err != nil {
						return err
					}
					return printJSON(meta.Images)
				}),
			},
			{
				Name:      "rename",
				ArgsUsage: "<id> <path> <name>",
				Action: withService(func(ctx context.Context, cmd *cli.Command, svc *noteservice.Service) error {
					id, err := argAt(cmd, 0, "id")
					if err != nil {
						return err
					}
					rel, err := argAt(cmd, 1, "path")
					if err != nil {
						return err
					}
					meta, err := svc.RenameAttachment(ctx, id, rel, strings.Join(cmd.Args().Slice()[2:], " "))
					if err != nil {
						return err
					}
					return printJSON(meta.Images)
				}),
			},
			{
				Name:      "path",
				Usage:     "Print the absolute path of an attachment",
				ArgsUsage: "<path>",
				Action: withService(func(_ context.Context, cmd *cli.Command, svc *noteservice.Service) error {
					rel, err := argAt(cmd, 0, "path")
					if err != nil {
						return err
					}
					abs, err := svc.ResolveImagePath(rel)
					if err != nil {
						return err
					}
					_, err = fmt.Fprintln(stdout, abs)
					return err
				}),
			},
		},
	}
}
