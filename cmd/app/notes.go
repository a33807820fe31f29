package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/starford/notekeep/internal/models"
	"github.com/starford/notekeep/internal/noteservice"
)

func printNotes(notes []models.NoteMeta) error {
	for _, n := range notes {
		star := " "
		if n.Important {
			star = "*"
		}
		if _, err := fmt.Fprintf(stdout, "%s %s  %s  %s\n", star, n.ID, n.UpdatedAt, n.Title); err != nil {
			return err
		}
	}
	return nil
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List notes",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "tag", Usage: "Only notes carrying this exact tag"},
			&cli.BoolFlag{Name: "json", Usage: "Print JSON"},
		},
		Action: withService(func(ctx context.Context, cmd *cli.Command, svc *noteservice.Service) error {
			var (
				notes []models.NoteMeta
				err   error
			)
			if tag := cmd.String("tag"); tag != "" {
				notes, err = svc.NotesByTag(ctx, tag)
			} else {
				notes, err = svc.ListNotes(ctx)
			}
			if err != nil {
				return err
			}
			if cmd.Bool("json") {
				return printJSON(notes)
			}
			return printNotes(notes)
		}),
	}
}

func showCommand() *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Print a note's metadata and body",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "body", Usage: "Print only the body"},
		},
		Action: withService(func(ctx context.Context, cmd *cli.Command, svc *noteservice.Service) error {
			id, err := argAt(cmd, 0, "id")
			if err != nil {
				return err
			}
			note, err := svc.ReadNote(ctx, id)
			if err != nil {
				return err
			}
			if cmd.Bool("body") {
				_, err = fmt.Fprint(stdout, note.Body)
				return err
			}
			return printJSON(note)
		}),
	}
}

func saveCommand() *cli.Command {
	return &cli.Command{
		Name:  "save",
		Usage: "Create or update a note",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "id", Usage: "Note id; empty creates a new note"},
			&cli.StringFlag{Name: "title", Usage: "Note title"},
			&cli.StringFlag{Name: "body", Usage: "Note body"},
			&cli.StringFlag{Name: "file", Usage: "Read the body from a file, - for stdin"},
		},
		Action: withService(func(ctx context.Context, cmd *cli.Command, svc *noteservice.Service) error {
			body, err := textInput(cmd, "body")
			if err != nil {
				return err
			}
			meta, err := svc.SaveNote(ctx, cmd.String("id"), cmd.String("title"), body)
			if err != nil {
				return err
			}
			return printJSON(meta)
		}),
	}
}

func renameCommand() *cli.Command {
	return &cli.Command{
		Name:      "rename",
		Usage:     "Change a note's title without touching tags or history",
		ArgsUsage: "<id> <title>",
		Action: withService(func(ctx context.Context, cmd *cli.Command, svc *noteservice.Service) error {
			id, err := argAt(cmd, 0, "id")
			if err != nil {
				return err
			}
			meta, err := svc.UpdateTitle(ctx, id, strings.Join(cmd.Args().Tail(), " "))
			if err != nil {
				return err
			}
			return printJSON(meta)
		}),
	}
}

func deleteCommand() *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete notes with their history and attachments",
		ArgsUsage: "<id>...",
		Action: withService(func(ctx context.Context, cmd *cli.Command, svc *noteservice.Service) error {
			ids := cmd.Args().Slice()
			switch len(ids) {
			case 0:
				return fmt.Errorf("missing argument <id>")
			case 1:
				return svc.DeleteNote(ctx, ids[0])
			default:
				return svc.BatchDelete(ctx, ids)
			}
		}),
	}
}

func searchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Filter notes: words, tag:x, is:starred, date:today|week|month, has:images|tasks|checked|unchecked",
		ArgsUsage: "<query>...",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "Print JSON"},
		},
		Action: withService(func(ctx context.Context, cmd *cli.Command, svc *noteservice.Service) error {
			notes, err := svc.Search(ctx, strings.Join(cmd.Args().Slice(), " "))
			if err != nil {
				return err
			}
			if cmd.Bool("json") {
				return printJSON(notes)
			}
			return printNotes(notes)
		}),
	}
}

func starCommand() *cli.Command {
	return &cli.Command{
		Name:      "star",
		Usage:     "Mark notes as important",
		ArgsUsage: "<id>...",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "off", Usage: "Clear the flag instead"},
		},
		Action: withService(func(ctx context.Context, cmd *cli.Command, svc *noteservice.Service) error {
			ids := cmd.Args().Slice()
			if len(ids) == 0 {
				return fmt.Errorf("missing argument <id>")
			}
			if len(ids) == 1 {
				meta, err := svc.ToggleImportant(ctx, ids[0], !cmd.Bool("off"))
				if err != nil {
					return err
				}
				return printJSON(meta)
			}
			notes, err := svc.BatchSetImportant(ctx, ids, !cmd.Bool("off"))
			if err != nil {
				return err
			}
			return printNotes(notes)
		}),
	}
}

func backlinksCommand() *cli.Command {
	return &cli.Command{
		Name:      "backlinks",
		Usage:     "List notes linking to a note",
		ArgsUsage: "<id>",
		Action: withService(func(ctx context.Context, cmd *cli.Command, svc *noteservice.Service) error {
			id, err := argAt(cmd, 0, "id")
			if err != nil {
				return err
			}
			notes, err := svc.Backlinks(ctx, id)
			if err != nil {
				return err
			}
			return printNotes(notes)
		}),
	}
}

func versionsCommand() *cli.Command {
	return &cli.Command{
		Name:  "versions",
		Usage: "Inspect and restore a note's history",
		Commands: []*cli.Command{
			{
				Name:      "list",
				ArgsUsage: "<id>",
				Action: withService(func(ctx context.Context, cmd *cli.Command, svc *noteservice.Service) error {
					id, err := argAt(cmd, 0, "id")
					if err != nil {
						return err
					}
					items, err := svc.ListVersions(ctx, id)
					if err != nil {
						return err
					}
					for _, v := range items {
						preview := strings.ReplaceAll(v.BodyPreview, "\n", " ")
						if _, err := fmt.Fprintf(stdout, "%s  %s  %s\n", v.SavedAt, v.Title, preview); err != nil {
							return err
						}
					}
					return nil
				}),
			},
			{
				Name:      "show",
				ArgsUsage: "<id> <savedAt>",
				Action: withService(func(ctx context.Context, cmd *cli.Command, svc *noteservice.Service) error {
					id, savedAt, err := idAndSavedAt(cmd)
					if err != nil {
						return err
					}
					snap, err := svc.GetVersion(ctx, id, savedAt)
					if err != nil {
						return err
					}
					return printJSON(snap)
				}),
			},
			{
				Name:      "restore",
				ArgsUsage: "<id> <savedAt>",
				Action: withService(func(ctx context.Context, cmd *cli.Command, svc *noteservice.Service) error {
					id, savedAt, err := idAndSavedAt(cmd)
					if err != nil {
						return err
					}
					meta, err := svc.RestoreVersion(ctx, id, savedAt)
					if err != nil {
						return err
					}
					return printJSON(meta)
				}),
			},
		},
	}
}

func idAndSavedAt(cmd *cli.Command) (string, string, error) {
	id, err := argAt(cmd, 0, "id")
	if err != nil {
		return "", "", err
	}
	savedAt, err := argAt(cmd, 1, "savedAt")
	if err != nil {
		return "", "", err
	}
	return id, savedAt, nil
}

func dailyCommand() *cli.Command {
	return &cli.Command{
		Name:  "daily",
		Usage: "Open today's daily note, creating it if needed",
		Action: withService(func(ctx context.Context, _ *cli.Command, svc *noteservice.Service) error {
			meta, err := svc.DailyNote(ctx)
			if err != nil {
				return err
			}
			return printJSON(meta)
		}),
	}
}

func mergeCommand() *cli.Command {
	return &cli.Command{
		Name:      "merge",
		Usage:     "Merge notes into the first one, oldest content first",
		ArgsUsage: "<id> <id>...",
		Action: withService(func(ctx context.Context, cmd *cli.Command, svc *noteservice.Service) error {
			meta, err := svc.Merge(ctx, cmd.Args().Slice())
			if err != nil {
				return err
			}
			return printJSON(meta)
		}),
	}
}

func duplicateCommand() *cli.Command {
	return &cli.Command{
		Name:      "duplicate",
		Usage:     "Copy a note with its attachments",
		ArgsUsage: "<id>",
		Action: withService(func(ctx context.Context, cmd *cli.Command, svc *noteservice.Service) error {
			id, err := argAt(cmd, 0, "id")
			if err != nil {
				return err
			}
			meta, err := svc.Duplicate(ctx, id)
			if err != nil {
				return err
			}
			return printJSON(meta)
		}),
	}
}

func reconcileCommand() *cli.Command {
	return &cli.Command{
		Name:  "reconcile",
		Usage: "Refresh tags and links from bodies edited outside notekeep",
		Action: withService(func(ctx context.Context, _ *cli.Command, svc *noteservice.Service) error {
			report, err := svc.Reconcile(ctx)
			if err != nil {
				return err
			}
			return printJSON(report)
		}),
	}
}
