package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"gamebook/internal/export"
	"gamebook/internal/repository"
	"gamebook/internal/service"
	"gamebook/internal/validation"
	"gamebook/internal/watch"
	"gamebook/shared/models"
)

// NewRootCommand builds the command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "gamebook",
		Short:         "Write and play branching gamebooks",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newStoryCmd(app),
		listCmd(app),
		sectionCmd(app),
		choiceCmd(app),
		hintCmd(app),
		auxCmd(app),
		startCmd(app),
		infoCmd(app),
		validateCmd(app),
		playCmd(app),
		savesCmd(app),
		exportCmd(app),
	)
	return root
}

// editDraft opens a story, applies edit and saves it again.
func editDraft(ctx context.Context, app *App, out io.Writer, name string, edit func(*service.Draft) error) error {
	draft, err := app.Authoring.Open(ctx, name)
	if err != nil {
		return err
	}
	if err := edit(draft); err != nil {
		return err
	}
	report, err := app.Authoring.Save(ctx, draft)
	if report != nil {
		printDiagnostics(out, report)
	}
	return err
}

func newStoryCmd(app *App) *cobra.Command {
	var meta models.StoryMeta
	var startID, startTitle, startBody string

	cmd := &cobra.Command{
		Use:   "new <story>",
		Short: "Create a story with a start section",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			draft, err := app.Authoring.NewStory(ctx, args[0], meta)
			if err != nil {
				return err
			}
			if err := app.Authoring.AddSection(draft, &models.Section{ID: startID, Title: startTitle, Body: startBody}); err != nil {
				return err
			}
			if _, err := app.Authoring.Save(ctx, draft); err != nil {
				return err
			}
			fprintf(cmd.OutOrStdout(), "Created %s (%s)\n", args[0], app.Stories.Path(args[0]))
			return nil
		},
	}
	cmd.Flags().StringVar(&meta.Title, "title", "", "story title")
	cmd.Flags().StringVar(&meta.Author, "author", "", "author name")
	cmd.Flags().StringVar(&meta.Description, "description", "", "short description")
	cmd.Flags().StringVar(&startID, "start", "start", "id of the start section")
	cmd.Flags().StringVar(&startTitle, "start-title", "", "title of the start section")
	cmd.Flags().StringVar(&startBody, "start-body", "", "text of the start section")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func listCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored stories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := app.Stories.List(cmd.Context())
			if err != nil {
				return err
			}
			for _, name := range names {
				fprintf(cmd.OutOrStdout(), "%s\n", name)
			}
			return nil
		},
	}
}

func sectionCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{Use: "section", Short: "Manage sections"}

	var title, body, image string
	var makeStart bool
	add := &cobra.Command{
		Use:   "add <story> <id>",
		Short: "Add a section",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return editDraft(cmd.Context(), app, cmd.OutOrStdout(), args[0], func(d *service.Draft) error {
				section := &models.Section{ID: args[1], Title: title, Body: body}
				if cmd.Flags().Changed("image") {
					section.ImageDescriptor = &image
				}
				if err := app.Authoring.AddSection(d, section); err != nil {
					return err
				}
				if makeStart {
					return app.Authoring.SetStart(d, args[1])
				}
				return nil
			})
		},
	}
	add.Flags().StringVar(&title, "title", "", "section title (defaults to the id)")
	add.Flags().StringVar(&body, "body", "", "section text")
	add.Flags().StringVar(&image, "image", "", "image descriptor")
	add.Flags().BoolVar(&makeStart, "start", false, "make this the start section")

	list := &cobra.Command{
		Use:   "list <story>",
		Short: "List sections in order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			draft, err := app.Authoring.Open(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			for _, item := range app.Authoring.ListSections(draft) {
				marker := ""
				if item.IsEnding {
					marker = " [ending]"
				}
				fprintf(cmd.OutOrStdout(), "%-12s %-30s %d choices%s\n", item.ID, item.Title, item.ChoicesCount, marker)
			}
			return nil
		},
	}

	cmd.AddCommand(add, list)
	return cmd
}

func choiceCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{Use: "choice", Short: "Manage choices"}

	var text, label string
	add := &cobra.Command{
		Use:   "add <story> <section> <target>",
		Short: "Add a choice leading from section to target",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return editDraft(cmd.Context(), app, cmd.OutOrStdout(), args[0], func(d *service.Draft) error {
				choice, err := app.Authoring.AddChoice(d, args[1], models.Choice{Label: label, Text: text, TargetID: args[2]})
				if err != nil {
					return err
				}
				fprintf(cmd.OutOrStdout(), "Added choice %s) %s -> %s\n", choice.Label, choice.Text, choice.TargetID)
				return nil
			})
		},
	}
	add.Flags().StringVar(&text, "text", "", "choice text")
	add.Flags().StringVar(&label, "label", "", "choice label (next free letter when empty)")

	cmd.AddCommand(add)
	return cmd
}

func hintCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{Use: "hint", Short: "Manage hints"}
	cmd.AddCommand(&cobra.Command{
		Use:   "add <story> <section> <text>",
		Short: "Attach a hint to a section",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return editDraft(cmd.Context(), app, cmd.OutOrStdout(), args[0], func(d *service.Draft) error {
				return app.Authoring.AddHint(d, args[1], args[2])
			})
		},
	})
	return cmd
}

func auxCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{Use: "aux", Short: "Manage author notes on sections"}
	cmd.AddCommand(&cobra.Command{
		Use:   "set <story> <section> <key> <value>",
		Short: "Set an author note",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			return editDraft(cmd.Context(), app, cmd.OutOrStdout(), args[0], func(d *service.Draft) error {
				return app.Authoring.SetAuxiliary(d, args[1], args[2], args[3])
			})
		},
	})
	return cmd
}

func startCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{Use: "start", Short: "Manage the start section"}
	cmd.AddCommand(&cobra.Command{
		Use:   "set <story> <section>",
		Short: "Set the start section",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return editDraft(cmd.Context(), app, cmd.OutOrStdout(), args[0], func(d *service.Draft) error {
				return app.Authoring.SetStart(d, args[1])
			})
		},
	})
	return cmd
}

func infoCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "info <story>",
		Short: "Show story statistics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			draft, err := app.Authoring.Open(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			info := app.Authoring.Info(draft)
			out := cmd.OutOrStdout()
			fprintf(out, "Title:       %s\n", info.Title)
			if info.Author != "" {
				fprintf(out, "Author:      %s\n", info.Author)
			}
			if info.Description != "" {
				fprintf(out, "Description: %s\n", info.Description)
			}
			fprintf(out, "Start:       %s\n", info.StartSectionID)
			fprintf(out, "Sections:    %d\n", info.SectionCount)
			fprintf(out, "Choices:     %d\n", info.ChoiceCount)
			fprintf(out, "Endings:     %s\n", joinOrNone(info.Endings))
			fprintf(out, "Unreachable: %s\n", joinOrNone(info.Unreachable))
			if draft.Shape != models.ShapeCanonical {
				fprintf(out, "Layout:      %s (rewritten on next save)\n", draft.Shape)
			}
			return nil
		},
	}
}

func validateCmd(app *App) *cobra.Command {
	var watchFile bool
	cmd := &cobra.Command{
		Use:   "validate <story>",
		Short: "Check a story for structural problems",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			name := args[0]

			check := func() *validation.Report {
				draft, err := app.Authoring.Open(ctx, name)
				if err != nil {
					fprintf(out, "%s: %v\n", name, err)
					return nil
				}
				report := app.Authoring.Validate(draft)
				printDiagnostics(out, report)
				if report.OK() && len(report.Warnings()) == 0 {
					fprintf(out, "%s: OK\n", name)
				}
				return report
			}

			if !watchFile {
				report := check()
				if report == nil || !report.OK() {
					return &exitError{code: 2, msg: fmt.Sprintf("story %q is not valid", name)}
				}
				return nil
			}

			check()
			path := app.Stories.Path(name)
			fprintf(out, "Watching %s (Ctrl+C to stop)\n", path)
			w := watch.New(watch.DefaultDebounce, app.Logger)
			return w.Run(ctx, path, func(string) {
				fprintf(out, "--- change detected ---\n")
				check()
			})
		},
	}
	cmd.Flags().BoolVarP(&watchFile, "watch", "w", false, "re-validate whenever the story file changes")
	return cmd
}

func playCmd(app *App) *cobra.Command {
	var resume string
	cmd := &cobra.Command{
		Use:   "play <story>",
		Short: "Read a story interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var (
				session *service.Session
				section *models.Section
				err     error
			)
			if resume != "" {
				slotID, perr := uuid.Parse(resume)
				if perr != nil {
					return fmt.Errorf("invalid save slot id %q: %w", resume, models.ErrInvalidInput)
				}
				session, section, err = app.Gameplay.ResumeSession(ctx, args[0], slotID)
			} else {
				session, section, err = app.Gameplay.StartSession(ctx, args[0])
			}
			if err != nil {
				return err
			}
			reader := NewReader(app.Gameplay, cmd.InOrStdin(), cmd.OutOrStdout(), app.Color, app.Logger)
			return reader.Play(ctx, session, section)
		},
	}
	cmd.Flags().StringVar(&resume, "resume", "", "resume from a save slot id")
	return cmd
}

func savesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{Use: "saves", Short: "Manage save slots"}
	list := &cobra.Command{
		Use:   "list <story>",
		Short: "List save slots, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			summaries, err := app.Gameplay.ListSaves(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if len(summaries) == 0 {
				fprintf(cmd.OutOrStdout(), "No saves for %s\n", args[0])
				return nil
			}
			for _, s := range summaries {
				fprintf(cmd.OutOrStdout(), "%s  %s  at %-12s %d decisions\n",
					s.ID, s.SavedAt.Local().Format("2006-01-02 15:04"), s.CurrentSectionID, s.DecisionCount)
			}
			return nil
		},
	}
	del := &cobra.Command{
		Use:   "delete <story> <slot>",
		Short: "Delete a save slot",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			slotID, err := uuid.Parse(args[1])
			if err != nil {
				return fmt.Errorf("invalid save slot id %q: %w", args[1], models.ErrInvalidInput)
			}
			if err := app.Gameplay.DeleteSave(cmd.Context(), args[0], slotID); err != nil {
				return err
			}
			fprintf(cmd.OutOrStdout(), "Deleted %s\n", slotID)
			return nil
		},
	}
	cmd.AddCommand(list, del)
	return cmd
}

func exportCmd(app *App) *cobra.Command {
	var format, output string
	var printable bool
	cmd := &cobra.Command{
		Use:   "export <story>",
		Short: "Export a story as Markdown or HTML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			draft, err := app.Authoring.Open(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			var buf strings.Builder
			switch strings.ToLower(format) {
			case "md", "markdown":
				err = export.Markdown(&buf, draft.Store)
			case "html":
				err = export.HTML(&buf, draft.Store, export.Options{Printable: printable})
			default:
				return fmt.Errorf("unknown export format %q: %w", format, models.ErrInvalidInput)
			}
			if err != nil {
				return err
			}
			if output == "" || output == "-" {
				_, err = io.WriteString(cmd.OutOrStdout(), buf.String())
				return err
			}
			if err := repository.WriteFileAtomic(output, []byte(buf.String()), 0o644); err != nil {
				return err
			}
			app.Logger.Info("Story exported", zap.String("story", args[0]), zap.String("path", output))
			fprintf(cmd.OutOrStdout(), "Exported %s to %s\n", args[0], output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "md", "md or html")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (stdout when empty)")
	cmd.Flags().BoolVar(&printable, "printable", false, "HTML without links, for printing")
	return cmd
}

func printDiagnostics(w io.Writer, report *validation.Report) {
	for _, d := range report.Diagnostics {
		fprintf(w, "%-7s %-20s %v\n", d.Severity, d.Kind(), d.Err)
	}
}

func joinOrNone(ids []string) string {
	if len(ids) == 0 {
		return "-"
	}
	return strings.Join(ids, ", ")
}
