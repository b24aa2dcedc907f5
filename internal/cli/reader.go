package cli

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"gamebook/internal/engine"
	"gamebook/internal/service"
	"gamebook/shared/models"
)

// Команды читателя, проверяются раньше меток выбора
const (
	commandMenu   = "M"
	commandSave   = "S"
	commandMemory = "G"
)

type readerStyles struct {
	title  lipgloss.Style
	label  lipgloss.Style
	muted  lipgloss.Style
	hint   lipgloss.Style
	ending lipgloss.Style
	errMsg lipgloss.Style
}

func newReaderStyles(color bool) readerStyles {
	if !color {
		plain := lipgloss.NewStyle()
		return readerStyles{plain, plain, plain, plain, plain, plain}
	}
	return readerStyles{
		title:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		label:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10")),
		muted:  lipgloss.NewStyle().Faint(true),
		hint:   lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("11")),
		ending: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("13")),
		errMsg: lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
	}
}

// Reader runs an interactive play-through over a line-oriented input.
type Reader struct {
	gameplay service.GameplayService
	in       *bufio.Scanner
	out      io.Writer
	styles   readerStyles
	logger   *zap.Logger
}

// NewReader returns a reader bound to the given input and output.
func NewReader(gameplay service.GameplayService, in io.Reader, out io.Writer, color bool, logger *zap.Logger) *Reader {
	return &Reader{
		gameplay: gameplay,
		in:       bufio.NewScanner(in),
		out:      out,
		styles:   newReaderStyles(color),
		logger:   logger.Named("Reader"),
	}
}

// Play shows section and loops over reader input until the story ends,
// the reader returns to the menu or the input is exhausted.
func (r *Reader) Play(ctx context.Context, session *service.Session, section *models.Section) error {
	r.render(section)
	if r.ended(session) {
		return nil
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		fprintf(r.out, "> ")
		if !r.in.Scan() {
			fprintf(r.out, "\n")
			return r.in.Err()
		}
		input := strings.TrimSpace(r.in.Text())
		if input == "" {
			continue
		}

		switch strings.ToUpper(input) {
		case commandMenu:
			return nil
		case commandSave:
			r.save(ctx, session)
			continue
		case commandMemory:
			r.showMemory(session)
			continue
		}

		next, err := r.gameplay.Choose(session, input)
		switch {
		case errors.Is(err, models.ErrInvalidChoice):
			fprintf(r.out, "%s\n", r.styles.errMsg.Render("No such choice: "+input))
			continue
		case err != nil:
			fprintf(r.out, "%s\n", r.styles.errMsg.Render("The story cannot continue: "+err.Error()))
			return err
		}

		r.render(next)
		if r.ended(session) {
			return nil
		}
	}
}

func (r *Reader) ended(session *service.Session) bool {
	if session.Engine.State().Kind != engine.Ended {
		return false
	}
	fprintf(r.out, "\n%s\n", r.styles.ending.Render("THE END"))
	return true
}

func (r *Reader) save(ctx context.Context, session *service.Session) {
	id, err := r.gameplay.SaveSession(ctx, session)
	if err != nil {
		r.logger.Warn("Save failed", zap.String("story", session.StoryName), zap.Error(err))
		fprintf(r.out, "%s\n", r.styles.errMsg.Render("Save failed: "+err.Error()))
		return
	}
	fprintf(r.out, "Saved to slot %s\n", id)
}

func (r *Reader) render(section *models.Section) {
	fprintf(r.out, "\n%s\n\n", r.styles.title.Render(section.Title))
	if section.Body != "" {
		fprintf(r.out, "%s\n", section.Body)
	}
	if section.ImageDescriptor != nil && *section.ImageDescriptor != "" {
		fprintf(r.out, "%s\n", r.styles.muted.Render("[Image: "+*section.ImageDescriptor+"]"))
	}
	for _, hint := range section.Hints {
		fprintf(r.out, "%s\n", r.styles.hint.Render("Hint: "+hint))
	}
	if section.IsEnding() {
		return
	}
	fprintf(r.out, "\n")
	for _, choice := range section.Choices {
		fprintf(r.out, "%s %s\n", r.styles.label.Render("["+choice.Label+"]"), choice.Text)
	}
	fprintf(r.out, "%s\n", r.styles.muted.Render("[M] menu  [S] save  [G] memory"))
}

func (r *Reader) showMemory(session *service.Session) {
	mem := session.Tracker.Snapshot()
	fprintf(r.out, "%s\n", r.styles.title.Render("Memory"))
	fprintf(r.out, "Visited:   %s\n", joinOrNone(mem.Visited))
	decisions := make([]string, 0, len(mem.Decisions))
	for _, d := range mem.Decisions {
		decisions = append(decisions, d.SectionID+":"+d.ChoiceLabel)
	}
	fprintf(r.out, "Decisions: %s\n", joinOrNone(decisions))
	fprintf(r.out, "Open:      %s\n", joinOrNone(mem.OpenPaths))
	for _, hint := range mem.Hints {
		fprintf(r.out, "%s\n", r.styles.hint.Render("Hint: "+hint))
	}
	if mem.Summary != "" {
		fprintf(r.out, "Summary:   %s\n", mem.Summary)
	}
}
