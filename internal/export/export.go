// Package export renders a story as a read-only document.
//
// Sections appear in the author's insertion order. Both renderers only read
// from the graph store; nothing is modified.
package export

import (
	"embed"
	"fmt"
	htmltemplate "html/template"
	"io"
	"strings"
	texttemplate "text/template"

	"gamebook/internal/graph"
	"gamebook/shared/models"
)

//go:embed templates/*
var templateFS embed.FS

var (
	markdownTemplate = texttemplate.Must(texttemplate.New("story.md.tmpl").ParseFS(templateFS, "templates/story.md.tmpl"))
	htmlTemplate     = htmltemplate.Must(htmltemplate.New("story.html.tmpl").Funcs(htmltemplate.FuncMap{
		"anchor":     anchor,
		"paragraphs": paragraphs,
	}).ParseFS(templateFS, "templates/story.html.tmpl"))
)

// Options tunes the HTML export.
type Options struct {
	// Printable renders choices as "turn to" references instead of links.
	Printable bool
}

type view struct {
	Title          string
	Author         string
	Description    string
	StartSectionID string
	Sections       []sectionView
	Printable      bool
}

type sectionView struct {
	*models.Section
	Image string // Пустое описание изображения не выводится
}

func newView(store *graph.Store) view {
	story := store.Story()
	v := view{
		Title:          story.Title,
		Author:         story.Author,
		Description:    story.Description,
		StartSectionID: story.StartSectionID,
	}
	for section := range store.Sections() {
		sv := sectionView{Section: section}
		if section.ImageDescriptor != nil {
			sv.Image = *section.ImageDescriptor
		}
		v.Sections = append(v.Sections, sv)
	}
	return v
}

// Markdown writes the story as a Markdown document.
func Markdown(w io.Writer, store *graph.Store) error {
	if err := markdownTemplate.Execute(w, newView(store)); err != nil {
		return fmt.Errorf("render markdown: %w", err)
	}
	return nil
}

// HTML writes the story as a standalone HTML page.
func HTML(w io.Writer, store *graph.Store, opts Options) error {
	v := newView(store)
	v.Printable = opts.Printable
	if err := htmlTemplate.Execute(w, v); err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	return nil
}

// anchor turns a section id into a fragment identifier. Any other rune,
// '_' included, becomes _<hex>_, so distinct ids never share an anchor.
func anchor(id string) string {
	var b strings.Builder
	b.WriteString("section-")
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		default:
			fmt.Fprintf(&b, "_%x_", r)
		}
	}
	return b.String()
}

// paragraphs splits a body on blank lines.
func paragraphs(body string) []string {
	var out []string
	for _, p := range strings.Split(strings.ReplaceAll(body, "\r\n", "\n"), "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
