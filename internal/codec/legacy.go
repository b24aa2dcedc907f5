package codec

import (
	"errors"
	"fmt"
	"strconv"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"gamebook/internal/graph"
	"gamebook/shared/models"
)

// --- book: sections{id,title,text,decisions[{option,text,next_section_id}],is_ending,image_prompt} ---

type bookDocument struct {
	Title          *string                                     `json:"title" yaml:"title" validate:"required"`
	Author         string                                      `json:"author" yaml:"author"`
	Description    string                                      `json:"description" yaml:"description"`
	StartSectionID *string                                     `json:"start_section_id" yaml:"start_section_id" validate:"required"`
	Sections       *orderedmap.OrderedMap[string, bookSection] `json:"sections" yaml:"sections" validate:"-"`
}

type bookSection struct {
	ID          *string        `json:"id" yaml:"id" validate:"required"`
	Title       *string        `json:"title" yaml:"title" validate:"required"`
	Text        *string        `json:"text" yaml:"text" validate:"required"`
	Decisions   []bookDecision `json:"decisions" yaml:"decisions" validate:"dive"`
	IsEnding    *bool          `json:"is_ending" yaml:"is_ending"`
	ImagePrompt *string        `json:"image_prompt" yaml:"image_prompt"`
}

type bookDecision struct {
	Option        string  `json:"option" yaml:"option"`
	Text          string  `json:"text" yaml:"text"`
	NextSectionID *string `json:"next_section_id" yaml:"next_section_id" validate:"required"`
}

func decodeBook(data []byte, format Format) (*models.LoadedStory, error) {
	doc := bookDocument{Sections: orderedmap.New[string, bookSection]()}
	if err := unmarshal(data, format, &doc); err != nil {
		return nil, err
	}
	if err := checkRequired(&doc, ""); err != nil {
		return nil, err
	}

	story := &models.Story{
		Title:          *doc.Title,
		Author:         doc.Author,
		Description:    doc.Description,
		StartSectionID: *doc.StartSectionID,
	}
	claims := models.EndingClaims{}
	for pair := doc.Sections.Oldest(); pair != nil; pair = pair.Next() {
		if err := checkRequired(&pair.Value, "sections."+pair.Key); err != nil {
			return nil, err
		}
		s := pair.Value
		section := &models.Section{
			ID:              *s.ID,
			Title:           *s.Title,
			Body:            *s.Text,
			ImageDescriptor: s.ImagePrompt,
		}
		for _, d := range s.Decisions {
			section.Choices = append(section.Choices, models.Choice{Label: d.Option, Text: d.Text, TargetID: *d.NextSectionID})
		}
		graph.AssignLabels(section)
		if s.IsEnding != nil {
			claims[section.ID] = *s.IsEnding
		}
		story.Sections = append(story.Sections, section)
	}

	return &models.LoadedStory{Story: story, Shape: models.ShapeBook, EndingClaims: claims}, nil
}

// --- manager: sections{section_id,title,content,choices[{label,text,next_section_id}],image_prompt,hints,story_memory} ---

type managerDocument struct {
	Title          *string                                        `json:"title" yaml:"title" validate:"required"`
	Author         string                                         `json:"author" yaml:"author"`
	Description    string                                         `json:"description" yaml:"description"`
	StartSectionID string                                         `json:"start_section_id" yaml:"start_section_id"`
	Sections       *orderedmap.OrderedMap[string, managerSection] `json:"sections" yaml:"sections" validate:"-"`
}

type managerSection struct {
	SectionID   *string         `json:"section_id" yaml:"section_id" validate:"required"`
	Title       *string         `json:"title" yaml:"title" validate:"required"`
	Content     *string         `json:"content" yaml:"content" validate:"required"`
	Choices     []managerChoice `json:"choices" yaml:"choices" validate:"dive"`
	ImagePrompt string          `json:"image_prompt" yaml:"image_prompt"`
	Hints       []string        `json:"hints" yaml:"hints"`
	StoryMemory map[string]any  `json:"story_memory" yaml:"story_memory"`
}

type managerChoice struct {
	Label         string  `json:"label" yaml:"label"`
	Text          string  `json:"text" yaml:"text"`
	NextSectionID *string `json:"next_section_id" yaml:"next_section_id" validate:"required"`
}

func decodeManager(data []byte, format Format) (*models.LoadedStory, error) {
	doc := managerDocument{Sections: orderedmap.New[string, managerSection]()}
	if err := unmarshal(data, format, &doc); err != nil {
		return nil, err
	}
	if err := checkRequired(&doc, ""); err != nil {
		return nil, err
	}

	story := &models.Story{
		Title:          *doc.Title,
		Author:         doc.Author,
		Description:    doc.Description,
		StartSectionID: doc.StartSectionID,
	}
	for pair := doc.Sections.Oldest(); pair != nil; pair = pair.Next() {
		if err := checkRequired(&pair.Value, "sections."+pair.Key); err != nil {
			return nil, err
		}
		s := pair.Value
		section := &models.Section{
			ID:    *s.SectionID,
			Title: *s.Title,
			Body:  *s.Content,
		}
		// В этом формате пустая строка означала отсутствие промпта
		if s.ImagePrompt != "" {
			section.ImageDescriptor = models.StringPtr(s.ImagePrompt)
		}
		for _, c := range s.Choices {
			section.Choices = append(section.Choices, models.Choice{Label: c.Label, Text: c.Text, TargetID: *c.NextSectionID})
		}
		graph.AssignLabels(section)
		for _, h := range s.Hints {
			if !section.HasHint(h) {
				section.Hints = append(section.Hints, h)
			}
		}
		if len(s.StoryMemory) > 0 {
			section.AuxiliaryMemory = make(map[string]string, len(s.StoryMemory))
			for k, v := range s.StoryMemory {
				section.AuxiliaryMemory[k] = fmt.Sprint(v)
			}
		}
		story.Sections = append(story.Sections, section)
	}
	// Старый редактор делал первую секцию стартовой, если старт не задан
	if story.StartSectionID == "" && len(story.Sections) > 0 {
		story.StartSectionID = story.Sections[0].ID
	}

	return &models.LoadedStory{Story: story, Shape: models.ShapeManager}, nil
}

// --- pages: {title, pages[{id,text,choices[{text,next}],image}]} ---

type pagesDocument struct {
	Title       *string `json:"title" yaml:"title" validate:"required"`
	Author      string  `json:"author" yaml:"author"`
	Description string  `json:"description" yaml:"description"`
	Pages       []page  `json:"pages" yaml:"pages" validate:"dive"`
}

type page struct {
	ID      any          `json:"id" yaml:"id"`
	Title   string       `json:"title" yaml:"title"`
	Text    *string      `json:"text" yaml:"text" validate:"required"`
	Choices []pageChoice `json:"choices" yaml:"choices" validate:"dive"`
	Image   *string      `json:"image" yaml:"image"`
}

type pageChoice struct {
	Text string `json:"text" yaml:"text"`
	Next any    `json:"next" yaml:"next" validate:"required"`
}

var errNoPages = errors.New("story must have at least one page")

func decodePages(data []byte, format Format) (*models.LoadedStory, error) {
	var doc pagesDocument
	if err := unmarshal(data, format, &doc); err != nil {
		return nil, err
	}
	if err := checkRequired(&doc, ""); err != nil {
		return nil, err
	}
	if len(doc.Pages) == 0 {
		return nil, &models.ParseError{Field: "pages", Err: errNoPages}
	}

	story := &models.Story{
		Title:       *doc.Title,
		Author:      doc.Author,
		Description: doc.Description,
	}
	for i, p := range doc.Pages {
		id := scalarID(p.ID, strconv.Itoa(i))
		title := p.Title
		if title == "" {
			title = "Page " + id
		}
		section := &models.Section{
			ID:              id,
			Title:           title,
			Body:            *p.Text,
			ImageDescriptor: p.Image,
		}
		for j, c := range p.Choices {
			section.Choices = append(section.Choices, models.Choice{
				Label:    graph.AutoLabel(j),
				Text:     c.Text,
				TargetID: scalarID(c.Next, ""),
			})
		}
		story.Sections = append(story.Sections, section)
	}
	story.StartSectionID = story.Sections[0].ID

	return &models.LoadedStory{Story: story, Shape: models.ShapePages}, nil
}

// scalarID renders numeric or string ids the same way; nil falls back to def.
func scalarID(v any, def string) string {
	switch id := v.(type) {
	case nil:
		return def
	case string:
		return id
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	default:
		return fmt.Sprint(id)
	}
}
