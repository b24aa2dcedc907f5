package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"gamebook/internal/graph"
	"gamebook/shared/models"
)

// storyDocument is the canonical story layout. Pointer fields distinguish
// "absent" from "empty" so required fields can be checked for presence.
type storyDocument struct {
	Title          *string                                         `json:"title" yaml:"title" validate:"required"`
	Author         string                                          `json:"author,omitempty" yaml:"author,omitempty"`
	Description    string                                          `json:"description,omitempty" yaml:"description,omitempty"`
	StartSectionID *string                                         `json:"start_section_id" yaml:"start_section_id" validate:"required"`
	Sections       *orderedmap.OrderedMap[string, sectionDocument] `json:"sections" yaml:"sections" validate:"-"`
}

type sectionDocument struct {
	ID              *string           `json:"id" yaml:"id" validate:"required"`
	Title           *string           `json:"title" yaml:"title" validate:"required"`
	Body            *string           `json:"body" yaml:"body" validate:"required"`
	Choices         []choiceDocument  `json:"choices" yaml:"choices" validate:"dive"`
	Hints           []string          `json:"hints,omitempty" yaml:"hints,omitempty"`
	ImageDescriptor *string           `json:"image_descriptor,omitempty" yaml:"image_descriptor,omitempty"`
	AuxiliaryMemory map[string]string `json:"auxiliary_memory,omitempty" yaml:"auxiliary_memory,omitempty"`
}

type choiceDocument struct {
	Label    string  `json:"label,omitempty" yaml:"label,omitempty"`
	Text     string  `json:"text" yaml:"text"`
	TargetID *string `json:"target_id" yaml:"target_id" validate:"required"`
}

// EncodeStory writes a story in the canonical layout.
func EncodeStory(story *models.Story, format Format) ([]byte, error) {
	if story == nil {
		return nil, fmt.Errorf("encode story: %w", models.ErrInvalidInput)
	}
	doc := storyDocument{
		Title:          models.StringPtr(story.Title),
		Author:         story.Author,
		Description:    story.Description,
		StartSectionID: models.StringPtr(story.StartSectionID),
		Sections:       orderedmap.New[string, sectionDocument](),
	}
	for _, section := range story.Sections {
		doc.Sections.Set(section.ID, toSectionDocument(section))
	}
	data, err := marshal(&doc, format)
	if err != nil {
		return nil, fmt.Errorf("encode story %q: %w", story.Title, err)
	}
	return data, nil
}

// DecodeStory reads a story document of any supported layout.
// Nothing is returned unless the whole document is valid.
func DecodeStory(data []byte, format Format) (*models.LoadedStory, error) {
	var head storyHead
	if err := unmarshal(data, format, &head); err != nil {
		return nil, err
	}
	// yaml.v3 сам отвергает повторные ключи, encoding/json молча оставляет последний
	if format != FormatYAML {
		if err := checkDuplicateSections(data); err != nil {
			return nil, err
		}
	}

	switch head.shape() {
	case models.ShapePages:
		return decodePages(data, format)
	case models.ShapeBook:
		return decodeBook(data, format)
	case models.ShapeManager:
		return decodeManager(data, format)
	default:
		if head.Sections == nil {
			return nil, &models.ParseError{Field: "sections", Err: errMissingField}
		}
		return decodeCanonical(data, format)
	}
}

func decodeCanonical(data []byte, format Format) (*models.LoadedStory, error) {
	doc := storyDocument{Sections: orderedmap.New[string, sectionDocument]()}
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
	for pair := doc.Sections.Oldest(); pair != nil; pair = pair.Next() {
		prefix := "sections." + pair.Key
		if err := checkRequired(&pair.Value, prefix); err != nil {
			return nil, err
		}
		if *pair.Value.ID != pair.Key {
			return nil, &models.ParseError{
				Field: prefix + ".id",
				Err:   fmt.Errorf("id %q does not match its key", *pair.Value.ID),
			}
		}
		story.Sections = append(story.Sections, fromSectionDocument(pair.Value))
	}

	return &models.LoadedStory{Story: story, Shape: models.ShapeCanonical}, nil
}

func toSectionDocument(section *models.Section) sectionDocument {
	doc := sectionDocument{
		ID:              models.StringPtr(section.ID),
		Title:           models.StringPtr(section.Title),
		Body:            models.StringPtr(section.Body),
		Choices:         make([]choiceDocument, 0, len(section.Choices)),
		Hints:           section.Hints,
		ImageDescriptor: section.ImageDescriptor,
		AuxiliaryMemory: section.AuxiliaryMemory,
	}
	for _, choice := range section.Choices {
		doc.Choices = append(doc.Choices, choiceDocument{
			Label:    choice.Label,
			Text:     choice.Text,
			TargetID: models.StringPtr(choice.TargetID),
		})
	}
	return doc
}

func fromSectionDocument(doc sectionDocument) *models.Section {
	section := &models.Section{
		ID:              *doc.ID,
		Title:           *doc.Title,
		Body:            *doc.Body,
		ImageDescriptor: doc.ImageDescriptor,
	}
	for _, c := range doc.Choices {
		section.Choices = append(section.Choices, models.Choice{Label: c.Label, Text: c.Text, TargetID: *c.TargetID})
	}
	graph.AssignLabels(section)
	if len(doc.Hints) > 0 {
		section.Hints = doc.Hints
	}
	if len(doc.AuxiliaryMemory) > 0 {
		section.AuxiliaryMemory = doc.AuxiliaryMemory
	}
	return section
}

var errDuplicateSection = errors.New("section id appears more than once")

// checkDuplicateSections scans the top-level "sections" object of a JSON
// document and reports the first repeated key.
func checkDuplicateSections(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return nil
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return &models.ParseError{Err: err}
		}
		var skip json.RawMessage
		if key, _ := tok.(string); key != "sections" {
			if err := dec.Decode(&skip); err != nil {
				return &models.ParseError{Err: err}
			}
			continue
		}
		if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
			return nil
		}
		seen := make(map[string]struct{})
		for dec.More() {
			tok, err := dec.Token()
			if err != nil {
				return &models.ParseError{Field: "sections", Err: err}
			}
			id, _ := tok.(string)
			if _, dup := seen[id]; dup {
				return &models.ParseError{Field: "sections." + id, Err: errDuplicateSection}
			}
			seen[id] = struct{}{}
			if err := dec.Decode(&skip); err != nil {
				return &models.ParseError{Field: "sections." + id, Err: err}
			}
		}
		return nil
	}
	return nil
}

// storyHead decodes only enough of a document to tell the layouts apart.
type storyHead struct {
	Sections map[string]map[string]any `json:"sections" yaml:"sections"`
	Pages    []any                     `json:"pages" yaml:"pages"`
}

func (p *storyHead) shape() models.DocumentShape {
	if p.Sections == nil && p.Pages != nil {
		return models.ShapePages
	}
	for _, fields := range p.Sections {
		_, hasSectionID := fields["section_id"]
		_, hasContent := fields["content"]
		if hasSectionID || hasContent {
			return models.ShapeManager
		}
		_, hasDecisions := fields["decisions"]
		_, hasIsEnding := fields["is_ending"]
		_, hasText := fields["text"]
		_, hasBody := fields["body"]
		if hasDecisions || hasIsEnding || (hasText && !hasBody) {
			return models.ShapeBook
		}
	}
	return models.ShapeCanonical
}
