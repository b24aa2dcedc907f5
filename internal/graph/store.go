// Package graph holds the in-memory narrative graph: sections indexed by id,
// kept in the order the author added them.
package graph

import (
	"iter"
	"strings"

	"golang.org/x/text/cases"

	"gamebook/shared/models"
)

// Store owns the sections of one story and enforces id uniqueness.
// It is not safe for concurrent use; a story has a single owner.
type Store struct {
	story *models.Story
	index map[string]*models.Section
}

// New creates an empty draft with the given metadata.
func New(meta models.StoryMeta) *Store {
	return &Store{
		story: &models.Story{
			Title:       meta.Title,
			Author:      meta.Author,
			Description: meta.Description,
		},
		index: make(map[string]*models.Section),
	}
}

// FromStory indexes an existing story. Fails on the first repeated section id.
func FromStory(story *models.Story) (*Store, error) {
	s := &Store{
		story: &models.Story{
			Title:          story.Title,
			Author:         story.Author,
			Description:    story.Description,
			StartSectionID: story.StartSectionID,
		},
		index: make(map[string]*models.Section, len(story.Sections)),
	}
	for _, section := range story.Sections {
		if err := s.AddSection(section); err != nil {
			return nil, err
		}
	}
	// AddSection подставляет старт для пустого значения; здесь сохраняем то, что было в документе
	s.story.StartSectionID = story.StartSectionID
	return s, nil
}

// Story returns the underlying model. Callers outside the authoring flow must treat it as read-only.
func (s *Store) Story() *models.Story {
	return s.story
}

// Title returns the story title.
func (s *Store) Title() string { return s.story.Title }

// StartSectionID returns the declared start section; it may not resolve yet.
func (s *Store) StartSectionID() string { return s.story.StartSectionID }

// SetStart declares the start section. Unknown ids are accepted; the validator reports them.
func (s *Store) SetStart(id string) {
	s.story.StartSectionID = id
}

// SetMeta replaces title, author and description.
func (s *Store) SetMeta(meta models.StoryMeta) {
	s.story.Title = meta.Title
	s.story.Author = meta.Author
	s.story.Description = meta.Description
}

// AddSection appends a section. The first section added becomes the start when none is set.
func (s *Store) AddSection(section *models.Section) error {
	if section == nil || section.ID == "" {
		return models.ErrInvalidInput
	}
	if _, exists := s.index[section.ID]; exists {
		return &models.DuplicateIDError{ID: section.ID}
	}
	s.index[section.ID] = section
	s.story.Sections = append(s.story.Sections, section)
	if s.story.StartSectionID == "" {
		s.story.StartSectionID = section.ID
	}
	return nil
}

// Section returns the section with the given id or a NotFoundError.
func (s *Store) Section(id string) (*models.Section, error) {
	section, ok := s.index[id]
	if !ok {
		return nil, models.NewSectionNotFound(id)
	}
	return section, nil
}

// Has reports whether a section with the id exists.
func (s *Store) Has(id string) bool {
	_, ok := s.index[id]
	return ok
}

// Len returns the number of sections.
func (s *Store) Len() int { return len(s.story.Sections) }

// Sections yields copies of the sections in insertion order.
// The sequence can be ranged over any number of times.
func (s *Store) Sections() iter.Seq[*models.Section] {
	return func(yield func(*models.Section) bool) {
		for _, section := range s.story.Sections {
			if !yield(section.Clone()) {
				return
			}
		}
	}
}

// IDs returns the section ids in insertion order.
func (s *Store) IDs() []string {
	ids := make([]string, 0, len(s.story.Sections))
	for _, section := range s.story.Sections {
		ids = append(ids, section.ID)
	}
	return ids
}

// RemoveSection deletes a section. Choices pointing at it are left in place
// and show up as dangling targets on the next validation.
func (s *Store) RemoveSection(id string) error {
	if _, ok := s.index[id]; !ok {
		return models.NewSectionNotFound(id)
	}
	delete(s.index, id)
	sections := s.story.Sections[:0]
	for _, section := range s.story.Sections {
		if section.ID != id {
			sections = append(sections, section)
		}
	}
	s.story.Sections = sections
	return nil
}

// AddChoice appends a choice to a section. The target does not need to exist yet.
func (s *Store) AddChoice(sectionID string, choice models.Choice) error {
	section, err := s.Section(sectionID)
	if err != nil {
		return err
	}
	if choice.TargetID == "" {
		return models.ErrInvalidInput
	}
	section.Choices = append(section.Choices, choice)
	return nil
}

// AddHint attaches a hint to a section; repeated hints are ignored.
func (s *Store) AddHint(sectionID, hint string) error {
	section, err := s.Section(sectionID)
	if err != nil {
		return err
	}
	if !section.HasHint(hint) {
		section.Hints = append(section.Hints, hint)
	}
	return nil
}

// SetAuxiliary stores an author note on a section.
func (s *Store) SetAuxiliary(sectionID, key, value string) error {
	section, err := s.Section(sectionID)
	if err != nil {
		return err
	}
	if section.AuxiliaryMemory == nil {
		section.AuxiliaryMemory = make(map[string]string)
	}
	section.AuxiliaryMemory[key] = value
	return nil
}

// Choice resolves a choice of a section by label, comparing folded labels.
func (s *Store) Choice(sectionID, label string) (*models.Choice, error) {
	section, err := s.Section(sectionID)
	if err != nil {
		return nil, err
	}
	if choice := MatchChoice(section, label); choice != nil {
		return choice, nil
	}
	return nil, &models.NotFoundError{Kind: "choice", ID: sectionID + "/" + label}
}

// Endings returns the ids of sections without choices, in insertion order.
func (s *Store) Endings() []string {
	var endings []string
	for _, section := range s.story.Sections {
		if section.IsEnding() {
			endings = append(endings, section.ID)
		}
	}
	return endings
}

// MatchChoice returns the first choice whose folded label equals the folded input, or nil.
func MatchChoice(section *models.Section, label string) *models.Choice {
	want := FoldLabel(label)
	if want == "" {
		return nil
	}
	for i := range section.Choices {
		if FoldLabel(section.Choices[i].Label) == want {
			return &section.Choices[i]
		}
	}
	return nil
}

// FoldLabel normalizes a choice label for comparison: trimmed and case-folded.
func FoldLabel(label string) string {
	// cases.Caser хранит состояние, поэтому создаем новый на каждый вызов
	return cases.Fold().String(strings.TrimSpace(label))
}

// AutoLabel returns A, B, … Z, AA, AB, … for the zero-based index.
func AutoLabel(i int) string {
	label := ""
	for i >= 0 {
		label = string(rune('A'+i%26)) + label
		i = i/26 - 1
	}
	return label
}

// NextLabel returns the first automatic label the section does not use yet.
func NextLabel(section *models.Section) string {
	for i := len(section.Choices); ; i++ {
		label := AutoLabel(i)
		if MatchChoice(section, label) == nil {
			return label
		}
	}
}

// AssignLabels gives every unlabeled choice its positional automatic label,
// or the next free one when another choice already uses it.
func AssignLabels(section *models.Section) {
	for i := range section.Choices {
		if FoldLabel(section.Choices[i].Label) != "" {
			continue
		}
		label := AutoLabel(i)
		if MatchChoice(section, label) != nil {
			label = NextLabel(section)
		}
		section.Choices[i].Label = label
	}
}
