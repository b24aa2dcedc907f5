package codec

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"gamebook/shared/models"
)

type saveDocument struct {
	SlotID             string             `json:"slot_id,omitempty" yaml:"slot_id,omitempty"`
	StoryName          string             `json:"story_name,omitempty" yaml:"story_name,omitempty"`
	SavedAt            *time.Time         `json:"saved_at,omitempty" yaml:"saved_at,omitempty"`
	CurrentSectionID   *string            `json:"current_section_id" yaml:"current_section_id" validate:"required"`
	Visited            []string           `json:"visited" yaml:"visited"`
	Decisions          []decisionDocument `json:"decisions" yaml:"decisions" validate:"dive"`
	Hints              []string           `json:"hints" yaml:"hints"`
	OpenPaths          []string           `json:"open_paths" yaml:"open_paths"`
	Summary            string             `json:"summary" yaml:"summary"`
	LastSequenceNumber int                `json:"last_sequence_number" yaml:"last_sequence_number" validate:"gte=0"`

	// Поля старого формата памяти
	VisitedSections []string                 `json:"visited_sections,omitempty" yaml:"visited_sections,omitempty"`
	DecisionsMade   []legacyDecisionDocument `json:"decisions_made,omitempty" yaml:"decisions_made,omitempty" validate:"dive"`
}

type decisionDocument struct {
	SectionID      *string `json:"section_id" yaml:"section_id" validate:"required"`
	Label          *string `json:"label" yaml:"label" validate:"required"`
	SequenceNumber int     `json:"sequence_number" yaml:"sequence_number" validate:"gt=0"`
}

type legacyDecisionDocument struct {
	SectionID *string `json:"section_id" yaml:"section_id" validate:"required"`
	Decision  *string `json:"decision" yaml:"decision" validate:"required"`
	Order     int     `json:"order" yaml:"order" validate:"gt=0"`
}

// EncodeMemory writes a save state. Empty lists are written as empty arrays.
func EncodeMemory(state *models.SaveState, format Format) ([]byte, error) {
	if state == nil {
		return nil, fmt.Errorf("encode memory: %w", models.ErrInvalidInput)
	}
	mem := state.Memory
	doc := saveDocument{
		CurrentSectionID:   models.StringPtr(state.CurrentSectionID),
		StoryName:          state.StoryName,
		Visited:            nonNil(mem.Visited),
		Decisions:          make([]decisionDocument, 0, len(mem.Decisions)),
		Hints:              nonNil(mem.Hints),
		OpenPaths:          nonNil(mem.OpenPaths),
		Summary:            mem.Summary,
		LastSequenceNumber: mem.LastSequence,
	}
	if state.ID != uuid.Nil {
		doc.SlotID = state.ID.String()
	}
	if !state.SavedAt.IsZero() {
		savedAt := state.SavedAt.UTC()
		doc.SavedAt = &savedAt
	}
	for _, d := range mem.Decisions {
		doc.Decisions = append(doc.Decisions, decisionDocument{
			SectionID:      models.StringPtr(d.SectionID),
			Label:          models.StringPtr(d.ChoiceLabel),
			SequenceNumber: d.SequenceNumber,
		})
	}
	data, err := marshal(&doc, format)
	if err != nil {
		return nil, fmt.Errorf("encode memory: %w", err)
	}
	return data, nil
}

// DecodeMemory reads a save state written by EncodeMemory or by the older
// memory layout (visited_sections, decisions_made).
// Visited ids must be unique and sequence numbers strictly increasing.
func DecodeMemory(data []byte, format Format) (*models.SaveState, error) {
	var doc saveDocument
	if err := unmarshal(data, format, &doc); err != nil {
		return nil, err
	}
	if err := checkRequired(&doc, ""); err != nil {
		return nil, err
	}

	state := &models.SaveState{
		StoryName:        doc.StoryName,
		CurrentSectionID: *doc.CurrentSectionID,
	}
	if doc.SlotID != "" {
		id, err := uuid.Parse(doc.SlotID)
		if err != nil {
			return nil, &models.ParseError{Field: "slot_id", Err: err}
		}
		state.ID = id
	}
	if doc.SavedAt != nil {
		state.SavedAt = *doc.SavedAt
	}

	visited := doc.Visited
	visitedField := "visited"
	if visited == nil && doc.VisitedSections != nil {
		visited = doc.VisitedSections
		visitedField = "visited_sections"
	}
	seen := make(map[string]struct{}, len(visited))
	for i, id := range visited {
		if _, dup := seen[id]; dup {
			return nil, &models.ParseError{
				Field: fmt.Sprintf("%s[%d]", visitedField, i),
				Err:   fmt.Errorf("section %q is listed twice", id),
			}
		}
		seen[id] = struct{}{}
	}

	decisions := make([]models.DecisionRecord, 0, len(doc.Decisions)+len(doc.DecisionsMade))
	decisionField := "decisions"
	for _, d := range doc.Decisions {
		decisions = append(decisions, models.DecisionRecord{SectionID: *d.SectionID, ChoiceLabel: *d.Label, SequenceNumber: d.SequenceNumber})
	}
	if len(doc.Decisions) == 0 && len(doc.DecisionsMade) > 0 {
		decisionField = "decisions_made"
		for _, d := range doc.DecisionsMade {
			decisions = append(decisions, models.DecisionRecord{SectionID: *d.SectionID, ChoiceLabel: *d.Decision, SequenceNumber: d.Order})
		}
	}
	last := 0
	for i, d := range decisions {
		if d.SequenceNumber <= last {
			return nil, &models.ParseError{
				Field: fmt.Sprintf("%s[%d].sequence_number", decisionField, i),
				Err:   fmt.Errorf("sequence number %d is not greater than %d", d.SequenceNumber, last),
			}
		}
		last = d.SequenceNumber
	}
	if doc.LastSequenceNumber > last {
		last = doc.LastSequenceNumber
	}

	state.Memory = models.PlayerMemory{
		Visited:      nilIfEmpty(visited),
		Hints:        nilIfEmpty(doc.Hints),
		OpenPaths:    nilIfEmpty(doc.OpenPaths),
		Summary:      doc.Summary,
		LastSequence: last,
	}
	if len(decisions) > 0 {
		state.Memory.Decisions = decisions
	}
	return state, nil
}

func nonNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}

func nilIfEmpty(list []string) []string {
	if len(list) == 0 {
		return nil
	}
	return list
}
