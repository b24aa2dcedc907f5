package models

import (
	"time"

	"github.com/google/uuid"
)

// SaveState is a resumable snapshot of a play session (a save slot).
// The document form only needs Memory and CurrentSectionID; the remaining fields
// are slot bookkeeping filled in by the repositories.
type SaveState struct {
	ID               uuid.UUID
	StoryName        string
	CurrentSectionID string
	Memory           PlayerMemory
	SavedAt          time.Time
}

// SaveSummary is a short listing entry for a save slot.
type SaveSummary struct {
	ID               uuid.UUID `json:"id"`
	StoryName        string    `json:"story_name"`
	CurrentSectionID string    `json:"current_section_id"`
	DecisionCount    int       `json:"decision_count"`
	SavedAt          time.Time `json:"saved_at"`
}

// Summary builds the listing entry for the slot.
func (s *SaveState) Summary() *SaveSummary {
	return &SaveSummary{
		ID:               s.ID,
		StoryName:        s.StoryName,
		CurrentSectionID: s.CurrentSectionID,
		DecisionCount:    len(s.Memory.Decisions),
		SavedAt:          s.SavedAt,
	}
}
