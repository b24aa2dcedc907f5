package interfaces

import (
	"context"

	"github.com/google/uuid"

	"gamebook/shared/models"
)

// SaveSlotRepository defines the interface for storing resumable play sessions.
//
//go:generate mockery --name SaveSlotRepository --output ./mocks --outpkg mocks --case=underscore
type SaveSlotRepository interface {
	// Save creates a new slot if state.ID is the zero UUID,
	// or overwrites the existing one. Returns the slot ID.
	Save(ctx context.Context, state *models.SaveState) (uuid.UUID, error)

	// Get retrieves a slot of a story by its ID.
	// Returns models.ErrNotFound if no such slot exists.
	Get(ctx context.Context, storyName string, id uuid.UUID) (*models.SaveState, error)

	// List returns summaries of all slots of a story, newest first.
	// Returns an empty slice if there are none.
	List(ctx context.Context, storyName string) ([]*models.SaveSummary, error)

	// Delete removes a slot.
	// Returns models.ErrNotFound if the slot does not exist.
	Delete(ctx context.Context, storyName string, id uuid.UUID) error
}
