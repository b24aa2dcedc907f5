package interfaces

import (
	"context"

	"gamebook/shared/models"
)

// StoryRepository persists story documents by name.
//
//go:generate mockery --name StoryRepository --output ./mocks --outpkg mocks --case=underscore
type StoryRepository interface {
	// Load reads and decodes a story.
	// Returns models.ErrNotFound if no story with the given name exists,
	// and a *models.ParseError if the document is malformed.
	Load(ctx context.Context, name string) (*models.LoadedStory, error)

	// Save writes the story atomically, replacing any previous version.
	Save(ctx context.Context, name string, story *models.Story) error

	// Exists reports whether a story with the given name is stored.
	Exists(ctx context.Context, name string) (bool, error)

	// List returns the names of all stored stories in lexical order.
	List(ctx context.Context) ([]string, error)

	// Path returns where the story with the given name is (or would be) stored.
	Path(name string) string
}
