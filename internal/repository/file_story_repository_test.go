package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"gamebook/internal/codec"
	"gamebook/shared/models"
)

func testStory() *models.Story {
	return &models.Story{
		Title:          "Lighthouse",
		StartSectionID: "shore",
		Sections: []*models.Section{
			{ID: "shore", Title: "Shore", Body: "Waves.", Choices: []models.Choice{{Label: "A", Text: "Climb", TargetID: "top"}}},
			{ID: "top", Title: "Top", Body: "The lamp."},
		},
	}
}

func TestFileStoryRepository_SaveLoad(t *testing.T) {
	for _, format := range []codec.Format{codec.FormatJSON, codec.FormatYAML} {
		t.Run(string(format), func(t *testing.T) {
			dir := t.TempDir()
			repo := NewFileStoryRepository(dir, format, zap.NewNop())
			ctx := context.Background()

			require.NoError(t, repo.Save(ctx, "lighthouse", testStory()))
			assert.FileExists(t, filepath.Join(dir, "lighthouse"+format.Ext()))

			exists, err := repo.Exists(ctx, "lighthouse")
			require.NoError(t, err)
			assert.True(t, exists)

			loaded, err := repo.Load(ctx, "lighthouse")
			require.NoError(t, err)
			assert.Equal(t, testStory(), loaded.Story)
		})
	}
}

func TestFileStoryRepository_NotFound(t *testing.T) {
	repo := NewFileStoryRepository(t.TempDir(), codec.FormatJSON, zap.NewNop())

	_, err := repo.Load(context.Background(), "missing")
	assert.ErrorIs(t, err, models.ErrNotFound)

	exists, err := repo.Exists(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestFileStoryRepository_ReadsOtherFormat(t *testing.T) {
	dir := t.TempDir()
	yamlRepo := NewFileStoryRepository(dir, codec.FormatYAML, zap.NewNop())
	require.NoError(t, yamlRepo.Save(context.Background(), "lighthouse", testStory()))

	jsonRepo := NewFileStoryRepository(dir, codec.FormatJSON, zap.NewNop())
	loaded, err := jsonRepo.Load(context.Background(), "lighthouse")
	require.NoError(t, err)
	assert.Equal(t, "Lighthouse", loaded.Story.Title)
}

func TestFileStoryRepository_SaveKeepsExistingFormat(t *testing.T) {
	dir := t.TempDir()
	yamlRepo := NewFileStoryRepository(dir, codec.FormatYAML, zap.NewNop())
	require.NoError(t, yamlRepo.Save(context.Background(), "lighthouse", testStory()))

	jsonRepo := NewFileStoryRepository(dir, codec.FormatJSON, zap.NewNop())
	yamlPath := filepath.Join(dir, "lighthouse.yaml")
	assert.Equal(t, yamlPath, jsonRepo.Path("lighthouse"))
	assert.Equal(t, filepath.Join(dir, "fresh.json"), jsonRepo.Path("fresh"))

	story := testStory()
	story.Title = "Lighthouse, revised"
	require.NoError(t, jsonRepo.Save(context.Background(), "lighthouse", story))
	assert.NoFileExists(t, filepath.Join(dir, "lighthouse.json"))

	data, err := os.ReadFile(yamlPath)
	require.NoError(t, err)
	loaded, err := codec.DecodeStory(data, codec.FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, "Lighthouse, revised", loaded.Story.Title)
}

func TestFileStoryRepository_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte(`{"title": "x"`), 0o644))
	repo := NewFileStoryRepository(dir, codec.FormatJSON, zap.NewNop())

	_, err := repo.Load(context.Background(), "broken")
	assert.ErrorIs(t, err, models.ErrParse)
}

func TestFileStoryRepository_List(t *testing.T) {
	dir := t.TempDir()
	repo := NewFileStoryRepository(dir, codec.FormatJSON, zap.NewNop())
	ctx := context.Background()

	names, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, names)

	require.NoError(t, repo.Save(ctx, "zeta", testStory()))
	require.NoError(t, repo.Save(ctx, "alpha", testStory()))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	names, err = repo.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "zeta"}, names)
}

func TestFileStoryRepository_RejectsPathNames(t *testing.T) {
	repo := NewFileStoryRepository(t.TempDir(), codec.FormatJSON, zap.NewNop())
	for _, name := range []string{"", "../escape", "a/b", ".."} {
		err := repo.Save(context.Background(), name, testStory())
		assert.ErrorIs(t, err, models.ErrInvalidInput, name)
	}
}

func TestFileStoryRepository_CancelledContext(t *testing.T) {
	repo := NewFileStoryRepository(t.TempDir(), codec.FormatJSON, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.Load(ctx, "lighthouse")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWriteFileAtomic_ReplacesAndLeavesNoTemp(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "file.json")

	require.NoError(t, WriteFileAtomic(path, []byte("first"), 0o644))
	require.NoError(t, WriteFileAtomic(path, []byte("second"), 0o644))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
