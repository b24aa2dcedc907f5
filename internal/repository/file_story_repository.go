package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"gamebook/internal/codec"
	"gamebook/shared/interfaces"
	"gamebook/shared/models"
)

// Compile-time check to ensure fileStoryRepository implements the interface
var _ interfaces.StoryRepository = (*fileStoryRepository)(nil)

// fileStoryRepository хранит каждую историю отдельным файлом <dir>/<name>.<ext>.
type fileStoryRepository struct {
	dir    string
	format codec.Format
	logger *zap.Logger
}

// NewFileStoryRepository creates a story repository rooted at dir.
// New stories are written in format; existing files are read in whichever
// supported format they were written in.
func NewFileStoryRepository(dir string, format codec.Format, logger *zap.Logger) interfaces.StoryRepository {
	return &fileStoryRepository{
		dir:    dir,
		format: format,
		logger: logger.Named("FileStoryRepo"),
	}
}

// Path returns the existing file of the story, or the file a first save would create.
func (r *fileStoryRepository) Path(name string) string {
	if path, ok := r.locate(name); ok {
		return path
	}
	return r.defaultPath(name)
}

func (r *fileStoryRepository) defaultPath(name string) string {
	return filepath.Join(r.dir, name+r.format.Ext())
}

// locate finds the existing file of a story, preferring the configured format.
func (r *fileStoryRepository) locate(name string) (string, bool) {
	candidates := []string{r.defaultPath(name)}
	for _, ext := range []string{".json", ".yaml", ".yml"} {
		candidates = append(candidates, filepath.Join(r.dir, name+ext))
	}
	for _, path := range candidates {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, true
		}
	}
	return "", false
}

func (r *fileStoryRepository) Load(ctx context.Context, name string) (*models.LoadedStory, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := checkName("story", name); err != nil {
		return nil, err
	}
	path, ok := r.locate(name)
	if !ok {
		r.logger.Debug("Story not found", zap.String("name", name))
		return nil, &models.NotFoundError{Kind: "story", ID: name}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		r.logger.Error("Failed to read story file", zap.String("path", path), zap.Error(err))
		return nil, fmt.Errorf("read story %q: %w", name, err)
	}
	loaded, err := codec.DecodeStory(data, codec.FormatFromPath(path))
	if err != nil {
		r.logger.Warn("Story file is malformed", zap.String("path", path), zap.Error(err))
		return nil, fmt.Errorf("load story %q: %w", name, err)
	}

	r.logger.Debug("Story loaded",
		zap.String("path", path),
		zap.String("shape", string(loaded.Shape)),
		zap.Int("sections", len(loaded.Story.Sections)),
	)
	return loaded, nil
}

func (r *fileStoryRepository) Save(ctx context.Context, name string, story *models.Story) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkName("story", name); err != nil {
		return err
	}
	// Существующий файл остаётся в своём формате
	path := r.Path(name)
	data, err := codec.EncodeStory(story, codec.FormatFromPath(path))
	if err != nil {
		return err
	}
	if err := WriteFileAtomic(path, data, 0o644); err != nil {
		r.logger.Error("Failed to write story file", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("save story %q: %w", name, err)
	}
	r.logger.Debug("Story saved", zap.String("path", path), zap.Int("bytes", len(data)))
	return nil
}

func (r *fileStoryRepository) Exists(ctx context.Context, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if err := checkName("story", name); err != nil {
		return false, err
	}
	_, ok := r.locate(name)
	return ok, nil
}

func (r *fileStoryRepository) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("list stories in %s: %w", r.dir, err)
	}

	seen := make(map[string]struct{})
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		ext := filepath.Ext(entry.Name())
		switch strings.ToLower(ext) {
		case ".json", ".yaml", ".yml":
		default:
			continue
		}
		name := strings.TrimSuffix(entry.Name(), ext)
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
