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
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"gamebook/internal/codec"
	"gamebook/shared/interfaces"
	"gamebook/shared/models"
)

var _ interfaces.SaveSlotRepository = (*fileSaveRepository)(nil)

// fileSaveRepository хранит слоты сохранений как <dir>/<story>/<id>.<ext>.
type fileSaveRepository struct {
	dir    string
	format codec.Format
	now    func() time.Time
	logger *zap.Logger
}

// NewFileSaveRepository creates a file-backed save slot repository rooted at dir.
func NewFileSaveRepository(dir string, format codec.Format, logger *zap.Logger) interfaces.SaveSlotRepository {
	return &fileSaveRepository{
		dir:    dir,
		format: format,
		now:    time.Now,
		logger: logger.Named("FileSaveRepo"),
	}
}

func (r *fileSaveRepository) slotPath(storyName string, id uuid.UUID) string {
	return filepath.Join(r.dir, storyName, id.String()+r.format.Ext())
}

// Save assigns an ID to a new slot and stamps SavedAt on the passed state.
func (r *fileSaveRepository) Save(ctx context.Context, state *models.SaveState) (uuid.UUID, error) {
	if err := ctx.Err(); err != nil {
		return uuid.Nil, err
	}
	if state == nil {
		return uuid.Nil, fmt.Errorf("save slot: %w", models.ErrInvalidInput)
	}
	if err := checkName("story", state.StoryName); err != nil {
		return uuid.Nil, err
	}
	if state.ID == uuid.Nil {
		state.ID = uuid.New()
	}
	state.SavedAt = r.now().UTC()

	data, err := codec.EncodeMemory(state, r.format)
	if err != nil {
		return uuid.Nil, err
	}
	path := r.slotPath(state.StoryName, state.ID)
	if err := WriteFileAtomic(path, data, 0o644); err != nil {
		r.logger.Error("Failed to write save slot", zap.String("path", path), zap.Error(err))
		return uuid.Nil, fmt.Errorf("save slot %s: %w", state.ID, err)
	}
	r.logger.Debug("Save slot written", zap.String("story", state.StoryName), zap.Stringer("slotID", state.ID))
	return state.ID, nil
}

func (r *fileSaveRepository) Get(ctx context.Context, storyName string, id uuid.UUID) (*models.SaveState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := checkName("story", storyName); err != nil {
		return nil, err
	}
	return r.read(r.slotPath(storyName, id), storyName, id)
}

func (r *fileSaveRepository) read(path, storyName string, id uuid.UUID) (*models.SaveState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &models.NotFoundError{Kind: "save slot", ID: id.String()}
		}
		return nil, fmt.Errorf("read save slot %s: %w", id, err)
	}
	state, err := codec.DecodeMemory(data, r.format)
	if err != nil {
		r.logger.Warn("Save slot is malformed", zap.String("path", path), zap.Error(err))
		return nil, fmt.Errorf("load save slot %s: %w", id, err)
	}
	// Имя файла считается источником истины для слота
	state.ID = id
	state.StoryName = storyName
	return state, nil
}

func (r *fileSaveRepository) List(ctx context.Context, storyName string) ([]*models.SaveSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := checkName("story", storyName); err != nil {
		return nil, err
	}
	dir := filepath.Join(r.dir, storyName)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []*models.SaveSummary{}, nil
		}
		return nil, fmt.Errorf("list save slots in %s: %w", dir, err)
	}

	summaries := make([]*models.SaveSummary, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != r.format.Ext() {
			continue
		}
		id, err := uuid.Parse(strings.TrimSuffix(name, r.format.Ext()))
		if err != nil {
			continue
		}
		state, err := r.read(filepath.Join(dir, name), storyName, id)
		if err != nil {
			r.logger.Warn("Skipping unreadable save slot", zap.String("file", name), zap.Error(err))
			continue
		}
		summaries = append(summaries, state.Summary())
	}
	sortSummaries(summaries)
	return summaries, nil
}

func (r *fileSaveRepository) Delete(ctx context.Context, storyName string, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkName("story", storyName); err != nil {
		return err
	}
	if err := os.Remove(r.slotPath(storyName, id)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &models.NotFoundError{Kind: "save slot", ID: id.String()}
		}
		return fmt.Errorf("delete save slot %s: %w", id, err)
	}
	r.logger.Debug("Save slot deleted", zap.String("story", storyName), zap.Stringer("slotID", id))
	return nil
}

// sortSummaries orders slots newest first, ties broken by ID.
func sortSummaries(summaries []*models.SaveSummary) {
	sort.Slice(summaries, func(i, j int) bool {
		if !summaries[i].SavedAt.Equal(summaries[j].SavedAt) {
			return summaries[i].SavedAt.After(summaries[j].SavedAt)
		}
		return summaries[i].ID.String() < summaries[j].ID.String()
	})
}
