package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"gamebook/internal/codec"
	"gamebook/shared/interfaces"
	"gamebook/shared/models"
)

// BadgerConfig holds configuration for the embedded save slot database.
type BadgerConfig struct {
	// Path is the database directory. Ignored when InMemory is true.
	Path string
	// InMemory keeps everything in RAM; used by tests.
	InMemory   bool
	SyncWrites bool
}

// badgerLogger adapts zap to badger's logger interface.
type badgerLogger struct {
	logger *zap.SugaredLogger
}

func (l *badgerLogger) Errorf(format string, args ...interface{})   { l.logger.Errorf(format, args...) }
func (l *badgerLogger) Warningf(format string, args ...interface{}) { l.logger.Warnf(format, args...) }
func (l *badgerLogger) Infof(format string, args ...interface{})    { l.logger.Debugf(format, args...) }
func (l *badgerLogger) Debugf(format string, args ...interface{})   { l.logger.Debugf(format, args...) }

// OpenBadger opens the save slot database. The caller must Close it.
func OpenBadger(cfg BadgerConfig, logger *zap.Logger) (*badger.DB, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for persistent database")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)
	if logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: logger.Named("Badger").Sugar()})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}
	return db, nil
}

var _ interfaces.SaveSlotRepository = (*badgerSaveRepository)(nil)

// badgerSaveRepository хранит слоты под ключами save/<story>/<id>, значения в JSON.
type badgerSaveRepository struct {
	db     *badger.DB
	now    func() time.Time
	logger *zap.Logger
}

// NewBadgerSaveRepository creates a save slot repository on an open database.
func NewBadgerSaveRepository(db *badger.DB, logger *zap.Logger) interfaces.SaveSlotRepository {
	return &badgerSaveRepository{
		db:     db,
		now:    time.Now,
		logger: logger.Named("BadgerSaveRepo"),
	}
}

func slotPrefix(storyName string) []byte {
	return []byte("save/" + storyName + "/")
}

func slotKey(storyName string, id uuid.UUID) []byte {
	return append(slotPrefix(storyName), id.String()...)
}

func (r *badgerSaveRepository) Save(ctx context.Context, state *models.SaveState) (uuid.UUID, error) {
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

	data, err := codec.EncodeMemory(state, codec.FormatJSON)
	if err != nil {
		return uuid.Nil, err
	}
	err = r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(slotKey(state.StoryName, state.ID), data)
	})
	if err != nil {
		r.logger.Error("Failed to write save slot", zap.Stringer("slotID", state.ID), zap.Error(err))
		return uuid.Nil, fmt.Errorf("save slot %s: %w", state.ID, err)
	}
	r.logger.Debug("Save slot written", zap.String("story", state.StoryName), zap.Stringer("slotID", state.ID))
	return state.ID, nil
}

func (r *badgerSaveRepository) Get(ctx context.Context, storyName string, id uuid.UUID) (*models.SaveState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := checkName("story", storyName); err != nil {
		return nil, err
	}

	var data []byte
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(slotKey(storyName, id))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, &models.NotFoundError{Kind: "save slot", ID: id.String()}
		}
		return nil, fmt.Errorf("read save slot %s: %w", id, err)
	}
	return r.decode(data, storyName, id)
}

func (r *badgerSaveRepository) decode(data []byte, storyName string, id uuid.UUID) (*models.SaveState, error) {
	state, err := codec.DecodeMemory(data, codec.FormatJSON)
	if err != nil {
		return nil, fmt.Errorf("load save slot %s: %w", id, err)
	}
	state.ID = id
	state.StoryName = storyName
	return state, nil
}

func (r *badgerSaveRepository) List(ctx context.Context, storyName string) ([]*models.SaveSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := checkName("story", storyName); err != nil {
		return nil, err
	}

	prefix := slotPrefix(storyName)
	summaries := make([]*models.SaveSummary, 0)
	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			id, err := uuid.Parse(strings.TrimPrefix(string(item.Key()), string(prefix)))
			if err != nil {
				continue
			}
			data, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			state, err := r.decode(data, storyName, id)
			if err != nil {
				r.logger.Warn("Skipping unreadable save slot", zap.Stringer("slotID", id), zap.Error(err))
				continue
			}
			summaries = append(summaries, state.Summary())
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list save slots of %q: %w", storyName, err)
	}
	sortSummaries(summaries)
	return summaries, nil
}

func (r *badgerSaveRepository) Delete(ctx context.Context, storyName string, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkName("story", storyName); err != nil {
		return err
	}
	key := slotKey(storyName, id)
	err := r.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key); err != nil {
			return err
		}
		return txn.Delete(key)
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return &models.NotFoundError{Kind: "save slot", ID: id.String()}
		}
		return fmt.Errorf("delete save slot %s: %w", id, err)
	}
	r.logger.Debug("Save slot deleted", zap.String("story", storyName), zap.Stringer("slotID", id))
	return nil
}
