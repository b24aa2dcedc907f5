// Package cli wires the gamebook services into cobra commands and runs the
// interactive reader.
package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"

	"gamebook/internal/config"
	"gamebook/internal/metrics"
	"gamebook/internal/repository"
	"gamebook/internal/service"
	"gamebook/shared/interfaces"
)

// App holds the dependencies shared by all commands.
type App struct {
	Config    *config.Config
	Logger    *zap.Logger
	Metrics   *metrics.Metrics
	Stories   interfaces.StoryRepository
	Saves     interfaces.SaveSlotRepository
	Authoring service.AuthoringService
	Gameplay  service.GameplayService

	// Color enables styled reader output; set when stdout is a terminal.
	Color bool

	db *badger.DB
}

// NewApp builds repositories and services from the configuration.
func NewApp(cfg *config.Config, logger *zap.Logger) (*App, error) {
	app := &App{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics.New(),
		Stories: repository.NewFileStoryRepository(cfg.StoryDir, cfg.Format(), logger),
	}

	switch cfg.Backend() {
	case config.SaveBackendBadger:
		db, err := repository.OpenBadger(repository.BadgerConfig{Path: cfg.BadgerDir(), SyncWrites: true}, logger)
		if err != nil {
			return nil, err
		}
		app.db = db
		app.Saves = repository.NewBadgerSaveRepository(db, logger)
	default:
		app.Saves = repository.NewFileSaveRepository(cfg.SaveDir, cfg.Format(), logger)
	}

	app.Authoring = service.NewAuthoringService(app.Stories, cfg.StrictValidation, app.Metrics, logger)
	app.Gameplay = service.NewGameplayService(app.Stories, app.Saves, app.Metrics, logger)
	logger.Debug("Application initialized",
		zap.String("storyDir", cfg.StoryDir),
		zap.String("saveBackend", cfg.Backend()),
		zap.Bool("strict", cfg.StrictValidation),
	)
	return app, nil
}

// Close releases the save slot database, if one is open.
func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	err := a.db.Close()
	a.db = nil
	return err
}

// FlushMetrics writes the metrics textfile when one is configured.
// It runs after every command, failed ones included.
func (a *App) FlushMetrics() error {
	if a.Config.MetricsFile == "" {
		return nil
	}
	return a.Metrics.WriteTextfile(a.Config.MetricsFile)
}

// ExitCode maps a command error to a process exit status.
func ExitCode(err error) int {
	var exit *exitError
	switch {
	case err == nil:
		return 0
	case errors.As(err, &exit):
		return exit.code
	default:
		return 1
	}
}

// exitError carries an exit status for a failure that was already reported.
type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string { return e.msg }

func fprintf(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
