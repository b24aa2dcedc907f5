package cli_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"gamebook/internal/cli"
	"gamebook/internal/config"
	"gamebook/shared/models"
)

func newTestApp(t *testing.T, backend string) *cli.App {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		StoryDir:    filepath.Join(dir, "stories"),
		StoryFormat: "json",
		SaveDir:     filepath.Join(dir, "saves"),
		SaveBackend: backend,
		MetricsFile: filepath.Join(dir, "gamebook.prom"),
	}
	require.NoError(t, cfg.Validate())

	app, err := cli.NewApp(cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })
	return app
}

func run(t *testing.T, app *cli.App, input string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := cli.NewRootCommand(app)
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(input))
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

// buildCellar creates start -> hall -> (cellar | street) through the commands.
func buildCellar(t *testing.T, app *cli.App) {
	t.Helper()
	steps := [][]string{
		{"new", "cellar", "--title", "The Cellar", "--author", "M. Reed", "--start-body", "A door creaks."},
		{"section", "add", "cellar", "hall", "--title", "Hall", "--body", "A long hall."},
		{"section", "add", "cellar", "down", "--title", "Cellar", "--body", "Darkness.", "--image", "stone steps"},
		{"section", "add", "cellar", "street", "--title", "Street", "--body", "You walk away."},
		{"choice", "add", "cellar", "start", "hall", "--text", "Enter"},
		{"choice", "add", "cellar", "hall", "down", "--text", "Go down"},
		{"choice", "add", "cellar", "hall", "street", "--text", "Leave"},
		{"hint", "add", "cellar", "hall", "the cellar is dark"},
		{"aux", "set", "cellar", "down", "mood", "tense"},
	}
	for _, args := range steps {
		_, err := run(t, app, "", args...)
		require.NoError(t, err, strings.Join(args, " "))
	}
}

func TestCommands_AuthoringFlow(t *testing.T) {
	app := newTestApp(t, config.SaveBackendFile)
	buildCellar(t, app)

	out, err := run(t, app, "", "list")
	require.NoError(t, err)
	assert.Equal(t, "cellar\n", out)

	out, err = run(t, app, "", "section", "list", "cellar")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "start"))
	assert.True(t, strings.HasPrefix(lines[1], "hall"))
	assert.Contains(t, lines[1], "2 choices")
	assert.Contains(t, lines[2], "[ending]")

	out, err = run(t, app, "", "info", "cellar")
	require.NoError(t, err)
	assert.Contains(t, out, "Title:       The Cellar")
	assert.Contains(t, out, "Author:      M. Reed")
	assert.Contains(t, out, "Sections:    4")
	assert.Contains(t, out, "Choices:     3")
	assert.Contains(t, out, "Endings:     down, street")
	assert.Contains(t, out, "Unreachable: -")

	out, err = run(t, app, "", "validate", "cellar")
	require.NoError(t, err)
	assert.Contains(t, out, "cellar: OK")
}

func TestCommands_ChoiceLabels(t *testing.T) {
	app := newTestApp(t, config.SaveBackendFile)
	buildCellar(t, app)

	out, err := run(t, app, "", "choice", "add", "cellar", "down", "hall", "--text", "Climb up")
	require.NoError(t, err)
	assert.Contains(t, out, "Added choice A) Climb up -> hall")

	_, err = run(t, app, "", "choice", "add", "cellar", "down", "street", "--text", "Again", "--label", "a")
	assert.ErrorIs(t, err, models.ErrAlreadyExists)

	_, err = run(t, app, "", "choice", "add", "cellar", "nowhere", "hall", "--text", "x")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestCommands_NewRejectsExistingStory(t *testing.T) {
	app := newTestApp(t, config.SaveBackendFile)
	_, err := run(t, app, "", "new", "cellar", "--title", "One")
	require.NoError(t, err)

	_, err = run(t, app, "", "new", "cellar", "--title", "Two")
	assert.ErrorIs(t, err, models.ErrAlreadyExists)
}

func TestCommands_ValidateReportsFatalDiagnostics(t *testing.T) {
	app := newTestApp(t, config.SaveBackendFile)
	buildCellar(t, app)

	// Нестрогий режим сохраняет черновик с висячей ссылкой
	out, err := run(t, app, "", "choice", "add", "cellar", "street", "nowhere", "--text", "Wander")
	require.NoError(t, err)
	assert.Contains(t, out, "dangling_target")

	out, err = run(t, app, "", "validate", "cellar")
	require.Error(t, err)
	assert.Equal(t, 2, cli.ExitCode(err))
	assert.Contains(t, out, "error")
	assert.Contains(t, out, `"nowhere"`)

	_, err = run(t, app, "", "play", "cellar")
	assert.ErrorIs(t, err, models.ErrValidationFailed)
	assert.Equal(t, 1, cli.ExitCode(err))

	// Метрики выгружаются и после неудачной команды
	require.NoError(t, app.FlushMetrics())
	data, err := os.ReadFile(app.Config.MetricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `gamebook_validation_diagnostics_total{kind="dangling_target",severity="error"}`)
}

func TestCommands_StartSet(t *testing.T) {
	app := newTestApp(t, config.SaveBackendFile)
	buildCellar(t, app)

	_, err := run(t, app, "", "start", "set", "cellar", "hall")
	require.NoError(t, err)

	out, err := run(t, app, "", "info", "cellar")
	require.NoError(t, err)
	assert.Contains(t, out, "Start:       hall")
	assert.Contains(t, out, "Unreachable: start")
}

func TestCommands_Export(t *testing.T) {
	app := newTestApp(t, config.SaveBackendFile)
	buildCellar(t, app)

	out, err := run(t, app, "", "export", "cellar")
	require.NoError(t, err)
	assert.Contains(t, out, "# The Cellar")
	assert.Contains(t, out, "## [hall] Hall")
	assert.Contains(t, out, "*Image: stone steps*")
	assert.Contains(t, out, "- the cellar is dark")

	target := filepath.Join(t.TempDir(), "book", "cellar.html")
	out, err = run(t, app, "", "export", "cellar", "--format", "html", "-o", target)
	require.NoError(t, err)
	assert.Contains(t, out, "Exported cellar to "+target)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Contains(t, string(data), `href="#section-hall"`)

	out, err = run(t, app, "", "export", "cellar", "--format", "html", "--printable")
	require.NoError(t, err)
	assert.Contains(t, out, "(turn to hall)")
	assert.NotContains(t, out, `href="#section-hall"`)

	_, err = run(t, app, "", "export", "cellar", "--format", "pdf")
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestCommands_PlaySaveResume(t *testing.T) {
	for _, backend := range []string{config.SaveBackendFile, config.SaveBackendBadger} {
		t.Run(backend, func(t *testing.T) {
			app := newTestApp(t, backend)
			buildCellar(t, app)

			out, err := run(t, app, "A\nS\nM\n", "play", "cellar")
			require.NoError(t, err)
			assert.Contains(t, out, "[A] Go down")
			assert.Contains(t, out, "Hint: the cellar is dark")
			assert.Contains(t, out, "Saved to slot ")

			summaries, err := app.Saves.List(context.Background(), "cellar")
			require.NoError(t, err)
			require.Len(t, summaries, 1)
			slot := summaries[0]
			assert.Equal(t, "hall", slot.CurrentSectionID)
			assert.Equal(t, 1, slot.DecisionCount)

			out, err = run(t, app, "", "saves", "list", "cellar")
			require.NoError(t, err)
			assert.Contains(t, out, slot.ID.String())

			out, err = run(t, app, "B\n", "play", "cellar", "--resume", slot.ID.String())
			require.NoError(t, err)
			assert.Contains(t, out, "Street")
			assert.Contains(t, out, "THE END")

			out, err = run(t, app, "", "saves", "delete", "cellar", slot.ID.String())
			require.NoError(t, err)
			assert.Contains(t, out, "Deleted "+slot.ID.String())

			_, err = run(t, app, "", "play", "cellar", "--resume", slot.ID.String())
			assert.ErrorIs(t, err, models.ErrNotFound)

			_, err = run(t, app, "", "play", "cellar", "--resume", "not-a-uuid")
			assert.ErrorIs(t, err, models.ErrInvalidInput)
		})
	}
}

func TestCommands_UnknownStory(t *testing.T) {
	app := newTestApp(t, config.SaveBackendFile)

	_, err := run(t, app, "", "info", "missing")
	assert.ErrorIs(t, err, models.ErrNotFound)

	out, err := run(t, app, "", "validate", "missing")
	assert.Equal(t, 2, cli.ExitCode(err))
	assert.Contains(t, out, "missing")
}
