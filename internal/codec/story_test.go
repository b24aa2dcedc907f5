package codec_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gamebook/internal/codec"
	"gamebook/internal/engine"
	"gamebook/internal/graph"
	"gamebook/internal/memory"
	"gamebook/shared/models"
)

func sampleStory() *models.Story {
	return &models.Story{
		Title:          "The Cellar",
		Author:         "M. Reed",
		StartSectionID: "intro",
		Sections: []*models.Section{
			{
				ID:    "intro",
				Title: "Intro",
				Body:  "A door creaks <open> & waits.",
				Choices: []models.Choice{
					{Label: "A", Text: "Go down", TargetID: "cellar"},
					{Label: "B", Text: "Leave", TargetID: "street"},
				},
				Hints:           []string{"the cellar is dark"},
				ImageDescriptor: models.StringPtr("a wooden door"),
			},
			{
				ID:              "street",
				Title:           "Street",
				Body:            "You walk away.",
				ImageDescriptor: models.StringPtr(""),
			},
			{
				ID:              "cellar",
				Title:           "Cellar",
				Body:            "Darkness.",
				AuxiliaryMemory: map[string]string{"mood": "tense"},
			},
		},
	}
}

func TestStory_RoundTrip(t *testing.T) {
	for _, format := range []codec.Format{codec.FormatJSON, codec.FormatYAML} {
		t.Run(string(format), func(t *testing.T) {
			story := sampleStory()

			data, err := codec.EncodeStory(story, format)
			require.NoError(t, err)

			loaded, err := codec.DecodeStory(data, format)
			require.NoError(t, err)
			assert.Equal(t, models.ShapeCanonical, loaded.Shape)
			assert.Equal(t, story, loaded.Story)
		})
	}
}

func TestStory_EncodePreservesSectionOrder(t *testing.T) {
	data, err := codec.EncodeStory(sampleStory(), codec.FormatJSON)
	require.NoError(t, err)

	text := string(data)
	intro := strings.Index(text, `"intro": {`)
	street := strings.Index(text, `"street": {`)
	cellar := strings.Index(text, `"cellar": {`)
	require.True(t, intro >= 0 && street >= 0 && cellar >= 0, text)
	assert.Less(t, intro, street)
	assert.Less(t, street, cellar)
}

func TestStory_OptionalFieldPresence(t *testing.T) {
	data, err := codec.EncodeStory(sampleStory(), codec.FormatJSON)
	require.NoError(t, err)

	loaded, err := codec.DecodeStory(data, codec.FormatJSON)
	require.NoError(t, err)

	sections := loaded.Story.Sections
	require.NotNil(t, sections[1].ImageDescriptor)
	assert.Equal(t, "", *sections[1].ImageDescriptor)
	assert.Nil(t, sections[2].ImageDescriptor)
	assert.Nil(t, sections[1].Choices)
}

func TestDecodeStory_ParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		doc   string
		field string
	}{
		{
			name:  "missing title",
			doc:   `{"start_section_id": "a", "sections": {}}`,
			field: "title",
		},
		{
			name:  "missing start",
			doc:   `{"title": "T", "sections": {}}`,
			field: "start_section_id",
		},
		{
			name:  "missing sections",
			doc:   `{"title": "T", "start_section_id": "a"}`,
			field: "sections",
		},
		{
			name:  "missing body",
			doc:   `{"title": "T", "start_section_id": "a", "sections": {"a": {"id": "a", "title": "A", "choices": []}}}`,
			field: "sections.a.body",
		},
		{
			name:  "missing choice target",
			doc:   `{"title": "T", "start_section_id": "a", "sections": {"a": {"id": "a", "title": "A", "body": "", "choices": [{"label": "A", "text": "go"}]}}}`,
			field: "sections.a.choices[0].target_id",
		},
		{
			name:  "id does not match key",
			doc:   `{"title": "T", "start_section_id": "a", "sections": {"a": {"id": "b", "title": "A", "body": "", "choices": []}}}`,
			field: "sections.a.id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loaded, err := codec.DecodeStory([]byte(tt.doc), codec.FormatJSON)
			require.Error(t, err)
			assert.Nil(t, loaded)
			assert.ErrorIs(t, err, models.ErrParse)

			var parseErr *models.ParseError
			require.True(t, errors.As(err, &parseErr))
			assert.Equal(t, tt.field, parseErr.Field)
		})
	}
}

func TestDecodeStory_MalformedDocument(t *testing.T) {
	_, err := codec.DecodeStory([]byte(`{"title": `), codec.FormatJSON)
	assert.ErrorIs(t, err, models.ErrParse)

	_, err = codec.DecodeStory([]byte("title: [unclosed"), codec.FormatYAML)
	assert.ErrorIs(t, err, models.ErrParse)
}

func TestDecodeStory_EmptyBodyIsPresent(t *testing.T) {
	doc := `{"title": "T", "start_section_id": "a", "sections": {"a": {"id": "a", "title": "", "body": "", "choices": []}}}`
	loaded, err := codec.DecodeStory([]byte(doc), codec.FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, "", loaded.Story.Sections[0].Body)
}

func TestDecodeStory_BookLayout(t *testing.T) {
	doc := `{
  "title": "Old Book",
  "start_section_id": "1",
  "sections": {
    "1": {"id": "1", "title": "Gate", "text": "A gate.", "decisions": [{"option": "A", "text": "Enter", "next_section_id": "2"}], "is_ending": false, "image_prompt": null},
    "2": {"id": "2", "title": "Hall", "text": "A hall.", "decisions": [], "is_ending": false, "image_prompt": "a hall"}
  }
}`
	loaded, err := codec.DecodeStory([]byte(doc), codec.FormatJSON)
	require.NoError(t, err)

	assert.Equal(t, models.ShapeBook, loaded.Shape)
	assert.Equal(t, "1", loaded.Story.StartSectionID)
	require.Len(t, loaded.Story.Sections, 2)
	assert.Equal(t, "A gate.", loaded.Story.Sections[0].Body)
	assert.Nil(t, loaded.Story.Sections[0].ImageDescriptor)
	assert.Equal(t, []models.Choice{{Label: "A", Text: "Enter", TargetID: "2"}}, loaded.Story.Sections[0].Choices)
	assert.Equal(t, "a hall", *loaded.Story.Sections[1].ImageDescriptor)
	assert.Equal(t, models.EndingClaims{"1": false, "2": false}, loaded.EndingClaims)
}

func TestDecodeStory_ManagerLayout(t *testing.T) {
	doc := `
title: Manager Story
sections:
  s1:
    section_id: s1
    title: Start
    content: Begin here.
    choices:
      - label: A
        text: Onward
        next_section_id: s2
    image_prompt: ""
    hints: [look up, look up]
    story_memory:
      gold: 3
      mood: calm
  s2:
    section_id: s2
    title: End
    content: Fin.
    choices: []
`
	loaded, err := codec.DecodeStory([]byte(doc), codec.FormatYAML)
	require.NoError(t, err)

	assert.Equal(t, models.ShapeManager, loaded.Shape)
	assert.Equal(t, "s1", loaded.Story.StartSectionID)
	first := loaded.Story.Sections[0]
	assert.Equal(t, "Begin here.", first.Body)
	assert.Nil(t, first.ImageDescriptor)
	assert.Equal(t, []string{"look up"}, first.Hints)
	assert.Equal(t, map[string]string{"gold": "3", "mood": "calm"}, first.AuxiliaryMemory)
	assert.True(t, loaded.Story.Sections[1].IsEnding())
}

func TestDecodeStory_PagesLayout(t *testing.T) {
	doc := `{
  "title": "Pages",
  "pages": [
    {"id": 1, "text": "First.", "choices": [{"text": "left", "next": 2}, {"text": "right", "next": "3"}]},
    {"id": 2, "text": "Second.", "image": "a forest"},
    {"id": "3", "title": "Third", "text": "Third."}
  ]
}`
	loaded, err := codec.DecodeStory([]byte(doc), codec.FormatJSON)
	require.NoError(t, err)

	assert.Equal(t, models.ShapePages, loaded.Shape)
	story := loaded.Story
	assert.Equal(t, "1", story.StartSectionID)
	require.Len(t, story.Sections, 3)
	assert.Equal(t, "Page 1", story.Sections[0].Title)
	assert.Equal(t, []models.Choice{
		{Label: "A", Text: "left", TargetID: "2"},
		{Label: "B", Text: "right", TargetID: "3"},
	}, story.Sections[0].Choices)
	assert.Equal(t, "a forest", *story.Sections[1].ImageDescriptor)
	assert.Equal(t, "Third", story.Sections[2].Title)
}

func TestDecodeStory_UnlabeledChoicesGetPositionalLabels(t *testing.T) {
	tests := []struct {
		name   string
		format codec.Format
		doc    string
	}{
		{
			name:   "manager",
			format: codec.FormatYAML,
			doc: `
title: Unlabeled
sections:
  s1:
    section_id: s1
    title: Start
    content: Begin.
    choices:
      - text: go
        next_section_id: s2
      - label: A
        text: stay
        next_section_id: s1
  s2:
    section_id: s2
    title: End
    content: Fin.
    choices: []
`,
		},
		{
			name:   "book",
			format: codec.FormatJSON,
			doc: `{"title": "Unlabeled", "start_section_id": "s1", "sections": {
  "s1": {"id": "s1", "title": "Start", "text": "Begin.", "decisions": [{"text": "go", "next_section_id": "s2"}, {"option": "A", "text": "stay", "next_section_id": "s1"}]},
  "s2": {"id": "s2", "title": "End", "text": "Fin.", "decisions": []}}}`,
		},
		{
			name:   "canonical",
			format: codec.FormatJSON,
			doc: `{"title": "Unlabeled", "start_section_id": "s1", "sections": {
  "s1": {"id": "s1", "title": "Start", "body": "Begin.", "choices": [{"text": "go", "target_id": "s2"}, {"label": "A", "text": "stay", "target_id": "s1"}]},
  "s2": {"id": "s2", "title": "End", "body": "Fin.", "choices": []}}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loaded, err := codec.DecodeStory([]byte(tt.doc), tt.format)
			require.NoError(t, err)

			// Позиционная метка A уже занята, поэтому выбор получает следующую свободную
			start := loaded.Story.Sections[0]
			assert.Equal(t, []models.Choice{
				{Label: "C", Text: "go", TargetID: "s2"},
				{Label: "A", Text: "stay", TargetID: "s1"},
			}, start.Choices)

			store, err := graph.FromStory(loaded.Story)
			require.NoError(t, err)
			eng := engine.New(store, memory.New())
			_, err = eng.Enter()
			require.NoError(t, err)
			section, err := eng.Choose("c")
			require.NoError(t, err)
			assert.Equal(t, "s2", section.ID)
			assert.Equal(t, engine.Ended, eng.State().Kind)
		})
	}
}

func TestDecodeStory_SingleUnlabeledChoiceIsA(t *testing.T) {
	doc := `{"title": "T", "start_section_id": "a", "sections": {
  "a": {"id": "a", "title": "A", "body": "", "choices": [{"text": "next", "target_id": "b"}]},
  "b": {"id": "b", "title": "B", "body": "", "choices": []}}}`
	loaded, err := codec.DecodeStory([]byte(doc), codec.FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, "A", loaded.Story.Sections[0].Choices[0].Label)
}

func TestDecodeStory_DuplicateSectionKey(t *testing.T) {
	tests := []struct {
		name   string
		format codec.Format
		doc    string
		field  string
	}{
		{
			name:   "canonical json",
			format: codec.FormatJSON,
			doc: `{"title": "T", "start_section_id": "s1", "sections": {
  "s1": {"id": "s1", "title": "One", "body": "first", "choices": []},
  "s1": {"id": "s1", "title": "One", "body": "second", "choices": []}}}`,
			field: "sections.s1",
		},
		{
			name:   "book json",
			format: codec.FormatJSON,
			doc: `{"title": "T", "start_section_id": "1", "sections": {
  "1": {"id": "1", "title": "A", "text": "x", "decisions": []},
  "2": {"id": "2", "title": "B", "text": "y", "decisions": []},
  "1": {"id": "1", "title": "C", "text": "z", "decisions": []}}}`,
			field: "sections.1",
		},
		{
			name:   "canonical yaml",
			format: codec.FormatYAML,
			doc: `
title: T
start_section_id: s1
sections:
  s1: {id: s1, title: One, body: first, choices: []}
  s1: {id: s1, title: One, body: second, choices: []}
`,
			field: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loaded, err := codec.DecodeStory([]byte(tt.doc), tt.format)
			require.Error(t, err)
			assert.Nil(t, loaded)

			var parseErr *models.ParseError
			require.True(t, errors.As(err, &parseErr))
			assert.Equal(t, tt.field, parseErr.Field)
		})
	}
}

func TestDecodeStory_RepeatedKeysOutsideSectionsAreIgnored(t *testing.T) {
	doc := `{"title": "Old", "title": "T", "start_section_id": "a", "sections": {
  "a": {"id": "a", "title": "A", "body": "", "choices": []}}}`
	loaded, err := codec.DecodeStory([]byte(doc), codec.FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, "T", loaded.Story.Title)
}

func TestDecodeStory_PagesRequiresAPage(t *testing.T) {
	_, err := codec.DecodeStory([]byte(`{"title": "Empty", "pages": []}`), codec.FormatJSON)
	var parseErr *models.ParseError
	require.True(t, errors.As(err, &parseErr))
	assert.Equal(t, "pages", parseErr.Field)
}

func TestParseFormat(t *testing.T) {
	f, err := codec.ParseFormat("YML")
	require.NoError(t, err)
	assert.Equal(t, codec.FormatYAML, f)

	f, err = codec.ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, codec.FormatJSON, f)

	_, err = codec.ParseFormat("toml")
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	assert.Equal(t, codec.FormatYAML, codec.FormatFromPath("stories/cellar.yaml"))
	assert.Equal(t, codec.FormatJSON, codec.FormatFromPath("stories/cellar.json"))
	assert.Equal(t, ".yaml", codec.FormatYAML.Ext())
}
