package models

// Choice is a labeled, directed edge from one section to another.
// TargetID is not checked on construction: sections may be added in any order.
type Choice struct {
	Label    string `json:"label,omitempty" yaml:"label,omitempty"` // Короткий код, например "A"
	Text     string `json:"text" yaml:"text"`
	TargetID string `json:"target_id" yaml:"target_id"`
}

// Section is one unit of narrative text plus its outgoing choices.
type Section struct {
	ID              string
	Title           string
	Body            string
	Choices         []Choice
	Hints           []string // Порядок сохраняется, дубликаты не допускаются
	ImageDescriptor *string
	AuxiliaryMemory map[string]string
}

// IsEnding reports whether the section has no outgoing choices.
// There is no stored ending flag; this is the only definition.
func (s *Section) IsEnding() bool {
	return len(s.Choices) == 0
}

// HasHint reports whether hint is already attached to the section.
func (s *Section) HasHint(hint string) bool {
	for _, h := range s.Hints {
		if h == hint {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so read-only consumers cannot alter the graph.
func (s *Section) Clone() *Section {
	c := *s
	if s.Choices != nil {
		c.Choices = append([]Choice(nil), s.Choices...)
	}
	if s.Hints != nil {
		c.Hints = append([]string(nil), s.Hints...)
	}
	if s.ImageDescriptor != nil {
		d := *s.ImageDescriptor
		c.ImageDescriptor = &d
	}
	if s.AuxiliaryMemory != nil {
		c.AuxiliaryMemory = make(map[string]string, len(s.AuxiliaryMemory))
		for k, v := range s.AuxiliaryMemory {
			c.AuxiliaryMemory[k] = v
		}
	}
	return &c
}

// Story is the whole gamebook: metadata plus sections in insertion order.
type Story struct {
	Title          string
	Author         string
	Description    string
	StartSectionID string
	Sections       []*Section
}

// StoryMeta holds the descriptive fields used when a new draft is created.
type StoryMeta struct {
	Title       string
	Author      string
	Description string
}

// DocumentShape identifies which document layout a story was decoded from.
type DocumentShape string

const (
	ShapeCanonical DocumentShape = "canonical"
	ShapeBook      DocumentShape = "book"    // sections{id,text,decisions,is_ending}
	ShapeManager   DocumentShape = "manager" // sections{section_id,content,choices,story_memory}
	ShapePages     DocumentShape = "pages"   // pages[{id,text,choices[{text,next}]}]
)

// EndingClaims maps section ids to an explicit ending flag found in a legacy document.
// Only the validator's migration check reads it.
type EndingClaims map[string]bool

// LoadedStory is the result of decoding a story document.
type LoadedStory struct {
	Story        *Story
	Shape        DocumentShape
	EndingClaims EndingClaims
}

// StoryInfo is a summary of a draft for authoring tools.
type StoryInfo struct {
	Title          string
	Author         string
	Description    string
	StartSectionID string
	SectionCount   int
	ChoiceCount    int
	Endings        []string
	Unreachable    []string
}

// SectionListItem is one row of a section listing.
type SectionListItem struct {
	ID           string
	Title        string
	ChoicesCount int
	IsEnding     bool
}
