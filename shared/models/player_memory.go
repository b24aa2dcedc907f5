package models

// DecisionRecord is one entry of the decision log.
// SequenceNumber is assigned at decision time and never recomputed.
type DecisionRecord struct {
	SectionID      string `json:"section_id" yaml:"section_id"`
	ChoiceLabel    string `json:"label" yaml:"label"`
	SequenceNumber int    `json:"sequence_number" yaml:"sequence_number"`
}

// PlayerMemory хранит накопленное состояние игрока в рамках одной сессии.
type PlayerMemory struct {
	Visited   []string         // Уникальные id, порядок первого посещения
	Decisions []DecisionRecord // Журнал решений
	Hints     []string
	OpenPaths []string
	Summary   string
	// LastSequence is the last sequence number handed out. It survives snapshots
	// so a resumed session never reuses a number.
	LastSequence int
}

// HasVisited reports whether id is in the visited list.
func (m *PlayerMemory) HasVisited(id string) bool {
	return containsString(m.Visited, id)
}

// Clone returns a deep copy of the memory.
func (m PlayerMemory) Clone() PlayerMemory {
	c := m
	c.Visited = cloneStrings(m.Visited)
	c.Hints = cloneStrings(m.Hints)
	c.OpenPaths = cloneStrings(m.OpenPaths)
	if m.Decisions != nil {
		c.Decisions = append([]DecisionRecord(nil), m.Decisions...)
	}
	return c
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in...)
}
