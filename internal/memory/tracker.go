package memory

import (
	"gamebook/shared/models"
)

// Tracker accumulates player-visible state during a session.
// None of its operations fail; they are pure bookkeeping.
type Tracker struct {
	mem models.PlayerMemory
}

// New returns a tracker for a fresh session.
func New() *Tracker {
	return &Tracker{}
}

// Restore continues from a snapshot. The last sequence number is carried
// forward, and never falls below the highest number already in the log.
func Restore(snapshot models.PlayerMemory) *Tracker {
	mem := snapshot.Clone()
	for _, d := range mem.Decisions {
		if d.SequenceNumber > mem.LastSequence {
			mem.LastSequence = d.SequenceNumber
		}
	}
	return &Tracker{mem: mem}
}

// RecordVisit appends id to the visited list if it is not there yet.
func (t *Tracker) RecordVisit(id string) {
	if !t.mem.HasVisited(id) {
		t.mem.Visited = append(t.mem.Visited, id)
	}
}

// RecordDecision appends a decision with the next sequence number and returns it.
func (t *Tracker) RecordDecision(sectionID, label string) models.DecisionRecord {
	t.mem.LastSequence++
	record := models.DecisionRecord{
		SectionID:      sectionID,
		ChoiceLabel:    label,
		SequenceNumber: t.mem.LastSequence,
	}
	t.mem.Decisions = append(t.mem.Decisions, record)
	return record
}

// AddHint adds a hint once.
func (t *Tracker) AddHint(text string) {
	t.mem.Hints = addOnce(t.mem.Hints, text)
}

// AddOpenPath marks a section as reachable but not yet resolved.
func (t *Tracker) AddOpenPath(id string) {
	t.mem.OpenPaths = addOnce(t.mem.OpenPaths, id)
}

// RemoveOpenPath drops a section from the open paths; absent ids are ignored.
func (t *Tracker) RemoveOpenPath(id string) {
	for i, p := range t.mem.OpenPaths {
		if p == id {
			t.mem.OpenPaths = append(t.mem.OpenPaths[:i], t.mem.OpenPaths[i+1:]...)
			return
		}
	}
}

// SetSummary overwrites the summary.
func (t *Tracker) SetSummary(text string) {
	t.mem.Summary = text
}

// HasVisited reports whether the section was visited in this session.
func (t *Tracker) HasVisited(id string) bool {
	return t.mem.HasVisited(id)
}

// LastSequence returns the last sequence number handed out.
func (t *Tracker) LastSequence() int {
	return t.mem.LastSequence
}

// Snapshot returns a deep copy of the current memory.
func (t *Tracker) Snapshot() models.PlayerMemory {
	return t.mem.Clone()
}

func addOnce(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}
