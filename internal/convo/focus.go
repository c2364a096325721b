package convo

import "slices"

// FocusTracker decides when a change of structural focus invalidates the
// conversation: only a transition between two non-empty, unequal identity
// sets clears history. A transition to or from an empty focus is treated
// as continuity — deselecting to type is not a change of subject.
type FocusTracker struct {
	previous []string
}

// ShouldReset records the current focus identity set and reports whether
// the conversation should be cleared before the next turn.
func (f *FocusTracker) ShouldReset(current []string) bool {
	prev := f.previous
	if len(current) > 0 {
		f.previous = normalize(current)
	}

	if len(prev) == 0 || len(current) == 0 {
		return false
	}
	return !slices.Equal(prev, normalize(current))
}

// Reset forgets the tracked focus, e.g. on explicit session reset.
func (f *FocusTracker) Reset() {
	f.previous = nil
}

func normalize(ids []string) []string {
	sorted := make([]string, len(ids))
	copy(sorted, ids)
	slices.Sort(sorted)
	return sorted
}
