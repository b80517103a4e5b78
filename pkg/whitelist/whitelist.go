// Package whitelist holds a fixed set of device identifiers and answers
// membership queries against it.
//
// A Whitelist is never modified after construction, so a single value may be
// shared by any number of goroutines without locking.
package whitelist

// Entry is one configured identifier. Label is informational only and never
// takes part in matching.
type Entry struct {
	ID    string `json:"id"`
	Label string `json:"label,omitempty"`
}

// Whitelist is an immutable set of identifiers.
type Whitelist struct {
	entries []Entry
	index   map[string]int // ID -> position in entries
}

// New builds a whitelist from bare identifiers.
func New(ids ...string) *Whitelist {
	entries := make([]Entry, len(ids))
	for i, id := range ids {
		entries[i] = Entry{ID: id}
	}
	return NewFromEntries(entries)
}

// NewFromEntries builds a whitelist from entries. Identifiers are stored
// verbatim. When an identifier occurs more than once the first occurrence
// wins and later ones are ignored.
func NewFromEntries(entries []Entry) *Whitelist {
	wl := &Whitelist{
		entries: make([]Entry, 0, len(entries)),
		index:   make(map[string]int, len(entries)),
	}
	for _, e := range entries {
		if _, dup := wl.index[e.ID]; dup {
			continue
		}
		wl.index[e.ID] = len(wl.entries)
		wl.entries = append(wl.entries, e)
	}
	return wl
}

// Contains reports whether candidate exactly matches a configured
// identifier. Matching is byte for byte: no trimming, no case folding.
func (wl *Whitelist) Contains(candidate string) bool {
	if wl == nil {
		return false
	}
	_, ok := wl.index[candidate]
	return ok
}

// Size returns the number of distinct configured identifiers.
func (wl *Whitelist) Size() int {
	if wl == nil {
		return 0
	}
	return len(wl.entries)
}

// Entries returns a copy of the configured entries in the order they were
// first seen.
func (wl *Whitelist) Entries() []Entry {
	if wl == nil {
		return nil
	}
	out := make([]Entry, len(wl.entries))
	copy(out, wl.entries)
	return out
}

// Label returns the label of a configured identifier.
func (wl *Whitelist) Label(id string) (string, bool) {
	if wl == nil {
		return "", false
	}
	i, ok := wl.index[id]
	if !ok {
		return "", false
	}
	return wl.entries[i].Label, true
}
