package store

import (
	"context"
	"fmt"
)

// ChangeKind classifies a difference between two builds of the same bus.
type ChangeKind string

const (
	ChangeAdded   ChangeKind = "added"
	ChangeRemoved ChangeKind = "removed"
	ChangeID      ChangeKind = "id_changed"
	ChangeLayout  ChangeKind = "layout_changed"
)

// Change is one drifted message between consecutive builds.
type Change struct {
	Kind    ChangeKind `json:"kind"`
	Message string     `json:"message"`
	Detail  string     `json:"detail,omitempty"`
}

// Entry is a build together with its drift against the previous build of
// the same bus. The first build of a bus has no changes.
type Entry struct {
	Build   Build    `json:"build"`
	Changes []Change `json:"changes"`
}

// Drifted reports whether the entry differs from its predecessor on the
// wire.
func (e Entry) Drifted() bool {
	return len(e.Changes) > 0
}

// Diff compares the message tables of two builds. Changes are listed in
// the order of next, followed by messages removed from prev in prev order.
func Diff(prev, next Build) []Change {
	before := make(map[string]BuildMessage, len(prev.Messages))
	for _, m := range prev.Messages {
		before[m.Name] = m
	}

	changes := []Change{}
	seen := make(map[string]bool, len(next.Messages))
	for _, m := range next.Messages {
		seen[m.Name] = true
		old, ok := before[m.Name]
		if !ok {
			changes = append(changes, Change{Kind: ChangeAdded, Message: m.Name})
			continue
		}
		if old.ID != m.ID || old.Extended != m.Extended {
			changes = append(changes, Change{
				Kind:    ChangeID,
				Message: m.Name,
				Detail:  fmt.Sprintf("0x%X -> 0x%X", old.ID, m.ID),
			})
		}
		if old.Layout != m.Layout {
			changes = append(changes, Change{
				Kind:    ChangeLayout,
				Message: m.Name,
				Detail:  fmt.Sprintf("%d -> %d bytes", old.Length, m.Length),
			})
		}
	}
	for _, m := range prev.Messages {
		if !seen[m.Name] {
			changes = append(changes, Change{Kind: ChangeRemoved, Message: m.Name})
		}
	}
	return changes
}

// History returns the builds of bus (or of every bus if empty) in seq order,
// each annotated with its drift against the previous build of its bus.
func (s *Store) History(ctx context.Context, bus string) ([]Entry, error) {
	builds, err := s.ListBuilds(ctx, bus)
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}

	last := map[string]Build{}
	entries := make([]Entry, 0, len(builds))
	for _, b := range builds {
		e := Entry{Build: b, Changes: []Change{}}
		if prev, ok := last[b.Bus]; ok {
			e.Changes = Diff(prev, b)
		}
		last[b.Bus] = b
		entries = append(entries, e)
	}
	return entries, nil
}
