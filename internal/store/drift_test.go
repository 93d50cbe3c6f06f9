package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func build(msgs ...BuildMessage) Build {
	return Build{Bus: "rover", Messages: msgs}
}

// TestDiff tests the change classification.
func TestDiff(t *testing.T) {
	a := BuildMessage{Name: "A", ID: 0, Length: 1, Layout: "la"}
	b := BuildMessage{Name: "B", ID: 1, Length: 2, Layout: "lb"}
	c := BuildMessage{Name: "C", ID: 2, Length: 1, Layout: "lc"}

	tests := []struct {
		name string
		prev Build
		next Build
		want []Change
	}{
		{
			name: "identical",
			prev: build(a, b),
			next: build(a, b),
			want: []Change{},
		},
		{
			name: "added and removed",
			prev: build(a, b),
			next: build(a, c),
			want: []Change{
				{Kind: ChangeAdded, Message: "C"},
				{Kind: ChangeRemoved, Message: "B"},
			},
		},
		{
			name: "renumbered",
			prev: build(a, b),
			next: build(a, BuildMessage{Name: "B", ID: 7, Length: 2, Layout: "lb"}),
			want: []Change{{Kind: ChangeID, Message: "B", Detail: "0x1 -> 0x7"}},
		},
		{
			name: "relaid",
			prev: build(a, b),
			next: build(a, BuildMessage{Name: "B", ID: 1, Length: 3, Layout: "lb2"}),
			want: []Change{{Kind: ChangeLayout, Message: "B", Detail: "2 -> 3 bytes"}},
		},
		{
			name: "both",
			prev: build(b),
			next: build(BuildMessage{Name: "B", ID: 2, Extended: false, Length: 2, Layout: "x"}),
			want: []Change{
				{Kind: ChangeID, Message: "B", Detail: "0x1 -> 0x2"},
				{Kind: ChangeLayout, Message: "B", Detail: "2 -> 2 bytes"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Diff(tt.prev, tt.next))
		})
	}
}

// TestHistory_FlagsDrift tests drift between consecutive builds of a bus.
func TestHistory_FlagsDrift(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t, "b1", "b2", "o1", "b3")

	bus := roverBus(t)
	_, err := s.RecordBuild(ctx, bus)
	require.NoError(t, err)
	_, err = s.RecordBuild(ctx, bus)
	require.NoError(t, err)

	other := roverBus(t)
	other.Name = "other"
	other.Messages = other.Messages[:1]
	_, err = s.RecordBuild(ctx, other)
	require.NoError(t, err)

	moved := roverBus(t)
	moved.Messages[0].ID = 0x10
	_, err = s.RecordBuild(ctx, moved)
	require.NoError(t, err)

	entries, err := s.History(ctx, "")
	require.NoError(t, err)
	require.Len(t, entries, 4)

	assert.False(t, entries[0].Drifted())
	assert.False(t, entries[1].Drifted())
	// First build of "other" is not compared against rover.
	assert.False(t, entries[2].Drifted())
	assert.True(t, entries[3].Drifted())
	assert.Equal(t, []Change{{Kind: ChangeID, Message: "EStop", Detail: "0x0 -> 0x10"}}, entries[3].Changes)

	rover, err := s.History(ctx, "rover")
	require.NoError(t, err)
	assert.Len(t, rover, 3)
}
