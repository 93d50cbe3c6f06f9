package ir

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleBus() *Bus {
	dir := TypeDef{
		Name:     "MotorDir",
		Kind:     KindEnum,
		Variants: []string{"Forward", "Reverse", "Stopped"},
		Width:    2,
		Slots: []Slot{{
			Kind: SlotEnum, Width: 2, Scale: 1,
			Range: Range{Min: 0, Max: 2}, Enum: "MotorDir",
			Variants: []string{"Forward", "Reverse", "Stopped"},
		}},
	}
	pos := Slot{
		Path: []string{"position"}, Kind: SlotScaled, Width: 10,
		Scale: 360.0 / 1023.0, Range: Range{Min: 0, Max: 360}, Unit: "deg",
	}
	return &Bus{
		Name:      "rover",
		IRVersion: IRVersion,
		Types:     []TypeDef{dir},
		Messages: []Message{{
			Name:   "Telemetry",
			ID:     2,
			Fields: []Field{{Name: "position", Kind: FieldPrimitive, Range: &Range{Min: 0, Max: 360}, Unit: "deg", Width: 10}},
			Width:  10,
			Length: 2,
			Slots:  []Slot{pos},
		}},
	}
}

func TestFingerprintDeterminism(t *testing.T) {
	a := MustFingerprint(sampleBus())
	b := MustFingerprint(sampleBus())
	assert.Equal(t, a, b)
}

func TestFingerprintIgnoresFingerprintField(t *testing.T) {
	bus := sampleBus()
	before := MustFingerprint(bus)
	bus.Fingerprint = before
	assert.Equal(t, before, MustFingerprint(bus))
}

func TestFingerprintChangesWithLayout(t *testing.T) {
	base := MustFingerprint(sampleBus())

	tests := []struct {
		name   string
		mutate func(b *Bus)
	}{
		{"id", func(b *Bus) { b.Messages[0].ID = 3 }},
		{"offset", func(b *Bus) { b.Messages[0].Slots[0].Offset = 1 }},
		{"width", func(b *Bus) { b.Messages[0].Slots[0].Width = 9 }},
		{"scale", func(b *Bus) { b.Messages[0].Slots[0].Scale = 0.35 }},
		{"variant order", func(b *Bus) { b.Types[0].Variants = []string{"Reverse", "Forward", "Stopped"} }},
		{"bus name", func(b *Bus) { b.Name = "other" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus := sampleBus()
			tt.mutate(bus)
			assert.NotEqual(t, base, MustFingerprint(bus))
		})
	}
}

func TestHashWithDomainNullSeparator(t *testing.T) {
	// "ab" + 0x00 + "c" must differ from "a" + 0x00 + "bc"
	assert.NotEqual(t, hashWithDomain("ab", []byte("c")), hashWithDomain("a", []byte("bc")))
}

func TestHashHexEncoding(t *testing.T) {
	fp := MustFingerprint(sampleBus())
	assert.Len(t, fp, 64)
	_, err := hex.DecodeString(fp)
	require.NoError(t, err)
}

func TestCanonicalBusFloatsAsDecimals(t *testing.T) {
	data, err := MarshalCanonical(CanonicalBus(sampleBus()))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"scale":"0.3519061583577713"`)
	assert.Contains(t, string(data), `"max":"360"`)
}

// TestLayoutFingerprint_IgnoresIdentity tests that renaming or renumbering a
// message keeps its layout fingerprint.
func TestLayoutFingerprint_IgnoresIdentity(t *testing.T) {
	bus := sampleBus()
	m := bus.Messages[0]

	before, err := LayoutFingerprint(&m)
	require.NoError(t, err)

	m.Name = "Renamed"
	m.ID = 0x100
	m.Pinned = true
	after, err := LayoutFingerprint(&m)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

// TestLayoutFingerprint_TracksLayout tests that slot changes are visible.
func TestLayoutFingerprint_TracksLayout(t *testing.T) {
	bus := sampleBus()
	base, err := LayoutFingerprint(&bus.Messages[0])
	require.NoError(t, err)

	moved := sampleBus()
	moved.Messages[0].Slots[0].Offset = 1
	got, err := LayoutFingerprint(&moved.Messages[0])
	require.NoError(t, err)
	assert.NotEqual(t, base, got)

	longer := sampleBus()
	longer.Messages[0].Length = 3
	got, err = LayoutFingerprint(&longer.Messages[0])
	require.NoError(t, err)
	assert.NotEqual(t, base, got)

	assert.NotEqual(t, MustFingerprint(bus), base)
}
