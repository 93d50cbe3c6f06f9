package ir

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaxCode(t *testing.T) {
	assert.Equal(t, uint64(1), MaxCode(1))
	assert.Equal(t, uint64(255), MaxCode(8))
	assert.Equal(t, uint64(1023), MaxCode(10))
	assert.Equal(t, uint64(math.MaxUint64), MaxCode(64))
}

func TestByteLength(t *testing.T) {
	assert.Equal(t, 0, ByteLength(0))
	assert.Equal(t, 1, ByteLength(1))
	assert.Equal(t, 1, ByteLength(8))
	assert.Equal(t, 2, ByteLength(9))
	assert.Equal(t, 3, ByteLength(24))
	assert.Equal(t, 8, ByteLength(64))
}

func TestSlotNested(t *testing.T) {
	inner := Slot{Path: []string{"position"}, Offset: 0, Width: 10}
	outer := inner.Nested("pitch", 12)

	assert.Equal(t, "pitch_position", outer.Name())
	assert.Equal(t, 12, outer.Offset)
	// original is untouched
	assert.Equal(t, "position", inner.Name())
	assert.Equal(t, 0, inner.Offset)
}

func TestSlotNestedEnumRoot(t *testing.T) {
	enumSlot := Slot{Kind: SlotEnum, Width: 2, Variants: []string{"A", "B", "C"}}
	nested := enumSlot.Nested("dir", 10)

	assert.Equal(t, "dir", nested.Name())
	nested.Variants[0] = "Z"
	assert.Equal(t, "A", enumSlot.Variants[0], "variants must be copied")
}

func TestBusLookups(t *testing.T) {
	bus := sampleBus()

	typ, ok := bus.Type("MotorDir")
	require.True(t, ok)
	code, ok := typ.VariantCode("Stopped")
	require.True(t, ok)
	assert.Equal(t, uint64(2), code)

	_, ok = bus.Type("Missing")
	assert.False(t, ok)

	msg, ok := bus.MessageByID(2)
	require.True(t, ok)
	assert.Equal(t, "Telemetry", msg.Name)

	slot, ok := msg.Slot("position")
	require.True(t, ok)
	assert.Equal(t, 10, slot.Width)
}

func TestJSONFieldNaming(t *testing.T) {
	data, err := json.Marshal(sampleBus().Messages[0].Slots[0])
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	for _, key := range []string{"path", "kind", "bit_offset", "bit_width", "scale", "offset", "range", "unit"} {
		assert.Contains(t, m, key)
	}
}
