package codec

import (
	"encoding/hex"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/canspec/internal/ir"
)

// Frame is one encoded CAN data frame.
type Frame struct {
	ID       uint32                `json:"id"`
	Extended bool                  `json:"extended"`
	Len      int                   `json:"len"`
	Data     [ir.MaxFrameBytes]byte `json:"-"`
}

// Payload returns the first Len data bytes.
func (f Frame) Payload() []byte {
	return f.Data[:f.Len]
}

// Hex returns the payload as upper-case hex.
func (f Frame) Hex() string {
	return strings.ToUpper(hex.EncodeToString(f.Payload()))
}

// Values maps slot names to values: float64 for scaled slots, bool for
// bool slots and the variant name for enum slots.
type Values map[string]any

// Names returns the value names in sorted order.
func (v Values) Names() []string {
	names := make([]string, 0, len(v))
	for k := range v {
		names = append(names, k)
	}
	slices.Sort(names)
	return names
}

// Pack encodes a full set of values into a frame for m. Every slot needs a
// value and unknown names are rejected.
func Pack(m *ir.Message, values Values) (Frame, error) {
	var word uint64
	for _, s := range m.Slots {
		v, ok := values[s.Name()]
		if !ok {
			return Frame{}, fmt.Errorf("pack %s: missing value for signal %q", m.Name, s.Name())
		}
		code, err := encodeSlot(s, v)
		if err != nil {
			return Frame{}, fmt.Errorf("pack %s: %w", m.Name, err)
		}
		word |= code << uint(s.Offset)
	}

	if len(values) != len(m.Slots) {
		for _, name := range values.Names() {
			if _, ok := m.Slot(name); !ok {
				return Frame{}, fmt.Errorf("pack %s: unknown signal %q", m.Name, name)
			}
		}
	}

	f := Frame{ID: m.ID, Extended: m.Extended, Len: m.Length}
	for i := 0; i < m.Length; i++ {
		f.Data[i] = byte(word >> (8 * uint(i)))
	}
	return f, nil
}

// Unpack decodes a payload of m. The payload must hold at least the
// message length; extra bytes are ignored.
func Unpack(m *ir.Message, data []byte) (Values, error) {
	if len(data) < m.Length {
		return nil, fmt.Errorf("unpack %s: payload has %d bytes, need %d", m.Name, len(data), m.Length)
	}

	var word uint64
	for i := 0; i < m.Length && i < ir.MaxFrameBytes; i++ {
		word |= uint64(data[i]) << (8 * uint(i))
	}

	values := make(Values, len(m.Slots))
	for _, s := range m.Slots {
		code := (word >> uint(s.Offset)) & s.MaxCode()
		v, err := decodeSlot(s, code)
		if err != nil {
			return nil, fmt.Errorf("unpack %s: %w", m.Name, err)
		}
		values[s.Name()] = v
	}
	return values, nil
}

func encodeSlot(s ir.Slot, v any) (uint64, error) {
	switch s.Kind {
	case ir.SlotScaled:
		f, ok := asFloat(v)
		if !ok {
			return 0, fmt.Errorf("signal %q wants a number, got %T", s.Name(), v)
		}
		return Quantize(s, f)

	case ir.SlotBool:
		b, ok := v.(bool)
		if !ok {
			return 0, fmt.Errorf("signal %q wants a bool, got %T", s.Name(), v)
		}
		if b {
			return 1, nil
		}
		return 0, nil

	case ir.SlotEnum:
		name, ok := v.(string)
		if !ok {
			return 0, fmt.Errorf("signal %q wants a %s variant name, got %T", s.Name(), s.Enum, v)
		}
		i := slices.Index(s.Variants, name)
		if i < 0 {
			return 0, fmt.Errorf("signal %q: %q is not a %s variant", s.Name(), name, s.Enum)
		}
		return uint64(i), nil

	default:
		return 0, fmt.Errorf("signal %q has unknown kind %q", s.Name(), s.Kind)
	}
}

func decodeSlot(s ir.Slot, code uint64) (any, error) {
	switch s.Kind {
	case ir.SlotScaled:
		return Dequantize(s, code), nil
	case ir.SlotBool:
		return code == 1, nil
	case ir.SlotEnum:
		if code >= uint64(len(s.Variants)) {
			return nil, fmt.Errorf("signal %q: code %d is not a %s variant", s.Name(), code, s.Enum)
		}
		return s.Variants[code], nil
	default:
		return nil, fmt.Errorf("signal %q has unknown kind %q", s.Name(), s.Kind)
	}
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}

// ParseHex decodes a hex payload such as "3F02" or "3f 02".
func ParseHex(s string) ([]byte, error) {
	clean := strings.NewReplacer(" ", "", ":", "", "0x", "", "0X", "").Replace(s)
	data, err := hex.DecodeString(clean)
	if err != nil {
		return nil, fmt.Errorf("invalid hex payload %q: %w", s, err)
	}
	if len(data) > ir.MaxFrameBytes {
		return nil, fmt.Errorf("payload has %d bytes, a classical CAN frame carries at most %d", len(data), ir.MaxFrameBytes)
	}
	return data, nil
}
