package compiler

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/canspec/internal/ir"
	"github.com/roach88/canspec/internal/schema"
)

// Options configures one compilation.
type Options struct {
	// IDBase is the first automatically assigned CAN identifier.
	IDBase uint32

	// Logger receives stage progress at debug level. Nil discards.
	Logger *slog.Logger
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// CompileFile loads a schema file and compiles it.
func CompileFile(path string, opts Options) (*ir.Bus, error) {
	root, err := schema.Load(path)
	if err != nil {
		return nil, err
	}
	return Compile(root, opts)
}

// Compile runs the whole pipeline over a schema tree and returns the frozen
// IR. Stages run strictly in sequence and the first error aborts the
// compilation; no partial IR is ever returned.
func Compile(root *schema.Node, opts Options) (*ir.Bus, error) {
	log := opts.logger()

	s, err := Decode(root)
	if err != nil {
		return nil, err
	}
	log.Debug("schema decoded", "bus", s.Name, "types", len(s.Types), "messages", len(s.Messages))

	reg := NewRegistry()
	for _, d := range s.Types {
		if err := reg.Register(d); err != nil {
			return nil, err
		}
	}
	for _, d := range s.Messages {
		if err := reg.Register(d); err != nil {
			return nil, err
		}
	}

	graph, err := Resolve(reg)
	if err != nil {
		return nil, err
	}
	log.Debug("references resolved", "edges", len(graph.Edges()))

	order, err := Order(reg, graph)
	if err != nil {
		return nil, err
	}

	engine := NewLayoutEngine(reg)
	types := make([]ir.TypeDef, 0, len(order))
	for _, d := range order {
		td, err := engine.LayoutType(d)
		if err != nil {
			return nil, err
		}
		log.Debug("type laid out", "type", td.Name, "kind", td.Kind, "bits", td.Width)
		types = append(types, td)
	}

	messages := make([]ir.Message, 0, len(reg.Messages()))
	for _, d := range reg.Messages() {
		m, err := engine.LayoutMessage(d)
		if err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}

	ids, err := AllocateIDs(reg.Messages(), opts.IDBase)
	if err != nil {
		return nil, err
	}
	for i, d := range reg.Messages() {
		messages[i].ID = ids[i]
		messages[i].Pinned = d.Pinned
		messages[i].Extended = IsExtended(ids[i])
		log.Debug("message laid out", "message", d.Name, "id", ids[i], "bits", messages[i].Width)
	}

	bus, err := Assemble(s.Name, types, messages)
	if err != nil {
		return nil, err
	}
	log.Debug("bus assembled", "bus", bus.Name, "fingerprint", bus.Fingerprint)
	return bus, nil
}

// Assemble freezes the pass results into a Bus, verifies it and stamps the
// fingerprint.
func Assemble(name string, types []ir.TypeDef, messages []ir.Message) (*ir.Bus, error) {
	bus := &ir.Bus{
		Name:      name,
		IRVersion: ir.IRVersion,
		Types:     types,
		Messages:  messages,
	}
	if err := Verify(bus); err != nil {
		return nil, err
	}

	fp, err := ir.Fingerprint(bus)
	if err != nil {
		return nil, fmt.Errorf("assemble: %w", err)
	}
	bus.Fingerprint = fp
	return bus, nil
}

// Verify re-checks the layout invariants of an assembled bus and returns
// the first violation: types before messages, declaration order within
// each.
func Verify(bus *ir.Bus) error {
	names := make(map[string]bool, len(bus.Types)+len(bus.Messages))
	defined := make(map[string]*ir.TypeDef, len(bus.Types))

	for i := range bus.Types {
		t := &bus.Types[i]
		if names[t.Name] {
			return &DuplicateNameError{Scope: "type", Name: t.Name}
		}
		names[t.Name] = true

		switch t.Kind {
		case ir.KindEnum:
			if len(t.Variants) == 0 || t.Width != EnumWidth(len(t.Variants)) {
				return fmt.Errorf("verify: enum %q has width %d for %d variants", t.Name, t.Width, len(t.Variants))
			}
		case ir.KindStruct:
			if err := verifyFields(t.Name, t.Fields, t.Width, defined); err != nil {
				return err
			}
		default:
			return fmt.Errorf("verify: type %q has unknown kind %q", t.Name, t.Kind)
		}
		if err := verifySlots(t.Name, t.Slots, t.Width); err != nil {
			return err
		}
		defined[t.Name] = t
	}

	ids := make(map[uint32]string, len(bus.Messages))
	var highest uint32
	for i := range bus.Messages {
		m := &bus.Messages[i]
		if names[m.Name] {
			return &DuplicateNameError{Scope: "type", Name: m.Name}
		}
		names[m.Name] = true

		if err := verifyFields(m.Name, m.Fields, m.Width, defined); err != nil {
			return err
		}
		if m.Width > ir.MaxFrameBits {
			return &MessageTooWideError{Name: m.Name, Width: m.Width, Overflow: m.Width - ir.MaxFrameBits}
		}
		if m.Length != ir.ByteLength(m.Width) {
			return fmt.Errorf("verify: message %q has length %d for %d bits", m.Name, m.Length, m.Width)
		}
		if err := verifySlots(m.Name, m.Slots, m.Width); err != nil {
			return err
		}

		if m.ID > ir.MaxExtendedID {
			return &SchemaError{Decl: m.Name, Message: fmt.Sprintf("CAN id 0x%X exceeds the 29-bit maximum", m.ID)}
		}
		if m.Extended != IsExtended(m.ID) {
			return fmt.Errorf("verify: message %q has id 0x%X with extended=%t", m.Name, m.ID, m.Extended)
		}
		if first, dup := ids[m.ID]; dup {
			return &DuplicateIdError{ID: m.ID, First: first, Second: m.Name}
		}
		if !m.Pinned && i > 0 && m.ID <= highest {
			return fmt.Errorf("verify: message %q has automatic id 0x%X not above 0x%X", m.Name, m.ID, highest)
		}
		ids[m.ID] = m.Name
		highest = max(highest, m.ID)
	}
	return nil
}

// verifyFields checks that fields are packed back to back from bit 0 and
// that every referenced type was defined earlier.
func verifyFields(owner string, fields []ir.Field, width int, defined map[string]*ir.TypeDef) error {
	offset := 0
	for _, f := range fields {
		if f.Offset != offset || f.Width <= 0 {
			return fmt.Errorf("verify: %s at bit %d (width %d), expected bit %d", where(owner, f.Name), f.Offset, f.Width, offset)
		}
		if f.Kind == ir.FieldReference {
			ref, ok := defined[f.Type]
			if !ok {
				return fmt.Errorf("verify: %s uses %q before its definition", where(owner, f.Name), f.Type)
			}
			if ref.Width != f.Width {
				return fmt.Errorf("verify: %s is %d bits but %q is %d", where(owner, f.Name), f.Width, f.Type, ref.Width)
			}
		}
		offset += f.Width
	}
	if offset != width {
		return fmt.Errorf("verify: %s fields cover %d bits, declared %d", owner, offset, width)
	}
	return nil
}

// verifySlots checks that the flattened slots tile [0, width) in order.
func verifySlots(owner string, slots []ir.Slot, width int) error {
	offset := 0
	for _, s := range slots {
		if s.Offset != offset || s.Width < 1 || s.Width > ir.MaxFrameBits {
			return fmt.Errorf("verify: slot %q of %s at bit %d (width %d), expected bit %d", s.Name(), owner, s.Offset, s.Width, offset)
		}
		offset += s.Width
	}
	if offset != width {
		return fmt.Errorf("verify: slots of %s cover %d bits, declared %d", owner, offset, width)
	}
	return nil
}
