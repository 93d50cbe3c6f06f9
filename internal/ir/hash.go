package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DomainBus is the domain prefix for IR fingerprints.
// Version suffix enables future algorithm migration.
const DomainBus = "canspec/bus/v1"

// DomainLayout is the domain prefix for per-message layout fingerprints.
const DomainLayout = "canspec/layout/v1"

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte (0x00) separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Fingerprint computes the content hash of a bus layout.
// The Fingerprint field itself is excluded, so the result is stable whether
// or not it has been filled in. Two schemas produce the same fingerprint iff
// they describe the same wire layout, names and identifiers.
func Fingerprint(b *Bus) (string, error) {
	canonical, err := MarshalCanonical(CanonicalBus(b))
	if err != nil {
		return "", fmt.Errorf("Fingerprint: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainBus, canonical), nil
}

// MustFingerprint is like Fingerprint but panics on error.
// Use only in tests or when the bus is known to be valid.
func MustFingerprint(b *Bus) string {
	fp, err := Fingerprint(b)
	if err != nil {
		panic(err)
	}
	return fp
}

// LayoutFingerprint hashes the wire layout of a single message: its length
// and flattened slots. Name and identifier are excluded, so a renumbered
// message keeps its layout fingerprint.
func LayoutFingerprint(m *Message) (string, error) {
	canonical, err := MarshalCanonical(IRObject{
		"length": IRInt(m.Length),
		"slots":  canonicalSlots(m.Slots),
	})
	if err != nil {
		return "", fmt.Errorf("LayoutFingerprint: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainLayout, canonical), nil
}

// CanonicalBus converts a bus to its canonical value tree.
func CanonicalBus(b *Bus) IRObject {
	types := make(IRArray, len(b.Types))
	for i := range b.Types {
		t := &b.Types[i]
		obj := IRObject{
			"name":      IRString(t.Name),
			"kind":      IRString(string(t.Kind)),
			"bit_width": IRInt(t.Width),
			"slots":     canonicalSlots(t.Slots),
		}
		if t.Kind == KindEnum {
			obj["variants"] = IRStrings(t.Variants)
		} else {
			obj["fields"] = canonicalFields(t.Fields)
		}
		types[i] = obj
	}

	messages := make(IRArray, len(b.Messages))
	for i := range b.Messages {
		m := &b.Messages[i]
		messages[i] = IRObject{
			"name":      IRString(m.Name),
			"id":        IRInt(m.ID),
			"pinned":    IRBool(m.Pinned),
			"extended":  IRBool(m.Extended),
			"bit_width": IRInt(m.Width),
			"length":    IRInt(m.Length),
			"fields":    canonicalFields(m.Fields),
			"slots":     canonicalSlots(m.Slots),
		}
	}

	return IRObject{
		"name":       IRString(b.Name),
		"ir_version": IRString(b.IRVersion),
		"types":      types,
		"messages":   messages,
	}
}

func canonicalFields(fields []Field) IRArray {
	arr := make(IRArray, len(fields))
	for i, f := range fields {
		obj := IRObject{
			"name":       IRString(f.Name),
			"kind":       IRString(string(f.Kind)),
			"bit_offset": IRInt(f.Offset),
			"bit_width":  IRInt(f.Width),
		}
		if f.Type != "" {
			obj["type"] = IRString(f.Type)
		}
		if f.TypeKind != "" {
			obj["type_kind"] = IRString(string(f.TypeKind))
		}
		if f.Range != nil {
			obj["range"] = canonicalRange(*f.Range)
		}
		if f.Unit != "" {
			obj["unit"] = IRString(f.Unit)
		}
		arr[i] = obj
	}
	return arr
}

func canonicalSlots(slots []Slot) IRArray {
	arr := make(IRArray, len(slots))
	for i, s := range slots {
		obj := IRObject{
			"path":       IRStrings(s.Path),
			"kind":       IRString(string(s.Kind)),
			"bit_offset": IRInt(s.Offset),
			"bit_width":  IRInt(s.Width),
			"scale":      IRDecimal(s.Scale),
			"offset":     IRDecimal(s.Intercept),
			"range":      canonicalRange(s.Range),
		}
		if s.Unit != "" {
			obj["unit"] = IRString(s.Unit)
		}
		if s.Enum != "" {
			obj["enum"] = IRString(s.Enum)
			obj["variants"] = IRStrings(s.Variants)
		}
		arr[i] = obj
	}
	return arr
}

func canonicalRange(r Range) IRObject {
	return IRObject{
		"min": IRDecimal(r.Min),
		"max": IRDecimal(r.Max),
	}
}
