// Package kcd renders a bus as a KCD network definition, the Kayak XML
// format read by third-party CAN tools.
//
// Every IR slot becomes one Signal at its absolute bit offset with little
// endianness (the KCD default). Scaled slots carry slope, intercept and
// range; enum slots carry a LabelSet; bool slots a bare unsigned Value.
package kcd

import (
	"encoding/xml"
	"fmt"
	"strconv"

	"github.com/roach88/canspec/internal/ir"
)

const (
	namespace      = "http://kayak.2codeornot2code.org/1.0"
	xsiNamespace   = "http://www.w3.org/2001/XMLSchema-instance"
	schemaLocation = "Definition.xsd"

	// The date is fixed so that output depends on the bus alone.
	documentDate = "1970-01-01"
)

type networkDefinition struct {
	XMLName  xml.Name `xml:"NetworkDefinition"`
	XMLNS    string   `xml:"xmlns,attr"`
	XSI      string   `xml:"xmlns:xsi,attr"`
	Location string   `xml:"xsi:noNamespaceSchemaLocation,attr"`
	Document document `xml:"Document"`
	Bus      bus      `xml:"Bus"`
}

type document struct {
	Name    string `xml:"name,attr"`
	Version string `xml:"version,attr"`
	Author  string `xml:"author,attr"`
	Date    string `xml:"date,attr"`
	Content string `xml:",chardata"`
}

type bus struct {
	Name     string    `xml:"name,attr"`
	Messages []message `xml:"Message"`
}

type message struct {
	ID      string   `xml:"id,attr"`
	Name    string   `xml:"name,attr"`
	Length  string   `xml:"length,attr"`
	Format  string   `xml:"format,attr,omitempty"`
	Signals []signal `xml:"Signal"`
}

type signal struct {
	Name     string    `xml:"name,attr"`
	Offset   string    `xml:"offset,attr"`
	Length   string    `xml:"length,attr"`
	Value    *value    `xml:"Value,omitempty"`
	LabelSet *labelSet `xml:"LabelSet,omitempty"`
}

type value struct {
	Type      string `xml:"type,attr"`
	Unit      string `xml:"unit,attr,omitempty"`
	Slope     string `xml:"slope,attr,omitempty"`
	Intercept string `xml:"intercept,attr,omitempty"`
	Min       string `xml:"min,attr,omitempty"`
	Max       string `xml:"max,attr,omitempty"`
}

type labelSet struct {
	Labels []label `xml:"Label"`
}

type label struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

// Emitter renders KCD documents.
type Emitter struct{}

// New returns a KCD emitter.
func New() *Emitter {
	return &Emitter{}
}

// Name implements emit.Emitter.
func (*Emitter) Name() string {
	return "kcd"
}

// Emit implements emit.Emitter.
func (*Emitter) Emit(b *ir.Bus) ([]byte, error) {
	def := networkDefinition{
		XMLNS:    namespace,
		XSI:      xsiNamespace,
		Location: schemaLocation,
		Document: document{
			Name:    b.Name,
			Version: "1.0",
			Author:  "canspec",
			Date:    documentDate,
			Content: fmt.Sprintf("Generated by canspec %s (IR %s, fingerprint %s).", ir.CompilerVersion, b.IRVersion, b.Fingerprint),
		},
		Bus: bus{Name: "Main"},
	}

	for i := range b.Messages {
		def.Bus.Messages = append(def.Bus.Messages, convertMessage(&b.Messages[i]))
	}

	out, err := xml.MarshalIndent(def, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal KCD: %w", err)
	}

	data := make([]byte, 0, len(xml.Header)+len(out)+1)
	data = append(data, xml.Header...)
	data = append(data, out...)
	data = append(data, '\n')
	return data, nil
}

// FormatID renders a CAN identifier the way KCD expects it: three hex
// digits for standard frames, eight for extended ones.
func FormatID(id uint32, extended bool) string {
	if extended {
		return fmt.Sprintf("0x%08X", id)
	}
	return fmt.Sprintf("0x%03X", id)
}

func convertMessage(m *ir.Message) message {
	out := message{
		ID:     FormatID(m.ID, m.Extended),
		Name:   m.Name,
		Length: strconv.Itoa(m.Length),
	}
	if m.Extended {
		out.Format = "extended"
	}
	for _, s := range m.Slots {
		out.Signals = append(out.Signals, convertSlot(s))
	}
	return out
}

func convertSlot(s ir.Slot) signal {
	sig := signal{
		Name:   s.Name(),
		Offset: strconv.Itoa(s.Offset),
		Length: strconv.Itoa(s.Width),
	}

	switch s.Kind {
	case ir.SlotScaled:
		sig.Value = &value{
			Type:      "unsigned",
			Unit:      s.Unit,
			Slope:     ir.Decimal(s.Scale),
			Intercept: ir.Decimal(s.Intercept),
			Min:       ir.Decimal(s.Range.Min),
			Max:       ir.Decimal(s.Range.Max),
		}
	case ir.SlotBool:
		sig.Value = &value{Type: "unsigned"}
	case ir.SlotEnum:
		set := &labelSet{}
		for code, name := range s.Variants {
			set.Labels = append(set.Labels, label{Name: name, Value: strconv.Itoa(code)})
		}
		sig.LabelSet = set
	}
	return sig
}
