package compiler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/canspec/internal/ir"
	"github.com/roach88/canspec/internal/schema"
)

// Compile error codes (E101-E107). E108 is the runtime RangeError of the
// codec package.
const (
	ErrSchema           = "E101" // structurally invalid declaration or field spec
	ErrDuplicateName    = "E102" // type, message, field or variant name collision
	ErrUnknownType      = "E103" // reference names an undeclared type
	ErrInvalidReference = "E104" // reference targets a message
	ErrCyclicDependency = "E105" // struct/enum containment cycle
	ErrMessageTooWide   = "E106" // flattened message exceeds 64 bits
	ErrDuplicateID      = "E107" // two messages share a CAN identifier
)

// Categorized is implemented by every typed compile error (and by the codec
// RangeError).
type Categorized interface {
	error
	Code() string
	Category() string
}

// Category returns the category name of the first categorized error in the
// chain, or "" if there is none.
func Category(err error) string {
	var c Categorized
	if errors.As(err, &c) {
		return c.Category()
	}
	return ""
}

// Code returns the stable error code of the first categorized error in the
// chain, or "" if there is none.
func Code(err error) string {
	var c Categorized
	if errors.As(err, &c) {
		return c.Code()
	}
	return ""
}

func located(code string, pos schema.Pos, msg string) string {
	if pos.IsValid() {
		return fmt.Sprintf("[%s] %s: %s", code, pos, msg)
	}
	return fmt.Sprintf("[%s] %s", code, msg)
}

// where renders "Decl.field" or "Decl".
func where(decl, field string) string {
	if field == "" {
		return decl
	}
	return decl + "." + field
}

// SchemaError reports a structurally invalid declaration or field spec.
type SchemaError struct {
	Decl    string     `json:"decl,omitempty"`
	Field   string     `json:"field,omitempty"`
	Message string     `json:"message"`
	Pos     schema.Pos `json:"pos"`
}

func (e *SchemaError) Error() string {
	if e.Decl == "" {
		return located(ErrSchema, e.Pos, e.Message)
	}
	return located(ErrSchema, e.Pos, fmt.Sprintf("%s: %s", where(e.Decl, e.Field), e.Message))
}

func (e *SchemaError) Code() string { return ErrSchema }
func (e *SchemaError) Category() string { return "SchemaError" }

// DuplicateNameError reports a name that collides within its scope.
// Scope is "type" for declarations, or "field of X" / "variant of X".
type DuplicateNameError struct {
	Scope    string     `json:"scope"`
	Name     string     `json:"name"`
	Pos      schema.Pos `json:"pos"`
	Previous schema.Pos `json:"previous"`
}

func (e *DuplicateNameError) Error() string {
	msg := fmt.Sprintf("duplicate %s name %q", e.Scope, e.Name)
	if e.Previous.IsValid() {
		msg += fmt.Sprintf(" (first declared at %s)", e.Previous)
	}
	return located(ErrDuplicateName, e.Pos, msg)
}

func (e *DuplicateNameError) Code() string { return ErrDuplicateName }
func (e *DuplicateNameError) Category() string { return "DuplicateNameError" }

// UnknownTypeError reports a reference to an undeclared type.
type UnknownTypeError struct {
	Name  string     `json:"name"`
	Decl  string     `json:"decl,omitempty"`
	Field string     `json:"field,omitempty"`
	Pos   schema.Pos `json:"pos"`
}

func (e *UnknownTypeError) Error() string {
	if e.Decl == "" {
		return located(ErrUnknownType, e.Pos, fmt.Sprintf("unknown type %q", e.Name))
	}
	return located(ErrUnknownType, e.Pos, fmt.Sprintf("%s: unknown type %q", where(e.Decl, e.Field), e.Name))
}

func (e *UnknownTypeError) Code() string { return ErrUnknownType }
func (e *UnknownTypeError) Category() string { return "UnknownTypeError" }

// InvalidReferenceError reports a reference to a declaration that may not be
// used as a field type.
type InvalidReferenceError struct {
	Decl   string     `json:"decl"`
	Field  string     `json:"field"`
	Target string     `json:"target"`
	Reason string     `json:"reason"`
	Pos    schema.Pos `json:"pos"`
}

func (e *InvalidReferenceError) Error() string {
	return located(ErrInvalidReference, e.Pos,
		fmt.Sprintf("%s: cannot reference %q: %s", where(e.Decl, e.Field), e.Target, e.Reason))
}

func (e *InvalidReferenceError) Code() string { return ErrInvalidReference }
func (e *InvalidReferenceError) Category() string { return "InvalidReferenceError" }

// CyclicDependencyError reports a containment cycle. Cycle lists the members
// in path order with the first member repeated at the end, e.g. [A B A].
type CyclicDependencyError struct {
	Cycle []string   `json:"cycle"`
	Pos   schema.Pos `json:"pos"`
}

func (e *CyclicDependencyError) Error() string {
	return located(ErrCyclicDependency, e.Pos,
		fmt.Sprintf("cyclic type dependency: %s", strings.Join(e.Cycle, " → ")))
}

func (e *CyclicDependencyError) Code() string { return ErrCyclicDependency }
func (e *CyclicDependencyError) Category() string { return "CyclicDependencyError" }

// MessageTooWideError reports a message whose flattened layout exceeds the
// 64-bit frame. Overflow is Width - 64.
type MessageTooWideError struct {
	Name     string     `json:"name"`
	Width    int        `json:"width"`
	Overflow int        `json:"overflow"`
	Pos      schema.Pos `json:"pos"`
}

func (e *MessageTooWideError) Error() string {
	return located(ErrMessageTooWide, e.Pos,
		fmt.Sprintf("message %q is %d bits wide, %d bits over the %d-bit frame", e.Name, e.Width, e.Overflow, ir.MaxFrameBits))
}

func (e *MessageTooWideError) Code() string { return ErrMessageTooWide }
func (e *MessageTooWideError) Category() string { return "MessageTooWideError" }

// DuplicateIdError reports two messages bound to the same CAN identifier.
type DuplicateIdError struct {
	ID     uint32     `json:"id"`
	First  string     `json:"first"`
	Second string     `json:"second"`
	Pos    schema.Pos `json:"pos"`
}

func (e *DuplicateIdError) Error() string {
	return located(ErrDuplicateID, e.Pos,
		fmt.Sprintf("CAN id 0x%X of message %q is already used by %q", e.ID, e.Second, e.First))
}

func (e *DuplicateIdError) Code() string { return ErrDuplicateID }
func (e *DuplicateIdError) Category() string { return "DuplicateIdError" }
