package schema

import (
	"fmt"
	"math"
	"strconv"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"golang.org/x/text/unicode/norm"
)

// ParseCUE compiles CUE source and converts the resulting value into a tree.
// The value must be concrete; regular fields keep their declaration order.
func ParseCUE(data []byte, filename string) (*Node, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(filename))
	return FromCUE(v)
}

// FromCUE converts an evaluated CUE value into a tree.
func FromCUE(v cue.Value) (*Node, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}
	return fromCUE(v)
}

func fromCUE(v cue.Value) (*Node, error) {
	pos := cuePos(v.Pos())

	switch v.Kind() {
	case cue.StructKind:
		iter, err := v.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out := &Node{Kind: KindMapping, Pos: pos}
		for iter.Next() {
			child, err := fromCUE(iter.Value())
			if err != nil {
				return nil, err
			}
			out.Entries = append(out.Entries, Entry{
				Key:    norm.NFC.String(iter.Label()),
				KeyPos: child.Pos,
				Value:  child,
			})
		}
		return out, nil

	case cue.ListKind:
		iter, err := v.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out := &Node{Kind: KindSequence, Pos: pos}
		for iter.Next() {
			child, err := fromCUE(iter.Value())
			if err != nil {
				return nil, err
			}
			out.Items = append(out.Items, child)
		}
		return out, nil

	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return &Node{Kind: KindScalar, Type: ScalarString, Scalar: norm.NFC.String(s), Pos: pos}, nil

	case cue.IntKind:
		i, err := v.Int64()
		if err != nil {
			return nil, &ParseError{Pos: pos, Message: fmt.Sprintf("integer out of range: %v", err), Err: err}
		}
		return &Node{Kind: KindScalar, Type: ScalarInt, Scalar: strconv.FormatInt(i, 10), Pos: pos}, nil

	case cue.FloatKind, cue.NumberKind:
		f, err := v.Float64()
		if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
			return nil, &ParseError{Pos: pos, Message: "number is not a finite float64", Err: err}
		}
		return &Node{Kind: KindScalar, Type: ScalarFloat, Scalar: strconv.FormatFloat(f, 'g', -1, 64), Pos: pos}, nil

	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return &Node{Kind: KindScalar, Type: ScalarBool, Scalar: strconv.FormatBool(b), Pos: pos}, nil

	case cue.NullKind:
		return &Node{Kind: KindScalar, Type: ScalarNull, Pos: pos}, nil

	default:
		return nil, &ParseError{Pos: pos, Message: fmt.Sprintf("unsupported CUE kind: %v", v.Kind())}
	}
}

func cuePos(p token.Pos) Pos {
	if !p.IsValid() {
		return Pos{}
	}
	return Pos{File: p.Filename(), Line: p.Line(), Column: p.Column()}
}

// formatCUEError converts the first CUE error into a ParseError with position.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return &ParseError{Message: err.Error(), Err: err}
	}

	first := errs[0]
	var pos Pos
	if positions := errors.Positions(first); len(positions) > 0 {
		pos = cuePos(positions[0])
	}
	return &ParseError{Pos: pos, Message: first.Error(), Err: err}
}
