// Package pdf implements the object layer of a self-contained PDF reader:
// the lexer, the indirect-object parser, cross-reference reconstruction,
// object-stream expansion, and an encryption-aware object resolver.
//
// The package deliberately has no notion of writing or editing PDF files;
// it exists to turn an untrusted byte buffer into a graph of resolved
// objects that a content-stream interpreter (see the content package) can
// execute.
package pdf

import (
	"fmt"
	"io"
	"math"
)

// Object is any value that can appear as an indirect object, an array
// element, a dictionary value, or an operand on a content-stream operand
// stack.
type Object interface {
	isObject()
}

// Null is the PDF null object. It is represented as a Go nil of type
// Object, so there is no dedicated Null type; callers test for it with
// `obj == nil`.

// Boolean is a PDF boolean object.
type Boolean bool

func (Boolean) isObject() {}

// Integer is a PDF integer object.
type Integer int64

func (Integer) isObject() {}

// Real is a PDF real (floating point) object.
type Real float64

func (Real) isObject() {}

// Number is the result of GetNumber: either an Integer or a Real, collapsed
// to a float64 for arithmetic.
type Number float64

func (Number) isObject() {}

// Name is a PDF name object. The leading "/" is not stored.
type Name string

func (Name) isObject() {}

// String is a PDF string object: opaque bytes from either a literal
// "(...)" or a hex "<...>" token.
type String []byte

func (String) isObject() {}

// Array is a PDF array object.
type Array []Object

func (Array) isObject() {}

// Dict is a PDF dictionary object. Keys are stored without the leading
// "/" and lookups are byte-exact.
type Dict map[Name]Object

func (Dict) isObject() {}

// Operator is a bare content-stream keyword, e.g. "re" or "Tj". The
// content-stream scanner produces it for operators; the object parser
// also returns it for an unrecognized bare keyword, including one found
// inside a Dict or Array.
type Operator string

func (Operator) isObject() {}

// Reference is an indirect reference "num gen R" into the object table.
type Reference struct {
	num uint32
	gen uint16
}

func (Reference) isObject() {}

// NewReference builds a Reference from an object number and generation.
func NewReference(num uint32, gen uint16) Reference {
	return Reference{num: num, gen: gen}
}

// Number returns the object number.
func (r Reference) Number() uint32 { return r.num }

// Generation returns the generation number.
func (r Reference) Generation() uint16 { return r.gen }

func (r Reference) String() string {
	return fmt.Sprintf("%d %d R", r.num, r.gen)
}

// Stream is a PDF stream object: a Dict plus a reader over the raw
// (still filtered/encrypted) payload bytes.
type Stream struct {
	Dict Dict
	R    io.Reader

	// crypt, when non-nil, is the per-object decrypt filter that must be
	// applied before any other stream filter runs. It is populated by the
	// decrypt service while the xref/object loader reads the stream from
	// disk, and is nil for an unencrypted file.
	crypt *objectKey
}

func (*Stream) isObject() {}

// Rectangle represents a PDF rectangle object, normalized so that
// LLx<=URx and LLy<=URy.
type Rectangle struct {
	LLx, LLy, URx, URy float64
}

// Dx returns the width of the rectangle.
func (r Rectangle) Dx() float64 { return r.URx - r.LLx }

// Dy returns the height of the rectangle.
func (r Rectangle) Dy() float64 { return r.URy - r.LLy }

func (r Rectangle) String() string {
	return fmt.Sprintf("[%.2f %.2f %.2f %.2f]", r.LLx, r.LLy, r.URx, r.URy)
}

// asRectangle converts a 4-element numeric array into a normalized
// Rectangle.
func asRectangle(a Array) (Rectangle, error) {
	if len(a) != 4 {
		return Rectangle{}, &MalformedFileError{Err: fmt.Errorf("rectangle: expected 4 numbers, got %d", len(a))}
	}
	var v [4]float64
	for i, elem := range a {
		n, ok := asNumber(elem)
		if !ok {
			return Rectangle{}, &MalformedFileError{Err: fmt.Errorf("rectangle: element %d is not a number", i)}
		}
		v[i] = n
	}
	return Rectangle{
		LLx: math.Min(v[0], v[2]),
		LLy: math.Min(v[1], v[3]),
		URx: math.Max(v[0], v[2]),
		URy: math.Max(v[1], v[3]),
	}, nil
}

func asNumber(obj Object) (float64, bool) {
	switch x := obj.(type) {
	case Integer:
		return float64(x), true
	case Real:
		return float64(x), true
	case Number:
		return float64(x), true
	default:
		return 0, false
	}
}
