// seehuhn.de/go/pdf - a library for reading and writing PDF files
// Copyright (C) 2023  Jochen Voss <voss@seehuhn.de>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package pdf

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
)

// Getter is the minimal interface the object-resolution helpers need: a
// way to look up one indirect object by reference.
//
// canObjStm controls whether the lookup may be satisfied from an object
// stream entry. Cross-reference streams and object streams themselves are
// never allowed to live inside an object stream, so the xref loader
// passes false while walking those.
type Getter interface {
	Get(ref Reference, canObjStm bool) (Object, error)
}

const maxRefDepth = 32

// Resolve follows a (possibly chained) indirect reference until it reaches
// a direct object. Non-Reference values are returned unchanged. A chain
// that revisits a reference resolves to nil (null).
func Resolve(r Getter, obj Object) (Object, error) {
	return resolve(r, obj, true)
}

func resolve(r Getter, obj Object, canObjStm bool) (Object, error) {
	ref, isRef := obj.(Reference)
	if !isRef {
		return obj, nil
	}

	orig := ref
	visited := map[Reference]bool{}
	for depth := 0; ; depth++ {
		if depth >= maxRefDepth {
			return nil, &MalformedFileError{Err: fmt.Errorf("too many levels of indirection resolving %s", orig)}
		}
		if visited[ref] {
			return nil, nil
		}
		visited[ref] = true
		next, err := r.Get(ref, canObjStm)
		if err != nil {
			return nil, err
		}
		ref, isRef = next.(Reference)
		if !isRef {
			return next, nil
		}
	}
}

func resolveAndCast[T Object](r Getter, obj Object) (x T, err error) {
	resolved, err := Resolve(r, obj)
	if err != nil {
		return x, err
	}
	if resolved == nil {
		return x, nil
	}
	x, ok := resolved.(T)
	if ok {
		return x, nil
	}
	return x, &MalformedFileError{Err: fmt.Errorf("expected %T but got %T", x, resolved)}
}

// Type-specific resolvers. Each follows indirect references first; a PDF
// null resolves to the Go zero value with no error.
var (
	GetArray  = resolveAndCast[Array]
	GetBool   = resolveAndCast[Boolean]
	GetDict   = resolveAndCast[Dict]
	GetName   = resolveAndCast[Name]
	GetReal   = resolveAndCast[Real]
	GetStream = resolveAndCast[*Stream]
	GetString = resolveAndCast[String]
)

// GetInt resolves obj and returns it as an Integer, rounding a Real to the
// nearest integer. Any other type is an error; null returns 0.
func GetInt(r Getter, obj Object) (Integer, error) {
	resolved, err := Resolve(r, obj)
	if resolved == nil {
		return 0, err
	}
	switch x := resolved.(type) {
	case Integer:
		return x, nil
	case Real:
		return Integer(math.Round(float64(x))), nil
	default:
		return 0, &MalformedFileError{Err: fmt.Errorf("expected Integer but got %T", resolved)}
	}
}

// GetNumber resolves obj and returns it as a float64, accepting either an
// Integer or a Real.
func GetNumber(r Getter, obj Object) (Number, error) {
	resolved, err := Resolve(r, obj)
	if resolved == nil {
		return 0, err
	}
	n, ok := asNumber(resolved)
	if !ok {
		return 0, &MalformedFileError{Err: fmt.Errorf("expected a number but got %T", resolved)}
	}
	return Number(n), nil
}

// GetFloatArray resolves obj as an Array and converts every element with
// GetNumber.
func GetFloatArray(r Getter, obj Object) ([]float64, error) {
	array, err := GetArray(r, obj)
	if err != nil || array == nil {
		return nil, err
	}
	out := make([]float64, len(array))
	for i, elem := range array {
		n, err := GetNumber(r, elem)
		if err != nil {
			return nil, fmt.Errorf("array element %d: %w", i, err)
		}
		out[i] = float64(n)
	}
	return out, nil
}

// GetRectangle resolves obj as a 4-element numeric Array and normalizes it.
func GetRectangle(r Getter, obj Object) (Rectangle, bool, error) {
	array, err := GetArray(r, obj)
	if err != nil || array == nil {
		return Rectangle{}, false, err
	}
	rect, err := asRectangle(array)
	if err != nil {
		return Rectangle{}, false, err
	}
	return rect, true, nil
}

// GetDictTyped resolves obj as a Dict and, if the dict has a non-empty
// /Type entry, requires it to equal wantType.
func GetDictTyped(r Getter, obj Object, wantType Name) (Dict, error) {
	dict, err := GetDict(r, obj)
	if dict == nil || err != nil {
		return nil, err
	}
	if err := CheckDictType(r, dict, wantType); err != nil {
		return nil, err
	}
	return dict, nil
}

// CheckDictType validates that dict's /Type, if present, matches wantType.
func CheckDictType(r Getter, dict Dict, wantType Name) error {
	have, err := GetName(r, dict["Type"])
	if err != nil {
		return err
	}
	if have != "" && have != wantType {
		return &MalformedFileError{Err: fmt.Errorf("expected /Type %q, got %q", wantType, have)}
	}
	return nil
}

// GetStreamReader resolves ref to a Stream and returns its fully decoded
// contents.
func GetStreamReader(r Getter, ref Object) (io.ReadCloser, error) {
	stm, err := GetStream(r, ref)
	if err != nil {
		return nil, err
	}
	if stm == nil {
		return nil, fmt.Errorf("no stream found: %w", os.ErrNotExist)
	}
	return DecodeStream(r, stm, 0)
}

// DecodeStream returns a reader over x's decoded payload: decryption (if
// x.crypt is set) followed by every filter in its /Filter chain, or only
// the first numFilters of them when numFilters > 0 (used by callers that
// want to inspect an intermediate encoding, e.g. a DCTDecode-only image
// stream after an upstream FlateDecode has been removed).
func DecodeStream(r Getter, x *Stream, numFilters int) (io.ReadCloser, error) {
	if seeker, ok := x.R.(io.Seeker); ok {
		if _, err := seeker.Seek(0, io.SeekStart); err != nil {
			return nil, err
		}
	}

	filters, err := GetFilters(r, x.Dict)
	if err != nil {
		return nil, err
	}

	var out io.Reader = x.R
	if x.crypt != nil {
		out, err = x.crypt.decryptStream(out)
		if err != nil {
			return nil, err
		}
	}

	for i, f := range filters {
		if numFilters > 0 && i >= numFilters {
			break
		}
		out, err = f.Decode(out)
		if err != nil {
			return nil, err
		}
	}
	return io.NopCloser(out), nil
}

// GetFilters extracts the /Filter and /DecodeParms chain from a stream
// dictionary, pairing each filter name with its parameter dictionary.
func GetFilters(r Getter, dict Dict) ([]Filter, error) {
	decodeParms, err := resolve(r, dict["DecodeParms"], false)
	if err != nil {
		return nil, err
	}
	filter, err := resolve(r, dict["Filter"], false)
	if err != nil {
		return nil, err
	}

	var out []Filter
	switch f := filter.(type) {
	case nil:
	case Name:
		var parms Dict
		if decodeParms != nil {
			var ok bool
			parms, ok = decodeParms.(Dict)
			if !ok {
				return nil, fmt.Errorf("expected Dict but got %T", decodeParms)
			}
		}
		out = append(out, makeFilter(f, parms))
	case Array:
		pa, ok := decodeParms.(Array)
		if !ok && decodeParms != nil {
			return nil, errors.New("invalid /DecodeParms")
		}
		for i, elem := range f {
			n, err := resolve(r, elem, false)
			if err != nil {
				return nil, err
			}
			name, ok := n.(Name)
			if !ok {
				return nil, fmt.Errorf("expected Name but got %T", n)
			}
			var parms Dict
			if len(pa) > i {
				pi, err := resolve(r, pa[i], false)
				if err != nil {
					return nil, err
				}
				if pi != nil {
					parms, ok = pi.(Dict)
					if !ok {
						return nil, fmt.Errorf("expected Dict but got %T", pi)
					}
				}
			}
			out = append(out, makeFilter(name, parms))
		}
	default:
		return nil, &MalformedFileError{Err: fmt.Errorf("invalid /Filter field of type %T", f)}
	}
	return out, nil
}
