// Package nametree reads PDF name trees: the /Kids+/Limits or /Names leaf
// structure used by the document catalog's /Dests, the /StructTreeRoot's
// /IDTree, and similar maps from a sorted set of byte-string keys to
// arbitrary PDF objects (PDF 32000-1:2008, section 7.9.6).
package nametree

import (
	"errors"
	"iter"

	pdf "github.com/pdfray/pdfray"
)

// ErrKeyNotFound is returned by Lookup when the key is absent from the tree.
var ErrKeyNotFound = errors.New("nametree: key not found")

const maxDepth = 64

// Tree reads a name tree lazily against a Getter, resolving /Kids nodes
// only as needed.
type Tree struct {
	r    pdf.Getter
	root pdf.Object
}

// Extract wraps a name-tree root object (a dictionary with /Kids or
// /Names) for lookup.
func Extract(r pdf.Getter, obj pdf.Object) (*Tree, error) {
	if obj == nil {
		return &Tree{r: r, root: nil}, nil
	}
	return &Tree{r: r, root: obj}, nil
}

// Lookup finds the value associated with key, descending /Kids nodes
// guided by their /Limits entries.
func (t *Tree) Lookup(key pdf.Name) (pdf.Object, error) {
	if t == nil || t.root == nil {
		return nil, ErrKeyNotFound
	}
	return lookup(t.r, t.root, pdf.String(key), 0)
}

func lookup(r pdf.Getter, node pdf.Object, key pdf.String, depth int) (pdf.Object, error) {
	if depth >= maxDepth {
		return nil, ErrKeyNotFound
	}
	dict, err := pdf.GetDict(r, node)
	if err != nil || dict == nil {
		return nil, ErrKeyNotFound
	}

	if kids, err := pdf.GetArray(r, dict["Kids"]); err == nil && kids != nil {
		for _, kidObj := range kids {
			kidDict, err := pdf.GetDict(r, kidObj)
			if err != nil || kidDict == nil {
				continue
			}
			limits, err := pdf.GetArray(r, kidDict["Limits"])
			if err == nil && len(limits) == 2 {
				lo, _ := pdf.GetString(r, limits[0])
				hi, _ := pdf.GetString(r, limits[1])
				if string(key) < string(lo) || string(key) > string(hi) {
					continue
				}
			}
			if v, err := lookup(r, kidObj, key, depth+1); err == nil {
				return v, nil
			}
		}
		return nil, ErrKeyNotFound
	}

	names, err := pdf.GetArray(r, dict["Names"])
	if err != nil {
		return nil, ErrKeyNotFound
	}
	for i := 0; i+1 < len(names); i += 2 {
		k, err := pdf.GetString(r, names[i])
		if err != nil {
			continue
		}
		if string(k) == string(key) {
			return pdf.Resolve(r, names[i+1])
		}
	}
	return nil, ErrKeyNotFound
}

// All iterates every key/value pair in the tree, in sorted key order.
func (t *Tree) All() iter.Seq2[pdf.Name, pdf.Object] {
	return func(yield func(pdf.Name, pdf.Object) bool) {
		if t == nil || t.root == nil {
			return
		}
		walk(t.r, t.root, 0, yield)
	}
}

func walk(r pdf.Getter, node pdf.Object, depth int, yield func(pdf.Name, pdf.Object) bool) bool {
	if depth >= maxDepth {
		return true
	}
	dict, err := pdf.GetDict(r, node)
	if err != nil || dict == nil {
		return true
	}

	if kids, err := pdf.GetArray(r, dict["Kids"]); err == nil && kids != nil {
		for _, kidObj := range kids {
			if !walk(r, kidObj, depth+1, yield) {
				return false
			}
		}
		return true
	}

	names, err := pdf.GetArray(r, dict["Names"])
	if err != nil {
		return true
	}
	for i := 0; i+1 < len(names); i += 2 {
		k, err := pdf.GetString(r, names[i])
		if err != nil {
			continue
		}
		v, err := pdf.Resolve(r, names[i+1])
		if err != nil {
			continue
		}
		if !yield(pdf.Name(k), v) {
			return false
		}
	}
	return true
}
