// Package numtree reads PDF number trees: the /Kids+/Limits or /Nums leaf
// structure used by the page tree's /PageLabels and similar maps from a
// sorted set of integer keys to arbitrary PDF objects (PDF 32000-1:2008,
// section 7.9.7).
package numtree

import (
	"errors"
	"iter"

	pdf "github.com/pdfray/pdfray"
)

// ErrKeyNotFound is returned by Lookup when the key is absent from the tree.
var ErrKeyNotFound = errors.New("numtree: key not found")

const maxDepth = 64

// Tree reads a number tree lazily against a Getter, resolving /Kids nodes
// only as needed.
type Tree struct {
	r    pdf.Getter
	root pdf.Object
}

// Extract wraps a number-tree root object (a dictionary with /Kids or
// /Nums) for lookup.
func Extract(r pdf.Getter, obj pdf.Object) (*Tree, error) {
	return &Tree{r: r, root: obj}, nil
}

// Lookup finds the value associated with key, descending /Kids nodes
// guided by their /Limits entries.
func (t *Tree) Lookup(key pdf.Integer) (pdf.Object, error) {
	if t == nil || t.root == nil {
		return nil, ErrKeyNotFound
	}
	return lookup(t.r, t.root, key, 0)
}

func lookup(r pdf.Getter, node pdf.Object, key pdf.Integer, depth int) (pdf.Object, error) {
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
				lo, _ := pdf.GetInt(r, limits[0])
				hi, _ := pdf.GetInt(r, limits[1])
				if key < lo || key > hi {
					continue
				}
			}
			if v, err := lookup(r, kidObj, key, depth+1); err == nil {
				return v, nil
			}
		}
		return nil, ErrKeyNotFound
	}

	nums, err := pdf.GetArray(r, dict["Nums"])
	if err != nil {
		return nil, ErrKeyNotFound
	}
	for i := 0; i+1 < len(nums); i += 2 {
		k, err := pdf.GetInt(r, nums[i])
		if err != nil {
			continue
		}
		if k == key {
			return pdf.Resolve(r, nums[i+1])
		}
	}
	return nil, ErrKeyNotFound
}

// All iterates every key/value pair in the tree, in ascending key order.
func (t *Tree) All() iter.Seq2[pdf.Integer, pdf.Object] {
	return func(yield func(pdf.Integer, pdf.Object) bool) {
		if t == nil || t.root == nil {
			return
		}
		walk(t.r, t.root, 0, yield)
	}
}

func walk(r pdf.Getter, node pdf.Object, depth int, yield func(pdf.Integer, pdf.Object) bool) bool {
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

	nums, err := pdf.GetArray(r, dict["Nums"])
	if err != nil {
		return true
	}
	for i := 0; i+1 < len(nums); i += 2 {
		k, err := pdf.GetInt(r, nums[i])
		if err != nil {
			continue
		}
		v, err := pdf.Resolve(r, nums[i+1])
		if err != nil {
			continue
		}
		if !yield(k, v) {
			return false
		}
	}
	return true
}
