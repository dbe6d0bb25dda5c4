package nametree

import (
	"slices"
	"testing"

	pdf "github.com/pdfray/pdfray"
)

// fakeGetter resolves indirect references from a fixed table, for testing
// multi-level trees without needing a real PDF file.
type fakeGetter map[pdf.Reference]pdf.Object

func (g fakeGetter) Get(ref pdf.Reference, canObjStm bool) (pdf.Object, error) {
	if v, ok := g[ref]; ok {
		return v, nil
	}
	return nil, nil
}

func TestLookupFlatLeaf(t *testing.T) {
	root := pdf.Dict{
		"Names": pdf.Array{
			pdf.String("apple"), pdf.Integer(1),
			pdf.String("banana"), pdf.Integer(2),
			pdf.String("cherry"), pdf.Integer(3),
		},
	}
	tree, err := Extract(nil, root)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		key     pdf.Name
		want    pdf.Object
		wantErr bool
	}{
		{"apple", pdf.Integer(1), false},
		{"banana", pdf.Integer(2), false},
		{"cherry", pdf.Integer(3), false},
		{"durian", nil, true},
	}
	for _, tt := range tests {
		got, err := tree.Lookup(tt.key)
		if (err != nil) != tt.wantErr {
			t.Errorf("Lookup(%q) error = %v, wantErr %v", tt.key, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("Lookup(%q) = %v, want %v", tt.key, got, tt.want)
		}
	}
}

func TestAllSortedLeaf(t *testing.T) {
	root := pdf.Dict{
		"Names": pdf.Array{
			pdf.String("apple"), pdf.Integer(1),
			pdf.String("banana"), pdf.Integer(2),
			pdf.String("zebra"), pdf.Integer(26),
		},
	}
	tree, _ := Extract(nil, root)

	var keys []pdf.Name
	var values []pdf.Object
	for k, v := range tree.All() {
		keys = append(keys, k)
		values = append(values, v)
	}

	wantKeys := []pdf.Name{"apple", "banana", "zebra"}
	wantValues := []pdf.Object{pdf.Integer(1), pdf.Integer(2), pdf.Integer(26)}
	if !slices.Equal(keys, wantKeys) {
		t.Errorf("All() keys = %v, want %v", keys, wantKeys)
	}
	if !slices.Equal(values, wantValues) {
		t.Errorf("All() values = %v, want %v", values, wantValues)
	}
}

func TestLookupMultiLevel(t *testing.T) {
	kid1Ref := pdf.NewReference(1, 0)
	kid2Ref := pdf.NewReference(2, 0)

	g := fakeGetter{
		kid1Ref: pdf.Dict{
			"Limits": pdf.Array{pdf.String("aa0"), pdf.String("mz9")},
			"Names": pdf.Array{
				pdf.String("aa0"), pdf.Integer(0),
				pdf.String("bb1"), pdf.Integer(1),
			},
		},
		kid2Ref: pdf.Dict{
			"Limits": pdf.Array{pdf.String("na0"), pdf.String("zz9")},
			"Names": pdf.Array{
				pdf.String("na0"), pdf.Integer(100),
				pdf.String("zz9"), pdf.Integer(200),
			},
		},
	}
	root := pdf.Dict{"Kids": pdf.Array{kid1Ref, kid2Ref}}

	tree, err := Extract(g, root)
	if err != nil {
		t.Fatal(err)
	}

	got, err := tree.Lookup("bb1")
	if err != nil {
		t.Fatalf("Lookup(bb1): %v", err)
	}
	if got != pdf.Integer(1) {
		t.Errorf("Lookup(bb1) = %v, want 1", got)
	}

	got, err = tree.Lookup("zz9")
	if err != nil {
		t.Fatalf("Lookup(zz9): %v", err)
	}
	if got != pdf.Integer(200) {
		t.Errorf("Lookup(zz9) = %v, want 200", got)
	}

	if _, err := tree.Lookup("missing"); err != ErrKeyNotFound {
		t.Errorf("Lookup(missing) error = %v, want ErrKeyNotFound", err)
	}
}

func TestEmptyTree(t *testing.T) {
	tree, err := Extract(nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := tree.Lookup("anything"); err != ErrKeyNotFound {
		t.Errorf("Lookup on empty tree error = %v, want ErrKeyNotFound", err)
	}
	count := 0
	for range tree.All() {
		count++
	}
	if count != 0 {
		t.Errorf("All() on empty tree yielded %d items, want 0", count)
	}
}

func TestNilTree(t *testing.T) {
	var tree *Tree
	if _, err := tree.Lookup("test"); err != ErrKeyNotFound {
		t.Errorf("nil tree Lookup error = %v, want ErrKeyNotFound", err)
	}
	count := 0
	for range tree.All() {
		count++
	}
	if count != 0 {
		t.Errorf("nil tree All() yielded %d items, want 0", count)
	}
}
