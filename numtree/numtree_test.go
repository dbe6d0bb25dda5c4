package numtree

import (
	"slices"
	"testing"

	pdf "github.com/pdfray/pdfray"
)

type fakeGetter map[pdf.Reference]pdf.Object

func (g fakeGetter) Get(ref pdf.Reference, canObjStm bool) (pdf.Object, error) {
	if v, ok := g[ref]; ok {
		return v, nil
	}
	return nil, nil
}

func TestLookupFlatLeaf(t *testing.T) {
	root := pdf.Dict{
		"Nums": pdf.Array{
			pdf.Integer(1), pdf.Name("one"),
			pdf.Integer(5), pdf.Name("five"),
			pdf.Integer(10), pdf.Name("ten"),
		},
	}
	tree, err := Extract(nil, root)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		key     pdf.Integer
		want    pdf.Object
		wantErr bool
	}{
		{1, pdf.Name("one"), false},
		{5, pdf.Name("five"), false},
		{10, pdf.Name("ten"), false},
		{2, nil, true},
	}
	for _, tt := range tests {
		got, err := tree.Lookup(tt.key)
		if (err != nil) != tt.wantErr {
			t.Errorf("Lookup(%d) error = %v, wantErr %v", tt.key, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("Lookup(%d) = %v, want %v", tt.key, got, tt.want)
		}
	}
}

func TestAllAscendingLeaf(t *testing.T) {
	root := pdf.Dict{
		"Nums": pdf.Array{
			pdf.Integer(1), pdf.Name("one"),
			pdf.Integer(2), pdf.Name("two"),
			pdf.Integer(26), pdf.Name("zebra"),
		},
	}
	tree, _ := Extract(nil, root)

	var keys []pdf.Integer
	var values []pdf.Object
	for k, v := range tree.All() {
		keys = append(keys, k)
		values = append(values, v)
	}

	wantKeys := []pdf.Integer{1, 2, 26}
	wantValues := []pdf.Object{pdf.Name("one"), pdf.Name("two"), pdf.Name("zebra")}
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
			"Limits": pdf.Array{pdf.Integer(0), pdf.Integer(99)},
			"Nums": pdf.Array{
				pdf.Integer(0), pdf.Name("zero"),
				pdf.Integer(50), pdf.Name("fifty"),
			},
		},
		kid2Ref: pdf.Dict{
			"Limits": pdf.Array{pdf.Integer(100), pdf.Integer(199)},
			"Nums": pdf.Array{
				pdf.Integer(100), pdf.Name("hundred"),
				pdf.Integer(199), pdf.Name("last"),
			},
		},
	}
	root := pdf.Dict{"Kids": pdf.Array{kid1Ref, kid2Ref}}

	tree, err := Extract(g, root)
	if err != nil {
		t.Fatal(err)
	}

	got, err := tree.Lookup(50)
	if err != nil {
		t.Fatalf("Lookup(50): %v", err)
	}
	if got != pdf.Name("fifty") {
		t.Errorf("Lookup(50) = %v, want fifty", got)
	}

	got, err = tree.Lookup(199)
	if err != nil {
		t.Fatalf("Lookup(199): %v", err)
	}
	if got != pdf.Name("last") {
		t.Errorf("Lookup(199) = %v, want last", got)
	}

	if _, err := tree.Lookup(9999); err != ErrKeyNotFound {
		t.Errorf("Lookup(9999) error = %v, want ErrKeyNotFound", err)
	}
}

func TestEmptyTree(t *testing.T) {
	tree, err := Extract(nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := tree.Lookup(0); err != ErrKeyNotFound {
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
	if _, err := tree.Lookup(0); err != ErrKeyNotFound {
		t.Errorf("nil tree Lookup error = %v, want ErrKeyNotFound", err)
	}
}
